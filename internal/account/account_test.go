package account

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// well-known hardhat key #0
const testKey = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

func TestParse(t *testing.T) {
	acc, err := Parse("0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266")
	require.NoError(t, err)
	assert.Equal(t, "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266", acc.Address().Hex())

	_, err = Parse("0x1234")
	assert.Error(t, err)
}

func TestResolve(t *testing.T) {
	explicit := NewJSONRPCAccount(common.HexToAddress("0x01"))
	ambient := NewJSONRPCAccount(common.HexToAddress("0x02"))

	got, err := Resolve(explicit, ambient)
	require.NoError(t, err)
	assert.Equal(t, explicit.Address(), got.Address())

	got, err = Resolve(nil, ambient)
	require.NoError(t, err)
	assert.Equal(t, ambient.Address(), got.Address())

	_, err = Resolve(nil, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAccountNotFound))
	var notFound *AccountNotFoundError
	assert.True(t, errors.As(err, &notFound))
}

func TestLocalAccountSignHash(t *testing.T) {
	acc, err := NewLocalAccount(testKey)
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0xf39fd6e51aad88f6f4ce6ab8827279cfffb92266"), acc.Address())

	hash := crypto.Keccak256Hash([]byte("prepared calls"))
	sig, err := acc.SignHash(hash)
	require.NoError(t, err)
	require.Len(t, sig, 65)
	assert.Contains(t, []byte{27, 28}, sig[64])

	recoverable := append([]byte(nil), sig...)
	recoverable[64] -= 27
	pub, err := crypto.SigToPub(hash[:], recoverable)
	require.NoError(t, err)
	assert.Equal(t, acc.Address(), crypto.PubkeyToAddress(*pub))
}

func TestNewLocalAccountRejectsGarbage(t *testing.T) {
	_, err := NewLocalAccount("0xnotakey")
	assert.Error(t, err)
}
