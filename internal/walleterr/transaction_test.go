package walleterr

import (
	"errors"
	"testing"

	"github.com/0xPexy/sentra-wallet/internal/account"
	"github.com/0xPexy/sentra-wallet/internal/chain"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
)

type codedErr struct{ code int }

func (e codedErr) Error() string  { return "user rejected" }
func (e codedErr) ErrorCode() int { return e.code }

func TestTransactionErrorWrapsCause(t *testing.T) {
	cause := codedErr{code: 4001}
	acc := account.NewJSONRPCAccount(common.HexToAddress("0x00000000000000000000000000000000000000aa"))
	params := map[string]string{"foo": "bar"}

	err := New(cause, Context{
		Method:  "wallet_sendPreparedCalls",
		Account: acc,
		Chain:   chain.New(10, "optimism"),
		Params:  params,
	})

	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, acc, err.Account)
	assert.Equal(t, uint64(10), err.Chain.ID)
	assert.Equal(t, params, err.Params)
	assert.Equal(t,
		"wallet_sendPreparedCalls failed (from: "+acc.Address().Hex()+", chain: optimism (10)): user rejected",
		err.Error())

	code, ok := err.Code()
	assert.True(t, ok)
	assert.Equal(t, 4001, code)
}

func TestNewDoesNotDoubleWrap(t *testing.T) {
	inner := New(errors.New("boom"), Context{Method: "wallet_prepareCalls"})
	outer := New(inner, Context{Method: "other"})
	assert.Same(t, inner, outer)
}
