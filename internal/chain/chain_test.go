package chain

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubIDReader struct {
	id  *big.Int
	err error
}

func (s stubIDReader) ChainID(ctx context.Context) (*big.Int, error) { return s.id, s.err }

func TestResolve(t *testing.T) {
	mainnet := New(1, "mainnet")
	base := New(8453, "base")

	got, err := Resolve(base, mainnet)
	require.NoError(t, err)
	assert.Equal(t, uint64(8453), got.ID)

	got, err = Resolve(nil, mainnet)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), got.ID)

	_, err = Resolve(nil, nil)
	assert.True(t, errors.Is(err, ErrChainNotFound))
}

func TestFromRPC(t *testing.T) {
	c, err := FromRPC(context.Background(), stubIDReader{id: big.NewInt(11155111)}, "sepolia")
	require.NoError(t, err)
	assert.Equal(t, uint64(11155111), c.ID)
	assert.Equal(t, "sepolia (11155111)", c.String())

	_, err = FromRPC(context.Background(), stubIDReader{err: errors.New("dial tcp: refused")}, "")
	assert.ErrorContains(t, err, "refused")

	_, err = FromRPC(context.Background(), stubIDReader{id: big.NewInt(0)}, "")
	assert.Error(t, err)
}
