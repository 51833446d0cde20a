package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
)

type Chain struct {
	ID   uint64
	Name string
}

func New(id uint64, name string) *Chain {
	return &Chain{ID: id, Name: name}
}

func (c *Chain) String() string {
	if c.Name == "" {
		return fmt.Sprintf("chain %d", c.ID)
	}
	return fmt.Sprintf("%s (%d)", c.Name, c.ID)
}

// Resolve picks explicit when set, otherwise ambient.
func Resolve(explicit, ambient *Chain) (*Chain, error) {
	if explicit != nil {
		return explicit, nil
	}
	if ambient != nil {
		return ambient, nil
	}
	return nil, &ChainNotFoundError{}
}

// IDReader is satisfied by *ethclient.Client.
type IDReader interface {
	ChainID(ctx context.Context) (*big.Int, error)
}

// FromRPC asks the node for eth_chainId.
func FromRPC(ctx context.Context, r IDReader, name string) (*Chain, error) {
	id, err := r.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("get chain id: %w", err)
	}
	if id.Sign() <= 0 || !id.IsUint64() {
		return nil, fmt.Errorf("node returned invalid chain id %s", id)
	}
	return New(id.Uint64(), name), nil
}

var ErrChainNotFound = errors.New("no chain was provided to the request")

type ChainNotFoundError struct{}

func (e *ChainNotFoundError) Error() string {
	return ErrChainNotFound.Error() + ": pass a chain explicitly or configure a default chain on the client"
}

func (e *ChainNotFoundError) Is(target error) bool { return target == ErrChainNotFound }
