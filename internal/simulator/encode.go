package simulator

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

func mustABIType(t string, components []abi.ArgumentMarshaling) abi.Type {
	typ, err := abi.NewType(t, "", components)
	if err != nil {
		panic(err)
	}
	return typ
}

func abiPack(args abi.Arguments, values ...any) ([]byte, error) {
	return args.Pack(values...)
}

var (
	executeBatchSelector = crypto.Keccak256([]byte("executeBatch((address,uint256,bytes)[])"))[:4]

	executeBatchArgs = abi.Arguments{{Type: mustABIType("tuple[]", []abi.ArgumentMarshaling{
		{Name: "target", Type: "address"},
		{Name: "value", Type: "uint256"},
		{Name: "data", Type: "bytes"},
	})}}

	bundleHashArgs = abi.Arguments{
		{Type: mustABIType("address", nil)},
		{Type: mustABIType("uint256", nil)},
		{Type: mustABIType("bytes32", nil)},
		{Type: mustABIType("uint256", nil)},
	}
)

// batchCall mirrors the executeBatch tuple; field names must match the ABI
// component names.
type batchCall struct {
	Target common.Address
	Value  *big.Int
	Data   []byte
}

func encodeExecuteBatch(calls []batchCall) ([]byte, error) {
	packed, err := abiPack(executeBatchArgs, calls)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(executeBatchSelector)+len(packed))
	out = append(out, executeBatchSelector...)
	return append(out, packed...), nil
}

// bundleHash = keccak256(abi.encode(sender, nonce, keccak256(callData), chainId))
func bundleHash(sender common.Address, nonce uint64, callData []byte, chainID uint64) (common.Hash, error) {
	packed, err := abiPack(bundleHashArgs,
		sender,
		new(big.Int).SetUint64(nonce),
		crypto.Keccak256Hash(callData),
		new(big.Int).SetUint64(chainID),
	)
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256Hash(packed), nil
}
