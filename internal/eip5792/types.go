package eip5792

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Call is one entry of a prepared batch.
type Call struct {
	To   *common.Address
	Data hexutil.Bytes
	// Value in wei. Nil and zero are both omitted on the wire.
	Value *big.Int
	// ChainID overrides the batch chain for this call.
	ChainID *uint64
	Extra   map[string]any
}

type PaymasterService struct {
	URL string `json:"url"`
}

type PermissionsCapability struct {
	// Context is the opaque value returned by wallet_grantPermissions.
	Context string `json:"context"`
}

// Capabilities are optional wallet features requested for the batch.
type Capabilities struct {
	PaymasterService *PaymasterService
	Permissions      *PermissionsCapability
	Extra            map[string]any
}

func (c Capabilities) IsZero() bool {
	return c.PaymasterService == nil && c.Permissions == nil && len(c.Extra) == 0
}

func (c Capabilities) wire() map[string]any {
	if c.IsZero() {
		return nil
	}
	m := make(map[string]any, len(c.Extra)+2)
	for k, v := range c.Extra {
		m[k] = v
	}
	if c.PaymasterService != nil {
		m["paymasterService"] = c.PaymasterService
	}
	if c.Permissions != nil {
		m["permissions"] = c.Permissions
	}
	return m
}

// PreparedCalls is returned by the wallet and must be sent back unmodified.
type PreparedCalls struct {
	Type   string          `json:"type"`
	Values json.RawMessage `json:"values"`
}

// UserOperation is the typed form of a user-operation prepared call.
type UserOperation struct {
	Sender               common.Address `json:"sender"`
	Nonce                *hexutil.Big   `json:"nonce"`
	InitCode             hexutil.Bytes  `json:"initCode"`
	CallData             hexutil.Bytes  `json:"callData"`
	CallGasLimit         *hexutil.Big   `json:"callGasLimit"`
	VerificationGasLimit *hexutil.Big   `json:"verificationGasLimit"`
	PreVerificationGas   *hexutil.Big   `json:"preVerificationGas"`
	MaxFeePerGas         *hexutil.Big   `json:"maxFeePerGas"`
	MaxPriorityFeePerGas *hexutil.Big   `json:"maxPriorityFeePerGas"`
	PaymasterAndData     hexutil.Bytes  `json:"paymasterAndData"`
	Signature            hexutil.Bytes  `json:"signature"`
}

// UserOperations decodes Values without touching the raw payload.
func (p PreparedCalls) UserOperations() ([]UserOperation, error) {
	raw := bytes.TrimSpace(p.Values)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, fmt.Errorf("prepared calls of type %q: values are not a list", p.Type)
	}
	var ops []UserOperation
	if err := json.Unmarshal(raw, &ops); err != nil {
		return nil, fmt.Errorf("prepared calls of type %q: %w", p.Type, err)
	}
	return ops, nil
}

type SignatureRequest struct {
	Hash    common.Hash     `json:"hash"`
	Wrapper json.RawMessage `json:"wrapper,omitempty"`
}

// PreparedBundle is one element of the wallet_prepareCalls result.
type PreparedBundle struct {
	PreparedCalls    PreparedCalls    `json:"preparedCalls"`
	SignatureRequest SignatureRequest `json:"signatureRequest"`
}

const SignatureTypePermissions = "permissions"

type SignatureValues struct {
	Signature hexutil.Bytes `json:"signature"`
	Context   string        `json:"context"`
}

type SignatureData struct {
	Type   string          `json:"type"`
	Values SignatureValues `json:"values"`
}

func PermissionsSignature(sig []byte, permissionsContext string) SignatureData {
	return SignatureData{
		Type:   SignatureTypePermissions,
		Values: SignatureValues{Signature: sig, Context: permissionsContext},
	}
}
