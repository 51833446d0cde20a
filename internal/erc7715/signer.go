package erc7715

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

const (
	SignerTypeAccount = "account"
	SignerTypeKey     = "key"
	SignerTypeKeys    = "keys"
	SignerTypeWallet  = "wallet"
	SignerTypeP256    = "p256"

	KeyTypeSecp256k1 = "secp256k1"
	KeyTypeSecp256r1 = "secp256r1"
)

// Signer identifies who may exercise a permission.
type Signer interface {
	SignerType() string
	isSigner()
}

type AccountSigner struct {
	ID common.Address
}

type KeySigner struct {
	// KeyType is KeyTypeSecp256k1 or KeyTypeSecp256r1.
	KeyType   string
	PublicKey hexutil.Bytes
}

type MultiKeySigner struct {
	IDs []string
}

type WalletSigner struct{}

type P256Signer struct {
	PublicKey hexutil.Bytes
}

func (AccountSigner) SignerType() string  { return SignerTypeAccount }
func (KeySigner) SignerType() string      { return SignerTypeKey }
func (MultiKeySigner) SignerType() string { return SignerTypeKeys }
func (WalletSigner) SignerType() string   { return SignerTypeWallet }
func (P256Signer) SignerType() string     { return SignerTypeP256 }

func (AccountSigner) isSigner()  {}
func (KeySigner) isSigner()      {}
func (MultiKeySigner) isSigner() {}
func (WalletSigner) isSigner()   {}
func (P256Signer) isSigner()     {}
