package config

import "strings"

type ChainConfig struct {
	// ID zero means the chain id is discovered over RPCURL, or over the
	// wallet endpoint when RPCURL is empty.
	ID     uint64
	Name   string
	RPCURL string
}

func loadChain() ChainConfig {
	return ChainConfig{
		ID:     u64env("CHAIN_ID", 0),
		Name:   getenv("CHAIN_NAME", ""),
		RPCURL: strings.TrimSpace(getenv("CHAIN_RPC_URL", "")),
	}
}

type AccountConfig struct {
	Address    string
	PrivateKey string
}

func loadAccount() AccountConfig {
	addr := strings.TrimSpace(getenv("WALLET_ACCOUNT", ""))
	if addr != "" && !strings.HasPrefix(strings.ToLower(addr), "0x") {
		addr = "0x" + addr
	}
	return AccountConfig{
		Address:    addr,
		PrivateKey: strings.TrimSpace(getenv("WALLET_PRIVATE_KEY", "")),
	}
}
