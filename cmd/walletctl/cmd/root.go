package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	cfgpkg "github.com/0xPexy/sentra-wallet/internal/config"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	rpcURL    string
	account   string
	chainID   uint64
	chainName string
	logLevel  string
}

// NewRootCmd builds the command tree. Configuration comes from the
// environment (and .env); flags override it.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "walletctl",
		Short:         "Drive ERC-7715 permissions and EIP-5792 call bundles against a wallet",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	f := root.PersistentFlags()
	f.StringVar(&opts.rpcURL, "rpc-url", "", "wallet JSON-RPC endpoint (WALLET_RPC_URL)")
	f.StringVar(&opts.account, "account", "", "default account address (WALLET_ACCOUNT)")
	f.Uint64Var(&opts.chainID, "chain-id", 0, "default chain id (CHAIN_ID); discovered over RPC when unset")
	f.StringVar(&opts.chainName, "chain-name", "", "display name for the chain (CHAIN_NAME)")
	f.StringVar(&opts.logLevel, "log-level", "", "log level (LOG_LEVEL)")

	root.AddCommand(newPermissionsCmd(opts), newCallsCmd(opts))
	return root
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// config loads the environment and applies flag overrides.
func (o *rootOptions) config() cfgpkg.Config {
	cfg := cfgpkg.Load()
	if o.rpcURL != "" {
		cfg.RPC.URL = o.rpcURL
	}
	if o.account != "" {
		cfg.Account.Address = o.account
	}
	if o.chainID != 0 {
		cfg.Chain.ID = o.chainID
	}
	if o.chainName != "" {
		cfg.Chain.Name = o.chainName
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	return cfg
}

func printJSON(cmd *cobra.Command, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return err
}
