package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/0xPexy/sentra-wallet/internal/eip5792"
	"github.com/0xPexy/sentra-wallet/internal/permfile"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
)

type callFlags struct {
	to           string
	data         string
	value        string
	context      string
	paymasterURL string
}

func (f *callFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.to, "to", "", "call target address")
	fl.StringVar(&f.data, "data", "", "hex calldata")
	fl.StringVar(&f.value, "value", "", "value, e.g. 0.01ether, 5gwei, 1000 (wei) or 0x-hex")
	fl.StringVar(&f.context, "context", "", "permissions context from `permissions grant`")
	fl.StringVar(&f.paymasterURL, "paymaster-url", "", "ERC-7677 paymaster service URL")
	_ = cmd.MarkFlagRequired("to")
}

func (f *callFlags) params() (eip5792.PrepareCallsParameters, error) {
	if !common.IsHexAddress(f.to) {
		return eip5792.PrepareCallsParameters{}, fmt.Errorf("invalid --to address %q", f.to)
	}
	to := common.HexToAddress(f.to)
	call := eip5792.Call{To: &to}
	if f.data != "" {
		data, err := hexutil.Decode(f.data)
		if err != nil {
			return eip5792.PrepareCallsParameters{}, fmt.Errorf("invalid --data: %w", err)
		}
		call.Data = data
	}
	if f.value != "" {
		v, err := permfile.ParseAmount(f.value)
		if err != nil {
			return eip5792.PrepareCallsParameters{}, fmt.Errorf("invalid --value: %w", err)
		}
		call.Value = v
	}
	p := eip5792.PrepareCallsParameters{Calls: []eip5792.Call{call}}
	if f.context != "" {
		p.Capabilities.Permissions = &eip5792.PermissionsCapability{Context: f.context}
	}
	if f.paymasterURL != "" {
		p.Capabilities.PaymasterService = &eip5792.PaymasterService{URL: f.paymasterURL}
	}
	return p, nil
}

func newCallsCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calls",
		Short: "Prepare and send EIP-5792 call bundles",
	}
	cmd.AddCommand(newCallsPrepareCmd(root), newCallsSendCmd(root), newCallsExecCmd(root))
	return cmd
}

func newCallsPrepareCmd(root *rootOptions) *cobra.Command {
	var f callFlags
	cmd := &cobra.Command{
		Use:   "prepare",
		Short: "Ask the wallet to prepare a call bundle and print it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := f.params()
			if err != nil {
				return err
			}
			s, err := openSession(cmd.Context(), root.config())
			if err != nil {
				return err
			}
			defer s.Close()

			bundles, err := eip5792.PrepareCalls(cmd.Context(), s.client, p)
			if err != nil {
				return err
			}
			return printJSON(cmd, bundles)
		},
	}
	f.register(cmd)
	return cmd
}

func newCallsSendCmd(root *rootOptions) *cobra.Command {
	var (
		bundleFile string
		context    string
	)
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Sign a bundle printed by `calls prepare` and submit it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := readBundle(bundleFile)
			if err != nil {
				return err
			}
			s, err := openSession(cmd.Context(), root.config())
			if err != nil {
				return err
			}
			defer s.Close()

			return signAndSend(cmd, s, b, context)
		},
	}
	cmd.Flags().StringVarP(&bundleFile, "bundle", "b", "", "file holding the output of `calls prepare`")
	cmd.Flags().StringVar(&context, "context", "", "permissions context to sign with")
	_ = cmd.MarkFlagRequired("bundle")
	return cmd
}

func newCallsExecCmd(root *rootOptions) *cobra.Command {
	var f callFlags
	cmd := &cobra.Command{
		Use:   "exec",
		Short: "Prepare, sign and send a single call",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := f.params()
			if err != nil {
				return err
			}
			s, err := openSession(cmd.Context(), root.config())
			if err != nil {
				return err
			}
			defer s.Close()
			if _, err := s.requireSigner(); err != nil {
				return err
			}

			bundles, err := eip5792.PrepareCalls(cmd.Context(), s.client, p)
			if err != nil {
				return err
			}
			if len(bundles) == 0 {
				return fmt.Errorf("wallet returned no prepared bundle")
			}
			return signAndSend(cmd, s, bundles[0], f.context)
		},
	}
	f.register(cmd)
	return cmd
}

func signAndSend(cmd *cobra.Command, s *session, b eip5792.PreparedBundle, permissionsContext string) error {
	signer, err := s.requireSigner()
	if err != nil {
		return err
	}
	params, err := eip5792.SignBundle(signer, b, permissionsContext)
	if err != nil {
		return err
	}
	id, err := eip5792.SendPreparedCalls(cmd.Context(), s.client, params)
	if err != nil {
		return err
	}
	return printJSON(cmd, map[string]string{"id": id, "hash": b.SignatureRequest.Hash.Hex()})
}

// readBundle accepts either one prepared bundle or the list printed by
// `calls prepare`, in which case the first element is used.
func readBundle(path string) (eip5792.PreparedBundle, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return eip5792.PreparedBundle{}, err
	}
	var list []eip5792.PreparedBundle
	if err := json.Unmarshal(raw, &list); err == nil {
		if len(list) == 0 {
			return eip5792.PreparedBundle{}, fmt.Errorf("%s holds no prepared bundle", path)
		}
		return list[0], nil
	}
	var b eip5792.PreparedBundle
	if err := json.Unmarshal(raw, &b); err != nil {
		return eip5792.PreparedBundle{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return b, nil
}
