package cmd

import (
	"time"

	"github.com/0xPexy/sentra-wallet/internal/erc7715"
	"github.com/0xPexy/sentra-wallet/internal/permfile"
	"github.com/spf13/cobra"
)

func newPermissionsCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "permissions",
		Short: "Grant and list ERC-7715 permissions",
	}
	cmd.AddCommand(newPermissionsActiveCmd(root), newPermissionsGrantCmd(root))
	return cmd
}

func newPermissionsActiveCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "active",
		Short: "List the permissions the wallet has granted to the account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd.Context(), root.config())
			if err != nil {
				return err
			}
			defer s.Close()

			res, err := erc7715.GetActivePermissions(cmd.Context(), s.client, erc7715.GetActivePermissionsParameters{})
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
}

func newPermissionsGrantCmd(root *rootOptions) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "grant",
		Short: "Request the permissions described in a YAML or JSON file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pf, err := permfile.Load(file)
			if err != nil {
				return err
			}
			perms, err := pf.Permissions(time.Now())
			if err != nil {
				return err
			}

			s, err := openSession(cmd.Context(), root.config())
			if err != nil {
				return err
			}
			defer s.Close()

			res, err := erc7715.GrantPermissions(cmd.Context(), s.client, erc7715.GrantPermissionsParameters{Permissions: perms})
			if err != nil {
				return err
			}
			return printJSON(cmd, res)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "permission request file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
