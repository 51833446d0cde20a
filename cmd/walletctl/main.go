// Command walletctl grants ERC-7715 permissions and sends EIP-5792 call
// bundles through a wallet JSON-RPC endpoint.
package main

import "github.com/0xPexy/sentra-wallet/cmd/walletctl/cmd"

func main() {
	cmd.Execute()
}
