package cmd

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/0xPexy/sentra-wallet/internal/server"
	"github.com/0xPexy/sentra-wallet/internal/simulator"
	"github.com/0xPexy/sentra-wallet/internal/store"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	// hardhat account #0
	testKey     = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"
	testAddress = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
	testTarget  = "0x70997970C51812dc3A010C7d01b50e0d17dc79C8"
)

func startSimulator(t *testing.T) string {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db, err := store.Open(store.DriverSQLite, filepath.Join(t.TempDir(), "walletsim.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	w := simulator.NewWallet(simulator.Config{ChainID: 31337}, store.NewRepository(db))
	srv := httptest.NewServer(server.NewRouter(server.RouterDeps{Wallet: simulator.NewHandler(w)}))
	t.Cleanup(srv.Close)
	return srv.URL + "/rpc"
}

func isolateEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"WALLET_RPC_URL", "WALLET_ACCOUNT", "WALLET_PRIVATE_KEY", "CHAIN_ID", "CHAIN_NAME",
		"CHAIN_RPC_URL", "RPC_AUTH_TOKEN", "RPC_RATE_LIMIT", "RPC_RETRY_COUNT", "LOG_LEVEL", "APP_ENV",
	} {
		t.Setenv(k, "")
	}
	t.Setenv("LOG_LEVEL", "error")
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestPermissionsAndCallsAgainstSimulator(t *testing.T) {
	isolateEnv(t)
	t.Setenv("WALLET_PRIVATE_KEY", testKey)
	url := startSimulator(t)
	dir := t.TempDir()

	permFile := filepath.Join(dir, "perms.yaml")
	require.NoError(t, os.WriteFile(permFile, []byte(strings.Join([]string{
		"expiry: 1h",
		"permissions:",
		"  - type: native-token-transfer",
		"    data: {ticker: ETH}",
		"    policies:",
		"      - type: native-token-spend-limit",
		"        data: {allowance: 0.5 ether}",
	}, "\n")), 0o600))

	out, err := run(t, "--rpc-url", url, "permissions", "grant", "--file", permFile)
	require.NoError(t, err, out)
	var granted struct {
		Context     string           `json:"context"`
		Permissions []map[string]any `json:"permissions"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &granted))
	require.NotEmpty(t, granted.Context)
	require.Len(t, granted.Permissions, 1)
	assert.Equal(t, "0x7a69", granted.Permissions[0]["chainId"], "chain discovered over eth_chainId")
	assert.Equal(t, strings.ToLower(testAddress), granted.Permissions[0]["account"])

	out, err = run(t, "--rpc-url", url, "permissions", "active")
	require.NoError(t, err, out)
	assert.Contains(t, out, granted.Context)

	out, err = run(t, "--rpc-url", url, "--chain-id", "31337",
		"calls", "prepare", "--to", testTarget, "--value", "0.01ether", "--data", "0x1234", "--context", granted.Context)
	require.NoError(t, err, out)
	bundleFile := filepath.Join(dir, "bundle.json")
	require.NoError(t, os.WriteFile(bundleFile, []byte(out), 0o600))

	out, err = run(t, "--rpc-url", url, "--chain-id", "31337",
		"calls", "send", "--bundle", bundleFile, "--context", granted.Context)
	require.NoError(t, err, out)
	var sent struct {
		ID   string `json:"id"`
		Hash string `json:"hash"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &sent))
	assert.True(t, strings.HasPrefix(sent.ID, "0x"))

	_, err = run(t, "--rpc-url", url, "--chain-id", "31337", "calls", "send", "--bundle", bundleFile)
	require.Error(t, err, "a bundle is only accepted once")

	out, err = run(t, "--rpc-url", url, "--chain-id", "31337", "calls", "exec", "--to", testTarget)
	require.NoError(t, err, out)
	assert.Contains(t, out, `"id"`)
}

func TestCallsRequireSigner(t *testing.T) {
	isolateEnv(t)
	url := startSimulator(t)

	_, err := run(t, "--rpc-url", url, "--account", testAddress, "--chain-id", "31337", "calls", "exec", "--to", testTarget)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WALLET_PRIVATE_KEY")
}

func TestCallFlagValidation(t *testing.T) {
	isolateEnv(t)

	_, err := run(t, "--chain-id", "1", "calls", "prepare", "--to", "nope")
	assert.ErrorContains(t, err, "invalid --to")

	_, err = run(t, "--chain-id", "1", "calls", "prepare", "--to", testTarget, "--value", "3 bananas")
	assert.ErrorContains(t, err, "invalid --value")

	_, err = run(t, "calls", "prepare")
	assert.Error(t, err, "--to is required")
}

func TestReadBundle(t *testing.T) {
	dir := t.TempDir()
	single := filepath.Join(dir, "single.json")
	require.NoError(t, os.WriteFile(single, []byte(
		`{"preparedCalls":{"type":"user-operation-v06","values":[]},"signatureRequest":{"hash":"0x0000000000000000000000000000000000000000000000000000000000000001"}}`), 0o600))
	b, err := readBundle(single)
	require.NoError(t, err)
	assert.Equal(t, "user-operation-v06", b.PreparedCalls.Type)

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte(`[]`), 0o600))
	_, err = readBundle(empty)
	assert.Error(t, err)
}
