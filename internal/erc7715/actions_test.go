package erc7715

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/0xPexy/sentra-wallet/internal/account"
	"github.com/0xPexy/sentra-wallet/internal/chain"
	"github.com/0xPexy/sentra-wallet/internal/testutil"
	"github.com/0xPexy/sentra-wallet/internal/walletclient"
	"github.com/0xPexy/sentra-wallet/internal/walleterr"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	alice   = account.NewJSONRPCAccount(common.HexToAddress("0x00000000000000000000000000000000000a11ce"))
	mainnet = chain.New(1, "Ethereum")
)

func oneEther() *big.Int {
	v, _ := new(big.Int).SetString("1000000000000000000", 10)
	return v
}

func ethPermission() Permission {
	required := true
	return Permission{
		Data:     NativeTokenTransfer{Ticker: "ETH"},
		Policies: []Policy{TokenAllowance{Allowance: oneEther()}},
		Required: &required,
		ChainID:  1,
		Expiry:   1716846083,
	}
}

type grantParams struct {
	Permissions []map[string]any `json:"permissions"`
}

func sentGrant(t *testing.T, spy *testutil.SpyTransport) map[string]any {
	t.Helper()
	require.Len(t, spy.Calls, 1)
	raw := spy.Calls[0].Arguments.String(1)
	require.True(t, strings.HasPrefix(raw, "{"), "params are sent by name: %s", raw)
	var params grantParams
	require.NoError(t, json.Unmarshal([]byte(raw), &params))
	require.Len(t, params.Permissions, 1)
	return params.Permissions[0]
}

func TestGrantPermissions_FormatsWireRequest(t *testing.T) {
	spy := &testutil.SpyTransport{DefaultRetries: 3}
	spy.On("Request", MethodGrantPermissions, mock.Anything, 0).
		Return(`{"context":"0xc0ffee","permissions":[]}`, nil)

	c := walletclient.New(spy, walletclient.WithAccount(alice), walletclient.WithChain(mainnet))
	res, err := GrantPermissions(context.Background(), c, GrantPermissionsParameters{
		Permissions: []Permission{ethPermission()},
	})
	require.NoError(t, err)
	assert.Equal(t, "0xc0ffee", res.Context)
	spy.AssertExpectations(t)

	perm := sentGrant(t, spy)
	assert.Equal(t, "native-token-transfer", perm["type"])
	assert.Equal(t, map[string]any{"ticker": "ETH"}, perm["data"])
	assert.Equal(t, "0x1", perm["chainId"])
	assert.Equal(t, true, perm["required"])
	assert.Equal(t, float64(1716846083), perm["expiry"])
	assert.Equal(t, "0x00000000000000000000000000000000000a11ce", perm["account"])

	policies := perm["policies"].([]any)
	require.Len(t, policies, 1)
	policy := policies[0].(map[string]any)
	assert.Equal(t, "token-allowance", policy["type"])
	assert.Equal(t, "0xde0b6b3a7640000", policy["data"].(map[string]any)["allowance"])
}

func TestGrantPermissions_AccountNotFound(t *testing.T) {
	spy := &testutil.SpyTransport{}
	c := walletclient.New(spy, walletclient.WithChain(mainnet))

	_, err := GrantPermissions(context.Background(), c, GrantPermissionsParameters{
		Permissions: []Permission{ethPermission()},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, account.ErrAccountNotFound))
	assert.Empty(t, spy.Calls)
}

func TestGrantPermissions_ChainNotFound(t *testing.T) {
	spy := &testutil.SpyTransport{}
	c := walletclient.New(spy, walletclient.WithAccount(alice))

	perm := ethPermission()
	perm.ChainID = 0
	_, err := GrantPermissions(context.Background(), c, GrantPermissionsParameters{
		Permissions: []Permission{perm},
	})
	require.Error(t, err)
	var notFound *chain.ChainNotFoundError
	assert.True(t, errors.As(err, &notFound))
	assert.Empty(t, spy.Calls)
}

func TestGrantPermissions_ExplicitValuesNeedNoDefaults(t *testing.T) {
	spy := &testutil.SpyTransport{}
	spy.On("Request", MethodGrantPermissions, mock.Anything, 0).Return(`{"context":"0x01","permissions":[]}`, nil)

	perm := ethPermission()
	perm.Account = common.HexToAddress("0x000000000000000000000000000000000000b0b0")
	perm.ChainID = 8453
	_, err := GrantPermissions(context.Background(), walletclient.New(spy), GrantPermissionsParameters{
		Permissions: []Permission{perm},
	})
	require.NoError(t, err)

	sent := sentGrant(t, spy)
	assert.Equal(t, "0x2105", sent["chainId"])
	assert.Equal(t, "0x000000000000000000000000000000000000b0b0", sent["account"])
}

func TestGrantPermissions_TransportErrorIsTranslated(t *testing.T) {
	cause := errors.New("user rejected")
	spy := &testutil.SpyTransport{}
	spy.On("Request", MethodGrantPermissions, mock.Anything, 0).Return("", cause)

	c := walletclient.New(spy, walletclient.WithAccount(alice), walletclient.WithChain(mainnet))
	params := GrantPermissionsParameters{Permissions: []Permission{ethPermission()}}
	_, err := GrantPermissions(context.Background(), c, params)

	var txErr *walleterr.TransactionError
	require.True(t, errors.As(err, &txErr))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, MethodGrantPermissions, txErr.Method)
	assert.Equal(t, alice.Address(), txErr.Account.Address())
	assert.Equal(t, uint64(1), txErr.Chain.ID)
	assert.Equal(t, params, txErr.Params)
	assert.Len(t, spy.Calls, 1)
}

func TestGrantPermissions_NegativeAmountRejected(t *testing.T) {
	spy := &testutil.SpyTransport{}
	c := walletclient.New(spy, walletclient.WithAccount(alice), walletclient.WithChain(mainnet))

	perm := ethPermission()
	perm.Policies = []Policy{GasLimit{Limit: big.NewInt(-5)}}
	_, err := GrantPermissions(context.Background(), c, GrantPermissionsParameters{Permissions: []Permission{perm}})
	assert.ErrorIs(t, err, ErrNegativeAmount)
	assert.Empty(t, spy.Calls)
}

func TestGetActivePermissions(t *testing.T) {
	reply := `{"permissions":[{
		"type":"native-token-transfer",
		"data":{"ticker":"ETH"},
		"policies":[{"type":"token-allowance","data":{"allowance":"0xde0b6b3a7640000"}}],
		"chainId":"0x1",
		"expiry":1716846083,
		"signer":{"type":"account","data":{"id":"0x00000000000000000000000000000000000a11ce"}},
		"context":"0xabc"
	}]}`
	spy := &testutil.SpyTransport{DefaultRetries: 3}
	spy.On("Request", MethodGetActivePermissions, `["0x00000000000000000000000000000000000a11ce"]`, 3).Return(reply, nil)

	res, err := GetActivePermissions(context.Background(), walletclient.New(spy), GetActivePermissionsParameters{Account: alice})
	require.NoError(t, err)
	spy.AssertExpectations(t)

	require.Len(t, res.Permissions, 1)
	p := res.Permissions[0]
	assert.Equal(t, NativeTokenTransfer{Ticker: "ETH"}, p.Data)
	assert.Equal(t, uint64(1), p.ChainID)
	require.Len(t, p.Policies, 1)
	assert.Zero(t, oneEther().Cmp(p.Policies[0].(TokenAllowance).Allowance))
	assert.Equal(t, AccountSigner{ID: alice.Address()}, p.Signer)
	assert.Equal(t, "0xabc", p.Extra["context"])
}

func TestGetActivePermissions_BareArrayResult(t *testing.T) {
	spy := &testutil.SpyTransport{}
	spy.On("Request", MethodGetActivePermissions, mock.Anything, 0).
		Return(`[{"type":"allowed-contract","data":{"address":"0x0000000000000000000000000000000000000001"},"chainId":"0x1"}]`, nil)

	c := walletclient.New(spy, walletclient.WithAccount(alice))
	res, err := GetActivePermissions(context.Background(), c, GetActivePermissionsParameters{})
	require.NoError(t, err)
	require.Len(t, res.Permissions, 1)
	assert.Equal(t, AllowedContract{Address: common.HexToAddress("0x01")}, res.Permissions[0].Data)
}

func TestGetActivePermissions_AccountNotFound(t *testing.T) {
	spy := &testutil.SpyTransport{}
	_, err := GetActivePermissions(context.Background(), walletclient.New(spy), GetActivePermissionsParameters{})
	assert.ErrorIs(t, err, account.ErrAccountNotFound)
	assert.Empty(t, spy.Calls)
}

func TestGetActivePermissions_TransportError(t *testing.T) {
	spy := &testutil.SpyTransport{}
	spy.On("Request", MethodGetActivePermissions, mock.Anything, 0).Return("", errors.New("boom"))

	c := walletclient.New(spy, walletclient.WithAccount(alice), walletclient.WithChain(mainnet))
	_, err := GetActivePermissions(context.Background(), c, GetActivePermissionsParameters{})
	var txErr *walleterr.TransactionError
	require.ErrorAs(t, err, &txErr)
	assert.Equal(t, MethodGetActivePermissions, txErr.Method)
	assert.Equal(t, alice.Address(), txErr.Account.Address())
	assert.Equal(t, mainnet, txErr.Chain)
}
