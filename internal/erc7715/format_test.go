package erc7715

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatPolicy_TagNormalization(t *testing.T) {
	custom, err := FormatPolicy(CustomPolicy{Type: "foo", Data: map[string]any{"x": 1}})
	require.NoError(t, err)
	assert.Equal(t, "foo", custom.Type)
	assert.Equal(t, map[string]any{"x": 1}, custom.Data)

	known, err := FormatPolicy(TokenAllowance{Allowance: big.NewInt(16)})
	require.NoError(t, err)
	assert.Equal(t, "token-allowance", known.Type)
	assert.Equal(t, map[string]any{"allowance": "0x10"}, known.Data)
}

func TestFormatPermission_CustomTypeIsPlainString(t *testing.T) {
	w, err := FormatPermission(Permission{
		Data:    CustomPermission{Type: "session-key", Data: map[string]any{"scope": "game"}},
		ChainID: 10,
	})
	require.NoError(t, err)
	raw, err := json.Marshal(w)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "session-key", got["type"])
	assert.Equal(t, "0xa", got["chainId"])
	assert.Equal(t, map[string]any{"scope": "game"}, got["data"])
}

func TestFormatPolicies(t *testing.T) {
	tests := []struct {
		name string
		in   Policy
		want map[string]any
	}{
		{"gas limit", GasLimit{Limit: big.NewInt(21000)}, map[string]any{"limit": "0x5208"}},
		{"nil limit is zero", GasLimit{}, map[string]any{"limit": "0x0"}},
		{"rate limit stays numeric", RateLimit{Count: 5, Interval: 3600}, map[string]any{"count": int64(5), "interval": int64(3600)}},
		{"native spend", NativeTokenSpendLimit{Allowance: big.NewInt(255)}, map[string]any{"allowance": "0xff"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FormatPolicy(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Data)
		})
	}
}

func TestFormatPermission_PreservesPolicyOrder(t *testing.T) {
	w, err := FormatPermission(Permission{
		Data: NativeTokenTransfer{Ticker: "ETH"},
		Policies: []Policy{
			RateLimit{Count: 1, Interval: 60},
			TokenAllowance{Allowance: big.NewInt(1)},
			GasLimit{Limit: big.NewInt(2)},
		},
	})
	require.NoError(t, err)
	policies := w["policies"].([]WirePolicy)
	require.Len(t, policies, 3)
	assert.Equal(t, "rate-limit", policies[0].Type)
	assert.Equal(t, "token-allowance", policies[1].Type)
	assert.Equal(t, "gas-limit", policies[2].Type)
}

func TestFormatPermission_ExtraFieldsMerged(t *testing.T) {
	w, err := FormatPermission(Permission{
		Data:    AllowedSelector{Selector: hexutil.Bytes{0xa9, 0x05, 0x9c, 0xbb}},
		ChainID: 1,
		Extra: map[string]any{
			"isAdjustmentAllowed": true,
			"chainId":             "ignored",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, true, w["isAdjustmentAllowed"])
	assert.Equal(t, "0x1", w["chainId"], "known fields win over extras")

	raw, err := json.Marshal(w["data"])
	require.NoError(t, err)
	assert.JSONEq(t, `{"selector":"0xa9059cbb"}`, string(raw))
}

func TestFormatPermission_UnknownVariants(t *testing.T) {
	_, err := FormatPermission(Permission{Data: &NativeTokenTransfer{Ticker: "ETH"}})
	assert.ErrorIs(t, err, ErrUnknownVariant)

	_, err = FormatPermission(Permission{
		Data:     NativeTokenTransfer{Ticker: "ETH"},
		Policies: []Policy{&GasLimit{}},
	})
	assert.ErrorIs(t, err, ErrUnknownVariant)

	_, err = FormatPermission(Permission{})
	assert.Error(t, err)
}

func TestFormatSigner(t *testing.T) {
	tests := []struct {
		in   Signer
		want string
	}{
		{AccountSigner{ID: common.HexToAddress("0x01")}, `{"type":"account","data":{"id":"0x0000000000000000000000000000000000000001"}}`},
		{KeySigner{KeyType: KeyTypeSecp256r1, PublicKey: hexutil.Bytes{0x04}}, `{"type":"key","data":{"type":"secp256r1","publicKey":"0x04"}}`},
		{MultiKeySigner{IDs: []string{"a", "b"}}, `{"type":"keys","data":{"ids":["a","b"]}}`},
		{WalletSigner{}, `{"type":"wallet"}`},
		{P256Signer{PublicKey: hexutil.Bytes{0x01, 0x02}}, `{"type":"p256","data":{"publicKey":"0x0102"}}`},
	}
	for _, tt := range tests {
		w, err := FormatSigner(tt.in)
		require.NoError(t, err)
		raw, err := json.Marshal(w)
		require.NoError(t, err)
		assert.JSONEq(t, tt.want, string(raw))

		back, err := DecodeSigner(raw)
		require.NoError(t, err)
		assert.Equal(t, tt.in.SignerType(), back.SignerType())
	}
}

func TestPermissionJSONRoundTrip(t *testing.T) {
	token := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	required := false
	in := Permission{
		Data: RecurringAllowance{
			Token:     &token,
			Allowance: oneEther(),
			Start:     1700000000,
			Period:    86400,
		},
		Policies: []Policy{
			TokenAllowance{Allowance: big.NewInt(42)},
			CustomPolicy{Type: "cooldown", Data: map[string]any{"seconds": float64(30)}},
		},
		Required: &required,
		Account:  common.HexToAddress("0x00000000000000000000000000000000000a11ce"),
		ChainID:  8453,
		Expiry:   1800000000,
		Signer:   KeySigner{KeyType: KeyTypeSecp256k1, PublicKey: hexutil.Bytes{0x02, 0x03}},
		Extra:    map[string]any{"note": "weekly"},
	}

	raw, err := json.Marshal(in)
	require.NoError(t, err)

	var out Permission
	require.NoError(t, json.Unmarshal(raw, &out))

	ra := out.Data.(RecurringAllowance)
	assert.Equal(t, token, *ra.Token)
	assert.Zero(t, oneEther().Cmp(ra.Allowance))
	assert.Equal(t, int64(1700000000), ra.Start)
	assert.Equal(t, int64(86400), ra.Period)

	require.Len(t, out.Policies, 2)
	assert.Zero(t, big.NewInt(42).Cmp(out.Policies[0].(TokenAllowance).Allowance))
	assert.Equal(t, CustomPolicy{Type: "cooldown", Data: map[string]any{"seconds": float64(30)}}, out.Policies[1])

	require.NotNil(t, out.Required)
	assert.False(t, *out.Required)
	assert.Equal(t, in.Account, out.Account)
	assert.Equal(t, in.ChainID, out.ChainID)
	assert.Equal(t, in.Expiry, out.Expiry)
	assert.Equal(t, in.Signer, out.Signer)
	assert.Equal(t, map[string]any{"note": "weekly"}, out.Extra)
}

func TestDecodePolicy_AcceptsCustomTagObject(t *testing.T) {
	p, err := DecodePolicy(json.RawMessage(`{"type":{"custom":"foo"},"data":{"n":1}}`))
	require.NoError(t, err)
	assert.Equal(t, CustomPolicy{Type: "foo", Data: map[string]any{"n": float64(1)}}, p)

	w, err := FormatPolicy(p)
	require.NoError(t, err)
	assert.Equal(t, "foo", w.Type)
}

func TestDecodePolicy_DecimalAllowance(t *testing.T) {
	p, err := DecodePolicy(json.RawMessage(`{"type":"token-allowance","data":{"allowance":"1000000000000000000"}}`))
	require.NoError(t, err)
	assert.Zero(t, oneEther().Cmp(p.(TokenAllowance).Allowance))
}

func TestTypeTagJSON(t *testing.T) {
	var tag TypeTag
	require.NoError(t, json.Unmarshal([]byte(`{"custom":"foo"}`), &tag))
	assert.Equal(t, CustomTag("foo"), tag)
	assert.Equal(t, "foo", tag.String())

	require.NoError(t, json.Unmarshal([]byte(`"gas-limit"`), &tag))
	assert.Equal(t, Tag(TypeGasLimit), tag)

	assert.Error(t, json.Unmarshal([]byte(`{"custom":""}`), &tag))
}
