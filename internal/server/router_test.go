package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/0xPexy/sentra-wallet/internal/auth"
	"github.com/0xPexy/sentra-wallet/internal/metrics"
	"github.com/0xPexy/sentra-wallet/internal/simulator"
	"github.com/0xPexy/sentra-wallet/internal/store"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const grantBody = `{"jsonrpc":"2.0","id":1,"method":"wallet_grantPermissions","params":{"permissions":[` +
	`{"type":"native-token-transfer","data":{"ticker":"ETH"},` +
	`"account":"0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266","chainId":"0x7a69","expiry":0,"policies":[]}]}}`

func newTestServer(t *testing.T, verifier *auth.Verifier, upstream *UpstreamProxy) (*httptest.Server, *EventHub) {
	t.Helper()
	db, err := store.Open(store.DriverSQLite, filepath.Join(t.TempDir(), "walletsim.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	hub := NewEventHub(nil)
	w := simulator.NewWallet(simulator.Config{ChainID: 31337}, store.NewRepository(db),
		simulator.WithPublisher(hub),
		simulator.WithMetrics(m),
	)
	h := simulator.NewHandler(w)
	if upstream != nil {
		h = h.WithUpstream(upstream)
	}
	r := NewRouter(RouterDeps{Wallet: h, Hub: hub, Auth: verifier, Metrics: m, Gatherer: reg})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, hub
}

func postRPC(t *testing.T, url, body, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url+"/rpc", strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func readAll(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func TestRouterRoutes(t *testing.T) {
	srv, _ := newTestServer(t, nil, nil)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	rpcResp := postRPC(t, srv.URL, `{"jsonrpc":"2.0","id":1,"method":"eth_chainId","params":[]}`, "")
	assert.JSONEq(t, `{"jsonrpc":"2.0","id":1,"result":"0x7a69"}`, readAll(t, rpcResp))

	missing, err := http.Get(srv.URL + "/api/v1/bundles/0xabc")
	require.NoError(t, err)
	defer missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)

	bad, err := http.Get(srv.URL + "/api/v1/permissions/not-an-address")
	require.NoError(t, err)
	defer bad.Body.Close()
	assert.Equal(t, http.StatusBadRequest, bad.StatusCode)

	m, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer m.Body.Close()
	body := readAll(t, m)
	assert.Contains(t, body, `sentra_wallet_http_requests_total{method="POST",path="/rpc",status="200"} 1`)
}

func TestRouterAuth(t *testing.T) {
	srv, _ := newTestServer(t, auth.NewVerifier("s3cret", ""), nil)
	chainID := `{"jsonrpc":"2.0","id":1,"method":"eth_chainId","params":[]}`

	assert.Equal(t, http.StatusUnauthorized, postRPC(t, srv.URL, chainID, "").StatusCode)
	assert.Equal(t, http.StatusUnauthorized, postRPC(t, srv.URL, chainID, "nope").StatusCode)
	assert.Equal(t, http.StatusOK, postRPC(t, srv.URL, chainID, "s3cret").StatusCode)

	health, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer health.Body.Close()
	assert.Equal(t, http.StatusOK, health.StatusCode, "only /rpc is guarded")
}

func TestEventsReachWebsocketSubscribers(t *testing.T) {
	srv, hub := newTestServer(t, nil, nil)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.Subscribers() == 1 }, 2*time.Second, 10*time.Millisecond)

	resp := postRPC(t, srv.URL, grantBody, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	var ev simulator.Event
	require.NoError(t, json.Unmarshal(msg, &ev))
	assert.Equal(t, simulator.EventPermissionsGranted, ev.Type)
	assert.Equal(t, uint64(31337), ev.ChainID)
	assert.Equal(t, 1, ev.Count)
}

func TestUpstreamProxy(t *testing.T) {
	forwarded := make(chan string, 1)
	node := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		forwarded <- string(b)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":3,"result":"0x2a"}`))
	}))
	defer node.Close()

	assert.Nil(t, NewUpstreamProxy("", nil))
	srv, _ := newTestServer(t, nil, NewUpstreamProxy(node.URL, nil))

	resp := postRPC(t, srv.URL, `{"jsonrpc":"2.0","id":3,"method":"eth_blockNumber","params":[]}`, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"jsonrpc":"2.0","id":3,"result":"0x2a"}`, readAll(t, resp))
	assert.Contains(t, <-forwarded, `"method":"eth_blockNumber"`)
}

func TestUpstreamProxyUnreachable(t *testing.T) {
	node := httptest.NewServer(http.NotFoundHandler())
	url := node.URL
	node.Close()

	srv, _ := newTestServer(t, nil, NewUpstreamProxy(url, nil))
	resp := postRPC(t, srv.URL, `{"jsonrpc":"2.0","id":3,"method":"eth_blockNumber","params":[]}`, "")
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
}
