package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// caller is the subset of *gethrpc.Client the transport needs.
type caller interface {
	CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error
	Close()
}

// RetryConfig configures retry behaviour for requests that allow it.
type RetryConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:      3,
		InitialInterval: 150 * time.Millisecond,
		MaxInterval:     5 * time.Second,
		Multiplier:      2.0,
	}
}

// Metrics receives one observation per logical request.
type Metrics interface {
	ObserveRequest(method, status string, attempts int, duration time.Duration)
}

type noopMetrics struct{}

func (noopMetrics) ObserveRequest(string, string, int, time.Duration) {}

// Client is a Transport backed by go-ethereum's JSON-RPC client.
type Client struct {
	caller  caller
	retry   RetryConfig
	limiter *rate.Limiter
	metrics Metrics
	logger  *zap.Logger

	headers     map[string]string
	httpTimeout time.Duration

	// set by Dial for http(s) endpoints; by-name params bypass caller
	url    string
	httpc  *http.Client
	nextID atomic.Uint64
}

type Option func(*Client)

func WithRetryConfig(cfg RetryConfig) Option {
	return func(c *Client) { c.retry = cfg }
}

// WithRateLimit caps outbound attempts at rps with the given burst.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

func WithMetrics(m Metrics) Option {
	return func(c *Client) {
		if m != nil {
			c.metrics = m
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithHeader adds an HTTP header to every request. Only used by Dial.
func WithHeader(key, value string) Option {
	return func(c *Client) { c.headers[key] = value }
}

// WithBearerToken sets the Authorization header. Only used by Dial.
func WithBearerToken(token string) Option {
	return func(c *Client) {
		if token != "" {
			c.headers["Authorization"] = "Bearer " + token
		}
	}
}

// WithHTTPTimeout bounds each HTTP round trip. Only used by Dial.
func WithHTTPTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpTimeout = d }
}

func newClient(opts ...Option) *Client {
	c := &Client{
		retry:       DefaultRetryConfig(),
		metrics:     noopMetrics{},
		logger:      zap.NewNop(),
		headers:     map[string]string{},
		httpTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Dial connects to an http(s) or ws(s) JSON-RPC endpoint.
func Dial(ctx context.Context, url string, opts ...Option) (*Client, error) {
	c := newClient(opts...)
	httpClient := &http.Client{Timeout: c.httpTimeout}
	dialOpts := []gethrpc.ClientOption{
		gethrpc.WithHTTPClient(httpClient),
	}
	for k, v := range c.headers {
		dialOpts = append(dialOpts, gethrpc.WithHeader(k, v))
	}
	rc, err := gethrpc.DialOptions(ctx, url, dialOpts...)
	if err != nil {
		return nil, errors.Wrapf(err, "dial wallet rpc %s", url)
	}
	c.caller = rc
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		c.url = url
		c.httpc = httpClient
	}
	return c, nil
}

// NewClient wraps an already connected go-ethereum rpc client.
func NewClient(rc *gethrpc.Client, opts ...Option) *Client {
	c := newClient(opts...)
	c.caller = rc
	return c
}

func (c *Client) Close() {
	if c.caller != nil {
		c.caller.Close()
	}
}

// Request performs method with params, retrying transient failures up to the
// effective retry count. Slice params go out positionally through the
// go-ethereum client; any other value is sent as the by-name params object.
func (c *Client) Request(ctx context.Context, result any, method string, params any, opts ...RequestOption) error {
	retries := ApplyRequestOptions(c.retry.MaxRetries, opts...)
	start := time.Now()
	attempts := 0

	operation := func() error {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return backoff.Permanent(err)
			}
		}
		attempts++
		c.logger.Debug("wallet rpc request",
			zap.String("method", method),
			zap.Int("attempt", attempts))
		err := c.call(ctx, result, method, params)
		if err == nil {
			return nil
		}
		if !shouldRetry(err) {
			return backoff.Permanent(err)
		}
		c.logger.Warn("wallet rpc attempt failed",
			zap.String("method", method),
			zap.Int("attempt", attempts),
			zap.Error(err))
		return err
	}

	err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(c.newBackOff(), uint64(retries)), ctx))

	status := "ok"
	if err != nil {
		status = "error"
		c.logger.Warn("wallet rpc request failed",
			zap.String("method", method),
			zap.Int("attempts", attempts),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
	}
	c.metrics.ObserveRequest(method, status, attempts, time.Since(start))
	return err
}

func (c *Client) call(ctx context.Context, result any, method string, params any) error {
	switch p := params.(type) {
	case nil:
		return c.caller.CallContext(ctx, result, method)
	case []any:
		return c.caller.CallContext(ctx, result, method, p...)
	default:
		return c.callByName(ctx, result, method, p)
	}
}

type jsonrpcRequest struct {
	Version string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
}

type jsonrpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *jsonError      `json:"error"`
}

// callByName posts a JSON-RPC envelope whose params is an object. The
// go-ethereum client always wraps arguments in an array, so this goes over
// the same HTTP client directly.
func (c *Client) callByName(ctx context.Context, result any, method string, params any) error {
	if c.httpc == nil {
		return backoff.Permanent(errors.Errorf("%s: by-name params need an http(s) endpoint", method))
	}
	body, err := json.Marshal(jsonrpcRequest{Version: "2.0", ID: c.nextID.Add(1), Method: method, Params: params})
	if err != nil {
		return backoff.Permanent(errors.Wrapf(err, "encode %s params", method))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return backoff.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return gethrpc.HTTPError{StatusCode: resp.StatusCode, Status: resp.Status, Body: respBody}
	}

	var msg jsonrpcResponse
	if err := json.Unmarshal(respBody, &msg); err != nil {
		return err
	}
	if msg.Error != nil {
		return msg.Error
	}
	if result == nil {
		return nil
	}
	if len(msg.Result) == 0 || string(msg.Result) == "null" {
		return gethrpc.ErrNoResult
	}
	return json.Unmarshal(msg.Result, result)
}

func (c *Client) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retry.InitialInterval
	if c.retry.MaxInterval > 0 {
		b.MaxInterval = c.retry.MaxInterval
	}
	if c.retry.Multiplier > 0 {
		b.Multiplier = c.retry.Multiplier
	}
	// attempts are bounded by WithMaxRetries
	b.MaxElapsedTime = 0
	return b
}
