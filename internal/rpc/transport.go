package rpc

import "context"

// Transport sends a single named JSON-RPC method and decodes its result.
// A nil or []any params is sent positionally; any other value is sent as the
// by-name params object.
type Transport interface {
	Request(ctx context.Context, result any, method string, params any, opts ...RequestOption) error
}

// RequestOption adjusts a single Request call.
type RequestOption func(*requestOptions)

type requestOptions struct {
	retryCount *int
}

// WithRetryCount overrides the transport's default retry count for one
// request. Zero disables retries.
func WithRetryCount(n int) RequestOption {
	return func(o *requestOptions) {
		if n < 0 {
			n = 0
		}
		o.retryCount = &n
	}
}

// ApplyRequestOptions resolves the effective retry count for a request.
// Exposed so test transports can assert on what an action asked for.
func ApplyRequestOptions(defaultRetries int, opts ...RequestOption) (retryCount int) {
	o := requestOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.retryCount != nil {
		return *o.retryCount
	}
	return defaultRetries
}
