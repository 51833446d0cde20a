package testutil

import (
	"context"
	"encoding/json"

	"github.com/0xPexy/sentra-wallet/internal/rpc"
	"github.com/stretchr/testify/mock"
)

// SpyTransport is a testify mock of rpc.Transport shared by the action
// packages' tests. Each call records the method, the JSON encoding of the
// params and the effective retry count; the reply JSON is decoded into the
// caller's result.
type SpyTransport struct {
	mock.Mock
	DefaultRetries int
}

func (s *SpyTransport) Request(ctx context.Context, result any, method string, params any, opts ...rpc.RequestOption) error {
	raw, err := json.Marshal(params)
	if err != nil {
		return err
	}
	retries := rpc.ApplyRequestOptions(s.DefaultRetries, opts...)
	args := s.Called(method, string(raw), retries)
	if err := args.Error(1); err != nil {
		return err
	}
	if reply, ok := args.Get(0).(string); ok && reply != "" && result != nil {
		return json.Unmarshal([]byte(reply), result)
	}
	return nil
}
