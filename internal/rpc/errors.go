package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/cenkalti/backoff/v4"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
)

const (
	codeInternalError = -32603
	codeLimitExceeded = -32005
)

// ErrorCode returns the JSON-RPC error code carried by err, if any.
func ErrorCode(err error) (int, bool) {
	var rpcErr gethrpc.Error
	if errors.As(err, &rpcErr) {
		return rpcErr.ErrorCode(), true
	}
	return 0, false
}

// ErrorData returns the JSON-RPC error data carried by err, if any.
func ErrorData(err error) (any, bool) {
	var dataErr gethrpc.DataError
	if errors.As(err, &dataErr) {
		return dataErr.ErrorData(), true
	}
	return nil, false
}

func shouldRetry(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		return false
	}
	if errors.Is(err, gethrpc.ErrNoResult) {
		return false
	}
	var (
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
	)
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return false
	}
	var httpErr gethrpc.HTTPError
	if errors.As(err, &httpErr) {
		switch httpErr.StatusCode {
		case http.StatusRequestTimeout,
			http.StatusRequestEntityTooLarge,
			http.StatusTooManyRequests:
			return true
		}
		return httpErr.StatusCode >= http.StatusInternalServerError
	}
	if code, ok := ErrorCode(err); ok {
		return code == codeInternalError || code == codeLimitExceeded
	}
	// connection level failures
	return true
}

// jsonError is a JSON-RPC error object decoded by the by-name request path.
// It satisfies the same go-ethereum error interfaces as positional calls.
type jsonError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *jsonError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("json-rpc error %d", e.Code)
	}
	return e.Message
}

func (e *jsonError) ErrorCode() int { return e.Code }

func (e *jsonError) ErrorData() interface{} {
	if len(e.Data) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(e.Data, &v); err != nil {
		return string(e.Data)
	}
	return v
}
