package simulator

import (
	"encoding/json"
	"fmt"
)

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      any             `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

type rpcResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      any         `json:"id"`
	Result  any         `json:"result,omitempty"`
	Error   *rpcErrBody `json:"error,omitempty"`
}

type rpcErrBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func rpcOK(id any, result any) rpcResponse {
	return rpcResponse{JSONRPC: "2.0", ID: id, Result: result}
}

func rpcErr(id any, code int, msg string) rpcResponse {
	return rpcResponse{JSONRPC: "2.0", ID: id, Error: &rpcErrBody{Code: code, Message: msg}}
}

const (
	errInvalidRequest = -32600
	errMethodNotFound = -32601
	errInvalidParams  = -32602
	errServer         = -32000
	// EIP-1193 unauthorized
	errUnauthorized = 4100
)

// rpcError lets method implementations choose the JSON-RPC error code.
type rpcError struct {
	code int
	msg  string
}

func (e *rpcError) Error() string { return e.msg }

func invalidParams(format string, args ...any) error {
	return &rpcError{code: errInvalidParams, msg: fmt.Sprintf(format, args...)}
}

func unauthorized(format string, args ...any) error {
	return &rpcError{code: errUnauthorized, msg: fmt.Sprintf(format, args...)}
}

// Event is published to websocket subscribers after each state change.
type Event struct {
	Type     string `json:"type"`
	Account  string `json:"account"`
	ChainID  uint64 `json:"chainId"`
	Context  string `json:"context,omitempty"`
	Hash     string `json:"hash,omitempty"`
	BundleID string `json:"bundleId,omitempty"`
	Count    int    `json:"count,omitempty"`
	At       int64  `json:"at"`
}

const (
	EventPermissionsGranted = "permissions_granted"
	EventCallsPrepared      = "calls_prepared"
	EventCallsSent          = "calls_sent"
)
