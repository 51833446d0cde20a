package walleterr

import (
	"fmt"
	"strings"

	"github.com/0xPexy/sentra-wallet/internal/account"
	"github.com/0xPexy/sentra-wallet/internal/chain"
	"github.com/0xPexy/sentra-wallet/internal/rpc"
)

// TransactionError is returned for every failed wallet dispatch. It keeps the
// resolved account and chain plus the caller's original parameters.
type TransactionError struct {
	Cause   error
	Method  string
	Account account.Account
	Chain   *chain.Chain
	Params  any
}

// Context is the request data attached to a TransactionError.
type Context struct {
	Method  string
	Account account.Account
	Chain   *chain.Chain
	Params  any
}

// New wraps cause. A cause that is already a *TransactionError is returned
// unchanged.
func New(cause error, ctx Context) *TransactionError {
	if te, ok := cause.(*TransactionError); ok {
		return te
	}
	return &TransactionError{
		Cause:   cause,
		Method:  ctx.Method,
		Account: ctx.Account,
		Chain:   ctx.Chain,
		Params:  ctx.Params,
	}
}

func (e *TransactionError) Error() string {
	var b strings.Builder
	b.WriteString(e.Method)
	b.WriteString(" failed")
	details := make([]string, 0, 2)
	if e.Account != nil {
		details = append(details, "from: "+e.Account.Address().Hex())
	}
	if e.Chain != nil {
		details = append(details, "chain: "+e.Chain.String())
	}
	if len(details) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(details, ", "))
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *TransactionError) Unwrap() error { return e.Cause }

// Code returns the wallet's JSON-RPC error code, when the cause carries one.
func (e *TransactionError) Code() (int, bool) {
	return rpc.ErrorCode(e.Cause)
}
