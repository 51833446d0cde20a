package account

import "errors"

// ErrAccountNotFound matches any *AccountNotFoundError via errors.Is.
var ErrAccountNotFound = errors.New("could not find an account to perform the request")

type AccountNotFoundError struct {
	DocsPath string
}

func (e *AccountNotFoundError) Error() string {
	msg := ErrAccountNotFound.Error() + ": pass an account explicitly or configure a default account on the client"
	if e.DocsPath != "" {
		msg += " (see " + e.DocsPath + ")"
	}
	return msg
}

func (e *AccountNotFoundError) Is(target error) bool { return target == ErrAccountNotFound }
