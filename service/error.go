package service

import (
	"errors"
	"fmt"
)

// Verify Interface Compliance
var _ error = (*Err)(nil)

// Err defines service errors.
type Err struct {
	Code    int64  `json:"code"`
	Message string `json:"error"`
}

func (e Err) Enrich(message string) Err {
	return Err{
		Code:    e.Code,
		Message: fmt.Sprintf("%s: %s", e.Message, message),
	}
}

func (e Err) Error() string {
	return fmt.Sprintf("%d: %s", e.Code, e.Message)
}

var (
	NoErr       = Err{Code: 200, Message: "success"}
	NotFoundErr = Err{Code: 404, Message: "not found"}
	BadInputErr = Err{Code: 400, Message: "invalid request"}
	InternalErr = Err{Code: 500, Message: "internal error"}

	// ErrDappNotFound is a normal absence, not a failure: the name or id is
	// simply not registered.
	ErrDappNotFound = errors.New("dapp not found in registry")
	// errMalformedDapp marks a registry entry whose on-ledger shape is
	// missing required nested fields. Such entries are dropped from batch
	// results and logged, never propagated.
	errMalformedDapp = errors.New("malformed registry entry")
)
