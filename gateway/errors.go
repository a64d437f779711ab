package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

// ValidationError means the caller supplied malformed input. It is raised
// before any network call and never consumes an idempotency key.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NetworkError is a transport-level failure reaching the processor. The
// request may never have arrived, so a retry of the same logical intent is
// safe.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("payment gateway unreachable: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// GatewayError means the processor was reached but failed or rejected the
// request. Retries must use a fresh idempotency key.
type GatewayError struct {
	StatusCode int
	RawMessage string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("payment gateway returned %d: %s", e.StatusCode, e.RawMessage)
}

// Authorization reports whether the failure is credential-class and needs
// operator intervention rather than a retry.
func (e *GatewayError) Authorization() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// User-facing failure reasons. Raw gateway payloads never reach the end user.
const (
	MsgInvalidData   = "invalid payment data"
	MsgUnreachable   = "could not reach payment service"
	MsgRejected      = "payment service rejected the request"
	MsgMisconfigured = "payment service misconfigured"
)

// UserMessage maps an internal error to one of the canned user-facing
// messages.
func UserMessage(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return MsgInvalidData
	}
	var ne *NetworkError
	if errors.As(err, &ne) {
		return MsgUnreachable
	}
	var ge *GatewayError
	if errors.As(err, &ge) {
		if ge.Authorization() {
			return MsgMisconfigured
		}
		return MsgRejected
	}
	return MsgRejected
}
