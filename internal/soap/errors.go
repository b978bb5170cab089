package soap

import (
	"context"
	"errors"
	"fmt"
)

// Error taxonomy mirrored in every error envelope. The strings are part of
// the wire contract: the monitor groups failures by them.
const (
	ErrTypeNetwork         = "Network error"
	ErrTypeHTTP            = "HTTP Error"
	ErrTypeFault           = "SOAPFault"
	ErrTypeInvalidResponse = "Invalid AFIP response"
	ErrTypeUnknown         = "unknown"
)

// CallError is the terminal failure of one gateway call.
type CallError struct {
	Type   string
	Detail string
	Method string
}

func (e *CallError) Error() string {
	if e.Method == "" {
		return fmt.Sprintf("%s: %s", e.Type, e.Detail)
	}
	return fmt.Sprintf("%s in %s: %s", e.Type, e.Method, e.Detail)
}

// Retryable reports whether a failed attempt is worth repeating. Faults and
// malformed responses are final; transport trouble is not.
func Retryable(err error) bool {
	var ce *CallError
	if errors.As(err, &ce) {
		return ce.Type == ErrTypeNetwork || ce.Type == ErrTypeHTTP
	}
	return false
}

// asCallError normalizes any failure into a CallError, stamping the method
// that produced it.
func asCallError(err error, method string) *CallError {
	var ce *CallError
	if errors.As(err, &ce) {
		if ce.Method == "" {
			ce.Method = method
		}
		return ce
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &CallError{Type: ErrTypeNetwork, Detail: err.Error(), Method: method}
	}
	return &CallError{Type: ErrTypeUnknown, Detail: err.Error(), Method: method}
}
