package caea

import (
	"errors"
	"fmt"
	"time"

	"github.com/afrelay/afrelay/internal/afip"
	"github.com/afrelay/afrelay/internal/clock"
	"github.com/afrelay/afrelay/internal/soap"
)

// DeferredRetryError postpones a job to a known instant instead of the usual
// exponential backoff. AFIP's 15006 rejection names the day the solicitation
// window opens; retrying earlier is pointless.
type DeferredRetryError struct {
	Message     string
	NextRetryAt time.Time
}

func (e *DeferredRetryError) Error() string { return e.Message }

// ResponseError is an AFIP-level rejection carried inside a transport-level
// successful reply: the Errors block of a WSFE result, or a result missing
// the data the job needs.
type ResponseError struct {
	Message string
}

func (e *ResponseError) Error() string { return e.Message }

// errorKind names the failure class for outbox_job events so the monitor can
// group recurring failures.
func errorKind(err error) string {
	var deferred *DeferredRetryError
	if errors.As(err, &deferred) {
		return "DeferredRetryError"
	}
	var call *soap.CallError
	if errors.As(err, &call) {
		return call.Type
	}
	var response *ResponseError
	if errors.As(err, &response) {
		return "AfipResponseError"
	}
	return "error"
}

// afipErrors flattens the Errors block of a WSFE reply.
func afipErrors(list *afip.ErrorList) []afip.Err {
	if list == nil {
		return nil
	}
	return list.Err
}

// errorSummary joins AFIP error entries as "Code: Msg, Code: Msg" for cycle
// and job last_error columns.
func errorSummary(errs []afip.Err) string {
	if len(errs) == 0 {
		return "CAEA not returned by AFIP"
	}
	summary := ""
	for i, e := range errs {
		if i > 0 {
			summary += ", "
		}
		summary += fmt.Sprintf("%d: %s", e.Code, e.Msg)
	}
	return summary
}

// deferredRetryFrom15006 scans the AFIP errors for code 15006 and extracts
// the window opening date from its message. The zero time and false mean no
// deferral applies.
func deferredRetryFrom15006(errs []afip.Err) (time.Time, bool) {
	for _, e := range errs {
		if e.Code != 15006 {
			continue
		}
		if at, ok := clock.ParseDeferredWindowStart(e.Msg); ok {
			return at, true
		}
	}
	return time.Time{}, false
}
