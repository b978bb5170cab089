package soap

import (
	"context"
	"io"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
)

const (
	ServiceWSAA  = "wsaa"
	ServiceWSFE  = "wsfe"
	ServiceWSPCI = "wspci"
)

const (
	retryWait   = 500 * time.Millisecond
	maxAttempts = 3
)

// Events receives one notification per finished gateway call, success or
// not. The context carries the trace id when the call originated in an HTTP
// request.
type Events interface {
	SoapCall(ctx context.Context, service, method, status, errorType string)
}

type NopEvents struct{}

func (NopEvents) SoapCall(context.Context, string, string, string, string) {}

// Gateway runs SOAP port calls under the relay's retry contract: up to three
// attempts 0.5 s apart for transport trouble, immediate stop on faults and
// unparseable replies.
type Gateway struct {
	events Events
	logger *logrus.Logger
}

func NewGateway(events Events, logger *logrus.Logger) *Gateway {
	if events == nil {
		events = NopEvents{}
	}
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return &Gateway{events: events, logger: logger}
}

// Call invokes fn under the retry contract and emits a soap_call event with
// the final outcome. The returned error is always a *CallError.
func Call[T any](ctx context.Context, g *Gateway, service, method string, fn func(context.Context) (T, error)) (T, error) {
	op := func() (T, error) {
		out, err := fn(ctx)
		if err != nil && !Retryable(err) {
			return out, backoff.Permanent(err)
		}
		return out, err
	}
	notify := func(err error, wait time.Duration) {
		g.logger.WithFields(logrus.Fields{
			"service": service,
			"method":  method,
			"wait":    wait.String(),
		}).Warnf("Retrying AFIP call after error: %v", err)
	}
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(retryWait), maxAttempts-1), ctx)

	out, err := backoff.RetryNotifyWithData(op, policy, notify)
	if err != nil {
		ce := asCallError(err, method)
		g.events.SoapCall(ctx, service, method, "error", ce.Type)
		return out, ce
	}
	g.events.SoapCall(ctx, service, method, "success", "")
	return out, nil
}
