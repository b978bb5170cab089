package observability

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/afrelay/afrelay/internal/clock"
	"github.com/afrelay/afrelay/internal/config"
	"github.com/afrelay/afrelay/internal/credentials"
)

// Collector turns raw traffic into monitor entries: it classifies relayed
// HTTP exchanges, feeds the domain event stream and keeps the ticket state
// fresh. It is the concrete implementation behind the soap and caea event
// hooks, so one wiring covers the whole pipeline.
type Collector struct {
	store   *Store
	metrics *Metrics
	cfg     *config.Config
	clock   clock.Clock
}

// NewCollector wires the collector. metrics may be nil when no Prometheus
// registry is in play (tests, preflight tools).
func NewCollector(store *Store, metrics *Metrics, cfg *config.Config, clk clock.Clock) *Collector {
	if clk == nil {
		clk = clock.System()
	}
	return &Collector{store: store, metrics: metrics, cfg: cfg, clock: clk}
}

// Store exposes the backing store for the monitor handlers.
func (c *Collector) Store() *Store { return c.store }

// HTTPExchange is everything the middleware captured about one request.
type HTTPExchange struct {
	Method       string
	Path         string
	StatusCode   int
	Duration     time.Duration
	TraceID      string
	RequestBody  []byte
	ResponseBody []byte
}

// RecordHTTPExchange classifies and stores one relayed request. A response
// under 400 still counts as an error when the relay envelope says so, which
// is how SOAP faults relayed as 200s stay visible.
func (c *Collector) RecordHTTPExchange(x HTTPExchange) {
	now := c.clock.Now()
	ok := x.StatusCode < 400
	errorType := ""

	if resp := parseJSONObject(x.ResponseBody); resp != nil {
		if status, _ := resp["status"].(string); status == "error" {
			ok = false
			if errBody, found := resp["error"].(map[string]any); found {
				errorType, _ = errBody["error_type"].(string)
			}
		}
	}
	if !ok && errorType == "" {
		errorType = httpStatusKey(x.StatusCode)
	}

	service := ServiceForPath(x.Path)
	entry := RequestLog{
		Timestamp:  now,
		TraceID:    x.TraceID,
		Method:     x.Method,
		Path:       x.Path,
		StatusCode: x.StatusCode,
		OK:         ok,
		DurationMS: float64(x.Duration) / float64(time.Millisecond),
		Service:    service,
		ErrorType:  errorType,
		Cuit:       cuitFromRequest(x.RequestBody),
	}
	c.store.AddRequestLog(entry)
	if c.metrics != nil {
		c.metrics.RecordHTTPRequest(service, x.Method, strconv.Itoa(x.StatusCode), x.Duration.Seconds())
	}

	c.emitHTTPEvents(x, ok, errorType)
}

// emitHTTPEvents mirrors the interesting endpoints onto the domain feed so
// operators see invoicing and token traffic without reading the access log.
func (c *Collector) emitHTTPEvents(x HTTPExchange, ok bool, errorType string) {
	status := "success"
	kind := ""
	if !ok {
		status = "error"
		kind = errorType
	}
	payload := map[string]any{"status_code": x.StatusCode}
	ctx := WithTraceID(context.Background(), x.TraceID)

	switch {
	case strings.HasPrefix(x.Path, "/wsfe/caea"):
		c.EmitDomainEvent(ctx, DomainEvent{
			Service:   "wsfe",
			EventType: "wsfe_caea_http_call",
			Status:    status,
			EntityKey: x.Path,
			ErrorType: kind,
			Payload:   payload,
		})
	case x.Path == "/wsfe/invoices":
		c.EmitDomainEvent(ctx, DomainEvent{
			Service:   "wsfe",
			EventType: "wsfe_fecae_http_call",
			Status:    status,
			EntityKey: "fecae",
			ErrorType: kind,
			Payload:   payload,
		})
	case x.Path == "/wsaa/token" || x.Path == "/wspci/token":
		c.RefreshTokenStates()
		c.EmitDomainEvent(ctx, DomainEvent{
			Service:   strings.TrimSuffix(strings.TrimPrefix(x.Path, "/"), "/token"),
			EventType: "token_renew_http_call",
			Status:    status,
			EntityKey: x.Path,
			ErrorType: kind,
			Payload:   payload,
		})
	}
}

// EmitDomainEvent stamps timestamp and trace id and stores the event.
func (c *Collector) EmitDomainEvent(ctx context.Context, event DomainEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = c.clock.Now()
	}
	if event.TraceID == "" {
		event.TraceID = TraceID(ctx)
	}
	c.store.AddDomainEvent(event)
	if c.metrics != nil {
		c.metrics.RecordDomainEvent(event.EventType, event.Service, event.Status)
	}
}

// SoapCall feeds gateway outcomes onto the domain stream. It satisfies the
// soap package's event hook.
func (c *Collector) SoapCall(ctx context.Context, service, method, status, errorType string) {
	c.EmitDomainEvent(ctx, DomainEvent{
		Service:   service,
		EventType: "soap_call",
		Status:    status,
		EntityKey: method,
		ErrorType: errorType,
	})
	if c.metrics != nil {
		c.metrics.RecordSoapCall(service, method, status, errorType)
	}
}

// OutboxJob feeds worker transitions onto the domain stream. It satisfies
// the caea package's event hook.
func (c *Collector) OutboxJob(ctx context.Context, status, jobType, errorType string, payload map[string]any) {
	c.EmitDomainEvent(ctx, DomainEvent{
		Service:   "wsfe",
		EventType: "outbox_job",
		Status:    status,
		EntityKey: jobType,
		ErrorType: errorType,
		Payload:   payload,
	})
	if c.metrics != nil {
		c.metrics.RecordOutboxJob(jobType, status, errorType)
	}
}

// monitorKeyToTicketService maps the monitor's token keys to the ticket
// files behind them: the "wsaa" entry reports on the WSAA login that backs
// WSFE calls.
var monitorKeyToTicketService = map[string]string{
	"wsaa":  "wsfe",
	"wspci": "wspci",
}

// RefreshTokenStates re-reads both ticket files and updates the monitor's
// token view. Called on token renewals and before serving token status or
// alerts, so the view never reports a state older than the request.
func (c *Collector) RefreshTokenStates() map[string]TokenState {
	now := c.clock.Now()
	out := make(map[string]TokenState, len(monitorKeyToTicketService))
	for key, ticketService := range monitorKeyToTicketService {
		fs := credentials.InspectFile(c.cfg.TicketResponsePath(ticketService), now)

		state := TokenState{Valid: fs.Valid, CheckedAt: isoUTC(now)}
		if fs.ExpiresAt != nil {
			expires := isoUTC(*fs.ExpiresAt)
			state.ExpiresAt = &expires
		}
		if fs.LastError != "" {
			lastError := fs.LastError
			state.LastError = &lastError
		}
		c.store.UpdateTokenStatus(key, state)
		out[key] = state

		if c.metrics != nil {
			seconds := 0.0
			if fs.ExpiresAt != nil {
				seconds = fs.ExpiresAt.Sub(now).Seconds()
			}
			c.metrics.RecordTicketState(key, fs.Valid, seconds)
		}
	}
	return out
}

// ServiceForPath buckets a request path into the summary's service names.
func ServiceForPath(path string) string {
	switch {
	case strings.HasPrefix(path, "/wsfe"):
		return "wsfe"
	case strings.HasPrefix(path, "/wsaa"):
		return "wsaa"
	case strings.HasPrefix(path, "/wspci"):
		return "wspci"
	case strings.HasPrefix(path, "/ui"):
		return "ui"
	case strings.HasPrefix(path, "/health"):
		return "health"
	default:
		return "other"
	}
}

func parseJSONObject(body []byte) map[string]any {
	if len(body) == 0 {
		return nil
	}
	var obj map[string]any
	if err := json.Unmarshal(body, &obj); err != nil {
		return nil
	}
	return obj
}

// cuitFromRequest pulls the CUIT out of a relayed request body, checking the
// top-level field first and the nested Auth block second. Zero means the
// body named none.
func cuitFromRequest(body []byte) int64 {
	obj := parseJSONObject(body)
	if obj == nil {
		return 0
	}
	if cuit := asCuit(obj["Cuit"]); cuit != 0 {
		return cuit
	}
	if auth, ok := obj["Auth"].(map[string]any); ok {
		return asCuit(auth["Cuit"])
	}
	return 0
}

func asCuit(v any) int64 {
	switch value := v.(type) {
	case float64:
		return int64(value)
	case string:
		cuit, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return 0
		}
		return cuit
	default:
		return 0
	}
}
