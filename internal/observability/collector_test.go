package observability

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afrelay/afrelay/internal/clock"
	"github.com/afrelay/afrelay/internal/config"
)

func newTestCollector(t *testing.T) (*Collector, *Store, *config.Config) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Tickets.XMLDir = t.TempDir()
	store := NewStore(100, 100, clock.Fixed(storeNow))
	return NewCollector(store, nil, cfg, clock.Fixed(storeNow)), store, cfg
}

func writeTicketFile(t *testing.T, path string, expires time.Time) {
	t.Helper()
	xml := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<loginTicketResponse version="1.0">
  <header>
    <source>CN=wsaahomo</source>
    <destination>CN=afrelay</destination>
    <uniqueId>123456</uniqueId>
    <generationTime>%s</generationTime>
    <expirationTime>%s</expirationTime>
  </header>
  <credentials>
    <token>dG9rZW4=</token>
    <sign>c2lnbg==</sign>
  </credentials>
</loginTicketResponse>`,
		expires.Add(-12*time.Hour).Format(time.RFC3339),
		expires.Format(time.RFC3339))
	require.NoError(t, os.WriteFile(path, []byte(xml), 0o644))
}

func TestRecordHTTPExchangeClassifiesEnvelopeError(t *testing.T) {
	collector, store, _ := newTestCollector(t)

	collector.RecordHTTPExchange(HTTPExchange{
		Method:       "POST",
		Path:         "/wsfe/invoices/last-authorized",
		StatusCode:   200,
		Duration:     80 * time.Millisecond,
		TraceID:      "trace-1",
		RequestBody:  []byte(`{"Cuit":30740253022,"PtoVta":1,"CbteTipo":11}`),
		ResponseBody: []byte(`{"status":"error","error":{"error_type":"SOAPFault","detail":"fault","method":"FECompUltimoAutorizado"}}`),
	})

	page := store.Logs(LogQuery{})
	require.Equal(t, 1, page.Total)
	row := page.Items[0]
	assert.False(t, row.OK)
	assert.Equal(t, 200, row.StatusCode)
	require.NotNil(t, row.ErrorType)
	assert.Equal(t, "SOAPFault", *row.ErrorType)
	assert.Equal(t, "wsfe", row.Service)
	assert.Equal(t, "trace-1", row.TraceID)
	assert.InDelta(t, 80, row.DurationMS, 1e-9)
	require.NotNil(t, row.Cuit)
	assert.Equal(t, int64(30740253022), *row.Cuit)
}

func TestRecordHTTPExchangeFallsBackToStatusCode(t *testing.T) {
	collector, store, _ := newTestCollector(t)

	collector.RecordHTTPExchange(HTTPExchange{
		Method:     "GET",
		Path:       "/ui/logs",
		StatusCode: 503,
		Duration:   time.Millisecond,
	})

	row := store.Logs(LogQuery{}).Items[0]
	assert.False(t, row.OK)
	require.NotNil(t, row.ErrorType)
	assert.Equal(t, "HTTP_503", *row.ErrorType)
	assert.Equal(t, "ui", row.Service)
	assert.Nil(t, row.Cuit)
}

func TestRecordHTTPExchangeReadsNestedAuthCuit(t *testing.T) {
	collector, store, _ := newTestCollector(t)

	collector.RecordHTTPExchange(HTTPExchange{
		Method:       "POST",
		Path:         "/wsfe/invoices",
		StatusCode:   200,
		Duration:     time.Millisecond,
		RequestBody:  []byte(`{"Auth":{"Cuit":"20111111112"},"FeCAEReq":{}}`),
		ResponseBody: []byte(`{"status":"success","response":{}}`),
	})

	row := store.Logs(LogQuery{}).Items[0]
	assert.True(t, row.OK)
	require.NotNil(t, row.Cuit)
	assert.Equal(t, int64(20111111112), *row.Cuit)
}

func TestInvoiceAndCaeaTrafficLandsOnEventFeed(t *testing.T) {
	collector, store, _ := newTestCollector(t)

	collector.RecordHTTPExchange(HTTPExchange{
		Method: "POST", Path: "/wsfe/invoices", StatusCode: 200,
		ResponseBody: []byte(`{"status":"success"}`),
	})
	collector.RecordHTTPExchange(HTTPExchange{
		Method: "POST", Path: "/wsfe/caea/solicitar", StatusCode: 200,
		ResponseBody: []byte(`{"status":"error","error":{"error_type":"AfipResponseError","detail":"15006"}}`),
	})
	collector.RecordHTTPExchange(HTTPExchange{
		Method: "GET", Path: "/wsfe/params/types-cbte", StatusCode: 200,
		ResponseBody: []byte(`{"status":"success"}`),
	})

	events := store.Events(EventQuery{})
	require.Equal(t, 2, events.Total)

	caea := events.Items[0]
	assert.Equal(t, "wsfe_caea_http_call", caea.EventType)
	assert.Equal(t, "error", caea.Status)
	require.NotNil(t, caea.EntityKey)
	assert.Equal(t, "/wsfe/caea/solicitar", *caea.EntityKey)
	require.NotNil(t, caea.ErrorType)
	assert.Equal(t, "AfipResponseError", *caea.ErrorType)
	assert.Equal(t, map[string]any{"status_code": 200}, caea.Payload)

	fecae := events.Items[1]
	assert.Equal(t, "wsfe_fecae_http_call", fecae.EventType)
	assert.Equal(t, "success", fecae.Status)
	require.NotNil(t, fecae.EntityKey)
	assert.Equal(t, "fecae", *fecae.EntityKey)
	assert.Nil(t, fecae.ErrorType)
}

func TestTokenRenewalRefreshesTokenView(t *testing.T) {
	collector, store, cfg := newTestCollector(t)
	writeTicketFile(t, cfg.TicketResponsePath("wsfe"), storeNow.Add(8*time.Hour))

	collector.RecordHTTPExchange(HTTPExchange{
		Method: "POST", Path: "/wsaa/token", StatusCode: 200,
		ResponseBody: []byte(`{"status":"success"}`),
	})

	events := store.Events(EventQuery{EventType: "token_renew_http_call"})
	require.Equal(t, 1, events.Total)
	assert.Equal(t, "wsaa", events.Items[0].Service)

	tokens := store.TokenStatus()
	require.Contains(t, tokens, "wsaa")
	require.Contains(t, tokens, "wspci")

	wsaa := tokens["wsaa"]
	assert.True(t, wsaa.Valid)
	require.NotNil(t, wsaa.ExpiresAt)
	assert.Equal(t, isoUTC(storeNow.Add(8*time.Hour)), *wsaa.ExpiresAt)
	assert.Nil(t, wsaa.LastError)

	wspci := tokens["wspci"]
	assert.False(t, wspci.Valid)
	require.NotNil(t, wspci.LastError)
	assert.Equal(t, "token_file_not_found", *wspci.LastError)
}

func TestRefreshTokenStatesFlagsExpiredTicket(t *testing.T) {
	collector, _, cfg := newTestCollector(t)
	writeTicketFile(t, cfg.TicketResponsePath("wspci"), storeNow.Add(-time.Minute))

	states := collector.RefreshTokenStates()
	require.Contains(t, states, "wspci")
	assert.False(t, states["wspci"].Valid)
	require.NotNil(t, states["wspci"].ExpiresAt)
}

func TestSoapCallEventCarriesTraceFromContext(t *testing.T) {
	collector, store, _ := newTestCollector(t)
	ctx := WithTraceID(context.Background(), "abc123")

	collector.SoapCall(ctx, "wsfe", "FECAESolicitar", "error", "Network error")

	events := store.Events(EventQuery{EventType: "soap_call"})
	require.Equal(t, 1, events.Total)
	event := events.Items[0]
	require.NotNil(t, event.TraceID)
	assert.Equal(t, "abc123", *event.TraceID)
	assert.Equal(t, "wsfe", event.Service)
	assert.Equal(t, "error", event.Status)
	require.NotNil(t, event.EntityKey)
	assert.Equal(t, "FECAESolicitar", *event.EntityKey)
	require.NotNil(t, event.ErrorType)
	assert.Equal(t, "Network error", *event.ErrorType)
}

func TestOutboxJobEventKeepsPayload(t *testing.T) {
	collector, store, _ := newTestCollector(t)

	collector.OutboxJob(context.Background(), "error", "CAEA_SOLICITAR", "DeferredRetryError",
		map[string]any{"job_id": int64(9), "attempts": 3})

	events := store.Events(EventQuery{EventType: "outbox_job"})
	require.Equal(t, 1, events.Total)
	event := events.Items[0]
	assert.Equal(t, "wsfe", event.Service)
	require.NotNil(t, event.EntityKey)
	assert.Equal(t, "CAEA_SOLICITAR", *event.EntityKey)
	assert.Equal(t, map[string]any{"job_id": int64(9), "attempts": 3}, event.Payload)
}

func TestMetricsPublishOnIsolatedRegistry(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Tickets.XMLDir = t.TempDir()
	reg := prometheus.NewRegistry()
	store := NewStore(10, 10, clock.Fixed(storeNow))
	collector := NewCollector(store, NewMetrics(reg), cfg, clock.Fixed(storeNow))

	collector.RecordHTTPExchange(HTTPExchange{
		Method: "POST", Path: "/wsfe/invoices", StatusCode: 200,
		Duration: 30 * time.Millisecond, ResponseBody: []byte(`{"status":"success"}`),
	})
	collector.SoapCall(context.Background(), "wsfe", "FECAESolicitar", "success", "")
	collector.OutboxJob(context.Background(), "success", "CAEA_INFORMAR", "", nil)
	collector.RefreshTokenStates()

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "afrelay_http_requests_total")
	assert.Contains(t, names, "afrelay_http_request_duration_seconds")
	assert.Contains(t, names, "afrelay_soap_calls_total")
	assert.Contains(t, names, "afrelay_outbox_jobs_total")
	assert.Contains(t, names, "afrelay_domain_events_total")
	assert.Contains(t, names, "afrelay_ticket_valid")
	assert.Contains(t, names, "afrelay_ticket_expiry_seconds")

	// A second registry must not collide with the first.
	assert.NotPanics(t, func() { NewMetrics(prometheus.NewRegistry()) })
}

func TestServiceForPathBuckets(t *testing.T) {
	cases := map[string]string{
		"/wsfe/invoices":   "wsfe",
		"/wsfe/caea/queue": "wsfe",
		"/wsaa/token":      "wsaa",
		"/wspci/persona":   "wspci",
		"/ui/metrics":      "ui",
		"/health/ready":    "health",
		"/monitor/metrics": "other",
		"/":                "other",
	}
	for path, want := range cases {
		assert.Equal(t, want, ServiceForPath(path), path)
	}
}
