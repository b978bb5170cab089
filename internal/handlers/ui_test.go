package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afrelay/afrelay/internal/afip"
	"github.com/afrelay/afrelay/internal/clock"
	"github.com/afrelay/afrelay/internal/config"
	"github.com/afrelay/afrelay/internal/observability"
)

func newMonitorFixture(t *testing.T) (*observability.Collector, *observability.Store) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Tickets.XMLDir = t.TempDir()
	clk := clock.Fixed(queueNow)
	store := observability.NewStore(100, 100, clk)
	return observability.NewCollector(store, nil, cfg, clk), store
}

func recordExchange(collector *observability.Collector, path string, status int, body string) {
	collector.RecordHTTPExchange(observability.HTTPExchange{
		Method:       http.MethodPost,
		Path:         path,
		StatusCode:   status,
		Duration:     120 * time.Millisecond,
		TraceID:      "trace-1",
		ResponseBody: []byte(body),
	})
}

func TestMetricsSummaryCountsRecordedTraffic(t *testing.T) {
	collector, _ := newMonitorFixture(t)
	recordExchange(collector, "/wsfe/invoices", 200, `{"status":"success"}`)
	recordExchange(collector, "/wsfe/invoices", 200, `{"status":"error","error":{"error_type":"SOAPFault"}}`)

	h := MetricsSummary(collector)
	rec, body := doJSON(t, h, http.MethodGet, "/ui/metrics/summary?window_minutes=60", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), body["total_requests"])
	assert.Equal(t, float64(1), body["error_count"])
	assert.Equal(t, 0.5, body["error_rate"])

	rec, _ = doJSON(t, h, http.MethodGet, "/ui/metrics/summary?window_minutes=2000", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestRequestLogsPaginateAndFilter(t *testing.T) {
	collector, _ := newMonitorFixture(t)
	recordExchange(collector, "/wsfe/invoices", 200, `{"status":"success"}`)
	recordExchange(collector, "/wspci/persona", 500, `{"status":"error","error":{"error_type":"Network error"}}`)

	h := RequestLogs(collector)

	rec, body := doJSON(t, h, http.MethodGet, "/ui/logs?status=error", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["total"])
	items := body["items"].([]any)
	require.Len(t, items, 1)
	row := items[0].(map[string]any)
	assert.Equal(t, "/wspci/persona", row["path"])
	assert.Equal(t, "Network error", row["error_type"])

	rec, _ = doJSON(t, h, http.MethodGet, "/ui/logs?status=broken", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec, _ = doJSON(t, h, http.MethodGet, "/ui/logs?page=0", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestErrorBreakdownGroupsByChoice(t *testing.T) {
	collector, _ := newMonitorFixture(t)
	recordExchange(collector, "/wsfe/invoices", 200, `{"status":"error","error":{"error_type":"SOAPFault"}}`)
	recordExchange(collector, "/wsfe/invoices", 200, `{"status":"error","error":{"error_type":"SOAPFault"}}`)

	h := ErrorBreakdown(collector)

	rec, body := doJSON(t, h, http.MethodGet, "/ui/errors?group_by=error_type", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	groups := body["items"].([]any)
	require.Len(t, groups, 1)
	top := groups[0].(map[string]any)
	assert.Equal(t, "SOAPFault", top["key"])
	assert.Equal(t, float64(2), top["count"])

	rec, _ = doJSON(t, h, http.MethodGet, "/ui/errors?group_by=cuit", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestTokenStatusRefreshesFromDisk(t *testing.T) {
	collector, _ := newMonitorFixture(t)

	h := TokenStatus(collector)
	rec, body := doJSON(t, h, http.MethodGet, "/ui/tokens/status", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	wsaa, ok := body["wsaa"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, false, wsaa["valid"])
	assert.Equal(t, "token_file_not_found", wsaa["last_error"])
	_, ok = body["wspci"].(map[string]any)
	assert.True(t, ok)
}

func TestOperationsSummaryBucketsEndpoints(t *testing.T) {
	collector, _ := newMonitorFixture(t)
	recordExchange(collector, "/wsfe/invoices", 200, `{"status":"success"}`)

	h := OperationsSummary(collector)
	rec, body := doJSON(t, h, http.MethodGet, "/ui/operations/summary", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	fecae := body["fecae"].(map[string]any)
	assert.Equal(t, float64(1), fecae["success"])
	assert.Equal(t, float64(0), fecae["error"])
}

func TestActiveAlertsStayEmptyOnHealthyTraffic(t *testing.T) {
	collector, _ := newMonitorFixture(t)
	recordExchange(collector, "/wsfe/invoices", 200, `{"status":"success"}`)

	h := ActiveAlerts(collector)
	rec, body := doJSON(t, h, http.MethodGet, "/ui/alerts", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(0), body["count"])
	assert.Len(t, body["active"], 0)
}

func TestDomainEventsFilterByType(t *testing.T) {
	collector, _ := newMonitorFixture(t)
	collector.SoapCall(context.Background(), "wsfe", "FECAESolicitar", "success", "")
	collector.OutboxJob(context.Background(), "error", "SOLICIT_CAEA", "Network error", map[string]any{"job_id": 7})

	h := DomainEvents(collector)

	rec, body := doJSON(t, h, http.MethodGet, "/ui/events?event_type=outbox_job", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	items := body["items"].([]any)
	require.Len(t, items, 1)
	event := items[0].(map[string]any)
	assert.Equal(t, "outbox_job", event["event_type"])
	assert.Equal(t, "Network error", event["error_type"])

	rec, _ = doJSON(t, h, http.MethodGet, "/ui/events?status=pending", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestQueueOverviewTalliesListedJobs(t *testing.T) {
	engine, _, store := newQueueFixture(t)
	ctx := context.Background()
	_, _, err := engine.QueueSolicitar(ctx, afip.QueueSolicitCaeaRequest{Cuit: 30740253022, Periodo: 202602, Orden: 1})
	require.NoError(t, err)
	_, _, err = engine.QueueSolicitar(ctx, afip.QueueSolicitCaeaRequest{Cuit: 30740253022, Periodo: 202602, Orden: 2})
	require.NoError(t, err)

	h := QueueOverview(store, quietLogger())
	rec, body := doJSON(t, h, http.MethodGet, "/ui/caea/queue", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	summary := body["summary"].(map[string]any)
	assert.Equal(t, float64(2), summary["pending"])
	assert.Equal(t, float64(0), summary["done"])
	assert.Len(t, body["items"], 2)

	rec, _ = doJSON(t, h, http.MethodGet, "/ui/caea/queue?limit=1001", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestQueueRetryUsesDashboardBounds(t *testing.T) {
	engine, worker, _ := newQueueFixture(t)
	_, _, err := engine.QueueSolicitar(context.Background(),
		afip.QueueSolicitCaeaRequest{Cuit: 30740253022, Periodo: 202602, Orden: 1})
	require.NoError(t, err)

	h := QueueRetry(worker, quietLogger())
	rec, body := doJSON(t, h, http.MethodPost, "/ui/caea/queue/retry", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	result := body["result"].(map[string]any)
	assert.Equal(t, float64(1), result["done"])

	rec, _ = doJSON(t, h, http.MethodPost, "/ui/caea/queue/retry?limit=201", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestCaeaAssignmentsExposeNumberingRanges(t *testing.T) {
	engine, _, store := newQueueFixture(t)
	cycle := activeCycle(t, store, 30740253022)

	var req afip.QueueIssueLocalInvoiceRequest
	req.CycleId = cycle.ID
	req.Cuit = 30740253022
	req.PtoVta = 4
	req.CbteTipo = 11
	req.FeCAEARegInfReq = afip.FeCAEARegInfReq{
		FeCabReq: afip.FeCabReq{CantReg: 1, PtoVta: 4, CbteTipo: 11},
		FeDetReq: afip.FeCAEADetReq{FECAEADetRequest: []afip.FECAEADetRequest{{
			Concepto: 1, DocTipo: 99, CbteFch: "20260210",
			ImpTotal: 121, ImpNeto: 100, ImpIVA: 21,
			MonId: "PES", CondicionIVAReceptorId: 5,
		}}},
	}
	ctx := context.Background()
	_, err := engine.IssueLocalInvoice(ctx, req)
	require.NoError(t, err)
	_, err = engine.IssueLocalInvoice(ctx, req)
	require.NoError(t, err)

	h := CaeaAssignments(store, quietLogger())
	rec, body := doJSON(t, h, http.MethodGet, "/ui/caea/assignments", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["count"])
	items := body["items"].([]any)
	require.Len(t, items, 1)
	row := items[0].(map[string]any)
	assert.Equal(t, "21064126523746", row["caea_code"])
	assert.Equal(t, float64(2), row["invoices_count"])
	assert.Equal(t, float64(1), row["cbte_from"])
	assert.Equal(t, float64(2), row["cbte_to"])
}
