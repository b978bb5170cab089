package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afrelay/afrelay/internal/afip"
	"github.com/afrelay/afrelay/internal/caea"
	"github.com/afrelay/afrelay/internal/clock"
	"github.com/afrelay/afrelay/internal/config"
	"github.com/afrelay/afrelay/internal/logging"
	"github.com/afrelay/afrelay/internal/observability"
	"github.com/afrelay/afrelay/internal/state"
)

const apiSecret = "api-test-secret"

type idlePort struct{}

func (idlePort) SolicitCaea(context.Context, afip.CaeaPeriodoOrdenRequest) (*afip.CaeaSolicitarResult, error) {
	return &afip.CaeaSolicitarResult{ResultGet: &afip.CaeaResult{CAEA: "21064126523746"}}, nil
}

func (idlePort) InformCaea(context.Context, afip.CaeaRegInformativoRequest) (*afip.CaeaRegInfResult, error) {
	return &afip.CaeaRegInfResult{}, nil
}

// testServer assembles a router over a temp state DB and an isolated metrics
// registry. SOAP-backed deps stay nil: the routes that need them are only
// exercised up to the auth barrier here.
func testServer(t *testing.T) (*Server, *observability.Store) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Auth.JWTSecret = apiSecret
	cfg.Tickets.XMLDir = t.TempDir()

	clk := clock.Fixed(time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC))
	st, err := state.Open(filepath.Join(t.TempDir(), "api.db"), clk)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	worker := caea.NewWorker(st, idlePort{}, nil, clk, nil)
	engine := caea.NewEngine(st, worker, "", clk, nil)

	registry := prometheus.NewRegistry()
	store := observability.NewStore(100, 100, clk)
	collector := observability.NewCollector(store, observability.NewMetrics(registry), cfg, clk)

	server := NewServer(Deps{
		Config:    cfg,
		Logger:    logging.NewNop(),
		Engine:    engine,
		Worker:    worker,
		State:     st,
		Collector: collector,
		Registry:  registry,
	})
	return server, store
}

func doRequest(router http.Handler, method, target, token, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestLivenessBypassesAuthAndTracing(t *testing.T) {
	server, _ := testServer(t)
	rec := doRequest(server.Router(), http.MethodGet, "/health/liveness", "", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"health":"OK"}`, rec.Body.String())
	assert.Empty(t, rec.Header().Get("X-Trace-Id"))
}

func TestMetricsServeWithoutAuth(t *testing.T) {
	server, _ := testServer(t)
	server.deps.Collector.RecordHTTPExchange(observability.HTTPExchange{
		Method:     http.MethodPost,
		Path:       "/wsfe/invoices",
		StatusCode: 200,
		Duration:   50 * time.Millisecond,
	})

	rec := doRequest(server.Router(), http.MethodGet, "/metrics", "", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "afrelay_http_requests_total")
}

func TestProtectedRoutesRejectMissingBearer(t *testing.T) {
	server, _ := testServer(t)
	router := server.Router()

	paths := map[string]string{
		http.MethodPost: "/wsaa/token",
		http.MethodGet:  "/ui/logs",
	}
	for method, path := range paths {
		rec := doRequest(router, method, path, "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", method, path)
		assert.JSONEq(t, `{"detail":"Invalid JWT"}`, rec.Body.String())
		// Observation runs before auth, so even rejects carry a trace.
		assert.Len(t, rec.Header().Get("X-Trace-Id"), 32)
	}

	rec := doRequest(router, http.MethodGet, "/health/readiness", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doRequest(router, http.MethodPost, "/wsfe/invoices", "wrong-secret", "{}")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestQueueSolicitarFlowsThroughFullChain(t *testing.T) {
	server, store := testServer(t)
	router := server.Router()

	rec := doRequest(router, http.MethodPost, "/wsfe/caea/queue/solicitar", apiSecret,
		`{"Cuit": 30740253022, "Periodo": 202602, "Orden": 1}`)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"queued"`)
	assert.Len(t, rec.Header().Get("X-Trace-Id"), 32)

	logs := store.Logs(observability.LogQuery{})
	require.Equal(t, 1, logs.Total)
	assert.Equal(t, "/wsfe/caea/queue/solicitar", logs.Items[0].Path)
	assert.Equal(t, "wsfe", logs.Items[0].Service)
	assert.True(t, logs.Items[0].OK)

	events := store.Events(observability.EventQuery{EventType: "wsfe_caea_http_call"})
	assert.Equal(t, 1, events.Total)
}

func TestMonitorRouteAcceptsSharedSecret(t *testing.T) {
	server, _ := testServer(t)
	rec := doRequest(server.Router(), http.MethodGet, "/ui/alerts", apiSecret, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"active"`)
}

func TestUnknownPathAndWrongMethod(t *testing.T) {
	server, _ := testServer(t)
	router := server.Router()

	rec := doRequest(router, http.MethodGet, "/nope", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(router, http.MethodGet, "/wsfe/invoices", apiSecret, "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
