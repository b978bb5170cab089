package handlers

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afrelay/afrelay/internal/afip"
	"github.com/afrelay/afrelay/internal/caea"
	"github.com/afrelay/afrelay/internal/clock"
	"github.com/afrelay/afrelay/internal/state"
)

// February 10th keeps both calendar cycles inside periodo 202602.
var queueNow = time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)

// okPort answers every outbox replay positively.
type okPort struct{}

func (okPort) SolicitCaea(context.Context, afip.CaeaPeriodoOrdenRequest) (*afip.CaeaSolicitarResult, error) {
	return &afip.CaeaSolicitarResult{ResultGet: &afip.CaeaResult{CAEA: "21064126523746"}}, nil
}

func (okPort) InformCaea(context.Context, afip.CaeaRegInformativoRequest) (*afip.CaeaRegInfResult, error) {
	return &afip.CaeaRegInfResult{}, nil
}

func newQueueFixture(t *testing.T) (*caea.Engine, *caea.Worker, *state.Store) {
	t.Helper()
	clk := clock.Fixed(queueNow)
	store, err := state.Open(filepath.Join(t.TempDir(), "handlers.db"), clk)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	worker := caea.NewWorker(store, okPort{}, nil, clk, nil)
	engine := caea.NewEngine(store, worker, "", clk, nil)
	return engine, worker, store
}

// activeCycle creates a cycle row and loads a CAEA code onto it.
func activeCycle(t *testing.T, store *state.Store, cuit int64) *state.Cycle {
	t.Helper()
	ctx := context.Background()
	cycle, err := store.CreateCycle(ctx, cuit, 202602, 1)
	require.NoError(t, err)
	require.NoError(t, store.UpdateCycleFromAfip(ctx, cycle.ID, "21064126523746"))
	cycle, err = store.GetCycleByID(ctx, cycle.ID)
	require.NoError(t, err)
	return cycle
}

func issueLocalBody(cycleID, cuit int64) string {
	return fmt.Sprintf(`{
		"CycleId": %d,
		"Cuit": %d,
		"PtoVta": 4,
		"CbteTipo": 11,
		"FeCAEARegInfReq": {
			"FeCabReq": {"CantReg": 1, "PtoVta": 4, "CbteTipo": 11},
			"FeDetReq": {"FECAEADetRequest": [{
				"Concepto": 1,
				"DocTipo": 99,
				"CbteFch": "20260210",
				"ImpTotal": 121.0,
				"ImpNeto": 100.0,
				"ImpIVA": 21.0,
				"MonId": "PES",
				"CondicionIVAReceptorId": 5
			}]}
		}
	}`, cycleID, cuit)
}

func TestQueueSolicitarPersistsCycleAndJob(t *testing.T) {
	engine, _, store := newQueueFixture(t)
	h := QueueSolicitarCaea(engine, quietLogger())

	rec, body := doJSON(t, h, http.MethodPost, "/wsfe/caea/queue/solicitar",
		`{"Cuit": 30740253022, "Periodo": 202602, "Orden": 1}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "queued", body["status"])

	cycle := body["cycle"].(map[string]any)
	assert.Equal(t, "requested", cycle["status"])
	assert.Equal(t, float64(202602), cycle["periodo"])

	job := body["job"].(map[string]any)
	assert.Equal(t, state.JobSolicitCaea, job["job_type"])
	assert.Equal(t, "solicit:30740253022:202602:1", job["idempotency_key"])
	assert.Equal(t, "pending", job["status"])

	jobs, err := store.ListOutbox(context.Background(), "", 10)
	require.NoError(t, err)
	assert.Len(t, jobs, 1)
}

func TestQueueSolicitarValidatesOrden(t *testing.T) {
	engine, _, _ := newQueueFixture(t)
	h := QueueSolicitarCaea(engine, quietLogger())

	rec, body := doJSON(t, h, http.MethodPost, "/wsfe/caea/queue/solicitar",
		`{"Cuit": 30740253022, "Periodo": 202602, "Orden": 3}`)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	errs := fieldErrors(t, body)
	require.Len(t, errs, 1)
	assert.Equal(t, "Orden", errs[0]["field"])
	assert.Contains(t, errs[0]["message"], "one of")
}

func TestIssueLocalRejectsUnknownCycle(t *testing.T) {
	engine, _, _ := newQueueFixture(t)
	h := QueueIssueLocalInvoice(engine, quietLogger())

	rec, body := doJSON(t, h, http.MethodPost, "/wsfe/caea/queue/issue-local", issueLocalBody(999, 30740253022))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "CAEA cycle not found for given CycleId/Cuit", body["detail"])
}

func TestIssueLocalRejectsCycleWithoutCode(t *testing.T) {
	engine, _, store := newQueueFixture(t)
	cycle, err := store.CreateCycle(context.Background(), 30740253022, 202602, 1)
	require.NoError(t, err)

	h := QueueIssueLocalInvoice(engine, quietLogger())
	rec, body := doJSON(t, h, http.MethodPost, "/wsfe/caea/queue/issue-local", issueLocalBody(cycle.ID, 30740253022))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "No active CAEA code loaded for this cycle. Wait bootstrap/solicitar to complete.", body["detail"])
}

func TestIssueLocalReservesMonotonicNumbers(t *testing.T) {
	engine, _, store := newQueueFixture(t)
	cycle := activeCycle(t, store, 30740253022)
	h := QueueIssueLocalInvoice(engine, quietLogger())

	rec, body := doJSON(t, h, http.MethodPost, "/wsfe/caea/queue/issue-local", issueLocalBody(cycle.ID, 30740253022))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "queued", body["status"])
	assert.Equal(t, float64(1), body["reserved_cbte_nro"])
	assert.Equal(t, "21064126523746", body["caea"])

	invoice := body["invoice"].(map[string]any)
	assert.Equal(t, "issued_local", invoice["status"])
	assert.Equal(t, float64(1), invoice["cbte_nro"])

	job := body["job"].(map[string]any)
	assert.Equal(t, state.JobInformCaeaMovement, job["job_type"])
	assert.Equal(t, "inform:30740253022:4:11:1", job["idempotency_key"])

	_, body = doJSON(t, h, http.MethodPost, "/wsfe/caea/queue/issue-local", issueLocalBody(cycle.ID, 30740253022))
	assert.Equal(t, float64(2), body["reserved_cbte_nro"])
}

func TestRetryOutboxDrainsDueJobs(t *testing.T) {
	engine, worker, store := newQueueFixture(t)
	_, _, err := engine.QueueSolicitar(context.Background(),
		afip.QueueSolicitCaeaRequest{Cuit: 30740253022, Periodo: 202602, Orden: 1})
	require.NoError(t, err)

	h := RetryOutbox(worker, quietLogger())
	rec, body := doJSON(t, h, http.MethodPost, "/wsfe/caea/queue/retry?limit=20", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
	result := body["result"].(map[string]any)
	assert.Equal(t, float64(1), result["processed"])
	assert.Equal(t, float64(1), result["done"])
	assert.Equal(t, float64(0), result["failed"])

	jobs, err := store.ListOutbox(context.Background(), state.JobDone, 10)
	require.NoError(t, err)
	assert.Len(t, jobs, 1)

	rec, _ = doJSON(t, h, http.MethodPost, "/wsfe/caea/queue/retry?limit=500", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestListOutboxFiltersByStatus(t *testing.T) {
	engine, _, store := newQueueFixture(t)
	_, _, err := engine.QueueSolicitar(context.Background(),
		afip.QueueSolicitCaeaRequest{Cuit: 30740253022, Periodo: 202602, Orden: 1})
	require.NoError(t, err)

	h := ListOutbox(store, quietLogger())

	rec, body := doJSON(t, h, http.MethodGet, "/wsfe/caea/queue/outbox", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
	assert.Len(t, body["items"], 1)

	_, body = doJSON(t, h, http.MethodGet, "/wsfe/caea/queue/outbox?status=done", "")
	assert.Len(t, body["items"], 0)

	rec, _ = doJSON(t, h, http.MethodGet, "/wsfe/caea/queue/outbox?limit=0", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestActiveCaeaCyclesReportsCalendarPair(t *testing.T) {
	engine, _, store := newQueueFixture(t)
	activeCycle(t, store, 30740253022)

	h := ActiveCaeaCycles(engine, quietLogger())

	rec, body := doJSON(t, h, http.MethodGet, "/wsfe/caea/queue/active?cuit=30740253022", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])

	cycles := body["cycles"].([]any)
	require.Len(t, cycles, 2)
	first := cycles[0].(map[string]any)
	assert.Equal(t, float64(202602), first["periodo"])
	assert.Equal(t, float64(1), first["orden"])
	assert.Equal(t, true, first["active"])
	assert.Equal(t, "21064126523746", first["caea_code"])
	second := cycles[1].(map[string]any)
	assert.Equal(t, float64(2), second["orden"])
	assert.Equal(t, false, second["active"])
	assert.Nil(t, second["caea_code"])

	rec, body = doJSON(t, h, http.MethodGet, "/wsfe/caea/queue/active", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	errs := fieldErrors(t, body)
	assert.Equal(t, "cuit", errs[0]["field"])
}
