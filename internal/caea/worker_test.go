package caea

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afrelay/afrelay/internal/afip"
	"github.com/afrelay/afrelay/internal/clock"
	"github.com/afrelay/afrelay/internal/soap"
	"github.com/afrelay/afrelay/internal/state"
)

type fakePort struct {
	solicitFn    func(req afip.CaeaPeriodoOrdenRequest) (*afip.CaeaSolicitarResult, error)
	informFn     func(req afip.CaeaRegInformativoRequest) (*afip.CaeaRegInfResult, error)
	solicitCalls int
	informCalls  int
	lastSolicit  afip.CaeaPeriodoOrdenRequest
	lastInform   afip.CaeaRegInformativoRequest
}

func (p *fakePort) SolicitCaea(_ context.Context, req afip.CaeaPeriodoOrdenRequest) (*afip.CaeaSolicitarResult, error) {
	p.solicitCalls++
	p.lastSolicit = req
	if p.solicitFn == nil {
		return &afip.CaeaSolicitarResult{}, nil
	}
	return p.solicitFn(req)
}

func (p *fakePort) InformCaea(_ context.Context, req afip.CaeaRegInformativoRequest) (*afip.CaeaRegInfResult, error) {
	p.informCalls++
	p.lastInform = req
	if p.informFn == nil {
		return &afip.CaeaRegInfResult{}, nil
	}
	return p.informFn(req)
}

type recordedEvent struct {
	status    string
	jobType   string
	errorType string
	payload   map[string]any
}

type eventLog struct {
	entries []recordedEvent
}

func (l *eventLog) OutboxJob(_ context.Context, status, jobType, errorType string, payload map[string]any) {
	l.entries = append(l.entries, recordedEvent{status, jobType, errorType, payload})
}

type workerFixture struct {
	engine *Engine
	worker *Worker
	store  *state.Store
	port   *fakePort
	events *eventLog
}

func newWorkerFixture(t *testing.T, port *fakePort) *workerFixture {
	t.Helper()
	clk := clock.Fixed(engineNow)
	store := openTestStore(t, clk)
	events := &eventLog{}
	worker := NewWorker(store, port, events, clk, nil)
	worker.jitter = func() int { return 0 }
	return &workerFixture{
		engine: NewEngine(store, worker, "", clk, nil),
		worker: worker,
		store:  store,
		port:   port,
		events: events,
	}
}

func (f *workerFixture) queueSolicit(t *testing.T) (*state.Cycle, *state.OutboxJob) {
	t.Helper()
	cycle, job, err := f.engine.QueueSolicitar(context.Background(), afip.QueueSolicitCaeaRequest{
		Cuit: 30740253022, Periodo: 202602, Orden: 1,
	})
	require.NoError(t, err)
	return cycle, job
}

func (f *workerFixture) reloadJob(t *testing.T, id int64) *state.OutboxJob {
	t.Helper()
	job, err := f.store.GetOutboxJob(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, job)
	return job
}

func (f *workerFixture) reloadCycle(t *testing.T, id int64) *state.Cycle {
	t.Helper()
	cycle, err := f.store.GetCycleByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, cycle)
	return cycle
}

func solicitResult(code string) *afip.CaeaSolicitarResult {
	return &afip.CaeaSolicitarResult{ResultGet: &afip.CaeaResult{
		CAEA:        code,
		Periodo:     202602,
		Orden:       1,
		FchVigDesde: "20260201",
		FchVigHasta: "20260215",
		FchTopeInf:  "20260317",
	}}
}

func solicitErrors(errs ...afip.Err) *afip.CaeaSolicitarResult {
	return &afip.CaeaSolicitarResult{Errors: &afip.ErrorList{Err: errs}}
}

func TestWorkerSolicitSuccessActivatesCycle(t *testing.T) {
	port := &fakePort{solicitFn: func(afip.CaeaPeriodoOrdenRequest) (*afip.CaeaSolicitarResult, error) {
		return solicitResult("21064126523746"), nil
	}}
	f := newWorkerFixture(t, port)
	cycle, job := f.queueSolicit(t)

	counters, err := f.worker.ProcessPendingOutboxJobs(context.Background(), 30)
	require.NoError(t, err)
	assert.Equal(t, Counters{Processed: 1, Done: 1}, counters)

	assert.Equal(t, 1, port.solicitCalls)
	assert.Equal(t, int64(30740253022), port.lastSolicit.Cuit)
	assert.Equal(t, 202602, port.lastSolicit.Periodo)
	assert.Equal(t, 1, port.lastSolicit.Orden)

	done := f.reloadJob(t, job.ID)
	assert.Equal(t, state.JobDone, done.Status)
	require.NotNil(t, done.LastResponseJSON)
	assert.Contains(t, *done.LastResponseJSON, `"status":"success"`)
	assert.Contains(t, *done.LastResponseJSON, "21064126523746")

	active := f.reloadCycle(t, cycle.ID)
	code, ok := active.ActiveCode()
	assert.True(t, ok)
	assert.Equal(t, "21064126523746", code)

	require.Len(t, f.events.entries, 2)
	assert.Equal(t, "started", f.events.entries[0].status)
	assert.Equal(t, state.JobSolicitCaea, f.events.entries[0].jobType)
	assert.Equal(t, job.ID, f.events.entries[0].payload["job_id"])
	assert.Equal(t, "success", f.events.entries[1].status)
}

func TestWorkerSolicitDeferredReschedulesFromMessage(t *testing.T) {
	msg := "Contribuyente no habilitado. Del 11/02/2026 al 25/02/2026 podra solicitar el CAEA"
	port := &fakePort{solicitFn: func(afip.CaeaPeriodoOrdenRequest) (*afip.CaeaSolicitarResult, error) {
		return solicitErrors(afip.Err{Code: 15006, Msg: msg}), nil
	}}
	f := newWorkerFixture(t, port)
	cycle, job := f.queueSolicit(t)

	counters, err := f.worker.ProcessPendingOutboxJobs(context.Background(), 30)
	require.NoError(t, err)
	assert.Equal(t, Counters{Processed: 1, Retried: 1}, counters)

	retrying := f.reloadJob(t, job.ID)
	assert.Equal(t, state.JobRetrying, retrying.Status)
	assert.Equal(t, 1, retrying.Attempts)

	// The retry lands at 00:05 Argentina time of the window's first day, not
	// on the exponential schedule.
	windowStart := time.Date(2026, 2, 11, 3, 5, 0, 0, time.UTC)
	assert.Equal(t, state.FormatTime(windowStart), retrying.NextRetryAt)
	require.NotNil(t, retrying.LastError)
	assert.Equal(t, "15006: "+msg, *retrying.LastError)

	// Deferral is not a cycle failure; the row stays requested with the
	// explanation attached.
	deferred := f.reloadCycle(t, cycle.ID)
	assert.Equal(t, state.CycleRequested, deferred.Status)
	require.NotNil(t, deferred.LastError)
	assert.Equal(t, "15006: "+msg, *deferred.LastError)

	last := f.events.entries[len(f.events.entries)-1]
	assert.Equal(t, "error", last.status)
	assert.Equal(t, "DeferredRetryError", last.errorType)
	assert.Equal(t, 1, last.payload["attempts"])
}

func TestWorkerSolicitAfipErrorFlagsCycle(t *testing.T) {
	port := &fakePort{solicitFn: func(afip.CaeaPeriodoOrdenRequest) (*afip.CaeaSolicitarResult, error) {
		return solicitErrors(afip.Err{Code: 600, Msg: "ValidacionDeToken: No validaron las fechas del token"}), nil
	}}
	f := newWorkerFixture(t, port)
	cycle, job := f.queueSolicit(t)

	counters, err := f.worker.ProcessPendingOutboxJobs(context.Background(), 30)
	require.NoError(t, err)
	assert.Equal(t, Counters{Processed: 1, Retried: 1}, counters)

	retrying := f.reloadJob(t, job.ID)
	assert.Equal(t, state.JobRetrying, retrying.Status)
	// First failure backs off 10 seconds (jitter pinned to zero).
	assert.Equal(t, state.FormatTime(engineNow.Add(10*time.Second)), retrying.NextRetryAt)

	flagged := f.reloadCycle(t, cycle.ID)
	assert.Equal(t, state.CycleError, flagged.Status)
	require.NotNil(t, flagged.LastError)
	assert.Equal(t, "600: ValidacionDeToken: No validaron las fechas del token", *flagged.LastError)

	last := f.events.entries[len(f.events.entries)-1]
	assert.Equal(t, "AfipResponseError", last.errorType)
}

func TestWorkerSolicitWithoutCodeUsesFallbackSummary(t *testing.T) {
	port := &fakePort{solicitFn: func(afip.CaeaPeriodoOrdenRequest) (*afip.CaeaSolicitarResult, error) {
		return &afip.CaeaSolicitarResult{}, nil
	}}
	f := newWorkerFixture(t, port)
	cycle, job := f.queueSolicit(t)

	_, err := f.worker.ProcessPendingOutboxJobs(context.Background(), 30)
	require.NoError(t, err)

	retrying := f.reloadJob(t, job.ID)
	require.NotNil(t, retrying.LastError)
	assert.Equal(t, "CAEA not returned by AFIP", *retrying.LastError)

	flagged := f.reloadCycle(t, cycle.ID)
	assert.Equal(t, state.CycleError, flagged.Status)
}

func TestWorkerSolicitTransportFailure(t *testing.T) {
	port := &fakePort{solicitFn: func(afip.CaeaPeriodoOrdenRequest) (*afip.CaeaSolicitarResult, error) {
		return nil, &soap.CallError{Type: soap.ErrTypeNetwork, Detail: "dial tcp: connection refused", Method: "FECAEASolicitar"}
	}}
	f := newWorkerFixture(t, port)
	cycle, _ := f.queueSolicit(t)

	counters, err := f.worker.ProcessPendingOutboxJobs(context.Background(), 30)
	require.NoError(t, err)
	assert.Equal(t, Counters{Processed: 1, Retried: 1}, counters)

	flagged := f.reloadCycle(t, cycle.ID)
	assert.Equal(t, state.CycleError, flagged.Status)

	last := f.events.entries[len(f.events.entries)-1]
	assert.Equal(t, soap.ErrTypeNetwork, last.errorType)
}

func TestWorkerInformSuccessIsExactlyOnce(t *testing.T) {
	port := &fakePort{informFn: func(afip.CaeaRegInformativoRequest) (*afip.CaeaRegInfResult, error) {
		return &afip.CaeaRegInfResult{FeCabResp: &afip.FeCabResp{Resultado: "A"}}, nil
	}}
	f := newWorkerFixture(t, port)
	ctx := context.Background()

	cycle := activateCycle(t, f.store, 30740253022, 202602, 1, "21064126523746")
	issued, err := f.engine.IssueLocalInvoice(ctx, afip.QueueIssueLocalInvoiceRequest{
		CycleId: cycle.ID, Cuit: 30740253022, PtoVta: 1, CbteTipo: 11,
		FeCAEARegInfReq: regInfReq(1, 11),
	})
	require.NoError(t, err)

	counters, err := f.worker.ProcessPendingOutboxJobs(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, Counters{Processed: 1, Done: 1}, counters)
	assert.Equal(t, 1, port.informCalls)

	// The relayed record carries the reserved number and the active code.
	det := port.lastInform.FeCAEARegInfReq.FeDetReq.FECAEADetRequest[0]
	assert.Equal(t, int64(1), det.CbteDesde)
	assert.Equal(t, "21064126523746", det.CAEA)

	invoice, err := f.store.GetInvoice(ctx, issued.Invoice.ID)
	require.NoError(t, err)
	require.NotNil(t, invoice)
	assert.Equal(t, state.InvoiceInformed, invoice.Status)

	// A done job never becomes due again.
	counters, err = f.worker.ProcessPendingOutboxJobs(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, Counters{}, counters)
	assert.Equal(t, 1, port.informCalls)
}

func TestWorkerInformFailureFlagsInvoice(t *testing.T) {
	port := &fakePort{informFn: func(afip.CaeaRegInformativoRequest) (*afip.CaeaRegInfResult, error) {
		return nil, errors.New("boom")
	}}
	f := newWorkerFixture(t, port)
	ctx := context.Background()

	cycle := activateCycle(t, f.store, 30740253022, 202602, 1, "21064126523746")
	issued, err := f.engine.IssueLocalInvoice(ctx, afip.QueueIssueLocalInvoiceRequest{
		CycleId: cycle.ID, Cuit: 30740253022, PtoVta: 1, CbteTipo: 11,
		FeCAEARegInfReq: regInfReq(1, 11),
	})
	require.NoError(t, err)

	counters, err := f.worker.ProcessPendingOutboxJobs(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, Counters{Processed: 1, Retried: 1}, counters)

	invoice, err := f.store.GetInvoice(ctx, issued.Invoice.ID)
	require.NoError(t, err)
	require.NotNil(t, invoice)
	assert.Equal(t, state.InvoiceError, invoice.Status)
	require.NotNil(t, invoice.LastError)
	assert.Equal(t, "boom", *invoice.LastError)

	retrying := f.reloadJob(t, issued.Job.ID)
	assert.Equal(t, state.JobRetrying, retrying.Status)

	last := f.events.entries[len(f.events.entries)-1]
	assert.Equal(t, "error", last.status)
	assert.Equal(t, "error", last.errorType)
}

func TestWorkerGivesUpAfterMaxAttempts(t *testing.T) {
	port := &fakePort{solicitFn: func(afip.CaeaPeriodoOrdenRequest) (*afip.CaeaSolicitarResult, error) {
		return nil, errors.New("boom")
	}}
	f := newWorkerFixture(t, port)
	ctx := context.Background()
	_, job := f.queueSolicit(t)

	// Put the job one attempt away from the cap, already due.
	due := state.FormatTime(engineNow.Add(-time.Minute))
	require.NoError(t, f.store.MarkOutboxRetry(ctx, job.ID, state.FailAfterAttempts-1, due, "boom"))

	counters, err := f.worker.ProcessPendingOutboxJobs(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, Counters{Processed: 1, Failed: 1}, counters)

	failed := f.reloadJob(t, job.ID)
	assert.Equal(t, state.JobFailed, failed.Status)
	assert.Equal(t, state.FailAfterAttempts, failed.Attempts)

	// Failed jobs are parked: nothing due on the next pass.
	counters, err = f.worker.ProcessPendingOutboxJobs(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, Counters{}, counters)
}

func TestWorkerUnknownJobType(t *testing.T) {
	f := newWorkerFixture(t, &fakePort{})
	ctx := context.Background()

	job, err := f.store.AddOutboxJob(ctx, "REPLAY_TAPE", "replay:1", "{}")
	require.NoError(t, err)

	counters, err := f.worker.ProcessPendingOutboxJobs(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, Counters{Processed: 1, Retried: 1}, counters)

	retrying := f.reloadJob(t, job.ID)
	require.NotNil(t, retrying.LastError)
	assert.Equal(t, "Unknown outbox job type: REPLAY_TAPE", *retrying.LastError)
}

func TestWorkerBadPayloadRetriesWithoutSideEffects(t *testing.T) {
	f := newWorkerFixture(t, &fakePort{})
	ctx := context.Background()

	job, err := f.store.AddOutboxJob(ctx, state.JobSolicitCaea, "solicit:1:202602:1", "{not json")
	require.NoError(t, err)

	counters, err := f.worker.ProcessPendingOutboxJobs(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, Counters{Processed: 1, Retried: 1}, counters)
	assert.Equal(t, 0, f.port.solicitCalls)

	retrying := f.reloadJob(t, job.ID)
	require.NotNil(t, retrying.LastError)
	assert.Contains(t, *retrying.LastError, "decode solicit payload")

	last := f.events.entries[len(f.events.entries)-1]
	assert.Equal(t, "error", last.errorType)
}

func TestWorkerRespectsLimitAndOrder(t *testing.T) {
	port := &fakePort{solicitFn: func(req afip.CaeaPeriodoOrdenRequest) (*afip.CaeaSolicitarResult, error) {
		return solicitResult("21064126523746"), nil
	}}
	f := newWorkerFixture(t, port)
	ctx := context.Background()

	for orden := 1; orden <= 2; orden++ {
		_, _, err := f.engine.QueueSolicitar(ctx, afip.QueueSolicitCaeaRequest{
			Cuit: 30740253022, Periodo: 202602, Orden: orden,
		})
		require.NoError(t, err)
	}

	counters, err := f.worker.ProcessPendingOutboxJobs(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, Counters{Processed: 1, Done: 1}, counters)
	assert.Equal(t, 1, port.lastSolicit.Orden)

	counters, err = f.worker.ProcessPendingOutboxJobs(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, Counters{Processed: 1, Done: 1}, counters)
	assert.Equal(t, 2, port.lastSolicit.Orden)
}

func TestNextRetrySchedule(t *testing.T) {
	f := newWorkerFixture(t, &fakePort{})

	cases := []struct {
		attempts int
		delay    time.Duration
	}{
		{1, 10 * time.Second},
		{2, 20 * time.Second},
		{3, 40 * time.Second},
		{5, 160 * time.Second},
		{9, 2560 * time.Second},
		{10, time.Hour},
		{25, time.Hour},
	}
	for _, tc := range cases {
		got := f.worker.nextRetry(tc.attempts)
		assert.Equal(t, tc.delay, got.Sub(engineNow), "attempts=%d", tc.attempts)
	}

	f.worker.jitter = func() int { return 7 }
	got := f.worker.nextRetry(1)
	assert.Equal(t, 17*time.Second, got.Sub(engineNow))
}
