package caea

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/afrelay/afrelay/internal/afip"
	"github.com/afrelay/afrelay/internal/clock"
	"github.com/afrelay/afrelay/internal/soap"
	"github.com/afrelay/afrelay/internal/state"
)

// Port performs the two SOAP operations the outbox replays. The service
// layer implements it with ticket injection and the gateway retry contract.
type Port interface {
	SolicitCaea(ctx context.Context, req afip.CaeaPeriodoOrdenRequest) (*afip.CaeaSolicitarResult, error)
	InformCaea(ctx context.Context, req afip.CaeaRegInformativoRequest) (*afip.CaeaRegInfResult, error)
}

// Events receives outbox job lifecycle notifications for the monitor.
type Events interface {
	OutboxJob(ctx context.Context, status, jobType, errorType string, payload map[string]any)
}

type NopEvents struct{}

func (NopEvents) OutboxJob(context.Context, string, string, string, map[string]any) {}

// staleProcessingAge bounds how long a job may sit in processing before the
// sweep assumes the process died mid-flight and re-queues it.
const staleProcessingAge = 15 * time.Minute

const maxBackoffSeconds = 3600

// Counters summarises one worker pass.
type Counters struct {
	Processed int `json:"processed"`
	Done      int `json:"done"`
	Retried   int `json:"retried"`
	Failed    int `json:"failed"`
}

// Worker drains due outbox jobs: it performs the SOAP call, applies the
// cycle/invoice side effects and schedules the next attempt on failure.
type Worker struct {
	store  *state.Store
	port   Port
	events Events
	clock  clock.Clock
	logger *logrus.Logger

	// jitter returns 0..7 extra seconds so retries of jobs that failed
	// together do not land together.
	jitter func() int
}

func NewWorker(store *state.Store, port Port, events Events, clk clock.Clock, logger *logrus.Logger) *Worker {
	if events == nil {
		events = NopEvents{}
	}
	if clk == nil {
		clk = clock.System()
	}
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return &Worker{
		store:  store,
		port:   port,
		events: events,
		clock:  clk,
		logger: logger,
		jitter: func() int { return rand.Intn(8) },
	}
}

// ProcessPendingOutboxJobs runs one worker pass: sweep stale processing
// rows, fetch up to limit due jobs in id order, and execute each. It only
// returns an error when the store itself fails; individual job failures are
// absorbed into the counters.
func (w *Worker) ProcessPendingOutboxJobs(ctx context.Context, limit int) (Counters, error) {
	if swept, err := w.store.SweepStaleProcessing(ctx, staleProcessingAge); err != nil {
		w.logger.Warnf("Stale processing sweep failed: %v", err)
	} else if swept > 0 {
		w.logger.Warnf("Requeued %d outbox jobs stuck in processing", swept)
	}

	jobs, err := w.store.FetchDueOutboxJobs(ctx, limit)
	if err != nil {
		return Counters{}, err
	}

	counters := Counters{Processed: len(jobs)}
	for i := range jobs {
		job := &jobs[i]

		if err := w.store.MarkOutboxProcessing(ctx, job.ID); err != nil {
			w.logger.Errorf("Mark outbox job %d processing: %v", job.ID, err)
			continue
		}
		w.events.OutboxJob(ctx, "started", job.JobType, "", map[string]any{"job_id": job.ID})

		response, runErr := w.runJob(ctx, job)
		if runErr == nil {
			if err := w.store.MarkOutboxDone(ctx, job.ID, response); err != nil {
				w.logger.Errorf("Mark outbox job %d done: %v", job.ID, err)
			}
			counters.Done++
			w.events.OutboxJob(ctx, "success", job.JobType, "", map[string]any{"job_id": job.ID})
			continue
		}

		attempts := job.Attempts + 1
		nextRetry := w.nextRetry(attempts)
		var deferred *DeferredRetryError
		if errors.As(runErr, &deferred) {
			nextRetry = deferred.NextRetryAt
		}
		if err := w.store.MarkOutboxRetry(ctx, job.ID, attempts, state.FormatTime(nextRetry), runErr.Error()); err != nil {
			w.logger.Errorf("Mark outbox job %d retry: %v", job.ID, err)
		}
		w.logger.Warnf("Outbox job %d failed (attempt %d): %v", job.ID, attempts, runErr)

		w.applyFailureSideEffects(ctx, job, runErr, deferred != nil)

		if attempts >= state.FailAfterAttempts {
			counters.Failed++
		} else {
			counters.Retried++
		}
		w.events.OutboxJob(ctx, "error", job.JobType, errorKind(runErr), map[string]any{
			"job_id":   job.ID,
			"attempts": attempts,
		})
	}
	return counters, nil
}

func (w *Worker) runJob(ctx context.Context, job *state.OutboxJob) (string, error) {
	switch job.JobType {
	case state.JobSolicitCaea:
		return w.runSolicit(ctx, job)
	case state.JobInformCaeaMovement:
		return w.runInform(ctx, job)
	default:
		return "", &ResponseError{Message: fmt.Sprintf("Unknown outbox job type: %s", job.JobType)}
	}
}

func (w *Worker) runSolicit(ctx context.Context, job *state.OutboxJob) (string, error) {
	var payload solicitPayload
	if err := json.Unmarshal([]byte(job.PayloadJSON), &payload); err != nil {
		return "", fmt.Errorf("decode solicit payload: %w", err)
	}

	result, err := w.port.SolicitCaea(ctx, payload.Cycle)
	if err != nil {
		return "", err
	}

	caeaCode := ""
	if result.ResultGet != nil {
		caeaCode = result.ResultGet.CAEA
	}
	if caeaCode == "" {
		errs := afipErrors(result.Errors)
		summary := errorSummary(errs)
		if at, ok := deferredRetryFrom15006(errs); ok {
			return "", &DeferredRetryError{Message: summary, NextRetryAt: at}
		}
		return "", &ResponseError{Message: summary}
	}

	if err := w.store.UpdateCycleFromAfip(ctx, payload.CycleID, caeaCode); err != nil {
		return "", err
	}
	return successEnvelope(result)
}

func (w *Worker) runInform(ctx context.Context, job *state.OutboxJob) (string, error) {
	var payload informPayload
	if err := json.Unmarshal([]byte(job.PayloadJSON), &payload); err != nil {
		return "", fmt.Errorf("decode inform payload: %w", err)
	}

	result, err := w.port.InformCaea(ctx, payload.Request)
	if err != nil {
		return "", err
	}

	if err := w.store.MarkInvoiceInformed(ctx, payload.InvoiceID); err != nil {
		return "", err
	}
	return successEnvelope(result)
}

// applyFailureSideEffects keeps the cycle/invoice rows honest about why their
// job is waiting: a deferral leaves the cycle requested with the message, any
// other solicit failure flags it, and an inform failure flags the invoice.
func (w *Worker) applyFailureSideEffects(ctx context.Context, job *state.OutboxJob, runErr error, deferred bool) {
	switch job.JobType {
	case state.JobSolicitCaea:
		var payload solicitPayload
		if json.Unmarshal([]byte(job.PayloadJSON), &payload) != nil || payload.CycleID == 0 {
			return
		}
		if deferred {
			message := runErr.Error()
			if err := w.store.SetCycleStatus(ctx, payload.CycleID, state.CycleRequested, &message); err != nil {
				w.logger.Errorf("Set cycle %d status after deferral: %v", payload.CycleID, err)
			}
			return
		}
		if err := w.store.SetCycleError(ctx, payload.CycleID, runErr.Error()); err != nil {
			w.logger.Errorf("Set cycle %d error: %v", payload.CycleID, err)
		}
	case state.JobInformCaeaMovement:
		var payload informPayload
		if json.Unmarshal([]byte(job.PayloadJSON), &payload) != nil || payload.InvoiceID == 0 {
			return
		}
		if err := w.store.MarkInvoiceError(ctx, payload.InvoiceID, runErr.Error()); err != nil {
			w.logger.Errorf("Mark invoice %d error: %v", payload.InvoiceID, err)
		}
	}
}

// nextRetry schedules the standard backoff: 5 s doubled per attempt, capped
// at one hour, plus jitter.
func (w *Worker) nextRetry(attempts int) time.Time {
	base := maxBackoffSeconds
	if attempts <= 9 {
		if v := (1 << uint(attempts)) * 5; v < base {
			base = v
		}
	}
	return w.clock.Now().Add(time.Duration(base+w.jitter()) * time.Second)
}

func successEnvelope(result any) (string, error) {
	raw, err := json.Marshal(soap.Success(result))
	if err != nil {
		return "", fmt.Errorf("encode job response: %w", err)
	}
	return string(raw), nil
}
