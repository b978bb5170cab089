// Package caea is the resilience core of the relay. Instead of calling AFIP
// inline, CAEA solicitations and movement reports are written to a durable
// outbox and replayed by a worker until AFIP accepts them, so locally issued
// contingency invoices survive outages and closed solicitation windows.
package caea

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/afrelay/afrelay/internal/afip"
	"github.com/afrelay/afrelay/internal/clock"
	"github.com/afrelay/afrelay/internal/state"
)

// Issue-local failures the HTTP layer maps to specific status codes. The
// messages are the response bodies.
var (
	ErrCycleNotFound = errors.New("CAEA cycle not found for given CycleId/Cuit")
	ErrNoActiveCode  = errors.New("No active CAEA code loaded for this cycle. Wait bootstrap/solicitar to complete.")
	ErrNoDetailRows  = errors.New("FeCAEARegInfReq.FeDetReq.FECAEADetRequest must contain at least one voucher")
)

const bootstrapDrainLimit = 100

// solicitPayload and informPayload are the durable outbox payloads. The JSON
// field names are part of the stored format: changing them orphans jobs
// queued by earlier versions.
type solicitPayload struct {
	CycleID int64                        `json:"cycle_id"`
	Cycle   afip.CaeaPeriodoOrdenRequest `json:"cycle"`
}

type informPayload struct {
	InvoiceID int64                          `json:"invoice_id"`
	Request   afip.CaeaRegInformativoRequest `json:"request"`
}

func solicitKey(cuit int64, periodo, orden int) string {
	return fmt.Sprintf("solicit:%d:%d:%d", cuit, periodo, orden)
}

func informKey(cuit int64, ptoVta, cbteTipo int, cbteNro int64) string {
	return fmt.Sprintf("inform:%d:%d:%d:%d", cuit, ptoVta, cbteTipo, cbteNro)
}

// Engine owns the durable CAEA surface: enqueueing solicitations, issuing
// local invoices under an active code, and the calendar bootstrap that keeps
// the current and next half-month cycles ready per CUIT.
type Engine struct {
	store  *state.Store
	worker *Worker
	clock  clock.Clock
	logger *logrus.Logger

	// bootstrapCuits is the raw comma-separated CUIT list; invalid entries
	// are logged and skipped at bootstrap time.
	bootstrapCuits string
}

func NewEngine(store *state.Store, worker *Worker, bootstrapCuits string, clk clock.Clock, logger *logrus.Logger) *Engine {
	if clk == nil {
		clk = clock.System()
	}
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	return &Engine{
		store:          store,
		worker:         worker,
		clock:          clk,
		logger:         logger,
		bootstrapCuits: bootstrapCuits,
	}
}

// QueueSolicitar creates (or finds) the cycle row and enqueues one durable
// SOLICIT_CAEA job for it. Re-posting the same (cuit, periodo, orden) while a
// job is live returns the existing job untouched.
func (e *Engine) QueueSolicitar(ctx context.Context, req afip.QueueSolicitCaeaRequest) (*state.Cycle, *state.OutboxJob, error) {
	cycle, err := e.store.CreateCycle(ctx, req.Cuit, req.Periodo, req.Orden)
	if err != nil {
		return nil, nil, err
	}

	payload, err := json.Marshal(solicitPayload{
		CycleID: cycle.ID,
		Cycle:   afip.CaeaPeriodoOrdenRequest{Cuit: req.Cuit, Periodo: req.Periodo, Orden: req.Orden},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("encode solicit payload: %w", err)
	}

	job, err := e.store.AddOutboxJob(ctx, state.JobSolicitCaea, solicitKey(req.Cuit, req.Periodo, req.Orden), string(payload))
	if err != nil {
		return nil, nil, err
	}

	e.logger.WithField("cycle_id", cycle.ID).Info("Queued CAEA solicit request")
	return cycle, job, nil
}

// IssueLocalResult is what the issue-local endpoint returns alongside
// status "queued".
type IssueLocalResult struct {
	ReservedCbteNro int64            `json:"reserved_cbte_nro"`
	Caea            string           `json:"caea"`
	Invoice         *state.Invoice   `json:"invoice"`
	Job             *state.OutboxJob `json:"job"`
}

// IssueLocalInvoice reserves the next voucher number for (cuit, ptoVta,
// cbteTipo), stamps the first detail row with it and the cycle's CAEA code,
// records the invoice as issued_local and enqueues the informative report.
// The reservation is monotonic; the number is never reused even if informing
// later fails.
func (e *Engine) IssueLocalInvoice(ctx context.Context, req afip.QueueIssueLocalInvoiceRequest) (*IssueLocalResult, error) {
	cycle, err := e.store.GetCycleByID(ctx, req.CycleId)
	if err != nil {
		return nil, err
	}
	if cycle == nil || cycle.Cuit != req.Cuit {
		return nil, ErrCycleNotFound
	}
	code, ok := cycle.ActiveCode()
	if !ok {
		return nil, ErrNoActiveCode
	}

	details := req.FeCAEARegInfReq.FeDetReq.FECAEADetRequest
	if len(details) == 0 {
		return nil, ErrNoDetailRows
	}

	cbteNro, err := e.store.ReserveNextInvoiceNumber(ctx, req.Cuit, req.PtoVta, req.CbteTipo)
	if err != nil {
		return nil, err
	}

	det := &details[0]
	det.CbteDesde = cbteNro
	det.CbteHasta = cbteNro
	det.CAEA = code

	invoicePayload, err := json.Marshal(req.FeCAEARegInfReq)
	if err != nil {
		return nil, fmt.Errorf("encode invoice payload: %w", err)
	}
	invoice, err := e.store.CreateLocalInvoice(ctx, req.CycleId, req.Cuit, req.PtoVta, req.CbteTipo, cbteNro, string(invoicePayload))
	if err != nil {
		return nil, err
	}

	jobPayload, err := json.Marshal(informPayload{
		InvoiceID: invoice.ID,
		Request:   afip.CaeaRegInformativoRequest{Cuit: req.Cuit, FeCAEARegInfReq: req.FeCAEARegInfReq},
	})
	if err != nil {
		return nil, fmt.Errorf("encode inform payload: %w", err)
	}
	job, err := e.store.AddOutboxJob(ctx, state.JobInformCaeaMovement, informKey(req.Cuit, req.PtoVta, req.CbteTipo, cbteNro), string(jobPayload))
	if err != nil {
		return nil, err
	}

	e.logger.WithFields(logrus.Fields{
		"cycle_id": cycle.ID,
		"cbte_nro": cbteNro,
	}).Info("Issued local CAEA invoice and queued informative report")

	return &IssueLocalResult{
		ReservedCbteNro: cbteNro,
		Caea:            code,
		Invoice:         invoice,
		Job:             job,
	}, nil
}

// CycleView is one row of the active-cycles report: the calendar slot plus
// whatever the store knows about it. CaeaCode and Status stay null until a
// solicitation lands.
type CycleView struct {
	Periodo  int     `json:"periodo"`
	Orden    int     `json:"orden"`
	Active   bool    `json:"active"`
	CaeaCode *string `json:"caea_code"`
	Status   *string `json:"status"`
}

// ActiveCycles reports the current and next calendar cycles for a CUIT. It
// never enqueues anything; rows the bootstrap has not created yet simply
// show up inactive.
func (e *Engine) ActiveCycles(ctx context.Context, cuit int64) ([]CycleView, error) {
	periods := clock.ResolveCurrentAndNextCycles(e.clock.Now())
	views := make([]CycleView, 0, len(periods))

	for _, p := range periods {
		active, err := e.store.GetActiveCycle(ctx, cuit, p.Periodo, p.Orden)
		if err != nil {
			return nil, err
		}
		cycle, err := e.store.GetCycle(ctx, cuit, p.Periodo, p.Orden)
		if err != nil {
			return nil, err
		}

		view := CycleView{Periodo: p.Periodo, Orden: p.Orden, Active: active != nil}
		if active != nil {
			view.CaeaCode = active.CaeaCode
		}
		if cycle != nil {
			status := cycle.Status
			view.Status = &status
		}
		views = append(views, view)
	}
	return views, nil
}

// BootstrapSummary aggregates one bootstrap pass over every configured CUIT.
type BootstrapSummary struct {
	ProcessedCuits int `json:"processed_cuits"`
	EnsuredCycles  int `json:"ensured_cycles"`
	QueuedJobs     int `json:"queued_jobs"`
}

// BootstrapResult is the bootstrap response: "ok" with summary and outbox
// counters, or "skipped" when no CUITs are configured.
type BootstrapResult struct {
	Status         string            `json:"status"`
	Reason         string            `json:"reason,omitempty"`
	ProcessedCuits *int              `json:"processed_cuits,omitempty"`
	Summary        *BootstrapSummary `json:"summary,omitempty"`
	Outbox         *Counters         `json:"outbox,omitempty"`
}

// BootstrapCuitCycles ensures the current and next cycle rows exist for cuit
// and enqueues a solicitation for any of them still lacking an active CAEA
// code. It returns how many cycles were ensured and how many jobs are live.
func (e *Engine) BootstrapCuitCycles(ctx context.Context, cuit int64) (ensured, queued int, err error) {
	for _, p := range clock.ResolveCurrentAndNextCycles(e.clock.Now()) {
		cycle, err := e.store.CreateCycle(ctx, cuit, p.Periodo, p.Orden)
		if err != nil {
			return ensured, queued, err
		}
		ensured++

		if _, ok := cycle.ActiveCode(); ok {
			continue
		}

		payload, err := json.Marshal(solicitPayload{
			CycleID: cycle.ID,
			Cycle:   afip.CaeaPeriodoOrdenRequest{Cuit: cuit, Periodo: p.Periodo, Orden: p.Orden},
		})
		if err != nil {
			return ensured, queued, fmt.Errorf("encode solicit payload: %w", err)
		}
		job, err := e.store.AddOutboxJob(ctx, state.JobSolicitCaea, solicitKey(cuit, p.Periodo, p.Orden), string(payload))
		if err != nil {
			return ensured, queued, err
		}
		if job.Live() {
			queued++
		}
	}
	return ensured, queued, nil
}

// BootstrapOnce is the scheduler's bootstrap job: normalize statuses left by
// crashes, ensure cycles for every configured CUIT, then drain the outbox.
func (e *Engine) BootstrapOnce(ctx context.Context) (*BootstrapResult, error) {
	if _, err := e.store.NormalizeCycleStatuses(ctx); err != nil {
		return nil, err
	}

	cuits := e.configuredCuits()
	if len(cuits) == 0 {
		e.logger.Info("CAEA bootstrap skipped: no bootstrap CUITs configured")
		zero := 0
		return &BootstrapResult{Status: "skipped", Reason: "no_cuits", ProcessedCuits: &zero}, nil
	}

	summary := BootstrapSummary{}
	for _, cuit := range cuits {
		ensured, queued, err := e.BootstrapCuitCycles(ctx, cuit)
		if err != nil {
			return nil, err
		}
		summary.ProcessedCuits++
		summary.EnsuredCycles += ensured
		summary.QueuedJobs += queued
	}

	outbox, err := e.worker.ProcessPendingOutboxJobs(ctx, bootstrapDrainLimit)
	if err != nil {
		return nil, err
	}

	e.logger.WithFields(logrus.Fields{
		"cuits":   summary.ProcessedCuits,
		"ensured": summary.EnsuredCycles,
		"queued":  summary.QueuedJobs,
		"outbox":  fmt.Sprintf("%+v", outbox),
	}).Info("CAEA bootstrap done")

	return &BootstrapResult{Status: "ok", Summary: &summary, Outbox: &outbox}, nil
}

func (e *Engine) configuredCuits() []int64 {
	raw := strings.TrimSpace(e.bootstrapCuits)
	if raw == "" {
		return nil
	}

	var cuits []int64
	for _, chunk := range strings.Split(raw, ",") {
		piece := strings.TrimSpace(chunk)
		if piece == "" {
			continue
		}
		cuit, err := strconv.ParseInt(piece, 10, 64)
		if err != nil {
			e.logger.Warnf("Ignoring invalid CUIT in bootstrap list: %s", piece)
			continue
		}
		cuits = append(cuits, cuit)
	}
	return cuits
}
