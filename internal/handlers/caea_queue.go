package handlers

import (
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/afrelay/afrelay/internal/afip"
	"github.com/afrelay/afrelay/internal/caea"
	"github.com/afrelay/afrelay/internal/state"
)

// The queue endpoints never talk to AFIP inline. They persist intent in the
// outbox and answer immediately; the worker replays against AFIP later.

// QueueSolicitarCaea records a CAEA solicitation for deferred delivery.
func QueueSolicitarCaea(engine *caea.Engine, logger *logrus.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeValid[afip.QueueSolicitCaeaRequest](w, r)
		if !ok {
			return
		}

		cycle, job, err := engine.QueueSolicitar(r.Context(), req)
		if err != nil {
			logger.WithError(err).Error("Queueing CAEA solicit request failed")
			writeDetail(w, http.StatusInternalServerError, err.Error())
			return
		}

		logger.Infof("Queued CAEA solicit request for cycle id=%d", cycle.ID)
		writeJSON(w, http.StatusOK, map[string]any{
			"status": "queued",
			"cycle":  cycle,
			"job":    job,
		})
	}
}

// QueueIssueLocalInvoice reserves the next voucher number under the active
// CAEA code and records the invoice plus its informative-report job.
func QueueIssueLocalInvoice(engine *caea.Engine, logger *logrus.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeValid[afip.QueueIssueLocalInvoiceRequest](w, r)
		if !ok {
			return
		}

		result, err := engine.IssueLocalInvoice(r.Context(), req)
		switch {
		case errors.Is(err, caea.ErrCycleNotFound):
			writeDetail(w, http.StatusNotFound, err.Error())
			return
		case errors.Is(err, caea.ErrNoActiveCode):
			writeDetail(w, http.StatusConflict, err.Error())
			return
		case errors.Is(err, caea.ErrNoDetailRows):
			writeFieldErrors(w, []afip.FieldError{{
				Field:   "FeCAEARegInfReq.FeDetReq.FECAEADetRequest",
				Message: err.Error(),
			}})
			return
		case err != nil:
			logger.WithError(err).Error("Issuing local CAEA invoice failed")
			writeDetail(w, http.StatusInternalServerError, err.Error())
			return
		}

		writeJSON(w, http.StatusOK, struct {
			Status string `json:"status"`
			*caea.IssueLocalResult
		}{Status: "queued", IssueLocalResult: result})
	}
}

// RetryOutbox runs one worker pass over due jobs, bounded by limit.
func RetryOutbox(worker *caea.Worker, logger *logrus.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, ok := queryInt(w, r, "limit", 20, 1, 200)
		if !ok {
			return
		}

		result, err := worker.ProcessPendingOutboxJobs(r.Context(), limit)
		if err != nil {
			logger.WithError(err).Error("Outbox retry pass failed")
			writeDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "result": result})
	}
}

// ListOutbox exposes the raw queue rows, newest first.
func ListOutbox(store *state.Store, logger *logrus.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, ok := queryInt(w, r, "limit", 100, 1, 500)
		if !ok {
			return
		}

		items, err := store.ListOutbox(r.Context(), r.URL.Query().Get("status"), limit)
		if err != nil {
			logger.WithError(err).Error("Listing outbox jobs failed")
			writeDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "items": items})
	}
}

// ActiveCaeaCycles reports the current and next calendar cycles for a CUIT.
func ActiveCaeaCycles(engine *caea.Engine, logger *logrus.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cuit, ok := queryCuit(w, r)
		if !ok {
			return
		}

		cycles, err := engine.ActiveCycles(r.Context(), cuit)
		if err != nil {
			logger.WithError(err).Error("Listing active CAEA cycles failed")
			writeDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "cycles": cycles})
	}
}
