package handlers

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/afrelay/afrelay/internal/caea"
	"github.com/afrelay/afrelay/internal/observability"
	"github.com/afrelay/afrelay/internal/state"
)

// The /ui group feeds the monitoring dashboard. Everything reads from the
// in-memory observability store except the queue views, which go to SQLite.

func MetricsSummary(collector *observability.Collector) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		window, ok := queryInt(w, r, "window_minutes", 60, 1, 1440)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, collector.Store().Summary(window))
	}
}

func RequestLogs(collector *observability.Collector) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, ok := queryInt(w, r, "page", 1, 1, 0)
		if !ok {
			return
		}
		pageSize, ok := queryInt(w, r, "page_size", 50, 1, 500)
		if !ok {
			return
		}
		status, ok := queryEnum(w, r, "status", "ok", "error")
		if !ok {
			return
		}

		q := r.URL.Query()
		writeJSON(w, http.StatusOK, collector.Store().Logs(observability.LogQuery{
			Page:      page,
			PageSize:  pageSize,
			Endpoint:  q.Get("endpoint"),
			Status:    status,
			Service:   q.Get("service"),
			ErrorType: q.Get("error_type"),
		}))
	}
}

func ErrorBreakdown(collector *observability.Collector) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		window, ok := queryInt(w, r, "window_minutes", 60, 1, 1440)
		if !ok {
			return
		}
		groupBy, ok := queryEnum(w, r, "group_by", "error_type", "endpoint")
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, collector.Store().Errors(window, groupBy))
	}
}

// TokenStatus re-reads both ticket files before answering so the view never
// lags a renewal that happened out of band.
func TokenStatus(collector *observability.Collector) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, collector.RefreshTokenStates())
	}
}

func OperationsSummary(collector *observability.Collector) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		window, ok := queryInt(w, r, "window_minutes", 60, 1, 1440)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, collector.Store().Operations(window))
	}
}

func ActiveAlerts(collector *observability.Collector) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		collector.RefreshTokenStates()
		writeJSON(w, http.StatusOK, collector.Store().EvaluateAlerts())
	}
}

func DomainEvents(collector *observability.Collector) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, ok := queryInt(w, r, "page", 1, 1, 0)
		if !ok {
			return
		}
		pageSize, ok := queryInt(w, r, "page_size", 50, 1, 500)
		if !ok {
			return
		}
		status, ok := queryEnum(w, r, "status", "success", "error")
		if !ok {
			return
		}

		q := r.URL.Query()
		writeJSON(w, http.StatusOK, collector.Store().Events(observability.EventQuery{
			Page:      page,
			PageSize:  pageSize,
			Service:   q.Get("service"),
			EventType: q.Get("event_type"),
			Status:    status,
		}))
	}
}

// QueueOverview lists recent outbox rows with a status tally over the listed
// slice, not the whole table.
func QueueOverview(store *state.Store, logger *logrus.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, ok := queryInt(w, r, "limit", 200, 1, 1000)
		if !ok {
			return
		}

		items, err := store.ListOutbox(r.Context(), "", limit)
		if err != nil {
			logger.WithError(err).Error("Listing outbox jobs failed")
			writeDetail(w, http.StatusInternalServerError, err.Error())
			return
		}

		summary := map[string]int{
			state.JobPending:    0,
			state.JobRetrying:   0,
			state.JobProcessing: 0,
			state.JobDone:       0,
			state.JobFailed:     0,
		}
		for _, item := range items {
			if _, known := summary[item.Status]; known {
				summary[item.Status]++
			}
		}
		writeJSON(w, http.StatusOK, map[string]any{"summary": summary, "items": items})
	}
}

// QueueRetry is RetryOutbox with the dashboard's tighter default.
func QueueRetry(worker *caea.Worker, logger *logrus.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, ok := queryInt(w, r, "limit", 30, 1, 200)
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

// CaeaAssignments aggregates issued invoices per cycle and sale point.
func CaeaAssignments(store *state.Store, logger *logrus.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, ok := queryInt(w, r, "limit", 200, 1, 1000)
		if !ok {
			return
		}

		items, err := store.ListCaeaAssignments(r.Context(), limit)
		if err != nil {
			logger.WithError(err).Error("Listing CAEA assignments failed")
			writeDetail(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items, "count": len(items)})
	}
}
