package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/afrelay/afrelay/internal/handlers"
	"github.com/afrelay/afrelay/internal/middleware"
)

// Router builds the full route table. The liveness probe and the Prometheus
// scrape target stay outside the middleware chain; everything else passes
// through observation, the optional client rate limit and bearer auth, in
// that order, so rejected requests still land in the monitor.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health/liveness", handlers.Liveness()).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(s.deps.Registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	authed := r.PathPrefix("/").Subrouter()
	authed.Use(middleware.Observe(s.deps.Collector, s.deps.Logger))
	if s.limiter != nil {
		authed.Use(s.limiter.Middleware())
	}
	authed.Use(middleware.Auth(s.deps.Config.Auth.JWTSecret))

	logger := s.deps.Logger

	// Ticket renewal.
	authed.HandleFunc("/wsaa/token", handlers.RenewWSAAToken(s.deps.Tickets, logger)).Methods(http.MethodPost)
	authed.HandleFunc("/wspci/token", handlers.RenewWSPCIToken(s.deps.Tickets, logger)).Methods(http.MethodPost)

	// Invoicing.
	wsfe := s.deps.WSFE
	authed.HandleFunc("/wsfe/invoices", handlers.IssueInvoice(wsfe, logger)).Methods(http.MethodPost)
	authed.HandleFunc("/wsfe/invoices/last-authorized", handlers.LastAuthorizedInvoice(wsfe, logger)).Methods(http.MethodPost)
	authed.HandleFunc("/wsfe/invoices/query", handlers.QueryInvoice(wsfe, logger)).Methods(http.MethodPost)

	// Parameter tables.
	authed.HandleFunc("/wsfe/params/max-reg-x-request", handlers.MaxRegXRequest(wsfe, logger)).Methods(http.MethodPost)
	authed.HandleFunc("/wsfe/params/types-cbte", handlers.VoucherTypes(wsfe, logger)).Methods(http.MethodPost)
	authed.HandleFunc("/wsfe/params/types-concepto", handlers.ConceptTypes(wsfe, logger)).Methods(http.MethodPost)
	authed.HandleFunc("/wsfe/params/types-doc", handlers.DocTypes(wsfe, logger)).Methods(http.MethodPost)
	authed.HandleFunc("/wsfe/params/types-iva", handlers.IvaTypes(wsfe, logger)).Methods(http.MethodPost)
	authed.HandleFunc("/wsfe/params/types-tributos", handlers.TributeTypes(wsfe, logger)).Methods(http.MethodPost)
	authed.HandleFunc("/wsfe/params/types-monedas", handlers.CurrencyTypes(wsfe, logger)).Methods(http.MethodPost)
	authed.HandleFunc("/wsfe/params/types-opcional", handlers.OptionalTypes(wsfe, logger)).Methods(http.MethodPost)
	authed.HandleFunc("/wsfe/params/types-paises", handlers.CountryTypes(wsfe, logger)).Methods(http.MethodPost)
	authed.HandleFunc("/wsfe/params/condicion-iva-receptor", handlers.ReceiverIvaConditions(wsfe, logger)).Methods(http.MethodPost)
	authed.HandleFunc("/wsfe/params/puntos-venta", handlers.SalePoints(wsfe, logger)).Methods(http.MethodPost)
	authed.HandleFunc("/wsfe/params/actividades", handlers.Activities(wsfe, logger)).Methods(http.MethodPost)
	authed.HandleFunc("/wsfe/params/cotizacion", handlers.CurrencyQuote(wsfe, logger)).Methods(http.MethodPost)

	// CAEA pass-through.
	authed.HandleFunc("/wsfe/caea/solicitar", handlers.SolicitCaea(wsfe, logger)).Methods(http.MethodPost)
	authed.HandleFunc("/wsfe/caea/consultar", handlers.ConsultCaea(wsfe, logger)).Methods(http.MethodPost)
	authed.HandleFunc("/wsfe/caea/informar", handlers.InformCaea(wsfe, logger)).Methods(http.MethodPost)
	authed.HandleFunc("/wsfe/caea/sin-movimiento/consultar", handlers.ConsultCaeaNoMovement(wsfe, logger)).Methods(http.MethodPost)
	authed.HandleFunc("/wsfe/caea/sin-movimiento/informar", handlers.InformCaeaNoMovement(wsfe, logger)).Methods(http.MethodPost)

	// CAEA durable queue.
	authed.HandleFunc("/wsfe/caea/queue/solicitar", handlers.QueueSolicitarCaea(s.deps.Engine, logger)).Methods(http.MethodPost)
	authed.HandleFunc("/wsfe/caea/queue/issue-local", handlers.QueueIssueLocalInvoice(s.deps.Engine, logger)).Methods(http.MethodPost)
	authed.HandleFunc("/wsfe/caea/queue/retry", handlers.RetryOutbox(s.deps.Worker, logger)).Methods(http.MethodPost)
	authed.HandleFunc("/wsfe/caea/queue/outbox", handlers.ListOutbox(s.deps.State, logger)).Methods(http.MethodGet)
	authed.HandleFunc("/wsfe/caea/queue/active", handlers.ActiveCaeaCycles(s.deps.Engine, logger)).Methods(http.MethodGet)

	// Padron.
	authed.HandleFunc("/wspci/persona", handlers.GetPersona(s.deps.WSPCI, logger)).Methods(http.MethodPost)

	// Monitor.
	authed.HandleFunc("/ui/metrics/summary", handlers.MetricsSummary(s.deps.Collector)).Methods(http.MethodGet)
	authed.HandleFunc("/ui/logs", handlers.RequestLogs(s.deps.Collector)).Methods(http.MethodGet)
	authed.HandleFunc("/ui/errors", handlers.ErrorBreakdown(s.deps.Collector)).Methods(http.MethodGet)
	authed.HandleFunc("/ui/tokens/status", handlers.TokenStatus(s.deps.Collector)).Methods(http.MethodGet)
	authed.HandleFunc("/ui/operations/summary", handlers.OperationsSummary(s.deps.Collector)).Methods(http.MethodGet)
	authed.HandleFunc("/ui/alerts", handlers.ActiveAlerts(s.deps.Collector)).Methods(http.MethodGet)
	authed.HandleFunc("/ui/events", handlers.DomainEvents(s.deps.Collector)).Methods(http.MethodGet)
	authed.HandleFunc("/ui/caea/queue", handlers.QueueOverview(s.deps.State, logger)).Methods(http.MethodGet)
	authed.HandleFunc("/ui/caea/queue/retry", handlers.QueueRetry(s.deps.Worker, logger)).Methods(http.MethodPost)
	authed.HandleFunc("/ui/caea/assignments", handlers.CaeaAssignments(s.deps.State, logger)).Methods(http.MethodGet)

	// Readiness exercises real upstreams, so it sits behind auth.
	authed.HandleFunc("/health/readiness", handlers.Readiness(s.deps.Time, s.deps.WSFE)).Methods(http.MethodGet)

	return r
}
