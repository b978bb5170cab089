// Package observability keeps the relay's recent traffic in memory for the
// monitor endpoints: request logs, domain events, ticket state, derived
// summaries and alert evaluation. Nothing here persists; the store is a
// bounded window over the last few thousand exchanges.
package observability

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/afrelay/afrelay/internal/clock"
)

const (
	DefaultMaxLogs   = 5000
	DefaultMaxEvents = 2000
)

// RequestLog is one relayed HTTP exchange as the monitor sees it.
type RequestLog struct {
	Timestamp  time.Time
	TraceID    string
	Method     string
	Path       string
	StatusCode int
	OK         bool
	DurationMS float64
	Service    string
	ErrorType  string
	Cuit       int64
}

// DomainEvent is one business-level occurrence: an outbox job transition, a
// SOAP call outcome, a token renewal.
type DomainEvent struct {
	Timestamp time.Time
	TraceID   string
	Service   string
	EventType string
	Status    string
	EntityKey string
	ErrorType string
	Payload   map[string]any
}

// TokenState mirrors what the ticket files say right now.
type TokenState struct {
	Valid     bool    `json:"valid"`
	ExpiresAt *string `json:"expires_at"`
	LastError *string `json:"last_error"`
	CheckedAt string  `json:"checked_at"`
}

// ring is a fixed-capacity overwrite-oldest buffer.
type ring[T any] struct {
	buf  []T
	next int
	size int
}

func newRing[T any](capacity int) *ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &ring[T]{buf: make([]T, capacity)}
}

func (r *ring[T]) push(v T) {
	r.buf[r.next] = v
	r.next = (r.next + 1) % len(r.buf)
	if r.size < len(r.buf) {
		r.size++
	}
}

// items returns the contents oldest first.
func (r *ring[T]) items() []T {
	out := make([]T, 0, r.size)
	if r.size < len(r.buf) {
		return append(out, r.buf[:r.size]...)
	}
	out = append(out, r.buf[r.next:]...)
	return append(out, r.buf[:r.next]...)
}

// Store is the monitor's shared state. All methods are safe for concurrent
// use; reads work on snapshots so view building never blocks writers.
type Store struct {
	mu       sync.Mutex
	requests *ring[RequestLog]
	events   *ring[DomainEvent]
	tokens   map[string]TokenState
	clock    clock.Clock
}

func NewStore(maxLogs, maxEvents int, clk clock.Clock) *Store {
	if maxLogs <= 0 {
		maxLogs = DefaultMaxLogs
	}
	if maxEvents <= 0 {
		maxEvents = DefaultMaxEvents
	}
	if clk == nil {
		clk = clock.System()
	}
	return &Store{
		requests: newRing[RequestLog](maxLogs),
		events:   newRing[DomainEvent](maxEvents),
		tokens:   make(map[string]TokenState),
		clock:    clk,
	}
}

func (s *Store) AddRequestLog(entry RequestLog) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests.push(entry)
}

func (s *Store) AddDomainEvent(event DomainEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events.push(event)
}

func (s *Store) UpdateTokenStatus(service string, state TokenState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[service] = state
}

// TokenStatus returns a copy of the per-service token states.
func (s *Store) TokenStatus() map[string]TokenState {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]TokenState, len(s.tokens))
	for k, v := range s.tokens {
		out[k] = v
	}
	return out
}

func (s *Store) requestSnapshot() []RequestLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests.items()
}

func (s *Store) eventSnapshot() []DomainEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events.items()
}

// ===== views =====

// LogQuery filters and paginates the request log, newest first.
type LogQuery struct {
	Page      int
	PageSize  int
	Endpoint  string
	Status    string // "ok", "error" or empty
	Service   string
	ErrorType string
}

type LogRow struct {
	Timestamp  string  `json:"timestamp"`
	TraceID    string  `json:"trace_id"`
	Method     string  `json:"method"`
	Path       string  `json:"path"`
	StatusCode int     `json:"status_code"`
	OK         bool    `json:"ok"`
	DurationMS float64 `json:"duration_ms"`
	Service    string  `json:"service"`
	ErrorType  *string `json:"error_type"`
	Cuit       *int64  `json:"cuit"`
}

type LogPage struct {
	Page     int      `json:"page"`
	PageSize int      `json:"page_size"`
	Total    int      `json:"total"`
	Items    []LogRow `json:"items"`
}

func (s *Store) Logs(q LogQuery) LogPage {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = 50
	}

	items := s.requestSnapshot()
	filtered := items[:0:0]
	for _, i := range items {
		if q.Endpoint != "" && !strings.Contains(i.Path, q.Endpoint) {
			continue
		}
		if q.Service != "" && i.Service != q.Service {
			continue
		}
		if q.Status == "ok" && !i.OK {
			continue
		}
		if q.Status == "error" && i.OK {
			continue
		}
		if q.ErrorType != "" && i.ErrorType != q.ErrorType {
			continue
		}
		filtered = append(filtered, i)
	}

	reverse(filtered)
	total := len(filtered)
	start, end := pageBounds(q.Page, q.PageSize, total)

	rows := make([]LogRow, 0, end-start)
	for _, i := range filtered[start:end] {
		rows = append(rows, logRow(i))
	}
	return LogPage{Page: q.Page, PageSize: q.PageSize, Total: total, Items: rows}
}

func logRow(i RequestLog) LogRow {
	row := LogRow{
		Timestamp:  isoUTC(i.Timestamp),
		TraceID:    i.TraceID,
		Method:     i.Method,
		Path:       i.Path,
		StatusCode: i.StatusCode,
		OK:         i.OK,
		DurationMS: round3(i.DurationMS),
		Service:    i.Service,
	}
	if i.ErrorType != "" {
		row.ErrorType = &i.ErrorType
	}
	if i.Cuit != 0 {
		row.Cuit = &i.Cuit
	}
	return row
}

type ServiceStats struct {
	Requests  int     `json:"requests"`
	Errors    int     `json:"errors"`
	ErrorRate float64 `json:"error_rate"`
}

type Summary struct {
	WindowMinutes int                     `json:"window_minutes"`
	TotalRequests int                     `json:"total_requests"`
	ErrorCount    int                     `json:"error_count"`
	ErrorRate     float64                 `json:"error_rate"`
	P95MS         float64                 `json:"p95_ms"`
	AvgMS         float64                 `json:"avg_ms"`
	Services      map[string]ServiceStats `json:"services"`
}

// knownServices is the fixed breakdown the summary always reports, present
// or not in the window.
var knownServices = []string{"wsfe", "wsaa", "wspci", "ui", "health", "other"}

func (s *Store) Summary(windowMinutes int) Summary {
	cutoff := s.clock.Now().Add(-time.Duration(windowMinutes) * time.Minute)

	var inWindow []RequestLog
	for _, i := range s.requestSnapshot() {
		if !i.Timestamp.Before(cutoff) {
			inWindow = append(inWindow, i)
		}
	}

	total := len(inWindow)
	errors := 0
	durations := make([]float64, 0, total)
	var sum float64
	for _, i := range inWindow {
		if !i.OK {
			errors++
		}
		durations = append(durations, i.DurationMS)
		sum += i.DurationMS
	}

	services := make(map[string]ServiceStats, len(knownServices))
	for _, name := range knownServices {
		st := ServiceStats{}
		for _, i := range inWindow {
			if i.Service != name {
				continue
			}
			st.Requests++
			if !i.OK {
				st.Errors++
			}
		}
		if st.Requests > 0 {
			st.ErrorRate = round4(float64(st.Errors) / float64(st.Requests))
		}
		services[name] = st
	}

	out := Summary{
		WindowMinutes: windowMinutes,
		TotalRequests: total,
		ErrorCount:    errors,
		P95MS:         round3(percentile(durations, 0.95)),
		Services:      services,
	}
	if total > 0 {
		out.ErrorRate = round4(float64(errors) / float64(total))
		out.AvgMS = round3(sum / float64(total))
	}
	return out
}

type ErrorGroup struct {
	Key      string  `json:"key"`
	Count    int     `json:"count"`
	LastSeen string  `json:"last_seen"`
	Sample   *string `json:"sample"`
}

type ErrorsView struct {
	WindowMinutes int          `json:"window_minutes"`
	GroupBy       string       `json:"group_by"`
	Items         []ErrorGroup `json:"items"`
}

// Errors groups the window's failures by error type (default) or by
// endpoint, most frequent first.
func (s *Store) Errors(windowMinutes int, groupBy string) ErrorsView {
	if groupBy != "endpoint" {
		groupBy = "error_type"
	}
	cutoff := s.clock.Now().Add(-time.Duration(windowMinutes) * time.Minute)

	type bucket struct {
		key      string
		count    int
		lastSeen time.Time
		sample   string
	}
	order := []string{}
	buckets := map[string]*bucket{}

	for _, i := range s.requestSnapshot() {
		if i.OK || i.Timestamp.Before(cutoff) {
			continue
		}
		key, sample := i.ErrorType, i.Path
		if groupBy == "endpoint" {
			key, sample = i.Path, i.ErrorType
		}
		if key == "" {
			key = httpStatusKey(i.StatusCode)
		}
		b, ok := buckets[key]
		if !ok {
			b = &bucket{key: key}
			buckets[key] = b
			order = append(order, key)
		}
		b.count++
		if i.Timestamp.After(b.lastSeen) {
			b.lastSeen = i.Timestamp
		}
		b.sample = sample
	}

	rows := make([]ErrorGroup, 0, len(order))
	for _, key := range order {
		b := buckets[key]
		row := ErrorGroup{Key: b.key, Count: b.count, LastSeen: isoUTC(b.lastSeen)}
		if b.sample != "" {
			row.Sample = &b.sample
		}
		rows = append(rows, row)
	}
	sort.SliceStable(rows, func(a, b int) bool { return rows[a].Count > rows[b].Count })
	return ErrorsView{WindowMinutes: windowMinutes, GroupBy: groupBy, Items: rows}
}

type OpOutcome struct {
	Success int `json:"success"`
	Error   int `json:"error"`
}

type DomainEventStats struct {
	ByType          map[string]int `json:"by_type"`
	ErrorSignatures map[string]int `json:"error_signatures"`
}

type OperationsSummary struct {
	WindowMinutes  int                  `json:"window_minutes"`
	Fecae          OpOutcome            `json:"fecae"`
	LastAuthorized OpOutcome            `json:"last_authorized"`
	InvoiceQuery   OpOutcome            `json:"invoice_query"`
	WsfeParams     map[string]OpOutcome `json:"wsfe_params"`
	Caea           map[string]int       `json:"caea"`
	DomainEvents   DomainEventStats     `json:"domain_events"`
}

var paramEndpoints = map[string]string{
	"max_reg_x_request":      "/wsfe/params/max-reg-x-request",
	"types_cbte":             "/wsfe/params/types-cbte",
	"types_doc":              "/wsfe/params/types-doc",
	"types_iva":              "/wsfe/params/types-iva",
	"types_tributos":         "/wsfe/params/types-tributos",
	"types_monedas":          "/wsfe/params/types-monedas",
	"condicion_iva_receptor": "/wsfe/params/condicion-iva-receptor",
	"puntos_venta":           "/wsfe/params/puntos-venta",
	"cotizacion":             "/wsfe/params/cotizacion",
	"types_concepto":         "/wsfe/params/types-concepto",
	"types_opcional":         "/wsfe/params/types-opcional",
	"types_paises":           "/wsfe/params/types-paises",
	"actividades":            "/wsfe/params/actividades",
}

var caeaEndpoints = map[string]string{
	"solicitar":                "/wsfe/caea/solicitar",
	"consultar":                "/wsfe/caea/consultar",
	"informar":                 "/wsfe/caea/informar",
	"sin-movimiento/consultar": "/wsfe/caea/sin-movimiento/consultar",
	"sin-movimiento/informar":  "/wsfe/caea/sin-movimiento/informar",
}

func (s *Store) Operations(windowMinutes int) OperationsSummary {
	cutoff := s.clock.Now().Add(-time.Duration(windowMinutes) * time.Minute)

	var logs []RequestLog
	for _, i := range s.requestSnapshot() {
		if !i.Timestamp.Before(cutoff) {
			logs = append(logs, i)
		}
	}
	var events []DomainEvent
	for _, e := range s.eventSnapshot() {
		if !e.Timestamp.Before(cutoff) {
			events = append(events, e)
		}
	}

	outcome := func(path string) OpOutcome {
		var o OpOutcome
		for _, i := range logs {
			if i.Path != path {
				continue
			}
			if i.OK {
				o.Success++
			} else {
				o.Error++
			}
		}
		return o
	}
	count := func(path string) int {
		n := 0
		for _, i := range logs {
			if i.Path == path {
				n++
			}
		}
		return n
	}

	params := make(map[string]OpOutcome, len(paramEndpoints))
	for name, path := range paramEndpoints {
		params[name] = outcome(path)
	}
	caea := make(map[string]int, len(caeaEndpoints))
	for name, path := range caeaEndpoints {
		caea[name] = count(path)
	}

	byType := map[string]int{}
	signatures := map[string]int{}
	for _, e := range events {
		byType[e.EventType]++
		if e.Status == "error" && e.ErrorType != "" {
			signatures[e.EventType+":"+e.ErrorType]++
		}
	}

	return OperationsSummary{
		WindowMinutes:  windowMinutes,
		Fecae:          outcome("/wsfe/invoices"),
		LastAuthorized: outcome("/wsfe/invoices/last-authorized"),
		InvoiceQuery:   outcome("/wsfe/invoices/query"),
		WsfeParams:     params,
		Caea:           caea,
		DomainEvents:   DomainEventStats{ByType: byType, ErrorSignatures: signatures},
	}
}

// EventQuery filters and paginates the domain event feed, newest first.
type EventQuery struct {
	Page      int
	PageSize  int
	Service   string
	EventType string
	Status    string
}

type EventRow struct {
	Timestamp string         `json:"timestamp"`
	TraceID   *string        `json:"trace_id"`
	Service   string         `json:"service"`
	EventType string         `json:"event_type"`
	Status    string         `json:"status"`
	EntityKey *string        `json:"entity_key"`
	ErrorType *string        `json:"error_type"`
	Payload   map[string]any `json:"payload"`
}

type EventPage struct {
	Page     int        `json:"page"`
	PageSize int        `json:"page_size"`
	Total    int        `json:"total"`
	Items    []EventRow `json:"items"`
}

func (s *Store) Events(q EventQuery) EventPage {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = 50
	}

	items := s.eventSnapshot()
	filtered := items[:0:0]
	for _, e := range items {
		if q.Service != "" && e.Service != q.Service {
			continue
		}
		if q.EventType != "" && e.EventType != q.EventType {
			continue
		}
		if q.Status != "" && e.Status != q.Status {
			continue
		}
		filtered = append(filtered, e)
	}

	reverse(filtered)
	total := len(filtered)
	start, end := pageBounds(q.Page, q.PageSize, total)

	rows := make([]EventRow, 0, end-start)
	for _, e := range filtered[start:end] {
		// go 1.21 shares one loop variable across iterations; keep a
		// per-iteration copy so the row's pointers below don't all end up
		// aliasing the last event.
		e := e
		row := EventRow{
			Timestamp: isoUTC(e.Timestamp),
			Service:   e.Service,
			EventType: e.EventType,
			Status:    e.Status,
			Payload:   e.Payload,
		}
		if e.TraceID != "" {
			row.TraceID = &e.TraceID
		}
		if e.EntityKey != "" {
			row.EntityKey = &e.EntityKey
		}
		if e.ErrorType != "" {
			row.ErrorType = &e.ErrorType
		}
		rows = append(rows, row)
	}
	return EventPage{Page: q.Page, PageSize: q.PageSize, Total: total, Items: rows}
}

type Alert struct {
	RuleID   string `json:"rule_id"`
	Severity string `json:"severity"`
	Title    string `json:"title"`
	Detail   any    `json:"detail"`
}

type Alerts struct {
	Active []Alert `json:"active"`
	Count  int     `json:"count"`
}

// tokenExpiryWarning is how close to expiry a ticket may get before the
// monitor raises; the watchdog renews well inside it, so a firing alert
// means renewal is broken.
const tokenExpiryWarning = 30 * time.Minute

// EvaluateAlerts runs the three built-in rules: burst of errors in the last
// 10 minutes, one error signature repeating in the last 15, and tickets
// close to expiry.
func (s *Store) EvaluateAlerts() Alerts {
	now := s.clock.Now()
	active := []Alert{}

	summary := s.Summary(10)
	if summary.TotalRequests >= 20 && summary.ErrorRate >= 0.2 {
		active = append(active, Alert{
			RuleID:   "high_error_rate_10m",
			Severity: "high",
			Title:    "High error rate in last 10 minutes",
			Detail:   summary,
		})
	}

	errors := s.Errors(15, "error_type")
	if len(errors.Items) > 0 && errors.Items[0].Count >= 5 {
		active = append(active, Alert{
			RuleID:   "repeated_error_signature",
			Severity: "medium",
			Title:    "Repeated error signature detected",
			Detail:   errors.Items[0],
		})
	}

	for service, state := range s.TokenStatus() {
		if state.ExpiresAt == nil {
			continue
		}
		expires, err := time.Parse(time.RFC3339, *state.ExpiresAt)
		if err != nil {
			continue
		}
		if expires.Sub(now) <= tokenExpiryWarning {
			active = append(active, Alert{
				RuleID:   service + "_token_expiring",
				Severity: "high",
				Title:    strings.ToUpper(service) + " token expires soon",
				Detail:   state,
			})
		}
	}
	sort.SliceStable(active, func(a, b int) bool { return active[a].RuleID < active[b].RuleID })

	return Alerts{Active: active, Count: len(active)}
}

// ===== helpers =====

// percentile is nearest-rank: the smallest value at or above the requested
// fraction of the ordered sample.
func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	ordered := append([]float64(nil), values...)
	sort.Float64s(ordered)
	idx := int(math.Ceil(p*float64(len(ordered)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(ordered) {
		idx = len(ordered) - 1
	}
	return ordered[idx]
}

func pageBounds(page, pageSize, total int) (int, int) {
	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return start, end
}

func reverse[T any](items []T) {
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
}

// httpStatusKey labels failures that carried no structured error body.
func httpStatusKey(status int) string {
	return fmt.Sprintf("HTTP_%d", status)
}

func isoUTC(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
func round4(v float64) float64 { return math.Round(v*10000) / 10000 }
