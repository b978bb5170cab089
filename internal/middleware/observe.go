package middleware

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/afrelay/afrelay/internal/observability"
)

// responseRecorder tees the handler's output so the collector can classify
// the envelope after the fact.
type responseRecorder struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (r *responseRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

// Observe assigns each request a trace id, buffers both bodies and hands the
// finished exchange to the collector. The Prometheus scrape path is left
// out so the monitor does not count itself. A panicking handler is logged
// and answered with a plain 500; the exchange is still recorded.
func Observe(collector *observability.Collector, logger *logrus.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, "/metrics") {
				next.ServeHTTP(w, r)
				return
			}

			traceID := observability.NewTraceID()
			ctx := observability.WithTraceID(r.Context(), traceID)

			var requestBody []byte
			if r.Body != nil {
				requestBody, _ = io.ReadAll(r.Body)
				r.Body.Close()
				r.Body = io.NopCloser(bytes.NewReader(requestBody))
			}

			recorder := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
			recorder.Header().Set("X-Trace-Id", traceID)

			start := time.Now()
			defer func() {
				if rec := recover(); rec != nil {
					logger.Errorf("Panic handling %s %s: %v", r.Method, r.URL.Path, rec)
					recorder.status = http.StatusInternalServerError
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
				collector.RecordHTTPExchange(observability.HTTPExchange{
					Method:       r.Method,
					Path:         r.URL.Path,
					StatusCode:   recorder.status,
					Duration:     time.Since(start),
					TraceID:      traceID,
					RequestBody:  requestBody,
					ResponseBody: recorder.body.Bytes(),
				})
			}()

			next.ServeHTTP(recorder, r.WithContext(ctx))
		})
	}
}
