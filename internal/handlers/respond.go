// Package handlers holds the HTTP handler constructors, one per route. Each
// takes its dependencies explicitly and returns an http.HandlerFunc; routing
// and middleware live in internal/api.
package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/afrelay/afrelay/internal/afip"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeDetail answers {"detail": msg}, the shape auth and resource errors use.
func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeFieldErrors(w http.ResponseWriter, errs []afip.FieldError) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"detail": errs})
}

// decodeValid parses the JSON body into T and runs the payload rules. On
// failure it writes the 422 response and reports false.
func decodeValid[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var payload T
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeFieldErrors(w, []afip.FieldError{{Field: "body", Message: "must be a valid JSON object"}})
		return payload, false
	}
	if errs := afip.Validate(payload); len(errs) > 0 {
		writeFieldErrors(w, errs)
		return payload, false
	}
	return payload, true
}

// queryInt reads an integer query parameter. A missing value yields def;
// malformed input or anything outside [lo, hi] (hi 0 means no upper bound)
// writes the 422 response and reports false.
func queryInt(w http.ResponseWriter, r *http.Request, name string, def, lo, hi int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err == nil && n >= lo && (hi == 0 || n <= hi) {
		return n, true
	}
	msg := fmt.Sprintf("must be an integer between %d and %d", lo, hi)
	if hi == 0 {
		msg = fmt.Sprintf("must be an integer of at least %d", lo)
	}
	writeFieldErrors(w, []afip.FieldError{{Field: name, Message: msg}})
	return 0, false
}

// queryEnum reads a string query parameter restricted to the allowed values.
// Empty passes through so optional filters stay optional.
func queryEnum(w http.ResponseWriter, r *http.Request, name string, allowed ...string) (string, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" || slices.Contains(allowed, raw) {
		return raw, true
	}
	writeFieldErrors(w, []afip.FieldError{{
		Field:   name,
		Message: "must be one of: " + strings.Join(allowed, ", "),
	}})
	return "", false
}

// queryCuit reads the mandatory cuit query parameter.
func queryCuit(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := r.URL.Query().Get("cuit")
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		writeFieldErrors(w, []afip.FieldError{{Field: "cuit", Message: "must be a positive integer"}})
		return 0, false
	}
	return n, true
}
