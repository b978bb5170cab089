package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/afrelay/afrelay/internal/afip"
	"github.com/afrelay/afrelay/internal/soap"
)

// Liveness answers as long as the process serves HTTP. No auth, no
// dependencies touched.
func Liveness() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"health": "OK"})
	}
}

// TimeChecker is the NTP probe readiness exercises. *afiptime.Source
// satisfies it.
type TimeChecker interface {
	Now() (time.Time, error)
	Host() string
}

// DummyCaller is the WSFE reachability probe. *service.WSFE satisfies it.
type DummyCaller interface {
	Dummy(ctx context.Context) (*afip.DummyResult, error)
}

// Readiness exercises the two upstream dependencies ticket issuance and
// invoicing stand on: AFIP's NTP server and the WSFE application servers.
// It always answers 200; degraded dependencies show up in the body.
func Readiness(clock TimeChecker, wsfe DummyCaller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var ntp any = "OK"
		if _, err := clock.Now(); err != nil {
			ntp = map[string]string{
				"status":  "error",
				"message": "NTP query failed",
				"server":  clock.Host(),
			}
		}

		res, err := wsfe.Dummy(r.Context())
		var wsfeHealth any = res
		if err != nil {
			wsfeHealth = soap.Failure("FEDummy", err)
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"ntp":         ntp,
			"wsfe_health": wsfeHealth,
		})
	}
}
