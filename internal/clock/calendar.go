package clock

import (
	"strings"
	"time"
)

// Argentina is the fixed UTC-3 offset AFIP uses for every CAEA window
// boundary. The country abolished DST, so a fixed zone is correct here and
// avoids depending on the host tzdata.
var Argentina = time.FixedZone("-03", -3*60*60)

// CyclePeriod is a half-month CAEA window: Periodo = year*100 + month,
// Orden 1 for days 1-15 and 2 for the rest of the month.
type CyclePeriod struct {
	Periodo int
	Orden   int
}

// ResolveCurrentAndNextCycles returns the two cycles the engine must hold
// ready at the given instant: the one covering now and the one immediately
// after, evaluated on the Argentina calendar. Month 12 rolls into January of
// the next year.
func ResolveCurrentAndNextCycles(now time.Time) []CyclePeriod {
	ref := now.In(Argentina)
	periodo := ref.Year()*100 + int(ref.Month())

	if ref.Day() <= 15 {
		return []CyclePeriod{{periodo, 1}, {periodo, 2}}
	}

	nextPeriodo := periodo + 1
	if ref.Month() == time.December {
		nextPeriodo = (ref.Year()+1)*100 + 1
	}
	return []CyclePeriod{{periodo, 2}, {nextPeriodo, 1}}
}

const deferredMarker = "Del "

// ParseDeferredWindowStart extracts the opening date of a not-yet-open CAEA
// window from an AFIP 15006 message such as
// "Del 11/02/2026 hasta 28/02/2026" and returns 00:05 Argentina time of that
// day in UTC. It reports false when the message carries no parseable date.
//
// The parser is anchored on the literal "Del " prefix AFIP emits today; keep
// it in one place so a locale change upstream breaks exactly one function.
func ParseDeferredWindowStart(message string) (time.Time, bool) {
	idx := strings.Index(message, deferredMarker)
	if idx < 0 {
		return time.Time{}, false
	}

	rest := message[idx+len(deferredMarker):]
	if len(rest) < 10 {
		return time.Time{}, false
	}

	day, err := time.ParseInLocation("02/01/2006", rest[:10], Argentina)
	if err != nil {
		return time.Time{}, false
	}

	retryAt := time.Date(day.Year(), day.Month(), day.Day(), 0, 5, 0, 0, Argentina)
	return retryAt.UTC(), true
}
