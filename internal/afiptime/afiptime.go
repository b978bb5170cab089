// Package afiptime obtains the timestamps WSAA login tickets must carry.
// AFIP rejects tickets whose clocks drift from its own, so the source of
// truth is AFIP's NTP server rather than the local wall clock.
package afiptime

import (
	"fmt"
	"time"

	"github.com/beevik/ntp"
)

const (
	// DefaultHost is AFIP's public NTP endpoint.
	DefaultHost = "time.afip.gov.ar"

	// ticketTTL is the validity AFIP grants a loginTicketRequest.
	ticketTTL = 10 * time.Minute

	queryTimeout = 5 * time.Second
	ntpVersion   = 3
)

// afipLayout renders an instant the way loginTicketRequest expects:
// UTC with a literal Z suffix and no sub-second digits.
const afipLayout = "2006-01-02T15:04:05Z"

// TicketWindow is the (uniqueId, generationTime, expirationTime) triple for
// one loginTicketRequest.
type TicketWindow struct {
	UniqueID   int64
	Generation time.Time
	Expiration time.Time
}

// GenerationString returns the generationTime field value.
func (w TicketWindow) GenerationString() string { return w.Generation.UTC().Format(afipLayout) }

// ExpirationString returns the expirationTime field value.
func (w TicketWindow) ExpirationString() string { return w.Expiration.UTC().Format(afipLayout) }

type queryFunc func(host string, timeout time.Duration) (time.Time, error)

// Source answers "what time does AFIP think it is". Queries run against one
// NTP host with a bounded timeout; there is no fallback to the system clock,
// a failed query is surfaced to the caller.
type Source struct {
	host    string
	timeout time.Duration
	query   queryFunc
}

// NewSource builds a Source against the given NTP host. An empty host
// selects DefaultHost.
func NewSource(host string) *Source {
	if host == "" {
		host = DefaultHost
	}
	return &Source{host: host, timeout: queryTimeout, query: ntpQuery}
}

func ntpQuery(host string, timeout time.Duration) (time.Time, error) {
	resp, err := ntp.QueryWithOptions(host, ntp.QueryOptions{Version: ntpVersion, Timeout: timeout})
	if err != nil {
		return time.Time{}, err
	}
	if err := resp.Validate(); err != nil {
		return time.Time{}, err
	}
	return time.Now().Add(resp.ClockOffset).UTC(), nil
}

// Now returns AFIP's current time.
func (s *Source) Now() (time.Time, error) {
	now, err := s.query(s.host, s.timeout)
	if err != nil {
		return time.Time{}, fmt.Errorf("ntp query against %s: %w", s.host, err)
	}
	return now.UTC(), nil
}

// TicketWindow queries the NTP host once and derives the request triple:
// uniqueId is the epoch second, expiration is generation plus the ticket TTL.
func (s *Source) TicketWindow() (TicketWindow, error) {
	now, err := s.Now()
	if err != nil {
		return TicketWindow{}, err
	}

	generation := now.Truncate(time.Second)
	return TicketWindow{
		UniqueID:   generation.Unix(),
		Generation: generation,
		Expiration: generation.Add(ticketTTL),
	}, nil
}

// Host reports the configured NTP host, used by health checks to name the
// unreachable server.
func (s *Source) Host() string { return s.host }
