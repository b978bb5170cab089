// Package credentials owns the signed ticket files WSAA hands back: parsing
// loginTicketResponse XML, atomic replacement on renew, and the expiry
// predicates the watchdog and the lifecycle manager share.
package credentials

import (
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/afrelay/afrelay/internal/clock"
)

var (
	ErrMissingCredentials = errors.New("loginTicketResponse has no token/sign")
	ErrMissingExpiration  = errors.New("loginTicketResponse has no expirationTime")
)

// Ticket is the parsed loginTicketResponse.
type Ticket struct {
	Token          string
	Sign           string
	GenerationTime time.Time
	ExpirationTime time.Time
}

// Expired reports whether the ticket is past its expirationTime.
func (t *Ticket) Expired(now time.Time) bool {
	return !now.Before(t.ExpirationTime)
}

// ExpiringSoon reports whether the ticket expires within threshold of now.
// An already-expired ticket is also expiring soon.
func (t *Ticket) ExpiringSoon(now time.Time, threshold time.Duration) bool {
	return !now.Add(threshold).Before(t.ExpirationTime)
}

type loginTicketResponse struct {
	XMLName xml.Name `xml:"loginTicketResponse"`
	Header  struct {
		Source         string `xml:"source"`
		Destination    string `xml:"destination"`
		UniqueID       string `xml:"uniqueId"`
		GenerationTime string `xml:"generationTime"`
		ExpirationTime string `xml:"expirationTime"`
	} `xml:"header"`
	Credentials struct {
		Token string `xml:"token"`
		Sign  string `xml:"sign"`
	} `xml:"credentials"`
}

// Parse decodes a loginTicketResponse document.
func Parse(data []byte) (*Ticket, error) {
	var doc loginTicketResponse
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode loginTicketResponse: %w", err)
	}
	if doc.Credentials.Token == "" || doc.Credentials.Sign == "" {
		return nil, ErrMissingCredentials
	}
	if doc.Header.ExpirationTime == "" {
		return nil, ErrMissingExpiration
	}

	expiration, err := parseAFIPTime(doc.Header.ExpirationTime)
	if err != nil {
		return nil, fmt.Errorf("parse expirationTime: %w", err)
	}

	ticket := &Ticket{
		Token:          doc.Credentials.Token,
		Sign:           doc.Credentials.Sign,
		ExpirationTime: expiration,
	}
	if doc.Header.GenerationTime != "" {
		if generation, err := parseAFIPTime(doc.Header.GenerationTime); err == nil {
			ticket.GenerationTime = generation
		}
	}
	return ticket, nil
}

// ReadFile loads and parses the ticket stored at path.
func ReadFile(path string) (*Ticket, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// WriteAtomic replaces the file at path with raw via a same-directory temp
// file and rename, so a crash mid-write never leaves a truncated ticket.
func WriteAtomic(path string, raw []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// IsExpired reads the ticket at path and reports whether it is unusable.
// A missing or unparseable file counts as expired so callers renew.
func IsExpired(path string, now time.Time) bool {
	ticket, err := ReadFile(path)
	if err != nil {
		return true
	}
	return ticket.Expired(now)
}

// IsExpiringSoon is the watchdog predicate: true when the ticket at path is
// missing, corrupt, expired, or expires within threshold.
func IsExpiringSoon(path string, now time.Time, threshold time.Duration) bool {
	ticket, err := ReadFile(path)
	if err != nil {
		return true
	}
	return ticket.ExpiringSoon(now, threshold)
}

// FileState is the health snapshot of one ticket file, as shown by the
// monitor endpoints.
type FileState struct {
	Valid     bool       `json:"valid"`
	ExpiresAt *time.Time `json:"expires_at"`
	LastError string     `json:"last_error,omitempty"`
}

// InspectFile classifies the ticket file at path without failing: missing
// file, missing expirationTime and parse errors become LastError markers.
func InspectFile(path string, now time.Time) FileState {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileState{LastError: "token_file_not_found"}
		}
		return FileState{LastError: err.Error()}
	}

	ticket, err := Parse(data)
	if err != nil {
		if errors.Is(err, ErrMissingExpiration) {
			return FileState{LastError: "missing_expiration_time"}
		}
		return FileState{LastError: err.Error()}
	}

	expires := ticket.ExpirationTime.UTC()
	return FileState{
		Valid:     now.Before(ticket.ExpirationTime),
		ExpiresAt: &expires,
	}
}

// parseAFIPTime accepts the timestamp shapes AFIP emits: RFC3339 with offset
// (the usual -03:00 form) or, from older responses, a naive local instant
// which is taken as Argentina time.
func parseAFIPTime(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.ParseInLocation("2006-01-02T15:04:05", value, clock.Argentina)
}
