package afiptime

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedSource(at time.Time) *Source {
	return &Source{
		host:    DefaultHost,
		timeout: time.Second,
		query: func(string, time.Duration) (time.Time, error) {
			return at, nil
		},
	}
}

func TestTicketWindowDerivesTriple(t *testing.T) {
	at := time.Date(2026, 2, 10, 14, 30, 12, 987654321, time.UTC)

	window, err := fixedSource(at).TicketWindow()
	require.NoError(t, err)

	assert.Equal(t, at.Truncate(time.Second).Unix(), window.UniqueID)
	assert.Equal(t, "2026-02-10T14:30:12Z", window.GenerationString())
	assert.Equal(t, "2026-02-10T14:40:12Z", window.ExpirationString())
	assert.Equal(t, 10*time.Minute, window.Expiration.Sub(window.Generation))
}

func TestNowSurfacesQueryFailure(t *testing.T) {
	src := &Source{
		host:    "ntp.example.invalid",
		timeout: time.Second,
		query: func(string, time.Duration) (time.Time, error) {
			return time.Time{}, errors.New("i/o timeout")
		},
	}

	_, err := src.Now()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "ntp.example.invalid")
}

func TestNewSourceDefaultsHost(t *testing.T) {
	assert.Equal(t, DefaultHost, NewSource("").Host())
	assert.Equal(t, "ntp.other", NewSource("ntp.other").Host())
}
