// Package state persists the relay's offline bookkeeping: CAEA cycles, the
// invoices issued locally against them, and the outbox that replays work to
// AFIP. One SQLite file, created on open.
package state

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/afrelay/afrelay/internal/clock"
)

// timeLayout keeps fractional seconds at fixed width so that stored
// timestamps compare lexicographically in SQL (next_retry_at <= now).
const timeLayout = "2006-01-02T15:04:05.000000Z07:00"

const schema = `
CREATE TABLE IF NOT EXISTS caea_cycle (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    cuit INTEGER NOT NULL,
    periodo INTEGER NOT NULL,
    orden INTEGER NOT NULL,
    caea_code TEXT,
    status TEXT NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    last_error TEXT
);

CREATE UNIQUE INDEX IF NOT EXISTS ux_caea_cycle
ON caea_cycle (cuit, periodo, orden);

CREATE TABLE IF NOT EXISTS caea_invoice (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    cycle_id INTEGER NOT NULL,
    cuit INTEGER NOT NULL,
    pto_vta INTEGER NOT NULL,
    cbte_tipo INTEGER NOT NULL,
    cbte_nro INTEGER NOT NULL,
    payload_json TEXT NOT NULL,
    status TEXT NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    last_error TEXT,
    FOREIGN KEY (cycle_id) REFERENCES caea_cycle(id)
);

CREATE UNIQUE INDEX IF NOT EXISTS ux_caea_invoice
ON caea_invoice (cuit, pto_vta, cbte_tipo, cbte_nro);

CREATE TABLE IF NOT EXISTS afip_outbox (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    job_type TEXT NOT NULL,
    idempotency_key TEXT NOT NULL UNIQUE,
    payload_json TEXT NOT NULL,
    status TEXT NOT NULL,
    attempts INTEGER NOT NULL DEFAULT 0,
    next_retry_at TEXT NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL,
    last_error TEXT,
    last_response_json TEXT
);
`

// Store wraps the SQLite handle. Mutating statements ride on BEGIN IMMEDIATE
// transactions (the _txlock DSN option), so writers queue instead of failing.
type Store struct {
	db    *sqlx.DB
	clock clock.Clock
}

func Open(path string, clk clock.Clock) (*Store, error) {
	if clk == nil {
		clk = clock.System()
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating state dir: %w", err)
		}
	}
	dsn := fmt.Sprintf("file:%s?_busy_timeout=30000&_txlock=immediate&_journal_mode=WAL", path)
	db, err := sqlx.Connect("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening state db: %w", err)
	}
	// A single connection sidesteps SQLITE_BUSY between the pool's handles.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating state db: %w", err)
	}
	return &Store{db: db, clock: clk}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) nowISO() string {
	return s.clock.Now().UTC().Format(timeLayout)
}

func formatISO(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// FormatTime renders t the way the store's text timestamp columns expect.
// Callers that compute next_retry_at themselves must use this so the SQL
// string comparison stays chronological.
func FormatTime(t time.Time) string { return formatISO(t) }

// ParseTime is the inverse of FormatTime.
func ParseTime(value string) (time.Time, error) {
	return time.Parse(timeLayout, value)
}
