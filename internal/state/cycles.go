package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// CreateCycle inserts the (cuit, periodo, orden) row as requested if it does
// not exist yet and returns whatever is stored. Safe to call repeatedly.
func (s *Store) CreateCycle(ctx context.Context, cuit int64, periodo, orden int) (*Cycle, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin create cycle: %w", err)
	}
	defer tx.Rollback()

	now := s.nowISO()
	if _, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO caea_cycle (cuit, periodo, orden, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		cuit, periodo, orden, CycleRequested, now, now); err != nil {
		return nil, fmt.Errorf("insert cycle: %w", err)
	}

	var cycle Cycle
	if err := tx.GetContext(ctx, &cycle,
		`SELECT * FROM caea_cycle WHERE cuit=? AND periodo=? AND orden=?`,
		cuit, periodo, orden); err != nil {
		return nil, fmt.Errorf("select cycle back: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit create cycle: %w", err)
	}
	return &cycle, nil
}

// GetCycleByID returns nil when the row does not exist.
func (s *Store) GetCycleByID(ctx context.Context, id int64) (*Cycle, error) {
	var cycle Cycle
	err := s.db.GetContext(ctx, &cycle, `SELECT * FROM caea_cycle WHERE id=?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select cycle by id: %w", err)
	}
	return &cycle, nil
}

func (s *Store) GetCycle(ctx context.Context, cuit int64, periodo, orden int) (*Cycle, error) {
	var cycle Cycle
	err := s.db.GetContext(ctx, &cycle,
		`SELECT * FROM caea_cycle WHERE cuit=? AND periodo=? AND orden=?`,
		cuit, periodo, orden)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select cycle: %w", err)
	}
	return &cycle, nil
}

// GetActiveCycle returns the row only when it is active and carries a code.
func (s *Store) GetActiveCycle(ctx context.Context, cuit int64, periodo, orden int) (*Cycle, error) {
	var cycle Cycle
	err := s.db.GetContext(ctx, &cycle, `
		SELECT * FROM caea_cycle
		 WHERE cuit=? AND periodo=? AND orden=?
		   AND status=? AND caea_code IS NOT NULL
		 LIMIT 1`,
		cuit, periodo, orden, CycleActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select active cycle: %w", err)
	}
	return &cycle, nil
}

// UpdateCycleFromAfip records the outcome of a CAEA grant. An empty code
// drops the row back to requested with the missing_caea_code marker so it is
// re-solicited instead of silently blocking local issuance.
func (s *Store) UpdateCycleFromAfip(ctx context.Context, cycleID int64, caea string) error {
	status := CycleActive
	var code, lastError *string
	if caea == "" {
		status = CycleRequested
		marker := "missing_caea_code"
		lastError = &marker
	} else {
		code = &caea
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE caea_cycle SET caea_code=?, status=?, updated_at=?, last_error=? WHERE id=?`,
		code, status, s.nowISO(), lastError, cycleID)
	if err != nil {
		return fmt.Errorf("update cycle from afip: %w", err)
	}
	return nil
}

func (s *Store) SetCycleError(ctx context.Context, cycleID int64, message string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE caea_cycle SET status=?, last_error=?, updated_at=? WHERE id=?`,
		CycleError, message, s.nowISO(), cycleID)
	if err != nil {
		return fmt.Errorf("set cycle error: %w", err)
	}
	return nil
}

func (s *Store) SetCycleStatus(ctx context.Context, cycleID int64, status string, lastError *string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE caea_cycle SET status=?, last_error=?, updated_at=? WHERE id=?`,
		status, lastError, s.nowISO(), cycleID)
	if err != nil {
		return fmt.Errorf("set cycle status: %w", err)
	}
	return nil
}

// NormalizeCycleStatuses demotes active rows without a usable code. Runs at
// bootstrap so a crash between solicit and persist cannot leave a cycle that
// claims to be active while local issuance would produce uncovered invoices.
func (s *Store) NormalizeCycleStatuses(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE caea_cycle
		   SET status=?, last_error='missing_caea_code', updated_at=?
		 WHERE status=? AND (caea_code IS NULL OR TRIM(caea_code) = '')`,
		CycleRequested, s.nowISO(), CycleActive)
	if err != nil {
		return 0, fmt.Errorf("normalize cycle statuses: %w", err)
	}
	return res.RowsAffected()
}
