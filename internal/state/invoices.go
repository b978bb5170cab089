package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ReserveNextInvoiceNumber hands out MAX(cbte_nro)+1 for the numbering
// stream. The unique index on (cuit, pto_vta, cbte_tipo, cbte_nro) backstops
// concurrent reservations: the second insert fails instead of double-booking
// a number.
func (s *Store) ReserveNextInvoiceNumber(ctx context.Context, cuit int64, ptoVta, cbteTipo int) (int64, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin reserve number: %w", err)
	}
	defer tx.Rollback()

	var next int64
	if err := tx.GetContext(ctx, &next, `
		SELECT COALESCE(MAX(cbte_nro), 0) + 1
		  FROM caea_invoice
		 WHERE cuit=? AND pto_vta=? AND cbte_tipo=?`,
		cuit, ptoVta, cbteTipo); err != nil {
		return 0, fmt.Errorf("select max cbte_nro: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit reserve number: %w", err)
	}
	return next, nil
}

func (s *Store) CreateLocalInvoice(ctx context.Context, cycleID, cuit int64, ptoVta, cbteTipo int, cbteNro int64, payloadJSON string) (*Invoice, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin create invoice: %w", err)
	}
	defer tx.Rollback()

	now := s.nowISO()
	res, err := tx.ExecContext(ctx, `
		INSERT INTO caea_invoice
		    (cycle_id, cuit, pto_vta, cbte_tipo, cbte_nro, payload_json, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		cycleID, cuit, ptoVta, cbteTipo, cbteNro, payloadJSON, InvoiceIssuedLocal, now, now)
	if err != nil {
		return nil, fmt.Errorf("insert invoice: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("invoice insert id: %w", err)
	}

	var invoice Invoice
	if err := tx.GetContext(ctx, &invoice, `SELECT * FROM caea_invoice WHERE id=?`, id); err != nil {
		return nil, fmt.Errorf("select invoice back: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit create invoice: %w", err)
	}
	return &invoice, nil
}

func (s *Store) GetInvoice(ctx context.Context, invoiceID int64) (*Invoice, error) {
	var invoice Invoice
	err := s.db.GetContext(ctx, &invoice, `SELECT * FROM caea_invoice WHERE id=?`, invoiceID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select invoice: %w", err)
	}
	return &invoice, nil
}

func (s *Store) MarkInvoiceInformed(ctx context.Context, invoiceID int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE caea_invoice SET status=?, updated_at=?, last_error=NULL WHERE id=?`,
		InvoiceInformed, s.nowISO(), invoiceID)
	if err != nil {
		return fmt.Errorf("mark invoice informed: %w", err)
	}
	return nil
}

func (s *Store) MarkInvoiceError(ctx context.Context, invoiceID int64, message string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE caea_invoice SET status=?, updated_at=?, last_error=? WHERE id=?`,
		InvoiceError, s.nowISO(), message, invoiceID)
	if err != nil {
		return fmt.Errorf("mark invoice error: %w", err)
	}
	return nil
}

// ListCaeaAssignments aggregates issued numbering per cycle, sale point and
// voucher type.
func (s *Store) ListCaeaAssignments(ctx context.Context, limit int) ([]Assignment, error) {
	rows := []Assignment{}
	err := s.db.SelectContext(ctx, &rows, `
		SELECT
		    c.id AS cycle_id,
		    c.cuit AS cuit,
		    c.periodo AS periodo,
		    c.orden AS orden,
		    c.caea_code AS caea_code,
		    i.pto_vta AS pto_vta,
		    i.cbte_tipo AS cbte_tipo,
		    COUNT(*) AS invoices_count,
		    MIN(i.cbte_nro) AS cbte_from,
		    MAX(i.cbte_nro) AS cbte_to,
		    SUM(CASE WHEN i.status='informed' THEN 1 ELSE 0 END) AS informed_count,
		    SUM(CASE WHEN i.status='issued_local' THEN 1 ELSE 0 END) AS pending_inform_count,
		    SUM(CASE WHEN i.status='error' THEN 1 ELSE 0 END) AS error_count
		FROM caea_invoice i
		JOIN caea_cycle c ON c.id = i.cycle_id
		GROUP BY c.id, c.cuit, c.periodo, c.orden, c.caea_code, i.pto_vta, i.cbte_tipo
		ORDER BY c.periodo DESC, c.orden DESC, i.pto_vta ASC, i.cbte_tipo ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list caea assignments: %w", err)
	}
	return rows, nil
}
