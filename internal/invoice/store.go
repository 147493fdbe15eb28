package invoice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noah-isme/backend-pharma/internal/billing"
)

var (
	// ErrNotFound is returned when no invoice matches the requested id.
	ErrNotFound = errors.New("invoice: not found")
	// ErrDuplicateNumber is returned when an invoice number already exists
	// for the same distributor.
	ErrDuplicateNumber = errors.New("invoice: duplicate invoice number")
)

// Store abstracts invoice persistence for the service layer.
type Store interface {
	Create(ctx context.Context, inv Invoice) (Invoice, error)
	Get(ctx context.Context, id uuid.UUID) (Invoice, error)
	List(ctx context.Context, limit, offset int) ([]Invoice, int, error)
	Update(ctx context.Context, inv Invoice) (Invoice, error)
}

// PGStore persists invoices in Postgres. Line items and totals are
// stored as JSONB documents: they are always read and written as one
// unit with the invoice, and the totals are a derived projection anyway.
type PGStore struct {
	Pool *pgxpool.Pool
}

const uniqueViolation = "23505"

// Create inserts a new invoice row.
func (s *PGStore) Create(ctx context.Context, inv Invoice) (Invoice, error) {
	lines, totals, err := marshalDocs(inv)
	if err != nil {
		return Invoice{}, err
	}
	row := s.Pool.QueryRow(ctx, `
		INSERT INTO invoices (id, kind, distributor_id, number, invoice_date, amount_mode, lines, totals)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`,
		inv.ID, string(inv.Kind), inv.DistributorID, inv.Number, inv.Date, string(inv.Mode), lines, totals,
	)
	if err := row.Scan(&inv.CreatedAt, &inv.UpdatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return Invoice{}, ErrDuplicateNumber
		}
		return Invoice{}, fmt.Errorf("insert invoice: %w", err)
	}
	return inv, nil
}

// Get loads one invoice by id.
func (s *PGStore) Get(ctx context.Context, id uuid.UUID) (Invoice, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT id, kind, distributor_id, number, invoice_date, amount_mode, lines, totals, created_at, updated_at
		FROM invoices WHERE id = $1`, id)
	inv, err := scanInvoice(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Invoice{}, ErrNotFound
		}
		return Invoice{}, fmt.Errorf("select invoice: %w", err)
	}
	return inv, nil
}

// List returns a page of invoices ordered by creation time, newest
// first, along with the total row count.
func (s *PGStore) List(ctx context.Context, limit, offset int) ([]Invoice, int, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, kind, distributor_id, number, invoice_date, amount_mode, lines, totals, created_at, updated_at,
		       count(*) OVER () AS total
		FROM invoices
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	var (
		out   []Invoice
		total int
	)
	for rows.Next() {
		var (
			inv         Invoice
			kind, mode  string
			lines       []byte
			totalsDoc   []byte
			rowTotal    int
			invoiceDate time.Time
		)
		if err := rows.Scan(&inv.ID, &kind, &inv.DistributorID, &inv.Number, &invoiceDate, &mode,
			&lines, &totalsDoc, &inv.CreatedAt, &inv.UpdatedAt, &rowTotal); err != nil {
			return nil, 0, fmt.Errorf("scan invoice: %w", err)
		}
		inv.Kind = Kind(kind)
		inv.Mode = billing.AmountMode(mode)
		inv.Date = invoiceDate
		if err := unmarshalDocs(&inv, lines, totalsDoc); err != nil {
			return nil, 0, err
		}
		total = rowTotal
		out = append(out, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list invoices: %w", err)
	}
	return out, total, nil
}

// Update rewrites the mutable parts of an invoice: mode, lines and totals.
func (s *PGStore) Update(ctx context.Context, inv Invoice) (Invoice, error) {
	lines, totals, err := marshalDocs(inv)
	if err != nil {
		return Invoice{}, err
	}
	row := s.Pool.QueryRow(ctx, `
		UPDATE invoices
		SET amount_mode = $2, lines = $3, totals = $4, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`,
		inv.ID, string(inv.Mode), lines, totals,
	)
	if err := row.Scan(&inv.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Invoice{}, ErrNotFound
		}
		return Invoice{}, fmt.Errorf("update invoice: %w", err)
	}
	return inv, nil
}

func marshalDocs(inv Invoice) (lines, totals []byte, err error) {
	lines, err = json.Marshal(inv.Lines)
	if err != nil {
		return nil, nil, fmt.Errorf("encode lines: %w", err)
	}
	totals, err = json.Marshal(inv.Totals)
	if err != nil {
		return nil, nil, fmt.Errorf("encode totals: %w", err)
	}
	return lines, totals, nil
}

func unmarshalDocs(inv *Invoice, lines, totals []byte) error {
	if err := json.Unmarshal(lines, &inv.Lines); err != nil {
		return fmt.Errorf("decode lines: %w", err)
	}
	if err := json.Unmarshal(totals, &inv.Totals); err != nil {
		return fmt.Errorf("decode totals: %w", err)
	}
	return nil
}

func scanInvoice(row pgx.Row) (Invoice, error) {
	var (
		inv        Invoice
		kind, mode string
		lines      []byte
		totalsDoc  []byte
	)
	if err := row.Scan(&inv.ID, &kind, &inv.DistributorID, &inv.Number, &inv.Date, &mode,
		&lines, &totalsDoc, &inv.CreatedAt, &inv.UpdatedAt); err != nil {
		return Invoice{}, err
	}
	inv.Kind = Kind(kind)
	inv.Mode = billing.AmountMode(mode)
	if err := unmarshalDocs(&inv, lines, totalsDoc); err != nil {
		return Invoice{}, err
	}
	return inv, nil
}
