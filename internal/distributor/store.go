package distributor

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound is returned when no distributor matches the requested id.
	ErrNotFound = errors.New("distributor: not found")
	// ErrDuplicateName is returned when a distributor with the same name
	// already exists.
	ErrDuplicateName = errors.New("distributor: duplicate name")
)

// Store abstracts distributor persistence for the service layer.
type Store interface {
	Create(ctx context.Context, d Distributor) (Distributor, error)
	Get(ctx context.Context, id uuid.UUID) (Distributor, error)
	Search(ctx context.Context, q string, limit int) ([]Distributor, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// PGStore persists distributors in Postgres.
type PGStore struct {
	Pool *pgxpool.Pool
}

const uniqueViolation = "23505"

// Create inserts a new distributor row.
func (s *PGStore) Create(ctx context.Context, d Distributor) (Distributor, error) {
	row := s.Pool.QueryRow(ctx, `
		INSERT INTO distributors (id, name, phone, gstin, address)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`,
		d.ID, d.Name, d.Phone, d.GSTIN, d.Address,
	)
	if err := row.Scan(&d.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return Distributor{}, ErrDuplicateName
		}
		return Distributor{}, fmt.Errorf("insert distributor: %w", err)
	}
	return d, nil
}

// Get loads one distributor by id.
func (s *PGStore) Get(ctx context.Context, id uuid.UUID) (Distributor, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT id, name, phone, gstin, address, created_at
		FROM distributors WHERE id = $1`, id)
	var d Distributor
	if err := row.Scan(&d.ID, &d.Name, &d.Phone, &d.GSTIN, &d.Address, &d.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Distributor{}, ErrNotFound
		}
		return Distributor{}, fmt.Errorf("select distributor: %w", err)
	}
	return d, nil
}

// Search returns distributors whose name matches q, or the most recent
// ones when q is empty. The billing screen uses this for its
// autocomplete dropdown.
func (s *PGStore) Search(ctx context.Context, q string, limit int) ([]Distributor, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, name, phone, gstin, address, created_at
		FROM distributors
		WHERE $1 = '' OR name ILIKE '%' || $1 || '%'
		ORDER BY name ASC
		LIMIT $2`, q, limit)
	if err != nil {
		return nil, fmt.Errorf("search distributors: %w", err)
	}
	defer rows.Close()

	var out []Distributor
	for rows.Next() {
		var d Distributor
		if err := rows.Scan(&d.ID, &d.Name, &d.Phone, &d.GSTIN, &d.Address, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan distributor: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search distributors: %w", err)
	}
	return out, nil
}

// Exists reports whether a distributor id is present.
func (s *PGStore) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var found bool
	err := s.Pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM distributors WHERE id = $1)`, id,
	).Scan(&found)
	if err != nil {
		return false, fmt.Errorf("distributor exists: %w", err)
	}
	return found, nil
}
