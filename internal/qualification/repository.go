package qualification

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Repository defines the interface for qualification persistence.
type Repository interface {
	Create(ctx context.Context, q *Qualification) error
	GetByID(ctx context.Context, id int64) (*Qualification, error)
	List(ctx context.Context) ([]Qualification, error)
	Update(ctx context.Context, q *Qualification) error
	Delete(ctx context.Context, id int64) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewRepository creates a new SQLite-backed qualification repository.
func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const columns = "id, name, description, colour, order_nr, created_at, updated_at"

// Create inserts a new qualification. The generated ID is written back to q.
func (r *SQLiteRepository) Create(ctx context.Context, q *Qualification) error {
	now := time.Now().UTC().Format(time.RFC3339)
	q.CreatedAt, _ = time.Parse(time.RFC3339, now) //nolint:errcheck // format is controlled
	q.UpdatedAt = q.CreatedAt

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO qualifications (name, description, colour, order_nr, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		q.Name, q.Description, q.Colour, q.OrderNr, now, now,
	)
	if err != nil {
		return fmt.Errorf("creating qualification: %w", err)
	}

	q.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading qualification id: %w", err)
	}
	return nil
}

// GetByID retrieves a qualification by its unique ID.
func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (*Qualification, error) {
	return scanQualification(r.db.QueryRowContext(ctx,
		"SELECT "+columns+" FROM qualifications WHERE id = ?", id))
}

// List returns all qualifications in display order.
func (r *SQLiteRepository) List(ctx context.Context) ([]Qualification, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+columns+" FROM qualifications ORDER BY order_nr ASC, id ASC")
	if err != nil {
		return nil, fmt.Errorf("listing qualifications: %w", err)
	}
	defer rows.Close()

	var quals []Qualification
	for rows.Next() {
		q, err := scanQualification(rows)
		if err != nil {
			return nil, err
		}
		quals = append(quals, *q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating qualifications: %w", err)
	}

	if quals == nil {
		quals = []Qualification{}
	}
	return quals, nil
}

// Update modifies a qualification's mutable fields.
func (r *SQLiteRepository) Update(ctx context.Context, q *Qualification) error {
	now := time.Now().UTC().Format(time.RFC3339)
	q.UpdatedAt, _ = time.Parse(time.RFC3339, now) //nolint:errcheck // format is controlled

	result, err := r.db.ExecContext(ctx,
		`UPDATE qualifications SET name = ?, description = ?, colour = ?, order_nr = ?, updated_at = ? WHERE id = ?`,
		q.Name, q.Description, q.Colour, q.OrderNr, now, q.ID,
	)
	if err != nil {
		return fmt.Errorf("updating qualification: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a qualification by ID. Grants referencing it are removed by cascade.
func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM qualifications WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting qualification: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// scanner is an interface for sql.Row and sql.Rows Scan methods.
type scanner interface {
	Scan(dest ...any) error
}

// scanQualification scans a qualification from a row or rows.
func scanQualification(s scanner) (*Qualification, error) {
	var q Qualification
	var createdAt, updatedAt string

	err := s.Scan(&q.ID, &q.Name, &q.Description, &q.Colour, &q.OrderNr, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scanning qualification: %w", err)
	}

	q.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled
	q.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt) //nolint:errcheck // format is controlled

	return &q, nil
}
