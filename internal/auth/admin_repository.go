package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// AdminRepository defines persistence for administrator accounts.
type AdminRepository interface {
	Create(ctx context.Context, admin *Admin) error
	GetByID(ctx context.Context, id int64) (*Admin, error)
	GetByName(ctx context.Context, name string) (*Admin, error)
	List(ctx context.Context) ([]*Admin, error)
	UpdatePassword(ctx context.Context, id int64, passwordDigest string) error
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int, error)
}

// SQLiteAdminRepository implements AdminRepository using SQLite.
type SQLiteAdminRepository struct {
	db *sql.DB
}

// NewAdminRepository creates a SQLite-backed admin repository.
func NewAdminRepository(db *sql.DB) *SQLiteAdminRepository {
	return &SQLiteAdminRepository{db: db}
}

// Create inserts a new admin account.
func (r *SQLiteAdminRepository) Create(ctx context.Context, admin *Admin) error {
	now := time.Now().UTC()
	admin.CreatedAt = now
	admin.UpdatedAt = now

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO admins (name, password_digest, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		admin.Name, admin.PasswordDigest, now.Format(time.RFC3339), now.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAdminNameExists
		}
		return fmt.Errorf("failed to create admin: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get admin id: %w", err)
	}
	admin.ID = id
	return nil
}

// GetByID retrieves an admin by database id.
func (r *SQLiteAdminRepository) GetByID(ctx context.Context, id int64) (*Admin, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, password_digest, created_at, updated_at FROM admins WHERE id = ?`, id)
	return scanAdmin(row)
}

// GetByName retrieves an admin by unique name.
func (r *SQLiteAdminRepository) GetByName(ctx context.Context, name string) (*Admin, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, password_digest, created_at, updated_at FROM admins WHERE name = ?`, name)
	return scanAdmin(row)
}

// List returns all admin accounts ordered by name.
func (r *SQLiteAdminRepository) List(ctx context.Context) ([]*Admin, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, password_digest, created_at, updated_at FROM admins ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list admins: %w", err)
	}
	defer rows.Close()

	var admins []*Admin
	for rows.Next() {
		a, err := scanAdmin(rows)
		if err != nil {
			return nil, err
		}
		admins = append(admins, a)
	}
	return admins, rows.Err()
}

// UpdatePassword changes an admin's stored password digest.
func (r *SQLiteAdminRepository) UpdatePassword(ctx context.Context, id int64, passwordDigest string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE admins SET password_digest = ?, updated_at = ? WHERE id = ?`,
		passwordDigest, time.Now().UTC().Format(time.RFC3339), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update admin password: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return ErrAdminNotFound
	}
	return nil
}

// Delete removes an admin account.
func (r *SQLiteAdminRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM admins WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete admin: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return ErrAdminNotFound
	}
	return nil
}

// Count returns the total number of admin accounts.
func (r *SQLiteAdminRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM admins`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count admins: %w", err)
	}
	return count, nil
}

// scanner abstracts sql.Row and sql.Rows for scanning.
type scanner interface {
	Scan(dest ...any) error
}

func scanAdmin(row scanner) (*Admin, error) {
	var a Admin
	var createdAt, updatedAt string

	err := row.Scan(&a.ID, &a.Name, &a.PasswordDigest, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAdminNotFound
		}
		return nil, fmt.Errorf("failed to scan admin: %w", err)
	}

	a.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	a.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &a, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
