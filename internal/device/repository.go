package device

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Repository defines the interface for device persistence.
type Repository interface {
	Create(ctx context.Context, dev *Device) error
	GetByID(ctx context.Context, id int64) (*Device, error)
	GetByMac(ctx context.Context, mac string) (*Device, error)
	EnsureByMac(ctx context.Context, mac string) (*Device, error)
	List(ctx context.Context) ([]Device, error)
	Update(ctx context.Context, dev *Device) error
	UpdateSecret(ctx context.Context, id int64, secretDigest string) error
	Delete(ctx context.Context, id int64) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewRepository creates a new SQLite-backed device repository.
func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const deviceColumns = "id, name, mac, secret_digest, background_url, backup_backend_url, created_at, updated_at"

// Create inserts a new device. The generated ID is written back to dev.
func (r *SQLiteRepository) Create(ctx context.Context, dev *Device) error {
	now := time.Now().UTC().Format(time.RFC3339)
	dev.CreatedAt, _ = time.Parse(time.RFC3339, now) //nolint:errcheck // format is controlled
	dev.UpdatedAt = dev.CreatedAt

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO devices (name, mac, secret_digest, background_url, backup_backend_url, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		dev.Name, dev.Mac, dev.SecretDigest, dev.BackgroundURL, dev.BackupBackendURL, now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrMacExists
		}
		return fmt.Errorf("creating device: %w", err)
	}

	dev.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading device id: %w", err)
	}
	return nil
}

// GetByID retrieves a device by its unique ID.
func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (*Device, error) {
	return scanDevice(r.db.QueryRowContext(ctx,
		"SELECT "+deviceColumns+" FROM devices WHERE id = ?", id))
}

// GetByMac retrieves a device by its mac address.
func (r *SQLiteRepository) GetByMac(ctx context.Context, mac string) (*Device, error) {
	return scanDevice(r.db.QueryRowContext(ctx,
		"SELECT "+deviceColumns+" FROM devices WHERE mac = ?", mac))
}

// EnsureByMac returns the device with the given mac, creating a placeholder
// row if none exists. Two racing calls for the same mac are serialised by the
// unique index: the loser's insert fails and falls back to a lookup, so
// exactly one row ever exists per mac.
func (r *SQLiteRepository) EnsureByMac(ctx context.Context, mac string) (*Device, error) {
	dev, err := r.GetByMac(ctx, mac)
	if err == nil {
		return dev, nil
	}
	if !errors.Is(err, ErrDeviceNotFound) {
		return nil, err
	}

	placeholder := &Device{Name: "New Device " + mac, Mac: mac}
	if err := r.Create(ctx, placeholder); err != nil {
		if errors.Is(err, ErrMacExists) {
			// Lost the race; the row exists now.
			return r.GetByMac(ctx, mac)
		}
		return nil, err
	}
	return placeholder, nil
}

// List returns all devices ordered by creation date.
func (r *SQLiteRepository) List(ctx context.Context) ([]Device, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+deviceColumns+" FROM devices ORDER BY created_at ASC, id ASC")
	if err != nil {
		return nil, fmt.Errorf("listing devices: %w", err)
	}
	defer rows.Close()

	var devices []Device
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}
		devices = append(devices, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating devices: %w", err)
	}

	if devices == nil {
		devices = []Device{}
	}
	return devices, nil
}

// Update modifies a device's mutable fields (name, mac, background and backup URLs).
func (r *SQLiteRepository) Update(ctx context.Context, dev *Device) error {
	now := time.Now().UTC().Format(time.RFC3339)
	dev.UpdatedAt, _ = time.Parse(time.RFC3339, now) //nolint:errcheck // format is controlled

	result, err := r.db.ExecContext(ctx,
		`UPDATE devices SET name = ?, mac = ?, background_url = ?, backup_backend_url = ?, updated_at = ? WHERE id = ?`,
		dev.Name, dev.Mac, dev.BackgroundURL, dev.BackupBackendURL, now, dev.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrMacExists
		}
		return fmt.Errorf("updating device: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrDeviceNotFound
	}
	return nil
}

// UpdateSecret changes a device's secret digest.
func (r *SQLiteRepository) UpdateSecret(ctx context.Context, id int64, secretDigest string) error {
	now := time.Now().UTC().Format(time.RFC3339)

	result, err := r.db.ExecContext(ctx,
		`UPDATE devices SET secret_digest = ?, updated_at = ? WHERE id = ?`,
		secretDigest, now, id,
	)
	if err != nil {
		return fmt.Errorf("updating device secret: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrDeviceNotFound
	}
	return nil
}

// Delete removes a device by ID. Tools on the device are removed by cascade.
func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM devices WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting device: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrDeviceNotFound
	}
	return nil
}

// scanner is an interface for sql.Row and sql.Rows Scan methods.
type scanner interface {
	Scan(dest ...any) error
}

// scanDevice scans a device from a row or rows.
func scanDevice(s scanner) (*Device, error) {
	var d Device
	var createdAt, updatedAt string

	err := s.Scan(&d.ID, &d.Name, &d.Mac, &d.SecretDigest,
		&d.BackgroundURL, &d.BackupBackendURL, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDeviceNotFound
		}
		return nil, fmt.Errorf("scanning device: %w", err)
	}

	d.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled
	d.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt) //nolint:errcheck // format is controlled

	return &d, nil
}

// isUniqueViolation checks if a SQLite error is a UNIQUE constraint violation.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
