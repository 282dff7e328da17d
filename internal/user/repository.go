package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Repository defines storage operations for users and their grants.
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByPhoneNumber(ctx context.Context, phone string) (*User, error)
	GetByCardID(ctx context.Context, cardID string) (*User, error)
	GetByCardIDAndSecret(ctx context.Context, cardID, cardSecret string) (*User, error)
	List(ctx context.Context) ([]*User, error)
	Update(ctx context.Context, u *User) error
	Delete(ctx context.Context, id int64) error

	AddQualification(ctx context.Context, userID, qualificationID int64) error
	RemoveQualification(ctx context.Context, userID, qualificationID int64) error
	QualificationIDs(ctx context.Context, userID int64) ([]int64, error)

	AddToolPermission(ctx context.Context, userID, toolID int64) error
	RemoveToolPermission(ctx context.Context, userID, toolID int64) error
	ToolPermissionIDs(ctx context.Context, userID int64) ([]int64, error)
}

// SQLiteRepository implements Repository backed by SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewRepository creates a user repository.
func NewRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const userColumns = `id, first_name, last_name, wiki_name, phone_number, locked, lock_reason,
	card_id, card_secret, created_at, updated_at`

// Create inserts a new user and fills in its id and timestamps.
func (r *SQLiteRepository) Create(ctx context.Context, u *User) error {
	if (u.CardID == "") != (u.CardSecret == "") {
		return ErrCardPairing
	}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	query := `
		INSERT INTO users (first_name, last_name, wiki_name, phone_number, locked, lock_reason,
			card_id, card_secret, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query,
		u.FirstName, u.LastName, u.WikiName, u.PhoneNumber,
		boolToInt(u.Locked), u.LockReason,
		nullString(u.CardID), nullString(u.CardSecret),
		now.Format(time.RFC3339), now.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueViolation(err) {
			if strings.Contains(err.Error(), "phone_number") {
				return ErrPhoneExists
			}
			return ErrCardIDExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get user id: %w", err)
	}
	u.ID = id
	return nil
}

// GetByID retrieves a user by database id.
func (r *SQLiteRepository) GetByID(ctx context.Context, id int64) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

// GetByPhoneNumber retrieves a user by phone number.
func (r *SQLiteRepository) GetByPhoneNumber(ctx context.Context, phone string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE phone_number = ?`
	return r.scanUser(r.db.QueryRowContext(ctx, query, phone))
}

// GetByCardID retrieves a user by card id alone.
func (r *SQLiteRepository) GetByCardID(ctx context.Context, cardID string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE card_id = ?`
	return r.scanUser(r.db.QueryRowContext(ctx, query, cardID))
}

// GetByCardIDAndSecret retrieves a user by card pair. A matching card id with
// a wrong secret yields ErrUserNotFound, indistinguishable from an unknown
// card: callers cannot probe which half of the pair was wrong.
func (r *SQLiteRepository) GetByCardIDAndSecret(ctx context.Context, cardID, cardSecret string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE card_id = ? AND card_secret = ?`
	return r.scanUser(r.db.QueryRowContext(ctx, query, cardID, cardSecret))
}

// List returns all users ordered by last name, first name.
func (r *SQLiteRepository) List(ctx context.Context) ([]*User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY last_name ASC, first_name ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		u, err := r.scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// Update persists changes to an existing user.
func (r *SQLiteRepository) Update(ctx context.Context, u *User) error {
	if (u.CardID == "") != (u.CardSecret == "") {
		return ErrCardPairing
	}

	u.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE users
		SET first_name = ?, last_name = ?, wiki_name = ?, phone_number = ?,
			locked = ?, lock_reason = ?, card_id = ?, card_secret = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.db.ExecContext(ctx, query,
		u.FirstName, u.LastName, u.WikiName, u.PhoneNumber,
		boolToInt(u.Locked), u.LockReason,
		nullString(u.CardID), nullString(u.CardSecret),
		u.UpdatedAt.Format(time.RFC3339), u.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			if strings.Contains(err.Error(), "phone_number") {
				return ErrPhoneExists
			}
			return ErrCardIDExists
		}
		return fmt.Errorf("failed to update user: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Delete removes a user. Qualification grants and legacy tool permissions
// are removed by cascade.
func (r *SQLiteRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// AddQualification grants a qualification to a user. Granting an already
// held qualification is a no-op.
func (r *SQLiteRepository) AddQualification(ctx context.Context, userID, qualificationID int64) error {
	query := `
		INSERT INTO user_qualifications (user_id, qualification_id)
		VALUES (?, ?)
		ON CONFLICT (user_id, qualification_id) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, query, userID, qualificationID); err != nil {
		return fmt.Errorf("failed to add qualification: %w", err)
	}
	return nil
}

// RemoveQualification revokes a qualification from a user. Revoking a
// qualification the user does not hold is a no-op.
func (r *SQLiteRepository) RemoveQualification(ctx context.Context, userID, qualificationID int64) error {
	query := `DELETE FROM user_qualifications WHERE user_id = ? AND qualification_id = ?`
	if _, err := r.db.ExecContext(ctx, query, userID, qualificationID); err != nil {
		return fmt.Errorf("failed to remove qualification: %w", err)
	}
	return nil
}

// QualificationIDs returns the ids of all qualifications the user holds.
func (r *SQLiteRepository) QualificationIDs(ctx context.Context, userID int64) ([]int64, error) {
	query := `SELECT qualification_id FROM user_qualifications WHERE user_id = ? ORDER BY qualification_id ASC`
	return r.queryIDs(ctx, query, userID)
}

// AddToolPermission records a direct user-to-tool permission. The relation is
// maintained for data compatibility with older installations; authorisation
// decisions are made from qualifications.
func (r *SQLiteRepository) AddToolPermission(ctx context.Context, userID, toolID int64) error {
	query := `
		INSERT INTO user_tool_permissions (user_id, tool_id)
		VALUES (?, ?)
		ON CONFLICT (user_id, tool_id) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, query, userID, toolID); err != nil {
		return fmt.Errorf("failed to add tool permission: %w", err)
	}
	return nil
}

// RemoveToolPermission removes a direct user-to-tool permission.
func (r *SQLiteRepository) RemoveToolPermission(ctx context.Context, userID, toolID int64) error {
	query := `DELETE FROM user_tool_permissions WHERE user_id = ? AND tool_id = ?`
	if _, err := r.db.ExecContext(ctx, query, userID, toolID); err != nil {
		return fmt.Errorf("failed to remove tool permission: %w", err)
	}
	return nil
}

// ToolPermissionIDs returns the ids of tools the user has direct permissions
// for.
func (r *SQLiteRepository) ToolPermissionIDs(ctx context.Context, userID int64) ([]int64, error) {
	query := `SELECT tool_id FROM user_tool_permissions WHERE user_id = ? ORDER BY tool_id ASC`
	return r.queryIDs(ctx, query, userID)
}

func (r *SQLiteRepository) queryIDs(ctx context.Context, query string, args ...any) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// scanner abstracts sql.Row and sql.Rows for scanning.
type scanner interface {
	Scan(dest ...any) error
}

func (r *SQLiteRepository) scanUser(row scanner) (*User, error) {
	var u User
	var locked int
	var cardID, cardSecret sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(
		&u.ID, &u.FirstName, &u.LastName, &u.WikiName, &u.PhoneNumber,
		&locked, &u.LockReason, &cardID, &cardSecret, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	u.Locked = locked != 0
	u.CardID = cardID.String
	u.CardSecret = cardSecret.String
	u.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	u.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &u, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
