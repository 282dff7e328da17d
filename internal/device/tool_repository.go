package device

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ToolRepository defines the interface for tool persistence, including the
// tool-to-qualification requirement relation the resolver joins over.
type ToolRepository interface {
	Create(ctx context.Context, tool *Tool) error
	GetByID(ctx context.Context, id int64) (*Tool, error)
	ListForDevice(ctx context.Context, deviceID int64) ([]Tool, error)
	List(ctx context.Context) ([]Tool, error)
	Update(ctx context.Context, tool *Tool) error
	Delete(ctx context.Context, id int64) error
	SetQualifications(ctx context.Context, toolID int64, qualificationIDs []int64) error
	QualificationIDs(ctx context.Context, toolID int64) ([]int64, error)
	RequiredQualificationsForDevice(ctx context.Context, deviceID int64) (map[int64][]int64, error)
}

// SQLiteToolRepository implements ToolRepository using SQLite.
type SQLiteToolRepository struct {
	db *sql.DB
}

// NewToolRepository creates a new SQLite-backed tool repository.
func NewToolRepository(db *sql.DB) *SQLiteToolRepository {
	return &SQLiteToolRepository{db: db}
}

const toolColumns = "id, device_id, pin, name, tool_type, time_ms, idle_state, tool_state, wiki_link, created_at, updated_at"

// validateTool checks enum fields before writing.
func validateTool(tool *Tool) error {
	if !IsValidToolType(tool.Type) {
		return fmt.Errorf("%w: unknown tool type %q", ErrInvalidTool, tool.Type)
	}
	if !IsValidIdleState(tool.IdleState) {
		return fmt.Errorf("%w: unknown idle state %q", ErrInvalidTool, tool.IdleState)
	}
	if !IsValidToolState(tool.State) {
		return fmt.Errorf("%w: unknown tool state %q", ErrInvalidTool, tool.State)
	}
	return nil
}

// Create inserts a new tool. The generated ID is written back to tool.
func (r *SQLiteToolRepository) Create(ctx context.Context, tool *Tool) error {
	if err := validateTool(tool); err != nil {
		return err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	tool.CreatedAt, _ = time.Parse(time.RFC3339, now) //nolint:errcheck // format is controlled
	tool.UpdatedAt = tool.CreatedAt

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO tools (device_id, pin, name, tool_type, time_ms, idle_state, tool_state, wiki_link, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tool.DeviceID, tool.Pin, tool.Name, string(tool.Type), tool.TimeMs,
		string(tool.IdleState), string(tool.State), tool.WikiLink, now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrPinInUse
		}
		return fmt.Errorf("creating tool: %w", err)
	}

	tool.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading tool id: %w", err)
	}
	return nil
}

// GetByID retrieves a tool by its unique ID.
func (r *SQLiteToolRepository) GetByID(ctx context.Context, id int64) (*Tool, error) {
	return scanTool(r.db.QueryRowContext(ctx,
		"SELECT "+toolColumns+" FROM tools WHERE id = ?", id))
}

// ListForDevice returns all tools on a device ordered by pin ascending.
// Pin order is the wire order embedded clients expect.
func (r *SQLiteToolRepository) ListForDevice(ctx context.Context, deviceID int64) ([]Tool, error) {
	return r.listTools(ctx,
		"SELECT "+toolColumns+" FROM tools WHERE device_id = ? ORDER BY pin ASC", deviceID)
}

// List returns all tools ordered by device then pin.
func (r *SQLiteToolRepository) List(ctx context.Context) ([]Tool, error) {
	return r.listTools(ctx,
		"SELECT "+toolColumns+" FROM tools ORDER BY device_id ASC, pin ASC")
}

func (r *SQLiteToolRepository) listTools(ctx context.Context, query string, args ...any) ([]Tool, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing tools: %w", err)
	}
	defer rows.Close()

	var tools []Tool
	for rows.Next() {
		t, err := scanTool(rows)
		if err != nil {
			return nil, err
		}
		tools = append(tools, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tools: %w", err)
	}

	if tools == nil {
		tools = []Tool{}
	}
	return tools, nil
}

// Update modifies a tool's mutable fields.
func (r *SQLiteToolRepository) Update(ctx context.Context, tool *Tool) error {
	if err := validateTool(tool); err != nil {
		return err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	tool.UpdatedAt, _ = time.Parse(time.RFC3339, now) //nolint:errcheck // format is controlled

	result, err := r.db.ExecContext(ctx,
		`UPDATE tools SET device_id = ?, pin = ?, name = ?, tool_type = ?, time_ms = ?,
		 idle_state = ?, tool_state = ?, wiki_link = ?, updated_at = ? WHERE id = ?`,
		tool.DeviceID, tool.Pin, tool.Name, string(tool.Type), tool.TimeMs,
		string(tool.IdleState), string(tool.State), tool.WikiLink, now, tool.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrPinInUse
		}
		return fmt.Errorf("updating tool: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrToolNotFound
	}
	return nil
}

// Delete removes a tool by ID.
func (r *SQLiteToolRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM tools WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting tool: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrToolNotFound
	}
	return nil
}

// SetQualifications replaces the tool's required qualification set.
// Pass an empty slice to make the tool open to all users.
func (r *SQLiteToolRepository) SetQualifications(ctx context.Context, toolID int64, qualificationIDs []int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback is no-op after commit

	if _, err := tx.ExecContext(ctx, "DELETE FROM tool_qualifications WHERE tool_id = ?", toolID); err != nil {
		return fmt.Errorf("clearing tool qualifications: %w", err)
	}

	for _, qid := range qualificationIDs {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO tool_qualifications (tool_id, qualification_id) VALUES (?, ?)",
			toolID, qid); err != nil {
			return fmt.Errorf("requiring qualification %d: %w", qid, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing tool qualifications: %w", err)
	}
	return nil
}

// QualificationIDs returns the qualification ids a tool requires.
func (r *SQLiteToolRepository) QualificationIDs(ctx context.Context, toolID int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT qualification_id FROM tool_qualifications WHERE tool_id = ? ORDER BY qualification_id", toolID)
	if err != nil {
		return nil, fmt.Errorf("getting tool qualifications: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning qualification id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tool qualifications: %w", err)
	}
	return ids, nil
}

// RequiredQualificationsForDevice returns the requirement sets for every tool
// on a device in a single joined query, keyed by tool id. Tools with no
// requirements are absent from the map. This keeps a permission resolution to
// a fixed number of queries regardless of tool count.
func (r *SQLiteToolRepository) RequiredQualificationsForDevice(ctx context.Context, deviceID int64) (map[int64][]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT tq.tool_id, tq.qualification_id
		 FROM tool_qualifications tq
		 JOIN tools t ON t.id = tq.tool_id
		 WHERE t.device_id = ?
		 ORDER BY tq.tool_id, tq.qualification_id`, deviceID)
	if err != nil {
		return nil, fmt.Errorf("getting device tool qualifications: %w", err)
	}
	defer rows.Close()

	required := make(map[int64][]int64)
	for rows.Next() {
		var toolID, qualID int64
		if err := rows.Scan(&toolID, &qualID); err != nil {
			return nil, fmt.Errorf("scanning tool qualification: %w", err)
		}
		required[toolID] = append(required[toolID], qualID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tool qualifications: %w", err)
	}
	return required, nil
}

// scanTool scans a tool from a row or rows.
func scanTool(s scanner) (*Tool, error) {
	var t Tool
	var toolType, idleState, toolState string
	var createdAt, updatedAt string

	err := s.Scan(&t.ID, &t.DeviceID, &t.Pin, &t.Name, &toolType, &t.TimeMs,
		&idleState, &toolState, &t.WikiLink, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrToolNotFound
		}
		return nil, fmt.Errorf("scanning tool: %w", err)
	}

	t.Type = ToolType(toolType)
	t.IdleState = IdleState(idleState)
	t.State = ToolState(toolState)
	t.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled
	t.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt) //nolint:errcheck // format is controlled

	return &t, nil
}
