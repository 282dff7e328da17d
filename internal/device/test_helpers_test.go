package device

import (
	"context"
	"database/sql"
	"os"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// testDB creates a temporary SQLite database with the device schema applied.
// The database file is cleaned up when the test completes.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	f, err := os.CreateTemp("", "device-test-*.db")
	if err != nil {
		t.Fatalf("creating temp db: %v", err)
	}
	dbPath := f.Name()
	f.Close()
	t.Cleanup(func() { os.Remove(dbPath) })

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON")
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	schemaSQL := `
		CREATE TABLE devices (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			mac TEXT NOT NULL UNIQUE,
			secret_digest TEXT NOT NULL DEFAULT '',
			background_url TEXT NOT NULL DEFAULT '',
			backup_backend_url TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		) STRICT;

		CREATE TABLE tools (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			device_id INTEGER NOT NULL,
			pin INTEGER NOT NULL,
			name TEXT NOT NULL,
			tool_type TEXT NOT NULL DEFAULT 'UNLOCK',
			time_ms INTEGER NOT NULL DEFAULT 0,
			idle_state TEXT NOT NULL DEFAULT 'IDLE_LOW',
			tool_state TEXT NOT NULL DEFAULT 'GOOD',
			wiki_link TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			UNIQUE (device_id, pin),
			FOREIGN KEY (device_id) REFERENCES devices(id) ON DELETE CASCADE
		) STRICT;

		CREATE TABLE qualifications (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			colour TEXT NOT NULL DEFAULT '',
			order_nr INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		) STRICT;

		CREATE TABLE tool_qualifications (
			tool_id INTEGER NOT NULL,
			qualification_id INTEGER NOT NULL,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			PRIMARY KEY (tool_id, qualification_id),
			FOREIGN KEY (tool_id) REFERENCES tools(id) ON DELETE CASCADE,
			FOREIGN KEY (qualification_id) REFERENCES qualifications(id) ON DELETE CASCADE
		) STRICT;
	`
	if _, err := db.Exec(schemaSQL); err != nil {
		t.Fatalf("applying device schema: %v", err)
	}

	return db
}

// seedTestDevice inserts a device and returns it.
func seedTestDevice(t *testing.T, db *sql.DB, name, mac string) *Device {
	t.Helper()

	repo := NewRepository(db)
	dev := &Device{Name: name, Mac: mac}
	if err := repo.Create(context.Background(), dev); err != nil {
		t.Fatalf("creating test device %s: %v", mac, err)
	}
	return dev
}

// seedTestTool inserts a tool on the given device pin and returns it.
func seedTestTool(t *testing.T, db *sql.DB, deviceID int64, pin int, name string) *Tool {
	t.Helper()

	repo := NewToolRepository(db)
	tool := &Tool{
		DeviceID:  deviceID,
		Pin:       pin,
		Name:      name,
		Type:      ToolTypeUnlock,
		IdleState: IdleLow,
		State:     ToolGood,
	}
	if err := repo.Create(context.Background(), tool); err != nil {
		t.Fatalf("creating test tool %s: %v", name, err)
	}
	return tool
}

// seedTestQualification inserts a qualification row and returns its id.
func seedTestQualification(t *testing.T, db *sql.DB, name string) int64 {
	t.Helper()

	result, err := db.Exec("INSERT INTO qualifications (name) VALUES (?)", name)
	if err != nil {
		t.Fatalf("creating test qualification %s: %v", name, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		t.Fatalf("reading qualification id: %v", err)
	}
	return id
}
