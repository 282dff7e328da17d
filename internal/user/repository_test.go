package user

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

// testDB creates a temporary SQLite database with the user schema applied.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	f, err := os.CreateTemp("", "user-test-*.db")
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
		CREATE TABLE users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			wiki_name TEXT NOT NULL DEFAULT '',
			phone_number TEXT NOT NULL UNIQUE,
			locked INTEGER NOT NULL DEFAULT 0,
			lock_reason TEXT NOT NULL DEFAULT '',
			card_id TEXT UNIQUE,
			card_secret TEXT,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			CHECK ((card_id IS NULL) = (card_secret IS NULL))
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

		CREATE TABLE user_qualifications (
			user_id INTEGER NOT NULL,
			qualification_id INTEGER NOT NULL,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			PRIMARY KEY (user_id, qualification_id),
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
			FOREIGN KEY (qualification_id) REFERENCES qualifications(id) ON DELETE CASCADE
		) STRICT;

		CREATE TABLE tools (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL
		) STRICT;

		CREATE TABLE user_tool_permissions (
			user_id INTEGER NOT NULL,
			tool_id INTEGER NOT NULL,
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			PRIMARY KEY (user_id, tool_id),
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
			FOREIGN KEY (tool_id) REFERENCES tools(id) ON DELETE CASCADE
		) STRICT;
	`
	if _, err := db.Exec(schemaSQL); err != nil {
		t.Fatalf("applying user schema: %v", err)
	}

	return db
}

func seedTestUser(t *testing.T, db *sql.DB, phone, cardID, cardSecret string) *User {
	t.Helper()

	repo := NewRepository(db)
	u := &User{
		FirstName:   "Ada",
		LastName:    "Lovelace",
		PhoneNumber: phone,
		CardID:      cardID,
		CardSecret:  cardSecret,
	}
	if err := repo.Create(context.Background(), u); err != nil {
		t.Fatalf("creating test user %s: %v", phone, err)
	}
	return u
}

func TestCreateAndGetUser(t *testing.T) {
	db := testDB(t)
	repo := NewRepository(db)

	u := &User{
		FirstName:   "Grace",
		LastName:    "Hopper",
		WikiName:    "ghopper",
		PhoneNumber: "+441234567890",
		CardID:      "04a1b2c3",
		CardSecret:  "topsecret",
	}
	if err := repo.Create(context.Background(), u); err != nil {
		t.Fatalf("Create() error: %v", err)
	}
	if u.ID == 0 {
		t.Fatal("Create() did not assign an id")
	}

	got, err := repo.GetByID(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("GetByID() error: %v", err)
	}
	if got.FirstName != "Grace" || got.LastName != "Hopper" {
		t.Errorf("got name %s %s, want Grace Hopper", got.FirstName, got.LastName)
	}
	if got.CardID != "04a1b2c3" || got.CardSecret != "topsecret" {
		t.Errorf("card pair not persisted: %q / %q", got.CardID, got.CardSecret)
	}
	if got.Locked {
		t.Error("new user should not be locked")
	}
}

func TestGetUserNotFound(t *testing.T) {
	db := testDB(t)
	repo := NewRepository(db)

	_, err := repo.GetByID(context.Background(), 9999)
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("GetByID() error = %v, want ErrUserNotFound", err)
	}
}

func TestCreateUserDuplicatePhone(t *testing.T) {
	db := testDB(t)
	repo := NewRepository(db)

	seedTestUser(t, db, "+4900001", "", "")

	dup := &User{FirstName: "B", LastName: "C", PhoneNumber: "+4900001"}
	err := repo.Create(context.Background(), dup)
	if !errors.Is(err, ErrPhoneExists) {
		t.Errorf("Create() error = %v, want ErrPhoneExists", err)
	}
}

func TestCreateUserDuplicateCardID(t *testing.T) {
	db := testDB(t)
	repo := NewRepository(db)

	seedTestUser(t, db, "+4900001", "cardA", "s1")

	dup := &User{FirstName: "B", LastName: "C", PhoneNumber: "+4900002", CardID: "cardA", CardSecret: "s2"}
	err := repo.Create(context.Background(), dup)
	if !errors.Is(err, ErrCardIDExists) {
		t.Errorf("Create() error = %v, want ErrCardIDExists", err)
	}
}

func TestCreateUserHalfCardPair(t *testing.T) {
	db := testDB(t)
	repo := NewRepository(db)

	u := &User{FirstName: "B", LastName: "C", PhoneNumber: "+4900003", CardID: "cardX"}
	if err := repo.Create(context.Background(), u); !errors.Is(err, ErrCardPairing) {
		t.Errorf("Create() error = %v, want ErrCardPairing", err)
	}
}

func TestGetByCardIDAndSecret(t *testing.T) {
	db := testDB(t)
	repo := NewRepository(db)

	u := seedTestUser(t, db, "+4900004", "card04", "correct")

	got, err := repo.GetByCardIDAndSecret(context.Background(), "card04", "correct")
	if err != nil {
		t.Fatalf("GetByCardIDAndSecret() error: %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("got user %d, want %d", got.ID, u.ID)
	}

	// A wrong secret must look exactly like an unknown card.
	_, err = repo.GetByCardIDAndSecret(context.Background(), "card04", "wrong")
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("wrong secret: error = %v, want ErrUserNotFound", err)
	}
	_, err = repo.GetByCardIDAndSecret(context.Background(), "nosuchcard", "correct")
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("unknown card: error = %v, want ErrUserNotFound", err)
	}
}

func TestGetByPhoneNumber(t *testing.T) {
	db := testDB(t)
	repo := NewRepository(db)

	u := seedTestUser(t, db, "+4900005", "", "")

	got, err := repo.GetByPhoneNumber(context.Background(), "+4900005")
	if err != nil {
		t.Fatalf("GetByPhoneNumber() error: %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("got user %d, want %d", got.ID, u.ID)
	}
	if got.HasCard() {
		t.Error("user without card pair reported HasCard() = true")
	}
}

func TestUpdateUserLock(t *testing.T) {
	db := testDB(t)
	repo := NewRepository(db)

	u := seedTestUser(t, db, "+4900006", "card06", "s")

	u.Locked = true
	u.LockReason = "unpaid membership"
	if err := repo.Update(context.Background(), u); err != nil {
		t.Fatalf("Update() error: %v", err)
	}

	got, err := repo.GetByID(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("GetByID() error: %v", err)
	}
	if !got.Locked {
		t.Error("user should be locked after update")
	}
	if got.LockReason != "unpaid membership" {
		t.Errorf("lock reason = %q, want %q", got.LockReason, "unpaid membership")
	}
}

func TestUpdateUserNotFound(t *testing.T) {
	db := testDB(t)
	repo := NewRepository(db)

	u := &User{ID: 9999, FirstName: "X", LastName: "Y", PhoneNumber: "+4900007"}
	if err := repo.Update(context.Background(), u); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("Update() error = %v, want ErrUserNotFound", err)
	}
}

func TestDeleteUserCascadesGrants(t *testing.T) {
	db := testDB(t)
	repo := NewRepository(db)

	u := seedTestUser(t, db, "+4900008", "", "")

	res, err := db.Exec("INSERT INTO qualifications (name) VALUES ('Laser')")
	if err != nil {
		t.Fatalf("seeding qualification: %v", err)
	}
	qualID, _ := res.LastInsertId()
	if err := repo.AddQualification(context.Background(), u.ID, qualID); err != nil {
		t.Fatalf("AddQualification() error: %v", err)
	}

	if err := repo.Delete(context.Background(), u.ID); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM user_qualifications WHERE user_id = ?", u.ID).Scan(&count); err != nil {
		t.Fatalf("counting grants: %v", err)
	}
	if count != 0 {
		t.Errorf("expected grants removed by cascade, found %d", count)
	}

	if err := repo.Delete(context.Background(), u.ID); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("second Delete() error = %v, want ErrUserNotFound", err)
	}
}

func TestQualificationGrants(t *testing.T) {
	db := testDB(t)
	repo := NewRepository(db)

	u := seedTestUser(t, db, "+4900009", "", "")

	var qualIDs []int64
	for _, name := range []string{"Laser", "CNC"} {
		res, err := db.Exec("INSERT INTO qualifications (name) VALUES (?)", name)
		if err != nil {
			t.Fatalf("seeding qualification %s: %v", name, err)
		}
		id, _ := res.LastInsertId()
		qualIDs = append(qualIDs, id)
	}

	for _, id := range qualIDs {
		if err := repo.AddQualification(context.Background(), u.ID, id); err != nil {
			t.Fatalf("AddQualification(%d) error: %v", id, err)
		}
	}

	// Granting again is a no-op, not an error.
	if err := repo.AddQualification(context.Background(), u.ID, qualIDs[0]); err != nil {
		t.Fatalf("repeat AddQualification() error: %v", err)
	}

	held, err := repo.QualificationIDs(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("QualificationIDs() error: %v", err)
	}
	if len(held) != 2 {
		t.Fatalf("got %d qualifications, want 2", len(held))
	}

	if err := repo.RemoveQualification(context.Background(), u.ID, qualIDs[0]); err != nil {
		t.Fatalf("RemoveQualification() error: %v", err)
	}
	held, err = repo.QualificationIDs(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("QualificationIDs() error: %v", err)
	}
	if len(held) != 1 || held[0] != qualIDs[1] {
		t.Errorf("after revoke got %v, want [%d]", held, qualIDs[1])
	}

	// Revoking a qualification the user does not hold is a no-op.
	if err := repo.RemoveQualification(context.Background(), u.ID, qualIDs[0]); err != nil {
		t.Fatalf("repeat RemoveQualification() error: %v", err)
	}
}

func TestToolPermissions(t *testing.T) {
	db := testDB(t)
	repo := NewRepository(db)

	u := seedTestUser(t, db, "+4900010", "", "")

	res, err := db.Exec("INSERT INTO tools (name) VALUES ('Mill')")
	if err != nil {
		t.Fatalf("seeding tool: %v", err)
	}
	toolID, _ := res.LastInsertId()

	if err := repo.AddToolPermission(context.Background(), u.ID, toolID); err != nil {
		t.Fatalf("AddToolPermission() error: %v", err)
	}
	ids, err := repo.ToolPermissionIDs(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("ToolPermissionIDs() error: %v", err)
	}
	if len(ids) != 1 || ids[0] != toolID {
		t.Errorf("got %v, want [%d]", ids, toolID)
	}

	if err := repo.RemoveToolPermission(context.Background(), u.ID, toolID); err != nil {
		t.Fatalf("RemoveToolPermission() error: %v", err)
	}
	ids, err = repo.ToolPermissionIDs(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("ToolPermissionIDs() error: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("got %v, want empty", ids)
	}
}

func TestListUsersOrdered(t *testing.T) {
	db := testDB(t)
	repo := NewRepository(db)

	for _, u := range []*User{
		{FirstName: "Zoe", LastName: "Adams", PhoneNumber: "+1"},
		{FirstName: "Amy", LastName: "Adams", PhoneNumber: "+2"},
		{FirstName: "Bob", LastName: "Baker", PhoneNumber: "+3"},
	} {
		if err := repo.Create(context.Background(), u); err != nil {
			t.Fatalf("Create() error: %v", err)
		}
	}

	users, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(users) != 3 {
		t.Fatalf("got %d users, want 3", len(users))
	}
	want := []string{"Amy", "Zoe", "Bob"}
	for i, u := range users {
		if u.FirstName != want[i] {
			t.Errorf("position %d: got %s, want %s", i, u.FirstName, want[i])
		}
	}
}
