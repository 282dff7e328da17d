package auth

import (
	"context"
	"io"
	"log/slog"
	"testing"
)

func TestSeedAdminCreatesAccount(t *testing.T) {
	db := testDB(t)
	repo := NewAdminRepository(db)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	password, err := SeedAdmin(context.Background(), repo, logger)
	if err != nil {
		t.Fatalf("SeedAdmin() error: %v", err)
	}
	if password == "" {
		t.Fatal("SeedAdmin() returned empty password on first boot")
	}

	admin, err := repo.GetByName(context.Background(), "admin")
	if err != nil {
		t.Fatalf("seed admin not found: %v", err)
	}
	if !Verify(password, admin.PasswordDigest) {
		t.Error("generated password does not verify against stored digest")
	}
}

func TestSeedAdminSkipsWhenAdminsExist(t *testing.T) {
	db := testDB(t)
	repo := NewAdminRepository(db)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	seedTestAdmin(t, db, "existing", "pw")

	password, err := SeedAdmin(context.Background(), repo, logger)
	if err != nil {
		t.Fatalf("SeedAdmin() error: %v", err)
	}
	if password != "" {
		t.Error("SeedAdmin() created an account although admins exist")
	}

	count, err := repo.Count(context.Background())
	if err != nil {
		t.Fatalf("Count() error: %v", err)
	}
	if count != 1 {
		t.Errorf("Count() = %d, want 1", count)
	}
}
