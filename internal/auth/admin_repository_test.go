package auth

import (
	"context"
	"errors"
	"testing"
)

func TestAdminCreateAndGet(t *testing.T) {
	db := testDB(t)
	repo := NewAdminRepository(db)

	admin := seedTestAdmin(t, db, "alice", "s3cret")
	if admin.ID == 0 {
		t.Fatal("Create() did not assign an id")
	}

	byID, err := repo.GetByID(context.Background(), admin.ID)
	if err != nil {
		t.Fatalf("GetByID() error: %v", err)
	}
	if byID.Name != "alice" {
		t.Errorf("got name %q, want alice", byID.Name)
	}

	byName, err := repo.GetByName(context.Background(), "alice")
	if err != nil {
		t.Fatalf("GetByName() error: %v", err)
	}
	if byName.ID != admin.ID {
		t.Errorf("got id %d, want %d", byName.ID, admin.ID)
	}
	if !Verify("s3cret", byName.PasswordDigest) {
		t.Error("stored digest does not verify against the seed password")
	}
}

func TestAdminNotFound(t *testing.T) {
	db := testDB(t)
	repo := NewAdminRepository(db)

	if _, err := repo.GetByName(context.Background(), "nobody"); !errors.Is(err, ErrAdminNotFound) {
		t.Errorf("GetByName() error = %v, want ErrAdminNotFound", err)
	}
	if _, err := repo.GetByID(context.Background(), 9999); !errors.Is(err, ErrAdminNotFound) {
		t.Errorf("GetByID() error = %v, want ErrAdminNotFound", err)
	}
}

func TestAdminDuplicateName(t *testing.T) {
	db := testDB(t)
	repo := NewAdminRepository(db)

	seedTestAdmin(t, db, "alice", "one")

	dup := &Admin{Name: "alice", PasswordDigest: Digest("two")}
	if err := repo.Create(context.Background(), dup); !errors.Is(err, ErrAdminNameExists) {
		t.Errorf("Create() error = %v, want ErrAdminNameExists", err)
	}
}

func TestAdminUpdatePassword(t *testing.T) {
	db := testDB(t)
	repo := NewAdminRepository(db)

	admin := seedTestAdmin(t, db, "alice", "old")

	if err := repo.UpdatePassword(context.Background(), admin.ID, Digest("new")); err != nil {
		t.Fatalf("UpdatePassword() error: %v", err)
	}

	got, err := repo.GetByID(context.Background(), admin.ID)
	if err != nil {
		t.Fatalf("GetByID() error: %v", err)
	}
	if !Verify("new", got.PasswordDigest) {
		t.Error("new password does not verify")
	}
	if Verify("old", got.PasswordDigest) {
		t.Error("old password still verifies")
	}

	if err := repo.UpdatePassword(context.Background(), 9999, Digest("x")); !errors.Is(err, ErrAdminNotFound) {
		t.Errorf("UpdatePassword() error = %v, want ErrAdminNotFound", err)
	}
}

func TestAdminDeleteAndCount(t *testing.T) {
	db := testDB(t)
	repo := NewAdminRepository(db)

	a := seedTestAdmin(t, db, "alice", "p")
	seedTestAdmin(t, db, "bob", "p")

	count, err := repo.Count(context.Background())
	if err != nil {
		t.Fatalf("Count() error: %v", err)
	}
	if count != 2 {
		t.Errorf("Count() = %d, want 2", count)
	}

	if err := repo.Delete(context.Background(), a.ID); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if err := repo.Delete(context.Background(), a.ID); !errors.Is(err, ErrAdminNotFound) {
		t.Errorf("second Delete() error = %v, want ErrAdminNotFound", err)
	}

	admins, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List() error: %v", err)
	}
	if len(admins) != 1 || admins[0].Name != "bob" {
		t.Errorf("List() = %v, want [bob]", admins)
	}
}
