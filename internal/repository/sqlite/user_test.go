package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/tumgpt/chat-backend/internal/apperror"
	"github.com/tumgpt/chat-backend/internal/model"
	"github.com/tumgpt/chat-backend/internal/repository"
)

// newTestDB opens a throwaway database in the test's temp directory.
//
// A file (not ":memory:") because database/sql is a pool: a second pooled
// connection to ":memory:" would see its own empty database, not the one the
// migrations ran on.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// createTestUser creates a user and fails the test if it errors.
func createTestUser(t *testing.T, db *DB, email, username string) *model.User {
	t.Helper()
	user := &model.User{
		Email:        email,
		Username:     username,
		PasswordHash: "$2a$04$fakefakefakefakefakefake",
	}
	if err := db.Users().Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

func TestUserCreate(t *testing.T) {
	db := newTestDB(t)

	user := &model.User{
		Email:        "alice@example.com",
		Username:     "alice",
		PasswordHash: "hash",
	}
	if err := db.Users().Create(context.Background(), user); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// The struct is filled in place.
	if user.ID == "" {
		t.Error("Create() did not set user.ID")
	}
	if user.Role != model.RoleUser {
		t.Errorf("Create() role = %q, want default %q", user.Role, model.RoleUser)
	}
	if user.CreatedAt.IsZero() || user.LastLogin.IsZero() {
		t.Error("Create() did not set timestamps")
	}
}

func TestUserLookups(t *testing.T) {
	db := newTestDB(t)
	created := createTestUser(t, db, "alice@example.com", "alice")

	byID, err := db.Users().GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	byEmail, err := db.Users().GetByEmail(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("GetByEmail() error = %v", err)
	}
	byUsername, err := db.Users().GetByUsername(context.Background(), "alice")
	if err != nil {
		t.Fatalf("GetByUsername() error = %v", err)
	}

	for _, got := range []*model.User{byID, byEmail, byUsername} {
		if got.ID != created.ID {
			t.Errorf("lookup returned id %q, want %q", got.ID, created.ID)
		}
	}
	if byEmail.PasswordHash != created.PasswordHash {
		t.Error("lookup did not round-trip the password hash")
	}
}

func TestUserGetByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.Users().GetByID(context.Background(), "no-such-id")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
}

func TestUserUpdate(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "alice@example.com", "alice")

	user.Username = "alice2"
	user.Email = "alice2@example.com"
	if err := db.Users().Update(context.Background(), user); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := db.Users().GetByID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Username != "alice2" || got.Email != "alice2@example.com" {
		t.Errorf("Update() persisted %q/%q", got.Username, got.Email)
	}
}

func TestUserUpdate_NotFound(t *testing.T) {
	db := newTestDB(t)

	err := db.Users().Update(context.Background(), &model.User{ID: "ghost", Role: model.RoleUser})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Update() error = %v, want ErrNotFound", err)
	}
}

func TestUserDelete(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "alice@example.com", "alice")

	if err := db.Users().Delete(context.Background(), user.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if _, err := db.Users().GetByID(context.Background(), user.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() after delete error = %v, want ErrNotFound", err)
	}
	if err := db.Users().Delete(context.Background(), user.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}

func TestUserList(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "a@example.com", "a")
	createTestUser(t, db, "b@example.com", "b")
	createTestUser(t, db, "c@example.com", "c")

	users, err := db.Users().List(context.Background(), repository.ListOptions{Limit: 2})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(users) != 2 {
		t.Errorf("List() returned %d users, want 2 (limit)", len(users))
	}

	rest, err := db.Users().List(context.Background(), repository.ListOptions{Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(rest) != 1 {
		t.Errorf("List() with offset returned %d users, want 1", len(rest))
	}
}
