package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tumgpt/chat-backend/internal/apperror"
	"github.com/tumgpt/chat-backend/internal/model"
	"github.com/tumgpt/chat-backend/internal/repository"
)

// UserStore implements repository.UserRepository over the shared pool.
type UserStore struct {
	conn *sql.DB
}

// Compile-time check that *UserStore implements repository.UserRepository.
// `var _ X = (*Y)(nil)` assigns a typed nil to the interface; if a method is
// missing, this line fails to compile instead of some distant call site.
var _ repository.UserRepository = (*UserStore)(nil)

const userColumns = `id, email, username, role, password_hash, created_at, updated_at, last_login`

// Create inserts a new user, generating the UUID and timestamps in place.
// The caller's struct is updated — after Create returns, user.ID holds the
// assigned identifier.
func (s *UserStore) Create(ctx context.Context, user *model.User) error {
	user.ID = uuid.NewString()
	if user.Role == "" {
		user.Role = model.RoleUser
	}

	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	user.LastLogin = now

	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Email,
		user.Username,
		user.Role,
		user.PasswordHash,
		user.CreatedAt,
		user.UpdatedAt,
		user.LastLogin,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by their internal ID.
// Returns apperror.ErrNotFound (wrapped) if no such user exists.
func (s *UserStore) GetByID(ctx context.Context, id string) (*model.User, error) {
	return s.getUser(ctx, `id`, id)
}

// GetByEmail retrieves a user by email. This is the hot path: the auth
// middleware calls it once per authenticated request to resolve the token
// subject.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.getUser(ctx, `email`, email)
}

// GetByUsername retrieves a user by username.
func (s *UserStore) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.getUser(ctx, `username`, username)
}

// getUser is the shared single-row lookup. The column name is one of three
// compile-time constants, never user input, so the Sprintf is safe.
func (s *UserStore) getUser(ctx context.Context, column, value string) (*model.User, error) {
	var u model.User

	err := s.conn.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT %s FROM users WHERE %s = ?`, userColumns, column),
		value,
	).Scan(
		&u.ID,
		&u.Email,
		&u.Username,
		&u.Role,
		&u.PasswordHash,
		&u.CreatedAt,
		&u.UpdatedAt,
		&u.LastLogin,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", value)
		}
		return nil, fmt.Errorf("sqlite: getting user by %s: %w", column, err)
	}

	return &u, nil
}

// List returns users ordered by creation time, newest first.
func (s *UserStore) List(ctx context.Context, opts repository.ListOptions) ([]model.User, error) {
	limit, offset := clampListOptions(opts)

	rows, err := s.conn.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users
		 ORDER BY created_at DESC
		 LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing users: %w", err)
	}
	defer rows.Close()

	users := make([]model.User, 0, limit)
	for rows.Next() {
		var u model.User
		if err := rows.Scan(
			&u.ID, &u.Email, &u.Username, &u.Role, &u.PasswordHash,
			&u.CreatedAt, &u.UpdatedAt, &u.LastLogin,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning user row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating users: %w", err)
	}

	return users, nil
}

// Update persists the mutable fields of a user record. ID and CreatedAt are
// immutable; everything else (including last_login, which the login flow
// refreshes) is written as-is. Last writer wins — there is no version column.
func (s *UserStore) Update(ctx context.Context, user *model.User) error {
	user.UpdatedAt = time.Now().UTC()

	result, err := s.conn.ExecContext(ctx,
		`UPDATE users
		 SET email = ?, username = ?, role = ?, password_hash = ?, updated_at = ?, last_login = ?
		 WHERE id = ?`,
		user.Email,
		user.Username,
		user.Role,
		user.PasswordHash,
		user.UpdatedAt,
		user.LastLogin,
		user.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound("user", user.ID)
	}

	return nil
}

// Delete removes a user. The messages table cascades, so the account's
// messages disappear in the same statement.
func (s *UserStore) Delete(ctx context.Context, id string) error {
	result, err := s.conn.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting user %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if affected == 0 {
		return apperror.NotFound("user", id)
	}

	return nil
}

// clampListOptions applies the shared pagination defaults and caps.
func clampListOptions(opts repository.ListOptions) (limit, offset int) {
	limit = opts.Limit
	if limit <= 0 {
		limit = 25
	}
	if limit > 100 {
		limit = 100
	}
	offset = opts.Offset
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
