// Package service contains the business logic layer.
//
// Handlers parse HTTP and translate errors; services enforce the rules:
// credential checks, uniqueness, ownership. Services return apperror values
// and never touch net/http, so the same logic would serve a CLI or a gRPC
// front end unchanged.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/tumgpt/chat-backend/internal/apperror"
	"github.com/tumgpt/chat-backend/internal/auth"
	"github.com/tumgpt/chat-backend/internal/model"
	"github.com/tumgpt/chat-backend/internal/repository"
)

const (
	MinPasswordLength = 8
	// MaxPasswordLength matches bcrypt's input limit. The hasher rejects
	// anything longer, so the cap has to be validated here to come back as a
	// field error rather than an internal one.
	MaxPasswordLength = 72
	MaxUsernameLength = 50
)

// UserService handles registration, login, profile updates, password
// recovery, and account deletion.
type UserService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger

	loginTTL time.Duration
	resetTTL time.Duration
}

// NewUserService wires a UserService. TTLs come from config: the login token
// is short-lived (a session), the reset token slightly longer (the user has
// to act on a link).
func NewUserService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
	loginTTL, resetTTL time.Duration,
) *UserService {
	return &UserService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
		loginTTL:  loginTTL,
		resetTTL:  resetTTL,
	}
}

// Register creates a new account.
//
// UNIQUENESS BY PRE-QUERY:
// Email and username are each checked with an explicit lookup before the
// insert, so the caller gets a precise Conflict error naming the field.
// Two concurrent registrations with the same email can race past these
// checks; the table's UNIQUE constraint then fails one of the inserts with a
// generic error. Known limitation, accepted for the simplicity — the window
// is a single round-trip wide.
func (s *UserService) Register(ctx context.Context, email, username, password string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	username = strings.TrimSpace(username)

	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if username == "" {
		return nil, apperror.ValidationFailed("username", "username is required")
	}
	if len(username) > MaxUsernameLength {
		return nil, apperror.ValidationFailed("username",
			fmt.Sprintf("username must be %d characters or less", MaxUsernameLength))
	}
	if len(password) < MinPasswordLength {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
	if len(password) > MaxPasswordLength {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be %d bytes or less", MaxPasswordLength))
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperror.Conflict("email", "email already registered")
	}
	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil, apperror.Conflict("username", "username already taken")
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("service/user: hashing password: %w", err)
	}

	user := &model.User{
		Email:        email,
		Username:     username,
		Role:         model.RoleUser,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("service/user: creating user: %w", err)
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)

	return user, nil
}

// Login verifies credentials and issues a bearer token.
//
// Both failure modes — unknown email and wrong password — return the same
// Unauthenticated error. A distinct "no such user" response would let anyone
// enumerate registered emails from the login endpoint.
func (s *UserService) Login(ctx context.Context, email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return "", apperror.Unauthenticated()
	}

	if !s.passwords.Verify(user.PasswordHash, password) {
		s.logger.Warn("login failed", slog.String("userID", user.ID))
		return "", apperror.Unauthenticated()
	}

	// Refresh last_login. A failure here shouldn't block the login — the
	// credentials already checked out — so it's logged and ignored.
	user.LastLogin = time.Now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		s.logger.Error("refreshing last login",
			slog.String("userID", user.ID),
			slog.String("error", err.Error()),
		)
	}

	token, err := s.tokens.Issue(user.Email, s.loginTTL)
	if err != nil {
		return "", fmt.Errorf("service/user: issuing token for %s: %w", user.ID, err)
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))
	return token, nil
}

// GetByID returns the user with the given id, if the caller is allowed to
// see it: the user themself or an admin.
func (s *UserService) GetByID(ctx context.Context, caller *model.User, id string) (*model.User, error) {
	if !auth.CanAccessUserScope(caller, id) {
		return nil, apperror.Forbidden("not permitted to view this user")
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// List returns all users, admin only.
func (s *UserService) List(ctx context.Context, caller *model.User, limit, offset int) ([]model.User, error) {
	if caller == nil || !caller.IsAdmin() {
		return nil, apperror.Forbidden("admin role required")
	}

	users, err := s.users.List(ctx, repository.ListOptions{Limit: limit, Offset: offset})
	if err != nil {
		return nil, fmt.Errorf("service/user: listing users: %w", err)
	}
	return users, nil
}

// Update changes the caller's own username and/or email. Empty fields are
// left untouched. A new email is pre-checked for conflicts the same way
// registration does, excluding the caller's own record.
//
// Changes are staged on a copy and written back in one go, so a validation
// or conflict error partway through leaves the caller's record exactly as it
// was — no half-applied update survives the error path.
func (s *UserService) Update(ctx context.Context, caller *model.User, username, email string) (*model.User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))

	updated := *caller

	if username != "" {
		if len(username) > MaxUsernameLength {
			return nil, apperror.ValidationFailed("username",
				fmt.Sprintf("username must be %d characters or less", MaxUsernameLength))
		}
		if existing, err := s.users.GetByUsername(ctx, username); err == nil && existing.ID != caller.ID {
			return nil, apperror.Conflict("username", "username already taken")
		}
		updated.Username = username
	}

	if email != "" {
		if err := validateEmail(email); err != nil {
			return nil, err
		}
		if existing, err := s.users.GetByEmail(ctx, email); err == nil && existing.ID != caller.ID {
			return nil, apperror.Conflict("email", "email already in use")
		}
		updated.Email = email
	}

	if err := s.users.Update(ctx, &updated); err != nil {
		return nil, fmt.Errorf("service/user: updating user %s: %w", updated.ID, err)
	}
	*caller = updated

	s.logger.Info("user updated", slog.String("userID", caller.ID))
	return caller, nil
}

// RecoverPassword issues a password-reset token for the account with the
// given email. Delivery is simulated: the token comes back in the response
// instead of an email, matching the current API contract.
//
// The reset token is signed by the same TokenService as login tokens and
// carries no purpose claim, so it verifies anywhere a login token does.
// Known design gap, deliberately preserved.
func (s *UserService) RecoverPassword(ctx context.Context, email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}

	token, err := s.tokens.Issue(user.Email, s.resetTTL)
	if err != nil {
		return "", fmt.Errorf("service/user: issuing reset token for %s: %w", user.ID, err)
	}

	s.logger.Info("password reset token issued", slog.String("userID", user.ID))
	return token, nil
}

// Delete removes the caller's account. Messages cascade at the storage
// level, so after this the user and everything they sent are gone.
func (s *UserService) Delete(ctx context.Context, caller *model.User) error {
	if err := s.users.Delete(ctx, caller.ID); err != nil {
		return fmt.Errorf("service/user: deleting user %s: %w", caller.ID, err)
	}

	s.logger.Info("account deleted", slog.String("userID", caller.ID))
	return nil
}

// validateEmail rejects anything net/mail can't parse as a bare address.
func validateEmail(email string) error {
	if email == "" {
		return apperror.ValidationFailed("email", "email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return apperror.ValidationFailed("email", "email address is not valid")
	}
	return nil
}
