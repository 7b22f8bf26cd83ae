package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/tumgpt/chat-backend/internal/apperror"
	"github.com/tumgpt/chat-backend/internal/model"
)

// contextKey is an unexported type used for context keys in this package.
//
// context.WithValue keys are compared by type AND value; using a private type
// means no other package can read or shadow the user we store, even if it
// guesses the string. Only this package can mint a contextKey.
type contextKey string

const userKey contextKey = "user"

// UserResolver is the narrow slice of the user store the middleware needs:
// resolve a token subject (an email) to an account. The repository's
// UserRepository satisfies it; tests satisfy it with a two-line fake.
type UserResolver interface {
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}

// RequireAuth enforces authentication on protected routes.
//
// It reads the Authorization header, validates the bearer token, resolves the
// token's subject to a user record, and stores the resolved *model.User in
// the request context. Any failure — missing header, bad token, expired
// token, unknown subject — stops the chain with the same uniform 401. The
// client never learns which check failed.
//
// The middleware has no side effects beyond the single store lookup: no
// last-seen bookkeeping, no caching. Every request re-resolves the user, so a
// deleted account is locked out on its very next request even though its
// token is still cryptographically valid.
func RequireAuth(tokens *TokenService, users UserResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := resolveUser(r, tokens, users)
			if err != nil {
				writeUnauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// writeUnauthorized sends the uniform 401 the rest of the API produces for
// apperror.ErrUnauthenticated. Encoding the shared apperror.ErrorResponse
// keeps this body and the handler layer's from drifting apart.
func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	appErr := apperror.Unauthenticated()
	if err := json.NewEncoder(w).Encode(apperror.ErrorResponse{
		Error:   "unauthenticated",
		Message: appErr.Message,
	}); err != nil {
		slog.Error("failed to encode 401 response", slog.String("error", err.Error()))
	}
}

// UserFromContext retrieves the authenticated user from the request context.
//
// Returns (nil, false) if the request never passed through RequireAuth.
// Handlers behind the middleware can rely on ok being true, but should still
// check it rather than panic on a nil user.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(userKey).(*model.User)
	return user, ok && user != nil
}

// resolveUser extracts the bearer token and turns it into a user record.
// All error paths collapse into apperror.ErrUnauthenticated at the caller.
func resolveUser(r *http.Request, tokens *TokenService, users UserResolver) (*model.User, error) {
	tokenStr, err := bearerToken(r)
	if err != nil {
		return nil, err
	}

	subject, err := tokens.Verify(tokenStr)
	if err != nil {
		return nil, err
	}

	user, err := users.GetByEmail(r.Context(), subject)
	if err != nil {
		// NotFound here means a token for a since-deleted account; any other
		// error is a store failure. Both end the request as unauthorized —
		// distinguishing them would leak account existence.
		return nil, err
	}

	return user, nil
}

// bearerToken pulls the token out of "Authorization: Bearer <token>".
// The scheme comparison is case-insensitive per RFC 7235.
func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", errors.New("auth: missing Authorization header")
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", errors.New("auth: malformed Authorization header")
	}

	return strings.TrimSpace(token), nil
}
