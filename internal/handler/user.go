package handler

import (
	"log/slog"
	"net/http"

	"github.com/tumgpt/chat-backend/internal/auth"
	"github.com/tumgpt/chat-backend/internal/model"
	"github.com/tumgpt/chat-backend/internal/service"
)

// UserHandler exposes the account endpoints.
//
// Routes (wired in internal/server):
//
//	POST   /users/register         → HandleRegister        (public)
//	POST   /users/login            → HandleLogin           (public)
//	POST   /users/recover-password → HandleRecoverPassword (public)
//	GET    /users/me               → HandleMe
//	PUT    /users/update           → HandleUpdate
//	DELETE /users/delete-account   → HandleDeleteAccount
//	POST   /users/logout           → HandleLogout
//	GET    /users/                 → HandleList            (admin)
//	GET    /users/user/{user_id}   → HandleGetByID         (self or admin)
type UserHandler struct {
	users  *service.UserService
	logger *slog.Logger
}

func NewUserHandler(users *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

type registerRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// HandleRegister creates a new account.
//
// HTTP: POST /users/register
// Body: {"email": "...", "username": "...", "password": "..."}
// → 201 UserOut | 409 on taken email/username | 422 on malformed input
func (h *UserHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.users.Register(r.Context(), req.Email, req.Username, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, user.Out())
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// HandleLogin authenticates and returns a bearer token.
//
// HTTP: POST /users/login
// → 200 {"access_token": "...", "token_type": "bearer"} | 401 on bad credentials
func (h *UserHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	token, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
	})
}

// HandleMe returns the authenticated caller's profile.
//
// HTTP: GET /users/me (auth required)
func (h *UserHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok {
		// Unreachable behind RequireAuth, but don't dereference nil if the
		// route is ever wired without it.
		writeError(w, errUnauthenticated())
		return
	}

	writeJSON(w, http.StatusOK, caller.Out())
}

type updateUserRequest struct {
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
}

// HandleUpdate changes the caller's username and/or email.
//
// HTTP: PUT /users/update (auth required)
// Omitted/empty fields are left unchanged.
func (h *UserHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, errUnauthenticated())
		return
	}

	var req updateUserRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.users.Update(r.Context(), caller, req.Username, req.Email)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user.Out())
}

// HandleDeleteAccount removes the caller's account and, via cascade, all of
// their messages.
//
// HTTP: DELETE /users/delete-account (auth required)
func (h *UserHandler) HandleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, errUnauthenticated())
		return
	}

	if err := h.users.Delete(r.Context(), caller); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "account deleted"})
}

// HandleLogout acknowledges a logout. Tokens are stateless, so there is
// nothing to revoke server-side — the client discards the token. The issued
// token stays cryptographically valid until its expiry.
//
// HTTP: POST /users/logout (auth required)
func (h *UserHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "logged out, remove the token on the client",
	})
}

type recoverPasswordRequest struct {
	Email string `json:"email"`
}

// HandleRecoverPassword issues a password-reset token.
//
// HTTP: POST /users/recover-password
// → 200 {"message": ..., "reset_token": ...} | 404 for an unknown email
//
// Email delivery is simulated — the token is returned in the body. Note the
// 404 on unknown email mirrors the existing contract even though it lets a
// caller probe which addresses are registered.
func (h *UserHandler) HandleRecoverPassword(w http.ResponseWriter, r *http.Request) {
	var req recoverPasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	token, err := h.users.RecoverPassword(r.Context(), req.Email)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message":     "password reset link sent",
		"reset_token": token,
	})
}

// HandleList returns all users, paginated. Admin only.
//
// HTTP: GET /users/?limit=25&offset=0 (auth required)
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, errUnauthenticated())
		return
	}

	limit, offset := pagination(r)
	users, err := h.users.List(r.Context(), caller, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]model.UserOut, 0, len(users))
	for i := range users {
		out = append(out, users[i].Out())
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleGetByID returns one user's profile: that user or an admin.
//
// HTTP: GET /users/user/{user_id} (auth required)
func (h *UserHandler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, errUnauthenticated())
		return
	}

	user, err := h.users.GetByID(r.Context(), caller, r.PathValue("user_id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user.Out())
}
