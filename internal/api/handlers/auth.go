// HTTP handlers for anonymous sign-in, login and credential linking.
// Translates HTTP requests into domain/auth.Service calls and maps domain errors to HTTP codes.
package handlers

import (
	"context"
	"errors"
	"net/http"

	domainauth "github.com/matiasleandrokruk/simonsays/internal/domain/auth"
)

// AuthService is satisfied by *domainauth.Service.
type AuthService interface {
	SignInAnonymous(ctx context.Context) (*domainauth.Result, error)
	LinkCredentials(ctx context.Context, userID, email, password string) (*domainauth.Result, error)
	Login(ctx context.Context, email, password string) (*domainauth.Result, error)
}

// AuthHandler handles authentication HTTP requests.
type AuthHandler struct {
	authService AuthService
}

// NewAuthHandler creates a new AuthHandler backed by the provided AuthService.
func NewAuthHandler(authService AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// CredentialsRequest is the body of POST /auth/login and POST /api/v1/auth/link.
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Anonymous handles POST /auth/anonymous.
//
// Response codes:
//   - 201 Created: a new anonymous account and token
//   - 500 Internal Server Error: unexpected failure
func (h *AuthHandler) Anonymous(w http.ResponseWriter, r *http.Request) {
	result, err := h.authService.SignInAnonymous(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "sign-in failed")
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// Login handles POST /auth/login.
//
// Response codes:
//   - 200 OK: login successful
//   - 400 Bad Request: invalid JSON or missing required fields
//   - 401 Unauthorized: invalid credentials (generic, doesn't reveal if email exists)
//   - 500 Internal Server Error: unexpected failure
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req CredentialsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := validateCredentials(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, domainauth.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Link handles POST /api/v1/auth/link.
//
// Response codes:
//   - 200 OK: credentials attached; a fresh non-anonymous token is returned
//   - 400 Bad Request: malformed email or short password
//   - 404 Not Found: the token's account no longer exists
//   - 409 Conflict: email taken, or account already linked
func (h *AuthHandler) Link(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req CredentialsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := validateCredentials(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.authService.LinkCredentials(r.Context(), userID, req.Email, req.Password)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, result)
	case errors.Is(err, domainauth.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domainauth.ErrUserNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domainauth.ErrEmailAlreadyExists), errors.Is(err, domainauth.ErrAlreadyLinked):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "link failed")
	}
}

// validateCredentials checks required fields for login and link.
func validateCredentials(req CredentialsRequest) error {
	if req.Email == "" {
		return errors.New("email is required")
	}
	if req.Password == "" {
		return errors.New("password is required")
	}
	return nil
}
