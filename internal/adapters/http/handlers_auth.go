package web

import (
	"errors"
	"net/http"

	"github.com/gorilla/csrf"

	"congregation/internal/adapters/http/middleware"
	"congregation/internal/application/orchestrators"
	"congregation/internal/domain/failure"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// handleLogin handles POST /auth/login.
func (a *app) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, "")
		return
	}

	err := orchestrators.ExecuteLogin(r.Context(), orchestrators.LoginInput{Username: req.Username, Password: req.Password}, a.Admin)
	var cfgErr *failure.ConfigurationError
	switch {
	case errors.As(err, &cfgErr):
		writeErrorMessage(w, http.StatusInternalServerError, cfgErr.Message)
		return
	case err != nil:
		writeError(w, r, err, "Login failed")
		return
	}

	http.SetCookie(w, a.Guard.Issue(a.Now()))
	writeJSON(w, http.StatusOK, map[string]string{"message": "Login successful"})
}

// handleLogout handles POST /auth/logout.
func (a *app) handleLogout(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, a.Guard.Clear())
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

type authCheckResponse struct {
	Authenticated bool   `json:"authenticated"`
	CSRFToken     string `json:"csrfToken,omitempty"`
}

// handleAuthCheck handles GET /auth/check. The CSRF token is present when protection is enabled.
func (a *app) handleAuthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, authCheckResponse{
		Authenticated: middleware.HasSession(r.Context()),
		CSRFToken:     csrf.Token(r),
	})
}
