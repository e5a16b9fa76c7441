package orchestrators

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"congregation/internal/domain/failure"
)

// LoginInput carries input for the login orchestrator.
type LoginInput struct {
	Username string
	Password string
}

// LoginDeps holds the configured admin credentials.
// AdminPassword may be a bcrypt hash ($2a$, $2b$ or $2y$) or plaintext.
type LoginDeps struct {
	AdminUsername string
	AdminPassword string
}

// errInvalidCredentials is the only message a failed login reveals.
const errInvalidCredentials = "Invalid credentials"

// ExecuteLogin checks the submitted credentials against the single admin account.
// PRE: none
// POST: nil on match; AuthError on mismatch; ConfigurationError when no admin is configured
func ExecuteLogin(_ context.Context, input LoginInput, deps LoginDeps) error {
	if deps.AdminUsername == "" || deps.AdminPassword == "" {
		slog.Error("auth_event", "event", "login_unconfigured")
		return failure.Configuration("Admin credentials not configured")
	}
	if input.Username != deps.AdminUsername {
		slog.Info("auth_event", "event", "login_failed", "username", input.Username, "reason", "unknown_user")
		return &failure.AuthError{Message: errInvalidCredentials}
	}
	if !passwordMatches(deps.AdminPassword, input.Password) {
		slog.Info("auth_event", "event", "login_failed", "username", input.Username, "reason", "wrong_password")
		return &failure.AuthError{Message: errInvalidCredentials}
	}
	slog.Info("auth_event", "event", "login_success", "username", input.Username)
	return nil
}

func passwordMatches(stored, submitted string) bool {
	if isBcryptHash(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(submitted)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(submitted)) == 1
}

func isBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}
