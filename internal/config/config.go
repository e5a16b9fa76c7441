// Package config reads process settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"congregation/internal/domain/failure"
)

// Sheet backends.
const (
	BackendGoogle = "google"
	BackendSQLite = "sqlite"
)

// Config carries every setting the server needs. It is built once in main and injected.
type Config struct {
	Addr   string
	Env    string
	DBPath string

	SheetBackend        string
	SpreadsheetID       string
	SheetName           string
	ServiceAccountEmail string
	PrivateKey          string
	CredentialsFile     string

	AdminUsername string
	AdminPassword string
	SessionSecret string
	CSRFKey       string

	ResendKey  string
	ResendFrom string
	AdminEmail string

	AutoSubmit    bool
	SlowRequestMs int
	SlowSheetMs   int
	SlowQueryMs   int
}

// IsProduction reports whether the server runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load seeds the environment from a .env file when one exists, then reads it.
// Variables already set in the environment win over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv, applying defaults.
// PRE: getenv is non-nil
// POST: Returns a Config or an error naming the malformed variable
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, fallback string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return fallback
	}

	cfg := &Config{
		Addr:                get("CONGREGATION_ADDR", ":8080"),
		Env:                 get("CONGREGATION_ENV", "development"),
		DBPath:              get("CONGREGATION_DB_PATH", "congregation.db"),
		SheetBackend:        strings.ToLower(get("CONGREGATION_SHEET_BACKEND", BackendGoogle)),
		SpreadsheetID:       get("GOOGLE_SHEETS_SPREADSHEET_ID", ""),
		SheetName:           get("CONGREGATION_SHEET_NAME", "Sheet1"),
		ServiceAccountEmail: get("GOOGLE_SERVICE_ACCOUNT_EMAIL", ""),
		PrivateKey:          strings.ReplaceAll(getenv("GOOGLE_PRIVATE_KEY"), `\n`, "\n"),
		CredentialsFile:     get("GOOGLE_APPLICATION_CREDENTIALS", ""),
		AdminUsername:       get("ADMIN_USERNAME", ""),
		AdminPassword:       getenv("ADMIN_PASSWORD"),
		SessionSecret:       get("ADMIN_SESSION_SECRET", ""),
		CSRFKey:             get("CONGREGATION_CSRF_KEY", ""),
		ResendKey:           get("CONGREGATION_RESEND_KEY", ""),
		ResendFrom:          get("CONGREGATION_RESEND_FROM", "Attendance <noreply@example.org>"),
		AdminEmail:          get("CONGREGATION_ADMIN_EMAIL", ""),
	}

	var err error
	if cfg.AutoSubmit, err = getBool(getenv, "CONGREGATION_AUTO_SUBMIT", true); err != nil {
		return nil, err
	}
	if cfg.SlowRequestMs, err = getInt(getenv, "CONGREGATION_SLOW_REQUEST_MS", 500); err != nil {
		return nil, err
	}
	if cfg.SlowSheetMs, err = getInt(getenv, "CONGREGATION_SLOW_SHEET_MS", 1500); err != nil {
		return nil, err
	}
	if cfg.SlowQueryMs, err = getInt(getenv, "CONGREGATION_SLOW_QUERY_MS", 50); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot run with.
// Missing sheet or admin credentials are tolerated in development; the
// affected endpoints answer with a configuration error instead.
// POST: Returns a *failure.ConfigurationError or nil
func (c *Config) Validate() error {
	switch c.SheetBackend {
	case BackendGoogle, BackendSQLite:
	default:
		return failure.Configuration(fmt.Sprintf("CONGREGATION_SHEET_BACKEND must be %q or %q, got %q", BackendGoogle, BackendSQLite, c.SheetBackend))
	}
	if !c.IsProduction() {
		return nil
	}
	var missing []string
	if c.SpreadsheetID == "" {
		missing = append(missing, "GOOGLE_SHEETS_SPREADSHEET_ID")
	}
	if c.SheetBackend == BackendGoogle && c.CredentialsFile == "" && (c.ServiceAccountEmail == "" || c.PrivateKey == "") {
		missing = append(missing, "GOOGLE_SERVICE_ACCOUNT_EMAIL/GOOGLE_PRIVATE_KEY")
	}
	if c.AdminUsername == "" || c.AdminPassword == "" {
		missing = append(missing, "ADMIN_USERNAME/ADMIN_PASSWORD")
	}
	if c.SessionSecret == "" {
		missing = append(missing, "ADMIN_SESSION_SECRET")
	}
	if len(c.CSRFKey) < 32 {
		missing = append(missing, "CONGREGATION_CSRF_KEY (32+ bytes)")
	}
	if len(missing) > 0 {
		return failure.Configuration("production config incomplete: " + strings.Join(missing, ", "))
	}
	return nil
}

func getInt(getenv func(string) string, key string, fallback int) (int, error) {
	raw := strings.TrimSpace(getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: expected an integer, got '%s'", key, raw)
	}
	return v, nil
}

func getBool(getenv func(string) string, key string, fallback bool) (bool, error) {
	raw := strings.TrimSpace(getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid value for %s: expected true or false, got '%s'", key, raw)
	}
	return v, nil
}
