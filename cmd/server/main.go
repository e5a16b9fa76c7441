package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	emailPkg "congregation/internal/adapters/email"
	web "congregation/internal/adapters/http"
	"congregation/internal/adapters/http/middleware"
	"congregation/internal/adapters/http/perf"
	"congregation/internal/adapters/sheets"
	"congregation/internal/adapters/storage"
	draftStore "congregation/internal/adapters/storage/draft"
	"congregation/internal/application/drafts"
	"congregation/internal/application/orchestrators"
	"congregation/internal/application/scheduler"
	"congregation/internal/config"
	"congregation/internal/domain/failure"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// WAL mode, busy timeout and relaxed sync for the local draft/sheet database
	dsn := cfg.DBPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)

	if err := db.Ping(); err != nil {
		log.Fatalf("database unreachable: %v", err)
	}
	if err := storage.MigrateDB(db, cfg.DBPath); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	collector := perf.NewCollector(perf.DefaultRingSize)
	timedDB := storage.NewTimedDB(db, collector, cfg.SlowQueryMs)

	sheetClient, err := newSheetClient(ctx, cfg, timedDB)
	if err != nil {
		log.Fatalf("failed to create sheet client: %v", err)
	}
	records := sheets.NewStore(
		sheets.Config{SpreadsheetID: cfg.SpreadsheetID, SheetName: cfg.SheetName},
		sheets.NewTimedClient(sheetClient, collector, cfg.SlowSheetMs),
	)

	manager := drafts.NewManager(drafts.Deps{
		Snapshots: draftStore.NewSQLiteStore(timedDB),
		Records:   records,
		Now:       time.Now,
		NewID:     func() string { return uuid.New().String() },
	})
	if _, err := manager.Load(ctx); err != nil {
		log.Fatalf("failed to load drafts: %v", err)
	}

	var sender emailPkg.Sender
	if cfg.ResendKey != "" {
		sender = emailPkg.NewResendSender(cfg.ResendKey, cfg.ResendFrom)
		log.Println("Email sender configured (Resend)")
	} else {
		sender = emailPkg.NewNoopSender()
		log.Println("Email sender configured (noop; set CONGREGATION_RESEND_KEY for real delivery)")
	}

	deps := web.Deps{
		Records:   records,
		Drafts:    manager,
		Guard:     middleware.NewGuard(cfg.SessionSecret, cfg.IsProduction()),
		Admin:     orchestrators.LoginDeps{AdminUsername: cfg.AdminUsername, AdminPassword: cfg.AdminPassword},
		Collector: collector,
		Now:       time.Now,
	}

	if cfg.AutoSubmit {
		task := scheduler.NewAutoSubmit(scheduler.SystemClock{}, scheduler.AutoSubmitDeps{
			Drafts: manager,
			Digest: orchestrators.AbsenceDigestDeps{Sender: sender, From: cfg.ResendFrom, To: cfg.AdminEmail},
		})
		task.Start(ctx)
		deps.AutoSubmit = task
	}

	handler := web.NewMux(ctx, deps, web.Options{
		CSRFKey:       csrfKey(cfg),
		Secure:        cfg.IsProduction(),
		SlowRequestMs: cfg.SlowRequestMs,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	log.Printf("Congregation %s starting on %s (env=%s, sheet=%s, schema=%d)", version, cfg.Addr, cfg.Env, cfg.SheetBackend, storage.LatestSchemaVersion())

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}
}

// newSheetClient picks the Google Sheets API or the local SQLite table.
// Missing Google credentials are fatal only in production.
func newSheetClient(ctx context.Context, cfg *config.Config, db storage.SQLDB) (sheets.Client, error) {
	if cfg.SheetBackend == config.BackendSQLite {
		log.Println("Sheet backend: local SQLite")
		return sheets.NewSQLiteClient(db), nil
	}
	client, err := sheets.NewGoogleClient(ctx, sheets.Credentials{
		ServiceAccountEmail: cfg.ServiceAccountEmail,
		PrivateKey:          cfg.PrivateKey,
		File:                cfg.CredentialsFile,
	})
	var cfgErr *failure.ConfigurationError
	if errors.As(err, &cfgErr) && !cfg.IsProduction() {
		log.Printf("WARNING: %v; sheet endpoints will fail until credentials are set", err)
		return sheets.UnavailableClient{Err: err}, nil
	}
	if err != nil {
		return nil, err
	}
	return client, nil
}

// csrfKey returns the configured key, or a random one outside production.
func csrfKey(cfg *config.Config) []byte {
	if cfg.CSRFKey != "" {
		return []byte(cfg.CSRFKey)
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		log.Fatalf("failed to generate CSRF key: %v", err)
	}
	log.Println("WARNING: using random CSRF key (tokens won't survive restart). Set CONGREGATION_CSRF_KEY for production.")
	return key
}
