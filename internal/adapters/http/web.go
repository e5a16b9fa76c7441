// Package web serves the attendance JSON API.
package web

import (
	"context"
	"net/http"
	"time"

	"congregation/internal/adapters/http/middleware"
	"congregation/internal/adapters/http/perf"
	"congregation/internal/application/drafts"
	"congregation/internal/application/orchestrators"
	"congregation/internal/domain/attendance"
)

// RecordStore is the sheet capability the API reads and writes.
type RecordStore interface {
	Append(ctx context.Context, rec attendance.Record) error
	FetchAll(ctx context.Context) ([]attendance.Record, error)
}

// Scheduled exposes the next fire time of a scheduled task.
type Scheduled interface {
	Next() time.Time
}

// Deps holds every collaborator the handlers use.
type Deps struct {
	Records    RecordStore
	Drafts     *drafts.Manager
	Guard      *middleware.Guard
	Admin      orchestrators.LoginDeps
	Collector  *perf.Collector
	AutoSubmit Scheduled // nil when the nightly auto-submit is disabled
	Now        func() time.Time
}

// Options tune the middleware chain.
type Options struct {
	CSRFKey            []byte // 32 bytes; nil disables CSRF protection
	Secure             bool   // production: Secure cookies, HTTPS origin checks
	TrustedOrigins     []string
	RateLimitPerSecond int
	SlowRequestMs      int
}

// DefaultRateLimitPerSecond is the per-IP limit when Options leaves it unset.
const DefaultRateLimitPerSecond = 10

type app struct {
	Deps
}

// NewMux wires the HTTP handlers and middleware.
// The rate limiter's sweeper stops when ctx is cancelled.
// PRE: deps.Records, deps.Drafts and deps.Guard are set
func NewMux(ctx context.Context, deps Deps, opts Options) http.Handler {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	a := &app{Deps: deps}

	mux := http.NewServeMux()
	a.registerRoutes(mux)

	rate := opts.RateLimitPerSecond
	if rate <= 0 {
		rate = DefaultRateLimitPerSecond
	}
	limiter := middleware.NewRateLimiter(ctx, rate, time.Second)

	// Chain wraps inside-out: the last entry runs first.
	chain := []func(http.Handler) http.Handler{middleware.SecurityHeaders}
	if len(opts.CSRFKey) > 0 {
		chain = append(chain, middleware.CSRF(opts.CSRFKey, opts.Secure, opts.TrustedOrigins))
	}
	chain = append(chain,
		middleware.Auth(deps.Guard),
		middleware.RateLimit(limiter),
		middleware.Timing(deps.Collector, opts.SlowRequestMs),
	)
	return middleware.Chain(mux, chain...)
}

func (a *app) registerRoutes(mux *http.ServeMux) {
	session := func(h http.HandlerFunc) http.Handler { return middleware.RequireSession(h) }

	mux.HandleFunc("GET /healthz", handleHealthz)

	mux.HandleFunc("POST /attendance", a.handleRecordAttendance)
	mux.Handle("GET /attendance", session(a.handleListAttendance))

	mux.Handle("GET /analytics/summary", session(a.handleSummary))
	mux.Handle("GET /analytics/trends", session(a.handleTrends))
	mux.Handle("GET /analytics/demographics", session(a.handleDemographics))
	mux.Handle("GET /analytics/repeat-visitors", session(a.handleRepeatVisitors))

	mux.HandleFunc("POST /auth/login", a.handleLogin)
	mux.HandleFunc("POST /auth/logout", a.handleLogout)
	mux.HandleFunc("GET /auth/check", a.handleAuthCheck)

	mux.HandleFunc("GET /drafts", a.handleGetDrafts)
	mux.HandleFunc("POST /drafts", a.handleAddDraft)
	mux.HandleFunc("POST /drafts/submit", a.handleSubmitDrafts)
	mux.HandleFunc("POST /drafts/import", a.handleImportDrafts)
	mux.HandleFunc("DELETE /drafts/{id}", a.handleRemoveDraft)
	mux.HandleFunc("PATCH /drafts/{id}", a.handleUpdateDraft)
	mux.HandleFunc("POST /drafts/{id}/edit", a.handleToggleEdit)
	mux.HandleFunc("POST /drafts/{id}/present", a.handleTogglePresent)

	mux.Handle("GET /admin/perf", session(a.handlePerf))
}
