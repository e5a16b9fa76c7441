// Package drafts runs the entry-desk draft board: a day's working set of
// attendance entries, persisted after every change and submitted to the sheet.
package drafts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	draftStore "congregation/internal/adapters/storage/draft"
	"congregation/internal/application/orchestrators"
	"congregation/internal/domain/attendance"
	"congregation/internal/domain/draft"
	"congregation/internal/domain/failure"
)

// RecordStore is the sheet capability the board submits to.
type RecordStore interface {
	Append(ctx context.Context, rec attendance.Record) error
	FetchAll(ctx context.Context) ([]attendance.Record, error)
}

// Deps holds the Manager's collaborators.
type Deps struct {
	Snapshots draftStore.Store
	Records   RecordStore
	Now       func() time.Time
	NewID     func() string
}

// State is the board as served to the entry desk.
type State struct {
	Date          string        `json:"date"`
	Entries       []draft.Entry `json:"entries"`
	MarkedPresent []string      `json:"markedPresent"`
	EditingID     string        `json:"editingId,omitempty"`
}

// SubmitResult reports one submit run.
type SubmitResult struct {
	Date         string              `json:"date"`
	Status       string              `json:"status"`
	Submitted    []attendance.Record `json:"-"`
	Count        int                 `json:"count"`
	PresentCount int                 `json:"presentCount"`
}

// Manager owns the board for the current day. All methods are safe for concurrent use.
// INVARIANT: the board always holds at least one entry
type Manager struct {
	mu        sync.Mutex
	deps      Deps
	board     *draft.Board
	date      string
	submitted []attendance.Record
}

// NewManager creates a Manager. The board is loaded lazily on first use or by Load.
func NewManager(deps Deps) *Manager {
	return &Manager{deps: deps}
}

func (m *Manager) today() string {
	return m.deps.Now().Format(attendance.DateLayout)
}

// Load prunes snapshots from other days and restores today's, if any.
// A snapshot whose embedded date is not today is ignored. Load does not save.
// POST: Board holds today's entries, or one empty entry and no present marks
func (m *Manager) Load(ctx context.Context) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.load(ctx); err != nil {
		return State{}, err
	}
	return m.state(), nil
}

func (m *Manager) load(ctx context.Context) error {
	today := m.today()
	if n, err := m.deps.Snapshots.PruneExcept(ctx, today); err != nil {
		slog.Warn("draft_prune_failed", "date", today, "error", err)
	} else if n > 0 {
		slog.Info("drafts_pruned", "date", today, "removed", n)
	}

	snap, ok, err := m.deps.Snapshots.Get(ctx, today)
	if err != nil {
		return err
	}
	if ok && snap.Date == today {
		m.board = draft.FromSnapshot(snap, m.deps.NewID)
	} else {
		m.board = draft.NewBoard(m.deps.NewID)
	}
	m.date = today
	return nil
}

// ensureDay reloads when the calendar day has changed since the last load.
func (m *Manager) ensureDay(ctx context.Context) error {
	if m.board != nil && m.date == m.today() {
		return nil
	}
	return m.load(ctx)
}

func (m *Manager) persist(ctx context.Context) error {
	if err := m.deps.Snapshots.Save(ctx, m.board.Snapshot(m.date)); err != nil {
		return fmt.Errorf("persist drafts: %w", err)
	}
	return nil
}

func (m *Manager) state() State {
	snap := m.board.Snapshot(m.date)
	return State{
		Date:          snap.Date,
		Entries:       snap.Entries,
		MarkedPresent: snap.MarkedPresent,
		EditingID:     m.board.EditingID,
	}
}

// mutate runs fn against today's board and saves the result.
func (m *Manager) mutate(ctx context.Context, fn func(b *draft.Board) error) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.ensureDay(ctx); err != nil {
		return State{}, err
	}
	if err := fn(m.board); err != nil {
		return State{}, err
	}
	if err := m.persist(ctx); err != nil {
		return State{}, err
	}
	return m.state(), nil
}

// State returns the current board without modifying it.
func (m *Manager) State(ctx context.Context) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.ensureDay(ctx); err != nil {
		return State{}, err
	}
	return m.state(), nil
}

// AddDraft prepends an empty entry.
func (m *Manager) AddDraft(ctx context.Context) (State, error) {
	return m.mutate(ctx, func(b *draft.Board) error {
		b.Add()
		return nil
	})
}

// RemoveDraft deletes an entry when more than one remains.
// Removing the last entry is a no-op rather than an error.
func (m *Manager) RemoveDraft(ctx context.Context, id string) (State, error) {
	return m.mutate(ctx, func(b *draft.Board) error {
		b.Remove(id)
		return nil
	})
}

// ToggleEdit enters or leaves edit mode for an entry.
func (m *Manager) ToggleEdit(ctx context.Context, id string) (State, error) {
	return m.mutate(ctx, func(b *draft.Board) error {
		return b.ToggleEdit(id)
	})
}

// UpdateField changes one field of the entry in edit mode.
func (m *Manager) UpdateField(ctx context.Context, id, field, value string) (State, error) {
	return m.mutate(ctx, func(b *draft.Board) error {
		_, err := b.Update(id, field, value)
		return err
	})
}

// TogglePresent flips an entry's present mark.
func (m *Manager) TogglePresent(ctx context.Context, id string) (State, error) {
	return m.mutate(ctx, func(b *draft.Board) error {
		_, err := b.TogglePresent(id)
		return err
	})
}

// Import replaces every entry with those parsed from an uploaded list.
// A failed import leaves the board untouched.
func (m *Manager) Import(ctx context.Context, filename string, data []byte) (State, error) {
	entries, err := orchestrators.ExecuteImportDrafts(ctx,
		orchestrators.ImportDraftsInput{Filename: filename, Data: data},
		orchestrators.ImportDraftsDeps{GenerateID: m.deps.NewID})
	if err != nil {
		return State{}, err
	}
	return m.mutate(ctx, func(b *draft.Board) error {
		b.Replace(entries)
		return nil
	})
}

// Submitted returns the record set fetched after the last successful submit.
func (m *Manager) Submitted() []attendance.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]attendance.Record(nil), m.submitted...)
}

// SubmitPresent appends every complete entry marked present with status present.
// Appends run in parallel and are all awaited; an entry that fails validation
// does not stop the others. On full success the submitted entries leave the
// board and the record set is re-fetched. On any failure the board is unchanged
// and a single aggregate error is returned; rows that did append stay in the
// sheet, so resubmitting can duplicate them.
// PRE: none
// POST: ValidationError with zero remote calls when nothing qualifies
func (m *Manager) SubmitPresent(ctx context.Context) (SubmitResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.ensureDay(ctx); err != nil {
		return SubmitResult{}, err
	}

	entries := m.board.Qualifying(true)
	if len(entries) == 0 {
		return SubmitResult{}, failure.Validation("Please mark at least one complete entry as present")
	}
	records, err := m.appendAll(ctx, entries, attendance.StatusPresent)
	if err != nil {
		if len(records) > 0 {
			m.finish(ctx, records, attendance.StatusPresent)
		}
		return SubmitResult{}, err
	}

	m.board.Discard(entries)
	if err := m.persist(ctx); err != nil {
		slog.Error("draft_persist_failed", "date", m.date, "error", err)
	}
	slog.Info("drafts_submitted", "date", m.date, "status", attendance.StatusPresent, "count", len(records))
	return m.finish(ctx, records, attendance.StatusPresent), nil
}

// SubmitAbsent appends every complete entry not marked present with status absent.
// Entries stay on the board. It is the body of the nightly auto-submit.
// On partial failure the result still reports the rows that were appended,
// alongside the aggregate error.
// POST: Zero qualifying entries is not an error
func (m *Manager) SubmitAbsent(ctx context.Context) (SubmitResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.ensureDay(ctx); err != nil {
		return SubmitResult{}, err
	}

	entries := m.board.Qualifying(false)
	if len(entries) == 0 {
		slog.Info("auto_submit_nothing_absent", "date", m.date)
		return m.finish(ctx, nil, attendance.StatusAbsent), nil
	}
	records, err := m.appendAll(ctx, entries, attendance.StatusAbsent)
	slog.Info("drafts_submitted", "date", m.date, "status", attendance.StatusAbsent, "count", len(records))
	return m.finish(ctx, records, attendance.StatusAbsent), err
}

// finish refreshes the submitted record set. A failed refresh is logged, never returned.
func (m *Manager) finish(ctx context.Context, records []attendance.Record, status string) SubmitResult {
	res := SubmitResult{Date: m.date, Status: status, Submitted: records, Count: len(records)}
	all, err := m.deps.Records.FetchAll(ctx)
	if err != nil {
		slog.Warn("submitted_refresh_failed", "date", m.date, "error", err)
		return res
	}
	m.submitted = all
	for _, r := range all {
		if r.AttendanceDate == m.date && r.Status == attendance.StatusPresent {
			res.PresentCount++
		}
	}
	return res
}

// appendAll appends one record per entry concurrently and waits for all of them.
// A record that fails validation is counted as failed without a remote call; the
// rest are still appended. The returned slice holds only the appended records.
// The aggregate error is a ValidationError only when every failure was one.
func (m *Manager) appendAll(ctx context.Context, entries []draft.Entry, status string) ([]attendance.Record, error) {
	records := make([]attendance.Record, len(entries))
	invalid := make([]string, len(entries))
	errs := make([]error, len(entries))
	var wg sync.WaitGroup
	for i, e := range entries {
		records[i] = e.ToRecord(m.date, status)
		if err := records[i].Validate(); err != nil {
			invalid[i] = records[i].Name + ": " + err.Error()
			continue
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = m.deps.Records.Append(ctx, records[i])
		}(i)
	}
	wg.Wait()

	var (
		appended []attendance.Record
		reasons  []string
		remote   []error
	)
	for i := range records {
		switch {
		case invalid[i] != "":
			reasons = append(reasons, invalid[i])
		case errs[i] != nil:
			remote = append(remote, errs[i])
		default:
			appended = append(appended, records[i])
		}
	}
	failed := len(reasons) + len(remote)
	if failed == 0 {
		return appended, nil
	}
	slog.Error("drafts_submit_partial", "date", m.date, "status", status,
		"failed", failed, "invalid", len(reasons), "total", len(records))
	summary := fmt.Sprintf("%d of %d entries failed to submit", failed, len(records))
	if len(remote) == 0 {
		return appended, failure.Validation(summary + ": " + strings.Join(reasons, "; "))
	}
	for _, r := range reasons {
		remote = append(remote, errors.New(r))
	}
	return appended, fmt.Errorf("%s: %w", summary, errors.Join(remote...))
}
