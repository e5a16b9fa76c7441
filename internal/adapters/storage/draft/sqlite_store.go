package draft

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"congregation/internal/adapters/storage"
	domain "congregation/internal/domain/draft"
)

const timeLayout = "2006-01-02T15:04:05Z07:00"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db  storage.SQLDB
	now func() time.Time
}

// NewSQLiteStore creates a new SQLiteStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db, now: time.Now}
}

// Get retrieves the snapshot saved under date's key.
// PRE: date is YYYY-MM-DD
// POST: ok is false and err nil when no snapshot exists
func (s *SQLiteStore) Get(ctx context.Context, date string) (domain.Snapshot, bool, error) {
	var payload string
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM draft_snapshot WHERE snapshot_key = ?`, domain.KeyFor(date)).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Snapshot{}, false, nil
	}
	if err != nil {
		return domain.Snapshot{}, false, fmt.Errorf("load draft snapshot: %w", err)
	}
	var snap domain.Snapshot
	if err := json.Unmarshal([]byte(payload), &snap); err != nil {
		// A corrupt payload behaves like no snapshot.
		slog.Warn("draft_snapshot_corrupt", "date", date, "error", err)
		return domain.Snapshot{}, false, nil
	}
	return snap, true, nil
}

// Save upserts the snapshot under its date's key.
// PRE: snap.Date is YYYY-MM-DD
// POST: Exactly one row exists for the key
func (s *SQLiteStore) Save(ctx context.Context, snap domain.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode draft snapshot: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO draft_snapshot (snapshot_key, snapshot_date, payload, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(snapshot_key) DO UPDATE SET
		   snapshot_date=excluded.snapshot_date, payload=excluded.payload, updated_at=excluded.updated_at`,
		domain.KeyFor(snap.Date), snap.Date, string(payload), s.now().UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("save draft snapshot: %w", err)
	}
	return nil
}

// PruneExcept removes snapshots for any date other than date.
// POST: Returns the number of snapshots removed
func (s *SQLiteStore) PruneExcept(ctx context.Context, date string) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM draft_snapshot WHERE snapshot_key LIKE ? AND snapshot_key != ?`,
		domain.KeyPrefix+"%", domain.KeyFor(date))
	if err != nil {
		return 0, fmt.Errorf("prune draft snapshots: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
