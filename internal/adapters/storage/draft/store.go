package draft

import (
	"context"

	domain "congregation/internal/domain/draft"
)

// Store persists date-keyed draft snapshots.
type Store interface {
	// Get returns the snapshot for date. ok is false when none was saved.
	Get(ctx context.Context, date string) (snap domain.Snapshot, ok bool, err error)
	Save(ctx context.Context, snap domain.Snapshot) error
	// PruneExcept deletes every snapshot whose key is not for date.
	PruneExcept(ctx context.Context, date string) (int, error)
}
