package projections

import (
	"context"

	"congregation/internal/domain/attendance"
)

// RecordSource supplies the full attendance record set. Every query recomputes from it; nothing is cached.
type RecordSource interface {
	FetchAll(ctx context.Context) ([]attendance.Record, error)
}

// countByDate tallies records per creation date.
func countByDate(records []attendance.Record) map[string]int {
	counts := make(map[string]int)
	for _, r := range records {
		counts[r.Date]++
	}
	return counts
}
