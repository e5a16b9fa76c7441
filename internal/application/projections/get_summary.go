package projections

import (
	"context"
	"math"
	"sort"
	"strings"
)

// GetSummaryDeps holds dependencies for the summary projection.
type GetSummaryDeps struct {
	Records RecordSource
}

// GetSummaryResult carries the headline attendance figures.
type GetSummaryResult struct {
	TotalAttendance   int    `json:"totalAttendance"`
	UniqueVisitors    int    `json:"uniqueVisitors"`
	RepeatVisitors    int    `json:"repeatVisitors"`
	TotalServices     int    `json:"totalServices"`
	LatestDate        string `json:"latestDate,omitempty"`
	LatestAttendance  int    `json:"latestAttendance"`
	AverageAttendance int    `json:"averageAttendance"`
}

// QueryGetSummary computes totals over every stored record.
// PRE: deps.Records is set
// POST: UniqueVisitors counts distinct non-empty normalized phones; RepeatVisitors = total - unique;
// AverageAttendance = round(total / distinct dates), 0 with no records
func QueryGetSummary(ctx context.Context, deps GetSummaryDeps) (GetSummaryResult, error) {
	records, err := deps.Records.FetchAll(ctx)
	if err != nil {
		return GetSummaryResult{}, err
	}

	phones := make(map[string]struct{})
	for _, r := range records {
		if p := strings.ToLower(strings.TrimSpace(r.Phone)); p != "" {
			phones[p] = struct{}{}
		}
	}

	byDate := countByDate(records)
	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	res := GetSummaryResult{
		TotalAttendance: len(records),
		UniqueVisitors:  len(phones),
		RepeatVisitors:  len(records) - len(phones),
		TotalServices:   len(dates),
	}
	if len(dates) > 0 {
		res.LatestDate = dates[len(dates)-1]
		res.LatestAttendance = byDate[res.LatestDate]
		res.AverageAttendance = int(math.Round(float64(len(records)) / float64(len(dates))))
	}
	return res, nil
}
