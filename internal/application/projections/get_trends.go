package projections

import (
	"context"
	"sort"
	"time"

	"congregation/internal/domain/attendance"
	"congregation/internal/domain/failure"
)

// Trend periods.
const (
	PeriodWeekly  = "weekly"
	PeriodMonthly = "monthly"
)

// GetTrendsQuery carries input for the trends projection.
type GetTrendsQuery struct {
	Period string // weekly (default) or monthly
}

// GetTrendsDeps holds dependencies for the trends projection.
type GetTrendsDeps struct {
	Records RecordSource
}

// TrendPoint is one bucket of the series.
type TrendPoint struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// GetTrendsResult carries the bucketed series.
type GetTrendsResult struct {
	Trends []TrendPoint `json:"trends"`
	Period string       `json:"period"`
}

// QueryGetTrends buckets per-date counts into weeks starting Sunday or calendar months.
// PRE: query.Period is "", weekly or monthly
// POST: Buckets sorted ascending by key; weekly skips dates that do not parse
func QueryGetTrends(ctx context.Context, query GetTrendsQuery, deps GetTrendsDeps) (GetTrendsResult, error) {
	period := query.Period
	if period == "" {
		period = PeriodWeekly
	}
	if period != PeriodWeekly && period != PeriodMonthly {
		return GetTrendsResult{}, failure.Validation("period must be weekly or monthly")
	}

	records, err := deps.Records.FetchAll(ctx)
	if err != nil {
		return GetTrendsResult{}, err
	}

	buckets := make(map[string]int)
	for date, count := range countByDate(records) {
		key, ok := bucketKey(date, period)
		if !ok {
			continue
		}
		buckets[key] += count
	}

	trends := make([]TrendPoint, 0, len(buckets))
	for k, c := range buckets {
		trends = append(trends, TrendPoint{Date: k, Count: c})
	}
	sort.Slice(trends, func(i, j int) bool { return trends[i].Date < trends[j].Date })
	return GetTrendsResult{Trends: trends, Period: period}, nil
}

func bucketKey(date, period string) (string, bool) {
	if period == PeriodMonthly {
		if len(date) < 7 {
			return "", false
		}
		return date[:7], true
	}
	d, err := time.Parse(attendance.DateLayout, date)
	if err != nil {
		return "", false
	}
	return d.AddDate(0, 0, -int(d.Weekday())).Format(attendance.DateLayout), true
}
