package projections

import (
	"context"
	"math"
	"sort"
	"strings"

	"congregation/internal/domain/attendance"
	"congregation/internal/domain/failure"
)

// Repeat-visitor grouping keys.
const (
	VisitorKeyPhone = "phone"
	VisitorKeyEmail = "email"
)

// MaxRepeatVisitors caps the ranking.
const MaxRepeatVisitors = 50

// GetRepeatVisitorsQuery carries input for the repeat-visitor projection.
type GetRepeatVisitorsQuery struct {
	Key string // phone (default) or email
}

// GetRepeatVisitorsDeps holds dependencies for the repeat-visitor projection.
type GetRepeatVisitorsDeps struct {
	Records RecordSource
}

// RepeatVisitor is one ranked visitor.
type RepeatVisitor struct {
	Name      string `json:"name"`
	Key       string `json:"key"`
	Phone     string `json:"phone,omitempty"`
	Email     string `json:"email,omitempty"`
	Count     int    `json:"count"`
	LastVisit string `json:"lastVisit"`
}

// RepeatVisitorStats summarises the grouping.
type RepeatVisitorStats struct {
	TotalUniqueVisitors int     `json:"totalUniqueVisitors"`
	TotalRepeatVisitors int     `json:"totalRepeatVisitors"`
	AverageVisits       float64 `json:"averageVisits"`
}

// GetRepeatVisitorsResult carries the ranking and statistics.
type GetRepeatVisitorsResult struct {
	Key            string             `json:"key"`
	RepeatVisitors []RepeatVisitor    `json:"repeatVisitors"`
	Statistics     RepeatVisitorStats `json:"statistics"`
}

// QueryGetRepeatVisitors ranks visitors seen more than once, grouped by a normalized key.
// Records with an empty key are ignored. The first-seen name labels the group.
// PRE: query.Key is "", phone or email
// POST: At most MaxRepeatVisitors entries, count descending; AverageVisits rounded to 2 decimals
func QueryGetRepeatVisitors(ctx context.Context, query GetRepeatVisitorsQuery, deps GetRepeatVisitorsDeps) (GetRepeatVisitorsResult, error) {
	key := query.Key
	if key == "" {
		key = VisitorKeyPhone
	}
	var keyOf func(attendance.Record) string
	switch key {
	case VisitorKeyPhone:
		keyOf = func(r attendance.Record) string { return r.Phone }
	case VisitorKeyEmail:
		keyOf = func(r attendance.Record) string { return r.Email }
	default:
		return GetRepeatVisitorsResult{}, failure.Validation("key must be phone or email")
	}

	records, err := deps.Records.FetchAll(ctx)
	if err != nil {
		return GetRepeatVisitorsResult{}, err
	}

	groups := make(map[string]*RepeatVisitor)
	order := make([]string, 0)
	keyed := 0
	for _, r := range records {
		k := strings.ToLower(strings.TrimSpace(keyOf(r)))
		if k == "" {
			continue
		}
		keyed++
		g, ok := groups[k]
		if !ok {
			g = &RepeatVisitor{Name: r.Name, Key: k, Phone: r.Phone, Email: r.Email, LastVisit: r.Date}
			groups[k] = g
			order = append(order, k)
		}
		g.Count++
		if r.Date > g.LastVisit {
			g.LastVisit = r.Date
		}
	}

	repeats := make([]RepeatVisitor, 0)
	for _, k := range order {
		if g := groups[k]; g.Count > 1 {
			repeats = append(repeats, *g)
		}
	}
	// Stable keeps first-seen order among equal counts.
	sort.SliceStable(repeats, func(i, j int) bool { return repeats[i].Count > repeats[j].Count })

	res := GetRepeatVisitorsResult{
		Key: key,
		Statistics: RepeatVisitorStats{
			TotalUniqueVisitors: len(groups),
			TotalRepeatVisitors: len(repeats),
		},
	}
	if len(groups) > 0 {
		res.Statistics.AverageVisits = math.Round(float64(keyed)/float64(len(groups))*100) / 100
	}
	if len(repeats) > MaxRepeatVisitors {
		repeats = repeats[:MaxRepeatVisitors]
	}
	res.RepeatVisitors = repeats
	return res, nil
}
