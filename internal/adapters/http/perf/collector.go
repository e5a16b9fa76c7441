package perf

import (
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultRingSize is the default capacity of the ring buffer.
const DefaultRingSize = 5000

// EntryKind distinguishes what was timed.
type EntryKind uint8

const (
	KindRequest    EntryKind = iota // inbound HTTP request
	KindSheetCall                   // call to the spreadsheet API
	KindStoreQuery                  // local SQLite statement
)

// String names the kind for JSON output and logs.
func (k EntryKind) String() string {
	switch k {
	case KindRequest:
		return "request"
	case KindSheetCall:
		return "sheet_call"
	case KindStoreQuery:
		return "store_query"
	default:
		return "unknown"
	}
}

// Entry is a single timing record stored in the ring buffer.
type Entry struct {
	Kind       EntryKind
	Label      string // "GET /analytics/summary", "sheets.Append", "QueryContext"
	StatusCode int    // HTTP status, 0 for non-requests
	Failed     bool
	DurationMs float64
	Timestamp  time.Time
}

// Collector is a fixed-size ring buffer of timing entries.
// Writes overwrite the oldest entry once full; aggregation happens on read.
type Collector struct {
	mu      sync.Mutex
	entries []Entry
	pos     int
	total   int64
}

// NewCollector creates a collector with the given capacity.
// PRE: size > 0, otherwise DefaultRingSize is used
// POST: Returns a ready-to-use collector
func NewCollector(size int) *Collector {
	if size <= 0 {
		size = DefaultRingSize
	}
	return &Collector{entries: make([]Entry, size)}
}

// Record stores an entry, overwriting the oldest when the buffer is full.
func (c *Collector) Record(e Entry) {
	c.mu.Lock()
	c.entries[c.pos] = e
	c.pos = (c.pos + 1) % len(c.entries)
	c.mu.Unlock()
	atomic.AddInt64(&c.total, 1)
}

// TotalRecorded returns the number of entries ever recorded.
func (c *Collector) TotalRecorded() int64 {
	return atomic.LoadInt64(&c.total)
}

// LabelStat aggregates timings for one label.
type LabelStat struct {
	Label    string  `json:"label"`
	Count    int     `json:"count"`
	Failures int     `json:"failures"`
	AvgMs    float64 `json:"avgMs"`
	MaxMs    float64 `json:"maxMs"`
	totalMs  float64
}

// Snapshot is the aggregated view served on the admin perf endpoint.
type Snapshot struct {
	TotalRecorded int64                  `json:"totalRecorded"`
	RequestP50Ms  float64                `json:"requestP50Ms"`
	RequestP95Ms  float64                `json:"requestP95Ms"`
	Slowest       map[string][]LabelStat `json:"slowest"` // keyed by EntryKind.String()
}

// Snapshot aggregates entries newer than since, keeping the topN slowest labels per kind.
// PRE: topN > 0
// POST: Returns percentiles for requests and per-kind slowest labels
func (c *Collector) Snapshot(since time.Time, topN int) Snapshot {
	c.mu.Lock()
	buf := make([]Entry, len(c.entries))
	copy(buf, c.entries)
	c.mu.Unlock()

	byKind := make(map[EntryKind]map[string]*LabelStat)
	var requestDurations []float64

	for _, e := range buf {
		if e.Timestamp.IsZero() || e.Timestamp.Before(since) {
			continue
		}
		if e.Kind == KindRequest {
			requestDurations = append(requestDurations, e.DurationMs)
		}
		stats, ok := byKind[e.Kind]
		if !ok {
			stats = make(map[string]*LabelStat)
			byKind[e.Kind] = stats
		}
		s, ok := stats[e.Label]
		if !ok {
			s = &LabelStat{Label: e.Label}
			stats[e.Label] = s
		}
		s.Count++
		s.totalMs += e.DurationMs
		if e.Failed {
			s.Failures++
		}
		if e.DurationMs > s.MaxMs {
			s.MaxMs = e.DurationMs
		}
	}

	snap := Snapshot{
		TotalRecorded: c.TotalRecorded(),
		Slowest:       make(map[string][]LabelStat, len(byKind)),
	}
	for kind, stats := range byKind {
		snap.Slowest[kind.String()] = topByAvg(stats, topN)
	}
	if len(requestDurations) > 0 {
		sort.Float64s(requestDurations)
		snap.RequestP50Ms = percentile(requestDurations, 50)
		snap.RequestP95Ms = percentile(requestDurations, 95)
	}
	return snap
}

// percentile interpolates the p-th percentile of a sorted slice.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (p / 100) * float64(len(sorted)-1)
	lower := int(math.Floor(idx))
	upper := int(math.Ceil(idx))
	if lower == upper {
		return sorted[lower]
	}
	frac := idx - float64(lower)
	return sorted[lower]*(1-frac) + sorted[upper]*frac
}

func topByAvg(stats map[string]*LabelStat, n int) []LabelStat {
	list := make([]LabelStat, 0, len(stats))
	for _, s := range stats {
		s.AvgMs = s.totalMs / float64(s.Count)
		list = append(list, *s)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].AvgMs != list[j].AvgMs {
			return list[i].AvgMs > list[j].AvgMs
		}
		return list[i].Label < list[j].Label
	})
	if len(list) > n {
		list = list[:n]
	}
	return list
}
