package projections

import (
	"context"
	"sort"
	"strings"
	"time"
)

// UnknownLocation labels records with a blank location.
const UnknownLocation = "Unknown"

// ageBands are inclusive upper bounds in display order; the last band is open-ended.
var ageBands = []struct {
	label string
	max   int
}{
	{"0-17", 17},
	{"18-25", 25},
	{"26-35", 35},
	{"36-50", 50},
	{"51-65", 65},
	{"66+", -1},
}

// Birthdays with a year. Numeric forms are day-first, matching how the entry desk writes them.
var birthdayLayouts = []string{
	"2006-1-2",
	"2006/1/2",
	"2-1-2006",
	"2/1/2006",
	"2.1.2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
}

// GetDemographicsQuery carries input for the demographics projection.
type GetDemographicsQuery struct {
	Now time.Time // optional: if zero, time.Now() is used
}

// GetDemographicsDeps holds dependencies for the demographics projection.
type GetDemographicsDeps struct {
	Records RecordSource
}

// LocationCount is one location histogram bar.
type LocationCount struct {
	Location string `json:"location"`
	Count    int    `json:"count"`
}

// AgeGroupCount is one age histogram bar.
type AgeGroupCount struct {
	AgeGroup string `json:"ageGroup"`
	Count    int    `json:"count"`
}

// GetDemographicsResult carries both histograms.
type GetDemographicsResult struct {
	Locations []LocationCount `json:"locations"`
	AgeGroups []AgeGroupCount `json:"ageGroups"`
}

// QueryGetDemographics builds location and age-group histograms.
// PRE: deps.Records is set
// POST: Locations sorted by count descending then name; empty age bands omitted;
// birthdays without a parseable year are skipped silently
func QueryGetDemographics(ctx context.Context, query GetDemographicsQuery, deps GetDemographicsDeps) (GetDemographicsResult, error) {
	now := query.Now
	if now.IsZero() {
		now = time.Now()
	}

	records, err := deps.Records.FetchAll(ctx)
	if err != nil {
		return GetDemographicsResult{}, err
	}

	locations := make(map[string]int)
	bands := make([]int, len(ageBands))
	for _, r := range records {
		loc := strings.TrimSpace(r.Location)
		if loc == "" {
			loc = UnknownLocation
		}
		locations[loc]++

		age, ok := AgeOn(r.Birthday, now)
		if !ok {
			continue
		}
		bands[ageBand(age)]++
	}

	res := GetDemographicsResult{
		Locations: make([]LocationCount, 0, len(locations)),
		AgeGroups: []AgeGroupCount{},
	}
	for l, c := range locations {
		res.Locations = append(res.Locations, LocationCount{Location: l, Count: c})
	}
	sort.Slice(res.Locations, func(i, j int) bool {
		if res.Locations[i].Count != res.Locations[j].Count {
			return res.Locations[i].Count > res.Locations[j].Count
		}
		return res.Locations[i].Location < res.Locations[j].Location
	})
	for i, c := range bands {
		if c > 0 {
			res.AgeGroups = append(res.AgeGroups, AgeGroupCount{AgeGroup: ageBands[i].label, Count: c})
		}
	}
	return res, nil
}

// AgeOn returns the age in whole years on now for a birthday that carries a year.
// Birthdays without a year and unparseable text report ok=false. A future date
// reads as age 0.
func AgeOn(birthday string, now time.Time) (int, bool) {
	s := strings.TrimSpace(birthday)
	if s == "" {
		return 0, false
	}
	var born time.Time
	parsed := false
	for _, layout := range birthdayLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			born, parsed = t, true
			break
		}
	}
	if !parsed {
		return 0, false
	}
	age := now.Year() - born.Year()
	if now.Month() < born.Month() || (now.Month() == born.Month() && now.Day() < born.Day()) {
		age--
	}
	return max(age, 0), true
}

func ageBand(age int) int {
	for i, b := range ageBands {
		if b.max >= 0 && age <= b.max {
			return i
		}
	}
	return len(ageBands) - 1
}
