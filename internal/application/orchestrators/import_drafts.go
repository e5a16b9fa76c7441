package orchestrators

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"congregation/internal/adapters/spreadsheetfile"
	"congregation/internal/domain/draft"
	"congregation/internal/domain/failure"
)

// ImportDraftsInput carries an uploaded attendance list.
type ImportDraftsInput struct {
	Filename string
	Data     []byte
}

// ImportDraftsDeps holds dependencies for ImportDrafts.
type ImportDraftsDeps struct {
	GenerateID func() string
}

// importColumns holds the header index of each recognised column, -1 when absent.
type importColumns struct {
	name, contact, phone, location, birthday, fellowship, firstTimer int
}

var firstTimerTruthy = map[string]bool{"yes": true, "true": true, "1": true, "y": true, "checked": true}

// ExecuteImportDrafts turns an .xlsx or .csv attendance list into draft entries.
// Header matching is case-insensitive substring matching on row 1.
// PRE: input.Filename carries the upload's extension
// POST: Returns at least one entry with a fresh ID, or a ValidationError; nothing is persisted here
func ExecuteImportDrafts(_ context.Context, input ImportDraftsInput, deps ImportDraftsDeps) ([]draft.Entry, error) {
	rows, err := spreadsheetfile.Read(input.Filename, input.Data)
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, failure.Validation("File must have at least a header row and one data row")
	}

	cols := matchImportColumns(rows[0])
	if cols.name < 0 || cols.location < 0 || cols.birthday < 0 || cols.fellowship < 0 {
		return nil, failure.Validation("File must have columns: Name, Location, Birthday, Fellowship (Contact/Phone and First Timer are optional)")
	}

	fromWorkbook := strings.ToLower(filepath.Ext(input.Filename)) != ".csv"
	var entries []draft.Entry
	for _, row := range rows[1:] {
		if len(row) == 0 {
			continue
		}
		cell := func(i int) string {
			if i < 0 || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		name := cell(cols.name)
		if name == "" {
			continue
		}
		phone := cell(cols.contact)
		if p := cell(cols.phone); p != "" {
			phone = p
		}
		entries = append(entries, draft.Entry{
			ID:         deps.GenerateID(),
			Name:       name,
			Phone:      phone,
			Location:   cell(cols.location),
			Birthday:   NormalizeBirthday(cell(cols.birthday), fromWorkbook),
			Fellowship: cell(cols.fellowship),
			FirstTimer: firstTimerTruthy[strings.ToLower(cell(cols.firstTimer))],
		})
	}

	if len(entries) == 0 {
		return nil, failure.Validation("No valid entries found in file")
	}
	slog.Info("drafts_imported", "file", input.Filename, "rows", len(rows)-1, "entries", len(entries))
	return entries, nil
}

func matchImportColumns(header []string) importColumns {
	lower := make([]string, len(header))
	for i, h := range header {
		lower[i] = strings.ToLower(strings.TrimSpace(h))
	}
	find := func(skip int, needles ...string) int {
		for i, h := range lower {
			if i == skip {
				continue
			}
			for _, n := range needles {
				if strings.Contains(h, n) {
					return i
				}
			}
		}
		return -1
	}
	cols := importColumns{
		name:       find(-1, "name"),
		contact:    find(-1, "contact"),
		phone:      find(-1, "phone"),
		location:   find(-1, "location"),
		birthday:   find(-1, "birthday", "birth", "dob", "date of birth"),
		fellowship: find(-1, "fellowship"),
	}
	// "First Name" must not double as the first-timer flag.
	cols.firstTimer = find(cols.name, "first", "timer", "new")
	return cols
}

var (
	dayMonthYear = regexp.MustCompile(`(\d{1,2})[-/](\d{1,2})[-/](\d{4})`)
	yearMonthDay = regexp.MustCompile(`(\d{4})[-/](\d{1,2})[-/](\d{1,2})`)
	dayMonth     = regexp.MustCompile(`(\d{1,2})[-/](\d{1,2})`)
)

var textualBirthdayLayouts = []string{
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
	"January 2",
	"Jan 2",
	"2 January",
	"2 Jan",
}

// NormalizeBirthday reduces a birthday cell to DD-MM.
// Workbook cells that are plain numbers are read as Excel date serials.
// Values that match no known shape are returned unchanged.
func NormalizeBirthday(raw string, fromWorkbook bool) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if fromWorkbook {
		if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 {
			if t, err := excelize.ExcelDateToTime(serial, false); err == nil {
				return dayMonthString(t.Day(), int(t.Month()))
			}
		}
	}
	if m := dayMonthYear.FindStringSubmatch(s); m != nil {
		return padDayMonth(m[1], m[2])
	}
	if m := yearMonthDay.FindStringSubmatch(s); m != nil {
		return padDayMonth(m[3], m[2])
	}
	if m := dayMonth.FindStringSubmatch(s); m != nil {
		return padDayMonth(m[1], m[2])
	}
	for _, layout := range textualBirthdayLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return dayMonthString(t.Day(), int(t.Month()))
		}
	}
	return s
}

func padDayMonth(day, month string) string {
	d, _ := strconv.Atoi(day)
	m, _ := strconv.Atoi(month)
	return dayMonthString(d, m)
}

func dayMonthString(day, month int) string {
	return fmt.Sprintf("%02d-%02d", day, month)
}
