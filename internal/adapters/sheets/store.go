package sheets

import (
	"context"
	"log/slog"
	"slices"

	"congregation/internal/domain/attendance"
	"congregation/internal/domain/failure"
)

// DefaultSheetName is the tab used when Config.SheetName is empty.
const DefaultSheetName = "Sheet1"

const emailHeader = "Email"

// Config addresses the workbook tab holding attendance rows.
type Config struct {
	SpreadsheetID string
	SheetName     string
}

// Store keeps attendance records in a spreadsheet tab.
// Row 1 is the header; data starts at row 2 and is append-only.
type Store struct {
	cfg    Config
	client Client
}

// NewStore binds a Client to a spreadsheet tab.
// Configuration problems surface on first use, not here.
func NewStore(cfg Config, client Client) *Store {
	if cfg.SheetName == "" {
		cfg.SheetName = DefaultSheetName
	}
	return &Store{cfg: cfg, client: client}
}

func (s *Store) validate() error {
	if s.client == nil {
		return failure.Configuration("Google Sheets credentials not configured")
	}
	if s.cfg.SpreadsheetID == "" {
		return failure.Configuration("Google Sheets spreadsheet ID not configured")
	}
	return nil
}

func (s *Store) rng(cells string) string {
	return "'" + s.cfg.SheetName + "'!" + cells
}

// EnsureSchema makes row 1 a valid header, starting with every base column in
// order, adding a tracking column named attendanceDate when it is non-empty and
// missing. Stray cells left over from a repaired header are blanked. Calling it again is a no-op.
// Concurrent callers may race on the header write; the last writer wins.
// PRE: Store configured
// POST: Returns the header row as stored
func (s *Store) EnsureSchema(ctx context.Context, attendanceDate string) ([]string, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}
	values, err := s.client.Get(ctx, s.cfg.SpreadsheetID, s.rng("1:1"))
	if err != nil {
		return nil, failure.Remote("read header", err)
	}
	var headers []string
	if len(values) > 0 {
		headers = values[0]
	}

	changed := false
	if !hasBaseHeaders(headers) {
		if len(headers) > 0 {
			slog.Warn("sheet_header_reset", "sheet", s.cfg.SheetName, "found", headers)
		}
		headers = repairHeaders(headers)
		changed = true
	}
	if attendanceDate != "" && !slices.Contains(headers, attendanceDate) {
		headers = append(headers, attendanceDate)
		changed = true
	}
	if !changed {
		return headers, nil
	}

	row := headers
	if len(values) > 0 && len(values[0]) > len(row) {
		row = append(slices.Clone(headers), make([]string, len(values[0])-len(headers))...)
	}
	last := ColumnLetter(len(row))
	if err := s.client.Update(ctx, s.cfg.SpreadsheetID, s.rng("A1:"+last+"1"), [][]string{row}); err != nil {
		return nil, failure.Remote("write header", err)
	}
	slog.Info("sheet_header_written", "sheet", s.cfg.SheetName, "columns", len(headers))
	return headers, nil
}

func hasBaseHeaders(headers []string) bool {
	n := len(attendance.BaseHeaders)
	return len(headers) >= n && slices.Equal(headers[:n], attendance.BaseHeaders)
}

// repairHeaders rebuilds the base prefix, keeping any date-named tracking
// columns and the Email column found in the old row.
func repairHeaders(old []string) []string {
	headers := slices.Clone(attendance.BaseHeaders)
	for _, h := range old {
		if (h == emailHeader || attendance.IsAttendanceDate(h)) && !slices.Contains(headers, h) {
			headers = append(headers, h)
		}
	}
	return headers
}

// Append writes one record as a new row positioned by header order.
// The status lands in the column named by the record's attendance date.
// The header update and the append are separate calls and are not atomic.
// PRE: rec has been validated
// POST: One row appended, or a Configuration/RemoteServiceError; never retried
func (s *Store) Append(ctx context.Context, rec attendance.Record) error {
	if err := s.validate(); err != nil {
		return err
	}
	rec.Normalize()
	headers, err := s.EnsureSchema(ctx, rec.AttendanceDate)
	if err != nil {
		return err
	}

	row := make([]string, len(headers))
	for i, h := range headers {
		switch {
		case h == "Date":
			row[i] = rec.Date
		case h == "Name":
			row[i] = rec.Name
		case h == "Phone":
			row[i] = rec.Phone
		case h == "Location":
			row[i] = rec.Location
		case h == "Birthday":
			row[i] = rec.Birthday
		case h == "Fellowship":
			row[i] = rec.Fellowship
		case h == "First Timer":
			row[i] = rec.FirstTimerCell()
		case h == emailHeader:
			row[i] = rec.Email
		case rec.AttendanceDate != "" && h == rec.AttendanceDate:
			row[i] = rec.Status
		}
	}

	rng := s.rng("A:" + ColumnLetter(len(row)))
	if err := s.client.Append(ctx, s.cfg.SpreadsheetID, rng, [][]string{row}); err != nil {
		return failure.Remote("append row", err)
	}
	return nil
}

// FetchAll returns every stored record in storage order.
// Rows shorter than attendance.MinStoredColumns are skipped; missing cells read as "".
// AttendanceDate and Status come from the first non-empty tracking cell.
// PRE: Store configured
// POST: Header row exists; returned slice is non-nil
func (s *Store) FetchAll(ctx context.Context) ([]attendance.Record, error) {
	headers, err := s.EnsureSchema(ctx, "")
	if err != nil {
		return nil, err
	}
	width := max(len(headers), len(attendance.BaseHeaders))
	rows, err := s.client.Get(ctx, s.cfg.SpreadsheetID, s.rng("A2:"+ColumnLetter(width)))
	if err != nil {
		return nil, failure.Remote("read rows", err)
	}

	records := make([]attendance.Record, 0, len(rows))
	for _, row := range rows {
		if len(row) < attendance.MinStoredColumns {
			continue
		}
		records = append(records, decodeRow(headers, row))
	}
	return records, nil
}

func decodeRow(headers, row []string) attendance.Record {
	cell := func(i int) string {
		if i < len(row) {
			return row[i]
		}
		return ""
	}
	rec := attendance.Record{
		Date:       cell(0),
		Name:       cell(1),
		Phone:      cell(2),
		Location:   cell(3),
		Birthday:   cell(4),
		Fellowship: cell(5),
		FirstTimer: attendance.ParseFirstTimer(cell(6)),
	}
	for i := len(attendance.BaseHeaders); i < len(headers); i++ {
		h := headers[i]
		if h == emailHeader {
			rec.Email = cell(i)
			continue
		}
		if h == "" || attendance.IsBaseHeader(h) || rec.AttendanceDate != "" {
			continue
		}
		if v := cell(i); v != "" {
			rec.AttendanceDate = h
			rec.Status = v
		}
	}
	return rec
}
