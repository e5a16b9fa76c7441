package attendance

import (
	"regexp"
	"strings"
	"time"

	"congregation/internal/domain/failure"
)

// DateLayout is the ISO calendar date format used for every date column.
const DateLayout = "2006-01-02"

// Attendance status values written into a tracking column.
const (
	StatusPresent = "present"
	StatusAbsent  = "absent"
)

// Serialized first-timer values.
const (
	FirstTimerYes = "Yes"
	FirstTimerNo  = "No"
)

// BaseHeaders is the fixed column set at the start of the header row.
// Tracking columns named by attendance dates are appended after these.
var BaseHeaders = []string{"Date", "Name", "Phone", "Location", "Birthday", "Fellowship", "First Timer"}

// MinStoredColumns is the shortest row FetchAll accepts; shorter rows are partial writes.
const MinStoredColumns = 5

var phonePattern = regexp.MustCompile(`^[\d\s\-\+\(\)]+$`)

// Record is one row of the attendance sheet.
type Record struct {
	Date           string // YYYY-MM-DD the row was created
	Name           string
	Phone          string
	Location       string
	Birthday       string // free-form, DD-MM or a full date
	Fellowship     string
	FirstTimer     bool
	AttendanceDate string // optional service date, also the tracking column name
	Status         string // optional: present | absent
	Email          string // only populated when a legacy sheet carries an Email column
}

// Normalize trims surrounding whitespace from every text field.
// POST: Record fields are trimmed; Status is lower-cased
func (r *Record) Normalize() {
	r.Date = strings.TrimSpace(r.Date)
	r.Name = strings.TrimSpace(r.Name)
	r.Phone = strings.TrimSpace(r.Phone)
	r.Location = strings.TrimSpace(r.Location)
	r.Birthday = strings.TrimSpace(r.Birthday)
	r.Fellowship = strings.TrimSpace(r.Fellowship)
	r.AttendanceDate = strings.TrimSpace(r.AttendanceDate)
	r.Status = strings.ToLower(strings.TrimSpace(r.Status))
	r.Email = strings.TrimSpace(r.Email)
}

// Validate checks that the Record can be appended.
// PRE: Record has been normalized
// POST: Returns a *failure.ValidationError describing the first problem, nil otherwise
func (r *Record) Validate() error {
	if r.Name == "" || r.Phone == "" || r.Location == "" || r.Birthday == "" || r.Fellowship == "" {
		return failure.Validation("All fields are required")
	}
	if !phonePattern.MatchString(r.Phone) {
		return failure.Validation("Invalid phone format")
	}
	if r.Status != "" && r.Status != StatusPresent && r.Status != StatusAbsent {
		return failure.Validation("attendance status must be present or absent")
	}
	if r.Status != "" && r.AttendanceDate == "" {
		return failure.Validation("attendance status requires an attendance date")
	}
	if r.AttendanceDate != "" && !IsAttendanceDate(r.AttendanceDate) {
		return failure.Validation("attendance date must be YYYY-MM-DD")
	}
	return nil
}

// IsAttendanceDate reports whether s is a YYYY-MM-DD date, the only shape a
// tracking column may be named with.
func IsAttendanceDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// FirstTimerCell serializes the first-timer flag for the sheet.
func (r *Record) FirstTimerCell() string {
	if r.FirstTimer {
		return FirstTimerYes
	}
	return FirstTimerNo
}

// ParseFirstTimer reads a stored or submitted first-timer value.
func ParseFirstTimer(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "yes", "true":
		return true
	default:
		return false
	}
}

// IsBaseHeader reports whether name is one of the fixed columns.
func IsBaseHeader(name string) bool {
	for _, h := range BaseHeaders {
		if h == name {
			return true
		}
	}
	return false
}
