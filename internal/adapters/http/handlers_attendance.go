package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"congregation/internal/application/orchestrators"
	"congregation/internal/domain/attendance"
	"congregation/internal/domain/failure"
)

// looseBool accepts true or the strings "true" and "yes"; anything else is false.
type looseBool bool

// UnmarshalJSON implements json.Unmarshaler.
func (b *looseBool) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case bool:
		*b = looseBool(t)
	case string:
		s := strings.ToLower(strings.TrimSpace(t))
		*b = looseBool(s == "true" || s == "yes")
	default:
		*b = false
	}
	return nil
}

type recordAttendanceRequest struct {
	Name             string     `json:"name"`
	Phone            string     `json:"phone"`
	Location         string     `json:"location"`
	Birthday         string     `json:"birthday"`
	Fellowship       string     `json:"fellowship"`
	FirstTimer       *looseBool `json:"firstTimer"`
	AttendanceDate   string     `json:"attendanceDate"`
	AttendanceStatus string     `json:"attendanceStatus"`
}

// handleRecordAttendance handles POST /attendance.
func (a *app) handleRecordAttendance(w http.ResponseWriter, r *http.Request) {
	var req recordAttendanceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, "")
		return
	}
	if req.FirstTimer == nil {
		writeError(w, r, failure.Validation("All fields are required"), "")
		return
	}

	input := orchestrators.RecordAttendanceInput{
		Name:           req.Name,
		Phone:          req.Phone,
		Location:       req.Location,
		Birthday:       req.Birthday,
		Fellowship:     req.Fellowship,
		FirstTimer:     bool(*req.FirstTimer),
		AttendanceDate: req.AttendanceDate,
		Status:         req.AttendanceStatus,
	}
	deps := orchestrators.RecordAttendanceDeps{Store: a.Records, Now: a.Now}
	if _, err := orchestrators.ExecuteRecordAttendance(r.Context(), input, deps); err != nil {
		writeError(w, r, err, "Failed to record attendance. Please try again.")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"message": "Attendance recorded successfully"})
}

// attendanceEntry is the listing shape consumed by the admin UI.
type attendanceEntry struct {
	ID               string `json:"id"`
	Date             string `json:"date"`
	Name             string `json:"name"`
	Phone            string `json:"phone"`
	Location         string `json:"location"`
	Birthday         string `json:"birthday"`
	Fellowship       string `json:"fellowship"`
	FirstTimer       bool   `json:"firstTimer"`
	AttendanceDate   string `json:"attendanceDate,omitempty"`
	AttendanceStatus string `json:"attendanceStatus,omitempty"`
}

func toEntries(records []attendance.Record) []attendanceEntry {
	entries := make([]attendanceEntry, 0, len(records))
	for i, rec := range records {
		entries = append(entries, attendanceEntry{
			ID:               fmt.Sprintf("record-%d-%s", i, rec.Date),
			Date:             rec.Date,
			Name:             rec.Name,
			Phone:            rec.Phone,
			Location:         rec.Location,
			Birthday:         rec.Birthday,
			Fellowship:       rec.Fellowship,
			FirstTimer:       rec.FirstTimer,
			AttendanceDate:   rec.AttendanceDate,
			AttendanceStatus: rec.Status,
		})
	}
	return entries
}

// handleListAttendance handles GET /attendance.
func (a *app) handleListAttendance(w http.ResponseWriter, r *http.Request) {
	records, err := a.Records.FetchAll(r.Context())
	if err != nil {
		writeError(w, r, err, "Failed to fetch attendance data")
		return
	}
	writeJSON(w, http.StatusOK, toEntries(records))
}
