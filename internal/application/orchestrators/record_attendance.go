package orchestrators

import (
	"context"
	"log/slog"
	"time"

	"congregation/internal/domain/attendance"
)

// AttendanceAppender is the store capability needed to record attendance.
type AttendanceAppender interface {
	Append(ctx context.Context, rec attendance.Record) error
}

// RecordAttendanceInput carries one submitted attendance row.
type RecordAttendanceInput struct {
	Name           string
	Phone          string
	Location       string
	Birthday       string
	Fellowship     string
	FirstTimer     bool
	AttendanceDate string
	Status         string
}

// RecordAttendanceDeps holds dependencies for RecordAttendance.
type RecordAttendanceDeps struct {
	Store AttendanceAppender
	Now   func() time.Time
}

// ExecuteRecordAttendance validates a submission and appends it to the sheet.
// PRE: deps.Store and deps.Now are set
// POST: One row appended dated today, or a ValidationError with no remote call
func ExecuteRecordAttendance(ctx context.Context, input RecordAttendanceInput, deps RecordAttendanceDeps) (attendance.Record, error) {
	rec := attendance.Record{
		Date:           deps.Now().Format(attendance.DateLayout),
		Name:           input.Name,
		Phone:          input.Phone,
		Location:       input.Location,
		Birthday:       input.Birthday,
		Fellowship:     input.Fellowship,
		FirstTimer:     input.FirstTimer,
		AttendanceDate: input.AttendanceDate,
		Status:         input.Status,
	}
	rec.Normalize()
	if err := rec.Validate(); err != nil {
		return attendance.Record{}, err
	}
	if err := deps.Store.Append(ctx, rec); err != nil {
		slog.Error("attendance_append_failed", "phone", rec.Phone, "error", err)
		return attendance.Record{}, err
	}
	slog.Info("attendance_recorded", "phone", rec.Phone, "attendance_date", rec.AttendanceDate, "status", rec.Status)
	return rec, nil
}
