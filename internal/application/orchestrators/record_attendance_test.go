package orchestrators

import (
	"context"
	"errors"
	"testing"
	"time"

	"congregation/internal/domain/attendance"
	"congregation/internal/domain/failure"
)

// mockAppender records appended rows.
type mockAppender struct {
	appended []attendance.Record
	err      error
}

func (m *mockAppender) Append(_ context.Context, rec attendance.Record) error {
	if m.err != nil {
		return m.err
	}
	m.appended = append(m.appended, rec)
	return nil
}

func fixedNow() time.Time {
	return time.Date(2024, 1, 7, 10, 30, 0, 0, time.Local)
}

func validAttendanceInput() RecordAttendanceInput {
	return RecordAttendanceInput{
		Name:       "  Kofi Mensah ",
		Phone:      "+233 (20) 111-2222",
		Location:   "Accra",
		Birthday:   "15-03",
		Fellowship: "Youth",
		FirstTimer: true,
	}
}

func TestRecordAttendance_AppendsDatedTrimmedRow(t *testing.T) {
	store := &mockAppender{}
	rec, err := ExecuteRecordAttendance(context.Background(), validAttendanceInput(),
		RecordAttendanceDeps{Store: store, Now: fixedNow})
	if err != nil {
		t.Fatalf("ExecuteRecordAttendance: %v", err)
	}
	if len(store.appended) != 1 {
		t.Fatalf("appended = %d, want 1", len(store.appended))
	}
	if rec.Date != "2024-01-07" || rec.Name != "Kofi Mensah" || !rec.FirstTimer {
		t.Errorf("record = %+v", rec)
	}
}

func TestRecordAttendance_ValidationSkipsStore(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*RecordAttendanceInput)
		message string
	}{
		{"missing fellowship", func(in *RecordAttendanceInput) { in.Fellowship = " " }, "All fields are required"},
		{"bad phone", func(in *RecordAttendanceInput) { in.Phone = "call me" }, "Invalid phone format"},
		{"bad status", func(in *RecordAttendanceInput) { in.AttendanceDate, in.Status = "2024-01-07", "late" }, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &mockAppender{}
			in := validAttendanceInput()
			tt.mutate(&in)
			_, err := ExecuteRecordAttendance(context.Background(), in, RecordAttendanceDeps{Store: store, Now: fixedNow})
			var ve *failure.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
			if tt.message != "" && ve.Message != tt.message {
				t.Errorf("message = %q, want %q", ve.Message, tt.message)
			}
			if len(store.appended) != 0 {
				t.Error("store must not be called on invalid input")
			}
		})
	}
}

func TestRecordAttendance_StoreErrorPropagates(t *testing.T) {
	boom := failure.Remote("append row", errors.New("503"))
	_, err := ExecuteRecordAttendance(context.Background(), validAttendanceInput(),
		RecordAttendanceDeps{Store: &mockAppender{err: boom}, Now: fixedNow})
	var remote *failure.RemoteServiceError
	if !errors.As(err, &remote) {
		t.Errorf("err = %v, want RemoteServiceError", err)
	}
}
