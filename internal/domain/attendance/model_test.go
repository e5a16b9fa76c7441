package attendance

import (
	"errors"
	"testing"

	"congregation/internal/domain/failure"
)

func validRecord() Record {
	return Record{
		Date:       "2024-01-07",
		Name:       "Ama Mensah",
		Phone:      "+233 20 555 1111",
		Location:   "Accra",
		Birthday:   "14-03",
		Fellowship: "Youth",
	}
}

// TestRecord_Validate covers required fields, phone format, status and attendance date rules.
func TestRecord_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *Record)
		wantErr bool
	}{
		{"valid", func(r *Record) {}, false},
		{"missing name", func(r *Record) { r.Name = "" }, true},
		{"missing fellowship", func(r *Record) { r.Fellowship = "" }, true},
		{"letters in phone", func(r *Record) { r.Phone = "call me" }, true},
		{"phone with parens", func(r *Record) { r.Phone = "(020) 555-1111" }, false},
		{"present with date", func(r *Record) { r.AttendanceDate = "2024-01-07"; r.Status = StatusPresent }, false},
		{"status without date", func(r *Record) { r.Status = StatusAbsent }, true},
		{"unknown status", func(r *Record) { r.AttendanceDate = "2024-01-07"; r.Status = "late" }, true},
		{"date named like a base column", func(r *Record) { r.AttendanceDate = "Name"; r.Status = StatusPresent }, true},
		{"date named like the email column", func(r *Record) { r.AttendanceDate = "Email" }, true},
		{"day-first date", func(r *Record) { r.AttendanceDate = "07-01-2024" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRecord()
			tt.mutate(&r)
			err := r.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() err = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var ve *failure.ValidationError
				if !errors.As(err, &ve) {
					t.Errorf("expected ValidationError, got %T", err)
				}
			}
		})
	}
}

// TestRecord_Normalize verifies trimming and status lower-casing.
func TestRecord_Normalize(t *testing.T) {
	r := Record{Name: "  Kofi ", Phone: " 555 ", Status: " Present "}
	r.Normalize()
	if r.Name != "Kofi" || r.Phone != "555" {
		t.Errorf("not trimmed: %+v", r)
	}
	if r.Status != StatusPresent {
		t.Errorf("Status = %q, want %q", r.Status, StatusPresent)
	}
}

// TestFirstTimerRoundTrip verifies the Yes/No serialization.
func TestFirstTimerRoundTrip(t *testing.T) {
	r := Record{FirstTimer: true}
	if r.FirstTimerCell() != "Yes" || !ParseFirstTimer(r.FirstTimerCell()) {
		t.Error("true should serialize as Yes and parse back")
	}
	r.FirstTimer = false
	if r.FirstTimerCell() != "No" || ParseFirstTimer(r.FirstTimerCell()) {
		t.Error("false should serialize as No and parse back")
	}
	if !ParseFirstTimer("true") || ParseFirstTimer("") {
		t.Error("ParseFirstTimer mismatch for legacy values")
	}
}
