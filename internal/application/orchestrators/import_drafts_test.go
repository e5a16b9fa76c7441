package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/xuri/excelize/v2"

	"congregation/internal/domain/failure"
)

func seqGenerator() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func importCSV(t *testing.T, body string) error {
	t.Helper()
	_, err := ExecuteImportDrafts(context.Background(),
		ImportDraftsInput{Filename: "list.csv", Data: []byte(body)},
		ImportDraftsDeps{GenerateID: seqGenerator()})
	return err
}

// TestImportDrafts_MinimalHeader covers a list without phone or first-timer columns.
func TestImportDrafts_MinimalHeader(t *testing.T) {
	entries, err := ExecuteImportDrafts(context.Background(),
		ImportDraftsInput{Filename: "list.csv", Data: []byte("Name,DOB,Location,Fellowship\nAma Owusu,1990-03-15,Accra,Youth\n")},
		ImportDraftsDeps{GenerateID: seqGenerator()})
	if err != nil {
		t.Fatalf("ExecuteImportDrafts: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	e := entries[0]
	if e.ID != "id-1" || e.Name != "Ama Owusu" || e.Location != "Accra" || e.Fellowship != "Youth" {
		t.Errorf("entry = %+v", e)
	}
	if e.Birthday != "15-03" {
		t.Errorf("Birthday = %q, want 15-03", e.Birthday)
	}
	if e.FirstTimer || e.Phone != "" {
		t.Errorf("FirstTimer=%v Phone=%q, want false and empty", e.FirstTimer, e.Phone)
	}
}

func TestImportDrafts_MissingRequiredColumn(t *testing.T) {
	err := importCSV(t, "Name,DOB,Fellowship\nAma,01-02,Youth\n")
	var ve *failure.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
}

func TestImportDrafts_RejectsHeaderOnlyAndEmptyNames(t *testing.T) {
	tests := map[string]string{
		"header only":   "Name,Birthday,Location,Fellowship\n",
		"no named rows": "Name,Birthday,Location,Fellowship\n,01-02,Accra,Youth\n ,,,\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			err := importCSV(t, body)
			var ve *failure.ValidationError
			if !errors.As(err, &ve) {
				t.Errorf("err = %v, want ValidationError", err)
			}
		})
	}
}

func TestImportDrafts_ContactPhoneAndFirstTimer(t *testing.T) {
	body := "First Name,Contact,Phone Number,Location,Birthday,Fellowship,New Member?\n" +
		"Kofi,020-111,,Kumasi,3/4/1985,Men,Yes\n" +
		"Esi,020-222,024-333,Tema,4-5,Women,no\n" +
		",,,,,,\n" +
		"Yaw,,,Accra,July 9,Youth,checked\n"
	entries, err := ExecuteImportDrafts(context.Background(),
		ImportDraftsInput{Filename: "list.csv", Data: []byte(body)},
		ImportDraftsDeps{GenerateID: seqGenerator()})
	if err != nil {
		t.Fatalf("ExecuteImportDrafts: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}
	if entries[0].Phone != "020-111" || !entries[0].FirstTimer || entries[0].Birthday != "03-04" {
		t.Errorf("Kofi = %+v", entries[0])
	}
	if entries[1].Phone != "024-333" || entries[1].FirstTimer || entries[1].Birthday != "04-05" {
		t.Errorf("Esi = %+v", entries[1])
	}
	if entries[2].Birthday != "09-07" || !entries[2].FirstTimer {
		t.Errorf("Yaw = %+v", entries[2])
	}
}

func TestImportDrafts_WorkbookSerialBirthday(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	f.SetSheetRow(sheet, "A1", &[]any{"Name", "Date of Birth", "Location", "Fellowship", "First Timer"})
	// 32947 is 1990-03-15.
	f.SetSheetRow(sheet, "A2", &[]any{"Ama", 32947, "Accra", "Youth", "TRUE"})
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer: %v", err)
	}

	entries, err := ExecuteImportDrafts(context.Background(),
		ImportDraftsInput{Filename: "list.xlsx", Data: buf.Bytes()},
		ImportDraftsDeps{GenerateID: seqGenerator()})
	if err != nil {
		t.Fatalf("ExecuteImportDrafts: %v", err)
	}
	if len(entries) != 1 || entries[0].Birthday != "15-03" || !entries[0].FirstTimer {
		t.Errorf("entries = %+v", entries)
	}
}

func TestNormalizeBirthday(t *testing.T) {
	tests := []struct {
		raw          string
		fromWorkbook bool
		want         string
	}{
		{"", false, ""},
		{"15-03-1990", false, "15-03"},
		{"5/3/1990", false, "05-03"},
		{"1990-03-15", false, "15-03"},
		{"1990/3/5", false, "05-03"},
		{"7-12", false, "07-12"},
		{"January 2, 1988", false, "02-01"},
		{"2 Feb", false, "02-02"},
		{"32947", true, "15-03"},
		{"32947", false, "32947"},
		{"sometime in spring", false, "sometime in spring"},
	}
	for _, tt := range tests {
		if got := NormalizeBirthday(tt.raw, tt.fromWorkbook); got != tt.want {
			t.Errorf("NormalizeBirthday(%q, %v) = %q, want %q", tt.raw, tt.fromWorkbook, got, tt.want)
		}
	}
}
