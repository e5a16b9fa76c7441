package sheets

import (
	"context"
	"fmt"
	"sync"
	"testing"
)

// TestSQLiteClient_GetTrimsAndFillsGaps verifies skipped rows read empty and trailing blanks are dropped.
func TestSQLiteClient_GetTrimsAndFillsGaps(t *testing.T) {
	c := newSQLiteClient(t)
	ctx := context.Background()
	if err := c.Update(ctx, "s", "Sheet1!A1:C1", [][]string{{"a", "b", ""}}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if err := c.Update(ctx, "s", "Sheet1!B3", [][]string{{"x"}}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	got, err := c.Get(ctx, "s", "Sheet1!A1:C")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("rows = %v, want 3 rows", got)
	}
	if len(got[0]) != 2 || len(got[1]) != 0 || len(got[2]) != 2 || got[2][1] != "x" {
		t.Errorf("got %q", got)
	}
}

// TestSQLiteClient_UpdateRejectsOverflow verifies values past the range end are refused.
func TestSQLiteClient_UpdateRejectsOverflow(t *testing.T) {
	c := newSQLiteClient(t)
	err := c.Update(context.Background(), "s", "Sheet1!A1:B1", [][]string{{"1", "2", "3"}})
	if err == nil {
		t.Error("expected error writing past the range end")
	}
}

// TestSQLiteClient_AppendStartsAtRangeRow verifies an append never lands above the range start.
func TestSQLiteClient_AppendStartsAtRangeRow(t *testing.T) {
	c := newSQLiteClient(t)
	ctx := context.Background()
	if err := c.Append(ctx, "s", "Sheet1!A2:C", [][]string{{"first"}}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := c.Append(ctx, "s", "Sheet1!A:C", [][]string{{"second"}}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	got, _ := c.Get(ctx, "s", "Sheet1!A1:A3")
	if len(got) != 3 || len(got[0]) != 0 || got[1][0] != "first" || got[2][0] != "second" {
		t.Errorf("got %q", got)
	}
}

// TestSQLiteClient_SpreadsheetsIsolated verifies rows are scoped per spreadsheet ID.
func TestSQLiteClient_SpreadsheetsIsolated(t *testing.T) {
	c := newSQLiteClient(t)
	ctx := context.Background()
	c.Append(ctx, "one", "Sheet1!A:A", [][]string{{"x"}})
	got, err := c.Get(ctx, "two", "Sheet1!A:A")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("other spreadsheet leaked rows: %q", got)
	}
}

// TestSQLiteClient_ConcurrentAppends verifies parallel appends each get their own row.
func TestSQLiteClient_ConcurrentAppends(t *testing.T) {
	c := newSQLiteClient(t)
	ctx := context.Background()
	const n = 20

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- c.Append(ctx, "s", "Sheet1!A:A", [][]string{{fmt.Sprint(i)}})
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	got, err := c.Get(ctx, "s", "Sheet1!A:A")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	seen := make(map[string]bool)
	for _, row := range got {
		seen[row[0]] = true
	}
	if len(got) != n || len(seen) != n {
		t.Errorf("rows = %d distinct = %d, want %d", len(got), len(seen), n)
	}
}
