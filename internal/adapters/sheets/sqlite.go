package sheets

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	"congregation/internal/adapters/storage"
)

// SQLiteClient emulates spreadsheet value ranges on the sheet_row table.
// Each row is stored as a JSON array of cell strings keyed by 1-indexed row number.
// Writes are serialized so concurrent appends never claim the same row.
type SQLiteClient struct {
	db storage.SQLDB
	mu sync.Mutex
}

var _ Client = (*SQLiteClient)(nil)

// NewSQLiteClient creates a client over a migrated database.
// PRE: db has the sheet_row table (storage.MigrateDB)
func NewSQLiteClient(db storage.SQLDB) *SQLiteClient {
	return &SQLiteClient{db: db}
}

// Get reads the cells inside rng. Trailing empty cells and rows are trimmed
// the way the Sheets API trims them.
func (c *SQLiteClient) Get(ctx context.Context, spreadsheetID, rng string) ([][]string, error) {
	r, err := parseRange(rng)
	if err != nil {
		return nil, err
	}
	query := `SELECT row_num, cells FROM sheet_row WHERE spreadsheet_id = ? AND sheet = ? AND row_num >= ?`
	args := []any{spreadsheetID, r.sheet, r.startRow}
	if r.endRow > 0 {
		query += ` AND row_num <= ?`
		args = append(args, r.endRow)
	}
	query += ` ORDER BY row_num`

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("read range %s: %w", rng, err)
	}
	defer rows.Close()

	var out [][]string
	for rows.Next() {
		var (
			rowNum int
			raw    string
		)
		if err := rows.Scan(&rowNum, &raw); err != nil {
			return nil, err
		}
		cells, err := decodeCells(raw)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", rowNum, err)
		}
		// Rows the range skips over come back empty.
		for len(out) < rowNum-r.startRow {
			out = append(out, []string{})
		}
		out = append(out, sliceCols(cells, r))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for len(out) > 0 && len(out[len(out)-1]) == 0 {
		out = out[:len(out)-1]
	}
	return out, nil
}

// Update overwrites the cells starting at the top-left corner of rng.
func (c *SQLiteClient) Update(ctx context.Context, spreadsheetID, rng string, values [][]string) error {
	r, err := parseRange(rng)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.write(ctx, spreadsheetID, r, r.startRow, values)
}

// Append writes values below the last occupied row, never above the range start.
func (c *SQLiteClient) Append(ctx context.Context, spreadsheetID, rng string, values [][]string) error {
	r, err := parseRange(rng)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	var last sql.NullInt64
	if err := c.db.QueryRowContext(ctx,
		`SELECT MAX(row_num) FROM sheet_row WHERE spreadsheet_id = ? AND sheet = ?`,
		spreadsheetID, r.sheet).Scan(&last); err != nil {
		return fmt.Errorf("find last row: %w", err)
	}
	next := int(last.Int64) + 1
	if next < r.startRow {
		next = r.startRow
	}
	return c.write(ctx, spreadsheetID, r, next, values)
}

func (c *SQLiteClient) write(ctx context.Context, spreadsheetID string, r cellRange, firstRow int, values [][]string) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for i, vals := range values {
		rowNum := firstRow + i
		var raw string
		err := tx.QueryRowContext(ctx,
			`SELECT cells FROM sheet_row WHERE spreadsheet_id = ? AND sheet = ? AND row_num = ?`,
			spreadsheetID, r.sheet, rowNum).Scan(&raw)
		if err != nil && err != sql.ErrNoRows {
			return err
		}
		cells, err := decodeCells(raw)
		if err != nil {
			return fmt.Errorf("row %d: %w", rowNum, err)
		}
		for j, v := range vals {
			col := r.startCol + j
			if !r.containsCol(col) {
				return fmt.Errorf("value at column %s is outside the range", ColumnLetter(col))
			}
			for len(cells) < col {
				cells = append(cells, "")
			}
			cells[col-1] = v
		}
		encoded, err := json.Marshal(cells)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sheet_row (spreadsheet_id, sheet, row_num, cells) VALUES (?, ?, ?, ?)
			 ON CONFLICT(spreadsheet_id, sheet, row_num) DO UPDATE SET cells=excluded.cells`,
			spreadsheetID, r.sheet, rowNum, string(encoded)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func decodeCells(raw string) ([]string, error) {
	if raw == "" {
		return nil, nil
	}
	var cells []string
	if err := json.Unmarshal([]byte(raw), &cells); err != nil {
		return nil, err
	}
	return cells, nil
}

// sliceCols cuts cells down to the range's columns and drops trailing blanks.
func sliceCols(cells []string, r cellRange) []string {
	if r.startCol > len(cells) {
		return []string{}
	}
	end := len(cells)
	if r.endCol > 0 && r.endCol < end {
		end = r.endCol
	}
	out := append([]string{}, cells[r.startCol-1:end]...)
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return out
}
