package sheets

import (
	"fmt"
	"strconv"
	"strings"
)

// ColumnLetter converts a 1-indexed column number into spreadsheet letters.
// 1→A, 26→Z, 27→AA, 52→AZ, 702→ZZ, 703→AAA. Non-positive input yields "".
func ColumnLetter(n int) string {
	var b []byte
	for n > 0 {
		n--
		b = append([]byte{byte('A' + n%26)}, b...)
		n /= 26
	}
	return string(b)
}

// ColumnNumber is the inverse of ColumnLetter. It returns 0 for invalid input.
func ColumnNumber(letters string) int {
	n := 0
	for _, c := range strings.ToUpper(letters) {
		if c < 'A' || c > 'Z' {
			return 0
		}
		n = n*26 + int(c-'A'+1)
	}
	return n
}

// cellRange is a parsed A1 range. Zero end bounds are open-ended.
type cellRange struct {
	sheet    string
	startCol int
	startRow int
	endCol   int
	endRow   int
}

// parseRange reads "Sheet1!A2:I", "Sheet1!A:H", "Sheet1!A1:H1", "Sheet1!1:1" or "Sheet1".
func parseRange(rng string) (cellRange, error) {
	sheet, cells, found := strings.Cut(rng, "!")
	if !found {
		return cellRange{sheet: strings.Trim(rng, "'"), startCol: 1, startRow: 1}, nil
	}
	r := cellRange{sheet: strings.Trim(sheet, "'")}
	if r.sheet == "" {
		return r, fmt.Errorf("range %q: missing sheet name", rng)
	}
	start, end, isSpan := strings.Cut(cells, ":")
	var err error
	if r.startCol, r.startRow, err = parseCell(start); err != nil {
		return r, fmt.Errorf("range %q: %w", rng, err)
	}
	if r.startCol == 0 {
		r.startCol = 1
	}
	if r.startRow == 0 {
		r.startRow = 1
	}
	if !isSpan {
		r.endCol, r.endRow = r.startCol, r.startRow
		return r, nil
	}
	if r.endCol, r.endRow, err = parseCell(end); err != nil {
		return r, fmt.Errorf("range %q: %w", rng, err)
	}
	return r, nil
}

// parseCell splits "AB12" into column 28 and row 12; either part may be absent.
func parseCell(s string) (col, row int, err error) {
	i := 0
	for i < len(s) && (s[i] >= 'A' && s[i] <= 'Z' || s[i] >= 'a' && s[i] <= 'z') {
		i++
	}
	if i > 0 {
		col = ColumnNumber(s[:i])
	}
	if i < len(s) {
		row, err = strconv.Atoi(s[i:])
		if err != nil || row < 1 {
			return 0, 0, fmt.Errorf("bad cell reference %q", s)
		}
	}
	if i == 0 && row == 0 {
		return 0, 0, fmt.Errorf("empty cell reference")
	}
	return col, row, nil
}

func (r cellRange) containsCol(col int) bool {
	return col >= r.startCol && (r.endCol == 0 || col <= r.endCol)
}
