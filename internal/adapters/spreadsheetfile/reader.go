// Package spreadsheetfile reads uploaded attendance lists into string grids.
package spreadsheetfile

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"congregation/internal/domain/failure"
)

// Read returns the rows of the first worksheet (or the CSV body) as strings.
// Excel date cells come back as raw serial numbers, not formatted text.
// PRE: filename carries the original extension
// POST: Returns rows with ragged lengths preserved; a ValidationError for unreadable input
func Read(filename string, data []byte) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return readWorkbook(data)
	case ".csv":
		return readCSV(data)
	default:
		return nil, failure.Validation(fmt.Sprintf("unsupported file format %q (upload .xlsx or .csv)", filepath.Ext(filename)))
	}
}

func readWorkbook(data []byte) ([][]string, error) {
	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, failure.Validation("could not open workbook: " + err.Error())
	}
	defer func() { _ = file.Close() }()

	sheetName := file.GetSheetName(0)
	if sheetName == "" {
		return nil, failure.Validation("no worksheet found")
	}
	rows, err := file.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, failure.Validation("could not read worksheet: " + err.Error())
	}
	return rows, nil
}

func readCSV(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, failure.Validation("could not parse CSV: " + err.Error())
	}
	return rows, nil
}
