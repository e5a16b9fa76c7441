// Package sheets adapts a spreadsheet workbook into the attendance record store.
//
// The Store speaks A1-notation ranges to a Client. GoogleClient talks to the
// Sheets API; SQLiteClient emulates one workbook locally for development and tests.
package sheets

import "context"

// Client is the range-addressed subset of a spreadsheet API the Store needs.
// Cells travel as strings; trailing empty cells and rows may be omitted on read.
type Client interface {
	Get(ctx context.Context, spreadsheetID, rng string) ([][]string, error)
	Update(ctx context.Context, spreadsheetID, rng string, values [][]string) error
	Append(ctx context.Context, spreadsheetID, rng string, values [][]string) error
}

// UnavailableClient answers every call with Err. It stands in for a client
// that could not be built, so the server can start and report the cause per request.
type UnavailableClient struct {
	Err error
}

var _ Client = UnavailableClient{}

// Get implements Client.
func (u UnavailableClient) Get(context.Context, string, string) ([][]string, error) {
	return nil, u.Err
}

// Update implements Client.
func (u UnavailableClient) Update(context.Context, string, string, [][]string) error {
	return u.Err
}

// Append implements Client.
func (u UnavailableClient) Append(context.Context, string, string, [][]string) error {
	return u.Err
}
