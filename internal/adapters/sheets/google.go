package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"congregation/internal/domain/failure"
)

// Credentials selects how the Sheets API client authenticates.
// File takes precedence over the inline service account pair.
type Credentials struct {
	ServiceAccountEmail string
	PrivateKey          string // PEM, literal "\n" sequences are unescaped
	File                string // path to a service account JSON key
}

// GoogleClient reads and writes values through the Sheets API v4.
type GoogleClient struct {
	values *gsheets.SpreadsheetsValuesService
}

var _ Client = (*GoogleClient)(nil)

// NewGoogleClient builds a Sheets API client from service account credentials.
// PRE: creds names a key file or carries both email and private key
// POST: Returns a ready client, or a ConfigurationError when credentials are missing
func NewGoogleClient(ctx context.Context, creds Credentials) (*GoogleClient, error) {
	opts := []option.ClientOption{option.WithScopes(gsheets.SpreadsheetsScope)}
	switch {
	case creds.File != "":
		opts = append(opts, option.WithCredentialsFile(creds.File))
	case creds.ServiceAccountEmail != "" && creds.PrivateKey != "":
		key, err := serviceAccountJSON(creds)
		if err != nil {
			return nil, err
		}
		opts = append(opts, option.WithCredentialsJSON(key))
	default:
		return nil, failure.Configuration("Google Sheets credentials not configured")
	}

	svc, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &GoogleClient{values: svc.Spreadsheets.Values}, nil
}

func serviceAccountJSON(creds Credentials) ([]byte, error) {
	return json.Marshal(map[string]string{
		"type":         "service_account",
		"client_email": creds.ServiceAccountEmail,
		"private_key":  strings.ReplaceAll(creds.PrivateKey, `\n`, "\n"),
		"token_uri":    "https://oauth2.googleapis.com/token",
	})
}

// Get reads formatted cell values as strings.
func (c *GoogleClient) Get(ctx context.Context, spreadsheetID, rng string) ([][]string, error) {
	resp, err := c.values.Get(spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	out := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		out[i] = make([]string, len(row))
		for j, cell := range row {
			out[i][j] = fmt.Sprint(cell)
		}
	}
	return out, nil
}

// Update writes values verbatim (RAW input option).
func (c *GoogleClient) Update(ctx context.Context, spreadsheetID, rng string, values [][]string) error {
	_, err := c.values.Update(spreadsheetID, rng, valueRange(values)).
		ValueInputOption("RAW").Context(ctx).Do()
	return err
}

// Append inserts rows after the table found in rng.
func (c *GoogleClient) Append(ctx context.Context, spreadsheetID, rng string, values [][]string) error {
	_, err := c.values.Append(spreadsheetID, rng, valueRange(values)).
		ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	return err
}

func valueRange(values [][]string) *gsheets.ValueRange {
	rows := make([][]interface{}, len(values))
	for i, row := range values {
		rows[i] = make([]interface{}, len(row))
		for j, v := range row {
			rows[i][j] = v
		}
	}
	return &gsheets.ValueRange{Values: rows}
}
