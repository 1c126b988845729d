// Package google writes monthly summaries to a Google Sheet.
package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"tally/internal/core"
	ports "tally/internal/export"

	"golang.org/x/oauth2"
	googleauth "golang.org/x/oauth2/google"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

var _ ports.SummaryWriter = (*Client)(nil)

// Options configures the Sheets client. Auth uses an OAuth client paired
// with a previously issued token (see cmd/oauth-init); inline JSON takes
// precedence over file paths.
type Options struct {
	SpreadsheetID   string
	SheetName       string
	OAuthClientJSON string
	OAuthClientFile string
	OAuthTokenJSON  string
	OAuthTokenFile  string
}

func New(ctx context.Context, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet ID")
	}
	sheetName := strings.TrimSpace(opts.SheetName)
	if sheetName == "" {
		sheetName = "Summary"
	}

	httpClient, err := oauthHTTPClient(ctx, opts)
	if err != nil {
		return nil, err
	}

	svc, err := gsheet.NewService(ctx, goption.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: opts.SpreadsheetID,
		sheetName:     sheetName,
	}, nil
}

func oauthHTTPClient(ctx context.Context, opts Options) (*http.Client, error) {
	clientJSON, err := loadCredential(opts.OAuthClientJSON, opts.OAuthClientFile, "OAuth client")
	if err != nil {
		return nil, err
	}
	tokenJSON, err := loadCredential(opts.OAuthTokenJSON, opts.OAuthTokenFile, "OAuth token")
	if err != nil {
		return nil, err
	}

	cfg, err := googleauth.ConfigFromJSON(clientJSON, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse OAuth client: %w", err)
	}
	var token oauth2.Token
	if err := json.Unmarshal(tokenJSON, &token); err != nil {
		return nil, fmt.Errorf("parse OAuth token: %w", err)
	}
	return cfg.Client(ctx, &token), nil
}

// loadCredential resolves one credential from inline JSON or a file path,
// inline winning.
func loadCredential(inline, file, what string) ([]byte, error) {
	if inline != "" {
		return []byte(inline), nil
	}
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read %s file: %w", what, err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("missing %s", what)
}

// WriteSummary appends one row per summary plus a row per breakdown line.
// The returned reference names the sheet and the first appended row.
func (c *Client) WriteSummary(ctx context.Context, ownerID string, s core.Summary) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	rows := summaryRows(ownerID, s)

	rng := fmt.Sprintf("%s!A:A", c.sheetName)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("get sheet dimensions for %s: %w", c.sheetName, err)
	}
	nextRow := len(resp.Values) + 1

	dataRange := fmt.Sprintf("%s!A%d:F%d", c.sheetName, nextRow, nextRow+len(rows)-1)
	vr := &gsheet.ValueRange{Values: rows}

	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, dataRange, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("update %s: %w", dataRange, err)
	}

	return fmt.Sprintf("%s!A%d", c.sheetName, nextRow), nil
}

// summaryRows flattens a summary into sheet rows:
// header row {owner, year-month, income, expenses, net}, then one row per
// breakdown category {name, budgeted, actual, difference}.
func summaryRows(ownerID string, s core.Summary) [][]any {
	month := fmt.Sprintf("%04d-%02d", s.Year, s.Month)
	rows := [][]any{{
		ownerID,
		month,
		s.TotalIncome.String(),
		s.TotalExpenses.String(),
		s.Net.String(),
		"",
	}}
	for _, row := range s.Breakdown {
		rows = append(rows, []any{
			"",
			month,
			row.Name,
			row.Budgeted.String(),
			row.Actual.String(),
			row.Difference.String(),
		})
	}
	return rows
}
