package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"github.com/gabrielarrudexx/YBYOCA/internal/core"
	ports "github.com/gabrielarrudexx/YBYOCA/internal/report/sheets"
)

// Client appends report snapshots to a Google spreadsheet.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

var _ ports.ReportWriter = (*Client)(nil)

// NewFromEnv creates a Sheets client using environment variables and a
// service account.
// Required: GOOGLE_SPREADSHEET_ID
// Auth: GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS.
// Optional: GOOGLE_SHEET_NAME (default "Reports").
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	sheetName := strings.TrimSpace(os.Getenv("GOOGLE_SHEET_NAME"))
	if sheetName == "" {
		sheetName = "Reports"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// ExportReport appends the report as a block of rows: a summary row, one
// row per category, then a blank spacer. Returns the appended range.
func (c *Client) ExportReport(ctx context.Context, model *core.ReportModel) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	if model == nil {
		return "", fmt.Errorf("export report: %w", core.ErrInvalidInput)
	}

	rows := reportRows(model)
	rng := fmt.Sprintf("%s!A:F", c.sheetName)
	vr := &gsheet.ValueRange{Values: rows}

	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append report to sheet %s: %w", c.sheetName, err)
	}

	ref := rng
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		ref = resp.Updates.UpdatedRange
	}
	slog.InfoContext(ctx, "Exported report to Google Sheets",
		"project_id", model.ProjectID,
		"range", ref)
	return ref, nil
}

// reportRows flattens the model into spreadsheet rows. Amounts are written
// as decimal units so the sheet can sum them.
func reportRows(model *core.ReportModel) [][]any {
	rows := [][]any{
		{
			model.GeneratedAt.Format("2006-01-02 15:04"),
			model.ProjectName,
			string(model.Status),
			model.Budget.Reais(),
			model.Spent.Reais(),
			model.Remaining.Reais(),
		},
	}
	for _, cat := range model.Categories {
		rows = append(rows, []any{
			"",
			cat.Name,
			cat.Count,
			cat.Total.Reais(),
			fmt.Sprintf("%.1f%%", cat.PercentOfSpent),
			"",
		})
	}
	rows = append(rows, []any{"", "", "", "", "", ""})
	return rows
}
