// Package google renders reports into a Google Spreadsheet, one sheet per
// period, using service account credentials.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"budgeteer/internal/config"
	"budgeteer/internal/export"
	"budgeteer/internal/log"
	"budgeteer/internal/report"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	logger        *log.Logger
}

var _ export.ReportWriter = (*Client)(nil)

// NewFromConfig creates a Sheets client from validated configuration.
func NewFromConfig(ctx context.Context, cfg *config.Config, logger *log.Logger) (*Client, error) {
	if cfg.GoogleSpreadsheetID == "" {
		return nil, errors.New("missing Google spreadsheet ID")
	}

	credentialsJSON, err := loadCredentials(cfg)
	if err != nil {
		return nil, err
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: cfg.GoogleSpreadsheetID,
		logger:        logger.WithComponent(log.ComponentExport),
	}, nil
}

func loadCredentials(cfg *config.Config) ([]byte, error) {
	switch {
	case strings.TrimSpace(cfg.GoogleCredentialsJSON) != "":
		return []byte(cfg.GoogleCredentialsJSON), nil
	case cfg.GoogleCredentialsFile != "":
		credentialsJSON, err := os.ReadFile(cfg.GoogleCredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read credentials file: %w", err)
		}
		return credentialsJSON, nil
	default:
		return nil, errors.New("missing Google credentials (set GOOGLE_CREDENTIALS_JSON or GOOGLE_CREDENTIALS_FILE)")
	}
}

// WriteReport renders every period into its own sheet named after the
// period title. Existing sheet contents are cleared first.
func (c *Client) WriteReport(ctx context.Context, r *report.Report) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	existing, err := c.sheetTitles(ctx)
	if err != nil {
		return err
	}

	for _, period := range r.Periods {
		if !existing[period.Title] {
			if err := c.addSheet(ctx, period.Title); err != nil {
				return err
			}
			existing[period.Title] = true
		}
		if err := c.writePeriod(ctx, period); err != nil {
			return err
		}
	}

	c.logger.Info("Report written to spreadsheet",
		"spreadsheet_id", c.spreadsheetID,
		log.FieldCount, len(r.Periods))
	return nil
}

func (c *Client) sheetTitles(ctx context.Context) (map[string]bool, error) {
	spreadsheet, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get spreadsheet: %w", err)
	}
	titles := make(map[string]bool, len(spreadsheet.Sheets))
	for _, sheet := range spreadsheet.Sheets {
		titles[sheet.Properties.Title] = true
	}
	return titles, nil
}

func (c *Client) addSheet(ctx context.Context, title string) error {
	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{
				Properties: &gsheet.SheetProperties{Title: title},
			},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %s: %w", title, err)
	}
	return nil
}

func (c *Client) writePeriod(ctx context.Context, period *report.PeriodReport) error {
	rng := fmt.Sprintf("'%s'!A1:ZZ", period.Title)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear sheet %s: %w", period.Title, err)
	}

	values := periodValues(period)
	vr := &gsheet.ValueRange{Values: values}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, fmt.Sprintf("'%s'!A1", period.Title), vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do(); err != nil {
		return fmt.Errorf("update sheet %s: %w", period.Title, err)
	}

	c.logger.Debug("Period written", log.FieldPeriod, period.Title)
	return nil
}

// periodValues stacks every table of the period vertically with a blank
// row between tables: title, header, data rows.
func periodValues(period *report.PeriodReport) [][]any {
	var values [][]any
	for _, table := range period.Tables() {
		values = append(values, []any{table.Title})

		header := make([]any, len(table.Columns))
		for i, column := range table.Columns {
			header[i] = column.Name
		}
		values = append(values, header)

		for _, row := range table.Rows {
			formatted := export.FormatRow(row, table.Columns)
			cells := make([]any, len(formatted))
			for i, cell := range formatted {
				cells[i] = cell
			}
			values = append(values, cells)
		}

		values = append(values, []any{})
	}
	return values
}
