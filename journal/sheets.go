package journal

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetsConfig points at the spreadsheet that serves as the shared trade
// log. CredentialsFile is a Google service-account key.
type SheetsConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
	SpreadsheetID   string `yaml:"spreadsheet_id"`
	Worksheet       string `yaml:"worksheet"`
}

func (c SheetsConfig) Configured() bool {
	return c.CredentialsFile != "" && c.SpreadsheetID != ""
}

// Sheets appends one row per trade to a Google Spreadsheet.
type Sheets struct {
	svc           *sheets.Service
	spreadsheetID string
	worksheet     string
}

func NewSheets(ctx context.Context, cfg SheetsConfig) (*Sheets, error) {
	if !cfg.Configured() {
		return nil, fmt.Errorf("sheets sink not configured")
	}

	svc, err := sheets.NewService(ctx,
		option.WithCredentialsFile(cfg.CredentialsFile),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("init sheets service: %w", err)
	}

	worksheet := cfg.Worksheet
	if worksheet == "" {
		worksheet = "Trades"
	}

	return &Sheets{svc: svc, spreadsheetID: cfg.SpreadsheetID, worksheet: worksheet}, nil
}

func (j *Sheets) Record(ctx context.Context, rec TradeRecord) error {
	row := []interface{}{
		rec.Time.UTC().Format("2006-01-02 15:04:05"),
		string(rec.Action),
		rec.Instrument,
		rec.Price,
		rec.StopLoss,
		rec.TakeProfit,
		rec.Units,
		string(rec.Mode),
		string(rec.Status),
		rec.Balance,
		rec.OrderID,
		rec.Detail,
		rec.ID,
	}

	vr := &sheets.ValueRange{Values: [][]interface{}{row}}
	_, err := j.svc.Spreadsheets.Values.
		Append(j.spreadsheetID, j.worksheet, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append trade row: %w", err)
	}
	return nil
}

func (j *Sheets) Close() error {
	return nil
}
