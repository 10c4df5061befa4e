package notify

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/MrSnakeDoc/demogen/internal/domain"
	"github.com/MrSnakeDoc/demogen/internal/logger"
)

// Tracker mirrors demo status to the tracking spreadsheet.
type Tracker interface {
	AppendDemo(ctx context.Context, demo *domain.DemoConfig) error
	MarkInstalled(ctx context.Context, demo *domain.DemoConfig) error
}

const (
	statusPending   = "not installed"
	statusInstalled = "installed"
)

// SheetsTracker keeps one row per demo, keyed by the demo id in column A:
// id, website, publication, design, created, status, installed at.
type SheetsTracker struct {
	values        *sheets.SpreadsheetsValuesService
	spreadsheetID string
	tab           string
	log           logger.Logger
}

type SheetsSettings struct {
	SpreadsheetID   string
	CredentialsFile string
	Tab             string
}

// NewTracker returns the Sheets tracker, or a no-op one when no spreadsheet
// is configured. Extra client options are passed to the Sheets client.
func NewTracker(ctx context.Context, s SheetsSettings, log logger.Logger, opts ...option.ClientOption) (Tracker, error) {
	if s.SpreadsheetID == "" {
		log.Info("spreadsheet not configured, status mirror disabled")
		return NopTracker{}, nil
	}
	if s.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(s.CredentialsFile))
	}
	if s.Tab == "" {
		s.Tab = "Demos"
	}

	srv, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets client: %w", err)
	}
	return &SheetsTracker{
		values:        srv.Spreadsheets.Values,
		spreadsheetID: s.SpreadsheetID,
		tab:           s.Tab,
		log:           log,
	}, nil
}

func (t *SheetsTracker) row(demo *domain.DemoConfig) []interface{} {
	status, installed := statusPending, ""
	if demo.IsInstalled {
		status = statusInstalled
		if demo.InstalledAt != nil {
			installed = demo.InstalledAt.UTC().Format(time.RFC3339)
		}
	}
	return []interface{}{
		demo.ID,
		demo.WebsiteURL,
		demo.Publication,
		string(demo.PlayerConfig.Design),
		demo.CreatedAt.UTC().Format(time.RFC3339),
		status,
		installed,
	}
}

func (t *SheetsTracker) AppendDemo(ctx context.Context, demo *domain.DemoConfig) error {
	vr := &sheets.ValueRange{Values: [][]interface{}{t.row(demo)}}
	_, err := t.values.Append(t.spreadsheetID, t.tab+"!A:G", vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("sheets: append row: %w", err)
	}
	return nil
}

// MarkInstalled updates the status cells of the demo row, appending the row
// when the demo was never mirrored.
func (t *SheetsTracker) MarkInstalled(ctx context.Context, demo *domain.DemoConfig) error {
	rowNum, err := t.findRow(ctx, demo.ID)
	if err != nil {
		return err
	}
	if rowNum == 0 {
		t.log.Warn("demo row missing from spreadsheet, appending", logger.String("id", demo.ID))
		return t.AppendDemo(ctx, demo)
	}

	cells := t.row(demo)[5:]
	rng := fmt.Sprintf("%s!F%d:G%d", t.tab, rowNum, rowNum)
	_, err = t.values.Update(t.spreadsheetID, rng, &sheets.ValueRange{Values: [][]interface{}{cells}}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("sheets: update row %d: %w", rowNum, err)
	}
	return nil
}

// findRow returns the 1-based row whose column A equals id, 0 when absent.
func (t *SheetsTracker) findRow(ctx context.Context, id string) (int, error) {
	resp, err := t.values.Get(t.spreadsheetID, t.tab+"!A:A").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("sheets: read keys: %w", err)
	}
	for i, row := range resp.Values {
		if len(row) > 0 && fmt.Sprint(row[0]) == id {
			return i + 1, nil
		}
	}
	return 0, nil
}

// NopTracker is used when no spreadsheet is configured.
type NopTracker struct{}

func (NopTracker) AppendDemo(context.Context, *domain.DemoConfig) error    { return nil }
func (NopTracker) MarkInstalled(context.Context, *domain.DemoConfig) error { return nil }
