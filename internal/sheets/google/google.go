// Package google exports ledger entries to a Google Sheets tab, one row per
// entry. It is the write side of the export worker.
package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"farmstead/internal/config"
	"farmstead/internal/core"
	"farmstead/internal/log"
	"farmstead/internal/store"
)

var header = []any{"ID", "Date", "Type", "Category", "Description", "Amount"}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	logger        *log.Logger

	mu      sync.Mutex
	sheetID *int64
}

var _ store.Ledger = (*Client)(nil)

// New builds a client on an existing Sheets service.
func New(svc *gsheet.Service, spreadsheetID, sheetName string, logger *log.Logger) (*Client, error) {
	if svc == nil {
		return nil, errors.New("sheets service is nil")
	}
	if strings.TrimSpace(spreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if strings.TrimSpace(sheetName) == "" {
		sheetName = "Ledger"
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		logger:        logger.WithComponent(log.ComponentSheets),
	}, nil
}

// NewFromConfig authenticates with a service account taken from
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or, failing both,
// GOOGLE_APPLICATION_CREDENTIALS.
func NewFromConfig(ctx context.Context, cfg *config.Config, logger *log.Logger) (*Client, error) {
	creds, err := serviceAccountJSON(cfg)
	if err != nil {
		return nil, err
	}
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return New(svc, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName, logger)
}

func serviceAccountJSON(cfg *config.Config) ([]byte, error) {
	if v := strings.TrimSpace(cfg.GoogleServiceAccountJSON); v != "" {
		return []byte(v), nil
	}
	path := strings.TrimSpace(cfg.GoogleServiceAccountFile)
	if path == "" {
		path = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if path == "" {
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	return data, nil
}

func (c *Client) rangeOf(cols string) string {
	return fmt.Sprintf("'%s'!%s", c.sheetName, cols)
}

// AppendEntry adds a row for e. An entry whose id is already present is left
// alone so redelivered events do not duplicate rows. The header row is
// written when the sheet is empty.
func (c *Client) AppendEntry(ctx context.Context, e core.LedgerEntry) (string, error) {
	if e.ID == "" {
		return "", errors.New("entry id is required for export")
	}
	if err := e.Validate(); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}

	ids, err := c.readIDs(ctx)
	if err != nil {
		return "", err
	}
	if rowOf(ids, e.ID) >= 0 {
		c.logger.InfoContext(ctx, "Entry already exported", log.FieldEntryID, e.ID)
		return e.ID, nil
	}

	values := [][]any{}
	if len(ids) == 0 {
		values = append(values, header)
	}
	values = append(values, entryRow(e))

	_, err = c.svc.Spreadsheets.Values.Append(c.spreadsheetID, c.rangeOf("A:F"), &gsheet.ValueRange{Values: values}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", c.sheetName, err)
	}
	c.logger.InfoContext(ctx, "Entry exported", log.FieldEntryID, e.ID, log.FieldEntryType, string(e.Type))
	return e.ID, nil
}

// DeleteEntry removes the row holding id. It returns store.ErrNotFound when
// no row matches.
func (c *Client) DeleteEntry(ctx context.Context, id string) error {
	ids, err := c.readIDs(ctx)
	if err != nil {
		return err
	}
	row := rowOf(ids, id)
	if row < 0 {
		return fmt.Errorf("entry %s: %w", id, store.ErrNotFound)
	}
	sheetID, err := c.resolveSheetID(ctx)
	if err != nil {
		return err
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{Requests: []*gsheet.Request{{
		DeleteDimension: &gsheet.DeleteDimensionRequest{Range: &gsheet.DimensionRange{
			SheetId:    sheetID,
			Dimension:  "ROWS",
			StartIndex: int64(row),
			EndIndex:   int64(row + 1),
		}},
	}}}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete row %d in sheet %s: %w", row+1, c.sheetName, err)
	}
	c.logger.InfoContext(ctx, "Exported entry removed", log.FieldEntryID, id)
	return nil
}

// ListEntries reads every exported entry back. Rows that do not parse are
// skipped and logged.
func (c *Client) ListEntries(ctx context.Context) ([]core.LedgerEntry, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, c.rangeOf("A:F")).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", c.sheetName, err)
	}
	entries, bad := parseRows(resp.Values)
	if bad > 0 {
		c.logger.WarnContext(ctx, "Skipped unreadable ledger rows", "rows", bad)
	}
	return entries, nil
}

func (c *Client) readIDs(ctx context.Context) ([]string, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, c.rangeOf("A:A")).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read ids from sheet %s: %w", c.sheetName, err)
	}
	ids := make([]string, len(resp.Values))
	for i, row := range resp.Values {
		if len(row) > 0 {
			ids[i] = strings.TrimSpace(fmt.Sprint(row[0]))
		}
	}
	return ids, nil
}

// resolveSheetID looks up the numeric id of the tab once.
func (c *Client) resolveSheetID(ctx context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sheetID != nil {
		return *c.sheetID, nil
	}
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == c.sheetName {
			id := sh.Properties.SheetId
			c.sheetID = &id
			return id, nil
		}
	}
	return 0, fmt.Errorf("sheet %q not found in spreadsheet", c.sheetName)
}

func rowOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}
