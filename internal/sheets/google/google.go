// Package google talks to the spreadsheet that is the remote source of
// truth for payments. Each user gets a dedicated tab; every tab carries one
// header row and five ordered columns: Date, Category, Amount, Notes, ID.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"

	"billtrack/internal/core"
	ports "billtrack/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

var header = []any{"Date", "Category", "Amount", "Notes", "ID"}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	defaultSheet  string

	mu          sync.Mutex
	knownSheets map[string]int64 // title -> sheetId
}

var _ ports.PaymentStore = (*Client)(nil)

// New creates a Sheets client for the given spreadsheet. defaultSheet names
// the tab used when no user identity is supplied.
func New(ctx context.Context, spreadsheetID, defaultSheet string) (*Client, error) {
	if strings.TrimSpace(spreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if defaultSheet == "" {
		defaultSheet = "Payments"
	}
	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		defaultSheet:  defaultSheet,
		knownSheets:   make(map[string]int64),
	}, nil
}

// newSheetsService authenticates with service account credentials from
// GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS.
func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	inlineJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	credFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if inlineJSON == "" && credFile == "" {
		credFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case inlineJSON != "":
		credentialsJSON = []byte(inlineJSON)
	case credFile != "":
		data, err := os.ReadFile(credFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = data
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

// SheetNameFor maps a user identity onto a tab title. Empty identity means
// the shared default tab.
func (c *Client) SheetNameFor(userID string) string {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return c.defaultSheet
	}
	return "user_" + userID
}

// EnsureUserSheet provisions the user's tab with its header row if the tab
// does not exist yet, and returns the numeric sheet id either way.
func (c *Client) EnsureUserSheet(ctx context.Context, userID string) (int64, error) {
	title := c.SheetNameFor(userID)

	c.mu.Lock()
	if id, ok := c.knownSheets[title]; ok {
		c.mu.Unlock()
		return id, nil
	}
	c.mu.Unlock()

	meta, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("get spreadsheet metadata: %w", err)
	}
	for _, sh := range meta.Sheets {
		if sh.Properties.Title == title {
			c.remember(title, sh.Properties.SheetId)
			return sh.Properties.SheetId, nil
		}
	}

	resp, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{
				Properties: &gsheet.SheetProperties{Title: title},
			},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("add sheet %q: %w", title, err)
	}
	sheetID := resp.Replies[0].AddSheet.Properties.SheetId

	headerRange := fmt.Sprintf("%s!A1:E1", title)
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, headerRange,
		&gsheet.ValueRange{Values: [][]any{header}}).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("write header for %q: %w", title, err)
	}

	slog.InfoContext(ctx, "provisioned payment sheet", "sheet", title)
	c.remember(title, sheetID)
	return sheetID, nil
}

func (c *Client) remember(title string, id int64) {
	c.mu.Lock()
	c.knownSheets[title] = id
	c.mu.Unlock()
}

func (c *Client) ListPayments(ctx context.Context, userID string) ([]core.Payment, error) {
	if _, err := c.EnsureUserSheet(ctx, userID); err != nil {
		return nil, err
	}
	title := c.SheetNameFor(userID)
	rng := fmt.Sprintf("%s!A2:E", title)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}

	var out []core.Payment
	for _, row := range resp.Values {
		p, ok := rowToPayment(row)
		if !ok {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (c *Client) AppendPayment(ctx context.Context, userID string, p core.Payment) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if _, err := c.EnsureUserSheet(ctx, userID); err != nil {
		return err
	}
	title := c.SheetNameFor(userID)
	rng := fmt.Sprintf("%s!A:E", title)
	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng,
		&gsheet.ValueRange{Values: [][]any{paymentToRow(p)}}).
		ValueInputOption("USER_ENTERED").InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append payment to %s: %w", title, err)
	}
	return nil
}

func (c *Client) UpdatePayment(ctx context.Context, userID string, p core.Payment) error {
	if err := p.Validate(); err != nil {
		return err
	}
	title := c.SheetNameFor(userID)
	row, _, err := c.findPaymentRow(ctx, userID, p.ID)
	if err != nil {
		return err
	}
	rng := fmt.Sprintf("%s!A%d:E%d", title, row, row)
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng,
		&gsheet.ValueRange{Values: [][]any{paymentToRow(p)}}).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update payment %s in %s: %w", p.ID, title, err)
	}
	return nil
}

func (c *Client) DeletePayment(ctx context.Context, userID, paymentID string) error {
	row, sheetID, err := c.findPaymentRow(ctx, userID, paymentID)
	if err != nil {
		return err
	}
	_, err = c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			DeleteDimension: &gsheet.DeleteDimensionRequest{
				Range: &gsheet.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: int64(row - 1),
					EndIndex:   int64(row),
				},
			},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("delete payment %s: %w", paymentID, err)
	}
	return nil
}

// findPaymentRow locates a payment by the ID column and returns its
// 1-based row number along with the numeric sheet id.
func (c *Client) findPaymentRow(ctx context.Context, userID, paymentID string) (int, int64, error) {
	sheetID, err := c.EnsureUserSheet(ctx, userID)
	if err != nil {
		return 0, 0, err
	}
	title := c.SheetNameFor(userID)
	rng := fmt.Sprintf("%s!E:E", title)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return 0, 0, fmt.Errorf("read %s: %w", rng, err)
	}
	for i, row := range resp.Values {
		if len(row) == 0 {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(row[0])) == paymentID {
			return i + 1, sheetID, nil
		}
	}
	return 0, 0, fmt.Errorf("payment %s: %w", paymentID, core.ErrNotFound)
}

func paymentToRow(p core.Payment) []any {
	return []any{p.Date, p.Category, p.Amount.Float64(), p.Notes, p.ID}
}

// rowToPayment is best-effort: malformed rows are skipped, never fatal.
func rowToPayment(row []any) (core.Payment, bool) {
	cols := make([]string, 5)
	for i := 0; i < len(row) && i < 5; i++ {
		cols[i] = strings.TrimSpace(fmt.Sprint(row[i]))
	}
	if cols[4] == "" || cols[0] == "" {
		return core.Payment{}, false
	}
	cents, ok := parseAmountToCents(cols[2])
	if !ok {
		return core.Payment{}, false
	}
	return core.Payment{
		ID:       cols[4],
		Category: cols[1],
		Amount:   core.Money{Cents: cents},
		Date:     cols[0],
		Notes:    cols[3],
	}, true
}

func parseAmountToCents(s string) (int64, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return int64(f*100.0 + 0.5), true
}
