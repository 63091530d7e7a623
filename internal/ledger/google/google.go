// Package google reads accounts and transactions from a Google spreadsheet.
// The spreadsheet is treated as read-only.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"finboard/internal/core"
	"finboard/internal/ledger"

	"golang.org/x/sync/errgroup"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Options selects the spreadsheet, its tabs and the service account credentials.
type Options struct {
	SpreadsheetID      string
	AccountsSheet      string
	TransactionsSheet  string
	ServiceAccountFile string
	ServiceAccountJSON string
}

type Client struct {
	svc               *gsheet.Service
	spreadsheetID     string
	accountsSheet     string
	transactionsSheet string
	logger            *slog.Logger
}

var _ ledger.Reader = (*Client)(nil)

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, opts Options, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	id := strings.TrimSpace(opts.SpreadsheetID)
	if id == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	svc, err := newSheetsService(ctx, opts, logger)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:               svc,
		spreadsheetID:     id,
		accountsSheet:     orDefault(opts.AccountsSheet, "Accounts"),
		transactionsSheet: orDefault(opts.TransactionsSheet, "Transactions"),
		logger:            logger,
	}, nil
}

// newSheetsService prefers inline JSON, then the credentials file, then GOOGLE_APPLICATION_CREDENTIALS.
func newSheetsService(ctx context.Context, opts Options, logger *slog.Logger) (*gsheet.Service, error) {
	inline := strings.TrimSpace(opts.ServiceAccountJSON)
	file := strings.TrimSpace(opts.ServiceAccountFile)
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentials []byte
	switch {
	case inline != "":
		logger.InfoContext(ctx, "Using inline service account credentials")
		credentials = []byte(inline)
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		logger.InfoContext(ctx, "Read service account credentials", "path", file, "size", len(b))
		credentials = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentials),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

func (c *Client) readSheet(ctx context.Context, sheet string) ([][]interface{}, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, sheet).
		ValueRenderOption("UNFORMATTED_VALUE").
		DateTimeRenderOption("FORMATTED_STRING").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", sheet, err)
	}
	return resp.Values, nil
}

// ListAccounts reads the accounts tab and counts transactions per account.
func (c *Client) ListAccounts(ctx context.Context) ([]core.Account, error) {
	var accountRows, txRows [][]interface{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		accountRows, err = c.readSheet(gctx, c.accountsSheet)
		return err
	})
	g.Go(func() error {
		var err error
		txRows, err = c.readSheet(gctx, c.transactionsSheet)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	accounts, err := parseAccounts(accountRows)
	if err != nil {
		return nil, err
	}
	txs, skipped, err := parseTransactions(txRows)
	if err != nil {
		return nil, err
	}
	if skipped > 0 {
		c.logger.WarnContext(ctx, "Skipped unreadable transaction rows", "sheet", c.transactionsSheet, "rows", skipped)
	}
	counts := make(map[string]int)
	for _, row := range txs {
		counts[row.accountID]++
	}
	for i := range accounts {
		accounts[i].Counts = map[string]int{core.CountTransactions: counts[accounts[i].ID]}
	}
	return accounts, nil
}

func (c *Client) GetAccount(ctx context.Context, id string) (core.Account, error) {
	accounts, err := c.ListAccounts(ctx)
	if err != nil {
		return core.Account{}, err
	}
	for _, a := range accounts {
		if a.ID == id {
			return a, nil
		}
	}
	return core.Account{}, fmt.Errorf("account %s: %w", id, ledger.ErrAccountNotFound)
}

func (c *Client) ListTransactions(ctx context.Context, accountID string) ([]core.Transaction, error) {
	values, err := c.readSheet(ctx, c.transactionsSheet)
	if err != nil {
		return nil, err
	}
	rows, skipped, err := parseTransactions(values)
	if err != nil {
		return nil, err
	}
	if skipped > 0 {
		c.logger.WarnContext(ctx, "Skipped unreadable transaction rows", "sheet", c.transactionsSheet, "rows", skipped)
	}
	out := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		if row.accountID == accountID {
			out = append(out, row.tx)
		}
	}
	return out, nil
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v == "" {
		return def
	}
	return v
}
