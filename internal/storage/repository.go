package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"finboard/internal/core"
	"finboard/internal/ledger"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

var (
	_ ledger.Reader = (*SQLiteRepository)(nil)
	_ ledger.Writer = (*SQLiteRepository)(nil)
)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, queries: New(db)}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable; used by the readiness probe.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) ListAccounts(ctx context.Context) ([]core.Account, error) {
	rows, err := r.queries.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	out := make([]core.Account, len(rows))
	for i, row := range rows {
		out[i] = toAccount(row)
	}
	return out, nil
}

func (r *SQLiteRepository) GetAccount(ctx context.Context, id string) (core.Account, error) {
	row, err := r.queries.GetAccount(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, fmt.Errorf("account %s: %w", id, ledger.ErrAccountNotFound)
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("get account %s: %w", id, err)
	}
	return toAccount(row), nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, accountID string) ([]core.Transaction, error) {
	rows, err := r.queries.ListTransactionsByAccount(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("list transactions for %s: %w", accountID, err)
	}
	out := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		out = append(out, toTransaction(row))
	}
	return out, nil
}

// ImportLedger upserts accounts and replaces their transactions in a single
// database transaction. Nothing is written if any row fails.
func (r *SQLiteRepository) ImportLedger(ctx context.Context, accounts []core.Account, txs map[string][]core.Transaction) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	inserted := 0
	for _, a := range accounts {
		if err := a.Validate(); err != nil {
			return fmt.Errorf("account %q: %w", a.ID, err)
		}
		if err := q.UpsertAccount(ctx, UpsertAccountParams{
			ID:      a.ID,
			Name:    a.Name,
			Type:    a.Type,
			Balance: a.Balance.Decimal().String(),
		}); err != nil {
			return fmt.Errorf("upsert account %s: %w", a.ID, err)
		}
		if _, err := q.DeleteTransactionsByAccount(ctx, a.ID); err != nil {
			return fmt.Errorf("clear transactions of %s: %w", a.ID, err)
		}
		for _, t := range txs[a.ID] {
			if err := q.InsertTransaction(ctx, fromTransaction(a.ID, t)); err != nil {
				return fmt.Errorf("insert transaction %s: %w", t.ID, err)
			}
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}

	slog.InfoContext(ctx, "Ledger imported into SQLite",
		"accounts", len(accounts),
		"transactions", inserted)
	return nil
}

func toAccount(row Account) core.Account {
	return core.Account{
		ID:      row.ID,
		Name:    row.Name,
		Type:    row.Type,
		Balance: storedAmount(row.Balance),
		Counts:  map[string]int{core.CountTransactions: int(row.TransactionCount)},
	}
}

func toTransaction(row Transaction) core.Transaction {
	t := core.Transaction{
		ID:       row.ID,
		Date:     core.At(time.UnixMilli(row.OccurredAt)),
		Category: row.Category,
		Amount:   storedAmount(row.Amount),
		Type:     core.TransactionType(row.Type),
	}
	if row.Description.Valid {
		t.Description = core.StringPtr(row.Description.String)
	}
	if row.Notes.Valid {
		t.Notes = core.StringPtr(row.Notes.String)
	}
	return t
}

func fromTransaction(accountID string, t core.Transaction) Transaction {
	return Transaction{
		ID:          t.ID,
		AccountID:   accountID,
		OccurredAt:  t.Date.UnixMilli(),
		Description: nullString(t.Description),
		Notes:       nullString(t.Notes),
		Category:    t.Category,
		Amount:      t.Amount.Decimal().String(),
		Type:        string(t.Type),
	}
}

// storedAmount keeps unparseable text as-is so it normalizes to zero downstream.
func storedAmount(s string) core.Amount {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return core.AmountOf(s)
	}
	return core.AmountOf(d)
}
