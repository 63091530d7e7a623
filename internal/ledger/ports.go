// Package ledger defines the ports through which the dashboard reads accounts
// and transactions, whatever backend holds them.
package ledger

import (
	"context"
	"errors"

	"finboard/internal/core"

	"github.com/google/uuid"
)

var ErrAccountNotFound = errors.New("account not found")

type (
	AccountReader interface {
		ListAccounts(ctx context.Context) ([]core.Account, error)
		// GetAccount returns ErrAccountNotFound (possibly wrapped) for unknown ids.
		GetAccount(ctx context.Context, id string) (core.Account, error)
	}

	// TransactionLister returns every transaction of an account; callers filter by date.
	TransactionLister interface {
		ListTransactions(ctx context.Context, accountID string) ([]core.Transaction, error)
	}

	// Reader is what the web server needs from a backend.
	Reader interface {
		AccountReader
		TransactionLister
	}

	// Writer replaces the stored ledger of the given accounts.
	Writer interface {
		ImportLedger(ctx context.Context, accounts []core.Account, txs map[string][]core.Transaction) error
	}
)

// TransactionSet is an immutable snapshot of an account's transactions.
// Revision changes whenever the snapshot is reloaded, so it identifies the list.
type TransactionSet struct {
	Revision     string
	AccountID    string
	Transactions []core.Transaction
}

func NewTransactionSet(accountID string, txs []core.Transaction) *TransactionSet {
	return &TransactionSet{
		Revision:     uuid.NewString(),
		AccountID:    accountID,
		Transactions: txs,
	}
}

func (s *TransactionSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Transactions)
}
