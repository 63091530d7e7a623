// Package memory is an in-process ledger backend, optionally seeded from JSON files.
package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"finboard/internal/core"
	"finboard/internal/ledger"
)

type Store struct {
	mu       sync.RWMutex
	accounts []core.Account
	txs      map[string][]core.Transaction
}

var (
	_ ledger.Reader = (*Store)(nil)
	_ ledger.Writer = (*Store)(nil)
)

func New() *Store {
	return &Store{txs: make(map[string][]core.Transaction)}
}

// NewFromFiles loads base/accounts.json and base/transactions.json. Missing
// files leave the store empty; malformed ones are an error.
func NewFromFiles(base string) (*Store, error) {
	var doc ledger.Document
	if err := readSection(filepath.Join(base, "accounts.json"), &doc.Accounts); err != nil {
		return nil, err
	}
	if err := readSection(filepath.Join(base, "transactions.json"), &doc.Transactions); err != nil {
		return nil, err
	}
	accounts, txs, err := doc.Split()
	if err != nil {
		return nil, fmt.Errorf("seed %s: %w", base, err)
	}
	s := New()
	if err := s.ImportLedger(context.Background(), accounts, txs); err != nil {
		return nil, err
	}
	return s, nil
}

func readSection[T any](path string, dst *[]T) error {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	if err := json.NewDecoder(f).Decode(dst); err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	return nil
}

func (s *Store) ListAccounts(_ context.Context) ([]core.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]core.Account, len(s.accounts))
	for i, a := range s.accounts {
		out[i] = s.withCount(a)
	}
	return out, nil
}

func (s *Store) GetAccount(_ context.Context, id string) (core.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.accounts {
		if a.ID == id {
			return s.withCount(a), nil
		}
	}
	return core.Account{}, fmt.Errorf("account %s: %w", id, ledger.ErrAccountNotFound)
}

func (s *Store) ListTransactions(_ context.Context, accountID string) ([]core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]core.Transaction(nil), s.txs[accountID]...), nil
}

// ImportLedger upserts the given accounts and replaces their transactions.
func (s *Store) ImportLedger(_ context.Context, accounts []core.Account, txs map[string][]core.Transaction) error {
	for _, a := range accounts {
		if err := a.Validate(); err != nil {
			return fmt.Errorf("account %q: %w", a.ID, err)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range accounts {
		replaced := false
		for i := range s.accounts {
			if s.accounts[i].ID == a.ID {
				s.accounts[i] = a
				replaced = true
				break
			}
		}
		if !replaced {
			s.accounts = append(s.accounts, a)
		}
		s.txs[a.ID] = append([]core.Transaction(nil), txs[a.ID]...)
	}
	return nil
}

func (s *Store) withCount(a core.Account) core.Account {
	a.Counts = map[string]int{core.CountTransactions: len(s.txs[a.ID])}
	return a
}
