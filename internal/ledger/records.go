package ledger

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"finboard/internal/core"
)

// AccountRecord and TransactionRecord are the JSON shapes used by seed files
// and by the importer. Amounts and dates are decoded leniently.
type (
	AccountRecord struct {
		ID      string      `json:"id"`
		Name    string      `json:"name"`
		Type    string      `json:"type"`
		Balance core.Amount `json:"balance"`
	}

	TransactionRecord struct {
		ID          string         `json:"id"`
		AccountID   string         `json:"accountId"`
		Date        core.Timestamp `json:"date"`
		Description string         `json:"description,omitempty"`
		Notes       string         `json:"notes,omitempty"`
		Category    string         `json:"category"`
		Amount      core.Amount    `json:"amount"`
		Type        string         `json:"type"`
	}

	// Document is a whole ledger: accounts plus their transactions.
	Document struct {
		Accounts     []AccountRecord     `json:"accounts"`
		Transactions []TransactionRecord `json:"transactions"`
	}
)

func DecodeDocument(r io.Reader) (Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("decode ledger: %w", err)
	}
	return doc, nil
}

func (r AccountRecord) Account() core.Account {
	return core.Account{
		ID:      strings.TrimSpace(r.ID),
		Name:    strings.TrimSpace(r.Name),
		Type:    strings.ToUpper(strings.TrimSpace(r.Type)),
		Balance: r.Balance,
	}
}

func (r TransactionRecord) Transaction() (core.Transaction, error) {
	typ, err := core.ParseTransactionType(r.Type)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", r.ID, err)
	}
	return core.Transaction{
		ID:          strings.TrimSpace(r.ID),
		Date:        r.Date,
		Description: core.StringPtr(r.Description),
		Notes:       core.StringPtr(r.Notes),
		Category:    strings.TrimSpace(r.Category),
		Amount:      r.Amount,
		Type:        typ,
	}, nil
}

// Split validates the document and groups transactions by account.
// Account transaction counts are filled in. Transactions pointing at an
// unknown account are rejected.
func (d Document) Split() ([]core.Account, map[string][]core.Transaction, error) {
	accounts := make([]core.Account, 0, len(d.Accounts))
	known := make(map[string]int, len(d.Accounts))
	for _, rec := range d.Accounts {
		a := rec.Account()
		if err := a.Validate(); err != nil {
			return nil, nil, fmt.Errorf("account %q: %w", rec.ID, err)
		}
		if _, dup := known[a.ID]; dup {
			return nil, nil, fmt.Errorf("account %q: duplicate id", a.ID)
		}
		known[a.ID] = len(accounts)
		accounts = append(accounts, a)
	}

	byAccount := make(map[string][]core.Transaction, len(accounts))
	for _, rec := range d.Transactions {
		tx, err := rec.Transaction()
		if err != nil {
			return nil, nil, err
		}
		if err := tx.Validate(); err != nil {
			return nil, nil, fmt.Errorf("transaction %q: %w", rec.ID, err)
		}
		accountID := strings.TrimSpace(rec.AccountID)
		if _, ok := known[accountID]; !ok {
			return nil, nil, fmt.Errorf("transaction %q: unknown account %q", rec.ID, rec.AccountID)
		}
		byAccount[accountID] = append(byAccount[accountID], tx)
	}

	for i := range accounts {
		accounts[i].Counts = map[string]int{core.CountTransactions: len(byAccount[accounts[i].ID])}
	}
	return accounts, byAccount, nil
}
