package core

import (
	"errors"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	Income  TransactionType = "INCOME"
	Expense TransactionType = "EXPENSE"
)

type (
	TransactionType string

	Transaction struct {
		ID          string
		Date        Timestamp
		Description *string
		Notes       *string
		Category    string
		Amount      Amount
		Type        TransactionType
	}

	Account struct {
		ID      string
		Name    string
		Type    string // e.g. CURRENT, SAVINGS
		Balance Amount
		Counts  map[string]int // related-record counts keyed by relation name
	}
)

// CountTransactions is the Counts key holding the number of transactions of an account.
const CountTransactions = "transactions"

var (
	ErrEmptyID         = errors.New("empty id")
	ErrEmptyName       = errors.New("empty account name")
	ErrZeroDate        = errors.New("date cannot be zero")
	ErrInvalidType     = errors.New("invalid transaction type")
	ErrNegativeAmount  = errors.New("amount must not be negative")
	ErrEmptyCategory   = errors.New("empty category")
	ErrDescriptionSize = errors.New("description too long (max 200 characters)")
)

// ParseTransactionType accepts the type tag case-insensitively.
func ParseTransactionType(s string) (TransactionType, error) {
	switch TransactionType(strings.ToUpper(strings.TrimSpace(s))) {
	case Income:
		return Income, nil
	case Expense:
		return Expense, nil
	default:
		return "", ErrInvalidType
	}
}

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

// Validate checks the invariants a provider must hold before a transaction is stored.
// Aggregation itself never calls it: it tolerates whatever the provider hands over.
func (t Transaction) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return ErrEmptyID
	}
	if t.Date.IsZero() {
		return ErrZeroDate
	}
	if !t.Type.Valid() {
		return ErrInvalidType
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if t.Description != nil && len(*t.Description) > 200 {
		return ErrDescriptionSize
	}
	if t.Amount.Float64() < 0 {
		return ErrNegativeAmount
	}
	return nil
}

// Signed returns the amount with the sign implied by the type tag.
func (t Transaction) Signed() float64 {
	v := t.Amount.Float64()
	if t.Type == Expense {
		return -v
	}
	return v
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.ID) == "" {
		return ErrEmptyID
	}
	if strings.TrimSpace(a.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

// TransactionCount returns Counts["transactions"], zero when absent.
func (a Account) TransactionCount() int {
	return a.Counts[CountTransactions]
}

// StringPtr returns nil for blank strings so optional fields stay unset.
func StringPtr(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

// TypeLabel renders the account type for display, e.g. "SAVINGS" -> "Savings Account".
func (a Account) TypeLabel() string {
	t := strings.TrimSpace(a.Type)
	if t == "" {
		return "Account"
	}
	return cases.Title(language.English).String(strings.ToLower(t)) + " Account"
}
