package storage

import "database/sql"

type Account struct {
	ID               string
	Name             string
	Type             string
	Balance          string
	TransactionCount int64
}

type Transaction struct {
	ID          string
	AccountID   string
	OccurredAt  int64 // unix milliseconds
	Description sql.NullString
	Notes       sql.NullString
	Category    string
	Amount      string
	Type        string
}
