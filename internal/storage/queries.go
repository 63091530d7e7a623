package storage

import (
	"context"
	"database/sql"
)

const listAccounts = `
SELECT a.id, a.name, a.type, a.balance, COUNT(t.id) AS transaction_count
FROM accounts a
LEFT JOIN transactions t ON t.account_id = a.id
GROUP BY a.id
ORDER BY a.created_at, a.name
`

func (q *Queries) ListAccounts(ctx context.Context) ([]Account, error) {
	rows, err := q.db.QueryContext(ctx, listAccounts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Account
	for rows.Next() {
		var i Account
		if err := rows.Scan(&i.ID, &i.Name, &i.Type, &i.Balance, &i.TransactionCount); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getAccount = `
SELECT a.id, a.name, a.type, a.balance,
       (SELECT COUNT(*) FROM transactions t WHERE t.account_id = a.id) AS transaction_count
FROM accounts a
WHERE a.id = ?
`

func (q *Queries) GetAccount(ctx context.Context, id string) (Account, error) {
	row := q.db.QueryRowContext(ctx, getAccount, id)
	var i Account
	err := row.Scan(&i.ID, &i.Name, &i.Type, &i.Balance, &i.TransactionCount)
	return i, err
}

const upsertAccount = `
INSERT INTO accounts (id, name, type, balance)
VALUES (?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    name = excluded.name,
    type = excluded.type,
    balance = excluded.balance,
    updated_at = CURRENT_TIMESTAMP
`

type UpsertAccountParams struct {
	ID      string
	Name    string
	Type    string
	Balance string
}

func (q *Queries) UpsertAccount(ctx context.Context, arg UpsertAccountParams) error {
	_, err := q.db.ExecContext(ctx, upsertAccount, arg.ID, arg.Name, arg.Type, arg.Balance)
	return err
}

const deleteTransactionsByAccount = `DELETE FROM transactions WHERE account_id = ?`

func (q *Queries) DeleteTransactionsByAccount(ctx context.Context, accountID string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteTransactionsByAccount, accountID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const insertTransaction = `
INSERT INTO transactions (id, account_id, occurred_at, description, notes, category, amount, type)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`

func (q *Queries) InsertTransaction(ctx context.Context, arg Transaction) error {
	_, err := q.db.ExecContext(ctx, insertTransaction,
		arg.ID,
		arg.AccountID,
		arg.OccurredAt,
		arg.Description,
		arg.Notes,
		arg.Category,
		arg.Amount,
		arg.Type,
	)
	return err
}

const listTransactionsByAccount = `
SELECT id, account_id, occurred_at, description, notes, category, amount, type
FROM transactions
WHERE account_id = ?
ORDER BY occurred_at DESC, id
`

func (q *Queries) ListTransactionsByAccount(ctx context.Context, accountID string) ([]Transaction, error) {
	rows, err := q.db.QueryContext(ctx, listTransactionsByAccount, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Transaction
	for rows.Next() {
		var i Transaction
		if err := rows.Scan(
			&i.ID,
			&i.AccountID,
			&i.OccurredAt,
			&i.Description,
			&i.Notes,
			&i.Category,
			&i.Amount,
			&i.Type,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}
