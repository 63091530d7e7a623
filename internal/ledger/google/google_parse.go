package google

import (
	"fmt"
	"strings"

	"finboard/internal/core"
)

type transactionRow struct {
	accountID string
	tx        core.Transaction
}

// parseAccounts expects a header row with ID, Name, Type and Balance.
func parseAccounts(values [][]interface{}) ([]core.Account, error) {
	if len(values) == 0 {
		return nil, nil
	}
	headers := toStrings(values[0])
	cols, err := columns(headers, "ID", "Name", "Type", "Balance")
	if err != nil {
		return nil, fmt.Errorf("unexpected accounts header: %w", err)
	}

	out := make([]core.Account, 0, len(values)-1)
	for _, raw := range values[1:] {
		id := strings.TrimSpace(cellString(raw, cols["ID"]))
		if id == "" {
			continue
		}
		out = append(out, core.Account{
			ID:      id,
			Name:    strings.TrimSpace(cellString(raw, cols["Name"])),
			Type:    strings.ToUpper(strings.TrimSpace(cellString(raw, cols["Type"]))),
			Balance: core.AmountOf(cell(raw, cols["Balance"])),
		})
	}
	return out, nil
}

// parseTransactions expects ID, Account, Date, Category, Amount and Type headers;
// Description and Notes are optional. Rows with an unreadable date or type are
// skipped and counted. Amounts are kept raw and normalized during aggregation.
func parseTransactions(values [][]interface{}) ([]transactionRow, int, error) {
	if len(values) == 0 {
		return nil, 0, nil
	}
	headers := toStrings(values[0])
	cols, err := columns(headers, "ID", "Account", "Date", "Category", "Amount", "Type")
	if err != nil {
		return nil, 0, fmt.Errorf("unexpected transactions header: %w", err)
	}
	colDesc := indexOf(headers, "Description")
	colNotes := indexOf(headers, "Notes")

	var (
		out     []transactionRow
		skipped int
	)
	for _, raw := range values[1:] {
		id := strings.TrimSpace(cellString(raw, cols["ID"]))
		if id == "" {
			continue
		}
		date, err := core.ParseTimestamp(cellString(raw, cols["Date"]))
		if err != nil || date.IsZero() {
			skipped++
			continue
		}
		typ, err := core.ParseTransactionType(cellString(raw, cols["Type"]))
		if err != nil {
			skipped++
			continue
		}
		out = append(out, transactionRow{
			accountID: strings.TrimSpace(cellString(raw, cols["Account"])),
			tx: core.Transaction{
				ID:          id,
				Date:        date,
				Description: core.StringPtr(cellString(raw, colDesc)),
				Notes:       core.StringPtr(cellString(raw, colNotes)),
				Category:    strings.TrimSpace(cellString(raw, cols["Category"])),
				Amount:      core.AmountOf(cell(raw, cols["Amount"])),
				Type:        typ,
			},
		})
	}
	return out, skipped, nil
}

func columns(headers []string, names ...string) (map[string]int, error) {
	cols := make(map[string]int, len(names))
	var missing []string
	for _, n := range names {
		i := indexOf(headers, n)
		if i == -1 {
			missing = append(missing, n)
			continue
		}
		cols[n] = i
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing %s; got headers=%v", strings.Join(missing, ","), headers)
	}
	return cols, nil
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = fmt.Sprint(v)
	}
	return out
}

func indexOf(arr []string, target string) int {
	for i, v := range arr {
		if strings.EqualFold(strings.TrimSpace(v), strings.TrimSpace(target)) {
			return i
		}
	}
	return -1
}

func cell(row []interface{}, idx int) interface{} {
	if idx < 0 || idx >= len(row) {
		return nil
	}
	return row[idx]
}

func cellString(row []interface{}, idx int) string {
	v := cell(row, idx)
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
