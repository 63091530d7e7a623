package http

import (
	"net/url"
	"sort"

	"finboard/internal/core"
	"finboard/internal/period"
)

const (
	chartWidth  = 900
	chartHeight = 320
)

type accountCard struct {
	ID           string
	Name         string
	TypeLabel    string
	Balance      string
	Transactions int
}

func newAccountCard(a core.Account) accountCard {
	return accountCard{
		ID:           a.ID,
		Name:         a.Name,
		TypeLabel:    a.TypeLabel(),
		Balance:      core.FormatBalance(a.Balance.Float64()),
		Transactions: a.TransactionCount(),
	}
}

func newAccountCards(accounts []core.Account) []accountCard {
	cards := make([]accountCard, 0, len(accounts))
	for _, a := range accounts {
		cards = append(cards, newAccountCard(a))
	}
	return cards
}

type rangeOption struct {
	Key      string
	Label    string
	Selected bool
}

type overviewView struct {
	AccountID   string
	Range       string
	Label       string
	Ranges      []rangeOption
	Income      string
	Expense     string
	Net         string
	NetClass    string
	Empty       bool
	ChartURL    string
	ChartWidth  int
	ChartHeight int
}

func newOverviewView(accountID string, res period.Result) overviewView {
	v := overviewView{
		AccountID:   accountID,
		Range:       string(res.Range.Key),
		Label:       res.Range.Label,
		Income:      core.FormatCurrency(res.Totals.Income),
		Expense:     core.FormatCurrency(res.Totals.Expense),
		Net:         core.FormatCurrency(res.Totals.Net()),
		NetClass:    signClass(res.Totals.Net()),
		Empty:       res.Empty(),
		ChartURL:    "/account/" + url.PathEscape(accountID) + "/chart.svg?range=" + url.QueryEscape(string(res.Range.Key)),
		ChartWidth:  chartWidth,
		ChartHeight: chartHeight,
	}
	for _, r := range period.Ranges() {
		v.Ranges = append(v.Ranges, rangeOption{Key: string(r.Key), Label: r.Label, Selected: r.Key == res.Range.Key})
	}
	return v
}

// signClass styles a net figure. Break-even counts as positive.
func signClass(v float64) string {
	if v < 0 {
		return "negative"
	}
	return "positive"
}

type transactionRow struct {
	Date        string
	Description string
	Notes       string
	Category    string
	Amount      string
	Class       string
}

// newTransactionRows lists transactions newest first.
func newTransactionRows(txs []core.Transaction) []transactionRow {
	sorted := append([]core.Transaction(nil), txs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.After(sorted[j].Date.Time)
	})

	rows := make([]transactionRow, 0, len(sorted))
	for _, t := range sorted {
		row := transactionRow{
			Category: t.Category,
			Amount:   core.FormatCurrency(t.Signed()),
			Class:    "income",
		}
		if t.Type == core.Expense {
			row.Class = "expense"
		}
		if !t.Date.IsZero() {
			row.Date = t.Date.Format("Jan 02, 2006")
		}
		if t.Description != nil {
			row.Description = *t.Description
		}
		if t.Notes != nil {
			row.Notes = *t.Notes
		}
		rows = append(rows, row)
	}
	return rows
}

// overviewJSON is the /api overview payload.
type overviewJSON struct {
	Range   period.RangeKey `json:"range"`
	Label   string          `json:"label"`
	From    *string         `json:"from"`
	To      string          `json:"to"`
	Buckets []period.Bucket `json:"buckets"`
	Totals  totalsJSON      `json:"totals"`
}

type totalsJSON struct {
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
	Net     float64 `json:"net"`
}

func newOverviewJSON(res period.Result) overviewJSON {
	out := overviewJSON{
		Range:   res.Range.Key,
		Label:   res.Range.Label,
		To:      res.Window.To.Format("2006-01-02T15:04:05.000Z07:00"),
		Buckets: res.Buckets,
		Totals: totalsJSON{
			Income:  res.Totals.Income,
			Expense: res.Totals.Expense,
			Net:     res.Totals.Net(),
		},
	}
	if out.Buckets == nil {
		out.Buckets = []period.Bucket{}
	}
	if res.Window.Bounded {
		from := res.Window.From.Format("2006-01-02T15:04:05.000Z07:00")
		out.From = &from
	}
	return out
}
