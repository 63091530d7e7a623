// Package core provides the ledger domain types and money display helpers.
//
// This file formats float amounts as fixed two-decimal strings behind a
// currency prefix, the way the dashboard and chart summaries display them.
package core

import (
	"math"
	"strconv"

	"github.com/Rhymond/go-money"
)

// CurrencyFormat renders amounts as prefix + two decimals, with the minus sign
// after the prefix (e.g. "₹-40.00").
type CurrencyFormat struct {
	Prefix string
	fmt    *money.Formatter
}

// NewCurrencyFormat builds a format with the given prefix and no thousands separator.
func NewCurrencyFormat(prefix string) CurrencyFormat {
	return CurrencyFormat{
		Prefix: prefix,
		fmt:    money.NewFormatter(2, ".", "", "", "1"),
	}
}

// CurrencyFormatFor uses the grapheme of an ISO 4217 code known to go-money.
func CurrencyFormatFor(code string) CurrencyFormat {
	return NewCurrencyFormat(money.GetCurrency(code).Grapheme)
}

var (
	// ChartCurrency formats period totals and chart ticks.
	ChartCurrency = CurrencyFormatFor(money.INR)
	// BalanceCurrency formats account card balances.
	BalanceCurrency = NewCurrencyFormat("Rs.")
)

// Format rounds half away from zero to cents.
func (c CurrencyFormat) Format(v float64) string {
	return c.Prefix + c.fixed(v)
}

func (c CurrencyFormat) fixed(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > 9e15 {
		return strconv.FormatFloat(v, 'f', 2, 64)
	}
	f := c.fmt
	if f == nil {
		f = money.NewFormatter(2, ".", "", "", "1")
	}
	return f.Format(int64(math.Round(v * 100)))
}

// FormatCurrency formats a period figure, e.g. FormatCurrency(40) == "₹40.00".
func FormatCurrency(v float64) string {
	return ChartCurrency.Format(v)
}

// FormatBalance formats an account balance, e.g. "Rs.1500.50".
func FormatBalance(v float64) string {
	return BalanceCurrency.Format(v)
}
