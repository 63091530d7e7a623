package core

import "testing"

func TestFormatCurrency(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "₹0.00"},
		{40, "₹40.00"},
		{100, "₹100.00"},
		{1234567.891, "₹1234567.89"},
		{0.005, "₹0.01"},
		{-40, "₹-40.00"},
		{-0.5, "₹-0.50"},
	}
	for _, tc := range cases {
		if got := FormatCurrency(tc.in); got != tc.want {
			t.Fatalf("FormatCurrency(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestFormatBalance(t *testing.T) {
	if got := FormatBalance(1500.5); got != "Rs.1500.50" {
		t.Fatalf("got %q", got)
	}
	if got := FormatBalance(-12); got != "Rs.-12.00" {
		t.Fatalf("got %q", got)
	}
}

func TestZeroValueCurrencyFormat(t *testing.T) {
	var c CurrencyFormat
	if got := c.Format(3.1); got != "3.10" {
		t.Fatalf("got %q", got)
	}
}
