package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Amount is a non-negative monetary magnitude as handed over by a ledger provider.
// The raw value may be a native number, a decimal exposing InexactFloat64, a
// json.Number or a string; Float64 normalizes all of them.
type Amount struct {
	raw any
}

// AmountOf wraps any provider value.
func AmountOf(v any) Amount {
	return Amount{raw: v}
}

// Raw returns the value as received.
func (a Amount) Raw() any {
	return a.raw
}

// Float64 returns the normalized value, see NormalizeAmount.
func (a Amount) Float64() float64 {
	return NormalizeAmount(a.raw)
}

// Decimal returns the amount as a decimal, keeping full precision when the raw
// value already is one.
func (a Amount) Decimal() decimal.Decimal {
	switch v := a.raw.(type) {
	case decimal.Decimal:
		return v
	case *decimal.Decimal:
		if v != nil {
			return *v
		}
	case string:
		if d, err := decimal.NewFromString(strings.TrimSpace(v)); err == nil {
			return d
		}
	}
	f := a.Float64()
	if math.IsInf(f, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}

func (a Amount) String() string {
	return a.Decimal().String()
}

// UnmarshalJSON never fails: numbers become decimals, strings are kept verbatim
// and anything else is kept as its JSON text so it normalizes to zero.
func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		a.raw = nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			a.raw = string(data)
			return nil
		}
		a.raw = s
	case data[0] == '-' || (data[0] >= '0' && data[0] <= '9'):
		if d, err := decimal.NewFromString(string(data)); err == nil {
			a.raw = d
		} else {
			a.raw = json.Number(data)
		}
	default:
		a.raw = string(data)
	}
	return nil
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.Decimal().String()), nil
}

type inexactFloater interface {
	InexactFloat64() float64
}

type float64Parser interface {
	Float64() (float64, error)
}

// NormalizeAmount converts a provider amount to float64 with an ordered fallback
// chain: native numbers, decimals (InexactFloat64), json.Number-like values,
// then generic parsing of the textual form. Unparseable input and NaN yield 0.
func NormalizeAmount(v any) float64 {
	switch x := v.(type) {
	case nil:
		return 0
	case Amount:
		return x.Float64()
	case float64:
		return defined(x)
	case float32:
		return defined(float64(x))
	case int:
		return float64(x)
	case int8:
		return float64(x)
	case int16:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case uint:
		return float64(x)
	case uint8:
		return float64(x)
	case uint16:
		return float64(x)
	case uint32:
		return float64(x)
	case uint64:
		return float64(x)
	case bool:
		if x {
			return 1
		}
		return 0
	case *decimal.Decimal:
		if x == nil {
			return 0
		}
		return defined(x.InexactFloat64())
	case inexactFloater:
		return defined(x.InexactFloat64())
	case float64Parser:
		f, err := x.Float64()
		if err != nil {
			return parseNumber(fmt.Sprint(x))
		}
		return defined(f)
	case string:
		return parseNumber(x)
	case []byte:
		return parseNumber(string(x))
	case fmt.Stringer:
		return parseNumber(x.String())
	default:
		return 0
	}
}

func parseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return defined(f)
}

func defined(f float64) float64 {
	if math.IsNaN(f) {
		return 0
	}
	return f
}
