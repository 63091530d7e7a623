// Package period aggregates ledger transactions into per-day income and
// expense buckets over a named date range.
package period

import (
	"fmt"
	"strings"
	"time"
)

// RangeKey names one of the fixed aggregation windows.
type RangeKey string

const (
	Last7Days   RangeKey = "7D"
	LastMonth   RangeKey = "1M"
	Last3Months RangeKey = "3M"
	Last6Months RangeKey = "6M"
	AllTime     RangeKey = "ALL"

	DefaultRange = LastMonth
)

type rangeSpec struct {
	label string
	days  int // 0 means unbounded
}

// Range is a resolved entry of the range table.
type Range struct {
	Key   RangeKey
	Label string
	Days  int
}

// Bounded reports whether the range has a finite lower bound.
func (r Range) Bounded() bool { return r.Days > 0 }

var (
	rangeOrder = [...]RangeKey{Last7Days, LastMonth, Last3Months, Last6Months, AllTime}
	rangeTable = map[RangeKey]rangeSpec{
		Last7Days:   {label: "Last 7 Days", days: 7},
		LastMonth:   {label: "Last Month", days: 30},
		Last3Months: {label: "Last 3 Months", days: 90},
		Last6Months: {label: "Last 6 Months", days: 180},
		AllTime:     {label: "All Time"},
	}
)

// Ranges returns the table in display order. The slice is a fresh copy.
func Ranges() []Range {
	out := make([]Range, 0, len(rangeOrder))
	for _, k := range rangeOrder {
		out = append(out, k.Range())
	}
	return out
}

// Valid reports whether k is in the range table.
func (k RangeKey) Valid() bool {
	_, ok := rangeTable[k]
	return ok
}

// Range looks k up in the table and panics on an unknown key.
func (k RangeKey) Range() Range {
	e, ok := rangeTable[k]
	if !ok {
		panic(fmt.Sprintf("period: unknown range key %q", string(k)))
	}
	return Range{Key: k, Label: e.label, Days: e.days}
}

func (k RangeKey) Label() string { return k.Range().Label }

func (k RangeKey) String() string { return string(k) }

// ParseRangeKey matches s against the table case-insensitively.
func ParseRangeKey(s string) (RangeKey, error) {
	k := RangeKey(strings.ToUpper(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("unknown range %q", s)
	}
	return k, nil
}

// Window is an inclusive time interval. An unbounded window has a zero From.
type Window struct {
	From    time.Time
	To      time.Time
	Bounded bool
}

// Contains reports whether t lies in the window, both ends inclusive.
func (w Window) Contains(t time.Time) bool {
	if t.After(w.To) {
		return false
	}
	return !w.Bounded || !t.Before(w.From)
}

// Resolve computes the window for k relative to now, in now's location.
func Resolve(k RangeKey, now time.Time) Window {
	r := k.Range()
	w := Window{To: EndOfDay(now)}
	if r.Bounded() {
		w.From = StartOfDay(now.AddDate(0, 0, -r.Days))
		w.Bounded = true
	}
	return w
}

func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}
