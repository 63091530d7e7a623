package period

import (
	"sort"
	"time"

	"finboard/internal/core"
)

const (
	dayLayout     = "Jan 02"
	dayYearLayout = "Jan 02, 2006"
)

// Bucket holds the income and expense sums of one calendar day.
type Bucket struct {
	Key     string    `json:"date"`
	Day     time.Time `json:"-"`
	Income  float64   `json:"income"`
	Expense float64   `json:"expense"`
}

type Totals struct {
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
}

func (t Totals) Net() float64 { return t.Income - t.Expense }

// Result is the output of one aggregation. Buckets are ascending by day.
type Result struct {
	Range   Range
	Window  Window
	Buckets []Bucket
	Totals  Totals
}

// Empty reports whether no transaction fell in the window.
func (r Result) Empty() bool { return len(r.Buckets) == 0 }

// Aggregate filters txs to the window of key relative to now, groups them by
// day and sums income and expense per day. It panics if key is unknown.
// Amounts that cannot be read as numbers count as zero. Any type other than
// INCOME counts as expense.
func Aggregate(txs []core.Transaction, key RangeKey, now time.Time) Result {
	r := key.Range()
	w := Resolve(key, now)
	loc := now.Location()

	index := make(map[string]int)
	buckets := make([]Bucket, 0)
	for _, tx := range txs {
		if !w.Contains(tx.Date.Time) {
			continue
		}
		local := tx.Date.In(loc)
		k := BucketKey(local, key, now)
		i, ok := index[k]
		if !ok {
			i = len(buckets)
			index[k] = i
			buckets = append(buckets, Bucket{Key: k, Day: StartOfDay(local)})
		}
		amount := tx.Amount.Float64()
		if tx.Type == core.Income {
			buckets[i].Income += amount
		} else {
			buckets[i].Expense += amount
		}
	}

	for i := range buckets {
		if d, ok := ParseBucketKey(buckets[i].Key, now); ok {
			buckets[i].Day = d
		}
	}
	sort.SliceStable(buckets, func(i, j int) bool {
		if !buckets[i].Day.Equal(buckets[j].Day) {
			return buckets[i].Day.Before(buckets[j].Day)
		}
		return buckets[i].Key < buckets[j].Key
	})

	var totals Totals
	for _, b := range buckets {
		totals.Income += b.Income
		totals.Expense += b.Expense
	}

	return Result{Range: r, Window: w, Buckets: buckets, Totals: totals}
}

// BucketKey formats t as "Jan 02", adding the year ("Jan 02, 2006") for the
// ALL range or when t is not in now's year.
func BucketKey(t time.Time, key RangeKey, now time.Time) string {
	t = t.In(now.Location())
	if key == AllTime || t.Year() != now.Year() {
		return t.Format(dayYearLayout)
	}
	return t.Format(dayLayout)
}

// ParseBucketKey turns a bucket key back into a day in now's location.
// Keys without a year are placed in now's year.
func ParseBucketKey(key string, now time.Time) (time.Time, bool) {
	loc := now.Location()
	if t, err := time.ParseInLocation(dayYearLayout, key, loc); err == nil {
		return t, true
	}
	t, err := time.ParseInLocation(dayLayout, key, loc)
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(now.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc), true
}
