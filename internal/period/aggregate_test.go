package period

import (
	"encoding/json"
	"math/rand"
	"sort"
	"testing"
	"time"

	"finboard/internal/core"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) core.Timestamp {
	return core.At(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

func tx(id string, date core.Timestamp, amount any, typ core.TransactionType) core.Transaction {
	return core.Transaction{ID: id, Date: date, Category: "General", Amount: core.AmountOf(amount), Type: typ}
}

func TestAggregateScenario(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	txs := []core.Transaction{
		tx("1", day(2024, 3, 1), 100, core.Income),
		tx("2", day(2024, 3, 1), 40, core.Expense),
		tx("3", day(2024, 3, 5), 20, core.Expense),
	}

	r := Aggregate(txs, LastMonth, now)

	require.Len(t, r.Buckets, 2)
	assert.Equal(t, "Mar 01", r.Buckets[0].Key)
	assert.Equal(t, 100.0, r.Buckets[0].Income)
	assert.Equal(t, 40.0, r.Buckets[0].Expense)
	assert.Equal(t, "Mar 05", r.Buckets[1].Key)
	assert.Equal(t, 20.0, r.Buckets[1].Expense)

	assert.Equal(t, Totals{Income: 100, Expense: 60}, r.Totals)
	assert.Equal(t, 40.0, r.Totals.Net())
	assert.Equal(t, "Last Month", r.Range.Label)
}

func TestAggregateEmpty(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	for _, rg := range Ranges() {
		r := Aggregate(nil, rg.Key, now)
		assert.True(t, r.Empty())
		assert.NotNil(t, r.Buckets)
		assert.Equal(t, Totals{}, r.Totals)
		assert.Equal(t, "₹0.00", core.FormatCurrency(r.Totals.Net()))
	}
}

func TestAggregateUnknownKeyPanics(t *testing.T) {
	assert.Panics(t, func() { Aggregate(nil, "bogus", time.Now()) })
}

func TestAggregateInclusiveLowerBound(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	from := Resolve(Last7Days, now).From

	txs := []core.Transaction{
		tx("at", core.At(from), 5, core.Expense),
		tx("before", core.At(from.Add(-time.Nanosecond)), 7, core.Expense),
	}
	r := Aggregate(txs, Last7Days, now)
	require.Len(t, r.Buckets, 1)
	assert.Equal(t, "Mar 03", r.Buckets[0].Key)
	assert.Equal(t, 5.0, r.Totals.Expense)
}

func TestAggregateExcludesFuture(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	txs := []core.Transaction{
		tx("late today", core.At(time.Date(2024, 3, 10, 23, 59, 59, 0, time.UTC)), 1, core.Income),
		tx("tomorrow", day(2024, 3, 11), 2, core.Income),
	}
	r := Aggregate(txs, AllTime, now)
	assert.Equal(t, 1.0, r.Totals.Income)
}

func TestAggregateAllTimeKeepsOldTransactions(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	txs := []core.Transaction{
		tx("old", day(1970, 1, 2), 3, core.Income),
		tx("recent", day(2024, 3, 9), 4, core.Income),
	}
	r := Aggregate(txs, AllTime, now)
	require.Len(t, r.Buckets, 2)
	assert.Equal(t, "Jan 02, 1970", r.Buckets[0].Key)
	assert.Equal(t, "Mar 09, 2024", r.Buckets[1].Key)
	assert.Equal(t, 7.0, r.Totals.Income)
}

func TestAggregateYearQualifiedKeysAcrossNewYear(t *testing.T) {
	now := time.Date(2024, 1, 5, 9, 0, 0, 0, time.UTC)
	txs := []core.Transaction{
		tx("jan", day(2024, 1, 2), 10, core.Expense),
		tx("dec", day(2023, 12, 30), 5, core.Expense),
	}
	r := Aggregate(txs, Last7Days, now)
	require.Len(t, r.Buckets, 2)
	assert.Equal(t, "Dec 30, 2023", r.Buckets[0].Key)
	assert.Equal(t, "Jan 02", r.Buckets[1].Key)
}

func TestAggregateNormalizesAmounts(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	d := day(2024, 3, 8)
	txs := []core.Transaction{
		tx("num", d, 12.5, core.Income),
		tx("dec", d, decimal.RequireFromString("12.5"), core.Income),
		tx("str", d, "12.5", core.Income),
		tx("json", d, json.Number("12.5"), core.Income),
		tx("bad", d, "twelve", core.Income),
		tx("nil", d, nil, core.Income),
	}
	r := Aggregate(txs, Last7Days, now)
	require.Len(t, r.Buckets, 1)
	assert.Equal(t, 50.0, r.Totals.Income)
}

func TestAggregateCountsNonIncomeAsExpense(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	txs := []core.Transaction{
		tx("odd", day(2024, 3, 8), 9, "TRANSFER"),
		tx("dup", day(2024, 3, 8), 1, core.Income),
		tx("dup", day(2024, 3, 8), 1, core.Income),
	}
	r := Aggregate(txs, Last7Days, now)
	require.Len(t, r.Buckets, 1)
	assert.Equal(t, Totals{Income: 2, Expense: 9}, r.Totals)
	assert.Equal(t, 9.0, r.Buckets[0].Expense)
}

func TestAggregateUsesNowLocationForDays(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+1800)
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, ist)
	// 20:00 UTC on Mar 5 is already Mar 6 in IST.
	txs := []core.Transaction{tx("1", core.At(time.Date(2024, 3, 5, 20, 0, 0, 0, time.UTC)), 1, core.Expense)}
	r := Aggregate(txs, Last7Days, now)
	require.Len(t, r.Buckets, 1)
	assert.Equal(t, "Mar 06", r.Buckets[0].Key)
}

func randomTransactions(rng *rand.Rand, now time.Time, n int) []core.Transaction {
	txs := make([]core.Transaction, n)
	for i := range txs {
		offset := time.Duration(rng.Int63n(int64(400 * 24 * time.Hour)))
		typ := core.Income
		if rng.Intn(2) == 0 {
			typ = core.Expense
		}
		amount := float64(rng.Intn(100000)) / 100
		txs[i] = tx("r", core.At(now.Add(-offset+6*time.Hour)), amount, typ)
	}
	return txs
}

func TestAggregateProperties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	for iter := 0; iter < 20; iter++ {
		txs := randomTransactions(rng, now, 1+rng.Intn(200))
		for _, rg := range Ranges() {
			r := Aggregate(txs, rg.Key, now)

			days := make([]time.Time, len(r.Buckets))
			for i, b := range r.Buckets {
				parsed, ok := ParseBucketKey(b.Key, now)
				require.True(t, ok, b.Key)
				days[i] = parsed
			}
			assert.True(t, sort.SliceIsSorted(days, func(i, j int) bool { return days[i].Before(days[j]) }),
				"buckets out of order for %s", rg.Key)

			var income, expense float64
			w := Resolve(rg.Key, now)
			for _, x := range txs {
				if !w.Contains(x.Date.Time) {
					continue
				}
				if x.Type == core.Income {
					income += x.Amount.Float64()
				} else {
					expense += x.Amount.Float64()
				}
			}
			assert.InDelta(t, income, r.Totals.Income, 1e-6)
			assert.InDelta(t, expense, r.Totals.Expense, 1e-6)

			again := Aggregate(txs, rg.Key, now)
			assert.Equal(t, r, again)
		}
	}
}

func TestBucketKeyRoundTrip(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	d := time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)

	k := BucketKey(d, LastMonth, now)
	assert.Equal(t, "Feb 29", k)
	parsed, ok := ParseBucketKey(k, now)
	require.True(t, ok)
	assert.Equal(t, d, parsed)

	k = BucketKey(d, AllTime, now)
	assert.Equal(t, "Feb 29, 2024", k)
	parsed, ok = ParseBucketKey(k, now)
	require.True(t, ok)
	assert.Equal(t, d, parsed)

	_, ok = ParseBucketKey("not a day", now)
	assert.False(t, ok)
}
