package period

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"finboard/internal/core"
	"finboard/internal/ledger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countingMemo() (*Memo, *atomic.Int32) {
	m := NewMemo(16, time.Hour)
	var calls atomic.Int32
	m.compute = func(txs []core.Transaction, key RangeKey, now time.Time) Result {
		calls.Add(1)
		return Aggregate(txs, key, now)
	}
	return m, &calls
}

func TestMemoReusesResultForSameInputs(t *testing.T) {
	m, calls := countingMemo()
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	set := ledger.NewTransactionSet("acc-1", []core.Transaction{
		tx("1", day(2024, 3, 1), 100, core.Income),
	})

	first := m.Aggregate(set, LastMonth, now)
	second := m.Aggregate(set, LastMonth, now.Add(time.Hour))
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, first.Totals, second.Totals)

	// Callers cannot corrupt the cached buckets.
	second.Buckets[0].Income = -1
	third := m.Aggregate(set, LastMonth, now)
	assert.Equal(t, 100.0, third.Buckets[0].Income)
}

func TestMemoRecomputesOnChangedInputs(t *testing.T) {
	m, calls := countingMemo()
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	txs := []core.Transaction{tx("1", day(2024, 3, 1), 100, core.Income)}
	set := ledger.NewTransactionSet("acc-1", txs)

	m.Aggregate(set, LastMonth, now)
	m.Aggregate(set, Last7Days, now)
	assert.Equal(t, int32(2), calls.Load(), "new range key")

	reloaded := ledger.NewTransactionSet("acc-1", txs)
	m.Aggregate(reloaded, LastMonth, now)
	assert.Equal(t, int32(3), calls.Load(), "new revision")

	m.Aggregate(set, LastMonth, now.AddDate(0, 0, 1))
	assert.Equal(t, int32(4), calls.Load(), "new day")
}

func TestMemoForget(t *testing.T) {
	m, calls := countingMemo()
	now := time.Now()
	set := ledger.NewTransactionSet("acc-1", nil)

	m.Aggregate(set, LastMonth, now)
	m.Aggregate(set, AllTime, now)
	assert.Equal(t, 2, m.Forget(set.Revision))
	m.Aggregate(set, LastMonth, now)
	assert.Equal(t, int32(3), calls.Load())
}

func TestMemoCollapsesConcurrentMisses(t *testing.T) {
	m := NewMemo(16, time.Hour)
	var calls atomic.Int32
	release := make(chan struct{})
	m.compute = func(txs []core.Transaction, key RangeKey, now time.Time) Result {
		calls.Add(1)
		<-release
		return Aggregate(txs, key, now)
	}
	set := ledger.NewTransactionSet("acc-1", nil)
	now := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := m.Aggregate(set, LastMonth, now)
			assert.True(t, r.Empty())
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.LessOrEqual(t, calls.Load(), int32(8))
	assert.GreaterOrEqual(t, calls.Load(), int32(1))
	_, ok := m.Cache().Get(memoKey(set.Revision, LastMonth, now))
	require.True(t, ok)
}

func TestMemoNilSetAndBadKey(t *testing.T) {
	m := NewMemo(4, time.Hour)
	assert.True(t, m.Aggregate(nil, AllTime, time.Now()).Empty())
	assert.Panics(t, func() { m.Aggregate(ledger.NewTransactionSet("a", nil), "nope", time.Now()) })
}
