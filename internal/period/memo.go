package period

import (
	"strings"
	"time"

	"finboard/internal/cache"
	"finboard/internal/core"
	"finboard/internal/ledger"

	"golang.org/x/sync/singleflight"
)

// Memo caches aggregation results per (transaction set revision, range key,
// calendar day of now). A new revision or key always recomputes from scratch.
type Memo struct {
	results *cache.LRUCache[Result]
	group   singleflight.Group
	compute func(txs []core.Transaction, key RangeKey, now time.Time) Result
}

func NewMemo(size int, ttl time.Duration) *Memo {
	return &Memo{
		results: cache.NewLRUCache[Result](size, ttl),
		compute: Aggregate,
	}
}

// Cache exposes the underlying cache so it can be registered for cleanup.
func (m *Memo) Cache() *cache.LRUCache[Result] { return m.results }

// Aggregate returns the memoized result for set, computing it on a miss.
// Concurrent misses for the same entry share one computation.
func (m *Memo) Aggregate(set *ledger.TransactionSet, key RangeKey, now time.Time) Result {
	key.Range() // fail fast on unknown keys, outside the shared call

	if set == nil {
		return m.compute(nil, key, now)
	}

	k := memoKey(set.Revision, key, now)
	if r, ok := m.results.Get(k); ok {
		return r.clone()
	}

	v, _, _ := m.group.Do(k, func() (interface{}, error) {
		if r, ok := m.results.Get(k); ok {
			return r, nil
		}
		r := m.compute(set.Transactions, key, now)
		m.results.Set(k, r)
		return r, nil
	})
	return v.(Result).clone()
}

// Forget drops every cached result of a revision.
func (m *Memo) Forget(revision string) int {
	return m.results.DeletePrefix(revision + "|")
}

func memoKey(revision string, key RangeKey, now time.Time) string {
	var b strings.Builder
	b.WriteString(revision)
	b.WriteByte('|')
	b.WriteString(string(key))
	b.WriteByte('|')
	b.WriteString(now.Format("2006-01-02"))
	b.WriteByte('|')
	b.WriteString(now.Location().String())
	return b.String()
}

func (r Result) clone() Result {
	r.Buckets = append(make([]Bucket, 0, len(r.Buckets)), r.Buckets...)
	return r
}
