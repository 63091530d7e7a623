package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"finboard/internal/amqp"
	"finboard/internal/cache"
	"finboard/internal/core"
	"finboard/internal/ledger"
	"finboard/internal/period"

	"golang.org/x/sync/singleflight"
)

// OverviewService serves accounts and period overviews from a ledger reader,
// caching account lists and transaction snapshots in front of it.
type OverviewService struct {
	reader    ledger.Reader
	accounts  *cache.LRUCache[[]core.Account]
	snapshots *cache.LRUCache[*ledger.TransactionSet]
	memo      *period.Memo
	loads     singleflight.Group
	logger    *slog.Logger

	// generations counts invalidations per load key. A load only fills the
	// cache if no invalidation happened while it ran.
	mu          sync.Mutex
	generations map[string]uint64
}

const accountsKey = "accounts"

// loadTimeout bounds a shared provider load. It is independent of the
// requests waiting on it.
const loadTimeout = 10 * time.Second

func snapshotKey(accountID string) string { return "tx:" + accountID }

func NewOverviewService(reader ledger.Reader, size int, ttl time.Duration, logger *slog.Logger) *OverviewService {
	if logger == nil {
		logger = slog.Default()
	}
	return &OverviewService{
		reader:      reader,
		accounts:    cache.NewLRUCache[[]core.Account](1, ttl),
		snapshots:   cache.NewLRUCache[*ledger.TransactionSet](size, ttl),
		memo:        period.NewMemo(size*4, ttl),
		logger:      logger,
		generations: make(map[string]uint64),
	}
}

// RegisterCaches adds the service caches to a cleanup manager.
func (s *OverviewService) RegisterCaches(m *cache.Manager) {
	m.Register("accounts", s.accounts)
	m.Register("snapshots", s.snapshots)
	m.Register("overviews", s.memo.Cache())
}

func (s *OverviewService) ListAccounts(ctx context.Context) ([]core.Account, error) {
	if list, ok := s.accounts.Get(accountsKey); ok {
		return list, nil
	}
	v, err := s.load(ctx, accountsKey, func(lctx context.Context) (interface{}, error) {
		gen := s.generation(accountsKey)
		list, err := s.reader.ListAccounts(lctx)
		if err != nil {
			return nil, err
		}
		s.storeIfCurrent(accountsKey, gen, func() { s.accounts.Set(accountsKey, list) })
		return list, nil
	})
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return v.([]core.Account), nil
}

func (s *OverviewService) GetAccount(ctx context.Context, id string) (core.Account, error) {
	return s.reader.GetAccount(ctx, id)
}

// Snapshot returns the cached transaction set of an account, loading it on a miss.
func (s *OverviewService) Snapshot(ctx context.Context, accountID string) (*ledger.TransactionSet, error) {
	if set, ok := s.snapshots.Get(accountID); ok {
		return set, nil
	}
	key := snapshotKey(accountID)
	v, err := s.load(ctx, key, func(lctx context.Context) (interface{}, error) {
		gen := s.generation(key)
		txs, err := s.reader.ListTransactions(lctx, accountID)
		if err != nil {
			return nil, err
		}
		set := ledger.NewTransactionSet(accountID, txs)
		s.storeIfCurrent(key, gen, func() { s.snapshots.Set(accountID, set) })
		s.logger.DebugContext(lctx, "Loaded transaction snapshot",
			"account_id", accountID, "revision", set.Revision, "count", set.Len())
		return set, nil
	})
	if err != nil {
		return nil, fmt.Errorf("list transactions for %s: %w", accountID, err)
	}
	return v.(*ledger.TransactionSet), nil
}

// load shares one provider call between concurrent callers of key. The call
// runs detached from the caller that started it, so one client going away
// does not fail the others; each caller stops waiting when its own ctx ends.
func (s *OverviewService) load(ctx context.Context, key string, fn func(context.Context) (interface{}, error)) (interface{}, error) {
	ch := s.loads.DoChan(key, func() (interface{}, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()
		return fn(lctx)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		return res.Val, res.Err
	}
}

func (s *OverviewService) generation(key string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generations[key]
}

func (s *OverviewService) storeIfCurrent(key string, gen uint64, store func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generations[key] == gen {
		store()
	}
}

// Overview aggregates an account's snapshot over key relative to now.
func (s *OverviewService) Overview(ctx context.Context, accountID string, key period.RangeKey, now time.Time) (period.Result, error) {
	set, err := s.Snapshot(ctx, accountID)
	if err != nil {
		return period.Result{}, err
	}
	return s.memo.Aggregate(set, key, now), nil
}

// Invalidate drops everything cached for an account. Loads already in
// flight keep serving their callers but no longer fill the cache.
func (s *OverviewService) Invalidate(accountID string) {
	key := snapshotKey(accountID)
	s.mu.Lock()
	s.generations[key]++
	s.generations[accountsKey]++
	if set, ok := s.snapshots.Get(accountID); ok {
		s.memo.Forget(set.Revision)
	}
	s.snapshots.Delete(accountID)
	s.accounts.Delete(accountsKey)
	s.mu.Unlock()

	s.loads.Forget(key)
	s.loads.Forget(accountsKey)
}

// HandleLedgerChanged is the AMQP consumer callback.
func (s *OverviewService) HandleLedgerChanged(ctx context.Context, msg *amqp.LedgerChangedMessage) error {
	s.Invalidate(msg.AccountID)
	s.logger.InfoContext(ctx, "Ledger changed, cache invalidated",
		"account_id", msg.AccountID, "revision", msg.Revision)
	return nil
}
