package pricesync

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/leonid6372/crypto-tracker/internal/common/domain"
	"github.com/leonid6372/crypto-tracker/internal/common/repositories/memory"
	"github.com/leonid6372/crypto-tracker/internal/trackererrs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var syncTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type stubOracle struct {
	mu     sync.Mutex
	quotes map[string]domain.Quote
	err    error
	calls  [][]string
}

func (o *stubOracle) GetQuotes(_ context.Context, symbols []string) (map[string]domain.Quote, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.calls = append(o.calls, symbols)
	if o.err != nil {
		return nil, o.err
	}

	out := make(map[string]domain.Quote)
	for _, s := range symbols {
		if q, ok := o.quotes[s]; ok {
			out[s] = q
		}
	}
	return out, nil
}

// failingSave rejects saves for one holding id.
type failingSave struct {
	*memory.HoldingsRepository
	failID int64
}

func (f *failingSave) SaveQuote(ctx context.Context, h *domain.Holding) error {
	if h.ID == f.failID {
		return trackererrs.ErrPersistFailure
	}
	return f.HoldingsRepository.SaveQuote(ctx, h)
}

// editingOracle changes a holding's quantity while the quotes are in flight.
type editingOracle struct {
	stubOracle
	repo     *memory.HoldingsRepository
	userID   int64
	id       int64
	quantity float64
}

func (o *editingOracle) GetQuotes(ctx context.Context, symbols []string) (map[string]domain.Quote, error) {
	h, err := o.repo.GetHolding(ctx, o.userID, o.id)
	if err != nil {
		return nil, err
	}
	h.Quantity = o.quantity
	if err := o.repo.Save(ctx, h); err != nil {
		return nil, err
	}
	return o.stubOracle.GetQuotes(ctx, symbols)
}

func holding(id, userID int64, symbol string, qty, invested float64) *domain.Holding {
	return &domain.Holding{
		ID:             id,
		UserID:         userID,
		Name:           symbol,
		Symbol:         symbol,
		Quantity:       qty,
		InvestedAmount: invested,
		IsActive:       true,
		CreatedAt:      syncTime.Add(time.Duration(id) * time.Minute),
	}
}

func newEngine(repo domain.HoldingsRepository, oracle domain.PriceOracle) *Engine {
	e := NewEngine(repo, oracle, 2)
	e.now = func() time.Time { return syncTime }
	return e
}

func TestSyncPrices_PartialQuotes(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewHoldingsRepository(
		holding(1, 1, "a", 2, 100),
		holding(2, 1, "b", 1, 50),
		holding(3, 2, "c", 4, 40),
	)
	oracle := &stubOracle{quotes: map[string]domain.Quote{
		"a": {Price: 60, Change24hPercent: 1.5},
		"c": {Price: 5},
	}}

	res, err := newEngine(repo, oracle).SyncPrices(ctx, domain.ScopeAll())
	require.NoError(t, err)

	assert.Equal(t, 2, res.Updated)
	require.Len(t, res.Holdings, 2)
	assert.Equal(t, int64(1), res.Holdings[0].ID)
	assert.Equal(t, int64(3), res.Holdings[1].ID)

	require.Len(t, oracle.calls, 1)
	assert.Equal(t, []string{"a", "b", "c"}, oracle.calls[0])

	a, err := repo.GetHolding(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 60.0, a.CurrentPrice)
	assert.Equal(t, 120.0, a.CurrentValue)
	assert.Equal(t, 20.0, a.Profit)
	assert.Equal(t, 20.0, a.ProfitPercentage)
	assert.Equal(t, 1.5, a.PriceChange24h)
	assert.Equal(t, syncTime, a.LastUpdated)

	b, err := repo.GetHolding(ctx, 1, 2)
	require.NoError(t, err)
	assert.Zero(t, b.CurrentPrice)
	assert.True(t, b.LastUpdated.IsZero())
}

func TestSyncPrices_UserScope(t *testing.T) {
	repo := memory.NewHoldingsRepository(
		holding(1, 1, "a", 1, 10),
		holding(2, 2, "b", 1, 10),
	)
	oracle := &stubOracle{quotes: map[string]domain.Quote{"a": {Price: 1}, "b": {Price: 2}}}

	res, err := newEngine(repo, oracle).SyncPrices(context.Background(), domain.ScopeUser(2))
	require.NoError(t, err)

	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, []string{"b"}, oracle.calls[0])
}

func TestSyncPrices_EmptyScope(t *testing.T) {
	oracle := &stubOracle{}

	res, err := newEngine(memory.NewHoldingsRepository(), oracle).SyncPrices(context.Background(), domain.ScopeAll())
	require.NoError(t, err)

	assert.Zero(t, res.Updated)
	assert.Empty(t, res.Holdings)
	assert.Empty(t, oracle.calls)
}

func TestSyncPrices_OracleUnavailable(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewHoldingsRepository(holding(1, 1, "a", 1, 10))
	oracle := &stubOracle{err: trackererrs.ErrOracleUnavailable}

	res, err := newEngine(repo, oracle).SyncPrices(ctx, domain.ScopeAll())
	assert.ErrorIs(t, err, trackererrs.ErrOracleUnavailable)
	assert.Zero(t, res.Updated)

	h, err := repo.GetHolding(ctx, 1, 1)
	require.NoError(t, err)
	assert.Zero(t, h.CurrentPrice)
}

func TestSyncPrices_PersistFailureDoesNotAbortBatch(t *testing.T) {
	ctx := context.Background()
	repo := &failingSave{
		HoldingsRepository: memory.NewHoldingsRepository(
			holding(1, 1, "a", 1, 10),
			holding(2, 1, "b", 1, 10),
			holding(3, 1, "c", 1, 10),
		),
		failID: 2,
	}
	oracle := &stubOracle{quotes: map[string]domain.Quote{"a": {Price: 11}, "b": {Price: 12}, "c": {Price: 13}}}

	res, err := newEngine(repo, oracle).SyncPrices(ctx, domain.ScopeAll())
	require.NoError(t, err)

	assert.Equal(t, 2, res.Updated)
	assert.Equal(t, int64(1), res.Holdings[0].ID)
	assert.Equal(t, int64(3), res.Holdings[1].ID)

	b, err := repo.GetHolding(ctx, 1, 2)
	require.NoError(t, err)
	assert.Zero(t, b.CurrentPrice)
}

func TestSyncPrices_Idempotent(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewHoldingsRepository(holding(1, 1, "a", 3, 30))
	oracle := &stubOracle{quotes: map[string]domain.Quote{"a": {Price: 15, Change24hPercent: -2}}}
	engine := newEngine(repo, oracle)

	_, err := engine.SyncPrices(ctx, domain.ScopeAll())
	require.NoError(t, err)
	first, err := repo.GetHolding(ctx, 1, 1)
	require.NoError(t, err)

	_, err = engine.SyncPrices(ctx, domain.ScopeAll())
	require.NoError(t, err)
	second, err := repo.GetHolding(ctx, 1, 1)
	require.NoError(t, err)

	second.UpdatedAt = first.UpdatedAt
	assert.Equal(t, first, second)
}

func TestSyncPrices_LoadFailure(t *testing.T) {
	errLoad := errors.New("db down")
	engine := newEngine(brokenRepo{err: errLoad}, &stubOracle{})

	_, err := engine.SyncPrices(context.Background(), domain.ScopeAll())
	assert.ErrorIs(t, err, errLoad)
}

type brokenRepo struct {
	domain.HoldingsRepository
	err error
}

func (b brokenRepo) FindActive(context.Context, domain.Scope) ([]*domain.Holding, error) {
	return nil, b.err
}

func TestSyncPrices_EditDuringQuoteIsKept(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewHoldingsRepository(
		holding(1, 1, "a", 2, 100),
		holding(2, 1, "b", 1, 10),
	)
	oracle := &editingOracle{
		stubOracle: stubOracle{quotes: map[string]domain.Quote{"a": {Price: 100}, "b": {Price: 20}}},
		repo:       repo,
		userID:     1,
		id:         1,
		quantity:   5,
	}

	res, err := newEngine(repo, oracle).SyncPrices(ctx, domain.ScopeAll())
	require.NoError(t, err)

	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, int64(2), res.Holdings[0].ID)

	a, err := repo.GetHolding(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 5.0, a.Quantity)
	assert.Zero(t, a.CurrentPrice)

	_, err = newEngine(repo, oracle).SyncPrices(ctx, domain.ScopeAll())
	require.NoError(t, err)

	a, err = repo.GetHolding(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 5.0, a.Quantity)
	assert.Equal(t, 500.0, a.CurrentValue)
	assert.Equal(t, 400.0, a.Profit)
}
