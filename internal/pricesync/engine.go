// Package pricesync refreshes holding prices in batches: one oracle call per
// cycle, then a bounded fan-out that applies quotes and persists each holding.
package pricesync

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/leonid6372/crypto-tracker/internal/common/domain"
	"github.com/leonid6372/crypto-tracker/internal/valuation"
	"github.com/leonid6372/crypto-tracker/pkg/errs"
	"github.com/leonid6372/crypto-tracker/pkg/log"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const DefaultConcurrency = 8

type Engine struct {
	holdings    domain.HoldingsRepository
	oracle      domain.PriceOracle
	concurrency int
	now         func() time.Time
}

// Result lists the holdings that received a fresh quote and were persisted.
type Result struct {
	Updated  int               `json:"updated"`
	Holdings []*domain.Holding `json:"holdings"`
}

func NewEngine(holdings domain.HoldingsRepository, oracle domain.PriceOracle, concurrency int) *Engine {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	return &Engine{
		holdings:    holdings,
		oracle:      oracle,
		concurrency: concurrency,
		now:         time.Now,
	}
}

// SyncPrices prices every active holding in scope with a single oracle
// request. An oracle failure aborts the cycle with nothing updated. Holdings
// whose symbol got no quote keep their previous price. A failed save,
// including a holding edited or removed while the quotes were in flight, is
// logged and skipped so the rest of the batch still lands.
func (e *Engine) SyncPrices(ctx context.Context, scope domain.Scope) (*Result, error) {
	start := time.Now()

	holdings, err := e.holdings.FindActive(ctx, scope)
	if err != nil {
		return &Result{Holdings: []*domain.Holding{}}, fmt.Errorf("load active holdings: %w", err)
	}

	if len(holdings) == 0 {
		return &Result{Holdings: []*domain.Holding{}}, nil
	}

	symbols := distinctSymbols(holdings)

	quotes, err := e.oracle.GetQuotes(ctx, symbols)
	if err != nil {
		return &Result{Holdings: []*domain.Holding{}}, err
	}

	now := e.now()

	var (
		mu      sync.Mutex
		updated = make([]*domain.Holding, 0, len(holdings))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for _, h := range holdings {
		quote, ok := quotes[h.Symbol]
		if !ok {
			log.Debug("no quote for holding, keeping cached price",
				zap.Int64("holdingID", h.ID),
				zap.String("symbol", h.Symbol),
			)
			continue
		}

		g.Go(func() error {
			priced := valuation.ApplyQuote(h, quote, now)

			if err := e.holdings.SaveQuote(gctx, priced); err != nil {
				log.Error("failed to persist holding price",
					zap.Int64("holdingID", h.ID),
					zap.Int64("userID", h.UserID),
					zap.String("symbol", h.Symbol),
					zap.Error(err),
					zap.String("stack", errs.Stack(err)),
				)
				return nil
			}

			mu.Lock()
			updated = append(updated, priced)
			mu.Unlock()

			return nil
		})
	}

	_ = g.Wait()

	sort.Slice(updated, func(i, j int) bool { return updated[i].ID < updated[j].ID })

	log.Info("price sync complete",
		zap.Bool("allUsers", scope.All()),
		zap.Int64("userID", scope.UserID),
		zap.Int("holdings", len(holdings)),
		zap.Int("symbols", len(symbols)),
		zap.Int("quotes", len(quotes)),
		zap.Int("updated", len(updated)),
		zap.Duration("elapsed", time.Since(start)),
	)

	return &Result{Updated: len(updated), Holdings: updated}, nil
}

func distinctSymbols(holdings []*domain.Holding) []string {
	seen := make(map[string]struct{}, len(holdings))
	symbols := make([]string, 0, len(holdings))

	for _, h := range holdings {
		if _, ok := seen[h.Symbol]; ok {
			continue
		}
		seen[h.Symbol] = struct{}{}
		symbols = append(symbols, h.Symbol)
	}

	sort.Strings(symbols)

	return symbols
}
