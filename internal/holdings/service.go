// Package holdings is the write side of the tracker: creating, editing and
// retiring positions. Every write that touches quantity, invested amount or
// price goes through valuation so the derived fields stay consistent.
package holdings

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/leonid6372/crypto-tracker/internal/common/domain"
	"github.com/leonid6372/crypto-tracker/internal/pricesync"
	"github.com/leonid6372/crypto-tracker/internal/trackererrs"
	"github.com/leonid6372/crypto-tracker/internal/valuation"
	"github.com/leonid6372/crypto-tracker/pkg/log"
	"go.uber.org/zap"
)

type Service struct {
	holdings domain.HoldingsRepository
	oracle   domain.PriceOracle
	syncer   *pricesync.Engine
	now      func() time.Time
}

type NewHolding struct {
	Name           string    `json:"name"`
	Symbol         string    `json:"symbol"`
	Quantity       float64   `json:"quantity"`
	InvestedAmount float64   `json:"invested_amount"`
	PurchaseDate   time.Time `json:"purchase_date"`
	Notes          string    `json:"notes"`
}

// HoldingUpdate carries the editable fields; nil means unchanged.
type HoldingUpdate struct {
	Quantity       *float64 `json:"quantity,omitempty"`
	InvestedAmount *float64 `json:"invested_amount,omitempty"`
	Notes          *string  `json:"notes,omitempty"`
}

type Portfolio struct {
	domain.PortfolioSnapshot
	Holdings []*domain.Holding `json:"holdings"`
}

func NewService(holdings domain.HoldingsRepository, oracle domain.PriceOracle, syncer *pricesync.Engine) *Service {
	return &Service{
		holdings: holdings,
		oracle:   oracle,
		syncer:   syncer,
		now:      time.Now,
	}
}

// AddHolding creates a position and tries to price it straight away. A
// failed lookup leaves the holding unpriced until the next sync.
func (s *Service) AddHolding(ctx context.Context, userID int64, in NewHolding) (*domain.Holding, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	now := s.now()

	holding := &domain.Holding{
		UserID:         userID,
		Name:           strings.TrimSpace(in.Name),
		Symbol:         strings.ToLower(strings.TrimSpace(in.Symbol)),
		Quantity:       in.Quantity,
		InvestedAmount: in.InvestedAmount,
		PurchaseDate:   in.PurchaseDate,
		Notes:          in.Notes,
		IsActive:       true,
	}
	if holding.PurchaseDate.IsZero() {
		holding.PurchaseDate = now
	}

	if err := s.holdings.CreateHolding(ctx, holding); err != nil {
		return nil, err
	}

	quotes, err := s.oracle.GetQuotes(ctx, []string{holding.Symbol})
	if err != nil {
		log.Warn("initial price lookup failed, holding left unpriced",
			zap.Int64("holdingID", holding.ID),
			zap.String("symbol", holding.Symbol),
			zap.Error(err),
		)
		return holding, nil
	}

	quote, ok := quotes[holding.Symbol]
	if !ok {
		return holding, nil
	}

	priced := valuation.ApplyQuote(holding, quote, now)
	if err := s.holdings.SaveQuote(ctx, priced); err != nil {
		log.Warn("failed to persist initial price",
			zap.Int64("holdingID", holding.ID),
			zap.Error(err),
		)
		return holding, nil
	}

	return priced, nil
}

// UpdateHolding applies the set fields of upd. Changing quantity or invested
// amount revalues the holding against its cached price.
func (s *Service) UpdateHolding(ctx context.Context, userID, id int64, upd HoldingUpdate) (*domain.Holding, error) {
	if err := upd.validate(); err != nil {
		return nil, err
	}

	holding, err := s.holdings.GetHolding(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if !holding.IsActive {
		return nil, trackererrs.ErrHoldingNotFound
	}

	revalue := false
	if upd.Quantity != nil {
		holding.Quantity = *upd.Quantity
		revalue = true
	}
	if upd.InvestedAmount != nil {
		holding.InvestedAmount = *upd.InvestedAmount
		revalue = true
	}
	if upd.Notes != nil {
		holding.Notes = *upd.Notes
	}

	if revalue {
		holding = valuation.Revalue(holding)
	}

	if err := s.holdings.Save(ctx, holding); err != nil {
		return nil, err
	}

	return holding, nil
}

func (s *Service) RemoveHolding(ctx context.Context, userID, id int64) error {
	return s.holdings.Deactivate(ctx, userID, id)
}

func (s *Service) Holdings(ctx context.Context, userID int64) ([]*domain.Holding, error) {
	return s.holdings.FindActive(ctx, domain.ScopeUser(userID))
}

func (s *Service) Portfolio(ctx context.Context, userID int64) (*Portfolio, error) {
	holdings, err := s.Holdings(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &Portfolio{
		PortfolioSnapshot: valuation.Aggregate(holdings),
		Holdings:          holdings,
	}, nil
}

// RefreshPrices runs a price sync limited to one user's holdings.
func (s *Service) RefreshPrices(ctx context.Context, userID int64) (*pricesync.Result, error) {
	return s.syncer.SyncPrices(ctx, domain.ScopeUser(userID))
}

func (in NewHolding) validate() error {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return fmt.Errorf("%w: name is required", trackererrs.ErrInvalidHolding)
	case strings.TrimSpace(in.Symbol) == "":
		return fmt.Errorf("%w: symbol is required", trackererrs.ErrInvalidHolding)
	case in.Quantity < 0:
		return fmt.Errorf("%w: quantity must not be negative", trackererrs.ErrInvalidHolding)
	case in.InvestedAmount < 0:
		return fmt.Errorf("%w: invested amount must not be negative", trackererrs.ErrInvalidHolding)
	}
	return nil
}

func (u HoldingUpdate) validate() error {
	if u.Quantity != nil && *u.Quantity < 0 {
		return fmt.Errorf("%w: quantity must not be negative", trackererrs.ErrInvalidHolding)
	}
	if u.InvestedAmount != nil && *u.InvestedAmount < 0 {
		return fmt.Errorf("%w: invested amount must not be negative", trackererrs.ErrInvalidHolding)
	}
	return nil
}
