// Package valuation recomputes the derived money fields of holdings and
// aggregates them into portfolio snapshots. Everything here is pure.
package valuation

import (
	"time"

	"github.com/leonid6372/crypto-tracker/internal/common/domain"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ApplyQuote returns a copy of h priced at q: current price, value, profit,
// profit percentage, 24h change and last-updated are all overwritten, so
// applying the same quote twice yields the same fields.
func ApplyQuote(h *domain.Holding, q domain.Quote, now time.Time) *domain.Holding {
	out := h.Clone()

	out.CurrentPrice = q.Price
	out.PriceChange24h = q.Change24hPercent
	out.LastUpdated = now

	recompute(out)

	return out
}

// Revalue returns a copy of h with value, profit and profit percentage
// recomputed against its cached price. Used after quantity or invested
// amount edits; the price timestamp is left alone.
func Revalue(h *domain.Holding) *domain.Holding {
	out := h.Clone()
	recompute(out)
	return out
}

func recompute(h *domain.Holding) {
	quantity := decimal.NewFromFloat(h.Quantity)
	price := decimal.NewFromFloat(h.CurrentPrice)
	invested := decimal.NewFromFloat(h.InvestedAmount)

	value := quantity.Mul(price)
	profit := value.Sub(invested)

	h.CurrentValue = value.InexactFloat64()
	h.Profit = profit.InexactFloat64()
	h.ProfitPercentage = percentOf(profit, invested)
}

// Aggregate sums invested amounts and current values independently and
// derives profit from the two totals. An empty input gives a zero snapshot.
func Aggregate(holdings []*domain.Holding) domain.PortfolioSnapshot {
	invested := decimal.Zero
	value := decimal.Zero

	for _, h := range holdings {
		invested = invested.Add(decimal.NewFromFloat(h.InvestedAmount))
		value = value.Add(decimal.NewFromFloat(h.CurrentValue))
	}

	profit := value.Sub(invested)

	return domain.PortfolioSnapshot{
		TotalInvested:    invested.InexactFloat64(),
		CurrentValue:     value.InexactFloat64(),
		TotalProfit:      profit.InexactFloat64(),
		ProfitPercentage: percentOf(profit, invested),
	}
}

// NewReport builds the digest payload for holdings.
func NewReport(holdings []*domain.Holding, now time.Time) *domain.Report {
	return &domain.Report{
		PortfolioSnapshot: Aggregate(holdings),
		Holdings:          holdings,
		GeneratedAt:       now,
	}
}

func percentOf(part, whole decimal.Decimal) float64 {
	if !whole.IsPositive() {
		return 0
	}
	return part.Div(whole).Mul(hundred).InexactFloat64()
}
