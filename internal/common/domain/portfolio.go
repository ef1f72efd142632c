package domain

import "time"

// PortfolioSnapshot holds totals over one user's active holdings. It is never persisted.
type PortfolioSnapshot struct {
	TotalInvested    float64 `json:"total_invested"`
	CurrentValue     float64 `json:"current_value"`
	TotalProfit      float64 `json:"total_profit"`
	ProfitPercentage float64 `json:"profit_percentage"`
}

// Report is the payload handed to notification channels.
type Report struct {
	PortfolioSnapshot

	Holdings    []*Holding `json:"holdings"`
	GeneratedAt time.Time  `json:"generated_at"`
}
