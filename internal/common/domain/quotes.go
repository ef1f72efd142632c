package domain

import "context"

// PriceOracle fetches quotes for a batch of symbols in one call. Symbols the
// service has no data for are absent from the result.
type PriceOracle interface {
	GetQuotes(ctx context.Context, symbols []string) (map[string]Quote, error)
}

type Quote struct {
	Price            float64 `json:"price"`
	Change24hPercent float64 `json:"change_24h_percent"`
}
