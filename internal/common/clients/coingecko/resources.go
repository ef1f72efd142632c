package coingecko

import "github.com/leonid6372/crypto-tracker/internal/common/domain"

// simplePriceResponse is keyed by coin id, then by field name, e.g.
// {"bitcoin": {"usd": 12000, "usd_24h_change": 3.5}}.
type simplePriceResponse map[string]map[string]*float64

func (r simplePriceResponse) quotes(vsCurrency string) map[string]domain.Quote {
	quotes := make(map[string]domain.Quote, len(r))

	for id, fields := range r {
		price, ok := fields[vsCurrency]
		if !ok || price == nil {
			continue
		}

		quote := domain.Quote{Price: *price}
		if change := fields[vsCurrency+"_24h_change"]; change != nil {
			quote.Change24hPercent = *change
		}

		quotes[id] = quote
	}

	return quotes
}
