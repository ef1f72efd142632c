package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/leonid6372/crypto-tracker/internal/common/config"
	"github.com/leonid6372/crypto-tracker/internal/common/domain"
	"github.com/leonid6372/crypto-tracker/internal/trackererrs"
	"github.com/leonid6372/crypto-tracker/pkg/log"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const simplePricePath = "/simple/price"

// Client is the price oracle backed by the CoinGecko simple price endpoint.
type Client struct {
	http       *resty.Client
	limiter    *rate.Limiter
	vsCurrency string
}

func NewClient(cfg *config.CoinGecko) *Client {
	http := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")

	if cfg.APIKey != "" {
		http.SetHeader("x-cg-demo-api-key", cfg.APIKey)
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}

	vsCurrency := strings.ToLower(cfg.VsCurrency)
	if vsCurrency == "" {
		vsCurrency = "usd"
	}

	return &Client{
		http:       http,
		limiter:    rate.NewLimiter(limit, 1),
		vsCurrency: vsCurrency,
	}
}

// GetQuotes fetches prices for all symbols in a single request. Symbols the
// service does not know are left out of the result. Any transport failure or
// non-2xx status fails the whole batch with trackererrs.ErrOracleUnavailable.
func (c *Client) GetQuotes(ctx context.Context, symbols []string) (map[string]domain.Quote, error) {
	ids := normalizeSymbols(symbols)
	if len(ids) == 0 {
		return map[string]domain.Quote{}, nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", trackererrs.ErrOracleUnavailable, err)
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"ids":                 strings.Join(ids, ","),
			"vs_currencies":       c.vsCurrency,
			"include_24hr_change": "true",
		}).
		Get(simplePricePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", trackererrs.ErrOracleUnavailable, err)
	}

	if resp.IsError() {
		return nil, fmt.Errorf("%w: status %d", trackererrs.ErrOracleUnavailable, resp.StatusCode())
	}

	var body simplePriceResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", trackererrs.ErrOracleUnavailable, err)
	}

	quotes := body.quotes(c.vsCurrency)

	log.Debug("coingecko quotes fetched",
		zap.Int("requested", len(ids)),
		zap.Int("received", len(quotes)),
	)

	return quotes, nil
}

// normalizeSymbols lowercases, trims, and deduplicates symbols in a stable order.
func normalizeSymbols(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	ids := make([]string, 0, len(symbols))

	for _, s := range symbols {
		id := strings.ToLower(strings.TrimSpace(s))
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	sort.Strings(ids)

	return ids
}
