package coingecko

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/leonid6372/crypto-tracker/internal/common/config"
	"github.com/leonid6372/crypto-tracker/internal/common/domain"
	"github.com/leonid6372/crypto-tracker/internal/trackererrs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *[]url.Values) {
	t.Helper()

	var queries []url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, simplePricePath, r.URL.Path)
		queries = append(queries, r.URL.Query())
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	client := NewClient(&config.CoinGecko{
		BaseURL:    srv.URL + "/",
		VsCurrency: "USD",
		Timeout:    2 * time.Second,
	})

	return client, &queries
}

func TestGetQuotes_Batched(t *testing.T) {
	client, queries := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"bitcoin": {"usd": 12000, "usd_24h_change": 3.5},
			"ethereum": {"usd": 2500.25},
			"dogecoin": {}
		}`))
	})

	quotes, err := client.GetQuotes(context.Background(), []string{"Bitcoin", "ethereum", "bitcoin", " dogecoin ", "unknowncoin", ""})
	require.NoError(t, err)

	require.Len(t, *queries, 1)
	q := (*queries)[0]
	assert.Equal(t, "bitcoin,dogecoin,ethereum,unknowncoin", q.Get("ids"))
	assert.Equal(t, "usd", q.Get("vs_currencies"))
	assert.Equal(t, "true", q.Get("include_24hr_change"))

	assert.Equal(t, map[string]domain.Quote{
		"bitcoin":  {Price: 12000, Change24hPercent: 3.5},
		"ethereum": {Price: 2500.25},
	}, quotes)
}

func TestGetQuotes_EmptyInputSkipsRequest(t *testing.T) {
	client, queries := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		t.Error("unexpected request")
	})

	quotes, err := client.GetQuotes(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, quotes)
	assert.Empty(t, *queries)
}

func TestGetQuotes_Unavailable(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}},
		{"rate limited", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		}},
		{"garbage body", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`<html>`))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestClient(t, tt.handler)

			quotes, err := client.GetQuotes(context.Background(), []string{"bitcoin"})
			assert.ErrorIs(t, err, trackererrs.ErrOracleUnavailable)
			assert.Nil(t, quotes)
		})
	}
}

func TestGetQuotes_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	client := NewClient(&config.CoinGecko{BaseURL: srv.URL, Timeout: time.Second})

	_, err := client.GetQuotes(context.Background(), []string{"bitcoin"})
	assert.ErrorIs(t, err, trackererrs.ErrOracleUnavailable)
}

func TestNormalizeSymbols(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, normalizeSymbols([]string{"B", "a", " b", ""}))
	assert.Empty(t, normalizeSymbols(nil))
}
