package bot

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/leonid6372/crypto-tracker/internal/common/config"
	"github.com/leonid6372/crypto-tracker/internal/common/domain"
	"github.com/leonid6372/crypto-tracker/internal/common/repositories/memory"
	"github.com/leonid6372/crypto-tracker/internal/holdings"
	"github.com/leonid6372/crypto-tracker/internal/pricesync"
	"github.com/leonid6372/crypto-tracker/pkg/dictionary"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/telebot.v4"
)

const linkedChat = 4242

type apiCall struct {
	method string
	params map[string]any
}

type fakeAPI struct {
	mu    sync.Mutex
	calls []apiCall
}

func (f *fakeAPI) handler(w http.ResponseWriter, r *http.Request) {
	method := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]

	params := map[string]any{}
	_ = json.NewDecoder(r.Body).Decode(&params)

	f.mu.Lock()
	f.calls = append(f.calls, apiCall{method: method, params: params})
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if method == "sendMessage" {
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":4242,"type":"private"},"text":""}}`))
		return
	}
	_, _ = w.Write([]byte(`{"ok":true,"result":true}`))
}

func (f *fakeAPI) messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []string
	for _, c := range f.calls {
		if c.method == "sendMessage" {
			text, _ := c.params["text"].(string)
			out = append(out, text)
		}
	}
	return out
}

type stubPortfolios struct {
	portfolio *holdings.Portfolio
	refreshed int
	err       error
}

func (s *stubPortfolios) Portfolio(context.Context, int64) (*holdings.Portfolio, error) {
	return s.portfolio, s.err
}

func (s *stubPortfolios) RefreshPrices(context.Context, int64) (*pricesync.Result, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &pricesync.Result{Updated: s.refreshed}, nil
}

func testHoldings() []*domain.Holding {
	return []*domain.Holding{{
		ID:               1,
		UserID:           1,
		Name:             "Bitcoin <BTC>",
		Symbol:           "bitcoin",
		Quantity:         2,
		InvestedAmount:   20000,
		CurrentPrice:     12000,
		CurrentValue:     24000,
		Profit:           4000,
		ProfitPercentage: 20,
		PriceChange24h:   3.5,
	}}
}

func newTestBot(t *testing.T, portfolios Portfolios) (*Bot, *fakeAPI) {
	t.Helper()

	api := &fakeAPI{}
	srv := httptest.NewServer(http.HandlerFunc(api.handler))
	t.Cleanup(srv.Close)

	dict, err := dictionary.New()
	require.NoError(t, err)

	users := memory.NewUsersRepository(&domain.User{ID: 1, Name: "Ann", Email: "ann@example.com", TelegramID: linkedChat})

	b, err := newBot(telebot.Settings{
		URL:         srv.URL,
		Token:       "test-token",
		Offline:     true,
		Synchronous: true,
	}, &config.Bot{Timeout: time.Second}, dict, users, portfolios)
	require.NoError(t, err)

	return b, api
}

func message(chatID int64, text string) telebot.Update {
	return telebot.Update{
		ID: 1,
		Message: &telebot.Message{
			ID:     1,
			Text:   text,
			Sender: &telebot.User{ID: chatID},
			Chat:   &telebot.Chat{ID: chatID, Type: telebot.ChatPrivate},
		},
	}
}

func TestPortfolioCommand(t *testing.T) {
	portfolios := &stubPortfolios{portfolio: &holdings.Portfolio{
		PortfolioSnapshot: domain.PortfolioSnapshot{TotalInvested: 20000, CurrentValue: 24000, TotalProfit: 4000, ProfitPercentage: 20},
		Holdings:          testHoldings(),
	}}
	b, api := newTestBot(t, portfolios)

	b.Telebot.ProcessUpdate(message(linkedChat, "/portfolio"))

	msgs := api.messages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "$24,000.00")
	assert.Contains(t, msgs[0], "+$4,000.00 (+20.00%)")
	assert.Contains(t, msgs[0], "Bitcoin &lt;BTC&gt;")
	assert.Contains(t, msgs[0], "(BITCOIN)")
}

func TestPortfolioCommand_Empty(t *testing.T) {
	b, api := newTestBot(t, &stubPortfolios{portfolio: &holdings.Portfolio{}})

	b.Telebot.ProcessUpdate(message(linkedChat, "/portfolio"))

	assert.Equal(t, []string{b.deps.dictionary.Text(dictionary.DefaultLanguage, msgEmptyPortfolio)}, api.messages())
}

func TestRefreshCommand(t *testing.T) {
	b, api := newTestBot(t, &stubPortfolios{refreshed: 3, portfolio: &holdings.Portfolio{Holdings: testHoldings()}})

	b.Telebot.ProcessUpdate(message(linkedChat, "/refresh"))

	msgs := api.messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, "Updated prices for 3 holdings.", msgs[0])
}

func TestUnlinkedChat(t *testing.T) {
	b, api := newTestBot(t, &stubPortfolios{})

	b.Telebot.ProcessUpdate(message(777, "/portfolio"))
	b.Telebot.ProcessUpdate(message(777, "/start"))

	msgs := api.messages()
	require.Len(t, msgs, 2)
	for _, m := range msgs {
		assert.Contains(t, m, "not linked")
		assert.Contains(t, m, "777")
	}
}

func TestStartCommand_Linked(t *testing.T) {
	b, api := newTestBot(t, &stubPortfolios{})

	b.Telebot.ProcessUpdate(message(linkedChat, "/start"))

	msgs := api.messages()
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "Hello, Ann!")
	assert.Contains(t, msgs[0], "4242")
}

func TestHandlerError_SendsDefaultError(t *testing.T) {
	b, api := newTestBot(t, &stubPortfolios{err: errors.New("db down")})

	b.Telebot.ProcessUpdate(message(linkedChat, "/portfolio"))

	assert.Equal(t, []string{b.deps.dictionary.Text(dictionary.DefaultLanguage, msgDefaultError)}, api.messages())
}

func TestSend_Digest(t *testing.T) {
	b, api := newTestBot(t, &stubPortfolios{})
	report := &domain.Report{
		PortfolioSnapshot: domain.PortfolioSnapshot{TotalInvested: 20000, CurrentValue: 24000, TotalProfit: 4000, ProfitPercentage: 20},
		Holdings:          testHoldings(),
	}

	delivered, err := b.Send(context.Background(), &domain.User{ID: 1, TelegramID: linkedChat}, report, domain.DigestWeekly)
	require.NoError(t, err)
	assert.True(t, delivered)

	delivered, err = b.Send(context.Background(), &domain.User{ID: 2}, report, domain.DigestDaily)
	require.NoError(t, err)
	assert.False(t, delivered)

	msgs := api.messages()
	require.Len(t, msgs, 1)
	assert.True(t, strings.HasPrefix(msgs[0], "📊 Weekly Crypto Portfolio Report"))
	assert.Contains(t, msgs[0], "24h +3.50%")
}

func manyHoldings(n int) []*domain.Holding {
	out := make([]*domain.Holding, 0, n)
	for i := range n {
		h := testHoldings()[0]
		h.ID = int64(i + 1)
		h.Name = "Coin number " + strconv.Itoa(i+1) + " with a long display name"
		h.Symbol = "coin-" + strconv.Itoa(i+1)
		out = append(out, h)
	}
	return out
}

func TestPortfolioMessages_SplitsLongPortfolio(t *testing.T) {
	b, _ := newTestBot(t, &stubPortfolios{})
	held := manyHoldings(200)

	chunks := b.portfolioMessages(dictionary.DefaultLanguage, "title", domain.PortfolioSnapshot{}, held)

	require.Greater(t, len(chunks), 1)
	assert.True(t, strings.HasPrefix(chunks[0], "title\n\n"))

	all := strings.Join(chunks, "\n\n")
	for _, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), maxMessageLen)
		assert.False(t, strings.HasPrefix(c, "\n"))
	}
	for _, h := range held {
		assert.Equal(t, 1, strings.Count(all, "(COIN-"+strconv.FormatInt(h.ID, 10)+")"), h.Symbol)
	}
}

func TestPortfolioMessages_ShortPortfolioIsOneMessage(t *testing.T) {
	b, _ := newTestBot(t, &stubPortfolios{})

	chunks := b.portfolioMessages(dictionary.DefaultLanguage, "title", domain.PortfolioSnapshot{}, testHoldings())

	require.Len(t, chunks, 1)
	assert.Contains(t, chunks[0], "Bitcoin &lt;BTC&gt;")
}

func TestSend_LongDigestIsSplit(t *testing.T) {
	b, api := newTestBot(t, &stubPortfolios{})
	report := &domain.Report{Holdings: manyHoldings(200)}

	delivered, err := b.Send(context.Background(), &domain.User{ID: 1, TelegramID: linkedChat}, report, domain.DigestDaily)
	require.NoError(t, err)
	assert.True(t, delivered)

	msgs := api.messages()
	require.Greater(t, len(msgs), 1)
	for _, m := range msgs {
		assert.LessOrEqual(t, utf8.RuneCountInString(m), maxMessageLen)
	}
	assert.Contains(t, msgs[len(msgs)-1], "(COIN-200)")
}

func TestPortfolioCommand_LongPortfolioIsSplit(t *testing.T) {
	b, api := newTestBot(t, &stubPortfolios{portfolio: &holdings.Portfolio{Holdings: manyHoldings(200)}})

	b.Telebot.ProcessUpdate(message(linkedChat, "/portfolio"))

	msgs := api.messages()
	require.Greater(t, len(msgs), 1)
	assert.Contains(t, msgs[0], "(COIN-1)")
}
