// Package memory implements the holdings store and user directory in process
// memory. It backs tests and local dry runs.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/leonid6372/crypto-tracker/internal/common/domain"
	"github.com/leonid6372/crypto-tracker/internal/trackererrs"
)

type HoldingsRepository struct {
	mu       sync.RWMutex
	nextID   int64
	holdings map[int64]*domain.Holding
	now      func() time.Time
}

func NewHoldingsRepository(holdings ...*domain.Holding) *HoldingsRepository {
	r := &HoldingsRepository{
		holdings: make(map[int64]*domain.Holding),
		now:      time.Now,
	}

	for _, h := range holdings {
		r.put(h.Clone())
	}

	return r
}

func (r *HoldingsRepository) put(h *domain.Holding) {
	if h.ID == 0 {
		r.nextID++
		h.ID = r.nextID
	} else if h.ID > r.nextID {
		r.nextID = h.ID
	}
	r.holdings[h.ID] = h
}

func (r *HoldingsRepository) FindActive(_ context.Context, scope domain.Scope) ([]*domain.Holding, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	holdings := []*domain.Holding{}
	for _, h := range r.holdings {
		if !h.IsActive {
			continue
		}
		if !scope.All() && h.UserID != scope.UserID {
			continue
		}
		holdings = append(holdings, h.Clone())
	}

	sort.Slice(holdings, func(i, j int) bool {
		if holdings[i].CreatedAt.Equal(holdings[j].CreatedAt) {
			return holdings[i].ID > holdings[j].ID
		}
		return holdings[i].CreatedAt.After(holdings[j].CreatedAt)
	})

	return holdings, nil
}

func (r *HoldingsRepository) GetHolding(_ context.Context, userID, id int64) (*domain.Holding, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.holdings[id]
	if !ok || h.UserID != userID {
		return nil, trackererrs.ErrHoldingNotFound
	}

	return h.Clone(), nil
}

func (r *HoldingsRepository) CreateHolding(_ context.Context, holding *domain.Holding) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, h := range r.holdings {
		if h.IsActive && h.UserID == holding.UserID && h.Symbol == holding.Symbol {
			return trackererrs.ErrDuplicateHolding
		}
	}

	now := r.now()
	holding.ID = 0
	holding.IsActive = true
	holding.CreatedAt = now
	holding.UpdatedAt = now
	if holding.LastUpdated.IsZero() {
		holding.LastUpdated = now
	}

	r.put(holding.Clone())
	holding.ID = r.nextID

	return nil
}

func (r *HoldingsRepository) Save(_ context.Context, holding *domain.Holding) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.holdings[holding.ID]
	if !ok || !stored.IsActive {
		return trackererrs.ErrPersistFailure
	}

	saved := holding.Clone()
	saved.UserID = stored.UserID
	saved.Symbol = stored.Symbol
	saved.IsActive = true
	saved.CreatedAt = stored.CreatedAt
	saved.UpdatedAt = r.now()
	r.holdings[holding.ID] = saved

	return nil
}

func (r *HoldingsRepository) SaveQuote(_ context.Context, holding *domain.Holding) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.holdings[holding.ID]
	if !ok || !stored.IsActive ||
		stored.Quantity != holding.Quantity ||
		stored.InvestedAmount != holding.InvestedAmount {
		return trackererrs.ErrPersistFailure
	}

	saved := stored.Clone()
	saved.CurrentPrice = holding.CurrentPrice
	saved.CurrentValue = holding.CurrentValue
	saved.Profit = holding.Profit
	saved.ProfitPercentage = holding.ProfitPercentage
	saved.PriceChange24h = holding.PriceChange24h
	saved.LastUpdated = holding.LastUpdated
	saved.UpdatedAt = r.now()
	r.holdings[holding.ID] = saved

	return nil
}

func (r *HoldingsRepository) Deactivate(_ context.Context, userID, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	h, ok := r.holdings[id]
	if !ok || h.UserID != userID || !h.IsActive {
		return trackererrs.ErrHoldingNotFound
	}

	h.IsActive = false
	h.UpdatedAt = r.now()

	return nil
}

type UsersRepository struct {
	mu    sync.RWMutex
	users map[int64]*domain.User
}

func NewUsersRepository(users ...*domain.User) *UsersRepository {
	r := &UsersRepository{users: make(map[int64]*domain.User)}
	for _, u := range users {
		c := *u
		r.users[u.ID] = &c
	}
	return r
}

func (r *UsersRepository) GetUserByID(_ context.Context, id int64) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, trackererrs.ErrUserNotFound
	}

	c := *u
	return &c, nil
}

func (r *UsersRepository) GetUserByTelegramID(_ context.Context, telegramID int64) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if telegramID != 0 && u.TelegramID == telegramID {
			c := *u
			return &c, nil
		}
	}

	return nil, trackererrs.ErrUserNotFound
}

func (r *UsersRepository) FindUsersWithPreference(_ context.Context, kind domain.DigestKind) ([]*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := []*domain.User{}
	for _, u := range r.users {
		if u.Preferences.Wants(kind) {
			c := *u
			users = append(users, &c)
		}
	}

	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })

	return users, nil
}
