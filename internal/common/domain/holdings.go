package domain

import (
	"context"
	"time"
)

type HoldingsRepository interface {
	// FindActive returns active holdings in scope, newest first.
	FindActive(ctx context.Context, scope Scope) ([]*Holding, error)
	GetHolding(ctx context.Context, userID, id int64) (*Holding, error)
	CreateHolding(ctx context.Context, holding *Holding) error
	// Save overwrites the mutable fields of an active holding.
	Save(ctx context.Context, holding *Holding) error
	// SaveQuote writes only the price and derived fields of holding. The
	// stored row must still be active and hold the quantity and invested
	// amount the fields were computed from, otherwise ErrPersistFailure.
	SaveQuote(ctx context.Context, holding *Holding) error
	Deactivate(ctx context.Context, userID, id int64) error
}

// Scope selects the holdings a sync cycle works on. The zero value means all users.
type Scope struct {
	UserID int64
}

func ScopeAll() Scope { return Scope{} }

func ScopeUser(userID int64) Scope { return Scope{UserID: userID} }

func (s Scope) All() bool { return s.UserID == 0 }

// Holding is one user's position in one asset. CurrentValue, Profit and
// ProfitPercentage are derived from Quantity, InvestedAmount and CurrentPrice
// and are only ever written together.
type Holding struct {
	ID     int64 `json:"id"`
	UserID int64 `json:"user_id"`

	Name   string `json:"name"`
	Symbol string `json:"symbol"`

	Quantity       float64   `json:"quantity"`
	InvestedAmount float64   `json:"invested_amount"`
	PurchaseDate   time.Time `json:"purchase_date"`

	CurrentPrice     float64   `json:"current_price"`
	CurrentValue     float64   `json:"current_value"`
	Profit           float64   `json:"profit"`
	ProfitPercentage float64   `json:"profit_percentage"`
	PriceChange24h   float64   `json:"price_change_24h"`
	LastUpdated      time.Time `json:"last_updated"`

	Notes    string `json:"notes"`
	IsActive bool   `json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (h *Holding) Clone() *Holding {
	if h == nil {
		return nil
	}
	c := *h
	return &c
}
