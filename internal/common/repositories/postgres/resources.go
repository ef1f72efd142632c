package postgres

import (
	"time"

	"github.com/leonid6372/crypto-tracker/internal/common/domain"
)

const uniqueViolation = "23505"

type User struct {
	ID int64 `db:"id"`

	Email      string `db:"email"`
	Name       string `db:"name"`
	TelegramID int64  `db:"telegram_id"`

	DailyDigest        bool `db:"daily_digest"`
	WeeklyDigest       bool `db:"weekly_digest"`
	EmailNotifications bool `db:"email_notifications"`

	UpdatedAt time.Time `db:"updated_at"`
	CreatedAt time.Time `db:"created_at"`
}

func (u *User) CreateDomain() *domain.User {
	user := &domain.User{
		ID:         u.ID,
		Email:      u.Email,
		Name:       u.Name,
		TelegramID: u.TelegramID,
		Preferences: domain.NotificationPreferences{
			DailyDigest:        u.DailyDigest,
			WeeklyDigest:       u.WeeklyDigest,
			EmailNotifications: u.EmailNotifications,
		},
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}

	return user
}

type Holding struct {
	ID     int64 `db:"id"`
	UserID int64 `db:"user_id"`

	Name   string `db:"name"`
	Symbol string `db:"symbol"`

	Quantity       float64   `db:"quantity"`
	InvestedAmount float64   `db:"invested_amount"`
	PurchaseDate   time.Time `db:"purchase_date"`

	CurrentPrice     float64   `db:"current_price"`
	CurrentValue     float64   `db:"current_value"`
	Profit           float64   `db:"profit"`
	ProfitPercentage float64   `db:"profit_percentage"`
	PriceChange24h   float64   `db:"price_change_24h"`
	LastUpdated      time.Time `db:"last_updated"`

	Notes    string `db:"notes"`
	IsActive bool   `db:"is_active"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (h *Holding) CreateDomain() *domain.Holding {
	holding := &domain.Holding{
		ID:               h.ID,
		UserID:           h.UserID,
		Name:             h.Name,
		Symbol:           h.Symbol,
		Quantity:         h.Quantity,
		InvestedAmount:   h.InvestedAmount,
		PurchaseDate:     h.PurchaseDate,
		CurrentPrice:     h.CurrentPrice,
		CurrentValue:     h.CurrentValue,
		Profit:           h.Profit,
		ProfitPercentage: h.ProfitPercentage,
		PriceChange24h:   h.PriceChange24h,
		LastUpdated:      h.LastUpdated,
		Notes:            h.Notes,
		IsActive:         h.IsActive,
		CreatedAt:        h.CreatedAt,
		UpdatedAt:        h.UpdatedAt,
	}

	return holding
}
