package domain

import (
	"context"
	"time"
)

type UsersRepository interface {
	GetUserByID(ctx context.Context, id int64) (*User, error)
	GetUserByTelegramID(ctx context.Context, telegramID int64) (*User, error)
	// FindUsersWithPreference returns users opted in to kind digests over email.
	FindUsersWithPreference(ctx context.Context, kind DigestKind) ([]*User, error)
}

type User struct {
	ID int64 `json:"id"`

	Email      string `json:"email"`
	Name       string `json:"name"`
	TelegramID int64  `json:"telegram_id"`

	Preferences NotificationPreferences `json:"notification_preferences"`

	UpdatedAt time.Time `json:"updated_at"`
	CreatedAt time.Time `json:"created_at"`
}

type NotificationPreferences struct {
	DailyDigest        bool `json:"daily_digest"`
	WeeklyDigest       bool `json:"weekly_digest"`
	EmailNotifications bool `json:"email_notifications"`
}

// Wants reports whether the preferences select the user for a kind digest.
func (p NotificationPreferences) Wants(kind DigestKind) bool {
	if !p.EmailNotifications {
		return false
	}

	switch kind {
	case DigestDaily:
		return p.DailyDigest
	case DigestWeekly:
		return p.WeeklyDigest
	default:
		return false
	}
}
