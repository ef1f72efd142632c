package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/leonid6372/crypto-tracker/internal/common/domain"
	"github.com/leonid6372/crypto-tracker/internal/trackererrs"
	"github.com/leonid6372/crypto-tracker/pkg/errs"
)

const userColumns = `id,
			email,
			name,
			telegram_id,
			daily_digest,
			weekly_digest,
			email_notifications,
			created_at,
			updated_at`

type usersRepository struct {
	psql *pgxpool.Pool
}

func NewUsersRepository(pool *pgxpool.Pool) domain.UsersRepository {
	return &usersRepository{
		psql: pool,
	}
}

func scanUser(row pgx.Row) (*domain.User, error) {
	user := &User{}
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.TelegramID,
		&user.DailyDigest,
		&user.WeeklyDigest,
		&user.EmailNotifications,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}

	return user.CreateDomain(), nil
}

func (ur *usersRepository) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM crypto_tracker.users WHERE id = $1`

	user, err := scanUser(ur.psql.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, trackererrs.ErrUserNotFound
		}

		return nil, errs.NewStack(err)
	}

	return user, nil
}

func (ur *usersRepository) GetUserByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error) {
	if telegramID == 0 {
		return nil, trackererrs.ErrUserNotFound
	}

	query := `SELECT ` + userColumns + ` FROM crypto_tracker.users WHERE telegram_id = $1 LIMIT 1`

	user, err := scanUser(ur.psql.QueryRow(ctx, query, telegramID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, trackererrs.ErrUserNotFound
		}

		return nil, errs.NewStack(err)
	}

	return user, nil
}

func (ur *usersRepository) FindUsersWithPreference(ctx context.Context, kind domain.DigestKind) ([]*domain.User, error) {
	var flag string
	switch kind {
	case domain.DigestDaily:
		flag = "daily_digest"
	case domain.DigestWeekly:
		flag = "weekly_digest"
	default:
		return nil, fmt.Errorf("unknown digest kind %q", kind)
	}

	query := `SELECT ` + userColumns + `
		FROM crypto_tracker.users
		WHERE ` + flag + ` AND email_notifications
		ORDER BY id`
	rows, err := ur.psql.Query(ctx, query)
	if err != nil {
		return nil, errs.NewStack(err)
	}
	defer rows.Close()

	users := []*domain.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, errs.NewStack(err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, errs.NewStack(err)
	}

	return users, nil
}
