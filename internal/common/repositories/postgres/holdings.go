package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/leonid6372/crypto-tracker/internal/common/domain"
	"github.com/leonid6372/crypto-tracker/internal/trackererrs"
	"github.com/leonid6372/crypto-tracker/pkg/errs"
	"github.com/leonid6372/crypto-tracker/pkg/log"
	"go.uber.org/zap"
)

const holdingColumns = `id,
			user_id,
			name,
			symbol,
			quantity,
			invested_amount,
			purchase_date,
			current_price,
			current_value,
			profit,
			profit_percentage,
			price_change_24h,
			last_updated,
			notes,
			is_active,
			created_at,
			updated_at`

type holdingsRepository struct {
	psql *pgxpool.Pool
}

func NewHoldingsRepository(pool *pgxpool.Pool) domain.HoldingsRepository {
	return &holdingsRepository{
		psql: pool,
	}
}

func scanHolding(row pgx.Row) (*domain.Holding, error) {
	holding := &Holding{}
	if err := row.Scan(
		&holding.ID,
		&holding.UserID,
		&holding.Name,
		&holding.Symbol,
		&holding.Quantity,
		&holding.InvestedAmount,
		&holding.PurchaseDate,
		&holding.CurrentPrice,
		&holding.CurrentValue,
		&holding.Profit,
		&holding.ProfitPercentage,
		&holding.PriceChange24h,
		&holding.LastUpdated,
		&holding.Notes,
		&holding.IsActive,
		&holding.CreatedAt,
		&holding.UpdatedAt,
	); err != nil {
		return nil, err
	}

	return holding.CreateDomain(), nil
}

func (hr *holdingsRepository) FindActive(ctx context.Context, scope domain.Scope) ([]*domain.Holding, error) {
	query := `SELECT ` + holdingColumns + `
		FROM crypto_tracker.holdings
		WHERE is_active AND ($1::bigint = 0 OR user_id = $1::bigint)
		ORDER BY created_at DESC, id DESC`
	rows, err := hr.psql.Query(ctx, query, scope.UserID)
	if err != nil {
		return nil, errs.NewStack(err)
	}
	defer rows.Close()

	holdings := []*domain.Holding{}
	for rows.Next() {
		holding, err := scanHolding(rows)
		if err != nil {
			return nil, errs.NewStack(err)
		}
		holdings = append(holdings, holding)
	}

	if err := rows.Err(); err != nil {
		return nil, errs.NewStack(err)
	}

	return holdings, nil
}

func (hr *holdingsRepository) GetHolding(ctx context.Context, userID, id int64) (*domain.Holding, error) {
	query := `SELECT ` + holdingColumns + `
		FROM crypto_tracker.holdings
		WHERE id = $1 AND user_id = $2`

	holding, err := scanHolding(hr.psql.QueryRow(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, trackererrs.ErrHoldingNotFound
		}

		return nil, errs.NewStack(err)
	}

	return holding, nil
}

// CreateHolding inserts holding unless the user already has an active one for
// the same symbol. The partial unique index catches inserts racing past the check.
func (hr *holdingsRepository) CreateHolding(ctx context.Context, holding *domain.Holding) error {
	tx, err := hr.psql.Begin(ctx)
	if err != nil {
		return errs.NewStack(err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			log.Error("failed to rollback transaction", zap.Error(err))
		}
	}()

	query := `SELECT COUNT(*) FROM crypto_tracker.holdings
		WHERE user_id = $1 AND symbol = $2 AND is_active`
	var existing int64
	if err := tx.QueryRow(ctx, query, holding.UserID, holding.Symbol).Scan(&existing); err != nil {
		return errs.NewStack(err)
	}

	if existing > 0 {
		return trackererrs.ErrDuplicateHolding
	}

	query = `INSERT INTO crypto_tracker.holdings(
			user_id,
			name,
			symbol,
			quantity,
			invested_amount,
			purchase_date,
			notes
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + holdingColumns
	created, err := scanHolding(tx.QueryRow(ctx,
		query,
		holding.UserID,
		holding.Name,
		holding.Symbol,
		holding.Quantity,
		holding.InvestedAmount,
		holding.PurchaseDate,
		holding.Notes,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return trackererrs.ErrDuplicateHolding
		}

		return errs.NewStack(err)
	}

	if err := tx.Commit(ctx); err != nil {
		return errs.NewStack(err)
	}

	*holding = *created

	return nil
}

// Save overwrites quantities, notes and all price-derived fields of an active
// holding. Owner, symbol and the active flag are never changed here.
func (hr *holdingsRepository) Save(ctx context.Context, holding *domain.Holding) error {
	query := `UPDATE crypto_tracker.holdings
		SET quantity = $2,
			invested_amount = $3,
			current_price = $4,
			current_value = $5,
			profit = $6,
			profit_percentage = $7,
			price_change_24h = $8,
			last_updated = $9,
			notes = $10,
			updated_at = NOW()
		WHERE id = $1 AND is_active`
	tag, err := hr.psql.Exec(ctx,
		query,
		holding.ID,
		holding.Quantity,
		holding.InvestedAmount,
		holding.CurrentPrice,
		holding.CurrentValue,
		holding.Profit,
		holding.ProfitPercentage,
		holding.PriceChange24h,
		holding.LastUpdated,
		holding.Notes,
	)
	if err != nil {
		return errs.NewStack(fmt.Errorf("%w: %w", trackererrs.ErrPersistFailure, err))
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: holding %d is missing or inactive", trackererrs.ErrPersistFailure, holding.ID)
	}

	return nil
}

func (hr *holdingsRepository) SaveQuote(ctx context.Context, holding *domain.Holding) error {
	query := `UPDATE crypto_tracker.holdings
		SET current_price = $4,
			current_value = $5,
			profit = $6,
			profit_percentage = $7,
			price_change_24h = $8,
			last_updated = $9,
			updated_at = NOW()
		WHERE id = $1 AND is_active AND quantity = $2 AND invested_amount = $3`
	tag, err := hr.psql.Exec(ctx,
		query,
		holding.ID,
		holding.Quantity,
		holding.InvestedAmount,
		holding.CurrentPrice,
		holding.CurrentValue,
		holding.Profit,
		holding.ProfitPercentage,
		holding.PriceChange24h,
		holding.LastUpdated,
	)
	if err != nil {
		return errs.NewStack(fmt.Errorf("%w: %w", trackererrs.ErrPersistFailure, err))
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: holding %d changed or deactivated since it was priced", trackererrs.ErrPersistFailure, holding.ID)
	}

	return nil
}

func (hr *holdingsRepository) Deactivate(ctx context.Context, userID, id int64) error {
	query := `UPDATE crypto_tracker.holdings
		SET is_active = FALSE,
			updated_at = NOW()
		WHERE id = $1 AND user_id = $2 AND is_active`
	tag, err := hr.psql.Exec(ctx, query, id, userID)
	if err != nil {
		return errs.NewStack(err)
	}

	if tag.RowsAffected() == 0 {
		return trackererrs.ErrHoldingNotFound
	}

	return nil
}
