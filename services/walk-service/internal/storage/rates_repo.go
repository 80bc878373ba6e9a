package storage

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/BeeInterest/business-dog-walking/libs/db"
	"github.com/BeeInterest/business-dog-walking/services/walk-service/internal/model"
)

type RateRepository struct {
	pool *db.Pool
}

func NewRateRepository(pool *db.Pool) *RateRepository {
	return &RateRepository{pool: pool}
}

// SeedOrReprice fills the rate table with every half-hour key at price when
// the table is empty, or overwrites every existing key's price otherwise
// (bulk reprice). One transaction, so a concurrent seed cannot double-insert.
func (r *RateRepository) SeedOrReprice(ctx context.Context, price float64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Serialize concurrent seeding attempts.
	if _, err := tx.Exec(ctx, `LOCK TABLE rate_slots IN SHARE ROW EXCLUSIVE MODE`); err != nil {
		return err
	}

	var cnt int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM rate_slots`).Scan(&cnt); err != nil {
		return err
	}

	if cnt == 0 {
		for _, key := range model.RateSlotKeys() {
			if _, err := tx.Exec(ctx, `
				INSERT INTO rate_slots (hour_minute, price) VALUES ($1, $2)
			`, key, price); err != nil {
				return err
			}
		}
	} else {
		if _, err := tx.Exec(ctx, `UPDATE rate_slots SET price = $1`, price); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// SetPrice overwrites the price of one existing key. Returns false when the
// key does not exist.
func (r *RateRepository) SetPrice(ctx context.Context, hourMinute string, price float64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE rate_slots SET price = $2 WHERE hour_minute = $1
	`, hourMinute, price)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// PriceFor looks up the rate for a half-hour key inside the booking
// transaction. ok is false when no rate is configured.
func (r *RateRepository) PriceFor(ctx context.Context, tx pgx.Tx, hourMinute string) (float64, bool, error) {
	var price float64
	err := tx.QueryRow(ctx, `
		SELECT price FROM rate_slots WHERE hour_minute = $1
	`, hourMinute).Scan(&price)
	if err != nil {
		if IsNotFound(err) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return price, true, nil
}
