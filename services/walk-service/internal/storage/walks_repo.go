package storage

import (
	"context"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/BeeInterest/business-dog-walking/libs/db"
	"github.com/BeeInterest/business-dog-walking/services/walk-service/internal/model"
)

type WalkRepository struct {
	pool *db.Pool
}

func NewWalkRepository(pool *db.Pool) *WalkRepository {
	return &WalkRepository{pool: pool}
}

func (r *WalkRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

// LockSlot takes a transaction-scoped advisory lock keyed on the start
// timestamp. Held until commit/rollback, it serializes the capacity count
// and the walk insert for one slot against concurrent bookings.
func (r *WalkRepository) LockSlot(ctx context.Context, tx pgx.Tx, start time.Time) error {
	key := "walk_slot:" + start.UTC().Format(time.RFC3339)
	_, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1)::bigint)`, key)
	return err
}

// CountActiveAt counts walks at the slot whose status still occupies
// capacity (anything but rejected).
func (r *WalkRepository) CountActiveAt(ctx context.Context, tx pgx.Tx, start time.Time) (int, error) {
	var cnt int
	err := tx.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM walks
		WHERE start_date = $1 AND status <> $2
	`, start, model.StatusRejected).Scan(&cnt)
	return cnt, err
}

// FindIDByDogAndStart returns the id of an existing walk for the same
// (dog, start) pair, the idempotency key of a booking.
func (r *WalkRepository) FindIDByDogAndStart(ctx context.Context, tx pgx.Tx, dogID int64, start time.Time) (int64, bool, error) {
	var id int64
	err := tx.QueryRow(ctx, `
		SELECT walk_id FROM walks WHERE dog_id = $1 AND start_date = $2
	`, dogID, start).Scan(&id)
	if err != nil {
		if IsNotFound(err) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return id, true, nil
}

func (r *WalkRepository) Insert(ctx context.Context, tx pgx.Tx, w *model.Walk) (int64, error) {
	var id int64
	err := tx.QueryRow(ctx, `
		INSERT INTO walks (dog_id, start_date, end_date, status, price)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING walk_id
	`, w.DogID, w.StartDate, w.EndDate, w.Status, w.Price).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// GetStatusForUpdate row-locks the walk so a status decision cannot race
// another decision on the same walk.
func (r *WalkRepository) GetStatusForUpdate(ctx context.Context, tx pgx.Tx, walkID int64) (model.Status, error) {
	var status model.Status
	err := tx.QueryRow(ctx, `
		SELECT status FROM walks WHERE walk_id = $1 FOR UPDATE
	`, walkID).Scan(&status)
	if err != nil {
		return "", err
	}
	return status, nil
}

func (r *WalkRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, walkID int64, status model.Status, whoWalking string) error {
	_, err := tx.Exec(ctx, `
		UPDATE walks
		SET status = $2,
			who_walking = NULLIF($3, '')
		WHERE walk_id = $1
	`, walkID, status, whoWalking)
	return err
}

// List returns walks joined with dog and customer attributes, optionally
// narrowed to one calendar day and/or one status.
func (r *WalkRepository) List(ctx context.Context, day *time.Time, status *model.Status) ([]model.WalkView, error) {
	query := `
		SELECT w.walk_id, w.start_date, w.end_date, w.created_at, w.status, w.price,
			d.dog_name, d.dog_description, c.name, c.phone, COALESCE(w.who_walking, '')
		FROM walks w
			JOIN dogs d ON d.dog_id = w.dog_id
			JOIN customers c ON c.customer_id = d.customer_id
		WHERE 1=1
	`
	var args []any
	if day != nil {
		dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
		args = append(args, dayStart, dayStart.AddDate(0, 0, 1))
		query += ` AND w.start_date >= $1 AND w.start_date < $2`
	}
	if status != nil {
		args = append(args, *status)
		query += ` AND w.status = $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY w.walk_id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	views := make([]model.WalkView, 0)
	for rows.Next() {
		var (
			v          model.WalkView
			start, end time.Time
			createdAt  time.Time
		)
		if err := rows.Scan(
			&v.WalkID,
			&start,
			&end,
			&createdAt,
			&v.Status,
			&v.Price,
			&v.DogName,
			&v.DogDescription,
			&v.UserName,
			&v.Phone,
			&v.WhoWalking,
		); err != nil {
			return nil, err
		}
		v.StartDate = start.Local().Format(model.TimeLayout)
		v.EndDate = end.Local().Format(model.TimeLayout)
		v.CreatedAt = createdAt.Local().Format(model.TimeLayout)
		views = append(views, v)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return views, nil
}

// ActiveCountsByStart returns, per start timestamp within [from, to), the
// number of non-rejected walks, keyed by Unix seconds so lookups do not
// depend on time.Time internals. Used by the free-slot listing.
func (r *WalkRepository) ActiveCountsByStart(ctx context.Context, from, to time.Time) (map[int64]int, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT start_date, COUNT(*)
		FROM walks
		WHERE start_date >= $1 AND start_date < $2 AND status <> $3
		GROUP BY start_date
	`, from, to, model.StatusRejected)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[int64]int)
	for rows.Next() {
		var (
			start time.Time
			cnt   int
		)
		if err := rows.Scan(&start, &cnt); err != nil {
			return nil, err
		}
		counts[start.Unix()] = cnt
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return counts, nil
}
