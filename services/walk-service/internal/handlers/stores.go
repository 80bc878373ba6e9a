package handlers

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/BeeInterest/business-dog-walking/services/walk-service/internal/model"
	"github.com/BeeInterest/business-dog-walking/services/walk-service/internal/outbox"
	"github.com/BeeInterest/business-dog-walking/services/walk-service/internal/storage"
)

// WalkStore is what the walk handlers need from walk storage.
type WalkStore interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	LockSlot(ctx context.Context, tx pgx.Tx, start time.Time) error
	ResolveCustomer(ctx context.Context, tx pgx.Tx, name, phone string, flatNumber int) (int64, error)
	ResolveDog(ctx context.Context, tx pgx.Tx, customerID int64, name, description string) (int64, error)
	FindIDByDogAndStart(ctx context.Context, tx pgx.Tx, dogID int64, start time.Time) (int64, bool, error)
	CountActiveAt(ctx context.Context, tx pgx.Tx, start time.Time) (int, error)
	Insert(ctx context.Context, tx pgx.Tx, w *model.Walk) (int64, error)
	GetStatusForUpdate(ctx context.Context, tx pgx.Tx, walkID int64) (model.Status, error)
	UpdateStatus(ctx context.Context, tx pgx.Tx, walkID int64, status model.Status, whoWalking string) error
	List(ctx context.Context, day *time.Time, status *model.Status) ([]model.WalkView, error)
	ActiveCountsByStart(ctx context.Context, from, to time.Time) (map[int64]int, error)
}

// RateStore is what the handlers need from the rate table.
type RateStore interface {
	SeedOrReprice(ctx context.Context, price float64) error
	SetPrice(ctx context.Context, hourMinute string, price float64) (bool, error)
	PriceFor(ctx context.Context, tx pgx.Tx, hourMinute string) (float64, bool, error)
}

// EventStore records domain events inside the caller's transaction.
type EventStore interface {
	Insert(ctx context.Context, tx pgx.Tx, evt outbox.Event) error
}

var (
	_ WalkStore  = (*storage.WalkRepository)(nil)
	_ RateStore  = (*storage.RateRepository)(nil)
	_ EventStore = (*outbox.Repository)(nil)
)
