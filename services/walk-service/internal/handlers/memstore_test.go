package handlers

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/BeeInterest/business-dog-walking/services/walk-service/internal/model"
	"github.com/BeeInterest/business-dog-walking/services/walk-service/internal/outbox"
)

// fakeTx satisfies pgx.Tx for handlers that only Begin, Commit and Rollback.
// The embedded interface covers the methods the memory store never touches.
type fakeTx struct {
	pgx.Tx
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Commit(ctx context.Context) error   { t.committed = true; return nil }
func (t *fakeTx) Rollback(ctx context.Context) error { t.rolledBack = true; return nil }

type memCustomer struct {
	id         int64
	name       string
	phone      string
	flatNumber int
}

type memDog struct {
	id          int64
	customerID  int64
	name        string
	description string
}

type memWalk struct {
	id         int64
	dogID      int64
	start      time.Time
	end        time.Time
	status     model.Status
	price      float64
	whoWalking string
}

// memoryStore is an in-memory WalkStore and RateStore with the same dedup
// and lookup behavior as the SQL-backed repositories. Tests use it to drive
// the booking engine without a database.
type memoryStore struct {
	nextID    int64
	customers []*memCustomer
	dogs      []*memDog
	walks     []*memWalk
	prices    map[string]float64
}

func newMemoryStore() *memoryStore {
	return &memoryStore{prices: map[string]float64{}}
}

func (s *memoryStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *memoryStore) Begin(ctx context.Context) (pgx.Tx, error) { return &fakeTx{}, nil }

func (s *memoryStore) LockSlot(ctx context.Context, tx pgx.Tx, start time.Time) error { return nil }

func (s *memoryStore) ResolveCustomer(ctx context.Context, tx pgx.Tx, name, phone string, flatNumber int) (int64, error) {
	for _, c := range s.customers {
		if c.phone == phone && c.flatNumber == flatNumber {
			return c.id, nil
		}
	}
	c := &memCustomer{id: s.id(), name: name, phone: phone, flatNumber: flatNumber}
	s.customers = append(s.customers, c)
	return c.id, nil
}

func (s *memoryStore) ResolveDog(ctx context.Context, tx pgx.Tx, customerID int64, name, description string) (int64, error) {
	for _, d := range s.dogs {
		if d.customerID == customerID && d.name == name {
			return d.id, nil
		}
	}
	d := &memDog{id: s.id(), customerID: customerID, name: name, description: description}
	s.dogs = append(s.dogs, d)
	return d.id, nil
}

func (s *memoryStore) FindIDByDogAndStart(ctx context.Context, tx pgx.Tx, dogID int64, start time.Time) (int64, bool, error) {
	for _, w := range s.walks {
		if w.dogID == dogID && w.start.Equal(start) {
			return w.id, true, nil
		}
	}
	return 0, false, nil
}

func (s *memoryStore) CountActiveAt(ctx context.Context, tx pgx.Tx, start time.Time) (int, error) {
	cnt := 0
	for _, w := range s.walks {
		if w.start.Equal(start) && w.status != model.StatusRejected {
			cnt++
		}
	}
	return cnt, nil
}

func (s *memoryStore) Insert(ctx context.Context, tx pgx.Tx, w *model.Walk) (int64, error) {
	rec := &memWalk{
		id:     s.id(),
		dogID:  w.DogID,
		start:  w.StartDate,
		end:    w.EndDate,
		status: w.Status,
		price:  w.Price,
	}
	s.walks = append(s.walks, rec)
	return rec.id, nil
}

func (s *memoryStore) walkByID(id int64) *memWalk {
	for _, w := range s.walks {
		if w.id == id {
			return w
		}
	}
	return nil
}

func (s *memoryStore) GetStatusForUpdate(ctx context.Context, tx pgx.Tx, walkID int64) (model.Status, error) {
	if w := s.walkByID(walkID); w != nil {
		return w.status, nil
	}
	return "", pgx.ErrNoRows
}

func (s *memoryStore) UpdateStatus(ctx context.Context, tx pgx.Tx, walkID int64, status model.Status, whoWalking string) error {
	if w := s.walkByID(walkID); w != nil {
		w.status = status
		w.whoWalking = whoWalking
	}
	return nil
}

func (s *memoryStore) List(ctx context.Context, day *time.Time, status *model.Status) ([]model.WalkView, error) {
	views := make([]model.WalkView, 0)
	for _, w := range s.walks {
		if day != nil {
			dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
			if w.start.Before(dayStart) || !w.start.Before(dayStart.AddDate(0, 0, 1)) {
				continue
			}
		}
		if status != nil && w.status != *status {
			continue
		}
		var dog *memDog
		for _, d := range s.dogs {
			if d.id == w.dogID {
				dog = d
			}
		}
		var customer *memCustomer
		for _, c := range s.customers {
			if dog != nil && c.id == dog.customerID {
				customer = c
			}
		}
		view := model.WalkView{
			WalkID:     w.id,
			StartDate:  w.start.Format(model.TimeLayout),
			EndDate:    w.end.Format(model.TimeLayout),
			Status:     w.status,
			Price:      w.price,
			WhoWalking: w.whoWalking,
		}
		if dog != nil {
			view.DogName = dog.name
			view.DogDescription = dog.description
		}
		if customer != nil {
			view.UserName = customer.name
			view.Phone = customer.phone
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *memoryStore) ActiveCountsByStart(ctx context.Context, from, to time.Time) (map[int64]int, error) {
	counts := make(map[int64]int)
	for _, w := range s.walks {
		if !w.start.Before(from) && w.start.Before(to) && w.status != model.StatusRejected {
			counts[w.start.Unix()]++
		}
	}
	return counts, nil
}

func (s *memoryStore) SeedOrReprice(ctx context.Context, price float64) error {
	if len(s.prices) == 0 {
		for _, key := range model.RateSlotKeys() {
			s.prices[key] = price
		}
		return nil
	}
	for key := range s.prices {
		s.prices[key] = price
	}
	return nil
}

func (s *memoryStore) SetPrice(ctx context.Context, hourMinute string, price float64) (bool, error) {
	if _, ok := s.prices[hourMinute]; !ok {
		return false, nil
	}
	s.prices[hourMinute] = price
	return true, nil
}

func (s *memoryStore) PriceFor(ctx context.Context, tx pgx.Tx, hourMinute string) (float64, bool, error) {
	price, ok := s.prices[hourMinute]
	return price, ok, nil
}

// eventLog captures outbox writes for assertions.
type eventLog struct {
	events []outbox.Event
}

func (l *eventLog) Insert(ctx context.Context, tx pgx.Tx, evt outbox.Event) error {
	l.events = append(l.events, evt)
	return nil
}

func (l *eventLog) typesSeen() []string {
	types := make([]string, 0, len(l.events))
	for _, evt := range l.events {
		types = append(types, evt.EventType)
	}
	return types
}

var (
	_ WalkStore  = (*memoryStore)(nil)
	_ RateStore  = (*memoryStore)(nil)
	_ EventStore = (*eventLog)(nil)
)
