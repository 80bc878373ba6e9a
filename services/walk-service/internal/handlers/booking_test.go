package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

// Fixed clock for the booking tests; every test start date lies on the
// following day so future and business-hour checks pass.
var bookingNow = time.Date(2030, 6, 1, 12, 0, 0, 0, time.Local)

const bookingStart = "2030-06-02 10:00"

func newBookingHandler(store *memoryStore, events *eventLog) *WalkHandler {
	h := NewWalkHandler(store, store, events, testLogger())
	h.now = func() time.Time { return bookingNow }
	return h
}

func bookWalk(h *WalkHandler, dogName, phone, start string) *httptest.ResponseRecorder {
	q := url.Values{}
	q.Set("name", "Ann")
	q.Set("phone", phone)
	q.Set("dog_name", dogName)
	q.Set("flat_number", "12")
	q.Set("start_date", start)

	rec := httptest.NewRecorder()
	h.Create(rec, httptest.NewRequest(http.MethodPost, "/create/walk?"+q.Encode(), nil))
	return rec
}

func changeStatus(h *WalkHandler, walkID int64, status, whoWalking string) *httptest.ResponseRecorder {
	q := url.Values{}
	q.Set("walk_id", fmt.Sprintf("%d", walkID))
	q.Set("status", status)
	if whoWalking != "" {
		q.Set("who_walking", whoWalking)
	}

	rec := httptest.NewRecorder()
	h.UpdateStatus(rec, httptest.NewRequest(http.MethodPut, "/update/walk/status?"+q.Encode(), nil))
	return rec
}

func decodeBooking(t *testing.T, rec *httptest.ResponseRecorder) (message string, objectID int64) {
	t.Helper()
	var body struct {
		Message  string `json:"message"`
		ObjectID int64  `json:"object_id"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode booking response: %v", err)
	}
	return body.Message, body.ObjectID
}

func TestBookingSlotCapacity(t *testing.T) {
	store := newMemoryStore()
	events := &eventLog{}
	if err := store.SeedOrReprice(context.Background(), 500); err != nil {
		t.Fatal(err)
	}
	h := newBookingHandler(store, events)

	rec := bookWalk(h, "Rex", "89991234567", bookingStart)
	if rec.Code != http.StatusCreated {
		t.Fatalf("first booking status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body)
	}
	_, firstID := decodeBooking(t, rec)

	if rec := bookWalk(h, "Max", "89991234568", bookingStart); rec.Code != http.StatusCreated {
		t.Fatalf("second booking status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body)
	}

	rec = bookWalk(h, "Bob", "89991234569", bookingStart)
	if rec.Code != http.StatusConflict {
		t.Fatalf("third booking status = %d, want %d", rec.Code, http.StatusConflict)
	}
	if msg := decodeErrorBody(t, rec); !strings.Contains(msg, "full") {
		t.Fatalf("error = %q, want slot-full complaint", msg)
	}
	if len(store.walks) != 2 {
		t.Fatalf("stored walks = %d, want 2", len(store.walks))
	}

	// Rejecting one of the two frees the slot for a new booking.
	if rec := changeStatus(h, firstID, "RJCT", ""); rec.Code != http.StatusOK {
		t.Fatalf("rejection status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body)
	}
	if rec := bookWalk(h, "Toto", "89991234560", bookingStart); rec.Code != http.StatusCreated {
		t.Fatalf("booking after rejection status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body)
	}
}

func TestBookingIdempotentResubmission(t *testing.T) {
	store := newMemoryStore()
	events := &eventLog{}
	if err := store.SeedOrReprice(context.Background(), 500); err != nil {
		t.Fatal(err)
	}
	h := newBookingHandler(store, events)

	rec := bookWalk(h, "Rex", "89991234567", bookingStart)
	if rec.Code != http.StatusCreated {
		t.Fatalf("first booking status = %d, want %d", rec.Code, http.StatusCreated)
	}
	_, firstID := decodeBooking(t, rec)

	rec = bookWalk(h, "Rex", "89991234567", bookingStart)
	if rec.Code != http.StatusOK {
		t.Fatalf("resubmission status = %d, want %d", rec.Code, http.StatusOK)
	}
	msg, sameID := decodeBooking(t, rec)
	if msg != "object already exists" {
		t.Fatalf("message = %q, want %q", msg, "object already exists")
	}
	if sameID != firstID {
		t.Fatalf("resubmission returned id %d, want the original %d", sameID, firstID)
	}
	if len(store.walks) != 1 {
		t.Fatalf("stored walks = %d, a resubmission must not create another", len(store.walks))
	}
	if len(events.events) != 1 {
		t.Fatalf("events = %v, a resubmission must not emit another", events.typesSeen())
	}
}

func TestBookingResubmissionInFullSlot(t *testing.T) {
	// The existence check runs before the capacity check, so resubmitting a
	// walk that already sits in a now-full slot returns the existing id
	// instead of a conflict.
	store := newMemoryStore()
	if err := store.SeedOrReprice(context.Background(), 500); err != nil {
		t.Fatal(err)
	}
	h := newBookingHandler(store, &eventLog{})

	rec := bookWalk(h, "Rex", "89991234567", bookingStart)
	_, firstID := decodeBooking(t, rec)
	if rec := bookWalk(h, "Max", "89991234568", bookingStart); rec.Code != http.StatusCreated {
		t.Fatalf("filling the slot failed: %d %s", rec.Code, rec.Body)
	}

	rec = bookWalk(h, "Rex", "89991234567", bookingStart)
	if rec.Code != http.StatusOK {
		t.Fatalf("resubmission in a full slot status = %d, want %d", rec.Code, http.StatusOK)
	}
	if _, id := decodeBooking(t, rec); id != firstID {
		t.Fatalf("resubmission returned id %d, want %d", id, firstID)
	}
}

func TestBookingWithoutSeededRates(t *testing.T) {
	store := newMemoryStore()
	events := &eventLog{}
	h := newBookingHandler(store, events)

	rec := bookWalk(h, "Rex", "89991234567", bookingStart)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnprocessableEntity)
	}
	if msg := decodeErrorBody(t, rec); !strings.Contains(msg, "price") {
		t.Fatalf("error = %q, want missing-price complaint", msg)
	}
	if len(store.walks) != 0 {
		t.Fatalf("stored walks = %d, a booking without a rate must not persist", len(store.walks))
	}
	if len(events.events) != 0 {
		t.Fatalf("events = %v, want none", events.typesSeen())
	}
}

func TestBookingPriceSnapshot(t *testing.T) {
	store := newMemoryStore()
	h := newBookingHandler(store, &eventLog{})
	prices := NewPriceHandler(store, testLogger(), 500)

	rec := httptest.NewRecorder()
	prices.Create(rec, httptest.NewRequest(http.MethodPost, "/create/price?price=600", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("seeding status = %d: %s", rec.Code, rec.Body)
	}

	if rec := bookWalk(h, "Rex", "89991234567", bookingStart); rec.Code != http.StatusCreated {
		t.Fatalf("booking status = %d: %s", rec.Code, rec.Body)
	}

	// Repricing the whole table must not touch the walk booked at 600.
	rec = httptest.NewRecorder()
	prices.Create(rec, httptest.NewRequest(http.MethodPost, "/create/price?price=900", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("reprice status = %d: %s", rec.Code, rec.Body)
	}

	views, err := store.List(context.Background(), nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(views) != 1 {
		t.Fatalf("walks = %d, want 1", len(views))
	}
	if views[0].Price != 600 {
		t.Fatalf("walk price = %v, want the 600 captured at booking time", views[0].Price)
	}
	if store.prices["10:00"] != 900 {
		t.Fatalf("rate for 10:00 = %v, want the repriced 900", store.prices["10:00"])
	}
}

func TestBookingLifecycle(t *testing.T) {
	store := newMemoryStore()
	events := &eventLog{}
	if err := store.SeedOrReprice(context.Background(), 500); err != nil {
		t.Fatal(err)
	}
	h := newBookingHandler(store, events)

	rec := bookWalk(h, "Rex", "89991234567", bookingStart)
	if rec.Code != http.StatusCreated {
		t.Fatalf("booking status = %d: %s", rec.Code, rec.Body)
	}
	_, walkID := decodeBooking(t, rec)

	// Accepting an unknown walk reports not found.
	if rec := changeStatus(h, walkID+100, "ACSS", "Ivan"); rec.Code != http.StatusNotFound {
		t.Fatalf("unknown walk status = %d, want %d", rec.Code, http.StatusNotFound)
	}

	rec = changeStatus(h, walkID, "ACSS", "Ivan")
	if rec.Code != http.StatusOK {
		t.Fatalf("accept status = %d: %s", rec.Code, rec.Body)
	}

	// A decided walk cannot be decided again.
	rec = changeStatus(h, walkID, "RJCT", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("second decision status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if msg := decodeErrorBody(t, rec); !strings.Contains(msg, "cannot change status") {
		t.Fatalf("error = %q, want transition complaint", msg)
	}

	// The listing shows the accepted walk with walker and joined attributes.
	rec = httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodPost, "/get/walks?current_date=2030-06-02&status=ACSS", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d: %s", rec.Code, rec.Body)
	}
	var listed struct {
		Walks []struct {
			WalkID     int64   `json:"walk_id"`
			StartDate  string  `json:"start_date"`
			Status     string  `json:"status"`
			Price      float64 `json:"price"`
			DogName    string  `json:"dog_name"`
			UserName   string  `json:"user_name"`
			WhoWalking string  `json:"who_walking"`
		} `json:"walks"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&listed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listed.Walks) != 1 {
		t.Fatalf("listed walks = %d, want 1", len(listed.Walks))
	}
	got := listed.Walks[0]
	if got.WalkID != walkID || got.Status != "ACSS" || got.WhoWalking != "Ivan" {
		t.Fatalf("listed walk = %+v, want the accepted walk with Ivan", got)
	}
	if got.StartDate != bookingStart || got.Price != 500 || got.DogName != "Rex" || got.UserName != "Ann" {
		t.Fatalf("listed walk attributes = %+v", got)
	}

	types := events.typesSeen()
	if len(types) != 2 || types[0] != "walk.created.v1" || types[1] != "walk.status_changed.v1" {
		t.Fatalf("event types = %v, want created then status-changed", types)
	}
}

func TestFreeSlotsExcludesFullStart(t *testing.T) {
	store := newMemoryStore()
	if err := store.SeedOrReprice(context.Background(), 500); err != nil {
		t.Fatal(err)
	}
	h := newBookingHandler(store, &eventLog{})

	for i, dog := range []string{"Rex", "Max"} {
		phone := fmt.Sprintf("8999123456%d", i)
		if rec := bookWalk(h, dog, phone, bookingStart); rec.Code != http.StatusCreated {
			t.Fatalf("booking %s failed: %d %s", dog, rec.Code, rec.Body)
		}
	}

	rec := httptest.NewRecorder()
	h.FreeSlots(rec, httptest.NewRequest(http.MethodGet, "/get/slots?date=2030-06-02", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("slots status = %d: %s", rec.Code, rec.Body)
	}
	var body struct {
		Slots []string `json:"slots"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode slots: %v", err)
	}
	if len(body.Slots) != 32 {
		t.Fatalf("free slots = %d, want 32 of 33 with one start full", len(body.Slots))
	}
	for _, s := range body.Slots {
		if s == bookingStart {
			t.Fatalf("full start %s listed as free", s)
		}
	}
}
