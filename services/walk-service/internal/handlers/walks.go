package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/BeeInterest/business-dog-walking/services/walk-service/internal/model"
	"github.com/BeeInterest/business-dog-walking/services/walk-service/internal/outbox"
	"github.com/BeeInterest/business-dog-walking/services/walk-service/internal/schedule"
	"github.com/BeeInterest/business-dog-walking/services/walk-service/internal/storage"
	"github.com/BeeInterest/business-dog-walking/services/walk-service/internal/validate"
	"github.com/BeeInterest/business-dog-walking/services/walk-service/internal/walkerr"
)

type WalkHandler struct {
	walks      WalkStore
	rates      RateStore
	outboxRepo EventStore
	logger     *slog.Logger
	now        func() time.Time
}

func NewWalkHandler(walks WalkStore, rates RateStore, outboxRepo EventStore, logger *slog.Logger) *WalkHandler {
	return &WalkHandler{
		walks:      walks,
		rates:      rates,
		outboxRepo: outboxRepo,
		logger:     logger,
		now:        time.Now,
	}
}

type createWalkRequest struct {
	Name           string `json:"name"`
	Phone          string `json:"phone"`
	DogName        string `json:"dog_name"`
	FlatNumber     int    `json:"flat_number"`
	StartDate      string `json:"start_date"`
	DogDescription string `json:"dog_description"`
}

// Create books a walk: validate input, find-or-create customer and dog,
// price the slot, enforce slot capacity, insert. The whole write path runs
// in one transaction under a per-slot advisory lock, so concurrent bookings
// for the same start cannot both pass the capacity check, and resubmitting
// the same (dog, start) pair returns the existing walk.
func (h *WalkHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req createWalkRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	q := r.URL.Query()
	if v := q.Get("name"); v != "" {
		req.Name = v
	}
	if v := q.Get("phone"); v != "" {
		req.Phone = v
	}
	if v := q.Get("dog_name"); v != "" {
		req.DogName = v
	}
	if v := q.Get("start_date"); v != "" {
		req.StartDate = v
	}
	if v := q.Get("dog_description"); v != "" {
		req.DogDescription = v
	}
	if v := q.Get("flat_number"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, h.logger, &walkerr.ValidationError{Msg: "flat_number must be an integer"})
			return
		}
		req.FlatNumber = n
	}

	req.Name = strings.TrimSpace(req.Name)
	req.DogName = strings.TrimSpace(req.DogName)
	req.DogDescription = strings.TrimSpace(req.DogDescription)

	if req.Name == "" || req.Phone == "" || req.DogName == "" || req.StartDate == "" {
		writeError(w, h.logger, &walkerr.ValidationError{Msg: "name, phone, dog_name and start_date are required"})
		return
	}
	if req.FlatNumber <= 0 {
		writeError(w, h.logger, &walkerr.ValidationError{Msg: "flat_number is required"})
		return
	}

	start, err := validate.CheckWalkTime(req.StartDate, h.now())
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	phone, err := validate.NormalizePhone(req.Phone)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	ctx := r.Context()
	tx, err := h.walks.Begin(ctx)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Serialize all bookings for this start before reading anything the
	// decision depends on.
	if err := h.walks.LockSlot(ctx, tx, start); err != nil {
		writeError(w, h.logger, err)
		return
	}

	customerID, err := h.walks.ResolveCustomer(ctx, tx, req.Name, phone, req.FlatNumber)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	dogID, err := h.walks.ResolveDog(ctx, tx, customerID, req.DogName, req.DogDescription)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	price, ok, err := h.rates.PriceFor(ctx, tx, model.HourMinuteOf(start))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if !ok {
		writeError(w, h.logger, &walkerr.MissingPriceError{Msg: "no price configured for this time"})
		return
	}

	// Idempotent resubmission: same dog, same start returns the existing
	// walk, even when the slot has since filled up.
	if existingID, exists, err := h.walks.FindIDByDogAndStart(ctx, tx, dogID, start); err != nil {
		writeError(w, h.logger, err)
		return
	} else if exists {
		if err := tx.Commit(ctx); err != nil {
			writeError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"message":   "object already exists",
			"object_id": existingID,
		})
		return
	}

	cnt, err := h.walks.CountActiveAt(ctx, tx, start)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if cnt >= model.SlotCapacity {
		writeError(w, h.logger, &walkerr.CapacityError{Msg: "time slot is full"})
		return
	}

	walk := &model.Walk{
		DogID:     dogID,
		StartDate: start,
		EndDate:   start.Add(model.WalkDuration),
		Status:    model.StatusCreated,
		Price:     price,
	}
	walkID, err := h.walks.Insert(ctx, tx, walk)
	if err != nil {
		if storage.IsUniqueViolation(err) {
			// The advisory lock makes this unreachable in practice; the
			// constraint stays as the backstop.
			writeError(w, h.logger, &walkerr.CapacityError{Msg: "time slot is full"})
			return
		}
		writeError(w, h.logger, err)
		return
	}

	payload, err := json.Marshal(map[string]any{
		"walk_id":    walkID,
		"dog_id":     dogID,
		"start_date": start.Format(model.TimeLayout),
		"end_date":   walk.EndDate.Format(model.TimeLayout),
		"price":      price,
		"status":     walk.Status,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := h.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "walk",
		AggregateID:   strconv.FormatInt(walkID, 10),
		EventType:     outbox.EventWalkCreated,
		Payload:       payload,
	}); err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := tx.Commit(ctx); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":   "object saved",
		"object_id": walkID,
	})
}

type updateStatusRequest struct {
	WalkID     int64  `json:"walk_id"`
	Status     string `json:"status"`
	WhoWalking string `json:"who_walking"`
}

// UpdateStatus applies one lifecycle decision. Transitions follow the
// explicit table in model.CanTransition; accepting requires a walker name;
// unknown ids are reported instead of silently ignored.
func (h *WalkHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req updateStatusRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	q := r.URL.Query()
	if v := q.Get("walk_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, h.logger, &walkerr.ValidationError{Msg: "walk_id must be an integer"})
			return
		}
		req.WalkID = id
	}
	if v := q.Get("status"); v != "" {
		req.Status = v
	}
	if v := q.Get("who_walking"); v != "" {
		req.WhoWalking = v
	}
	req.WhoWalking = strings.TrimSpace(req.WhoWalking)

	if req.WalkID <= 0 {
		writeError(w, h.logger, &walkerr.ValidationError{Msg: "walk_id is required"})
		return
	}
	status, ok := model.ParseStatus(req.Status)
	if !ok {
		writeError(w, h.logger, &walkerr.ValidationError{Msg: "unknown status"})
		return
	}
	if status == model.StatusAccepted && req.WhoWalking == "" {
		writeError(w, h.logger, &walkerr.ValidationError{Msg: "who_walking is required to accept a walk"})
		return
	}

	ctx := r.Context()
	tx, err := h.walks.Begin(ctx)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	current, err := h.walks.GetStatusForUpdate(ctx, tx, req.WalkID)
	if err != nil {
		if storage.IsNotFound(err) {
			writeError(w, h.logger, &walkerr.NotFoundError{Msg: "walk not found"})
			return
		}
		writeError(w, h.logger, err)
		return
	}
	if !model.CanTransition(current, status) {
		writeError(w, h.logger, &walkerr.ValidationError{
			Msg: fmt.Sprintf("cannot change status from %s to %s", current, status),
		})
		return
	}

	if err := h.walks.UpdateStatus(ctx, tx, req.WalkID, status, req.WhoWalking); err != nil {
		writeError(w, h.logger, err)
		return
	}

	payload, err := json.Marshal(map[string]any{
		"walk_id":     req.WalkID,
		"status":      status,
		"who_walking": req.WhoWalking,
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if err := h.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "walk",
		AggregateID:   strconv.FormatInt(req.WalkID, 10),
		EventType:     outbox.EventWalkStatusChanged,
		Payload:       payload,
	}); err != nil {
		writeError(w, h.logger, err)
		return
	}

	if err := tx.Commit(ctx); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "status updated"})
}

type listWalksRequest struct {
	CurrentDate string `json:"current_date"`
	Status      string `json:"status"`
}

// List returns walks joined with dog and customer data, optionally filtered
// by calendar day and status.
func (h *WalkHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req listWalksRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	q := r.URL.Query()
	if v := q.Get("current_date"); v != "" {
		req.CurrentDate = v
	}
	if v := q.Get("status"); v != "" {
		req.Status = v
	}

	var day *time.Time
	if strings.TrimSpace(req.CurrentDate) != "" {
		d, err := validate.CheckDate(req.CurrentDate)
		if err != nil {
			writeError(w, h.logger, err)
			return
		}
		day = &d
	}

	var status *model.Status
	if strings.TrimSpace(req.Status) != "" {
		s, ok := model.ParseStatus(req.Status)
		if !ok {
			writeError(w, h.logger, &walkerr.ValidationError{Msg: "unknown status"})
			return
		}
		status = &s
	}

	views, err := h.walks.List(r.Context(), day, status)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"walks": views})
}

// FreeSlots lists the start times on a date that still have capacity.
func (h *WalkHandler) FreeSlots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	raw := r.URL.Query().Get("date")
	if strings.TrimSpace(raw) == "" {
		writeError(w, h.logger, &walkerr.ValidationError{Msg: "date is required"})
		return
	}
	day, err := validate.CheckDate(raw)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	counts, err := h.walks.ActiveCountsByStart(r.Context(), day, day.AddDate(0, 0, 1))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	free := schedule.FreeSlots(day, counts, h.now())
	slots := make([]string, 0, len(free))
	for _, s := range free {
		slots = append(slots, s.Format(model.TimeLayout))
	}
	writeJSON(w, http.StatusOK, map[string]any{"slots": slots})
}
