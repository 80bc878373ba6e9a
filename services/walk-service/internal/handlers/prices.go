package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/BeeInterest/business-dog-walking/services/walk-service/internal/walkerr"
)

type PriceHandler struct {
	rates        RateStore
	logger       *slog.Logger
	defaultPrice float64
}

func NewPriceHandler(rates RateStore, logger *slog.Logger, defaultPrice float64) *PriceHandler {
	if defaultPrice <= 0 {
		defaultPrice = 500
	}
	return &PriceHandler{rates: rates, logger: logger, defaultPrice: defaultPrice}
}

type createPriceRequest struct {
	Price float64 `json:"price"`
}

// Create seeds the full half-hour rate table with one price, or bulk
// reprices every key when the table is already seeded. A missing or
// non-positive price falls back to the configured default.
func (h *PriceHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req createPriceRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	if v := r.URL.Query().Get("price"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeError(w, h.logger, &walkerr.ValidationError{Msg: "price must be a number"})
			return
		}
		req.Price = f
	}
	if req.Price <= 0 {
		req.Price = h.defaultPrice
	}

	if err := h.rates.SeedOrReprice(r.Context(), req.Price); err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "prices saved"})
}

type updatePriceRequest struct {
	HourMinute string  `json:"hour_minute"`
	Price      float64 `json:"price"`
}

// Update overwrites the price for one existing half-hour key.
func (h *PriceHandler) Update(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req updatePriceRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}
	q := r.URL.Query()
	if v := q.Get("hour_minute"); v != "" {
		req.HourMinute = v
	}
	if v := q.Get("price"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeError(w, h.logger, &walkerr.ValidationError{Msg: "price must be a number"})
			return
		}
		req.Price = f
	}
	req.HourMinute = strings.TrimSpace(req.HourMinute)

	if req.HourMinute == "" {
		writeError(w, h.logger, &walkerr.ValidationError{Msg: "hour_minute is required"})
		return
	}
	if req.Price <= 0 {
		writeError(w, h.logger, &walkerr.MissingPriceError{Msg: "price is required"})
		return
	}

	ok, err := h.rates.SetPrice(r.Context(), req.HourMinute, req.Price)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	if !ok {
		writeError(w, h.logger, &walkerr.NotFoundError{Msg: "no rate slot for this time"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "price updated"})
}
