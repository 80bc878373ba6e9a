package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/BeeInterest/business-dog-walking/services/walk-service/internal/walkerr"
)

// decodeBody fills dst from a JSON body when one is present. An empty body is
// fine: legacy clients send everything as query parameters, and handlers
// overlay those after decoding.
func decodeBody(r *http.Request, dst any) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return &walkerr.ValidationError{Msg: "invalid json body"}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps domain error kinds onto transport codes and always renders
// a flat {"error": message} body. Non-domain errors are logged and hidden
// behind a generic message so store internals never leak.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	if !walkerr.IsDomain(err) {
		logger.Error("request failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	status := http.StatusBadRequest
	var (
		capacityErr *walkerr.CapacityError
		priceErr    *walkerr.MissingPriceError
		notFoundErr *walkerr.NotFoundError
	)
	switch {
	case errors.As(err, &capacityErr):
		status = http.StatusConflict
	case errors.As(err, &priceErr):
		status = http.StatusUnprocessableEntity
	case errors.As(err, &notFoundErr):
		status = http.StatusNotFound
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
