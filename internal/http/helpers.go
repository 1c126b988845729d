package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tally/internal/core"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// writeError maps the failure taxonomy onto HTTP status codes.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, core.ErrValidation):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, core.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, core.ErrPrecondition):
		status = http.StatusPreconditionFailed
	}

	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "Request failed",
			"error", err,
			"method", r.Method,
			"url", r.URL.Path)
		writeJSON(w, status, errorResponse{Error: "internal error"})
		return
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: decode request body: %v", core.ErrValidation, err)
	}
	return nil
}

// ownerID reads the pre-authenticated identity header.
func ownerID(r *http.Request) (uuid.UUID, error) {
	raw := r.Header.Get("X-Owner-ID")
	if raw == "" {
		return uuid.Nil, fmt.Errorf("%w: missing X-Owner-ID header", core.ErrValidation)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid X-Owner-ID header", core.ErrValidation)
	}
	return id, nil
}

func invalidField(field, value string) error {
	return fmt.Errorf("%w: invalid %s %q", core.ErrValidation, field, value)
}

func pathID(r *http.Request) (uuid.UUID, error) {
	raw := mux.Vars(r)["id"]
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid id %q", core.ErrValidation, raw)
	}
	return id, nil
}

// yearMonth reads ?year= and ?month= query parameters, defaulting to the
// current month.
func yearMonth(r *http.Request) (int, int, error) {
	now := time.Now()
	year, month := now.Year(), int(now.Month())

	if v := r.URL.Query().Get("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, fmt.Errorf("%w: invalid year %q", core.ErrValidation, v)
		}
		year = y
	}
	if v := r.URL.Query().Get("month"); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, fmt.Errorf("%w: invalid month %q", core.ErrValidation, v)
		}
		month = m
	}
	if month < 1 || month > 12 {
		return 0, 0, core.ErrInvalidMonth
	}
	return year, month, nil
}

// parseAmount converts a decimal request amount ("12.34" or "12,34") to
// positive cents.
func parseAmount(s string) (core.Money, error) {
	cents, err := core.ParseDecimalToCents(s)
	if err != nil {
		return core.Money{}, err
	}
	return core.Money{Cents: cents}, nil
}

// parseBudgetAmount is parseAmount with zero allowed. Budgets and overrides
// may legitimately be zero; transaction amounts may not.
func parseBudgetAmount(s string) (core.Money, error) {
	t := strings.TrimSpace(s)
	if t == "" || isZeroDecimal(t) {
		return core.Money{}, nil
	}
	return parseAmount(t)
}

func isZeroDecimal(s string) bool {
	s = strings.ReplaceAll(s, ",", ".")
	trimmed := strings.Trim(s, "0")
	return trimmed == "" || trimmed == "."
}

// parseDate reads a 2006-01-02 request date.
func parseDate(s string) (core.Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return core.Date{}, fmt.Errorf("%w: invalid date %q", core.ErrValidation, s)
	}
	return core.DateOf(t), nil
}
