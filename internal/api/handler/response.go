package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"waste-billing/internal/api/handler/dto"
	"waste-billing/internal/pkg/apperrors"
	"waste-billing/internal/pkg/period"

	"github.com/go-chi/chi/v5"
)

func decodeJSON(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return fmt.Errorf("no request body")
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

// decodeAndValidate decodes the body into v and runs its validate tags.
func decodeAndValidate(r *http.Request, v interface{}) error {
	if err := decodeJSON(r, v); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err)
	}
	return validateStruct(v)
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		slog.Default().Error("Failed to marshal JSON response", "error", err)
		http.Error(w, `{"error":{"message":"Internal server error"}}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(response)
}

func respondError(w http.ResponseWriter, err error) {
	status, code, message, field := http.StatusInternalServerError, "internal_error", "An unexpected error occurred.", ""
	var validationError *apperrors.ValidationError
	var integrityError *apperrors.IntegrityError
	var appErr *apperrors.AppError

	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		status, code, message = http.StatusNotFound, "not_found", err.Error()
	case errors.As(err, &integrityError):
		status, code, message = http.StatusUnprocessableEntity, "data_integrity", integrityError.Error()
	case errors.Is(err, apperrors.ErrDataIntegrity):
		status, code, message = http.StatusUnprocessableEntity, "data_integrity", err.Error()
	case errors.As(err, &validationError):
		status, code, message, field = http.StatusBadRequest, "invalid_input", validationError.Message, validationError.Field
	case errors.Is(err, apperrors.ErrInvalidArgument), errors.Is(err, apperrors.ErrValidation),
		errors.Is(err, apperrors.ErrInvalidPaymentAmount):
		status, code, message = http.StatusBadRequest, "invalid_input", err.Error()
	case errors.Is(err, apperrors.ErrMonthAlreadyPaid):
		status, code, message = http.StatusConflict, "month_already_paid", err.Error()
	case errors.Is(err, apperrors.ErrConflict), errors.Is(err, apperrors.ErrAlreadyExists):
		status, code, message = http.StatusConflict, "conflict", err.Error()
	case errors.Is(err, apperrors.ErrUnauthorized):
		status, code, message = http.StatusUnauthorized, "unauthorized", "Unauthorized"
	case errors.Is(err, apperrors.ErrForbidden):
		status, code, message = http.StatusForbidden, "forbidden", "Forbidden"
	case errors.As(err, &appErr):
		message = appErr.Error()
		slog.Default().Error("Application error", "error", err)
	default:
		slog.Default().Error("Unhandled internal error", "error", err)
	}

	resp := dto.ErrorResponse{
		Error: dto.ErrorDetail{
			Code:    code,
			Message: message,
			Field:   field,
		},
	}
	respondJSON(w, status, resp)
}

// logLevelFor keeps expected client errors out of the error log.
func logLevelFor(err error) slog.Level {
	switch {
	case errors.Is(err, apperrors.ErrNotFound),
		errors.Is(err, apperrors.ErrInvalidArgument),
		errors.Is(err, apperrors.ErrValidation),
		errors.Is(err, apperrors.ErrInvalidPaymentAmount),
		errors.Is(err, apperrors.ErrMonthAlreadyPaid),
		errors.Is(err, apperrors.ErrConflict),
		errors.Is(err, apperrors.ErrAlreadyExists):
		return slog.LevelWarn
	}
	return slog.LevelError
}

func getIDFromURL(r *http.Request, param string) (int64, error) {
	idStr := chi.URLParam(r, param)
	if idStr == "" {
		return 0, fmt.Errorf("%w: %s not found in URL path", apperrors.ErrInvalidArgument, param)
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid %s format in URL path: %s", apperrors.ErrInvalidArgument, param, idStr)
	}
	return id, nil
}

func getMonthFromURL(r *http.Request, param string) (period.Month, error) {
	m, err := period.Parse(chi.URLParam(r, param))
	if err != nil {
		return 0, apperrors.NewValidationError(param, "must be a month in YYYY-MM format")
	}
	return m, nil
}

// parseAsOf reads the optional as_of=YYYY-MM query parameter. Without it the
// computation runs up to the current month.
// billingNow is the default clock of the report handlers. Stored dates are
// Postgres DATE values read as UTC, so the current month is taken in UTC too.
func billingNow() time.Time {
	return time.Now().UTC()
}

func parseAsOf(r *http.Request, now time.Time) (time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("as_of"))
	if raw == "" {
		return now.UTC(), nil
	}
	m, err := period.Parse(raw)
	if err != nil {
		return time.Time{}, apperrors.NewValidationError("as_of", "must be a month in YYYY-MM format")
	}
	return m.Start(), nil
}

func parseBoolQuery(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, apperrors.NewValidationError(name, "must be true or false")
	}
	return v, nil
}
