package handler

import (
	"log/slog"
	"net/http"

	"waste-billing/internal/api/handler/dto"
	"waste-billing/internal/api/middleware"
	"waste-billing/internal/domain/tariff"
)

type TariffHandler struct {
	service tariff.TariffService
	logger  *slog.Logger
}

func NewTariffHandler(s tariff.TariffService, l *slog.Logger) *TariffHandler {
	if s == nil {
		panic("tariff service cannot be nil")
	}
	if l == nil {
		panic("logger cannot be nil")
	}
	return &TariffHandler{
		service: s,
		logger:  l.With("component", "TariffHandler"),
	}
}

// CreateTariff handles POST /tariffs
// @Summary Create a tariff category
// @Tags Tariffs
// @Accept json
// @Produce json
// @Param request body dto.CreateTariffRequest true "Tariff category"
// @Success 201 {object} dto.TariffResponse "Tariff created"
// @Failure 400 {object} dto.ErrorResponse "Invalid request payload"
// @Failure 409 {object} dto.ErrorResponse "Tariff name already exists"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /tariffs [post]
// @Security BearerAuth
func (h *TariffHandler) CreateTariff(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateTariffRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, err)
		return
	}
	category, err := req.ToDomain()
	if err != nil {
		respondError(w, err)
		return
	}

	created, err := h.service.CreateTariff(r.Context(), category)
	if err != nil {
		h.logger.Log(r.Context(), logLevelFor(err), "Service failed to create tariff", slog.Any("error", err))
		respondError(w, err)
		return
	}
	h.logger.InfoContext(r.Context(), "Tariff created", slog.Int64("tariffID", created.ID))
	respondJSON(w, http.StatusCreated, dto.NewTariffResponse(created))
}

// GetTariff handles GET /tariffs/{tariffID}
// @Summary Retrieve a tariff category
// @Tags Tariffs
// @Produce json
// @Param tariffID path int true "Tariff ID" Minimum(1)
// @Success 200 {object} dto.TariffResponse "Tariff category"
// @Failure 404 {object} dto.ErrorResponse "Tariff not found"
// @Router /tariffs/{tariffID} [get]
// @Security BearerAuth
func (h *TariffHandler) GetTariff(w http.ResponseWriter, r *http.Request) {
	tariffID, err := getIDFromURL(r, "tariffID")
	if err != nil {
		respondError(w, err)
		return
	}
	category, err := h.service.GetTariff(r.Context(), tariffID)
	if err != nil {
		h.logger.Log(r.Context(), logLevelFor(err), "Service failed to get tariff", slog.Int64("tariffID", tariffID), slog.Any("error", err))
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewTariffResponse(category))
}

// ListTariffs handles GET /tariffs
// @Summary List tariff categories
// @Tags Tariffs
// @Produce json
// @Success 200 {array} dto.TariffResponse "Tariff categories"
// @Router /tariffs [get]
// @Security BearerAuth
func (h *TariffHandler) ListTariffs(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListTariffs(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Service failed to list tariffs", slog.Any("error", err))
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewTariffListResponse(categories))
}

// UpdateTariff handles PUT /tariffs/{tariffID}
// @Summary Update a tariff category
// @Description harga_per_bulan cannot change once a customer or tariff history references the category.
// @Tags Tariffs
// @Accept json
// @Produce json
// @Param tariffID path int true "Tariff ID" Minimum(1)
// @Param request body dto.UpdateTariffRequest true "Fields to change"
// @Success 200 {object} dto.TariffResponse "Updated tariff"
// @Failure 400 {object} dto.ErrorResponse "Invalid request payload"
// @Failure 404 {object} dto.ErrorResponse "Tariff not found"
// @Failure 409 {object} dto.ErrorResponse "Rate is locked"
// @Router /tariffs/{tariffID} [put]
// @Security BearerAuth
func (h *TariffHandler) UpdateTariff(w http.ResponseWriter, r *http.Request) {
	tariffID, err := getIDFromURL(r, "tariffID")
	if err != nil {
		respondError(w, err)
		return
	}
	var req dto.UpdateTariffRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, err)
		return
	}
	update, err := req.ToDomain()
	if err != nil {
		respondError(w, err)
		return
	}

	updated, err := h.service.UpdateTariff(r.Context(), tariffID, update)
	if err != nil {
		h.logger.Log(r.Context(), logLevelFor(err), "Service failed to update tariff", slog.Int64("tariffID", tariffID), slog.Any("error", err))
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewTariffResponse(updated))
}

// BulkUpdate handles POST /tariffs/bulk-update
// @Summary Move customers to a tariff from an effective date
// @Description Closes each customer's previous rate in the tariff history and assigns the new tariff, all in one transaction.
// @Tags Tariffs
// @Accept json
// @Produce json
// @Param request body dto.BulkUpdateRequest true "Customers, target tariff and effective date"
// @Success 200 {object} tariff.BulkUpdateResult "Per-customer outcome"
// @Failure 400 {object} dto.ErrorResponse "Invalid request or effective date before a customer's current effective month"
// @Failure 404 {object} dto.ErrorResponse "Tariff or customer not found"
// @Router /tariffs/bulk-update [post]
// @Security BearerAuth
func (h *TariffHandler) BulkUpdate(w http.ResponseWriter, r *http.Request) {
	var req dto.BulkUpdateRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, err)
		return
	}
	bulk, err := req.ToDomain(middleware.UserFromContext(r.Context()))
	if err != nil {
		respondError(w, err)
		return
	}

	result, err := h.service.BulkUpdate(r.Context(), bulk)
	if err != nil {
		h.logger.Log(r.Context(), logLevelFor(err), "Bulk tariff update failed", slog.Int64("tariffID", bulk.TariffID), slog.Any("error", err))
		respondError(w, err)
		return
	}
	h.logger.InfoContext(r.Context(), "Bulk tariff update applied",
		slog.Int64("tariffID", bulk.TariffID),
		slog.Int("updated", len(result.UpdatedIDs)),
		slog.Int("skipped", len(result.SkippedIDs)))
	respondJSON(w, http.StatusOK, result)
}

// ListOverrides handles GET /customers/{customerID}/overrides
// @Summary List a customer's monthly tariff overrides
// @Tags Overrides
// @Produce json
// @Param customerID path int true "Customer ID" Minimum(1)
// @Success 200 {array} tariff.Override "Overrides ordered by month"
// @Failure 404 {object} dto.ErrorResponse "Customer not found"
// @Router /customers/{customerID}/overrides [get]
// @Security BearerAuth
func (h *TariffHandler) ListOverrides(w http.ResponseWriter, r *http.Request) {
	customerID, err := getIDFromURL(r, "customerID")
	if err != nil {
		respondError(w, err)
		return
	}
	overrides, err := h.service.ListOverrides(r.Context(), customerID)
	if err != nil {
		h.logger.Log(r.Context(), logLevelFor(err), "Service failed to list overrides", slog.Int64("customerID", customerID), slog.Any("error", err))
		respondError(w, err)
		return
	}
	if overrides == nil {
		overrides = []tariff.Override{}
	}
	respondJSON(w, http.StatusOK, overrides)
}

// SetOverride handles POST /customers/{customerID}/overrides
// @Summary Set the tariff for one month of one customer
// @Description An existing override for the same month is replaced.
// @Tags Overrides
// @Accept json
// @Produce json
// @Param customerID path int true "Customer ID" Minimum(1)
// @Param request body dto.OverrideRequest true "Override"
// @Success 201 {object} tariff.Override "Override stored"
// @Failure 400 {object} dto.ErrorResponse "Malformed month or negative amount"
// @Failure 404 {object} dto.ErrorResponse "Customer not found"
// @Router /customers/{customerID}/overrides [post]
// @Security BearerAuth
func (h *TariffHandler) SetOverride(w http.ResponseWriter, r *http.Request) {
	customerID, err := getIDFromURL(r, "customerID")
	if err != nil {
		respondError(w, err)
		return
	}
	var req dto.OverrideRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, err)
		return
	}
	override, err := req.ToDomain(customerID, middleware.UserFromContext(r.Context()))
	if err != nil {
		respondError(w, err)
		return
	}

	stored, err := h.service.SetOverride(r.Context(), override)
	if err != nil {
		h.logger.Log(r.Context(), logLevelFor(err), "Service failed to set override", slog.Int64("customerID", customerID), slog.Any("error", err))
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, stored)
}

// DeleteOverride handles DELETE /customers/{customerID}/overrides/{month}
// @Summary Remove a monthly tariff override
// @Tags Overrides
// @Param customerID path int true "Customer ID" Minimum(1)
// @Param month path string true "Month (YYYY-MM)"
// @Success 204 "Override removed"
// @Failure 400 {object} dto.ErrorResponse "Malformed month"
// @Failure 404 {object} dto.ErrorResponse "Override not found"
// @Router /customers/{customerID}/overrides/{month} [delete]
// @Security BearerAuth
func (h *TariffHandler) DeleteOverride(w http.ResponseWriter, r *http.Request) {
	customerID, err := getIDFromURL(r, "customerID")
	if err != nil {
		respondError(w, err)
		return
	}
	month, err := getMonthFromURL(r, "month")
	if err != nil {
		respondError(w, err)
		return
	}

	if err := h.service.DeleteOverride(r.Context(), customerID, month); err != nil {
		h.logger.Log(r.Context(), logLevelFor(err), "Service failed to delete override", slog.Int64("customerID", customerID), slog.Any("error", err))
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
