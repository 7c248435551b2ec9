package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"waste-billing/internal/api/handler/dto"
	"waste-billing/internal/api/middleware"
	"waste-billing/internal/domain/arrears"
	"waste-billing/internal/domain/customer"
)

type CustomerHandler struct {
	service customer.CustomerService
	arrears arrears.ArrearsService
	logger  *slog.Logger
	now     func() time.Time
}

func NewCustomerHandler(s customer.CustomerService, a arrears.ArrearsService, l *slog.Logger) *CustomerHandler {
	if s == nil {
		panic("customer service cannot be nil")
	}
	if a == nil {
		panic("arrears service cannot be nil")
	}
	if l == nil {
		panic("logger cannot be nil")
	}
	return &CustomerHandler{
		service: s,
		arrears: a,
		logger:  l.With("component", "CustomerHandler"),
		now:     billingNow,
	}
}

// CreateCustomer handles POST /customers
// @Summary Register a new customer
// @Description Creates a customer on a tariff category. tanggal_efektif_tarif defaults to tanggal_bergabung and may not be later than it.
// @Tags Customers
// @Accept json
// @Produce json
// @Param request body dto.CreateCustomerRequest true "Customer creation request"
// @Success 201 {object} dto.CustomerResponse "Customer created"
// @Failure 400 {object} dto.ErrorResponse "Invalid request payload"
// @Failure 404 {object} dto.ErrorResponse "Tariff not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /customers [post]
// @Security BearerAuth
func (h *CustomerHandler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateCustomerRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Invalid create customer request", slog.Any("error", err))
		respondError(w, err)
		return
	}
	cust, err := req.ToDomain()
	if err != nil {
		respondError(w, err)
		return
	}

	created, err := h.service.CreateCustomer(r.Context(), cust)
	if err != nil {
		h.logger.Log(r.Context(), logLevelFor(err), "Service failed to create customer", slog.Any("error", err))
		respondError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Customer created", slog.Int64("customerID", created.ID))
	respondJSON(w, http.StatusCreated, dto.NewCustomerResponse(created))
}

// GetCustomer handles GET /customers/{customerID}
// @Summary Retrieve a customer with current arrears
// @Tags Customers
// @Produce json
// @Param customerID path int true "Customer ID" Minimum(1)
// @Success 200 {object} dto.CustomerResponse "Customer with embedded arrears"
// @Failure 400 {object} dto.ErrorResponse "Invalid customer ID format"
// @Failure 404 {object} dto.ErrorResponse "Customer not found"
// @Failure 422 {object} dto.ErrorResponse "Stored billing data is inconsistent"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /customers/{customerID} [get]
// @Security BearerAuth
func (h *CustomerHandler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	customerID, err := getIDFromURL(r, "customerID")
	if err != nil {
		respondError(w, err)
		return
	}

	cust, err := h.service.GetCustomer(r.Context(), customerID)
	if err != nil {
		h.logger.Log(r.Context(), logLevelFor(err), "Service failed to get customer", slog.Int64("customerID", customerID), slog.Any("error", err))
		respondError(w, err)
		return
	}

	result, err := h.arrears.Compute(r.Context(), cust, h.now().UTC())
	if err != nil {
		h.logger.Log(r.Context(), logLevelFor(err), "Failed to compute arrears for customer", slog.Int64("customerID", customerID), slog.Any("error", err))
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewCustomerDetailResponse(cust, result))
}

// ListCustomers handles GET /customers
// @Summary List customers
// @Tags Customers
// @Produce json
// @Param wilayah query string false "Filter by region"
// @Param status query string false "Filter by status" Enums(aktif, nonaktif, cuti)
// @Success 200 {array} dto.CustomerResponse "Customers ordered by id"
// @Failure 400 {object} dto.ErrorResponse "Invalid status filter"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /customers [get]
// @Security BearerAuth
func (h *CustomerHandler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	filter := customer.Filter{Region: strings.TrimSpace(r.URL.Query().Get("wilayah"))}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, err := customer.ParseStatus(raw)
		if err != nil {
			respondError(w, err)
			return
		}
		filter.Status = status
	}

	customers, err := h.service.ListCustomers(r.Context(), filter)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Service failed to list customers", slog.Any("error", err))
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewCustomerListResponse(customers))
}

// UpdateCustomer handles PUT /customers/{customerID}
// @Summary Update a customer's profile
// @Description Only nama, alamat, wilayah and no_hp are editable here. Tariff changes go through the bulk tariff update.
// @Tags Customers
// @Accept json
// @Produce json
// @Param customerID path int true "Customer ID" Minimum(1)
// @Param request body dto.UpdateCustomerRequest true "Profile fields to change"
// @Success 200 {object} dto.CustomerResponse "Updated customer"
// @Failure 400 {object} dto.ErrorResponse "Invalid request payload"
// @Failure 404 {object} dto.ErrorResponse "Customer not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /customers/{customerID} [put]
// @Security BearerAuth
func (h *CustomerHandler) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	customerID, err := getIDFromURL(r, "customerID")
	if err != nil {
		respondError(w, err)
		return
	}
	var req dto.UpdateCustomerRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, err)
		return
	}

	updated, err := h.service.UpdateProfile(r.Context(), customerID, req.ToDomain())
	if err != nil {
		h.logger.Log(r.Context(), logLevelFor(err), "Service failed to update customer", slog.Int64("customerID", customerID), slog.Any("error", err))
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewCustomerResponse(updated))
}

// ChangeStatus handles PUT /customers/{customerID}/status
// @Summary Change a customer's status
// @Description Records the change in the status history in the same transaction.
// @Tags Customers
// @Accept json
// @Produce json
// @Param customerID path int true "Customer ID" Minimum(1)
// @Param request body dto.ChangeStatusRequest true "New status and reason"
// @Success 200 {object} dto.CustomerResponse "Customer with the new status"
// @Failure 400 {object} dto.ErrorResponse "Invalid status or unchanged status"
// @Failure 404 {object} dto.ErrorResponse "Customer not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /customers/{customerID}/status [put]
// @Security BearerAuth
func (h *CustomerHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	customerID, err := getIDFromURL(r, "customerID")
	if err != nil {
		respondError(w, err)
		return
	}
	var req dto.ChangeStatusRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, err)
		return
	}

	updated, err := h.service.ChangeStatus(r.Context(), customerID, customer.Status(req.Status), req.Reason, middleware.UserFromContext(r.Context()))
	if err != nil {
		h.logger.Log(r.Context(), logLevelFor(err), "Service failed to change customer status", slog.Int64("customerID", customerID), slog.Any("error", err))
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewCustomerResponse(updated))
}

// StatusHistory handles GET /customers/{customerID}/status-history
// @Summary List a customer's status changes
// @Tags Customers
// @Produce json
// @Param customerID path int true "Customer ID" Minimum(1)
// @Success 200 {array} customer.StatusChange "Status changes, oldest first"
// @Failure 404 {object} dto.ErrorResponse "Customer not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /customers/{customerID}/status-history [get]
// @Security BearerAuth
func (h *CustomerHandler) StatusHistory(w http.ResponseWriter, r *http.Request) {
	customerID, err := getIDFromURL(r, "customerID")
	if err != nil {
		respondError(w, err)
		return
	}

	history, err := h.service.StatusHistory(r.Context(), customerID)
	if err != nil {
		h.logger.Log(r.Context(), logLevelFor(err), "Service failed to load status history", slog.Int64("customerID", customerID), slog.Any("error", err))
		respondError(w, err)
		return
	}
	if history == nil {
		history = []customer.StatusChange{}
	}
	respondJSON(w, http.StatusOK, history)
}

// DeleteCustomer handles DELETE /customers/{customerID}
// @Summary Delete a customer
// @Description Customers with recorded payments cannot be deleted.
// @Tags Customers
// @Param customerID path int true "Customer ID" Minimum(1)
// @Success 204 "Customer deleted"
// @Failure 404 {object} dto.ErrorResponse "Customer not found"
// @Failure 409 {object} dto.ErrorResponse "Customer still referenced"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /customers/{customerID} [delete]
// @Security BearerAuth
func (h *CustomerHandler) DeleteCustomer(w http.ResponseWriter, r *http.Request) {
	customerID, err := getIDFromURL(r, "customerID")
	if err != nil {
		respondError(w, err)
		return
	}

	if err := h.service.DeleteCustomer(r.Context(), customerID); err != nil {
		h.logger.Log(r.Context(), logLevelFor(err), "Service failed to delete customer", slog.Int64("customerID", customerID), slog.Any("error", err))
		respondError(w, err)
		return
	}
	h.logger.InfoContext(r.Context(), "Customer deleted", slog.Int64("customerID", customerID))
	w.WriteHeader(http.StatusNoContent)
}

// GetArrears handles GET /customers/{customerID}/arrears
// @Summary Compute a customer's arrears
// @Description Lists every unpaid month from the join month through as_of with the amount owed and the rate source.
// @Tags Arrears
// @Produce json
// @Param customerID path int true "Customer ID" Minimum(1)
// @Param as_of query string false "Last month to include (YYYY-MM), defaults to the current month"
// @Success 200 {object} arrears.Result "Arrears breakdown"
// @Failure 400 {object} dto.ErrorResponse "Invalid as_of"
// @Failure 404 {object} dto.ErrorResponse "Customer not found"
// @Failure 422 {object} dto.ErrorResponse "Stored billing data is inconsistent"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /customers/{customerID}/arrears [get]
// @Security BearerAuth
func (h *CustomerHandler) GetArrears(w http.ResponseWriter, r *http.Request) {
	customerID, err := getIDFromURL(r, "customerID")
	if err != nil {
		respondError(w, err)
		return
	}
	asOf, err := parseAsOf(r, h.now())
	if err != nil {
		respondError(w, err)
		return
	}

	result, err := h.arrears.ForCustomer(r.Context(), customerID, asOf)
	if err != nil {
		h.logger.Log(r.Context(), logLevelFor(err), "Failed to compute arrears", slog.Int64("customerID", customerID), slog.Any("error", err))
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}
