package handler

import (
	"log/slog"
	"net/http"
	"time"

	"waste-billing/internal/api/handler/dto"
	"waste-billing/internal/api/middleware"
	"waste-billing/internal/domain/payment"
)

type PaymentHandler struct {
	service payment.PaymentService
	logger  *slog.Logger
	now     func() time.Time
}

func NewPaymentHandler(s payment.PaymentService, l *slog.Logger) *PaymentHandler {
	if s == nil {
		panic("payment service cannot be nil")
	}
	if l == nil {
		panic("logger cannot be nil")
	}
	return &PaymentHandler{
		service: s,
		logger:  l.With("component", "PaymentHandler"),
		now:     time.Now,
	}
}

// RecordPayment handles POST /payments
// @Summary Record a payment for one or more months
// @Description Rejects months before the customer's join month, duplicate months and months already covered by a live payment.
// @Tags Payments
// @Accept json
// @Produce json
// @Param request body dto.CreatePaymentRequest true "Payment"
// @Success 201 {object} dto.PaymentResponse "Payment recorded"
// @Failure 400 {object} dto.ErrorResponse "Invalid months, amount or method"
// @Failure 404 {object} dto.ErrorResponse "Customer not found"
// @Failure 409 {object} dto.ErrorResponse "A month is already paid"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /payments [post]
// @Security BearerAuth
func (h *PaymentHandler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	var req dto.CreatePaymentRequest
	if err := decodeAndValidate(r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Invalid payment request", slog.Any("error", err))
		respondError(w, err)
		return
	}
	p, err := req.ToDomain(middleware.UserFromContext(r.Context()), h.now())
	if err != nil {
		respondError(w, err)
		return
	}

	recorded, err := h.service.RecordPayment(r.Context(), p)
	if err != nil {
		h.logger.Log(r.Context(), logLevelFor(err), "Service failed to record payment", slog.Int64("customerID", req.CustomerID), slog.Any("error", err))
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, dto.NewPaymentResponse(recorded))
}

// GetPayment handles GET /payments/{paymentID}
// @Summary Retrieve a payment
// @Tags Payments
// @Produce json
// @Param paymentID path int true "Payment ID" Minimum(1)
// @Success 200 {object} dto.PaymentResponse "Payment"
// @Failure 404 {object} dto.ErrorResponse "Payment not found"
// @Router /payments/{paymentID} [get]
// @Security BearerAuth
func (h *PaymentHandler) GetPayment(w http.ResponseWriter, r *http.Request) {
	paymentID, err := getIDFromURL(r, "paymentID")
	if err != nil {
		respondError(w, err)
		return
	}
	p, err := h.service.GetPayment(r.Context(), paymentID)
	if err != nil {
		h.logger.Log(r.Context(), logLevelFor(err), "Service failed to get payment", slog.Int64("paymentID", paymentID), slog.Any("error", err))
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewPaymentResponse(p))
}

// ListCustomerPayments handles GET /customers/{customerID}/payments
// @Summary List a customer's payments
// @Tags Payments
// @Produce json
// @Param customerID path int true "Customer ID" Minimum(1)
// @Param include_cancelled query bool false "Include cancelled payments"
// @Success 200 {array} dto.PaymentResponse "Payments, oldest first"
// @Failure 404 {object} dto.ErrorResponse "Customer not found"
// @Router /customers/{customerID}/payments [get]
// @Security BearerAuth
func (h *PaymentHandler) ListCustomerPayments(w http.ResponseWriter, r *http.Request) {
	customerID, err := getIDFromURL(r, "customerID")
	if err != nil {
		respondError(w, err)
		return
	}
	includeCancelled, err := parseBoolQuery(r, "include_cancelled")
	if err != nil {
		respondError(w, err)
		return
	}

	payments, err := h.service.ListCustomerPayments(r.Context(), customerID, includeCancelled)
	if err != nil {
		h.logger.Log(r.Context(), logLevelFor(err), "Service failed to list payments", slog.Int64("customerID", customerID), slog.Any("error", err))
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewPaymentListResponse(payments))
}

// CancelPayment handles POST /payments/{paymentID}/cancel
// @Summary Cancel a payment
// @Description The payment's months become unpaid again. A deposited payment needs its deposit cancelled first.
// @Tags Payments
// @Accept json
// @Produce json
// @Param paymentID path int true "Payment ID" Minimum(1)
// @Param request body dto.CancelPaymentRequest true "Cancellation reason"
// @Success 200 {object} dto.PaymentResponse "Cancelled payment"
// @Failure 404 {object} dto.ErrorResponse "Payment not found"
// @Failure 409 {object} dto.ErrorResponse "Payment already cancelled or deposited"
// @Router /payments/{paymentID}/cancel [post]
// @Security BearerAuth
func (h *PaymentHandler) CancelPayment(w http.ResponseWriter, r *http.Request) {
	paymentID, err := getIDFromURL(r, "paymentID")
	if err != nil {
		respondError(w, err)
		return
	}
	var req dto.CancelPaymentRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, err)
		return
	}

	cancelled, err := h.service.CancelPayment(r.Context(), paymentID, req.Reason)
	if err != nil {
		h.logger.Log(r.Context(), logLevelFor(err), "Service failed to cancel payment", slog.Int64("paymentID", paymentID), slog.Any("error", err))
		respondError(w, err)
		return
	}
	h.logger.InfoContext(r.Context(), "Payment cancelled", slog.Int64("paymentID", paymentID))
	respondJSON(w, http.StatusOK, dto.NewPaymentResponse(cancelled))
}

// CreateDeposit handles POST /deposits
// @Summary Deposit collected payments
// @Description Groups live, undeposited payments into one setoran and flags them deposited.
// @Tags Deposits
// @Accept json
// @Produce json
// @Param request body dto.CreateDepositRequest true "Payments to deposit"
// @Success 201 {object} dto.DepositResponse "Deposit created"
// @Failure 400 {object} dto.ErrorResponse "Invalid request payload"
// @Failure 404 {object} dto.ErrorResponse "Payment not found"
// @Failure 409 {object} dto.ErrorResponse "Payment cancelled or already deposited"
// @Router /deposits [post]
// @Security BearerAuth
func (h *PaymentHandler) CreateDeposit(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateDepositRequest
	if err := decodeAndValidate(r, &req); err != nil {
		respondError(w, err)
		return
	}
	d, err := req.ToDomain(middleware.UserFromContext(r.Context()), h.now())
	if err != nil {
		respondError(w, err)
		return
	}

	created, err := h.service.CreateDeposit(r.Context(), d)
	if err != nil {
		h.logger.Log(r.Context(), logLevelFor(err), "Service failed to create deposit", slog.Any("error", err))
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, dto.NewDepositResponse(created))
}

// GetDeposit handles GET /deposits/{depositID}
// @Summary Retrieve a deposit
// @Tags Deposits
// @Produce json
// @Param depositID path int true "Deposit ID" Minimum(1)
// @Success 200 {object} dto.DepositResponse "Deposit"
// @Failure 404 {object} dto.ErrorResponse "Deposit not found"
// @Router /deposits/{depositID} [get]
// @Security BearerAuth
func (h *PaymentHandler) GetDeposit(w http.ResponseWriter, r *http.Request) {
	depositID, err := getIDFromURL(r, "depositID")
	if err != nil {
		respondError(w, err)
		return
	}
	d, err := h.service.GetDeposit(r.Context(), depositID)
	if err != nil {
		h.logger.Log(r.Context(), logLevelFor(err), "Service failed to get deposit", slog.Int64("depositID", depositID), slog.Any("error", err))
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewDepositResponse(d))
}

// ListDeposits handles GET /deposits
// @Summary List deposits
// @Tags Deposits
// @Produce json
// @Success 200 {array} dto.DepositResponse "Deposits, newest first"
// @Router /deposits [get]
// @Security BearerAuth
func (h *PaymentHandler) ListDeposits(w http.ResponseWriter, r *http.Request) {
	deposits, err := h.service.ListDeposits(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Service failed to list deposits", slog.Any("error", err))
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, dto.NewDepositListResponse(deposits))
}

// CancelDeposit handles DELETE /deposits/{depositID}
// @Summary Cancel a deposit
// @Description Deletes the deposit and marks its payments undeposited in one transaction.
// @Tags Deposits
// @Produce json
// @Param depositID path int true "Deposit ID" Minimum(1)
// @Success 200 {object} dto.DepositResponse "The cancelled deposit"
// @Failure 404 {object} dto.ErrorResponse "Deposit not found"
// @Router /deposits/{depositID} [delete]
// @Security BearerAuth
func (h *PaymentHandler) CancelDeposit(w http.ResponseWriter, r *http.Request) {
	depositID, err := getIDFromURL(r, "depositID")
	if err != nil {
		respondError(w, err)
		return
	}
	d, err := h.service.CancelDeposit(r.Context(), depositID)
	if err != nil {
		h.logger.Log(r.Context(), logLevelFor(err), "Service failed to cancel deposit", slog.Int64("depositID", depositID), slog.Any("error", err))
		respondError(w, err)
		return
	}
	h.logger.InfoContext(r.Context(), "Deposit cancelled", slog.Int64("depositID", depositID))
	respondJSON(w, http.StatusOK, dto.NewDepositResponse(d))
}
