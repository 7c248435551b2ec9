package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"waste-billing/internal/domain/arrears"
)

type ReportHandler struct {
	arrears arrears.ArrearsService
	logger  *slog.Logger
	now     func() time.Time
}

func NewReportHandler(a arrears.ArrearsService, l *slog.Logger) *ReportHandler {
	if a == nil {
		panic("arrears service cannot be nil")
	}
	if l == nil {
		panic("logger cannot be nil")
	}
	return &ReportHandler{
		arrears: a,
		logger:  l.With("component", "ReportHandler"),
		now:     billingNow,
	}
}

// ArrearsReport handles GET /reports/arrears
// @Summary Arrears report
// @Description Lists customers with outstanding arrears, optionally limited to one region, with the summed total. Customers whose data could not be computed are listed under errors.
// @Tags Reports
// @Produce json
// @Param wilayah query string false "Region"
// @Param as_of query string false "Last month to include (YYYY-MM)"
// @Success 200 {object} arrears.Report "Arrears report"
// @Failure 400 {object} dto.ErrorResponse "Invalid as_of"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /reports/arrears [get]
// @Security BearerAuth
func (h *ReportHandler) ArrearsReport(w http.ResponseWriter, r *http.Request) {
	asOf, err := parseAsOf(r, h.now())
	if err != nil {
		respondError(w, err)
		return
	}
	region := strings.TrimSpace(r.URL.Query().Get("wilayah"))

	report, err := h.arrears.Report(r.Context(), region, asOf)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to build arrears report", slog.String("wilayah", region), slog.Any("error", err))
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}

// DashboardStats handles GET /dashboard/stats
// @Summary Dashboard figures
// @Description Customer counts per status, outstanding arrears, this month's collections and undeposited cash.
// @Tags Reports
// @Produce json
// @Success 200 {object} arrears.DashboardStats "Dashboard figures"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /dashboard/stats [get]
// @Security BearerAuth
func (h *ReportHandler) DashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.arrears.Dashboard(r.Context(), h.now().UTC())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to build dashboard stats", slog.Any("error", err))
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}
