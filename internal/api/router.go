package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"waste-billing/internal/api/handler"
	mw "waste-billing/internal/api/middleware"
	"waste-billing/internal/config"
	"waste-billing/internal/domain/arrears"
	"waste-billing/internal/domain/customer"
	"waste-billing/internal/domain/payment"
	"waste-billing/internal/domain/tariff"

	_ "waste-billing/docs"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/traceid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

type Services struct {
	Customers customer.CustomerService
	Tariffs   tariff.TariffService
	Payments  payment.PaymentService
	Arrears   arrears.ArrearsService
	DB        handler.Pinger
}

// SetupRouter builds the HTTP surface. ctx bounds background work started by
// middleware such as the rate limiter's cleanup loop.
func SetupRouter(ctx context.Context, svc Services, cfg *config.Config, logger *slog.Logger) *chi.Mux {
	router := chi.NewRouter()

	setupMiddleware(ctx, router, cfg, logger)
	setupMetricsEndpoint(router, cfg, logger)
	router.Get("/health", handler.NewHealthHandler(svc.DB, logger).Health)
	setupSwaggerEndpoint(router, logger)

	authHandler := handler.NewAuthHandler(cfg.Server.Auth, logger)
	router.Post("/auth/token", authHandler.GenerateBearerToken)

	router.Group(func(r chi.Router) {
		r.Use(mw.AuthMiddleware(cfg.Server.Auth, logger))
		setupCustomerRoutes(r, svc, logger)
		setupTariffRoutes(r, svc.Tariffs, logger)
		setupPaymentRoutes(r, svc.Payments, logger)
		setupReportRoutes(r, svc.Arrears, logger)
	})

	return router
}

func setupMiddleware(ctx context.Context, router *chi.Mux, cfg *config.Config, logger *slog.Logger) {
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(traceid.Middleware)
	router.Use(mw.StructuredLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(middleware.Timeout(60 * time.Second))
	router.Use(mw.NewRateLimiterMiddleware(ctx, cfg.Server.RateLimit, logger).Middleware)
	router.Use(mw.MetricsMiddleware())
}

func setupMetricsEndpoint(router *chi.Mux, cfg *config.Config, logger *slog.Logger) {
	metricsPath := cfg.Metrics.Path
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	logger.Info("Setting up Prometheus metrics endpoint", "path", metricsPath)
	router.Handle(metricsPath, promhttp.Handler())
}

func setupSwaggerEndpoint(router *chi.Mux, logger *slog.Logger) {
	logger.Info("Setting up Swagger UI endpoint", "path", "/swagger/")
	router.Get("/swagger/*", httpSwagger.WrapHandler)
	router.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/swagger/index.html", http.StatusMovedPermanently)
	})
}

func setupCustomerRoutes(r chi.Router, svc Services, logger *slog.Logger) {
	h := handler.NewCustomerHandler(svc.Customers, svc.Arrears, logger)
	th := handler.NewTariffHandler(svc.Tariffs, logger)
	ph := handler.NewPaymentHandler(svc.Payments, logger)

	r.Route("/customers", func(r chi.Router) {
		r.Get("/", h.ListCustomers)
		r.Post("/", h.CreateCustomer)
		r.Route("/{customerID}", func(r chi.Router) {
			r.Get("/", h.GetCustomer)
			r.Put("/", h.UpdateCustomer)
			r.Delete("/", h.DeleteCustomer)
			r.Put("/status", h.ChangeStatus)
			r.Get("/status-history", h.StatusHistory)
			r.Get("/arrears", h.GetArrears)
			r.Get("/payments", ph.ListCustomerPayments)
			r.Get("/overrides", th.ListOverrides)
			r.Post("/overrides", th.SetOverride)
			r.Delete("/overrides/{month}", th.DeleteOverride)
		})
	})
}

func setupTariffRoutes(r chi.Router, svc tariff.TariffService, logger *slog.Logger) {
	h := handler.NewTariffHandler(svc, logger)

	r.Route("/tariffs", func(r chi.Router) {
		r.Get("/", h.ListTariffs)
		r.Post("/", h.CreateTariff)
		r.Post("/bulk-update", h.BulkUpdate)
		r.Get("/{tariffID}", h.GetTariff)
		r.Put("/{tariffID}", h.UpdateTariff)
	})
}

func setupPaymentRoutes(r chi.Router, svc payment.PaymentService, logger *slog.Logger) {
	h := handler.NewPaymentHandler(svc, logger)

	r.Route("/payments", func(r chi.Router) {
		r.Post("/", h.RecordPayment)
		r.Get("/{paymentID}", h.GetPayment)
		r.Post("/{paymentID}/cancel", h.CancelPayment)
	})
	r.Route("/deposits", func(r chi.Router) {
		r.Get("/", h.ListDeposits)
		r.Post("/", h.CreateDeposit)
		r.Get("/{depositID}", h.GetDeposit)
		r.Delete("/{depositID}", h.CancelDeposit)
	})
}

func setupReportRoutes(r chi.Router, svc arrears.ArrearsService, logger *slog.Logger) {
	h := handler.NewReportHandler(svc, logger)

	r.Get("/reports/arrears", h.ArrearsReport)
	r.Get("/dashboard/stats", h.DashboardStats)
}
