package arrears

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"waste-billing/internal/domain/customer"
	"waste-billing/internal/domain/payment"
	"waste-billing/internal/domain/tariff"
	"waste-billing/internal/infrastructure/monitoring"
	"waste-billing/internal/pkg/apperrors"
	"waste-billing/internal/pkg/period"

	"golang.org/x/sync/errgroup"
)

type CustomerSource interface {
	FindByID(ctx context.Context, customerID int64) (*customer.Customer, error)
	FindAll(ctx context.Context, filter customer.Filter) ([]*customer.Customer, error)
	StatusHistory(ctx context.Context, customerID int64) ([]customer.StatusChange, error)
	CountByStatus(ctx context.Context) (map[customer.Status]int, error)
}

type TariffSource interface {
	FindCategoryByID(ctx context.Context, tariffID int64) (*tariff.Category, error)
	ListCategories(ctx context.Context) ([]*tariff.Category, error)
	HistoryForCustomer(ctx context.Context, customerID int64) ([]tariff.History, error)
	OverridesForCustomer(ctx context.Context, customerID int64) ([]tariff.Override, error)
}

type PaymentSource interface {
	ListByCustomer(ctx context.Context, customerID int64, includeCancelled bool) ([]payment.Payment, error)
	SumCollected(ctx context.Context, from, to time.Time) (int64, error)
	SumUndeposited(ctx context.Context) (int64, int, error)
}

// ReportCache stores computed reports under a version that every billing
// write bumps.
type ReportCache interface {
	BuildKey(ctx context.Context, parts ...string) (string, error)
	FetchJSON(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) error
}

type CustomerArrears struct {
	Customer *customer.Customer `json:"customer"`
	Arrears  *Result            `json:"arrears"`
}

type ReportSummary struct {
	TotalArrears   int64 `json:"totalArrears"`
	TotalCustomers int   `json:"totalCustomers"`
}

// ReportError names a customer left out of a report because their stored
// data is inconsistent.
type ReportError struct {
	CustomerID int64  `json:"customerId"`
	Message    string `json:"message"`
}

type Report struct {
	Region    string            `json:"wilayah,omitempty"`
	AsOf      period.Month      `json:"asOf"`
	Summary   ReportSummary     `json:"summary"`
	Customers []CustomerArrears `json:"customers"`
	Errors    []ReportError     `json:"errors,omitempty"`
}

type DashboardStats struct {
	AsOf               period.Month            `json:"asOf"`
	TotalCustomers     int                     `json:"totalCustomers"`
	CustomersByStatus  map[customer.Status]int `json:"customersByStatus"`
	CustomersInArrears int                     `json:"customersInArrears"`
	TotalArrears       int64                   `json:"totalArrears"`
	CollectedThisMonth int64                   `json:"collectedThisMonth"`
	UndepositedTotal   int64                   `json:"undepositedTotal"`
	UndepositedCount   int                     `json:"undepositedCount"`
}

type ArrearsService interface {
	ForCustomer(ctx context.Context, customerID int64, asOf time.Time) (*Result, error)
	Compute(ctx context.Context, cust *customer.Customer, asOf time.Time) (*Result, error)
	Scan(ctx context.Context, filter customer.Filter, asOf time.Time) ([]CustomerArrears, []ReportError, error)
	Report(ctx context.Context, region string, asOf time.Time) (*Report, error)
	Dashboard(ctx context.Context, asOf time.Time) (*DashboardStats, error)
}

var _ ArrearsService = (*arrearsService)(nil)

type arrearsService struct {
	engine      *Engine
	customers   CustomerSource
	tariffs     TariffSource
	payments    PaymentSource
	cache       ReportCache
	concurrency int
	logger      *slog.Logger
}

func NewArrearsService(engine *Engine, customers CustomerSource, tariffs TariffSource, payments PaymentSource, cache ReportCache, concurrency int, logger *slog.Logger) ArrearsService {
	if engine == nil || customers == nil || tariffs == nil || payments == nil {
		panic("arrears service dependencies cannot be nil")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewArrearsService, using default stderr handler")
	}
	if concurrency <= 0 {
		concurrency = 4
	}
	return &arrearsService{
		engine:      engine,
		customers:   customers,
		tariffs:     tariffs,
		payments:    payments,
		cache:       cache,
		concurrency: concurrency,
		logger:      logger.With(slog.String("component", "arrearsService")),
	}
}

func (s *arrearsService) ForCustomer(ctx context.Context, customerID int64, asOf time.Time) (*Result, error) {
	cust, err := s.customers.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, customer.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load customer %d: %w", customerID, err)
	}
	return s.Compute(ctx, cust, asOf)
}

func (s *arrearsService) Compute(ctx context.Context, cust *customer.Customer, asOf time.Time) (*Result, error) {
	category, err := s.tariffs.FindCategoryByID(ctx, cust.TariffID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewIntegrityError(cust.ID, "assigned tariff %d does not exist", cust.TariffID)
		}
		return nil, fmt.Errorf("failed to load tariff %d: %w", cust.TariffID, err)
	}
	return s.compute(ctx, cust, category.MonthlyRate, asOf)
}

func (s *arrearsService) compute(ctx context.Context, cust *customer.Customer, currentRate int64, asOf time.Time) (*Result, error) {
	in := Input{Customer: cust, CurrentRate: currentRate}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		in.History, err = s.tariffs.HistoryForCustomer(gctx, cust.ID)
		return err
	})
	g.Go(func() error {
		var err error
		in.Overrides, err = s.tariffs.OverridesForCustomer(gctx, cust.ID)
		return err
	})
	g.Go(func() error {
		var err error
		in.Payments, err = s.payments.ListByCustomer(gctx, cust.ID, false)
		return err
	})
	if s.engine.Policy() == PolicySuppress {
		g.Go(func() error {
			var err error
			in.StatusHistory, err = s.customers.StatusHistory(gctx, cust.ID)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		monitoring.RecordArrearsComputation("error")
		return nil, fmt.Errorf("failed to load billing records for customer %d: %w", cust.ID, err)
	}

	result, err := s.engine.Compute(in, asOf)
	if err != nil {
		monitoring.RecordArrearsComputation("integrity_error")
		s.logger.WarnContext(ctx, "Arrears computation rejected inconsistent data",
			slog.Int64("customerID", cust.ID), slog.Any("error", err))
		return nil, err
	}
	if len(result.Issues) > 0 {
		s.logger.WarnContext(ctx, "Arrears computed with data-integrity issues",
			slog.Int64("customerID", cust.ID), slog.Any("issues", result.Issues))
	}
	monitoring.RecordArrearsComputation("success")
	return result, nil
}

func (s *arrearsService) Scan(ctx context.Context, filter customer.Filter, asOf time.Time) ([]CustomerArrears, []ReportError, error) {
	customers, err := s.customers.FindAll(ctx, filter)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list customers: %w", err)
	}
	categories, err := s.tariffs.ListCategories(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list tariffs: %w", err)
	}
	rates := make(map[int64]int64, len(categories))
	for _, c := range categories {
		rates[c.ID] = c.MonthlyRate
	}

	results := make([]CustomerArrears, len(customers))
	var (
		mu        sync.Mutex
		badInputs []ReportError
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, cust := range customers {
		g.Go(func() error {
			rate, ok := rates[cust.TariffID]
			var (
				res *Result
				err error
			)
			if !ok {
				err = apperrors.NewIntegrityError(cust.ID, "assigned tariff %d does not exist", cust.TariffID)
			} else {
				res, err = s.compute(gctx, cust, rate, asOf)
			}
			if errors.Is(err, apperrors.ErrDataIntegrity) {
				mu.Lock()
				badInputs = append(badInputs, ReportError{CustomerID: cust.ID, Message: err.Error()})
				mu.Unlock()
				return nil
			}
			if err != nil {
				return err
			}
			results[i] = CustomerArrears{Customer: cust, Arrears: res}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	out := results[:0]
	for _, r := range results {
		if r.Arrears != nil {
			out = append(out, r)
		}
	}
	sort.Slice(badInputs, func(i, j int) bool { return badInputs[i].CustomerID < badInputs[j].CustomerID })
	return out, badInputs, nil
}

func (s *arrearsService) Report(ctx context.Context, region string, asOf time.Time) (*Report, error) {
	region = strings.TrimSpace(region)
	asOfMonth := period.Of(asOf)
	logger := s.logger.With(slog.String("wilayah", region), slog.String("asOf", asOfMonth.String()))

	if s.cache == nil {
		return s.buildReport(ctx, region, asOf)
	}

	var loadErr error
	loader := func(ctx context.Context) (any, error) {
		logger.InfoContext(ctx, "Computing arrears report")
		report, err := s.buildReport(ctx, region, asOf)
		loadErr = err
		return report, err
	}

	key, err := s.cache.BuildKey(ctx, "arrears", "report", regionToken(region), asOfMonth.String())
	if err != nil {
		logger.WarnContext(ctx, "Report cache unavailable, computing directly", slog.Any("error", err))
		return s.buildReport(ctx, region, asOf)
	}
	var report Report
	if err := s.cache.FetchJSON(ctx, key, &report, loader); err != nil {
		if loadErr != nil {
			return nil, loadErr
		}
		logger.WarnContext(ctx, "Report cache failed, computing directly", slog.Any("error", err))
		return s.buildReport(ctx, region, asOf)
	}
	return &report, nil
}

func regionToken(region string) string {
	if region == "" {
		return "all"
	}
	// wilayah is matched exactly by the customer filter, so the key keeps its case.
	return region
}

func (s *arrearsService) buildReport(ctx context.Context, region string, asOf time.Time) (*Report, error) {
	scanned, bad, err := s.Scan(ctx, customer.Filter{Region: region}, asOf)
	if err != nil {
		return nil, err
	}
	report := &Report{
		Region:    region,
		AsOf:      period.Of(asOf),
		Customers: []CustomerArrears{},
		Errors:    bad,
	}
	for _, ca := range scanned {
		if ca.Arrears.TotalArrears <= 0 {
			continue
		}
		report.Customers = append(report.Customers, ca)
		report.Summary.TotalArrears += ca.Arrears.TotalArrears
	}
	report.Summary.TotalCustomers = len(report.Customers)
	return report, nil
}

func (s *arrearsService) Dashboard(ctx context.Context, asOf time.Time) (*DashboardStats, error) {
	stats := &DashboardStats{AsOf: period.Of(asOf)}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		counts, err := s.customers.CountByStatus(gctx)
		if err != nil {
			return fmt.Errorf("failed to count customers: %w", err)
		}
		stats.CustomersByStatus = counts
		for _, n := range counts {
			stats.TotalCustomers += n
		}
		return nil
	})
	g.Go(func() error {
		report, err := s.Report(gctx, "", asOf)
		if err != nil {
			return err
		}
		stats.TotalArrears = report.Summary.TotalArrears
		stats.CustomersInArrears = report.Summary.TotalCustomers
		return nil
	})
	g.Go(func() error {
		m := period.Of(asOf)
		total, err := s.payments.SumCollected(gctx, m.Start(), m.Next().Start())
		if err != nil {
			return fmt.Errorf("failed to sum collected payments: %w", err)
		}
		stats.CollectedThisMonth = total
		return nil
	})
	g.Go(func() error {
		total, count, err := s.payments.SumUndeposited(gctx)
		if err != nil {
			return fmt.Errorf("failed to sum undeposited payments: %w", err)
		}
		stats.UndepositedTotal = total
		stats.UndepositedCount = count
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}
