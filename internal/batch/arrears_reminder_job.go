package batch

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"waste-billing/internal/domain/arrears"
	"waste-billing/internal/domain/customer"
	"waste-billing/internal/event"
	"waste-billing/internal/infrastructure/monitoring"

	"golang.org/x/sync/errgroup"
)

type ArrearsScanner interface {
	Scan(ctx context.Context, filter customer.Filter, asOf time.Time) ([]arrears.CustomerArrears, []arrears.ReportError, error)
}

// ArrearsReminderJob refreshes the outstanding-arrears gauges and publishes
// a reminder for every active customer with at least minMonths unpaid months.
type ArrearsReminderJob struct {
	arrears     ArrearsScanner
	pub         event.EventPublisher
	minMonths   int
	concurrency int
	now         func() time.Time
	logger      *slog.Logger
}

func NewArrearsReminderJob(scanner ArrearsScanner, pub event.EventPublisher, minMonths, concurrency int, logger *slog.Logger) *ArrearsReminderJob {
	if scanner == nil || pub == nil || logger == nil {
		panic("ArrearsReminderJob dependencies cannot be nil")
	}
	if minMonths <= 0 {
		minMonths = 1
	}
	if concurrency <= 0 {
		concurrency = 4
	}
	return &ArrearsReminderJob{
		arrears:     scanner,
		pub:         pub,
		minMonths:   minMonths,
		concurrency: concurrency,
		now:         time.Now,
		logger:      logger.With("job", "ArrearsReminder"),
	}
}

func (j *ArrearsReminderJob) Run(ctx context.Context) error {
	startTime := time.Now()
	asOf := j.now()
	j.logger.InfoContext(ctx, "Starting arrears reminder job.", slog.String("asOf", asOf.Format("2006-01")))

	results, skipped, err := j.arrears.Scan(ctx, customer.Filter{}, asOf)
	if err != nil {
		j.logger.ErrorContext(ctx, "Failed to compute arrears, aborting job.", slog.Any("error", err))
		return fmt.Errorf("cannot run job, failed to compute arrears: %w", err)
	}
	for _, s := range skipped {
		j.logger.WarnContext(ctx, "Customer skipped due to inconsistent billing data",
			slog.Int64("customerID", s.CustomerID), slog.String("reason", s.Message))
	}

	var (
		outstanding int64
		inArrears   int
	)
	due := make([]arrears.CustomerArrears, 0)
	for _, ca := range results {
		if ca.Arrears.TotalMonths == 0 {
			continue
		}
		outstanding += ca.Arrears.TotalArrears
		inArrears++
		if ca.Customer.Status == customer.StatusActive && ca.Arrears.TotalMonths >= j.minMonths {
			due = append(due, ca)
		}
	}
	monitoring.SetArrearsSnapshot(outstanding, inArrears)

	var published, failed atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(j.concurrency)
	for _, ca := range due {
		g.Go(func() error {
			ev := event.ArrearsReminderEvent{
				CustomerID:   ca.Customer.ID,
				Name:         ca.Customer.Name,
				Phone:        ca.Customer.Phone,
				Region:       ca.Customer.Region,
				TotalArrears: ca.Arrears.TotalArrears,
				TotalMonths:  ca.Arrears.TotalMonths,
				Months:       ca.Arrears.Months(),
				AsOf:         ca.Arrears.AsOf.String(),
				Timestamp:    time.Now(),
			}
			if pubErr := j.pub.PublishArrearsReminder(gctx, ev); pubErr != nil {
				j.logger.ErrorContext(gctx, "Failed to publish arrears reminder",
					slog.Int64("customerID", ca.Customer.ID), slog.Any("error", pubErr))
				failed.Add(1)
				return nil
			}
			monitoring.RecordReminderPublished()
			published.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	summaryLog := j.logger.With(
		slog.Duration("duration", time.Since(startTime)),
		slog.Int("customers_scanned", len(results)),
		slog.Int("customers_skipped", len(skipped)),
		slog.Int("customers_in_arrears", inArrears),
		slog.Int64("outstanding_total", outstanding),
		slog.Int("reminders_published", int(published.Load())),
		slog.Int("errors_encountered", int(failed.Load())),
	)
	if failed.Load() > 0 {
		summaryLog.WarnContext(ctx, "Arrears reminder job finished with errors.")
		return fmt.Errorf("job completed with %d errors", failed.Load())
	}
	summaryLog.InfoContext(ctx, "Arrears reminder job finished successfully.")
	return nil
}
