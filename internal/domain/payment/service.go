package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"waste-billing/internal/domain/customer"
	"waste-billing/internal/event"
	"waste-billing/internal/infrastructure/monitoring"
	"waste-billing/internal/pkg/apperrors"
	"waste-billing/internal/pkg/period"

	"github.com/google/uuid"
)

type PaymentService interface {
	RecordPayment(ctx context.Context, payment *Payment) (*Payment, error)
	GetPayment(ctx context.Context, paymentID int64) (*Payment, error)
	ListCustomerPayments(ctx context.Context, customerID int64, includeCancelled bool) ([]Payment, error)
	CancelPayment(ctx context.Context, paymentID int64, reason string) (*Payment, error)

	CreateDeposit(ctx context.Context, deposit *Deposit) (*Deposit, error)
	GetDeposit(ctx context.Context, depositID int64) (*Deposit, error)
	ListDeposits(ctx context.Context) ([]*Deposit, error)
	CancelDeposit(ctx context.Context, depositID int64) (*Deposit, error)

	CollectedIn(ctx context.Context, month period.Month) (int64, error)
	Undeposited(ctx context.Context) (int64, int, error)
}

type CustomerFinder interface {
	FindByID(ctx context.Context, customerID int64) (*customer.Customer, error)
}

var _ PaymentService = (*paymentService)(nil)

type paymentService struct {
	payments  PaymentRepository
	deposits  DepositRepository
	customers CustomerFinder
	pub       event.EventPublisher
	cache     customer.ReportInvalidator
	logger    *slog.Logger
	now       func() time.Time
}

func NewPaymentService(payments PaymentRepository, deposits DepositRepository, customers CustomerFinder, pub event.EventPublisher, cache customer.ReportInvalidator, logger *slog.Logger) PaymentService {
	if payments == nil || deposits == nil {
		panic("payment and deposit repositories cannot be nil")
	}
	if customers == nil {
		panic("customer finder cannot be nil")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewPaymentService, using default stderr handler")
	}
	if pub == nil {
		pub = event.NewNoopEventPublisher(logger)
	}
	return &paymentService{
		payments:  payments,
		deposits:  deposits,
		customers: customers,
		pub:       pub,
		cache:     cache,
		logger:    logger.With(slog.String("component", "paymentService")),
		now:       time.Now,
	}
}

func (s *paymentService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.WarnContext(ctx, "Failed to invalidate arrears report cache", slog.Any("error", err))
	}
}

func (s *paymentService) RecordPayment(ctx context.Context, p *Payment) (*Payment, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: payment cannot be nil", apperrors.ErrInvalidArgument)
	}
	logger := s.logger.With(slog.Int64("customerID", p.CustomerID))
	logger.InfoContext(ctx, "Attempting to record payment", slog.Any("months", period.Strings(p.Months)))

	cust, err := s.customers.FindByID(ctx, p.CustomerID)
	if err != nil {
		monitoring.RecordPayment("failure_customer")
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, customer.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load customer %d: %w", p.CustomerID, err)
	}

	if err := p.Validate(cust.JoinMonth()); err != nil {
		monitoring.RecordPayment("failure_validation")
		logger.WarnContext(ctx, "Payment validation failed", slog.Any("error", err))
		return nil, err
	}
	p.CustomerName = cust.Name
	if p.PaidAt.IsZero() {
		p.PaidAt = s.now()
	}

	if err := s.payments.CreatePayment(ctx, p); err != nil {
		if errors.Is(err, apperrors.ErrMonthAlreadyPaid) {
			monitoring.RecordPayment("failure_already_paid")
			logger.WarnContext(ctx, "Rejected payment for months already paid", slog.Any("error", err))
			return nil, err
		}
		monitoring.RecordPayment("failure_db")
		logger.ErrorContext(ctx, "Repository failed to save payment", slog.Any("error", err))
		return nil, fmt.Errorf("failed to save payment: %w", err)
	}
	monitoring.RecordPayment("success")
	s.invalidate(ctx)

	ev := event.PaymentRecordedEvent{
		PaymentID:  p.ID,
		CustomerID: p.CustomerID,
		Months:     period.Strings(p.Months),
		Amount:     p.Amount,
		Method:     string(p.Method),
		Timestamp:  s.now(),
	}
	if pubErr := s.pub.PublishPaymentRecorded(ctx, ev); pubErr != nil {
		logger.ErrorContext(ctx, "Payment recorded, but FAILED to publish event", slog.Any("error", pubErr))
	}

	logger.InfoContext(ctx, "Payment recorded", slog.Int64("paymentID", p.ID), slog.Int64("amount", p.Amount))
	return p, nil
}

func (s *paymentService) GetPayment(ctx context.Context, paymentID int64) (*Payment, error) {
	p, err := s.payments.FindByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to get payment %d: %w", paymentID, err)
	}
	return p, nil
}

func (s *paymentService) ListCustomerPayments(ctx context.Context, customerID int64, includeCancelled bool) ([]Payment, error) {
	if _, err := s.customers.FindByID(ctx, customerID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, customer.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load customer %d: %w", customerID, err)
	}
	payments, err := s.payments.ListByCustomer(ctx, customerID, includeCancelled)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments for customer %d: %w", customerID, err)
	}
	return payments, nil
}

func (s *paymentService) CancelPayment(ctx context.Context, paymentID int64, reason string) (*Payment, error) {
	logger := s.logger.With(slog.Int64("paymentID", paymentID))

	p, err := s.payments.CancelPayment(ctx, paymentID, strings.TrimSpace(reason))
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			return nil, ErrPaymentNotFound
		case errors.Is(err, apperrors.ErrConflict):
			logger.WarnContext(ctx, "Payment cannot be cancelled", slog.Any("error", err))
			return nil, err
		}
		logger.ErrorContext(ctx, "Repository failed to cancel payment", slog.Any("error", err))
		return nil, fmt.Errorf("failed to cancel payment %d: %w", paymentID, err)
	}
	s.invalidate(ctx)

	ev := event.PaymentCancelledEvent{
		PaymentID:  p.ID,
		CustomerID: p.CustomerID,
		Months:     period.Strings(p.Months),
		Timestamp:  s.now(),
	}
	if pubErr := s.pub.PublishPaymentCancelled(ctx, ev); pubErr != nil {
		logger.ErrorContext(ctx, "Payment cancelled, but FAILED to publish event", slog.Any("error", pubErr))
	}
	logger.InfoContext(ctx, "Payment cancelled", slog.Int64("customerID", p.CustomerID))
	return p, nil
}

func (s *paymentService) CreateDeposit(ctx context.Context, d *Deposit) (*Deposit, error) {
	if d == nil {
		return nil, fmt.Errorf("%w: deposit cannot be nil", apperrors.ErrInvalidArgument)
	}
	if err := d.Normalize(); err != nil {
		return nil, err
	}
	if d.DepositedAt.IsZero() {
		d.DepositedAt = s.now()
	}
	d.Reference = "STR-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
	logger := s.logger.With(slog.String("reference", d.Reference), slog.Int("payments", len(d.PaymentIDs)))

	if err := s.deposits.CreateDeposit(ctx, d); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) || errors.Is(err, apperrors.ErrConflict) {
			logger.WarnContext(ctx, "Deposit rejected", slog.Any("error", err))
			return nil, err
		}
		logger.ErrorContext(ctx, "Repository failed to save deposit", slog.Any("error", err))
		return nil, fmt.Errorf("failed to save deposit: %w", err)
	}

	ev := event.DepositCreatedEvent{
		DepositID:  d.ID,
		Reference:  d.Reference,
		PaymentIDs: d.PaymentIDs,
		Total:      d.Total,
		Timestamp:  s.now(),
	}
	if pubErr := s.pub.PublishDepositCreated(ctx, ev); pubErr != nil {
		logger.ErrorContext(ctx, "Deposit created, but FAILED to publish event", slog.Any("error", pubErr))
	}
	logger.InfoContext(ctx, "Deposit created", slog.Int64("depositID", d.ID), slog.Int64("total", d.Total))
	return d, nil
}

func (s *paymentService) GetDeposit(ctx context.Context, depositID int64) (*Deposit, error) {
	d, err := s.deposits.FindByID(ctx, depositID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, ErrDepositNotFound
		}
		return nil, fmt.Errorf("failed to get deposit %d: %w", depositID, err)
	}
	return d, nil
}

func (s *paymentService) ListDeposits(ctx context.Context) ([]*Deposit, error) {
	deposits, err := s.deposits.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list deposits: %w", err)
	}
	return deposits, nil
}

func (s *paymentService) CancelDeposit(ctx context.Context, depositID int64) (*Deposit, error) {
	logger := s.logger.With(slog.Int64("depositID", depositID))

	d, err := s.deposits.CancelDeposit(ctx, depositID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, ErrDepositNotFound
		}
		logger.ErrorContext(ctx, "Repository failed to cancel deposit", slog.Any("error", err))
		return nil, fmt.Errorf("failed to cancel deposit %d: %w", depositID, err)
	}

	ev := event.DepositCancelledEvent{
		DepositID:  d.ID,
		PaymentIDs: d.PaymentIDs,
		Timestamp:  s.now(),
	}
	if pubErr := s.pub.PublishDepositCancelled(ctx, ev); pubErr != nil {
		logger.ErrorContext(ctx, "Deposit cancelled, but FAILED to publish event", slog.Any("error", pubErr))
	}
	logger.InfoContext(ctx, "Deposit cancelled", slog.Int("payments", len(d.PaymentIDs)))
	return d, nil
}

func (s *paymentService) CollectedIn(ctx context.Context, month period.Month) (int64, error) {
	total, err := s.payments.SumCollected(ctx, month.Start(), month.Next().Start())
	if err != nil {
		return 0, fmt.Errorf("failed to sum payments collected in %s: %w", month, err)
	}
	return total, nil
}

func (s *paymentService) Undeposited(ctx context.Context) (int64, int, error) {
	total, count, err := s.payments.SumUndeposited(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to sum undeposited payments: %w", err)
	}
	return total, count, nil
}
