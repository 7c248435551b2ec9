package customer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"waste-billing/internal/event"
	"waste-billing/internal/pkg/apperrors"
)

const customerNotFound = "Customer not found by repository"

type CustomerService interface {
	CreateCustomer(ctx context.Context, customer *Customer) (*Customer, error)
	GetCustomer(ctx context.Context, customerID int64) (*Customer, error)
	ListCustomers(ctx context.Context, filter Filter) ([]*Customer, error)
	UpdateProfile(ctx context.Context, customerID int64, update ProfileUpdate) (*Customer, error)
	ChangeStatus(ctx context.Context, customerID int64, newStatus Status, reason, changedBy string) (*Customer, error)
	StatusHistory(ctx context.Context, customerID int64) ([]StatusChange, error)
	DeleteCustomer(ctx context.Context, customerID int64) error
	CountByStatus(ctx context.Context) (map[Status]int, error)
}

// ReportInvalidator is bumped after every write that can change arrears.
type ReportInvalidator interface {
	Bump(ctx context.Context) error
}

var _ CustomerService = (*customerService)(nil)

type customerService struct {
	repo    CustomerRepository
	tariffs TariffChecker
	pub     event.EventPublisher
	cache   ReportInvalidator
	logger  *slog.Logger
}

func NewCustomerService(repo CustomerRepository, tariffs TariffChecker, pub event.EventPublisher, cache ReportInvalidator, logger *slog.Logger) CustomerService {
	if repo == nil {
		panic("customer repository cannot be nil")
	}
	if tariffs == nil {
		panic("tariff checker cannot be nil")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewCustomerService, using default stderr handler")
	}
	if pub == nil {
		pub = event.NewNoopEventPublisher(logger)
	}

	return &customerService{
		repo:    repo,
		tariffs: tariffs,
		pub:     pub,
		cache:   cache,
		logger:  logger.With(slog.String("component", "customerService")),
	}
}

func (s *customerService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.WarnContext(ctx, "Failed to invalidate arrears report cache", slog.Any("error", err))
	}
}

func (s *customerService) CreateCustomer(ctx context.Context, cust *Customer) (*Customer, error) {
	if cust == nil {
		return nil, fmt.Errorf("%w: customer cannot be nil", apperrors.ErrInvalidArgument)
	}
	s.logger.InfoContext(ctx, "Attempting to create new customer")

	cust.Normalize()
	if err := cust.ValidateNew(); err != nil {
		s.logger.WarnContext(ctx, "Validation failed for new customer", slog.Any("error", err))
		return nil, err
	}

	exists, err := s.tariffs.TariffExists(ctx, cust.TariffID)
	if err != nil {
		return nil, fmt.Errorf("failed to check tariff %d: %w", cust.TariffID, err)
	}
	if !exists {
		s.logger.WarnContext(ctx, "Tariff referenced by new customer does not exist", slog.Int64("tariffID", cust.TariffID))
		return nil, ErrTariffNotFound
	}

	if err := s.repo.Create(ctx, cust); err != nil {
		s.logger.ErrorContext(ctx, "Repository failed to save new customer", slog.Any("error", err))
		return nil, fmt.Errorf("failed to save new customer: %w", err)
	}
	s.invalidate(ctx)

	s.logger.InfoContext(ctx, "Successfully created new customer", slog.Int64("customerID", cust.ID))
	return cust, nil
}

func (s *customerService) GetCustomer(ctx context.Context, customerID int64) (*Customer, error) {
	logger := s.logger.With(slog.Int64("customerID", customerID))
	logger.DebugContext(ctx, "Attempting to get customer by ID")

	cust, err := s.repo.FindByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.WarnContext(ctx, customerNotFound)
			return nil, ErrNotFound
		}
		logger.ErrorContext(ctx, "Repository failed to find customer", slog.Any("error", err))
		return nil, fmt.Errorf("failed to get customer %d: %w", customerID, err)
	}
	return cust, nil
}

func (s *customerService) ListCustomers(ctx context.Context, filter Filter) ([]*Customer, error) {
	filter.Region = strings.TrimSpace(filter.Region)
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, apperrors.NewValidationError("status", "must be one of aktif, nonaktif, cuti")
	}

	customers, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		s.logger.ErrorContext(ctx, "Repository failed to list customers", slog.Any("error", err))
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	s.logger.DebugContext(ctx, "Listed customers", slog.Int("count", len(customers)))
	return customers, nil
}

func (s *customerService) UpdateProfile(ctx context.Context, customerID int64, update ProfileUpdate) (*Customer, error) {
	logger := s.logger.With(slog.Int64("customerID", customerID))

	cust, err := s.GetCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	if !update.Apply(cust) {
		logger.InfoContext(ctx, "Profile unchanged, skipping update")
		return cust, nil
	}
	if err := cust.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, cust); err != nil {
		logger.ErrorContext(ctx, "Repository failed to update customer", slog.Any("error", err))
		return nil, fmt.Errorf("failed to update customer %d: %w", customerID, err)
	}
	s.invalidate(ctx)
	logger.InfoContext(ctx, "Customer profile updated")
	return cust, nil
}

func (s *customerService) ChangeStatus(ctx context.Context, customerID int64, newStatus Status, reason, changedBy string) (*Customer, error) {
	logger := s.logger.With(slog.Int64("customerID", customerID), slog.String("newStatus", string(newStatus)))

	if !newStatus.Valid() {
		return nil, apperrors.NewValidationError("status", "must be one of aktif, nonaktif, cuti")
	}

	cust, err := s.GetCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if cust.Status == newStatus {
		logger.WarnContext(ctx, "Status change requested to the current status")
		return nil, ErrStatusUnchanged
	}

	change := &StatusChange{
		CustomerID: customerID,
		OldStatus:  cust.Status,
		NewStatus:  newStatus,
		Reason:     strings.TrimSpace(reason),
		ChangedBy:  changedBy,
	}
	if err := s.repo.ChangeStatus(ctx, change); err != nil {
		logger.ErrorContext(ctx, "Repository failed to change status", slog.Any("error", err))
		return nil, fmt.Errorf("failed to change status for customer %d: %w", customerID, err)
	}
	cust.Status = newStatus
	s.invalidate(ctx)

	ev := event.CustomerStatusChangedEvent{
		CustomerID: customerID,
		OldStatus:  string(change.OldStatus),
		NewStatus:  string(change.NewStatus),
		Reason:     change.Reason,
		Timestamp:  time.Now(),
	}
	if pubErr := s.pub.PublishCustomerStatusChanged(ctx, ev); pubErr != nil {
		logger.ErrorContext(ctx, "Status changed, but FAILED to publish event", slog.Any("error", pubErr))
	}

	logger.InfoContext(ctx, "Customer status changed", slog.String("oldStatus", string(change.OldStatus)))
	return cust, nil
}

func (s *customerService) StatusHistory(ctx context.Context, customerID int64) ([]StatusChange, error) {
	if _, err := s.GetCustomer(ctx, customerID); err != nil {
		return nil, err
	}
	history, err := s.repo.StatusHistory(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load status history for customer %d: %w", customerID, err)
	}
	return history, nil
}

func (s *customerService) DeleteCustomer(ctx context.Context, customerID int64) error {
	logger := s.logger.With(slog.Int64("customerID", customerID))

	if err := s.repo.Delete(ctx, customerID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.WarnContext(ctx, customerNotFound)
			return ErrNotFound
		}
		logger.ErrorContext(ctx, "Repository failed to delete customer", slog.Any("error", err))
		return fmt.Errorf("failed to delete customer %d: %w", customerID, err)
	}
	s.invalidate(ctx)
	logger.InfoContext(ctx, "Customer deleted")
	return nil
}

func (s *customerService) CountByStatus(ctx context.Context) (map[Status]int, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count customers by status: %w", err)
	}
	return counts, nil
}
