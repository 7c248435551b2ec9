package tariff

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
	"waste-billing/internal/pkg/apperrors"
	"waste-billing/internal/pkg/period"
)

type TariffService interface {
	CreateTariff(ctx context.Context, category *Category) (*Category, error)
	GetTariff(ctx context.Context, tariffID int64) (*Category, error)
	ListTariffs(ctx context.Context) ([]*Category, error)
	UpdateTariff(ctx context.Context, tariffID int64, update CategoryUpdate) (*Category, error)
	TariffExists(ctx context.Context, tariffID int64) (bool, error)

	SetOverride(ctx context.Context, override *Override) (*Override, error)
	ListOverrides(ctx context.Context, customerID int64) ([]Override, error)
	DeleteOverride(ctx context.Context, customerID int64, month period.Month) error

	BulkUpdate(ctx context.Context, req BulkUpdate) (*BulkUpdateResult, error)
}

type CategoryUpdate struct {
	Name        *string
	MonthlyRate *int64
	Description *string
}

type CustomerFinder interface {
	FindByID(ctx context.Context, customerID int64) (*customer.Customer, error)
}

var (
	_ TariffService          = (*tariffService)(nil)
	_ customer.TariffChecker = (*tariffService)(nil)
)

type tariffService struct {
	repo      TariffRepository
	customers CustomerFinder
	pub       event.EventPublisher
	cache     customer.ReportInvalidator
	logger    *slog.Logger
}

func NewTariffService(repo TariffRepository, customers CustomerFinder, pub event.EventPublisher, cache customer.ReportInvalidator, logger *slog.Logger) TariffService {
	if repo == nil {
		panic("tariff repository cannot be nil")
	}
	if customers == nil {
		panic("customer finder cannot be nil")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewTariffService, using default stderr handler")
	}
	if pub == nil {
		pub = event.NewNoopEventPublisher(logger)
	}
	return &tariffService{
		repo:      repo,
		customers: customers,
		pub:       pub,
		cache:     cache,
		logger:    logger.With(slog.String("component", "tariffService")),
	}
}

func (s *tariffService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.WarnContext(ctx, "Failed to invalidate arrears report cache", slog.Any("error", err))
	}
}

func (s *tariffService) CreateTariff(ctx context.Context, category *Category) (*Category, error) {
	if category == nil {
		return nil, fmt.Errorf("%w: tariff cannot be nil", apperrors.ErrInvalidArgument)
	}
	if err := category.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.CreateCategory(ctx, category); err != nil {
		s.logger.ErrorContext(ctx, "Repository failed to save tariff", slog.Any("error", err))
		return nil, fmt.Errorf("failed to save tariff: %w", err)
	}
	s.logger.InfoContext(ctx, "Tariff created", slog.Int64("tariffID", category.ID), slog.Int64("rate", category.MonthlyRate))
	return category, nil
}

func (s *tariffService) GetTariff(ctx context.Context, tariffID int64) (*Category, error) {
	category, err := s.repo.FindCategoryByID(ctx, tariffID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get tariff %d: %w", tariffID, err)
	}
	return category, nil
}

func (s *tariffService) ListTariffs(ctx context.Context) ([]*Category, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tariffs: %w", err)
	}
	return categories, nil
}

func (s *tariffService) TariffExists(ctx context.Context, tariffID int64) (bool, error) {
	_, err := s.GetTariff(ctx, tariffID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (s *tariffService) UpdateTariff(ctx context.Context, tariffID int64, update CategoryUpdate) (*Category, error) {
	logger := s.logger.With(slog.Int64("tariffID", tariffID))

	category, err := s.GetTariff(ctx, tariffID)
	if err != nil {
		return nil, err
	}

	if update.MonthlyRate != nil && *update.MonthlyRate != category.MonthlyRate {
		referenced, err := s.repo.IsCategoryReferenced(ctx, tariffID)
		if err != nil {
			return nil, fmt.Errorf("failed to check references of tariff %d: %w", tariffID, err)
		}
		if referenced {
			logger.WarnContext(ctx, "Rejected rate change on referenced tariff")
			return nil, ErrRateLocked
		}
		category.MonthlyRate = *update.MonthlyRate
	}
	if update.Name != nil {
		category.Name = strings.TrimSpace(*update.Name)
	}
	if update.Description != nil {
		category.Description = *update.Description
	}
	if err := category.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateCategory(ctx, category); err != nil {
		logger.ErrorContext(ctx, "Repository failed to update tariff", slog.Any("error", err))
		return nil, fmt.Errorf("failed to update tariff %d: %w", tariffID, err)
	}
	s.invalidate(ctx)
	logger.InfoContext(ctx, "Tariff updated")
	return category, nil
}

func (s *tariffService) SetOverride(ctx context.Context, override *Override) (*Override, error) {
	if override == nil {
		return nil, fmt.Errorf("%w: override cannot be nil", apperrors.ErrInvalidArgument)
	}
	if err := override.Validate(); err != nil {
		return nil, err
	}
	logger := s.logger.With(slog.Int64("customerID", override.CustomerID), slog.String("month", override.Month.String()))

	cust, err := s.customers.FindByID(ctx, override.CustomerID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, customer.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load customer %d: %w", override.CustomerID, err)
	}
	if override.Month.Before(cust.JoinMonth()) {
		return nil, apperrors.NewValidationError("bulan_berlaku", fmt.Sprintf("is before the join month %s", cust.JoinMonth()))
	}

	if err := s.repo.UpsertOverride(ctx, override); err != nil {
		logger.ErrorContext(ctx, "Repository failed to save override", slog.Any("error", err))
		return nil, fmt.Errorf("failed to save override: %w", err)
	}
	s.invalidate(ctx)
	logger.InfoContext(ctx, "Override saved", slog.Int64("amount", override.Amount))
	return override, nil
}

func (s *tariffService) ListOverrides(ctx context.Context, customerID int64) ([]Override, error) {
	if _, err := s.customers.FindByID(ctx, customerID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, customer.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load customer %d: %w", customerID, err)
	}
	overrides, err := s.repo.OverridesForCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list overrides for customer %d: %w", customerID, err)
	}
	return overrides, nil
}

func (s *tariffService) DeleteOverride(ctx context.Context, customerID int64, month period.Month) error {
	if err := s.repo.DeleteOverride(ctx, customerID, month); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return ErrOverrideNotFound
		}
		return fmt.Errorf("failed to delete override %s for customer %d: %w", month, customerID, err)
	}
	s.invalidate(ctx)
	s.logger.InfoContext(ctx, "Override deleted", slog.Int64("customerID", customerID), slog.String("month", month.String()))
	return nil
}

func (s *tariffService) BulkUpdate(ctx context.Context, req BulkUpdate) (*BulkUpdateResult, error) {
	if err := req.Normalize(); err != nil {
		return nil, err
	}
	logger := s.logger.With(
		slog.Int64("tariffID", req.TariffID),
		slog.String("effectiveMonth", period.Of(req.EffectiveDate).String()),
		slog.Int("customers", len(req.CustomerIDs)),
	)
	logger.InfoContext(ctx, "Starting bulk tariff update")

	plans, err := s.repo.ApplyBulkUpdate(ctx, req, PlanBoundary)
	if err != nil {
		logger.ErrorContext(ctx, "Bulk tariff update failed, nothing applied", slog.Any("error", err))
		return nil, fmt.Errorf("bulk tariff update failed: %w", err)
	}
	s.invalidate(ctx)

	result := summarize(req, plans)
	if len(result.UpdatedIDs) > 0 {
		ev := event.TariffBulkUpdatedEvent{
			TariffID:       req.TariffID,
			CustomerIDs:    result.UpdatedIDs,
			EffectiveMonth: result.EffectiveMonth,
			Timestamp:      time.Now(),
		}
		if pubErr := s.pub.PublishTariffBulkUpdated(ctx, ev); pubErr != nil {
			logger.ErrorContext(ctx, "Bulk update applied, but FAILED to publish event", slog.Any("error", pubErr))
		}
	}

	logger.InfoContext(ctx, "Bulk tariff update applied",
		slog.Int("updated", len(result.UpdatedIDs)),
		slog.Int("skipped", len(result.SkippedIDs)),
		slog.Int("historyRecorded", result.HistoryRecorded))
	return result, nil
}
