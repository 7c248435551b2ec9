package tariff

import (
	"context"
	"fmt"

	"waste-billing/internal/pkg/apperrors"
	"waste-billing/internal/pkg/period"
)

var (
	ErrNotFound = fmt.Errorf("tariff %w", apperrors.ErrNotFound)

	ErrOverrideNotFound = fmt.Errorf("override %w", apperrors.ErrNotFound)

	ErrRateLocked = fmt.Errorf("%w: harga_per_bulan cannot change once the tariff is referenced; create a new tariff instead", apperrors.ErrConflict)
)

type TariffRepository interface {
	CreateCategory(ctx context.Context, category *Category) error
	UpdateCategory(ctx context.Context, category *Category) error
	FindCategoryByID(ctx context.Context, tariffID int64) (*Category, error)
	ListCategories(ctx context.Context) ([]*Category, error)
	IsCategoryReferenced(ctx context.Context, tariffID int64) (bool, error)

	HistoryForCustomer(ctx context.Context, customerID int64) ([]History, error)

	OverridesForCustomer(ctx context.Context, customerID int64) ([]Override, error)
	// UpsertOverride keeps one override per (customer, month).
	UpsertOverride(ctx context.Context, override *Override) error
	DeleteOverride(ctx context.Context, customerID int64, month period.Month) error

	// ApplyBulkUpdate runs plan against every locked customer and persists the
	// results in a single transaction. Any plan error aborts the whole batch.
	ApplyBulkUpdate(ctx context.Context, req BulkUpdate, plan PlanFunc) ([]BoundaryPlan, error)
}
