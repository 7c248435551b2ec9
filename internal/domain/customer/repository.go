package customer

import (
	"context"
	"fmt"

	"waste-billing/internal/pkg/apperrors"
)

var (
	ErrNotFound = fmt.Errorf("customer %w", apperrors.ErrNotFound)

	ErrTariffNotFound = fmt.Errorf("tariff %w", apperrors.ErrNotFound)

	ErrStatusUnchanged = fmt.Errorf("%w: status is unchanged", apperrors.ErrInvalidArgument)
)

type CustomerRepository interface {
	Create(ctx context.Context, customer *Customer) error

	Update(ctx context.Context, customer *Customer) error

	FindByID(ctx context.Context, customerID int64) (*Customer, error)

	FindAll(ctx context.Context, filter Filter) ([]*Customer, error)

	Delete(ctx context.Context, customerID int64) error

	// ChangeStatus updates the status and appends the audit row in one
	// transaction. It fills change.ID and change.ChangedAt.
	ChangeStatus(ctx context.Context, change *StatusChange) error

	StatusHistory(ctx context.Context, customerID int64) ([]StatusChange, error)

	CountByStatus(ctx context.Context) (map[Status]int, error)
}

type TariffChecker interface {
	TariffExists(ctx context.Context, tariffID int64) (bool, error)
}
