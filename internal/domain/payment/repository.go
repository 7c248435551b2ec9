package payment

import (
	"context"
	"fmt"
	"time"

	"waste-billing/internal/pkg/apperrors"
)

var (
	ErrPaymentNotFound = fmt.Errorf("payment %w", apperrors.ErrNotFound)

	ErrDepositNotFound = fmt.Errorf("deposit %w", apperrors.ErrNotFound)

	ErrPaymentDeposited = fmt.Errorf("%w: payment is part of a deposit; cancel the deposit first", apperrors.ErrConflict)

	ErrPaymentCancelled = fmt.Errorf("%w: payment is already cancelled", apperrors.ErrConflict)

	ErrPaymentUnavailable = fmt.Errorf("%w: payment is cancelled or already deposited", apperrors.ErrConflict)
)

type PaymentRepository interface {
	// CreatePayment locks the customer row, rejects months already covered by
	// a live payment with apperrors.ErrMonthAlreadyPaid, and inserts.
	CreatePayment(ctx context.Context, payment *Payment) error

	FindByID(ctx context.Context, paymentID int64) (*Payment, error)

	ListByCustomer(ctx context.Context, customerID int64, includeCancelled bool) ([]Payment, error)

	CancelPayment(ctx context.Context, paymentID int64, reason string) (*Payment, error)

	SumCollected(ctx context.Context, from, to time.Time) (int64, error)

	SumUndeposited(ctx context.Context) (total int64, count int, err error)
}

type DepositRepository interface {
	// CreateDeposit locks the listed payments, requires each to be live and
	// undeposited, then inserts the deposit and flags the payments.
	CreateDeposit(ctx context.Context, deposit *Deposit) error

	FindByID(ctx context.Context, depositID int64) (*Deposit, error)

	List(ctx context.Context) ([]*Deposit, error)

	// CancelDeposit reverts is_deposited on the member payments and deletes
	// the deposit row in one transaction.
	CancelDeposit(ctx context.Context, depositID int64) (*Deposit, error)
}
