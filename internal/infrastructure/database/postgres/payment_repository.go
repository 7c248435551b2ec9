package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"waste-billing/internal/domain/customer"
	"waste-billing/internal/domain/payment"
	"waste-billing/internal/pkg/apperrors"
	"waste-billing/internal/pkg/period"

	"github.com/jackc/pgx/v5"
)

type PaymentRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ payment.PaymentRepository = (*PaymentRepository)(nil)

const paymentSelect = `
        SELECT p.id, p.customer_id, c.nama, p.tanggal_bayar, p.bulan_dibayar, p.jumlah_bayar, p.metode_bayar,
               p.catatan, p.is_deposited, p.deposit_id, p.created_by, p.cancelled_at, p.cancel_reason, p.created_at
        FROM payments p
        JOIN customers c ON c.id = p.customer_id`

func NewPaymentRepository(db DBPool, logger *slog.Logger) *PaymentRepository {
	if db == nil {
		panic("DBPool cannot be nil for PaymentRepository")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewPaymentRepository, using default stderr handler")
	}
	return &PaymentRepository{
		db:     db,
		logger: logger.With("component", "PaymentRepository"),
	}
}

func scanPayment(row pgx.Row) (*payment.Payment, error) {
	var (
		p      payment.Payment
		months []string
		method string
	)
	err := row.Scan(
		&p.ID,
		&p.CustomerID,
		&p.CustomerName,
		&p.PaidAt,
		&months,
		&p.Amount,
		&method,
		&p.Note,
		&p.IsDeposited,
		&p.DepositID,
		&p.CreatedBy,
		&p.CancelledAt,
		&p.CancelReason,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Method = payment.Method(method)
	p.Months, err = period.ParseAll(months)
	if err != nil {
		return nil, apperrors.NewIntegrityError(p.CustomerID, "payment %d has malformed bulan_dibayar: %v", p.ID, err)
	}
	return &p, nil
}

func (r *PaymentRepository) CreatePayment(ctx context.Context, p *payment.Payment) (err error) {
	logger := r.logger.With(slog.Int64("customerID", p.CustomerID), slog.Any("months", period.Strings(p.Months)))
	start := time.Now()
	defer func() { observe("CreatePayment", start, err) }()

	months := period.Strings(p.Months)
	return inTx(ctx, r.db, logger, func(tx pgx.Tx) error {
		// Serializes payments per customer so the overlap check below and
		// the insert see the same set of live payments.
		err := tx.QueryRow(ctx, `SELECT nama FROM customers WHERE id = $1 FOR UPDATE`, p.CustomerID).Scan(&p.CustomerName)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return customer.ErrNotFound
			}
			logger.ErrorContext(ctx, "Failed to lock customer for payment", slog.Any("error", err))
			return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}

		paid, err := r.paidAmong(ctx, tx, p.CustomerID, months)
		if err != nil {
			return err
		}
		if len(paid) > 0 {
			return fmt.Errorf("%w: %s", apperrors.ErrMonthAlreadyPaid, strings.Join(paid, ", "))
		}

		insertSQL := `
            INSERT INTO payments (customer_id, tanggal_bayar, bulan_dibayar, jumlah_bayar, metode_bayar, catatan, created_by, created_at)
            VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
            RETURNING id, created_at`
		err = tx.QueryRow(ctx, insertSQL,
			p.CustomerID,
			p.PaidAt,
			months,
			p.Amount,
			string(p.Method),
			p.Note,
			p.CreatedBy,
		).Scan(&p.ID, &p.CreatedAt)
		if err != nil {
			logger.ErrorContext(ctx, "Failed to insert payment", slog.Any("error", err))
			return translateDBError(err, logger)
		}
		logger.InfoContext(ctx, "Payment inserted", slog.Int64("paymentID", p.ID))
		return nil
	})
}

// paidAmong returns the months from candidates already covered by a live
// payment of the customer.
func (r *PaymentRepository) paidAmong(ctx context.Context, tx pgx.Tx, customerID int64, candidates []string) ([]string, error) {
	query := `
        SELECT DISTINCT m
        FROM payments p, unnest(p.bulan_dibayar) AS m
        WHERE p.customer_id = $1 AND p.cancelled_at IS NULL AND p.bulan_dibayar && $2
          AND m = ANY($2)
        ORDER BY m`

	rows, err := tx.Query(ctx, query, customerID, candidates)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to check already paid months", slog.Any("error", err))
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	paid := make([]string, 0)
	for rows.Next() {
		var m string
		if err := rows.Scan(&m); err != nil {
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		paid = append(paid, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return paid, nil
}

func (r *PaymentRepository) FindByID(ctx context.Context, paymentID int64) (*payment.Payment, error) {
	start := time.Now()
	p, err := scanPayment(r.db.QueryRow(ctx, paymentSelect+` WHERE p.id = $1`, paymentID))
	observe("FindPaymentByID", start, err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, payment.ErrPaymentNotFound
		}
		if errors.Is(err, apperrors.ErrDataIntegrity) {
			return nil, err
		}
		r.logger.ErrorContext(ctx, "Failed to get payment", slog.Int64("paymentID", paymentID), slog.Any("error", err))
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return p, nil
}

func (r *PaymentRepository) ListByCustomer(ctx context.Context, customerID int64, includeCancelled bool) ([]payment.Payment, error) {
	query := paymentSelect + ` WHERE p.customer_id = $1`
	if !includeCancelled {
		query += ` AND p.cancelled_at IS NULL`
	}
	query += ` ORDER BY p.tanggal_bayar ASC, p.id ASC`

	start := time.Now()
	rows, err := r.db.Query(ctx, query, customerID)
	if err != nil {
		observe("ListPaymentsByCustomer", start, err)
		r.logger.ErrorContext(ctx, "Failed to query payments", slog.Int64("customerID", customerID), slog.Any("error", err))
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	payments := make([]payment.Payment, 0)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			observe("ListPaymentsByCustomer", start, err)
			if errors.Is(err, apperrors.ErrDataIntegrity) {
				return nil, err
			}
			r.logger.ErrorContext(ctx, "Failed to scan payment row", slog.Any("error", err))
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		payments = append(payments, *p)
	}
	err = rows.Err()
	observe("ListPaymentsByCustomer", start, err)
	if err != nil {
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return payments, nil
}

func (r *PaymentRepository) CancelPayment(ctx context.Context, paymentID int64, reason string) (cancelled *payment.Payment, err error) {
	logger := r.logger.With(slog.Int64("paymentID", paymentID))
	start := time.Now()
	defer func() { observe("CancelPayment", start, err) }()

	err = inTx(ctx, r.db, logger, func(tx pgx.Tx) error {
		var (
			deposited   bool
			cancelledAt *time.Time
		)
		err := tx.QueryRow(ctx, `SELECT is_deposited, cancelled_at FROM payments WHERE id = $1 FOR UPDATE`, paymentID).
			Scan(&deposited, &cancelledAt)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return payment.ErrPaymentNotFound
			}
			return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		switch {
		case cancelledAt != nil:
			return payment.ErrPaymentCancelled
		case deposited:
			return payment.ErrPaymentDeposited
		}

		if _, err := tx.Exec(ctx, `UPDATE payments SET cancelled_at = NOW(), cancel_reason = $1 WHERE id = $2`, reason, paymentID); err != nil {
			logger.ErrorContext(ctx, "Failed to cancel payment", slog.Any("error", err))
			return translateDBError(err, logger)
		}

		cancelled, err = scanPayment(tx.QueryRow(ctx, paymentSelect+` WHERE p.id = $1`, paymentID))
		if err != nil {
			return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cancelled, nil
}

func (r *PaymentRepository) SumCollected(ctx context.Context, from, to time.Time) (int64, error) {
	query := `
        SELECT COALESCE(SUM(jumlah_bayar), 0)
        FROM payments
        WHERE cancelled_at IS NULL AND tanggal_bayar >= $1 AND tanggal_bayar < $2`

	var total int64
	if err := r.db.QueryRow(ctx, query, from, to).Scan(&total); err != nil {
		r.logger.ErrorContext(ctx, "Failed to sum collected payments", slog.Any("error", err))
		return 0, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return total, nil
}

func (r *PaymentRepository) SumUndeposited(ctx context.Context) (int64, int, error) {
	query := `
        SELECT COALESCE(SUM(jumlah_bayar), 0), COUNT(*)
        FROM payments
        WHERE cancelled_at IS NULL AND NOT is_deposited`

	var (
		total int64
		count int
	)
	if err := r.db.QueryRow(ctx, query).Scan(&total, &count); err != nil {
		r.logger.ErrorContext(ctx, "Failed to sum undeposited payments", slog.Any("error", err))
		return 0, 0, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return total, count, nil
}
