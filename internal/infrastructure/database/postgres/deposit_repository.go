package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"waste-billing/internal/domain/payment"
	"waste-billing/internal/pkg/apperrors"

	"github.com/jackc/pgx/v5"
)

type DepositRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ payment.DepositRepository = (*DepositRepository)(nil)

const depositSelect = `
        SELECT d.id, d.reference, d.tanggal_setor, d.total, d.catatan, d.created_by, d.created_at,
               ARRAY(SELECT p.id FROM payments p WHERE p.deposit_id = d.id ORDER BY p.id)
        FROM deposits d`

func NewDepositRepository(db DBPool, logger *slog.Logger) *DepositRepository {
	if db == nil {
		panic("DBPool cannot be nil for DepositRepository")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewDepositRepository, using default stderr handler")
	}
	return &DepositRepository{
		db:     db,
		logger: logger.With("component", "DepositRepository"),
	}
}

func scanDeposit(row pgx.Row) (*payment.Deposit, error) {
	var d payment.Deposit
	err := row.Scan(&d.ID, &d.Reference, &d.DepositedAt, &d.Total, &d.Note, &d.CreatedBy, &d.CreatedAt, &d.PaymentIDs)
	if err != nil {
		return nil, err
	}
	if d.PaymentIDs == nil {
		d.PaymentIDs = []int64{}
	}
	return &d, nil
}

func (r *DepositRepository) CreateDeposit(ctx context.Context, d *payment.Deposit) (err error) {
	logger := r.logger.With(slog.String("reference", d.Reference))
	start := time.Now()
	defer func() { observe("CreateDeposit", start, err) }()

	return inTx(ctx, r.db, logger, func(tx pgx.Tx) error {
		lockSQL := `
            SELECT id, jumlah_bayar, is_deposited, cancelled_at
            FROM payments
            WHERE id = ANY($1)
            ORDER BY id ASC
            FOR UPDATE`
		rows, err := tx.Query(ctx, lockSQL, d.PaymentIDs)
		if err != nil {
			logger.ErrorContext(ctx, "Failed to lock payments for deposit", slog.Any("error", err))
			return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}

		var total int64
		found := make(map[int64]bool, len(d.PaymentIDs))
		var unavailable error
		for rows.Next() {
			var (
				id          int64
				amount      int64
				deposited   bool
				cancelledAt *time.Time
			)
			if err := rows.Scan(&id, &amount, &deposited, &cancelledAt); err != nil {
				rows.Close()
				return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
			}
			found[id] = true
			if (deposited || cancelledAt != nil) && unavailable == nil {
				unavailable = fmt.Errorf("%w: payment %d", payment.ErrPaymentUnavailable, id)
			}
			total += amount
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		for _, id := range d.PaymentIDs {
			if !found[id] {
				return fmt.Errorf("%w: id %d", payment.ErrPaymentNotFound, id)
			}
		}
		if unavailable != nil {
			return unavailable
		}

		insertSQL := `
            INSERT INTO deposits (reference, tanggal_setor, total, catatan, created_by, created_at)
            VALUES ($1, $2, $3, $4, $5, NOW())
            RETURNING id, created_at`
		if err := tx.QueryRow(ctx, insertSQL, d.Reference, d.DepositedAt, total, d.Note, d.CreatedBy).
			Scan(&d.ID, &d.CreatedAt); err != nil {
			logger.ErrorContext(ctx, "Failed to insert deposit", slog.Any("error", err))
			return translateDBError(err, logger)
		}

		cmdTag, err := tx.Exec(ctx, `UPDATE payments SET is_deposited = TRUE, deposit_id = $1 WHERE id = ANY($2)`, d.ID, d.PaymentIDs)
		if err != nil {
			logger.ErrorContext(ctx, "Failed to flag deposited payments", slog.Any("error", err))
			return translateDBError(err, logger)
		}
		if cmdTag.RowsAffected() != int64(len(d.PaymentIDs)) {
			return fmt.Errorf("%w: flagged %d of %d payments", apperrors.ErrDatabase, cmdTag.RowsAffected(), len(d.PaymentIDs))
		}

		d.Total = total
		logger.InfoContext(ctx, "Deposit inserted", slog.Int64("depositID", d.ID), slog.Int64("total", total))
		return nil
	})
}

func (r *DepositRepository) FindByID(ctx context.Context, depositID int64) (*payment.Deposit, error) {
	d, err := scanDeposit(r.db.QueryRow(ctx, depositSelect+` WHERE d.id = $1`, depositID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, payment.ErrDepositNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to get deposit", slog.Int64("depositID", depositID), slog.Any("error", err))
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return d, nil
}

func (r *DepositRepository) List(ctx context.Context) ([]*payment.Deposit, error) {
	rows, err := r.db.Query(ctx, depositSelect+` ORDER BY d.tanggal_setor DESC, d.id DESC`)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query deposits", slog.Any("error", err))
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	deposits := make([]*payment.Deposit, 0)
	for rows.Next() {
		d, err := scanDeposit(rows)
		if err != nil {
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		deposits = append(deposits, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return deposits, nil
}

func (r *DepositRepository) CancelDeposit(ctx context.Context, depositID int64) (cancelled *payment.Deposit, err error) {
	logger := r.logger.With(slog.Int64("depositID", depositID))
	start := time.Now()
	defer func() { observe("CancelDeposit", start, err) }()

	err = inTx(ctx, r.db, logger, func(tx pgx.Tx) error {
		d, err := scanDeposit(tx.QueryRow(ctx, depositSelect+` WHERE d.id = $1 FOR UPDATE OF d`, depositID))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return payment.ErrDepositNotFound
			}
			return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}

		if _, err := tx.Exec(ctx, `UPDATE payments SET is_deposited = FALSE, deposit_id = NULL WHERE deposit_id = $1`, depositID); err != nil {
			logger.ErrorContext(ctx, "Failed to revert deposited payments", slog.Any("error", err))
			return translateDBError(err, logger)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM deposits WHERE id = $1`, depositID); err != nil {
			logger.ErrorContext(ctx, "Failed to delete deposit", slog.Any("error", err))
			return translateDBError(err, logger)
		}
		cancelled = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.InfoContext(ctx, "Deposit cancelled", slog.Int("payments", len(cancelled.PaymentIDs)))
	return cancelled, nil
}
