package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"waste-billing/internal/domain/customer"
	"waste-billing/internal/domain/tariff"
	"waste-billing/internal/pkg/apperrors"
	"waste-billing/internal/pkg/period"

	"github.com/jackc/pgx/v5"
)

type TariffRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ tariff.TariffRepository = (*TariffRepository)(nil)

const categoryColumns = `id, nama_kategori, harga_per_bulan, deskripsi, created_at, updated_at`

func NewTariffRepository(db DBPool, logger *slog.Logger) *TariffRepository {
	if db == nil {
		panic("DBPool cannot be nil for TariffRepository")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewTariffRepository, using default stderr handler")
	}
	return &TariffRepository{
		db:     db,
		logger: logger.With("component", "TariffRepository"),
	}
}

func scanCategory(row pgx.Row) (*tariff.Category, error) {
	var c tariff.Category
	if err := row.Scan(&c.ID, &c.Name, &c.MonthlyRate, &c.Description, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *TariffRepository) CreateCategory(ctx context.Context, category *tariff.Category) error {
	query := `
        INSERT INTO tariff_categories (nama_kategori, harga_per_bulan, deskripsi, created_at, updated_at)
        VALUES ($1, $2, $3, NOW(), NOW())
        RETURNING id, created_at, updated_at`

	start := time.Now()
	err := r.db.QueryRow(ctx, query, category.Name, category.MonthlyRate, category.Description).
		Scan(&category.ID, &category.CreatedAt, &category.UpdatedAt)
	observe("CreateTariffCategory", start, err)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to insert tariff category", slog.String("name", category.Name), slog.Any("error", err))
		return translateDBError(err, r.logger)
	}
	r.logger.InfoContext(ctx, "Tariff category inserted", slog.Int64("tariffID", category.ID))
	return nil
}

func (r *TariffRepository) UpdateCategory(ctx context.Context, category *tariff.Category) error {
	query := `
        UPDATE tariff_categories
        SET nama_kategori = $1,
            harga_per_bulan = $2,
            deskripsi = $3,
            updated_at = NOW()
        WHERE id = $4
        RETURNING updated_at`

	start := time.Now()
	err := r.db.QueryRow(ctx, query, category.Name, category.MonthlyRate, category.Description, category.ID).
		Scan(&category.UpdatedAt)
	observe("UpdateTariffCategory", start, err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return tariff.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to update tariff category", slog.Int64("tariffID", category.ID), slog.Any("error", err))
		return translateDBError(err, r.logger)
	}
	return nil
}

func (r *TariffRepository) FindCategoryByID(ctx context.Context, tariffID int64) (*tariff.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM tariff_categories WHERE id = $1`

	start := time.Now()
	c, err := scanCategory(r.db.QueryRow(ctx, query, tariffID))
	observe("FindTariffCategoryByID", start, err)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, tariff.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to get tariff category", slog.Int64("tariffID", tariffID), slog.Any("error", err))
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return c, nil
}

func (r *TariffRepository) ListCategories(ctx context.Context) ([]*tariff.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM tariff_categories ORDER BY id ASC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query tariff categories", slog.Any("error", err))
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	categories := make([]*tariff.Category, 0)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			r.logger.ErrorContext(ctx, "Failed to scan tariff category row", slog.Any("error", err))
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return categories, nil
}

func (r *TariffRepository) IsCategoryReferenced(ctx context.Context, tariffID int64) (bool, error) {
	query := `
        SELECT EXISTS (SELECT 1 FROM customers WHERE tarif_id = $1)
            OR EXISTS (SELECT 1 FROM tariff_history WHERE tarif_id = $1)`

	var referenced bool
	if err := r.db.QueryRow(ctx, query, tariffID).Scan(&referenced); err != nil {
		r.logger.ErrorContext(ctx, "Failed to check tariff references", slog.Int64("tariffID", tariffID), slog.Any("error", err))
		return false, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return referenced, nil
}

func (r *TariffRepository) HistoryForCustomer(ctx context.Context, customerID int64) ([]tariff.History, error) {
	query := `
        SELECT id, customer_id, tarif_id, amount, effective_from, effective_to, created_at
        FROM tariff_history
        WHERE customer_id = $1
        ORDER BY effective_from ASC, id ASC`

	start := time.Now()
	rows, err := r.db.Query(ctx, query, customerID)
	if err != nil {
		observe("TariffHistoryForCustomer", start, err)
		r.logger.ErrorContext(ctx, "Failed to query tariff history", slog.Int64("customerID", customerID), slog.Any("error", err))
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	history := make([]tariff.History, 0)
	for rows.Next() {
		var h tariff.History
		if err := rows.Scan(&h.ID, &h.CustomerID, &h.TariffID, &h.Amount, &h.EffectiveFrom, &h.EffectiveTo, &h.CreatedAt); err != nil {
			observe("TariffHistoryForCustomer", start, err)
			r.logger.ErrorContext(ctx, "Failed to scan tariff history row", slog.Any("error", err))
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		history = append(history, h)
	}
	err = rows.Err()
	observe("TariffHistoryForCustomer", start, err)
	if err != nil {
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return history, nil
}

func (r *TariffRepository) OverridesForCustomer(ctx context.Context, customerID int64) ([]tariff.Override, error) {
	query := `
        SELECT id, customer_id, bulan_berlaku, tarif_amount, catatan, created_by, created_at
        FROM tariff_overrides
        WHERE customer_id = $1
        ORDER BY bulan_berlaku ASC, id ASC`

	start := time.Now()
	rows, err := r.db.Query(ctx, query, customerID)
	if err != nil {
		observe("OverridesForCustomer", start, err)
		r.logger.ErrorContext(ctx, "Failed to query tariff overrides", slog.Int64("customerID", customerID), slog.Any("error", err))
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	overrides := make([]tariff.Override, 0)
	for rows.Next() {
		var (
			o     tariff.Override
			month string
		)
		if err := rows.Scan(&o.ID, &o.CustomerID, &month, &o.Amount, &o.Note, &o.CreatedBy, &o.CreatedAt); err != nil {
			observe("OverridesForCustomer", start, err)
			r.logger.ErrorContext(ctx, "Failed to scan tariff override row", slog.Any("error", err))
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		m, err := period.Parse(month)
		if err != nil {
			return nil, apperrors.NewIntegrityError(customerID, "override %d has malformed bulan_berlaku %q", o.ID, month)
		}
		o.Month = m
		overrides = append(overrides, o)
	}
	err = rows.Err()
	observe("OverridesForCustomer", start, err)
	if err != nil {
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return overrides, nil
}

func (r *TariffRepository) UpsertOverride(ctx context.Context, override *tariff.Override) error {
	query := `
        INSERT INTO tariff_overrides (customer_id, bulan_berlaku, tarif_amount, catatan, created_by, created_at)
        VALUES ($1, $2, $3, $4, $5, NOW())
        ON CONFLICT (customer_id, bulan_berlaku) DO UPDATE
        SET tarif_amount = EXCLUDED.tarif_amount,
            catatan = EXCLUDED.catatan,
            created_by = EXCLUDED.created_by,
            created_at = NOW()
        RETURNING id, created_at`

	start := time.Now()
	err := r.db.QueryRow(ctx, query,
		override.CustomerID,
		override.Month.String(),
		override.Amount,
		override.Note,
		override.CreatedBy,
	).Scan(&override.ID, &override.CreatedAt)
	observe("UpsertOverride", start, err)
	if err != nil {
		translated := translateDBError(err, r.logger)
		if errors.Is(translated, apperrors.ErrConflict) {
			return customer.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to upsert tariff override", slog.Int64("customerID", override.CustomerID), slog.Any("error", err))
		return translated
	}
	r.logger.InfoContext(ctx, "Tariff override stored",
		slog.Int64("customerID", override.CustomerID),
		slog.String("month", override.Month.String()),
		slog.Int64("amount", override.Amount))
	return nil
}

func (r *TariffRepository) DeleteOverride(ctx context.Context, customerID int64, month period.Month) error {
	query := `DELETE FROM tariff_overrides WHERE customer_id = $1 AND bulan_berlaku = $2`

	cmdTag, err := r.db.Exec(ctx, query, customerID, month.String())
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to delete tariff override", slog.Int64("customerID", customerID), slog.Any("error", err))
		return translateDBError(err, r.logger)
	}
	if cmdTag.RowsAffected() == 0 {
		return tariff.ErrOverrideNotFound
	}
	return nil
}

func (r *TariffRepository) ApplyBulkUpdate(ctx context.Context, req tariff.BulkUpdate, plan tariff.PlanFunc) (plans []tariff.BoundaryPlan, err error) {
	logger := r.logger.With(slog.Int64("tariffID", req.TariffID), slog.Int("customers", len(req.CustomerIDs)))
	start := time.Now()
	defer func() { observe("ApplyBulkUpdate", start, err) }()

	effective := period.Of(req.EffectiveDate).Start()

	err = inTx(ctx, r.db, logger, func(tx pgx.Tx) error {
		target, err := scanCategory(tx.QueryRow(ctx, `SELECT `+categoryColumns+` FROM tariff_categories WHERE id = $1`, req.TariffID))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return tariff.ErrNotFound
			}
			return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}

		states, err := r.lockCustomerStates(ctx, tx, req.CustomerIDs)
		if err != nil {
			return err
		}

		plans = make([]tariff.BoundaryPlan, 0, len(states))
		for _, state := range states {
			p, err := plan(state, *target, effective)
			if err != nil {
				return err
			}
			if !p.Skip {
				if err := r.applyBoundary(ctx, tx, p, req.TariffID, effective); err != nil {
					return err
				}
			}
			plans = append(plans, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.InfoContext(ctx, "Bulk tariff update committed", slog.Int("planned", len(plans)))
	return plans, nil
}

// lockCustomerStates locks the customer rows in ascending id order and
// fails when any requested id does not exist.
func (r *TariffRepository) lockCustomerStates(ctx context.Context, tx pgx.Tx, ids []int64) ([]tariff.CustomerTariffState, error) {
	query := `
        SELECT c.id, c.tanggal_bergabung, c.tanggal_efektif_tarif, c.tarif_id, t.harga_per_bulan,
               EXISTS (SELECT 1 FROM tariff_history h WHERE h.customer_id = c.id)
        FROM customers c
        JOIN tariff_categories t ON t.id = c.tarif_id
        WHERE c.id = ANY($1)
        ORDER BY c.id ASC
        FOR UPDATE OF c`

	rows, err := tx.Query(ctx, query, ids)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to lock customers for bulk update", slog.Any("error", err))
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	states := make([]tariff.CustomerTariffState, 0, len(ids))
	found := make(map[int64]bool, len(ids))
	for rows.Next() {
		var s tariff.CustomerTariffState
		if err := rows.Scan(&s.CustomerID, &s.JoinDate, &s.EffectiveDate, &s.TariffID, &s.CurrentRate, &s.HasHistory); err != nil {
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		found[s.CustomerID] = true
		states = append(states, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}

	for _, id := range ids {
		if !found[id] {
			return nil, fmt.Errorf("%w: id %d", customer.ErrNotFound, id)
		}
	}
	return states, nil
}

func (r *TariffRepository) applyBoundary(ctx context.Context, tx pgx.Tx, p tariff.BoundaryPlan, tariffID int64, effective time.Time) error {
	if h := p.History; h != nil {
		insertSQL := `
            INSERT INTO tariff_history (customer_id, tarif_id, amount, effective_from, effective_to, created_at)
            VALUES ($1, $2, $3, $4, $5, NOW())
            RETURNING id, created_at`
		err := tx.QueryRow(ctx, insertSQL, h.CustomerID, h.TariffID, h.Amount, h.EffectiveFrom, h.EffectiveTo).
			Scan(&h.ID, &h.CreatedAt)
		if err != nil {
			r.logger.ErrorContext(ctx, "Failed to insert tariff history", slog.Int64("customerID", h.CustomerID), slog.Any("error", err))
			return translateDBError(err, r.logger)
		}
	}

	updateSQL := `UPDATE customers SET tarif_id = $1, tanggal_efektif_tarif = $2, updated_at = NOW() WHERE id = $3`
	if _, err := tx.Exec(ctx, updateSQL, tariffID, effective, p.CustomerID); err != nil {
		r.logger.ErrorContext(ctx, "Failed to move customer to new tariff", slog.Int64("customerID", p.CustomerID), slog.Any("error", err))
		return translateDBError(err, r.logger)
	}
	return nil
}
