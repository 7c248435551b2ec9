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
	"waste-billing/internal/pkg/apperrors"

	"github.com/jackc/pgx/v5"
)

type CustomerRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ customer.CustomerRepository = (*CustomerRepository)(nil)

const customerColumns = `id, nama, alamat, wilayah, no_hp, tanggal_bergabung, tanggal_efektif_tarif, tarif_id, status, created_at, updated_at`

func NewCustomerRepository(db DBPool, logger *slog.Logger) *CustomerRepository {
	if db == nil {
		panic("DBPool cannot be nil for CustomerRepository")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewCustomerRepository, using default stderr handler")
	}
	return &CustomerRepository{
		db:     db,
		logger: logger.With("component", "CustomerRepository"),
	}
}

func scanCustomer(row pgx.Row) (*customer.Customer, error) {
	var (
		cust   customer.Customer
		status string
	)
	err := row.Scan(
		&cust.ID,
		&cust.Name,
		&cust.Address,
		&cust.Region,
		&cust.Phone,
		&cust.JoinDate,
		&cust.TariffEffectiveDate,
		&cust.TariffID,
		&status,
		&cust.CreatedAt,
		&cust.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	cust.Status = customer.Status(status)
	return &cust, nil
}

func (r *CustomerRepository) Create(ctx context.Context, cust *customer.Customer) error {
	if cust == nil {
		return fmt.Errorf("%w: customer cannot be nil", apperrors.ErrInvalidArgument)
	}
	r.logger.InfoContext(ctx, "Attempting to insert new customer", slog.String("name", cust.Name))

	query := `
        INSERT INTO customers (nama, alamat, wilayah, no_hp, tanggal_bergabung, tanggal_efektif_tarif, tarif_id, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
        RETURNING id, created_at, updated_at`

	start := time.Now()
	err := r.db.QueryRow(ctx, query,
		cust.Name,
		cust.Address,
		cust.Region,
		cust.Phone,
		cust.JoinDate,
		cust.TariffEffectiveDate,
		cust.TariffID,
		string(cust.Status),
	).Scan(&cust.ID, &cust.CreatedAt, &cust.UpdatedAt)
	observe("CreateCustomer", start, err)

	if err != nil {
		translatedErr := translateDBError(err, r.logger)
		if errors.Is(translatedErr, apperrors.ErrConflict) {
			// the only foreign key on insert is tarif_id
			return customer.ErrTariffNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to insert customer", slog.Any("error", err))
		return translatedErr
	}

	r.logger.InfoContext(ctx, "Customer inserted successfully", slog.Int64("customerID", cust.ID))
	return nil
}

func (r *CustomerRepository) Update(ctx context.Context, cust *customer.Customer) error {
	if cust == nil {
		return fmt.Errorf("%w: customer cannot be nil", apperrors.ErrInvalidArgument)
	}

	query := `
        UPDATE customers
        SET nama = $1,
            alamat = $2,
            wilayah = $3,
            no_hp = $4,
            updated_at = NOW()
        WHERE id = $5
        RETURNING updated_at`

	start := time.Now()
	err := r.db.QueryRow(ctx, query,
		cust.Name,
		cust.Address,
		cust.Region,
		cust.Phone,
		cust.ID,
	).Scan(&cust.UpdatedAt)
	observe("UpdateCustomer", start, err)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "Update affected zero rows, customer likely not found", slog.Int64("customerID", cust.ID))
			return customer.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to update customer", slog.Any("error", err))
		return translateDBError(err, r.logger)
	}

	r.logger.InfoContext(ctx, "Customer updated successfully", slog.Int64("customerID", cust.ID))
	return nil
}

func (r *CustomerRepository) FindByID(ctx context.Context, customerID int64) (*customer.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`

	start := time.Now()
	cust, err := scanCustomer(r.db.QueryRow(ctx, query, customerID))
	observe("FindCustomerByID", start, err)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WarnContext(ctx, "Customer not found", slog.Int64("customerID", customerID))
			return nil, customer.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to query/scan customer by ID", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to get customer by ID: %w", apperrors.ErrDatabase, err)
	}
	return cust, nil
}

func (r *CustomerRepository) FindAll(ctx context.Context, filter customer.Filter) ([]*customer.Customer, error) {
	conditions := make([]string, 0, 2)
	args := make([]any, 0, 2)
	if filter.Region != "" {
		args = append(args, filter.Region)
		conditions = append(conditions, fmt.Sprintf("wilayah = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}

	query := `SELECT ` + customerColumns + ` FROM customers`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY id ASC"

	start := time.Now()
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		observe("FindAllCustomers", start, err)
		r.logger.ErrorContext(ctx, "Failed to query customers", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to query customers: %w", apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	customers := make([]*customer.Customer, 0)
	for rows.Next() {
		cust, err := scanCustomer(rows)
		if err != nil {
			observe("FindAllCustomers", start, err)
			r.logger.ErrorContext(ctx, "Failed to scan customer row", slog.Any("error", err))
			return nil, fmt.Errorf("%w: failed to scan customer row: %w", apperrors.ErrDatabase, err)
		}
		customers = append(customers, cust)
	}
	err = rows.Err()
	observe("FindAllCustomers", start, err)
	if err != nil {
		r.logger.ErrorContext(ctx, "Error iterating customer rows", slog.Any("error", err))
		return nil, fmt.Errorf("%w: error iterating customer rows: %w", apperrors.ErrDatabase, err)
	}

	r.logger.DebugContext(ctx, "Finished finding customers", slog.Int("count", len(customers)))
	return customers, nil
}

// Delete removes a customer together with their history and overrides.
// Customers that have payments are refused with a conflict.
func (r *CustomerRepository) Delete(ctx context.Context, customerID int64) error {
	query := `DELETE FROM customers WHERE id = $1`

	start := time.Now()
	cmdTag, err := r.db.Exec(ctx, query, customerID)
	observe("DeleteCustomer", start, err)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to execute delete customer", slog.Any("error", err))
		return translateDBError(err, r.logger)
	}

	if cmdTag.RowsAffected() == 0 {
		r.logger.WarnContext(ctx, "Delete affected zero rows, customer likely not found", slog.Int64("customerID", customerID))
		return customer.ErrNotFound
	}

	r.logger.InfoContext(ctx, "Customer deleted successfully", slog.Int64("customerID", customerID))
	return nil
}

func (r *CustomerRepository) ChangeStatus(ctx context.Context, change *customer.StatusChange) error {
	if change == nil {
		return fmt.Errorf("%w: status change cannot be nil", apperrors.ErrInvalidArgument)
	}
	logger := r.logger.With(slog.Int64("customerID", change.CustomerID), slog.String("newStatus", string(change.NewStatus)))

	return inTx(ctx, r.db, logger, func(tx pgx.Tx) error {
		var current string
		err := tx.QueryRow(ctx, `SELECT status FROM customers WHERE id = $1 FOR UPDATE`, change.CustomerID).Scan(&current)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return customer.ErrNotFound
			}
			logger.ErrorContext(ctx, "Failed to lock customer for status change", slog.Any("error", err))
			return fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		if customer.Status(current) == change.NewStatus {
			return customer.ErrStatusUnchanged
		}
		change.OldStatus = customer.Status(current)

		if _, err := tx.Exec(ctx, `UPDATE customers SET status = $1, updated_at = NOW() WHERE id = $2`,
			string(change.NewStatus), change.CustomerID); err != nil {
			logger.ErrorContext(ctx, "Failed to update customer status", slog.Any("error", err))
			return translateDBError(err, logger)
		}

		insertSQL := `
            INSERT INTO customer_status_history (customer_id, old_status, new_status, reason, changed_by, changed_at)
            VALUES ($1, $2, $3, $4, $5, NOW())
            RETURNING id, changed_at`
		err = tx.QueryRow(ctx, insertSQL,
			change.CustomerID,
			string(change.OldStatus),
			string(change.NewStatus),
			change.Reason,
			change.ChangedBy,
		).Scan(&change.ID, &change.ChangedAt)
		if err != nil {
			logger.ErrorContext(ctx, "Failed to insert status history", slog.Any("error", err))
			return fmt.Errorf("%w: failed to insert status history: %w", apperrors.ErrDatabase, err)
		}
		logger.InfoContext(ctx, "Customer status updated in DB", slog.String("oldStatus", current))
		return nil
	})
}

func (r *CustomerRepository) StatusHistory(ctx context.Context, customerID int64) ([]customer.StatusChange, error) {
	query := `
        SELECT id, customer_id, old_status, new_status, reason, changed_by, changed_at
        FROM customer_status_history
        WHERE customer_id = $1
        ORDER BY changed_at ASC, id ASC`

	rows, err := r.db.Query(ctx, query, customerID)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query status history", slog.Int64("customerID", customerID), slog.Any("error", err))
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	history := make([]customer.StatusChange, 0)
	for rows.Next() {
		var (
			ch                   customer.StatusChange
			oldStatus, newStatus string
		)
		if err := rows.Scan(&ch.ID, &ch.CustomerID, &oldStatus, &newStatus, &ch.Reason, &ch.ChangedBy, &ch.ChangedAt); err != nil {
			r.logger.ErrorContext(ctx, "Failed to scan status history row", slog.Any("error", err))
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		ch.OldStatus = customer.Status(oldStatus)
		ch.NewStatus = customer.Status(newStatus)
		history = append(history, ch)
	}
	if err := rows.Err(); err != nil {
		r.logger.ErrorContext(ctx, "Error iterating status history rows", slog.Any("error", err))
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return history, nil
}

func (r *CustomerRepository) CountByStatus(ctx context.Context) (map[customer.Status]int, error) {
	rows, err := r.db.Query(ctx, `SELECT status, COUNT(*) FROM customers GROUP BY status`)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to count customers by status", slog.Any("error", err))
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	defer rows.Close()

	counts := map[customer.Status]int{
		customer.StatusActive:   0,
		customer.StatusInactive: 0,
		customer.StatusOnLeave:  0,
	}
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
		}
		counts[customer.Status(status)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}
	return counts, nil
}
