package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"waste-billing/internal/domain/customer"
	"waste-billing/internal/pkg/apperrors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var customerRowColumns = []string{"id", "nama", "alamat", "wilayah", "no_hp", "tanggal_bergabung", "tanggal_efektif_tarif", "tarif_id", "status", "created_at", "updated_at"}

func newCustomerFixture() *customer.Customer {
	join := time.Date(2023, time.March, 10, 0, 0, 0, 0, time.UTC)
	return &customer.Customer{
		Name:                "Budi Santoso",
		Address:             "Jl. Melati 4",
		Region:              "RW 03",
		Phone:               "08123456789",
		JoinDate:            join,
		TariffEffectiveDate: join,
		TariffID:            2,
		Status:              customer.StatusActive,
	}
}

func setupCustomerRepo(t *testing.T) (context.Context, *CustomerRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to open a stub database connection: %v", err)
	}

	ctx := context.Background()
	repo := NewCustomerRepository(mockPool, logger)

	return ctx, repo, mockPool
}

func TestNewCustomerRepositoryPanicsOnNilPool(t *testing.T) {
	assert.Panics(t, func() { NewCustomerRepository(nil, logger) })
}

func TestCreateCustomerWhenSuccess(t *testing.T) {
	ctx, repo, mockPool := setupCustomerRepo(t)
	defer mockPool.Close()

	cust := newCustomerFixture()
	now := time.Now()
	mockPool.ExpectQuery(regexp.QuoteMeta("INSERT INTO customers")).
		WithArgs(cust.Name, cust.Address, cust.Region, cust.Phone, cust.JoinDate, cust.TariffEffectiveDate, cust.TariffID, "aktif").
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(int64(11), now, now))

	err := repo.Create(ctx, cust)
	assert.NoError(t, err)
	assert.Equal(t, int64(11), cust.ID)
	assert.Equal(t, now, cust.CreatedAt)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestCreateCustomerWithUnknownTariff(t *testing.T) {
	ctx, repo, mockPool := setupCustomerRepo(t)
	defer mockPool.Close()

	cust := newCustomerFixture()
	mockPool.ExpectQuery(regexp.QuoteMeta("INSERT INTO customers")).
		WithArgs(cust.Name, cust.Address, cust.Region, cust.Phone, cust.JoinDate, cust.TariffEffectiveDate, cust.TariffID, "aktif").
		WillReturnError(&pgconn.PgError{Code: "23503", TableName: "customers", ConstraintName: "customers_tarif_id_fkey"})

	err := repo.Create(ctx, cust)
	assert.ErrorIs(t, err, customer.ErrTariffNotFound)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestUpdateCustomer(t *testing.T) {
	t.Run("updates profile fields", func(t *testing.T) {
		ctx, repo, mockPool := setupCustomerRepo(t)
		defer mockPool.Close()

		cust := newCustomerFixture()
		cust.ID = 5
		now := time.Now()
		mockPool.ExpectQuery(regexp.QuoteMeta("UPDATE customers")).
			WithArgs(cust.Name, cust.Address, cust.Region, cust.Phone, cust.ID).
			WillReturnRows(pgxmock.NewRows([]string{"updated_at"}).AddRow(now))

		assert.NoError(t, repo.Update(ctx, cust))
		assert.Equal(t, now, cust.UpdatedAt)
		assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
	})

	t.Run("missing customer", func(t *testing.T) {
		ctx, repo, mockPool := setupCustomerRepo(t)
		defer mockPool.Close()

		cust := newCustomerFixture()
		cust.ID = 99
		mockPool.ExpectQuery(regexp.QuoteMeta("UPDATE customers")).
			WithArgs(cust.Name, cust.Address, cust.Region, cust.Phone, cust.ID).
			WillReturnError(pgx.ErrNoRows)

		err := repo.Update(ctx, cust)
		assert.ErrorIs(t, err, customer.ErrNotFound)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestFindCustomerByID(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		ctx, repo, mockPool := setupCustomerRepo(t)
		defer mockPool.Close()

		join := time.Date(2023, time.March, 10, 0, 0, 0, 0, time.UTC)
		effective := time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)
		now := time.Now()
		mockPool.ExpectQuery(regexp.QuoteMeta("FROM customers WHERE id = $1")).
			WithArgs(int64(7)).
			WillReturnRows(pgxmock.NewRows(customerRowColumns).
				AddRow(int64(7), "Siti", "Jl. Mawar 1", "RW 01", "", join, effective, int64(3), "cuti", now, now))

		cust, err := repo.FindByID(ctx, 7)
		require.NoError(t, err)
		assert.Equal(t, "Siti", cust.Name)
		assert.Equal(t, customer.StatusOnLeave, cust.Status)
		assert.Equal(t, effective, cust.TariffEffectiveDate)
		assert.Equal(t, int64(3), cust.TariffID)
		assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
	})

	t.Run("not found", func(t *testing.T) {
		ctx, repo, mockPool := setupCustomerRepo(t)
		defer mockPool.Close()

		mockPool.ExpectQuery(regexp.QuoteMeta("FROM customers WHERE id = $1")).
			WithArgs(int64(8)).
			WillReturnError(pgx.ErrNoRows)

		_, err := repo.FindByID(ctx, 8)
		assert.ErrorIs(t, err, customer.ErrNotFound)
	})

	t.Run("database failure", func(t *testing.T) {
		ctx, repo, mockPool := setupCustomerRepo(t)
		defer mockPool.Close()

		mockPool.ExpectQuery(regexp.QuoteMeta("FROM customers WHERE id = $1")).
			WithArgs(int64(8)).
			WillReturnError(errors.New("connection reset"))

		_, err := repo.FindByID(ctx, 8)
		assert.ErrorIs(t, err, apperrors.ErrDatabase)
	})
}

func TestFindAllCustomersAppliesFilter(t *testing.T) {
	ctx, repo, mockPool := setupCustomerRepo(t)
	defer mockPool.Close()

	join := time.Date(2023, time.March, 1, 0, 0, 0, 0, time.UTC)
	now := time.Now()
	mockPool.ExpectQuery(regexp.QuoteMeta("FROM customers WHERE wilayah = $1 AND status = $2 ORDER BY id ASC")).
		WithArgs("RW 03", "aktif").
		WillReturnRows(pgxmock.NewRows(customerRowColumns).
			AddRow(int64(1), "A", "X", "RW 03", "", join, join, int64(1), "aktif", now, now).
			AddRow(int64(2), "B", "Y", "RW 03", "", join, join, int64(1), "aktif", now, now))

	list, err := repo.FindAll(ctx, customer.Filter{Region: "RW 03", Status: customer.StatusActive})
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.Equal(t, int64(2), list[1].ID)
	assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
}

func TestFindAllCustomersWithoutFilter(t *testing.T) {
	ctx, repo, mockPool := setupCustomerRepo(t)
	defer mockPool.Close()

	mockPool.ExpectQuery(regexp.QuoteMeta("FROM customers ORDER BY id ASC")).
		WillReturnRows(pgxmock.NewRows(customerRowColumns))

	list, err := repo.FindAll(ctx, customer.Filter{})
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestDeleteCustomer(t *testing.T) {
	t.Run("deleted", func(t *testing.T) {
		ctx, repo, mockPool := setupCustomerRepo(t)
		defer mockPool.Close()

		mockPool.ExpectExec(regexp.QuoteMeta("DELETE FROM customers WHERE id = $1")).
			WithArgs(int64(3)).
			WillReturnResult(pgxmock.NewResult("DELETE", 1))

		assert.NoError(t, repo.Delete(ctx, 3))
	})

	t.Run("not found", func(t *testing.T) {
		ctx, repo, mockPool := setupCustomerRepo(t)
		defer mockPool.Close()

		mockPool.ExpectExec(regexp.QuoteMeta("DELETE FROM customers WHERE id = $1")).
			WithArgs(int64(3)).
			WillReturnResult(pgxmock.NewResult("DELETE", 0))

		assert.ErrorIs(t, repo.Delete(ctx, 3), customer.ErrNotFound)
	})

	t.Run("customer with payments", func(t *testing.T) {
		ctx, repo, mockPool := setupCustomerRepo(t)
		defer mockPool.Close()

		mockPool.ExpectExec(regexp.QuoteMeta("DELETE FROM customers WHERE id = $1")).
			WithArgs(int64(3)).
			WillReturnError(&pgconn.PgError{Code: "23503", TableName: "payments"})

		assert.ErrorIs(t, repo.Delete(ctx, 3), apperrors.ErrConflict)
	})
}

func TestChangeStatus(t *testing.T) {
	t.Run("updates status and appends history", func(t *testing.T) {
		ctx, repo, mockPool := setupCustomerRepo(t)
		defer mockPool.Close()

		changedAt := time.Now()
		mockPool.ExpectBegin()
		mockPool.ExpectQuery(regexp.QuoteMeta("SELECT status FROM customers WHERE id = $1 FOR UPDATE")).
			WithArgs(int64(4)).
			WillReturnRows(pgxmock.NewRows([]string{"status"}).AddRow("aktif"))
		mockPool.ExpectExec(regexp.QuoteMeta("UPDATE customers SET status = $1")).
			WithArgs("cuti", int64(4)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mockPool.ExpectQuery(regexp.QuoteMeta("INSERT INTO customer_status_history")).
			WithArgs(int64(4), "aktif", "cuti", "pindah sementara", "admin").
			WillReturnRows(pgxmock.NewRows([]string{"id", "changed_at"}).AddRow(int64(21), changedAt))
		mockPool.ExpectCommit()

		change := &customer.StatusChange{CustomerID: 4, NewStatus: customer.StatusOnLeave, Reason: "pindah sementara", ChangedBy: "admin"}
		require.NoError(t, repo.ChangeStatus(ctx, change))
		assert.Equal(t, int64(21), change.ID)
		assert.Equal(t, customer.StatusActive, change.OldStatus)
		assert.Equal(t, changedAt, change.ChangedAt)
		assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
	})

	t.Run("unchanged status rolls back", func(t *testing.T) {
		ctx, repo, mockPool := setupCustomerRepo(t)
		defer mockPool.Close()

		mockPool.ExpectBegin()
		mockPool.ExpectQuery(regexp.QuoteMeta("SELECT status FROM customers WHERE id = $1 FOR UPDATE")).
			WithArgs(int64(4)).
			WillReturnRows(pgxmock.NewRows([]string{"status"}).AddRow("cuti"))
		mockPool.ExpectRollback()

		change := &customer.StatusChange{CustomerID: 4, NewStatus: customer.StatusOnLeave}
		assert.ErrorIs(t, repo.ChangeStatus(ctx, change), customer.ErrStatusUnchanged)
		assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
	})

	t.Run("missing customer rolls back", func(t *testing.T) {
		ctx, repo, mockPool := setupCustomerRepo(t)
		defer mockPool.Close()

		mockPool.ExpectBegin()
		mockPool.ExpectQuery(regexp.QuoteMeta("SELECT status FROM customers WHERE id = $1 FOR UPDATE")).
			WithArgs(int64(4)).
			WillReturnError(pgx.ErrNoRows)
		mockPool.ExpectRollback()

		change := &customer.StatusChange{CustomerID: 4, NewStatus: customer.StatusInactive}
		assert.ErrorIs(t, repo.ChangeStatus(ctx, change), customer.ErrNotFound)
		assert.NoError(t, mockPool.ExpectationsWereMet(), pgxmockExpectationsNotMetMsg)
	})
}

func TestStatusHistory(t *testing.T) {
	ctx, repo, mockPool := setupCustomerRepo(t)
	defer mockPool.Close()

	at := time.Date(2024, time.February, 1, 9, 0, 0, 0, time.UTC)
	mockPool.ExpectQuery(regexp.QuoteMeta("FROM customer_status_history")).
		WithArgs(int64(4)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "customer_id", "old_status", "new_status", "reason", "changed_by", "changed_at"}).
			AddRow(int64(1), int64(4), "aktif", "nonaktif", "pindah", "admin", at))

	history, err := repo.StatusHistory(ctx, 4)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, customer.StatusActive, history[0].OldStatus)
	assert.Equal(t, customer.StatusInactive, history[0].NewStatus)
	assert.Equal(t, at, history[0].ChangedAt)
}

func TestCountByStatus(t *testing.T) {
	ctx, repo, mockPool := setupCustomerRepo(t)
	defer mockPool.Close()

	mockPool.ExpectQuery(regexp.QuoteMeta("SELECT status, COUNT(*) FROM customers GROUP BY status")).
		WillReturnRows(pgxmock.NewRows([]string{"status", "count"}).
			AddRow("aktif", 12).
			AddRow("cuti", 2))

	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 12, counts[customer.StatusActive])
	assert.Equal(t, 2, counts[customer.StatusOnLeave])
	assert.Equal(t, 0, counts[customer.StatusInactive])
}
