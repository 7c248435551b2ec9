package customer_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"waste-billing/internal/domain/customer"
	"waste-billing/internal/event"
	"waste-billing/internal/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type statusRecorder struct {
	*event.NoopEventPublisher
	events []event.CustomerStatusChangedEvent
}

func (r *statusRecorder) PublishCustomerStatusChanged(_ context.Context, ev event.CustomerStatusChangedEvent) error {
	r.events = append(r.events, ev)
	return nil
}

type fixture struct {
	repo    *customer.MockCustomerRepository
	tariffs *customer.MockTariffChecker
	cache   *customer.MockReportInvalidator
	pub     *statusRecorder
	service customer.CustomerService
}

func setupTest() fixture {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f := fixture{
		repo:    new(customer.MockCustomerRepository),
		tariffs: new(customer.MockTariffChecker),
		cache:   new(customer.MockReportInvalidator),
		pub:     &statusRecorder{NoopEventPublisher: event.NewNoopEventPublisher(logger)},
	}
	f.service = customer.NewCustomerService(f.repo, f.tariffs, f.pub, f.cache, logger)
	return f
}

func newInput() *customer.Customer {
	return &customer.Customer{
		Name:     "  Siti Aminah ",
		Address:  "Jl. Melati 4",
		Region:   "Blok A",
		Phone:    "08123",
		JoinDate: time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC),
		TariffID: 2,
	}
}

func TestCustomerService_CreateCustomer(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		f := setupTest()
		f.tariffs.On("TariffExists", ctx, int64(2)).Return(true, nil).Once()
		f.repo.On("Create", ctx, mock.MatchedBy(func(c *customer.Customer) bool {
			return c.Name == "Siti Aminah" && c.TariffEffectiveDate.Equal(c.JoinDate) && c.Status == customer.StatusActive
		})).Run(func(args mock.Arguments) {
			args.Get(1).(*customer.Customer).ID = 11
		}).Return(nil).Once()
		f.cache.On("Bump", ctx).Return(nil).Once()

		created, err := f.service.CreateCustomer(ctx, newInput())

		require.NoError(t, err)
		assert.Equal(t, int64(11), created.ID)
		f.repo.AssertExpectations(t)
		f.tariffs.AssertExpectations(t)
		f.cache.AssertExpectations(t)
	})

	t.Run("Error - Unknown Tariff", func(t *testing.T) {
		f := setupTest()
		f.tariffs.On("TariffExists", ctx, int64(2)).Return(false, nil).Once()

		_, err := f.service.CreateCustomer(ctx, newInput())

		assert.ErrorIs(t, err, customer.ErrTariffNotFound)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
		f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("Error - Effective Date After Join", func(t *testing.T) {
		f := setupTest()
		in := newInput()
		in.TariffEffectiveDate = in.JoinDate.AddDate(0, 2, 0)

		_, err := f.service.CreateCustomer(ctx, in)

		assert.ErrorIs(t, err, apperrors.ErrValidation)
		f.tariffs.AssertNotCalled(t, "TariffExists", mock.Anything, mock.Anything)
	})

	t.Run("Error - Repository Failure", func(t *testing.T) {
		f := setupTest()
		dbErr := errors.New("connection reset")
		f.tariffs.On("TariffExists", ctx, int64(2)).Return(true, nil).Once()
		f.repo.On("Create", ctx, mock.AnythingOfType("*customer.Customer")).Return(dbErr).Once()

		_, err := f.service.CreateCustomer(ctx, newInput())

		assert.ErrorIs(t, err, dbErr)
		assert.Contains(t, err.Error(), "failed to save new customer")
		f.cache.AssertNotCalled(t, "Bump", mock.Anything)
	})
}

func TestCustomerService_GetCustomer(t *testing.T) {
	ctx := context.Background()

	t.Run("Not Found", func(t *testing.T) {
		f := setupTest()
		f.repo.On("FindByID", ctx, int64(5)).Return(nil, apperrors.ErrNotFound).Once()

		_, err := f.service.GetCustomer(ctx, 5)

		assert.ErrorIs(t, err, customer.ErrNotFound)
	})

	t.Run("Repository Failure", func(t *testing.T) {
		f := setupTest()
		dbErr := errors.New("timeout")
		f.repo.On("FindByID", ctx, int64(5)).Return(nil, dbErr).Once()

		_, err := f.service.GetCustomer(ctx, 5)

		assert.ErrorIs(t, err, dbErr)
		assert.Contains(t, err.Error(), "failed to get customer 5")
	})
}

func TestCustomerService_ListCustomers(t *testing.T) {
	ctx := context.Background()
	f := setupTest()
	expected := []*customer.Customer{{ID: 1, Region: "Blok A"}}
	f.repo.On("FindAll", ctx, customer.Filter{Region: "Blok A", Status: customer.StatusActive}).Return(expected, nil).Once()

	got, err := f.service.ListCustomers(ctx, customer.Filter{Region: " Blok A ", Status: customer.StatusActive})

	require.NoError(t, err)
	assert.Equal(t, expected, got)

	_, err = f.service.ListCustomers(ctx, customer.Filter{Status: "hilang"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestCustomerService_UpdateProfile(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		f := setupTest()
		joined := time.Date(2024, 11, 2, 0, 0, 0, 0, time.UTC)
		existing := &customer.Customer{ID: 3, Name: "Andi", Address: "Jl. A", Region: "Blok A", TariffID: 1, Status: customer.StatusActive, JoinDate: joined, TariffEffectiveDate: joined}
		f.repo.On("FindByID", ctx, int64(3)).Return(existing, nil).Once()
		f.repo.On("Update", ctx, mock.MatchedBy(func(c *customer.Customer) bool { return c.Address == "Jl. B" })).Return(nil).Once()
		f.cache.On("Bump", ctx).Return(nil).Once()

		addr := "Jl. B"
		updated, err := f.service.UpdateProfile(ctx, 3, customer.ProfileUpdate{Address: &addr})

		require.NoError(t, err)
		assert.Equal(t, "Jl. B", updated.Address)
		f.repo.AssertExpectations(t)
	})

	t.Run("Success After Bulk Tariff Update", func(t *testing.T) {
		f := setupTest()
		existing := &customer.Customer{
			ID: 5, Name: "Rina", Address: "Jl. A", Region: "Blok C", TariffID: 2, Status: customer.StatusActive,
			JoinDate:            time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
			TariffEffectiveDate: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		}
		f.repo.On("FindByID", ctx, int64(5)).Return(existing, nil).Once()
		f.repo.On("Update", ctx, mock.MatchedBy(func(c *customer.Customer) bool { return c.Address == "Jl. B" })).Return(nil).Once()
		f.cache.On("Bump", ctx).Return(nil).Once()

		addr := "Jl. B"
		updated, err := f.service.UpdateProfile(ctx, 5, customer.ProfileUpdate{Address: &addr})

		require.NoError(t, err)
		assert.Equal(t, "Jl. B", updated.Address)
		assert.True(t, updated.TariffEffectiveDate.After(updated.JoinDate))
		f.repo.AssertExpectations(t)
	})

	t.Run("No Change", func(t *testing.T) {
		f := setupTest()
		existing := &customer.Customer{ID: 3, Name: "Andi", Address: "Jl. A"}
		f.repo.On("FindByID", ctx, int64(3)).Return(existing, nil).Once()

		name := "Andi"
		_, err := f.service.UpdateProfile(ctx, 3, customer.ProfileUpdate{Name: &name})

		require.NoError(t, err)
		f.repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})
}

func TestCustomerService_ChangeStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("Success records audit and publishes", func(t *testing.T) {
		f := setupTest()
		existing := &customer.Customer{ID: 8, Status: customer.StatusActive}
		f.repo.On("FindByID", ctx, int64(8)).Return(existing, nil).Once()
		f.repo.On("ChangeStatus", ctx, mock.MatchedBy(func(ch *customer.StatusChange) bool {
			return ch.CustomerID == 8 && ch.OldStatus == customer.StatusActive && ch.NewStatus == customer.StatusOnLeave && ch.Reason == "mudik" && ch.ChangedBy == "admin"
		})).Return(nil).Once()
		f.cache.On("Bump", ctx).Return(errors.New("redis down")).Once()

		got, err := f.service.ChangeStatus(ctx, 8, customer.StatusOnLeave, " mudik ", "admin")

		require.NoError(t, err)
		assert.Equal(t, customer.StatusOnLeave, got.Status)
		require.Len(t, f.pub.events, 1)
		assert.Equal(t, "aktif", f.pub.events[0].OldStatus)
		assert.Equal(t, "cuti", f.pub.events[0].NewStatus)
		f.repo.AssertExpectations(t)
	})

	t.Run("Unchanged status is rejected", func(t *testing.T) {
		f := setupTest()
		f.repo.On("FindByID", ctx, int64(8)).Return(&customer.Customer{ID: 8, Status: customer.StatusActive}, nil).Once()

		_, err := f.service.ChangeStatus(ctx, 8, customer.StatusActive, "", "admin")

		assert.ErrorIs(t, err, customer.ErrStatusUnchanged)
		assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
		f.repo.AssertNotCalled(t, "ChangeStatus", mock.Anything, mock.Anything)
	})

	t.Run("Invalid status", func(t *testing.T) {
		f := setupTest()
		_, err := f.service.ChangeStatus(ctx, 8, customer.Status("x"), "", "admin")
		assert.ErrorIs(t, err, apperrors.ErrValidation)
	})
}

func TestCustomerService_DeleteCustomer(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		f := setupTest()
		f.repo.On("Delete", ctx, int64(4)).Return(nil).Once()
		f.cache.On("Bump", ctx).Return(nil).Once()

		assert.NoError(t, f.service.DeleteCustomer(ctx, 4))
		f.cache.AssertExpectations(t)
	})

	t.Run("Not Found", func(t *testing.T) {
		f := setupTest()
		f.repo.On("Delete", ctx, int64(4)).Return(apperrors.ErrNotFound).Once()

		assert.ErrorIs(t, f.service.DeleteCustomer(ctx, 4), customer.ErrNotFound)
	})
}

func TestCustomerService_StatusHistory(t *testing.T) {
	ctx := context.Background()
	f := setupTest()
	history := []customer.StatusChange{{ID: 1, CustomerID: 2, OldStatus: customer.StatusActive, NewStatus: customer.StatusInactive}}
	f.repo.On("FindByID", ctx, int64(2)).Return(&customer.Customer{ID: 2}, nil).Once()
	f.repo.On("StatusHistory", ctx, int64(2)).Return(history, nil).Once()

	got, err := f.service.StatusHistory(ctx, 2)

	require.NoError(t, err)
	assert.Equal(t, history, got)
}
