package tariff

import (
	"context"

	"waste-billing/internal/domain/customer"
	"waste-billing/internal/pkg/period"

	"github.com/stretchr/testify/mock"
)

type MockTariffRepository struct {
	mock.Mock
}

func (_m *MockTariffRepository) CreateCategory(ctx context.Context, category *Category) error {
	ret := _m.Called(ctx, category)

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, *Category) error); ok {
		r0 = rf(ctx, category)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

func (_m *MockTariffRepository) UpdateCategory(ctx context.Context, category *Category) error {
	ret := _m.Called(ctx, category)
	return ret.Error(0)
}

func (_m *MockTariffRepository) FindCategoryByID(ctx context.Context, tariffID int64) (*Category, error) {
	ret := _m.Called(ctx, tariffID)

	var r0 *Category
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*Category)
	}

	return r0, ret.Error(1)
}

func (_m *MockTariffRepository) ListCategories(ctx context.Context) ([]*Category, error) {
	ret := _m.Called(ctx)

	var r0 []*Category
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*Category)
	}

	return r0, ret.Error(1)
}

func (_m *MockTariffRepository) IsCategoryReferenced(ctx context.Context, tariffID int64) (bool, error) {
	ret := _m.Called(ctx, tariffID)
	return ret.Bool(0), ret.Error(1)
}

func (_m *MockTariffRepository) HistoryForCustomer(ctx context.Context, customerID int64) ([]History, error) {
	ret := _m.Called(ctx, customerID)

	var r0 []History
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]History)
	}

	return r0, ret.Error(1)
}

func (_m *MockTariffRepository) OverridesForCustomer(ctx context.Context, customerID int64) ([]Override, error) {
	ret := _m.Called(ctx, customerID)

	var r0 []Override
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]Override)
	}

	return r0, ret.Error(1)
}

func (_m *MockTariffRepository) UpsertOverride(ctx context.Context, override *Override) error {
	ret := _m.Called(ctx, override)
	return ret.Error(0)
}

func (_m *MockTariffRepository) DeleteOverride(ctx context.Context, customerID int64, month period.Month) error {
	ret := _m.Called(ctx, customerID, month)
	return ret.Error(0)
}

func (_m *MockTariffRepository) ApplyBulkUpdate(ctx context.Context, req BulkUpdate, plan PlanFunc) ([]BoundaryPlan, error) {
	ret := _m.Called(ctx, req, plan)

	if rf, ok := ret.Get(0).(func(context.Context, BulkUpdate, PlanFunc) ([]BoundaryPlan, error)); ok {
		return rf(ctx, req, plan)
	}

	var r0 []BoundaryPlan
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]BoundaryPlan)
	}

	return r0, ret.Error(1)
}

type MockCustomerFinder struct {
	mock.Mock
}

func (_m *MockCustomerFinder) FindByID(ctx context.Context, customerID int64) (*customer.Customer, error) {
	ret := _m.Called(ctx, customerID)

	var r0 *customer.Customer
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*customer.Customer)
	}

	return r0, ret.Error(1)
}

type MockReportInvalidator struct {
	mock.Mock
}

func (_m *MockReportInvalidator) Bump(ctx context.Context) error {
	ret := _m.Called(ctx)
	return ret.Error(0)
}
