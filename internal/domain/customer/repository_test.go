package customer

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockCustomerRepository struct {
	mock.Mock
}

func (_m *MockCustomerRepository) Create(ctx context.Context, customer *Customer) error {
	ret := _m.Called(ctx, customer)

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, *Customer) error); ok {
		r0 = rf(ctx, customer)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

func (_m *MockCustomerRepository) Update(ctx context.Context, customer *Customer) error {
	ret := _m.Called(ctx, customer)
	return ret.Error(0)
}

func (_m *MockCustomerRepository) FindByID(ctx context.Context, customerID int64) (*Customer, error) {
	ret := _m.Called(ctx, customerID)

	var r0 *Customer
	if rf, ok := ret.Get(0).(func(context.Context, int64) *Customer); ok {
		r0 = rf(ctx, customerID)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*Customer)
		}
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, int64) error); ok {
		r1 = rf(ctx, customerID)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

func (_m *MockCustomerRepository) FindAll(ctx context.Context, filter Filter) ([]*Customer, error) {
	ret := _m.Called(ctx, filter)

	var r0 []*Customer
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*Customer)
	}

	return r0, ret.Error(1)
}

func (_m *MockCustomerRepository) Delete(ctx context.Context, customerID int64) error {
	ret := _m.Called(ctx, customerID)
	return ret.Error(0)
}

func (_m *MockCustomerRepository) ChangeStatus(ctx context.Context, change *StatusChange) error {
	ret := _m.Called(ctx, change)

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, *StatusChange) error); ok {
		r0 = rf(ctx, change)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

func (_m *MockCustomerRepository) StatusHistory(ctx context.Context, customerID int64) ([]StatusChange, error) {
	ret := _m.Called(ctx, customerID)

	var r0 []StatusChange
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]StatusChange)
	}

	return r0, ret.Error(1)
}

func (_m *MockCustomerRepository) CountByStatus(ctx context.Context) (map[Status]int, error) {
	ret := _m.Called(ctx)

	var r0 map[Status]int
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(map[Status]int)
	}

	return r0, ret.Error(1)
}

type MockTariffChecker struct {
	mock.Mock
}

func (_m *MockTariffChecker) TariffExists(ctx context.Context, tariffID int64) (bool, error) {
	ret := _m.Called(ctx, tariffID)
	return ret.Bool(0), ret.Error(1)
}

type MockReportInvalidator struct {
	mock.Mock
}

func (_m *MockReportInvalidator) Bump(ctx context.Context) error {
	ret := _m.Called(ctx)
	return ret.Error(0)
}
