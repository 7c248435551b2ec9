package payment

import (
	"context"
	"time"

	"waste-billing/internal/domain/customer"

	"github.com/stretchr/testify/mock"
)

type MockPaymentRepository struct {
	mock.Mock
}

func (_m *MockPaymentRepository) CreatePayment(ctx context.Context, payment *Payment) error {
	ret := _m.Called(ctx, payment)

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, *Payment) error); ok {
		r0 = rf(ctx, payment)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

func (_m *MockPaymentRepository) FindByID(ctx context.Context, paymentID int64) (*Payment, error) {
	ret := _m.Called(ctx, paymentID)

	var r0 *Payment
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*Payment)
	}

	return r0, ret.Error(1)
}

func (_m *MockPaymentRepository) ListByCustomer(ctx context.Context, customerID int64, includeCancelled bool) ([]Payment, error) {
	ret := _m.Called(ctx, customerID, includeCancelled)

	var r0 []Payment
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]Payment)
	}

	return r0, ret.Error(1)
}

func (_m *MockPaymentRepository) CancelPayment(ctx context.Context, paymentID int64, reason string) (*Payment, error) {
	ret := _m.Called(ctx, paymentID, reason)

	var r0 *Payment
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*Payment)
	}

	return r0, ret.Error(1)
}

func (_m *MockPaymentRepository) SumCollected(ctx context.Context, from, to time.Time) (int64, error) {
	ret := _m.Called(ctx, from, to)
	return ret.Get(0).(int64), ret.Error(1)
}

func (_m *MockPaymentRepository) SumUndeposited(ctx context.Context) (int64, int, error) {
	ret := _m.Called(ctx)
	return ret.Get(0).(int64), ret.Int(1), ret.Error(2)
}

type MockDepositRepository struct {
	mock.Mock
}

func (_m *MockDepositRepository) CreateDeposit(ctx context.Context, deposit *Deposit) error {
	ret := _m.Called(ctx, deposit)

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, *Deposit) error); ok {
		r0 = rf(ctx, deposit)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

func (_m *MockDepositRepository) FindByID(ctx context.Context, depositID int64) (*Deposit, error) {
	ret := _m.Called(ctx, depositID)

	var r0 *Deposit
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*Deposit)
	}

	return r0, ret.Error(1)
}

func (_m *MockDepositRepository) List(ctx context.Context) ([]*Deposit, error) {
	ret := _m.Called(ctx)

	var r0 []*Deposit
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*Deposit)
	}

	return r0, ret.Error(1)
}

func (_m *MockDepositRepository) CancelDeposit(ctx context.Context, depositID int64) (*Deposit, error) {
	ret := _m.Called(ctx, depositID)

	var r0 *Deposit
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*Deposit)
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
