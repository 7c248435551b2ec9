package handler_test

import (
	"context"
	"time"

	"waste-billing/internal/domain/arrears"
	"waste-billing/internal/domain/customer"
	"waste-billing/internal/domain/payment"
	"waste-billing/internal/domain/tariff"
	"waste-billing/internal/pkg/period"

	"github.com/stretchr/testify/mock"
)

type MockCustomerService struct {
	mock.Mock
}

func (_m *MockCustomerService) CreateCustomer(ctx context.Context, c *customer.Customer) (*customer.Customer, error) {
	ret := _m.Called(ctx, c)

	var r0 *customer.Customer
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*customer.Customer)
	}
	return r0, ret.Error(1)
}

func (_m *MockCustomerService) GetCustomer(ctx context.Context, customerID int64) (*customer.Customer, error) {
	ret := _m.Called(ctx, customerID)

	var r0 *customer.Customer
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*customer.Customer)
	}
	return r0, ret.Error(1)
}

func (_m *MockCustomerService) ListCustomers(ctx context.Context, filter customer.Filter) ([]*customer.Customer, error) {
	ret := _m.Called(ctx, filter)

	var r0 []*customer.Customer
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*customer.Customer)
	}
	return r0, ret.Error(1)
}

func (_m *MockCustomerService) UpdateProfile(ctx context.Context, customerID int64, update customer.ProfileUpdate) (*customer.Customer, error) {
	ret := _m.Called(ctx, customerID, update)

	var r0 *customer.Customer
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*customer.Customer)
	}
	return r0, ret.Error(1)
}

func (_m *MockCustomerService) ChangeStatus(ctx context.Context, customerID int64, newStatus customer.Status, reason, changedBy string) (*customer.Customer, error) {
	ret := _m.Called(ctx, customerID, newStatus, reason, changedBy)

	var r0 *customer.Customer
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*customer.Customer)
	}
	return r0, ret.Error(1)
}

func (_m *MockCustomerService) StatusHistory(ctx context.Context, customerID int64) ([]customer.StatusChange, error) {
	ret := _m.Called(ctx, customerID)

	var r0 []customer.StatusChange
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]customer.StatusChange)
	}
	return r0, ret.Error(1)
}

func (_m *MockCustomerService) DeleteCustomer(ctx context.Context, customerID int64) error {
	ret := _m.Called(ctx, customerID)
	return ret.Error(0)
}

func (_m *MockCustomerService) CountByStatus(ctx context.Context) (map[customer.Status]int, error) {
	ret := _m.Called(ctx)

	var r0 map[customer.Status]int
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(map[customer.Status]int)
	}
	return r0, ret.Error(1)
}

type MockArrearsService struct {
	mock.Mock
}

func (_m *MockArrearsService) ForCustomer(ctx context.Context, customerID int64, asOf time.Time) (*arrears.Result, error) {
	ret := _m.Called(ctx, customerID, asOf)

	var r0 *arrears.Result
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*arrears.Result)
	}
	return r0, ret.Error(1)
}

func (_m *MockArrearsService) Compute(ctx context.Context, cust *customer.Customer, asOf time.Time) (*arrears.Result, error) {
	ret := _m.Called(ctx, cust, asOf)

	var r0 *arrears.Result
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*arrears.Result)
	}
	return r0, ret.Error(1)
}

func (_m *MockArrearsService) Scan(ctx context.Context, filter customer.Filter, asOf time.Time) ([]arrears.CustomerArrears, []arrears.ReportError, error) {
	ret := _m.Called(ctx, filter, asOf)

	var r0 []arrears.CustomerArrears
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]arrears.CustomerArrears)
	}
	var r1 []arrears.ReportError
	if ret.Get(1) != nil {
		r1 = ret.Get(1).([]arrears.ReportError)
	}
	return r0, r1, ret.Error(2)
}

func (_m *MockArrearsService) Report(ctx context.Context, region string, asOf time.Time) (*arrears.Report, error) {
	ret := _m.Called(ctx, region, asOf)

	var r0 *arrears.Report
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*arrears.Report)
	}
	return r0, ret.Error(1)
}

func (_m *MockArrearsService) Dashboard(ctx context.Context, asOf time.Time) (*arrears.DashboardStats, error) {
	ret := _m.Called(ctx, asOf)

	var r0 *arrears.DashboardStats
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*arrears.DashboardStats)
	}
	return r0, ret.Error(1)
}

type MockTariffService struct {
	mock.Mock
}

func (_m *MockTariffService) CreateTariff(ctx context.Context, category *tariff.Category) (*tariff.Category, error) {
	ret := _m.Called(ctx, category)

	var r0 *tariff.Category
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*tariff.Category)
	}
	return r0, ret.Error(1)
}

func (_m *MockTariffService) GetTariff(ctx context.Context, tariffID int64) (*tariff.Category, error) {
	ret := _m.Called(ctx, tariffID)

	var r0 *tariff.Category
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*tariff.Category)
	}
	return r0, ret.Error(1)
}

func (_m *MockTariffService) ListTariffs(ctx context.Context) ([]*tariff.Category, error) {
	ret := _m.Called(ctx)

	var r0 []*tariff.Category
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*tariff.Category)
	}
	return r0, ret.Error(1)
}

func (_m *MockTariffService) UpdateTariff(ctx context.Context, tariffID int64, update tariff.CategoryUpdate) (*tariff.Category, error) {
	ret := _m.Called(ctx, tariffID, update)

	var r0 *tariff.Category
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*tariff.Category)
	}
	return r0, ret.Error(1)
}

func (_m *MockTariffService) TariffExists(ctx context.Context, tariffID int64) (bool, error) {
	ret := _m.Called(ctx, tariffID)
	return ret.Bool(0), ret.Error(1)
}

func (_m *MockTariffService) SetOverride(ctx context.Context, override *tariff.Override) (*tariff.Override, error) {
	ret := _m.Called(ctx, override)

	var r0 *tariff.Override
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*tariff.Override)
	}
	return r0, ret.Error(1)
}

func (_m *MockTariffService) ListOverrides(ctx context.Context, customerID int64) ([]tariff.Override, error) {
	ret := _m.Called(ctx, customerID)

	var r0 []tariff.Override
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]tariff.Override)
	}
	return r0, ret.Error(1)
}

func (_m *MockTariffService) DeleteOverride(ctx context.Context, customerID int64, month period.Month) error {
	ret := _m.Called(ctx, customerID, month)
	return ret.Error(0)
}

func (_m *MockTariffService) BulkUpdate(ctx context.Context, req tariff.BulkUpdate) (*tariff.BulkUpdateResult, error) {
	ret := _m.Called(ctx, req)

	var r0 *tariff.BulkUpdateResult
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*tariff.BulkUpdateResult)
	}
	return r0, ret.Error(1)
}

type MockPaymentService struct {
	mock.Mock
}

func (_m *MockPaymentService) RecordPayment(ctx context.Context, p *payment.Payment) (*payment.Payment, error) {
	ret := _m.Called(ctx, p)

	var r0 *payment.Payment
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*payment.Payment)
	}
	return r0, ret.Error(1)
}

func (_m *MockPaymentService) GetPayment(ctx context.Context, paymentID int64) (*payment.Payment, error) {
	ret := _m.Called(ctx, paymentID)

	var r0 *payment.Payment
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*payment.Payment)
	}
	return r0, ret.Error(1)
}

func (_m *MockPaymentService) ListCustomerPayments(ctx context.Context, customerID int64, includeCancelled bool) ([]payment.Payment, error) {
	ret := _m.Called(ctx, customerID, includeCancelled)

	var r0 []payment.Payment
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]payment.Payment)
	}
	return r0, ret.Error(1)
}

func (_m *MockPaymentService) CancelPayment(ctx context.Context, paymentID int64, reason string) (*payment.Payment, error) {
	ret := _m.Called(ctx, paymentID, reason)

	var r0 *payment.Payment
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*payment.Payment)
	}
	return r0, ret.Error(1)
}

func (_m *MockPaymentService) CreateDeposit(ctx context.Context, d *payment.Deposit) (*payment.Deposit, error) {
	ret := _m.Called(ctx, d)

	var r0 *payment.Deposit
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*payment.Deposit)
	}
	return r0, ret.Error(1)
}

func (_m *MockPaymentService) GetDeposit(ctx context.Context, depositID int64) (*payment.Deposit, error) {
	ret := _m.Called(ctx, depositID)

	var r0 *payment.Deposit
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*payment.Deposit)
	}
	return r0, ret.Error(1)
}

func (_m *MockPaymentService) ListDeposits(ctx context.Context) ([]*payment.Deposit, error) {
	ret := _m.Called(ctx)

	var r0 []*payment.Deposit
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*payment.Deposit)
	}
	return r0, ret.Error(1)
}

func (_m *MockPaymentService) CancelDeposit(ctx context.Context, depositID int64) (*payment.Deposit, error) {
	ret := _m.Called(ctx, depositID)

	var r0 *payment.Deposit
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*payment.Deposit)
	}
	return r0, ret.Error(1)
}

func (_m *MockPaymentService) CollectedIn(ctx context.Context, month period.Month) (int64, error) {
	ret := _m.Called(ctx, month)
	return ret.Get(0).(int64), ret.Error(1)
}

func (_m *MockPaymentService) Undeposited(ctx context.Context) (int64, int, error) {
	ret := _m.Called(ctx)
	return ret.Get(0).(int64), ret.Int(1), ret.Error(2)
}
