package arrears_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"waste-billing/internal/domain/arrears"
	"waste-billing/internal/domain/customer"
	"waste-billing/internal/domain/payment"
	"waste-billing/internal/domain/tariff"
	"waste-billing/internal/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu         sync.Mutex
	customers  []*customer.Customer
	categories []*tariff.Category
	history    map[int64][]tariff.History
	overrides  map[int64][]tariff.Override
	payments   map[int64][]payment.Payment
	statuses   map[int64][]customer.StatusChange
	failOn     int64
	loads      int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		history:   map[int64][]tariff.History{},
		overrides: map[int64][]tariff.Override{},
		payments:  map[int64][]payment.Payment{},
		statuses:  map[int64][]customer.StatusChange{},
	}
}

func (f *fakeStore) FindByID(_ context.Context, id int64) (*customer.Customer, error) {
	for _, c := range f.customers {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (f *fakeStore) FindAll(_ context.Context, filter customer.Filter) ([]*customer.Customer, error) {
	f.mu.Lock()
	f.loads++
	f.mu.Unlock()
	var out []*customer.Customer
	for _, c := range f.customers {
		if filter.Region != "" && c.Region != filter.Region {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeStore) StatusHistory(_ context.Context, id int64) ([]customer.StatusChange, error) {
	return f.statuses[id], nil
}

func (f *fakeStore) CountByStatus(_ context.Context) (map[customer.Status]int, error) {
	counts := map[customer.Status]int{}
	for _, c := range f.customers {
		counts[c.Status]++
	}
	return counts, nil
}

func (f *fakeStore) FindCategoryByID(_ context.Context, id int64) (*tariff.Category, error) {
	for _, c := range f.categories {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (f *fakeStore) ListCategories(_ context.Context) ([]*tariff.Category, error) {
	return f.categories, nil
}

func (f *fakeStore) HistoryForCustomer(_ context.Context, id int64) ([]tariff.History, error) {
	if id == f.failOn {
		return nil, errors.New("connection refused")
	}
	return f.history[id], nil
}

func (f *fakeStore) OverridesForCustomer(_ context.Context, id int64) ([]tariff.Override, error) {
	return f.overrides[id], nil
}

func (f *fakeStore) ListByCustomer(_ context.Context, id int64, _ bool) ([]payment.Payment, error) {
	return f.payments[id], nil
}

func (f *fakeStore) SumCollected(_ context.Context, _, _ time.Time) (int64, error) {
	return 30000, nil
}

func (f *fakeStore) SumUndeposited(_ context.Context) (int64, int, error) {
	return 15000, 1, nil
}

// memoryCache mimics the versioned report cache without Redis.
type memoryCache struct {
	entries map[string][]byte
}

func (c *memoryCache) BuildKey(_ context.Context, parts ...string) (string, error) {
	key := ""
	for _, p := range parts {
		key += p + ":"
	}
	return key + "1", nil
}

func (c *memoryCache) FetchJSON(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) error {
	if raw, ok := c.entries[key]; ok {
		return json.Unmarshal(raw, dest)
	}
	v, err := loader(ctx)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.entries[key] = raw
	return json.Unmarshal(raw, dest)
}

func seededStore() *fakeStore {
	store := newFakeStore()
	store.categories = []*tariff.Category{{ID: 1, MonthlyRate: 15000}, {ID: 2, MonthlyRate: 25000}}
	mk := func(id int64, region string, tariffID int64) *customer.Customer {
		return &customer.Customer{
			ID: id, Name: "C", Region: region, TariffID: tariffID, Status: customer.StatusActive,
			JoinDate: day(2025, 1, 1), TariffEffectiveDate: day(2025, 1, 1),
		}
	}
	store.customers = []*customer.Customer{
		mk(1, "Blok A", 1),
		mk(2, "Blok A", 2),
		mk(3, "Blok B", 1),
	}
	store.payments[2] = []payment.Payment{{ID: 1, Months: months("2025-01", "2025-02", "2025-03", "2025-04")}}
	return store
}

func newService(store *fakeStore, cache arrears.ReportCache, policy arrears.InactivePolicy) arrears.ArrearsService {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return arrears.NewArrearsService(arrears.NewEngine(policy), store, store, store, cache, 2, logger)
}

func TestArrearsService_ForCustomer(t *testing.T) {
	ctx := context.Background()
	svc := newService(seededStore(), nil, arrears.PolicyAccrue)

	res, err := svc.ForCustomer(ctx, 1, asOf)
	require.NoError(t, err)
	assert.Equal(t, int64(60000), res.TotalArrears)

	_, err = svc.ForCustomer(ctx, 99, asOf)
	assert.ErrorIs(t, err, customer.ErrNotFound)
}

func TestArrearsService_ForCustomerUnknownTariff(t *testing.T) {
	store := seededStore()
	store.customers[0].TariffID = 42
	svc := newService(store, nil, arrears.PolicyAccrue)

	_, err := svc.ForCustomer(context.Background(), 1, asOf)
	assert.ErrorIs(t, err, apperrors.ErrDataIntegrity)
}

func TestArrearsService_Report(t *testing.T) {
	ctx := context.Background()
	store := seededStore()
	svc := newService(store, nil, arrears.PolicyAccrue)

	report, err := svc.Report(ctx, "Blok A", asOf)

	require.NoError(t, err)
	assert.Equal(t, "Blok A", report.Region)
	require.Len(t, report.Customers, 1, "fully paid customers are not listed")
	assert.Equal(t, int64(1), report.Customers[0].Customer.ID)
	assert.Equal(t, 1, report.Summary.TotalCustomers)
	assert.Equal(t, int64(60000), report.Summary.TotalArrears)

	all, err := svc.Report(ctx, "", asOf)
	require.NoError(t, err)
	assert.Equal(t, 2, all.Summary.TotalCustomers)
	assert.Equal(t, int64(120000), all.Summary.TotalArrears)
}

func TestArrearsService_ReportSkipsInconsistentCustomers(t *testing.T) {
	store := seededStore()
	store.history[3] = []tariff.History{
		{ID: 1, Amount: 1, EffectiveFrom: day(2024, 1, 1), EffectiveTo: day(2024, 6, 1)},
		{ID: 2, Amount: 1, EffectiveFrom: day(2024, 3, 1), EffectiveTo: day(2024, 9, 1)},
	}
	svc := newService(store, nil, arrears.PolicyAccrue)

	report, err := svc.Report(context.Background(), "", asOf)

	require.NoError(t, err)
	assert.Equal(t, 1, report.Summary.TotalCustomers)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, int64(3), report.Errors[0].CustomerID)
}

func TestArrearsService_ReportFailsOnStoreError(t *testing.T) {
	store := seededStore()
	store.failOn = 3
	svc := newService(store, &memoryCache{entries: map[string][]byte{}}, arrears.PolicyAccrue)

	_, err := svc.Report(context.Background(), "", asOf)
	assert.ErrorContains(t, err, "connection refused")
}

func TestArrearsService_ReportIsCached(t *testing.T) {
	ctx := context.Background()
	store := seededStore()
	svc := newService(store, &memoryCache{entries: map[string][]byte{}}, arrears.PolicyAccrue)

	first, err := svc.Report(ctx, "Blok A", asOf)
	require.NoError(t, err)
	second, err := svc.Report(ctx, "Blok A", asOf)
	require.NoError(t, err)

	assert.Equal(t, 1, store.loads)
	assert.Equal(t, first.Summary, second.Summary)
	assert.Equal(t, first.Customers[0].Arrears.Months(), second.Customers[0].Arrears.Months())
}

func TestArrearsService_ReportCacheKeepsRegionCase(t *testing.T) {
	ctx := context.Background()
	store := seededStore()
	svc := newService(store, &memoryCache{entries: map[string][]byte{}}, arrears.PolicyAccrue)

	exact, err := svc.Report(ctx, "Blok A", asOf)
	require.NoError(t, err)
	assert.Equal(t, int64(60000), exact.Summary.TotalArrears)

	lower, err := svc.Report(ctx, "blok a", asOf)
	require.NoError(t, err)
	assert.Equal(t, "blok a", lower.Region)
	assert.Equal(t, 0, lower.Summary.TotalCustomers)
	assert.Equal(t, int64(0), lower.Summary.TotalArrears)
	assert.Equal(t, 2, store.loads)
}

func TestArrearsService_Dashboard(t *testing.T) {
	store := seededStore()
	store.customers[2].Status = customer.StatusOnLeave
	svc := newService(store, nil, arrears.PolicySuppress)

	stats, err := svc.Dashboard(context.Background(), asOf)

	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalCustomers)
	assert.Equal(t, 2, stats.CustomersByStatus[customer.StatusActive])
	assert.Equal(t, 1, stats.CustomersByStatus[customer.StatusOnLeave])
	assert.Equal(t, 1, stats.CustomersInArrears, "on-leave customer is suppressed")
	assert.Equal(t, int64(60000), stats.TotalArrears)
	assert.Equal(t, int64(30000), stats.CollectedThisMonth)
	assert.Equal(t, int64(15000), stats.UndepositedTotal)
	assert.Equal(t, 1, stats.UndepositedCount)
}
