package pricing

import (
	"context"
	"time"

	"laundry/internal/adapters"
	"laundry/internal/domain"
	"laundry/internal/rate"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type MockPriceRepository struct{ mock.Mock }

func (m *MockPriceRepository) ServiceExists(ctx context.Context, serviceID int64) (bool, error) {
	args := m.Called(ctx, serviceID)
	return args.Bool(0), args.Error(1)
}

func (m *MockPriceRepository) GetByID(ctx context.Context, id int64) (domain.ServicePrice, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.ServicePrice), args.Error(1)
}

func (m *MockPriceRepository) GetByServiceAndCurrency(ctx context.Context, serviceID int64, currency string) (domain.ServicePrice, error) {
	args := m.Called(ctx, serviceID, currency)
	return args.Get(0).(domain.ServicePrice), args.Error(1)
}

func (m *MockPriceRepository) ListByService(ctx context.Context, serviceID int64) ([]domain.ServicePrice, error) {
	args := m.Called(ctx, serviceID)
	list, _ := args.Get(0).([]domain.ServicePrice)
	return list, args.Error(1)
}

func (m *MockPriceRepository) Create(ctx context.Context, price domain.ServicePrice) (domain.ServicePrice, error) {
	args := m.Called(ctx, price)
	return args.Get(0).(domain.ServicePrice), args.Error(1)
}

func (m *MockPriceRepository) Update(ctx context.Context, price domain.ServicePrice) (domain.ServicePrice, error) {
	args := m.Called(ctx, price)
	return args.Get(0).(domain.ServicePrice), args.Error(1)
}

func (m *MockPriceRepository) UpsertBatch(ctx context.Context, prices []adapters.PriceUpsert) error {
	return m.Called(ctx, prices).Error(0)
}

func (m *MockPriceRepository) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type MockPriceCache struct{ mock.Mock }

func (m *MockPriceCache) Get(serviceID int64, currency string) (domain.ServicePrice, bool) {
	args := m.Called(serviceID, currency)
	return args.Get(0).(domain.ServicePrice), args.Bool(1)
}

func (m *MockPriceCache) Version(serviceID int64) uint64 {
	return m.Called(serviceID).Get(0).(uint64)
}

func (m *MockPriceCache) Set(price domain.ServicePrice, version uint64) bool {
	return m.Called(price, version).Bool(0)
}

func (m *MockPriceCache) InvalidateService(serviceID int64, currencies []string) {
	m.Called(serviceID, currencies)
}

// fakeRepos hands out the mocked price repository; Nested runs fn against the same set.
type fakeRepos struct {
	prices *MockPriceRepository
}

func (r *fakeRepos) Prices() adapters.PriceRepository    { return r.prices }
func (r *fakeRepos) Orders() adapters.OrderRepository    { return nil }
func (r *fakeRepos) History() adapters.HistoryRepository { return nil }

func (r *fakeRepos) Nested(ctx context.Context, fn func(context.Context, adapters.Repositories) error) error {
	return fn(ctx, r)
}

type fakeUnitOfWork struct {
	repos *fakeRepos
	calls int
}

func (u *fakeUnitOfWork) Do(ctx context.Context, fn func(context.Context, adapters.Repositories) error) error {
	u.calls++
	return fn(ctx, u.repos)
}

var supported = []string{"TRY", "USD", "EUR", "GBP"}

// loadedConverter publishes 1 USD = 34.50 TRY, 1 EUR = 37.20 TRY, 1 GBP = 43.90 TRY.
func loadedConverter() *rate.Converter {
	store := rate.NewStore("TRY")
	_ = store.Swap(domain.NewRateTable("TRY", map[string]decimal.Decimal{
		"USD": d("34.50"),
		"EUR": d("37.20"),
		"GBP": d("43.90"),
	}, time.Now()))
	return rate.NewConverter(store)
}
