package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"laundry/internal/domain"
	"laundry/internal/order"
	"laundry/internal/pricing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRates struct{ mock.Mock }

func (m *MockRates) Snapshot() (*domain.RateTable, bool) {
	args := m.Called()
	t, _ := args.Get(0).(*domain.RateTable)
	return t, args.Bool(1)
}

func (m *MockRates) GetRate(code string) (decimal.Decimal, bool) {
	args := m.Called(code)
	d, _ := args.Get(0).(decimal.Decimal)
	return d, args.Bool(1)
}

type MockConverter struct{ mock.Mock }

func (m *MockConverter) Convert(amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	args := m.Called(amount.String(), from, to)
	d, _ := args.Get(0).(decimal.Decimal)
	return d, args.Error(1)
}

type MockRefresher struct{ mock.Mock }

func (m *MockRefresher) RefreshRates(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type MockCurrencies struct{ mock.Mock }

func (m *MockCurrencies) ValidateCode(code string) error {
	return m.Called(code).Error(0)
}

func (m *MockCurrencies) SupportedCodes() []string {
	args := m.Called()
	codes, _ := args.Get(0).([]string)
	return codes
}

type MockPriceService struct{ mock.Mock }

func (m *MockPriceService) CreatePrice(ctx context.Context, serviceID int64, currency string, price decimal.Decimal) (pricing.SyncResult, error) {
	args := m.Called(ctx, serviceID, currency, price.String())
	r, _ := args.Get(0).(pricing.SyncResult)
	return r, args.Error(1)
}

func (m *MockPriceService) UpdatePrice(ctx context.Context, id int64, currency string, price decimal.Decimal) (pricing.SyncResult, error) {
	args := m.Called(ctx, id, currency, price.String())
	r, _ := args.Get(0).(pricing.SyncResult)
	return r, args.Error(1)
}

func (m *MockPriceService) GetPrice(ctx context.Context, id int64) (domain.ServicePrice, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(domain.ServicePrice)
	return p, args.Error(1)
}

func (m *MockPriceService) ListByService(ctx context.Context, serviceID int64) ([]domain.ServicePrice, error) {
	args := m.Called(ctx, serviceID)
	p, _ := args.Get(0).([]domain.ServicePrice)
	return p, args.Error(1)
}

func (m *MockPriceService) GetByServiceAndCurrency(ctx context.Context, serviceID int64, currency string) (domain.ServicePrice, error) {
	args := m.Called(ctx, serviceID, currency)
	p, _ := args.Get(0).(domain.ServicePrice)
	return p, args.Error(1)
}

func (m *MockPriceService) DeletePrice(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type MockOrderService struct{ mock.Mock }

func (m *MockOrderService) Create(ctx context.Context, in order.CreateInput, actor int64) (domain.Order, error) {
	args := m.Called(ctx, in, actor)
	o, _ := args.Get(0).(domain.Order)
	return o, args.Error(1)
}

func (m *MockOrderService) Update(ctx context.Context, id int64, in order.UpdateInput, actor int64) (domain.Order, error) {
	args := m.Called(ctx, id, in, actor)
	o, _ := args.Get(0).(domain.Order)
	return o, args.Error(1)
}

func (m *MockOrderService) Patch(ctx context.Context, id int64, in order.PatchInput, actor int64) (domain.Order, error) {
	args := m.Called(ctx, id, in, actor)
	o, _ := args.Get(0).(domain.Order)
	return o, args.Error(1)
}

func (m *MockOrderService) Get(ctx context.Context, id int64) (domain.Order, error) {
	args := m.Called(ctx, id)
	o, _ := args.Get(0).(domain.Order)
	return o, args.Error(1)
}

func (m *MockOrderService) List(ctx context.Context, f domain.OrderFilter, page domain.Page) (domain.PageResult[domain.Order], error) {
	args := m.Called(ctx, f, page)
	r, _ := args.Get(0).(domain.PageResult[domain.Order])
	return r, args.Error(1)
}

func (m *MockOrderService) Delete(ctx context.Context, id int64, actor int64) error {
	return m.Called(ctx, id, actor).Error(0)
}

func (m *MockOrderService) AdvanceStatus(ctx context.Context, id int64, actor int64) (domain.Order, error) {
	args := m.Called(ctx, id, actor)
	o, _ := args.Get(0).(domain.Order)
	return o, args.Error(1)
}

func (m *MockOrderService) ChangePaymentStatus(ctx context.Context, id int64, status domain.PaymentStatus, actor int64) (domain.Order, error) {
	args := m.Called(ctx, id, status, actor)
	o, _ := args.Get(0).(domain.Order)
	return o, args.Error(1)
}

type MockHistoryService struct{ mock.Mock }

func (m *MockHistoryService) GetStatus(ctx context.Context, id int64) (domain.StatusHistory, error) {
	args := m.Called(ctx, id)
	h, _ := args.Get(0).(domain.StatusHistory)
	return h, args.Error(1)
}

func (m *MockHistoryService) ListStatus(ctx context.Context, f domain.HistoryFilter, page domain.Page) (domain.PageResult[domain.StatusHistory], error) {
	args := m.Called(ctx, f, page)
	r, _ := args.Get(0).(domain.PageResult[domain.StatusHistory])
	return r, args.Error(1)
}

func (m *MockHistoryService) GetPaymentStatus(ctx context.Context, id int64) (domain.PaymentStatusHistory, error) {
	args := m.Called(ctx, id)
	h, _ := args.Get(0).(domain.PaymentStatusHistory)
	return h, args.Error(1)
}

func (m *MockHistoryService) ListPaymentStatus(ctx context.Context, f domain.HistoryFilter, page domain.Page) (domain.PageResult[domain.PaymentStatusHistory], error) {
	args := m.Called(ctx, f, page)
	r, _ := args.Get(0).(domain.PageResult[domain.PaymentStatusHistory])
	return r, args.Error(1)
}

type mocks struct {
	rates      *MockRates
	converter  *MockConverter
	refresher  *MockRefresher
	currencies *MockCurrencies
	prices     *MockPriceService
	orders     *MockOrderService
	history    *MockHistoryService
}

func newTestHandler() (*Handler, *mocks) {
	m := &mocks{
		rates:      new(MockRates),
		converter:  new(MockConverter),
		refresher:  new(MockRefresher),
		currencies: new(MockCurrencies),
		prices:     new(MockPriceService),
		orders:     new(MockOrderService),
		history:    new(MockHistoryService),
	}
	h := NewHandler(Deps{
		Rates:      m.rates,
		Converter:  m.converter,
		Refresher:  m.refresher,
		Currencies: m.currencies,
		Prices:     m.prices,
		Orders:     m.orders,
		History:    m.history,
	})
	return h, m
}

func (m *mocks) assert(t *testing.T) {
	t.Helper()
	m.rates.AssertExpectations(t)
	m.converter.AssertExpectations(t)
	m.refresher.AssertExpectations(t)
	m.currencies.AssertExpectations(t)
	m.prices.AssertExpectations(t)
	m.orders.AssertExpectations(t)
	m.history.AssertExpectations(t)
}

type errorJSON struct {
	Error string `json:"error"`
}

// newRequest builds a request carrying chi url params and, when actor > 0, an authenticated actor.
func newRequest(method, target, body string, actor int64, params map[string]string) *http.Request {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	if actor > 0 {
		ctx = WithActor(ctx, actor)
	}
	return req.WithContext(ctx)
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	require.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	var ej errorJSON
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &ej))
	return ej.Error
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func dp(s string) *decimal.Decimal {
	v := d(s)
	return &v
}
