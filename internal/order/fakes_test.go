package order

import (
	"context"
	"maps"
	"slices"

	"laundry/internal/adapters"
	"laundry/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type MockPricer struct{ mock.Mock }

func (m *MockPricer) PriceOrder(ctx context.Context, prices adapters.PriceRepository, order *domain.Order) error {
	return m.Called(ctx, order).Error(0)
}

// flatPricer prices every unpriced item at 10.00 and sums the total.
func flatPricer() *MockPricer {
	p := new(MockPricer)
	p.On("PriceOrder", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		o := args.Get(1).(*domain.Order)
		total := decimal.Zero
		for i := range o.Items {
			if o.Items[i].Price == nil {
				v := d("10.00")
				o.Items[i].Price = &v
			}
			total = total.Add(*o.Items[i].Price)
		}
		o.TotalAmount = total
	}).Return(nil)
	return p
}

// memStore keeps orders and histories in memory; fakeUnitOfWork restores it when fn fails.
type memStore struct {
	orders        map[int64]domain.Order
	statusHist    []domain.StatusHistory
	paymentHist   []domain.PaymentStatusHistory
	nextID        int64
	failAppend    error
	forUpdateHits int
}

func newMemStore() *memStore {
	return &memStore{orders: map[int64]domain.Order{}}
}

func (m *memStore) snapshot() *memStore {
	c := *m
	c.orders = maps.Clone(m.orders)
	c.statusHist = slices.Clone(m.statusHist)
	c.paymentHist = slices.Clone(m.paymentHist)
	return &c
}

type memOrders struct{ s *memStore }

func (r memOrders) Create(_ context.Context, o domain.Order) (domain.Order, error) {
	r.s.nextID++
	o.ID = r.s.nextID
	for i := range o.Items {
		o.Items[i].OrderID = o.ID
	}
	r.s.orders[o.ID] = o
	return o, nil
}

func (r memOrders) GetForUpdate(ctx context.Context, id int64) (domain.Order, error) {
	r.s.forUpdateHits++
	return r.Get(ctx, id)
}

func (r memOrders) Get(_ context.Context, id int64) (domain.Order, error) {
	o, ok := r.s.orders[id]
	if !ok {
		return domain.Order{}, domain.NotFoundf("order %d", id)
	}
	o.Items = slices.Clone(o.Items)
	return o, nil
}

func (r memOrders) List(_ context.Context, f domain.OrderFilter, page domain.Page) (domain.PageResult[domain.Order], error) {
	res := domain.PageResult[domain.Order]{Items: []domain.Order{}, Page: page}
	for _, o := range r.s.orders {
		if f.UserID != nil && o.UserID != *f.UserID {
			continue
		}
		res.Items = append(res.Items, o)
	}
	res.Total = int64(len(res.Items))
	return res, nil
}

func (r memOrders) Update(_ context.Context, o domain.Order, replaceItems bool) (domain.Order, error) {
	cur, ok := r.s.orders[o.ID]
	if !ok {
		return domain.Order{}, domain.NotFoundf("order %d", o.ID)
	}
	cur.UserID = o.UserID
	cur.ReferenceNo = o.ReferenceNo
	cur.TotalAmount = o.TotalAmount
	if replaceItems {
		cur.Items = slices.Clone(o.Items)
	}
	r.s.orders[o.ID] = cur
	return cur, nil
}

func (r memOrders) SetStatus(_ context.Context, id int64, status domain.OrderStatus) error {
	o, ok := r.s.orders[id]
	if !ok {
		return domain.NotFoundf("order %d", id)
	}
	o.Status = status
	r.s.orders[id] = o
	return nil
}

func (r memOrders) SetPaymentStatus(_ context.Context, id int64, status domain.PaymentStatus) error {
	o, ok := r.s.orders[id]
	if !ok {
		return domain.NotFoundf("order %d", id)
	}
	o.PaymentStatus = status
	r.s.orders[id] = o
	return nil
}

func (r memOrders) Delete(_ context.Context, id int64) error {
	if _, ok := r.s.orders[id]; !ok {
		return domain.NotFoundf("order %d", id)
	}
	for _, h := range r.s.statusHist {
		if h.OrderID == id {
			return domain.Conflictf("order %d has transition history", id)
		}
	}
	for _, h := range r.s.paymentHist {
		if h.OrderID == id {
			return domain.Conflictf("order %d has transition history", id)
		}
	}
	delete(r.s.orders, id)
	return nil
}

type memHistory struct{ s *memStore }

func (r memHistory) AppendStatus(_ context.Context, h domain.StatusHistory) (domain.StatusHistory, error) {
	if r.s.failAppend != nil {
		return domain.StatusHistory{}, r.s.failAppend
	}
	h.ID = int64(len(r.s.statusHist) + 1)
	r.s.statusHist = append(r.s.statusHist, h)
	return h, nil
}

func (r memHistory) AppendPaymentStatus(_ context.Context, h domain.PaymentStatusHistory) (domain.PaymentStatusHistory, error) {
	if r.s.failAppend != nil {
		return domain.PaymentStatusHistory{}, r.s.failAppend
	}
	h.ID = int64(len(r.s.paymentHist) + 1)
	r.s.paymentHist = append(r.s.paymentHist, h)
	return h, nil
}

func (r memHistory) GetStatus(_ context.Context, id int64) (domain.StatusHistory, error) {
	if id < 1 || int(id) > len(r.s.statusHist) {
		return domain.StatusHistory{}, domain.NotFoundf("history entry %d", id)
	}
	return r.s.statusHist[id-1], nil
}

func (r memHistory) GetPaymentStatus(_ context.Context, id int64) (domain.PaymentStatusHistory, error) {
	if id < 1 || int(id) > len(r.s.paymentHist) {
		return domain.PaymentStatusHistory{}, domain.NotFoundf("history entry %d", id)
	}
	return r.s.paymentHist[id-1], nil
}

func (r memHistory) ListStatus(_ context.Context, f domain.HistoryFilter, page domain.Page) (domain.PageResult[domain.StatusHistory], error) {
	res := domain.PageResult[domain.StatusHistory]{Items: []domain.StatusHistory{}, Page: page}
	for _, h := range r.s.statusHist {
		if f.OrderID != nil && h.OrderID != *f.OrderID {
			continue
		}
		if f.NewValue != "" && string(h.NewStatus) != f.NewValue {
			continue
		}
		res.Items = append(res.Items, h)
	}
	res.Total = int64(len(res.Items))
	return res, nil
}

func (r memHistory) ListPaymentStatus(_ context.Context, f domain.HistoryFilter, page domain.Page) (domain.PageResult[domain.PaymentStatusHistory], error) {
	res := domain.PageResult[domain.PaymentStatusHistory]{Items: []domain.PaymentStatusHistory{}, Page: page}
	for _, h := range r.s.paymentHist {
		if f.OrderID != nil && h.OrderID != *f.OrderID {
			continue
		}
		res.Items = append(res.Items, h)
	}
	res.Total = int64(len(res.Items))
	return res, nil
}

type memRepos struct{ s *memStore }

func (r memRepos) Prices() adapters.PriceRepository    { return nil }
func (r memRepos) Orders() adapters.OrderRepository    { return memOrders(r) }
func (r memRepos) History() adapters.HistoryRepository { return memHistory(r) }

func (r memRepos) Nested(ctx context.Context, fn func(context.Context, adapters.Repositories) error) error {
	return fn(ctx, r)
}

type fakeUnitOfWork struct{ s *memStore }

func (u fakeUnitOfWork) Do(ctx context.Context, fn func(context.Context, adapters.Repositories) error) error {
	before := u.s.snapshot()
	if err := fn(ctx, memRepos(u)); err != nil {
		*u.s = *before
		return err
	}
	return nil
}
