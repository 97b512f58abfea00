package adapters

import (
	"context"
	"laundry/internal/domain"

	"github.com/shopspring/decimal"
)

// FeedClient fetches the raw exchange rate feed.
type FeedClient interface {
	Fetch(ctx context.Context) ([]byte, error)
}

// PriceUpsert is one derived price to create or overwrite.
type PriceUpsert struct {
	ServiceID    int64
	CurrencyCode string
	Price        decimal.Decimal
}

type PriceRepository interface {
	ServiceExists(ctx context.Context, serviceID int64) (bool, error)
	GetByID(ctx context.Context, id int64) (domain.ServicePrice, error)
	GetByServiceAndCurrency(ctx context.Context, serviceID int64, currency string) (domain.ServicePrice, error)
	ListByService(ctx context.Context, serviceID int64) ([]domain.ServicePrice, error)
	Create(ctx context.Context, price domain.ServicePrice) (domain.ServicePrice, error)
	Update(ctx context.Context, price domain.ServicePrice) (domain.ServicePrice, error)
	UpsertBatch(ctx context.Context, prices []PriceUpsert) error
	Delete(ctx context.Context, id int64) error
}

type OrderRepository interface {
	Create(ctx context.Context, order domain.Order) (domain.Order, error)
	// GetForUpdate loads the order with its items and locks the order row until the unit of work ends.
	GetForUpdate(ctx context.Context, id int64) (domain.Order, error)
	Get(ctx context.Context, id int64) (domain.Order, error)
	List(ctx context.Context, filter domain.OrderFilter, page domain.Page) (domain.PageResult[domain.Order], error)
	// Update persists order fields; items are replaced when replaceItems is set.
	Update(ctx context.Context, order domain.Order, replaceItems bool) (domain.Order, error)
	SetStatus(ctx context.Context, id int64, status domain.OrderStatus) error
	SetPaymentStatus(ctx context.Context, id int64, status domain.PaymentStatus) error
	Delete(ctx context.Context, id int64) error
}

type HistoryRepository interface {
	AppendStatus(ctx context.Context, row domain.StatusHistory) (domain.StatusHistory, error)
	AppendPaymentStatus(ctx context.Context, row domain.PaymentStatusHistory) (domain.PaymentStatusHistory, error)
	GetStatus(ctx context.Context, id int64) (domain.StatusHistory, error)
	GetPaymentStatus(ctx context.Context, id int64) (domain.PaymentStatusHistory, error)
	ListStatus(ctx context.Context, filter domain.HistoryFilter, page domain.Page) (domain.PageResult[domain.StatusHistory], error)
	ListPaymentStatus(ctx context.Context, filter domain.HistoryFilter, page domain.Page) (domain.PageResult[domain.PaymentStatusHistory], error)
}

// Repositories is the set of repositories bound to one unit of work.
type Repositories interface {
	Prices() PriceRepository
	Orders() OrderRepository
	History() HistoryRepository
	// Nested runs fn in a savepoint: if fn fails only its own writes are rolled back.
	Nested(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}

// UnitOfWork runs fn in a single transaction, committing only when fn returns nil.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}

// PriceCache caches service prices by (service, currency) for read-only lookups.
// Callers read Version before loading a price and hand it back to Set, so a value
// loaded before an invalidation of its service is never stored.
type PriceCache interface {
	Get(serviceID int64, currency string) (domain.ServicePrice, bool)
	Version(serviceID int64) uint64
	Set(price domain.ServicePrice, version uint64) bool
	InvalidateService(serviceID int64, currencies []string)
}
