package pricing

import (
	"context"
	"laundry/internal/adapters"
	"laundry/internal/domain"

	"github.com/shopspring/decimal"
)

const weightScale = 3

var gramsPerKilogram = decimal.NewFromInt(1000)

// Engine prices order items by weight from the service price in the order currency.
// Service prices are always read through the caller's repository, so an order written
// inside a transaction is priced from the same snapshot it commits with.
type Engine struct{}

// ResolveItemPrice returns the explicit item price when set. Otherwise the price is
// servicePrice * kg, where kg is the weight in grams / 1000 rounded half-up to 3 decimals,
// and the product is rounded half-up to 2 decimals.
func (e *Engine) ResolveItemPrice(ctx context.Context, prices adapters.PriceRepository, order domain.Order, item domain.OrderItem) (decimal.Decimal, error) {
	if item.Price != nil {
		return *item.Price, nil
	}
	if !item.WeightGrams.IsPositive() {
		return decimal.Decimal{}, domain.InvalidInputf("item weight must be positive")
	}
	sp, err := prices.GetByServiceAndCurrency(ctx, item.ServiceID, order.CurrencyCode)
	if err != nil {
		return decimal.Decimal{}, err
	}
	kg := item.WeightGrams.Div(gramsPerKilogram).Round(weightScale)
	return domain.RoundMoney(sp.Price.Mul(kg)), nil
}

// ComputeOrderTotal sums the resolved item prices. Items without a price contribute nothing.
func (e *Engine) ComputeOrderTotal(order domain.Order) decimal.Decimal {
	total := decimal.Zero
	for _, it := range order.Items {
		if it.Price != nil {
			total = total.Add(*it.Price)
		}
	}
	return domain.RoundMoney(total)
}

// PriceOrder resolves every item price and recomputes the total in place.
func (e *Engine) PriceOrder(ctx context.Context, prices adapters.PriceRepository, order *domain.Order) error {
	for i := range order.Items {
		p, err := e.ResolveItemPrice(ctx, prices, *order, order.Items[i])
		if err != nil {
			return err
		}
		order.Items[i].Price = &p
	}
	order.TotalAmount = e.ComputeOrderTotal(*order)
	return nil
}

func NewEngine() *Engine {
	return &Engine{}
}
