package rate

import (
	"fmt"
	"laundry/internal/domain"

	"github.com/shopspring/decimal"
)

type Converter struct {
	store *Store
}

func NewConverter(store *Store) *Converter {
	return &Converter{store: store}
}

func (c *Converter) Pivot() string { return c.store.Pivot() }

// Convert converts amount between two currencies through the pivot:
// amount * rate(from) / rate(to). The result is not rounded.
func (c *Converter) Convert(amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	if from == to {
		return amount, nil
	}
	table, ok := c.store.Snapshot()
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("%w: exchange rates have not been loaded yet", domain.ErrUpstreamUnavailable)
	}
	fromRate, ok := table.Rate(from)
	if !ok {
		return decimal.Decimal{}, domain.InvalidInputf("unsupported currency %q", from)
	}
	toRate, ok := table.Rate(to)
	if !ok {
		return decimal.Decimal{}, domain.InvalidInputf("unsupported currency %q", to)
	}
	inPivot := amount.Mul(fromRate)
	return inPivot.Div(toRate), nil
}

// Loaded reports whether a rate table has been published.
func (c *Converter) Loaded() bool { return c.store.Loaded() }
