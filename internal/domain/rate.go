package domain

import (
	"maps"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// RateTable maps a currency code to the number of pivot units one unit of that currency is worth.
// A published table is never mutated.
type RateTable struct {
	Pivot     string
	Rates     map[string]decimal.Decimal
	FetchedAt time.Time
}

// NewRateTable copies rates and pins the pivot to exactly one.
func NewRateTable(pivot string, rates map[string]decimal.Decimal, fetchedAt time.Time) *RateTable {
	m := maps.Clone(rates)
	if m == nil {
		m = make(map[string]decimal.Decimal, 1)
	}
	m[pivot] = decimal.NewFromInt(1)
	return &RateTable{Pivot: pivot, Rates: m, FetchedAt: fetchedAt}
}

func (t *RateTable) Rate(code string) (decimal.Decimal, bool) {
	r, ok := t.Rates[code]
	return r, ok
}

func (t *RateTable) Codes() []string {
	codes := slices.Collect(maps.Keys(t.Rates))
	slices.Sort(codes)
	return codes
}
