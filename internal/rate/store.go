package rate

import (
	"fmt"
	"laundry/internal/domain"
	"sync/atomic"

	"github.com/shopspring/decimal"
)

// Store holds the current rate table. Readers never block: a refresh builds a complete
// table and publishes it with a single pointer swap.
type Store struct {
	pivot string
	table atomic.Pointer[domain.RateTable]
}

func NewStore(pivot string) *Store {
	return &Store{pivot: pivot}
}

func (s *Store) Pivot() string { return s.pivot }

// Swap publishes table. Tables built around a different pivot are rejected.
func (s *Store) Swap(table *domain.RateTable) error {
	if table == nil || table.Pivot != s.pivot {
		return fmt.Errorf("%w: rate table pivot mismatch", domain.ErrInvalidInput)
	}
	s.table.Store(table)
	return nil
}

// Snapshot returns the current table, or false if no refresh has ever succeeded.
func (s *Store) Snapshot() (*domain.RateTable, bool) {
	t := s.table.Load()
	return t, t != nil
}

func (s *Store) Loaded() bool { return s.table.Load() != nil }

func (s *Store) GetRate(code string) (decimal.Decimal, bool) {
	t := s.table.Load()
	if t == nil {
		return decimal.Decimal{}, false
	}
	return t.Rate(code)
}
