package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MoneyScale is the number of decimals prices and totals are stored with.
const MoneyScale = 2

type ServicePrice struct {
	ID           int64
	ServiceID    int64
	CurrencyCode string
	Price        decimal.Decimal
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RoundMoney rounds half away from zero, which is half-up for the non-negative amounts handled here.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyScale)
}
