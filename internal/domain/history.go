package domain

import (
	"math"
	"time"
)

type StatusHistory struct {
	ID        int64
	OrderID   int64
	OldStatus OrderStatus
	NewStatus OrderStatus
	ChangedAt time.Time
	ChangedBy int64
}

type PaymentStatusHistory struct {
	ID        int64
	OrderID   int64
	OldStatus PaymentStatus
	NewStatus PaymentStatus
	ChangedAt time.Time
	ChangedBy int64
}

// HistoryFilter narrows history queries; zero values mean "any".
type HistoryFilter struct {
	OrderID   *int64
	OldValue  string
	NewValue  string
	From      *time.Time
	To        *time.Time
	ChangedBy *int64
}

type Page struct {
	Number int
	Size   int
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	// MaxPageNumber keeps Number * MaxPageSize inside a 32-bit OFFSET.
	MaxPageNumber = math.MaxInt32 / MaxPageSize
)

func (p Page) Normalize() Page {
	if p.Number < 0 {
		p.Number = 0
	}
	if p.Number > MaxPageNumber {
		p.Number = MaxPageNumber
	}
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

func (p Page) Offset() int { return p.Number * p.Size }

type PageResult[T any] struct {
	Items []T
	Total int64
	Page  Page
}
