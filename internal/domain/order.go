package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "PENDING"
	OrderStatusInProgress OrderStatus = "IN_PROGRESS"
	OrderStatusCompleted  OrderStatus = "COMPLETED"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusInProgress, OrderStatusCompleted, OrderStatusDelivered:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusPaid      PaymentStatus = "PAID"
	PaymentStatusCancelled PaymentStatus = "CANCELLED"
	PaymentStatusRefunded  PaymentStatus = "REFUNDED"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusCancelled, PaymentStatusRefunded:
		return true
	}
	return false
}

type Order struct {
	ID            int64
	UserID        int64
	ReferenceNo   string
	CurrencyCode  string
	TotalAmount   decimal.Decimal
	Status        OrderStatus
	PaymentStatus PaymentStatus
	Items         []OrderItem
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// OrderItem is one line of an order. Price is nil until resolved unless supplied explicitly.
type OrderItem struct {
	ID          int64
	OrderID     int64
	ServiceID   int64
	Quantity    int
	WeightGrams decimal.Decimal
	Price       *decimal.Decimal
}

type OrderFilter struct {
	UserID         *int64
	Status         *OrderStatus
	CreatedFrom    *time.Time
	CreatedTo      *time.Time
	MinTotal       *decimal.Decimal
	MaxTotal       *decimal.Decimal
	ReferenceMatch string
}
