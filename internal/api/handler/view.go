package handler

import (
	"laundry/internal/domain"
	"time"

	"github.com/shopspring/decimal"
)

type PriceView struct {
	ID           int64           `json:"id"`
	ServiceID    int64           `json:"service_id"`
	CurrencyCode string          `json:"currency_code"`
	Price        decimal.Decimal `json:"price"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func toPriceView(p domain.ServicePrice) PriceView {
	return PriceView{
		ID:           p.ID,
		ServiceID:    p.ServiceID,
		CurrencyCode: p.CurrencyCode,
		Price:        p.Price,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

type OrderItemView struct {
	ID          int64           `json:"id"`
	ServiceID   int64           `json:"service_id"`
	Quantity    int             `json:"quantity"`
	WeightGrams decimal.Decimal `json:"weight_grams"`
	Price       decimal.Decimal `json:"price"`
}

type OrderView struct {
	ID            int64           `json:"id"`
	UserID        int64           `json:"user_id"`
	ReferenceNo   string          `json:"reference_no"`
	CurrencyCode  string          `json:"currency_code"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Status        string          `json:"status"`
	PaymentStatus string          `json:"payment_status"`
	Items         []OrderItemView `json:"items"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func toOrderView(o domain.Order) OrderView {
	items := make([]OrderItemView, len(o.Items))
	for i, it := range o.Items {
		items[i] = OrderItemView{
			ID:          it.ID,
			ServiceID:   it.ServiceID,
			Quantity:    it.Quantity,
			WeightGrams: it.WeightGrams,
		}
		if it.Price != nil {
			items[i].Price = *it.Price
		}
	}
	return OrderView{
		ID:            o.ID,
		UserID:        o.UserID,
		ReferenceNo:   o.ReferenceNo,
		CurrencyCode:  o.CurrencyCode,
		TotalAmount:   o.TotalAmount,
		Status:        string(o.Status),
		PaymentStatus: string(o.PaymentStatus),
		Items:         items,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}

type HistoryView struct {
	ID        int64     `json:"id"`
	OrderID   int64     `json:"order_id"`
	OldValue  string    `json:"old_value"`
	NewValue  string    `json:"new_value"`
	ChangedAt time.Time `json:"changed_at"`
	ChangedBy int64     `json:"changed_by"`
}

func statusHistoryView(h domain.StatusHistory) HistoryView {
	return HistoryView{ID: h.ID, OrderID: h.OrderID, OldValue: string(h.OldStatus), NewValue: string(h.NewStatus), ChangedAt: h.ChangedAt, ChangedBy: h.ChangedBy}
}

func paymentHistoryView(h domain.PaymentStatusHistory) HistoryView {
	return HistoryView{ID: h.ID, OrderID: h.OrderID, OldValue: string(h.OldStatus), NewValue: string(h.NewStatus), ChangedAt: h.ChangedAt, ChangedBy: h.ChangedBy}
}

type PageView[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Size  int   `json:"size"`
}

func toPageView[S, T any](res domain.PageResult[S], conv func(S) T) PageView[T] {
	items := make([]T, len(res.Items))
	for i, it := range res.Items {
		items[i] = conv(it)
	}
	return PageView[T]{Items: items, Total: res.Total, Page: res.Page.Number, Size: res.Page.Size}
}
