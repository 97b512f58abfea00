package order

import (
	"context"
	"laundry/internal/adapters"
	"laundry/internal/domain"
	"laundry/internal/platform/metrics"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

type Pricer interface {
	PriceOrder(ctx context.Context, prices adapters.PriceRepository, order *domain.Order) error
}

type CurrencyValidator interface {
	ValidateCode(code string) error
}

// CreateInput carries a new order. An empty PaymentStatus means PENDING.
type CreateInput struct {
	UserID        int64
	ReferenceNo   string
	CurrencyCode  string
	PaymentStatus domain.PaymentStatus
	Items         []domain.OrderItem
}

// UpdateInput replaces every editable field of an order, items included.
// The currency must match the one the order was created with.
type UpdateInput struct {
	UserID        int64
	ReferenceNo   string
	CurrencyCode  string
	PaymentStatus domain.PaymentStatus
	Items         []domain.OrderItem
}

// PatchInput changes only the fields that are set.
type PatchInput struct {
	UserID        *int64
	ReferenceNo   *string
	CurrencyCode  *string
	PaymentStatus *domain.PaymentStatus
	Items         *[]domain.OrderItem
}

type Service struct {
	uow        adapters.UnitOfWork
	pricer     Pricer
	currencies CurrencyValidator
	metrics    *metrics.Metrics
	now        func() time.Time
}

func (s *Service) Create(ctx context.Context, in CreateInput, actor int64) (domain.Order, error) {
	currency := strings.ToUpper(strings.TrimSpace(in.CurrencyCode))
	if err := s.validateCurrency(currency); err != nil {
		return domain.Order{}, err
	}
	if in.UserID <= 0 {
		return domain.Order{}, domain.InvalidInputf("user id is required")
	}
	payment := in.PaymentStatus
	if payment == "" {
		payment = domain.PaymentStatusPending
	}
	if !payment.Valid() {
		return domain.Order{}, domain.InvalidInputf("unknown payment status %q", payment)
	}
	if err := validateItems(in.Items); err != nil {
		return domain.Order{}, err
	}

	o := domain.Order{
		UserID:        in.UserID,
		ReferenceNo:   in.ReferenceNo,
		CurrencyCode:  currency,
		Status:        domain.OrderStatusPending,
		PaymentStatus: payment,
		Items:         cloneItems(in.Items),
	}
	var created domain.Order
	err := s.uow.Do(ctx, func(ctx context.Context, repos adapters.Repositories) (err error) {
		if err = s.pricer.PriceOrder(ctx, repos.Prices(), &o); err != nil {
			return err
		}
		created, err = repos.Orders().Create(ctx, o)
		return err
	})
	if err != nil {
		return domain.Order{}, err
	}

	logrus.WithFields(logrus.Fields{
		"order_id": created.ID,
		"actor_id": actor,
		"total":    created.TotalAmount.StringFixed(domain.MoneyScale),
		"currency": created.CurrencyCode,
	}).Info("order created")
	return created, nil
}

func (s *Service) Update(ctx context.Context, id int64, in UpdateInput, actor int64) (domain.Order, error) {
	if in.UserID <= 0 {
		return domain.Order{}, domain.InvalidInputf("user id is required")
	}
	if in.PaymentStatus != "" && !in.PaymentStatus.Valid() {
		return domain.Order{}, domain.InvalidInputf("unknown payment status %q", in.PaymentStatus)
	}
	if err := validateItems(in.Items); err != nil {
		return domain.Order{}, err
	}
	items := cloneItems(in.Items)
	currency := in.CurrencyCode

	return s.mutate(ctx, id, actor, func(o *domain.Order) (bool, error) {
		if err := requireSameCurrency(*o, currency); err != nil {
			return false, err
		}
		o.UserID = in.UserID
		o.ReferenceNo = in.ReferenceNo
		o.Items = items
		return true, nil
	}, in.PaymentStatus)
}

func (s *Service) Patch(ctx context.Context, id int64, in PatchInput, actor int64) (domain.Order, error) {
	if in.UserID != nil && *in.UserID <= 0 {
		return domain.Order{}, domain.InvalidInputf("user id must be positive")
	}
	var payment domain.PaymentStatus
	if in.PaymentStatus != nil {
		payment = *in.PaymentStatus
		if !payment.Valid() {
			return domain.Order{}, domain.InvalidInputf("unknown payment status %q", payment)
		}
	}
	var items []domain.OrderItem
	if in.Items != nil {
		if err := validateItems(*in.Items); err != nil {
			return domain.Order{}, err
		}
		items = cloneItems(*in.Items)
	}

	return s.mutate(ctx, id, actor, func(o *domain.Order) (bool, error) {
		if in.CurrencyCode != nil {
			if err := requireSameCurrency(*o, *in.CurrencyCode); err != nil {
				return false, err
			}
		}
		if in.UserID != nil {
			o.UserID = *in.UserID
		}
		if in.ReferenceNo != nil {
			o.ReferenceNo = *in.ReferenceNo
		}
		if in.Items == nil {
			return false, nil
		}
		o.Items = items
		return true, nil
	}, payment)
}

// mutate loads the order for update, applies change, reprices when items were replaced,
// persists it and finally applies a payment status change, all in one unit of work.
func (s *Service) mutate(ctx context.Context, id, actor int64, change func(o *domain.Order) (bool, error), payment domain.PaymentStatus) (domain.Order, error) {
	var (
		res     domain.Order
		changed *domain.PaymentStatusHistory
	)
	err := s.uow.Do(ctx, func(ctx context.Context, repos adapters.Repositories) error {
		changed = nil
		o, err := repos.Orders().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		replaceItems, err := change(&o)
		if err != nil {
			return err
		}
		if replaceItems {
			if err = s.pricer.PriceOrder(ctx, repos.Prices(), &o); err != nil {
				return err
			}
		}
		if res, err = repos.Orders().Update(ctx, o, replaceItems); err != nil {
			return err
		}
		if payment != "" && payment != res.PaymentStatus {
			h, err := s.setPaymentStatus(ctx, repos, &res, payment, actor)
			if err != nil {
				return err
			}
			changed = &h
		}
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}

	if changed != nil {
		s.logPaymentChange(*changed)
	}
	logrus.WithFields(logrus.Fields{
		"order_id": res.ID,
		"actor_id": actor,
		"total":    res.TotalAmount.StringFixed(domain.MoneyScale),
	}).Info("order updated")
	return res, nil
}

// ChangePaymentStatus moves the order to status and records the change.
// Setting the current value again is a no-op and writes no history.
func (s *Service) ChangePaymentStatus(ctx context.Context, id int64, status domain.PaymentStatus, actor int64) (domain.Order, error) {
	if !status.Valid() {
		return domain.Order{}, domain.InvalidInputf("unknown payment status %q", status)
	}
	if actor <= 0 {
		return domain.Order{}, domain.InvalidInputf("actor id is required")
	}

	var (
		res     domain.Order
		changed *domain.PaymentStatusHistory
	)
	err := s.uow.Do(ctx, func(ctx context.Context, repos adapters.Repositories) error {
		changed = nil
		o, err := repos.Orders().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if o.PaymentStatus != status {
			h, err := s.setPaymentStatus(ctx, repos, &o, status, actor)
			if err != nil {
				return err
			}
			changed = &h
		}
		res = o
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}
	if changed != nil {
		s.logPaymentChange(*changed)
	}
	return res, nil
}

func (s *Service) setPaymentStatus(ctx context.Context, repos adapters.Repositories, o *domain.Order, status domain.PaymentStatus, actor int64) (domain.PaymentStatusHistory, error) {
	if err := repos.Orders().SetPaymentStatus(ctx, o.ID, status); err != nil {
		return domain.PaymentStatusHistory{}, err
	}
	h, err := repos.History().AppendPaymentStatus(ctx, domain.PaymentStatusHistory{
		OrderID:   o.ID,
		OldStatus: o.PaymentStatus,
		NewStatus: status,
		ChangedAt: s.now().UTC(),
		ChangedBy: actor,
	})
	if err != nil {
		return domain.PaymentStatusHistory{}, err
	}
	o.PaymentStatus = status
	return h, nil
}

func (s *Service) logPaymentChange(h domain.PaymentStatusHistory) {
	s.metrics.Transition("payment", string(h.NewStatus))
	logrus.WithFields(logrus.Fields{
		"order_id": h.OrderID,
		"actor_id": h.ChangedBy,
		"from":     h.OldStatus,
		"to":       h.NewStatus,
	}).Info("order payment status changed")
}

func (s *Service) Get(ctx context.Context, id int64) (domain.Order, error) {
	var o domain.Order
	err := s.uow.Do(ctx, func(ctx context.Context, repos adapters.Repositories) (err error) {
		o, err = repos.Orders().Get(ctx, id)
		return err
	})
	return o, err
}

func (s *Service) List(ctx context.Context, f domain.OrderFilter, page domain.Page) (domain.PageResult[domain.Order], error) {
	if f.Status != nil && !f.Status.Valid() {
		return domain.PageResult[domain.Order]{}, domain.InvalidInputf("unknown order status %q", *f.Status)
	}
	if f.CreatedFrom != nil && f.CreatedTo != nil && f.CreatedFrom.After(*f.CreatedTo) {
		return domain.PageResult[domain.Order]{}, domain.InvalidInputf("created_from is after created_to")
	}
	if f.MinTotal != nil && f.MaxTotal != nil && f.MinTotal.GreaterThan(*f.MaxTotal) {
		return domain.PageResult[domain.Order]{}, domain.InvalidInputf("min_total is greater than max_total")
	}

	var res domain.PageResult[domain.Order]
	err := s.uow.Do(ctx, func(ctx context.Context, repos adapters.Repositories) (err error) {
		res, err = repos.Orders().List(ctx, f, page.Normalize())
		return err
	})
	return res, err
}

func (s *Service) Delete(ctx context.Context, id int64, actor int64) error {
	err := s.uow.Do(ctx, func(ctx context.Context, repos adapters.Repositories) error {
		return repos.Orders().Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{"order_id": id, "actor_id": actor}).Info("order deleted")
	return nil
}

func (s *Service) validateCurrency(code string) error {
	if err := s.currencies.ValidateCode(code); err != nil {
		return domain.InvalidInputf("currency %q: %v", code, err)
	}
	return nil
}

func requireSameCurrency(o domain.Order, code string) error {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code != o.CurrencyCode {
		return domain.InvalidInputf("order currency is %s and cannot be changed", o.CurrencyCode)
	}
	return nil
}

func validateItems(items []domain.OrderItem) error {
	if len(items) == 0 {
		return domain.InvalidInputf("order must contain at least one item")
	}
	for i, it := range items {
		if it.ServiceID <= 0 {
			return domain.InvalidInputf("item %d: service id is required", i)
		}
		if it.Quantity < 1 {
			return domain.InvalidInputf("item %d: quantity must be at least 1", i)
		}
		if !it.WeightGrams.IsPositive() {
			return domain.InvalidInputf("item %d: weight must be positive", i)
		}
		if it.Price != nil {
			if it.Price.IsNegative() {
				return domain.InvalidInputf("item %d: price must not be negative", i)
			}
			if !it.Price.Equal(domain.RoundMoney(*it.Price)) {
				return domain.InvalidInputf("item %d: price has more than %d decimals", i, domain.MoneyScale)
			}
		}
	}
	return nil
}

func cloneItems(items []domain.OrderItem) []domain.OrderItem {
	out := make([]domain.OrderItem, len(items))
	for i, it := range items {
		it.ID = 0
		it.OrderID = 0
		if it.Price != nil {
			p := *it.Price
			it.Price = &p
		}
		out[i] = it
	}
	return out
}

func NewService(uow adapters.UnitOfWork, pricer Pricer, currencies CurrencyValidator, m *metrics.Metrics) *Service {
	return &Service{
		uow:        uow,
		pricer:     pricer,
		currencies: currencies,
		metrics:    m,
		now:        time.Now,
	}
}
