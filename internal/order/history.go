package order

import (
	"context"
	"laundry/internal/adapters"
	"laundry/internal/domain"
)

// HistoryService answers read-only queries over both transition histories.
type HistoryService struct {
	uow adapters.UnitOfWork
}

func (s *HistoryService) GetStatus(ctx context.Context, id int64) (domain.StatusHistory, error) {
	var h domain.StatusHistory
	err := s.uow.Do(ctx, func(ctx context.Context, repos adapters.Repositories) (err error) {
		h, err = repos.History().GetStatus(ctx, id)
		return err
	})
	return h, err
}

func (s *HistoryService) ListStatus(ctx context.Context, f domain.HistoryFilter, page domain.Page) (domain.PageResult[domain.StatusHistory], error) {
	if err := validateHistoryFilter(f, func(v string) bool { return domain.OrderStatus(v).Valid() }); err != nil {
		return domain.PageResult[domain.StatusHistory]{}, err
	}
	var res domain.PageResult[domain.StatusHistory]
	err := s.uow.Do(ctx, func(ctx context.Context, repos adapters.Repositories) (err error) {
		res, err = repos.History().ListStatus(ctx, f, page.Normalize())
		return err
	})
	return res, err
}

func (s *HistoryService) GetPaymentStatus(ctx context.Context, id int64) (domain.PaymentStatusHistory, error) {
	var h domain.PaymentStatusHistory
	err := s.uow.Do(ctx, func(ctx context.Context, repos adapters.Repositories) (err error) {
		h, err = repos.History().GetPaymentStatus(ctx, id)
		return err
	})
	return h, err
}

func (s *HistoryService) ListPaymentStatus(ctx context.Context, f domain.HistoryFilter, page domain.Page) (domain.PageResult[domain.PaymentStatusHistory], error) {
	if err := validateHistoryFilter(f, func(v string) bool { return domain.PaymentStatus(v).Valid() }); err != nil {
		return domain.PageResult[domain.PaymentStatusHistory]{}, err
	}
	var res domain.PageResult[domain.PaymentStatusHistory]
	err := s.uow.Do(ctx, func(ctx context.Context, repos adapters.Repositories) (err error) {
		res, err = repos.History().ListPaymentStatus(ctx, f, page.Normalize())
		return err
	})
	return res, err
}

func validateHistoryFilter(f domain.HistoryFilter, valid func(string) bool) error {
	if f.OldValue != "" && !valid(f.OldValue) {
		return domain.InvalidInputf("unknown status %q", f.OldValue)
	}
	if f.NewValue != "" && !valid(f.NewValue) {
		return domain.InvalidInputf("unknown status %q", f.NewValue)
	}
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return domain.InvalidInputf("from is after to")
	}
	return nil
}

func NewHistoryService(uow adapters.UnitOfWork) *HistoryService {
	return &HistoryService{uow: uow}
}
