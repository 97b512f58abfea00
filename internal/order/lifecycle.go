package order

import (
	"context"
	"fmt"
	"laundry/internal/adapters"
	"laundry/internal/domain"

	"github.com/sirupsen/logrus"
)

var nextStatus = map[domain.OrderStatus]domain.OrderStatus{
	domain.OrderStatusPending:    domain.OrderStatusInProgress,
	domain.OrderStatusInProgress: domain.OrderStatusCompleted,
	domain.OrderStatusCompleted:  domain.OrderStatusDelivered,
}

// NextStatus returns the only status an order in current may move to.
func NextStatus(current domain.OrderStatus) (domain.OrderStatus, error) {
	if current == domain.OrderStatusDelivered {
		return "", fmt.Errorf("%w: order is %s", domain.ErrTerminalState, current)
	}
	next, ok := nextStatus[current]
	if !ok {
		return "", domain.InvalidInputf("unknown order status %q", current)
	}
	return next, nil
}

// AdvanceStatus moves the order one step forward and appends the matching history row
// in the same unit of work.
func (s *Service) AdvanceStatus(ctx context.Context, id int64, actor int64) (domain.Order, error) {
	if actor <= 0 {
		return domain.Order{}, domain.InvalidInputf("actor id is required")
	}

	var (
		res domain.Order
		h   domain.StatusHistory
	)
	err := s.uow.Do(ctx, func(ctx context.Context, repos adapters.Repositories) error {
		o, err := repos.Orders().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		next, err := NextStatus(o.Status)
		if err != nil {
			return fmt.Errorf("order %d: %w", id, err)
		}
		if err = repos.Orders().SetStatus(ctx, id, next); err != nil {
			return err
		}
		h, err = repos.History().AppendStatus(ctx, domain.StatusHistory{
			OrderID:   id,
			OldStatus: o.Status,
			NewStatus: next,
			ChangedAt: s.now().UTC(),
			ChangedBy: actor,
		})
		if err != nil {
			return err
		}
		o.Status = next
		res = o
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}

	s.metrics.Transition("status", string(h.NewStatus))
	logrus.WithFields(logrus.Fields{
		"order_id": id,
		"actor_id": actor,
		"from":     h.OldStatus,
		"to":       h.NewStatus,
	}).Info("order status advanced")
	return res, nil
}
