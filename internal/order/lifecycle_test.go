package order

import (
	"context"
	"errors"
	"testing"
	"time"

	"laundry/internal/domain"
	"laundry/internal/platform/metrics"
	"laundry/internal/rate"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func newTestService(store *memStore) (*Service, *metrics.Metrics) {
	m := metrics.New(prometheus.NewRegistry())
	svc := NewService(fakeUnitOfWork{s: store}, flatPricer(), rate.NewValidator([]string{"TRY", "USD", "EUR", "GBP"}), m)
	svc.now = func() time.Time { return time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC) }
	return svc, m
}

func seedOrder(store *memStore, status domain.OrderStatus) int64 {
	store.nextID++
	id := store.nextID
	store.orders[id] = domain.Order{
		ID:            id,
		UserID:        1,
		CurrencyCode:  "TRY",
		Status:        status,
		PaymentStatus: domain.PaymentStatusPending,
	}
	return id
}

func TestNextStatus(t *testing.T) {
	cases := []struct {
		from domain.OrderStatus
		to   domain.OrderStatus
	}{
		{domain.OrderStatusPending, domain.OrderStatusInProgress},
		{domain.OrderStatusInProgress, domain.OrderStatusCompleted},
		{domain.OrderStatusCompleted, domain.OrderStatusDelivered},
	}
	for _, tc := range cases {
		next, err := NextStatus(tc.from)
		require.NoError(t, err)
		require.Equal(t, tc.to, next)
	}

	_, err := NextStatus(domain.OrderStatusDelivered)
	require.ErrorIs(t, err, domain.ErrTerminalState)

	_, err = NextStatus("SHIPPED")
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAdvanceStatus_FullSequenceWritesThreeHistoryRows(t *testing.T) {
	store := newMemStore()
	svc, m := newTestService(store)
	id := seedOrder(store, domain.OrderStatusPending)
	ctx := context.Background()

	for _, want := range []domain.OrderStatus{domain.OrderStatusInProgress, domain.OrderStatusCompleted, domain.OrderStatusDelivered} {
		o, err := svc.AdvanceStatus(ctx, id, 42)
		require.NoError(t, err)
		require.Equal(t, want, o.Status)
		require.Equal(t, want, store.orders[id].Status)
	}
	require.Equal(t, 3, store.forUpdateHits)

	_, err := svc.AdvanceStatus(ctx, id, 42)
	require.ErrorIs(t, err, domain.ErrTerminalState)

	require.Len(t, store.statusHist, 3)
	require.Equal(t, domain.OrderStatusPending, store.statusHist[0].OldStatus)
	require.Equal(t, domain.OrderStatusInProgress, store.statusHist[0].NewStatus)
	require.Equal(t, domain.OrderStatusCompleted, store.statusHist[2].OldStatus)
	require.Equal(t, domain.OrderStatusDelivered, store.statusHist[2].NewStatus)
	for _, h := range store.statusHist {
		require.Equal(t, id, h.OrderID)
		require.Equal(t, int64(42), h.ChangedBy)
		require.False(t, h.ChangedAt.IsZero())
	}
	require.Equal(t, 1.0, testutil.ToFloat64(m.StatusTransitions.WithLabelValues("status", "DELIVERED")))
}

func TestAdvanceStatus_DeliveredLeavesHistoryUntouched(t *testing.T) {
	store := newMemStore()
	svc, _ := newTestService(store)
	id := seedOrder(store, domain.OrderStatusDelivered)

	_, err := svc.AdvanceStatus(context.Background(), id, 1)
	require.ErrorIs(t, err, domain.ErrTerminalState)
	require.Empty(t, store.statusHist)
	require.Equal(t, domain.OrderStatusDelivered, store.orders[id].Status)
}

func TestAdvanceStatus_UnknownStatus(t *testing.T) {
	store := newMemStore()
	svc, _ := newTestService(store)
	id := seedOrder(store, "LOST")

	_, err := svc.AdvanceStatus(context.Background(), id, 1)
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	require.Empty(t, store.statusHist)
}

func TestAdvanceStatus_HistoryFailureRollsBackStatus(t *testing.T) {
	store := newMemStore()
	svc, _ := newTestService(store)
	id := seedOrder(store, domain.OrderStatusPending)
	store.failAppend = errors.New("disk full")

	_, err := svc.AdvanceStatus(context.Background(), id, 1)
	require.Error(t, err)
	require.Equal(t, domain.OrderStatusPending, store.orders[id].Status)
	require.Empty(t, store.statusHist)
}

func TestAdvanceStatus_MissingOrderOrActor(t *testing.T) {
	store := newMemStore()
	svc, _ := newTestService(store)

	_, err := svc.AdvanceStatus(context.Background(), 99, 1)
	require.ErrorIs(t, err, domain.ErrNotFound)

	id := seedOrder(store, domain.OrderStatusPending)
	_, err = svc.AdvanceStatus(context.Background(), id, 0)
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}
