package order

import (
	"context"
	"testing"

	"laundry/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func item(serviceID int64, grams string) domain.OrderItem {
	return domain.OrderItem{ServiceID: serviceID, Quantity: 1, WeightGrams: d(grams)}
}

func explicit(serviceID int64, grams, price string) domain.OrderItem {
	it := item(serviceID, grams)
	p := d(price)
	it.Price = &p
	return it
}

func TestCreate_PricesItemsAndDefaultsStatuses(t *testing.T) {
	store := newMemStore()
	svc, _ := newTestService(store)

	o, err := svc.Create(context.Background(), CreateInput{
		UserID:       3,
		ReferenceNo:  "R-1",
		CurrencyCode: "usd",
		Items:        []domain.OrderItem{item(1, "1000"), explicit(2, "500", "4.50")},
	}, 9)
	require.NoError(t, err)
	require.NotZero(t, o.ID)
	require.Equal(t, "USD", o.CurrencyCode)
	require.Equal(t, domain.OrderStatusPending, o.Status)
	require.Equal(t, domain.PaymentStatusPending, o.PaymentStatus)
	require.True(t, d("14.50").Equal(o.TotalAmount))
	require.True(t, d("4.50").Equal(*o.Items[1].Price))
	require.Empty(t, store.statusHist)
	require.Empty(t, store.paymentHist)
}

func TestCreate_Validation(t *testing.T) {
	store := newMemStore()
	svc, _ := newTestService(store)
	zeroQty := item(1, "100")
	zeroQty.Quantity = 0

	cases := []struct {
		name string
		in   CreateInput
	}{
		{"unsupported currency", CreateInput{UserID: 1, CurrencyCode: "JPY", Items: []domain.OrderItem{item(1, "100")}}},
		{"missing user", CreateInput{CurrencyCode: "TRY", Items: []domain.OrderItem{item(1, "100")}}},
		{"no items", CreateInput{UserID: 1, CurrencyCode: "TRY"}},
		{"zero weight", CreateInput{UserID: 1, CurrencyCode: "TRY", Items: []domain.OrderItem{item(1, "0")}}},
		{"zero quantity", CreateInput{UserID: 1, CurrencyCode: "TRY", Items: []domain.OrderItem{zeroQty}}},
		{"negative price", CreateInput{UserID: 1, CurrencyCode: "TRY", Items: []domain.OrderItem{explicit(1, "10", "-1")}}},
		{"price scale", CreateInput{UserID: 1, CurrencyCode: "TRY", Items: []domain.OrderItem{explicit(1, "10", "1.005")}}},
		{"payment status", CreateInput{UserID: 1, CurrencyCode: "TRY", PaymentStatus: "FREE", Items: []domain.OrderItem{item(1, "100")}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tc.in, 1)
			require.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
	require.Empty(t, store.orders)
}

func TestCreate_PricingFailureWritesNothing(t *testing.T) {
	store := newMemStore()
	pricer := new(MockPricer)
	pricer.On("PriceOrder", mock.Anything, mock.Anything).Return(domain.NotFoundf("no price configured for service 1 in USD"))
	svc, _ := newTestService(store)
	svc.pricer = pricer

	_, err := svc.Create(context.Background(), CreateInput{UserID: 1, CurrencyCode: "USD", Items: []domain.OrderItem{item(1, "1000")}}, 1)
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.Empty(t, store.orders)
}

func TestUpdate_ReplacesItemsAndRecomputesTotal(t *testing.T) {
	store := newMemStore()
	svc, _ := newTestService(store)
	ctx := context.Background()

	o, err := svc.Create(ctx, CreateInput{UserID: 1, CurrencyCode: "TRY", Items: []domain.OrderItem{item(1, "1000")}}, 1)
	require.NoError(t, err)

	updated, err := svc.Update(ctx, o.ID, UpdateInput{
		UserID:       2,
		ReferenceNo:  "NEW",
		CurrencyCode: "TRY",
		Items:        []domain.OrderItem{item(1, "1000"), item(2, "200"), explicit(3, "50", "0.99")},
	}, 1)
	require.NoError(t, err)
	require.Len(t, updated.Items, 3)
	require.True(t, d("20.99").Equal(updated.TotalAmount))
	require.Equal(t, "NEW", updated.ReferenceNo)
	require.Equal(t, int64(2), store.orders[o.ID].UserID)
}

func TestUpdate_CurrencyIsFixed(t *testing.T) {
	store := newMemStore()
	svc, _ := newTestService(store)
	id := seedOrder(store, domain.OrderStatusPending)

	_, err := svc.Update(context.Background(), id, UpdateInput{UserID: 1, CurrencyCode: "EUR", Items: []domain.OrderItem{item(1, "10")}}, 1)
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestUpdate_PaymentStatusChangeWritesHistory(t *testing.T) {
	store := newMemStore()
	svc, _ := newTestService(store)
	id := seedOrder(store, domain.OrderStatusPending)

	o, err := svc.Update(context.Background(), id, UpdateInput{
		UserID: 1, CurrencyCode: "TRY", PaymentStatus: domain.PaymentStatusPaid, Items: []domain.OrderItem{item(1, "10")},
	}, 5)
	require.NoError(t, err)
	require.Equal(t, domain.PaymentStatusPaid, o.PaymentStatus)
	require.Len(t, store.paymentHist, 1)
	require.Equal(t, domain.PaymentStatusPending, store.paymentHist[0].OldStatus)
	require.Equal(t, int64(5), store.paymentHist[0].ChangedBy)
}

func TestPatch_OnlySuppliedFields(t *testing.T) {
	store := newMemStore()
	svc, _ := newTestService(store)
	ctx := context.Background()

	o, err := svc.Create(ctx, CreateInput{UserID: 1, ReferenceNo: "OLD", CurrencyCode: "TRY", Items: []domain.OrderItem{item(1, "1000")}}, 1)
	require.NoError(t, err)

	ref := "PATCHED"
	patched, err := svc.Patch(ctx, o.ID, PatchInput{ReferenceNo: &ref}, 1)
	require.NoError(t, err)
	require.Equal(t, "PATCHED", patched.ReferenceNo)
	require.Equal(t, int64(1), patched.UserID)
	require.True(t, o.TotalAmount.Equal(patched.TotalAmount))
	require.Len(t, patched.Items, 1)

	items := []domain.OrderItem{item(1, "1"), item(1, "2")}
	patched, err = svc.Patch(ctx, o.ID, PatchInput{Items: &items}, 1)
	require.NoError(t, err)
	require.True(t, d("20.00").Equal(patched.TotalAmount))
}

func TestPatch_CurrencyChangeRejected(t *testing.T) {
	store := newMemStore()
	svc, _ := newTestService(store)
	id := seedOrder(store, domain.OrderStatusPending)

	same, other := "try", "GBP"
	_, err := svc.Patch(context.Background(), id, PatchInput{CurrencyCode: &same}, 1)
	require.NoError(t, err)
	_, err = svc.Patch(context.Background(), id, PatchInput{CurrencyCode: &other}, 1)
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestChangePaymentStatus(t *testing.T) {
	store := newMemStore()
	svc, _ := newTestService(store)
	id := seedOrder(store, domain.OrderStatusCompleted)
	ctx := context.Background()

	o, err := svc.ChangePaymentStatus(ctx, id, domain.PaymentStatusPaid, 2)
	require.NoError(t, err)
	require.Equal(t, domain.PaymentStatusPaid, o.PaymentStatus)

	// any value to any other value
	o, err = svc.ChangePaymentStatus(ctx, id, domain.PaymentStatusRefunded, 2)
	require.NoError(t, err)
	require.Equal(t, domain.PaymentStatusRefunded, o.PaymentStatus)
	require.Len(t, store.paymentHist, 2)

	// same value is a no-op
	_, err = svc.ChangePaymentStatus(ctx, id, domain.PaymentStatusRefunded, 2)
	require.NoError(t, err)
	require.Len(t, store.paymentHist, 2)

	_, err = svc.ChangePaymentStatus(ctx, id, "LATE", 2)
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	// order status is untouched
	require.Equal(t, domain.OrderStatusCompleted, store.orders[id].Status)
	require.Empty(t, store.statusHist)
}

func TestList_ValidatesFilter(t *testing.T) {
	store := newMemStore()
	svc, _ := newTestService(store)
	lo, hi := d("10"), d("5")
	bad := domain.OrderStatus("NOPE")

	_, err := svc.List(context.Background(), domain.OrderFilter{MinTotal: &lo, MaxTotal: &hi}, domain.Page{})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = svc.List(context.Background(), domain.OrderFilter{Status: &bad}, domain.Page{})
	require.ErrorIs(t, err, domain.ErrInvalidInput)

	seedOrder(store, domain.OrderStatusPending)
	res, err := svc.List(context.Background(), domain.OrderFilter{}, domain.Page{Size: 500})
	require.NoError(t, err)
	require.EqualValues(t, 1, res.Total)
	require.Equal(t, domain.MaxPageSize, res.Page.Size)
}

func TestGetAndDelete(t *testing.T) {
	store := newMemStore()
	svc, _ := newTestService(store)
	id := seedOrder(store, domain.OrderStatusPending)

	o, err := svc.Get(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, id, o.ID)

	require.NoError(t, svc.Delete(context.Background(), id, 1))
	_, err = svc.Get(context.Background(), id)
	require.ErrorIs(t, err, domain.ErrNotFound)
	require.ErrorIs(t, svc.Delete(context.Background(), id, 1), domain.ErrNotFound)
}

func TestDelete_RefusedOnceHistoryExists(t *testing.T) {
	store := newMemStore()
	svc, _ := newTestService(store)
	id := seedOrder(store, domain.OrderStatusPending)
	ctx := context.Background()

	_, err := svc.AdvanceStatus(ctx, id, 4)
	require.NoError(t, err)

	err = svc.Delete(ctx, id, 4)
	require.ErrorIs(t, err, domain.ErrConflict)
	require.Contains(t, store.orders, id)
	require.Len(t, store.statusHist, 1)
}

func TestTotalEqualsSumOfItems(t *testing.T) {
	store := newMemStore()
	svc, _ := newTestService(store)

	o, err := svc.Create(context.Background(), CreateInput{
		UserID: 1, CurrencyCode: "TRY",
		Items: []domain.OrderItem{item(1, "10"), explicit(1, "10", "3.33"), explicit(2, "10", "0")},
	}, 1)
	require.NoError(t, err)
	sum := decimal.Zero
	for _, it := range o.Items {
		sum = sum.Add(*it.Price)
	}
	require.True(t, sum.Equal(o.TotalAmount))
}
