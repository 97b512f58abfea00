package postgres

import (
	"context"
	"errors"
	"fmt"
	"laundry/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type OrderRepository struct {
	db DBTX
}

const orderColumns = `id, user_id, reference_no, currency_code, total_amount, status, payment_status, created_at, updated_at`

func scanOrder(row pgx.Row) (domain.Order, error) {
	var o domain.Order
	err := row.Scan(&o.ID, &o.UserID, &o.ReferenceNo, &o.CurrencyCode, &o.TotalAmount,
		&o.Status, &o.PaymentStatus, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

func (r *OrderRepository) Create(ctx context.Context, order domain.Order) (domain.Order, error) {
	const q = `
		insert into orders (user_id, reference_no, currency_code, total_amount, status, payment_status)
		values ($1, $2, $3, $4, $5, $6)
		returning ` + orderColumns
	created, err := scanOrder(r.db.QueryRow(ctx, q, order.UserID, order.ReferenceNo, order.CurrencyCode,
		order.TotalAmount, order.Status, order.PaymentStatus))
	if err != nil {
		return domain.Order{}, fmt.Errorf("failed to insert order: %w", err)
	}
	items, err := r.insertItems(ctx, created.ID, order.Items)
	if err != nil {
		return domain.Order{}, err
	}
	created.Items = items
	return created, nil
}

func (r *OrderRepository) insertItems(ctx context.Context, orderID int64, items []domain.OrderItem) ([]domain.OrderItem, error) {
	if len(items) == 0 {
		return []domain.OrderItem{}, nil
	}
	const q = `
		insert into order_items (order_id, service_id, quantity, weight_grams, price_amount)
		values ($1, $2, $3, $4, $5)
		returning id`

	batch := &pgx.Batch{}
	for _, it := range items {
		if it.Price == nil {
			return nil, fmt.Errorf("%w: item for service %d has no resolved price", domain.ErrInvalidInput, it.ServiceID)
		}
		batch.Queue(q, orderID, it.ServiceID, it.Quantity, it.WeightGrams, *it.Price)
	}
	br := r.db.SendBatch(ctx, batch)
	defer func() { _ = br.Close() }()

	stored := make([]domain.OrderItem, len(items))
	for i, it := range items {
		it.OrderID = orderID
		if err := br.QueryRow().Scan(&it.ID); err != nil {
			switch pgErrCode(err) {
			case foreignKeyViolation:
				return nil, domain.NotFoundf("service %d", it.ServiceID)
			case checkViolation:
				return nil, domain.InvalidInputf("item for service %d violates weight/quantity constraints", it.ServiceID)
			}
			return nil, fmt.Errorf("failed to insert order item: %w", err)
		}
		stored[i] = it
	}
	return stored, nil
}

func (r *OrderRepository) Get(ctx context.Context, id int64) (domain.Order, error) {
	return r.get(ctx, id, false)
}

func (r *OrderRepository) GetForUpdate(ctx context.Context, id int64) (domain.Order, error) {
	return r.get(ctx, id, true)
}

func (r *OrderRepository) get(ctx context.Context, id int64, lock bool) (domain.Order, error) {
	q := `select ` + orderColumns + ` from orders where id = $1`
	if lock {
		q += ` for update`
	}
	o, err := scanOrder(r.db.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Order{}, domain.NotFoundf("order %d", id)
		}
		return domain.Order{}, fmt.Errorf("failed to select order %d: %w", id, err)
	}
	itemsByOrder, err := r.loadItems(ctx, []int64{id})
	if err != nil {
		return domain.Order{}, err
	}
	o.Items = itemsByOrder[id]
	if o.Items == nil {
		o.Items = []domain.OrderItem{}
	}
	return o, nil
}

func (r *OrderRepository) loadItems(ctx context.Context, orderIDs []int64) (map[int64][]domain.OrderItem, error) {
	const q = `
		select id, order_id, service_id, quantity, weight_grams, price_amount
		from order_items where order_id = any($1) order by order_id, id`
	rows, err := r.db.Query(ctx, q, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	res := make(map[int64][]domain.OrderItem, len(orderIDs))
	for rows.Next() {
		var it domain.OrderItem
		var price decimal.Decimal
		if err = rows.Scan(&it.ID, &it.OrderID, &it.ServiceID, &it.Quantity, &it.WeightGrams, &price); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		it.Price = &price
		res[it.OrderID] = append(res[it.OrderID], it)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order items: %w", err)
	}
	return res, nil
}

func (r *OrderRepository) List(ctx context.Context, f domain.OrderFilter, page domain.Page) (domain.PageResult[domain.Order], error) {
	page = page.Normalize()
	var w whereBuilder
	if f.UserID != nil {
		w.add("user_id = ?", *f.UserID)
	}
	if f.Status != nil {
		w.add("status = ?", *f.Status)
	}
	if f.CreatedFrom != nil {
		w.add("created_at >= ?", *f.CreatedFrom)
	}
	if f.CreatedTo != nil {
		w.add("created_at <= ?", *f.CreatedTo)
	}
	if f.MinTotal != nil {
		w.add("total_amount >= ?", *f.MinTotal)
	}
	if f.MaxTotal != nil {
		w.add("total_amount <= ?", *f.MaxTotal)
	}
	if f.ReferenceMatch != "" {
		w.add("reference_no like '%' || ? || '%'", f.ReferenceMatch)
	}

	res := domain.PageResult[domain.Order]{Items: []domain.Order{}, Page: page}
	if err := r.db.QueryRow(ctx, `select count(*) from orders`+w.sql(), w.args...).Scan(&res.Total); err != nil {
		return res, fmt.Errorf("failed to count orders: %w", err)
	}

	where := w.sql()
	q := `select ` + orderColumns + ` from orders` + where + ` order by created_at desc, id desc` + w.page(page.Size, page.Offset())
	rows, err := r.db.Query(ctx, q, w.args...)
	if err != nil {
		return res, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	ids := make([]int64, 0, page.Size)
	for rows.Next() {
		o, scanErr := scanOrder(rows)
		if scanErr != nil {
			return res, fmt.Errorf("failed to scan order: %w", scanErr)
		}
		res.Items = append(res.Items, o)
		ids = append(ids, o.ID)
	}
	if err = rows.Err(); err != nil {
		return res, fmt.Errorf("error iterating orders: %w", err)
	}
	rows.Close()

	if len(ids) == 0 {
		return res, nil
	}
	itemsByOrder, err := r.loadItems(ctx, ids)
	if err != nil {
		return res, err
	}
	for i := range res.Items {
		res.Items[i].Items = itemsByOrder[res.Items[i].ID]
		if res.Items[i].Items == nil {
			res.Items[i].Items = []domain.OrderItem{}
		}
	}
	return res, nil
}

func (r *OrderRepository) Update(ctx context.Context, order domain.Order, replaceItems bool) (domain.Order, error) {
	const q = `
		update orders
		set user_id = $2, reference_no = $3, total_amount = $4, updated_at = now()
		where id = $1
		returning ` + orderColumns
	updated, err := scanOrder(r.db.QueryRow(ctx, q, order.ID, order.UserID, order.ReferenceNo, order.TotalAmount))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Order{}, domain.NotFoundf("order %d", order.ID)
		}
		return domain.Order{}, fmt.Errorf("failed to update order %d: %w", order.ID, err)
	}

	if !replaceItems {
		updated.Items = order.Items
		return updated, nil
	}
	if _, err = r.db.Exec(ctx, `delete from order_items where order_id = $1`, order.ID); err != nil {
		return domain.Order{}, fmt.Errorf("failed to delete items of order %d: %w", order.ID, err)
	}
	if updated.Items, err = r.insertItems(ctx, order.ID, order.Items); err != nil {
		return domain.Order{}, err
	}
	return updated, nil
}

func (r *OrderRepository) SetStatus(ctx context.Context, id int64, status domain.OrderStatus) error {
	return r.setColumn(ctx, id, "status", string(status))
}

func (r *OrderRepository) SetPaymentStatus(ctx context.Context, id int64, status domain.PaymentStatus) error {
	return r.setColumn(ctx, id, "payment_status", string(status))
}

// setColumn is only called with the two status column names above.
func (r *OrderRepository) setColumn(ctx context.Context, id int64, column, value string) error {
	tag, err := r.db.Exec(ctx, `update orders set `+column+` = $2, updated_at = now() where id = $1`, id, value)
	if err != nil {
		return fmt.Errorf("failed to set %s of order %d: %w", column, id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFoundf("order %d", id)
	}
	return nil
}

func (r *OrderRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `delete from orders where id = $1`, id)
	if err != nil {
		if pgErrCode(err) == foreignKeyViolation {
			return domain.Conflictf("order %d has transition history", id)
		}
		return fmt.Errorf("failed to delete order %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFoundf("order %d", id)
	}
	return nil
}

func NewOrderRepository(db DBTX) *OrderRepository {
	return &OrderRepository{db: db}
}
