package postgres

import (
	"context"
	"errors"
	"fmt"
	"laundry/internal/domain"
	"time"

	"github.com/jackc/pgx/v5"
)

type HistoryRepository struct {
	db DBTX
}

// historyTable describes one of the two history tables, which differ only in naming.
type historyTable struct {
	name      string
	oldColumn string
	newColumn string
}

var (
	statusHistoryTable = historyTable{
		name:      "order_status_history",
		oldColumn: "old_status",
		newColumn: "new_status",
	}
	paymentHistoryTable = historyTable{
		name:      "order_payment_status_history",
		oldColumn: "old_payment_status",
		newColumn: "new_payment_status",
	}
)

func (t historyTable) columns() string {
	return `id, order_id, ` + t.oldColumn + `, ` + t.newColumn + `, changed_at, changed_by`
}

type historyRow struct {
	ID        int64
	OrderID   int64
	Old       string
	New       string
	ChangedAt time.Time
	ChangedBy int64
}

func scanHistory(row pgx.Row) (historyRow, error) {
	var h historyRow
	err := row.Scan(&h.ID, &h.OrderID, &h.Old, &h.New, &h.ChangedAt, &h.ChangedBy)
	return h, err
}

func (r *HistoryRepository) append(ctx context.Context, t historyTable, h historyRow) (historyRow, error) {
	q := `insert into ` + t.name + ` (order_id, ` + t.oldColumn + `, ` + t.newColumn + `, changed_at, changed_by)
		values ($1, $2, $3, $4, $5)
		returning ` + t.columns()
	stored, err := scanHistory(r.db.QueryRow(ctx, q, h.OrderID, h.Old, h.New, h.ChangedAt, h.ChangedBy))
	if err != nil {
		if pgErrCode(err) == foreignKeyViolation {
			return historyRow{}, domain.NotFoundf("order %d", h.OrderID)
		}
		return historyRow{}, fmt.Errorf("failed to insert into %s: %w", t.name, err)
	}
	return stored, nil
}

func (r *HistoryRepository) get(ctx context.Context, t historyTable, id int64) (historyRow, error) {
	h, err := scanHistory(r.db.QueryRow(ctx, `select `+t.columns()+` from `+t.name+` where id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return historyRow{}, domain.NotFoundf("history entry %d", id)
		}
		return historyRow{}, fmt.Errorf("failed to select %s %d: %w", t.name, id, err)
	}
	return h, nil
}

func (r *HistoryRepository) list(ctx context.Context, t historyTable, f domain.HistoryFilter, page domain.Page) ([]historyRow, int64, error) {
	var w whereBuilder
	if f.OrderID != nil {
		w.add("order_id = ?", *f.OrderID)
	}
	if f.OldValue != "" {
		w.add(t.oldColumn+" = ?", f.OldValue)
	}
	if f.NewValue != "" {
		w.add(t.newColumn+" = ?", f.NewValue)
	}
	if f.From != nil {
		w.add("changed_at >= ?", *f.From)
	}
	if f.To != nil {
		w.add("changed_at <= ?", *f.To)
	}
	if f.ChangedBy != nil {
		w.add("changed_by = ?", *f.ChangedBy)
	}

	var total int64
	if err := r.db.QueryRow(ctx, `select count(*) from `+t.name+w.sql(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count %s: %w", t.name, err)
	}

	where := w.sql()
	q := `select ` + t.columns() + ` from ` + t.name + where + ` order by changed_at, id` + w.page(page.Size, page.Offset())
	rows, err := r.db.Query(ctx, q, w.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query %s: %w", t.name, err)
	}
	defer rows.Close()

	res := make([]historyRow, 0, page.Size)
	for rows.Next() {
		h, scanErr := scanHistory(rows)
		if scanErr != nil {
			return nil, 0, fmt.Errorf("failed to scan %s row: %w", t.name, scanErr)
		}
		res = append(res, h)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating %s: %w", t.name, err)
	}
	return res, total, nil
}

func (r *HistoryRepository) AppendStatus(ctx context.Context, row domain.StatusHistory) (domain.StatusHistory, error) {
	h, err := r.append(ctx, statusHistoryTable, historyRow{
		OrderID:   row.OrderID,
		Old:       string(row.OldStatus),
		New:       string(row.NewStatus),
		ChangedAt: row.ChangedAt,
		ChangedBy: row.ChangedBy,
	})
	if err != nil {
		return domain.StatusHistory{}, err
	}
	return h.status(), nil
}

func (r *HistoryRepository) AppendPaymentStatus(ctx context.Context, row domain.PaymentStatusHistory) (domain.PaymentStatusHistory, error) {
	h, err := r.append(ctx, paymentHistoryTable, historyRow{
		OrderID:   row.OrderID,
		Old:       string(row.OldStatus),
		New:       string(row.NewStatus),
		ChangedAt: row.ChangedAt,
		ChangedBy: row.ChangedBy,
	})
	if err != nil {
		return domain.PaymentStatusHistory{}, err
	}
	return h.payment(), nil
}

func (r *HistoryRepository) GetStatus(ctx context.Context, id int64) (domain.StatusHistory, error) {
	h, err := r.get(ctx, statusHistoryTable, id)
	if err != nil {
		return domain.StatusHistory{}, err
	}
	return h.status(), nil
}

func (r *HistoryRepository) GetPaymentStatus(ctx context.Context, id int64) (domain.PaymentStatusHistory, error) {
	h, err := r.get(ctx, paymentHistoryTable, id)
	if err != nil {
		return domain.PaymentStatusHistory{}, err
	}
	return h.payment(), nil
}

func (r *HistoryRepository) ListStatus(ctx context.Context, f domain.HistoryFilter, page domain.Page) (domain.PageResult[domain.StatusHistory], error) {
	page = page.Normalize()
	rows, total, err := r.list(ctx, statusHistoryTable, f, page)
	if err != nil {
		return domain.PageResult[domain.StatusHistory]{}, err
	}
	items := make([]domain.StatusHistory, len(rows))
	for i, h := range rows {
		items[i] = h.status()
	}
	return domain.PageResult[domain.StatusHistory]{Items: items, Total: total, Page: page}, nil
}

func (r *HistoryRepository) ListPaymentStatus(ctx context.Context, f domain.HistoryFilter, page domain.Page) (domain.PageResult[domain.PaymentStatusHistory], error) {
	page = page.Normalize()
	rows, total, err := r.list(ctx, paymentHistoryTable, f, page)
	if err != nil {
		return domain.PageResult[domain.PaymentStatusHistory]{}, err
	}
	items := make([]domain.PaymentStatusHistory, len(rows))
	for i, h := range rows {
		items[i] = h.payment()
	}
	return domain.PageResult[domain.PaymentStatusHistory]{Items: items, Total: total, Page: page}, nil
}

func (h historyRow) status() domain.StatusHistory {
	return domain.StatusHistory{
		ID:        h.ID,
		OrderID:   h.OrderID,
		OldStatus: domain.OrderStatus(h.Old),
		NewStatus: domain.OrderStatus(h.New),
		ChangedAt: h.ChangedAt,
		ChangedBy: h.ChangedBy,
	}
}

func (h historyRow) payment() domain.PaymentStatusHistory {
	return domain.PaymentStatusHistory{
		ID:        h.ID,
		OrderID:   h.OrderID,
		OldStatus: domain.PaymentStatus(h.Old),
		NewStatus: domain.PaymentStatus(h.New),
		ChangedAt: h.ChangedAt,
		ChangedBy: h.ChangedBy,
	}
}

func NewHistoryRepository(db DBTX) *HistoryRepository {
	return &HistoryRepository{db: db}
}
