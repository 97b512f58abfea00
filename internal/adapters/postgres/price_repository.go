package postgres

import (
	"context"
	"errors"
	"fmt"
	"laundry/internal/adapters"
	"laundry/internal/domain"

	"github.com/jackc/pgx/v5"
)

type PriceRepository struct {
	db DBTX
}

const priceColumns = `id, service_id, currency_code, price, created_at, updated_at`

func scanPrice(row pgx.Row) (domain.ServicePrice, error) {
	var p domain.ServicePrice
	err := row.Scan(&p.ID, &p.ServiceID, &p.CurrencyCode, &p.Price, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *PriceRepository) ServiceExists(ctx context.Context, serviceID int64) (bool, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, `select exists(select 1 from services where id = $1)`, serviceID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check service %d: %w", serviceID, err)
	}
	return exists, nil
}

func (r *PriceRepository) GetByID(ctx context.Context, id int64) (domain.ServicePrice, error) {
	p, err := scanPrice(r.db.QueryRow(ctx, `select `+priceColumns+` from service_prices where id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ServicePrice{}, domain.NotFoundf("service price %d", id)
		}
		return domain.ServicePrice{}, fmt.Errorf("failed to select service price %d: %w", id, err)
	}
	return p, nil
}

func (r *PriceRepository) GetByServiceAndCurrency(ctx context.Context, serviceID int64, currency string) (domain.ServicePrice, error) {
	const q = `select ` + priceColumns + ` from service_prices where service_id = $1 and currency_code = $2`
	p, err := scanPrice(r.db.QueryRow(ctx, q, serviceID, currency))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ServicePrice{}, domain.NotFoundf("no price configured for service %d in %s", serviceID, currency)
		}
		return domain.ServicePrice{}, fmt.Errorf("failed to select price for service %d in %s: %w", serviceID, currency, err)
	}
	return p, nil
}

func (r *PriceRepository) ListByService(ctx context.Context, serviceID int64) ([]domain.ServicePrice, error) {
	rows, err := r.db.Query(ctx, `select `+priceColumns+` from service_prices where service_id = $1 order by currency_code`, serviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query prices of service %d: %w", serviceID, err)
	}
	defer rows.Close()

	prices := make([]domain.ServicePrice, 0, 4)
	for rows.Next() {
		p, scanErr := scanPrice(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan service price: %w", scanErr)
		}
		prices = append(prices, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating service prices: %w", err)
	}
	return prices, nil
}

func (r *PriceRepository) Create(ctx context.Context, price domain.ServicePrice) (domain.ServicePrice, error) {
	const q = `
		insert into service_prices (service_id, currency_code, price)
		values ($1, $2, $3)
		returning ` + priceColumns
	p, err := scanPrice(r.db.QueryRow(ctx, q, price.ServiceID, price.CurrencyCode, price.Price))
	if err != nil {
		switch pgErrCode(err) {
		case uniqueViolation:
			return domain.ServicePrice{}, domain.Conflictf("price in %s already exists for service %d", price.CurrencyCode, price.ServiceID)
		case foreignKeyViolation:
			return domain.ServicePrice{}, domain.NotFoundf("service %d", price.ServiceID)
		}
		return domain.ServicePrice{}, fmt.Errorf("failed to insert service price: %w", err)
	}
	return p, nil
}

func (r *PriceRepository) Update(ctx context.Context, price domain.ServicePrice) (domain.ServicePrice, error) {
	const q = `
		update service_prices
		set currency_code = $2, price = $3, updated_at = now()
		where id = $1
		returning ` + priceColumns
	p, err := scanPrice(r.db.QueryRow(ctx, q, price.ID, price.CurrencyCode, price.Price))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ServicePrice{}, domain.NotFoundf("service price %d", price.ID)
		}
		if pgErrCode(err) == uniqueViolation {
			return domain.ServicePrice{}, domain.Conflictf("price in %s already exists for service %d", price.CurrencyCode, price.ServiceID)
		}
		return domain.ServicePrice{}, fmt.Errorf("failed to update service price %d: %w", price.ID, err)
	}
	return p, nil
}

// UpsertBatch creates or overwrites one price per (service, currency) in a single round trip.
func (r *PriceRepository) UpsertBatch(ctx context.Context, prices []adapters.PriceUpsert) error {
	if len(prices) == 0 {
		return nil
	}
	const q = `
		insert into service_prices (service_id, currency_code, price)
		values ($1, $2, $3)
		on conflict (service_id, currency_code) do update
		set price = excluded.price, updated_at = now()`

	batch := &pgx.Batch{}
	for _, p := range prices {
		batch.Queue(q, p.ServiceID, p.CurrencyCode, p.Price)
	}
	br := r.db.SendBatch(ctx, batch)
	for _, p := range prices {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("failed to upsert price for service %d in %s: %w", p.ServiceID, p.CurrencyCode, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to close upsert batch: %w", err)
	}
	return nil
}

func (r *PriceRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `delete from service_prices where id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete service price %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFoundf("service price %d", id)
	}
	return nil
}

func NewPriceRepository(db DBTX) *PriceRepository {
	return &PriceRepository{db: db}
}
