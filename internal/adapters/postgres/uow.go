package postgres

import (
	"context"
	"errors"
	"laundry/internal/adapters"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	Query(context.Context, string, ...any) (pgx.Rows, error)
	QueryRow(context.Context, string, ...any) pgx.Row
	SendBatch(context.Context, *pgx.Batch) pgx.BatchResults
}

type UnitOfWork struct {
	pool *pgxpool.Pool
}

func NewUnitOfWork(pool *pgxpool.Pool) *UnitOfWork {
	return &UnitOfWork{pool: pool}
}

// Do runs fn inside a transaction. The transaction is committed only if fn returns nil.
func (u *UnitOfWork) Do(ctx context.Context, fn func(context.Context, adapters.Repositories) error) (err error) {
	tx, err := u.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			err = errors.Join(err, rollbackErr)
		}
	}()

	if err = fn(ctx, newTxRepositories(tx)); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

type txRepositories struct {
	tx      pgx.Tx
	prices  *PriceRepository
	orders  *OrderRepository
	history *HistoryRepository
}

func newTxRepositories(tx pgx.Tx) *txRepositories {
	return &txRepositories{
		tx:      tx,
		prices:  NewPriceRepository(tx),
		orders:  NewOrderRepository(tx),
		history: NewHistoryRepository(tx),
	}
}

func (r *txRepositories) Prices() adapters.PriceRepository    { return r.prices }
func (r *txRepositories) Orders() adapters.OrderRepository    { return r.orders }
func (r *txRepositories) History() adapters.HistoryRepository { return r.history }

// Nested runs fn in a savepoint of the current transaction.
func (r *txRepositories) Nested(ctx context.Context, fn func(context.Context, adapters.Repositories) error) error {
	sp, err := r.tx.Begin(ctx)
	if err != nil {
		return err
	}
	if err = fn(ctx, newTxRepositories(sp)); err != nil {
		if rbErr := sp.Rollback(ctx); rbErr != nil {
			return errors.Join(err, rbErr)
		}
		return err
	}
	return sp.Commit(ctx)
}
