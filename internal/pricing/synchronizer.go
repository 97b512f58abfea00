package pricing

import (
	"context"
	"errors"
	"fmt"
	"laundry/internal/adapters"
	"laundry/internal/domain"
	"laundry/internal/platform/metrics"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type CurrencyConverter interface {
	Convert(amount decimal.Decimal, from, to string) (decimal.Decimal, error)
	Pivot() string
	Loaded() bool
}

type CurrencySet interface {
	ValidateCode(code string) error
	SupportedCodes() []string
}

// CurrencyOutcome is the result of deriving the price in one currency.
type CurrencyOutcome struct {
	Currency string
	Price    decimal.Decimal
	Err      error
}

// SyncResult reports the authoritative price and what happened to every derived currency.
type SyncResult struct {
	Price  domain.ServicePrice
	Synced []CurrencyOutcome
	Failed []CurrencyOutcome
}

func (r SyncResult) Degraded() bool { return len(r.Failed) > 0 }

type Synchronizer struct {
	uow        adapters.UnitOfWork
	converter  CurrencyConverter
	currencies CurrencySet
	cache      adapters.PriceCache
	metrics    *metrics.Metrics
}

func (s *Synchronizer) CreatePrice(ctx context.Context, serviceID int64, currency string, price decimal.Decimal) (SyncResult, error) {
	currency, price, err := s.validate(currency, price)
	if err != nil {
		return SyncResult{}, err
	}

	var res SyncResult
	err = s.uow.Do(ctx, func(ctx context.Context, repos adapters.Repositories) error {
		res = SyncResult{}
		prices := repos.Prices()
		if err := s.requireService(ctx, prices, serviceID); err != nil {
			return err
		}
		_, err := prices.GetByServiceAndCurrency(ctx, serviceID, currency)
		switch {
		case err == nil:
			return domain.Conflictf("price in %s already exists for service %d", currency, serviceID)
		case !errors.Is(err, domain.ErrNotFound):
			return err
		}

		created, err := prices.Create(ctx, domain.ServicePrice{ServiceID: serviceID, CurrencyCode: currency, Price: price})
		if err != nil {
			return err
		}
		res.Price = created
		res.Synced, res.Failed = s.cascade(ctx, repos, serviceID, currency, price)
		return nil
	})
	if err != nil {
		return SyncResult{}, err
	}
	s.afterCommit(res)
	return res, nil
}

func (s *Synchronizer) UpdatePrice(ctx context.Context, id int64, currency string, price decimal.Decimal) (SyncResult, error) {
	currency, price, err := s.validate(currency, price)
	if err != nil {
		return SyncResult{}, err
	}

	var res SyncResult
	err = s.uow.Do(ctx, func(ctx context.Context, repos adapters.Repositories) error {
		res = SyncResult{}
		prices := repos.Prices()
		existing, err := prices.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if existing.CurrencyCode != currency {
			_, err = prices.GetByServiceAndCurrency(ctx, existing.ServiceID, currency)
			switch {
			case err == nil:
				return domain.Conflictf("price in %s already exists for service %d", currency, existing.ServiceID)
			case !errors.Is(err, domain.ErrNotFound):
				return err
			}
		}

		existing.CurrencyCode = currency
		existing.Price = price
		updated, err := prices.Update(ctx, existing)
		if err != nil {
			return err
		}
		res.Price = updated
		res.Synced, res.Failed = s.cascade(ctx, repos, existing.ServiceID, currency, price)
		return nil
	})
	if err != nil {
		return SyncResult{}, err
	}
	s.afterCommit(res)
	return res, nil
}

func (s *Synchronizer) GetPrice(ctx context.Context, id int64) (domain.ServicePrice, error) {
	var p domain.ServicePrice
	err := s.uow.Do(ctx, func(ctx context.Context, repos adapters.Repositories) (err error) {
		p, err = repos.Prices().GetByID(ctx, id)
		return err
	})
	return p, err
}

func (s *Synchronizer) ListByService(ctx context.Context, serviceID int64) ([]domain.ServicePrice, error) {
	var list []domain.ServicePrice
	err := s.uow.Do(ctx, func(ctx context.Context, repos adapters.Repositories) (err error) {
		if err = s.requireService(ctx, repos.Prices(), serviceID); err != nil {
			return err
		}
		list, err = repos.Prices().ListByService(ctx, serviceID)
		return err
	})
	return list, err
}

func (s *Synchronizer) GetByServiceAndCurrency(ctx context.Context, serviceID int64, currency string) (domain.ServicePrice, error) {
	currency = normalizeCode(currency)
	if err := s.currencies.ValidateCode(currency); err != nil {
		return domain.ServicePrice{}, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	if p, ok := s.cache.Get(serviceID, currency); ok {
		return p, nil
	}
	version := s.cache.Version(serviceID)
	var p domain.ServicePrice
	err := s.uow.Do(ctx, func(ctx context.Context, repos adapters.Repositories) (err error) {
		p, err = repos.Prices().GetByServiceAndCurrency(ctx, serviceID, currency)
		return err
	})
	if err != nil {
		return domain.ServicePrice{}, err
	}
	s.cache.Set(p, version)
	return p, nil
}

// DeletePrice removes one price record. Sibling currencies are left as they are.
func (s *Synchronizer) DeletePrice(ctx context.Context, id int64) error {
	var deleted domain.ServicePrice
	err := s.uow.Do(ctx, func(ctx context.Context, repos adapters.Repositories) (err error) {
		if deleted, err = repos.Prices().GetByID(ctx, id); err != nil {
			return err
		}
		return repos.Prices().Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.cache.InvalidateService(deleted.ServiceID, []string{deleted.CurrencyCode})
	return nil
}

func (s *Synchronizer) validate(currency string, price decimal.Decimal) (string, decimal.Decimal, error) {
	currency = normalizeCode(currency)
	if err := s.currencies.ValidateCode(currency); err != nil {
		return "", decimal.Decimal{}, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	price = domain.RoundMoney(price)
	if !price.IsPositive() {
		return "", decimal.Decimal{}, domain.InvalidInputf("price must be positive")
	}
	if !s.converter.Loaded() {
		return "", decimal.Decimal{}, fmt.Errorf("%w: exchange rates have not been loaded yet", domain.ErrUpstreamUnavailable)
	}
	return currency, price, nil
}

func (s *Synchronizer) requireService(ctx context.Context, prices adapters.PriceRepository, serviceID int64) error {
	ok, err := prices.ServiceExists(ctx, serviceID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.NotFoundf("service %d", serviceID)
	}
	return nil
}

// cascade derives the price of every other supported currency from price and upserts them
// in a savepoint, so a storage failure here never undoes the source price.
func (s *Synchronizer) cascade(ctx context.Context, repos adapters.Repositories, serviceID int64, source string, price decimal.Decimal) ([]CurrencyOutcome, []CurrencyOutcome) {
	synced := make([]CurrencyOutcome, 0, 4)
	failed := make([]CurrencyOutcome, 0)

	pivot := s.converter.Pivot()
	inPivot, pivotErr := s.converter.Convert(price, source, pivot)

	var pending []CurrencyOutcome
	for _, code := range s.currencies.SupportedCodes() {
		if code == source {
			continue
		}
		if pivotErr != nil {
			failed = append(failed, CurrencyOutcome{Currency: code, Err: pivotErr})
			continue
		}
		derived, err := s.converter.Convert(inPivot, pivot, code)
		if err != nil {
			failed = append(failed, CurrencyOutcome{Currency: code, Err: err})
			continue
		}
		derived = domain.RoundMoney(derived)
		if !derived.IsPositive() {
			failed = append(failed, CurrencyOutcome{Currency: code, Price: derived, Err: domain.InvalidInputf("derived price in %s rounds to zero", code)})
			continue
		}
		pending = append(pending, CurrencyOutcome{Currency: code, Price: derived})
	}

	if len(pending) > 0 {
		upserts := make([]adapters.PriceUpsert, len(pending))
		for i, o := range pending {
			upserts[i] = adapters.PriceUpsert{ServiceID: serviceID, CurrencyCode: o.Currency, Price: o.Price}
		}
		err := repos.Nested(ctx, func(ctx context.Context, nested adapters.Repositories) error {
			return nested.Prices().UpsertBatch(ctx, upserts)
		})
		for _, o := range pending {
			if err != nil {
				o.Err = err
				failed = append(failed, o)
			} else {
				synced = append(synced, o)
			}
		}
	}

	for _, o := range failed {
		logrus.WithError(o.Err).WithFields(logrus.Fields{
			"service_id": serviceID,
			"currency":   o.Currency,
			"source":     source,
		}).Warn("price cascade failed for currency")
	}
	return synced, failed
}

func (s *Synchronizer) afterCommit(res SyncResult) {
	for _, o := range res.Synced {
		s.metrics.Cascade(o.Currency, true)
	}
	for _, o := range res.Failed {
		s.metrics.Cascade(o.Currency, false)
	}
	// an update may have moved the record away from another currency
	s.cache.InvalidateService(res.Price.ServiceID, s.currencies.SupportedCodes())

	logrus.WithFields(logrus.Fields{
		"service_id": res.Price.ServiceID,
		"currency":   res.Price.CurrencyCode,
		"synced":     len(res.Synced),
		"failed":     len(res.Failed),
	}).Info("service price saved")
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func NewSynchronizer(uow adapters.UnitOfWork, converter CurrencyConverter, currencies CurrencySet, cache adapters.PriceCache, m *metrics.Metrics) *Synchronizer {
	return &Synchronizer{
		uow:        uow,
		converter:  converter,
		currencies: currencies,
		cache:      cache,
		metrics:    m,
	}
}
