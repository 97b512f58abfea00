package rate

import (
	"context"
	"fmt"
	"laundry/internal/adapters"
	"laundry/internal/domain"
	"laundry/internal/platform/metrics"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const defaultFetchTimeout = 10 * time.Second

type Refresher struct {
	// mu serializes refreshes so an older fetch never overwrites a newer table.
	mu       sync.Mutex
	client   adapters.FeedClient
	parser   Parser
	store    *Store
	required []string
	timeout  time.Duration
	metrics  *metrics.Metrics
	now      func() time.Time
}

// RefreshRates fetches the feed, builds a complete table and swaps it in. On any failure the
// previous table stays in place and an error wrapping domain.ErrUpstreamUnavailable is returned.
// Overlapping calls (startup, cron, manual) run one after another.
func (r *Refresher) RefreshRates(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	execID := uuid.NewString()
	log := logrus.WithField("exec_id", execID)

	table, err := r.buildTable(ctx)
	if err != nil {
		r.metrics.RefreshFailed()
		log.WithError(err).Error("Rate refresh failed, keeping previous table")
		return err
	}
	if err = r.store.Swap(table); err != nil {
		r.metrics.RefreshFailed()
		return err
	}
	r.metrics.RefreshSucceeded(table.FetchedAt)
	log.Infof("Rate table refreshed with %d currencies", len(table.Rates))
	return nil
}

func (r *Refresher) buildTable(ctx context.Context) (*domain.RateTable, error) {
	// STEP 1: fetch with a bounded timeout; a slow feed is a failed refresh, not a stuck one
	fetchCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	raw, err := r.client.Fetch(fetchCtx)
	if err != nil {
		return nil, err
	}

	// STEP 2: parse into code -> rate pairs
	rates, err := r.parser.Parse(raw)
	if err != nil {
		return nil, err
	}

	// STEP 3: a table that cannot price every supported currency is not published
	table := domain.NewRateTable(r.store.Pivot(), rates, r.now())
	for _, code := range r.required {
		if _, ok := table.Rate(code); !ok {
			return nil, fmt.Errorf("%w: feed has no rate for supported currency %s", domain.ErrParse, code)
		}
	}
	return table, nil
}

func NewRefresher(client adapters.FeedClient, parser Parser, store *Store, required []string, timeout time.Duration, m *metrics.Metrics) *Refresher {
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	return &Refresher{
		client:   client,
		parser:   parser,
		store:    store,
		required: required,
		timeout:  timeout,
		metrics:  m,
		now:      time.Now,
	}
}
