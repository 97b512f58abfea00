package handler

import (
	"fmt"
	"laundry/internal/domain"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

func queryInt64(q url.Values, key string) (*int64, error) {
	raw := q.Get(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%s must be an integer", key)
	}
	return &v, nil
}

func queryTime(q url.Values, key string) (*time.Time, error) {
	raw := q.Get(key)
	if raw == "" {
		return nil, nil
	}
	v, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be an RFC 3339 timestamp", key)
	}
	return &v, nil
}

func queryDecimal(q url.Values, key string) (*decimal.Decimal, error) {
	raw := q.Get(key)
	if raw == "" {
		return nil, nil
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be a decimal number", key)
	}
	return &v, nil
}

// queryPage reads zero-based page and size. An oversized size is clamped later by Page.Normalize.
func queryPage(q url.Values) (domain.Page, error) {
	var p domain.Page
	if raw := q.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return p, fmt.Errorf("page must be a non-negative integer")
		}
		if n > domain.MaxPageNumber {
			return p, fmt.Errorf("page must not exceed %d", domain.MaxPageNumber)
		}
		p.Number = n
	}
	if raw := q.Get("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return p, fmt.Errorf("size must be a positive integer")
		}
		p.Size = n
	}
	return p, nil
}
