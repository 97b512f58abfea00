package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"laundry/internal/api/handler"
	"laundry/internal/domain"
	"laundry/internal/platform/metrics"
	"laundry/internal/rate"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

type stubRefresher struct{ called int }

func (s *stubRefresher) RefreshRates(context.Context) error {
	s.called++
	return domain.ErrUpstreamUnavailable
}

func newTestRouter(t *testing.T) (http.Handler, *metrics.Metrics, *stubRefresher) {
	t.Helper()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	store := rate.NewStore("TRY")
	refresher := &stubRefresher{}
	h := handler.NewHandler(handler.Deps{
		Rates:      store,
		Converter:  rate.NewConverter(store),
		Refresher:  refresher,
		Currencies: rate.NewValidator([]string{"TRY", "USD", "EUR", "GBP"}),
	})
	return NewRouter(h, m, reg), m, refresher
}

func TestRouter_Healthz(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rr.Code)
}

func TestRouter_RequestIDIsEchoedOrAssigned(t *testing.T) {
	router, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/rates/supported-currencies", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "abc-123", rr.Header().Get("X-Request-ID"))

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/rates/supported-currencies", nil))
	require.Len(t, rr.Header().Get("X-Request-ID"), 36)
}

func TestRouter_MutatingRoutesRequireActor(t *testing.T) {
	router, _, refresher := newTestRouter(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/api/v1/orders"},
		{http.MethodPut, "/api/v1/orders/1"},
		{http.MethodPatch, "/api/v1/orders/1"},
		{http.MethodDelete, "/api/v1/orders/1"},
		{http.MethodPost, "/api/v1/orders/1/advance"},
		{http.MethodPost, "/api/v1/orders/1/payment-status"},
		{http.MethodPost, "/api/v1/services/1/prices"},
		{http.MethodPut, "/api/v1/prices/1"},
		{http.MethodDelete, "/api/v1/prices/1"},
		{http.MethodPost, "/api/v1/rates/refresh"},
	} {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, httptest.NewRequest(tc.method, tc.path, strings.NewReader(`{}`)))
			require.Equal(t, http.StatusUnauthorized, rr.Code)
		})
	}
	require.Zero(t, refresher.called)
}

func TestRouter_RefreshWithActorReachesHandler(t *testing.T) {
	router, _, refresher := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/rates/refresh", nil)
	req.Header.Set(handler.ActorHeader, "42")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	require.Equal(t, 1, refresher.called)
}

func TestRouter_RatesUnavailableBeforeFirstRefresh(t *testing.T) {
	router, _, _ := newTestRouter(t)

	for _, path := range []string{"/api/v1/rates", "/api/v1/rates/USD"} {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusServiceUnavailable, rr.Code, path)
	}
}

func TestRouter_ObservesRoutePattern(t *testing.T) {
	router, m, _ := newTestRouter(t)

	for _, code := range []string{"USD", "EUR"} {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/rates/"+code, nil))
	}

	require.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/api/v1/rates/{code}", "503")))
}

func TestRouter_Metrics(t *testing.T) {
	router, _, _ := newTestRouter(t)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/rates/supported-currencies", nil))

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "laundry_http_requests_total")
}
