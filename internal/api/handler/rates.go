package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type GetRatesResponse struct {
	Pivot     string                     `json:"pivot" example:"TRY"`
	FetchedAt time.Time                  `json:"fetched_at" example:"2026-01-02T07:00:05Z"`
	Rates     map[string]decimal.Decimal `json:"rates"`
}

// GetRates godoc
// @Summary Current exchange rates
// @Description Rates of every loaded currency, as pivot units per one unit of the currency
// @Tags Rates
// @Produce json
// @Success 200 {object} GetRatesResponse
// @Failure 503 {object} errorResponse
// @Router /rates [get]
func (h *Handler) GetRates(w http.ResponseWriter, _ *http.Request) {
	table, ok := h.rates.Snapshot()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "exchange rates are currently unavailable")
		return
	}
	writeJSON(w, http.StatusOK, GetRatesResponse{
		Pivot:     table.Pivot,
		FetchedAt: table.FetchedAt,
		Rates:     table.Rates,
	})
}

type GetRateResponse struct {
	Code  string          `json:"code" example:"USD"`
	Pivot string          `json:"pivot" example:"TRY"`
	Rate  decimal.Decimal `json:"rate" example:"34.5012"`
}

// GetRate godoc
// @Summary Exchange rate of one currency
// @Tags Rates
// @Produce json
// @Param code path string true "Currency code"
// @Success 200 {object} GetRateResponse
// @Failure 400 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Failure 503 {object} errorResponse
// @Router /rates/{code} [get]
func (h *Handler) GetRate(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "code")))
	if len(code) != 3 {
		writeError(w, http.StatusBadRequest, "currency code must be 3 letters")
		return
	}
	table, ok := h.rates.Snapshot()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "exchange rates are currently unavailable")
		return
	}
	rate, ok := table.Rate(code)
	if !ok {
		writeError(w, http.StatusNotFound, "rate not found")
		return
	}
	writeJSON(w, http.StatusOK, GetRateResponse{Code: code, Pivot: table.Pivot, Rate: rate})
}

type ConvertResponse struct {
	Amount decimal.Decimal `json:"amount" example:"10"`
	From   string          `json:"from" example:"TRY"`
	To     string          `json:"to" example:"USD"`
	Result decimal.Decimal `json:"result" example:"0.2898550724637681"`
}

// Convert godoc
// @Summary Convert an amount between two currencies
// @Description Converts through the pivot currency. The result is not rounded.
// @Tags Rates
// @Produce json
// @Param amount query string true "Amount"
// @Param from query string true "Source currency"
// @Param to query string true "Target currency"
// @Success 200 {object} ConvertResponse
// @Failure 400 {object} errorResponse
// @Failure 503 {object} errorResponse
// @Router /rates/convert [get]
func (h *Handler) Convert(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	amount, err := decimal.NewFromString(q.Get("amount"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "amount must be a decimal number")
		return
	}
	from := strings.ToUpper(strings.TrimSpace(q.Get("from")))
	to := strings.ToUpper(strings.TrimSpace(q.Get("to")))
	if err = h.currencies.ValidateCode(from); err != nil {
		writeError(w, http.StatusBadRequest, "from: "+err.Error())
		return
	}
	if err = h.currencies.ValidateCode(to); err != nil {
		writeError(w, http.StatusBadRequest, "to: "+err.Error())
		return
	}

	result, err := h.converter.Convert(amount, from, to)
	if err != nil {
		writeServiceError(w, err, "Convert", "failed to convert amount")
		return
	}
	writeJSON(w, http.StatusOK, ConvertResponse{Amount: amount, From: from, To: to, Result: result})
}

// RefreshRates godoc
// @Summary Refresh exchange rates now
// @Description Fetches the rate feed and replaces the table; on failure the previous table stays in effect
// @Tags Rates
// @Produce json
// @Param X-Actor-ID header int true "Acting user id"
// @Success 200 {object} GetRatesResponse
// @Failure 503 {object} errorResponse
// @Router /rates/refresh [post]
func (h *Handler) RefreshRates(w http.ResponseWriter, r *http.Request) {
	if err := h.refresher.RefreshRates(r.Context()); err != nil {
		writeServiceError(w, err, "RefreshRates", "failed to refresh rates")
		return
	}
	h.GetRates(w, r)
}
