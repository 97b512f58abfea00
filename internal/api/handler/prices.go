package handler

import (
	"errors"
	"net/http"
	"strings"

	"laundry/internal/domain"
	"laundry/internal/pricing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type SetPriceRequest struct {
	CurrencyCode string           `json:"currency_code" validate:"required,len=3,alpha" example:"TRY"`
	Price        *decimal.Decimal `json:"price" validate:"required" swaggertype:"string" example:"10.00"`
}

type CurrencyOutcomeView struct {
	CurrencyCode string           `json:"currency_code" example:"USD"`
	Price        *decimal.Decimal `json:"price,omitempty" swaggertype:"string" example:"0.29"`
	Error        string           `json:"error,omitempty"`
}

// SyncResponse holds the saved price and the outcome of deriving every other currency.
type SyncResponse struct {
	Price    PriceView             `json:"price"`
	Synced   []CurrencyOutcomeView `json:"synced"`
	Failed   []CurrencyOutcomeView `json:"failed"`
	Degraded bool                  `json:"degraded"`
}

func toSyncResponse(res pricing.SyncResult) SyncResponse {
	out := SyncResponse{
		Price:    toPriceView(res.Price),
		Synced:   make([]CurrencyOutcomeView, 0, len(res.Synced)),
		Failed:   make([]CurrencyOutcomeView, 0, len(res.Failed)),
		Degraded: res.Degraded(),
	}
	for _, o := range res.Synced {
		p := o.Price
		out.Synced = append(out.Synced, CurrencyOutcomeView{CurrencyCode: o.Currency, Price: &p})
	}
	for _, o := range res.Failed {
		// storage details stay in the logs
		msg := "synchronization failed"
		if o.Err != nil && domainKind(o.Err) != "" {
			msg = o.Err.Error()
		}
		out.Failed = append(out.Failed, CurrencyOutcomeView{CurrencyCode: o.Currency, Error: msg})
	}
	return out
}

// CreatePrice godoc
// @Summary Set the price of a service in one currency
// @Description Creates the price and derives the price in every other supported currency
// @Tags Prices
// @Accept json
// @Produce json
// @Param X-Actor-ID header int true "Acting user id"
// @Param serviceID path int true "Service ID"
// @Param request body SetPriceRequest true "Price"
// @Success 201 {object} SyncResponse
// @Failure 400 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Failure 409 {object} errorResponse
// @Failure 503 {object} errorResponse
// @Router /services/{serviceID}/prices [post]
func (h *Handler) CreatePrice(w http.ResponseWriter, r *http.Request) {
	serviceID, err := pathID(r, "serviceID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req SetPriceRequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.prices.CreatePrice(r.Context(), serviceID, req.CurrencyCode, *req.Price)
	if err != nil {
		writeServiceError(w, err, "CreatePrice", "failed to create price")
		return
	}
	writeJSON(w, http.StatusCreated, toSyncResponse(res))
}

// UpdatePrice godoc
// @Summary Change a price record
// @Description Updates currency and price of the record and derives the other currencies again
// @Tags Prices
// @Accept json
// @Produce json
// @Param X-Actor-ID header int true "Acting user id"
// @Param id path int true "Price ID"
// @Param request body SetPriceRequest true "Price"
// @Success 200 {object} SyncResponse
// @Failure 400 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Failure 409 {object} errorResponse
// @Failure 503 {object} errorResponse
// @Router /prices/{id} [put]
func (h *Handler) UpdatePrice(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req SetPriceRequest
	if !h.decode(w, r, &req) {
		return
	}

	res, err := h.prices.UpdatePrice(r.Context(), id, req.CurrencyCode, *req.Price)
	if err != nil {
		writeServiceError(w, err, "UpdatePrice", "failed to update price")
		return
	}
	writeJSON(w, http.StatusOK, toSyncResponse(res))
}

// GetPrice godoc
// @Summary Get a price record
// @Tags Prices
// @Produce json
// @Param id path int true "Price ID"
// @Success 200 {object} PriceView
// @Failure 404 {object} errorResponse
// @Router /prices/{id} [get]
func (h *Handler) GetPrice(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p, err := h.prices.GetPrice(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "GetPrice", "failed to get price")
		return
	}
	writeJSON(w, http.StatusOK, toPriceView(p))
}

// ListServicePrices godoc
// @Summary List the prices of a service
// @Tags Prices
// @Produce json
// @Param serviceID path int true "Service ID"
// @Success 200 {array} PriceView
// @Failure 404 {object} errorResponse
// @Router /services/{serviceID}/prices [get]
func (h *Handler) ListServicePrices(w http.ResponseWriter, r *http.Request) {
	serviceID, err := pathID(r, "serviceID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	list, err := h.prices.ListByService(r.Context(), serviceID)
	if err != nil {
		writeServiceError(w, err, "ListServicePrices", "failed to list prices")
		return
	}
	views := make([]PriceView, len(list))
	for i, p := range list {
		views[i] = toPriceView(p)
	}
	writeJSON(w, http.StatusOK, views)
}

// GetServicePrice godoc
// @Summary Get the price of a service in one currency
// @Tags Prices
// @Produce json
// @Param serviceID path int true "Service ID"
// @Param currency path string true "Currency code"
// @Success 200 {object} PriceView
// @Failure 400 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Router /services/{serviceID}/prices/{currency} [get]
func (h *Handler) GetServicePrice(w http.ResponseWriter, r *http.Request) {
	serviceID, err := pathID(r, "serviceID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	currency := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "currency")))
	p, err := h.prices.GetByServiceAndCurrency(r.Context(), serviceID, currency)
	if err != nil {
		writeServiceError(w, err, "GetServicePrice", "failed to get price")
		return
	}
	writeJSON(w, http.StatusOK, toPriceView(p))
}

// DeletePrice godoc
// @Summary Delete a price record
// @Tags Prices
// @Param X-Actor-ID header int true "Acting user id"
// @Param id path int true "Price ID"
// @Success 204
// @Failure 404 {object} errorResponse
// @Router /prices/{id} [delete]
func (h *Handler) DeletePrice(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err = h.prices.DeletePrice(r.Context(), id); err != nil {
		writeServiceError(w, err, "DeletePrice", "failed to delete price")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// domainKind names the error kind err belongs to, or "" for errors of no known kind.
func domainKind(err error) string {
	for _, k := range []error{domain.ErrNotFound, domain.ErrConflict, domain.ErrInvalidInput, domain.ErrUpstreamUnavailable, domain.ErrTerminalState} {
		if errors.Is(err, k) {
			return k.Error()
		}
	}
	return ""
}
