package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"laundry/internal/domain"
	"laundry/internal/order"
	"laundry/internal/pricing"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const maxBodyBytes = 64 << 10

type RateStore interface {
	Snapshot() (*domain.RateTable, bool)
	GetRate(code string) (decimal.Decimal, bool)
}

type Converter interface {
	Convert(amount decimal.Decimal, from, to string) (decimal.Decimal, error)
}

type Refresher interface {
	RefreshRates(ctx context.Context) error
}

type CurrencyValidator interface {
	ValidateCode(code string) error
	SupportedCodes() []string
}

type PriceService interface {
	CreatePrice(ctx context.Context, serviceID int64, currency string, price decimal.Decimal) (pricing.SyncResult, error)
	UpdatePrice(ctx context.Context, id int64, currency string, price decimal.Decimal) (pricing.SyncResult, error)
	GetPrice(ctx context.Context, id int64) (domain.ServicePrice, error)
	ListByService(ctx context.Context, serviceID int64) ([]domain.ServicePrice, error)
	GetByServiceAndCurrency(ctx context.Context, serviceID int64, currency string) (domain.ServicePrice, error)
	DeletePrice(ctx context.Context, id int64) error
}

type OrderService interface {
	Create(ctx context.Context, in order.CreateInput, actor int64) (domain.Order, error)
	Update(ctx context.Context, id int64, in order.UpdateInput, actor int64) (domain.Order, error)
	Patch(ctx context.Context, id int64, in order.PatchInput, actor int64) (domain.Order, error)
	Get(ctx context.Context, id int64) (domain.Order, error)
	List(ctx context.Context, f domain.OrderFilter, page domain.Page) (domain.PageResult[domain.Order], error)
	Delete(ctx context.Context, id int64, actor int64) error
	AdvanceStatus(ctx context.Context, id int64, actor int64) (domain.Order, error)
	ChangePaymentStatus(ctx context.Context, id int64, status domain.PaymentStatus, actor int64) (domain.Order, error)
}

type HistoryService interface {
	GetStatus(ctx context.Context, id int64) (domain.StatusHistory, error)
	ListStatus(ctx context.Context, f domain.HistoryFilter, page domain.Page) (domain.PageResult[domain.StatusHistory], error)
	GetPaymentStatus(ctx context.Context, id int64) (domain.PaymentStatusHistory, error)
	ListPaymentStatus(ctx context.Context, f domain.HistoryFilter, page domain.Page) (domain.PageResult[domain.PaymentStatusHistory], error)
}

type Deps struct {
	Rates      RateStore
	Converter  Converter
	Refresher  Refresher
	Currencies CurrencyValidator
	Prices     PriceService
	Orders     OrderService
	History    HistoryService
}

type Handler struct {
	rates      RateStore
	converter  Converter
	refresher  Refresher
	currencies CurrencyValidator
	prices     PriceService
	orders     OrderService
	history    HistoryService
	validate   *validator.Validate
}

func NewHandler(d Deps) *Handler {
	return &Handler{
		rates:      d.Rates,
		converter:  d.Converter,
		refresher:  d.Refresher,
		currencies: d.Currencies,
		prices:     d.Prices,
		orders:     d.Orders,
		history:    d.History,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, statusCode int, errorMsg string) {
	writeJSON(w, statusCode, errorResponse{Error: errorMsg})
}

func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}

// writeServiceError maps an error kind to a status code. Errors of no known kind are logged
// and answered with msg only.
func writeServiceError(w http.ResponseWriter, err error, handlerName, msg string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrTerminalState):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		logrus.WithError(err).WithField("handler", handlerName).Warn("upstream unavailable")
		writeError(w, http.StatusServiceUnavailable, "exchange rates are currently unavailable")
	default:
		logrus.WithError(err).WithField("handler", handlerName).Error(msg)
		writeError(w, http.StatusInternalServerError, msg)
	}
}

// decode reads a JSON body of at most maxBodyBytes into dst and runs struct validation.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "invalid request body"
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if fe.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s must satisfy %s=%s", fe.Namespace(), fe.Tag(), fe.Param()))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s must satisfy %s", fe.Namespace(), fe.Tag()))
	}
	return strings.Join(parts, "; ")
}

func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer", name)
	}
	return id, nil
}
