package handler

import (
	"net/http"

	"laundry/internal/domain"
	"laundry/internal/order"

	"github.com/shopspring/decimal"
)

type OrderItemRequest struct {
	ServiceID   int64            `json:"service_id" validate:"required,gt=0" example:"1"`
	Quantity    int              `json:"quantity" validate:"required,min=1" example:"3"`
	WeightGrams *decimal.Decimal `json:"weight_grams" validate:"required" swaggertype:"string" example:"1023"`
	// Price overrides weight based pricing when set.
	Price *decimal.Decimal `json:"price,omitempty" swaggertype:"string" example:"20.46"`
}

// OrderRequest is used for creating an order and for replacing it as a whole.
type OrderRequest struct {
	UserID        int64              `json:"user_id" validate:"required,gt=0" example:"7"`
	ReferenceNo   string             `json:"reference_no" validate:"max=64" example:"LN-2026-0001"`
	CurrencyCode  string             `json:"currency_code" validate:"required,len=3,alpha" example:"TRY"`
	PaymentStatus string             `json:"payment_status,omitempty" validate:"omitempty,oneof=PENDING PAID CANCELLED REFUNDED" example:"PENDING"`
	Items         []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

type PatchOrderRequest struct {
	UserID        *int64              `json:"user_id,omitempty" validate:"omitempty,gt=0"`
	ReferenceNo   *string             `json:"reference_no,omitempty" validate:"omitempty,max=64"`
	CurrencyCode  *string             `json:"currency_code,omitempty" validate:"omitempty,len=3,alpha"`
	PaymentStatus *string             `json:"payment_status,omitempty" validate:"omitempty,oneof=PENDING PAID CANCELLED REFUNDED"`
	Items         *[]OrderItemRequest `json:"items,omitempty" validate:"omitempty,min=1,dive"`
}

type PaymentStatusRequest struct {
	PaymentStatus string `json:"payment_status" validate:"required,oneof=PENDING PAID CANCELLED REFUNDED" example:"PAID"`
}

func toItems(req []OrderItemRequest) []domain.OrderItem {
	items := make([]domain.OrderItem, len(req))
	for i, it := range req {
		items[i] = domain.OrderItem{
			ServiceID:   it.ServiceID,
			Quantity:    it.Quantity,
			WeightGrams: *it.WeightGrams,
			Price:       it.Price,
		}
	}
	return items
}

// CreateOrder godoc
// @Summary Create an order
// @Description Prices every item by weight unless a price is given and stores the order with its total
// @Tags Orders
// @Accept json
// @Produce json
// @Param X-Actor-ID header int true "Acting user id"
// @Param request body OrderRequest true "Order"
// @Success 201 {object} OrderView
// @Failure 400 {object} errorResponse
// @Failure 404 {object} errorResponse "no price configured"
// @Router /orders [post]
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req OrderRequest
	if !h.decode(w, r, &req) {
		return
	}
	o, err := h.orders.Create(r.Context(), order.CreateInput{
		UserID:        req.UserID,
		ReferenceNo:   req.ReferenceNo,
		CurrencyCode:  req.CurrencyCode,
		PaymentStatus: domain.PaymentStatus(req.PaymentStatus),
		Items:         toItems(req.Items),
	}, actor(r))
	if err != nil {
		writeServiceError(w, err, "CreateOrder", "failed to create order")
		return
	}
	writeJSON(w, http.StatusCreated, toOrderView(o))
}

// UpdateOrder godoc
// @Summary Replace an order
// @Description Replaces fields and items and recomputes the total. The currency cannot change.
// @Tags Orders
// @Accept json
// @Produce json
// @Param X-Actor-ID header int true "Acting user id"
// @Param id path int true "Order ID"
// @Param request body OrderRequest true "Order"
// @Success 200 {object} OrderView
// @Failure 400 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Router /orders/{id} [put]
func (h *Handler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req OrderRequest
	if !h.decode(w, r, &req) {
		return
	}
	o, err := h.orders.Update(r.Context(), id, order.UpdateInput{
		UserID:        req.UserID,
		ReferenceNo:   req.ReferenceNo,
		CurrencyCode:  req.CurrencyCode,
		PaymentStatus: domain.PaymentStatus(req.PaymentStatus),
		Items:         toItems(req.Items),
	}, actor(r))
	if err != nil {
		writeServiceError(w, err, "UpdateOrder", "failed to update order")
		return
	}
	writeJSON(w, http.StatusOK, toOrderView(o))
}

// PatchOrder godoc
// @Summary Change some fields of an order
// @Tags Orders
// @Accept json
// @Produce json
// @Param X-Actor-ID header int true "Acting user id"
// @Param id path int true "Order ID"
// @Param request body PatchOrderRequest true "Fields to change"
// @Success 200 {object} OrderView
// @Failure 400 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Router /orders/{id} [patch]
func (h *Handler) PatchOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req PatchOrderRequest
	if !h.decode(w, r, &req) {
		return
	}
	in := order.PatchInput{
		UserID:       req.UserID,
		ReferenceNo:  req.ReferenceNo,
		CurrencyCode: req.CurrencyCode,
	}
	if req.PaymentStatus != nil {
		ps := domain.PaymentStatus(*req.PaymentStatus)
		in.PaymentStatus = &ps
	}
	if req.Items != nil {
		items := toItems(*req.Items)
		in.Items = &items
	}
	o, err := h.orders.Patch(r.Context(), id, in, actor(r))
	if err != nil {
		writeServiceError(w, err, "PatchOrder", "failed to patch order")
		return
	}
	writeJSON(w, http.StatusOK, toOrderView(o))
}

// GetOrder godoc
// @Summary Get an order
// @Tags Orders
// @Produce json
// @Param id path int true "Order ID"
// @Success 200 {object} OrderView
// @Failure 404 {object} errorResponse
// @Router /orders/{id} [get]
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	o, err := h.orders.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "GetOrder", "failed to get order")
		return
	}
	writeJSON(w, http.StatusOK, toOrderView(o))
}

// ListOrders godoc
// @Summary Search orders
// @Tags Orders
// @Produce json
// @Param user_id query int false "User ID"
// @Param status query string false "Order status"
// @Param created_from query string false "RFC 3339 lower bound"
// @Param created_to query string false "RFC 3339 upper bound"
// @Param min_total query string false "Minimum total"
// @Param max_total query string false "Maximum total"
// @Param reference query string false "Reference number contains"
// @Param page query int false "Zero based page"
// @Param size query int false "Page size"
// @Success 200 {object} PageView[OrderView]
// @Failure 400 {object} errorResponse
// @Router /orders [get]
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var (
		f   domain.OrderFilter
		err error
	)
	if f.UserID, err = queryInt64(q, "user_id"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if raw := q.Get("status"); raw != "" {
		st := domain.OrderStatus(raw)
		f.Status = &st
	}
	if f.CreatedFrom, err = queryTime(q, "created_from"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if f.CreatedTo, err = queryTime(q, "created_to"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if f.MinTotal, err = queryDecimal(q, "min_total"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if f.MaxTotal, err = queryDecimal(q, "max_total"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	f.ReferenceMatch = q.Get("reference")
	page, err := queryPage(q)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.orders.List(r.Context(), f, page)
	if err != nil {
		writeServiceError(w, err, "ListOrders", "failed to list orders")
		return
	}
	writeJSON(w, http.StatusOK, toPageView(res, toOrderView))
}

// DeleteOrder godoc
// @Summary Delete an order
// @Tags Orders
// @Param X-Actor-ID header int true "Acting user id"
// @Param id path int true "Order ID"
// @Success 204
// @Failure 404 {object} errorResponse
// @Failure 409 {object} errorResponse
// @Router /orders/{id} [delete]
func (h *Handler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err = h.orders.Delete(r.Context(), id, actor(r)); err != nil {
		writeServiceError(w, err, "DeleteOrder", "failed to delete order")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AdvanceOrderStatus godoc
// @Summary Move an order to its next status
// @Description PENDING -> IN_PROGRESS -> COMPLETED -> DELIVERED. Every step is recorded in the status history.
// @Tags Orders
// @Produce json
// @Param X-Actor-ID header int true "Acting user id"
// @Param id path int true "Order ID"
// @Success 200 {object} OrderView
// @Failure 404 {object} errorResponse
// @Failure 409 {object} errorResponse "already at terminal state"
// @Router /orders/{id}/advance [post]
func (h *Handler) AdvanceOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	o, err := h.orders.AdvanceStatus(r.Context(), id, actor(r))
	if err != nil {
		writeServiceError(w, err, "AdvanceOrderStatus", "failed to advance order status")
		return
	}
	writeJSON(w, http.StatusOK, toOrderView(o))
}

// ChangePaymentStatus godoc
// @Summary Change the payment status of an order
// @Tags Orders
// @Accept json
// @Produce json
// @Param X-Actor-ID header int true "Acting user id"
// @Param id path int true "Order ID"
// @Param request body PaymentStatusRequest true "New payment status"
// @Success 200 {object} OrderView
// @Failure 400 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Router /orders/{id}/payment-status [post]
func (h *Handler) ChangePaymentStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var req PaymentStatusRequest
	if !h.decode(w, r, &req) {
		return
	}
	o, err := h.orders.ChangePaymentStatus(r.Context(), id, domain.PaymentStatus(req.PaymentStatus), actor(r))
	if err != nil {
		writeServiceError(w, err, "ChangePaymentStatus", "failed to change payment status")
		return
	}
	writeJSON(w, http.StatusOK, toOrderView(o))
}
