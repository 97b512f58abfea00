package handler

import (
	"net/http"

	"laundry/internal/domain"
)

func historyFilter(r *http.Request) (domain.HistoryFilter, domain.Page, error) {
	q := r.URL.Query()
	var (
		f   domain.HistoryFilter
		err error
	)
	if f.OrderID, err = queryInt64(q, "order_id"); err != nil {
		return f, domain.Page{}, err
	}
	if f.ChangedBy, err = queryInt64(q, "changed_by"); err != nil {
		return f, domain.Page{}, err
	}
	if f.From, err = queryTime(q, "from"); err != nil {
		return f, domain.Page{}, err
	}
	if f.To, err = queryTime(q, "to"); err != nil {
		return f, domain.Page{}, err
	}
	f.OldValue = q.Get("old")
	f.NewValue = q.Get("new")
	page, err := queryPage(q)
	return f, page, err
}

// ListStatusHistory godoc
// @Summary Search order status history
// @Tags History
// @Produce json
// @Param order_id query int false "Order ID"
// @Param old query string false "Old status"
// @Param new query string false "New status"
// @Param from query string false "RFC 3339 lower bound of changed_at"
// @Param to query string false "RFC 3339 upper bound of changed_at"
// @Param changed_by query int false "Actor id"
// @Param page query int false "Zero based page"
// @Param size query int false "Page size"
// @Success 200 {object} PageView[HistoryView]
// @Failure 400 {object} errorResponse
// @Router /order-status-history [get]
func (h *Handler) ListStatusHistory(w http.ResponseWriter, r *http.Request) {
	f, page, err := historyFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := h.history.ListStatus(r.Context(), f, page)
	if err != nil {
		writeServiceError(w, err, "ListStatusHistory", "failed to list status history")
		return
	}
	writeJSON(w, http.StatusOK, toPageView(res, statusHistoryView))
}

// GetStatusHistory godoc
// @Summary Get one order status history entry
// @Tags History
// @Produce json
// @Param id path int true "History entry ID"
// @Success 200 {object} HistoryView
// @Failure 404 {object} errorResponse
// @Router /order-status-history/{id} [get]
func (h *Handler) GetStatusHistory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	row, err := h.history.GetStatus(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "GetStatusHistory", "failed to get status history")
		return
	}
	writeJSON(w, http.StatusOK, statusHistoryView(row))
}

// ListPaymentHistory godoc
// @Summary Search order payment status history
// @Tags History
// @Produce json
// @Param order_id query int false "Order ID"
// @Param old query string false "Old payment status"
// @Param new query string false "New payment status"
// @Param from query string false "RFC 3339 lower bound of changed_at"
// @Param to query string false "RFC 3339 upper bound of changed_at"
// @Param changed_by query int false "Actor id"
// @Param page query int false "Zero based page"
// @Param size query int false "Page size"
// @Success 200 {object} PageView[HistoryView]
// @Failure 400 {object} errorResponse
// @Router /payment-status-history [get]
func (h *Handler) ListPaymentHistory(w http.ResponseWriter, r *http.Request) {
	f, page, err := historyFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := h.history.ListPaymentStatus(r.Context(), f, page)
	if err != nil {
		writeServiceError(w, err, "ListPaymentHistory", "failed to list payment status history")
		return
	}
	writeJSON(w, http.StatusOK, toPageView(res, paymentHistoryView))
}

// GetPaymentHistory godoc
// @Summary Get one payment status history entry
// @Tags History
// @Produce json
// @Param id path int true "History entry ID"
// @Success 200 {object} HistoryView
// @Failure 404 {object} errorResponse
// @Router /payment-status-history/{id} [get]
func (h *Handler) GetPaymentHistory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	row, err := h.history.GetPaymentStatus(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "GetPaymentHistory", "failed to get payment status history")
		return
	}
	writeJSON(w, http.StatusOK, paymentHistoryView(row))
}
