package api

import (
	_ "laundry/docs"
	"laundry/internal/api/handler"
	"laundry/internal/platform/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	swagger "github.com/swaggo/http-swagger"
)

func NewRouter(h *handler.Handler, m *metrics.Metrics, gatherer prometheus.Gatherer) *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(middleware.Heartbeat("/healthz"))
	router.Use(requestID)
	router.Use(observe(m))

	router.Handle("/metrics", metrics.Handler(gatherer))
	// Swagger UI
	router.Get("/swagger/*", swagger.WrapHandler)

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/rates", func(r chi.Router) {
			r.Get("/", h.GetRates)
			r.Get("/supported-currencies", h.GetSupportedCodes)
			r.Get("/convert", h.Convert)
			r.With(handler.RequireActor).Post("/refresh", h.RefreshRates)
			r.Get("/{code}", h.GetRate)
		})

		r.Route("/services/{serviceID}/prices", func(r chi.Router) {
			r.Get("/", h.ListServicePrices)
			r.With(handler.RequireActor).Post("/", h.CreatePrice)
			r.Get("/{currency}", h.GetServicePrice)
		})
		r.Route("/prices/{id}", func(r chi.Router) {
			r.Get("/", h.GetPrice)
			r.With(handler.RequireActor).Put("/", h.UpdatePrice)
			r.With(handler.RequireActor).Delete("/", h.DeletePrice)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", h.ListOrders)
			r.With(handler.RequireActor).Post("/", h.CreateOrder)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.GetOrder)
				r.Group(func(r chi.Router) {
					r.Use(handler.RequireActor)
					r.Put("/", h.UpdateOrder)
					r.Patch("/", h.PatchOrder)
					r.Delete("/", h.DeleteOrder)
					r.Post("/advance", h.AdvanceOrderStatus)
					r.Post("/payment-status", h.ChangePaymentStatus)
				})
			})
		})

		r.Get("/order-status-history", h.ListStatusHistory)
		r.Get("/order-status-history/{id}", h.GetStatusHistory)
		r.Get("/payment-status-history", h.ListPaymentHistory)
		r.Get("/payment-status-history/{id}", h.GetPaymentHistory)
	})
	return router
}
