package wire

import (
	"clothing-store/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireStats(r chi.Router, statsHandler *adaptor.StatsHandler, g guards) {
	r.With(g.authenticate, g.admin).Route("/stats", func(r chi.Router) {
		r.Get("/sales-by-category", statsHandler.SalesByCategory)
		r.Get("/revenue-by-month", statsHandler.RevenueByMonth)
		r.Get("/top-products", statsHandler.TopProducts) // ?limit=10
	})
}
