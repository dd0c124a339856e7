package wire

import (
	"clothing-store/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

// wireOrder mounts order routes. Ownership of a single order is enforced by the
// service, so only status changes and deletion need the admin guard.
func wireOrder(r chi.Router, orderHandler *adaptor.OrderHandler, g guards) {
	r.Route("/orders", func(r chi.Router) {
		r.Use(g.authenticate)

		r.Get("/", orderHandler.List)
		r.Post("/", orderHandler.Create)
		r.Get("/my", orderHandler.ListMine)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", orderHandler.GetByID)
			r.Post("/cancel", orderHandler.Cancel)

			r.Post("/items", orderHandler.AddItem)
			r.Delete("/items/{product_id}", orderHandler.RemoveItem)
			r.Patch("/items/{product_id}/quantity", orderHandler.UpdateItemQuantity)

			r.With(g.admin).Patch("/status", orderHandler.UpdateStatus)
			r.With(g.admin).Delete("/", orderHandler.Delete)
		})
	})
}
