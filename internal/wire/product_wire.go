package wire

import (
	"clothing-store/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireProduct(r chi.Router, productHandler *adaptor.ProductHandler, g guards) {
	r.Route("/products", func(r chi.Router) {
		// ==================== PUBLIC ROUTES ====================
		r.Get("/", productHandler.List) // GET /products?category_id=&size=&color=&min_price=&max_price=
		r.Get("/{id}", productHandler.GetByID)

		// ==================== ADMIN ROUTES ====================
		r.Group(func(r chi.Router) {
			r.Use(g.authenticate, g.admin)
			r.Post("/", productHandler.Create)
			r.Patch("/{id}", productHandler.Update)
			r.Delete("/{id}", productHandler.Delete)

			r.Post("/{id}/variants", productHandler.AddVariant)
			r.Delete("/{id}/variants", productHandler.RemoveVariant)             // ?size=&color=
			r.Patch("/{id}/variants/stock", productHandler.AdjustStock)          // ?size=&color=&diff=
			r.Patch("/{id}/variants/fields", productHandler.UpdateVariantFields) // ?size=&color=
		})
	})
}
