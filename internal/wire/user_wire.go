package wire

import (
	"clothing-store/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

// wireUser configures user management routes. Self-or-admin checks on
// /users/{id} happen in the service.
func wireUser(r chi.Router, userHandler *adaptor.UserHandler, g guards) {
	r.Route("/users", func(r chi.Router) {
		r.Use(g.authenticate)

		r.Get("/{id}", userHandler.GetByID)
		r.Put("/{id}", userHandler.Update)

		// ==================== ADMIN ROUTES ====================
		r.Group(func(r chi.Router) {
			r.Use(g.admin)
			r.Get("/", userHandler.List)                    // GET /users?skip=0&limit=10
			r.Get("/email/{email}", userHandler.GetByEmail) // GET /users/email/{email}
			r.Get("/role/{role}", userHandler.ListByRole)   // GET /users/role/{role}
			r.Patch("/{id}/role", userHandler.UpdateRole)   // PATCH /users/{id}/role
			r.Delete("/{id}", userHandler.Delete)           // DELETE /users/{id}
		})
	})
}
