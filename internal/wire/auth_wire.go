package wire

import (
	"clothing-store/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireAuth(r chi.Router, authHandler *adaptor.AuthHandler, g guards) {
	r.Route("/auth", func(r chi.Router) {
		// ==================== PUBLIC ROUTES ====================
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/refresh", authHandler.Refresh) // refresh cookie

		// ==================== PROTECTED ROUTES ====================
		r.With(g.authenticate).Post("/logout", authHandler.Logout)
		r.With(g.authenticate).Get("/me", authHandler.Me)
	})
}
