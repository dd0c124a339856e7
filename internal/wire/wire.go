package wire

import (
	"context"
	"net/http"
	"time"

	"clothing-store/internal/adaptor"
	"clothing-store/internal/data/repository"
	"clothing-store/internal/usecase"
	"clothing-store/pkg/broker"
	"clothing-store/pkg/cache"
	"clothing-store/pkg/middleware"
	"clothing-store/pkg/utils"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Pinger reports whether the primary store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// App holds the router and the services behind it.
type App struct {
	Router  *chi.Mux
	Service *usecase.Service
}

// guards are the per-route middleware shared by every domain.
type guards struct {
	authenticate func(http.Handler) http.Handler
	admin        func(http.Handler) http.Handler
}

// Wiring builds services, handlers and the router.
func Wiring(
	repo *repository.Repository,
	db Pinger,
	config *utils.Config,
	tokens cache.TokenStore,
	events broker.Publisher,
	logger *zap.Logger,
) *App {
	service := usecase.NewService(repo, config, tokens, events, logger)
	handler := adaptor.NewHandler(service, config, logger)

	g := guards{
		authenticate: middleware.Authenticate(utils.NewTokenManager(config.JWT), config.JWT.AccessCookieName, logger),
		admin:        middleware.Admin(repo.User, logger),
	}

	return &App{
		Router:  setupRouter(handler, g, db, config, logger),
		Service: service,
	}
}

func setupRouter(
	handler *adaptor.Handler,
	g guards,
	db Pinger,
	config *utils.Config,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	if config.App.RequestTimeout > 0 {
		r.Use(chimw.Timeout(config.App.RequestTimeout))
	}
	r.Use(middleware.Trace())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS(config.App.AllowedOrigins))

	wireAuth(r, handler.Auth, g)
	wireUser(r, handler.User, g)
	wireCategory(r, handler.Category, g)
	wireProduct(r, handler.Product, g)
	wireOrder(r, handler.Order, g)
	wireStats(r, handler.Stats, g)

	r.Get("/health", health(db, logger))

	return r
}

func health(db Pinger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			logger.Warn("Health check failed", zap.Error(err))
			utils.ResponseUnavailable(w, "Database unavailable")
			return
		}
		utils.ResponseSuccess(w, "OK", nil)
	}
}
