package adaptor

import (
	"clothing-store/internal/usecase"
	"clothing-store/pkg/utils"

	"go.uber.org/zap"
)

type Handler struct {
	Auth     *AuthHandler
	User     *UserHandler
	Category *CategoryHandler
	Product  *ProductHandler
	Order    *OrderHandler
	Stats    *StatsHandler
}

func NewHandler(service *usecase.Service, config *utils.Config, log *zap.Logger) *Handler {
	return &Handler{
		Auth:     NewAuthHandler(service.Auth, config.JWT, log),
		User:     NewUserHandler(service.User, log),
		Category: NewCategoryHandler(service.Category, log),
		Product:  NewProductHandler(service.Product, log),
		Order:    NewOrderHandler(service.Order, log),
		Stats:    NewStatsHandler(service.Stats, log),
	}
}
