package usecase

import (
	"clothing-store/internal/data/repository"
	"clothing-store/pkg/broker"
	"clothing-store/pkg/cache"
	"clothing-store/pkg/utils"

	"go.uber.org/zap"
)

type Service struct {
	Auth     AuthService
	User     UserService
	Category CategoryService
	Product  ProductService
	Order    OrderService
	Stats    StatsService
}

func NewService(
	repo *repository.Repository,
	config *utils.Config,
	tokens cache.TokenStore,
	events broker.Publisher,
	log *zap.Logger,
) *Service {
	return &Service{
		Auth:     NewAuthService(repo.User, utils.NewTokenManager(config.JWT), tokens, log),
		User:     NewUserService(repo.User, log),
		Category: NewCategoryService(repo.Category, log),
		Product:  NewProductService(repo, log),
		Order:    NewOrderService(repo, events, log),
		Stats:    NewStatsService(repo.Stats, log),
	}
}
