package usecase

import (
	"context"
	"fmt"

	"clothing-store/internal/data/repository"
	"clothing-store/internal/dto/request"
	"clothing-store/internal/dto/response"
	"clothing-store/pkg/utils"

	"go.uber.org/zap"
)

// StatsService reports sales aggregates over every stored order, canceled ones included.
type StatsService interface {
	SalesByCategory(ctx context.Context) ([]response.CategorySalesResponse, error)
	RevenueByMonth(ctx context.Context) ([]response.MonthlyRevenueResponse, error)
	TopProducts(ctx context.Context, req *request.TopProductsRequest) ([]response.TopProductResponse, error)
}

type statsService struct {
	statsRepo repository.StatsRepository
	log       *zap.Logger
}

func NewStatsService(statsRepo repository.StatsRepository, log *zap.Logger) StatsService {
	return &statsService{
		statsRepo: statsRepo,
		log:       log.With(zap.String("service", "stats")),
	}
}

func (ss *statsService) SalesByCategory(ctx context.Context) ([]response.CategorySalesResponse, error) {
	rows, err := ss.statsRepo.SalesByCategory(ctx)
	if err != nil {
		ss.log.Error("Failed to aggregate sales by category", zap.Error(err))
		return nil, fmt.Errorf("sales by category: %w", err)
	}

	out := make([]response.CategorySalesResponse, len(rows))
	for i, r := range rows {
		out[i] = response.CategorySalesResponse{
			CategoryID:   r.CategoryID.String(),
			CategoryName: r.CategoryName,
			TotalRevenue: r.Revenue,
			TotalItems:   r.ItemsSold,
		}
	}
	return out, nil
}

func (ss *statsService) RevenueByMonth(ctx context.Context) ([]response.MonthlyRevenueResponse, error) {
	rows, err := ss.statsRepo.RevenueByMonth(ctx)
	if err != nil {
		ss.log.Error("Failed to aggregate revenue by month", zap.Error(err))
		return nil, fmt.Errorf("revenue by month: %w", err)
	}

	out := make([]response.MonthlyRevenueResponse, len(rows))
	for i, r := range rows {
		out[i] = response.MonthlyRevenueResponse{
			Year:         r.Year,
			Month:        r.Month,
			TotalRevenue: r.Revenue,
			OrdersCount:  r.OrderCount,
		}
	}
	return out, nil
}

func (ss *statsService) TopProducts(ctx context.Context, req *request.TopProductsRequest) ([]response.TopProductResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, invalid("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	rows, err := ss.statsRepo.TopProducts(ctx, req.Limit)
	if err != nil {
		ss.log.Error("Failed to aggregate top products", zap.Error(err))
		return nil, fmt.Errorf("top products: %w", err)
	}

	out := make([]response.TopProductResponse, len(rows))
	for i, r := range rows {
		out[i] = response.TopProductResponse{
			ProductID:     r.ProductID.String(),
			Name:          r.Name,
			TotalQuantity: r.QuantitySold,
			TotalRevenue:  r.Revenue,
		}
	}
	return out, nil
}
