package repository

import (
	"context"
	"fmt"

	"clothing-store/internal/data/entity"
	"clothing-store/pkg/database"

	"go.uber.org/zap"
)

type StatsRepository interface {
	SalesByCategory(ctx context.Context) ([]entity.CategorySales, error)
	RevenueByMonth(ctx context.Context) ([]entity.MonthlyRevenue, error)
	TopProducts(ctx context.Context, limit int) ([]entity.ProductSales, error)
}

type statsRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewStatsRepository(db database.Querier, log *zap.Logger) StatsRepository {
	return &statsRepository{
		db:  db,
		log: log.With(zap.String("repository", "stats")),
	}
}

// SalesByCategory attributes order lines to the product's current category. Lines of
// deleted products are skipped.
func (sr *statsRepository) SalesByCategory(ctx context.Context) ([]entity.CategorySales, error) {
	query := `
		SELECT p.category_id,
		       COALESCE(MAX(c.name), ''),
		       SUM(oi.price * oi.quantity) AS revenue,
		       SUM(oi.quantity)
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		LEFT JOIN categories c ON c.id = p.category_id
		GROUP BY p.category_id
		ORDER BY revenue DESC, p.category_id
	`

	rows, err := sr.db.Query(ctx, query)
	if err != nil {
		sr.log.Error("Failed to aggregate sales by category", zap.Error(err))
		return nil, fmt.Errorf("sales by category: %w", err)
	}
	defer rows.Close()

	out := make([]entity.CategorySales, 0)
	for rows.Next() {
		var s entity.CategorySales
		if err := rows.Scan(&s.CategoryID, &s.CategoryName, &s.Revenue, &s.ItemsSold); err != nil {
			return nil, fmt.Errorf("scan sales by category row: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sales by category rows: %w", err)
	}
	return out, nil
}

func (sr *statsRepository) RevenueByMonth(ctx context.Context) ([]entity.MonthlyRevenue, error) {
	query := `
		SELECT EXTRACT(YEAR FROM created_at AT TIME ZONE 'UTC')::int AS year,
		       EXTRACT(MONTH FROM created_at AT TIME ZONE 'UTC')::int AS month,
		       SUM(total),
		       COUNT(*)
		FROM orders
		GROUP BY year, month
		ORDER BY year, month
	`

	rows, err := sr.db.Query(ctx, query)
	if err != nil {
		sr.log.Error("Failed to aggregate revenue by month", zap.Error(err))
		return nil, fmt.Errorf("revenue by month: %w", err)
	}
	defer rows.Close()

	out := make([]entity.MonthlyRevenue, 0)
	for rows.Next() {
		var m entity.MonthlyRevenue
		if err := rows.Scan(&m.Year, &m.Month, &m.Revenue, &m.OrderCount); err != nil {
			return nil, fmt.Errorf("scan revenue by month row: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate revenue by month rows: %w", err)
	}
	return out, nil
}

// TopProducts ranks by quantity sold. The snapshot name stands in for deleted products.
func (sr *statsRepository) TopProducts(ctx context.Context, limit int) ([]entity.ProductSales, error) {
	query := `
		SELECT oi.product_id,
		       COALESCE(MAX(p.name), MAX(oi.name)),
		       SUM(oi.quantity) AS quantity,
		       SUM(oi.price * oi.quantity)
		FROM order_items oi
		LEFT JOIN products p ON p.id = oi.product_id
		GROUP BY oi.product_id
		ORDER BY quantity DESC, oi.product_id
		LIMIT $1
	`

	rows, err := sr.db.Query(ctx, query, limit)
	if err != nil {
		sr.log.Error("Failed to aggregate top products", zap.Error(err), zap.Int("limit", limit))
		return nil, fmt.Errorf("top products: %w", err)
	}
	defer rows.Close()

	out := make([]entity.ProductSales, 0)
	for rows.Next() {
		var p entity.ProductSales
		if err := rows.Scan(&p.ProductID, &p.Name, &p.QuantitySold, &p.Revenue); err != nil {
			return nil, fmt.Errorf("scan top products row: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate top products rows: %w", err)
	}
	return out, nil
}
