package response

import "github.com/shopspring/decimal"

type CategorySalesResponse struct {
	CategoryID   string          `json:"category_id"`
	CategoryName string          `json:"category_name"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	TotalItems   int64           `json:"total_items"`
}

type MonthlyRevenueResponse struct {
	Year         int             `json:"year"`
	Month        int             `json:"month"`
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	OrdersCount  int64           `json:"orders_count"`
}

type TopProductResponse struct {
	ProductID     string          `json:"product_id"`
	Name          string          `json:"name"`
	TotalQuantity int64           `json:"total_quantity"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
}
