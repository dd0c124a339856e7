package entity

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CategorySales struct {
	CategoryID   uuid.UUID
	CategoryName string
	Revenue      decimal.Decimal
	ItemsSold    int64
}

type MonthlyRevenue struct {
	Year       int
	Month      int
	Revenue    decimal.Decimal
	OrderCount int64
}

type ProductSales struct {
	ProductID    uuid.UUID
	Name         string
	QuantitySold int64
	Revenue      decimal.Decimal
}
