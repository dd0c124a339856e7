package response

import (
	"time"

	"clothing-store/internal/data/entity"

	"github.com/shopspring/decimal"
)

type OrderItemVariant struct {
	Size  string `json:"size"`
	Color string `json:"color"`
}

type OrderItemResponse struct {
	ProductID string           `json:"product_id"`
	Name      string           `json:"name"`
	Price     decimal.Decimal  `json:"price"`
	Quantity  int              `json:"quantity"`
	Variant   OrderItemVariant `json:"variant"`
}

type OrderResponse struct {
	ID        string              `json:"id"`
	UserID    string              `json:"user_id"`
	Status    entity.OrderStatus  `json:"status"`
	Total     decimal.Decimal     `json:"total"`
	Items     []OrderItemResponse `json:"items"`
	CreatedAt time.Time           `json:"created_at"`
}

func OrderToResponse(o *entity.Order) OrderResponse {
	items := make([]OrderItemResponse, len(o.Items))
	for i, item := range o.Items {
		items[i] = OrderItemResponse{
			ProductID: item.ProductID.String(),
			Name:      item.Name,
			Price:     item.Price,
			Quantity:  item.Quantity,
			Variant:   OrderItemVariant{Size: item.Variant.Size, Color: item.Variant.Color},
		}
	}

	return OrderResponse{
		ID:        o.ID.String(),
		UserID:    o.UserID.String(),
		Status:    o.Status,
		Total:     o.Total,
		Items:     items,
		CreatedAt: o.CreatedAt,
	}
}
