package request

import "github.com/shopspring/decimal"

type OrderItemVariant struct {
	Size  string `json:"size" validate:"required,max=20"`
	Color string `json:"color" validate:"required,max=50"`
}

// OrderItemRequest carries the snapshot name and price the client saw.
type OrderItemRequest struct {
	ProductID string           `json:"product_id" validate:"required,uuid"`
	Name      string           `json:"name" validate:"required,max=200"`
	Price     *decimal.Decimal `json:"price" validate:"required,gte=0,money"`
	Quantity  int              `json:"quantity" validate:"required,min=1"`
	Variant   OrderItemVariant `json:"variant"`
}

type CreateOrderRequest struct {
	Items []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending shipped delivered canceled"`
}

type UpdateQuantityRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

type OrderListRequest struct {
	PaginatedRequest
	UserID string
	Status string
}
