package response

import (
	"time"

	"clothing-store/internal/data/entity"

	"github.com/shopspring/decimal"
)

type VariantResponse struct {
	Size  string `json:"size"`
	Color string `json:"color"`
	Stock int    `json:"stock"`
}

type ProductResponse struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description *string           `json:"description,omitempty"`
	ImageURL    *string           `json:"image_url,omitempty"`
	Price       decimal.Decimal   `json:"price"`
	CategoryID  string            `json:"category_id"`
	Variants    []VariantResponse `json:"variants"`
	CreatedAt   time.Time         `json:"created_at"`
}

func ProductToResponse(p *entity.Product) ProductResponse {
	variants := make([]VariantResponse, len(p.Variants))
	for i, v := range p.Variants {
		variants[i] = VariantResponse{Size: v.Size, Color: v.Color, Stock: v.Stock}
	}

	return ProductResponse{
		ID:          p.ID.String(),
		Name:        p.Name,
		Description: p.Description,
		ImageURL:    p.ImageURL,
		Price:       p.Price,
		CategoryID:  p.CategoryID.String(),
		Variants:    variants,
		CreatedAt:   p.CreatedAt,
	}
}
