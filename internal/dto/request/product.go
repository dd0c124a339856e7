package request

import "github.com/shopspring/decimal"

type VariantRequest struct {
	Size  string `json:"size" validate:"required,max=20"`
	Color string `json:"color" validate:"required,max=50"`
	Stock *int   `json:"stock" validate:"required,gte=0"`
}

type CreateProductRequest struct {
	Name        string           `json:"name" validate:"required,min=1,max=200"`
	Description *string          `json:"description,omitempty"`
	ImageURL    *string          `json:"image_url,omitempty" validate:"omitempty,url"`
	Price       *decimal.Decimal `json:"price" validate:"required,gte=0,money"`
	CategoryID  string           `json:"category_id" validate:"required,uuid"`
	Variants    []VariantRequest `json:"variants" validate:"omitempty,dive"`
}

type UpdateProductRequest struct {
	Name        *string          `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Description *string          `json:"description,omitempty"`
	ImageURL    *string          `json:"image_url,omitempty" validate:"omitempty,url"`
	Price       *decimal.Decimal `json:"price,omitempty" validate:"omitempty,gte=0,money"`
	CategoryID  *string          `json:"category_id,omitempty" validate:"omitempty,uuid"`
}

func (r UpdateProductRequest) IsEmpty() bool {
	return r.Name == nil && r.Description == nil && r.ImageURL == nil && r.Price == nil && r.CategoryID == nil
}

// UpdateVariantFieldsRequest renames a variant. Stock is changed only through the stock endpoint.
type UpdateVariantFieldsRequest struct {
	Size  *string `json:"size,omitempty" validate:"omitempty,min=1,max=20"`
	Color *string `json:"color,omitempty" validate:"omitempty,min=1,max=50"`
}

func (r UpdateVariantFieldsRequest) IsEmpty() bool {
	return r.Size == nil && r.Color == nil
}

type ProductListRequest struct {
	PaginatedRequest
	CategoryID string
	Size       string
	Color      string
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
}
