package entity

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Product struct {
	Base
	Name        string          `db:"name"`
	Description *string         `db:"description"`
	ImageURL    *string         `db:"image_url"`
	Price       decimal.Decimal `db:"price"`
	CategoryID  uuid.UUID       `db:"category_id"`
	Variants    []Variant
}

// VariantKey identifies a variant within its product.
type VariantKey struct {
	Size  string `db:"size"`
	Color string `db:"color"`
}

type Variant struct {
	VariantKey
	Stock int `db:"stock"`
}

// FindVariant returns the variant with the given key, or nil.
func (p *Product) FindVariant(key VariantKey) *Variant {
	for i := range p.Variants {
		if p.Variants[i].VariantKey == key {
			return &p.Variants[i]
		}
	}
	return nil
}
