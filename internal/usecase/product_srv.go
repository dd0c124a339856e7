package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"clothing-store/internal/data/entity"
	"clothing-store/internal/data/repository"
	"clothing-store/internal/dto/request"
	"clothing-store/internal/dto/response"
	"clothing-store/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ProductService interface {
	GetByID(ctx context.Context, productID string) (*response.ProductResponse, error)
	List(ctx context.Context, req *request.ProductListRequest) (*response.PaginatedResponse[response.ProductResponse], error)
	Create(ctx context.Context, req *request.CreateProductRequest) (*response.ProductResponse, error)
	Update(ctx context.Context, productID string, req *request.UpdateProductRequest) (*response.ProductResponse, error)
	Delete(ctx context.Context, productID string) error

	AddVariant(ctx context.Context, productID string, req *request.VariantRequest) (*response.ProductResponse, error)
	RemoveVariant(ctx context.Context, productID string, key entity.VariantKey) (*response.ProductResponse, error)
	AdjustVariantStock(ctx context.Context, productID string, key entity.VariantKey, delta int) (*response.ProductResponse, error)
	UpdateVariantFields(ctx context.Context, productID string, key entity.VariantKey, req *request.UpdateVariantFieldsRequest) (*response.ProductResponse, error)
}

type productService struct {
	repo *repository.Repository
	log  *zap.Logger
	now  func() time.Time
}

func NewProductService(repo *repository.Repository, log *zap.Logger) ProductService {
	return &productService{
		repo: repo,
		log:  log.With(zap.String("service", "product")),
		now:  time.Now,
	}
}

func parseProductID(productID string) (uuid.UUID, error) {
	id, err := uuid.Parse(productID)
	if err != nil {
		return uuid.Nil, invalid("invalid product ID")
	}
	return id, nil
}

func (ps *productService) find(ctx context.Context, id uuid.UUID) (*entity.Product, error) {
	product, err := ps.repo.Product.FindByID(ctx, id)
	if err != nil {
		ps.log.Error("Failed to find product", zap.Error(err), zap.String("product_id", id.String()))
		return nil, fmt.Errorf("find product %s: %w", id, err)
	}
	if product == nil {
		return nil, notFound("product not found")
	}
	return product, nil
}

func (ps *productService) respond(ctx context.Context, id uuid.UUID) (*response.ProductResponse, error) {
	product, err := ps.find(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := response.ProductToResponse(product)
	return &resp, nil
}

func (ps *productService) GetByID(ctx context.Context, productID string) (*response.ProductResponse, error) {
	id, err := parseProductID(productID)
	if err != nil {
		return nil, err
	}
	return ps.respond(ctx, id)
}

func (ps *productService) List(ctx context.Context, req *request.ProductListRequest) (*response.PaginatedResponse[response.ProductResponse], error) {
	var filter repository.ProductFilter

	if req.CategoryID != "" {
		categoryID, err := parseCategoryID(req.CategoryID)
		if err != nil {
			return nil, err
		}
		filter.CategoryID = &categoryID
	}
	if req.Size != "" {
		filter.Size = &req.Size
	}
	if req.Color != "" {
		filter.Color = &req.Color
	}
	if req.MinPrice != nil && req.MinPrice.IsNegative() {
		return nil, invalid("min_price must not be negative")
	}
	if req.MinPrice != nil && req.MaxPrice != nil && req.MinPrice.GreaterThan(*req.MaxPrice) {
		return nil, invalid("min_price must not exceed max_price")
	}
	filter.MinPrice = req.MinPrice
	filter.MaxPrice = req.MaxPrice

	offset, limit := req.Offset(), req.Limit()

	products, err := ps.repo.Product.FindAll(ctx, filter, limit, offset)
	if err != nil {
		ps.log.Error("Failed to list products", zap.Error(err))
		return nil, fmt.Errorf("list products: %w", err)
	}

	total, err := ps.repo.Product.Count(ctx, filter)
	if err != nil {
		ps.log.Error("Failed to count products", zap.Error(err))
		return nil, fmt.Errorf("count products: %w", err)
	}

	data := make([]response.ProductResponse, len(products))
	for i, p := range products {
		p.Variants = matchingVariants(p.Variants, filter.Size, filter.Color)
		data[i] = response.ProductToResponse(p)
	}

	return response.NewPaginatedResponse(data, offset, limit, total), nil
}

// matchingVariants keeps the variants selected by the size and color filters.
func matchingVariants(variants []entity.Variant, size, color *string) []entity.Variant {
	if size == nil && color == nil {
		return variants
	}
	out := make([]entity.Variant, 0, len(variants))
	for _, v := range variants {
		if size != nil && v.Size != *size {
			continue
		}
		if color != nil && v.Color != *color {
			continue
		}
		out = append(out, v)
	}
	return out
}

func requireCategory(ctx context.Context, categories repository.CategoryRepository, id uuid.UUID) error {
	category, err := categories.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("find category %s: %w", id, err)
	}
	if category == nil {
		return invalid("invalid category ID")
	}
	return nil
}

func (ps *productService) Create(ctx context.Context, req *request.CreateProductRequest) (*response.ProductResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, invalid("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	categoryID, err := parseCategoryID(req.CategoryID)
	if err != nil {
		return nil, err
	}

	variants := make([]entity.Variant, len(req.Variants))
	seen := make(map[entity.VariantKey]bool, len(req.Variants))
	for i, v := range req.Variants {
		key := entity.VariantKey{Size: v.Size, Color: v.Color}
		if seen[key] {
			return nil, invalid("duplicate variant %s/%s", v.Size, v.Color)
		}
		seen[key] = true
		variants[i] = entity.Variant{VariantKey: key, Stock: *v.Stock}
	}

	now := ps.now()
	product := &entity.Product{
		Base:        entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		Name:        req.Name,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Price:       *req.Price,
		CategoryID:  categoryID,
		Variants:    variants,
	}

	err = ps.repo.RunInTx(ctx, func(ctx context.Context, tx *repository.Repository) error {
		if err := requireCategory(ctx, tx.Category, categoryID); err != nil {
			return err
		}
		return tx.Product.Create(ctx, product)
	})
	if err != nil {
		switch {
		case IsClientError(err):
			return nil, err
		case errors.Is(err, repository.ErrReferenced):
			return nil, invalid("invalid category ID")
		}
		ps.log.Error("Failed to create product", zap.Error(err))
		return nil, fmt.Errorf("create product: %w", err)
	}

	ps.log.Info("Product created", zap.String("product_id", product.ID.String()), zap.String("name", product.Name))

	resp := response.ProductToResponse(product)
	return &resp, nil
}

func (ps *productService) Update(ctx context.Context, productID string, req *request.UpdateProductRequest) (*response.ProductResponse, error) {
	if req.IsEmpty() {
		return nil, invalid("no fields to update")
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, invalid("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	id, err := parseProductID(productID)
	if err != nil {
		return nil, err
	}

	product, err := ps.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.CategoryID != nil {
		categoryID, err := parseCategoryID(*req.CategoryID)
		if err != nil {
			return nil, err
		}
		if err := requireCategory(ctx, ps.repo.Category, categoryID); err != nil {
			return nil, err
		}
		product.CategoryID = categoryID
	}
	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Description != nil {
		product.Description = req.Description
	}
	if req.ImageURL != nil {
		product.ImageURL = req.ImageURL
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	product.UpdatedAt = ps.now()

	if err := ps.repo.Product.Update(ctx, product); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, notFound("product not found")
		case errors.Is(err, repository.ErrReferenced):
			return nil, invalid("invalid category ID")
		}
		return nil, fmt.Errorf("update product %s: %w", id, err)
	}

	resp := response.ProductToResponse(product)
	return &resp, nil
}

func (ps *productService) Delete(ctx context.Context, productID string) error {
	id, err := parseProductID(productID)
	if err != nil {
		return err
	}

	if err := ps.repo.Product.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("product not found")
		}
		return fmt.Errorf("delete product %s: %w", id, err)
	}

	ps.log.Info("Product deleted", zap.String("product_id", id.String()))
	return nil
}

func (ps *productService) AddVariant(ctx context.Context, productID string, req *request.VariantRequest) (*response.ProductResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, invalid("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	id, err := parseProductID(productID)
	if err != nil {
		return nil, err
	}

	variant := entity.Variant{
		VariantKey: entity.VariantKey{Size: req.Size, Color: req.Color},
		Stock:      *req.Stock,
	}
	if err := ps.repo.Product.AddVariant(ctx, id, variant); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, notFound("product not found")
		case errors.Is(err, repository.ErrDuplicate):
			return nil, invalid("variant %s/%s already exists", req.Size, req.Color)
		}
		return nil, fmt.Errorf("add variant: %w", err)
	}

	return ps.respond(ctx, id)
}

func validKey(key entity.VariantKey) error {
	if key.Size == "" || key.Color == "" {
		return invalid("size and color are required")
	}
	return nil
}

func (ps *productService) RemoveVariant(ctx context.Context, productID string, key entity.VariantKey) (*response.ProductResponse, error) {
	id, err := parseProductID(productID)
	if err != nil {
		return nil, err
	}
	if err := validKey(key); err != nil {
		return nil, err
	}

	if err := ps.repo.Product.RemoveVariant(ctx, id, key); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("variant %s/%s not found", key.Size, key.Color)
		}
		return nil, fmt.Errorf("remove variant: %w", err)
	}

	return ps.respond(ctx, id)
}

// AdjustVariantStock applies a signed delta in one statement. The store rejects a
// result below zero.
func (ps *productService) AdjustVariantStock(ctx context.Context, productID string, key entity.VariantKey, delta int) (*response.ProductResponse, error) {
	id, err := parseProductID(productID)
	if err != nil {
		return nil, err
	}
	if err := validKey(key); err != nil {
		return nil, err
	}

	if err := ps.repo.Product.AdjustVariantStock(ctx, id, key, delta); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, notFound("variant %s/%s not found", key.Size, key.Color)
		case errors.Is(err, repository.ErrNegativeStock):
			return nil, invalid("stock of %s/%s cannot go below zero", key.Size, key.Color)
		}
		return nil, fmt.Errorf("adjust stock: %w", err)
	}

	ps.log.Info("Stock adjusted",
		zap.String("product_id", id.String()),
		zap.String("size", key.Size),
		zap.String("color", key.Color),
		zap.Int("delta", delta),
	)

	return ps.respond(ctx, id)
}

func (ps *productService) UpdateVariantFields(ctx context.Context, productID string, key entity.VariantKey, req *request.UpdateVariantFieldsRequest) (*response.ProductResponse, error) {
	if req.IsEmpty() {
		return nil, invalid("no fields to update")
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, invalid("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	id, err := parseProductID(productID)
	if err != nil {
		return nil, err
	}
	if err := validKey(key); err != nil {
		return nil, err
	}

	next := key
	if req.Size != nil {
		next.Size = *req.Size
	}
	if req.Color != nil {
		next.Color = *req.Color
	}

	if next != key {
		if err := ps.repo.Product.UpdateVariantKey(ctx, id, key, next); err != nil {
			switch {
			case errors.Is(err, repository.ErrNotFound):
				return nil, notFound("variant %s/%s not found", key.Size, key.Color)
			case errors.Is(err, repository.ErrDuplicate):
				return nil, invalid("variant %s/%s already exists", next.Size, next.Color)
			}
			return nil, fmt.Errorf("update variant: %w", err)
		}
		return ps.respond(ctx, id)
	}

	product, err := ps.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if product.FindVariant(key) == nil {
		return nil, notFound("variant %s/%s not found", key.Size, key.Color)
	}
	resp := response.ProductToResponse(product)
	return &resp, nil
}
