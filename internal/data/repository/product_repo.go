package repository

import (
	"context"
	"errors"
	"fmt"

	"clothing-store/internal/data/entity"
	"clothing-store/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductFilter narrows product listings. Nil fields are ignored.
type ProductFilter struct {
	CategoryID *uuid.UUID
	Size       *string
	Color      *string
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
}

type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Product, error)
	FindAll(ctx context.Context, filter ProductFilter, limit, offset int) ([]*entity.Product, error)
	Count(ctx context.Context, filter ProductFilter) (int64, error)
	Update(ctx context.Context, product *entity.Product) error
	Delete(ctx context.Context, id uuid.UUID) error

	AddVariant(ctx context.Context, productID uuid.UUID, variant entity.Variant) error
	RemoveVariant(ctx context.Context, productID uuid.UUID, key entity.VariantKey) error
	UpdateVariantKey(ctx context.Context, productID uuid.UUID, from, to entity.VariantKey) error

	// DecrementVariantStock subtracts qty only if enough stock remains. It reports
	// false, with no error, when the variant is missing or short.
	DecrementVariantStock(ctx context.Context, productID uuid.UUID, key entity.VariantKey, qty int) (bool, error)
	// AdjustVariantStock adds a signed delta. An underflow fails with ErrNegativeStock.
	AdjustVariantStock(ctx context.Context, productID uuid.UUID, key entity.VariantKey, delta int) error
}

type productRepository struct {
	db   database.Querier
	log  *zap.Logger
	inTx bool
}

func NewProductRepository(db database.Querier, log *zap.Logger) ProductRepository {
	return newProductRepository(db, log, false)
}

func newProductRepository(db database.Querier, log *zap.Logger, inTx bool) *productRepository {
	return &productRepository{
		db:   db,
		log:  log.With(zap.String("repository", "product")),
		inTx: inTx,
	}
}

func (pr *productRepository) Create(ctx context.Context, product *entity.Product) error {
	query := `
		INSERT INTO products (id, name, description, image_url, price, category_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := pr.db.Exec(ctx, query,
		product.ID,
		product.Name,
		product.Description,
		product.ImageURL,
		product.Price,
		product.CategoryID,
		product.CreatedAt,
		product.UpdatedAt,
	)
	if err != nil {
		err = translate(err)
		pr.log.Error("Failed to create product", zap.Error(err), zap.String("name", product.Name))
		return fmt.Errorf("create product %s: %w", product.Name, err)
	}

	variantQuery := `
		INSERT INTO product_variants (product_id, size, color, stock, position)
		VALUES ($1, $2, $3, $4, $5)
	`
	for i, v := range product.Variants {
		if _, err := pr.db.Exec(ctx, variantQuery, product.ID, v.Size, v.Color, v.Stock, i); err != nil {
			err = translate(err)
			pr.log.Error("Failed to create variant", zap.Error(err), zap.String("product_id", product.ID.String()))
			pr.discard(ctx, product.ID)
			return fmt.Errorf("create variant %s/%s of product %s: %w", v.Size, v.Color, product.ID, err)
		}
	}

	return nil
}

// discard removes a product whose variants failed to insert. Outside a
// transaction nothing else would.
func (pr *productRepository) discard(ctx context.Context, id uuid.UUID) {
	if pr.inTx {
		return
	}
	if _, err := pr.db.Exec(context.WithoutCancel(ctx), `DELETE FROM products WHERE id = $1`, id); err != nil {
		pr.log.Error("Failed to discard partial product", zap.Error(err), zap.String("product_id", id.String()))
	}
}

func (pr *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Product, error) {
	query := `
		SELECT id, name, description, image_url, price, category_id, created_at, updated_at
		FROM products
		WHERE id = $1
	`

	product, err := scanProduct(pr.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		pr.log.Error("Failed to find product by ID", zap.Error(err), zap.String("product_id", id.String()))
		return nil, fmt.Errorf("find product by ID %s: %w", id.String(), err)
	}

	if err := pr.loadVariants(ctx, []*entity.Product{product}); err != nil {
		return nil, err
	}

	return product, nil
}

const productFilterClause = `
	WHERE ($1::uuid IS NULL OR p.category_id = $1::uuid)
	  AND ($2::numeric IS NULL OR p.price >= $2::numeric)
	  AND ($3::numeric IS NULL OR p.price <= $3::numeric)
	  AND (($4::text IS NULL AND $5::text IS NULL) OR EXISTS (
	        SELECT 1 FROM product_variants v
	        WHERE v.product_id = p.id
	          AND ($4::text IS NULL OR v.size = $4::text)
	          AND ($5::text IS NULL OR v.color = $5::text)))
`

func filterArgs(f ProductFilter) []any {
	return []any{f.CategoryID, f.MinPrice, f.MaxPrice, f.Size, f.Color}
}

func (pr *productRepository) FindAll(ctx context.Context, filter ProductFilter, limit, offset int) ([]*entity.Product, error) {
	query := `
		SELECT p.id, p.name, p.description, p.image_url, p.price, p.category_id, p.created_at, p.updated_at
		FROM products p` + productFilterClause + `
		ORDER BY p.created_at DESC, p.id DESC
		LIMIT $6 OFFSET $7
	`

	args := append(filterArgs(filter), limit, offset)
	rows, err := pr.db.Query(ctx, query, args...)
	if err != nil {
		pr.log.Error("Failed to list products", zap.Error(err))
		return nil, fmt.Errorf("find products limit %d offset %d: %w", limit, offset, err)
	}
	defer rows.Close()

	products := make([]*entity.Product, 0)
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}
	rows.Close()

	if err := pr.loadVariants(ctx, products); err != nil {
		return nil, err
	}

	return products, nil
}

func (pr *productRepository) Count(ctx context.Context, filter ProductFilter) (int64, error) {
	query := `SELECT COUNT(*) FROM products p` + productFilterClause

	var count int64
	if err := pr.db.QueryRow(ctx, query, filterArgs(filter)...).Scan(&count); err != nil {
		pr.log.Error("Database error counting products", zap.Error(err))
		return 0, fmt.Errorf("count products: %w", err)
	}
	return count, nil
}

func scanProduct(row pgx.Row) (*entity.Product, error) {
	var p entity.Product
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.ImageURL,
		&p.Price,
		&p.CategoryID,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Variants = make([]entity.Variant, 0)
	return &p, nil
}

// loadVariants fills Variants of every product with one query, in insertion order.
func (pr *productRepository) loadVariants(ctx context.Context, products []*entity.Product) error {
	if len(products) == 0 {
		return nil
	}

	byID := make(map[uuid.UUID]*entity.Product, len(products))
	ids := make([]string, 0, len(products))
	for _, p := range products {
		byID[p.ID] = p
		ids = append(ids, p.ID.String())
	}

	query := `
		SELECT product_id, size, color, stock
		FROM product_variants
		WHERE product_id = ANY($1::uuid[])
		ORDER BY product_id, position, size, color
	`

	rows, err := pr.db.Query(ctx, query, ids)
	if err != nil {
		pr.log.Error("Failed to load variants", zap.Error(err))
		return fmt.Errorf("load variants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var productID uuid.UUID
		var v entity.Variant
		if err := rows.Scan(&productID, &v.Size, &v.Color, &v.Stock); err != nil {
			return fmt.Errorf("scan variant row: %w", err)
		}
		if p, ok := byID[productID]; ok {
			p.Variants = append(p.Variants, v)
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate variant rows: %w", err)
	}
	return nil
}

func (pr *productRepository) Update(ctx context.Context, product *entity.Product) error {
	query := `
		UPDATE products
		SET name = $2, description = $3, image_url = $4, price = $5, category_id = $6, updated_at = $7
		WHERE id = $1
	`

	result, err := pr.db.Exec(ctx, query,
		product.ID,
		product.Name,
		product.Description,
		product.ImageURL,
		product.Price,
		product.CategoryID,
		product.UpdatedAt,
	)
	if err != nil {
		err = translate(err)
		pr.log.Error("Failed to update product", zap.Error(err), zap.String("product_id", product.ID.String()))
		return fmt.Errorf("update product %s: %w", product.ID.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("update product %s: %w", product.ID.String(), ErrNotFound)
	}
	return nil
}

func (pr *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := pr.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		pr.log.Error("Failed to delete product", zap.Error(err), zap.String("product_id", id.String()))
		return fmt.Errorf("delete product %s: %w", id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("delete product %s: %w", id.String(), ErrNotFound)
	}

	pr.log.Info("Product deleted", zap.String("product_id", id.String()))
	return nil
}

func (pr *productRepository) AddVariant(ctx context.Context, productID uuid.UUID, variant entity.Variant) error {
	query := `
		INSERT INTO product_variants (product_id, size, color, stock, position)
		SELECT $1, $2, $3, $4, COALESCE(MAX(position) + 1, 0)
		FROM product_variants
		WHERE product_id = $1
	`

	if _, err := pr.db.Exec(ctx, query, productID, variant.Size, variant.Color, variant.Stock); err != nil {
		err = translate(err)
		if errors.Is(err, ErrReferenced) {
			return fmt.Errorf("add variant to product %s: %w", productID, ErrNotFound)
		}
		if !errors.Is(err, ErrDuplicate) {
			pr.log.Error("Failed to add variant", zap.Error(err), zap.String("product_id", productID.String()))
		}
		return fmt.Errorf("add variant %s/%s to product %s: %w", variant.Size, variant.Color, productID, err)
	}

	return nil
}

func (pr *productRepository) RemoveVariant(ctx context.Context, productID uuid.UUID, key entity.VariantKey) error {
	query := `DELETE FROM product_variants WHERE product_id = $1 AND size = $2 AND color = $3`

	result, err := pr.db.Exec(ctx, query, productID, key.Size, key.Color)
	if err != nil {
		pr.log.Error("Failed to remove variant", zap.Error(err), zap.String("product_id", productID.String()))
		return fmt.Errorf("remove variant %s/%s of product %s: %w", key.Size, key.Color, productID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("remove variant %s/%s of product %s: %w", key.Size, key.Color, productID, ErrNotFound)
	}
	return nil
}

func (pr *productRepository) UpdateVariantKey(ctx context.Context, productID uuid.UUID, from, to entity.VariantKey) error {
	query := `
		UPDATE product_variants
		SET size = $4, color = $5
		WHERE product_id = $1 AND size = $2 AND color = $3
	`

	result, err := pr.db.Exec(ctx, query, productID, from.Size, from.Color, to.Size, to.Color)
	if err != nil {
		err = translate(err)
		if !errors.Is(err, ErrDuplicate) {
			pr.log.Error("Failed to update variant", zap.Error(err), zap.String("product_id", productID.String()))
		}
		return fmt.Errorf("update variant %s/%s of product %s: %w", from.Size, from.Color, productID, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("update variant %s/%s of product %s: %w", from.Size, from.Color, productID, ErrNotFound)
	}
	return nil
}

func (pr *productRepository) DecrementVariantStock(ctx context.Context, productID uuid.UUID, key entity.VariantKey, qty int) (bool, error) {
	query := `
		UPDATE product_variants
		SET stock = stock - $4
		WHERE product_id = $1 AND size = $2 AND color = $3 AND stock >= $4
	`

	result, err := pr.db.Exec(ctx, query, productID, key.Size, key.Color, qty)
	if err != nil {
		pr.log.Error("Failed to decrement stock",
			zap.Error(err),
			zap.String("product_id", productID.String()),
			zap.String("size", key.Size),
			zap.String("color", key.Color),
			zap.Int("quantity", qty),
		)
		return false, fmt.Errorf("decrement stock of %s %s/%s: %w", productID, key.Size, key.Color, translate(err))
	}

	return result.RowsAffected() == 1, nil
}

func (pr *productRepository) AdjustVariantStock(ctx context.Context, productID uuid.UUID, key entity.VariantKey, delta int) error {
	query := `
		UPDATE product_variants
		SET stock = stock + $4
		WHERE product_id = $1 AND size = $2 AND color = $3
	`

	result, err := pr.db.Exec(ctx, query, productID, key.Size, key.Color, delta)
	if err != nil {
		err = translate(err)
		if !errors.Is(err, ErrNegativeStock) {
			pr.log.Error("Failed to adjust stock",
				zap.Error(err),
				zap.String("product_id", productID.String()),
				zap.Int("delta", delta),
			)
		}
		return fmt.Errorf("adjust stock of %s %s/%s by %d: %w", productID, key.Size, key.Color, delta, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("adjust stock of %s %s/%s: %w", productID, key.Size, key.Color, ErrNotFound)
	}
	return nil
}
