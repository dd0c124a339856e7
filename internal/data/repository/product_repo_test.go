package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"clothing-store/internal/data/entity"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

var medRed = entity.VariantKey{Size: "M", Color: "red"}

func TestDecrementVariantStock(t *testing.T) {
	ctx := context.Background()
	productID := uuid.New()
	decrementSQL := regexp.QuoteMeta("SET stock = stock - $4")

	t.Run("enough stock", func(t *testing.T) {
		mock := newMockPool(t)
		repo := NewProductRepository(mock, zap.NewNop())

		mock.ExpectExec(decrementSQL).
			WithArgs(productID, "M", "red", 3).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		ok, err := repo.DecrementVariantStock(ctx, productID, medRed, 3)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("short or missing variant", func(t *testing.T) {
		mock := newMockPool(t)
		repo := NewProductRepository(mock, zap.NewNop())

		mock.ExpectExec(decrementSQL).
			WithArgs(productID, "M", "red", 6).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		ok, err := repo.DecrementVariantStock(ctx, productID, medRed, 6)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAdjustVariantStock(t *testing.T) {
	ctx := context.Background()
	productID := uuid.New()
	adjustSQL := regexp.QuoteMeta("SET stock = stock + $4")

	t.Run("applies signed delta", func(t *testing.T) {
		mock := newMockPool(t)
		repo := NewProductRepository(mock, zap.NewNop())

		mock.ExpectExec(adjustSQL).
			WithArgs(productID, "M", "red", -2).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		require.NoError(t, repo.AdjustVariantStock(ctx, productID, medRed, -2))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("underflow hits check constraint", func(t *testing.T) {
		mock := newMockPool(t)
		repo := NewProductRepository(mock, zap.NewNop())

		mock.ExpectExec(adjustSQL).
			WithArgs(productID, "M", "red", -100).
			WillReturnError(&pgconn.PgError{Code: "23514", ConstraintName: stockConstraint})

		err := repo.AdjustVariantStock(ctx, productID, medRed, -100)
		require.ErrorIs(t, err, ErrNegativeStock)
	})

	t.Run("missing variant", func(t *testing.T) {
		mock := newMockPool(t)
		repo := NewProductRepository(mock, zap.NewNop())

		mock.ExpectExec(adjustSQL).
			WithArgs(productID, "M", "red", 1).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := repo.AdjustVariantStock(ctx, productID, medRed, 1)
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestAddVariant(t *testing.T) {
	ctx := context.Background()
	productID := uuid.New()
	variant := entity.Variant{VariantKey: medRed, Stock: 5}

	t.Run("duplicate key", func(t *testing.T) {
		mock := newMockPool(t)
		repo := NewProductRepository(mock, zap.NewNop())

		mock.ExpectExec("INSERT INTO product_variants").
			WithArgs(productID, "M", "red", 5).
			WillReturnError(&pgconn.PgError{Code: "23505"})

		err := repo.AddVariant(ctx, productID, variant)
		require.ErrorIs(t, err, ErrDuplicate)
	})

	t.Run("unknown product", func(t *testing.T) {
		mock := newMockPool(t)
		repo := NewProductRepository(mock, zap.NewNop())

		mock.ExpectExec("INSERT INTO product_variants").
			WithArgs(productID, "M", "red", 5).
			WillReturnError(&pgconn.PgError{Code: "23503"})

		err := repo.AddVariant(ctx, productID, variant)
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestRemoveVariant_NotFound(t *testing.T) {
	mock := newMockPool(t)
	repo := NewProductRepository(mock, zap.NewNop())
	productID := uuid.New()

	mock.ExpectExec("DELETE FROM product_variants").
		WithArgs(productID, "M", "red").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := repo.RemoveVariant(context.Background(), productID, medRed)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateVariantKey_Collision(t *testing.T) {
	mock := newMockPool(t)
	repo := NewProductRepository(mock, zap.NewNop())
	productID := uuid.New()

	mock.ExpectExec("UPDATE product_variants").
		WithArgs(productID, "M", "red", "L", "red").
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := repo.UpdateVariantKey(context.Background(), productID, medRed, entity.VariantKey{Size: "L", Color: "red"})
	require.ErrorIs(t, err, ErrDuplicate)
}

func TestProductFindByID_Missing(t *testing.T) {
	mock := newMockPool(t)
	repo := NewProductRepository(mock, zap.NewNop())
	id := uuid.New()

	mock.ExpectQuery("FROM products").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "description", "image_url", "price", "category_id", "created_at", "updated_at"}))

	product, err := repo.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.Nil(t, product)
}

func TestTranslate_OtherCheckConstraint(t *testing.T) {
	err := translate(&pgconn.PgError{Code: "23514", ConstraintName: "products_price_check"})
	assert.NotErrorIs(t, err, ErrNegativeStock)
}

func TestProductCreate_VariantFailure(t *testing.T) {
	ctx := context.Background()
	product := &entity.Product{
		Base:       entity.Base{ID: uuid.New()},
		Name:       "Basic tee",
		CategoryID: uuid.New(),
		Variants: []entity.Variant{
			{VariantKey: medRed, Stock: 5},
			{VariantKey: medRed, Stock: 3},
		},
	}
	deleteSQL := regexp.QuoteMeta("DELETE FROM products WHERE id = $1")

	t.Run("pool removes the header", func(t *testing.T) {
		mock := newMockPool(t)
		repo := NewProductRepository(mock, zap.NewNop())

		mock.ExpectExec("INSERT INTO products").WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectExec("INSERT INTO product_variants").WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectExec("INSERT INTO product_variants").WillReturnError(&pgconn.PgError{Code: "23505"})
		mock.ExpectExec(deleteSQL).WithArgs(product.ID).WillReturnResult(pgxmock.NewResult("DELETE", 1))

		err := repo.Create(ctx, product)
		require.ErrorIs(t, err, ErrDuplicate)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failed cleanup keeps the insert error", func(t *testing.T) {
		mock := newMockPool(t)
		repo := NewProductRepository(mock, zap.NewNop())

		mock.ExpectExec("INSERT INTO products").WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectExec("INSERT INTO product_variants").WillReturnError(&pgconn.PgError{Code: "23505"})
		mock.ExpectExec(deleteSQL).WithArgs(product.ID).WillReturnError(errors.New("connection reset"))

		err := repo.Create(ctx, product)
		require.ErrorIs(t, err, ErrDuplicate)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("transaction leaves it to the rollback", func(t *testing.T) {
		mock := newMockPool(t)
		repo := NewRepository(mock, zap.NewNop())

		mock.ExpectBegin()
		mock.ExpectExec("INSERT INTO products").WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectExec("INSERT INTO product_variants").WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectExec("INSERT INTO product_variants").WillReturnError(&pgconn.PgError{Code: "23505"})
		mock.ExpectRollback()

		err := repo.RunInTx(ctx, func(ctx context.Context, tx *Repository) error {
			return tx.Product.Create(ctx, product)
		})
		require.ErrorIs(t, err, ErrDuplicate)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
