package repository

import (
	"context"
	"errors"
	"fmt"

	"clothing-store/internal/data/entity"
	"clothing-store/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type CategoryRepository interface {
	Create(ctx context.Context, category *entity.Category) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Category, error)
	FindAll(ctx context.Context, limit, offset int) ([]*entity.Category, error)
	CountAll(ctx context.Context) (int64, error)
	Update(ctx context.Context, category *entity.Category) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type categoryRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewCategoryRepository(db database.Querier, log *zap.Logger) CategoryRepository {
	return &categoryRepository{
		db:  db,
		log: log.With(zap.String("repository", "category")),
	}
}

func (cr *categoryRepository) Create(ctx context.Context, category *entity.Category) error {
	query := `
		INSERT INTO categories (id, name, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := cr.db.Exec(ctx, query,
		category.ID,
		category.Name,
		category.Description,
		category.CreatedAt,
		category.UpdatedAt,
	)
	if err != nil {
		err = translate(err)
		if !errors.Is(err, ErrDuplicate) {
			cr.log.Error("Failed to create category", zap.Error(err), zap.String("name", category.Name))
		}
		return fmt.Errorf("create category %s: %w", category.Name, err)
	}

	return nil
}

func (cr *categoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Category, error) {
	query := `SELECT id, name, description, created_at, updated_at FROM categories WHERE id = $1`

	var category entity.Category
	err := cr.db.QueryRow(ctx, query, id).Scan(
		&category.ID,
		&category.Name,
		&category.Description,
		&category.CreatedAt,
		&category.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		cr.log.Error("Failed to find category by ID", zap.Error(err), zap.String("category_id", id.String()))
		return nil, fmt.Errorf("find category by ID %s: %w", id.String(), err)
	}

	return &category, nil
}

func (cr *categoryRepository) FindAll(ctx context.Context, limit, offset int) ([]*entity.Category, error) {
	query := `
		SELECT id, name, description, created_at, updated_at
		FROM categories
		ORDER BY name ASC, id ASC
		LIMIT $1 OFFSET $2
	`

	rows, err := cr.db.Query(ctx, query, limit, offset)
	if err != nil {
		cr.log.Error("Failed to get all categories", zap.Error(err))
		return nil, fmt.Errorf("find all categories limit %d offset %d: %w", limit, offset, err)
	}
	defer rows.Close()

	categories := make([]*entity.Category, 0)
	for rows.Next() {
		var category entity.Category
		if err := rows.Scan(
			&category.ID,
			&category.Name,
			&category.Description,
			&category.CreatedAt,
			&category.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan category row: %w", err)
		}
		categories = append(categories, &category)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate category rows: %w", err)
	}

	return categories, nil
}

func (cr *categoryRepository) CountAll(ctx context.Context) (int64, error) {
	var count int64
	if err := cr.db.QueryRow(ctx, `SELECT COUNT(*) FROM categories`).Scan(&count); err != nil {
		cr.log.Error("Database error counting categories", zap.Error(err))
		return 0, fmt.Errorf("count all categories: %w", err)
	}
	return count, nil
}

func (cr *categoryRepository) Update(ctx context.Context, category *entity.Category) error {
	query := `
		UPDATE categories
		SET name = $2, description = $3, updated_at = $4
		WHERE id = $1
	`

	result, err := cr.db.Exec(ctx, query, category.ID, category.Name, category.Description, category.UpdatedAt)
	if err != nil {
		err = translate(err)
		if !errors.Is(err, ErrDuplicate) {
			cr.log.Error("Failed to update category", zap.Error(err), zap.String("category_id", category.ID.String()))
		}
		return fmt.Errorf("update category %s: %w", category.ID.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("update category %s: %w", category.ID.String(), ErrNotFound)
	}

	return nil
}

func (cr *categoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := cr.db.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		err = translate(err)
		if !errors.Is(err, ErrReferenced) {
			cr.log.Error("Failed to delete category", zap.Error(err), zap.String("category_id", id.String()))
		}
		return fmt.Errorf("delete category %s: %w", id.String(), err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("delete category %s: %w", id.String(), ErrNotFound)
	}

	cr.log.Info("Category deleted", zap.String("category_id", id.String()))
	return nil
}
