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

type CategoryService interface {
	List(ctx context.Context, req *request.PaginatedRequest) (*response.PaginatedResponse[response.CategoryResponse], error)
	GetByID(ctx context.Context, categoryID string) (*response.CategoryResponse, error)
	Create(ctx context.Context, req *request.CreateCategoryRequest) (*response.CategoryResponse, error)
	Update(ctx context.Context, categoryID string, req *request.UpdateCategoryRequest) (*response.CategoryResponse, error)
	Delete(ctx context.Context, categoryID string) error
}

type categoryService struct {
	categoryRepo repository.CategoryRepository
	log          *zap.Logger
	now          func() time.Time
}

func NewCategoryService(categoryRepo repository.CategoryRepository, log *zap.Logger) CategoryService {
	return &categoryService{
		categoryRepo: categoryRepo,
		log:          log.With(zap.String("service", "category")),
		now:          time.Now,
	}
}

func parseCategoryID(categoryID string) (uuid.UUID, error) {
	id, err := uuid.Parse(categoryID)
	if err != nil {
		return uuid.Nil, invalid("invalid category ID")
	}
	return id, nil
}

func (cs *categoryService) List(ctx context.Context, req *request.PaginatedRequest) (*response.PaginatedResponse[response.CategoryResponse], error) {
	offset, limit := req.Offset(), req.Limit()

	categories, err := cs.categoryRepo.FindAll(ctx, limit, offset)
	if err != nil {
		cs.log.Error("Failed to list categories", zap.Error(err))
		return nil, fmt.Errorf("list categories: %w", err)
	}

	total, err := cs.categoryRepo.CountAll(ctx)
	if err != nil {
		cs.log.Error("Failed to count categories", zap.Error(err))
		return nil, fmt.Errorf("count categories: %w", err)
	}

	data := make([]response.CategoryResponse, len(categories))
	for i, c := range categories {
		data[i] = response.CategoryToResponse(c)
	}

	return response.NewPaginatedResponse(data, offset, limit, total), nil
}

func (cs *categoryService) find(ctx context.Context, id uuid.UUID) (*entity.Category, error) {
	category, err := cs.categoryRepo.FindByID(ctx, id)
	if err != nil {
		cs.log.Error("Failed to find category", zap.Error(err), zap.String("category_id", id.String()))
		return nil, fmt.Errorf("find category %s: %w", id, err)
	}
	if category == nil {
		return nil, notFound("category not found")
	}
	return category, nil
}

func (cs *categoryService) GetByID(ctx context.Context, categoryID string) (*response.CategoryResponse, error) {
	id, err := parseCategoryID(categoryID)
	if err != nil {
		return nil, err
	}

	category, err := cs.find(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := response.CategoryToResponse(category)
	return &resp, nil
}

func (cs *categoryService) Create(ctx context.Context, req *request.CreateCategoryRequest) (*response.CategoryResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, invalid("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	now := cs.now()
	category := &entity.Category{
		Base:        entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		Name:        req.Name,
		Description: req.Description,
	}

	if err := cs.categoryRepo.Create(ctx, category); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, invalid("category %q already exists", req.Name)
		}
		return nil, fmt.Errorf("create category: %w", err)
	}

	cs.log.Info("Category created", zap.String("category_id", category.ID.String()), zap.String("name", category.Name))

	resp := response.CategoryToResponse(category)
	return &resp, nil
}

func (cs *categoryService) Update(ctx context.Context, categoryID string, req *request.UpdateCategoryRequest) (*response.CategoryResponse, error) {
	if req.IsEmpty() {
		return nil, invalid("no fields to update")
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, invalid("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	id, err := parseCategoryID(categoryID)
	if err != nil {
		return nil, err
	}

	category, err := cs.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		category.Name = *req.Name
	}
	if req.Description != nil {
		category.Description = req.Description
	}
	category.UpdatedAt = cs.now()

	if err := cs.categoryRepo.Update(ctx, category); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, invalid("category %q already exists", category.Name)
		case errors.Is(err, repository.ErrNotFound):
			return nil, notFound("category not found")
		}
		return nil, fmt.Errorf("update category %s: %w", id, err)
	}

	resp := response.CategoryToResponse(category)
	return &resp, nil
}

func (cs *categoryService) Delete(ctx context.Context, categoryID string) error {
	id, err := parseCategoryID(categoryID)
	if err != nil {
		return err
	}

	if err := cs.categoryRepo.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return notFound("category not found")
		case errors.Is(err, repository.ErrReferenced):
			return invalid("category is still used by products")
		}
		return fmt.Errorf("delete category %s: %w", id, err)
	}

	return nil
}
