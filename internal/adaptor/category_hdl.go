package adaptor

import (
	"net/http"

	"clothing-store/internal/dto/request"
	"clothing-store/internal/usecase"
	"clothing-store/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type CategoryHandler struct {
	service usecase.CategoryService
	log     *zap.Logger
}

func NewCategoryHandler(service usecase.CategoryService, log *zap.Logger) *CategoryHandler {
	return &CategoryHandler{
		service: service,
		log:     log.With(zap.String("handler", "category")),
	}
}

// List handles GET /categories
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	req := parsePagination(r)

	categories, err := h.service.List(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "list categories")
		return
	}

	utils.ResponseSuccess(w, "Categories retrieved successfully", categories)
}

// GetByID handles GET /categories/{id}
func (h *CategoryHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	category, err := h.service.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err, "get category")
		return
	}

	utils.ResponseSuccess(w, "Category retrieved successfully", category)
}

// Create handles POST /categories (admin only)
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateCategoryRequest
	if !decodeBody(w, r, &req) || !validateBody(w, req) {
		return
	}

	category, err := h.service.Create(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "create category")
		return
	}

	utils.ResponseCreated(w, "Category created successfully", category)
}

// Update handles PUT /categories/{id} (admin only)
func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req request.UpdateCategoryRequest
	if !decodeBody(w, r, &req) || !validateBody(w, req) {
		return
	}

	category, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "update category")
		return
	}

	utils.ResponseSuccess(w, "Category updated successfully", category)
}

// Delete handles DELETE /categories/{id} (admin only)
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, h.log, err, "delete category")
		return
	}

	utils.ResponseSuccess(w, "Category deleted successfully", nil)
}
