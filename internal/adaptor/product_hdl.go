package adaptor

import (
	"net/http"
	"strconv"

	"clothing-store/internal/data/entity"
	"clothing-store/internal/dto/request"
	"clothing-store/internal/usecase"
	"clothing-store/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type ProductHandler struct {
	service usecase.ProductService
	log     *zap.Logger
}

func NewProductHandler(service usecase.ProductService, log *zap.Logger) *ProductHandler {
	return &ProductHandler{
		service: service,
		log:     log.With(zap.String("handler", "product")),
	}
}

// List handles GET /products?category_id=&size=&color=&min_price=&max_price=&skip=&limit=
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	minPrice, err := utils.ParseDecimalPtr(q.Get("min_price"))
	if err != nil {
		utils.ResponseBadRequest(w, "min_price must be a number", nil)
		return
	}
	maxPrice, err := utils.ParseDecimalPtr(q.Get("max_price"))
	if err != nil {
		utils.ResponseBadRequest(w, "max_price must be a number", nil)
		return
	}

	req := request.ProductListRequest{
		PaginatedRequest: parsePagination(r),
		CategoryID:       q.Get("category_id"),
		Size:             q.Get("size"),
		Color:            q.Get("color"),
		MinPrice:         minPrice,
		MaxPrice:         maxPrice,
	}

	products, err := h.service.List(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "list products")
		return
	}

	utils.ResponseSuccess(w, "Products retrieved successfully", products)
}

// GetByID handles GET /products/{id}
func (h *ProductHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	product, err := h.service.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err, "get product")
		return
	}

	utils.ResponseSuccess(w, "Product retrieved successfully", product)
}

// Create handles POST /products (admin only)
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateProductRequest
	if !decodeBody(w, r, &req) || !validateBody(w, req) {
		return
	}

	product, err := h.service.Create(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "create product")
		return
	}

	utils.ResponseCreated(w, "Product created successfully", product)
}

// Update handles PATCH /products/{id} (admin only)
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req request.UpdateProductRequest
	if !decodeBody(w, r, &req) || !validateBody(w, req) {
		return
	}

	product, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "update product")
		return
	}

	utils.ResponseSuccess(w, "Product updated successfully", product)
}

// Delete handles DELETE /products/{id} (admin only)
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, h.log, err, "delete product")
		return
	}

	utils.ResponseSuccess(w, "Product deleted successfully", nil)
}

// AddVariant handles POST /products/{id}/variants (admin only)
func (h *ProductHandler) AddVariant(w http.ResponseWriter, r *http.Request) {
	var req request.VariantRequest
	if !decodeBody(w, r, &req) || !validateBody(w, req) {
		return
	}

	product, err := h.service.AddVariant(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "add variant")
		return
	}

	utils.ResponseCreated(w, "Variant added successfully", product)
}

// RemoveVariant handles DELETE /products/{id}/variants?size=&color= (admin only)
func (h *ProductHandler) RemoveVariant(w http.ResponseWriter, r *http.Request) {
	key, ok := variantKey(w, r)
	if !ok {
		return
	}

	product, err := h.service.RemoveVariant(r.Context(), chi.URLParam(r, "id"), key)
	if err != nil {
		handleServiceError(w, h.log, err, "remove variant")
		return
	}

	utils.ResponseSuccess(w, "Variant removed successfully", product)
}

// AdjustStock handles PATCH /products/{id}/variants/stock?size=&color=&diff= (admin only)
func (h *ProductHandler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	key, ok := variantKey(w, r)
	if !ok {
		return
	}

	diff, err := strconv.Atoi(r.URL.Query().Get("diff"))
	if err != nil {
		utils.ResponseBadRequest(w, "diff must be an integer", nil)
		return
	}

	product, err := h.service.AdjustVariantStock(r.Context(), chi.URLParam(r, "id"), key, diff)
	if err != nil {
		handleServiceError(w, h.log, err, "adjust variant stock")
		return
	}

	utils.ResponseSuccess(w, "Variant stock updated successfully", product)
}

// UpdateVariantFields handles PATCH /products/{id}/variants/fields?size=&color= (admin only)
func (h *ProductHandler) UpdateVariantFields(w http.ResponseWriter, r *http.Request) {
	key, ok := variantKey(w, r)
	if !ok {
		return
	}

	var req request.UpdateVariantFieldsRequest
	if !decodeBody(w, r, &req) || !validateBody(w, req) {
		return
	}

	product, err := h.service.UpdateVariantFields(r.Context(), chi.URLParam(r, "id"), key, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "update variant fields")
		return
	}

	utils.ResponseSuccess(w, "Variant updated successfully", product)
}

func variantKey(w http.ResponseWriter, r *http.Request) (entity.VariantKey, bool) {
	q := r.URL.Query()
	key := entity.VariantKey{Size: q.Get("size"), Color: q.Get("color")}
	if key.Size == "" || key.Color == "" {
		utils.ResponseBadRequest(w, "size and color query parameters are required", nil)
		return key, false
	}
	return key, true
}
