package adaptor

import (
	"net/http"

	"clothing-store/internal/dto/request"
	"clothing-store/internal/usecase"
	"clothing-store/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type OrderHandler struct {
	service usecase.OrderService
	log     *zap.Logger
}

func NewOrderHandler(service usecase.OrderService, log *zap.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		log:     log.With(zap.String("handler", "order")),
	}
}

// Create handles POST /orders
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.CreateOrderRequest
	if !decodeBody(w, r, &req) || !validateBody(w, req) {
		return
	}

	order, err := h.service.CreateOrder(r.Context(), actor, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "create order")
		return
	}

	utils.ResponseCreated(w, "Order created successfully", order)
}

// List handles GET /orders?user_id=&status=&skip=&limit=
// Customers only ever see their own orders.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	q := r.URL.Query()
	req := request.OrderListRequest{
		PaginatedRequest: parsePagination(r),
		UserID:           q.Get("user_id"),
		Status:           q.Get("status"),
	}
	h.list(w, r, actor, &req)
}

// ListMine handles GET /orders/my?status=&skip=&limit=
func (h *OrderHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	req := request.OrderListRequest{
		PaginatedRequest: parsePagination(r),
		UserID:           actor.UserID.String(),
		Status:           r.URL.Query().Get("status"),
	}
	h.list(w, r, actor, &req)
}

func (h *OrderHandler) list(w http.ResponseWriter, r *http.Request, actor usecase.Actor, req *request.OrderListRequest) {
	orders, err := h.service.GetOrders(r.Context(), actor, req)
	if err != nil {
		handleServiceError(w, h.log, err, "list orders")
		return
	}

	utils.ResponseSuccess(w, "Orders retrieved successfully", orders)
}

// GetByID handles GET /orders/{id} (owner or admin)
func (h *OrderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	order, err := h.service.GetOrderByID(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err, "get order")
		return
	}

	utils.ResponseSuccess(w, "Order retrieved successfully", order)
}

// UpdateStatus handles PATCH /orders/{id}/status (admin only)
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req request.UpdateOrderStatusRequest
	if !decodeBody(w, r, &req) || !validateBody(w, req) {
		return
	}

	order, err := h.service.UpdateOrderStatus(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "update order status")
		return
	}

	utils.ResponseSuccess(w, "Order status updated successfully", order)
}

// Cancel handles POST /orders/{id}/cancel (owner or admin)
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	order, err := h.service.CancelOrder(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err, "cancel order")
		return
	}

	utils.ResponseSuccess(w, "Order canceled successfully", order)
}

// Delete handles DELETE /orders/{id} (admin only)
func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteOrder(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, h.log, err, "delete order")
		return
	}

	utils.ResponseSuccess(w, "Order deleted successfully", nil)
}

// AddItem handles POST /orders/{id}/items
func (h *OrderHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.OrderItemRequest
	if !decodeBody(w, r, &req) || !validateBody(w, req) {
		return
	}

	order, err := h.service.AddItem(r.Context(), actor, chi.URLParam(r, "id"), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "add order item")
		return
	}

	utils.ResponseSuccess(w, "Item added successfully", order)
}

// RemoveItem handles DELETE /orders/{id}/items/{product_id}
func (h *OrderHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	order, err := h.service.RemoveItem(r.Context(), actor, chi.URLParam(r, "id"), chi.URLParam(r, "product_id"))
	if err != nil {
		handleServiceError(w, h.log, err, "remove order item")
		return
	}

	utils.ResponseSuccess(w, "Item removed successfully", order)
}

// UpdateItemQuantity handles PATCH /orders/{id}/items/{product_id}/quantity
func (h *OrderHandler) UpdateItemQuantity(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.UpdateQuantityRequest
	if !decodeBody(w, r, &req) || !validateBody(w, req) {
		return
	}

	order, err := h.service.UpdateItemQuantity(r.Context(), actor, chi.URLParam(r, "id"), chi.URLParam(r, "product_id"), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "update item quantity")
		return
	}

	utils.ResponseSuccess(w, "Item quantity updated successfully", order)
}
