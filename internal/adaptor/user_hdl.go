package adaptor

import (
	"net/http"

	"clothing-store/internal/dto/request"
	"clothing-store/internal/usecase"
	"clothing-store/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type UserHandler struct {
	service usecase.UserService
	log     *zap.Logger
}

func NewUserHandler(service usecase.UserService, log *zap.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		log:     log.With(zap.String("handler", "user")),
	}
}

// List handles GET /users?skip=0&limit=10 (admin only)
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	req := parsePagination(r)

	users, err := h.service.List(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "list users")
		return
	}

	utils.ResponseSuccess(w, "Users retrieved successfully", users)
}

// GetByID handles GET /users/{id} (self or admin)
func (h *UserHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	user, err := h.service.GetByID(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.log, err, "get user")
		return
	}

	utils.ResponseSuccess(w, "User retrieved successfully", user)
}

// GetByEmail handles GET /users/email/{email} (admin only)
func (h *UserHandler) GetByEmail(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetByEmail(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		handleServiceError(w, h.log, err, "get user by email")
		return
	}

	utils.ResponseSuccess(w, "User retrieved successfully", user)
}

// ListByRole handles GET /users/role/{role} (admin only)
func (h *UserHandler) ListByRole(w http.ResponseWriter, r *http.Request) {
	req := parsePagination(r)

	users, err := h.service.ListByRole(r.Context(), chi.URLParam(r, "role"), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "list users by role")
		return
	}

	utils.ResponseSuccess(w, "Users retrieved successfully", users)
}

// Update handles PUT /users/{id} (self or admin)
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(r)
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.UpdateUserRequest
	if !decodeBody(w, r, &req) || !validateBody(w, req) {
		return
	}

	user, err := h.service.Update(r.Context(), actor, chi.URLParam(r, "id"), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "update user")
		return
	}

	utils.ResponseSuccess(w, "User updated successfully", user)
}

// UpdateRole handles PATCH /users/{id}/role (admin only)
func (h *UserHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	var req request.UpdateRoleRequest
	if !decodeBody(w, r, &req) || !validateBody(w, req) {
		return
	}

	user, err := h.service.UpdateRole(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "update user role")
		return
	}

	utils.ResponseSuccess(w, "User role updated successfully", user)
}

// Delete handles DELETE /users/{id} (admin only)
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, h.log, err, "delete user")
		return
	}

	utils.ResponseSuccess(w, "User deleted successfully", nil)
}
