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

type UserService interface {
	GetByID(ctx context.Context, actor Actor, userID string) (*response.UserResponse, error)
	GetByEmail(ctx context.Context, email string) (*response.UserResponse, error)
	List(ctx context.Context, req *request.PaginatedRequest) (*response.PaginatedResponse[response.UserResponse], error)
	ListByRole(ctx context.Context, role string, req *request.PaginatedRequest) (*response.PaginatedResponse[response.UserResponse], error)
	Update(ctx context.Context, actor Actor, userID string, req *request.UpdateUserRequest) (*response.UserResponse, error)
	UpdateRole(ctx context.Context, userID string, req *request.UpdateRoleRequest) (*response.UserResponse, error)
	Delete(ctx context.Context, userID string) error

	// EnsureAdmin creates the configured admin account unless the email is taken.
	EnsureAdmin(ctx context.Context, cfg utils.AdminConfig) error
}

type userService struct {
	userRepo repository.UserRepository
	log      *zap.Logger
	now      func() time.Time
}

func NewUserService(userRepo repository.UserRepository, log *zap.Logger) UserService {
	return &userService{
		userRepo: userRepo,
		log:      log.With(zap.String("service", "user")),
		now:      time.Now,
	}
}

func parseUserID(userID string) (uuid.UUID, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return uuid.Nil, invalid("invalid user ID")
	}
	return id, nil
}

func (us *userService) find(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	user, err := us.userRepo.FindByID(ctx, id)
	if err != nil {
		us.log.Error("Failed to find user", zap.Error(err), zap.String("user_id", id.String()))
		return nil, fmt.Errorf("find user %s: %w", id, err)
	}
	if user == nil {
		return nil, notFound("user not found")
	}
	return user, nil
}

func (us *userService) GetByID(ctx context.Context, actor Actor, userID string) (*response.UserResponse, error) {
	id, err := parseUserID(userID)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(id) {
		return nil, forbidden("not enough permissions")
	}

	user, err := us.find(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := response.UserToResponse(user)
	return &resp, nil
}

func (us *userService) GetByEmail(ctx context.Context, email string) (*response.UserResponse, error) {
	user, err := us.userRepo.FindByEmail(ctx, email)
	if err != nil {
		us.log.Error("Failed to find user by email", zap.Error(err))
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	if user == nil {
		return nil, notFound("user not found")
	}

	resp := response.UserToResponse(user)
	return &resp, nil
}

func toUserResponses(users []*entity.User) []response.UserResponse {
	out := make([]response.UserResponse, len(users))
	for i, u := range users {
		out[i] = response.UserToResponse(u)
	}
	return out
}

func (us *userService) List(ctx context.Context, req *request.PaginatedRequest) (*response.PaginatedResponse[response.UserResponse], error) {
	offset, limit := req.Offset(), req.Limit()

	users, err := us.userRepo.FindAll(ctx, limit, offset)
	if err != nil {
		us.log.Error("Failed to list users", zap.Error(err), zap.Int("skip", offset), zap.Int("limit", limit))
		return nil, fmt.Errorf("list users: %w", err)
	}

	total, err := us.userRepo.CountAll(ctx)
	if err != nil {
		us.log.Error("Failed to count users", zap.Error(err))
		return nil, fmt.Errorf("count users: %w", err)
	}

	return response.NewPaginatedResponse(toUserResponses(users), offset, limit, total), nil
}

func (us *userService) ListByRole(ctx context.Context, role string, req *request.PaginatedRequest) (*response.PaginatedResponse[response.UserResponse], error) {
	r := entity.UserRole(role)
	if !r.Valid() {
		return nil, invalid("invalid role %q", role)
	}

	offset, limit := req.Offset(), req.Limit()

	users, err := us.userRepo.FindByRole(ctx, r, limit, offset)
	if err != nil {
		us.log.Error("Failed to list users by role", zap.Error(err), zap.String("role", role))
		return nil, fmt.Errorf("list users by role: %w", err)
	}

	total, err := us.userRepo.CountByRole(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("count users by role: %w", err)
	}

	return response.NewPaginatedResponse(toUserResponses(users), offset, limit, total), nil
}

func (us *userService) Update(ctx context.Context, actor Actor, userID string, req *request.UpdateUserRequest) (*response.UserResponse, error) {
	if req.IsEmpty() {
		return nil, invalid("no fields to update")
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, invalid("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	id, err := parseUserID(userID)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(id) {
		return nil, forbidden("not enough permissions")
	}

	user, err := us.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Address != nil {
		user.Address = req.Address
	}
	if req.Password != nil {
		hashed, err := utils.HashPassword(*req.Password)
		if err != nil {
			us.log.Error("Failed to hash password", zap.Error(err))
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = hashed
	}
	user.UpdatedAt = us.now()

	if err := us.userRepo.Update(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, invalid("email already registered")
		case errors.Is(err, repository.ErrNotFound):
			return nil, notFound("user not found")
		}
		us.log.Error("Failed to update user", zap.Error(err), zap.String("user_id", id.String()))
		return nil, fmt.Errorf("update user %s: %w", id, err)
	}

	resp := response.UserToResponse(user)
	return &resp, nil
}

func (us *userService) UpdateRole(ctx context.Context, userID string, req *request.UpdateRoleRequest) (*response.UserResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, invalid("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	id, err := parseUserID(userID)
	if err != nil {
		return nil, err
	}

	if err := us.userRepo.UpdateRole(ctx, id, entity.UserRole(req.Role)); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFound("user not found")
		}
		us.log.Error("Failed to update role", zap.Error(err), zap.String("user_id", id.String()))
		return nil, fmt.Errorf("update role of user %s: %w", id, err)
	}

	us.log.Info("User role changed", zap.String("user_id", id.String()), zap.String("role", req.Role))

	user, err := us.find(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := response.UserToResponse(user)
	return &resp, nil
}

func (us *userService) Delete(ctx context.Context, userID string) error {
	id, err := parseUserID(userID)
	if err != nil {
		return err
	}

	if err := us.userRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound("user not found")
		}
		us.log.Error("Failed to delete user", zap.Error(err), zap.String("user_id", id.String()))
		return fmt.Errorf("delete user %s: %w", id, err)
	}

	us.log.Info("User deleted", zap.String("user_id", id.String()))
	return nil
}

func (us *userService) EnsureAdmin(ctx context.Context, cfg utils.AdminConfig) error {
	if cfg.Email == "" || cfg.Password == "" {
		us.log.Info("Admin bootstrap skipped, no credentials configured")
		return nil
	}

	existing, err := us.userRepo.FindByEmail(ctx, cfg.Email)
	if err != nil {
		return fmt.Errorf("check admin email: %w", err)
	}
	if existing != nil {
		return nil
	}

	hashed, err := utils.HashPassword(cfg.Password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	now := us.now()
	admin := &entity.User{
		Base:         entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		Name:         cfg.Name,
		Email:        cfg.Email,
		PasswordHash: hashed,
		Role:         entity.RoleAdmin,
	}
	if err := us.userRepo.Create(ctx, admin); err != nil {
		// another instance created it first
		if errors.Is(err, repository.ErrDuplicate) {
			return nil
		}
		return fmt.Errorf("create admin: %w", err)
	}

	us.log.Info("Initial admin created", zap.String("user_id", admin.ID.String()), zap.String("email", admin.Email))
	return nil
}
