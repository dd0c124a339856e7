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
	"clothing-store/pkg/cache"
	"clothing-store/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AuthService interface {
	Register(ctx context.Context, req *request.RegisterRequest) (*response.UserResponse, error)
	Login(ctx context.Context, req *request.LoginRequest) (*response.AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*response.AuthResponse, error)
	Logout(ctx context.Context, userID uuid.UUID) error
	Me(ctx context.Context, userID uuid.UUID) (*response.UserResponse, error)
}

type authService struct {
	userRepo repository.UserRepository
	tokens   *utils.TokenManager
	store    cache.TokenStore
	log      *zap.Logger
	now      func() time.Time
}

func NewAuthService(
	userRepo repository.UserRepository,
	tokens *utils.TokenManager,
	store cache.TokenStore,
	log *zap.Logger,
) AuthService {
	return &authService{
		userRepo: userRepo,
		tokens:   tokens,
		store:    store,
		log:      log.With(zap.String("service", "auth")),
		now:      time.Now,
	}
}

func (s *authService) Register(ctx context.Context, req *request.RegisterRequest) (*response.UserResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Register validation failed", zap.Any("errors", errs))
		return nil, invalid("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	existing, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		s.log.Error("Failed to check email", zap.Error(err), zap.String("email", req.Email))
		return nil, fmt.Errorf("check email: %w", err)
	}
	if existing != nil {
		return nil, invalid("email already registered")
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		s.log.Error("Failed to hash password", zap.Error(err))
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	user := &entity.User{
		Base:         entity.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hashed,
		Role:         entity.RoleCustomer,
		Address:      req.Address,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		// lost a race with a concurrent registration
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, invalid("email already registered")
		}
		s.log.Error("Failed to create user", zap.Error(err), zap.String("email", req.Email))
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.Info("User registered", zap.String("user_id", user.ID.String()))

	resp := response.UserToResponse(user)
	return &resp, nil
}

func (s *authService) Login(ctx context.Context, req *request.LoginRequest) (*response.AuthResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, invalid("validation failed: %s", utils.FormatValidationErrors(errs))
	}

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		s.log.Error("Failed to find user by email", zap.Error(err))
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil || !utils.CheckPasswordHash(req.Password, user.PasswordHash) {
		return nil, unauthorized("incorrect email or password")
	}

	resp, err := s.issueTokens(ctx, user.ID, string(user.Role))
	if err != nil {
		return nil, err
	}
	resp.User = response.UserToResponse(user)

	s.log.Info("User logged in", zap.String("user_id", user.ID.String()))
	return resp, nil
}

// Refresh accepts only the refresh token currently stored for the user and
// swaps it for a new one in a single compare-and-set, so every refresh token
// works once even when two requests race with it.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*response.AuthResponse, error) {
	if refreshToken == "" {
		return nil, unauthorized("refresh token missing")
	}

	claims, err := s.tokens.Parse(refreshToken, utils.RefreshToken)
	if err != nil {
		return nil, unauthorized("invalid refresh token")
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, unauthorized("invalid token payload")
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		return nil, unauthorized("user no longer exists")
	}

	resp, err := s.generateTokens(user.ID, string(user.Role))
	if err != nil {
		return nil, err
	}

	rotated, err := s.store.RotateRefreshToken(ctx, userID, refreshToken, resp.RefreshToken, s.tokens.RefreshTTL())
	if err != nil {
		s.log.Error("Failed to rotate refresh token", zap.Error(err), zap.String("user_id", userID.String()))
		return nil, fmt.Errorf("rotate refresh token: %w", err)
	}
	if !rotated {
		s.log.Warn("Refresh with revoked token", zap.String("user_id", userID.String()))
		return nil, unauthorized("token revoked")
	}

	resp.User = response.UserToResponse(user)
	return resp, nil
}

func (s *authService) issueTokens(ctx context.Context, userID uuid.UUID, role string) (*response.AuthResponse, error) {
	resp, err := s.generateTokens(userID, role)
	if err != nil {
		return nil, err
	}

	if err := s.store.SetRefreshToken(ctx, userID, resp.RefreshToken, s.tokens.RefreshTTL()); err != nil {
		s.log.Error("Failed to store refresh token", zap.Error(err), zap.String("user_id", userID.String()))
		return nil, fmt.Errorf("store refresh token: %w", err)
	}
	return resp, nil
}

func (s *authService) generateTokens(userID uuid.UUID, role string) (*response.AuthResponse, error) {
	access, accessExp, err := s.tokens.Generate(userID, role, utils.AccessToken)
	if err != nil {
		s.log.Error("Failed to generate access token", zap.Error(err))
		return nil, err
	}
	refresh, refreshExp, err := s.tokens.Generate(userID, role, utils.RefreshToken)
	if err != nil {
		s.log.Error("Failed to generate refresh token", zap.Error(err))
		return nil, err
	}

	return &response.AuthResponse{
		AccessToken:      access,
		TokenType:        "Bearer",
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func (s *authService) Logout(ctx context.Context, userID uuid.UUID) error {
	if err := s.store.DeleteRefreshToken(ctx, userID); err != nil {
		s.log.Error("Failed to delete refresh token", zap.Error(err), zap.String("user_id", userID.String()))
		return fmt.Errorf("delete refresh token: %w", err)
	}

	s.log.Info("User logged out", zap.String("user_id", userID.String()))
	return nil
}

func (s *authService) Me(ctx context.Context, userID uuid.UUID) (*response.UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil {
		return nil, notFound("user not found")
	}

	resp := response.UserToResponse(user)
	return &resp, nil
}
