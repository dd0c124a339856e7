package adaptor

import (
	"net/http"
	"time"

	"clothing-store/internal/dto/request"
	"clothing-store/internal/dto/response"
	"clothing-store/internal/usecase"
	"clothing-store/pkg/utils"

	"go.uber.org/zap"
)

type AuthHandler struct {
	service usecase.AuthService
	cookies utils.JWTConfig
	log     *zap.Logger
}

func NewAuthHandler(service usecase.AuthService, cookies utils.JWTConfig, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		cookies: cookies,
		log:     log.With(zap.String("handler", "auth")),
	}
}

// Register handles POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req request.RegisterRequest
	if !decodeBody(w, r, &req) || !validateBody(w, req) {
		return
	}

	user, err := h.service.Register(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "register")
		return
	}

	utils.ResponseCreated(w, "User registered successfully", user)
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req request.LoginRequest
	if !decodeBody(w, r, &req) || !validateBody(w, req) {
		return
	}

	auth, err := h.service.Login(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "login")
		return
	}

	h.setTokenCookies(w, auth)
	utils.ResponseSuccess(w, "Login successful", auth)
}

// Refresh handles POST /auth/refresh. The refresh token comes from its cookie only.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(h.cookies.RefreshCookieName)
	if err != nil || cookie.Value == "" {
		utils.ResponseUnauthorized(w, "Refresh token cookie missing")
		return
	}

	auth, err := h.service.Refresh(r.Context(), cookie.Value)
	if err != nil {
		handleServiceError(w, h.log, err, "refresh token")
		return
	}

	h.setTokenCookies(w, auth)
	utils.ResponseSuccess(w, "Token refreshed successfully", auth)
}

// Logout handles POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	if err := h.service.Logout(r.Context(), userID); err != nil {
		handleServiceError(w, h.log, err, "logout")
		return
	}

	h.clearTokenCookies(w)
	utils.ResponseSuccess(w, "Logged out successfully", nil)
}

// Me handles GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	user, err := h.service.Me(r.Context(), userID)
	if err != nil {
		handleServiceError(w, h.log, err, "get current user")
		return
	}

	utils.ResponseSuccess(w, "Current user retrieved successfully", user)
}

func (h *AuthHandler) setTokenCookies(w http.ResponseWriter, auth *response.AuthResponse) {
	h.setCookie(w, h.cookies.AccessCookieName, auth.AccessToken, h.cookies.AccessTTL)
	h.setCookie(w, h.cookies.RefreshCookieName, auth.RefreshToken, h.cookies.RefreshTTL)
}

func (h *AuthHandler) clearTokenCookies(w http.ResponseWriter) {
	h.setCookie(w, h.cookies.AccessCookieName, "", -1)
	h.setCookie(w, h.cookies.RefreshCookieName, "", -1)
}

// setCookie writes an httponly cookie; a negative ttl deletes it.
func (h *AuthHandler) setCookie(w http.ResponseWriter, name, value string, ttl time.Duration) {
	cookie := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookies.CookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(ttl / time.Second),
	}
	if ttl < 0 {
		cookie.MaxAge = -1
	}
	http.SetCookie(w, cookie)
}
