package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/taskkeeper/internal/api/shared"
	"github.com/phrazzld/taskkeeper/internal/domain"
	"github.com/phrazzld/taskkeeper/internal/platform/logger"
	"github.com/phrazzld/taskkeeper/internal/service"
	"github.com/phrazzld/taskkeeper/internal/service/auth"
	"github.com/phrazzld/taskkeeper/internal/store"
)

// AuthHandler issues access and refresh tokens.
type AuthHandler struct {
	userService service.UserService
	jwtService  auth.JWTService
	logger      *slog.Logger
	now         func() time.Time
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(
	userService service.UserService,
	jwtService auth.JWTService,
	logger *slog.Logger,
) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{
		userService: userService,
		jwtService:  jwtService,
		logger:      logger.With(slog.String("component", "auth_handler")),
		now:         time.Now,
	}
}

// tokenPair holds a freshly issued pair of tokens.
type tokenPair struct {
	access    string
	refresh   string
	expiresAt string
}

func (h *AuthHandler) issueTokens(r *http.Request, user *domain.User) (tokenPair, error) {
	access, err := h.jwtService.GenerateToken(r.Context(), user.ID, user.Role)
	if err != nil {
		return tokenPair{}, err
	}
	refresh, err := h.jwtService.GenerateRefreshToken(r.Context(), user.ID, user.Role)
	if err != nil {
		return tokenPair{}, err
	}
	expiresAt := h.now().Add(h.jwtService.AccessTokenLifetime()).UTC().Format(time.RFC3339)
	return tokenPair{access: access, refresh: refresh, expiresAt: expiresAt}, nil
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.userService.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	tokens, err := h.issueTokens(r, user)
	if err != nil {
		log.Error("failed to generate tokens", slog.String("user_id", user.ID.String()))
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to generate authentication token", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, AuthResponse{
		UserID:       user.ID,
		AccessToken:  tokens.access,
		RefreshToken: tokens.refresh,
		ExpiresAt:    tokens.expiresAt,
	})
}

// RefreshToken handles POST /auth/refresh. The user is reloaded so the new
// tokens carry the current role, and deleted users cannot refresh.
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req RefreshTokenRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	claims, err := h.jwtService.ValidateRefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	caller := claims.Principal()
	user, err := h.userService.GetUser(r.Context(), caller, caller.UserID)
	if err != nil {
		if store.IsNotFoundError(err) {
			HandleAPIError(w, r, auth.ErrInvalidRefreshToken)
			return
		}
		HandleAPIError(w, r, err)
		return
	}

	tokens, err := h.issueTokens(r, user)
	if err != nil {
		log.Error("failed to generate tokens", slog.String("user_id", user.ID.String()))
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to generate authentication token", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, RefreshTokenResponse{
		AccessToken:  tokens.access,
		RefreshToken: tokens.refresh,
		ExpiresAt:    tokens.expiresAt,
	})
}
