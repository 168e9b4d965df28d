package handlers

import (
	"net/http"
	"time"

	"github.com/upb/permguard/middleware"
	"github.com/upb/permguard/rbac"
	"github.com/upb/permguard/session"
	"github.com/upb/permguard/utils"
	"go.uber.org/zap"
)

// TokenRequest is the body of POST /auth/token
type TokenRequest struct {
	ID     string `json:"id" validate:"required,max=255"`
	Role   string `json:"role" validate:"required,max=50"`
	Status string `json:"status,omitempty" validate:"omitempty,max=50"`
	Email  string `json:"email,omitempty" validate:"omitempty,email"`
	Name   string `json:"name,omitempty" validate:"omitempty,max=255"`
}

// TokenResponse carries an issued session token
type TokenResponse struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AuthHandler issues development session tokens. It stands in for a real
// identity provider and is only routed outside production.
type AuthHandler struct {
	auth         *session.JWTAuthenticator
	secureCookie bool
	logger       *zap.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(auth *session.JWTAuthenticator, secureCookie bool, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		auth:         auth,
		secureCookie: secureCookie,
		logger:       logger,
	}
}

// HandleIssueToken handles POST /auth/token. The token is returned in the
// body and also set as the session cookie.
func (h *AuthHandler) HandleIssueToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	var req TokenRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	token, err := h.auth.Issue(session.User{
		ID:     req.ID,
		Role:   rbac.Role(req.Role),
		Status: req.Status,
		Email:  req.Email,
		Name:   req.Name,
	})
	if err != nil {
		h.logger.Error("failed to issue token",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteInternalServerError(w, "Failed to issue token")
		return
	}

	issued, err := h.auth.Validate(ctx, token)
	if err != nil {
		h.logger.Error("issued token does not validate",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteInternalServerError(w, "Failed to issue token")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.auth.CookieName(),
		Value:    token,
		Path:     "/",
		Expires:  issued.Expires,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	h.logger.Info("development token issued",
		zap.String("request_id", requestID),
		zap.String("user_id", req.ID),
		zap.String("role", req.Role))

	_ = utils.WriteCreated(w, TokenResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresAt: issued.Expires,
	})
}

// HandleLogout handles POST /auth/logout by expiring the session cookie
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.auth.CookieName(),
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	utils.WriteNoContent(w)
}
