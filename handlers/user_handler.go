package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/upb/permguard/guard"
	"github.com/upb/permguard/middleware"
	"github.com/upb/permguard/models"
	"github.com/upb/permguard/rbac"
	"github.com/upb/permguard/services"
	"github.com/upb/permguard/session"
	"github.com/upb/permguard/utils"
	"go.uber.org/zap"
)

// MeResponse describes the caller. Permissions lets clients evaluate
// permission hooks without shipping the role table.
type MeResponse struct {
	User        *session.User     `json:"user"`
	Permissions []rbac.Permission `json:"permissions"`
	Expires     *time.Time        `json:"expires,omitempty"`
}

// UpdateStatusRequest is the body of POST /api/v1/users/{id}/status
type UpdateStatusRequest struct {
	Status models.UserStatus `json:"status" validate:"required,oneof=ACTIVE BANNED SUSPENDED"`
}

// UserHandler handles user-related HTTP requests
type UserHandler struct {
	svc    *services.UserService // nil without a database
	store  *guard.Store
	logger *zap.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(svc *services.UserService, store *guard.Store, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		svc:    svc,
		store:  store,
		logger: logger,
	}
}

// HandleMe handles GET /api/v1/me
func (h *UserHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	s := middleware.GetSessionFromContext(r.Context())
	if !s.Authenticated() {
		_ = utils.WriteUnauthorized(w, "")
		return
	}

	cfg, err := h.store.PermissionConfig()
	if err != nil {
		HandleServiceError(w, services.WrapInternal("load permission config", err), h.logger)
		return
	}

	response := MeResponse{
		User:        s.User,
		Permissions: cfg.RolePermissions.PermissionsFor(s.Role()),
	}
	if !s.Expires.IsZero() {
		expires := s.Expires
		response.Expires = &expires
	}

	_ = utils.WriteOK(w, response)
}

// HandleUpdateStatus handles POST /api/v1/users/{id}/status
func (h *UserHandler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		_ = utils.WriteBadRequest(w, "Invalid user ID format", nil)
		return
	}

	var req UpdateStatusRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("invalid update status request",
			zap.String("request_id", requestID),
			zap.Error(err))
		HandleValidationError(w, err, h.logger)
		return
	}

	actor := middleware.GetSessionFromContext(ctx).UserID()
	user, err := h.svc.SetStatus(ctx, actor, id, req.Status)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("user status updated",
		zap.String("request_id", requestID),
		zap.String("user_id", id.String()),
		zap.String("status", string(user.Status)))

	_ = utils.WriteOK(w, user)
}
