package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/upb/permguard/guard"
	"github.com/upb/permguard/middleware"
	"github.com/upb/permguard/models"
	"github.com/upb/permguard/services"
	"github.com/upb/permguard/session"
	"github.com/upb/permguard/utils"
	"go.uber.org/zap"
)

// errPostNotLoaded means a route forgot LoadPost before a handler that reads the post
var errPostNotLoaded = errors.New("post not loaded into request context")

// PostHandler handles post-related HTTP requests
type PostHandler struct {
	svc    *services.PostService
	store  *guard.Store
	logger *zap.Logger
}

// NewPostHandler creates a new PostHandler. store supplies the role table
// for the ownership exceptions granted by post:edit:any and post:delete:any.
func NewPostHandler(svc *services.PostService, store *guard.Store, logger *zap.Logger) *PostHandler {
	return &PostHandler{
		svc:    svc,
		store:  store,
		logger: logger,
	}
}

// LoadPost resolves the {id} URL parameter and stores the post in the
// request's resource slot.
func (h *PostHandler) LoadPost(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			_ = utils.WriteBadRequest(w, "Invalid post ID format", nil)
			return
		}

		post, err := h.svc.Get(r.Context(), id)
		if err != nil {
			HandleServiceError(w, err, h.logger)
			return
		}

		next.ServeHTTP(w, r.WithContext(middleware.WithResource(r.Context(), post)))
	})
}

// CanEditPost decides PUT /api/v1/posts/{id}. Holders of post:edit:any may
// edit anything. Otherwise the caller must own the post, the post must still
// be a draft, and the body must not hand the post to another author.
func (h *PostHandler) CanEditPost(ctx context.Context, s *session.Session, r *http.Request) (bool, error) {
	if h.store.CheckPermission(s, models.PermPostEditAny) {
		return true, nil
	}

	post, ok := middleware.ResourceAs[*models.Post](ctx)
	if !ok {
		return false, errPostNotLoaded
	}
	if !guard.CheckOwnership(post, s) {
		return false, nil
	}
	if !guard.CheckResourceState(post, (*models.Post).IsDraft) {
		return false, nil
	}

	var in services.UpdatePostInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		// Malformed bodies are reported by the handler
		return true, nil
	}
	return in.UserID == nil || *in.UserID == s.UserID(), nil
}

// HandleList handles GET /api/v1/posts
func (h *PostHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := r.URL.Query()

	limit, err := intParam(query.Get("limit"))
	if err != nil {
		_ = utils.WriteBadRequest(w, "Invalid limit", nil)
		return
	}
	offset, err := intParam(query.Get("offset"))
	if err != nil {
		_ = utils.WriteBadRequest(w, "Invalid offset", nil)
		return
	}

	posts, err := h.svc.List(ctx, models.PostStatus(query.Get("status")), limit, offset)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Debug("listed posts",
		zap.String("request_id", middleware.GetRequestIDFromContext(ctx)),
		zap.Int("count", len(posts)))

	_ = utils.WriteOK(w, posts)
}

// HandleGet handles GET /api/v1/posts/{id}
func (h *PostHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	post, ok := middleware.ResourceAs[*models.Post](r.Context())
	if !ok {
		HandleServiceError(w, services.WrapInternal("get post", errPostNotLoaded), h.logger)
		return
	}
	_ = utils.WriteOK(w, post)
}

// HandleCreate handles POST /api/v1/posts
func (h *PostHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	var in services.CreatePostInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		h.logger.Warn("invalid create post request",
			zap.String("request_id", requestID),
			zap.Error(err))
		HandleValidationError(w, err, h.logger)
		return
	}

	post, err := h.svc.Create(ctx, middleware.GetSessionFromContext(ctx).UserID(), in)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteCreated(w, post)
}

// HandleUpdate handles PUT /api/v1/posts/{id}
func (h *PostHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	post, ok := middleware.ResourceAs[*models.Post](ctx)
	if !ok {
		HandleServiceError(w, services.WrapInternal("update post", errPostNotLoaded), h.logger)
		return
	}

	var in services.UpdatePostInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		h.logger.Warn("invalid update post request",
			zap.String("request_id", requestID),
			zap.Error(err))
		HandleValidationError(w, err, h.logger)
		return
	}

	updated, err := h.svc.Update(ctx, post, in)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("post updated",
		zap.String("request_id", requestID),
		zap.String("post_id", updated.ID.String()),
		zap.String("user_id", middleware.GetSessionFromContext(ctx).UserID()))

	_ = utils.WriteOK(w, updated)
}

// HandleDelete handles DELETE /api/v1/posts/{id}. Authors may delete their
// own posts; post:delete:any lifts the ownership requirement.
func (h *PostHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s := middleware.GetSessionFromContext(ctx)

	post, ok := middleware.ResourceAs[*models.Post](ctx)
	if !ok {
		HandleServiceError(w, services.WrapInternal("delete post", errPostNotLoaded), h.logger)
		return
	}

	if !h.store.CheckPermission(s, models.PermPostDeleteAny) && !guard.CheckOwnership(post, s) {
		h.logger.Warn("post delete refused",
			zap.String("request_id", middleware.GetRequestIDFromContext(ctx)),
			zap.String("post_id", post.ID.String()),
			zap.String("user_id", s.UserID()))
		HandleServiceError(w, services.ErrNotPostOwner, h.logger)
		return
	}

	if err := h.svc.Delete(ctx, post.ID); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	utils.WriteNoContent(w)
}

func intParam(value string) (int, error) {
	if value == "" {
		return 0, nil
	}
	return strconv.Atoi(value)
}
