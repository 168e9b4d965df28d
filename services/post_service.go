package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/upb/permguard/models"
	"github.com/upb/permguard/repositories"
	"go.uber.org/zap"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// CreatePostInput is the payload for a new post
type CreatePostInput struct {
	Title string `json:"title" validate:"required,max=200"`
	Body  string `json:"body" validate:"max=10000"`
}

// UpdatePostInput is a partial update. Nil fields are left unchanged.
// UserID reassigns the author.
type UpdatePostInput struct {
	Title  *string            `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Body   *string            `json:"body,omitempty" validate:"omitempty,max=10000"`
	Status *models.PostStatus `json:"status,omitempty" validate:"omitempty,oneof=draft published archived"`
	UserID *string            `json:"user_id,omitempty" validate:"omitempty,min=1"`
}

// PostService implements the post operations of the reference server
type PostService struct {
	posts  repositories.PostRepository
	logger *zap.Logger
}

// NewPostService creates a new PostService
func NewPostService(posts repositories.PostRepository, logger *zap.Logger) *PostService {
	return &PostService{posts: posts, logger: logger}
}

// List returns a page of posts, optionally filtered by status.
// A non-positive limit uses the default page size.
func (s *PostService) List(ctx context.Context, status models.PostStatus, limit, offset int) ([]*models.Post, error) {
	switch status {
	case "", models.PostDraft, models.PostPublished, models.PostArchived:
	default:
		return nil, ErrInvalidStatus.WithDetail("status", string(status))
	}

	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	posts, err := s.posts.List(ctx, status, limit, offset)
	if err != nil {
		return nil, WrapInternal("failed to list posts", err)
	}
	return posts, nil
}

// Get returns a post by ID
func (s *PostService) Get(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapError("failed to get post", err)
	}
	return post, nil
}

// Create stores a new draft authored by authorID
func (s *PostService) Create(ctx context.Context, authorID string, in CreatePostInput) (*models.Post, error) {
	if authorID == "" {
		return nil, ErrUnauthorized
	}

	post := models.NewPost(authorID, in.Title, in.Body)
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, WrapInternal("failed to create post", err)
	}

	s.logger.Info("post created",
		zap.String("post_id", post.ID.String()),
		zap.String("user_id", authorID))
	return post, nil
}

// Update applies in to post and stores the result
func (s *PostService) Update(ctx context.Context, post *models.Post, in UpdatePostInput) (*models.Post, error) {
	updated := *post
	if in.Title != nil {
		updated.Title = *in.Title
	}
	if in.Body != nil {
		updated.Body = *in.Body
	}
	if in.Status != nil {
		updated.Status = *in.Status
	}
	if in.UserID != nil {
		updated.UserID = *in.UserID
	}
	updated.UpdatedAt = time.Now()

	if err := s.posts.Update(ctx, &updated); err != nil {
		return nil, s.mapError("failed to update post", err)
	}
	return &updated, nil
}

// Delete removes a post
func (s *PostService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.posts.Delete(ctx, id); err != nil {
		return s.mapError("failed to delete post", err)
	}
	s.logger.Info("post deleted", zap.String("post_id", id.String()))
	return nil
}

func (s *PostService) mapError(message string, err error) error {
	if errors.Is(err, repositories.ErrPostNotFound) {
		return ErrPostNotFound
	}
	return WrapInternal(message, err)
}
