// Package memory provides process-local repositories for running without a database.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/upb/permguard/models"
	"github.com/upb/permguard/repositories"
)

// PostRepository implements repositories.PostRepository in memory
type PostRepository struct {
	mu    sync.RWMutex
	posts map[uuid.UUID]models.Post
}

// NewPostRepository creates an empty repository
func NewPostRepository() *PostRepository {
	return &PostRepository{posts: make(map[uuid.UUID]models.Post)}
}

// Create stores a copy of post
func (r *PostRepository) Create(_ context.Context, post *models.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.posts[post.ID] = *post
	return nil
}

// GetByID returns a copy of the stored post
func (r *PostRepository) GetByID(_ context.Context, id uuid.UUID) (*models.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	post, ok := r.posts[id]
	if !ok {
		return nil, repositories.ErrPostNotFound
	}
	return &post, nil
}

// List returns posts newest first. An empty status matches every post.
func (r *PostRepository) List(_ context.Context, status models.PostStatus, limit, offset int) ([]*models.Post, error) {
	r.mu.RLock()
	matched := make([]*models.Post, 0, len(r.posts))
	for _, p := range r.posts {
		if status == "" || p.Status == status {
			post := p
			matched = append(matched, &post)
		}
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	if offset >= len(matched) {
		return []*models.Post{}, nil
	}
	matched = matched[offset:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, nil
}

// Update replaces a stored post
func (r *PostRepository) Update(_ context.Context, post *models.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.posts[post.ID]; !ok {
		return repositories.ErrPostNotFound
	}
	r.posts[post.ID] = *post
	return nil
}

// Delete removes a post
func (r *PostRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.posts[id]; !ok {
		return repositories.ErrPostNotFound
	}
	delete(r.posts, id)
	return nil
}
