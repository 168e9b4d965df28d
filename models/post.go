package models

import (
	"time"

	"github.com/google/uuid"
)

// PostStatus is the publication state of a post
type PostStatus string

const (
	PostDraft     PostStatus = "draft"
	PostPublished PostStatus = "published"
	PostArchived  PostStatus = "archived"
)

// Post is the resource guarded by the reference server's ownership rules.
// UserID is the author; ownership checks read it by field name.
type Post struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	UserID    string     `json:"user_id" db:"user_id"`
	Title     string     `json:"title" db:"title"`
	Body      string     `json:"body" db:"body"`
	Status    PostStatus `json:"status" db:"status"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}

// TableName returns the table name for the Post model
func (Post) TableName() string {
	return "posts"
}

// NewPost creates a draft owned by userID
func NewPost(userID, title, body string) *Post {
	now := time.Now()
	return &Post{
		ID:        uuid.New(),
		UserID:    userID,
		Title:     title,
		Body:      body,
		Status:    PostDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsDraft returns true while the post can still be edited by its author
func (p *Post) IsDraft() bool {
	return p.Status == PostDraft
}
