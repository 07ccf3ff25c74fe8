// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Remixblog Contributors

// Package blog provides the post domain model and service.
package blog

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Content validation constraints.
const (
	MinTitleLength = 3
	MinBodyLength  = 10
)

// Post represents a published blog post. AuthorID is nil for posts whose
// author account has been deleted.
type Post struct {
	ID        ulid.ULID
	Title     string
	Body      string
	AuthorID  *ulid.ULID
	CreatedAt time.Time
}

// NewPost creates a validated Post instance.
func NewPost(title, body string, authorID *ulid.ULID) (*Post, error) {
	if err := ValidateTitle(title); err != nil {
		return nil, err
	}
	if err := ValidateBody(body); err != nil {
		return nil, err
	}
	if authorID != nil && authorID.Compare(ulid.ULID{}) == 0 {
		return nil, oops.Code("POST_INVALID_AUTHOR").Errorf("author id cannot be zero when provided")
	}

	return &Post{
		ID:        ulid.Make(),
		Title:     title,
		Body:      body,
		AuthorID:  authorID,
		CreatedAt: time.Now(),
	}, nil
}

// ValidateTitle validates a post title.
func ValidateTitle(title string) error {
	if len(title) < MinTitleLength {
		return oops.Code("POST_INVALID_TITLE").
			With("min", MinTitleLength).
			Errorf("title must be at least %d characters", MinTitleLength)
	}
	return nil
}

// ValidateBody validates a post body.
func ValidateBody(body string) error {
	if len(body) < MinBodyLength {
		return oops.Code("POST_INVALID_BODY").
			With("min", MinBodyLength).
			Errorf("body must be at least %d characters", MinBodyLength)
	}
	return nil
}

// PostRepository manages post persistence.
type PostRepository interface {
	// Create stores a new post.
	Create(ctx context.Context, post *Post) error

	// GetByID retrieves a post by ID.
	GetByID(ctx context.Context, id ulid.ULID) (*Post, error)

	// List returns up to limit posts ordered by CreatedAt descending.
	List(ctx context.Context, limit int) ([]*Post, error)

	// Delete removes a post by ID.
	Delete(ctx context.Context, id ulid.ULID) error
}
