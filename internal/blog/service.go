// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Remixblog Contributors

package blog

import (
	"context"
	"errors"
	"log/slog"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// DefaultListLimit bounds the number of posts returned by a listing.
const DefaultListLimit = 20

// Service provides post operations.
type Service struct {
	posts  PostRepository
	logger *slog.Logger
}

// NewService creates a new Service with a no-op logger.
// Returns an error if the repository is nil.
func NewService(posts PostRepository) (*Service, error) {
	return NewServiceWithLogger(posts, slog.New(slog.DiscardHandler))
}

// NewServiceWithLogger creates a new Service with the provided logger.
// Returns an error if any required dependency is nil.
func NewServiceWithLogger(posts PostRepository, logger *slog.Logger) (*Service, error) {
	if posts == nil {
		return nil, oops.Errorf("post repository is required")
	}
	if logger == nil {
		return nil, oops.Errorf("logger is required")
	}
	return &Service{posts: posts, logger: logger}, nil
}

// List returns the newest posts, most recent CreatedAt first, capped at
// DefaultListLimit.
func (s *Service) List(ctx context.Context) ([]*Post, error) {
	posts, err := s.posts.List(ctx, DefaultListLimit)
	if err != nil {
		return nil, oops.Code("POST_LIST_FAILED").
			With("operation", "list posts").
			With("limit", DefaultListLimit).
			Wrap(err)
	}
	return posts, nil
}

// Get retrieves a single post.
func (s *Service) Get(ctx context.Context, id ulid.ULID) (*Post, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code("POST_NOT_FOUND").
				With("id", id.String()).
				Wrap(err)
		}
		return nil, oops.Code("POST_GET_FAILED").
			With("operation", "get post by id").
			With("id", id.String()).
			Wrap(err)
	}
	return post, nil
}

// Create validates and persists a new post for the given author.
func (s *Service) Create(ctx context.Context, authorID ulid.ULID, title, body string) (*Post, error) {
	post, err := NewPost(title, body, &authorID)
	if err != nil {
		return nil, err
	}

	if err := s.posts.Create(ctx, post); err != nil {
		return nil, oops.Code("POST_CREATE_FAILED").
			With("operation", "persist post").
			With("id", post.ID.String()).
			Wrap(err)
	}

	s.logger.Info("post created", "post_id", post.ID.String(), "author_id", authorID.String())
	return post, nil
}

// Delete removes a post.
func (s *Service) Delete(ctx context.Context, id ulid.ULID) error {
	err := s.posts.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return oops.Code("POST_NOT_FOUND").
				With("id", id.String()).
				Wrap(err)
		}
		return oops.Code("POST_DELETE_FAILED").
			With("operation", "delete post").
			With("id", id.String()).
			Wrap(err)
	}

	s.logger.Info("post deleted", "post_id", id.String())
	return nil
}
