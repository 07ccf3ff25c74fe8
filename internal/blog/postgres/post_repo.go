// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Remixblog Contributors

// Package postgres implements blog repositories using PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/remixblog/remixblog/internal/blog"
)

// poolIface is the subset of pgxpool.Pool the repository uses. It allows
// pgxmock to stand in during tests.
type poolIface interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostRepository implements blog.PostRepository using PostgreSQL.
type PostRepository struct {
	pool poolIface
}

// NewPostRepository creates a new PostRepository.
func NewPostRepository(pool poolIface) *PostRepository {
	return &PostRepository{pool: pool}
}

// Create stores a new post.
func (r *PostRepository) Create(ctx context.Context, post *blog.Post) error {
	var authorID *string
	if post.AuthorID != nil {
		s := post.AuthorID.String()
		authorID = &s
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO posts (id, title, body, author_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`,
		post.ID.String(),
		post.Title,
		post.Body,
		authorID,
		post.CreatedAt,
	)
	if err != nil {
		return oops.Code("POST_CREATE_FAILED").
			With("operation", "insert post").
			With("id", post.ID.String()).
			Wrap(err)
	}
	return nil
}

// GetByID retrieves a post by ID.
func (r *PostRepository) GetByID(ctx context.Context, id ulid.ULID) (*blog.Post, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, title, body, author_id, created_at
		FROM posts
		WHERE id = $1
	`, id.String())

	post, err := r.scanPost(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("POST_NOT_FOUND").
			With("id", id.String()).
			Wrap(blog.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("POST_GET_BY_ID_FAILED").
			With("operation", "get post by id").
			With("id", id.String()).
			Wrap(err)
	}
	return post, nil
}

// List returns up to limit posts ordered by created_at descending.
func (r *PostRepository) List(ctx context.Context, limit int) ([]*blog.Post, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, title, body, author_id, created_at
		FROM posts
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, oops.Code("POST_LIST_FAILED").
			With("operation", "query posts").
			With("limit", limit).
			Wrap(err)
	}
	defer rows.Close()

	var posts []*blog.Post
	for rows.Next() {
		post, err := r.scanPost(rows)
		if err != nil {
			return nil, oops.Code("POST_LIST_FAILED").
				With("operation", "scan post row").
				Wrap(err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("POST_LIST_FAILED").
			With("operation", "iterate posts").
			Wrap(err)
	}

	return posts, nil
}

// Delete removes a post by ID.
func (r *PostRepository) Delete(ctx context.Context, id ulid.ULID) error {
	result, err := r.pool.Exec(ctx, `
		DELETE FROM posts WHERE id = $1
	`, id.String())
	if err != nil {
		return oops.Code("POST_DELETE_FAILED").
			With("operation", "delete post").
			With("id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("POST_NOT_FOUND").
			With("id", id.String()).
			Wrap(blog.ErrNotFound)
	}
	return nil
}

// scanPost scans a single row into a Post.
// Callers are responsible for handling pgx.ErrNoRows.
func (r *PostRepository) scanPost(row pgx.Row) (*blog.Post, error) {
	var (
		idStr       string
		title       string
		body        string
		authorIDStr *string
		createdAt   time.Time
	)

	err := row.Scan(&idStr, &title, &body, &authorIDStr, &createdAt)
	if err != nil {
		// Propagate pgx.ErrNoRows unchanged for callers to handle with context.
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // Callers wrap with context-specific info
		}
		return nil, oops.Code("POST_SCAN_FAILED").
			With("operation", "scan post").
			Wrap(err)
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("POST_INVALID_ID").
			With("operation", "parse post id").
			With("id", idStr).
			Wrap(err)
	}

	var authorID *ulid.ULID
	if authorIDStr != nil {
		parsed, err := ulid.Parse(*authorIDStr)
		if err != nil {
			return nil, oops.Code("POST_INVALID_AUTHOR_ID").
				With("operation", "parse author id").
				With("author_id", *authorIDStr).
				Wrap(err)
		}
		authorID = &parsed
	}

	return &blog.Post{
		ID:        id,
		Title:     title,
		Body:      body,
		AuthorID:  authorID,
		CreatedAt: createdAt,
	}, nil
}

// Compile-time interface check.
var _ blog.PostRepository = (*PostRepository)(nil)
