// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Remixblog Contributors

// Package web exposes the blog over HTTP.
package web

import (
	"github.com/remixblog/remixblog/internal/auth"
	"github.com/remixblog/remixblog/internal/blog"
)

// FieldErrors maps a form field name to its validation message.
type FieldErrors map[string]string

// LoginForm carries a submitted login or register request.
type LoginForm struct {
	LoginType string
	Username  string
	Password  string
}

// Validate checks the form fields and returns one message per failing field.
// A nil result means the form is valid.
func (f *LoginForm) Validate() FieldErrors {
	errs := FieldErrors{}
	if err := auth.ValidateUsername(f.Username); err != nil {
		errs["username"] = "Usernames must be at least 3 characters long"
	}
	if err := auth.ValidatePassword(f.Password); err != nil {
		errs["password"] = "Passwords must be at least 6 characters long"
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Fields returns the submitted values safe to echo back to the client.
// The password is never included.
func (f *LoginForm) Fields() map[string]string {
	return map[string]string{
		"loginType": f.LoginType,
		"username":  f.Username,
	}
}

// PostForm carries a submitted post.
type PostForm struct {
	Title string
	Body  string
}

// Validate checks the form fields and returns one message per failing field.
// A nil result means the form is valid.
func (f *PostForm) Validate() FieldErrors {
	errs := FieldErrors{}
	if err := blog.ValidateTitle(f.Title); err != nil {
		errs["title"] = "Titles must be at least 3 characters long"
	}
	if err := blog.ValidateBody(f.Body); err != nil {
		errs["body"] = "Posts must be at least 10 characters long"
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Fields returns the submitted values safe to echo back to the client.
func (f *PostForm) Fields() map[string]string {
	return map[string]string{
		"title": f.Title,
		"body":  f.Body,
	}
}
