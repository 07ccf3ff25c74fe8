// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Remixblog Contributors

package auth

import "errors"

// ErrNotFound is returned when a requested user does not exist.
var ErrNotFound = errors.New("not found")

// ErrUsernameTaken is returned when registering a username that already
// exists. Repositories surface the store's unique-constraint violation as
// this error so there is no check-then-create window.
var ErrUsernameTaken = errors.New("username already taken")
