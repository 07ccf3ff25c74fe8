// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Remixblog Contributors

package blog

import "errors"

// ErrNotFound is returned when a requested post does not exist.
var ErrNotFound = errors.New("not found")
