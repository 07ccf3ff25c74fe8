// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Remixblog Contributors

// Package auth provides authentication primitives for remixblog.
//
// # Domain Types
//
// User is created through Service.Register, which validates credentials and
// hashes the password before anything touches the repository. Direct struct
// initialization bypasses validation and may create invalid state.
//
// # Services
//
// Service coordinates login and registration against a UserRepository and a
// PasswordHasher. It is created with NewService or NewServiceWithLogger,
// which validate their dependencies.
package auth
