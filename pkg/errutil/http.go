// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Remixblog Contributors

package errutil

import (
	"net/http"
	"strings"
)

// HTTPStatus maps an error to the HTTP status the web layer should respond
// with. Validation and credential failures are client faults, not-found codes
// map to 404, and anything unrecognized is a server fault.
func HTTPStatus(err error) int {
	code := Code(err)
	switch {
	case code == "":
		return http.StatusInternalServerError
	case code == "AUTH_UNAUTHENTICATED":
		return http.StatusUnauthorized
	case strings.HasSuffix(code, "_NOT_FOUND"):
		return http.StatusNotFound
	case code == "AUTH_INVALID_CREDENTIALS",
		code == "AUTH_USERNAME_TAKEN",
		strings.Contains(code, "_INVALID_"):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
