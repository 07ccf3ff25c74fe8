// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Remixblog Contributors

// Package session turns a user id into a tamper-evident cookie value and back.
//
// The cookie payload is an HS256-signed token whose only claim of interest
// is the user id. Resolution is deliberately fail-open: a missing, malformed,
// tampered, or expired cookie degrades to an anonymous request rather than
// an error. A missing signing secret, by contrast, is a fatal configuration
// error at construction time.
package session

import (
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Cookie configuration.
const (
	// CookieName is the session cookie name.
	CookieName = "remixblog_session"

	// MaxAge is the session lifetime.
	MaxAge = 60 * 24 * time.Hour // 60 days
)

// signingMethods restricts token verification to HS256.
var signingMethods = jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})

// claims is the signed session payload. Only the subject (user id) carries
// meaning; the registered claims bound the token's validity window.
type claims struct {
	jwt.RegisteredClaims
}

// Codec creates, signs, parses, and invalidates session cookies.
type Codec struct {
	secrets [][]byte
	secure  bool
}

// NewCodec creates a Codec from a non-empty secret list. The first secret
// signs new sessions; every listed secret verifies, which allows rotation.
// secure controls the cookie's Secure attribute (production only).
func NewCodec(secrets []string, secure bool) (*Codec, error) {
	if len(secrets) == 0 {
		return nil, oops.Code("CONFIG_INVALID").Errorf("at least one session secret is required")
	}
	keys := make([][]byte, 0, len(secrets))
	for _, s := range secrets {
		if s == "" {
			return nil, oops.Code("CONFIG_INVALID").Errorf("session secret cannot be empty")
		}
		keys = append(keys, []byte(s))
	}
	return &Codec{secrets: keys, secure: secure}, nil
}

// Issue creates a signed session cookie for the given user id.
func (c *Codec) Issue(userID ulid.ULID) (*http.Cookie, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(MaxAge)),
		},
	})

	signed, err := token.SignedString(c.secrets[0])
	if err != nil {
		return nil, oops.Code("SESSION_SIGN_FAILED").Wrap(err)
	}

	return c.cookie(signed, int(MaxAge.Seconds())), nil
}

// Resolve extracts the user id from the request's session cookie.
// Returns (zero, false) for any missing, malformed, tampered, or expired
// token. Untrusted input never produces an error here; the weakest valid
// state is an anonymous request.
func (c *Codec) Resolve(r *http.Request) (ulid.ULID, bool) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return ulid.ULID{}, false
	}

	for _, secret := range c.secrets {
		parsed, err := jwt.ParseWithClaims(cookie.Value, &claims{},
			func(*jwt.Token) (any, error) { return secret, nil },
			signingMethods,
		)
		if err != nil || !parsed.Valid {
			continue
		}

		cl, ok := parsed.Claims.(*claims)
		if !ok {
			continue
		}
		id, err := ulid.Parse(cl.Subject)
		if err != nil {
			continue
		}
		return id, true
	}

	return ulid.ULID{}, false
}

// Revoke returns a cookie that clears the session.
func (c *Codec) Revoke() *http.Cookie {
	cookie := c.cookie("", -1)
	cookie.Expires = time.Unix(0, 0)
	return cookie
}

// cookie builds the session cookie with the fixed attribute set.
func (c *Codec) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   c.secure,
	}
}
