// Copyright (c) 2026 Vendaro. All rights reserved.
// Author: dev@vendaro.app

/*
Package identity resolves the calling vendor from an upstream-issued bearer token.

Vendaro does not mint credentials of its own. Vendors authenticate against the
marketplace's WordPress JWT plugin; Vendaro only verifies the HMAC signature,
extracts the vendor identity for scoping (queue rows, proxied mutations), and
keeps the raw token so it can be forwarded verbatim on upstream calls.
*/
package identity

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vendaro/vendaro/internal/platform/apperr"
)

// Vendor is the authenticated caller of the API.
type Vendor struct {
	// ID is the WordPress user ID of the vendor.
	ID int64

	// Login is the vendor's display login, when the token carries one.
	Login string

	// Token is the raw bearer token, forwarded as-is on upstream calls.
	Token string
}

// claims mirrors the payload of the upstream WordPress JWT plugin.
//
// The plugin nests the user under data.user; the flat fields cover forks that
// put the ID at the top level.
type claims struct {
	jwt.RegisteredClaims

	UserID    int64  `json:"user_id,omitempty"`
	UserLogin string `json:"user_login,omitempty"`

	Data struct {
		User struct {
			ID int64 `json:"id,string"`
		} `json:"user"`
	} `json:"data"`
}

// Verifier validates vendor bearer tokens.
type Verifier struct {
	secret []byte
}

// NewVerifier creates a Verifier sharing the upstream's HMAC signing secret.
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// VerifyToken parses and validates a raw bearer token.
//
// # Returns
//   - *Vendor: The resolved vendor identity, including the raw token.
//   - error: apperr.Unauthorized for any signature, expiry, or shape problem.
func (v *Verifier) VerifyToken(tokenStr string) (*Vendor, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &claims{}, func(token *jwt.Token) (interface{}, error) {
		// The upstream plugin signs with HS256 only. Reject anything else so
		// an attacker cannot downgrade to "none" or swap in an RSA key.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("identity: unexpected signing method %q", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, apperr.Unauthorized("Invalid or expired token")
	}

	payload, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid {
		return nil, apperr.Unauthorized("Invalid or expired token")
	}

	vendorID := payload.UserID
	if vendorID == 0 {
		vendorID = payload.Data.User.ID
	}
	if vendorID == 0 {
		return nil, apperr.Unauthorized("Token carries no vendor identity")
	}

	return &Vendor{
		ID:    vendorID,
		Login: payload.UserLogin,
		Token: tokenStr,
	}, nil
}
