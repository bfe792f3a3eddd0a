// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode"
)

var (
	ErrNoSession     = errors.New("no valid session")
	ErrInvalidState  = errors.New("invalid or expired auth state")
	ErrNonceMismatch = errors.New("id token nonce mismatch")
	ErrMissingCode   = errors.New("authorization code is required")
)

// DefaultReturnPath is where a completed login lands without a recorded destination
const DefaultReturnPath = "/vote"

// Identity is what the identity provider tells us about a user
type Identity struct {
	UserID string
	Email  string
	Name   string
}

// GenerateID creates a random hex ID of the specified byte length
func GenerateID(byteLen int) (string, error) {
	b := make([]byte, byteLen)
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate random ID: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// HashIP creates a one-way hash of an IP address for privacy
// Includes salt to prevent rainbow table attacks
func HashIP(ip, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(ip))
	sum := h.Sum(nil)
	// Return first 16 hex chars (64 bits) - enough for deduplication
	return hex.EncodeToString(sum[:8])
}

// SanitizeReturnPath keeps post-login redirects on this site.
// Anything that is not a local absolute path becomes DefaultReturnPath.
func SanitizeReturnPath(target string) string {
	if target == "" || !strings.HasPrefix(target, "/") {
		return DefaultReturnPath
	}
	if strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return DefaultReturnPath
	}
	// Browsers drop tabs and newlines, so "/\t/host" would become "//host"
	if strings.ContainsFunc(target, unicode.IsControl) {
		return DefaultReturnPath
	}
	u, err := url.Parse(target)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return DefaultReturnPath
	}
	return target
}
