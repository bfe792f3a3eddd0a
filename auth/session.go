// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/danielhkuo/quickly-vote/models"
)

const (
	SessionCookieName = "qv_session"
	sessionTTL        = 7 * 24 * time.Hour
)

type sessionClaims struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Sessions issues and reads the signed session cookie
type Sessions struct {
	secret []byte
	secure bool
	ttl    time.Duration
	now    func() time.Time
}

func NewSessions(secret string, secure bool) *Sessions {
	return &Sessions{
		secret: []byte(secret),
		secure: secure,
		ttl:    sessionTTL,
		now:    time.Now,
	}
}

// Token signs a session token for the identity
func (s *Sessions) Token(id Identity) (string, error) {
	now := s.now()
	claims := sessionClaims{
		Email: id.Email,
		Name:  id.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session: %w", err)
	}
	return signed, nil
}

// Issue sets the session cookie
func (s *Sessions) Issue(w http.ResponseWriter, id Identity) error {
	signed, err := s.Token(id)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    signed,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.ttl.Seconds()),
	})
	return nil
}

// CurrentUser returns the user of a valid session cookie, or ErrNoSession
func (s *Sessions) CurrentUser(r *http.Request) (models.User, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil || cookie.Value == "" {
		return models.User{}, ErrNoSession
	}
	return s.Parse(cookie.Value)
}

// Parse validates a session token
func (s *Sessions) Parse(raw string) (models.User, error) {
	var claims sessionClaims
	token, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid || claims.Subject == "" {
		return models.User{}, ErrNoSession
	}

	return models.User{ID: claims.Subject, Email: claims.Email, Name: claims.Name}, nil
}

// SignOut expires the session cookie
func (s *Sessions) SignOut(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}
