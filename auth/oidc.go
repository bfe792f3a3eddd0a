// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
)

// Exchanger turns an authorization code into an identity
type Exchanger interface {
	AuthCodeURL(state, nonce string) string
	Exchange(ctx context.Context, code, nonce string) (Identity, error)
}

// OIDCExchanger talks to a real OpenID Connect provider
type OIDCExchanger struct {
	oauth    *oauth2.Config
	verifier *oidc.IDTokenVerifier
}

// NewOIDCExchanger discovers the issuer and prepares the code exchange.
// redirectURL must match the callback registered with the provider.
func NewOIDCExchanger(ctx context.Context, issuer, clientID, clientSecret, redirectURL string) (*OIDCExchanger, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to create OIDC provider: %w", err)
	}

	return &OIDCExchanger{
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     provider.Endpoint(),
			RedirectURL:  redirectURL,
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
		verifier: provider.Verifier(&oidc.Config{ClientID: clientID}),
	}, nil
}

func (o *OIDCExchanger) AuthCodeURL(state, nonce string) string {
	return o.oauth.AuthCodeURL(state, oidc.Nonce(nonce))
}

func (o *OIDCExchanger) Exchange(ctx context.Context, code, nonce string) (Identity, error) {
	if code == "" {
		return Identity{}, ErrMissingCode
	}

	token, err := o.oauth.Exchange(ctx, code)
	if err != nil {
		return Identity{}, fmt.Errorf("token exchange failed: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		return Identity{}, errors.New("no id_token in token response")
	}

	idToken, err := o.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return Identity{}, fmt.Errorf("id token verification failed: %w", err)
	}

	var claims struct {
		Nonce string `json:"nonce"`
		Sub   string `json:"sub"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return Identity{}, fmt.Errorf("failed to extract claims: %w", err)
	}
	if claims.Nonce != nonce {
		return Identity{}, ErrNonceMismatch
	}

	return Identity{UserID: claims.Sub, Email: claims.Email, Name: claims.Name}, nil
}

// DevExchanger signs anyone in without a provider. The authorization "code"
// is the user handle, so /auth/callback?code=alice logs in as alice.
type DevExchanger struct {
	BaseURL string
}

func (d DevExchanger) AuthCodeURL(state, nonce string) string {
	q := url.Values{}
	q.Set("code", "dev")
	q.Set("state", state)
	return strings.TrimRight(d.BaseURL, "/") + "/auth/callback?" + q.Encode()
}

func (d DevExchanger) Exchange(_ context.Context, code, _ string) (Identity, error) {
	if code == "" {
		return Identity{}, ErrMissingCode
	}
	return Identity{
		UserID: "dev|" + code,
		Email:  code + "@dev.local",
		Name:   code,
	}, nil
}
