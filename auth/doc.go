// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth is the identity session provider.

# Login Flow

A login runs in two requests:

	GET /auth/start?redirect=/vote
	    Provider.Begin stores {nonce, return path} under a random state
	    and redirects to the identity provider
	GET /auth/callback?code=...&state=...
	    Provider.ExchangeAuthCode takes the state (once), exchanges the
	    code, records the user and sets the session cookie

Pending flows live in a FlowStore for 15 minutes. Return paths must be local
("/..."); anything else becomes /vote.

# Exchangers

OIDCExchanger uses golang.org/x/oauth2 and github.com/coreos/go-oidc/v3. The
ID token signature, audience and nonce are verified.

DevExchanger skips the provider entirely and is enabled with AUTH_DEV_MODE.
The code becomes the user handle:

	/auth/callback?code=alice&state=...  →  user "dev|alice"

# Sessions

The session is an HS256 JWT (github.com/golang-jwt/jwt/v5) in an HttpOnly
cookie named qv_session, valid for 7 days. The subject is the provider's
user id:

	user, err := provider.CurrentUser(r)
	if errors.Is(err, auth.ErrNoSession) {
		// redirect to login
	}

# Helpers

	id, err := auth.GenerateID(16)     // 32 hex characters
	hash := auth.HashIP(ip, secret)    // 16 hex characters
*/
package auth
