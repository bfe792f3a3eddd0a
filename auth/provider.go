// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/quickly-vote/models"
)

// UserRecorder persists identities seen at login
type UserRecorder interface {
	UpsertUser(ctx context.Context, u models.User) error
}

// Provider is the session provider used by handlers and the gate
type Provider struct {
	exchanger Exchanger
	sessions  *Sessions
	flows     *FlowStore
	users     UserRecorder
}

func NewProvider(ex Exchanger, sessions *Sessions, flows *FlowStore, users UserRecorder) *Provider {
	return &Provider{exchanger: ex, sessions: sessions, flows: flows, users: users}
}

// Begin records a new login flow and returns the provider URL to send the
// browser to.
func (p *Provider) Begin(returnURL string) (string, error) {
	state, err := GenerateID(16)
	if err != nil {
		return "", err
	}
	nonce, err := GenerateID(16)
	if err != nil {
		return "", err
	}

	if err := p.flows.Put(state, FlowState{Nonce: nonce, ReturnURL: SanitizeReturnPath(returnURL)}); err != nil {
		return "", fmt.Errorf("failed to store auth state: %w", err)
	}
	return p.exchanger.AuthCodeURL(state, nonce), nil
}

// ExchangeAuthCode completes a login: it consumes the state, exchanges the
// code, records the user and sets the session cookie. It returns where the
// browser should go next.
func (p *Provider) ExchangeAuthCode(ctx context.Context, w http.ResponseWriter, state, code string) (string, error) {
	flow, err := p.flows.Take(state)
	if err != nil {
		return "", err
	}

	id, err := p.exchanger.Exchange(ctx, code, flow.Nonce)
	if err != nil {
		return "", err
	}

	if p.users != nil {
		if err := p.users.UpsertUser(ctx, models.User{ID: id.UserID, Email: id.Email, Name: id.Name}); err != nil {
			// Login still succeeds; the users table is informational
			slog.Warn("failed to record user", "error", err, "user_id", id.UserID)
		}
	}

	if err := p.sessions.Issue(w, id); err != nil {
		return "", err
	}

	slog.Info("user signed in", "user_id", id.UserID)
	return SanitizeReturnPath(flow.ReturnURL), nil
}

// CurrentUser returns the signed-in user or ErrNoSession
func (p *Provider) CurrentUser(r *http.Request) (models.User, error) {
	return p.sessions.CurrentUser(r)
}

// Authenticated reports whether the request carries a valid session
func (p *Provider) Authenticated(r *http.Request) bool {
	_, err := p.sessions.CurrentUser(r)
	return err == nil
}

// SignOut clears the session cookie
func (p *Provider) SignOut(w http.ResponseWriter) {
	p.sessions.SignOut(w)
}

// SweepFlows drops abandoned login flows
func (p *Provider) SweepFlows() int {
	return p.flows.Sweep()
}
