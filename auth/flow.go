// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"errors"
	"sync"
	"time"
)

const flowTTL = 15 * time.Minute

// FlowState is what we remember between /auth/start and /auth/callback
type FlowState struct {
	Nonce     string
	ReturnURL string
	CreatedAt time.Time
}

// FlowStore keeps pending login flows keyed by the OAuth state parameter.
// A state can be taken once.
type FlowStore struct {
	mu     sync.Mutex
	states map[string]FlowState
	ttl    time.Duration
	now    func() time.Time
}

func NewFlowStore() *FlowStore {
	return &FlowStore{
		states: make(map[string]FlowState),
		ttl:    flowTTL,
		now:    time.Now,
	}
}

// Put stores a flow under its state
func (f *FlowStore) Put(state string, fs FlowState) error {
	if state == "" {
		return errors.New("state cannot be empty")
	}
	if fs.CreatedAt.IsZero() {
		fs.CreatedAt = f.now()
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.states[state] = fs
	return nil
}

// Take removes and returns the flow for state
func (f *FlowStore) Take(state string) (FlowState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	fs, ok := f.states[state]
	if !ok {
		return FlowState{}, ErrInvalidState
	}
	delete(f.states, state)

	if f.now().Sub(fs.CreatedAt) > f.ttl {
		return FlowState{}, ErrInvalidState
	}
	return fs, nil
}

// Sweep drops expired flows and returns how many were removed
func (f *FlowStore) Sweep() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	removed := 0
	now := f.now()
	for state, fs := range f.states {
		if now.Sub(fs.CreatedAt) > f.ttl {
			delete(f.states, state)
			removed++
		}
	}
	return removed
}

// Len returns the number of pending flows
func (f *FlowStore) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.states)
}
