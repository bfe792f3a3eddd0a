// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package wizard

import (
	"net/url"
	"sync"

	"github.com/danielhkuo/quickly-vote/models"
)

type Step string

const (
	Intro   Step = models.StepIntro
	Country Step = models.StepCountry
	Team    Step = models.StepTeam
	Result  Step = models.StepResult
	Confirm Step = models.StepConfirm
)

// ParseStep reads the ?step= value. Anything unknown is the intro.
func ParseStep(s string) Step {
	switch Step(s) {
	case Country, Team, Result, Confirm:
		return Step(s)
	}
	return Intro
}

// Navigator moves the wizard to another step
type Navigator interface {
	Go(step Step)
}

// URLNavigator rewrites the step query parameter on the current URL and
// remembers where to send the browser. Other query parameters are kept.
type URLNavigator struct {
	base   url.URL
	Target string
	Moved  bool
}

func NewURLNavigator(u *url.URL) *URLNavigator {
	return &URLNavigator{base: *u}
}

func (n *URLNavigator) Go(step Step) {
	q := n.base.Query()
	q.Set("step", string(step))
	n.Target = n.base.Path + "?" + q.Encode()
	n.Moved = true
}

// StepURL is the wizard URL for step on path
func StepURL(path string, step Step) string {
	q := url.Values{}
	q.Set("step", string(step))
	return path + "?" + q.Encode()
}

// Flights allows one vote submission at a time per key (the browser tab).
// All machines serving the same tab share it.
type Flights struct {
	mu     sync.Mutex
	active map[string]struct{}
}

func NewFlights() *Flights {
	return &Flights{active: make(map[string]struct{})}
}

// Acquire reports whether the caller may start a submission for key
func (f *Flights) Acquire(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, busy := f.active[key]; busy {
		return false
	}
	f.active[key] = struct{}{}
	return true
}

func (f *Flights) Release(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.active, key)
}

// InFlight reports whether key has a submission running
func (f *Flights) InFlight(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, busy := f.active[key]
	return busy
}
