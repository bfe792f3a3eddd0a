// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/danielhkuo/quickly-vote/gate"
	"github.com/danielhkuo/quickly-vote/testutil"
)

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	w := httptest.NewRecorder()
	env.pages.Health(w, httptest.NewRequest("GET", "/health", nil))

	testutil.AssertStatus(t, w, http.StatusOK)
	if w.Body.String() != "OK" {
		t.Errorf("Expected body 'OK', got '%s'", w.Body.String())
	}
}

func TestIntro(t *testing.T) {
	env := newTestEnv(t)

	t.Run("anonymous goes through login", func(t *testing.T) {
		w := httptest.NewRecorder()
		env.pages.Intro(w, httptest.NewRequest("GET", "/", nil))

		testutil.AssertStatus(t, w, http.StatusOK)
		doc := parseHTML(t, w)
		if href, _ := doc.Find("#next").Attr("href"); href != "/login?redirect=%2Fvote%3Fstep%3Dcountry" {
			t.Errorf("Unexpected next link %q", href)
		}
		if doc.Find("form.logout").Length() != 0 {
			t.Error("Expected no logout form")
		}
	})

	t.Run("signed in goes to the wizard", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		env.login(t, req, "user-1")
		w := httptest.NewRecorder()
		env.pages.Intro(w, req)

		doc := parseHTML(t, w)
		if href, _ := doc.Find("#next").Attr("href"); href != "/vote?step=country" {
			t.Errorf("Unexpected next link %q", href)
		}
		if doc.Find("form.logout").Length() != 1 {
			t.Error("Expected a logout form")
		}
	})

	t.Run("unknown path", func(t *testing.T) {
		w := httptest.NewRecorder()
		env.pages.Intro(w, httptest.NewRequest("GET", "/nope", nil))
		testutil.AssertStatus(t, w, http.StatusNotFound)
	})
}

func TestClosedPage(t *testing.T) {
	env := newTestEnv(t)
	env.pages.closed = gate.NewClosed("2025-11-02T18:00:00Z", func() time.Time {
		return time.Date(2025, 11, 3, 0, 0, 0, 0, time.UTC)
	})

	w := httptest.NewRecorder()
	env.pages.Closed(w, httptest.NewRequest("GET", "/closed", nil))

	testutil.AssertStatus(t, w, http.StatusOK)
	doc := parseHTML(t, w)
	if title := doc.Find("h1").Text(); title != "Voting has closed" {
		t.Errorf("Unexpected title %q", title)
	}
	if dt, _ := doc.Find("time").Attr("datetime"); dt != "2025-11-02T18:00:00Z" {
		t.Errorf("Unexpected deadline %q", dt)
	}
}

func TestClosedPage_NoDeadline(t *testing.T) {
	env := newTestEnv(t)

	w := httptest.NewRecorder()
	env.pages.Closed(w, httptest.NewRequest("GET", "/closed", nil))

	doc := parseHTML(t, w)
	if doc.Find("time").Length() != 0 {
		t.Error("Expected no deadline without a configured one")
	}
}

func TestNotAvailablePage(t *testing.T) {
	env := newTestEnv(t)

	w := httptest.NewRecorder()
	env.pages.NotAvailable(w, httptest.NewRequest("GET", "/not-available", nil))

	testutil.AssertStatus(t, w, http.StatusOK)
	if !strings.Contains(w.Body.String(), "Not available in your region") {
		t.Error("Expected the region notice")
	}
}

func TestOpenInBrowserPage(t *testing.T) {
	env := newTestEnv(t)

	testCases := []struct {
		query  string
		target string
	}{
		{"?redirect=%2Flogin%3Fredirect%3D%252Fvote", "/login?redirect=%2Fvote"},
		{"?redirect=%2F%2Fevil.example.com", "/vote"},
		{"", "/vote"},
	}

	for _, tc := range testCases {
		w := httptest.NewRecorder()
		env.pages.OpenInBrowser(w, httptest.NewRequest("GET", "/open-in-browser"+tc.query, nil))

		testutil.AssertStatus(t, w, http.StatusOK)
		doc := parseHTML(t, w)
		if href, _ := doc.Find("#continue").Attr("href"); href != tc.target {
			t.Errorf("query %q: expected target %q, got %q", tc.query, tc.target, href)
		}
		if code := doc.Find("#target").Text(); code != env.cfg.BaseURL+tc.target {
			t.Errorf("query %q: expected absolute URL, got %q", tc.query, code)
		}
	}
}

func TestPagesFollowLocale(t *testing.T) {
	env := newTestEnv(t)
	catalog := env.render.catalog

	var body string
	h := catalog.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		env.pages.NotAvailable(w, r)
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/ko/not-available", nil))
	body = w.Body.String()

	if !strings.Contains(body, `lang="ko"`) {
		t.Error("Expected the Korean page")
	}
	if !strings.Contains(body, catalog.T("ko", "not_available.title")) {
		t.Error("Expected the Korean title")
	}
}
