// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/danielhkuo/quickly-vote/auth"
	"github.com/danielhkuo/quickly-vote/cliparse"
	"github.com/danielhkuo/quickly-vote/gate"
	"github.com/danielhkuo/quickly-vote/i18n"
	"github.com/danielhkuo/quickly-vote/ranking"
	"github.com/danielhkuo/quickly-vote/selection"
	"github.com/danielhkuo/quickly-vote/store"
	"github.com/danielhkuo/quickly-vote/testutil"
)

// testEnv wires the handlers against an in-memory database
type testEnv struct {
	db         *sql.DB
	cfg        cliparse.Config
	rows       *store.Store
	sessions   *auth.Sessions
	provider   *auth.Provider
	poller     *ranking.Poller
	render     *Renderer
	selections *selection.MemoryStore

	vote    *VoteHandler
	results *ResultsHandler
	api     *APIHandler
	auth    *AuthHandler
	pages   *PageHandler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	conn := testutil.SetupTestDB(t)
	t.Cleanup(func() { conn.Close() })

	cfg := testutil.GetTestConfig()
	rows := store.New(conn)
	sessions := auth.NewSessions(cfg.SessionSecret, false)
	provider := auth.NewProvider(auth.DevExchanger{BaseURL: cfg.BaseURL}, sessions, auth.NewFlowStore(), rows)

	catalog, err := i18n.New("en")
	if err != nil {
		t.Fatalf("Failed to load catalog: %v", err)
	}
	render, err := NewRenderer(catalog, provider)
	if err != nil {
		t.Fatalf("Failed to parse templates: %v", err)
	}

	poller := ranking.NewPoller(rows, time.Second)
	selections := selection.NewMemoryStore()

	return &testEnv{
		db:         conn,
		cfg:        cfg,
		rows:       rows,
		sessions:   sessions,
		provider:   provider,
		poller:     poller,
		render:     render,
		selections: selections,
		vote:       NewVoteHandler(rows, selections, provider, poller, render, cfg),
		results:    NewResultsHandler(rows, provider, poller, render, cfg),
		api:        NewAPIHandler(rows, provider, poller, cfg),
		auth:       NewAuthHandler(provider, render),
		pages:      NewPageHandler(provider, gate.NewClosed(cfg.VoteDeadline, nil), render, cfg),
	}
}

// login adds a session cookie for userID
func (e *testEnv) login(t *testing.T, req *http.Request, userID string) {
	t.Helper()
	token, err := e.sessions.Token(auth.Identity{UserID: userID, Name: "Tester"})
	if err != nil {
		t.Fatalf("Failed to sign session: %v", err)
	}
	req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: token})
}

func withTab(req *http.Request, tabID string) *http.Request {
	req.AddCookie(&http.Cookie{Name: TabCookieName, Value: tabID})
	return req
}

func formRequest(path string, values url.Values) *http.Request {
	req := httptest.NewRequest("POST", path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func parseHTML(t *testing.T, w *httptest.ResponseRecorder) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(w.Body)
	if err != nil {
		t.Fatalf("Failed to parse HTML: %v", err)
	}
	return doc
}

func TestRenderer_ParsesAllPages(t *testing.T) {
	env := newTestEnv(t)
	for _, name := range pageNames {
		if env.render.pages[name] == nil {
			t.Errorf("Expected template %q to be parsed", name)
		}
	}

	w := httptest.NewRecorder()
	env.render.Render(w, httptest.NewRequest("GET", "/", nil), http.StatusOK, "missing", nil)
	testutil.AssertStatus(t, w, http.StatusInternalServerError)
}
