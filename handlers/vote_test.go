// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/danielhkuo/quickly-vote/testutil"
)

const tab = "tab-test"

func TestGetVote_Intro(t *testing.T) {
	env := newTestEnv(t)

	req := withTab(httptest.NewRequest("GET", "/vote", nil), tab)
	env.login(t, req, "user-1")
	w := httptest.NewRecorder()
	env.vote.GetVote(w, req)

	testutil.AssertStatus(t, w, http.StatusOK)
	doc := parseHTML(t, w)
	if got, _ := doc.Find(".wizard").Attr("data-step"); got != "intro" {
		t.Errorf("Expected intro step, got %q", got)
	}
	if href, _ := doc.Find("#next").Attr("href"); href != "/vote?step=country" {
		t.Errorf("Expected next link to country, got %q", href)
	}
}

func TestGetVote_SetsTabCookie(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest("GET", "/vote?step=country", nil)
	env.login(t, req, "user-1")
	w := httptest.NewRecorder()
	env.vote.GetVote(w, req)

	var tabCookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == TabCookieName {
			tabCookie = c
		}
	}
	if tabCookie == nil || tabCookie.Value == "" {
		t.Fatal("Expected a tab cookie to be set")
	}
	if tabCookie.MaxAge != 0 || !tabCookie.Expires.IsZero() {
		t.Error("Expected the tab cookie to be a session cookie")
	}
}

func TestGetVote_TeamWithoutCountry(t *testing.T) {
	env := newTestEnv(t)

	req := withTab(httptest.NewRequest("GET", "/vote?step=team&ref=mail", nil), tab)
	env.login(t, req, "user-1")
	w := httptest.NewRecorder()
	env.vote.GetVote(w, req)

	testutil.AssertRedirect(t, w, "/vote?ref=mail&step=country")
	if w.Code != http.StatusSeeOther {
		t.Errorf("Expected 303, got %d", w.Code)
	}
}

func TestGetVote_CountryStep(t *testing.T) {
	env := newTestEnv(t)

	req := withTab(httptest.NewRequest("GET", "/vote?step=country", nil), tab)
	env.login(t, req, "user-1")
	w := httptest.NewRecorder()
	env.vote.GetVote(w, req)

	testutil.AssertStatus(t, w, http.StatusOK)
	doc := parseHTML(t, w)
	if n := doc.Find(`input[name="country_id"]`).Length(); n != 3 {
		t.Errorf("Expected 3 countries, got %d", n)
	}
	if action, _ := doc.Find("form").First().Attr("action"); action != "/vote/country" {
		t.Errorf("Expected country form, got action %q", action)
	}
}

func TestGetVote_AlreadyVotedGoesToConfirm(t *testing.T) {
	env := newTestEnv(t)
	testutil.CastTestVote(t, env.db, "user-1", testutil.TeamBusan)

	req := withTab(httptest.NewRequest("GET", "/vote?step=country", nil), tab)
	env.login(t, req, "user-1")
	w := httptest.NewRecorder()
	env.vote.GetVote(w, req)

	testutil.AssertRedirect(t, w, "/vote?step=confirm")
}

func TestGetVote_ConfirmWithoutVote(t *testing.T) {
	env := newTestEnv(t)

	req := withTab(httptest.NewRequest("GET", "/vote?step=confirm", nil), tab)
	env.login(t, req, "user-1")
	w := httptest.NewRecorder()
	env.vote.GetVote(w, req)

	testutil.AssertRedirect(t, w, "/vote?step=country")
}

func TestVoteFlow(t *testing.T) {
	env := newTestEnv(t)

	// pick a country
	req := withTab(formRequest("/vote/country", url.Values{"country_id": {"3"}}), tab)
	env.login(t, req, "user-1")
	w := httptest.NewRecorder()
	env.vote.SelectCountry(w, req)
	testutil.AssertRedirect(t, w, "/vote?step=team")

	// the team step lists that country's teams, sorted by name
	req = withTab(httptest.NewRequest("GET", "/vote?step=team", nil), tab)
	env.login(t, req, "user-1")
	w = httptest.NewRecorder()
	env.vote.GetVote(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	doc := parseHTML(t, w)
	labels := doc.Find(".options label")
	if labels.Length() != 2 {
		t.Fatalf("Expected 2 teams, got %d", labels.Length())
	}
	if !strings.Contains(labels.First().Text(), "Busan Waves") {
		t.Errorf("Expected Busan Waves first, got %q", labels.First().Text())
	}
	if src, _ := doc.Find(`img[src="/static/seoul.png"]`).Attr("src"); src == "" {
		t.Error("Expected the Seoul logo")
	}

	// submit
	req = withTab(formRequest("/vote/submit", url.Values{"team_id": {"41"}}), tab)
	env.login(t, req, "user-1")
	w = httptest.NewRecorder()
	env.vote.Submit(w, req)
	testutil.AssertRedirect(t, w, "/vote?step=confirm")

	if n := testutil.CountVotes(t, env.db, "user-1"); n != 1 {
		t.Fatalf("Expected 1 vote, got %d", n)
	}

	// confirm shows the voted team
	req = withTab(httptest.NewRequest("GET", "/vote?step=confirm", nil), tab)
	env.login(t, req, "user-1")
	w = httptest.NewRecorder()
	env.vote.GetVote(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	doc = parseHTML(t, w)
	voted := doc.Find(".voted")
	if id, _ := voted.Attr("data-team-id"); id != "41" {
		t.Errorf("Expected voted team 41, got %q", id)
	}
	if !strings.Contains(voted.Text(), "Seoul Strikers") {
		t.Errorf("Expected team name, got %q", voted.Text())
	}
	if href, _ := doc.Find("#view-rankings").Attr("href"); href != "/vote?step=result" {
		t.Errorf("Expected link to results step, got %q", href)
	}
}

func TestSelectCountry_Unknown(t *testing.T) {
	env := newTestEnv(t)

	for _, value := range []string{"99", "abc", ""} {
		req := withTab(formRequest("/vote/country", url.Values{"country_id": {value}}), tab)
		env.login(t, req, "user-1")
		w := httptest.NewRecorder()
		env.vote.SelectCountry(w, req)

		testutil.AssertStatus(t, w, http.StatusBadRequest)
		doc := parseHTML(t, w)
		if msg := doc.Find(".message").Text(); msg != "Unknown country." {
			t.Errorf("country_id=%q: expected unknown country message, got %q", value, msg)
		}
	}
}

func TestSubmit_TeamFromAnotherCountry(t *testing.T) {
	env := newTestEnv(t)

	req := withTab(formRequest("/vote/country", url.Values{"country_id": {"3"}}), tab)
	env.login(t, req, "user-1")
	env.vote.SelectCountry(httptest.NewRecorder(), req)

	req = withTab(formRequest("/vote/submit", url.Values{"team_id": {"11"}}), tab)
	env.login(t, req, "user-1")
	w := httptest.NewRecorder()
	env.vote.Submit(w, req)

	testutil.AssertStatus(t, w, http.StatusBadRequest)
	if n := testutil.CountVotes(t, env.db, "user-1"); n != 0 {
		t.Errorf("Expected no vote, got %d", n)
	}
}

func TestSubmit_WithoutSession(t *testing.T) {
	env := newTestEnv(t)

	req := withTab(formRequest("/vote/country", url.Values{"country_id": {"3"}}), tab)
	env.vote.SelectCountry(httptest.NewRecorder(), req)

	req = withTab(formRequest("/vote/submit", url.Values{"team_id": {"41"}}), tab)
	w := httptest.NewRecorder()
	env.vote.Submit(w, req)

	testutil.AssertStatus(t, w, http.StatusUnauthorized)
	doc := parseHTML(t, w)
	if msg := doc.Find(".message").Text(); msg != "Login required." {
		t.Errorf("Expected login required message, got %q", msg)
	}
	// the user stays on the team step
	if step, _ := doc.Find(".wizard").Attr("data-step"); step != "team" {
		t.Errorf("Expected team step, got %q", step)
	}
}

func TestSubmit_AlreadyVotedElsewhere(t *testing.T) {
	env := newTestEnv(t)

	req := withTab(formRequest("/vote/country", url.Values{"country_id": {"3"}}), tab)
	env.login(t, req, "user-1")
	env.vote.SelectCountry(httptest.NewRecorder(), req)

	// another device votes in the meantime
	testutil.CastTestVote(t, env.db, "user-1", testutil.TeamPokhara)

	req = withTab(formRequest("/vote/submit", url.Values{"team_id": {"41"}}), tab)
	env.login(t, req, "user-1")
	w := httptest.NewRecorder()
	env.vote.Submit(w, req)

	testutil.AssertRedirect(t, w, "/vote?step=confirm")
	if n := testutil.CountVotes(t, env.db, "user-1"); n != 1 {
		t.Errorf("Expected exactly 1 vote, got %d", n)
	}

	sel, _, _ := env.selections.Get(tab)
	if sel.TeamID == nil || *sel.TeamID != testutil.TeamPokhara {
		t.Errorf("Expected the stored vote to be adopted, got %v", sel.TeamID)
	}
}

func TestSelectTeam(t *testing.T) {
	env := newTestEnv(t)

	req := withTab(formRequest("/vote/country", url.Values{"country_id": {"1"}}), tab)
	env.login(t, req, "user-1")
	env.vote.SelectCountry(httptest.NewRecorder(), req)

	req = withTab(formRequest("/vote/team", url.Values{"team_id": {"12"}}), tab)
	env.login(t, req, "user-1")
	w := httptest.NewRecorder()
	env.vote.SelectTeam(w, req)
	testutil.AssertRedirect(t, w, "/vote?step=team")

	req = withTab(httptest.NewRequest("GET", "/vote?step=team", nil), tab)
	env.login(t, req, "user-1")
	w = httptest.NewRecorder()
	env.vote.GetVote(w, req)

	doc := parseHTML(t, w)
	if v, _ := doc.Find(`input[name="team_id"][checked]`).Attr("value"); v != "12" {
		t.Errorf("Expected team 12 checked, got %q", v)
	}
}

func TestReset(t *testing.T) {
	env := newTestEnv(t)

	req := withTab(formRequest("/vote/country", url.Values{"country_id": {"3"}}), tab)
	env.login(t, req, "user-1")
	env.vote.SelectCountry(httptest.NewRecorder(), req)

	req = withTab(formRequest("/vote/reset", nil), tab)
	env.login(t, req, "user-1")
	w := httptest.NewRecorder()
	env.vote.Reset(w, req)

	testutil.AssertRedirect(t, w, "/vote?step=intro")
	if _, found, _ := env.selections.Get(tab); found {
		t.Error("Expected the selection to be cleared")
	}
}

func TestGetVote_ResultStep(t *testing.T) {
	env := newTestEnv(t)
	testutil.CastTestVote(t, env.db, "user-1", testutil.TeamSeoul)

	req := withTab(httptest.NewRequest("GET", "/vote?step=result", nil), tab)
	env.login(t, req, "user-1")
	w := httptest.NewRecorder()
	env.vote.GetVote(w, req)

	testutil.AssertStatus(t, w, http.StatusOK)
	doc := parseHTML(t, w)
	mine := doc.Find(".champions li.mine")
	if id, _ := mine.Attr("data-team-id"); id != "41" {
		t.Errorf("Expected own pick highlighted, got %q", id)
	}
	if content, _ := doc.Find(`meta[http-equiv="refresh"]`).Attr("content"); content != "100" {
		t.Errorf("Expected refresh every 100s, got %q", content)
	}
}
