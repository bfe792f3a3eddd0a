// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/danielhkuo/quickly-vote/cliparse"
	"github.com/danielhkuo/quickly-vote/db"
	"github.com/danielhkuo/quickly-vote/models"
)

// Fixture ids shared by tests
const (
	CountryNP int64 = 1
	CountryLK int64 = 2
	CountryKR int64 = 3

	TeamKathmandu int64 = 11
	TeamPokhara   int64 = 12
	TeamColombo   int64 = 21
	TeamSeoul     int64 = 41
	TeamBusan     int64 = 42
)

// TestSessionSecret signs session cookies in tests
const TestSessionSecret = "test-session-secret"

var dbCounter atomic.Int64

// Fixture is the reference data loaded by SetupTestDB
var Fixture = db.SeedData{
	Countries: []models.Country{
		{ID: CountryNP, Code: "NP", Name: "Nepal"},
		{ID: CountryLK, Code: "LK", Name: "Sri Lanka"},
		{ID: CountryKR, Code: "KR", Name: "South Korea"},
	},
	Teams: []models.Team{
		{ID: TeamKathmandu, Name: "Kathmandu Rhinos", CountryID: CountryNP},
		{ID: TeamPokhara, Name: "Pokhara Tigers", CountryID: CountryNP},
		{ID: TeamColombo, Name: "Colombo Lions", CountryID: CountryLK},
		{ID: TeamSeoul, Name: "Seoul Strikers", CountryID: CountryKR, LogoURL: "/static/seoul.png"},
		{ID: TeamBusan, Name: "Busan Waves", CountryID: CountryKR},
	},
}

// SetupTestDB creates a fresh in-memory database with the full schema and
// the fixture countries and teams. Each call gets its own database.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	url := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", dbCounter.Add(1))
	conn, err := db.Open(db.DialectSQLite, url)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	if err := db.CreateSchema(conn, db.DialectSQLite); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	if err := db.Seed(conn, Fixture); err != nil {
		t.Fatalf("Failed to seed test database: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:             3318,
		DatabaseURL:      "file::memory:",
		DatabaseType:     db.DialectSQLite,
		AllowedCountries: []string{"KR"},
		GateOrder:        []string{"closed", "region", "webview", "auth"},
		RegionAction:     "redirect",
		SessionSecret:    TestSessionSecret,
		BaseURL:          "http://localhost:3318",
		DevLogin:         true,
		RankingRefresh:   30 * time.Second,
		ResultsPoll:      100 * time.Second,
		DefaultLocale:    "ko",
		LogLevel:         "info",
	}
}

// CastTestVote inserts a vote row directly
func CastTestVote(t *testing.T, conn *sql.DB, userID string, teamID int64) {
	t.Helper()

	_, err := conn.Exec(`
		INSERT INTO votes (id, user_id, team_id)
		VALUES ($1, $2, $3)
	`, "vote-"+userID, userID, teamID)
	if err != nil {
		t.Fatalf("Failed to create test vote: %v", err)
	}
}

// CountVotes returns the number of vote rows for a user
func CountVotes(t *testing.T, conn *sql.DB, userID string) int {
	t.Helper()

	var n int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM votes WHERE user_id = $1`, userID).Scan(&n); err != nil {
		t.Fatalf("Failed to count votes: %v", err)
	}
	return n
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertRedirect checks for a redirect to the expected location
func AssertRedirect(t *testing.T, w *httptest.ResponseRecorder, location string) {
	t.Helper()
	if w.Code < 300 || w.Code > 399 {
		t.Errorf("Expected redirect, got %d. Body: %s", w.Code, w.Body.String())
		return
	}
	if got := w.Header().Get("Location"); got != location {
		t.Errorf("Expected Location %q, got %q", location, got)
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
