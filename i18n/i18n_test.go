// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package i18n

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	c, err := New("ko")
	require.NoError(t, err)
	require.Equal(t, "ko", c.Default())

	_, err = New("fr")
	require.Error(t, err)
}

func TestLocalesHaveSameKeys(t *testing.T) {
	c, err := New("ko")
	require.NoError(t, err)

	for key := range c.messages["ko"] {
		_, ok := c.messages["en"][key]
		require.True(t, ok, "en is missing %q", key)
	}
	for key := range c.messages["en"] {
		_, ok := c.messages["ko"][key]
		require.True(t, ok, "ko is missing %q", key)
	}
}

func TestT(t *testing.T) {
	c, err := New("ko")
	require.NoError(t, err)

	require.Equal(t, "로그인이 필요합니다.", c.T("ko", "error.login_required"))
	require.Equal(t, "Login required.", c.T("en", "error.login_required"))
	// unknown locale falls back to default
	require.Equal(t, "오류가 발생했어요.", c.T("fr", "error.generic"))
	// unknown key is returned verbatim
	require.Equal(t, "no.such.key", c.T("en", "no.such.key"))

	require.Equal(t, "ko", c.Localizer("xx").Locale)
	require.Equal(t, "Next", c.Localizer("en").T("button.next"))
}

func TestMatch(t *testing.T) {
	c, err := New("ko")
	require.NoError(t, err)

	tests := []struct {
		header string
		want   string
	}{
		{"", "ko"},
		{"en-US,en;q=0.9", "en"},
		{"ko-KR,ko;q=0.9,en;q=0.8", "ko"},
		{"fr-FR,fr;q=0.9", "ko"},
		{"fr;q=0.9,en;q=0.5", "en"},
		{";;;garbage", "ko"},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			require.Equal(t, tt.want, c.Match(tt.header))
		})
	}
}

func TestMiddleware(t *testing.T) {
	c, err := New("ko")
	require.NoError(t, err)

	var gotPath, gotLocale string
	h := c.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotLocale = LocaleFrom(r.Context())
	}))

	tests := []struct {
		name       string
		path       string
		cookie     string
		accept     string
		wantPath   string
		wantLocale string
	}{
		{"prefix", "/en/vote", "", "", "/vote", "en"},
		{"bare prefix", "/en", "", "", "/", "en"},
		{"prefix beats cookie", "/ko/results", "en", "", "/results", "ko"},
		{"cookie", "/vote", "en", "ko", "/vote", "en"},
		{"accept-language", "/vote", "", "en-GB", "/vote", "en"},
		{"default", "/vote", "", "", "/vote", "ko"},
		{"not a locale", "/vo/te", "", "", "/vo/te", "ko"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.path, nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: LocaleCookieName, Value: tt.cookie})
			}
			if tt.accept != "" {
				req.Header.Set("Accept-Language", tt.accept)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)

			require.Equal(t, tt.wantPath, gotPath)
			require.Equal(t, tt.wantLocale, gotLocale)
		})
	}
}

func TestLocaleFilesAreValidJSON(t *testing.T) {
	for _, loc := range Locales {
		raw, err := localeFS.ReadFile("locales/" + loc + ".json")
		require.NoError(t, err)
		require.True(t, json.Valid(raw), loc)
	}
}
