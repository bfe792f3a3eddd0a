// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package selection

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/quickly-vote/models"
)

func ptr(v int64) *int64 { return &v }

func newBolt(t *testing.T) *BoltStore {
	t.Helper()
	s, err := NewBoltStore(filepath.Join(t.TempDir(), "nested", "selections.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStores(t *testing.T) {
	stores := map[string]func(t *testing.T) Store{
		"memory": func(*testing.T) Store { return NewMemoryStore() },
		"bolt":   func(t *testing.T) Store { return newBolt(t) },
	}

	for name, open := range stores {
		t.Run(name, func(t *testing.T) {
			s := open(t)

			_, found, err := s.Get("tab-1")
			require.NoError(t, err)
			require.False(t, found)

			require.NoError(t, s.Set("tab-1", models.Selection{CountryID: ptr(3), TeamID: ptr(41)}))
			require.NoError(t, s.Set("tab-2", models.Selection{CountryID: ptr(1)}))

			sel, found, err := s.Get("tab-1")
			require.NoError(t, err)
			require.True(t, found)
			require.Equal(t, int64(3), *sel.CountryID)
			require.Equal(t, int64(41), *sel.TeamID)
			require.False(t, sel.UpdatedAt.IsZero())

			// tabs are independent
			other, _, err := s.Get("tab-2")
			require.NoError(t, err)
			require.Nil(t, other.TeamID)

			require.NoError(t, s.Delete("tab-1"))
			_, found, err = s.Get("tab-1")
			require.NoError(t, err)
			require.False(t, found)
		})
	}
}

func TestSweep(t *testing.T) {
	now := time.Now()

	mem := NewMemoryStore()
	mem.now = func() time.Time { return now }
	bolt := newBolt(t)
	bolt.now = func() time.Time { return now }

	for _, s := range []Store{mem, bolt} {
		require.NoError(t, s.Set("old", models.Selection{CountryID: ptr(1), UpdatedAt: now.Add(-48 * time.Hour)}))
		require.NoError(t, s.Set("new", models.Selection{CountryID: ptr(2)}))

		removed, err := s.Sweep(24 * time.Hour)
		require.NoError(t, err)
		require.Equal(t, 1, removed)

		_, found, _ := s.Get("old")
		require.False(t, found)
		_, found, _ = s.Get("new")
		require.True(t, found)
	}
}

func TestBoltStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "selections.db")

	s, err := NewBoltStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Set("tab", models.Selection{CountryID: ptr(3)}))
	require.NoError(t, s.Close())

	s, err = NewBoltStore(path)
	require.NoError(t, err)
	defer s.Close()

	sel, found, err := s.Get("tab")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, int64(3), *sel.CountryID)
}
