// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package selection

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.etcd.io/bbolt"

	"github.com/danielhkuo/quickly-vote/models"
)

// Bucket holding one JSON-encoded selection per tab id
const SelectionsBucket = "selections"

// Store keeps what each browser tab has picked so far
type Store interface {
	Get(tabID string) (models.Selection, bool, error)
	Set(tabID string, sel models.Selection) error
	Delete(tabID string) error
	Sweep(olderThan time.Duration) (int, error)
	Close() error
}

// MemoryStore is a Store that lives as long as the process
type MemoryStore struct {
	mu   sync.RWMutex
	tabs map[string]models.Selection
	now  func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tabs: make(map[string]models.Selection), now: time.Now}
}

func (s *MemoryStore) Get(tabID string) (models.Selection, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sel, ok := s.tabs[tabID]
	return sel, ok, nil
}

func (s *MemoryStore) Set(tabID string, sel models.Selection) error {
	if sel.UpdatedAt.IsZero() {
		sel.UpdatedAt = s.now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tabs[tabID] = sel
	return nil
}

func (s *MemoryStore) Delete(tabID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tabs, tabID)
	return nil
}

func (s *MemoryStore) Sweep(olderThan time.Duration) (int, error) {
	cutoff := s.now().Add(-olderThan)
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sel := range s.tabs {
		if sel.UpdatedAt.Before(cutoff) {
			delete(s.tabs, id)
			removed++
		}
	}
	return removed, nil
}

func (s *MemoryStore) Close() error { return nil }

// BoltStore keeps selections in a BoltDB file so they survive restarts
type BoltStore struct {
	db  *bbolt.DB
	now func() time.Time
}

// NewBoltStore opens (or creates) the BoltDB file at dbPath
func NewBoltStore(dbPath string) (*BoltStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create selection store directory %s: %w", dir, err)
	}

	db, err := bbolt.Open(dbPath, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open BoltDB at %s: %w", dbPath, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(SelectionsBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	slog.Info("selection store initialized", "path", dbPath)
	return &BoltStore{db: db, now: time.Now}, nil
}

func (s *BoltStore) Get(tabID string) (models.Selection, bool, error) {
	var sel models.Selection
	var found bool

	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(SelectionsBucket)).Get([]byte(tabID))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &sel)
	})
	if err != nil {
		return models.Selection{}, false, fmt.Errorf("failed to get selection %s: %w", tabID, err)
	}
	return sel, found, nil
}

func (s *BoltStore) Set(tabID string, sel models.Selection) error {
	if sel.UpdatedAt.IsZero() {
		sel.UpdatedAt = s.now()
	}
	data, err := json.Marshal(sel)
	if err != nil {
		return fmt.Errorf("failed to marshal selection: %w", err)
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(SelectionsBucket)).Put([]byte(tabID), data)
	})
}

func (s *BoltStore) Delete(tabID string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(SelectionsBucket)).Delete([]byte(tabID))
	})
}

// Sweep removes selections not touched within olderThan
func (s *BoltStore) Sweep(olderThan time.Duration) (int, error) {
	cutoff := s.now().Add(-olderThan)
	removed := 0

	err := s.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(SelectionsBucket))
		var stale [][]byte

		err := bucket.ForEach(func(k, v []byte) error {
			var sel models.Selection
			if err := json.Unmarshal(v, &sel); err != nil {
				slog.Warn("dropping unreadable selection", "tab", string(k), "error", err)
				stale = append(stale, append([]byte(nil), k...))
				return nil
			}
			if sel.UpdatedAt.Before(cutoff) {
				stale = append(stale, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}

		for _, k := range stale {
			if err := bucket.Delete(k); err != nil {
				return err
			}
		}
		removed = len(stale)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to sweep selections: %w", err)
	}
	return removed, nil
}

func (s *BoltStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
