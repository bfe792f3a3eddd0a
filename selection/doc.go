// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package selection stores the country and team a browser tab has picked.
//
// A tab is identified by a cookie without Max-Age, so a selection outlives
// page loads but not the browser session. MemoryStore is the default;
// SELECTION_STORE points to a BoltDB file (go.etcd.io/bbolt) instead.
// Sweep drops selections that have not been touched for a while.
package selection
