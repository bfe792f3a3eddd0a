// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package ranking splits the overall rankings into country champions and
// the remaining teams, and keeps a periodically refreshed snapshot of them.
//
// Champions are derived here from plain vote counts. No champion flag from
// the database is trusted.
package ranking
