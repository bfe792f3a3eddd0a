// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package scheduler wraps github.com/robfig/cron/v3 for the server's
// periodic jobs. Jobs recover from panics and never overlap themselves.
package scheduler
