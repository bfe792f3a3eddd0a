// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestEvery(t *testing.T) {
	s := New()
	var runs atomic.Int32
	require.NoError(t, s.Every("tick", time.Second, func() { runs.Add(1) }))
	require.Equal(t, []string{"tick"}, s.Jobs())

	s.Start()
	defer s.Stop(context.Background())

	require.Eventually(t, func() bool { return runs.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)
}

func TestEvery_InvalidInterval(t *testing.T) {
	s := New()
	require.Error(t, s.Every("never", 0, func() {}))
	require.Empty(t, s.Jobs())
}

func TestCron_InvalidSpec(t *testing.T) {
	s := New()
	require.Error(t, s.Cron("bad", "not a spec", func() {}))
	require.NoError(t, s.Cron("nightly", "0 2 * * *", func() {}))
	require.Equal(t, []string{"nightly"}, s.Jobs())
}

func TestStop_WaitsBoundedByContext(t *testing.T) {
	s := New()
	started := make(chan struct{})
	release := make(chan struct{})
	var once atomic.Bool
	require.NoError(t, s.Every("slow", time.Second, func() {
		if once.CompareAndSwap(false, true) {
			close(started)
		}
		<-release
	}))
	s.Start()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	begin := time.Now()
	s.Stop(ctx)
	require.Less(t, time.Since(begin), time.Second)
	close(release)
}
