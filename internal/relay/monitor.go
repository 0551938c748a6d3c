// Copyright (c) 2026 Vendaro. All rights reserved.
// Author: dev@vendaro.app

package relay

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Monitor tracks upstream reachability and fires the registered drain
// callbacks exactly on the offline-to-online transition. That transition is
// the only automatic replay trigger; while the upstream stays down nothing
// hammers it, and while it stays up nothing replays twice.
type Monitor struct {
	probe    func(ctx context.Context) error
	interval time.Duration
	log      *slog.Logger

	mu       sync.Mutex
	online   bool
	onOnline []func(ctx context.Context)
}

// NewMonitor constructs a monitor around a reachability probe.
//
// The monitor starts optimistic: the first probe failure flips it offline,
// so a healthy startup never triggers a spurious drain.
func NewMonitor(probe func(ctx context.Context) error, interval time.Duration, logger *slog.Logger) *Monitor {
	return &Monitor{
		probe:    probe,
		interval: interval,
		log:      logger,
		online:   true,
	}
}

// OnOnline registers a callback to run when connectivity returns. Register
// all callbacks before calling [Monitor.Run].
func (m *Monitor) OnOnline(fn func(ctx context.Context)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onOnline = append(m.onOnline, fn)
}

// Online reports the last observed connectivity state.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// SetOnline records a connectivity observation. Flipping from offline to
// online runs the drain callbacks; every other combination is a no-op.
//
// Exposed so request paths can feed observations in between probes: a
// request that just failed with a network error is fresher evidence than a
// probe from ten seconds ago.
func (m *Monitor) SetOnline(ctx context.Context, online bool) {
	m.mu.Lock()
	wasOnline := m.online
	m.online = online
	callbacks := m.onOnline
	m.mu.Unlock()

	if online == wasOnline {
		return
	}

	if !online {
		m.log.Warn("upstream_offline")
		return
	}

	m.log.Info("upstream_online")
	for _, fn := range callbacks {
		fn(ctx)
	}
}

// Run probes connectivity on a fixed interval until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.SetOnline(ctx, m.probe(ctx) == nil)
		}
	}
}
