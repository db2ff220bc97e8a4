// Hivestore - Durable Record Store for Hierarchical Agent Orchestration
// Copyright 2026 Kestrane
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kestrane/hivestore

package supervisor

import (
	"context"
	"time"

	"github.com/kestrane/hivestore/internal/logging"
	"github.com/kestrane/hivestore/internal/store"
)

// Periodic is a suture service that runs a function on a fixed
// interval. A failing run is logged and retried on the next tick
// rather than crashing the service; the supervisor's restart budget is
// reserved for panics and programming errors.
type Periodic struct {
	// Name identifies the service in supervisor logs.
	Name string

	// Interval between runs.
	Interval time.Duration

	// RunOnStart triggers one run immediately at service start.
	RunOnStart bool

	// Run does the work.
	Run func(ctx context.Context) error
}

// String implements suture's service naming.
func (p *Periodic) String() string {
	return p.Name
}

// Serve implements suture.Service.
func (p *Periodic) Serve(ctx context.Context) error {
	if p.RunOnStart {
		p.runOnce(ctx)
	}

	ticker := time.NewTicker(p.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.runOnce(ctx)
		}
	}
}

func (p *Periodic) runOnce(ctx context.Context) {
	if err := p.Run(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		logging.Warn().Err(err).Str("service", p.Name).Msg("periodic run failed")
	}
}

// NewSweeperService returns the backup retention sweeper as a
// supervised service.
func NewSweeperService(st *store.Store, interval time.Duration) *Periodic {
	return &Periodic{
		Name:       "backup-sweeper",
		Interval:   interval,
		RunOnStart: true,
		Run: func(ctx context.Context) error {
			_, err := st.SweepBackups(ctx, false)
			return err
		},
	}
}

// NewReaperService returns the orphan temp-file reaper as a supervised
// service. The daemon also runs one reaper pass synchronously before
// the tree starts, so this service skips the immediate run.
func NewReaperService(st *store.Store, gracePeriod, interval time.Duration) *Periodic {
	return &Periodic{
		Name:     "temp-reaper",
		Interval: interval,
		Run: func(ctx context.Context) error {
			_, err := st.SweepTemps(ctx, gracePeriod)
			return err
		},
	}
}
