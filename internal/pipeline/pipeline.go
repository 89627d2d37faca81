package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/floodplan-service/internal/dashboard"
	"github.com/couchcryptid/floodplan-service/internal/domain"
	"github.com/couchcryptid/floodplan-service/internal/observability"
	"github.com/couchcryptid/storm-data-shared/retry"
	"github.com/jonboulle/clockwork"
)

// Source runs one dashboard cycle and returns the resulting snapshot.
type Source interface {
	ID() string
	Tick(ctx context.Context) (domain.Snapshot, error)
}

// Loader writes a snapshot to a sink.
type Loader interface {
	Sink() string
	Load(ctx context.Context, snap domain.Snapshot) error
}

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
	maxLoadTries   = 4
)

// Pipeline drives one dashboard on a fixed interval: tick, then publish the
// snapshot to the loader, retrying with backoff when the sink fails.
type Pipeline struct {
	source   Source
	loader   Loader
	interval time.Duration
	clock    clockwork.Clock
	logger   *slog.Logger
	metrics  *observability.Metrics
	ready    atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a Pipeline. A nil loader runs ticks without publishing.
func New(src Source, l Loader, interval time.Duration, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		source:   src,
		loader:   l,
		interval: interval,
		clock:    clock,
		logger:   logger.With("dashboard", src.ID()),
		metrics:  metrics,
	}
}

// CheckReadiness returns nil while the loop is running.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return fmt.Errorf("pipeline %s is not running", p.source.ID())
	}
	return nil
}

// Start launches the loop in the background. It fails if already started.
func (p *Pipeline) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done != nil {
		return fmt.Errorf("pipeline %s already started", p.source.ID())
	}
	ctx, p.cancel = context.WithCancel(ctx)
	p.done = make(chan struct{})
	go func(done chan struct{}) {
		defer close(done)
		p.Run(ctx)
	}(p.done)
	return nil
}

// Stop cancels the loop and waits for it to exit. No tick runs after Stop
// returns. Calling Stop on a pipeline that never started is a no-op.
func (p *Pipeline) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Run executes the tick loop until the context is cancelled.
func (p *Pipeline) Run(ctx context.Context) {
	id := p.source.ID()
	ticker := p.clock.NewTicker(p.interval)
	defer ticker.Stop()

	p.logger.Info("pipeline started", "interval", p.interval)
	p.metrics.SchedulerRunning.WithLabelValues(id).Set(1)
	p.ready.Store(true)
	defer func() {
		p.ready.Store(false)
		p.metrics.SchedulerRunning.WithLabelValues(id).Set(0)
	}()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return
		case <-ticker.Chan():
			if !p.runCycle(ctx) {
				return
			}
		}
	}
}

// runCycle ticks the source once and publishes the snapshot. Returns false
// if the pipeline should stop.
func (p *Pipeline) runCycle(ctx context.Context) bool {
	snap, err := p.source.Tick(ctx)
	switch {
	case err == nil:
	case errors.Is(err, dashboard.ErrRefreshInProgress):
		p.logger.Debug("refresh in progress, skipping tick")
		return true
	case errors.Is(err, dashboard.ErrStaleRefresh):
		p.logger.Debug("refresh superseded, skipping tick")
		return true
	case errors.Is(err, dashboard.ErrClosed):
		return false
	default:
		if ctx.Err() != nil {
			return false
		}
		p.logger.Warn("tick failed", "error", err)
		return true
	}

	if p.loader == nil {
		return true
	}
	return p.publish(ctx, snap)
}

// publish loads snap, backing off between failed attempts. A snapshot that
// still fails after maxLoadTries is dropped; the next tick produces a fresh one.
func (p *Pipeline) publish(ctx context.Context, snap domain.Snapshot) bool {
	sink := p.loader.Sink()
	backoff := initialBackoff
	for attempt := 1; ; attempt++ {
		err := p.loader.Load(ctx, snap)
		if err == nil {
			p.metrics.SnapshotsPublished.WithLabelValues(sink, "success").Inc()
			return true
		}
		if ctx.Err() != nil {
			return false
		}
		p.metrics.SnapshotsPublished.WithLabelValues(sink, "error").Inc()
		p.logger.Error("publish snapshot failed", "error", err, "sink", sink, "attempt", attempt, "snapshot", snap.ID)
		if attempt >= maxLoadTries {
			p.logger.Warn("dropping snapshot", "sink", sink, "snapshot", snap.ID)
			return true
		}
		if !p.sleepWithContext(ctx, backoff) {
			return false
		}
		backoff = retry.NextBackoff(backoff, maxBackoff)
	}
}

func (p *Pipeline) sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	select {
	case <-ctx.Done():
		return false
	case <-p.clock.After(d):
		return true
	}
}
