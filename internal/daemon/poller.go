// Package daemon implements the background loops: the status poller that
// keeps the controller in sync with the engine, and the status-bar clock.
package daemon

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// StatusSource is the part of the controller the poller drives.
type StatusSource interface {
	SyncQuoteLength(ctx context.Context) error
	PollOnce(ctx context.Context) error
}

// PollerConfig holds poller configuration.
type PollerConfig struct {
	Interval time.Duration // Pause between the end of one tick and the next
}

// DefaultPollerConfig returns default poller configuration.
func DefaultPollerConfig() PollerConfig {
	return PollerConfig{
		Interval: 2 * time.Second,
	}
}

// Poller repeatedly syncs the quote length and polls status. Starting it
// again cancels the previous loop; a call already in flight in the old loop
// still completes and its result is applied.
type Poller struct {
	config PollerConfig
	source StatusSource
	logger *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPoller creates a new poller.
func NewPoller(config PollerConfig, source StatusSource, logger *zap.Logger) *Poller {
	if config.Interval <= 0 {
		config.Interval = DefaultPollerConfig().Interval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{
		config: config,
		source: source,
		logger: logger,
	}
}

// Start launches the loop in the background, replacing any running loop.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel != nil {
		p.cancel()
	}
	loopCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		_ = p.Run(loopCtx)
	}()
}

// Stop cancels the loop and waits for every started loop to exit.
func (p *Poller) Stop() {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.mu.Unlock()
	p.wg.Wait()
}

// Run polls until ctx is canceled. The first tick runs immediately; the
// next is scheduled only after the previous one finished.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Debug("poller started", zap.Duration("interval", p.config.Interval))

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Debug("poller stopping")
			return ctx.Err()

		case <-timer.C:
			p.tick(ctx)
			timer.Reset(p.config.Interval)
		}
	}
}

func (p *Poller) tick(ctx context.Context) {
	if err := p.source.SyncQuoteLength(ctx); err != nil {
		p.logger.Debug("quote length sync skipped", zap.Error(err))
	}
	if err := p.source.PollOnce(ctx); err != nil {
		p.logger.Debug("status poll failed", zap.Error(err))
	}
}
