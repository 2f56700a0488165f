package daemon

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/blissctl/internal/domain"
)

// ClockIdleText is shown when no session end time is available.
const ClockIdleText = "Bliss --:--"

// ClockConfig holds status-bar clock configuration.
type ClockConfig struct {
	TickInterval time.Duration // How often the countdown is re-rendered
}

// DefaultClockConfig returns default clock configuration.
func DefaultClockConfig() ClockConfig {
	return ClockConfig{
		TickInterval: time.Second,
	}
}

// FormatCountdown renders the time left until end as "Bliss MM:SS",
// clamped at 00:00.
func FormatCountdown(end time.Time, ok bool, now time.Time) string {
	if !ok {
		return ClockIdleText
	}
	left := int(end.Sub(now) / time.Second)
	if left < 0 {
		left = 0
	}
	return fmt.Sprintf("Bliss %02d:%02d", left/60, left%60)
}

// Clock renders a countdown from the engine's end-time file. It re-reads
// the file every tick and also as soon as fsnotify reports a change.
type Clock struct {
	config ClockConfig
	reader domain.EndTimeReader
	logger *zap.Logger
	now    func() time.Time
}

// NewClock creates a new clock.
func NewClock(config ClockConfig, reader domain.EndTimeReader, logger *zap.Logger) *Clock {
	if config.TickInterval <= 0 {
		config.TickInterval = DefaultClockConfig().TickInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Clock{
		config: config,
		reader: reader,
		logger: logger,
		now:    time.Now,
	}
}

// Text returns the current countdown.
func (c *Clock) Text() string {
	end, ok := c.reader.EndTime()
	return FormatCountdown(end, ok, c.now())
}

// Run emits the countdown immediately and then on every tick or file
// change until ctx is canceled.
func (c *Clock) Run(ctx context.Context, emit func(text string)) error {
	events, closeWatch := c.watch()
	defer closeWatch()

	ticker := time.NewTicker(c.config.TickInterval)
	defer ticker.Stop()

	emit(c.Text())
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-ticker.C:
			emit(c.Text())

		case _, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			emit(c.Text())
		}
	}
}

// watch subscribes to changes of the end-time file. The parent directory is
// watched because the engine replaces the file rather than rewriting it.
// Without a watcher the clock still ticks.
func (c *Clock) watch() (<-chan struct{}, func()) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		c.logger.Debug("file watch unavailable", zap.Error(err))
		return nil, func() {}
	}
	path := c.reader.Path()
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		c.logger.Debug("failed to watch end-time directory", zap.String("path", path), zap.Error(err))
		watcher.Close()
		return nil, func() {}
	}

	out := make(chan struct{}, 1)
	done := make(chan struct{})
	go func() {
		defer close(out)
		for {
			select {
			case <-done:
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != filepath.Clean(path) {
					continue
				}
				select {
				case out <- struct{}{}:
				default:
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				c.logger.Debug("end-time watch error", zap.Error(err))
			}
		}
	}()

	return out, func() {
		close(done)
		watcher.Close()
		for range out {
		}
	}
}
