package usecase

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/eliteGoblin/focusd/blissctl/internal/domain"
)

// Engine query argument vectors.
var (
	argsStatus      = []string{"status"}
	argsWebsiteList = []string{"config", "website", "list"}
	argsAppList     = []string{"config", "app", "list", "--raw"}
	argsBrowserList = []string{"config", "browser", "list"}
	argsQuotesGet   = []string{"config", "quotes", "get"}
)

// PollOnce queries the engine status. A failed query publishes the error
// state and a classified error; it is never fatal.
func (c *Controller) PollOnce(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	outcome := c.run(argsStatus...)
	if !outcome.Succeeded() {
		ce := c.classify(argsStatus, outcome)
		c.update(func(s *State) {
			s.Session = domain.ErrorSessionState()
			s.LastOutput = outcome.Combined()
			s.LastError = visibleOrNil(ce)
		})
		return ce
	}

	session, err := DecodeStatus(outcome.Stdout)
	if err != nil {
		c.logger.Debug("status output had no known lines", zap.Error(err))
	}
	c.update(func(s *State) {
		s.Session = session
		s.LastError = nil
	})
	return nil
}

// SyncQuoteLength re-derives the quote length from the engine. Any failure
// falls back to medium.
func (c *Controller) SyncQuoteLength(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	outcome := c.run(argsQuotesGet...)
	length, err := DecodeQuoteLength(outcome)
	if err != nil {
		c.logger.Debug("unrecognized quote length, using default", zap.Error(err))
	}
	c.update(func(s *State) { s.QuoteLength = length })
	return nil
}

// refreshList runs one list query and applies it on success; a failure
// leaves that list unchanged.
func (c *Controller) refreshList(ctx context.Context, args []string, apply func(s *State, stdout string)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	outcome := c.run(args...)
	if !outcome.Succeeded() {
		ce := c.classify(args, outcome)
		c.update(func(s *State) {
			s.LastOutput = outcome.Combined()
			s.LastError = visibleOrNil(ce)
		})
		return ce
	}
	c.update(func(s *State) { apply(s, outcome.Stdout) })
	return nil
}

// RefreshWebsites reloads the website list.
func (c *Controller) RefreshWebsites(ctx context.Context) error {
	return c.refreshList(ctx, argsWebsiteList, func(s *State, out string) {
		s.Lists.Websites = DecodeList(out)
	})
}

// RefreshApps reloads the app list.
func (c *Controller) RefreshApps(ctx context.Context) error {
	return c.refreshList(ctx, argsAppList, func(s *State, out string) {
		s.Lists.Apps = DecodeApps(out)
	})
}

// RefreshBrowsers reloads the browser list.
func (c *Controller) RefreshBrowsers(ctx context.Context) error {
	return c.refreshList(ctx, argsBrowserList, func(s *State, out string) {
		s.Lists.Browsers = DecodeList(out)
	})
}

// RefreshAll syncs the quote length and the status, then runs the three
// list queries concurrently. The status poll clears LastError on success, so
// it must land before any list query can publish its own failure. One
// failing query never aborts the others; all failures are returned joined.
func (c *Controller) RefreshAll(ctx context.Context) error {
	_ = c.SyncQuoteLength(ctx)

	var (
		mu   sync.Mutex
		errs []error
	)
	collect := func(err error) {
		if err == nil {
			return
		}
		mu.Lock()
		errs = append(errs, err)
		mu.Unlock()
	}

	collect(c.PollOnce(ctx))

	var g errgroup.Group
	for _, refresh := range []func(context.Context) error{
		c.RefreshWebsites,
		c.RefreshApps,
		c.RefreshBrowsers,
	} {
		refresh := refresh
		g.Go(func() error {
			collect(refresh(ctx))
			return nil
		})
	}
	_ = g.Wait()

	return errors.Join(errs...)
}
