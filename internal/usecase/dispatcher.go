package usecase

import (
	"context"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/blissctl/internal/domain"
)

// action describes one mutating engine command.
type action struct {
	args []string

	// guarded actions are rejected locally while a session runs.
	guarded bool

	// onSuccess runs under the state lock after a zero exit.
	onSuccess func(s *State)

	// refresh is the narrowest refresh that observes the change.
	refresh func(ctx context.Context) error
}

// dispatch runs a mutating action: lock check, engine call, then either the
// success effect plus refresh, or a classified error with state untouched.
func (c *Controller) dispatch(ctx context.Context, a action) error {
	if a.guarded {
		if locked := c.rejectIfLocked(a.args); locked != nil {
			return locked
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	outcome := c.run(a.args...)
	if !outcome.Succeeded() {
		ce := c.classify(a.args, outcome)
		c.update(func(s *State) {
			s.LastOutput = outcome.Combined()
			s.LastError = visibleOrNil(ce)
		})
		return ce
	}

	c.logger.Info("engine action succeeded", zap.Strings("args", a.args))
	c.update(func(s *State) {
		s.LastOutput = outcome.Combined()
		s.LastError = nil
		if a.onSuccess != nil {
			a.onSuccess(s)
		}
	})

	if a.refresh != nil {
		// The action itself succeeded; refresh failures are published as state.
		_ = a.refresh(ctx)
	}
	return nil
}

// rejectIfLocked publishes and returns SessionLocked while a session runs.
func (c *Controller) rejectIfLocked(args []string) *domain.ClassifiedError {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.state.Session.IsRunning() {
		return nil
	}
	locked := domain.SessionLockedError()
	c.state.LastError = locked
	c.publishLocked()
	c.logger.Info("config locked, action rejected", zap.Strings("args", args))
	return locked
}

// AddWebsite blocks a domain. Blank input is ignored.
func (c *Controller) AddWebsite(ctx context.Context, website string) error {
	if locked := c.rejectIfLocked([]string{"config", "website", "add"}); locked != nil {
		return locked
	}
	website = strings.TrimSpace(website)
	if website == "" {
		return nil
	}
	return c.dispatch(ctx, action{
		args:      []string{"config", "website", "add", website},
		guarded:   true,
		onSuccess: func(s *State) { s.WebsiteInput = "" },
		refresh:   c.RefreshWebsites,
	})
}

// RemoveWebsite unblocks a domain.
func (c *Controller) RemoveWebsite(ctx context.Context, website string) error {
	return c.dispatch(ctx, action{
		args:    []string{"config", "website", "remove", website},
		guarded: true,
		onSuccess: func(s *State) {
			s.Lists.Websites = without(s.Lists.Websites, website)
		},
		refresh: c.RefreshWebsites,
	})
}

// AddApp blocks the application bundle at path.
func (c *Controller) AddApp(ctx context.Context, path string) error {
	return c.dispatch(ctx, action{
		args:    []string{"config", "app", "add", path},
		guarded: true,
		refresh: c.RefreshApps,
	})
}

// RemoveApp unblocks an app, sending back exactly its stored ID.
func (c *Controller) RemoveApp(ctx context.Context, app domain.AppEntry) error {
	return c.dispatch(ctx, action{
		args:    []string{"config", "app", "remove", app.ID},
		guarded: true,
		onSuccess: func(s *State) {
			kept := s.Lists.Apps[:0:0]
			for _, a := range s.Lists.Apps {
				if a.ID != app.ID {
					kept = append(kept, a)
				}
			}
			s.Lists.Apps = kept
		},
		refresh: c.RefreshApps,
	})
}

// AddBrowser blocks a browser by name.
func (c *Controller) AddBrowser(ctx context.Context, name string) error {
	return c.dispatch(ctx, action{
		args:    []string{"config", "browser", "add", name},
		guarded: true,
		refresh: c.RefreshBrowsers,
	})
}

// AddBrowserFromAppPath derives the browser name from an .app bundle path.
func (c *Controller) AddBrowserFromAppPath(ctx context.Context, path string) error {
	if locked := c.rejectIfLocked([]string{"config", "browser", "add"}); locked != nil {
		return locked
	}
	name := BrowserNameFromPath(path)
	if name == "" {
		ce := domain.NewClassifiedError(domain.KindUnclassifiedFailure, domain.MsgInvalidBrowserPath)
		c.update(func(s *State) { s.LastError = ce })
		return ce
	}
	return c.AddBrowser(ctx, name)
}

// BrowserNameFromPath returns the bundle name without extension.
func BrowserNameFromPath(path string) string {
	path = strings.TrimRight(strings.TrimSpace(path), "/")
	if path == "" {
		return ""
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// RemoveBrowser unblocks a browser.
func (c *Controller) RemoveBrowser(ctx context.Context, name string) error {
	return c.dispatch(ctx, action{
		args:    []string{"config", "browser", "remove", name},
		guarded: true,
		onSuccess: func(s *State) {
			s.Lists.Browsers = without(s.Lists.Browsers, name)
		},
		refresh: c.RefreshBrowsers,
	})
}

// SetQuoteLength changes the challenge prompt length. Once the engine has
// been asked, the value is re-read from it whether or not the change took.
// A lock rejection makes no engine call at all.
func (c *Controller) SetQuoteLength(ctx context.Context, length domain.QuoteLength) error {
	args := []string{"config", "quotes", string(length)}
	if locked := c.rejectIfLocked(args); locked != nil {
		return locked
	}
	err := c.dispatch(ctx, action{
		args:    args,
		guarded: true,
	})
	_ = c.SyncQuoteLength(ctx)
	return err
}

// StartSession starts a session of minutesText minutes. It is never
// rejected locally: the engine decides whether a session is already active.
func (c *Controller) StartSession(ctx context.Context, minutesText string) error {
	return c.dispatch(ctx, action{
		args:    []string{"start", minutesText},
		refresh: c.RefreshAll,
	})
}

// override ends the active session. It skips the lock check and is only
// reachable through a Challenge that passed its accuracy check.
func (c *Controller) override(ctx context.Context) (domain.CommandOutcome, error) {
	var outcome domain.CommandOutcome
	args := []string{c.config.OverrideCommand, "--skip-challenge"}
	if err := ctx.Err(); err != nil {
		return outcome, err
	}

	outcome = c.run(args...)
	if !outcome.Succeeded() {
		ce := c.classify(args, outcome)
		c.update(func(s *State) {
			s.LastOutput = outcome.Combined()
			s.LastError = visibleOrNil(ce)
		})
		return outcome, ce
	}

	c.logger.Info("session ended by override")
	c.update(func(s *State) {
		s.LastOutput = outcome.Combined()
		s.LastError = nil
	})
	_ = c.RefreshAll(ctx)
	return outcome, nil
}

func without(items []string, drop string) []string {
	kept := make([]string, 0, len(items))
	for _, it := range items {
		if it != drop {
			kept = append(kept, it)
		}
	}
	return kept
}
