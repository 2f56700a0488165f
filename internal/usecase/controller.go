package usecase

import (
	"sync"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/blissctl/internal/domain"
)

// DefaultOverrideCommand ends a session early when run with --skip-challenge.
const DefaultOverrideCommand = "panic"

// DefaultMinutes pre-fills the session length input.
const DefaultMinutes = "25"

// State is everything the controller publishes to the front-end.
type State struct {
	Session     domain.SessionState
	Lists       domain.ConfigLists
	QuoteLength domain.QuoteLength

	// LastError is nil when there is nothing to show.
	LastError *domain.ClassifiedError
	// LastOutput is the combined output of the last engine action.
	LastOutput string

	WebsiteInput string
	MinutesInput string

	// InFlight counts engine invocations currently running.
	InFlight int
}

// Locked reports whether guarded mutations are currently rejected.
func (s State) Locked() bool {
	return s.Session.IsRunning()
}

func (s State) clone() State {
	out := s
	out.Lists = s.Lists.Clone()
	if s.LastError != nil {
		e := *s.LastError
		out.LastError = &e
	}
	return out
}

// ControllerConfig holds controller settings.
type ControllerConfig struct {
	OverrideCommand string
}

// DefaultControllerConfig returns default controller configuration.
func DefaultControllerConfig() ControllerConfig {
	return ControllerConfig{OverrideCommand: DefaultOverrideCommand}
}

// Controller owns the published state. Every read or write of state happens
// under mu; engine invocations run without holding it and their results are
// applied afterwards. Concurrent actions are not serialized against each
// other: the engine is the source of truth and the last refresh to land wins.
type Controller struct {
	config     ControllerConfig
	engine     domain.EngineClient
	classifier *Classifier
	logger     *zap.Logger

	mu      sync.Mutex
	state   State
	subs    map[int]chan State
	nextSub int
}

// NewController creates a controller in the startup state.
func NewController(config ControllerConfig, engine domain.EngineClient, logger *zap.Logger) *Controller {
	if config.OverrideCommand == "" {
		config.OverrideCommand = DefaultOverrideCommand
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		config:     config,
		engine:     engine,
		classifier: NewClassifier(engine.ExecutablePath),
		logger:     logger,
		state: State{
			Session:      domain.NewSessionState(),
			QuoteLength:  domain.DefaultQuoteLength,
			MinutesInput: DefaultMinutes,
		},
		subs: make(map[int]chan State),
	}
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Subscribe returns a channel receiving the latest state after every change.
// Slow readers only ever see the newest snapshot.
func (c *Controller) Subscribe() (<-chan State, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSub
	c.nextSub++
	ch := make(chan State, 1)
	c.subs[id] = ch
	ch <- c.state.clone()

	return ch, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if sub, ok := c.subs[id]; ok {
			delete(c.subs, id)
			close(sub)
		}
	}
}

// update applies fn to state under the lock and notifies subscribers.
func (c *Controller) update(fn func(s *State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.state)
	c.publishLocked()
}

func (c *Controller) publishLocked() {
	for _, ch := range c.subs {
		select {
		case <-ch:
		default:
		}
		ch <- c.state.clone()
	}
}

// run invokes the engine off the lock, tracking the in-flight count.
func (c *Controller) run(args ...string) domain.CommandOutcome {
	c.update(func(s *State) { s.InFlight++ })
	outcome := c.engine.Run(args...)
	c.update(func(s *State) { s.InFlight-- })
	return outcome
}

// classify turns a failed outcome into the error to publish and return.
func (c *Controller) classify(args []string, outcome domain.CommandOutcome) *domain.ClassifiedError {
	ce := c.classifier.ClassifyOutcome(outcome)
	c.logger.Warn("engine command failed",
		zap.Strings("args", args),
		zap.Int32("exit_code", outcome.ExitCode),
		zap.Stringer("kind", ce.Kind))
	return ce
}

// visibleOrNil hides NoError classifications from the display.
func visibleOrNil(ce *domain.ClassifiedError) *domain.ClassifiedError {
	if ce.Visible() {
		return ce
	}
	return nil
}

// SetWebsiteInput stores the website input buffer.
func (c *Controller) SetWebsiteInput(v string) {
	c.update(func(s *State) { s.WebsiteInput = v })
}

// SetMinutesInput stores the session length input buffer.
func (c *Controller) SetMinutesInput(v string) {
	c.update(func(s *State) { s.MinutesInput = v })
}

// SetManualError publishes a front-end originated failure.
func (c *Controller) SetManualError(message string) {
	c.update(func(s *State) {
		s.LastError = domain.NewClassifiedError(domain.KindUnclassifiedFailure, message)
	})
}

// ClearError hides the current error.
func (c *Controller) ClearError() {
	c.update(func(s *State) { s.LastError = nil })
}
