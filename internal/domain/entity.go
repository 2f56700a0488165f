// Package domain contains core entities and ports of the controller.
// This is the innermost layer - no external dependencies.
package domain

import (
	"strings"
	"time"
)

// SessionStatus is the engine's session state as last observed.
type SessionStatus int

const (
	StatusUnknown SessionStatus = iota
	StatusRunning
	StatusIdle
	StatusError
)

func (s SessionStatus) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusIdle:
		return "idle"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// PFState is the tri-state firewall table flag.
type PFState int

const (
	PFUnknown PFState = iota
	PFActive
	PFInactive
)

func (p PFState) String() string {
	switch p {
	case PFActive:
		return "yes"
	case PFInactive:
		return "no"
	default:
		return "unknown"
	}
}

// Placeholder lines shown before (or instead of) a parsed status line.
const (
	PlaceholderStatus    = "status: unknown"
	PlaceholderRemaining = "remaining: -"
	PlaceholderPF        = "pf table active: -"
	StatusErrorText      = "status: error"
)

// SessionState is derived entirely from the latest status query.
type SessionState struct {
	Status SessionStatus

	// RemainingSeconds is only meaningful when HasRemaining is true.
	RemainingSeconds int
	HasRemaining     bool
	PF               PFState

	// EndsAt is the session end reported by the engine, zero if absent.
	EndsAt time.Time

	// Raw lines as printed by the engine, or their placeholders.
	StatusText    string
	RemainingText string
	PFText        string
}

// NewSessionState returns the startup state.
func NewSessionState() SessionState {
	return SessionState{
		Status:        StatusUnknown,
		StatusText:    PlaceholderStatus,
		RemainingText: PlaceholderRemaining,
		PFText:        PlaceholderPF,
	}
}

// ErrorSessionState is the state published after a failed status query.
func ErrorSessionState() SessionState {
	return SessionState{
		Status:        StatusError,
		StatusText:    StatusErrorText,
		RemainingText: PlaceholderRemaining,
		PFText:        PlaceholderPF,
	}
}

// IsRunning reports whether configuration is locked.
func (s SessionState) IsRunning() bool {
	return s.Status == StatusRunning
}

// AppEntry is one blocked application as listed by the engine.
// ID is the raw source line and is the only valid removal key.
type AppEntry struct {
	ID       string
	Name     string
	BundleID string
	Path     string
}

// Detail returns the secondary display line (path preferred over bundle).
func (a AppEntry) Detail() string {
	if a.Path != "" {
		return a.Path
	}
	return a.BundleID
}

// ConfigLists mirrors the engine's three block lists.
type ConfigLists struct {
	Websites []string
	Apps     []AppEntry
	Browsers []string
}

// Clone returns a deep copy safe to hand to observers.
func (c ConfigLists) Clone() ConfigLists {
	return ConfigLists{
		Websites: append([]string(nil), c.Websites...),
		Apps:     append([]AppEntry(nil), c.Apps...),
		Browsers: append([]string(nil), c.Browsers...),
	}
}

// QuoteLength selects the challenge prompt file.
type QuoteLength string

const (
	QuoteShort  QuoteLength = "short"
	QuoteMedium QuoteLength = "medium"
	QuoteLong   QuoteLength = "long"
	QuoteHuge   QuoteLength = "huge"

	DefaultQuoteLength = QuoteMedium
)

// ParseQuoteLength accepts the four known values case-insensitively.
func ParseQuoteLength(s string) (QuoteLength, bool) {
	switch QuoteLength(strings.ToLower(strings.TrimSpace(s))) {
	case QuoteShort:
		return QuoteShort, true
	case QuoteMedium:
		return QuoteMedium, true
	case QuoteLong:
		return QuoteLong, true
	case QuoteHuge:
		return QuoteHuge, true
	}
	return DefaultQuoteLength, false
}

// CommandOutcome is the result of every engine invocation.
type CommandOutcome struct {
	ExitCode int32
	Stdout   string
	Stderr   string
}

// Combined returns stdout+stderr trimmed of surrounding whitespace.
func (o CommandOutcome) Combined() string {
	return strings.TrimSpace(o.Stdout + o.Stderr)
}

// Succeeded reports a zero exit code.
func (o CommandOutcome) Succeeded() bool {
	return o.ExitCode == 0
}

// OverrideAttempt is one submit of the challenge gate.
type OverrideAttempt struct {
	ID           string
	At           time.Time
	Accuracy     float64
	Passed       bool // accuracy reached the threshold
	EngineCalled bool
	ExitCode     int32
	Kind         ErrorKind
	Succeeded    bool // engine ended the session
}
