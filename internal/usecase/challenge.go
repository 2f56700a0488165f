package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/blissctl/internal/domain"
)

// AccuracyThreshold is the minimum accuracy, in percent, that authorizes the
// override. The comparison is inclusive.
const AccuracyThreshold = 95.0

// Banners shown by the challenge view.
const (
	MsgChallengeFailed = "Challenge failed. Keep typing until you hit 95%."
	MsgOverrideFailed  = "Panic command failed. Session is still active."
)

var (
	ErrChallengeClosed  = errors.New("challenge is closed")
	ErrSubmitInProgress = errors.New("challenge submit already in progress")
)

// CharState classifies one prompt position against the typed buffer.
type CharState int

const (
	CharUntyped CharState = iota
	CharCorrect
	CharIncorrect
)

// RenderedChar is one prompt character and its state.
type RenderedChar struct {
	Char  rune
	State CharState
}

// Sanitize drops characters outside the printable ASCII range and clamps
// the result to the prompt length.
func Sanitize(prompt, input string) string {
	limit := len([]rune(prompt))
	out := make([]rune, 0, limit)
	for _, r := range input {
		if len(out) == limit {
			break
		}
		if r < ' ' || r > '~' {
			continue
		}
		out = append(out, r)
	}
	return string(out)
}

// Accuracy is the percentage of prompt positions typed correctly. An empty
// prompt scores zero.
func Accuracy(prompt, typed string) float64 {
	p := []rune(prompt)
	if len(p) == 0 {
		return 0
	}
	t := []rune(typed)
	correct := 0
	for i := 0; i < len(p) && i < len(t); i++ {
		if p[i] == t[i] {
			correct++
		}
	}
	return float64(correct*100) / float64(len(p))
}

// RenderPrompt classifies every prompt character by position.
func RenderPrompt(prompt, typed string) []RenderedChar {
	t := []rune(typed)
	var out []RenderedChar
	for i, r := range []rune(prompt) {
		state := CharUntyped
		if i < len(t) {
			state = CharIncorrect
			if t[i] == r {
				state = CharCorrect
			}
		}
		out = append(out, RenderedChar{Char: r, State: state})
	}
	return out
}

// ChallengeResult is the outcome of one submit.
type ChallengeResult int

const (
	// ChallengeRejected means accuracy was below the threshold; the engine
	// was not called.
	ChallengeRejected ChallengeResult = iota
	// ChallengeSessionEnded means the override succeeded and the gate closed.
	ChallengeSessionEnded
	// ChallengeEngineFailed means the override ran and failed; the gate
	// stays open.
	ChallengeEngineFailed
)

// Challenge gates the override behind a typing test. It is the only way to
// reach Controller.override.
type Challenge struct {
	controller *Controller
	audit      domain.AuditLog
	logger     *zap.Logger

	mu         sync.Mutex
	prompt     string
	typed      string
	submitted  bool
	submitting bool
	closed     bool
	engineErr  *domain.ClassifiedError
}

// NewChallenge opens a gate for prompt. audit may be nil.
func (c *Controller) NewChallenge(prompt string, audit domain.AuditLog) *Challenge {
	return &Challenge{
		controller: c,
		audit:      audit,
		logger:     c.logger.Named("challenge"),
		prompt:     prompt,
	}
}

// Prompt returns the text to transcribe.
func (ch *Challenge) Prompt() string {
	return ch.prompt
}

// Typed returns the sanitized buffer.
func (ch *Challenge) Typed() string {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.typed
}

// SetTyped replaces the buffer with the sanitized input.
func (ch *Challenge) SetTyped(input string) {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	ch.typed = Sanitize(ch.prompt, input)
}

// TypeRunes appends keystrokes to the buffer.
func (ch *Challenge) TypeRunes(runes []rune) {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	ch.typed = Sanitize(ch.prompt, ch.typed+string(runes))
}

// Backspace removes the last typed character.
func (ch *Challenge) Backspace() {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	r := []rune(ch.typed)
	if len(r) > 0 {
		ch.typed = string(r[:len(r)-1])
	}
}

// Accuracy scores the current buffer.
func (ch *Challenge) Accuracy() float64 {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return Accuracy(ch.prompt, ch.typed)
}

// Render classifies the prompt against the current buffer.
func (ch *Challenge) Render() []RenderedChar {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return RenderPrompt(ch.prompt, ch.typed)
}

// Failed reports whether the failed banner should show: a submit happened
// and the buffer is still below the threshold.
func (ch *Challenge) Failed() bool {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.submitted && Accuracy(ch.prompt, ch.typed) < AccuracyThreshold
}

// EngineError returns the classified error of the last failed override.
func (ch *Challenge) EngineError() *domain.ClassifiedError {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.engineErr
}

// Submitting reports whether an override is running.
func (ch *Challenge) Submitting() bool {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.submitting
}

// Closed reports whether the gate has closed.
func (ch *Challenge) Closed() bool {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.closed
}

// Cancel closes the gate without calling the engine.
func (ch *Challenge) Cancel() {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	ch.closed = true
}

// Submit scores the buffer and, at or above the threshold, runs the
// override. Below the threshold the engine is never called.
func (ch *Challenge) Submit(ctx context.Context) (ChallengeResult, error) {
	ch.mu.Lock()
	if ch.closed {
		ch.mu.Unlock()
		return ChallengeRejected, ErrChallengeClosed
	}
	if ch.submitting {
		ch.mu.Unlock()
		return ChallengeRejected, ErrSubmitInProgress
	}
	ch.submitted = true
	accuracy := Accuracy(ch.prompt, ch.typed)
	attempt := domain.OverrideAttempt{At: time.Now(), Accuracy: accuracy}

	if accuracy < AccuracyThreshold {
		ch.mu.Unlock()
		ch.logger.Info("challenge rejected", zap.Float64("accuracy", accuracy))
		ch.record(attempt)
		return ChallengeRejected, nil
	}
	ch.submitting = true
	ch.engineErr = nil
	ch.mu.Unlock()

	attempt.Passed = true
	outcome, err := ch.controller.override(ctx)

	ch.mu.Lock()
	ch.submitting = false
	var ce *domain.ClassifiedError
	switch {
	case err == nil:
		ch.closed = true
	case errors.As(err, &ce):
		ch.engineErr = ce
	}
	ch.mu.Unlock()

	if ce == nil && err != nil {
		// Cancelled before the engine was called.
		return ChallengeEngineFailed, err
	}

	attempt.EngineCalled = true
	attempt.ExitCode = outcome.ExitCode
	attempt.Succeeded = err == nil
	if ce != nil {
		attempt.Kind = ce.Kind
	}
	ch.record(attempt)

	if err != nil {
		ch.logger.Warn("override failed", zap.Stringer("kind", ce.Kind))
		return ChallengeEngineFailed, err
	}
	ch.logger.Info("override succeeded", zap.Float64("accuracy", accuracy))
	return ChallengeSessionEnded, nil
}

func (ch *Challenge) record(attempt domain.OverrideAttempt) {
	if ch.audit == nil {
		return
	}
	if err := ch.audit.Record(attempt); err != nil {
		ch.logger.Warn("failed to record override attempt", zap.Error(err))
	}
}
