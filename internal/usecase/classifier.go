// Package usecase contains the controller logic: output classification,
// engine output decoding, state synchronization, action dispatch and the
// override challenge gate.
package usecase

import (
	"strings"

	"github.com/eliteGoblin/focusd/blissctl/internal/domain"
)

// classifierRule maps a substring of combined engine output to a kind.
type classifierRule struct {
	substring string
	kind      domain.ErrorKind
	message   string
}

// Rules are evaluated in order; the first match wins.
var classifierRules = []classifierRule{
	{domain.LaunchFailureMarker, domain.KindExecutableNotFound, ""},
	{"unable to reach bliss root helper", domain.KindPrivilegedHelperUnavailable, domain.MsgPrivilegedHelperUnavailable},
	{"repair requires sudo", domain.KindPermissionRequired, domain.MsgPermissionRequired},
	{"config is locked while a session is active", domain.KindSessionLocked, domain.MsgSessionLocked},
	{"session already running", domain.KindSessionAlreadyActive, domain.MsgSessionAlreadyActive},
	{"invalid minutes", domain.KindInvalidDuration, domain.MsgInvalidDuration},
	{"app not found", domain.KindStaleReference, domain.MsgStaleReference},
}

// Classifier turns combined engine output into a ClassifiedError.
type Classifier struct {
	executablePath func() string
}

// NewClassifier creates a classifier; executablePath names the engine in
// ExecutableNotFound messages.
func NewClassifier(executablePath func() string) *Classifier {
	if executablePath == nil {
		executablePath = func() string { return "" }
	}
	return &Classifier{executablePath: executablePath}
}

// Classify maps combined output to exactly one kind. Empty output yields
// KindNone with no message.
func (c *Classifier) Classify(combined string) *domain.ClassifiedError {
	for _, rule := range classifierRules {
		if !strings.Contains(combined, rule.substring) {
			continue
		}
		message := rule.message
		if rule.kind == domain.KindExecutableNotFound {
			message = domain.ExecutableNotFoundMessage(c.executablePath())
		}
		return domain.NewClassifiedError(rule.kind, message)
	}
	if combined == "" {
		return domain.NewClassifiedError(domain.KindNone, "")
	}
	return domain.NewClassifiedError(domain.KindUnclassifiedFailure, domain.MsgUnclassifiedFailure)
}

// ClassifyOutcome classifies a failed outcome's combined output.
func (c *Classifier) ClassifyOutcome(o domain.CommandOutcome) *domain.ClassifiedError {
	return c.Classify(o.Combined())
}
