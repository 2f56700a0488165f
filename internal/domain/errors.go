package domain

import "fmt"

// ErrorKind is the closed set of user-facing failure categories.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindExecutableNotFound
	KindPrivilegedHelperUnavailable
	KindPermissionRequired
	KindSessionLocked
	KindSessionAlreadyActive
	KindInvalidDuration
	KindStaleReference
	KindUnclassifiedFailure
)

var kindNames = map[ErrorKind]string{
	KindNone:                        "NoError",
	KindExecutableNotFound:          "ExecutableNotFound",
	KindPrivilegedHelperUnavailable: "PrivilegedHelperUnavailable",
	KindPermissionRequired:          "PermissionRequired",
	KindSessionLocked:               "SessionLocked",
	KindSessionAlreadyActive:        "SessionAlreadyActive",
	KindInvalidDuration:             "InvalidDuration",
	KindStaleReference:              "StaleReference",
	KindUnclassifiedFailure:         "UnclassifiedFailure",
}

func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// ParseErrorKind maps a kind name back to its value; unknown names map to
// KindUnclassifiedFailure.
func ParseErrorKind(name string) ErrorKind {
	for k, n := range kindNames {
		if n == name {
			return k
		}
	}
	return KindUnclassifiedFailure
}

// Fixed user-facing messages.
const (
	MsgPrivilegedHelperUnavailable = "Root helper is unavailable. Run: sudo bliss repair"
	MsgPermissionRequired          = "This needs elevated permission. Run from Terminal with sudo."
	MsgSessionLocked               = "Config is locked during an active session. Use panic or wait for timer end."
	MsgSessionAlreadyActive        = "A session is already running. Use panic or wait for it to finish."
	MsgInvalidDuration             = "Minutes must be a number between 1 and 1440."
	MsgStaleReference              = "Selected app is no longer in config. Refresh and try again."
	MsgUnclassifiedFailure         = "Command failed. See details below."
	MsgInvalidBrowserPath          = "Invalid app path for browser selection."
)

// LaunchFailureMarker starts the synthetic stderr of an engine that could
// not be launched.
const LaunchFailureMarker = "Failed to run bliss"

// ExecutableNotFoundMessage names the path that could not be launched.
func ExecutableNotFoundMessage(path string) string {
	return fmt.Sprintf("Bliss CLI not found at %s. Install or build Bliss first.", path)
}

// ClassifiedError is a user-visible failure derived from engine output
// or from a local precondition.
type ClassifiedError struct {
	Kind    ErrorKind
	Message string
}

// NewClassifiedError builds an error of the given kind.
func NewClassifiedError(kind ErrorKind, message string) *ClassifiedError {
	return &ClassifiedError{Kind: kind, Message: message}
}

// SessionLockedError is returned by guarded mutations while a session runs.
func SessionLockedError() *ClassifiedError {
	return NewClassifiedError(KindSessionLocked, MsgSessionLocked)
}

func (e *ClassifiedError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "engine command failed with no output"
}

// Visible reports whether the error carries a message worth displaying.
// A NoError classification of a failed command has none.
func (e *ClassifiedError) Visible() bool {
	return e != nil && e.Kind != KindNone && e.Message != ""
}
