package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/eliteGoblin/focusd/blissctl/internal/domain"
)

func TestClassifier_Kinds(t *testing.T) {
	c := NewClassifier(func() string { return "/opt/bliss" })

	tests := []struct {
		name     string
		combined string
		want     domain.ErrorKind
		message  string
	}{
		{
			name:     "launch failure",
			combined: "Failed to run bliss at /opt/bliss. Install or build Bliss first.",
			want:     domain.KindExecutableNotFound,
			message:  "Bliss CLI not found at /opt/bliss. Install or build Bliss first.",
		},
		{
			name:     "helper unreachable",
			combined: "error: unable to reach bliss root helper (is blissd running?)",
			want:     domain.KindPrivilegedHelperUnavailable,
			message:  domain.MsgPrivilegedHelperUnavailable,
		},
		{
			name:     "sudo required",
			combined: "repair requires sudo",
			want:     domain.KindPermissionRequired,
			message:  domain.MsgPermissionRequired,
		},
		{
			name:     "config locked",
			combined: "error: config is locked while a session is active",
			want:     domain.KindSessionLocked,
			message:  domain.MsgSessionLocked,
		},
		{
			name:     "already running",
			combined: "error: session already running",
			want:     domain.KindSessionAlreadyActive,
			message:  domain.MsgSessionAlreadyActive,
		},
		{
			name:     "bad minutes",
			combined: "invalid minutes: abc",
			want:     domain.KindInvalidDuration,
			message:  domain.MsgInvalidDuration,
		},
		{
			name:     "stale app",
			combined: "app not found: Slack",
			want:     domain.KindStaleReference,
			message:  domain.MsgStaleReference,
		},
		{
			name:     "anything else",
			combined: "segmentation fault",
			want:     domain.KindUnclassifiedFailure,
			message:  domain.MsgUnclassifiedFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Classify(tt.combined)
			assert.Equal(t, tt.want, got.Kind)
			assert.Equal(t, tt.message, got.Message)
			assert.True(t, got.Visible())
		})
	}
}

func TestClassifier_EmptyOutputHasNoMessage(t *testing.T) {
	got := NewClassifier(nil).Classify("")

	assert.Equal(t, domain.KindNone, got.Kind)
	assert.Empty(t, got.Message)
	assert.False(t, got.Visible())
	assert.NotEmpty(t, got.Error(), "still usable as an error value")
}

func TestClassifier_Precedence(t *testing.T) {
	c := NewClassifier(nil)

	// Both orders of appearance classify the same way.
	a := c.Classify("session already running\ninvalid minutes")
	b := c.Classify("invalid minutes\nsession already running")
	assert.Equal(t, domain.KindSessionAlreadyActive, a.Kind)
	assert.Equal(t, domain.KindSessionAlreadyActive, b.Kind)

	// Launch failure outranks everything.
	got := c.Classify("Failed to run bliss at /x\nconfig is locked while a session is active")
	assert.Equal(t, domain.KindExecutableNotFound, got.Kind)

	// Helper outranks lock.
	got = c.Classify("config is locked while a session is active; unable to reach bliss root helper")
	assert.Equal(t, domain.KindPrivilegedHelperUnavailable, got.Kind)
}

func TestClassifier_ExecutablePathIsReadPerCall(t *testing.T) {
	path := "/first"
	c := NewClassifier(func() string { return path })

	assert.Contains(t, c.Classify("Failed to run bliss").Message, "/first")
	path = "/second"
	assert.Contains(t, c.Classify("Failed to run bliss").Message, "/second")
}

func TestClassifier_ClassifyOutcomeUsesTrimmedCombined(t *testing.T) {
	c := NewClassifier(nil)

	got := c.ClassifyOutcome(domain.CommandOutcome{ExitCode: 1, Stdout: "\n  ", Stderr: " \n"})
	assert.Equal(t, domain.KindNone, got.Kind)

	got = c.ClassifyOutcome(domain.CommandOutcome{ExitCode: 1, Stdout: "invalid ", Stderr: "minutes"})
	assert.Equal(t, domain.KindInvalidDuration, got.Kind, "stdout and stderr are concatenated before matching")
}
