package usecase

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eliteGoblin/focusd/blissctl/internal/domain"
)

func TestDecodeStatus_Running(t *testing.T) {
	got, err := DecodeStatus(runningStatus)
	require.NoError(t, err)

	want := domain.SessionState{
		Status:           domain.StatusRunning,
		RemainingSeconds: 24*60 + 5,
		HasRemaining:     true,
		PF:               domain.PFActive,
		EndsAt:           time.Unix(1700000000, 0),
		StatusText:       "status: running",
		RemainingText:    "remaining: 24m 5s",
		PFText:           "pf table active: yes",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("DecodeStatus mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeStatus_Idle(t *testing.T) {
	got, err := DecodeStatus(idleStatus)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusIdle, got.Status)
	assert.False(t, got.IsRunning())
	assert.False(t, got.HasRemaining)
	assert.Equal(t, domain.PFInactive, got.PF)
	assert.True(t, got.EndsAt.IsZero())
}

func TestDecodeStatus_RunningRequiresExactLine(t *testing.T) {
	for _, line := range []string{"status: running ", "status: Running", "status: running soon", "status: paused"} {
		got, err := DecodeStatus(line + "\n")
		require.NoError(t, err)
		assert.Equal(t, domain.StatusUnknown, got.Status, line)
		assert.Equal(t, line, got.StatusText)
	}
}

func TestDecodeStatus_MissingLinesKeepPlaceholders(t *testing.T) {
	got, err := DecodeStatus("pf table active: yes\n")
	require.NoError(t, err)

	assert.Equal(t, domain.PlaceholderStatus, got.StatusText)
	assert.Equal(t, domain.PlaceholderRemaining, got.RemainingText)
	assert.Equal(t, domain.PFActive, got.PF)
	assert.Equal(t, domain.StatusUnknown, got.Status)
}

func TestDecodeStatus_Malformed(t *testing.T) {
	got, err := DecodeStatus("hello\nworld\n")
	assert.ErrorIs(t, err, ErrMalformedOutput)
	if diff := cmp.Diff(domain.NewSessionState(), got); diff != "" {
		t.Errorf("malformed output should yield startup state (-want +got):\n%s", diff)
	}
}

func TestDecodeStatus_CRLF(t *testing.T) {
	got, err := DecodeStatus("status: running\r\nremaining: 90\r\n")
	require.NoError(t, err)
	assert.True(t, got.IsRunning())
	assert.Equal(t, 90, got.RemainingSeconds)
}

func TestParseRemaining(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{" 24m 5s", 1445, true},
		{"1h 0m 1s", 3601, true},
		{"59s", 59, true},
		{"120", 120, true},
		{"-", 0, false},
		{"", 0, false},
		{"soon", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseRemaining(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestDecodeList(t *testing.T) {
	assert.Empty(t, DecodeList("no entries\n"))
	assert.Empty(t, DecodeList(""))
	assert.Empty(t, DecodeList("\n\n"))
	assert.Equal(t, []string{"example.com", "news.ycombinator.com"},
		DecodeList("example.com\n\nnews.ycombinator.com\n"))
}

func TestParseAppEntry(t *testing.T) {
	tests := []struct {
		line string
		want domain.AppEntry
	}{
		{
			line: "Safari|bundle=com.apple.Safari|path=/Applications/Safari.app",
			want: domain.AppEntry{
				ID:       "Safari|bundle=com.apple.Safari|path=/Applications/Safari.app",
				Name:     "Safari",
				BundleID: "com.apple.Safari",
				Path:     "/Applications/Safari.app",
			},
		},
		{
			line: "Slack",
			want: domain.AppEntry{ID: "Slack", Name: "Slack"},
		},
		{
			line: "Zoom|team=ops|path=/Applications/zoom.us.app",
			want: domain.AppEntry{
				ID:   "Zoom|team=ops|path=/Applications/zoom.us.app",
				Name: "Zoom",
				Path: "/Applications/zoom.us.app",
			},
		},
		{
			line: "Mail|bundle=com.apple.mail",
			want: domain.AppEntry{ID: "Mail|bundle=com.apple.mail", Name: "Mail", BundleID: "com.apple.mail"},
		},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, ParseAppEntry(tt.line)); diff != "" {
			t.Errorf("ParseAppEntry(%q) mismatch (-want +got):\n%s", tt.line, diff)
		}
	}
}

func TestDecodeApps_Sentinel(t *testing.T) {
	assert.Empty(t, DecodeApps("no entries\n"))
	apps := DecodeApps("Slack\nSafari|bundle=com.apple.Safari\n")
	require.Len(t, apps, 2)
	assert.Equal(t, "Slack", apps[0].Name)
	assert.Equal(t, "com.apple.Safari", apps[1].Detail())
}

func TestDecodeQuoteLength(t *testing.T) {
	tests := []struct {
		name    string
		outcome domain.CommandOutcome
		want    domain.QuoteLength
		wantErr bool
	}{
		{"short", domain.CommandOutcome{Stdout: "quotes: short\n"}, domain.QuoteShort, false},
		{"case insensitive", domain.CommandOutcome{Stdout: "quotes: HUGE\n"}, domain.QuoteHuge, false},
		{"unknown value", domain.CommandOutcome{Stdout: "quotes: epic\n"}, domain.QuoteMedium, true},
		{"no line", domain.CommandOutcome{Stdout: "long\n"}, domain.QuoteMedium, true},
		{"failed query", domain.CommandOutcome{ExitCode: 1, Stdout: "quotes: long\n"}, domain.QuoteMedium, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeQuoteLength(tt.outcome)
			assert.Equal(t, tt.want, got)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformedOutput)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
