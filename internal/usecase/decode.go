package usecase

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/eliteGoblin/focusd/blissctl/internal/domain"
)

// ErrMalformedOutput marks engine output with no recognizable content.
// Decoders still return a usable value alongside it.
var ErrMalformedOutput = errors.New("malformed engine output")

// Line prefixes and sentinels printed by the engine.
const (
	prefixStatus    = "status:"
	prefixRemaining = "remaining:"
	prefixPF        = "pf table active:"
	prefixEndsAt    = "ends at (epoch):"
	prefixQuotes    = "quotes:"

	statusRunningLine    = "status: running"
	statusNotRunningLine = "status: not running"

	listSentinel = "no entries"
)

// splitLines splits engine output into lines without trailing CR.
func splitLines(out string) []string {
	raw := strings.Split(out, "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		lines = append(lines, strings.TrimSuffix(l, "\r"))
	}
	return lines
}

// firstWithPrefix returns the first line starting with prefix.
func firstWithPrefix(lines []string, prefix string) (string, bool) {
	for _, l := range lines {
		if strings.HasPrefix(l, prefix) {
			return l, true
		}
	}
	return "", false
}

// DecodeStatus parses the output of ["status"]. Each line is optional; a
// missing line leaves its placeholder. The session is Running iff the status
// line is exactly "status: running".
func DecodeStatus(stdout string) (domain.SessionState, error) {
	lines := splitLines(stdout)
	state := domain.NewSessionState()
	recognized := false

	if line, ok := firstWithPrefix(lines, prefixStatus); ok {
		recognized = true
		state.StatusText = line
		switch line {
		case statusRunningLine:
			state.Status = domain.StatusRunning
		case statusNotRunningLine:
			state.Status = domain.StatusIdle
		}
	}

	if line, ok := firstWithPrefix(lines, prefixRemaining); ok {
		recognized = true
		state.RemainingText = line
		if secs, ok := parseRemaining(strings.TrimPrefix(line, prefixRemaining)); ok {
			state.RemainingSeconds = secs
			state.HasRemaining = true
		}
	}

	if line, ok := firstWithPrefix(lines, prefixPF); ok {
		recognized = true
		state.PFText = line
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(line, prefixPF))) {
		case "yes", "true", "1":
			state.PF = domain.PFActive
		case "no", "false", "0":
			state.PF = domain.PFInactive
		}
	}

	if line, ok := firstWithPrefix(lines, prefixEndsAt); ok {
		epoch, err := strconv.ParseInt(strings.TrimSpace(strings.TrimPrefix(line, prefixEndsAt)), 10, 64)
		if err == nil {
			state.EndsAt = time.Unix(epoch, 0)
		}
	}

	if !recognized {
		return state, fmt.Errorf("status: %w", ErrMalformedOutput)
	}
	return state, nil
}

// parseRemaining reads "24m 5s" style durations into whole seconds.
func parseRemaining(s string) (int, bool) {
	compact := strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	if compact == "" || compact == "-" {
		return 0, false
	}
	if n, err := strconv.Atoi(compact); err == nil && n >= 0 {
		return n, true
	}
	d, err := time.ParseDuration(compact)
	if err != nil || d < 0 {
		return 0, false
	}
	return int(d / time.Second), true
}

// DecodeList parses a newline list. Empty lines and the "no entries"
// sentinel are dropped, so a sentinel-only body is an empty list.
func DecodeList(stdout string) []string {
	var items []string
	for _, l := range splitLines(stdout) {
		if l == "" || l == listSentinel {
			continue
		}
		items = append(items, l)
	}
	return items
}

// DecodeApps parses the output of ["config","app","list","--raw"].
func DecodeApps(stdout string) []domain.AppEntry {
	lines := DecodeList(stdout)
	apps := make([]domain.AppEntry, 0, len(lines))
	for _, l := range lines {
		apps = append(apps, ParseAppEntry(l))
	}
	return apps
}

// ParseAppEntry splits "name|bundle=<id>|path=<path>". The raw line is the
// entry's identity. Unknown key=value segments are ignored.
func ParseAppEntry(line string) domain.AppEntry {
	name, rest, found := strings.Cut(line, "|")
	if !found {
		return domain.AppEntry{ID: line, Name: line}
	}
	entry := domain.AppEntry{ID: line, Name: name}
	for _, chunk := range strings.Split(rest, "|") {
		switch {
		case strings.HasPrefix(chunk, "bundle="):
			entry.BundleID = strings.TrimPrefix(chunk, "bundle=")
		case strings.HasPrefix(chunk, "path="):
			entry.Path = strings.TrimPrefix(chunk, "path=")
		}
	}
	return entry
}

// DecodeQuoteLength parses the output of ["config","quotes","get"]. A
// failed query or any unknown value yields medium.
func DecodeQuoteLength(o domain.CommandOutcome) (domain.QuoteLength, error) {
	if !o.Succeeded() {
		return domain.DefaultQuoteLength, nil
	}
	line, ok := firstWithPrefix(splitLines(o.Stdout), prefixQuotes)
	if !ok {
		return domain.DefaultQuoteLength, fmt.Errorf("quotes: %w", ErrMalformedOutput)
	}
	length, ok := domain.ParseQuoteLength(strings.TrimPrefix(line, prefixQuotes))
	if !ok {
		return domain.DefaultQuoteLength, fmt.Errorf("quotes value %q: %w", line, ErrMalformedOutput)
	}
	return length, nil
}
