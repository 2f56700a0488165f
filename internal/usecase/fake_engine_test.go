package usecase

import (
	"strings"
	"sync"

	"github.com/eliteGoblin/focusd/blissctl/internal/domain"
)

const (
	runningStatus = "status: running\nends at (epoch): 1700000000\nremaining: 24m 5s\npf table active: yes\n"
	idleStatus    = "status: not running\nremaining: -\npf table active: no\n"
)

// fakeEngine implements domain.EngineClient for testing. Responses are keyed
// by the space-joined argument vector; unknown commands succeed silently.
type fakeEngine struct {
	mu        sync.Mutex
	responses map[string]domain.CommandOutcome
	calls     [][]string
	path      string

	// onRun, when set, runs before the response is looked up.
	onRun func(args []string)
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		responses: make(map[string]domain.CommandOutcome),
		path:      "/usr/local/bin/bliss",
	}
}

// idle returns an engine reporting no session and empty lists.
func idleEngine() *fakeEngine {
	f := newFakeEngine()
	f.ok(idleStatus, "status")
	f.ok("no entries\n", "config", "website", "list")
	f.ok("no entries\n", "config", "app", "list", "--raw")
	f.ok("no entries\n", "config", "browser", "list")
	f.ok("quotes: medium\n", "config", "quotes", "get")
	return f
}

func (f *fakeEngine) set(outcome domain.CommandOutcome, args ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[strings.Join(args, " ")] = outcome
}

func (f *fakeEngine) ok(stdout string, args ...string) {
	f.set(domain.CommandOutcome{Stdout: stdout}, args...)
}

func (f *fakeEngine) fail(code int32, stderr string, args ...string) {
	f.set(domain.CommandOutcome{ExitCode: code, Stderr: stderr}, args...)
}

func (f *fakeEngine) Run(args ...string) domain.CommandOutcome {
	f.mu.Lock()
	f.calls = append(f.calls, append([]string(nil), args...))
	hook := f.onRun
	f.mu.Unlock()

	if hook != nil {
		hook(args)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.responses[strings.Join(args, " ")]
}

func (f *fakeEngine) ExecutablePath() string {
	return f.path
}

func (f *fakeEngine) Calls() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]string(nil), f.calls...)
}

func (f *fakeEngine) callCount(args ...string) int {
	key := strings.Join(args, " ")
	n := 0
	for _, c := range f.Calls() {
		if strings.Join(c, " ") == key {
			n++
		}
	}
	return n
}

func (f *fakeEngine) resetCalls() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

// mockAuditLog implements domain.AuditLog for testing
type mockAuditLog struct {
	mu       sync.Mutex
	attempts []domain.OverrideAttempt
	err      error
}

func (m *mockAuditLog) Record(a domain.OverrideAttempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.attempts = append(m.attempts, a)
	return nil
}

func (m *mockAuditLog) Recent(limit int) ([]domain.OverrideAttempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.OverrideAttempt(nil), m.attempts...), nil
}

func (m *mockAuditLog) Close() error {
	return nil
}
