package infra

import (
	"bytes"
	"errors"
	"os/exec"
	"strconv"
	"sync"
)

// mockProcessManager is a test double for ProcessManager
type mockProcessManager struct {
	byName  map[string][]int
	exited  map[int]bool
	findErr error
}

func (m *mockProcessManager) FindByName(pattern string) ([]int, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.byName[pattern], nil
}

func (m *mockProcessManager) IsRunning(pid int) bool {
	if m.exited[pid] {
		return false
	}
	for _, pids := range m.byName {
		for _, p := range pids {
			if p == pid {
				return true
			}
		}
	}
	return false
}

// fakeRunner is a test double for CommandRunner
type fakeRunner struct {
	mu     sync.Mutex
	name   string
	args   []string
	stdout []byte
	stderr []byte
	err    error
}

func (f *fakeRunner) Run(name string, args []string, stdout, stderr *bytes.Buffer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.name = name
	f.args = args
	stdout.Write(f.stdout)
	stderr.Write(f.stderr)
	return f.err
}

// exitError returns a real *exec.ExitError with the given code.
func exitError(code int) error {
	err := exec.Command("sh", "-c", "exit "+strconv.Itoa(code)).Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr
	}
	return err
}
