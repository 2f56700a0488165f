package infra

import (
	"os"
	"strings"
	"syscall"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/eliteGoblin/focusd/blissctl/internal/domain"
)

// DefaultHelperProcessName is the engine's privileged helper daemon.
const DefaultHelperProcessName = "blissd"

// ProcessManagerImpl implements domain.ProcessManager using gopsutil.
type ProcessManagerImpl struct{}

// NewProcessManager creates a new process manager.
func NewProcessManager() domain.ProcessManager {
	return &ProcessManagerImpl{}
}

// FindByName returns PIDs of processes matching the pattern (case-insensitive).
func (pm *ProcessManagerImpl) FindByName(pattern string) ([]int, error) {
	procs, err := process.Processes()
	if err != nil {
		return nil, err
	}

	var found []int
	patternLower := strings.ToLower(pattern)

	for _, p := range procs {
		name, err := p.Name()
		if err != nil {
			continue // Process may have exited
		}

		if strings.EqualFold(name, pattern) || strings.Contains(strings.ToLower(name), patternLower) {
			found = append(found, int(p.Pid))
		}
	}

	return found, nil
}

// IsRunning checks if a PID exists and is running.
func (pm *ProcessManagerImpl) IsRunning(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// Signal 0 probes existence without delivering anything
	return proc.Signal(syscall.Signal(0)) == nil
}

// HelperStatus describes the privileged helper as seen from user space.
type HelperStatus struct {
	Name    string
	PIDs    []int
	Running bool
	Err     error
}

// ProbeHelper looks up the helper daemon by process name. Only PIDs that
// still pass IsRunning are reported.
// A root-owned helper may hide its name from gopsutil; Err is set when the
// process table itself could not be read.
func ProbeHelper(pm domain.ProcessManager, name string) HelperStatus {
	if name == "" {
		name = DefaultHelperProcessName
	}
	pids, err := pm.FindByName(name)
	if err != nil {
		return HelperStatus{Name: name, Err: err}
	}
	var alive []int
	for _, pid := range pids {
		if pm.IsRunning(pid) {
			alive = append(alive, pid)
		}
	}
	return HelperStatus{Name: name, PIDs: alive, Running: len(alive) > 0}
}

// Ensure ProcessManagerImpl implements domain.ProcessManager.
var _ domain.ProcessManager = (*ProcessManagerImpl)(nil)
