package infra

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProbeHelper(t *testing.T) {
	pm := &mockProcessManager{byName: map[string][]int{DefaultHelperProcessName: {412}}}

	status := ProbeHelper(pm, "")
	assert.Equal(t, DefaultHelperProcessName, status.Name)
	assert.True(t, status.Running)
	assert.Equal(t, []int{412}, status.PIDs)
	assert.NoError(t, status.Err)

	status = ProbeHelper(pm, "other")
	assert.False(t, status.Running)
	assert.Empty(t, status.PIDs)
}

func TestProbeHelper_DropsExitedPIDs(t *testing.T) {
	pm := &mockProcessManager{
		byName: map[string][]int{"blissd": {412, 413}},
		exited: map[int]bool{412: true},
	}

	status := ProbeHelper(pm, "blissd")
	assert.True(t, status.Running)
	assert.Equal(t, []int{413}, status.PIDs)

	pm.exited[413] = true
	status = ProbeHelper(pm, "blissd")
	assert.False(t, status.Running, "every listed PID has exited")
	assert.Empty(t, status.PIDs)
}

func TestProbeHelper_ProcessTableError(t *testing.T) {
	pm := &mockProcessManager{findErr: errors.New("permission denied")}

	status := ProbeHelper(pm, "blissd")
	assert.False(t, status.Running)
	assert.EqualError(t, status.Err, "permission denied")
}

func TestProcessManagerImpl_IsRunning(t *testing.T) {
	pm := NewProcessManager()
	assert.True(t, pm.IsRunning(os.Getpid()))
}

func TestProcessManagerImpl_FindByName(t *testing.T) {
	pm := NewProcessManager()
	pids, err := pm.FindByName("definitely-not-a-running-process-name")
	require.NoError(t, err)
	assert.Empty(t, pids)
}
