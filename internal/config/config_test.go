package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Schera-ole/monitors/internal/driver/resctrl"
)

func TestNewAgentConfig_Defaults(t *testing.T) {
	cfg, err := NewAgentConfig(nil)
	require.NoError(t, err)

	assert.Equal(t, "localhost:8080", cfg.Address)
	assert.Equal(t, 2*time.Second, cfg.PollInterval)
	assert.Equal(t, resctrl.DriverName, cfg.ComputeDriver)
	assert.Equal(t, []string{MonitorCPU, MonitorMemoryBW}, cfg.Monitors)
	assert.Equal(t, resctrl.DefaultRoot, cfg.ResctrlRoot)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.MaxMemoryBandwidth)
	assert.Empty(t, cfg.L3ByNode)
}

func TestNewAgentConfig_Precedence(t *testing.T) {
	t.Setenv("ADDRESS", "0.0.0.0:9100")
	t.Setenv("POLL_INTERVAL", "5")

	cfg, err := NewAgentConfig([]string{"-a", "127.0.0.1:8081", "-p", "3", "-d", "libvirt", "-m", " membw ,"})
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9100", cfg.Address)
	assert.Equal(t, 5*time.Second, cfg.PollInterval)
	assert.Equal(t, "libvirt", cfg.ComputeDriver)
	assert.Equal(t, []string{MonitorMemoryBW}, cfg.Monitors)
}

func TestNewAgentConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		args []string
		env  map[string]string
	}{
		{name: "unknown flag", args: []string{"-x"}},
		{name: "non-positive interval", args: []string{"-p", "0"}},
		{name: "bad env interval", env: map[string]string{"POLL_INTERVAL": "often"}},
		{name: "missing config file", args: []string{"-c", filepath.Join(t.TempDir(), "absent.yaml")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := NewAgentConfig(tt.args)
			assert.Error(t, err)
		})
	}
}

func TestNewAgentConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent.yaml")
	content := `
max_memory_bandwidth:
  0: 20000000000
  1: 18000000000
l3_by_node:
  0: [0, 2]
  1: [1, 3]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := NewAgentConfig([]string{"-c", path})
	require.NoError(t, err)

	assert.Equal(t, map[int]float64{0: 20e9, 1: 18e9}, cfg.MaxMemoryBandwidth)
	assert.Equal(t, map[int][]int{0: {0, 2}, 1: {1, 3}}, cfg.L3ByNode)
}

func TestNewAgentConfig_FileBadNode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_memory_bandwidth:\n  first: 100\n"), 0o600))

	_, err := NewAgentConfig([]string{"-c", path})
	assert.ErrorContains(t, err, "invalid NUMA node")
}
