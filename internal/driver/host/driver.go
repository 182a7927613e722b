// Package host reads host CPU statistics through gopsutil.
package host

import (
	"fmt"

	"github.com/shirou/gopsutil/v4/cpu"

	internalerrors "github.com/Schera-ole/monitors/internal/errors"
	cpumonitor "github.com/Schera-ole/monitors/internal/monitor/cpu"
)

// Driver implements cpumonitor.StatsDriver.
type Driver struct {
	times func(percpu bool) ([]cpu.TimesStat, error)
	info  func() ([]cpu.InfoStat, error)
}

// New returns a driver reading the local host.
func New() *Driver {
	return &Driver{
		times: cpu.Times,
		info:  cpu.Info,
	}
}

// HostCPUStats returns aggregated CPU times across all CPUs and the
// frequency of the first CPU.
func (d *Driver) HostCPUStats() (cpumonitor.Stats, error) {
	times, err := d.times(false)
	if err != nil {
		return cpumonitor.Stats{}, fmt.Errorf("error getting cpu times: %w", err)
	}
	if len(times) == 0 {
		return cpumonitor.Stats{}, fmt.Errorf("error getting cpu times: %w", internalerrors.ErrMissingData)
	}

	infos, err := d.info()
	if err != nil {
		return cpumonitor.Stats{}, fmt.Errorf("error getting cpu info: %w", err)
	}
	var frequency float64
	if len(infos) > 0 {
		frequency = infos[0].Mhz
	}

	t := times[0]
	return cpumonitor.Stats{
		Frequency: frequency,
		User:      t.User + t.Nice,
		Kernel:    t.System + t.Irq + t.Softirq,
		Idle:      t.Idle,
		IOWait:    t.Iowait,
	}, nil
}
