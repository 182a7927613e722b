// Package cpu implements a CPU monitor over host CPU time counters.
package cpu

import (
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	internalerrors "github.com/Schera-ole/monitors/internal/errors"
	models "github.com/Schera-ole/monitors/internal/model"
	"github.com/Schera-ole/monitors/internal/monitor"
)

// MonitorName is the type name reported in logs and errors.
const MonitorName = "CPUMonitor"

const minRefreshInterval = time.Second

// Stats is one reading of the host CPU counters. Times are cumulative
// seconds, Frequency is in MHz.
type Stats struct {
	Frequency float64
	User      float64
	Kernel    float64
	Idle      float64
	IOWait    float64
}

func (s Stats) total() float64 {
	return s.User + s.Kernel + s.Idle + s.IOWait
}

// StatsDriver supplies host CPU statistics.
type StatsDriver interface {
	HostCPUStats() (Stats, error)
}

// CPUMonitor produces the CPU capability set.
type CPUMonitor struct {
	monitor.CPUMonitorBase

	driver    StatsDriver
	source    string
	clock     clock.Clock
	logger    *zap.SugaredLogger
	timestamp time.Time
	prev      *Stats
	data      map[models.MetricName]float64
}

var _ monitor.Monitor = (*CPUMonitor)(nil)

// Option configures a CPUMonitor.
type Option func(*CPUMonitor)

// WithClock sets the clock used to timestamp samples.
func WithClock(c clock.Clock) Option {
	return func(m *CPUMonitor) {
		m.clock = c
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(m *CPUMonitor) {
		m.logger = logger
	}
}

// New binds a CPU monitor to driver.
func New(driver StatsDriver, source string, opts ...Option) *CPUMonitor {
	m := &CPUMonitor{
		driver: driver,
		source: source,
		clock:  clock.New(),
		logger: zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Name returns the monitor type name.
func (m *CPUMonitor) Name() string {
	return MonitorName
}

// PopulateMetric refreshes the sample if due and sets metric.Value.
func (m *CPUMonitor) PopulateMetric(name models.MetricName, metric *models.Metric) error {
	if !m.MetricNames().Has(name) {
		return m.fail(fmt.Errorf("%w: %s", internalerrors.ErrUnknownMetric, name))
	}
	if err := m.refreshIfDue(); err != nil {
		return m.fail(err)
	}

	metric.Value = m.data[name]
	metric.Timestamp = m.timestamp
	metric.Source = m.source
	return nil
}

func (m *CPUMonitor) refreshIfDue() error {
	now := m.clock.Now()
	if !m.timestamp.IsZero() && now.Sub(m.timestamp) < minRefreshInterval {
		return nil
	}

	stats, err := m.driver.HostCPUStats()
	if err != nil {
		return fmt.Errorf("read host cpu stats: %w", err)
	}

	data := map[models.MetricName]float64{
		models.CPUFrequency:  stats.Frequency,
		models.CPUUserTime:   stats.User,
		models.CPUKernelTime: stats.Kernel,
		models.CPUIdleTime:   stats.Idle,
		models.CPUIOWaitTime: stats.IOWait,
	}
	for name, v := range calcPercents(stats, m.prev) {
		data[name] = v
	}

	m.data = data
	m.prev = &stats
	m.timestamp = now
	return nil
}

// calcPercents derives utilization from the delta against the previous
// reading. Without a previous reading, or when the counters did not advance,
// every percentage is zero.
func calcPercents(curr Stats, prev *Stats) map[models.MetricName]float64 {
	result := map[models.MetricName]float64{
		models.CPUUserPercent:   0,
		models.CPUKernelPercent: 0,
		models.CPUIdlePercent:   0,
		models.CPUIOWaitPercent: 0,
		models.CPUPercent:       0,
	}
	if prev == nil {
		return result
	}
	total := curr.total() - prev.total()
	if total <= 0 {
		return result
	}

	idle := curr.Idle - prev.Idle
	result[models.CPUUserPercent] = (curr.User - prev.User) / total * 100
	result[models.CPUKernelPercent] = (curr.Kernel - prev.Kernel) / total * 100
	result[models.CPUIdlePercent] = idle / total * 100
	result[models.CPUIOWaitPercent] = (curr.IOWait - prev.IOWait) / total * 100
	result[models.CPUPercent] = (total - idle) / total * 100
	return result
}

func (m *CPUMonitor) fail(err error) error {
	m.logger.Errorw("cannot get cpu stats from the driver",
		"monitor", MonitorName,
		"source", m.source,
		"error", err,
	)
	return internalerrors.NewResourceMonitorError(MonitorName)
}
