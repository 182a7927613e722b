// Package membw implements a memory bandwidth monitor that turns the
// cumulative per-NUMA-node bandwidth counter of a driver into a per-second
// rate.
package membw

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
const MonitorName = "MemoryBandwidthMonitor"

// minRefreshInterval is the shortest time between two driver reads; the
// counter has no meaningful resolution below it.
const minRefreshInterval = time.Second

// Driver supplies the raw memory bandwidth data.
type Driver interface {
	// MaxMemoryBandwidth returns the static per-node ceiling.
	MaxMemoryBandwidth() (map[int]float64, error)

	// CurrentMemoryBandwidth fills carrier.NUMAValues with the cumulative
	// per-node counter.
	CurrentMemoryBandwidth(carrier *models.Metric) error
}

// sampleCache keeps the last successful sample. A zero timestamp means no
// sample has been taken yet.
type sampleCache struct {
	timestamp time.Time
	prevCount map[int]float64
	current   map[int]float64
}

// MemoryBandwidthMonitor produces numa.membw.current and numa.membw.max.
type MemoryBandwidthMonitor struct {
	monitor.MemoryBandwidthMonitorBase

	driver Driver
	source string
	maxBW  map[int]float64
	clock  clock.Clock
	logger *zap.SugaredLogger
	cache  sampleCache
}

var _ monitor.Monitor = (*MemoryBandwidthMonitor)(nil)

// Option configures a MemoryBandwidthMonitor.
type Option func(*MemoryBandwidthMonitor)

// WithClock sets the clock used to timestamp samples.
func WithClock(c clock.Clock) Option {
	return func(m *MemoryBandwidthMonitor) {
		m.clock = c
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(m *MemoryBandwidthMonitor) {
		m.logger = logger
	}
}

// New binds a monitor to driver. source identifies the active driver and is
// reported on every metric. The maximum bandwidth is read once here; a
// driver that cannot supply it fails construction.
func New(driver Driver, source string, opts ...Option) (*MemoryBandwidthMonitor, error) {
	m := &MemoryBandwidthMonitor{
		driver: driver,
		source: source,
		clock:  clock.New(),
		logger: zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(m)
	}

	maxBW, err := driver.MaxMemoryBandwidth()
	if err != nil {
		return nil, fmt.Errorf("get max memory bandwidth: %w", err)
	}
	m.maxBW = copyValues(maxBW)
	return m, nil
}

// Name returns the monitor type name.
func (m *MemoryBandwidthMonitor) Name() string {
	return MonitorName
}

// PopulateMetric refreshes the sample if due and fills metric from it. On
// error metric is left untouched.
func (m *MemoryBandwidthMonitor) PopulateMetric(name models.MetricName, metric *models.Metric) error {
	if !m.MetricNames().Has(name) {
		return m.fail(fmt.Errorf("%w: %s", internalerrors.ErrUnknownMetric, name))
	}

	if err := m.refreshIfDue(); err != nil {
		return m.fail(err)
	}

	values := m.cache.current
	if name == models.NUMAMemBWMax {
		values = m.maxBW
	}
	metric.NUMAValues = copyValues(values)
	metric.Timestamp = m.cache.timestamp
	metric.Source = m.source
	return nil
}

func (m *MemoryBandwidthMonitor) refreshIfDue() error {
	now := m.clock.Now()
	var elapsed float64
	if !m.cache.timestamp.IsZero() {
		since := now.Sub(m.cache.timestamp)
		if since < minRefreshInterval {
			return nil
		}
		elapsed = since.Seconds()
	}

	carrier := models.Metric{Name: models.NUMAMemBWCurrent}
	if err := m.driver.CurrentMemoryBandwidth(&carrier); err != nil {
		return fmt.Errorf("read current memory bandwidth: %w", err)
	}
	if carrier.NUMAValues == nil {
		return fmt.Errorf("read current memory bandwidth: %w", internalerrors.ErrMissingData)
	}

	m.cache = sampleCache{
		timestamp: now,
		prevCount: copyValues(carrier.NUMAValues),
		current:   calcRates(carrier.NUMAValues, m.cache.prevCount, elapsed),
	}
	return nil
}

// calcRates returns the per-second rate of every node whose counter moved
// forward. Nodes with a non-positive delta (reset, wraparound, idle) have no
// data for the interval and are omitted. No rate exists before the second
// sample.
func calcRates(curr, prev map[int]float64, elapsed float64) map[int]float64 {
	rates := make(map[int]float64)
	if elapsed <= 0 {
		return rates
	}
	for node, count := range curr {
		delta := count - prev[node]
		if delta > 0 {
			rates[node] = delta / elapsed
		}
	}
	return rates
}

func (m *MemoryBandwidthMonitor) fail(err error) error {
	m.logger.Errorw("not all properties needed are implemented in the driver",
		"monitor", MonitorName,
		"source", m.source,
		"error", err,
	)
	return internalerrors.NewResourceMonitorError(MonitorName)
}

func copyValues(values map[int]float64) map[int]float64 {
	result := make(map[int]float64, len(values))
	for node, v := range values {
		result[node] = v
	}
	return result
}
