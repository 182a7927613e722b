// Package models defines the data structures used throughout the monitors system.
package models

import (
	"sort"
	"time"
)

// MetricName identifies a metric a monitor can produce.
type MetricName string

// Metric catalog. The set is closed; monitors may only declare names from it.
const (
	CPUFrequency     MetricName = "cpu.frequency"
	CPUUserTime      MetricName = "cpu.user.time"
	CPUKernelTime    MetricName = "cpu.kernel.time"
	CPUIdleTime      MetricName = "cpu.idle.time"
	CPUIOWaitTime    MetricName = "cpu.iowait.time"
	CPUUserPercent   MetricName = "cpu.user.percent"
	CPUKernelPercent MetricName = "cpu.kernel.percent"
	CPUIdlePercent   MetricName = "cpu.idle.percent"
	CPUIOWaitPercent MetricName = "cpu.iowait.percent"
	CPUPercent       MetricName = "cpu.percent"
	NUMAMemBWCurrent MetricName = "numa.membw.current"
	NUMAMemBWMax     MetricName = "numa.membw.max"
)

// AllMetricNames lists every name of the catalog.
var AllMetricNames = []MetricName{
	CPUFrequency,
	CPUUserTime,
	CPUKernelTime,
	CPUIdleTime,
	CPUIOWaitTime,
	CPUUserPercent,
	CPUKernelPercent,
	CPUIdlePercent,
	CPUIOWaitPercent,
	CPUPercent,
	NUMAMemBWCurrent,
	NUMAMemBWMax,
}

var catalog = NewMetricNameSet(AllMetricNames...)

// Valid reports whether the name belongs to the catalog.
func (n MetricName) Valid() bool {
	_, ok := catalog[n]
	return ok
}

// MetricNameSet is a set of metric names.
type MetricNameSet map[MetricName]struct{}

// NewMetricNameSet builds a set from the given names. Duplicates collapse.
func NewMetricNameSet(names ...MetricName) MetricNameSet {
	set := make(MetricNameSet, len(names))
	for _, name := range names {
		set[name] = struct{}{}
	}
	return set
}

// Has reports whether the set contains name.
func (s MetricNameSet) Has(name MetricName) bool {
	_, ok := s[name]
	return ok
}

// Sorted returns the members in lexical order.
func (s MetricNameSet) Sorted() []MetricName {
	names := make([]MetricName, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// Intersect returns the names present in both sets.
func (s MetricNameSet) Intersect(other MetricNameSet) MetricNameSet {
	result := make(MetricNameSet)
	for name := range s {
		if other.Has(name) {
			result[name] = struct{}{}
		}
	}
	return result
}

// Metric represents a single named, timestamped measurement.
type Metric struct {
	// Name is one of the catalog names
	Name MetricName

	// Value holds scalar measurements (CPU metrics)
	Value float64

	// NUMAValues holds per-node measurements keyed by NUMA node id
	NUMAValues map[int]float64

	// Timestamp is the moment the underlying sample was taken
	Timestamp time.Time

	// Source identifies the driver that produced the measurement
	Source string
}

// MetricList is the caller-owned collection monitors append to.
type MetricList struct {
	Objects []Metric
}

// Append adds metrics to the list.
func (l *MetricList) Append(metrics ...Metric) {
	l.Objects = append(l.Objects, metrics...)
}

// Len returns the number of metrics in the list.
func (l *MetricList) Len() int {
	return len(l.Objects)
}

// MetricsDTO represents a metric data transfer object for API responses.
type MetricsDTO struct {
	// ID is the metric name
	ID string `json:"id"`

	// Monitor is the name of the monitor that produced the metric
	Monitor string `json:"monitor"`

	// Value is set for scalar metrics
	Value *float64 `json:"value,omitempty"`

	// NUMAValues is set for per-node metrics, keyed by node id. An empty
	// map means no node had data for the interval and is encoded as {}.
	NUMAValues map[int]float64 `json:"numa_values,omitzero"`

	// Timestamp is the sample time in RFC 3339 format
	Timestamp string `json:"timestamp"`

	// Source is the driver identity
	Source string `json:"source"`
}

// NewMetricsDTO converts a metric produced by the named monitor.
func NewMetricsDTO(monitor string, m Metric) MetricsDTO {
	dto := MetricsDTO{
		ID:        string(m.Name),
		Monitor:   monitor,
		Timestamp: m.Timestamp.UTC().Format(time.RFC3339Nano),
		Source:    m.Source,
	}
	if m.NUMAValues != nil {
		dto.NUMAValues = m.NUMAValues
	} else {
		value := m.Value
		dto.Value = &value
	}
	return dto
}
