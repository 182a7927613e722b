// Package monitor defines the contract every resource monitor satisfies and
// the capability sets concrete monitors build on.
//
// A monitor declares the metric names it can produce and fills in a single
// metric on request. AddMetricsToList drives name iteration for any monitor,
// so callers can aggregate many monitors without knowing their resource type.
package monitor

import (
	"fmt"

	internalerrors "github.com/Schera-ole/monitors/internal/errors"
	models "github.com/Schera-ole/monitors/internal/model"
)

// Monitor is implemented by every metric source.
//
// Implementations are not safe for concurrent use; callers serialize
// invocations on the same instance.
type Monitor interface {
	// Name is the monitor type name used in logs and errors.
	Name() string

	// MetricNames returns the names this monitor produces. The set is stable
	// for the lifetime of the instance.
	MetricNames() models.MetricNameSet

	// PopulateMetric fills metric for the requested name. The name must be a
	// member of MetricNames. The monitor keeps no reference to metric.
	PopulateMetric(name models.MetricName, metric *models.Metric) error
}

// AddMetricsToList populates one fresh metric per declared name and appends
// it to list. A failing name aborts the call: nothing is appended for it,
// metrics appended for earlier names stay in the list.
func AddMetricsToList(m Monitor, list *models.MetricList) error {
	for _, name := range m.MetricNames().Sorted() {
		metric := models.Metric{Name: name}
		if err := m.PopulateMetric(name, &metric); err != nil {
			return err
		}
		list.Append(metric)
	}
	return nil
}

// ValidateMetricNames checks that a declared set is non-empty and drawn from
// the metric catalog.
func ValidateMetricNames(names models.MetricNameSet) error {
	if len(names) == 0 {
		return fmt.Errorf("%w: empty set", internalerrors.ErrInvalidNames)
	}
	for _, name := range names.Sorted() {
		if !name.Valid() {
			return fmt.Errorf("%w: %q is not in the catalog", internalerrors.ErrInvalidNames, name)
		}
	}
	return nil
}

// CPUMonitorBase is embedded by monitors returning CPU-related metrics.
type CPUMonitorBase struct{}

// MetricNames returns the CPU capability set.
func (CPUMonitorBase) MetricNames() models.MetricNameSet {
	return models.NewMetricNameSet(
		models.CPUFrequency,
		models.CPUUserTime,
		models.CPUKernelTime,
		models.CPUIdleTime,
		models.CPUIOWaitTime,
		models.CPUUserPercent,
		models.CPUKernelPercent,
		models.CPUIdlePercent,
		models.CPUIOWaitPercent,
		models.CPUPercent,
	)
}

// MemoryBandwidthMonitorBase is embedded by monitors returning memory
// bandwidth metrics.
type MemoryBandwidthMonitorBase struct{}

// MetricNames returns the memory bandwidth capability set.
func (MemoryBandwidthMonitorBase) MetricNames() models.MetricNameSet {
	return models.NewMetricNameSet(
		models.NUMAMemBWCurrent,
		models.NUMAMemBWMax,
	)
}
