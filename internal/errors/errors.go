package errors

import (
	"errors"
	"fmt"
)

var (
	// Monitor errors
	ErrResourceMonitor = errors.New("resource monitor error")
	ErrNotImplemented  = errors.New("not implemented by driver")
	ErrUnknownMetric   = errors.New("unknown metric name")
	ErrMissingData     = errors.New("driver returned no data")

	// Service errors
	ErrMetricConflict = errors.New("metric names conflict with a loaded monitor")
	ErrInvalidNames   = errors.New("invalid metric names")

	// Storage errors
	ErrMetricNotFound = errors.New("metric not found")
)

// ResourceMonitorError is returned by monitors when sampling or computing a
// metric fails. The driver-level cause is logged by the monitor and is not
// carried by the error.
type ResourceMonitorError struct {
	Monitor string
}

func (e *ResourceMonitorError) Error() string {
	return fmt.Sprintf("resource monitor %s encountered an error", e.Monitor)
}

// Is makes errors.Is(err, ErrResourceMonitor) hold for every monitor.
func (e *ResourceMonitorError) Is(target error) bool {
	return target == ErrResourceMonitor
}

// NewResourceMonitorError returns the error for the named monitor.
func NewResourceMonitorError(monitor string) error {
	return &ResourceMonitorError{Monitor: monitor}
}
