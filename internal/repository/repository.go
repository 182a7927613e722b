// Package repository keeps the latest collected metrics of every monitor.
package repository

import (
	"context"

	models "github.com/Schera-ole/monitors/internal/model"
)

// StoredMetric is a metric together with the monitor that produced it.
type StoredMetric struct {
	Monitor string
	Metric  models.Metric
}

// Repository stores the most recent metrics per monitor.
type Repository interface {
	// SetMetrics replaces every metric previously stored for monitor.
	SetMetrics(ctx context.Context, monitor string, metrics []models.Metric) error

	// GetMetric returns the latest metric with the given name.
	GetMetric(ctx context.Context, name models.MetricName) (StoredMetric, error)

	// ListMetrics returns all stored metrics ordered by monitor and name.
	ListMetrics(ctx context.Context) ([]StoredMetric, error)

	// DeleteMonitor drops every metric of monitor.
	DeleteMonitor(ctx context.Context, monitor string) error

	Ping(ctx context.Context) error
	Close() error
}
