package repository

import (
	"context"
	"sort"
	"sync"

	internalerrors "github.com/Schera-ole/monitors/internal/errors"
	models "github.com/Schera-ole/monitors/internal/model"
)

// MemStorage implements the Repository interface using in-memory storage.
type MemStorage struct {
	// mu provides thread-safe access to the storage maps
	mu sync.RWMutex

	// byMonitor stores the latest metrics of each monitor keyed by name
	byMonitor map[string]map[models.MetricName]models.Metric

	// owners maps a metric name to the monitor that last reported it
	owners map[models.MetricName]string
}

var _ Repository = (*MemStorage)(nil)

// NewMemStorage creates a new in-memory storage instance.
func NewMemStorage() *MemStorage {

	return &MemStorage{
		byMonitor: make(map[string]map[models.MetricName]models.Metric),
		owners:    make(map[models.MetricName]string),
	}
}

// SetMetrics stores the metrics reported by monitor.
//
// Metrics the monitor reported earlier but not in this batch are dropped, so
// the storage always reflects the monitor's last collection.
func (ms *MemStorage) SetMetrics(ctx context.Context, monitor string, metrics []models.Metric) error {

	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.dropLocked(monitor)

	stored := make(map[models.MetricName]models.Metric, len(metrics))
	for _, metric := range metrics {
		metric.NUMAValues = copyValues(metric.NUMAValues)
		stored[metric.Name] = metric
		ms.owners[metric.Name] = monitor
	}
	ms.byMonitor[monitor] = stored
	return nil
}

// GetMetric retrieves the latest metric with the given name.
func (ms *MemStorage) GetMetric(ctx context.Context, name models.MetricName) (StoredMetric, error) {

	ms.mu.RLock()
	defer ms.mu.RUnlock()
	monitor, exists := ms.owners[name]
	if !exists {
		return StoredMetric{}, internalerrors.ErrMetricNotFound
	}
	metric := ms.byMonitor[monitor][name]
	metric.NUMAValues = copyValues(metric.NUMAValues)
	return StoredMetric{Monitor: monitor, Metric: metric}, nil
}

// ListMetrics returns all metrics stored in memory.
func (ms *MemStorage) ListMetrics(ctx context.Context) ([]StoredMetric, error) {

	ms.mu.RLock()
	defer ms.mu.RUnlock()
	var result []StoredMetric
	for monitor, metrics := range ms.byMonitor {
		for _, metric := range metrics {
			metric.NUMAValues = copyValues(metric.NUMAValues)
			result = append(result, StoredMetric{Monitor: monitor, Metric: metric})
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Monitor != result[j].Monitor {
			return result[i].Monitor < result[j].Monitor
		}
		return result[i].Metric.Name < result[j].Metric.Name
	})
	return result, nil
}

// DeleteMonitor removes every metric of monitor.
func (ms *MemStorage) DeleteMonitor(ctx context.Context, monitor string) error {

	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.dropLocked(monitor)
	return nil
}

func (ms *MemStorage) dropLocked(monitor string) {
	for name := range ms.byMonitor[monitor] {
		if ms.owners[name] == monitor {
			delete(ms.owners, name)
		}
	}
	delete(ms.byMonitor, monitor)
}

// Close releases any resources held by the memory storage.
func (ms *MemStorage) Close() error {

	return nil
}

// Ping checks the health of the memory storage.
//
// For MemStorage, this always returns nil since there are no external dependencies.
func (ms *MemStorage) Ping(ctx context.Context) error {
	return nil
}

func copyValues(values map[int]float64) map[int]float64 {
	if values == nil {
		return nil
	}
	result := make(map[int]float64, len(values))
	for node, v := range values {
		result[node] = v
	}
	return result
}
