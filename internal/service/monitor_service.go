// Package service provides the collection layer that owns the monitors.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	internalerrors "github.com/Schera-ole/monitors/internal/errors"
	models "github.com/Schera-ole/monitors/internal/model"
	"github.com/Schera-ole/monitors/internal/monitor"
	"github.com/Schera-ole/monitors/internal/repository"
)

// loadedMonitor serializes invocations of one monitor instance.
type loadedMonitor struct {
	mu      sync.Mutex
	monitor monitor.Monitor
	names   models.MetricNameSet
}

func (l *loadedMonitor) populate(list *models.MetricList) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return monitor.AddMetricsToList(l.monitor, list)
}

// MonitorService loads monitors, collects their metrics and keeps the latest
// collection in a repository.
type MonitorService struct {
	// monitors are the loaded monitors in load order
	monitors []*loadedMonitor

	// repository receives every collection
	repository repository.Repository

	logger *zap.SugaredLogger
	clock  clock.Clock
}

// Option configures a MonitorService.
type Option func(*MonitorService)

// WithClock sets the clock driving Run.
func WithClock(c clock.Clock) Option {
	return func(s *MonitorService) {
		s.clock = c
	}
}

// NewMonitorService loads monitors in order. A monitor with an invalid name
// set, or whose names overlap an already loaded monitor, is excluded and its
// metrics are removed from repo.
func NewMonitorService(
	monitors []monitor.Monitor,
	repo repository.Repository,
	logger *zap.SugaredLogger,
	opts ...Option,
) *MonitorService {

	s := &MonitorService{
		repository: repo,
		logger:     logger,
		clock:      clock.New(),
	}
	for _, opt := range opts {
		opt(s)
	}

	loaded := make(models.MetricNameSet)
	loadedMonitors := make(map[string]struct{})
	var excluded []string
	for _, m := range monitors {
		names := m.MetricNames()
		if err := checkNames(names, loaded); err != nil {
			logger.Warnw("excluding monitor", "monitor", m.Name(), "error", err)
			excluded = append(excluded, m.Name())
			continue
		}
		for name := range names {
			loaded[name] = struct{}{}
		}
		loadedMonitors[m.Name()] = struct{}{}
		s.monitors = append(s.monitors, &loadedMonitor{monitor: m, names: names})
		logger.Infow("loaded monitor", "monitor", m.Name(), "metrics", names.Sorted())
	}

	for _, name := range excluded {
		if _, ok := loadedMonitors[name]; ok {
			continue
		}
		if err := repo.DeleteMonitor(context.Background(), name); err != nil {
			logger.Warnw("cannot drop metrics of excluded monitor", "monitor", name, "error", err)
		}
	}
	return s
}

func checkNames(names, loaded models.MetricNameSet) error {
	if err := monitor.ValidateMetricNames(names); err != nil {
		return err
	}
	if overlap := names.Intersect(loaded); len(overlap) > 0 {
		return fmt.Errorf("%w: %v", internalerrors.ErrMetricConflict, overlap.Sorted())
	}
	return nil
}

// Monitors returns the declared metric names of every loaded monitor.
func (s *MonitorService) Monitors() map[string][]models.MetricName {

	result := make(map[string][]models.MetricName, len(s.monitors))
	for _, l := range s.monitors {
		result[l.monitor.Name()] = l.names.Sorted()
	}
	return result
}

// MetricNames returns the union of the loaded monitors' names.
func (s *MonitorService) MetricNames() models.MetricNameSet {

	result := make(models.MetricNameSet)
	for _, l := range s.monitors {
		for name := range l.names {
			result[name] = struct{}{}
		}
	}
	return result
}

// Collect runs every monitor once and stores what each produced. Monitors
// run in parallel; a failing monitor does not stop the others. The returned
// error combines the failures of all monitors.
func (s *MonitorService) Collect(ctx context.Context) error {

	if err := ctx.Err(); err != nil {
		return err
	}

	var (
		mu   sync.Mutex
		errs error
		g    errgroup.Group
	)
	for _, l := range s.monitors {
		g.Go(func() error {
			name := l.monitor.Name()
			list := &models.MetricList{}
			err := l.populate(list)
			if err != nil {
				s.logger.Warnw("cannot get the metrics", "monitor", name, "error", err)
			}
			if storeErr := s.repository.SetMetrics(ctx, name, list.Objects); storeErr != nil {
				err = multierr.Append(err, fmt.Errorf("store metrics: %w", storeErr))
			}
			if err != nil {
				mu.Lock()
				errs = multierr.Append(errs, fmt.Errorf("monitor %s: %w", name, err))
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return errs
}

// Run collects immediately and then on every interval until ctx is done.
func (s *MonitorService) Run(ctx context.Context, interval time.Duration) {

	ticker := s.clock.Ticker(interval)
	defer ticker.Stop()

	for {
		if err := s.Collect(ctx); err != nil {
			s.logger.Debugw("collection finished with errors", "error", err)
		}
		select {
		case <-ctx.Done():
			s.logger.Info("stopping metric collection")
			return
		case <-ticker.C:
		}
	}
}
