// Package exporter exposes the latest collected metrics to Prometheus.
package exporter

import (
	"context"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	models "github.com/Schera-ole/monitors/internal/model"
	"github.com/Schera-ole/monitors/internal/repository"
)

const namespace = "resmon"

// Exporter implements prometheus.Collector over a repository. Every scalar
// metric becomes one gauge, every per-node metric one gauge per node.
type Exporter struct {
	repository repository.Repository
	logger     *zap.SugaredLogger
	descs      map[models.MetricName]*prometheus.Desc
}

var _ prometheus.Collector = (*Exporter)(nil)

// New creates an exporter reading from repo.
func New(repo repository.Repository, logger *zap.SugaredLogger) *Exporter {
	descs := make(map[models.MetricName]*prometheus.Desc, len(models.AllMetricNames))
	for _, name := range models.AllMetricNames {
		labels := []string{"monitor", "source"}
		if isPerNode(name) {
			labels = append(labels, "node")
		}
		descs[name] = prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", metricName(name)),
			"Resource monitor metric "+string(name)+".",
			labels,
			nil,
		)
	}
	return &Exporter{repository: repo, logger: logger, descs: descs}
}

// Describe sends the descriptors of every catalog metric.
func (e *Exporter) Describe(ch chan<- *prometheus.Desc) {
	for _, name := range models.AllMetricNames {
		ch <- e.descs[name]
	}
}

// Collect sends the latest value of every stored metric.
func (e *Exporter) Collect(ch chan<- prometheus.Metric) {
	stored, err := e.repository.ListMetrics(context.Background())
	if err != nil {
		e.logger.Errorw("cannot list metrics for export", "error", err)
		return
	}

	for _, s := range stored {
		desc, ok := e.descs[s.Metric.Name]
		if !ok {
			continue
		}
		if !isPerNode(s.Metric.Name) {
			ch <- prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, s.Metric.Value, s.Monitor, s.Metric.Source)
			continue
		}
		for node, v := range s.Metric.NUMAValues {
			ch <- prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, v, s.Monitor, s.Metric.Source, strconv.Itoa(node))
		}
	}
}

func isPerNode(name models.MetricName) bool {
	return strings.HasPrefix(string(name), "numa.")
}

// metricName turns cpu.user.percent into cpu_user_percent.
func metricName(name models.MetricName) string {
	return strings.ReplaceAll(string(name), ".", "_")
}
