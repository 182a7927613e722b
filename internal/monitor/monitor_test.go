package monitor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internalerrors "github.com/Schera-ole/monitors/internal/errors"
	models "github.com/Schera-ole/monitors/internal/model"
)

type fakeMonitor struct {
	CPUMonitorBase
	failOn    models.MetricName
	populated []models.MetricName
}

func (f *fakeMonitor) Name() string { return "fakeMonitor" }

func (f *fakeMonitor) PopulateMetric(name models.MetricName, metric *models.Metric) error {
	if name == f.failOn {
		return internalerrors.NewResourceMonitorError(f.Name())
	}
	f.populated = append(f.populated, name)
	metric.Value = float64(len(f.populated))
	metric.Source = "fake"
	return nil
}

func TestCapabilitySets(t *testing.T) {
	tests := []struct {
		name  string
		names models.MetricNameSet
		want  int
	}{
		{name: "cpu", names: CPUMonitorBase{}.MetricNames(), want: 10},
		{name: "memory bandwidth", names: MemoryBandwidthMonitorBase{}.MetricNames(), want: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, tt.names, tt.want)
			require.NoError(t, ValidateMetricNames(tt.names))
		})
	}

	cpuNames := CPUMonitorBase{}.MetricNames()
	membwNames := MemoryBandwidthMonitorBase{}.MetricNames()
	assert.Empty(t, cpuNames.Intersect(membwNames))
	assert.Len(t, cpuNames, len(models.AllMetricNames)-len(membwNames))
}

func TestValidateMetricNames(t *testing.T) {
	err := ValidateMetricNames(models.NewMetricNameSet())
	assert.ErrorIs(t, err, internalerrors.ErrInvalidNames)

	err = ValidateMetricNames(models.NewMetricNameSet(models.CPUPercent, "disk.usage"))
	assert.ErrorIs(t, err, internalerrors.ErrInvalidNames)
	assert.Contains(t, err.Error(), "disk.usage")
}

func TestAddMetricsToList(t *testing.T) {
	m := &fakeMonitor{}
	list := &models.MetricList{}

	err := AddMetricsToList(m, list)
	require.NoError(t, err)
	require.Equal(t, len(m.MetricNames()), list.Len())

	seen := make(models.MetricNameSet)
	for _, metric := range list.Objects {
		assert.True(t, m.MetricNames().Has(metric.Name))
		assert.False(t, seen.Has(metric.Name), "duplicate metric %s", metric.Name)
		seen[metric.Name] = struct{}{}
		assert.Equal(t, "fake", metric.Source)
	}
}

func TestAddMetricsToList_PartialFailure(t *testing.T) {
	// Sorted order puts cpu.frequency first and cpu.idle.percent second.
	m := &fakeMonitor{failOn: models.CPUIdlePercent}
	list := &models.MetricList{Objects: []models.Metric{{Name: models.NUMAMemBWMax}}}

	err := AddMetricsToList(m, list)
	require.Error(t, err)

	var rmErr *internalerrors.ResourceMonitorError
	require.True(t, errors.As(err, &rmErr))
	assert.Equal(t, "fakeMonitor", rmErr.Monitor)

	require.Equal(t, 2, list.Len())
	assert.Equal(t, models.NUMAMemBWMax, list.Objects[0].Name)
	assert.Equal(t, models.CPUFrequency, list.Objects[1].Name)
	for _, metric := range list.Objects {
		assert.NotEqual(t, models.CPUIdlePercent, metric.Name)
	}
}
