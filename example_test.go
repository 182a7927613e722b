package monitors_test

import (
	"fmt"
	"time"

	"github.com/benbjohnson/clock"

	models "github.com/Schera-ole/monitors/internal/model"
	"github.com/Schera-ole/monitors/internal/monitor"
	"github.com/Schera-ole/monitors/internal/monitor/membw"
)

// counterDriver replays cumulative byte counters, one sample per call.
type counterDriver struct {
	samples []map[int]float64
}

func (d *counterDriver) MaxMemoryBandwidth() (map[int]float64, error) {
	return map[int]float64{0: 100, 1: 100}, nil
}

func (d *counterDriver) CurrentMemoryBandwidth(carrier *models.Metric) error {
	carrier.NUMAValues, d.samples = d.samples[0], d.samples[1:]
	return nil
}

// Example of how a memory bandwidth monitor turns counters into rates
func Example_memoryBandwidthMonitor() {
	mock := clock.NewMock()
	driver := &counterDriver{samples: []map[int]float64{
		{0: 1000, 1: 2000},
		{0: 1400, 1: 2300},
	}}

	m, err := membw.New(driver, "resctrl", membw.WithClock(mock))
	if err != nil {
		fmt.Printf("Error creating monitor: %v\n", err)
		return
	}

	// The first sample only primes the counters
	list := &models.MetricList{}
	if err := monitor.AddMetricsToList(m, list); err != nil {
		fmt.Printf("Error collecting metrics: %v\n", err)
		return
	}

	mock.Add(2 * time.Second)
	list = &models.MetricList{}
	if err := monitor.AddMetricsToList(m, list); err != nil {
		fmt.Printf("Error collecting metrics: %v\n", err)
		return
	}

	for _, metric := range list.Objects {
		fmt.Printf("%s: node0=%v node1=%v\n", metric.Name, metric.NUMAValues[0], metric.NUMAValues[1])
	}
	// Output:
	// numa.membw.current: node0=200 node1=150
	// numa.membw.max: node0=100 node1=100
}
