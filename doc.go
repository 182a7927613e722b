// Package monitors implements a resource monitoring agent for compute hosts.
//
// Monitors report a fixed set of named metrics from the metric catalog:
//   - CPUMonitor: host CPU frequency, cumulative times and utilisation percentages
//   - MemoryBandwidthMonitor: per NUMA node memory bandwidth, current and maximum
//
// Monitors read raw counters through drivers (resctrl mon_data files, gopsutil)
// and derive rates themselves. A monitor refreshes at most once per second;
// calls in between return the cached sample.
//
// The agent loads the configured monitors, rejects those whose metric names
// conflict with an already loaded monitor, and collects all of them on every
// poll interval. The latest collection is served over HTTP:
//   - /snapshot and /snapshot/{name} as JSON
//   - /monitors with the loaded monitors and their metric names
//   - /metrics in the Prometheus exposition format
//
// Configuration is read from command-line flags, environment variables and an
// optional YAML file with the per-node bandwidth ceilings.
package monitors
