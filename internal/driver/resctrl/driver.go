// Package resctrl reads memory bandwidth counters from the Linux resctrl
// filesystem.
package resctrl

import (
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/afero"

	internalerrors "github.com/Schera-ole/monitors/internal/errors"
	models "github.com/Schera-ole/monitors/internal/model"
)

const (
	// DriverName is the default compute driver reported as metric source.
	DriverName = "resctrl"

	// DefaultRoot is where resctrl is usually mounted.
	DefaultRoot = "/sys/fs/resctrl"

	// MBRawFile holds the cumulative byte count of one L3 domain.
	MBRawFile = "mbm_total_bytes"

	unavailable = "Unavailable"
)

// Config describes the resctrl layout of the host.
type Config struct {
	// Root is the resctrl mount point or monitor group directory.
	Root string

	// L3ByNode maps a NUMA node to its L3 cache domains.
	L3ByNode map[int][]int

	// MaxBandwidth is the per-node ceiling in bytes per second.
	MaxBandwidth map[int]float64
}

// Driver implements membw.Driver over resctrl mon_data files.
type Driver struct {
	fs       afero.Fs
	root     string
	l3ByNode map[int][]int
	maxBW    map[int]float64
}

// New returns a driver reading from fs. Nodes absent from L3ByNode but
// present in MaxBandwidth use the L3 domain with the node's own id.
func New(fs afero.Fs, cfg Config) *Driver {
	root := cfg.Root
	if root == "" {
		root = DefaultRoot
	}
	l3ByNode := make(map[int][]int, len(cfg.MaxBandwidth))
	for node := range cfg.MaxBandwidth {
		l3ByNode[node] = []int{node}
	}
	for node, domains := range cfg.L3ByNode {
		l3ByNode[node] = domains
	}
	return &Driver{
		fs:       fs,
		root:     root,
		l3ByNode: l3ByNode,
		maxBW:    cfg.MaxBandwidth,
	}
}

// MaxMemoryBandwidth returns the configured per-node ceiling. resctrl does
// not expose one, so an unconfigured ceiling is not implemented.
func (d *Driver) MaxMemoryBandwidth() (map[int]float64, error) {
	if len(d.maxBW) == 0 {
		return nil, errors.Wrap(internalerrors.ErrNotImplemented, "max memory bandwidth is not configured")
	}
	result := make(map[int]float64, len(d.maxBW))
	for node, v := range d.maxBW {
		result[node] = v
	}
	return result, nil
}

// CurrentMemoryBandwidth sets carrier.NUMAValues to the cumulative byte count
// of every node, summed over its L3 domains.
func (d *Driver) CurrentMemoryBandwidth(carrier *models.Metric) error {
	if len(d.l3ByNode) == 0 {
		return errors.Wrap(internalerrors.ErrNotImplemented, "no numa node is configured")
	}

	nodes := make([]int, 0, len(d.l3ByNode))
	for node := range d.l3ByNode {
		nodes = append(nodes, node)
	}
	sort.Ints(nodes)

	counters := make(map[int]float64, len(nodes))
	for _, node := range nodes {
		var sum int64
		for _, domain := range d.l3ByNode[node] {
			v, err := readRawData(d.fs, monDataPath(d.root, domain))
			if err != nil {
				return errors.Wrapf(err, "node %d", node)
			}
			sum += v
		}
		counters[node] = float64(sum)
	}
	carrier.NUMAValues = counters
	return nil
}

func monDataPath(root string, domain int) string {
	return path.Join(root, "mon_data", fmt.Sprintf("mon_L3_%02d", domain), MBRawFile)
}

func readRawData(fs afero.Fs, filePath string) (int64, error) {
	buffer, err := afero.ReadFile(fs, filePath)
	if err != nil {
		return 0, errors.Wrap(err, "read resctrl counter")
	}

	content := strings.TrimSpace(string(buffer))
	if content == unavailable {
		return 0, errors.Wrapf(internalerrors.ErrMissingData, "%s is unavailable", filePath)
	}

	v, err := strconv.ParseInt(content, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "parse %s", filePath)
	}
	return v, nil
}
