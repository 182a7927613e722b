package resctrl

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internalerrors "github.com/Schera-ole/monitors/internal/errors"
	models "github.com/Schera-ole/monitors/internal/model"
)

func newTestFs(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fs, name, []byte(content), 0644))
	}
	return fs
}

func Test_readRawData(t *testing.T) {
	t.Parallel()

	fs := newTestFs(t, map[string]string{
		"/sys/fs/resctrl/mon_data/mon_L3_00/mbm_total_bytes": "1234567890123456789\n",
		"/sys/fs/resctrl/mon_data/mon_L3_01/mbm_total_bytes": "Unavailable",
		"/sys/fs/resctrl/mon_data/mon_L3_02/mbm_total_bytes": "12ab",
	})

	tests := []struct {
		name    string
		path    string
		want    int64
		wantErr bool
	}{
		{
			name: "happy path to get byte count",
			path: "/sys/fs/resctrl/mon_data/mon_L3_00/mbm_total_bytes",
			want: 1234567890123456789,
		},
		{
			name:    "Unavailable is an error",
			path:    "/sys/fs/resctrl/mon_data/mon_L3_01/mbm_total_bytes",
			wantErr: true,
		},
		{
			name:    "not digits is an error",
			path:    "/sys/fs/resctrl/mon_data/mon_L3_02/mbm_total_bytes",
			wantErr: true,
		},
		{
			name:    "file not exist is an error",
			path:    "/sys/fs/resctrl/mon_data/mon_L3_99/mbm_total_bytes",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := readRawData(fs, tt.path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDriver_CurrentMemoryBandwidth(t *testing.T) {
	t.Parallel()

	fs := newTestFs(t, map[string]string{
		"/sys/fs/resctrl/mon_data/mon_L3_00/mbm_total_bytes": "1000",
		"/sys/fs/resctrl/mon_data/mon_L3_01/mbm_total_bytes": "500",
		"/sys/fs/resctrl/mon_data/mon_L3_02/mbm_total_bytes": "2000",
	})

	tests := []struct {
		name    string
		cfg     Config
		want    map[int]float64
		wantErr error
	}{
		{
			name: "domains default to node id",
			cfg:  Config{MaxBandwidth: map[int]float64{0: 100, 2: 100}},
			want: map[int]float64{0: 1000, 2: 2000},
		},
		{
			name: "domains summed per node",
			cfg: Config{
				L3ByNode:     map[int][]int{0: {0, 1}, 1: {2}},
				MaxBandwidth: map[int]float64{0: 100, 1: 100},
			},
			want: map[int]float64{0: 1500, 1: 2000},
		},
		{
			name:    "missing domain file",
			cfg:     Config{L3ByNode: map[int][]int{0: {7}}},
			wantErr: afero.ErrFileNotFound,
		},
		{
			name:    "no node configured",
			cfg:     Config{},
			wantErr: internalerrors.ErrNotImplemented,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			d := New(fs, tt.cfg)
			carrier := models.Metric{Name: models.NUMAMemBWCurrent}
			err := d.CurrentMemoryBandwidth(&carrier)
			if tt.wantErr != nil {
				assert.Error(t, err)
				assert.Nil(t, carrier.NUMAValues)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, carrier.NUMAValues)
		})
	}
}

func TestDriver_MaxMemoryBandwidth(t *testing.T) {
	t.Parallel()

	d := New(afero.NewMemMapFs(), Config{MaxBandwidth: map[int]float64{0: 25e9, 1: 25e9}})
	got, err := d.MaxMemoryBandwidth()
	require.NoError(t, err)
	assert.Equal(t, map[int]float64{0: 25e9, 1: 25e9}, got)

	d = New(afero.NewMemMapFs(), Config{})
	_, err = d.MaxMemoryBandwidth()
	assert.ErrorIs(t, err, internalerrors.ErrNotImplemented)
}
