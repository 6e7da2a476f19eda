package zonal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLabelPatchesConnectivity(t *testing.T) {
	g, err := GridFromRows(
		[]float64{1, 0, 0},
		[]float64{0, 1, 0},
		[]float64{0, 0, 1},
	)
	require.NoError(t, err)

	_, n := LabelPatches(g, false)
	assert.Equal(t, 3, n)

	out, n := LabelPatches(g, true)
	assert.Equal(t, 1, n)
	assert.Equal(t, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1}, out.Cells)
}

func TestLabelPatchesKeepsNull(t *testing.T) {
	g, err := GridFromRows(
		[]float64{1, 1, nd},
		[]float64{0, nd, 1},
	)
	require.NoError(t, err)
	out, n := LabelPatches(g.WithNoData(nd), false)
	assert.Equal(t, 2, n)
	assert.True(t, out.IsNull(out.At(2, 0)))
	assert.True(t, out.IsNull(out.At(1, 1)))
	assert.Equal(t, 1.0, out.At(0, 0))
	assert.Equal(t, 1.0, out.At(1, 0))
	assert.Equal(t, float64(BackgroundPatch), out.At(0, 1))
	assert.Equal(t, 2.0, out.At(2, 1))
}

// 斑块在全图范围标记后再分区统计，跨区域的斑块在每个区域各计一次
func TestPatchesCountedOncePerZone(t *testing.T) {
	habitat, err := GridFromRows(
		[]float64{1, 0, 1, 1, 0, 1},
		[]float64{1, 0, 1, 1, 0, 1},
	)
	require.NoError(t, err)
	pid, n := LabelPatches(habitat, false)
	require.Equal(t, 3, n)

	m := NewMemoryEngine(6, 2)
	require.NoError(t, m.AddRaster("pid", pid))
	m.AddLayer("zones")
	require.NoError(t, m.AddZone("zones", 1, Rect(6, 0, 0, 3, 2)))
	require.NoError(t, m.AddZone("zones", 2, Rect(6, 3, 0, 6, 2)))

	total := 0
	for _, cat := range []int{1, 2} {
		err = WithMask(m, "zones", cat, func() error {
			np, e := NumberPatches(m, "pid", BackgroundPatch)
			assert.Equal(t, 2, np)
			total += np
			return e
		})
		require.NoError(t, err)
	}
	assert.Equal(t, 4, total)
}
