package zonal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const nd = -9999

func statsEngine(t *testing.T, rasters map[string][]float64) *MemoryEngine {
	t.Helper()
	m := NewMemoryEngine(4, 1)
	for name, cells := range rasters {
		g, err := NewGrid(4, 1, cells)
		require.NoError(t, err)
		require.NoError(t, m.AddRaster(name, g.WithNoData(nd)))
	}
	return m
}

func TestProportionHabitat(t *testing.T) {
	m := statsEngine(t, map[string][]float64{
		"half":   {0, 1, 1, 0},
		"ones":   {1, 1, 1, 1},
		"zeros":  {0, 0, 0, 0},
		"nulls":  {nd, nd, nd, nd},
		"mixed":  {1, nd, 0, 0},
		"nonbin": {0, 1, 2, 0},
	})
	tests := []struct {
		raster string
		want   float64
	}{
		{"half", 0.5},
		{"ones", 1},
		{"zeros", 0},
		{"mixed", 1.0 / 3},
	}
	for _, tt := range tests {
		got, err := ProportionHabitat(m, tt.raster)
		require.NoError(t, err, tt.raster)
		assert.InDelta(t, tt.want, got, 1e-12, tt.raster)
		assert.GreaterOrEqual(t, got, 0.0)
		assert.LessOrEqual(t, got, 1.0)
	}

	got, err := ProportionHabitat(m, "nulls")
	require.NoError(t, err)
	assert.True(t, IsUndefined(got))

	_, err = ProportionHabitat(m, "nonbin")
	assert.ErrorIs(t, err, ErrNonBinaryRaster)

	_, err = ProportionHabitat(m, "absent")
	assert.ErrorIs(t, err, ErrRasterMissing)
}

func TestPercentHabitat(t *testing.T) {
	m := statsEngine(t, map[string][]float64{
		"half":  {0, 1, 1, 0},
		"nulls": {nd, nd, nd, nd},
	})
	got, err := PercentHabitat(m, "half")
	require.NoError(t, err)
	assert.InDelta(t, 50, got, 1e-12)

	got, err = PercentHabitat(m, "nulls")
	require.NoError(t, err)
	assert.True(t, IsUndefined(got))
}

func TestNumberPatches(t *testing.T) {
	m := statsEngine(t, map[string][]float64{
		"pid":   {0, 3, 3, 7},
		"bg":    {0, 0, nd, 0},
		"shift": {-1, 5, -1, 5},
	})
	n, err := NumberPatches(m, "pid", 0)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = NumberPatches(m, "bg", 0)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = NumberPatches(m, "shift", -1)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = NumberPatches(m, "absent", 0)
	assert.ErrorIs(t, err, ErrRasterMissing)
}

func TestMetricByName(t *testing.T) {
	for _, name := range []string{MetricProportionHabitat, MetricPercentHabitat, MetricNumberPatches} {
		m, err := MetricByName(name, 0)
		require.NoError(t, err)
		assert.Equal(t, name, m.Name)
		assert.NotNil(t, m.Func)
	}
	_, err := MetricByName("mean", 0)
	assert.ErrorIs(t, err, ErrUnknownMetric)
}

func TestDefaultColumnType(t *testing.T) {
	assert.Equal(t, ColumnInt, PatchCount(0).ColumnType())
	assert.Equal(t, ColumnFloat, HabitatProportion.ColumnType())
	assert.Equal(t, ColumnFloat, HabitatPercent.ColumnType())

	tasks := allTasks()
	for i := range tasks {
		tasks[i].Type = ""
	}
	assert.Equal(t, Column{Name: "np", Type: ColumnInt}, tasks[0].column())
	assert.Equal(t, Column{Name: "p_hab", Type: ColumnFloat}, tasks[1].column())

	tasks[0].Type = ColumnFloat
	assert.Equal(t, ColumnFloat, tasks[0].column().Type)
}
