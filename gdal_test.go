package zonalstats

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wgdzlh/zonalstats/zonal"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const nd = -9999

// 6x2像元、像元大小为1度的栅格，左上角位于(0, 2)
var testGt = [6]float64{0, 1, 0, 2, 0, -1}

// 工作区：区域A(cat 1)覆盖x∈[0,3]，区域B(cat 2)覆盖x∈[3,6]
func newTestToolbox(t *testing.T) *GdalToolbox {
	t.Helper()
	g := NewGdalToolbox(t.TempDir())
	require.NoError(t, g.InitWorkspace())

	a, err := g.WktToWkb(PointsToWkt(0, 3, 0, 2), UNIVERSAL_SRID)
	require.NoError(t, err)
	b, err := g.WktToWkb(PointsToWkt(3, 6, 0, 2), UNIVERSAL_SRID)
	require.NoError(t, err)
	require.NoError(t, g.CreateZoneLayer("zones", UNIVERSAL_SRID, Zone{Cat: 1, Geom: a}, Zone{Cat: 2, Geom: b}))

	ref, err := g.getSridRef(UNIVERSAL_SRID)
	require.NoError(t, err)
	proj, err := ref.ToWKT()
	require.NoError(t, err)

	write := func(name string, grid zonal.Grid) {
		require.NoError(t, g.WriteGrid(name, grid, testGt, proj))
	}
	pid, err := zonal.GridFromRows(
		[]float64{1, 0, 2, 2, 0, 3},
		[]float64{1, 1, 0, 2, 3, 3},
	)
	require.NoError(t, err)
	write("pid", pid)
	hab, err := zonal.GridFromRows(
		[]float64{1, 1, 1, 0, 0, 0},
		[]float64{1, 1, 1, 0, 0, 0},
	)
	require.NoError(t, err)
	write("hab", hab)
	void, err := zonal.GridFromRows(
		[]float64{nd, nd, nd, nd, nd, nd},
		[]float64{nd, nd, nd, nd, nd, nd},
	)
	require.NoError(t, err)
	write("void", void.WithNoData(nd))
	return g
}

func TestCatsAndColumns(t *testing.T) {
	g := newTestToolbox(t)
	require.NoError(t, g.Check("zones"))

	cats, err := g.Cats("zones")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, cats)

	cols, err := g.Columns("zones")
	require.NoError(t, err)
	assert.Equal(t, []string{SHP_FIELD_CAT}, cols)

	created, err := zonal.CreateColumns(g, "zones", []zonal.Column{{Name: "np", Type: zonal.ColumnInt}, {Name: "p_hab", Type: zonal.ColumnFloat}})
	require.NoError(t, err)
	assert.Equal(t, []string{"np", "p_hab"}, created)

	created, err = zonal.CreateColumns(g, "zones", []zonal.Column{{Name: "np", Type: zonal.ColumnFloat}})
	require.NoError(t, err)
	assert.Empty(t, created)
	cols, err = g.Columns("zones")
	require.NoError(t, err)
	assert.Equal(t, []string{SHP_FIELD_CAT, "np", "p_hab"}, cols)

	err = g.AddColumn("zones", zonal.Column{Name: "np", Type: zonal.ColumnInt})
	assert.ErrorIs(t, err, zonal.ErrColumnExists)
	err = g.AddColumn("zones", zonal.Column{Name: "bad", Type: "blob"})
	assert.ErrorIs(t, err, zonal.ErrInvalidColumn)
}

func TestMaskRestrictsCellStats(t *testing.T) {
	g := newTestToolbox(t)

	st, err := g.CellStats("hab")
	require.NoError(t, err)
	assert.Equal(t, 6, st.Counts[1])
	assert.Equal(t, 6, st.Counts[0])

	require.NoError(t, g.SetMask("zones", 1))
	err = g.SetMask("zones", 2)
	assert.ErrorIs(t, err, zonal.ErrMaskActive)

	st, err = g.CellStats("hab")
	require.NoError(t, err)
	assert.Equal(t, 6, st.Counts[1])
	assert.Zero(t, st.Counts[0])

	st, err = g.CellStats("void")
	require.NoError(t, err)
	assert.Equal(t, 0, st.Valid())
	assert.Equal(t, 6, st.Null)

	require.NoError(t, g.RemoveMask())
	require.NoError(t, g.SetMask("zones", 2))
	st, err = g.CellStats("pid")
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 2, 3}, st.Values())
	require.NoError(t, g.RemoveMask())

	assert.ErrorIs(t, g.SetMask("zones", 42), zonal.ErrZoneNotFound)
	assert.Nil(t, g.mask)
}

func TestCellStatsMissingRaster(t *testing.T) {
	g := newTestToolbox(t)
	_, err := g.CellStats("absent")
	assert.ErrorIs(t, err, zonal.ErrRasterMissing)
}

func TestZonalStatsWithGdal(t *testing.T) {
	g := newTestToolbox(t)
	z, err := zonal.NewZonalStats(g, "zones",
		zonal.Task{Raster: "pid", Metric: zonal.PatchCount(zonal.BackgroundPatch), Column: "np", Type: zonal.ColumnInt},
		zonal.Task{Raster: "hab", Metric: zonal.HabitatProportion, Column: "p_hab"},
		zonal.Task{Raster: "void", Metric: zonal.HabitatProportion, Column: "p_void"},
	)
	require.NoError(t, err)
	_, err = z.InitColumns()
	require.NoError(t, err)

	report, err := z.Run()
	require.NoError(t, err)
	require.NoError(t, report.Err())
	assert.Equal(t, 2, report.Succeeded)
	assert.Nil(t, g.mask)

	np, err := g.ReadValues("zones", "np")
	require.NoError(t, err)
	assert.Equal(t, map[int]float64{1: 2, 2: 2}, np)

	pHab, err := g.ReadValues("zones", "p_hab")
	require.NoError(t, err)
	assert.Equal(t, map[int]float64{1: 1, 2: 0}, pHab)

	pVoid, err := g.ReadValues("zones", "p_void")
	require.NoError(t, err)
	require.Len(t, pVoid, 2)
	for cat, v := range pVoid {
		assert.True(t, zonal.IsUndefined(v), "zone %d", cat)
	}

	// 导出后无定义值仍为空值
	out := NewGdalToolbox(t.TempDir())
	require.NoError(t, out.InitWorkspace())
	require.NoError(t, g.ExportLayer("zones", filepath.Join(out.Workspace(), VECTOR_DIR, "exported"+FILE_EXT_SHP)))
	pVoid, err = out.ReadValues("exported", "p_void")
	require.NoError(t, err)
	require.Len(t, pVoid, 2)
	for cat, v := range pVoid {
		assert.True(t, zonal.IsUndefined(v), "zone %d", cat)
	}
	pHab, err = out.ReadValues("exported", "p_hab")
	require.NoError(t, err)
	assert.Equal(t, map[int]float64{1: 1, 2: 0}, pHab)

	csv := filepath.Join(t.TempDir(), "zones"+FILE_EXT_CSV)
	require.NoError(t, g.ExportLayer("zones", csv))
	raw, err := os.ReadFile(csv)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 3)
	for _, line := range lines[1:] {
		assert.True(t, strings.HasSuffix(strings.TrimRight(line, "\r"), ","), line)
	}
}

func TestUndefinedIsNotMinusOne(t *testing.T) {
	g := newTestToolbox(t)
	require.NoError(t, g.AddColumn("zones", zonal.Column{Name: "v", Type: zonal.ColumnInt}))
	require.NoError(t, g.AddColumn("zones", zonal.Column{Name: "f", Type: zonal.ColumnFloat}))
	for _, col := range []string{"v", "f"} {
		require.NoError(t, g.UpdateValue("zones", col, 1, -1))
		require.NoError(t, g.UpdateValue("zones", col, 2, zonal.Undefined))

		values, err := g.ReadValues("zones", col)
		require.NoError(t, err)
		assert.Equal(t, -1.0, values[1], col)
		assert.True(t, zonal.IsUndefined(values[2]), col)
	}

	// 已有值可被覆盖为空值
	require.NoError(t, g.UpdateValue("zones", "v", 1, zonal.Undefined))
	values, err := g.ReadValues("zones", "v")
	require.NoError(t, err)
	assert.True(t, zonal.IsUndefined(values[1]))
}

func TestUpdateValueErrors(t *testing.T) {
	g := newTestToolbox(t)
	err := g.UpdateValue("zones", "absent", 1, 1)
	assert.ErrorIs(t, err, zonal.ErrColumnMissing)

	require.NoError(t, g.AddColumn("zones", zonal.Column{Name: "v", Type: zonal.ColumnFloat}))
	err = g.UpdateValue("zones", "v", 42, 1)
	assert.ErrorIs(t, err, zonal.ErrZoneNotFound)
}

func TestCheckNotReady(t *testing.T) {
	g := NewGdalToolbox(filepath.Join(t.TempDir(), "absent"))
	assert.ErrorIs(t, g.Check("zones"), zonal.ErrSessionNotReady)

	g = newTestToolbox(t)
	assert.ErrorIs(t, g.Check("absent"), zonal.ErrSessionNotReady)
}

func TestClumpRaster(t *testing.T) {
	g := newTestToolbox(t)
	n, err := g.ClumpRaster("pid", "pid_bin", false)
	require.NoError(t, err)
	// 仅值为1的像元参与标记
	assert.Equal(t, 1, n)

	n, err = g.ClumpRaster("hab", "hab_pid", false)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	grid, gt, _, err := g.ReadGrid("hab_pid")
	require.NoError(t, err)
	assert.Equal(t, testGt, gt)
	assert.Equal(t, 1.0, grid.At(0, 0))
	assert.Equal(t, float64(zonal.BackgroundPatch), grid.At(5, 1))
}

func TestLoadReusesPresentMaps(t *testing.T) {
	src := newTestToolbox(t)
	g := NewGdalToolbox(t.TempDir())

	maps, err := g.Load(filepath.Join(src.Workspace(), VECTOR_DIR), "zones", false,
		[]string{filepath.Join(src.Workspace(), RASTER_DIR, "hab.tif"), filepath.Join(src.Workspace(), RASTER_DIR, "pid")}, false)
	require.NoError(t, err)
	assert.Equal(t, "zones", maps.Vector)
	assert.Equal(t, []string{"hab", "pid"}, maps.Rasters)
	assert.Equal(t, []string{"zones", "hab", "pid"}, maps.Imported)
	assert.Empty(t, maps.Reused)

	maps, err = g.Load(filepath.Join(src.Workspace(), VECTOR_DIR), "zones", false,
		[]string{filepath.Join(src.Workspace(), RASTER_DIR, "hab.tif")}, true)
	require.NoError(t, err)
	assert.Equal(t, []string{"zones"}, maps.Reused)
	assert.Equal(t, []string{"hab"}, maps.Imported)

	vectors, rasters, err := g.ListMaps()
	require.NoError(t, err)
	assert.Equal(t, []string{"zones"}, vectors)
	assert.ElementsMatch(t, []string{"hab", "pid"}, rasters)

	cats, err := g.Cats("zones")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, cats)

	_, err = g.Load(t.TempDir(), "missing", false, nil, false)
	assert.ErrorIs(t, err, ErrMapNotFound)
}

func TestExportLayer(t *testing.T) {
	g := newTestToolbox(t)
	dir := t.TempDir()
	for _, name := range []string{"zones.csv", "zones.geojson", "zones.shp"} {
		out := filepath.Join(dir, name)
		require.NoError(t, g.ExportLayer("zones", out), name)
		_, err := os.Stat(out)
		assert.NoError(t, err, name)
	}
	assert.ErrorIs(t, g.ExportLayer("zones", filepath.Join(dir, "zones.kml")), ErrExportFormat)
}

func TestEnvelopeWindow(t *testing.T) {
	win := envelopeWindow(testGt, 6, 2, 0.5, 2.5, 0.2, 1.8)
	assert.Equal(t, window{x0: 0, y0: 0, w: 3, h: 2}, win)

	win = envelopeWindow(testGt, 6, 2, 3, 6, 0, 1)
	assert.Equal(t, window{x0: 3, y0: 1, w: 3, h: 1}, win)

	win = envelopeWindow(testGt, 6, 2, 10, 12, 0, 1)
	assert.True(t, win.empty())

	assert.Equal(t, [6]float64{3, 1, 0, 1, 0, -1}, windowTransform(testGt, window{x0: 3, y0: 1}))
}

func TestZoneCoverage(t *testing.T) {
	g := newTestToolbox(t)
	var zones []Zone
	for i, span := range [][4]float64{{4, 8, 0, 2}, {10, 12, 0, 2}, {0, 6, 0, 2}} {
		wkb, err := g.WktToWkb(SpanToWkt(span), UNIVERSAL_SRID)
		require.NoError(t, err)
		zones = append(zones, Zone{Cat: i + 1, Geom: wkb})
	}
	require.NoError(t, g.CreateZoneLayer("edge", UNIVERSAL_SRID, zones...))

	for cat, want := range map[int]float64{1: 0.5, 2: 0, 3: 1} {
		ratio, err := g.ZoneCoverage("edge", cat, "hab")
		require.NoError(t, err)
		assert.InDelta(t, want, ratio, 1e-9, "zone %d", cat)
	}

	// 区域完全位于栅格外时统计结果无定义
	require.NoError(t, g.SetMask("edge", 2))
	v, err := zonal.ProportionHabitat(g, "hab")
	require.NoError(t, err)
	assert.True(t, zonal.IsUndefined(v))
	require.NoError(t, g.RemoveMask())

	_, err = g.ZoneCoverage("edge", 9, "hab")
	assert.ErrorIs(t, err, zonal.ErrZoneNotFound)
}
