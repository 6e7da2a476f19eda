package zonalstats

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/wgdzlh/zonalstats/log"
	"github.com/wgdzlh/zonalstats/utils"
	"github.com/wgdzlh/zonalstats/zonal"

	"github.com/airbusgeo/godal"
	"go.uber.org/zap"
)

func (g *GdalToolbox) rasterPath(raster string) string {
	return filepath.Join(g.workspace, RASTER_DIR, raster+FILE_EXT_TIF)
}

func (g *GdalToolbox) rasterTmpDir() string {
	if g.tmpDir != "" {
		return g.tmpDir
	}
	return filepath.Join(g.workspace, RASTER_DIR)
}

// 栅格窗口（像元坐标）
type window struct {
	x0, y0, w, h int
}

func (w window) empty() bool {
	return w.w <= 0 || w.h <= 0
}

// 打开工作区中的栅格，返回第一个波段
func (g *GdalToolbox) openRaster(raster string) (ds *godal.Dataset, band godal.Band, gt [6]float64, err error) {
	path := g.rasterPath(raster)
	if !utils.FileExists(path) {
		err = fmt.Errorf("%w: %s", zonal.ErrRasterMissing, raster)
		return
	}
	if ds, err = godal.Open(path, godal.RasterOnly()); err != nil {
		log.Error(g.logTag+"open tif failed", zap.String("raster", raster), zap.Error(err))
		err = fmt.Errorf("%w: %w: %s", zonal.ErrRasterRead, ErrInvalidTif, raster)
		return
	}
	bands := ds.Bands()
	if len(bands) == 0 {
		ds.Close()
		err = fmt.Errorf("%w: %w: %s has no band", zonal.ErrRasterRead, ErrInvalidTif, raster)
		return
	}
	band = bands[0]
	if gt, err = ds.GeoTransform(); err != nil {
		// 无地理参考的栅格按像元坐标处理
		gt, err = [6]float64{0, 1, 0, 0, 0, -1}, nil
	}
	if gt[2] != 0 || gt[4] != 0 {
		ds.Close()
		err = fmt.Errorf("%w: %w: %s", zonal.ErrRasterRead, ErrRotatedRaster, raster)
	}
	return
}

// 设置区域掩膜，同一时刻只能有一个掩膜生效
func (g *GdalToolbox) SetMask(layer string, cat int) (err error) {
	if g.mask != nil {
		err = fmt.Errorf("%w: layer %s cat %d", zonal.ErrMaskActive, g.mask.layer, g.mask.cat)
		return
	}
	wkb, srsWkt, err := g.zoneGeometry(layer, cat)
	if err != nil {
		return
	}
	g.mask = &zoneMask{
		layer:  layer,
		cat:    cat,
		geom:   wkb,
		srsWkt: srsWkt,
	}
	log.Debug(g.logTag+"mask set", zap.String("layer", layer), zap.Int("cat", cat))
	return
}

// 取消区域掩膜，之后的统计覆盖整幅栅格
func (g *GdalToolbox) RemoveMask() (err error) {
	if g.mask == nil {
		return
	}
	log.Debug(g.logTag+"mask removed", zap.String("layer", g.mask.layer), zap.Int("cat", g.mask.cat))
	g.mask = nil
	return
}

// 将当前掩膜栅格化到栅格网格上，返回掩膜外包框所在窗口及窗口内的掩膜像元
func (g *GdalToolbox) burnMask(gt [6]float64, sizeX, sizeY int, proj string) (win window, inside []byte, err error) {
	m := g.mask
	var ref = g.getWktRef(m.srsWkt)
	geo, err := g.parseWKB(m.geom, ref)
	if err != nil {
		return
	}
	defer geo.Destroy()
	if proj != "" && m.srsWkt != "" {
		if err = geo.TransformTo(g.getWktRef(proj)); err != nil {
			log.Error(g.logTag+"geo transform failed", zap.Error(err))
			return
		}
	}
	env := geo.Envelope()
	win = envelopeWindow(gt, sizeX, sizeY, env.MinX(), env.MaxX(), env.MinY(), env.MaxY())
	if win.empty() {
		return
	}
	wkb, err := geo.ToWKB()
	if err != nil {
		return
	}
	mds, err := godal.Create(godal.Memory, "", 1, godal.Byte, win.w, win.h)
	if err != nil {
		return
	}
	defer mds.Close()
	if err = mds.SetGeoTransform(windowTransform(gt, win)); err != nil {
		return
	}
	mg, err := godal.NewGeometryFromWKB(wkb, nil)
	if err != nil {
		return
	}
	defer mg.Close()
	if err = mds.RasterizeGeometry(mg, godal.Values(1)); err != nil {
		log.Error(g.logTag+"rasterize mask failed", zap.Error(err))
		return
	}
	inside = make([]byte, win.w*win.h)
	err = mds.Bands()[0].Read(0, 0, inside, win.w, win.h)
	return
}

// 统计栅格（当前掩膜内）各取值的像元数与空值像元数
func (g *GdalToolbox) CellStats(raster string) (st zonal.CellStats, err error) {
	ds, band, gt, err := g.openRaster(raster)
	if err != nil {
		return
	}
	defer ds.Close()
	bs := band.Structure()
	var (
		win    = window{0, 0, bs.SizeX, bs.SizeY}
		inside []byte
	)
	if g.mask != nil {
		if win, inside, err = g.burnMask(gt, bs.SizeX, bs.SizeY, ds.Projection()); err != nil {
			err = fmt.Errorf("%w: %s: %w", zonal.ErrRasterRead, raster, err)
			return
		}
		if win.empty() { // 区域与栅格不相交
			st = zonal.NewCellStats()
			return
		}
	}
	buf := make([]float64, win.w*win.h)
	if err = band.Read(win.x0, win.y0, buf, win.w, win.h); err != nil {
		log.Error(g.logTag+"read tif band failed", zap.String("raster", raster), zap.Error(err))
		err = fmt.Errorf("%w: %w: %s", zonal.ErrRasterRead, ErrTifReadFailed, raster)
		return
	}
	grid := zonal.Grid{Width: win.w, Height: win.h, Cells: buf}
	grid.NoData, grid.HasNoData = band.NoData()
	var footprint []bool
	if inside != nil {
		footprint = make([]bool, len(inside))
		for i, v := range inside {
			footprint[i] = v != 0
		}
	}
	st = grid.Stats(footprint)
	log.Debug(g.logTag+"cell stats", zap.String("raster", raster), zap.Int("values", len(st.Counts)), zap.Int("null", st.Null))
	return
}

// 读取整幅栅格（不受掩膜影响）
func (g *GdalToolbox) ReadGrid(raster string) (grid zonal.Grid, gt [6]float64, proj string, err error) {
	ds, band, gt, err := g.openRaster(raster)
	if err != nil {
		return
	}
	defer ds.Close()
	proj = ds.Projection()
	bs := band.Structure()
	buf := make([]float64, bs.SizeX*bs.SizeY)
	log.Info(g.logTag+"read tif band", zap.String("raster", raster), zap.Int("dt", int(bs.DataType)), zap.Int("width", bs.SizeX), zap.Int("height", bs.SizeY))
	if err = band.Read(0, 0, buf, bs.SizeX, bs.SizeY); err != nil {
		log.Error(g.logTag+"read tif band failed", zap.String("raster", raster), zap.Error(err))
		err = fmt.Errorf("%w: %w: %s", zonal.ErrRasterRead, ErrTifReadFailed, raster)
		return
	}
	grid = zonal.Grid{Width: bs.SizeX, Height: bs.SizeY, Cells: buf}
	grid.NoData, grid.HasNoData = band.NoData()
	return
}

func isIntegral(cells []float64) bool {
	for _, v := range cells {
		if v != math.Trunc(v) || v > math.MaxInt32 || v < math.MinInt32 {
			return false
		}
	}
	return true
}

// 将网格写入工作区栅格（GTiff），整数网格写为Int32，否则为Float64
func (g *GdalToolbox) WriteGrid(raster string, grid zonal.Grid, gt [6]float64, proj string) (err error) {
	dir := filepath.Join(g.workspace, RASTER_DIR)
	if err = os.MkdirAll(dir, os.ModePerm); err != nil {
		return
	}
	var (
		tmp = utils.GetUniqTmpPath(g.rasterTmpDir(), TMP_RASTER)
		out = g.rasterPath(raster)
		dt  = godal.Float64
		buf interface{}
	)
	defer os.Remove(tmp)
	if isIntegral(grid.Cells) {
		dt = godal.Int32
		ints := make([]int32, len(grid.Cells))
		for i, v := range grid.Cells {
			ints[i] = int32(v)
		}
		buf = ints
	} else {
		buf = grid.Cells
	}
	log.Info(g.logTag+"write tif", zap.String("raster", raster), zap.String("dt", dt.String()), zap.Int("width", grid.Width), zap.Int("height", grid.Height))
	ds, err := godal.Create(godal.GTiff, tmp, 1, dt, grid.Width, grid.Height, godal.CreationOption("COMPRESS=LZW"))
	if err != nil {
		log.Error(g.logTag+"create tif failed", zap.Error(err))
		err = fmt.Errorf("%w: %w", ErrTifWriteFailed, err)
		return
	}
	if err = g.fillDataset(ds, grid, gt, proj, buf); err != nil {
		ds.Close()
		err = fmt.Errorf("%w: %w", ErrTifWriteFailed, err)
		return
	}
	if err = ds.Close(); err != nil {
		err = fmt.Errorf("%w: %w", ErrTifWriteFailed, err)
		return
	}
	err = os.Rename(tmp, out)
	return
}

func (g *GdalToolbox) fillDataset(ds *godal.Dataset, grid zonal.Grid, gt [6]float64, proj string, buf interface{}) (err error) {
	if err = ds.SetGeoTransform(gt); err != nil {
		return
	}
	if proj != "" {
		if err = ds.SetProjection(proj); err != nil {
			return
		}
	}
	band := ds.Bands()[0]
	if grid.HasNoData {
		if err = band.SetNoData(grid.NoData); err != nil {
			return
		}
	}
	err = band.Write(0, 0, buf, grid.Width, grid.Height)
	return
}
