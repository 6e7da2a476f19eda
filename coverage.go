package zonalstats

import (
	"github.com/wgdzlh/zonalstats/log"

	"go.uber.org/zap"
)

// 获取区域在栅格范围内的面积占比（在栅格坐标系下计算），不相交时为0
func (g *GdalToolbox) ZoneCoverage(layer string, cat int, raster string) (ratio float64, err error) {
	wkb, srsWkt, err := g.zoneGeometry(layer, cat)
	if err != nil {
		return
	}
	ds, band, gt, err := g.openRaster(raster)
	if err != nil {
		return
	}
	defer ds.Close()
	var (
		bs   = band.Structure()
		proj = ds.Projection()
		gc   []destroyable
	)
	defer func() {
		for _, v := range gc {
			v.Destroy()
		}
	}()
	zone, err := g.parseWKB(wkb, g.getWktRef(srsWkt))
	if err != nil {
		return
	}
	gc = append(gc, zone)
	if proj != "" && srsWkt != "" {
		if err = zone.TransformTo(g.getWktRef(proj)); err != nil {
			log.Error(g.logTag+"geo transform failed", zap.Error(err))
			return
		}
	}
	extent, err := g.parseWKT(SpanToWkt(windowSpan(gt, window{0, 0, bs.SizeX, bs.SizeY})), g.getWktRef(proj))
	if err != nil {
		return
	}
	gc = append(gc, extent)
	zoneArea := zone.Area()
	if zoneArea == 0 {
		return
	}
	inter := zone.Intersection(extent)
	gc = append(gc, inter)
	ratio = inter.Area() / zoneArea
	log.Info(g.logTag+"got zone coverage", zap.String("layer", layer), zap.Int("cat", cat), zap.String("raster", raster), zap.Float64("ratio", ratio))
	return
}
