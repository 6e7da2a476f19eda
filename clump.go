package zonalstats

import (
	"github.com/wgdzlh/zonalstats/log"
	"github.com/wgdzlh/zonalstats/zonal"

	"go.uber.org/zap"
)

// 对生境栅格in进行全图连通斑块标记，生成斑块ID栅格out，返回斑块数。
// 标记在全图范围内进行，不受当前掩膜影响
func (g *GdalToolbox) ClumpRaster(in, out string, eightConnected bool) (n int, err error) {
	grid, gt, proj, err := g.ReadGrid(in)
	if err != nil {
		return
	}
	labeled, n := zonal.LabelPatches(grid, eightConnected)
	if err = g.WriteGrid(out, labeled, gt, proj); err != nil {
		log.Error(g.logTag+"write patch raster failed", zap.String("out", out), zap.Error(err))
		return
	}
	log.Info(g.logTag+"patch raster created", zap.String("in", in), zap.String("out", out), zap.Int("patches", n), zap.Bool("diagonal", eightConnected))
	return
}
