package zonalstats

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wgdzlh/zonalstats/log"
	"github.com/wgdzlh/zonalstats/utils"

	"github.com/lukeroth/gdal"
	"go.uber.org/zap"
)

// 导出工作区矢量（含属性表），格式由out的扩展名决定（shp/json/geojson/csv），可通过dstSrid指定目标srid
func (g *GdalToolbox) ExportLayer(layer, out string, dstSrid ...int) (err error) {
	ext := strings.ToLower(filepath.Ext(out))
	driver, ok := exportDrivers[ext]
	if !ok {
		err = fmt.Errorf("%w: %s", ErrExportFormat, ext)
		return
	}
	sds, err := gdal.OpenEx(g.vectorPath(layer), gdal.OFVector, nil, nil, nil)
	if err != nil {
		log.Error(g.logTag+"open shp error", zap.Error(err))
		return
	}
	defer sds.Close()
	opts := []string{"-f", driver}
	if len(dstSrid) > 0 && dstSrid[0] > 0 {
		if _, err = g.getSridRef(dstSrid[0]); err != nil {
			return
		}
		opts = append(opts, "-t_srs", fmt.Sprintf("epsg:%d", dstSrid[0]))
	}
	switch ext {
	case FILE_EXT_SHP:
		opts = append(opts, "-lco", ENCODING_OPTION)
		err = utils.RemoveShapefile(out)
	case FILE_EXT_CSV:
		opts = append(opts, "-lco", "GEOMETRY=AS_WKT")
		fallthrough
	default:
		if e := os.Remove(out); e != nil && !os.IsNotExist(e) {
			err = e
		}
	}
	if err != nil {
		return
	}
	log.Info(g.logTag+"start export layer", zap.String("layer", layer), zap.String("out", out), zap.String("driver", driver))
	dds, err := gdal.VectorTranslate(out, []gdal.Dataset{sds}, opts)
	if err != nil {
		log.Error(g.logTag+"VectorTranslate failed", zap.Error(err))
		return
	}
	dds.Close() // 生成导出文件
	log.Info(g.logTag+"end export layer", zap.String("layer", layer), zap.String("out", out))
	return
}
