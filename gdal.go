package zonalstats

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/wgdzlh/zonalstats/log"
	"github.com/wgdzlh/zonalstats/zonal"

	"github.com/airbusgeo/godal"
	"github.com/lukeroth/gdal"
	"go.uber.org/zap"
)

// 基于GDAL/OGR的GIS引擎，工作区目录相当于GRASS的mapset：
// 矢量位于<workspace>/vector，栅格位于<workspace>/raster
type GdalToolbox struct {
	workspace string
	refMap    map[string]gdal.SpatialReference
	rLock     sync.Mutex
	mask      *zoneMask
	tmpDir    string
	logTag    string
}

var _ zonal.Engine = (*GdalToolbox)(nil)

// 由GDAL库C语言创建的内存对象，需要手动调用Destroy回收
type destroyable interface {
	Destroy()
}

var registerOnce sync.Once

// 初始化GDAL工具箱，tmpDir为可选的临时目录路径（未提供的话为工作区的栅格目录）
func NewGdalToolbox(workspace string, tmpDir ...string) *GdalToolbox {
	registerOnce.Do(godal.RegisterAll)
	g := &GdalToolbox{
		workspace: workspace,
		refMap:    map[string]gdal.SpatialReference{},
		logTag:    "GdalToolbox:",
	}
	if len(tmpDir) > 0 && tmpDir[0] != "" {
		g.tmpDir = tmpDir[0]
	}
	return g
}

func (g *GdalToolbox) Workspace() string {
	return g.workspace
}

// 获取srid对应的坐标系（可复用，故无需回收）
func (g *GdalToolbox) getSridRef(srid int) (ref gdal.SpatialReference, err error) {
	key := "EPSG:" + strconv.Itoa(srid)
	g.rLock.Lock()
	defer g.rLock.Unlock()
	ref, ok := g.refMap[key]
	if ok {
		return
	}
	ref = gdal.CreateSpatialReference("")
	if err = ref.FromEPSG(srid); err != nil { // 设定坐标系ID
		log.Error(g.logTag+"set ref srid failed", zap.Int("srid", srid), zap.Error(err))
		ref.Destroy()
		return
	}
	// 数据轴次序固定为(经度,纬度)（传统GIS坐标序），否则转换坐标系时可能出现次序倒置
	ref.SetAxisMappingStrategy(gdal.OAMS_TraditionalGisOrder)
	g.refMap[key] = ref
	return
}

// 获取WKT描述的坐标系（可复用，故无需回收）
func (g *GdalToolbox) getWktRef(wkt string) (ref gdal.SpatialReference) {
	g.rLock.Lock()
	defer g.rLock.Unlock()
	ref, ok := g.refMap[wkt]
	if ok {
		return
	}
	ref = gdal.CreateSpatialReference(wkt)
	ref.SetAxisMappingStrategy(gdal.OAMS_TraditionalGisOrder)
	g.refMap[wkt] = ref
	return
}

func (g *GdalToolbox) getSrid(sp gdal.SpatialReference) (srid int, err error) {
	wkt, _ := sp.ToWKT()
	rawId, ok := sp.AttrValue("AUTHORITY", 1)
	if !ok {
		if strings.Contains(wkt, "CGCS_2000") {
			rawId = "4490"
		} else {
			err = ErrVoidSrid
			return
		}
	}
	srid, err = strconv.Atoi(rawId)
	log.Debug(g.logTag+"got srid from sp", zap.String("id", rawId))
	return
}

// 获取工作区中矢量图层的srid
func (g *GdalToolbox) GetSridOfLayer(layer string) (srid int, err error) {
	ds, l, err := g.openLayer(layer, false)
	if err != nil {
		return
	}
	defer ds.Destroy()
	return g.getSrid(l.SpatialReference())
}

func (g *GdalToolbox) parseWKB(wkb GdalGeo, ref gdal.SpatialReference) (ret gdal.Geometry, err error) {
	ret, err = gdal.CreateFromWKB(wkb, ref, len(wkb))
	if err != nil {
		log.Error(g.logTag+"parse wkb failed", zap.Error(err))
	}
	return
}

func (g *GdalToolbox) parseWKT(wkt string, ref gdal.SpatialReference) (ret gdal.Geometry, err error) {
	ret, err = gdal.CreateFromWKT(wkt, ref)
	if err != nil {
		log.Error(g.logTag+"parse wkt failed", zap.Error(err))
		err = fmt.Errorf("invalid WKT: %w", err)
	}
	return
}

// WKT转WKB
func (g *GdalToolbox) WktToWkb(wkt string, srid int) (wkb GdalGeo, err error) {
	ref, err := g.getSridRef(srid)
	if err != nil {
		return
	}
	geo, err := g.parseWKT(wkt, ref)
	if err != nil {
		return
	}
	wkb, err = geo.ToWKB()
	geo.Destroy()
	return
}
