package zonalstats

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/wgdzlh/zonalstats/log"
	"github.com/wgdzlh/zonalstats/utils"
	"github.com/wgdzlh/zonalstats/zonal"

	"github.com/lukeroth/gdal"
	"go.uber.org/zap"
)

func (g *GdalToolbox) vectorPath(layer string) string {
	return filepath.Join(g.workspace, VECTOR_DIR, layer+FILE_EXT_SHP)
}

func (g *GdalToolbox) openLayer(layer string, update bool) (ds gdal.DataSource, l gdal.Layer, err error) {
	shp := g.vectorPath(layer)
	if !utils.FileExists(shp) {
		err = fmt.Errorf("%w: vector %s", zonal.ErrLayerNotFound, layer)
		return
	}
	mode := 0
	if update {
		mode = 1
	}
	driver := gdal.OGRDriverByName(SHP_DRIVER_NAME)
	ds, ok := driver.Open(shp, mode)
	if !ok {
		err = fmt.Errorf("%w: %s", ErrGdalDriverOpen, shp)
		return
	}
	l = ds.LayerByIndex(0)
	return
}

// 查找字段序号，UTF-8找不到时再按GBK编码查找
func fieldIndex(def gdal.FeatureDefinition, name string) (idx int) {
	if idx = def.FieldIndex(name); idx >= 0 {
		return
	}
	if gbk, e := utils.Utf8StrToGbk(name); e == nil && gbk != name {
		idx = def.FieldIndex(gbk)
	}
	return
}

// 区域编号：cat字段，缺失时为FID+1
func featureCat(f *gdal.Feature, catIdx int) int {
	if catIdx >= 0 {
		return f.FieldAsInteger(catIdx)
	}
	return int(f.FID()) + 1
}

// 检查工作区及区域矢量是否就绪
func (g *GdalToolbox) Check(layer string) (err error) {
	if fi, e := os.Stat(g.workspace); e != nil || !fi.IsDir() {
		err = fmt.Errorf("%w: %w: %s", zonal.ErrSessionNotReady, ErrNoWorkspace, g.workspace)
		return
	}
	ds, _, e := g.openLayer(layer, false)
	if e != nil {
		err = fmt.Errorf("%w: %w", zonal.ErrSessionNotReady, e)
		return
	}
	ds.Destroy()
	return
}

// 获取区域矢量中的全部区域编号（按要素顺序）
func (g *GdalToolbox) Cats(layer string) (cats []int, err error) {
	ds, l, err := g.openLayer(layer, false)
	if err != nil {
		return
	}
	defer ds.Destroy()
	var (
		catIdx  = l.Definition().FieldIndex(SHP_FIELD_CAT)
		seen    = map[int]struct{}{}
		feature *gdal.Feature
		cat     int
		gc      []destroyable
	)
	defer func() {
		for _, v := range gc {
			v.Destroy()
		}
	}()
	for {
		if feature = l.NextFeature(); feature == nil {
			break
		}
		gc = append(gc, *feature)
		cat = featureCat(feature, catIdx)
		if _, ok := seen[cat]; ok {
			continue
		}
		seen[cat] = struct{}{}
		cats = append(cats, cat)
	}
	log.Info(g.logTag+"got cats from layer", zap.String("layer", layer), zap.Int("cnt", len(cats)), zap.Bool("catField", catIdx >= 0))
	return
}

// 获取属性表中的全部字段名
func (g *GdalToolbox) Columns(layer string) (cols []string, err error) {
	ds, l, err := g.openLayer(layer, false)
	if err != nil {
		return
	}
	defer ds.Destroy()
	def := l.Definition()
	n := def.FieldCount()
	cols = make([]string, 0, n)
	for i := 0; i < n; i++ {
		cols = append(cols, utils.DecodeFieldName(def.FieldDefinition(i).Name()))
	}
	return
}

func fieldSpec(col zonal.Column) (ft gdal.FieldType, width, prec int, err error) {
	switch col.Type {
	case zonal.ColumnInt:
		ft, width = gdal.FT_Integer, FIELD_WIDTH_INT
	case zonal.ColumnFloat, "":
		ft, width, prec = gdal.FT_Real, FIELD_WIDTH_FLOAT, FIELD_PREC_FLOAT
	case zonal.ColumnString:
		ft, width = gdal.FT_String, FIELD_WIDTH_STRING
	default:
		err = fmt.Errorf("%w: %s type %q", zonal.ErrInvalidColumn, col.Name, col.Type)
	}
	return
}

// 在属性表中新增字段
func (g *GdalToolbox) AddColumn(layer string, col zonal.Column) (err error) {
	ft, width, prec, err := fieldSpec(col)
	if err != nil {
		return
	}
	ds, l, err := g.openLayer(layer, true)
	if err != nil {
		return
	}
	defer ds.Destroy()
	if fieldIndex(l.Definition(), col.Name) >= 0 {
		err = fmt.Errorf("%w: %s", zonal.ErrColumnExists, col.Name)
		return
	}
	fd := gdal.CreateFieldDefinition(col.Name, ft)
	defer fd.Destroy()
	fd.SetWidth(width)
	if prec > 0 {
		fd.SetPrecision(prec)
	}
	if err = l.CreateField(fd, false); err != nil {
		log.Error(g.logTag+"create field failed", zap.String("layer", layer), zap.String("column", col.Name), zap.Error(err))
		err = fmt.Errorf("%w: %s: %w", zonal.ErrInvalidColumn, col.Name, err)
		return
	}
	log.Info(g.logTag+"column added", zap.String("layer", layer), zap.String("column", col.Name), zap.String("type", string(col.Type)))
	return
}

func setFieldValue(f *gdal.Feature, idx int, ft gdal.FieldType, value float64) {
	if zonal.IsUndefined(value) {
		f.UnsetField(idx)
		return
	}
	switch ft {
	case gdal.FT_Integer:
		f.SetFieldInteger(idx, int(math.Round(value)))
	case gdal.FT_String:
		f.SetFieldString(idx, strconv.FormatFloat(value, 'f', -1, 64))
	default:
		f.SetFieldFloat64(idx, value)
	}
}

// 更新属性表中编号为cat的区域的字段值，无定义值写为空值
func (g *GdalToolbox) UpdateValue(layer, column string, cat int, value float64) (err error) {
	ds, l, err := g.openLayer(layer, true)
	if err != nil {
		return
	}
	defer ds.Destroy()
	def := l.Definition()
	idx := fieldIndex(def, column)
	if idx < 0 {
		err = fmt.Errorf("%w: "+ErrColumnMissingTemplate, zonal.ErrColumnMissing, column)
		return
	}
	var (
		ft      = def.FieldDefinition(idx).Type()
		catIdx  = def.FieldIndex(SHP_FIELD_CAT)
		feature *gdal.Feature
		matched int
		gc      []destroyable
	)
	defer func() {
		for _, v := range gc {
			v.Destroy()
		}
	}()
	for {
		if feature = l.NextFeature(); feature == nil {
			break
		}
		gc = append(gc, *feature)
		if featureCat(feature, catIdx) != cat {
			continue
		}
		setFieldValue(feature, idx, ft, value)
		if err = l.SetFeature(*feature); err != nil {
			log.Error(g.logTag+"err in set feature of layer", zap.Int("cat", cat), zap.Error(err))
			return
		}
		matched++
	}
	if matched == 0 {
		err = fmt.Errorf("%w: layer %s cat %d", zonal.ErrZoneNotFound, layer, cat)
	}
	return
}

// 获取编号为cat的区域（可能由多个要素组成）的合并矢量及其坐标系
func (g *GdalToolbox) zoneGeometry(layer string, cat int) (wkb GdalGeo, srsWkt string, err error) {
	ds, l, err := g.openLayer(layer, false)
	if err != nil {
		return
	}
	defer ds.Destroy()
	srsWkt, _ = l.SpatialReference().ToWKT()
	var (
		catIdx  = l.Definition().FieldIndex(SHP_FIELD_CAT)
		feature *gdal.Feature
		ret     = gdal.Create(gdal.GT_MultiPolygon)
		found   bool
		gc      []destroyable
	)
	defer func() {
		for _, v := range gc {
			v.Destroy()
		}
		ret.Destroy()
	}()
	for {
		if feature = l.NextFeature(); feature == nil {
			break
		}
		gc = append(gc, *feature)
		if featureCat(feature, catIdx) != cat {
			continue
		}
		found = true
		gc = append(gc, ret)
		ret = ret.Union(feature.Geometry())
	}
	if !found {
		err = fmt.Errorf("%w: layer %s cat %d", zonal.ErrZoneNotFound, layer, cat)
		return
	}
	wkb, err = ret.ToWKB()
	return
}

func (g *GdalToolbox) createShpLayer(shp string, srid int) (ds gdal.DataSource, ref gdal.SpatialReference, layer gdal.Layer, err error) {
	log.Info(g.logTag+"output shp files", zap.String("shp", shp), zap.Int("srid", srid))
	if err = utils.RemoveShapefile(shp); err != nil {
		return
	}
	if ref, err = g.getSridRef(srid); err != nil {
		return
	}
	driver := gdal.OGRDriverByName(SHP_DRIVER_NAME)
	ds, ok := driver.Create(shp, nil)
	if !ok {
		err = ErrGdalDriverCreate
		return
	}
	layer = ds.CreateLayer(strings.TrimSuffix(filepath.Base(shp), FILE_EXT_SHP), ref, gdal.GT_Polygon, []string{ENCODING_OPTION})
	return
}

// 将区域矢量写入工作区，生成带cat字段的区域图层（已存在的同名图层会被覆盖）
func (g *GdalToolbox) CreateZoneLayer(layer string, srid int, zones ...Zone) (err error) {
	if err = os.MkdirAll(filepath.Join(g.workspace, VECTOR_DIR), os.ModePerm); err != nil {
		return
	}
	ds, ref, l, err := g.createShpLayer(g.vectorPath(layer), srid)
	if err != nil {
		return
	}
	defer ds.Destroy() // 生成shp文件 + 释放资源
	catField := gdal.CreateFieldDefinition(SHP_FIELD_CAT, gdal.FT_Integer)
	defer catField.Destroy()
	catField.SetWidth(FIELD_WIDTH_INT)
	if err = l.CreateField(catField, false); err != nil {
		return
	}
	var (
		def     = l.Definition()
		catIdx  = def.FieldIndex(SHP_FIELD_CAT)
		feature gdal.Feature
		geo     gdal.Geometry
		cnt     int
		e       error
		gc      = make([]destroyable, len(zones))
	)
	for i, z := range zones {
		feature = def.Create()
		gc[i] = feature
		if e = feature.SetFID(int64(i)); e != nil {
			log.Error(g.logTag+"err in set feature fid", zap.Error(e))
			continue
		}
		feature.SetFieldInteger(catIdx, z.Cat)
		if geo, e = g.parseWKB(z.Geom, ref); e != nil {
			continue
		}
		if e = feature.SetGeometryDirectly(geo); e != nil {
			geo.Destroy()
			log.Error(g.logTag+"err in set geom of feature", zap.Error(e))
			continue
		}
		if e = l.Create(feature); e != nil {
			log.Error(g.logTag+"err in create feature of layer", zap.Error(e))
			continue
		}
		cnt++
	}
	for _, v := range gc {
		v.Destroy()
	}
	log.Info(g.logTag+"zone layer created", zap.String("layer", layer), zap.Int("total", len(zones)), zap.Int("valid", cnt))
	if cnt < len(zones) {
		err = fmt.Errorf("%w: %d of %d zones written", ErrGdalDriverCreate, cnt, len(zones))
	}
	return
}

// 读取属性表中某字段各区域的值，空值读为zonal.Undefined
func (g *GdalToolbox) ReadValues(layer, column string) (values map[int]float64, err error) {
	ds, l, err := g.openLayer(layer, false)
	if err != nil {
		return
	}
	defer ds.Destroy()
	def := l.Definition()
	idx := fieldIndex(def, column)
	if idx < 0 {
		err = fmt.Errorf("%w: "+ErrColumnMissingTemplate, zonal.ErrColumnMissing, column)
		return
	}
	var (
		catIdx  = def.FieldIndex(SHP_FIELD_CAT)
		feature *gdal.Feature
		v       float64
		gc      []destroyable
	)
	defer func() {
		for _, v := range gc {
			v.Destroy()
		}
	}()
	values = map[int]float64{}
	for {
		if feature = l.NextFeature(); feature == nil {
			return
		}
		gc = append(gc, *feature)
		if fieldIsNull(feature, idx) {
			v = zonal.Undefined
		} else {
			v = feature.FieldAsFloat64(idx)
		}
		values[featureCat(feature, catIdx)] = v
	}
}

// dbf中的空值读出时为未设置或空串
func fieldIsNull(f *gdal.Feature, idx int) bool {
	return !f.IsFieldSet(idx) || f.FieldAsString(idx) == ""
}
