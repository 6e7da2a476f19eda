package zonalstats

const (
	FILE_EXT_SHP    = ".shp"
	FILE_EXT_TIF    = ".tif"
	FILE_EXT_JSON   = ".json"
	FILE_EXT_CSV    = ".csv"
	SHAPE_ENCODING  = "UTF-8"
	ZH_ENC          = "GBK"
	SHP_DRIVER_NAME = "ESRI Shapefile"
	ENCODING_OPTION = "ENCODING=" + SHAPE_ENCODING
	OO_ENCODING     = "ENCODING=" + ZH_ENC
	UNIVERSAL_SRID  = 4326

	ErrColumnMissingTemplate = `shp文件中缺失【%s】字段`

	// 工作区内矢量/栅格子目录（相当于GRASS的mapset）
	VECTOR_DIR = "vector"
	RASTER_DIR = "raster"

	// 区域编号字段（对应v.in.ogr生成的cat），缺失时以FID+1作为编号
	SHP_FIELD_CAT = "cat"

	// 字段宽度/精度
	FIELD_WIDTH_INT    = 10
	FIELD_WIDTH_FLOAT  = 24
	FIELD_PREC_FLOAT   = 15
	FIELD_WIDTH_STRING = 20

	TMP_RASTER = "tmp_%s" + FILE_EXT_TIF
)

// 导出格式 -> OGR驱动名
var exportDrivers = map[string]string{
	FILE_EXT_SHP:  SHP_DRIVER_NAME,
	FILE_EXT_JSON: "GeoJSON",
	".geojson":    "GeoJSON",
	FILE_EXT_CSV:  "CSV",
}
