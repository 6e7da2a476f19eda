package zonalstats

type GdalGeo = []byte

// 区域矢量
type Zone struct {
	Cat  int
	Geom GdalGeo // 区域矢量面WKB
}

// 参与区域统计的地图
type LoadedMaps struct {
	Vector   string
	Rasters  []string
	Imported []string // 本次导入工作区的地图
	Reused   []string // 工作区中已存在、未重新导入的地图
}

// 当前生效的区域掩膜
type zoneMask struct {
	layer  string
	cat    int
	geom   GdalGeo
	srsWkt string
}
