package zonal

// 设置/移除区域掩膜。同一时刻最多只能有一个掩膜生效
type MaskSetter interface {
	SetMask(layer string, cat int) error
	RemoveMask() error
}

// 在当前掩膜范围内统计栅格像元
type RasterReader interface {
	CellStats(raster string) (CellStats, error)
}

// 矢量属性表读写
type AttributeTable interface {
	Cats(layer string) ([]int, error)
	Columns(layer string) ([]string, error)
	AddColumn(layer string, col Column) error
	UpdateValue(layer, column string, cat int, value float64) error
}

// GIS会话环境检查，失败时应返回ErrSessionNotReady
type Session interface {
	Check(layer string) error
}

// 区域统计所需的GIS引擎能力
type Engine interface {
	Session
	MaskSetter
	RasterReader
	AttributeTable
}
