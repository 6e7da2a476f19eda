package zonal

import "errors"

var (
	// 字段错误
	ErrColumnExists  = errors.New("column already exists")
	ErrColumnMissing = errors.New("column missing")
	ErrInvalidColumn = errors.New("invalid column")

	// 掩膜错误
	ErrMaskActive = errors.New("another mask is active")
	ErrMaskSet    = errors.New("set mask failed")
	ErrMaskRemove = errors.New("remove mask failed")

	// 栅格错误
	ErrRasterMissing   = errors.New("raster missing")
	ErrRasterRead      = errors.New("raster read failed")
	ErrNonBinaryRaster = errors.New("raster values must be either 0, 1, or null")
	ErrGridSize        = errors.New("grid size mismatch")

	ErrZoneNotFound    = errors.New("zone not found")
	ErrLayerNotFound   = errors.New("layer not found")
	ErrUnknownMetric   = errors.New("unknown metric")
	ErrInvalidTask     = errors.New("invalid zonal task")
	ErrSessionNotReady = errors.New("gis session not initialized")
)
