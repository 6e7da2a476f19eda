package zonalstats

import "errors"

var (
	ErrGdalDriverCreate = errors.New("gdal driver create err")
	ErrGdalDriverOpen   = errors.New("gdal driver open err")
	ErrVoidSrid         = errors.New("gdal shp with void srid")
	ErrInvalidTif       = errors.New("invalid tif")
	ErrTifReadFailed    = errors.New("tif read failed")
	ErrTifWriteFailed   = errors.New("tif write failed")
	ErrRotatedRaster    = errors.New("rotated raster is not supported")
	ErrNoWorkspace      = errors.New("workspace dir not found")
	ErrMapNotFound      = errors.New("input map not found")
	ErrExportFormat     = errors.New("unsupported export format")
)
