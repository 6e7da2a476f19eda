package zonalstats

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wgdzlh/zonalstats/log"
	"github.com/wgdzlh/zonalstats/utils"

	"github.com/airbusgeo/godal"
	"github.com/lukeroth/gdal"
	"go.uber.org/zap"
)

// 初始化工作区目录
func (g *GdalToolbox) InitWorkspace() (err error) {
	for _, sub := range []string{VECTOR_DIR, RASTER_DIR} {
		if err = os.MkdirAll(filepath.Join(g.workspace, sub), os.ModePerm); err != nil {
			log.Error(g.logTag+"init workspace failed", zap.String("workspace", g.workspace), zap.Error(err))
			return
		}
	}
	if g.tmpDir != "" {
		err = os.MkdirAll(g.tmpDir, os.ModePerm)
	}
	return
}

// 地图名：去除目录及扩展名
func mapName(s string) string {
	return utils.GetFilenameWithoutExt(s)
}

// 输入地图路径：s为相对路径时位于folder目录下，缺省扩展名为ext
func inputPath(folder, s, ext string) string {
	if filepath.Ext(s) == "" {
		s += ext
	}
	if filepath.IsAbs(s) || folder == "" {
		return s
	}
	return filepath.Join(folder, s)
}

// 将区域矢量及栅格从folder导入工作区；已存在的地图默认复用，overwrite时重新导入
func (g *GdalToolbox) Load(folder, vector string, overwriteVector bool, rasters []string, overwriteRasters bool) (maps LoadedMaps, err error) {
	if err = g.InitWorkspace(); err != nil {
		return
	}
	maps.Vector = mapName(vector)
	if utils.FileExists(g.vectorPath(maps.Vector)) && !overwriteVector {
		log.Warn(g.logTag+"vector already present in the workspace and was not imported again", zap.String("vector", maps.Vector))
		maps.Reused = append(maps.Reused, maps.Vector)
	} else {
		if err = g.ImportVector(inputPath(folder, vector, FILE_EXT_SHP), maps.Vector); err != nil {
			return
		}
		maps.Imported = append(maps.Imported, maps.Vector)
	}
	for _, r := range rasters {
		name := mapName(r)
		maps.Rasters = append(maps.Rasters, name)
		if utils.FileExists(g.rasterPath(name)) && !overwriteRasters {
			log.Warn(g.logTag+"raster already present in the workspace and was not imported again", zap.String("raster", name))
			maps.Reused = append(maps.Reused, name)
			continue
		}
		if err = g.ImportRaster(inputPath(folder, r, FILE_EXT_TIF), name); err != nil {
			return
		}
		maps.Imported = append(maps.Imported, name)
	}
	log.Info(g.logTag+"maps to be used in zonal statistics", zap.String("vector", maps.Vector), zap.Strings("rasters", maps.Rasters),
		zap.Strings("imported", maps.Imported), zap.Strings("reused", maps.Reused))
	return
}

// 导入shp作为工作区矢量，dbf统一转为UTF-8编码
func (g *GdalToolbox) ImportVector(shp, name string) (err error) {
	if !utils.FileExists(shp) {
		err = fmt.Errorf("%w: %s", ErrMapNotFound, shp)
		return
	}
	var openOpts []string
	// cpg为空，或者不为UTF-8的，都当作GBK编码处理
	if isUtf8, _ := utils.ShpIsUtf8(shp); !isUtf8 {
		openOpts = []string{OO_ENCODING}
	}
	sds, err := gdal.OpenEx(shp, gdal.OFVector, nil, openOpts, nil)
	if err != nil {
		log.Error(g.logTag+"open shp error", zap.Error(err))
		return
	}
	defer sds.Close()
	log.Info(g.logTag+"start import shp", zap.String("shp", shp), zap.Bool("gbk", openOpts != nil))
	out := g.vectorPath(name)
	if err = utils.RemoveShapefile(out); err != nil {
		return
	}
	dds, err := gdal.VectorTranslate(out, []gdal.Dataset{sds}, []string{"-nln", name, "-lco", ENCODING_OPTION})
	if err != nil {
		log.Error(g.logTag+"VectorTranslate failed", zap.Error(err))
		return
	}
	dds.Close() // 生成工作区内的shp文件
	if srid, e := g.GetSridOfLayer(name); e != nil {
		log.Warn(g.logTag+"imported vector without known srid", zap.String("vector", name), zap.Error(e))
	} else {
		log.Info(g.logTag+"vector was successfully imported", zap.String("vector", name), zap.Int("srid", srid))
	}
	return
}

// 导入GeoTIFF作为工作区栅格
func (g *GdalToolbox) ImportRaster(tif, name string) (err error) {
	if !utils.FileExists(tif) {
		err = fmt.Errorf("%w: %s", ErrMapNotFound, tif)
		return
	}
	sds, err := godal.Open(tif, godal.RasterOnly())
	if err != nil {
		log.Error(g.logTag+"open tif failed", zap.String("tif", tif), zap.Error(err))
		err = fmt.Errorf("%w: %s", ErrInvalidTif, tif)
		return
	}
	defer sds.Close()
	tmp := utils.GetUniqTmpPath(g.rasterTmpDir(), TMP_RASTER)
	defer os.Remove(tmp)
	ods, err := sds.Translate(tmp, nil, godal.CreationOption("COMPRESS=LZW"), godal.GTiff)
	if err != nil {
		log.Error(g.logTag+"failed to translate tif", zap.Error(err))
		return
	}
	if err = ods.Close(); err != nil {
		return
	}
	if err = os.Rename(tmp, g.rasterPath(name)); err != nil {
		return
	}
	log.Info(g.logTag+"raster was successfully imported", zap.String("raster", name))
	return
}

// 工作区中的地图名
func (g *GdalToolbox) ListMaps() (vectors, rasters []string, err error) {
	list := func(dir, ext string) (names []string, err error) {
		files, err := filepath.Glob(filepath.Join(g.workspace, dir, "*"+ext))
		if err != nil {
			return
		}
		for _, f := range files {
			name := mapName(f)
			if strings.HasPrefix(name, "tmp_") {
				continue
			}
			names = append(names, name)
		}
		return
	}
	if vectors, err = list(VECTOR_DIR, FILE_EXT_SHP); err != nil {
		return
	}
	rasters, err = list(RASTER_DIR, FILE_EXT_TIF)
	return
}
