package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const (
	FILE_EXT_SHP = ".shp"
	FILE_EXT_CPG = ".cpg"

	UTF8  = "UTF8"
	UTF_8 = "UTF-8"
)

// shapefile的附属文件
var shpSidecars = []string{".shp", ".shx", ".dbf", ".prj", ".cpg", ".qix", ".sbn", ".sbx"}

// 生成唯一的临时文件路径，pattern中的%s替换为uuid
func GetUniqTmpPath(dir, pattern string) string {
	return filepath.Join(dir, fmt.Sprintf(pattern, uuid.NewString()))
}

func GetFilenameWithoutExt(path string) (name string) {
	name = filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(path))
	return
}

func FileExists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && !fi.IsDir()
}

// 读取shp的cpg文件，判断dbf是否为UTF-8编码
func ShpIsUtf8(shp string) (utf8 bool, found bool) {
	cpg := strings.TrimSuffix(shp, FILE_EXT_SHP) + FILE_EXT_CPG
	enc, e := os.ReadFile(cpg)
	if e != nil || len(enc) == 0 {
		return
	}
	found = true
	encStr := strings.ToUpper(strings.TrimSpace(string(enc)))
	utf8 = encStr == UTF_8 || encStr == UTF8
	return
}

// 删除shapefile及其附属文件
func RemoveShapefile(shp string) (err error) {
	prefix := strings.TrimSuffix(shp, FILE_EXT_SHP)
	for _, ext := range shpSidecars {
		if e := os.Remove(prefix + ext); e != nil && !os.IsNotExist(e) {
			err = e
		}
	}
	return
}
