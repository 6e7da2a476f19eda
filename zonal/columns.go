package zonal

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/wgdzlh/zonalstats/log"

	"go.uber.org/zap"
)

// 字段名长度上限，避免导出为ESRI Shapefile时dbf截断
const MaxColumnNameLen = 10

var validColumnName = regexp.MustCompile(`^[\p{L}_][\p{L}\p{N}_]*$`)

func ValidateColumn(col Column) (err error) {
	if col.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidColumn)
	}
	if len(col.Name) > MaxColumnNameLen {
		return fmt.Errorf("%w: name %q longer than %d characters", ErrInvalidColumn, col.Name, MaxColumnNameLen)
	}
	if !validColumnName.MatchString(col.Name) {
		return fmt.Errorf("%w: name %q is not an identifier", ErrInvalidColumn, col.Name)
	}
	_, err = col.Type.SQLType()
	return
}

// 确保属性表中存在所需字段。已存在的字段保持原样（不改变类型），返回新建的字段名
func CreateColumns(tbl AttributeTable, layer string, cols []Column) (created []string, err error) {
	for _, c := range cols {
		if err = ValidateColumn(c); err != nil {
			return
		}
	}
	existing, err := tbl.Columns(layer)
	if err != nil {
		return
	}
	known := make(map[string]struct{}, len(existing)+len(cols))
	for _, name := range existing {
		known[strings.ToLower(name)] = struct{}{}
	}
	for _, c := range cols {
		key := strings.ToLower(c.Name)
		if _, ok := known[key]; ok {
			log.Info("ZonalStats:column already exists, its values will be overwritten", zap.String("layer", layer), zap.String("column", c.Name))
			continue
		}
		if e := tbl.AddColumn(layer, c); e != nil {
			if errors.Is(e, ErrColumnExists) {
				log.Info("ZonalStats:column already exists", zap.String("layer", layer), zap.String("column", c.Name))
				known[key] = struct{}{}
				continue
			}
			err = fmt.Errorf("add column %s to %s: %w", c.Name, layer, e)
			return
		}
		sqlType, _ := c.Type.SQLType()
		log.Info("ZonalStats:column created", zap.String("layer", layer), zap.String("column", c.Name), zap.String("type", sqlType))
		known[key] = struct{}{}
		created = append(created, c.Name)
	}
	return
}
