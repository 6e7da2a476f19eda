package zonal

import (
	"fmt"
	"sort"
)

// 属性表字段类型
type ColumnType string

const (
	ColumnInt    ColumnType = "int"
	ColumnFloat  ColumnType = "float"
	ColumnString ColumnType = "string"
)

// 字段类型对应的SQL类型
func (t ColumnType) SQLType() (string, error) {
	switch t {
	case ColumnInt:
		return "integer", nil
	case ColumnFloat:
		return "double precision", nil
	case ColumnString:
		return "varchar(20)", nil
	}
	return "", fmt.Errorf("%w: unsupported type %q", ErrInvalidColumn, string(t))
}

// 属性表字段
type Column struct {
	Name string
	Type ColumnType
}

// 当前掩膜范围内的像元计数（每个取值的像元数，以及空值像元数）
type CellStats struct {
	Counts map[float64]int
	Null   int
}

func NewCellStats() CellStats {
	return CellStats{Counts: map[float64]int{}}
}

// 有效（非空值）像元数
func (s CellStats) Valid() (n int) {
	for _, c := range s.Counts {
		n += c
	}
	return
}

// 出现过的取值，升序
func (s CellStats) Values() []float64 {
	vs := make([]float64, 0, len(s.Counts))
	for v, c := range s.Counts {
		if c > 0 {
			vs = append(vs, v)
		}
	}
	sort.Float64s(vs)
	return vs
}
