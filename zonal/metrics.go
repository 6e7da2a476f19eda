package zonal

import (
	"fmt"
	"math"
)

const (
	MetricProportionHabitat = "proportion_habitat"
	MetricPercentHabitat    = "percent_habitat"
	MetricNumberPatches     = "number_patches"
)

// 有效像元数为0时比例无定义
var Undefined = math.NaN()

func IsUndefined(v float64) bool {
	return math.IsNaN(v)
}

type MetricFunc func(rr RasterReader, raster string) (float64, error)

// 在当前掩膜下对单个栅格计算的指标
type Metric struct {
	Name string
	Func MetricFunc
}

func (m Metric) Compute(rr RasterReader, raster string) (float64, error) {
	return m.Func(rr, raster)
}

// 未指定字段类型时的默认类型：计数为整型，比例为浮点型
func (m Metric) ColumnType() ColumnType {
	if m.Name == MetricNumberPatches {
		return ColumnInt
	}
	return ColumnFloat
}

var (
	HabitatProportion = Metric{Name: MetricProportionHabitat, Func: ProportionHabitat}
	HabitatPercent    = Metric{Name: MetricPercentHabitat, Func: PercentHabitat}
)

// 斑块数指标，background为背景值
func PatchCount(background float64) Metric {
	return Metric{
		Name: MetricNumberPatches,
		Func: func(rr RasterReader, raster string) (float64, error) {
			n, err := NumberPatches(rr, raster, background)
			return float64(n), err
		},
	}
}

// 按名称获取指标（number_patches需要背景值）
func MetricByName(name string, background float64) (m Metric, err error) {
	switch name {
	case MetricProportionHabitat:
		m = HabitatProportion
	case MetricPercentHabitat:
		m = HabitatPercent
	case MetricNumberPatches:
		m = PatchCount(background)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownMetric, name)
	}
	return
}

// 生境比例：掩膜内值为1的像元数 / 有效像元数。raster须为0/1二值图
func ProportionHabitat(rr RasterReader, raster string) (ret float64, err error) {
	st, err := rr.CellStats(raster)
	if err != nil {
		err = fmt.Errorf("cell stats of %s: %w", raster, err)
		return
	}
	for _, v := range st.Values() {
		if v != 0 && v != 1 {
			err = fmt.Errorf("%w: raster %s has value %g", ErrNonBinaryRaster, raster, v)
			return
		}
	}
	ones := st.Counts[1]
	valid := ones + st.Counts[0]
	if valid == 0 {
		ret = Undefined
		return
	}
	ret = float64(ones) / float64(valid)
	return
}

// 生境百分比（0~100）
func PercentHabitat(rr RasterReader, raster string) (ret float64, err error) {
	if ret, err = ProportionHabitat(rr, raster); err == nil && !IsUndefined(ret) {
		ret *= 100
	}
	return
}

// 斑块数：掩膜内出现的不同非背景斑块ID个数。
// 斑块ID在全图范围内预先计算，跨越多个区域的斑块在每个区域各计一次
func NumberPatches(rr RasterReader, raster string, background float64) (n int, err error) {
	st, err := rr.CellStats(raster)
	if err != nil {
		err = fmt.Errorf("cell stats of %s: %w", raster, err)
		return
	}
	for _, v := range st.Values() {
		if v != background {
			n++
		}
	}
	return
}
