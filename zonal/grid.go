package zonal

import (
	"fmt"
	"math"
)

// 内存栅格，按行优先存储
type Grid struct {
	Width     int
	Height    int
	Cells     []float64
	NoData    float64
	HasNoData bool
}

func NewGrid(width, height int, cells []float64) (g Grid, err error) {
	if width <= 0 || height <= 0 || len(cells) != width*height {
		err = fmt.Errorf("%w: %dx%d with %d cells", ErrGridSize, width, height, len(cells))
		return
	}
	g = Grid{Width: width, Height: height, Cells: cells}
	return
}

// 以行切片构造栅格，便于测试书写
func GridFromRows(rows ...[]float64) (g Grid, err error) {
	if len(rows) == 0 {
		err = fmt.Errorf("%w: no rows", ErrGridSize)
		return
	}
	w := len(rows[0])
	cells := make([]float64, 0, w*len(rows))
	for _, r := range rows {
		if len(r) != w {
			err = fmt.Errorf("%w: ragged rows", ErrGridSize)
			return
		}
		cells = append(cells, r...)
	}
	return NewGrid(w, len(rows), cells)
}

func (g Grid) WithNoData(nd float64) Grid {
	g.NoData = nd
	g.HasNoData = true
	return g
}

func (g Grid) At(x, y int) float64 {
	return g.Cells[y*g.Width+x]
}

// NaN以及等于NoData的像元为空值
func (g Grid) IsNull(v float64) bool {
	return math.IsNaN(v) || (g.HasNoData && v == g.NoData)
}

// 统计全部或footprint内的像元
func (g Grid) Stats(footprint []bool) (st CellStats) {
	st = NewCellStats()
	for i, v := range g.Cells {
		if footprint != nil && !footprint[i] {
			continue
		}
		if g.IsNull(v) {
			st.Null++
			continue
		}
		st.Counts[v]++
	}
	return
}

// 矩形范围[x0,x1)×[y0,y1)内像元的下标
func Rect(width, x0, y0, x1, y1 int) (idx []int) {
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			idx = append(idx, y*width+x)
		}
	}
	return
}
