package zonal

import (
	"fmt"
	"sort"
	"strings"
)

type memLayer struct {
	zones   map[int][]bool // cat -> 区域覆盖的像元
	columns []Column
	values  map[string]map[int]float64
}

// 纯内存的GIS引擎：所有栅格共享同一网格，区域以像元集合表示
type MemoryEngine struct {
	width   int
	height  int
	rasters map[string]Grid
	layers  map[string]*memLayer
	active  []bool
	masked  bool
}

func NewMemoryEngine(width, height int) *MemoryEngine {
	return &MemoryEngine{
		width:   width,
		height:  height,
		rasters: map[string]Grid{},
		layers:  map[string]*memLayer{},
	}
}

func (m *MemoryEngine) AddRaster(name string, g Grid) (err error) {
	if g.Width != m.width || g.Height != m.height || len(g.Cells) != g.Width*g.Height {
		err = fmt.Errorf("%w: raster %s is %dx%d, engine is %dx%d", ErrGridSize, name, g.Width, g.Height, m.width, m.height)
		return
	}
	m.rasters[name] = g
	return
}

// 删除栅格（用于模拟读取失败）
func (m *MemoryEngine) RemoveRaster(name string) {
	delete(m.rasters, name)
}

func (m *MemoryEngine) AddLayer(name string) {
	if _, ok := m.layers[name]; !ok {
		m.layers[name] = &memLayer{
			zones:  map[int][]bool{},
			values: map[string]map[int]float64{},
		}
	}
}

// 添加区域，cells为区域覆盖的像元下标（见Rect）
func (m *MemoryEngine) AddZone(layer string, cat int, cells []int) (err error) {
	l, ok := m.layers[layer]
	if !ok {
		err = fmt.Errorf("%w: %s", ErrLayerNotFound, layer)
		return
	}
	fp := make([]bool, m.width*m.height)
	for _, i := range cells {
		if i < 0 || i >= len(fp) {
			err = fmt.Errorf("%w: cell %d outside %dx%d", ErrGridSize, i, m.width, m.height)
			return
		}
		fp[i] = true
	}
	l.zones[cat] = fp
	return
}

// 读取属性值，未写入时ok为false
func (m *MemoryEngine) Value(layer, column string, cat int) (v float64, ok bool) {
	l, found := m.layers[layer]
	if !found {
		return
	}
	vals, found := l.values[strings.ToLower(column)]
	if !found {
		return
	}
	v, ok = vals[cat]
	return
}

func (m *MemoryEngine) MaskActive() bool {
	return m.masked
}

func (m *MemoryEngine) layer(name string) (l *memLayer, err error) {
	l, ok := m.layers[name]
	if !ok {
		err = fmt.Errorf("%w: %s", ErrLayerNotFound, name)
	}
	return
}

func (m *MemoryEngine) Check(layer string) (err error) {
	if _, ok := m.layers[layer]; !ok {
		err = fmt.Errorf("%w: layer %s not loaded", ErrSessionNotReady, layer)
	}
	return
}

func (m *MemoryEngine) SetMask(layer string, cat int) (err error) {
	if m.masked {
		return ErrMaskActive
	}
	l, err := m.layer(layer)
	if err != nil {
		return
	}
	fp, ok := l.zones[cat]
	if !ok {
		return fmt.Errorf("%w: cat %d", ErrZoneNotFound, cat)
	}
	m.active = fp
	m.masked = true
	return
}

func (m *MemoryEngine) RemoveMask() error {
	m.active = nil
	m.masked = false
	return nil
}

func (m *MemoryEngine) CellStats(raster string) (st CellStats, err error) {
	g, ok := m.rasters[raster]
	if !ok {
		err = fmt.Errorf("%w: %s", ErrRasterMissing, raster)
		return
	}
	st = g.Stats(m.active)
	return
}

func (m *MemoryEngine) Cats(layer string) (cats []int, err error) {
	l, err := m.layer(layer)
	if err != nil {
		return
	}
	cats = make([]int, 0, len(l.zones))
	for c := range l.zones {
		cats = append(cats, c)
	}
	sort.Ints(cats)
	return
}

func (m *MemoryEngine) Columns(layer string) (names []string, err error) {
	l, err := m.layer(layer)
	if err != nil {
		return
	}
	names = []string{"cat"}
	for _, c := range l.columns {
		names = append(names, c.Name)
	}
	return
}

func (m *MemoryEngine) AddColumn(layer string, col Column) (err error) {
	l, err := m.layer(layer)
	if err != nil {
		return
	}
	if _, err = col.Type.SQLType(); err != nil {
		return
	}
	key := strings.ToLower(col.Name)
	if key == "cat" {
		return fmt.Errorf("%w: %s", ErrColumnExists, col.Name)
	}
	for _, c := range l.columns {
		if strings.ToLower(c.Name) == key {
			return fmt.Errorf("%w: %s", ErrColumnExists, col.Name)
		}
	}
	l.columns = append(l.columns, col)
	l.values[key] = map[int]float64{}
	return
}

func (m *MemoryEngine) UpdateValue(layer, column string, cat int, value float64) (err error) {
	l, err := m.layer(layer)
	if err != nil {
		return
	}
	if _, ok := l.zones[cat]; !ok {
		return fmt.Errorf("%w: cat %d", ErrZoneNotFound, cat)
	}
	vals, ok := l.values[strings.ToLower(column)]
	if !ok {
		return fmt.Errorf("%w: %s", ErrColumnMissing, column)
	}
	vals[cat] = value
	return
}

// 列出已添加的字段（不含cat）
func (m *MemoryEngine) ColumnDefs(layer string) (cols []Column, err error) {
	l, err := m.layer(layer)
	if err != nil {
		return
	}
	cols = append(cols, l.columns...)
	return
}
