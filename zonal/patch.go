package zonal

const (
	BackgroundPatch = 0  // 背景像元的斑块ID
	PatchNoData     = -1 // 斑块ID栅格的空值
)

// 对全图范围内的生境像元（值为1）进行连通斑块标记，返回斑块ID栅格及斑块数。
// 斑块ID从1开始编号，非生境像元为BackgroundPatch，空值像元保持为空。
// eightConnected为true时对角相邻的像元视为同一斑块
func LabelPatches(g Grid, eightConnected bool) (out Grid, n int) {
	out = Grid{
		Width:     g.Width,
		Height:    g.Height,
		Cells:     make([]float64, len(g.Cells)),
		NoData:    PatchNoData,
		HasNoData: true,
	}
	offsets := [][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	if eightConnected {
		offsets = append(offsets, [2]int{1, 1}, [2]int{1, -1}, [2]int{-1, 1}, [2]int{-1, -1})
	}
	labels := make([]int, len(g.Cells))
	var queue []int
	for i, v := range g.Cells {
		if g.IsNull(v) {
			out.Cells[i] = out.NoData
			continue
		}
		if v != 1 || labels[i] != 0 {
			continue
		}
		n++
		labels[i] = n
		queue = append(queue[:0], i)
		for len(queue) > 0 {
			c := queue[0]
			queue = queue[1:]
			cx, cy := c%g.Width, c/g.Width
			for _, o := range offsets {
				x, y := cx+o[0], cy+o[1]
				if x < 0 || y < 0 || x >= g.Width || y >= g.Height {
					continue
				}
				j := y*g.Width + x
				if labels[j] != 0 || g.Cells[j] != 1 {
					continue
				}
				labels[j] = n
				queue = append(queue, j)
			}
		}
	}
	for i, l := range labels {
		if l != 0 {
			out.Cells[i] = float64(l)
		}
	}
	return
}
