package zonalstats

import (
	"fmt"
	"math"
)

func PointsToWkt(lon1, lon2, lat1, lat2 float64) string {
	return fmt.Sprintf("POLYGON((%[1]f %[3]f, %[1]f %[4]f, %[2]f %[4]f, %[2]f %[3]f, %[1]f %[3]f))", lon1, lon2, lat1, lat2)
}

func SpanToWkt(span [4]float64) string {
	return PointsToWkt(span[0], span[1], span[2], span[3])
}

// 地理坐标 -> 像元坐标（非旋转栅格）
func geoToPixel(gt [6]float64, x, y float64) (px, py float64) {
	px = (x - gt[0]) / gt[1]
	py = (y - gt[3]) / gt[5]
	return
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// 外包框覆盖的像元窗口，已裁剪到栅格范围内
func envelopeWindow(gt [6]float64, sizeX, sizeY int, minX, maxX, minY, maxY float64) (win window) {
	ax, ay := geoToPixel(gt, minX, minY)
	bx, by := geoToPixel(gt, maxX, maxY)
	x0 := clampInt(int(math.Floor(math.Min(ax, bx))), 0, sizeX)
	x1 := clampInt(int(math.Ceil(math.Max(ax, bx))), 0, sizeX)
	y0 := clampInt(int(math.Floor(math.Min(ay, by))), 0, sizeY)
	y1 := clampInt(int(math.Ceil(math.Max(ay, by))), 0, sizeY)
	win = window{x0: x0, y0: y0, w: x1 - x0, h: y1 - y0}
	return
}

// 窗口左上角对应的地理变换参数
func windowTransform(gt [6]float64, win window) [6]float64 {
	gt[0] += float64(win.x0) * gt[1]
	gt[3] += float64(win.y0) * gt[5]
	return gt
}

// 像元窗口对应的地理范围[minX, maxX, minY, maxY]
func windowSpan(gt [6]float64, win window) (span [4]float64) {
	wt := windowTransform(gt, win)
	x1 := wt[0] + float64(win.w)*wt[1]
	y1 := wt[3] + float64(win.h)*wt[5]
	span = [4]float64{math.Min(wt[0], x1), math.Max(wt[0], x1), math.Min(wt[3], y1), math.Max(wt[3], y1)}
	return
}
