package rembg

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// HSV 返回 h∈[0,1)、s∈[0,1]、v∈[0,1]
func HSV(r, g, b uint8) (h, s, v float64) {
	c := colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
	h, s, v = c.Hsv()
	return h / 360, s, v
}

// IsBackground 判断像素是否属于背景，任一规则命中即为背景
func IsBackground(r, g, b uint8, p Params) bool {
	_, s, v := HSV(r, g, b)
	// v 由最大通道除以 255 得到，取整后恢复为精确的通道值
	v255 := math.Round(v * 255)
	ri, gi, bi := int(r), int(g), int(b)
	brightness := float64(ri+gi+bi) / 3

	// 1. HSV：高明度 + 低饱和
	if v255 >= float64(p.ValueThreshold) && s <= p.SaturationThreshold {
		return true
	}

	// 2. 亮度 + 到纯白的距离
	if brightness >= float64(p.BrightnessThreshold) {
		dr, dg, db := float64(255-ri), float64(255-gi), float64(255-bi)
		if math.Sqrt(dr*dr+dg*dg+db*db) <= float64(p.DistanceThreshold) {
			return true
		}
	}

	// 3. 接近灰色的纯色背景
	maxDiff := max(absInt(ri-gi), absInt(gi-bi), absInt(bi-ri))
	if maxDiff <= p.UniformThreshold && brightness >= float64(p.UniformBrightness) {
		return true
	}

	// 4. 极限模式：除了很暗的颜色几乎全部去除
	if p.Extreme() {
		f := p.extremeFactor()
		guard := float64(p.ExtremeBrightnessGuard)

		if brightness >= 30+f*225 {
			return true
		}
		if s >= 0.05+f*0.95 && brightness > guard {
			return true
		}
		if v255 >= 20+f*235 && brightness > guard {
			return true
		}
	}

	return false
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
