// Package reveal 为逐步显现的动画提供像素清除顺序。
// 只影响展示过程，最终结果与一次性合成完全相同。
package reveal

import (
	"image"

	"github.com/chaos-io/bgremover/rembg"
)

// Order 把掩码中的背景像素分为边缘与内部两组，均按行优先排列
// 边缘像素：8 邻域内（图像内）至少有一个前景像素
func Order(m *rembg.Mask) (edges, interior []int) {
	w, h := m.Width(), m.Height()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !m.At(x, y) {
				continue
			}
			p := y*w + x
			if isEdge(m, x, y) {
				edges = append(edges, p)
			} else {
				interior = append(interior, p)
			}
		}
	}
	return edges, interior
}

// Sequence 边缘在前、内部在后的完整清除顺序
func Sequence(m *rembg.Mask) []int {
	edges, interior := Order(m)
	return append(edges, interior...)
}

func isEdge(m *rembg.Mask, x, y int) bool {
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			nx, ny := x+dx, y+dy
			if nx < 0 || nx >= m.Width() || ny < 0 || ny >= m.Height() {
				continue
			}
			if !m.At(nx, ny) {
				return true
			}
		}
	}
	return false
}

// Frames 生成 n 帧逐步清除的图像，最后一帧等于完整合成结果
// src 不会被修改
func Frames(src *rembg.Buffer, m *rembg.Mask, n int) []*image.NRGBA {
	if n <= 0 {
		return nil
	}

	seq := Sequence(m)
	cur := src.Clone()
	frames := make([]*image.NRGBA, 0, n)

	done := 0
	for i := 1; i <= n; i++ {
		upto := len(seq) * i / n
		for ; done < upto; done++ {
			cur.Pix[seq[done]*4+3] = 0
		}
		frames = append(frames, cur.Clone().NRGBA())
	}
	return frames
}
