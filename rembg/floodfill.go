package rembg

// 8 邻域偏移
var (
	neighborDX = [8]int{-1, 0, 1, -1, 1, -1, 0, 1}
	neighborDY = [8]int{-1, -1, -1, 0, 0, 1, 1, 1}
)

// FloodFill 从图像四条边出发做 8 连通广度优先搜索
// 像素被标记当且仅当它被判定为背景，且能经由背景像素连到图像边缘
// 调用方需保证 buf 已通过 Validate
func FloodFill(buf *Buffer, p Params) *Mask {
	w, h := buf.Width, buf.Height
	mask := NewMask(w, h)
	visited := make([]bool, w*h)
	queue := make([]int, 0, 2*(w+h))

	enqueue := func(x, y int) {
		if x < 0 || x >= w || y < 0 || y >= h {
			return
		}
		idx := y*w + x
		if visited[idx] {
			return
		}
		visited[idx] = true

		r, g, b := buf.rgb(idx)
		if IsBackground(r, g, b, p) {
			mask.bits[idx] = true
			queue = append(queue, idx)
		}
	}

	for x := 0; x < w; x++ {
		enqueue(x, 0)
		enqueue(x, h-1)
	}
	for y := 0; y < h; y++ {
		enqueue(0, y)
		enqueue(w-1, y)
	}

	for head := 0; head < len(queue); head++ {
		curr := queue[head]
		cx, cy := curr%w, curr/w
		for d := 0; d < 8; d++ {
			enqueue(cx+neighborDX[d], cy+neighborDY[d])
		}
	}

	return mask
}
