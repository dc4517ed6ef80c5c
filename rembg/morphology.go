package rembg

// Close 形态学闭运算：先膨胀再腐蚀，填补背景区域内的小空洞
// 邻域为 (2r+1)^2 的正方形，图像外的邻居忽略；r<=0 时原样返回
func Close(m *Mask, radius int) *Mask {
	if radius <= 0 {
		return m
	}
	return Erode(Dilate(m, radius), radius)
}

// Dilate 正方形邻域内存在背景像素则标记为背景；r<=0 时原样返回
func Dilate(m *Mask, radius int) *Mask {
	if radius <= 0 {
		return m
	}
	return separable(m, radius, false)
}

// Erode 正方形邻域内存在前景像素则取消标记；r<=0 时原样返回
func Erode(m *Mask, radius int) *Mask {
	if radius <= 0 {
		return m
	}
	return separable(m, radius, true)
}

// separable 正方形窗口可以拆成水平、垂直两次一维窗口运算
// 每次用前缀和统计窗口内的标记数，单像素开销与半径无关
func separable(m *Mask, radius int, erode bool) *Mask {
	w, h := m.width, m.height
	tmp := make([]bool, w*h)
	out := NewMask(w, h)
	prefix := make([]int, max(w, h)+1)

	// 水平
	for y := 0; y < h; y++ {
		linePass(m.bits, tmp, y*w, 1, w, radius, erode, prefix)
	}
	// 垂直
	for x := 0; x < w; x++ {
		linePass(tmp, out.bits, x, w, h, radius, erode, prefix)
	}
	return out
}

// linePass 处理一条从 start 开始、步长为 step、长度为 n 的线
func linePass(src, dst []bool, start, step, n, radius int, erode bool, prefix []int) {
	prefix[0] = 0
	for i := 0; i < n; i++ {
		prefix[i+1] = prefix[i]
		if src[start+i*step] {
			prefix[i+1]++
		}
	}

	for i := 0; i < n; i++ {
		lo := max(0, i-radius)
		hi := min(n-1, i+radius)
		count := prefix[hi+1] - prefix[lo]
		if erode {
			dst[start+i*step] = count == hi-lo+1
		} else {
			dst[start+i*step] = count > 0
		}
	}
}
