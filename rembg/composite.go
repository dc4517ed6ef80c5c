package rembg

// Feather 沿背景边界向外扩展 radius 个像素（单次膨胀，不做腐蚀）
// radius 为 0 时不羽化，原样返回
func Feather(m *Mask, radius int) *Mask {
	return Dilate(m, radius)
}

// Composite 把被标记像素的 alpha 置 0，其余通道与未标记像素保持不变
// 只写不读，像素访问顺序不影响结果；m 与 buf 的尺寸必须一致
func Composite(buf *Buffer, m *Mask) {
	for p, bg := range m.bits {
		if bg {
			buf.Pix[p*4+3] = 0
		}
	}
}
