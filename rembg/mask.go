package rembg

import "image"

// Mask 每像素一个标记，true 表示背景（需要变透明）
type Mask struct {
	bits   []bool
	width  int
	height int
}

func NewMask(width, height int) *Mask {
	return &Mask{
		bits:   make([]bool, width*height),
		width:  width,
		height: height,
	}
}

func (m *Mask) Width() int  { return m.width }
func (m *Mask) Height() int { return m.height }

func (m *Mask) At(x, y int) bool {
	return m.bits[y*m.width+x]
}

func (m *Mask) Set(x, y int, v bool) {
	m.bits[y*m.width+x] = v
}

// Index 按扁平下标读取
func (m *Mask) Index(p int) bool {
	return m.bits[p]
}

// Count 返回被标记的像素数
func (m *Mask) Count() int {
	n := 0
	for _, v := range m.bits {
		if v {
			n++
		}
	}
	return n
}

func (m *Mask) Clone() *Mask {
	bits := make([]bool, len(m.bits))
	copy(bits, m.bits)
	return &Mask{bits: bits, width: m.width, height: m.height}
}

func (m *Mask) Equal(o *Mask) bool {
	if o == nil || m.width != o.width || m.height != o.height {
		return false
	}
	for i := range m.bits {
		if m.bits[i] != o.bits[i] {
			return false
		}
	}
	return true
}

// Gray 导出为灰度图：背景 255，前景 0
func (m *Mask) Gray() *image.Gray {
	g := image.NewGray(image.Rect(0, 0, m.width, m.height))
	for i, v := range m.bits {
		if v {
			g.Pix[i] = 255
		}
	}
	return g
}

// MaskFromAlpha alpha 为 0 的像素标记为背景
func MaskFromAlpha(img *image.NRGBA) *Mask {
	b := img.Bounds()
	m := NewMask(b.Dx(), b.Dy())
	for y := 0; y < b.Dy(); y++ {
		row := y * img.Stride
		for x := 0; x < b.Dx(); x++ {
			m.bits[y*m.width+x] = img.Pix[row+x*4+3] == 0
		}
	}
	return m
}
