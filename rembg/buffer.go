package rembg

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"
)

// Buffer 行优先的 RGBA 像素缓冲，每像素 4 字节，通道顺序固定为 R,G,B,A
// 像素值为非预乘 alpha（与 image.NRGBA 一致），合成阶段只会改写 alpha 通道
type Buffer struct {
	Pix    []uint8
	Width  int
	Height int
}

// NewBuffer 校验尺寸后包装调用方提供的像素数据，不复制
func NewBuffer(pix []uint8, width, height int) (*Buffer, error) {
	b := &Buffer{Pix: pix, Width: width, Height: height}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// BufferFromImage 把任意图像复制为紧凑步长的 NRGBA 缓冲，原图不会被修改
func BufferFromImage(img image.Image) *Buffer {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Src)
	return &Buffer{Pix: dst.Pix, Width: w, Height: h}
}

func (b *Buffer) Validate() error {
	if b == nil {
		return fmt.Errorf("buffer is nil: %w", ErrInvalidDimensions)
	}
	if b.Width <= 0 || b.Height <= 0 {
		return fmt.Errorf("size %dx%d: %w", b.Width, b.Height, ErrInvalidDimensions)
	}
	if len(b.Pix) != b.Width*b.Height*4 {
		return fmt.Errorf("buffer length %d, want %d: %w", len(b.Pix), b.Width*b.Height*4, ErrInvalidDimensions)
	}
	return nil
}

// Clone 深拷贝像素数据
func (b *Buffer) Clone() *Buffer {
	pix := make([]uint8, len(b.Pix))
	copy(pix, b.Pix)
	return &Buffer{Pix: pix, Width: b.Width, Height: b.Height}
}

// NRGBA 以 *image.NRGBA 视图共享同一块像素内存
func (b *Buffer) NRGBA() *image.NRGBA {
	return &image.NRGBA{
		Pix:    b.Pix,
		Stride: b.Width * 4,
		Rect:   image.Rect(0, 0, b.Width, b.Height),
	}
}

func (b *Buffer) rgb(p int) (r, g, bl uint8) {
	i := p * 4
	return b.Pix[i], b.Pix[i+1], b.Pix[i+2]
}
