package preprocess

import (
	"context"
	"errors"
	"image"

	"github.com/chaos-io/bgremover/rembg"
	"github.com/disintegration/imaging"
)

// ErrNoForeground 抠图后没有留下任何主体像素
var ErrNoForeground = errors.New("no foreground detected")

type Preprocessor struct {
	RemBG rembg.Remover

	// MaxSide 最长边上限，<=0 表示不缩放
	MaxSide int
	// KeepAlpha 输入已带有透明信息时跳过抠图
	KeepAlpha bool
	// Trim 按主体 alpha 包围盒裁剪；Square 时裁成以主体为中心的正方形
	Trim   bool
	Square bool
	// TrimThreshold alpha > TrimThreshold*255 的像素视为主体
	TrimThreshold float64
	// Premultiply 输出前预乘 alpha，透明区域变为黑色
	Premultiply bool
}

func NewPreprocessor(remover rembg.Remover) *Preprocessor {
	return &Preprocessor{
		RemBG:         remover,
		MaxSide:       1024,
		KeepAlpha:     true,
		TrimThreshold: 0.8,
	}
}

// Output 一次预处理的全部产物，三者尺寸相同
type Output struct {
	// Image 最终输出
	Image *image.NRGBA
	// Source 与 Image 同样缩放、裁剪，但未去背景、未预乘
	Source *image.NRGBA
	// Mask Image 中完全透明的像素
	Mask *rembg.Mask
}

// ImagePreprocess 把任意输入图片变成
//
//	尺寸 ≤ MaxSide
//	背景被移除（alpha 为 0）
//	可选：裁剪到主体、正方形居中、预乘 alpha
func (p *Preprocessor) ImagePreprocess(ctx context.Context, input image.Image) (*image.NRGBA, error) {
	out, err := p.Process(ctx, input)
	if err != nil {
		return nil, err
	}
	return out.Image, nil
}

// Process 同 ImagePreprocess，额外返回对齐的原图与透明掩码
func (p *Preprocessor) Process(ctx context.Context, input image.Image) (*Output, error) {
	// 复制为 NRGBA，后续步骤不会改动调用方的图像
	src := imaging.Clone(input)

	// 1. 判断是否已有有效 Alpha
	hasAlpha := p.KeepAlpha && hasUsefulAlpha(src)

	// 2. 缩放
	if p.MaxSide > 0 {
		src = ResizeWithinMax(src, p.MaxSide)
	}

	// 3. 背景去除
	output := src
	if !hasAlpha {
		bgRemoved, err := p.RemBG.Remove(ctx, src)
		if err != nil {
			return nil, err
		}
		output = toNRGBA(bgRemoved)
	}

	// 4. 裁剪，原图按同一矩形裁剪
	if p.Trim {
		bbox, err := alphaBBox(output, p.TrimThreshold)
		if err != nil {
			return nil, err
		}
		if p.Square {
			bbox = squareAround(bbox)
		}
		output = crop(output, bbox)
		src = crop(src, bbox)
	}

	mask := rembg.MaskFromAlpha(output)

	// 5. 预乘 Alpha
	if p.Premultiply {
		if output == src {
			output = imaging.Clone(output)
		}
		premultiply(output)
	}

	return &Output{Image: output, Source: src, Mask: mask}, nil
}

// alphaBBox 从 alpha 通道计算主体 bounding box
// 把 alpha > threshold * 255 的像素当作“主体”，找所有主体像素的坐标
func alphaBBox(img *image.NRGBA, threshold float64) (image.Rectangle, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	th := uint8(threshold * 255)

	minX, minY := w, h
	maxX, maxY := 0, 0
	found := false

	for y := 0; y < h; y++ {
		row := y * img.Stride
		for x := 0; x < w; x++ {
			if img.Pix[row+x*4+3] <= th {
				continue
			}
			found = true
			minX = min(minX, x)
			minY = min(minY, y)
			maxX = max(maxX, x)
			maxY = max(maxY, y)
		}
	}

	if !found {
		return image.Rectangle{}, ErrNoForeground
	}

	return image.Rect(minX, minY, maxX+1, maxY+1).Add(b.Min), nil
}

// premultiply 预乘 Alpha，RGB × alpha
// 例如：红色半透明 (1,0,0,0.5) → (0.5,0,0)，透明背景变为纯黑
func premultiply(img *image.NRGBA) {
	for i := 0; i < len(img.Pix); i += 4 {
		a := float64(img.Pix[i+3]) / 255.0
		img.Pix[i] = uint8(float64(img.Pix[i]) * a)
		img.Pix[i+1] = uint8(float64(img.Pix[i+1]) * a)
		img.Pix[i+2] = uint8(float64(img.Pix[i+2]) * a)
	}
}
