package rembg

import (
	"context"
	"image"
)

type Remover interface {
	Remove(ctx context.Context, img image.Image) (image.Image, error)
}

// ColorRemover 本地颜色分类 + 连通性分析的抠图实现
type ColorRemover struct {
	Params Params
}

func NewColorRemover(p Params) *ColorRemover {
	return &ColorRemover{Params: p}
}

// Remove 在图像副本上运行流水线，返回 *image.NRGBA，输入图像不会被修改
func (c *ColorRemover) Remove(ctx context.Context, img image.Image) (image.Image, error) {
	res, err := c.RemoveWithMask(ctx, img)
	if err != nil {
		return nil, err
	}
	return res.Buffer.NRGBA(), nil
}

// RemoveWithMask 同 Remove，额外返回掩码与各阶段统计
func (c *ColorRemover) RemoveWithMask(ctx context.Context, img image.Image) (*Result, error) {
	return Run(ctx, BufferFromImage(img), c.Params)
}
