package rembg

import (
	"context"
	"time"
)

// Stats 各阶段结束后的背景像素数与耗时
type Stats struct {
	Flooded   int
	Closed    int
	Feathered int
	Elapsed   time.Duration
}

// Result 一次运行的产物。Buffer 即传入的缓冲，alpha 已被改写
type Result struct {
	Buffer *Buffer
	Mask   *Mask
	Stats  Stats
}

// Run 依次执行 洪水填充 -> 闭运算 -> 羽化 -> 合成
//
// 参数与缓冲在任何像素处理之前校验；ctx 在阶段之间检查，
// 被取消时直接返回 ctx.Err()，此时 buf 尚未被修改
func Run(ctx context.Context, buf *Buffer, p Params) (*Result, error) {
	start := time.Now()

	mask, stats, err := BuildMask(ctx, buf, p)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	Composite(buf, mask)
	stats.Elapsed = time.Since(start)

	return &Result{Buffer: buf, Mask: mask, Stats: stats}, nil
}

// BuildMask 只生成最终掩码，不修改 buf
func BuildMask(ctx context.Context, buf *Buffer, p Params) (*Mask, Stats, error) {
	var stats Stats
	if err := buf.Validate(); err != nil {
		return nil, stats, err
	}
	if err := p.Validate(); err != nil {
		return nil, stats, err
	}

	mask := FloodFill(buf, p)
	stats.Flooded = mask.Count()
	if err := ctx.Err(); err != nil {
		return nil, stats, err
	}

	mask = Close(mask, p.MorphRadius)
	stats.Closed = mask.Count()
	if err := ctx.Err(); err != nil {
		return nil, stats, err
	}

	mask = Feather(mask, p.FeatherRadius)
	stats.Feathered = mask.Count()

	return mask, stats, nil
}
