package rembg

import (
	"context"
	"sync"
)

// Token 单调递增的调用序号
type Token uint64

// Controller 管理可被取代的重复调用（例如拖动滑块时的连续重算）
// 新调用开始时取消上一次仍在运行的调用，结果只在序号仍为最新时提交
type Controller struct {
	mu     sync.Mutex
	latest Token
	cancel context.CancelFunc
}

func NewController() *Controller {
	return &Controller{}
}

// Begin 开始一次新调用，返回其序号与派生 ctx
func (c *Controller) Begin(ctx context.Context) (Token, context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
	}
	c.latest++
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	return c.latest, runCtx
}

// Current 序号是否仍为最新
func (c *Controller) Current(t Token) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return t == c.latest
}

// Latest 最近一次 Begin 的序号
func (c *Controller) Latest() Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.latest
}

// Commit 仅当 t 为最新时在锁内执行 apply，返回是否已提交
func (c *Controller) Commit(t Token, apply func()) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if t != c.latest {
		return false
	}
	if apply != nil {
		apply()
	}
	return true
}

// Run 在 src 的副本上执行流水线，src 本身不会被修改
// 运行期间若有更新的调用开始，返回 ErrSuperseded
func (c *Controller) Run(ctx context.Context, src *Buffer, p Params, apply func(Token, *Result)) (Token, error) {
	if err := src.Validate(); err != nil {
		return 0, err
	}
	if err := p.Validate(); err != nil {
		return 0, err
	}

	token, runCtx := c.Begin(ctx)
	defer c.release(token)

	res, err := Run(runCtx, src.Clone(), p)
	if err != nil {
		if !c.Current(token) {
			return token, ErrSuperseded
		}
		return token, err
	}

	committed := c.Commit(token, func() {
		if apply != nil {
			apply(token, res)
		}
	})
	if !committed {
		return token, ErrSuperseded
	}
	return token, nil
}

// release 调用结束后释放其 ctx；已被取代的调用由 Begin 负责取消
func (c *Controller) release(t Token) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if t == c.latest && c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

// Stop 取消仍在运行的调用
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}
