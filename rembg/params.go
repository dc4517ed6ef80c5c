package rembg

import (
	"fmt"
	"math"
)

const (
	// extremeStart 激进度超过该值时进入极限模式，extremeSpan 为其到 1 的区间宽度
	extremeStart = 0.8
	extremeSpan  = 0.2
	// DefaultExtremeBrightnessGuard 极限模式下饱和度、明度规则的亮度下限
	DefaultExtremeBrightnessGuard = 20
)

// Params 背景判定参数。由单一激进度派生，可用 Option 覆盖个别字段
// 以值传递，流水线内部不会修改
type Params struct {
	BrightnessThreshold int     // 0-255，平均亮度下限（配合到白色的距离）
	DistanceThreshold   int     // 0-255，到纯白的 RGB 欧氏距离上限
	ValueThreshold      int     // 0-255，HSV 明度下限
	SaturationThreshold float64 // 0-1，HSV 饱和度上限
	UniformThreshold    int     // 0-255，通道最大差值上限（接近灰色）
	UniformBrightness   int     // 0-255，灰色判定的亮度下限
	MorphRadius         int     // >=0，闭运算半径
	FeatherRadius       int     // >=0，羽化半径
	Aggressiveness      float64 // 0-1

	ExtremeBrightnessGuard int // 0-255，极限模式亮度保护
}

type Option func(*Params)

func WithMorphRadius(r int) Option {
	return func(p *Params) { p.MorphRadius = r }
}

func WithFeatherRadius(r int) Option {
	return func(p *Params) { p.FeatherRadius = r }
}

func WithBrightnessThreshold(v int) Option {
	return func(p *Params) { p.BrightnessThreshold = v }
}

func WithDistanceThreshold(v int) Option {
	return func(p *Params) { p.DistanceThreshold = v }
}

func WithValueThreshold(v int) Option {
	return func(p *Params) { p.ValueThreshold = v }
}

func WithSaturationThreshold(v float64) Option {
	return func(p *Params) { p.SaturationThreshold = v }
}

func WithUniformThreshold(v int) Option {
	return func(p *Params) { p.UniformThreshold = v }
}

func WithUniformBrightness(v int) Option {
	return func(p *Params) { p.UniformBrightness = v }
}

// WithExtremeBrightnessGuard 调整极限模式的亮度保护值（常见取值 20 或 50）
func WithExtremeBrightnessGuard(v int) Option {
	return func(p *Params) { p.ExtremeBrightnessGuard = v }
}

// NewParams 根据 0-1 的激进度线性插值出全部阈值
//
//	0   只去除接近纯白的像素
//	1   除了接近纯黑的像素，几乎全部去除
func NewParams(aggressiveness float64, opts ...Option) (Params, error) {
	a := aggressiveness
	if math.IsNaN(a) || a < 0 || a > 1 {
		return Params{}, fmt.Errorf("aggressiveness %v out of [0,1]: %w", a, ErrInvalidParameter)
	}

	p := Params{
		BrightnessThreshold:    roundInt(200 + a*55),
		DistanceThreshold:      roundInt(20 + a*235),
		ValueThreshold:         roundInt(200 + a*55),
		SaturationThreshold:    0.05 + a*0.95,
		UniformThreshold:       roundInt(5 + a*95),
		UniformBrightness:      roundInt(180 + a*75),
		MorphRadius:            roundInt(1 + a*5),
		FeatherRadius:          0,
		Aggressiveness:         a,
		ExtremeBrightnessGuard: DefaultExtremeBrightnessGuard,
	}
	for _, opt := range opts {
		opt(&p)
	}

	if err := p.Validate(); err != nil {
		return Params{}, err
	}
	return p, nil
}

// NewParamsFromPercent 滑块取值 0-100
func NewParamsFromPercent(percent int, opts ...Option) (Params, error) {
	if percent < 0 || percent > 100 {
		return Params{}, fmt.Errorf("aggressiveness %d%% out of [0,100]: %w", percent, ErrInvalidParameter)
	}
	return NewParams(float64(percent)/100, opts...)
}

// MustParams 仅用于常量场景和测试
func MustParams(aggressiveness float64, opts ...Option) Params {
	p, err := NewParams(aggressiveness, opts...)
	if err != nil {
		panic(err)
	}
	return p
}

func (p Params) Validate() error {
	bytes := []struct {
		name string
		v    int
	}{
		{"brightness threshold", p.BrightnessThreshold},
		{"distance threshold", p.DistanceThreshold},
		{"value threshold", p.ValueThreshold},
		{"uniform threshold", p.UniformThreshold},
		{"uniform brightness", p.UniformBrightness},
		{"extreme brightness guard", p.ExtremeBrightnessGuard},
	}
	for _, b := range bytes {
		if b.v < 0 || b.v > 255 {
			return fmt.Errorf("%s %d out of [0,255]: %w", b.name, b.v, ErrInvalidParameter)
		}
	}

	if math.IsNaN(p.SaturationThreshold) || p.SaturationThreshold < 0 || p.SaturationThreshold > 1 {
		return fmt.Errorf("saturation threshold %v out of [0,1]: %w", p.SaturationThreshold, ErrInvalidParameter)
	}
	if math.IsNaN(p.Aggressiveness) || p.Aggressiveness < 0 || p.Aggressiveness > 1 {
		return fmt.Errorf("aggressiveness %v out of [0,1]: %w", p.Aggressiveness, ErrInvalidParameter)
	}
	if p.MorphRadius < 0 {
		return fmt.Errorf("morph radius %d < 0: %w", p.MorphRadius, ErrInvalidParameter)
	}
	if p.FeatherRadius < 0 {
		return fmt.Errorf("feather radius %d < 0: %w", p.FeatherRadius, ErrInvalidParameter)
	}
	return nil
}

// Extreme 是否处于极限模式
func (p Params) Extreme() bool {
	return p.Aggressiveness > extremeStart
}

// extremeFactor 80%-100% 映射到 0-1
func (p Params) extremeFactor() float64 {
	return (p.Aggressiveness - extremeStart) / extremeSpan
}

// roundInt 与 JS Math.round 一致：.5 向正无穷取整
func roundInt(v float64) int {
	return int(math.Floor(v + 0.5))
}
