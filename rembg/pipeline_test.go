package rembg

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func interiorSquare(t *testing.T) *Buffer {
	t.Helper()

	buf := solidBuffer(t, 10, 10, 255, 255, 255)
	for y := 4; y <= 5; y++ {
		for x := 4; x <= 5; x++ {
			setPixel(buf, x, y, 0, 0, 0)
		}
	}
	return buf
}

func TestRun_InteriorSquareWithoutClosing(t *testing.T) {
	t.Parallel()

	buf := interiorSquare(t)
	res, err := Run(context.Background(), buf, MustParams(0, WithMorphRadius(0)))
	require.NoError(t, err)
	assert.Same(t, buf, res.Buffer)

	opaque := 0
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			inSquare := x >= 4 && x <= 5 && y >= 4 && y <= 5
			if inSquare {
				assert.Equal(t, uint8(255), alphaAt(buf, x, y))
				opaque++
			} else {
				assert.Equal(t, uint8(0), alphaAt(buf, x, y))
			}
		}
	}
	assert.Equal(t, 4, opaque)
	assert.Equal(t, 96, res.Stats.Flooded)
}

func TestRun_InteriorSquareClosedByDefaultRadius(t *testing.T) {
	t.Parallel()

	// 默认闭运算半径为 1，3x3 结构元素会填平 2x2 的空洞
	buf := interiorSquare(t)
	res, err := Run(context.Background(), buf, MustParams(0))
	require.NoError(t, err)

	assert.Equal(t, 96, res.Stats.Flooded)
	assert.Equal(t, 100, res.Stats.Closed)
	assert.Equal(t, 100, res.Mask.Count())
}

func TestRun_BlackAtFullAggressiveness(t *testing.T) {
	t.Parallel()

	buf := solidBuffer(t, 5, 5, 0, 0, 0)
	res, err := Run(context.Background(), buf, MustParams(1))
	require.NoError(t, err)

	assert.Equal(t, 0, res.Mask.Count())
	for y := 0; y < 5; y++ {
		for x := 0; x < 5; x++ {
			assert.Equal(t, uint8(255), alphaAt(buf, x, y))
		}
	}
}

func TestRun_ForegroundOnlyLeavesBufferUntouched(t *testing.T) {
	t.Parallel()

	buf := solidBuffer(t, 8, 6, 10, 120, 40)
	before := buf.Clone()

	res, err := Run(context.Background(), buf, MustParams(0, WithFeatherRadius(2)))
	require.NoError(t, err)
	assert.Equal(t, 0, res.Mask.Count())
	assert.Equal(t, before.Pix, buf.Pix)
}

func TestRun_StageCountsGrow(t *testing.T) {
	t.Parallel()

	buf := interiorSquare(t)
	setPixel(buf, 0, 0, 0, 0, 0)
	res, err := Run(context.Background(), buf, MustParams(0.3, WithFeatherRadius(1)))
	require.NoError(t, err)

	assert.LessOrEqual(t, res.Stats.Flooded, res.Stats.Closed)
	assert.LessOrEqual(t, res.Stats.Closed, res.Stats.Feathered)
	assert.Equal(t, res.Stats.Feathered, res.Mask.Count())
}

func TestRun_InvalidInput(t *testing.T) {
	t.Parallel()

	t.Run("尺寸不匹配", func(t *testing.T) {
		t.Parallel()

		_, err := NewBuffer(make([]uint8, 10), 2, 2)
		assert.ErrorIs(t, err, ErrInvalidDimensions)
	})

	t.Run("宽度为0", func(t *testing.T) {
		t.Parallel()

		_, err := NewBuffer(nil, 0, 3)
		assert.ErrorIs(t, err, ErrInvalidDimensions)
	})

	t.Run("nil 缓冲", func(t *testing.T) {
		t.Parallel()

		_, err := Run(context.Background(), nil, MustParams(0))
		assert.ErrorIs(t, err, ErrInvalidDimensions)
	})

	t.Run("非法参数不修改缓冲", func(t *testing.T) {
		t.Parallel()

		buf := solidBuffer(t, 4, 4, 255, 255, 255)
		before := buf.Clone()

		p := MustParams(0)
		p.SaturationThreshold = 2
		_, err := Run(context.Background(), buf, p)
		assert.ErrorIs(t, err, ErrInvalidParameter)
		assert.Equal(t, before.Pix, buf.Pix)
	})
}

func TestRun_CanceledContextLeavesBufferUntouched(t *testing.T) {
	t.Parallel()

	buf := solidBuffer(t, 4, 4, 255, 255, 255)
	before := buf.Clone()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, buf, MustParams(0))
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, before.Pix, buf.Pix)
}

func TestBufferFromImage(t *testing.T) {
	t.Parallel()

	src := image.NewRGBA(image.Rect(5, 5, 8, 7))
	src.Set(5, 5, color.RGBA{R: 1, G: 2, B: 3, A: 255})

	buf := BufferFromImage(src)
	assert.Equal(t, 3, buf.Width)
	assert.Equal(t, 2, buf.Height)
	assert.NoError(t, buf.Validate())
	assert.Equal(t, []uint8{1, 2, 3, 255}, buf.Pix[:4])

	nrgba := buf.NRGBA()
	assert.Equal(t, image.Rect(0, 0, 3, 2), nrgba.Bounds())
	assert.Equal(t, color.NRGBA{R: 1, G: 2, B: 3, A: 255}, nrgba.NRGBAAt(0, 0))
}

func TestColorRemover_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	src := image.NewNRGBA(image.Rect(0, 0, 6, 6))
	for i := 0; i < len(src.Pix); i++ {
		src.Pix[i] = 255
	}
	src.SetNRGBA(3, 3, color.NRGBA{A: 255})

	r := NewColorRemover(MustParams(0, WithMorphRadius(0)))
	out, err := r.Remove(context.Background(), src)
	require.NoError(t, err)

	got, ok := out.(*image.NRGBA)
	require.True(t, ok)
	assert.Equal(t, uint8(0), got.NRGBAAt(0, 0).A)
	assert.Equal(t, uint8(255), got.NRGBAAt(3, 3).A)
	assert.Equal(t, uint8(255), src.NRGBAAt(0, 0).A)
}
