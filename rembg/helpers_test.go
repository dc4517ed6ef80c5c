package rembg

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func solidBuffer(t *testing.T, w, h int, r, g, b uint8) *Buffer {
	t.Helper()

	pix := make([]uint8, w*h*4)
	for i := 0; i < len(pix); i += 4 {
		pix[i], pix[i+1], pix[i+2], pix[i+3] = r, g, b, 255
	}
	buf, err := NewBuffer(pix, w, h)
	require.NoError(t, err)
	return buf
}

func setPixel(buf *Buffer, x, y int, r, g, b uint8) {
	i := (y*buf.Width + x) * 4
	buf.Pix[i], buf.Pix[i+1], buf.Pix[i+2] = r, g, b
}

func alphaAt(buf *Buffer, x, y int) uint8 {
	return buf.Pix[(y*buf.Width+x)*4+3]
}

// noisyBuffer 随机黑白像素，white 为白色占比
func noisyBuffer(t *testing.T, rng *rand.Rand, w, h int, white float64) *Buffer {
	t.Helper()

	buf := solidBuffer(t, w, h, 0, 0, 0)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if rng.Float64() < white {
				setPixel(buf, x, y, 255, 255, 255)
			}
		}
	}
	return buf
}

func randomMask(rng *rand.Rand, w, h int, density float64) *Mask {
	m := NewMask(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			m.Set(x, y, rng.Float64() < density)
		}
	}
	return m
}
