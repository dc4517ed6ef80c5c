package util

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"
)

// Format 输出格式，只支持保留 alpha 的无损格式
type Format string

const (
	FormatPNG  Format = "png"
	FormatWebP Format = "webp"
)

var ErrUnsupportedFormat = errors.New("unsupported output format")

func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatPNG:
		return FormatPNG, nil
	case FormatWebP:
		return FormatWebP, nil
	default:
		return "", fmt.Errorf("%q: %w", s, ErrUnsupportedFormat)
	}
}

func FormatFromPath(path string) (Format, error) {
	return ParseFormat(strings.TrimPrefix(filepath.Ext(path), "."))
}

func (f Format) ContentType() string {
	if f == FormatWebP {
		return "image/webp"
	}
	return "image/png"
}

// decoders 按文件头魔数选择解码器，'?' 匹配任意字节
// tga 没有魔数，且其包在 init 中注册了匹配一切输入的格式，
// 因此这里不走 image.Decode，tga 只在其余格式都不匹配时尝试
var decoders = []struct {
	magic  string
	decode func(io.Reader) (image.Image, error)
}{
	{magic: "\x89PNG\r\n\x1a\n", decode: png.Decode},
	{magic: "\xff\xd8", decode: jpeg.Decode},
	{magic: "GIF8", decode: gif.Decode},
	{magic: "BM", decode: bmp.Decode},
	{magic: "II*\x00", decode: tiff.Decode},
	{magic: "MM\x00*", decode: tiff.Decode},
	{magic: "RIFF????WEBPVP8", decode: webp.Decode},
}

func matchMagic(magic string, head []byte) bool {
	if len(head) < len(magic) {
		return false
	}
	for i := 0; i < len(magic); i++ {
		if magic[i] != '?' && magic[i] != head[i] {
			return false
		}
	}
	return true
}

// DecodeImage 支持 png/jpeg/gif/bmp/tiff/webp/tga
func DecodeImage(r io.Reader) (image.Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}

	for _, d := range decoders {
		if matchMagic(d.magic, data) {
			return d.decode(bytes.NewReader(data))
		}
	}

	img, err := tga.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", image.ErrFormat, err)
	}
	return img, nil
}

func EncodeImage(w io.Writer, img image.Image, format Format) error {
	switch format {
	case FormatPNG:
		if err := png.Encode(w, img); err != nil {
			return fmt.Errorf("png encode: %w", err)
		}
	case FormatWebP:
		if err := nativewebp.Encode(w, img, nil); err != nil {
			return fmt.Errorf("webp encode: %w", err)
		}
	default:
		return fmt.Errorf("%q: %w", format, ErrUnsupportedFormat)
	}
	return nil
}
