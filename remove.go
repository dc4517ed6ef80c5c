package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chaos-io/bgremover/config"
	"github.com/chaos-io/bgremover/logger"
	"github.com/chaos-io/bgremover/preprocess"
	"github.com/chaos-io/bgremover/rembg"
	"github.com/chaos-io/bgremover/rembg/reveal"
	"github.com/chaos-io/bgremover/util"
	"github.com/rs/zerolog"
	"github.com/segmentio/ksuid"
)

type removeOptions struct {
	in, out, format, maskPath, remote, logLevel string
	aggr, feather, morph, guard, maxSide, frames int
	trim, square, premultiply, keepAlpha         bool
}

func parseRemoveFlags(args []string, stderr io.Writer) (removeOptions, error) {
	def := config.Default()

	var o removeOptions
	fs := flag.NewFlagSet("remove", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&o.in, "in", "", "input image path or http(s) url")
	fs.StringVar(&o.out, "out", "", "output file, defaults to ./output/<id>.<format>")
	fs.StringVar(&o.format, "format", def.OutputFormat, "output format when -out is empty: png|webp")
	fs.StringVar(&o.maskPath, "mask", "", "also write the background mask as a grayscale png")
	fs.StringVar(&o.remote, "remote", "", "remote server base url; removal runs there instead of locally")
	fs.StringVar(&o.logLevel, "log-level", def.Log.Level, "log level")
	fs.IntVar(&o.aggr, "aggr", def.Aggressiveness, "aggressiveness 0..100")
	fs.IntVar(&o.feather, "feather", def.Feather, "feather radius")
	fs.IntVar(&o.morph, "morph", def.Morph, "closing radius, negative derives it from -aggr")
	fs.IntVar(&o.guard, "guard", def.ExtremeGuard, "brightness guard above 80% aggressiveness")
	fs.IntVar(&o.maxSide, "max-side", 0, "downscale so the longest side fits, 0 keeps the size")
	fs.IntVar(&o.frames, "frames", 0, "also write N progressive reveal frames")
	fs.BoolVar(&o.trim, "trim", false, "crop to the foreground bounding box")
	fs.BoolVar(&o.square, "square", false, "with -trim, crop a square centred on the foreground")
	fs.BoolVar(&o.premultiply, "premultiply", false, "premultiply rgb by alpha")
	fs.BoolVar(&o.keepAlpha, "keep-alpha", true, "skip removal when the input already has transparency")

	if err := fs.Parse(args); err != nil {
		return o, fmt.Errorf("parse flags: %w: %w", errUsage, err)
	}
	if o.in == "" {
		return o, fmt.Errorf("-in is required: %w", errUsage)
	}
	return o, nil
}

func (o removeOptions) params() (rembg.Params, error) {
	cfg := config.Default()
	cfg.Aggressiveness = o.aggr
	cfg.Feather = o.feather
	cfg.Morph = o.morph
	cfg.ExtremeGuard = o.guard
	return cfg.Params()
}

func (o removeOptions) outputPath() (string, error) {
	if o.out != "" {
		return o.out, nil
	}
	format, err := util.ParseFormat(o.format)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll("output", os.ModePerm); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	return filepath.Join("output", ksuid.New().String()+"."+string(format)), nil
}

func runRemove(ctx context.Context, args []string, stderr io.Writer) error {
	o, err := parseRemoveFlags(args, stderr)
	if err != nil {
		return err
	}
	l := logger.Component(logger.NewConsole(o.logLevel), "remove")

	p, err := o.params()
	if err != nil {
		return err
	}
	outPath, err := o.outputPath()
	if err != nil {
		return err
	}

	img, err := util.LoadImage(ctx, o.in)
	if err != nil {
		return fmt.Errorf("load image: %w", err)
	}

	var remover rembg.Remover = rembg.NewColorRemover(p)
	if o.remote != "" {
		remover = rembg.NewRemoteRemover(o.remote, p)
	}

	pre := preprocess.NewPreprocessor(remover)
	pre.MaxSide = o.maxSide
	pre.KeepAlpha = o.keepAlpha
	pre.Trim = o.trim
	pre.Square = o.square
	pre.Premultiply = o.premultiply

	done := util.Trace("remove background")
	res, err := pre.Process(ctx, img)
	done()
	if err != nil {
		return err
	}
	if err := util.SaveImage(outPath, res.Image); err != nil {
		return err
	}
	l.Info().Str("in", o.in).Str("out", outPath).
		Int("width", res.Image.Bounds().Dx()).Int("height", res.Image.Bounds().Dy()).
		Int("transparent", res.Mask.Count()).
		Float64("aggressiveness", p.Aggressiveness).Msg("saved")

	return writeExtras(o, res, outPath, l)
}

// writeExtras 输出掩码图与逐步显现的帧，二者与保存的结果同尺寸、同一掩码
// 帧不做预乘，最后一帧等于未预乘的输出
func writeExtras(o removeOptions, res *preprocess.Output, outPath string, l zerolog.Logger) error {
	mask := res.Mask

	if o.maskPath != "" {
		if err := util.SaveImage(o.maskPath, mask.Gray()); err != nil {
			return err
		}
		l.Info().Str("mask", o.maskPath).Int("background", mask.Count()).Msg("mask saved")
	}

	if o.frames > 0 {
		base := strings.TrimSuffix(outPath, filepath.Ext(outPath))
		for i, frame := range reveal.Frames(rembg.BufferFromImage(res.Source), mask, o.frames) {
			if err := util.SaveImage(fmt.Sprintf("%s_frame_%02d.png", base, i+1), frame); err != nil {
				return err
			}
		}
		l.Info().Int("frames", o.frames).Str("prefix", base+"_frame_").Msg("reveal frames saved")
	}
	return nil
}
