package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/chaos-io/bgremover/config"
	"github.com/chaos-io/bgremover/logger"
	"github.com/chaos-io/bgremover/server"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func loadServeConfig(args []string, stderr io.Writer) (config.Config, error) {
	var (
		path  string
		flags config.Flags
	)
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&path, "config", "", "yaml config file")
	fs.StringVar(&flags.Addr, "addr", "", "listen address, overrides the config file")
	fs.StringVar(&flags.LogLevel, "log-level", "", "log level, overrides the config file")
	fs.StringVar(&flags.Format, "format", "", "default output format, overrides the config file")
	fs.IntVar(&flags.MaxSide, "max-side", 0, "longest side of uploaded images, overrides the config file")
	if err := fs.Parse(args); err != nil {
		return config.Config{}, fmt.Errorf("parse flags: %w: %w", errUsage, err)
	}

	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return config.Config{}, err
		}
	}
	cfg.Resolve(flags)
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func runServe(ctx context.Context, args []string, stderr io.Writer) error {
	cfg, err := loadServeConfig(args, stderr)
	if err != nil {
		return err
	}

	var l zerolog.Logger
	if cfg.Log.Console {
		l = logger.NewConsole(cfg.Log.Level)
	} else {
		l = logger.New(os.Stdout, cfg.Log.Level)
	}

	gin.SetMode(gin.ReleaseMode)
	srv, err := server.New(cfg, logger.Component(l, "server"))
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}
