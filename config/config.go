package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/chaos-io/bgremover/rembg"
	"github.com/chaos-io/bgremover/util"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config 服务与命令行共用的配置
type Config struct {
	Addr           string        `yaml:"addr"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes"`
	MaxSide        int           `yaml:"max_side"`
	SessionTTL     time.Duration `yaml:"session_ttl"`
	SweepSpec      string        `yaml:"sweep_spec"`
	OutputFormat   string        `yaml:"output_format"`

	Log struct {
		Level   string `yaml:"level"`
		Console bool   `yaml:"console"`
	} `yaml:"log"`

	// 默认抠图参数。Morph 为负数时由激进度推导
	Aggressiveness int `yaml:"aggressiveness"`
	Feather        int `yaml:"feather"`
	Morph          int `yaml:"morph"`
	ExtremeGuard   int `yaml:"extreme_guard"`
}

// Flags 命令行参数，非零值覆盖配置文件
type Flags struct {
	Addr     string
	LogLevel string
	Format   string
	MaxSide  int
}

func Default() Config {
	c := Config{
		Addr:           ":8080",
		MaxUploadBytes: 20 << 20,
		MaxSide:        4096,
		SessionTTL:     30 * time.Minute,
		SweepSpec:      "@every 1m",
		OutputFormat:   string(util.FormatPNG),
		Aggressiveness: 0,
		Feather:        0,
		Morph:          -1,
		ExtremeGuard:   rembg.DefaultExtremeBrightnessGuard,
	}
	c.Log.Level = "info"
	return c
}

// Load 读取 YAML 配置，文件中未出现的字段保留默认值
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// Resolve 应用命令行覆盖，并为被清空的字段补默认值
func (c *Config) Resolve(flags Flags) {
	if flags.Addr != "" {
		c.Addr = flags.Addr
	}
	if flags.LogLevel != "" {
		c.Log.Level = flags.LogLevel
	}
	if flags.Format != "" {
		c.OutputFormat = flags.Format
	}
	if flags.MaxSide > 0 {
		c.MaxSide = flags.MaxSide
	}

	def := Default()
	if c.Addr == "" {
		c.Addr = def.Addr
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = def.MaxUploadBytes
	}
	if c.SessionTTL <= 0 {
		c.SessionTTL = def.SessionTTL
	}
	if c.SweepSpec == "" {
		c.SweepSpec = def.SweepSpec
	}
	if c.OutputFormat == "" {
		c.OutputFormat = def.OutputFormat
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
}

func (c Config) Validate() error {
	if c.MaxSide < 0 {
		return fmt.Errorf("config: max_side %d < 0: %w", c.MaxSide, ErrInvalidConfig)
	}
	if _, err := util.ParseFormat(c.OutputFormat); err != nil {
		return fmt.Errorf("config: output_format: %w", err)
	}
	if _, err := cron.ParseStandard(c.SweepSpec); err != nil {
		return fmt.Errorf("config: sweep_spec %q: %w", c.SweepSpec, ErrInvalidConfig)
	}
	if _, err := c.Params(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Options 配置中除激进度以外的抠图参数
func (c Config) Options() []rembg.Option {
	opts := []rembg.Option{
		rembg.WithFeatherRadius(c.Feather),
		rembg.WithExtremeBrightnessGuard(c.ExtremeGuard),
	}
	if c.Morph >= 0 {
		opts = append(opts, rembg.WithMorphRadius(c.Morph))
	}
	return opts
}

// Params 配置中的默认抠图参数
func (c Config) Params() (rembg.Params, error) {
	return rembg.NewParamsFromPercent(c.Aggressiveness, c.Options()...)
}
