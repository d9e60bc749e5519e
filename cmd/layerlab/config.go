package main

import (
	"errors"
	"fmt"
	"image/color"
	"os"

	"github.com/setanarut/layerlab"
	"github.com/setanarut/layerlab/utils"
	"gopkg.in/yaml.v3"
)

// Config holds the values read from the optional YAML config file.
type Config struct {
	Canvas struct {
		Width  int `yaml:"width"`
		Height int `yaml:"height"`
	} `yaml:"canvas"`
	// Background is the canvas colour as "#rrggbb".
	Background string `yaml:"background"`
	// PassThreshold is the score at which an attempt counts as a good match.
	PassThreshold float64 `yaml:"pass_threshold"`
	Target        struct {
		Layers       int     `yaml:"layers"`
		Method       string  `yaml:"method"`
		MinCoverage  float64 `yaml:"min_coverage"`
		TrimQuantile float64 `yaml:"trim_quantile"`
	} `yaml:"target"`
	Debug bool `yaml:"debug"`
}

func DefaultConfig() Config {
	var cfg Config
	cfg.Canvas.Width = layerlab.CanvasWidth
	cfg.Canvas.Height = layerlab.CanvasHeight
	cfg.Background = "#ffffff"
	cfg.PassThreshold = 0.85
	opt := layerlab.DefaultOptions()
	cfg.Target.Layers = 5
	cfg.Target.Method = utils.PaletteMethodDominantColor.String()
	cfg.Target.MinCoverage = opt.MinCoverage
	cfg.Target.TrimQuantile = opt.TrimQuantile
	return cfg
}

// LoadConfig reads path on top of DefaultConfig. An empty path yields the
// defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate reports the first unusable value.
func (c Config) Validate() error {
	if c.Canvas.Width <= 0 || c.Canvas.Height <= 0 {
		return fmt.Errorf("canvas size %dx%d: must be positive", c.Canvas.Width, c.Canvas.Height)
	}
	if c.PassThreshold < 0 || c.PassThreshold > 1 {
		return fmt.Errorf("pass_threshold %v: must be within [0,1]", c.PassThreshold)
	}
	if c.Target.Layers <= 0 {
		return errors.New("target.layers: must be positive")
	}
	if _, err := utils.ParsePaletteMethod(c.Target.Method); err != nil {
		return fmt.Errorf("target.method: %w", err)
	}
	if _, err := layerlab.ParseHex(c.Background); err != nil {
		return fmt.Errorf("background: %w", err)
	}
	return nil
}

// Compositor returns the compositor painting on the configured background.
func (c Config) Compositor() layerlab.Compositor {
	comp := layerlab.DefaultCompositor()
	if bg, err := layerlab.ParseHex(c.Background); err == nil {
		comp.Background = color.NRGBA{R: bg.R, G: bg.G, B: bg.B, A: 255}
	}
	return comp
}

// TargetOptions returns the target builder options for the configured canvas.
func (c Config) TargetOptions() layerlab.Options {
	opt := layerlab.DefaultOptions()
	opt.CanvasWidth = c.Canvas.Width
	opt.CanvasHeight = c.Canvas.Height
	opt.MinCoverage = c.Target.MinCoverage
	opt.TrimQuantile = c.Target.TrimQuantile
	return opt
}
