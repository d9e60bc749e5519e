package main

import (
	"bytes"
	"context"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/setanarut/layerlab"
	"github.com/setanarut/layerlab/store"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Canvas.Width != 800 || cfg.Canvas.Height != 600 || cfg.PassThreshold != 0.85 {
		t.Errorf("defaults = %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	path := writeFile(t, "layerlab.yaml", `
canvas:
  width: 320
  height: 240
background: "#000000"
pass_threshold: 0.9
target:
  method: kmeans
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Canvas.Width != 320 || cfg.Canvas.Height != 240 || cfg.PassThreshold != 0.9 {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Target.Method != "kmeans" || cfg.Target.Layers != 5 {
		t.Errorf("target = %+v", cfg.Target)
	}
	if bg := cfg.Compositor().Background; bg != (color.NRGBA{0, 0, 0, 255}) {
		t.Errorf("background = %v", bg)
	}
	opt := cfg.TargetOptions()
	if opt.CanvasWidth != 320 || opt.CanvasHeight != 240 {
		t.Errorf("target options canvas = %dx%d", opt.CanvasWidth, opt.CanvasHeight)
	}
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := []struct {
		name, yaml, want string
	}{
		{"bad canvas", "canvas: {width: 0, height: 10}", "canvas"},
		{"bad threshold", "pass_threshold: 2", "pass_threshold"},
		{"bad method", "target: {method: octree}", "target.method"},
		{"bad background", "background: white", "background"},
		{"bad yaml", "canvas: [", "parse config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeFile(t, "c.yaml", tt.yaml))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want it to mention %q", err, tt.want)
			}
		})
	}
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "none.yaml")); err == nil {
		t.Error("missing config file accepted")
	}
}

func TestRunScore(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "t.json")
	attempt := filepath.Join(dir, "a.json")
	l := layerlab.NewLayer(layerlab.RGB{R: 10, G: 20, B: 30}, 1, layerlab.Subtract, layerlab.Rect{Width: 40, Height: 40})
	if err := store.Save(target, []layerlab.Layer{l}); err != nil {
		t.Fatal(err)
	}
	if err := store.Save(attempt, []layerlab.Layer{l}); err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	err := run(context.Background(), DefaultConfig(), "score",
		[]string{"-target", target, "-attempt", attempt, "-v"}, nil, &out)
	if err != nil {
		t.Fatal(err)
	}
	want := "layer 0: color=1.000 position=1.000 blend=1 total=1.000\nscore 1.000 (100%): good match\n"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}

func TestRunRender(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "d.json")
	png := filepath.Join(dir, "d.png")
	if err := store.Save(in, []layerlab.Layer{
		layerlab.NewLayer(layerlab.RGB{R: 255}, 1, layerlab.Normal, layerlab.Rect{Width: 20, Height: 20}),
	}); err != nil {
		t.Fatal(err)
	}
	err := run(context.Background(), DefaultConfig(), "render",
		[]string{"-in", in, "-out", png, "-width", "40", "-height", "30"}, nil, &bytes.Buffer{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(png); err != nil {
		t.Error(err)
	}
	if err := run(context.Background(), DefaultConfig(), "render", nil, nil, &bytes.Buffer{}); err == nil {
		t.Error("render without -in succeeded")
	}
}

func TestRunSessionFromStdin(t *testing.T) {
	var out bytes.Buffer
	err := run(context.Background(), DefaultConfig(), "session", nil,
		strings.NewReader("add #123456 1 NORMAL 0 0 10 10\nlist\n"), &out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "RGB(18,52,86)") {
		t.Errorf("output = %q", out.String())
	}
}

func TestRunUnknown(t *testing.T) {
	if err := run(context.Background(), DefaultConfig(), "paint", nil, nil, &bytes.Buffer{}); err == nil {
		t.Error("unknown command succeeded")
	}
}
