package layerlab

import (
	"image"
	"image/color"
	"image/draw"
	"math"
	"testing"

	"github.com/lucasb-eyer/go-colorful"
)

var (
	palWhite = colorful.Color{R: 1, G: 1, B: 1}
	palRed   = colorful.Color{R: 1, G: 0, B: 0}
	palBlue  = colorful.Color{R: 0, G: 0, B: 1}
)

// redOnWhite is a 100x80 white image with a red square at (20,10)-(60,50).
func redOnWhite() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 100, 80))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(20, 10, 60, 50), image.NewUniform(color.NRGBA{255, 0, 0, 255}), image.Point{}, draw.Src)
	return img
}

func exactOptions(w, h int) Options {
	opt := DefaultOptions()
	opt.CanvasWidth, opt.CanvasHeight = w, h
	opt.MinCoverage = 0.01
	opt.TrimQuantile = 0
	return opt
}

func TestTargetBuilderRecoversRect(t *testing.T) {
	tb := NewTargetBuilder(redOnWhite(), []colorful.Color{palWhite, palRed, palBlue})
	tb.Build(exactOptions(100, 80))

	if len(tb.Regions) != 2 {
		t.Fatalf("found %d regions, want 2 (blue has no pixels)", len(tb.Regions))
	}
	got := tb.Layers()
	want := []Layer{
		{Color: RGB{255, 255, 255}, Opacity: 1, Mode: Normal, Rect: Rect{0, 0, 100, 80}},
		{Color: RGB{255, 0, 0}, Opacity: 1, Mode: Normal, Rect: Rect{20, 10, 40, 40}},
	}
	if len(got) != len(want) {
		t.Fatalf("Layers() = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("layer %d = %v, want %v", i, got[i], want[i])
		}
	}
	if c := tb.Regions[1].Coverage; c != 0.2 {
		t.Errorf("red coverage = %v, want 0.2", c)
	}
}

func TestTargetBuilderScalesToCanvas(t *testing.T) {
	tb := NewTargetBuilder(redOnWhite(), []colorful.Color{palWhite, palRed})
	tb.Build(exactOptions(200, 160))
	layers := tb.Layers()
	if len(layers) != 2 {
		t.Fatalf("got %d layers", len(layers))
	}
	if want := (Rect{40, 20, 80, 80}); layers[1].Rect != want {
		t.Errorf("red rect = %+v, want %+v", layers[1].Rect, want)
	}
}

func TestTargetBuilderMinCoverage(t *testing.T) {
	tb := NewTargetBuilder(redOnWhite(), []colorful.Color{palWhite, palRed})
	opt := exactOptions(100, 80)
	opt.MinCoverage = 0.3
	tb.Build(opt)
	layers := tb.Layers()
	if len(layers) != 1 || layers[0].Color != (RGB{255, 255, 255}) {
		t.Errorf("Layers() = %v, want only the white background", layers)
	}
}

func TestTargetBuilderSkipsTransparent(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 50, 50))
	draw.Draw(img, image.Rect(10, 10, 30, 20), image.NewUniform(color.NRGBA{0, 0, 255, 255}), image.Point{}, draw.Src)
	tb := NewTargetBuilder(img, []colorful.Color{palWhite, palBlue})
	tb.Build(exactOptions(50, 50))
	layers := tb.Layers()
	if len(layers) != 1 {
		t.Fatalf("Layers() = %v, want one layer", layers)
	}
	if want := (Rect{10, 10, 20, MinSize}); layers[0].Rect != want {
		t.Errorf("rect = %+v, want %+v", layers[0].Rect, want)
	}
}

func TestTargetBuilderEmptyPalette(t *testing.T) {
	tb := NewTargetBuilder(redOnWhite(), nil)
	tb.Build(exactOptions(100, 80))
	if layers := tb.Layers(); layers != nil {
		t.Errorf("Layers() = %v, want nil", layers)
	}
}

func TestTargetBuilderReconstruct(t *testing.T) {
	tb := NewTargetBuilder(redOnWhite(), []colorful.Color{palWhite, palRed})
	tb.Build(exactOptions(100, 80))
	img := tb.Reconstruct()
	if got := img.NRGBAAt(30, 20); got != (color.NRGBA{255, 0, 0, 255}) {
		t.Errorf("inside square = %v", got)
	}
	if got := img.NRGBAAt(5, 5); got != (color.NRGBA{255, 255, 255, 255}) {
		t.Errorf("outside square = %v", got)
	}
	if s := Score(tb.Layers(), tb.Layers()); math.Abs(s-1) > 1e-9 {
		t.Errorf("self score = %v", s)
	}
}

func TestOptionsFromSize(t *testing.T) {
	tests := []struct {
		size image.Point
		w, h int
	}{
		{image.Pt(1600, 1200), 800, 600},
		{image.Pt(100, 50), 100, 50},
		{image.Pt(1600, 300), 800, 150},
		{image.Pt(0, 10), CanvasWidth, CanvasHeight},
	}
	for _, tt := range tests {
		opt := OptionsFromSize(tt.size)
		if opt.CanvasWidth != tt.w || opt.CanvasHeight != tt.h {
			t.Errorf("OptionsFromSize(%v) canvas = %dx%d, want %dx%d",
				tt.size, opt.CanvasWidth, opt.CanvasHeight, tt.w, tt.h)
		}
	}
}
