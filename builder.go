package layerlab

import (
	"cmp"
	"image"
	"math"
	"slices"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/stat"
)

// Options controls how a reference image is turned into target layers.
type Options struct {
	// Canvas the derived layers are placed on. Coordinates found in the
	// reference image are scaled to it.
	CanvasWidth  int
	CanvasHeight int
	// Share of opaque pixels a palette colour must own to become a layer.
	// Too low => specks become layers; too high => small shapes vanish.
	MinCoverage float64
	// Fraction of a region's pixels ignored on each side when fitting its
	// rectangle. 0 fits the full extent; ~0.02-0.05 ignores stray pixels.
	TrimQuantile float64
	// Blend mode and opacity given to every derived layer.
	Mode    BlendMode
	Opacity float64
}

// DefaultOptions returns options for the default canvas.
func DefaultOptions() Options {
	return Options{
		CanvasWidth:  CanvasWidth,
		CanvasHeight: CanvasHeight,
		MinCoverage:  0.02,
		TrimQuantile: 0.03,
		Mode:         Normal,
		Opacity:      1,
	}
}

// OptionsFromSize keeps the reference aspect ratio and fits it into the
// default canvas. Small images keep their own size.
func OptionsFromSize(size image.Point) Options {
	opt := DefaultOptions()
	if size.X <= 0 || size.Y <= 0 {
		return opt
	}
	scale := min(1, float64(CanvasWidth)/float64(size.X), float64(CanvasHeight)/float64(size.Y))
	opt.CanvasWidth = max(1, int(float64(size.X)*scale))
	opt.CanvasHeight = max(1, int(float64(size.Y)*scale))
	if size.X*size.Y > 1920*1080 {
		opt.MinCoverage = 0.01
	}
	return opt
}

// TargetBuilder derives a challenge target, a short list of rectangles,
// from a reference image and a palette.
type TargetBuilder struct {
	InputImage image.Image
	Palette    []colorful.Color
	Rgb        rgb32
	Lab        lab32
	Labels     labelImage
	Regions    []Region

	opt Options
}

// Region is the set of reference pixels closest to one palette entry.
type Region struct {
	PaletteIndex int
	Count        int
	Coverage     float64
	Mean         RGB
	// Rect is in reference image coordinates.
	Rect Rect
}

// NewTargetBuilder returns a builder for input. Call Build before Layers.
func NewTargetBuilder(input image.Image, palette []colorful.Color) *TargetBuilder {
	return &TargetBuilder{
		InputImage: input,
		Palette:    palette,
	}
}

// Build labels every opaque pixel with its nearest palette colour and
// fits one region per colour that covers at least opt.MinCoverage.
func (tb *TargetBuilder) Build(opt Options) {
	tb.opt = opt
	tb.makeRGB32Image()
	tb.makeLab32ImageFromRGB32()
	tb.assignPalette()
	tb.computeRegions()
}

// Layers returns one layer per kept region, largest region at the bottom.
func (tb *TargetBuilder) Layers() []Layer {
	if len(tb.Regions) == 0 || tb.Rgb.W == 0 || tb.Rgb.H == 0 {
		return nil
	}
	sx := float64(tb.opt.CanvasWidth) / float64(tb.Rgb.W)
	sy := float64(tb.opt.CanvasHeight) / float64(tb.Rgb.H)
	out := make([]Layer, 0, len(tb.Regions))
	for _, rg := range tb.Regions {
		r := Rect{
			X:      int(math.Round(float64(rg.Rect.X) * sx)),
			Y:      int(math.Round(float64(rg.Rect.Y) * sy)),
			Width:  max(MinSize, int(math.Round(float64(rg.Rect.Width)*sx))),
			Height: max(MinSize, int(math.Round(float64(rg.Rect.Height)*sy))),
		}
		out = append(out, NewLayer(rg.Mean, tb.opt.Opacity, tb.opt.Mode, r))
	}
	return out
}

// Reconstruct renders the derived layers on the builder's canvas.
func (tb *TargetBuilder) Reconstruct() *image.NRGBA {
	return Render(tb.Layers(), tb.opt.CanvasWidth, tb.opt.CanvasHeight)
}

type rgb32 struct {
	W, H   int
	Pix    []float32 // Interleaved RGB in [0,255], len = W*H*3
	Opaque []bool    // len = W*H; false for fully transparent pixels
}

type lab32 struct {
	W, H int
	Pix  []float32 // Interleaved LAB, len = W*H*3
}

type labelImage struct {
	W, H   int
	Labels []int // palette index per pixel, -1 if unassigned
}

func pixOffset(w, x, y int) int {
	return (y*w + x) * 3
}

func labelOffset(w, x, y int) int {
	return y*w + x
}

func (tb *TargetBuilder) makeRGB32Image() {
	bounds := tb.InputImage.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	tb.Rgb = rgb32{
		W:      w,
		H:      h,
		Pix:    make([]float32, w*h*3),
		Opaque: make([]bool, w*h),
	}
	for y := range h {
		for x := range w {
			r, g, b, a := tb.InputImage.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			off := pixOffset(w, x, y)
			tb.Rgb.Pix[off] = float32(r >> 8)
			tb.Rgb.Pix[off+1] = float32(g >> 8)
			tb.Rgb.Pix[off+2] = float32(b >> 8)
			tb.Rgb.Opaque[labelOffset(w, x, y)] = a != 0
		}
	}
}

func (tb *TargetBuilder) makeLab32ImageFromRGB32() {
	w, h := tb.Rgb.W, tb.Rgb.H
	tb.Lab = lab32{W: w, H: h, Pix: make([]float32, w*h*3)}
	for i := range w * h {
		off := i * 3
		c := colorful.Color{
			R: float64(tb.Rgb.Pix[off]) / 255.0,
			G: float64(tb.Rgb.Pix[off+1]) / 255.0,
			B: float64(tb.Rgb.Pix[off+2]) / 255.0,
		}
		l, a, b := c.Lab()
		tb.Lab.Pix[off] = float32(l)
		tb.Lab.Pix[off+1] = float32(a)
		tb.Lab.Pix[off+2] = float32(b)
	}
}

// assignPalette labels every opaque pixel with its nearest palette entry
// in Lab space.
func (tb *TargetBuilder) assignPalette() {
	w, h := tb.Lab.W, tb.Lab.H
	tb.Labels = labelImage{W: w, H: h, Labels: make([]int, w*h)}
	pal := make([][3]float64, len(tb.Palette))
	for i, c := range tb.Palette {
		l, a, b := c.Lab()
		pal[i] = [3]float64{l, a, b}
	}
	for i := range w * h {
		tb.Labels.Labels[i] = -1
		if len(pal) == 0 || !tb.Rgb.Opaque[i] {
			continue
		}
		off := i * 3
		best, bestD := 0, math.MaxFloat64
		for ci, p := range pal {
			dL := float64(tb.Lab.Pix[off]) - p[0]
			dA := float64(tb.Lab.Pix[off+1]) - p[1]
			dB := float64(tb.Lab.Pix[off+2]) - p[2]
			if d := dL*dL + dA*dA + dB*dB; d < bestD {
				best, bestD = ci, d
			}
		}
		tb.Labels.Labels[i] = best
	}
}

type accumulator struct {
	r, g, b float64
	xs, ys  []float64
}

func (tb *TargetBuilder) computeRegions() {
	tb.Regions = nil
	w, h := tb.Labels.W, tb.Labels.H
	acc := make([]accumulator, len(tb.Palette))
	total := 0
	for y := range h {
		for x := range w {
			label := tb.Labels.Labels[labelOffset(w, x, y)]
			if label < 0 {
				continue
			}
			off := pixOffset(w, x, y)
			a := &acc[label]
			a.r += float64(tb.Rgb.Pix[off])
			a.g += float64(tb.Rgb.Pix[off+1])
			a.b += float64(tb.Rgb.Pix[off+2])
			a.xs = append(a.xs, float64(x))
			a.ys = append(a.ys, float64(y))
			total++
		}
	}
	if total == 0 {
		return
	}
	trim := max(0, min(0.49, tb.opt.TrimQuantile))
	for i := range acc {
		a := &acc[i]
		n := len(a.xs)
		coverage := float64(n) / float64(total)
		if n == 0 || coverage < tb.opt.MinCoverage {
			continue
		}
		slices.Sort(a.xs)
		slices.Sort(a.ys)
		x0 := stat.Quantile(trim, stat.Empirical, a.xs, nil)
		x1 := stat.Quantile(1-trim, stat.Empirical, a.xs, nil)
		y0 := stat.Quantile(trim, stat.Empirical, a.ys, nil)
		y1 := stat.Quantile(1-trim, stat.Empirical, a.ys, nil)
		c := float64(n)
		tb.Regions = append(tb.Regions, Region{
			PaletteIndex: i,
			Count:        n,
			Coverage:     coverage,
			Mean: RGB{
				R: uint8(math.Round(a.r / c)),
				G: uint8(math.Round(a.g / c)),
				B: uint8(math.Round(a.b / c)),
			},
			Rect: Rect{X: int(x0), Y: int(y0), Width: int(x1-x0) + 1, Height: int(y1-y0) + 1},
		})
	}
	slices.SortStableFunc(tb.Regions, func(a, b Region) int {
		return cmp.Compare(b.Count, a.Count)
	})
}
