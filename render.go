package layerlab

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// Default canvas size of a drawing.
const (
	CanvasWidth  = 800
	CanvasHeight = 600
)

// Compositor paints layers bottom to top onto a solid background.
type Compositor struct {
	// Background fills the canvas before any layer is painted.
	Background color.NRGBA
}

// DefaultCompositor returns a compositor with an opaque white background.
func DefaultCompositor() Compositor {
	return Compositor{Background: color.NRGBA{R: 255, G: 255, B: 255, A: 255}}
}

// Render composites layers onto a white width×height canvas.
func Render(layers []Layer, width, height int) *image.NRGBA {
	return DefaultCompositor().Render(layers, width, height)
}

// Render composites layers in order: each layer is painted into a
// transparent scratch buffer and that buffer is blended onto everything
// painted before it, so the result depends on layer order.
func (c Compositor) Render(layers []Layer, width, height int) *image.NRGBA {
	width, height = max(width, 0), max(height, 0)
	bounds := image.Rect(0, 0, width, height)
	result := image.NewNRGBA(bounds)
	if bounds.Empty() {
		return result
	}
	draw.Draw(result, bounds, image.NewUniform(c.Background), image.Point{}, draw.Src)

	scratch := image.NewNRGBA(bounds)
	for _, l := range layers {
		area := l.Rect.Bounds().Intersect(bounds)
		if area.Empty() {
			continue
		}
		paint := color.NRGBA{R: l.Color.R, G: l.Color.G, B: l.Color.B, A: opacityAlpha(l.Opacity)}
		draw.Draw(scratch, area, image.NewUniform(paint), image.Point{}, draw.Src)
		// Outside area the scratch buffer is transparent and would leave
		// result untouched, so only area is visited.
		blendOnto(result, scratch, area, l.Mode)
		draw.Draw(scratch, area, image.Transparent, image.Point{}, draw.Src)
	}
	return result
}

// opacityAlpha converts an opacity in [0,1] to an 8-bit alpha, rounding
// to nearest.
func opacityAlpha(opacity float64) uint8 {
	if !(opacity > 0) {
		return 0
	}
	if opacity >= 1 {
		return 255
	}
	return uint8(opacity*255 + 0.5)
}

// blendOnto blends top onto base inside area, in place.
func blendOnto(base, top *image.NRGBA, area image.Rectangle, mode BlendMode) {
	for y := area.Min.Y; y < area.Max.Y; y++ {
		for x := area.Min.X; x < area.Max.X; x++ {
			bi := base.PixOffset(x, y)
			ti := top.PixOffset(x, y)
			bp := base.Pix[bi : bi+4 : bi+4]
			tp := top.Pix[ti : ti+4 : ti+4]
			blendPixel(bp, tp, mode)
		}
	}
}

// blendPixel writes the blend of base and top into base. Both are
// non-premultiplied RGBA quadruples.
func blendPixel(base, top []uint8, mode BlendMode) {
	if top[3] == 0 {
		return
	}
	for i := range 3 {
		b := float32(base[i]) / 255
		t := float32(top[i]) / 255
		v := float32(mode.channel(b, t))
		// Truncate, do not round: saved drawings were produced this way.
		base[i] = uint8(v * 255)
	}
	base[3] = max(base[3], top[3])
}
