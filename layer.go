package layerlab

import (
	"fmt"
	"image"
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

const (
	// MinSize is the smallest width or height a resize can leave behind.
	MinSize = 10
	// HandleSize is the side of the square hit-box centred on each corner.
	HandleSize = 7
)

// RGB is an opaque 8-bit colour. Transparency comes from Layer.Opacity.
type RGB struct {
	R, G, B uint8
}

// Colorful converts c to a go-colorful colour with channels in [0,1].
func (c RGB) Colorful() colorful.Color {
	return colorful.Color{
		R: float64(c.R) / 255.0,
		G: float64(c.G) / 255.0,
		B: float64(c.B) / 255.0,
	}
}

// Hex formats c as "#rrggbb".
func (c RGB) Hex() string {
	return c.Colorful().Hex()
}

func (c RGB) String() string {
	return fmt.Sprintf("RGB(%d,%d,%d)", c.R, c.G, c.B)
}

// ParseHex parses "#rrggbb" or "#rgb".
func ParseHex(s string) (RGB, error) {
	col, err := colorful.Hex(s)
	if err != nil {
		return RGB{}, fmt.Errorf("parse colour %q: %w", s, err)
	}
	r, g, b := col.RGB255()
	return RGB{r, g, b}, nil
}

// Rect is an axis-aligned rectangle. It is kept as origin plus size
// rather than image.Rectangle because resizing works on width/height.
type Rect struct {
	X, Y          int
	Width, Height int
}

// Bounds converts r to an image.Rectangle.
func (r Rect) Bounds() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// Contains reports whether p lies inside r. The right and bottom edges are
// exclusive.
func (r Rect) Contains(p image.Point) bool {
	return p.X >= r.X && p.X < r.X+r.Width &&
		p.Y >= r.Y && p.Y < r.Y+r.Height
}

// Center returns the integer centre of r.
func (r Rect) Center() image.Point {
	return image.Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Handle identifies a corner resize handle.
type Handle int

const (
	HandleNone Handle = iota
	HandleTopLeft
	HandleTopRight
	HandleBottomLeft
	HandleBottomRight
)

func (h Handle) String() string {
	switch h {
	case HandleTopLeft:
		return "top-left"
	case HandleTopRight:
		return "top-right"
	case HandleBottomLeft:
		return "bottom-left"
	case HandleBottomRight:
		return "bottom-right"
	default:
		return "none"
	}
}

// ParseHandle is the inverse of Handle.String.
func ParseHandle(s string) (Handle, bool) {
	for h := HandleTopLeft; h <= HandleBottomRight; h++ {
		if h.String() == s {
			return h, true
		}
	}
	return HandleNone, false
}

// Layer is one painted rectangle. Layers are plain values: copying a Layer
// copies its geometry, so a copy never shares state with the original.
type Layer struct {
	Color   RGB
	Opacity float64
	Mode    BlendMode
	Rect    Rect
}

// NewLayer returns a layer with opacity clamped to [0,1].
func NewLayer(c RGB, opacity float64, mode BlendMode, r Rect) Layer {
	if math.IsNaN(opacity) || opacity < 0 {
		opacity = 0
	}
	if opacity > 1 {
		opacity = 1
	}
	return Layer{Color: c, Opacity: opacity, Mode: mode, Rect: r}
}

// Move translates the layer.
func (l *Layer) Move(dx, dy int) {
	l.Rect.X += dx
	l.Rect.Y += dy
}

// Resize drags the given corner by (dx, dy). Width and height are floored
// at MinSize afterwards; when the floor is hit the opposite edge moves.
func (l *Layer) Resize(h Handle, dx, dy int) {
	r := &l.Rect
	switch h {
	case HandleTopLeft:
		r.X += dx
		r.Y += dy
		r.Width -= dx
		r.Height -= dy
	case HandleTopRight:
		r.Y += dy
		r.Width += dx
		r.Height -= dy
	case HandleBottomLeft:
		r.X += dx
		r.Width -= dx
		r.Height += dy
	case HandleBottomRight:
		r.Width += dx
		r.Height += dy
	default:
		return
	}
	r.Width = max(r.Width, MinSize)
	r.Height = max(r.Height, MinSize)
}

// HandleAt returns the corner handle whose hit-box contains p.
func (l Layer) HandleAt(p image.Point) Handle {
	r := l.Rect
	corners := [...]struct {
		h    Handle
		x, y int
	}{
		{HandleTopLeft, r.X, r.Y},
		{HandleTopRight, r.X + r.Width, r.Y},
		{HandleBottomLeft, r.X, r.Y + r.Height},
		{HandleBottomRight, r.X + r.Width, r.Y + r.Height},
	}
	for _, c := range corners {
		box := Rect{X: c.x - HandleSize/2, Y: c.y - HandleSize/2, Width: HandleSize, Height: HandleSize}
		if box.Contains(p) {
			return c.h
		}
	}
	return HandleNone
}

func (l Layer) String() string {
	return fmt.Sprintf("%s opacity=%.2f %s rect=(%d,%d,%d,%d)",
		l.Color, l.Opacity, l.Mode, l.Rect.X, l.Rect.Y, l.Rect.Width, l.Rect.Height)
}
