package layerlab

import (
	"fmt"
	"math"
)

// Record is the flat field set a layer is persisted as.
type Record struct {
	R         int     `json:"r"`
	G         int     `json:"g"`
	B         int     `json:"b"`
	Opacity   float64 `json:"opacity"`
	BlendMode string  `json:"blendMode"`
	X         int     `json:"x"`
	Y         int     `json:"y"`
	Width     int     `json:"width"`
	Height    int     `json:"height"`
}

// FieldError reports a record field holding a value that cannot become a
// Layer.
type FieldError struct {
	Field string
	Value any
	Err   error
}

func (e *FieldError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("field %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("field %s: invalid value %v", e.Field, e.Value)
}

func (e *FieldError) Unwrap() error { return e.Err }

// Record flattens l. An unknown mode is recorded as NORMAL, the mode it
// renders as.
func (l Layer) Record() Record {
	mode := l.Mode
	if !mode.Valid() {
		mode = Normal
	}
	return Record{
		R:         int(l.Color.R),
		G:         int(l.Color.G),
		B:         int(l.Color.B),
		Opacity:   l.Opacity,
		BlendMode: mode.String(),
		X:         l.Rect.X,
		Y:         l.Rect.Y,
		Width:     l.Rect.Width,
		Height:    l.Rect.Height,
	}
}

// Layer validates r and converts it back to a Layer.
func (r Record) Layer() (Layer, error) {
	channels := [...]struct {
		name string
		v    int
	}{{"r", r.R}, {"g", r.G}, {"b", r.B}}
	for _, c := range channels {
		if c.v < 0 || c.v > 255 {
			return Layer{}, &FieldError{Field: c.name, Value: c.v}
		}
	}
	if math.IsNaN(r.Opacity) || r.Opacity < 0 || r.Opacity > 1 {
		return Layer{}, &FieldError{Field: "opacity", Value: r.Opacity}
	}
	mode, err := ParseBlendMode(r.BlendMode)
	if err != nil {
		return Layer{}, &FieldError{Field: "blendMode", Value: r.BlendMode, Err: err}
	}
	return Layer{
		Color:   RGB{uint8(r.R), uint8(r.G), uint8(r.B)},
		Opacity: r.Opacity,
		Mode:    mode,
		Rect:    Rect{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height},
	}, nil
}
