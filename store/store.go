// Package store reads and writes drawings and challenge targets as JSON.
//
// A file holds a single object with a "layers" array, bottom layer first:
//
//	{
//	    "layers": [
//	        {"r": 255, "g": 0, "b": 0, "opacity": 0.5, "blendMode": "MULTIPLY",
//	         "x": 10, "y": 20, "width": 100, "height": 80}
//	    ]
//	}
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/setanarut/layerlab"
)

// ErrNoLayers is returned when a document has no "layers" array.
var ErrNoLayers = errors.New(`missing "layers" array`)

// LayerError locates a bad record inside a document.
type LayerError struct {
	Index int
	Err   error
}

func (e *LayerError) Error() string {
	return fmt.Sprintf("layer %d: %v", e.Index, e.Err)
}

func (e *LayerError) Unwrap() error { return e.Err }

type document struct {
	Layers []layerlab.Record `json:"layers"`
}

// record mirrors layerlab.Record with pointers so absent fields can be told
// apart from zero values.
type record struct {
	R         *int     `json:"r"`
	G         *int     `json:"g"`
	B         *int     `json:"b"`
	Opacity   *float64 `json:"opacity"`
	BlendMode *string  `json:"blendMode"`
	X         *int     `json:"x"`
	Y         *int     `json:"y"`
	Width     *int     `json:"width"`
	Height    *int     `json:"height"`
}

func (r record) resolve() (layerlab.Record, error) {
	var out layerlab.Record
	ints := [...]struct {
		name string
		src  *int
		dst  *int
	}{
		{"r", r.R, &out.R},
		{"g", r.G, &out.G},
		{"b", r.B, &out.B},
		{"x", r.X, &out.X},
		{"y", r.Y, &out.Y},
		{"width", r.Width, &out.Width},
		{"height", r.Height, &out.Height},
	}
	for _, f := range ints {
		if f.src == nil {
			return out, &layerlab.FieldError{Field: f.name, Err: errors.New("missing")}
		}
		*f.dst = *f.src
	}
	if r.Opacity == nil {
		return out, &layerlab.FieldError{Field: "opacity", Err: errors.New("missing")}
	}
	out.Opacity = *r.Opacity
	if r.BlendMode == nil {
		return out, &layerlab.FieldError{Field: "blendMode", Err: errors.New("missing")}
	}
	out.BlendMode = *r.BlendMode
	return out, nil
}

// Decode parses a document.
func Decode(r io.Reader) ([]layerlab.Layer, error) {
	var doc struct {
		Layers *[]json.RawMessage `json:"layers"`
	}
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode layers: %w", err)
	}
	if doc.Layers == nil {
		return nil, ErrNoLayers
	}
	layers := make([]layerlab.Layer, 0, len(*doc.Layers))
	for i, raw := range *doc.Layers {
		var rec record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, &LayerError{Index: i, Err: err}
		}
		full, err := rec.resolve()
		if err != nil {
			return nil, &LayerError{Index: i, Err: err}
		}
		l, err := full.Layer()
		if err != nil {
			return nil, &LayerError{Index: i, Err: err}
		}
		layers = append(layers, l)
	}
	return layers, nil
}

// Encode writes layers as an indented document.
func Encode(w io.Writer, layers []layerlab.Layer) error {
	doc := document{Layers: make([]layerlab.Record, len(layers))}
	for i, l := range layers {
		doc.Layers[i] = l.Record()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode layers: %w", err)
	}
	return nil
}

// Load reads a drawing or a challenge target from path.
func Load(path string) ([]layerlab.Layer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	layers, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return layers, nil
}

// Save writes layers to path, replacing any existing file.
func Save(path string, layers []layerlab.Layer) error {
	var buf bytes.Buffer
	if err := Encode(&buf, layers); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return err
	}
	return nil
}

// LoadInto replaces the contents of s with the layers stored at path. On
// error s is left untouched.
func LoadInto(s *layerlab.Stack, path string) error {
	layers, err := Load(path)
	if err != nil {
		return err
	}
	s.SetLayers(layers)
	return nil
}
