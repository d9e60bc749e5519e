package layerlab

import (
	"errors"
	"fmt"
)

// ErrUnknownBlendMode is returned when a blend mode name does not match
// any known mode.
var ErrUnknownBlendMode = errors.New("unknown blend mode")

// BlendMode selects how a layer's colour combines with the pixels under it.
type BlendMode uint8

const (
	Normal BlendMode = iota
	Add
	Multiply
	Subtract

	numBlendModes
)

// blendInfo holds the persisted name and the per-channel function of a
// mode. Adding a mode means adding a constant and an entry here.
type blendInfo struct {
	name string
	// fn combines a base and a top channel, both in [0,1].
	fn func(base, top float32) float32
}

var blendModes = [numBlendModes]blendInfo{
	Normal: {"NORMAL", func(_, top float32) float32 {
		return top
	}},
	Add: {"ADD", func(base, top float32) float32 {
		return min(1, base+top)
	}},
	Multiply: {"MULTIPLY", func(base, top float32) float32 {
		return base * top
	}},
	Subtract: {"SUBTRACT", func(base, top float32) float32 {
		return max(0, base-top)
	}},
}

// BlendModes lists every mode in declaration order.
func BlendModes() []BlendMode {
	out := make([]BlendMode, numBlendModes)
	for i := range out {
		out[i] = BlendMode(i)
	}
	return out
}

// Valid reports whether m is a known mode.
func (m BlendMode) Valid() bool {
	return m < numBlendModes
}

func (m BlendMode) String() string {
	if !m.Valid() {
		return fmt.Sprintf("BlendMode(%d)", uint8(m))
	}
	return blendModes[m].name
}

// channel applies m to one channel. Unknown modes behave like Normal.
func (m BlendMode) channel(base, top float32) float32 {
	if !m.Valid() {
		return top
	}
	return blendModes[m].fn(base, top)
}

// ParseBlendMode maps a persisted name such as "MULTIPLY" to its mode.
func ParseBlendMode(name string) (BlendMode, error) {
	for i, info := range blendModes {
		if info.name == name {
			return BlendMode(i), nil
		}
	}
	return Normal, fmt.Errorf("%w: %q", ErrUnknownBlendMode, name)
}

// MarshalText implements encoding.TextMarshaler.
func (m BlendMode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownBlendMode, uint8(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *BlendMode) UnmarshalText(text []byte) error {
	v, err := ParseBlendMode(string(text))
	if err != nil {
		return err
	}
	*m = v
	return nil
}
