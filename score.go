package layerlab

import (
	"gonum.org/v1/gonum/floats"
)

// Scoring weights and falloff distances. A colour 150 units away (in RGB
// space) or a centre 200 units away scores zero on that factor.
const (
	ColorWeight    = 0.45
	PositionWeight = 0.35
	BlendWeight    = 0.20

	ColorFalloff    = 150.0
	PositionFalloff = 200.0
)

// LayerScore is the per-factor breakdown for one compared pair.
type LayerScore struct {
	Index         int
	ColorDistance float64
	CenterOffset  float64
	Color         float64
	Position      float64
	Blend         float64
}

// Total is the weighted sum of the three factors, in [0,1].
func (s LayerScore) Total() float64 {
	return ColorWeight*s.Color + PositionWeight*s.Position + BlendWeight*s.Blend
}

// Report is the result of comparing an attempt against a target.
type Report struct {
	// Layers holds one entry per compared index.
	Layers []LayerScore
	// Targets is the number of target layers, the score denominator.
	Targets int
}

// Score is the sum of the per-layer totals over the number of target
// layers. Target layers without a counterpart count as zero.
func (r Report) Score() float64 {
	if r.Targets == 0 || len(r.Layers) == 0 {
		return 0
	}
	var sum float64
	for _, l := range r.Layers {
		sum += l.Total()
	}
	return sum / float64(r.Targets)
}

// Compare pairs target and attempt layers by index. Layers past the
// shorter sequence are not compared.
func Compare(target, attempt []Layer) Report {
	rep := Report{Targets: len(target)}
	if len(target) == 0 || len(attempt) == 0 {
		return rep
	}
	n := min(len(target), len(attempt))
	rep.Layers = make([]LayerScore, n)
	for i := range n {
		rep.Layers[i] = compareLayer(i, target[i], attempt[i])
	}
	return rep
}

// Score grades attempt against target, from 0 (nothing alike, or either
// side empty) to 1.
func Score(target, attempt []Layer) float64 {
	return Compare(target, attempt).Score()
}

func compareLayer(i int, t, a Layer) LayerScore {
	cd := floats.Distance(rgbVec(t.Color), rgbVec(a.Color), 2)
	tc, ac := t.Rect.Center(), a.Rect.Center()
	pd := floats.Distance(
		[]float64{float64(tc.X), float64(tc.Y)},
		[]float64{float64(ac.X), float64(ac.Y)},
		2,
	)
	s := LayerScore{
		Index:         i,
		ColorDistance: cd,
		CenterOffset:  pd,
		Color:         max(0, 1-cd/ColorFalloff),
		Position:      max(0, 1-pd/PositionFalloff),
	}
	if t.Mode == a.Mode {
		s.Blend = 1
	}
	return s
}

func rgbVec(c RGB) []float64 {
	return []float64{float64(c.R), float64(c.G), float64(c.B)}
}
