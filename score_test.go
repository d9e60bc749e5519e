package layerlab

import (
	"math"
	"testing"
)

const eps = 1e-9

func TestScoreEmpty(t *testing.T) {
	a := sample(2)
	tests := []struct {
		name            string
		target, attempt []Layer
	}{
		{"both empty", nil, nil},
		{"empty target", nil, a},
		{"empty attempt", a, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Score(tt.target, tt.attempt); got != 0 {
				t.Errorf("Score = %v, want 0", got)
			}
		})
	}
}

func TestScoreIdentical(t *testing.T) {
	ls := sample(4)
	if got := Score(ls, ls); math.Abs(got-1) > eps {
		t.Errorf("Score(x, x) = %v, want 1", got)
	}
}

func TestScoreConcreteScenario(t *testing.T) {
	target := []Layer{layer(RGB{255, 0, 0}, 1, Multiply, 0, 0, 100, 100)}
	attempt := []Layer{layer(RGB{255, 0, 0}, 0.2, Multiply, 100, 0, 100, 100)}

	rep := Compare(target, attempt)
	if len(rep.Layers) != 1 {
		t.Fatalf("compared %d layers, want 1", len(rep.Layers))
	}
	l := rep.Layers[0]
	if l.ColorDistance != 0 || l.Color != 1 {
		t.Errorf("colour distance %v score %v, want 0 and 1", l.ColorDistance, l.Color)
	}
	if l.CenterOffset != 100 || math.Abs(l.Position-0.5) > eps {
		t.Errorf("centre offset %v score %v, want 100 and 0.5", l.CenterOffset, l.Position)
	}
	if l.Blend != 1 {
		t.Errorf("blend = %v, want 1", l.Blend)
	}
	if got := Score(target, attempt); math.Abs(got-0.825) > eps {
		t.Errorf("Score = %v, want 0.825", got)
	}
}

func TestScoreDividesByTargetLength(t *testing.T) {
	ls := sample(3)
	if got := Score(ls, ls[:2]); math.Abs(got-2.0/3) > eps {
		t.Errorf("Score([A,B,C], [A,B]) = %v, want 2/3", got)
	}
	// Extra attempt layers are ignored.
	extra := append(sample(3), layer(RGB{1, 2, 3}, 1, Add, 500, 500, 10, 10))
	if got := Score(ls, extra); math.Abs(got-1) > eps {
		t.Errorf("Score with extra attempt layer = %v, want 1", got)
	}
}

func TestScoreFactors(t *testing.T) {
	base := layer(RGB{100, 100, 100}, 1, Normal, 0, 0, 100, 100)
	tests := []struct {
		name    string
		attempt Layer
		want    float64
	}{
		{
			"blend mismatch",
			layer(RGB{100, 100, 100}, 1, Add, 0, 0, 100, 100),
			0.80,
		},
		{
			// distance 75 => colour score 0.5
			"colour halfway",
			layer(RGB{100, 160, 145}, 1, Normal, 0, 0, 100, 100),
			0.45*0.5 + 0.35 + 0.20,
		},
		{
			"colour beyond falloff",
			layer(RGB{255, 255, 255}, 1, Normal, 0, 0, 100, 100),
			0.55,
		},
		{
			"position beyond falloff",
			layer(RGB{100, 100, 100}, 1, Normal, 300, 0, 100, 100),
			0.65,
		},
		{
			// 3-4-5 triangle, 150 away => position score 0.25
			"diagonal offset",
			layer(RGB{100, 100, 100}, 1, Normal, 90, 120, 100, 100),
			0.45 + 0.35*0.25 + 0.20,
		},
		{
			"size does not matter when centred",
			layer(RGB{100, 100, 100}, 1, Normal, 40, 40, 20, 20),
			1,
		},
		{
			"opacity is not scored",
			layer(RGB{100, 100, 100}, 0.1, Normal, 0, 0, 100, 100),
			1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score([]Layer{base}, []Layer{tt.attempt})
			if math.Abs(got-tt.want) > eps {
				t.Errorf("Score = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScorePairsByIndex(t *testing.T) {
	a := layer(RGB{255, 0, 0}, 1, Normal, 0, 0, 50, 50)
	b := layer(RGB{0, 0, 255}, 1, Multiply, 400, 400, 50, 50)
	if got := Score([]Layer{a, b}, []Layer{b, a}); got >= 0.5 {
		t.Errorf("swapped order scored %v, want well below 0.5", got)
	}
}

func TestScoreRange(t *testing.T) {
	ls := sample(5)
	other := []Layer{
		layer(RGB{0, 255, 255}, 1, Subtract, 700, 500, 10, 10),
		layer(RGB{255, 255, 255}, 1, Add, 600, 0, 10, 10),
	}
	for _, pair := range [][2][]Layer{{ls, other}, {other, ls}, {ls, ls[:1]}} {
		got := Score(pair[0], pair[1])
		if got < 0 || got > 1 {
			t.Errorf("Score = %v, outside [0,1]", got)
		}
	}
}
