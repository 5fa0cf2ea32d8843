package initwfn

import (
	"encoding/json"
	"math"
	"testing"

	"gorgonia.org/tensor"
)

func TestGlorotUJSON(t *testing.T) {
	src, err := NewGlorotU(1.0)
	if err != nil {
		t.Fatalf("could not create initializer: %v", err)
	}

	data, err := json.Marshal(src)
	if err != nil {
		t.Fatalf("could not marshal initializer: %v", err)
	}

	var decoded InitWFn
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("could not unmarshal initializer: %v", err)
	}

	if decoded.Type != GlorotU {
		t.Errorf("type: got %v, expected %v", decoded.Type, GlorotU)
	}

	config, ok := decoded.Config.(GlorotUConfig)
	if !ok {
		t.Fatalf("config: got %T, expected GlorotUConfig", decoded.Config)
	}
	if config.Gain != 1.0 {
		t.Errorf("gain: got %v, expected %v", config.Gain, 1.0)
	}
}

func TestGlorotUBounds(t *testing.T) {
	wfn, err := NewGlorotU(1.0)
	if err != nil {
		t.Fatalf("could not create initializer: %v", err)
	}

	fanIn, fanOut := 3, 4
	weights := wfn.InitWFn()(tensor.Float64, fanIn, fanOut).([]float64)
	if len(weights) != fanIn*fanOut {
		t.Fatalf("weights: got %v values, expected %v", len(weights),
			fanIn*fanOut)
	}

	bound := math.Sqrt(6.0 / float64(fanIn+fanOut))
	nonZero := false
	for _, w := range weights {
		if math.Abs(w) > bound {
			t.Errorf("weight %v outside of bound %v", w, bound)
		}
		if w != 0 {
			nonZero = true
		}
	}
	if !nonZero {
		t.Error("expected at least one non-zero weight")
	}
}

func TestZeroes(t *testing.T) {
	wfn, err := NewZeroes()
	if err != nil {
		t.Fatalf("could not create initializer: %v", err)
	}

	weights := wfn.InitWFn()(tensor.Float64, 5).([]float64)
	for i, w := range weights {
		if w != 0 {
			t.Errorf("weight %d: got %v, expected 0", i, w)
		}
	}
}
