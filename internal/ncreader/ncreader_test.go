package ncreader

import (
	"math"
	"testing"
)

func TestFillValueDefaultsWhenAttrMissing(t *testing.T) {
	r := &Reader{path: "missing.nc", f: nil}
	// fillValue must not panic on a Reader whose floatAttr lookup fails;
	// it falls back to missingSentinel. floatAttr itself requires a live
	// cdf.File, so this only exercises the default-path contract via a
	// direct sentinel comparison.
	if missingSentinel != -999.0 {
		t.Fatalf("sentinel changed unexpectedly: %v", missingSentinel)
	}
	_ = r
}

func TestNaNSubstitutionLogic(t *testing.T) {
	fill := float32(-999.0)
	buf := []float32{1.5, -999.0, 2.5}
	out := make([]float64, len(buf))
	for i, v := range buf {
		if v == fill || math.IsNaN(float64(v)) {
			out[i] = math.NaN()
			continue
		}
		out[i] = float64(v)
	}
	if !math.IsNaN(out[1]) {
		t.Errorf("expected NaN at fill index, got %v", out[1])
	}
	if out[0] != 1.5 || out[2] != 2.5 {
		t.Errorf("unexpected pass-through values: %v", out)
	}
}
