package texture

import (
	"context"
	"math"
	"testing"
)

func TestLocalMeanAllFiniteEqualsBoxMean(t *testing.T) {
	// 5x5 grid of constant value 3: every window mean must be 3.
	rows, cols := 5, 5
	a := make([]float64, rows*cols)
	for i := range a {
		a[i] = 3
	}
	mean := localMean(a, rows, cols, 3)
	for i, v := range mean {
		if v != 3 {
			t.Fatalf("mean[%d] = %v, want 3", i, v)
		}
	}
}

func TestLocalMeanIgnoresNaN(t *testing.T) {
	rows, cols := 3, 3
	a := []float64{
		1, 2, math.NaN(),
		4, 5, 6,
		7, 8, 9,
	}
	mean := localMean(a, rows, cols, 3)
	// Center cell's 3x3 window covers the whole grid; mean of the 8
	// finite values (45-NaN => sum 1+2+4+5+6+7+8+9=42, count 8) = 5.25.
	center := mean[1*cols+1]
	want := 42.0 / 8.0
	if math.Abs(center-want) > 1e-9 {
		t.Errorf("center mean = %v, want %v", center, want)
	}
}

func TestLocalMeanAllNaNWindowYieldsNaN(t *testing.T) {
	a := []float64{math.NaN()}
	mean := localMean(a, 1, 1, 3)
	if !math.IsNaN(mean[0]) {
		t.Errorf("expected NaN, got %v", mean[0])
	}
}

func TestLocalStdParallelMatchesSequential(t *testing.T) {
	rows, cols := 10, 10
	a := make([]float64, rows*cols)
	for i := range a {
		a[i] = float64(i % 7)
	}
	res, err := Filter(context.Background(), a, rows, cols, 3)
	if err != nil {
		t.Fatal(err)
	}
	if res.Rows != rows || res.Cols != cols {
		t.Fatalf("unexpected shape %dx%d", res.Rows, res.Cols)
	}

	var sequential []float64
	localStdBand(a, func() []float64 { s := make([]float64, rows*cols); sequential = s; return s }(), rows, cols, 1, 0, rows)
	for i := range sequential {
		if math.Abs(sequential[i]-res.Std[i]) > 1e-9 {
			t.Fatalf("std[%d]: parallel=%v sequential=%v", i, res.Std[i], sequential[i])
		}
	}
}

func TestBoxSumConstantPadding(t *testing.T) {
	a := []float64{1, 1, 1, 1}
	sums := boxSum(a, 2, 2, 3)
	// Corner cell's 3x3 window only overlaps the 2x2 array; sum = 4.
	if sums[0] != 4 {
		t.Errorf("corner sum = %v, want 4", sums[0])
	}
}
