// Package texture computes the NaN-aware local mean and standard
// deviation of a band-difference array over a square kernel, per §4.6.
// The mean is two uniform-box convolutions (O(HW) in samples); the
// standard deviation is evaluated tile-by-tile across a semaphore-bounded
// worker pool, mirroring the tile-download worker pool elsewhere in this
// codebase's ancestry.
package texture

import (
	"context"
	"math"
	"runtime"
	"sync"

	"golang.org/x/sync/semaphore"
	"gonum.org/v1/gonum/stat"
)

// Result holds the local mean and standard deviation grids, each the same
// shape as the filtered input.
type Result struct {
	Rows, Cols int
	Mean       []float64
	Std        []float64
}

// Filter computes (mean_local, std_local) for a over a k x k window
// (k must be odd; the default per §4.6 is 5).
func Filter(ctx context.Context, a []float64, rows, cols, k int) (Result, error) {
	mean := localMean(a, rows, cols, k)
	std, err := localStdParallel(ctx, a, rows, cols, k)
	if err != nil {
		return Result{}, err
	}
	return Result{Rows: rows, Cols: cols, Mean: mean, Std: std}, nil
}

// localMean implements §4.6's two-box-convolution mean: a NaN-substituted
// sum array and a finite-count array, both summed over the k x k window
// via a running box sum, then divided with NaN where the window's finite
// count is zero.
func localMean(a []float64, rows, cols, k int) []float64 {
	v := make([]float64, len(a))
	n := make([]float64, len(a))
	for i, x := range a {
		if math.IsNaN(x) {
			n[i] = 0
			v[i] = 0
		} else {
			n[i] = 1
			v[i] = x
		}
	}

	sumV := boxSum(v, rows, cols, k)
	sumN := boxSum(n, rows, cols, k)

	out := make([]float64, len(a))
	for i := range out {
		if sumN[i] == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = sumV[i] / sumN[i]
	}
	return out
}

// boxSum computes, for each cell, the sum of a k x k window centered on
// it, constant-padding with 0 outside the array bounds (§4.6's boundary
// policy), via a 2-D prefix sum for O(HW) total work.
func boxSum(a []float64, rows, cols, k int) []float64 {
	half := k / 2

	prefix := make([]float64, (rows+1)*(cols+1))
	idx := func(r, c int) int { return r*(cols+1) + c }
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			prefix[idx(r+1, c+1)] = a[r*cols+c] + prefix[idx(r, c+1)] + prefix[idx(r+1, c)] - prefix[idx(r, c)]
		}
	}

	rangeSum := func(r0, r1, c0, c1 int) float64 {
		if r0 < 0 {
			r0 = 0
		}
		if c0 < 0 {
			c0 = 0
		}
		if r1 > rows {
			r1 = rows
		}
		if c1 > cols {
			c1 = cols
		}
		if r1 <= r0 || c1 <= c0 {
			return 0
		}
		return prefix[idx(r1, c1)] - prefix[idx(r0, c1)] - prefix[idx(r1, c0)] + prefix[idx(r0, c0)]
	}

	out := make([]float64, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			out[r*cols+c] = rangeSum(r-half, r+half+1, c-half, c+half+1)
		}
	}
	return out
}

// localStdParallel evaluates the NaN-aware sample standard deviation over
// a k x k window at every cell, partitioning rows into bands with a
// floor(k/2) halo and computing each band on a worker drawn from a
// semaphore-bounded pool, per §5's scheduling model.
func localStdParallel(ctx context.Context, a []float64, rows, cols, k int) ([]float64, error) {
	half := k / 2
	out := make([]float64, rows*cols)

	workers := runtime.GOMAXPROCS(0)
	if workers > rows {
		workers = rows
	}
	if workers < 1 {
		workers = 1
	}
	bandHeight := (rows + workers - 1) / workers

	sem := semaphore.NewWeighted(int64(workers))
	var wg sync.WaitGroup
	errs := make([]error, workers)

	for band := 0; band < workers; band++ {
		r0 := band * bandHeight
		r1 := r0 + bandHeight
		if r1 > rows {
			r1 = rows
		}
		if r0 >= r1 {
			continue
		}
		wg.Add(1)
		go func(band, r0, r1 int) {
			defer wg.Done()
			if err := sem.Acquire(ctx, 1); err != nil {
				errs[band] = err
				return
			}
			defer sem.Release(1)
			localStdBand(a, out, rows, cols, half, r0, r1)
		}(band, r0, r1)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// localStdBand fills out[r0:r1, :] with the NaN-aware standard deviation
// of the k x k window centered on each cell.
func localStdBand(a, out []float64, rows, cols, half, r0, r1 int) {
	window := make([]float64, 0, (2*half+1)*(2*half+1))
	for r := r0; r < r1; r++ {
		rLo, rHi := r-half, r+half
		if rLo < 0 {
			rLo = 0
		}
		if rHi >= rows {
			rHi = rows - 1
		}
		for c := 0; c < cols; c++ {
			cLo, cHi := c-half, c+half
			if cLo < 0 {
				cLo = 0
			}
			if cHi >= cols {
				cHi = cols - 1
			}

			window = window[:0]
			for wr := rLo; wr <= rHi; wr++ {
				base := wr * cols
				for wc := cLo; wc <= cHi; wc++ {
					v := a[base+wc]
					if !math.IsNaN(v) {
						window = append(window, v)
					}
				}
			}

			idx := r*cols + c
			if len(window) < 2 {
				if len(window) == 0 {
					out[idx] = math.NaN()
				} else {
					out[idx] = 0
				}
				continue
			}
			out[idx] = stat.StdDev(window, nil)
		}
	}
}
