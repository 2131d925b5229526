/*
Copyright © 2019 the InMAP authors.
This file is part of rainfarm.

rainfarm is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

rainfarm is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with rainfarm.  If not, see <http://www.gnu.org/licenses/>.
*/

package rainfarm

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sync"

	"github.com/ctessum/requestcache"
	"gonum.org/v1/gonum/dsp/fourier"
)

// FrequencyGrid holds the discrete spatial frequencies of a field that
// has been upsampled by Factor. The grid has Factor*rows rows and
// Factor*cols columns, and its frequency spacing is scaled so that it
// spans the same physical domain as the original field.
// A FrequencyGrid must not be modified after it is created.
type FrequencyGrid struct {
	Factor int

	// Ki and Kj are the frequencies along the row and column axes.
	Ki, Kj []float64
}

// NewFrequencyGrid returns the frequency grid for a rows×cols field
// upsampled by factor. A factor of 1 gives the grid of the field itself.
func NewFrequencyGrid(rows, cols, factor int) *FrequencyGrid {
	d := 1 / float64(factor)
	return &FrequencyGrid{
		Factor: factor,
		Ki:     fftFreq(rows*factor, d),
		Kj:     fftFreq(cols*factor, d),
	}
}

// Dims returns the number of rows and columns in the grid.
func (g *FrequencyGrid) Dims() (rows, cols int) {
	return len(g.Ki), len(g.Kj)
}

// K2 returns the squared radial frequency at grid point (i, j).
func (g *FrequencyGrid) K2(i, j int) float64 {
	return g.Ki[i]*g.Ki[i] + g.Kj[j]*g.Kj[j]
}

// K returns the radial frequency at grid point (i, j).
func (g *FrequencyGrid) K(i, j int) float64 {
	return math.Sqrt(g.K2(i, j))
}

// fftFreq returns the sample frequencies of a discrete Fourier transform
// of length n with sample spacing d, in the standard order: zero, then
// the positive frequencies, then the negative frequencies.
func fftFreq(n int, d float64) []float64 {
	f := make([]float64, n)
	scale := 1 / (d * float64(n))
	for i := 0; i < (n+1)/2; i++ {
		f[i] = float64(i) * scale
	}
	for i := (n + 1) / 2; i < n; i++ {
		f[i] = float64(i-n) * scale
	}
	return f
}

var (
	gridCache     *requestcache.Cache
	gridCacheOnce sync.Once
)

type gridRequest struct {
	rows, cols, factor int
}

// frequencyGrid returns a possibly cached FrequencyGrid.
func frequencyGrid(rows, cols, factor int) *FrequencyGrid {
	gridCacheOnce.Do(func() {
		gridCache = requestcache.NewCache(func(ctx context.Context, request interface{}) (interface{}, error) {
			r := request.(gridRequest)
			return NewFrequencyGrid(r.rows, r.cols, r.factor), nil
		}, runtime.GOMAXPROCS(-1), requestcache.Deduplicate(), requestcache.Memory(16))
	})
	req := gridCache.NewRequest(context.TODO(),
		gridRequest{rows: rows, cols: cols, factor: factor},
		fmt.Sprintf("%d_%d_%d", rows, cols, factor),
	)
	g, err := req.Result()
	if err != nil {
		panic(err) // NewFrequencyGrid does not fail.
	}
	return g.(*FrequencyGrid)
}

// fft2 computes the unnormalized two-dimensional discrete Fourier
// transform of the row-major rows×cols array a in place: rows first,
// then columns. If forward is false, the inverse transform is computed
// instead; it must be scaled by 1/(rows*cols) by the caller.
func fft2(a []complex128, rows, cols int, forward bool) {
	if len(a) != rows*cols {
		panic(fmt.Errorf("rainfarm: fft2 array length %d != %d×%d", len(a), rows, cols))
	}
	rowFFT := fourier.NewCmplxFFT(cols)
	for i := 0; i < rows; i++ {
		row := a[i*cols : (i+1)*cols]
		if forward {
			rowFFT.Coefficients(row, row)
		} else {
			rowFFT.Sequence(row, row)
		}
	}

	colFFT := fourier.NewCmplxFFT(rows)
	col := make([]complex128, rows)
	for j := 0; j < cols; j++ {
		for i := 0; i < rows; i++ {
			col[i] = a[i*cols+j]
		}
		if forward {
			colFFT.Coefficients(col, col)
		} else {
			colFFT.Sequence(col, col)
		}
		for i := 0; i < rows; i++ {
			a[i*cols+j] = col[i]
		}
	}
}
