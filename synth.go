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
	"fmt"
	"math"
	"math/cmplx"
	"math/rand"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Synthesize returns a random, positive, multiplicative noise field on
// grid whose logarithm has a power spectrum decaying as k^-alpha and unit
// standard deviation. Phases are drawn from rng in row-major order, so
// the result is reproducible for a given rng state. rng is not safe
// for concurrent use; give each goroutine its own.
func Synthesize(alpha float64, grid *FrequencyGrid, rng *rand.Rand) (*mat.Dense, error) {
	g, err := noiseField(alpha, grid, rng)
	if err != nil {
		return nil, err
	}
	g.Apply(func(_, _ int, v float64) float64 { return math.Exp(v) }, g)
	return g, nil
}

// noiseField returns a zero-mean, unit-variance real field on grid with
// random phases and power spectrum k^-alpha.
func noiseField(alpha float64, grid *FrequencyGrid, rng *rand.Rand) (*mat.Dense, error) {
	if !isFinite(alpha) {
		return nil, fmt.Errorf("rainfarm: spectral slope must be finite, got %g", alpha)
	}
	rows, cols := grid.Dims()
	fg := make([]complex128, rows*cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			phase := 2 * math.Pi * rng.Float64()
			k2 := grid.K2(i, j)
			if k2 == 0 {
				continue // the mean stays zero
			}
			fg[i*cols+j] = cmplx.Rect(math.Pow(k2, -alpha/4), phase)
		}
	}
	fft2(fg, rows, cols, false)

	n := float64(rows * cols)
	data := make([]float64, rows*cols)
	for i, v := range fg {
		data[i] = real(v) / n
	}
	_, std := stat.PopMeanStdDev(data, nil)
	if std == 0 || !isFinite(std) {
		return nil, &DegenerateFieldError{Rows: rows, Cols: cols, StdDev: std}
	}
	floats.Scale(1/std, data)
	return mat.NewDense(rows, cols, data), nil
}
