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
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// MinSlopeSamples is the smallest number of frequency samples, with at
// least two distinct frequencies, that the spectral slope will be fit to.
const MinSlopeSamples = 3

// EstimateSlope estimates the spectral slope α of field p, where the
// power spectrum of p is assumed to decay as k^-α with radial frequency
// k. The slope is fit by least squares to the log power spectrum over the
// central two thirds of the range of log frequencies, which excludes the
// mean and the frequencies close to the Nyquist limit.
//
// Fields smaller than about 4×4 do not have enough frequencies for
// a fit and return an *InsufficientDataError; a few dozen cells
// along each axis are needed for a robust estimate.
func EstimateSlope(p mat.Matrix) (float64, error) {
	if err := checkField(p); err != nil {
		return 0, err
	}
	rows, cols := p.Dims()
	grid := frequencyGrid(rows, cols, 1)

	f := make([]complex128, rows*cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			f[i*cols+j] = complex(p.At(i, j), 0)
		}
	}
	fft2(f, rows, cols, true)

	var logK, logPower []float64
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			k := grid.K(i, j)
			if k == 0 {
				continue
			}
			a := cmplx.Abs(f[i*cols+j])
			lp := math.Log(a * a)
			if !isFinite(lp) { // zero amplitude
				continue
			}
			logK = append(logK, math.Log(k))
			logPower = append(logPower, lp)
		}
	}
	return logSlope(logK, logPower, rows, cols)
}

// logSlope fits a line to logPower as a function of logK within the
// central two thirds of the range of logK and returns the negated slope.
func logSlope(logK, logPower []float64, rows, cols int) (float64, error) {
	if len(logK) == 0 {
		return 0, &InsufficientDataError{Rows: rows, Cols: cols}
	}
	lkMin, lkMax := floats.Min(logK), floats.Max(logK)
	lkRange := lkMax - lkMin
	lkMin += lkRange / 6
	lkMax -= lkRange / 6

	var x, y []float64
	for i, lk := range logK {
		if lkMin <= lk && lk <= lkMax {
			x = append(x, lk)
			y = append(y, logPower[i])
		}
	}
	if len(x) < MinSlopeSamples || floats.Min(x) == floats.Max(x) {
		return 0, &InsufficientDataError{Rows: rows, Cols: cols, Samples: len(x)}
	}

	_, slope := stat.LinearRegression(x, y, nil, false)
	alpha := -slope
	if !isFinite(alpha) {
		return 0, &InsufficientDataError{Rows: rows, Cols: cols, Samples: len(x), Alpha: alpha}
	}
	return alpha, nil
}
