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

	"gonum.org/v1/gonum/mat"
)

// tap is a non-zero kernel weight at an offset from the kernel center.
type tap struct {
	di, dj int
	w      float64
}

// taps returns the non-zero weights of kernel k, flipped so that they
// can be applied as a convolution. The kernel center is at
// (rows/2, cols/2).
func taps(k mat.Matrix) []tap {
	rows, cols := k.Dims()
	ci, cj := rows/2, cols/2
	var t []tap
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if w := k.At(i, j); w != 0 {
				t = append(t, tap{di: ci - i, dj: cj - j, w: w})
			}
		}
	}
	return t
}

// BalancedAverage returns the kernel-weighted local average of x,
// calculated as convolve(x, k) / convolve(ones, k). Values outside of x
// are treated as missing rather than zero, so cells near the edges are
// averaged only over the part of the kernel that overlaps x. Cells
// where no kernel weight overlaps x are NaN.
func BalancedAverage(x, k mat.Matrix) *mat.Dense {
	xd := denseOf(x).RawMatrix()
	rows, cols := xd.Rows, xd.Cols
	t := taps(k)
	o := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		orow := o.RawRowView(i)
		for j := range orow {
			var sum, weight float64
			for _, tt := range t {
				ii, jj := i+tt.di, j+tt.dj
				if ii < 0 || ii >= rows || jj < 0 || jj >= cols {
					continue
				}
				sum += tt.w * xd.Data[ii*xd.Stride+jj]
				weight += tt.w
			}
			orow[j] = sum / weight
		}
	}
	return o
}

// LocalAverage returns the balanced local average of p using the
// top-hat kernel for downscaling factor.
func LocalAverage(p mat.Matrix, factor int) *mat.Dense {
	return BalancedAverage(p, topHat(factor))
}

// Renormalize rescales the synthetic field r so that its local average
// under kernel k matches the local average of pu, the original field
// upsampled to the resolution of r. If threshold is not nil, values
// below *threshold are set to zero. A zero or non-finite local average
// of r, or a non-finite ratio, results in a *NumericalInstabilityError.
func Renormalize(pu, r, k mat.Matrix, threshold *float64) (*mat.Dense, error) {
	rows, cols := r.Dims()
	if pr, pc := pu.Dims(); pr != rows || pc != cols {
		return nil, fmt.Errorf("rainfarm: renormalizing: original field is %dx%d but "+
			"synthetic field is %dx%d", pr, pc, rows, cols)
	}
	pAgg := BalancedAverage(pu, k)
	rAgg := BalancedAverage(r, k)

	o := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		orow := o.RawRowView(i)
		for j := range orow {
			d := rAgg.At(i, j)
			ratio := pAgg.At(i, j) / d
			if d == 0 || !isFinite(d) || !isFinite(ratio) {
				return nil, &NumericalInstabilityError{Row: i, Col: j, Divisor: d, Ratio: ratio}
			}
			v := r.At(i, j) * ratio
			if !isFinite(v) {
				return nil, &NumericalInstabilityError{Row: i, Col: j, Divisor: d, Ratio: ratio}
			}
			if threshold != nil && v < *threshold {
				v = 0
			}
			orow[j] = v
		}
	}
	return o, nil
}
