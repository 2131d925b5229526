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

	"gonum.org/v1/gonum/mat"
)

// checkField makes sure that p has at least one cell and that every value
// is finite and non-negative.
func checkField(p mat.Matrix) error {
	rows, cols := p.Dims()
	if rows == 0 || cols == 0 {
		return &FieldError{Row: -1, Col: -1}
	}
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := p.At(i, j)
			if !isFinite(v) || v < 0 {
				return &FieldError{Row: i, Col: j, Value: v}
			}
		}
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// denseOf returns m as a *mat.Dense, copying it only if it is some other
// kind of matrix.
func denseOf(m mat.Matrix) *mat.Dense {
	if d, ok := m.(*mat.Dense); ok {
		return d
	}
	return mat.DenseCopyOf(m)
}

// Upsample returns p with every cell replicated into a factor×factor
// block (nearest neighbor, no interpolation).
func Upsample(p mat.Matrix, factor int) *mat.Dense {
	rows, cols := p.Dims()
	o := mat.NewDense(rows*factor, cols*factor, nil)
	for i := 0; i < rows*factor; i++ {
		row := o.RawRowView(i)
		for j := range row {
			row[j] = p.At(i/factor, j/factor)
		}
	}
	return o
}

// Aggregate returns the block mean of p over factor×factor blocks,
// i.e. the inverse of Upsample. The dimensions of p must be divisible
// by factor.
func Aggregate(p mat.Matrix, factor int) (*mat.Dense, error) {
	if factor < 1 {
		return nil, fmt.Errorf("rainfarm: aggregation factor must be >= 1, got %d", factor)
	}
	rows, cols := p.Dims()
	if rows == 0 || cols == 0 || rows%factor != 0 || cols%factor != 0 {
		return nil, fmt.Errorf("rainfarm: field dimensions %dx%d are not divisible by "+
			"the aggregation factor %d", rows, cols, factor)
	}
	o := mat.NewDense(rows/factor, cols/factor, nil)
	n := float64(factor * factor)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			ii, jj := i/factor, j/factor
			o.Set(ii, jj, o.At(ii, jj)+p.At(i, j)/n)
		}
	}
	return o, nil
}

// FillNonFinite replaces every NaN or infinite value in p with fill and
// returns the number of values replaced.
func FillNonFinite(p *mat.Dense, fill float64) int {
	var n int
	p.Apply(func(_, _ int, v float64) float64 {
		if isFinite(v) {
			return v
		}
		n++
		return fill
	}, p)
	return n
}
