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
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestKernelRadius(t *testing.T) {
	for factor, want := range map[int]int{1: 1, 2: 1, 4: 2, 8: 5, 16: 9} {
		if have := kernelRadius(factor); have != want {
			t.Errorf("kernelRadius(%d) = %d; want %d", factor, have, want)
		}
	}
}

func TestTopHat(t *testing.T) {
	k := TopHat(4)
	rows, cols := k.Dims()
	if rows != 5 || cols != 5 {
		t.Fatalf("dims = %dx%d; want 5x5", rows, cols)
	}
	var n int
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := k.At(i, j)
			if v == 0 {
				continue
			}
			n++
			if absDifferent(v, 1./13, 1e-15) {
				t.Errorf("weight (%d, %d) = %g; want 1/13", i, j, v)
			}
		}
	}
	if n != 13 {
		t.Errorf("%d non-zero weights; want 13", n)
	}
	if k.At(0, 0) != 0 || k.At(0, 2) == 0 {
		t.Error("kernel should be disc-shaped")
	}
	if absDifferent(mat.Sum(k), 1, 1e-14) {
		t.Errorf("weights sum to %g; want 1", mat.Sum(k))
	}

	t.Run("cross", func(t *testing.T) {
		want := mat.NewDense(3, 3, []float64{
			0, 0.2, 0,
			0.2, 0.2, 0.2,
			0, 0.2, 0,
		})
		if k := TopHat(1); !mat.EqualApprox(k, want, 1e-15) {
			t.Errorf("TopHat(1) = %v; want %v", mat.Formatted(k), mat.Formatted(want))
		}
	})

	t.Run("copy", func(t *testing.T) {
		k := TopHat(4)
		k.Set(2, 2, 100)
		if topHat(4).At(2, 2) == 100 {
			t.Error("modifying the returned kernel should not modify the cache")
		}
	})
}
