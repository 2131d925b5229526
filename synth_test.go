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
	"errors"
	"fmt"
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

func TestNoiseField(t *testing.T) {
	for _, alpha := range []float64{0, 1, 2.5} {
		t.Run(fmt.Sprint(alpha), func(t *testing.T) {
			g, err := noiseField(alpha, NewFrequencyGrid(12, 10, 4), rand.New(rand.NewSource(2)))
			if err != nil {
				t.Fatal(err)
			}
			rows, cols := g.Dims()
			if rows != 48 || cols != 40 {
				t.Fatalf("dims = %dx%d; want 48x40", rows, cols)
			}
			mean, std := stat.PopMeanStdDev(g.RawMatrix().Data, nil)
			if absDifferent(mean, 0, 1e-9) {
				t.Errorf("mean = %g; want 0", mean)
			}
			if absDifferent(std, 1, 1e-9) {
				t.Errorf("standard deviation = %g; want 1", std)
			}
		})
	}
}

func TestSynthesize(t *testing.T) {
	grid := NewFrequencyGrid(8, 8, 2)
	r, err := Synthesize(2, grid, rand.New(rand.NewSource(3)))
	if err != nil {
		t.Fatal(err)
	}
	rows, cols := r.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if v := r.At(i, j); !(v > 0) || math.IsInf(v, 0) {
				t.Fatalf("r(%d, %d) = %g; should be positive and finite", i, j, v)
			}
		}
	}

	t.Run("reproducible", func(t *testing.T) {
		r2, err := Synthesize(2, grid, rand.New(rand.NewSource(3)))
		if err != nil {
			t.Fatal(err)
		}
		if !mat.Equal(r, r2) {
			t.Error("fields synthesized from the same seed should be identical")
		}
		r3, err := Synthesize(2, grid, rand.New(rand.NewSource(4)))
		if err != nil {
			t.Fatal(err)
		}
		if mat.Equal(r, r3) {
			t.Error("fields synthesized from different seeds should differ")
		}
	})
}

func TestSynthesizeDegenerate(t *testing.T) {
	// A single cell only has the zero frequency, which is always removed.
	_, err := Synthesize(1, NewFrequencyGrid(1, 1, 1), rand.New(rand.NewSource(1)))
	var dfe *DegenerateFieldError
	if !errors.As(err, &dfe) {
		t.Fatalf("error should be DegenerateFieldError but is %v", err)
	}
	if dfe.StdDev != 0 {
		t.Errorf("standard deviation = %g; want 0", dfe.StdDev)
	}
}

func TestSynthesizeNonFiniteSlope(t *testing.T) {
	for _, alpha := range []float64{math.NaN(), math.Inf(1)} {
		if _, err := Synthesize(alpha, NewFrequencyGrid(4, 4, 1), rand.New(rand.NewSource(1))); err == nil {
			t.Errorf("alpha=%g: expected an error", alpha)
		}
	}
}
