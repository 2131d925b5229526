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


package rainfarmutil

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestRainRateFactor(t *testing.T) {
	tests := []struct {
		units   string
		minutes float64
		want    float64
	}{
		{units: "mm/h", want: 1},
		{units: "mm/s", want: 3600},
		{units: "m/s", want: 3.6e6},
		{units: "mm", minutes: 5, want: 12},
		{units: "mm", minutes: 60, want: 1},
		{units: "mm", minutes: 1440, want: 1. / 24},
	}
	for _, test := range tests {
		t.Run(test.units, func(t *testing.T) {
			have, err := rainRateFactor(test.units, test.minutes)
			if err != nil {
				t.Fatal(err)
			}
			if math.Abs(have-test.want)/test.want > 1e-12 {
				t.Errorf("have %g, want %g", have, test.want)
			}
		})
	}
}

func TestRainRateFactorInvalid(t *testing.T) {
	if _, err := rainRateFactor("in/h", 0); err == nil {
		t.Error("unsupported units should cause an error")
	}
	if _, err := rainRateFactor("mm", 0); err == nil {
		t.Error("zero accumulation period should cause an error")
	}
}

func TestToRainRate(t *testing.T) {
	p := mat.NewDense(1, 3, []float64{0, 1, 2.5})
	if err := ToRainRate(p, "mm", 5); err != nil {
		t.Fatal(err)
	}
	want := mat.NewDense(1, 3, []float64{0, 12, 30})
	if !mat.EqualApprox(p, want, 1e-10) {
		t.Errorf("have %v, want %v", mat.Formatted(p), mat.Formatted(want))
	}
}
