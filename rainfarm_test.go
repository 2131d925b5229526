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

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"gonum.org/v1/gonum/mat"
)

func different(a, b, tolerance float64) bool {
	if 2*math.Abs(a-b)/math.Abs(a+b) > tolerance || math.IsNaN(a) || math.IsNaN(b) {
		return true
	}
	return false
}

func absDifferent(a, b, tolerance float64) bool {
	if math.Abs(a-b) > tolerance || math.IsNaN(a) || math.IsNaN(b) {
		return true
	}
	return false
}

// smoothField returns a smooth, strictly positive rows×cols rain-rate field.
func smoothField(rows, cols int) *mat.Dense {
	p := mat.NewDense(rows, cols, nil)
	p.Apply(func(i, j int, _ float64) float64 {
		return 2 + 0.5*math.Sin(2*math.Pi*float64(i)/16)*math.Cos(2*math.Pi*float64(j)/16)
	}, p)
	return p
}

func TestDownscaleDims(t *testing.T) {
	alpha := 2.
	for _, factor := range []int{1, 2, 4} {
		t.Run(fmt.Sprint(factor), func(t *testing.T) {
			p := smoothField(6, 10)
			o, err := Downscale(p, &alpha, factor, nil, rand.New(rand.NewSource(1)))
			if err != nil {
				t.Fatal(err)
			}
			rows, cols := o.Dims()
			if rows != 6*factor || cols != 10*factor {
				t.Fatalf("dims = %dx%d; want %dx%d", rows, cols, 6*factor, 10*factor)
			}
			for _, v := range o.RawMatrix().Data {
				if !(v >= 0) || math.IsInf(v, 0) {
					t.Fatalf("value %g should be finite and >= 0", v)
				}
			}
			if factor == 1 && mat.EqualApprox(o, p, 1e-6) {
				t.Error("factor 1 should still add random texture")
			}
		})
	}
}

func TestDownscaleDefaultFactor(t *testing.T) {
	alpha := 1.5
	d := &Downscaler{Alpha: &alpha, Rand: rand.New(rand.NewSource(1))}
	o, err := d.Downscale(smoothField(2, 3))
	if err != nil {
		t.Fatal(err)
	}
	if rows, cols := o.Dims(); rows != 2*DefaultFactor || cols != 3*DefaultFactor {
		t.Errorf("dims = %dx%d", rows, cols)
	}
}

func TestDownscaleEstimatedSlope(t *testing.T) {
	p, err := Synthesize(2, NewFrequencyGrid(32, 32, 1), rand.New(rand.NewSource(7)))
	if err != nil {
		t.Fatal(err)
	}
	o, err := Downscale(p, nil, 2, nil, rand.New(rand.NewSource(8)))
	if err != nil {
		t.Fatal(err)
	}
	if rows, cols := o.Dims(); rows != 64 || cols != 64 {
		t.Errorf("dims = %dx%d; want 64x64", rows, cols)
	}
}

// The local average of the output at the coarse-cell scale should
// approximately reproduce the input.
func TestDownscaleMassConservation(t *testing.T) {
	const factor = 4
	alpha := 3.5
	p := smoothField(16, 16)
	o, err := Downscale(p, &alpha, factor, nil, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatal(err)
	}
	agg, err := Aggregate(LocalAverage(o, factor), factor)
	if err != nil {
		t.Fatal(err)
	}
	var n, near int
	for i := 1; i < 15; i++ {
		for j := 1; j < 15; j++ {
			n++
			if !different(agg.At(i, j), p.At(i, j), 0.2) {
				near++
			}
		}
	}
	if frac := float64(near) / float64(n); frac < 0.8 {
		t.Errorf("only %.0f%% of interior cells are within 20%% of the input", frac*100)
	}
	if pm, om := mat.Sum(p)/256, mat.Sum(o)/(256*factor*factor); different(pm, om, 0.1) {
		t.Errorf("domain mean %g; want %g", om, pm)
	}
}

func TestDownscaleThreshold(t *testing.T) {
	alpha := 2.
	threshold := 2.
	p := smoothField(8, 8)
	o, err := Downscale(p, &alpha, 4, &threshold, rand.New(rand.NewSource(2)))
	if err != nil {
		t.Fatal(err)
	}
	var zeros int
	for _, v := range o.RawMatrix().Data {
		if v == 0 {
			zeros++
		} else if v < threshold {
			t.Fatalf("value %g is below the threshold", v)
		}
	}
	if zeros == 0 {
		t.Error("some values should be below the threshold")
	}

	t.Run("idempotent", func(t *testing.T) {
		o2 := mat.DenseCopyOf(o)
		o2.Apply(func(_, _ int, v float64) float64 {
			if v < threshold {
				return 0
			}
			return v
		}, o2)
		if !mat.Equal(o, o2) {
			t.Error("applying the threshold again should not change the field")
		}
	})
}

func TestDownscaleReproducible(t *testing.T) {
	alpha := 2.
	p := smoothField(8, 8)
	o1, err := Downscale(p, &alpha, 2, nil, rand.New(rand.NewSource(3)))
	if err != nil {
		t.Fatal(err)
	}
	o2, err := Downscale(p, &alpha, 2, nil, rand.New(rand.NewSource(3)))
	if err != nil {
		t.Fatal(err)
	}
	if !mat.Equal(o1, o2) {
		t.Error("results from the same seed should be identical")
	}
}

func TestDownscaleInsufficientData(t *testing.T) {
	p := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	_, err := Downscale(p, nil, 4, nil, rand.New(rand.NewSource(1)))
	var ide *InsufficientDataError
	if !errors.As(err, &ide) {
		t.Fatalf("error should wrap InsufficientDataError but is %v", err)
	}
}

func TestDownscaleInvalid(t *testing.T) {
	good := smoothField(4, 4)
	neg, nan := -1., math.NaN()
	alpha := 2.
	tests := []struct {
		name string
		p    mat.Matrix
		d    Downscaler
	}{
		{name: "negative factor", p: good, d: Downscaler{Alpha: &alpha, Factor: -2}},
		{name: "negative alpha", p: good, d: Downscaler{Alpha: &neg}},
		{name: "nan alpha", p: good, d: Downscaler{Alpha: &nan}},
		{name: "negative threshold", p: good, d: Downscaler{Alpha: &alpha, Threshold: &neg}},
		{name: "nan value", p: mat.NewDense(2, 2, []float64{1, nan, 1, 1}), d: Downscaler{Alpha: &alpha}},
		{name: "negative value", p: mat.NewDense(2, 2, []float64{1, 1, -1, 1}), d: Downscaler{Alpha: &alpha}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if _, err := test.d.Downscale(test.p); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestDownscaleLog(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	alpha := 2.
	d := &Downscaler{Alpha: &alpha, Factor: 2, Rand: rand.New(rand.NewSource(1)), Log: logger}
	if _, err := d.Downscale(smoothField(4, 4)); err != nil {
		t.Fatal(err)
	}
	e := hook.LastEntry()
	if e == nil {
		t.Fatal("no log entry")
	}
	if e.Message != "rainfarm: downscaled field" {
		t.Errorf("message = %q", e.Message)
	}
	if e.Data["factor"] != 2 || e.Data["estimated"] != false {
		t.Errorf("fields = %v", e.Data)
	}
}
