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

// Package rainfarm implements the RainFARM (Rainfall Filtered
// Autoregressive Model) stochastic downscaling method for precipitation
// fields, as described in:
//
//	Rebora, N., L. Ferraris, J. von Hardenberg, and A. Provenzale, 2006:
//	RainFARM: Rainfall Downscaling by a Filtered Autoregressive Model.
//	J. Hydrometeor., 7, 724–738.
//
// A coarse rain-rate field is downscaled by an integer factor by
// synthesizing a random field with the same power-law spectral slope as
// the input and rescaling it so that its local average reproduces the
// input field.
package rainfarm

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"
)

// Version gives the version number.
const Version = "0.1.0"

// DefaultFactor is the downscaling factor used when none is specified.
const DefaultFactor = 16

// Downscaler holds the settings for downscaling rain-rate fields.
// A Downscaler is not safe for concurrent use unless each goroutine
// uses its own Rand.
type Downscaler struct {
	// Alpha is the spectral slope. If it is nil, the slope is
	// estimated from each field with EstimateSlope.
	Alpha *float64

	// Factor is the downscaling factor applied along both axes. If it is
	// zero, DefaultFactor is used.
	Factor int

	// Threshold, if not nil, specifies a rain rate below which
	// downscaled values are set to zero.
	Threshold *float64

	// Rand is the source of the random phases. If it is nil, a
	// generator seeded from the current time is used for each call and
	// results will not be reproducible.
	Rand *rand.Rand

	// Log receives diagnostic messages. If it is nil,
	// logrus.StandardLogger() is used.
	Log logrus.FieldLogger
}

func (d *Downscaler) factor() int {
	if d.Factor == 0 {
		return DefaultFactor
	}
	return d.Factor
}

func (d *Downscaler) log() logrus.FieldLogger {
	if d.Log == nil {
		return logrus.StandardLogger()
	}
	return d.Log
}

// check makes sure the settings in d are valid.
func (d *Downscaler) check() error {
	if f := d.factor(); f < 1 {
		return fmt.Errorf("rainfarm: downscaling factor must be >= 1, got %d", f)
	}
	if d.Alpha != nil && (!isFinite(*d.Alpha) || *d.Alpha < 0) {
		return fmt.Errorf("rainfarm: spectral slope must be finite and >= 0, got %g", *d.Alpha)
	}
	if d.Threshold != nil && (!isFinite(*d.Threshold) || *d.Threshold < 0) {
		return fmt.Errorf("rainfarm: threshold must be finite and >= 0, got %g", *d.Threshold)
	}
	return nil
}

// Downscale returns a realization of rain-rate field p downscaled by
// d.Factor. The output has d.Factor times as many rows and columns as p
// and its local average approximately reproduces p. Values in p must be
// finite and non-negative; non-finite values should be filled before
// calling, for example with FillNonFinite.
//
// The returned error wraps an *InsufficientDataError if the spectral
// slope cannot be estimated, a *DegenerateFieldError if the random field
// has no variance, or a *NumericalInstabilityError if the renormalization
// fails; these can be identified with errors.As.
func (d *Downscaler) Downscale(p mat.Matrix) (*mat.Dense, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	if err := checkField(p); err != nil {
		return nil, err
	}
	rows, cols := p.Dims()
	factor := d.factor()

	var alpha float64
	estimated := d.Alpha == nil
	if estimated {
		var err error
		alpha, err = EstimateSlope(p)
		if err != nil {
			return nil, fmt.Errorf("rainfarm: estimating spectral slope: %w", err)
		}
		if alpha < 0 {
			d.log().WithFields(logrus.Fields{
				"rows":  rows,
				"cols":  cols,
				"alpha": alpha,
			}).Warn("rainfarm: estimated spectral slope is negative")
		}
	} else {
		alpha = *d.Alpha
	}

	rng := d.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	r, err := Synthesize(alpha, frequencyGrid(rows, cols, factor), rng)
	if err != nil {
		return nil, fmt.Errorf("rainfarm: synthesizing noise field: %w", err)
	}

	o, err := Renormalize(Upsample(p, factor), r, topHat(factor), d.Threshold)
	if err != nil {
		return nil, fmt.Errorf("rainfarm: renormalizing: %w", err)
	}

	d.log().WithFields(logrus.Fields{
		"rows":      rows,
		"cols":      cols,
		"factor":    factor,
		"alpha":     alpha,
		"estimated": estimated,
	}).Debug("rainfarm: downscaled field")
	return o, nil
}

// Downscale downscales rain-rate field p by factor using spectral slope
// alpha, or a slope estimated from p if alpha is nil. If threshold is
// not nil, output values below it are set to zero. rng is the source of
// randomness; see Downscaler for the meaning of zero values.
func Downscale(p mat.Matrix, alpha *float64, factor int, threshold *float64, rng *rand.Rand) (*mat.Dense, error) {
	d := &Downscaler{
		Alpha:     alpha,
		Factor:    factor,
		Threshold: threshold,
		Rand:      rng,
	}
	return d.Downscale(p)
}
