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

import "fmt"

// InsufficientDataError is returned when the spectral slope cannot be
// estimated from a field, either because too few frequency samples fall
// within the fitting range or because the fit is not finite.
type InsufficientDataError struct {
	// Rows and Cols are the dimensions of the field.
	Rows, Cols int

	// Samples is the number of frequency samples in the fitting range.
	Samples int

	// Alpha is the fitted slope if the fit was attempted but is not
	// finite, and zero otherwise.
	Alpha float64
}

func (e *InsufficientDataError) Error() string {
	if !isFinite(e.Alpha) {
		return fmt.Sprintf("rainfarm: spectral slope fit for %dx%d field over %d samples is not finite (alpha=%g)",
			e.Rows, e.Cols, e.Samples, e.Alpha)
	}
	return fmt.Sprintf("rainfarm: %dx%d field has %d usable spectral samples; at least %d "+
		"with distinct frequencies are needed to estimate the spectral slope",
		e.Rows, e.Cols, e.Samples, MinSlopeSamples)
}

// DegenerateFieldError is returned when the synthesized noise field has
// zero or non-finite variance and cannot be normalized.
type DegenerateFieldError struct {
	Rows, Cols int
	StdDev     float64
}

func (e *DegenerateFieldError) Error() string {
	return fmt.Sprintf("rainfarm: synthesized %dx%d noise field has standard deviation %g",
		e.Rows, e.Cols, e.StdDev)
}

// NumericalInstabilityError is returned when the renormalization ratio
// at a grid point has a zero or non-finite divisor or is itself
// non-finite.
type NumericalInstabilityError struct {
	// Row and Col give the location of the first offending grid point.
	Row, Col int

	// Divisor is the local average of the synthetic field.
	Divisor float64

	// Ratio is the local average of the original field divided by Divisor.
	Ratio float64
}

func (e *NumericalInstabilityError) Error() string {
	return fmt.Sprintf("rainfarm: renormalization at (%d, %d) is unstable: divisor=%g, ratio=%g",
		e.Row, e.Col, e.Divisor, e.Ratio)
}

// FieldError is returned when an input field holds a value that is
// negative or not finite, or has no cells.
type FieldError struct {
	Row, Col int
	Value    float64
}

func (e *FieldError) Error() string {
	if e.Row < 0 {
		return "rainfarm: field is empty"
	}
	return fmt.Sprintf("rainfarm: field value %g at (%d, %d) should be finite and >= 0",
		e.Value, e.Row, e.Col)
}
