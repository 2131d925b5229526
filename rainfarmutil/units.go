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
	"fmt"

	"github.com/ctessum/unit"
	"gonum.org/v1/gonum/mat"
)

// accumulationUnits are the units of a precipitation accumulation.
const accumulationUnits = "mm"

// rateUnits are the supported rain-rate units, as the length and time
// that one unit of the rate corresponds to.
var rateUnits = map[string]struct{ meters, seconds float64 }{
	"mm/h": {meters: 0.001, seconds: 3600},
	"mm/s": {meters: 0.001, seconds: 1},
	"m/s":  {meters: 1, seconds: 1},
}

// mmPerHour is the rain rate of 1 mm/h.
var mmPerHour = unit.Div(unit.New(0.001, unit.Meter), unit.New(3600, unit.Second))

// rainRateFactor returns the factor that converts values in units
// to a rain rate in mm/h. accumulationMinutes is the accumulation
// period when units is "mm".
func rainRateFactor(units string, accumulationMinutes float64) (float64, error) {
	var rate *unit.Unit
	if units == accumulationUnits {
		if !(accumulationMinutes > 0) {
			return 0, fmt.Errorf("rainfarmutil: AccumulationMinutes must be > 0, got %g", accumulationMinutes)
		}
		rate = unit.Div(unit.New(0.001, unit.Meter), unit.New(accumulationMinutes*60, unit.Second))
	} else {
		u, ok := rateUnits[units]
		if !ok {
			return 0, fmt.Errorf("rainfarmutil: unsupported input units %q", units)
		}
		rate = unit.Div(unit.New(u.meters, unit.Meter), unit.New(u.seconds, unit.Second))
	}
	if err := rate.Check(unit.MeterPerSecond); err != nil {
		return 0, fmt.Errorf("rainfarmutil: converting %s to mm/h: %v", units, err)
	}
	return rate.Value() / mmPerHour.Value(), nil
}

// ToRainRate converts field p from units to a rain rate in mm/h in
// place. accumulationMinutes is only used if units is "mm", in which
// case p holds accumulations over that period.
func ToRainRate(p *mat.Dense, units string, accumulationMinutes float64) error {
	f, err := rainRateFactor(units, accumulationMinutes)
	if err != nil {
		return err
	}
	if f != 1 {
		p.Scale(f, p)
	}
	return nil
}
