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
	"os"
	"path/filepath"
)

// checkInputFile makes sure that the input file is specified and exists,
// and expands any environment variables.
func checkInputFile(f string) (string, error) {
	if f == "" {
		return "", fmt.Errorf(`you need to specify an input file configuration variable (for example: InputFile="precip.nc")`)
	}
	f = os.ExpandEnv(f)
	if _, err := os.Stat(f); err != nil {
		return f, fmt.Errorf("rainfarmutil: problem with InputFile: %v", err)
	}
	return f, nil
}

// checkOutputFile makes sure that the output file is specified and its
// directory exists, and expands any environment variables.
func checkOutputFile(f string) (string, error) {
	if f == "" {
		return "", fmt.Errorf(`you need to specify an output file configuration variable (for example: OutputFile="output.nc")`)
	}
	f = os.ExpandEnv(f)
	outdir := filepath.Dir(f)
	if _, err := os.Stat(outdir); err != nil {
		return f, fmt.Errorf("rainfarmutil: the OutputFile directory doesn't exist: %v", err)
	}
	return f, nil
}

// checkInputUnits expands any environment variables in the input
// units and ensures that an acceptable value was specified.
func checkInputUnits(u string) (string, error) {
	u = os.ExpandEnv(u)
	if _, ok := rateUnits[u]; !ok && u != accumulationUnits {
		return u, fmt.Errorf("the InputUnits variable in the configuration file "+
			"needs to be set to either mm/h, mm/s, m/s, or mm, but is currently set to `%s`",
			u)
	}
	return u, nil
}

// optionalFloat returns nil if v is negative, which stands for an
// unset option, and a pointer to v otherwise.
func optionalFloat(v float64) *float64 {
	if v < 0 {
		return nil
	}
	return &v
}
