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
	"math"
	"os"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
	"github.com/spatialmodel/rainfarm"
	"github.com/spf13/cast"
	"gonum.org/v1/gonum/mat"
)

// ReadField reads the two-dimensional field stored in variable from the
// netCDF file rw. Leading dimensions of length one are ignored, so a
// (time, y, x) variable with a single time step can be read. Values equal
// to the variable's _FillValue attribute are returned as NaN.
func ReadField(rw cdf.ReaderWriterAt, variable string) (*mat.Dense, error) {
	f, err := cdf.Open(rw)
	if err != nil {
		return nil, fmt.Errorf("rainfarmutil: reading netcdf file: %v", err)
	}
	dims := f.Header.Lengths(variable)
	if len(dims) == 0 {
		return nil, fmt.Errorf("rainfarmutil: read netcdf: variable %v not in file", variable)
	}
	for len(dims) > 2 && dims[0] == 1 {
		dims = dims[1:]
	}
	if len(dims) != 2 {
		return nil, fmt.Errorf("rainfarmutil: read netcdf: variable %s has dimensions %v; "+
			"it should have two dimensions", variable, f.Header.Lengths(variable))
	}
	r := f.Reader(variable, nil, nil)
	buf := r.Zero(-1)
	if _, err = r.Read(buf); err != nil {
		return nil, fmt.Errorf("rainfarmutil: read netcdf variable %s: %v", variable, err)
	}
	vals, err := float64s(buf)
	if err != nil {
		return nil, fmt.Errorf("rainfarmutil: read netcdf variable %s: %v", variable, err)
	}

	data := sparse.ZerosDense(dims...)
	if len(vals) != len(data.Elements) {
		return nil, fmt.Errorf("rainfarmutil: read netcdf variable %s: dims are %v but "+
			"array length is %d", variable, dims, len(vals))
	}
	copy(data.Elements, vals)

	if fill, ok := fillValue(f.Header, variable); ok {
		for i, v := range data.Elements {
			if v == fill {
				data.Elements[i] = math.NaN()
			}
		}
	}
	return mat.NewDense(data.Shape[0], data.Shape[1], data.Elements), nil
}

// float64s converts a netCDF data buffer to float64.
func float64s(buf interface{}) ([]float64, error) {
	var o []float64
	switch b := buf.(type) {
	case []float64:
		o = b
	case []float32:
		o = make([]float64, len(b))
		for i, v := range b {
			o[i] = float64(v)
		}
	case []int32:
		o = make([]float64, len(b))
		for i, v := range b {
			o[i] = float64(v)
		}
	case []int16:
		o = make([]float64, len(b))
		for i, v := range b {
			o[i] = float64(v)
		}
	default:
		return nil, fmt.Errorf("unsupported data type %T", buf)
	}
	return o, nil
}

// fillValue returns the _FillValue attribute of variable, if it has one.
// The fill value is converted to the precision it is stored with so
// that it compares equal to the data values it marks.
func fillValue(h *cdf.Header, variable string) (float64, bool) {
	var a interface{}
	switch v := h.GetAttribute(variable, "_FillValue").(type) {
	case []float32:
		if len(v) > 0 {
			a = v[0]
		}
	case []float64:
		if len(v) > 0 {
			a = v[0]
		}
	case []int32:
		if len(v) > 0 {
			a = v[0]
		}
	case []int16:
		if len(v) > 0 {
			a = v[0]
		}
	}
	if a == nil {
		return 0, false
	}
	fill, err := cast.ToFloat64E(a)
	if err != nil {
		return 0, false
	}
	return fill, true
}

// WriteField writes field p to netCDF file w as variable, with dimensions
// (y, x) and the given units and description attributes.
func WriteField(w *os.File, variable, units, description string, p mat.Matrix) error {
	rows, cols := p.Dims()
	h := cdf.NewHeader([]string{"y", "x"}, []int{rows, cols})
	h.AddAttribute("", "comment", "RainFARM precipitation field")
	h.AddAttribute("", "rainfarm_version", rainfarm.Version)
	h.AddVariable(variable, []string{"y", "x"}, []float32{0})
	h.AddAttribute(variable, "description", description)
	h.AddAttribute(variable, "units", units)
	h.Define()

	f, err := cdf.Create(w, h) // writes the header to w
	if err != nil {
		return err
	}

	data := sparse.ZerosDense(rows, cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			data.Set(p.At(i, j), i, j)
		}
	}
	if err = writeNCF(f, variable, data); err != nil {
		return fmt.Errorf("rainfarmutil: writing variable %s to netcdf file: %v", variable, err)
	}
	return cdf.UpdateNumRecs(w)
}

func writeNCF(f *cdf.File, Var string, data *sparse.DenseArray) error {
	// Check that data matches dimensions.
	n := 1
	for _, v := range data.Shape {
		n *= v
	}
	if len(data.Elements) != n {
		return fmt.Errorf("dims are %d but array length is %d", n, len(data.Elements))
	}

	data32 := make([]float32, len(data.Elements))
	for i, e := range data.Elements {
		data32[i] = float32(e)
	}
	end := f.Header.Lengths(Var)
	start := make([]int, len(end))
	w := f.Writer(Var, start, end)
	_, err := w.Write(data32)
	return err
}
