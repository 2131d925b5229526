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
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/rainfarm"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"
)

// newLogger returns a logger that writes to the error output of
// CobraCommand and, if LogFile is not empty, to LogFile. The returned
// function closes the log file.
func newLogger(CobraCommand *cobra.Command, LogFile, LogLevel string) (*logrus.Logger, func(), error) {
	level, err := logrus.ParseLevel(LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("rainfarmutil: invalid LogLevel: %v", err)
	}
	log := logrus.New()
	log.SetLevel(level)
	log.SetOutput(CobraCommand.ErrOrStderr())
	if LogFile == "" {
		return log, func() {}, nil
	}
	logfile, err := os.Create(LogFile)
	if err != nil {
		return nil, nil, fmt.Errorf("rainfarmutil: problem creating log file: %v", err)
	}
	log.SetOutput(io.MultiWriter(CobraCommand.ErrOrStderr(), logfile))
	return log, func() { logfile.Close() }, nil
}

// loadField reads variable from netCDF file InputFile, converts it to
// a rain rate in mm/h, and replaces missing values with FillValue.
func loadField(log logrus.FieldLogger, InputFile, InputVariable, InputUnits string,
	AccumulationMinutes, FillValue float64) (*mat.Dense, error) {
	f, err := os.Open(InputFile)
	if err != nil {
		return nil, fmt.Errorf("rainfarmutil: opening input file: %v", err)
	}
	defer f.Close()
	p, err := ReadField(f, InputVariable)
	if err != nil {
		return nil, err
	}
	if err = ToRainRate(p, InputUnits, AccumulationMinutes); err != nil {
		return nil, err
	}
	rows, cols := p.Dims()
	fields := logrus.Fields{"file": InputFile, "variable": InputVariable, "rows": rows, "cols": cols}
	if n := rainfarm.FillNonFinite(p, FillValue); n > 0 {
		log.WithFields(fields).Warnf("replaced %d missing values with %g mm/h", n, FillValue)
	}
	log.WithFields(fields).Info("loaded precipitation field")
	return p, nil
}

// saveField writes p to OutputFile as OutputVariable in mm/h.
func saveField(p mat.Matrix, OutputFile, OutputVariable, description string) error {
	f, err := os.Create(OutputFile)
	if err != nil {
		return fmt.Errorf("rainfarmutil: problem creating output file: %v", err)
	}
	if err = WriteField(f, OutputVariable, "mm/h", description, p); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Downscale downscales the precipitation field stored as InputVariable in
// netCDF file InputFile by Factor and saves the result as OutputVariable
// in OutputFile.
//
// InputUnits gives the units of the input field (see ToRainRate), with
// AccumulationMinutes the accumulation period for fields in mm. Missing
// input values are replaced with FillValue.
//
// Alpha is the spectral slope; if it is nil, it is estimated from the
// input field. If Threshold is not nil, output values below it are set
// to zero. Seed seeds the random number generator, or, if it is zero, the
// generator is seeded from the current time. Downscaling is attempted up
// to Retries additional times with fresh random numbers if the random
// field is degenerate or the renormalization is numerically unstable.
func Downscale(CobraCommand *cobra.Command, LogFile, LogLevel string,
	InputFile, InputVariable, InputUnits string, AccumulationMinutes, FillValue float64,
	OutputFile, OutputVariable string, Factor int, Alpha, Threshold *float64,
	Seed int64, Retries int) error {

	startTime := time.Now()

	log, closeLog, err := newLogger(CobraCommand, LogFile, LogLevel)
	if err != nil {
		return err
	}
	defer closeLog()

	p, err := loadField(log, InputFile, InputVariable, InputUnits, AccumulationMinutes, FillValue)
	if err != nil {
		return err
	}

	if Seed == 0 {
		Seed = time.Now().UnixNano()
	}
	d := &rainfarm.Downscaler{
		Alpha:     Alpha,
		Factor:    Factor,
		Threshold: Threshold,
		Rand:      rand.New(rand.NewSource(Seed)),
		Log:       log,
	}
	var alpha float64
	if Alpha == nil {
		alpha, err = rainfarm.EstimateSlope(p)
		if err != nil {
			return fmt.Errorf("rainfarmutil: estimating spectral slope: %w", err)
		}
		log.WithField("alpha", alpha).Info("estimated spectral slope")
		if alpha >= 0 {
			// The Downscaler re-estimates and warns about negative slopes.
			d.Alpha = &alpha
		}
	} else {
		alpha = *Alpha
	}

	if Retries < 0 {
		Retries = 0
	}
	var o *mat.Dense
	err = backoff.RetryNotify(func() error {
		var err error
		o, err = d.Downscale(p)
		return retryable(err)
	}, backoff.WithMaxRetries(&backoff.ZeroBackOff{}, uint64(Retries)), func(err error, _ time.Duration) {
		log.WithError(err).Warn("downscaling failed; retrying with a new random field")
	})
	if err != nil {
		return err
	}

	if Factor == 0 {
		Factor = rainfarm.DefaultFactor
	}
	if err = conservationReport(log, p, o, Factor); err != nil {
		return err
	}

	desc := fmt.Sprintf("RainFARM downscaled precipitation rate (factor=%d, alpha=%g, seed=%d)",
		Factor, alpha, Seed)
	if err = saveField(o, OutputFile, OutputVariable, desc); err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"file":     OutputFile,
		"duration": time.Since(startTime).String(),
	}).Info("downscaling complete")
	return nil
}

// retryable wraps errors that a new random field cannot fix so that
// they are not retried.
func retryable(err error) error {
	if err == nil {
		return nil
	}
	var dfe *rainfarm.DegenerateFieldError
	var nie *rainfarm.NumericalInstabilityError
	if errors.As(err, &dfe) || errors.As(err, &nie) {
		return err
	}
	return backoff.Permanent(err)
}

// conservationReport logs how closely the local average of downscaled
// field o reproduces the original field p at the coarse resolution.
func conservationReport(log logrus.FieldLogger, p, o mat.Matrix, factor int) error {
	agg, err := rainfarm.Aggregate(rainfarm.LocalAverage(o, factor), factor)
	if err != nil {
		return err
	}
	rows, cols := p.Dims()
	var sumErr, maxErr float64
	var n int
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := p.At(i, j)
			if v == 0 {
				continue
			}
			e := math.Abs(agg.At(i, j)-v) / v
			sumErr += e
			maxErr = math.Max(maxErr, e)
			n++
		}
	}
	var meanErr float64
	if n > 0 {
		meanErr = sumErr / float64(n)
	}
	log.WithFields(logrus.Fields{
		"input_mean":              mat.Sum(p) / float64(rows*cols),
		"output_mean":             mat.Sum(o) / float64(rows*cols*factor*factor),
		"mean_relative_deviation": meanErr,
		"max_relative_deviation":  maxErr,
	}).Info("mass conservation")
	return nil
}

// Slope estimates the spectral slope of the precipitation field stored
// as InputVariable in netCDF file InputFile. The other arguments are as
// for Downscale.
func Slope(CobraCommand *cobra.Command, LogFile, LogLevel string,
	InputFile, InputVariable, InputUnits string, AccumulationMinutes, FillValue float64) (float64, error) {
	log, closeLog, err := newLogger(CobraCommand, LogFile, LogLevel)
	if err != nil {
		return math.NaN(), err
	}
	defer closeLog()

	p, err := loadField(log, InputFile, InputVariable, InputUnits, AccumulationMinutes, FillValue)
	if err != nil {
		return math.NaN(), err
	}
	alpha, err := rainfarm.EstimateSlope(p)
	if err != nil {
		return math.NaN(), fmt.Errorf("rainfarmutil: estimating spectral slope: %w", err)
	}
	log.WithField("alpha", alpha).Info("estimated spectral slope")
	return alpha, nil
}

// Upscale averages the precipitation field stored as InputVariable in
// netCDF file InputFile over blocks of UpscaleFactor×UpscaleFactor cells
// and saves the result as OutputVariable in OutputFile. The other
// arguments are as for Downscale.
func Upscale(CobraCommand *cobra.Command, LogFile, LogLevel string,
	InputFile, InputVariable, InputUnits string, AccumulationMinutes, FillValue float64,
	OutputFile, OutputVariable string, UpscaleFactor int) error {
	log, closeLog, err := newLogger(CobraCommand, LogFile, LogLevel)
	if err != nil {
		return err
	}
	defer closeLog()

	p, err := loadField(log, InputFile, InputVariable, InputUnits, AccumulationMinutes, FillValue)
	if err != nil {
		return err
	}
	o, err := rainfarm.Aggregate(p, UpscaleFactor)
	if err != nil {
		return err
	}
	desc := fmt.Sprintf("precipitation rate aggregated by a factor of %d", UpscaleFactor)
	if err = saveField(o, OutputFile, OutputVariable, desc); err != nil {
		return err
	}
	log.WithField("file", OutputFile).Info("upscaling complete")
	return nil
}
