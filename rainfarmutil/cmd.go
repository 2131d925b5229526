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

	"github.com/lnashier/viper"
	"github.com/spatialmodel/rainfarm"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	inputFlags := []*pflag.FlagSet{downscaleCmd.Flags(), slopeCmd.Flags(), upscaleCmd.Flags()}

	// Options are the configuration options available to rainfarm.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "InputFile",
			usage: `
              InputFile is the path to the netCDF file holding the coarse
              precipitation field. It can include environment variables.`,
			shorthand:  "i",
			defaultVal: "",
			flagsets:   inputFlags,
		},
		{
			name: "InputVariable",
			usage: `
              InputVariable is the name of the variable in InputFile that holds
              the precipitation field. The variable must have two dimensions
              (y, x), optionally preceded by dimensions of length one, such as
              a single time step.`,
			defaultVal: "precip",
			flagsets:   inputFlags,
		},
		{
			name: "InputUnits",
			usage: `
              InputUnits gives the units of the input field. Acceptable values
              are 'mm/h', 'mm/s', 'm/s', and 'mm'. Fields in 'mm' are
              accumulations over AccumulationMinutes and are converted to a rain
              rate in mm/h.`,
			defaultVal: "mm/h",
			flagsets:   inputFlags,
		},
		{
			name: "AccumulationMinutes",
			usage: `
              AccumulationMinutes is the accumulation period of the input field
              in minutes. It is only used when InputUnits is 'mm'.`,
			defaultVal: 5.0,
			flagsets:   inputFlags,
		},
		{
			name: "FillValue",
			usage: `
              FillValue is the rain rate in mm/h that missing (non-finite or
              _FillValue) input values are replaced with.`,
			defaultVal: 0.0,
			flagsets:   inputFlags,
		},
		{
			name: "OutputFile",
			usage: `
              OutputFile is the path to the desired netCDF output file location.
              It can include environment variables.`,
			shorthand:  "o",
			defaultVal: "rainfarm_output.nc",
			flagsets:   []*pflag.FlagSet{downscaleCmd.Flags(), upscaleCmd.Flags()},
		},
		{
			name: "OutputVariable",
			usage: `
              OutputVariable is the name of the variable the output field is
              stored in.`,
			defaultVal: "precip",
			flagsets:   []*pflag.FlagSet{downscaleCmd.Flags(), upscaleCmd.Flags()},
		},
		{
			name: "Factor",
			usage: `
              Factor is the downscaling factor. The output field has Factor times
              as many rows and columns as the input field.`,
			shorthand:  "f",
			defaultVal: rainfarm.DefaultFactor,
			flagsets:   []*pflag.FlagSet{downscaleCmd.Flags()},
		},
		{
			name: "Alpha",
			usage: `
              Alpha is the spectral slope of the precipitation field. If it is
              negative, the slope is estimated from the input field.`,
			defaultVal: -1.0,
			flagsets:   []*pflag.FlagSet{downscaleCmd.Flags()},
		},
		{
			name: "Threshold",
			usage: `
              Threshold is a rain rate in mm/h below which downscaled values are
              set to zero. If it is negative, no threshold is applied.`,
			defaultVal: -1.0,
			flagsets:   []*pflag.FlagSet{downscaleCmd.Flags()},
		},
		{
			name: "Seed",
			usage: `
              Seed is the seed for the random number generator. If it is zero,
              the generator is seeded from the current time and results are not
              reproducible.`,
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{downscaleCmd.Flags()},
		},
		{
			name: "Retries",
			usage: `
              Retries is the number of times downscaling is retried with a new
              random field if the random field turns out to be degenerate or
              the renormalization is numerically unstable.`,
			defaultVal: 3,
			flagsets:   []*pflag.FlagSet{downscaleCmd.Flags()},
		},
		{
			name: "UpscaleFactor",
			usage: `
              UpscaleFactor is the factor by which the upscale command coarsens
              the input field. The field dimensions must be divisible by it.`,
			defaultVal: 4,
			flagsets:   []*pflag.FlagSet{upscaleCmd.Flags()},
		},
		{
			name: "LogFile",
			usage: `
              LogFile is the path to the desired logfile location. It can include
              environment variables. If LogFile is left blank, log messages are
              only written to standard error.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "LogLevel",
			usage: `
              LogLevel is the minimum severity of log messages. Acceptable
              values are 'debug', 'info', 'warning', and 'error'.`,
			defaultVal: "info",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("RAINFARM")
	Cfg.AutomaticEnv()

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, option.defaultVal.(int), option.usage)
				} else {
					set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
				}
			case float64:
				if option.shorthand == "" {
					set.Float64(option.name, option.defaultVal.(float64), option.usage)
				} else {
					set.Float64P(option.name, option.shorthand, option.defaultVal.(float64), option.usage)
				}
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(downscaleCmd)
	Root.AddCommand(slopeCmd)
	Root.AddCommand(upscaleCmd)
}

// setConfig finds and reads in the configuration file, if there is one.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("rainfarmutil: problem reading configuration file: %v", err)
		}
	}
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "rainfarm",
	Short: "Stochastic downscaling of precipitation fields.",
	Long: `rainfarm downscales coarse-resolution precipitation fields using the
RainFARM (Rainfall Filtered Autoregressive Model) method. The downscaled
field has realistic small-scale variability and its local average
reproduces the coarse field.

Refer to the subcommand documentation for configuration options and default settings.
Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'RAINFARM_var' where 'var' is the
name of the variable to be set. File path variables are additionally
allowed to contain environment variables within them.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of rainfarm.",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "rainfarm v%s\n", rainfarm.Version)
	},
	DisableAutoGenTag: true,
}

// downscaleCmd is a command that downscales a precipitation field.
var downscaleCmd = &cobra.Command{
	Use:   "downscale",
	Short: "Downscale a precipitation field.",
	Long: `downscale reads the precipitation field in InputFile, downscales it by
Factor, and writes the result to OutputFile in units of mm/h.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := checkInputFile(Cfg.GetString("InputFile"))
		if err != nil {
			return err
		}
		out, err := checkOutputFile(Cfg.GetString("OutputFile"))
		if err != nil {
			return err
		}
		units, err := checkInputUnits(Cfg.GetString("InputUnits"))
		if err != nil {
			return err
		}
		seed, err := cast.ToInt64E(Cfg.Get("Seed"))
		if err != nil {
			return fmt.Errorf("rainfarmutil: reading Seed: %v", err)
		}
		return Downscale(
			cmd,
			os.ExpandEnv(Cfg.GetString("LogFile")),
			Cfg.GetString("LogLevel"),
			in,
			Cfg.GetString("InputVariable"),
			units,
			Cfg.GetFloat64("AccumulationMinutes"),
			Cfg.GetFloat64("FillValue"),
			out,
			Cfg.GetString("OutputVariable"),
			Cfg.GetInt("Factor"),
			optionalFloat(Cfg.GetFloat64("Alpha")),
			optionalFloat(Cfg.GetFloat64("Threshold")),
			seed,
			Cfg.GetInt("Retries"),
		)
	},
	DisableAutoGenTag: true,
}

// slopeCmd is a command that estimates the spectral slope of a field.
var slopeCmd = &cobra.Command{
	Use:   "slope",
	Short: "Estimate the spectral slope of a precipitation field.",
	Long: `slope estimates the spectral slope of the precipitation field in
InputFile and prints it to standard output.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := checkInputFile(Cfg.GetString("InputFile"))
		if err != nil {
			return err
		}
		units, err := checkInputUnits(Cfg.GetString("InputUnits"))
		if err != nil {
			return err
		}
		alpha, err := Slope(
			cmd,
			os.ExpandEnv(Cfg.GetString("LogFile")),
			Cfg.GetString("LogLevel"),
			in,
			Cfg.GetString("InputVariable"),
			units,
			Cfg.GetFloat64("AccumulationMinutes"),
			Cfg.GetFloat64("FillValue"),
		)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%g\n", alpha)
		return nil
	},
	DisableAutoGenTag: true,
}

// upscaleCmd is a command that coarsens a precipitation field.
var upscaleCmd = &cobra.Command{
	Use:   "upscale",
	Short: "Coarsen a precipitation field.",
	Long: `upscale reads the precipitation field in InputFile, averages it over
blocks of UpscaleFactor×UpscaleFactor cells, and writes the result to
OutputFile in units of mm/h. This can be used to create coarse fields
for testing downscaling against a known high-resolution field.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := checkInputFile(Cfg.GetString("InputFile"))
		if err != nil {
			return err
		}
		out, err := checkOutputFile(Cfg.GetString("OutputFile"))
		if err != nil {
			return err
		}
		units, err := checkInputUnits(Cfg.GetString("InputUnits"))
		if err != nil {
			return err
		}
		return Upscale(
			cmd,
			os.ExpandEnv(Cfg.GetString("LogFile")),
			Cfg.GetString("LogLevel"),
			in,
			Cfg.GetString("InputVariable"),
			units,
			Cfg.GetFloat64("AccumulationMinutes"),
			Cfg.GetFloat64("FillValue"),
			out,
			Cfg.GetString("OutputVariable"),
			Cfg.GetInt("UpscaleFactor"),
		)
	},
	DisableAutoGenTag: true,
}
