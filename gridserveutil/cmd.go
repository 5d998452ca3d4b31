/*
Copyright © 2026 the gridserve authors.
This file is part of gridserve.

gridserve is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

gridserve is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with gridserve.  If not, see <http://www.gnu.org/licenses/>.
*/


// Package gridserveutil contains the command-line interface to gridserve.
package gridserveutil

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/gridserve"
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
	// Options are the configuration options available to gridserve.
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
			name: "LogLevel",
			usage: `
              LogLevel specifies the minimum level of log messages to print.
              Options are debug, info, warning, and error.`,
			defaultVal: "info",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "Input",
			usage: `
              Input specifies the netCDF dataset to read. It can be a local
              file path or a blob location in the format 'provider://bucket/key',
              where provider is file, gs, or s3.`,
			shorthand:  "i",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{infoCmd.Flags(), sampleCmd.Flags()},
		},
		{
			name: "Variable",
			usage: `
              Variable specifies the name of the gridded variable to read. For
              the info command, an empty value describes all variables.`,
			shorthand:  "v",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{infoCmd.Flags(), sampleCmd.Flags()},
		},
		{
			name: "TimeIndex",
			usage: `
              TimeIndex specifies the index along the time dimension to read.`,
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{sampleCmd.Flags()},
		},
		{
			name: "LayerIndex",
			usage: `
              LayerIndex specifies the index along the vertical dimension to read.`,
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{sampleCmd.Flags()},
		},
		{
			name: "Strategy",
			usage: `
              Strategy specifies how data is read from storage. Options are
              auto, boundingbox, scanline, and pixel. auto uses scanline for
              local files and boundingbox for remote files.`,
			defaultVal: "auto",
			flagsets:   []*pflag.FlagSet{sampleCmd.Flags()},
		},
		{
			name: "Target.Bounds",
			usage: `
              Target.Bounds specifies the area covered by the target image
              grid as xmin,ymin,xmax,ymax in the units of Target.Proj.`,
			defaultVal: []string{"-180", "-90", "180", "90"},
			flagsets:   []*pflag.FlagSet{sampleCmd.Flags()},
		},
		{
			name: "Target.Size",
			usage: `
              Target.Size specifies the number of columns and rows of the
              target image grid as width,height.`,
			defaultVal: []int{360, 180},
			flagsets:   []*pflag.FlagSet{sampleCmd.Flags()},
		},
		{
			name: "Target.Proj",
			usage: `
              Target.Proj gives the spatial reference of the target points in
              Proj4 or WKT format. It is used for the target image grid and for
              point files that do not carry their own spatial reference.`,
			defaultVal: "+proj=longlat",
			flagsets:   []*pflag.FlagSet{sampleCmd.Flags()},
		},
		{
			name: "Points",
			usage: `
              Points specifies a shapefile (.shp) or GeoJSON (.json or .geojson)
              file of target points to use instead of the target image grid.
              Point, MultiPoint, and LineString geometries are accepted; the
              vertices of lines are used as points.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{sampleCmd.Flags()},
		},
		{
			name: "OutputFile",
			usage: `
              OutputFile specifies the path to the output file. Files ending in
              .csv hold one row per target point, and files ending in .nc hold
              an image of the target grid. It can also be a blob location.`,
			shorthand:  "o",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{sampleCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("GRIDSERVE")
	Cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
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
			case []string:
				if option.shorthand == "" {
					set.StringSlice(option.name, option.defaultVal.([]string), option.usage)
				} else {
					set.StringSliceP(option.name, option.shorthand, option.defaultVal.([]string), option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, option.defaultVal.(int), option.usage)
				} else {
					set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
				}
			case []int:
				if option.shorthand == "" {
					set.IntSlice(option.name, option.defaultVal.([]int), option.usage)
				} else {
					set.IntSliceP(option.name, option.shorthand, option.defaultVal.([]int), option.usage)
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
	Root.AddCommand(infoCmd)
	Root.AddCommand(sampleCmd)
}

// setConfig finds and reads in the configuration file, if there is one,
// and configures the standard logger.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		Cfg.SetConfigFile(cfgpath)
		if err := Cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("gridserve: problem reading configuration file: %v", err)
		}
	}
	level, err := logrus.ParseLevel(Cfg.GetString("LogLevel"))
	if err != nil {
		return fmt.Errorf("gridserve: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "gridserve",
	Short: "Sample gridded datasets at target points.",
	Long: `gridserve reads values from gridded netCDF datasets at arbitrary target
points, such as the pixels of a map image or the locations of monitors.
Rectilinear and curvilinear (two-dimensional longitude-latitude) grids are
supported, and target points may be in any spatial reference.
Use the subcommands specified below to access the functionality.

Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'GRIDSERVE_var' where 'var' is the
name of the variable to be set. Many configuration variables are additionally
allowed to contain environment variables within them.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of gridserve.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("gridserve v%s\n", gridserve.Version)
	},
	DisableAutoGenTag: true,
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Describe the grids of a dataset",
	Long: `info prints the dimensions and horizontal grid of each gridded
variable in the dataset specified by the Input configuration variable.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		input, err := checkInput(Cfg.GetString("Input"))
		if err != nil {
			return err
		}
		return Info(context.Background(), cmd.OutOrStdout(), input, os.ExpandEnv(Cfg.GetString("Variable")))
	},
	DisableAutoGenTag: true,
}

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Read a variable at target points",
	Long: `sample reads the variable specified by the Variable configuration
variable at each target point and writes the results to OutputFile. Target
points are either the pixel centres of the image grid described by the
Target configuration variables or the points in the Points file. Points
outside of the dataset grid and missing data are written as NaN in CSV
files and as the fill value in netCDF files.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		input, err := checkInput(Cfg.GetString("Input"))
		if err != nil {
			return err
		}
		variable := os.ExpandEnv(Cfg.GetString("Variable"))
		if variable == "" {
			return fmt.Errorf("gridserve: you need to specify a Variable to sample")
		}
		st, err := gridserve.ParseStrategy(Cfg.GetString("Strategy"))
		if err != nil {
			return err
		}
		outputFile, err := checkOutputFile(Cfg.GetString("OutputFile"))
		if err != nil {
			return err
		}
		targets, err := TargetPoints(Cfg)
		if err != nil {
			return err
		}
		return Sample(context.Background(), input, variable,
			Cfg.GetInt("TimeIndex"), Cfg.GetInt("LayerIndex"), st, targets, outputFile)
	},
	DisableAutoGenTag: true,
}
