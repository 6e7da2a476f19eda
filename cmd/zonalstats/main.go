package main

import (
	"os"

	"github.com/wgdzlh/zonalstats/log"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	var (
		envFile  string
		logLevel string
	)
	rootCmd := &cobra.Command{
		Use:           "zonalstats",
		Short:         "Zonal habitat statistics over raster maps",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// GDAL_DATA, PROJ_LIB, ZONALSTATS_WORKSPACE等运行环境
			if err := godotenv.Load(envFile); err != nil && cmd.Flags().Changed("env") {
				return err
			}
			if logLevel != "" {
				return log.SetLevel(logLevel)
			}
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "environment file to load before opening the workspace")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug|info|warn|error), overrides the job file")

	rootCmd.AddCommand(runCmd(&logLevel))
	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(clumpCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(mapsCmd())
	rootCmd.AddCommand(coverageCmd())

	err := rootCmd.Execute()
	if err != nil {
		log.Error("zonalstats failed", zap.Error(err))
	}
	log.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func runCmd(logLevel *string) *cobra.Command {
	var cats []int
	cmd := &cobra.Command{
		Use:   "run [job.yaml]",
		Short: "Load maps into the workspace and write zonal statistics into the zone attribute table",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runJob(args[0], *logLevel, cats)
		},
	}
	cmd.Flags().IntSliceVar(&cats, "cats", nil, "only process these zone cats (overrides the job file)")
	return cmd
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [job.yaml]",
		Short: "Validate a job file without touching the workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runValidate(args[0])
		},
	}
}

func clumpCmd() *cobra.Command {
	var diagonal bool
	cmd := &cobra.Command{
		Use:   "clump [workspace] [habitat-raster] [patch-raster]",
		Short: "Label connected habitat patches over the full raster extent",
		Args:  cobra.ExactArgs(3),
		RunE: func(_ *cobra.Command, args []string) error {
			return runClump(args[0], args[1], args[2], diagonal)
		},
	}
	cmd.Flags().BoolVarP(&diagonal, "diagonal", "d", false, "treat diagonal neighbours as connected")
	return cmd
}

func exportCmd() *cobra.Command {
	var srid int
	cmd := &cobra.Command{
		Use:   "export [workspace] [layer] [out.shp|out.geojson|out.csv]",
		Short: "Export a zone layer with its attribute table",
		Args:  cobra.ExactArgs(3),
		RunE: func(_ *cobra.Command, args []string) error {
			return runExport(args[0], args[1], args[2], srid)
		},
	}
	cmd.Flags().IntVar(&srid, "srid", 0, "target srid (default: keep the layer's)")
	return cmd
}

func mapsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "maps [workspace]",
		Short: "List vector and raster maps in a workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runMaps(args[0])
		},
	}
}

func coverageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "coverage [workspace] [layer] [raster]",
		Short: "Show which share of each zone lies inside a raster's extent",
		Args:  cobra.ExactArgs(3),
		RunE: func(_ *cobra.Command, args []string) error {
			return runCoverage(args[0], args[1], args[2])
		},
	}
}
