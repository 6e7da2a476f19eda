package main

import (
	"fmt"
	"strconv"

	"github.com/wgdzlh/zonalstats/internal/job"
	"github.com/wgdzlh/zonalstats/zonal"
)

func formatValue(v float64) string {
	if zonal.IsUndefined(v) {
		return "undefined"
	}
	return strconv.FormatFloat(v, 'g', 6, 64)
}

func printJob(j *job.Job) {
	fmt.Printf("workspace: %s\n", j.Workspace)
	fmt.Printf("vector:    %s\n", j.Vector)
	for _, c := range j.Clumps {
		fmt.Printf("  clump  %-16s -> %s (diagonal=%v)\n", c.Input, c.Output, c.Diagonal)
	}
	for _, t := range j.Tasks {
		fmt.Printf("  %-18s %-16s -> %s (%s)\n", t.Metric, t.Raster, t.Column, t.Type)
	}
	if j.Export != nil {
		fmt.Printf("export:    %s\n", j.Export.Path)
	}
}

func printReport(r *zonal.Report, tasks []zonal.Task) {
	fmt.Printf("RUN %s on %s: %d/%d zones succeeded\n", r.RunID, r.Layer, r.Succeeded, r.Zones)
	fmt.Printf("%8s", "cat")
	for _, t := range tasks {
		fmt.Printf(" %12s", t.Column)
	}
	fmt.Println()
	for _, res := range r.Results {
		fmt.Printf("%8d", res.Cat)
		for _, t := range tasks {
			if v, ok := res.Values[t.Column]; ok {
				fmt.Printf(" %12s", formatValue(v))
			} else {
				fmt.Printf(" %12s", "-")
			}
		}
		fmt.Println()
	}
	if r.Failed() {
		fmt.Printf("\nFAILURES (%d):\n", len(r.Failures))
		for _, f := range r.Failures {
			fmt.Printf("  %v\n", f)
		}
	}
}

func printMaps(vectors, rasters []string) {
	fmt.Printf("VECTORS (%d):\n", len(vectors))
	for _, v := range vectors {
		fmt.Printf("  %s\n", v)
	}
	fmt.Printf("RASTERS (%d):\n", len(rasters))
	for _, r := range rasters {
		fmt.Printf("  %s\n", r)
	}
}

func printCoverage(raster string, cats []int, ratios []float64) {
	fmt.Printf("COVERAGE of %s:\n", raster)
	for i, cat := range cats {
		fmt.Printf("%8d %7.2f%%\n", cat, ratios[i]*100)
	}
}
