package main

import (
	"fmt"

	"github.com/wgdzlh/zonalstats"
	"github.com/wgdzlh/zonalstats/internal/job"
	"github.com/wgdzlh/zonalstats/log"
	"github.com/wgdzlh/zonalstats/utils"
	"github.com/wgdzlh/zonalstats/zonal"

	"go.uber.org/zap"
)

// 读取并校验任务文件
func loadAndValidate(path string) (*job.Job, error) {
	j, err := job.Load(path)
	if err != nil {
		return nil, err
	}
	if err = j.Validate(); err != nil {
		return nil, err
	}
	return j, nil
}

func runValidate(path string) error {
	j, err := loadAndValidate(path)
	if err != nil {
		return err
	}
	printJob(j)
	return nil
}

func runJob(path, logLevel string, cats []int) error {
	j, err := loadAndValidate(path)
	if err != nil {
		return err
	}
	if logLevel == "" {
		if err = log.SetLevel(j.LogLevel); err != nil {
			return fmt.Errorf("log level: %w", err)
		}
	}
	if len(cats) == 0 {
		cats = j.Cats
	}

	g := zonalstats.NewGdalToolbox(j.Workspace)
	maps, err := g.Load(j.Folder, j.Vector, j.OverwriteVector, j.Rasters(), j.OverwriteRasters)
	if err != nil {
		return fmt.Errorf("loading maps: %w", err)
	}
	for _, c := range j.Clumps {
		if _, err = g.ClumpRaster(utils.GetFilenameWithoutExt(c.Input), utils.GetFilenameWithoutExt(c.Output), c.Diagonal); err != nil {
			return fmt.Errorf("labelling patches of %s: %w", c.Input, err)
		}
	}

	tasks, err := j.ZonalTasks(utils.GetFilenameWithoutExt)
	if err != nil {
		return err
	}
	z, err := zonal.NewZonalStats(g, maps.Vector, tasks...)
	if err != nil {
		return err
	}
	if _, err = z.InitColumns(); err != nil {
		return fmt.Errorf("initializing columns: %w", err)
	}
	report, err := z.Run(cats...)
	if err != nil {
		return err
	}
	printReport(report, tasks)

	if j.Export != nil {
		if err = g.ExportLayer(maps.Vector, j.Export.Path, j.Export.Srid); err != nil {
			return fmt.Errorf("exporting %s: %w", maps.Vector, err)
		}
		fmt.Printf("exported %s to %s\n", maps.Vector, j.Export.Path)
	}
	if report.Failed() {
		return fmt.Errorf("%d of %d zones had failures", report.Zones-report.Succeeded, report.Zones)
	}
	return nil
}

func runClump(workspace, in, out string, diagonal bool) error {
	g := zonalstats.NewGdalToolbox(workspace)
	n, err := g.ClumpRaster(in, out, diagonal)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %d patches written to %s\n", in, n, out)
	return nil
}

func runExport(workspace, layer, out string, srid int) error {
	g := zonalstats.NewGdalToolbox(workspace)
	if err := g.Check(layer); err != nil {
		return err
	}
	return g.ExportLayer(layer, out, srid)
}

func runMaps(workspace string) error {
	g := zonalstats.NewGdalToolbox(workspace)
	vectors, rasters, err := g.ListMaps()
	if err != nil {
		return err
	}
	log.Debug("workspace maps", zap.String("workspace", workspace), zap.Int("vectors", len(vectors)), zap.Int("rasters", len(rasters)))
	printMaps(vectors, rasters)
	return nil
}

func runCoverage(workspace, layer, raster string) error {
	g := zonalstats.NewGdalToolbox(workspace)
	if err := g.Check(layer); err != nil {
		return err
	}
	cats, err := g.Cats(layer)
	if err != nil {
		return err
	}
	ratios := make([]float64, len(cats))
	for i, cat := range cats {
		if ratios[i], err = g.ZoneCoverage(layer, cat, raster); err != nil {
			return fmt.Errorf("zone %d: %w", cat, err)
		}
	}
	printCoverage(raster, cats, ratios)
	return nil
}
