// Package job 描述一次区域统计运行的YAML任务文件
package job

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/wgdzlh/zonalstats/zonal"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// 未指定workspace时使用的环境变量
const EnvWorkspace = "ZONALSTATS_WORKSPACE"

var ErrInvalidJob = errors.New("invalid job")

// 单个栅格的统计任务
type Task struct {
	Raster string `yaml:"raster"`
	Column string `yaml:"column"`
	Type   string `yaml:"type"`
	Metric string `yaml:"metric"`
}

// 由生境栅格生成斑块ID栅格
type Clump struct {
	Input    string `yaml:"input"`
	Output   string `yaml:"output"`
	Diagonal bool   `yaml:"diagonal"`
}

type Export struct {
	Path string `yaml:"path"`
	Srid int    `yaml:"srid"`
}

type Job struct {
	Workspace        string  `yaml:"workspace"`
	Folder           string  `yaml:"folder"`
	Vector           string  `yaml:"vector"`
	OverwriteVector  bool    `yaml:"overwrite_vector"`
	OverwriteRasters bool    `yaml:"overwrite_rasters"`
	Background       float64 `yaml:"background"`
	Cats             []int   `yaml:"cats"`
	LogLevel         string  `yaml:"log_level"`
	Clumps           []Clump `yaml:"clumps"`
	Tasks            []Task  `yaml:"tasks"`
	Export           *Export `yaml:"export"`
}

// 读取YAML任务文件并填充默认值
func Load(path string) (*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading job file: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Job, error) {
	var j Job
	if err := yaml.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("%w: parsing job YAML: %w", ErrInvalidJob, err)
	}
	j.applyDefaults()
	return &j, nil
}

func (j *Job) applyDefaults() {
	if j.Workspace == "" {
		j.Workspace = os.Getenv(EnvWorkspace)
	}
	if j.LogLevel == "" {
		j.LogLevel = "info"
	}
	for i := range j.Tasks {
		if j.Tasks[i].Type == "" {
			j.Tasks[i].Type = string(zonal.Metric{Name: j.Tasks[i].Metric}.ColumnType())
		}
	}
}

func (t Task) column() zonal.Column {
	return zonal.Column{Name: t.Column, Type: zonal.ColumnType(t.Type)}
}

// 校验任务文件，汇总所有错误
func (j *Job) Validate() (err error) {
	if j.Workspace == "" {
		err = multierr.Append(err, fmt.Errorf("%w: workspace is required (or set %s)", ErrInvalidJob, EnvWorkspace))
	}
	if j.Vector == "" {
		err = multierr.Append(err, fmt.Errorf("%w: vector is required", ErrInvalidJob))
	}
	if len(j.Tasks) == 0 {
		err = multierr.Append(err, fmt.Errorf("%w: at least one task is required", ErrInvalidJob))
	}
	seen := map[string]bool{}
	for i, t := range j.Tasks {
		if t.Raster == "" {
			err = multierr.Append(err, fmt.Errorf("%w: task %d: raster is required", ErrInvalidJob, i))
		}
		if e := zonal.ValidateColumn(t.column()); e != nil {
			err = multierr.Append(err, fmt.Errorf("task %d: %w", i, e))
		}
		if _, e := zonal.MetricByName(t.Metric, j.Background); e != nil {
			err = multierr.Append(err, fmt.Errorf("task %d: %w", i, e))
		}
		key := strings.ToLower(t.Column)
		if seen[key] {
			err = multierr.Append(err, fmt.Errorf("%w: task %d: duplicate column %q", ErrInvalidJob, i, t.Column))
		}
		seen[key] = true
	}
	for i, c := range j.Clumps {
		if c.Input == "" || c.Output == "" {
			err = multierr.Append(err, fmt.Errorf("%w: clump %d: input and output are required", ErrInvalidJob, i))
		}
	}
	if j.Export != nil && j.Export.Path == "" {
		err = multierr.Append(err, fmt.Errorf("%w: export path is required", ErrInvalidJob))
	}
	return
}

// 需要导入工作区的栅格：任务及斑块标记的输入，不含斑块标记生成的栅格
func (j *Job) Rasters() (rasters []string) {
	produced := map[string]bool{}
	for _, c := range j.Clumps {
		produced[c.Output] = true
	}
	seen := map[string]bool{}
	add := func(r string) {
		if r == "" || produced[r] || seen[r] {
			return
		}
		seen[r] = true
		rasters = append(rasters, r)
	}
	for _, c := range j.Clumps {
		add(c.Input)
	}
	for _, t := range j.Tasks {
		add(t.Raster)
	}
	return
}

// 转换为区域统计任务
func (j *Job) ZonalTasks(mapName func(string) string) (tasks []zonal.Task, err error) {
	tasks = make([]zonal.Task, 0, len(j.Tasks))
	for _, t := range j.Tasks {
		m, e := zonal.MetricByName(t.Metric, j.Background)
		if e != nil {
			return nil, e
		}
		raster := t.Raster
		if mapName != nil {
			raster = mapName(raster)
		}
		tasks = append(tasks, zonal.Task{
			Raster: raster,
			Metric: m,
			Column: t.Column,
			Type:   zonal.ColumnType(t.Type),
		})
	}
	return
}
