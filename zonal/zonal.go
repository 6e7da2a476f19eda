package zonal

import (
	"errors"
	"fmt"
	"strings"

	"github.com/wgdzlh/zonalstats/log"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// 一个栅格/指标/输出字段三元组
type Task struct {
	Raster string
	Metric Metric
	Column string
	Type   ColumnType
}

func (t Task) column() Column {
	ct := t.Type
	if ct == "" {
		ct = t.Metric.ColumnType()
	}
	return Column{Name: t.Column, Type: ct}
}

// 单个区域/栅格的失败记录
type ZoneError struct {
	Cat    int
	Raster string
	Column string
	Err    error
}

func (e *ZoneError) Error() string {
	if e.Raster == "" {
		return fmt.Sprintf("zone %d: %v", e.Cat, e.Err)
	}
	return fmt.Sprintf("zone %d raster %s column %s: %v", e.Cat, e.Raster, e.Column, e.Err)
}

func (e *ZoneError) Unwrap() error {
	return e.Err
}

type ZoneResult struct {
	Cat    int
	Values map[string]float64 // 字段名 -> 写入值
}

// 一次区域统计的运行报告
type Report struct {
	RunID     string
	Layer     string
	Zones     int
	Succeeded int
	Results   []ZoneResult
	Failures  []*ZoneError
}

func (r *Report) Failed() bool {
	return len(r.Failures) > 0
}

// 合并所有区域失败
func (r *Report) Err() error {
	errs := make([]error, len(r.Failures))
	for i, f := range r.Failures {
		errs[i] = f
	}
	return multierr.Combine(errs...)
}

func (r *Report) Value(cat int, column string) (v float64, ok bool) {
	for _, res := range r.Results {
		if res.Cat == cat {
			v, ok = res.Values[column]
			return
		}
	}
	return
}

// 区域统计驱动：逐区域设置掩膜，依次计算各任务指标并写回属性表
type ZonalStats struct {
	engine Engine
	layer  string
	tasks  []Task
	logTag string

	// 上一区域移除掩膜失败，设置下一掩膜前需重试
	stale bool
}

func NewZonalStats(engine Engine, layer string, tasks ...Task) (z *ZonalStats, err error) {
	if engine == nil || layer == "" {
		err = fmt.Errorf("%w: engine and layer are required", ErrInvalidTask)
		return
	}
	if len(tasks) == 0 {
		err = fmt.Errorf("%w: no tasks", ErrInvalidTask)
		return
	}
	seen := map[string]struct{}{}
	for i, t := range tasks {
		if t.Raster == "" || t.Column == "" || t.Metric.Func == nil {
			err = fmt.Errorf("%w: task %d needs raster, column and metric", ErrInvalidTask, i)
			return
		}
		key := strings.ToLower(t.Column)
		if _, ok := seen[key]; ok {
			err = fmt.Errorf("%w: column %s used by more than one task", ErrInvalidTask, t.Column)
			return
		}
		seen[key] = struct{}{}
	}
	z = &ZonalStats{
		engine: engine,
		layer:  layer,
		tasks:  tasks,
		logTag: "ZonalStats:",
	}
	return
}

// 创建各任务的输出字段
func (z *ZonalStats) InitColumns() (created []string, err error) {
	cols := make([]Column, len(z.tasks))
	for i, t := range z.tasks {
		cols[i] = t.column()
	}
	return CreateColumns(z.engine, z.layer, cols)
}

// 对选定区域（为空时为全部区域）执行统计。单个区域的失败记入报告，不中断运行；
// 仅会话未就绪或无法获取区域列表时返回err
func (z *ZonalStats) Run(cats ...int) (report *Report, err error) {
	if err = z.engine.Check(z.layer); err != nil {
		if !errors.Is(err, ErrSessionNotReady) {
			err = fmt.Errorf("%w: %w", ErrSessionNotReady, err)
		}
		log.Error(z.logTag+"gis session check failed", zap.String("layer", z.layer), zap.Error(err))
		return
	}
	all, err := z.engine.Cats(z.layer)
	if err != nil {
		log.Error(z.logTag+"list zones failed", zap.String("layer", z.layer), zap.Error(err))
		return
	}
	selected := selectCats(all, cats)
	report = &Report{
		RunID: uuid.NewString(),
		Layer: z.layer,
		Zones: len(selected),
	}
	log.Info(z.logTag+"start zonal stats", zap.String("run", report.RunID), zap.String("layer", z.layer),
		zap.Int("zones", len(selected)), zap.Int("tasks", len(z.tasks)))
	z.stale = false
	for _, cat := range selected {
		z.processZone(cat, report)
	}
	if z.stale {
		if e := z.clearStaleMask(); e != nil {
			log.Error(z.logTag+"mask left active after zonal stats", zap.String("layer", z.layer), zap.Error(e))
		}
	}
	log.Info(z.logTag+"end zonal stats", zap.String("run", report.RunID), zap.Int("zones", report.Zones),
		zap.Int("succeeded", report.Succeeded), zap.Int("failures", len(report.Failures)))
	return
}

func (z *ZonalStats) processZone(cat int, report *Report) {
	var (
		res    = ZoneResult{Cat: cat, Values: make(map[string]float64, len(z.tasks))}
		failed int
		ran    bool
	)
	fail := func(t *Task, e error) {
		zErr := &ZoneError{Cat: cat, Err: e}
		if t != nil {
			zErr.Raster = t.Raster
			zErr.Column = t.Column
		}
		report.Failures = append(report.Failures, zErr)
		failed++
		log.Error(z.logTag+"zone failed", zap.Int("cat", cat), zap.String("raster", zErr.Raster), zap.String("column", zErr.Column), zap.Error(e))
	}
	if z.stale {
		if e := z.clearStaleMask(); e != nil {
			for i := range z.tasks {
				fail(&z.tasks[i], e)
			}
			report.Results = append(report.Results, res)
			return
		}
	}
	err := WithMask(z.engine, z.layer, cat, func() error {
		ran = true
		for i := range z.tasks {
			t := &z.tasks[i]
			val, e := t.Metric.Compute(z.engine, t.Raster)
			if e != nil {
				fail(t, e)
				continue
			}
			if e = z.engine.UpdateValue(z.layer, t.Column, cat, val); e != nil {
				fail(t, e)
				continue
			}
			res.Values[t.Column] = val
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrMaskRemove) {
			z.stale = true
		}
		if ran {
			// 统计已完成，仅移除掩膜失败
			fail(nil, err)
		} else {
			for i := range z.tasks {
				fail(&z.tasks[i], err)
			}
		}
	}
	report.Results = append(report.Results, res)
	if failed == 0 {
		report.Succeeded++
		log.Info(z.logTag+"zone processed with success", zap.Int("cat", cat), zap.Any("values", res.Values))
	}
}

// 重试移除上一区域残留的掩膜
func (z *ZonalStats) clearStaleMask() (err error) {
	if err = z.engine.RemoveMask(); err != nil {
		err = fmt.Errorf("%w: stale mask of layer %s: %w", ErrMaskRemove, z.layer, err)
		return
	}
	z.stale = false
	log.Warn(z.logTag+"stale mask removed", zap.String("layer", z.layer))
	return
}

// 仅保留want中存在于all的区域，保持all中的次序
func selectCats(all, want []int) []int {
	if len(want) == 0 {
		return all
	}
	set := make(map[int]struct{}, len(want))
	for _, c := range want {
		set[c] = struct{}{}
	}
	ret := make([]int, 0, len(want))
	for _, c := range all {
		if _, ok := set[c]; ok {
			ret = append(ret, c)
		}
	}
	return ret
}
