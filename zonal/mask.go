package zonal

import (
	"fmt"

	"github.com/wgdzlh/zonalstats/log"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// 单个区域的掩膜，Release前不得设置其他区域掩膜
type Mask struct {
	setter   MaskSetter
	layer    string
	cat      int
	released bool
}

// 将区域cat设为当前掩膜
func AcquireMask(s MaskSetter, layer string, cat int) (m *Mask, err error) {
	if err = s.SetMask(layer, cat); err != nil {
		err = fmt.Errorf("%w: layer %s cat %d: %w", ErrMaskSet, layer, cat, err)
		return
	}
	log.Debug("ZonalStats:mask set", zap.String("layer", layer), zap.Int("cat", cat))
	m = &Mask{setter: s, layer: layer, cat: cat}
	return
}

// 移除掩膜，可重复调用
func (m *Mask) Release() (err error) {
	if m == nil || m.released {
		return
	}
	m.released = true
	if err = m.setter.RemoveMask(); err != nil {
		err = fmt.Errorf("%w: layer %s cat %d: %w", ErrMaskRemove, m.layer, m.cat, err)
		return
	}
	log.Debug("ZonalStats:mask removed", zap.String("layer", m.layer), zap.Int("cat", m.cat))
	return
}

// 在区域掩膜下执行fn，任何退出路径（含panic）都会移除掩膜
func WithMask(s MaskSetter, layer string, cat int, fn func() error) (err error) {
	m, err := AcquireMask(s, layer, cat)
	if err != nil {
		return
	}
	defer func() {
		err = multierr.Append(err, m.Release())
	}()
	err = fn()
	return
}
