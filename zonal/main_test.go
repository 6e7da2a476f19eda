package zonal

import (
	"errors"
	"testing"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// 记录同时生效的掩膜数量，并可对指定区域注入故障
type countingEngine struct {
	*MemoryEngine
	active     int
	maxActive  int
	sets       int
	removes    int
	failSet    map[int]bool
	failRemove bool
	// 前failRemoveN次移除掩膜失败
	failRemoveN int
	failStats  map[int]bool
	current    int
}

func newCountingEngine(m *MemoryEngine) *countingEngine {
	return &countingEngine{
		MemoryEngine: m,
		failSet:      map[int]bool{},
		failStats:    map[int]bool{},
	}
}

var errInjected = errors.New("injected failure")

func (c *countingEngine) SetMask(layer string, cat int) error {
	c.sets++
	if c.failSet[cat] {
		return errInjected
	}
	if err := c.MemoryEngine.SetMask(layer, cat); err != nil {
		return err
	}
	c.current = cat
	c.active++
	if c.active > c.maxActive {
		c.maxActive = c.active
	}
	return nil
}

func (c *countingEngine) RemoveMask() error {
	c.removes++
	if c.failRemove {
		return errInjected
	}
	if c.failRemoveN > 0 {
		c.failRemoveN--
		return errInjected
	}
	if c.active > 0 {
		c.active--
	}
	return c.MemoryEngine.RemoveMask()
}

func (c *countingEngine) CellStats(raster string) (CellStats, error) {
	if c.failStats[c.current] {
		return CellStats{}, ErrRasterRead
	}
	return c.MemoryEngine.CellStats(raster)
}
