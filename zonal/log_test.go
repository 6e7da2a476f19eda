package zonal

import (
	"testing"

	"github.com/wgdzlh/zonalstats/log"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZonalStatsLogsEveryZone(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	restore := log.Replace(zap.New(core))
	defer restore()

	m := twoZoneEngine(t)
	e := newCountingEngine(m)
	e.failStats[2] = true
	z, err := NewZonalStats(e, "zones", allTasks()[:1]...)
	require.NoError(t, err)
	_, err = z.InitColumns()
	require.NoError(t, err)
	_, err = z.Run()
	require.NoError(t, err)

	ok := logs.FilterMessage("ZonalStats:zone processed with success").All()
	require.Len(t, ok, 1)
	assert.Equal(t, int64(1), ok[0].ContextMap()["cat"])

	failed := logs.FilterMessage("ZonalStats:zone failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, zapcore.ErrorLevel, failed[0].Level)
	assert.Equal(t, "pid", failed[0].ContextMap()["raster"])
	assert.Equal(t, int64(2), failed[0].ContextMap()["cat"])

	assert.Equal(t, 1, logs.FilterMessage("ZonalStats:end zonal stats").Len())
}
