package log

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	level  = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	logger *zap.Logger
)

func init() {
	config := zap.NewProductionConfig()
	config.Level = level
	config.Encoding = "console"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.DisableStacktrace = true
	var err error
	if logger, err = config.Build(zap.AddCallerSkip(1)); err != nil {
		logger = zap.NewNop()
	}
}

// 设置日志级别（debug/info/warn/error）
func SetLevel(l string) (err error) {
	var lv zapcore.Level
	if err = lv.UnmarshalText([]byte(l)); err != nil {
		return
	}
	level.SetLevel(lv)
	return
}

// 替换全局logger（测试中可替换为zaptest/observer）
func Replace(l *zap.Logger) (restore func()) {
	prev := logger
	logger = l.WithOptions(zap.AddCallerSkip(1))
	return func() {
		logger = prev
	}
}

func Debug(msg string, fields ...zap.Field) {
	logger.Debug(msg, fields...)
}

func Info(msg string, fields ...zap.Field) {
	logger.Info(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	logger.Warn(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	logger.Error(msg, fields...)
}

func Sync() {
	_ = logger.Sync()
}
