// Package zapadapter exposes zap loggers as logging.KVLogger.
package zapadapter

import (
	"github.com/OdyseeTeam/thumbgrid/pkg/logging"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"logur.dev/logur"
)

var levels = map[logur.Level]zapcore.Level{
	logur.Trace: zap.DebugLevel,
	logur.Debug: zap.DebugLevel,
	logur.Info:  zap.InfoLevel,
	logur.Warn:  zap.WarnLevel,
	logur.Error: zap.ErrorLevel,
}

type kvLogger struct {
	sugar *zap.SugaredLogger
	core  zapcore.Core
}

// NewKV wraps logger. A nil logger falls back to the zap global one.
func NewKV(logger *zap.Logger) logging.KVLogger {
	if logger == nil {
		logger = zap.L()
	}
	// Skip the exported method and log() so callers get reported.
	return wrap(logger.WithOptions(zap.AddCallerSkip(2)))
}

func wrap(logger *zap.Logger) *kvLogger {
	return &kvLogger{sugar: logger.Sugar(), core: logger.Core()}
}

func (l *kvLogger) log(lvl zapcore.Level, msg string, keyvals []interface{}) {
	if !l.core.Enabled(lvl) {
		return
	}
	switch lvl {
	case zap.DebugLevel:
		l.sugar.Debugw(msg, keyvals...)
	case zap.InfoLevel:
		l.sugar.Infow(msg, keyvals...)
	case zap.WarnLevel:
		l.sugar.Warnw(msg, keyvals...)
	default:
		l.sugar.Errorw(msg, keyvals...)
	}
}

func (l *kvLogger) Debug(msg string, keyvals ...interface{}) { l.log(zap.DebugLevel, msg, keyvals) }
func (l *kvLogger) Info(msg string, keyvals ...interface{})  { l.log(zap.InfoLevel, msg, keyvals) }
func (l *kvLogger) Warn(msg string, keyvals ...interface{})  { l.log(zap.WarnLevel, msg, keyvals) }
func (l *kvLogger) Error(msg string, keyvals ...interface{}) { l.log(zap.ErrorLevel, msg, keyvals) }

func (l *kvLogger) With(keyvals ...interface{}) logging.KVLogger {
	return wrap(l.sugar.With(keyvals...).Desugar())
}

// LevelEnabled implements logur.LevelEnabler.
func (l *kvLogger) LevelEnabled(level logur.Level) bool {
	zl, ok := levels[level]
	if !ok {
		return true
	}
	return l.core.Enabled(zl)
}
