package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"logur.dev/logur"
)

var (
	Prod = zap.NewProductionConfig()
	Dev  = zap.NewDevelopmentConfig()
)

func init() {
	Prod.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zap.ReplaceGlobals(Create("", Dev).Desugar())
}

// Create builds a named sugared logger from cfg.
// A config that fails to build yields a no-op logger.
func Create(name string, cfg zap.Config) *zap.SugaredLogger {
	l, err := cfg.Build()
	if err != nil {
		l = zap.NewNop()
	}
	return l.Named(name).Sugar()
}

// Config picks development config for debug runs and production config otherwise.
func Config(debug bool) zap.Config {
	if debug {
		return Dev
	}
	return Prod
}

type KVLogger interface {
	Debug(msg string, keyvals ...interface{})
	Info(msg string, keyvals ...interface{})
	Warn(msg string, keyvals ...interface{})
	Error(msg string, keyvals ...interface{})
	With(keyvals ...interface{}) KVLogger
}

type NoopKVLogger struct {
	logur.NoopKVLogger
}

func (l NoopKVLogger) With(keyvals ...interface{}) KVLogger {
	return l
}

// AddRunRef tags log lines with a shortened run identifier.
func AddRunRef(l KVLogger, runID string) KVLogger {
	if len(runID) >= 10 {
		return l.With("run", runID[len(runID)-10:])
	}
	return l.With("run", runID)
}
