package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Log struct {
	LogLevel zapcore.Level `envconfig:"LOG_LEVEL" default:"info"`
	// Sink is a file path; empty means stderr.
	Sink string `envconfig:"LOG_SINK"`
}

// NewLogger writes JSON to cfg.Sink. A sink that cannot be opened falls back
// to stderr with a warning naming it.
func NewLogger(cfg Log, name string) *zap.Logger {
	return newLogger(cfg, name, zapcore.Lock(os.Stderr))
}

func newLogger(cfg Log, name string, fallback zapcore.WriteSyncer) *zap.Logger {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	ws := fallback
	var sinkErr error
	if cfg.Sink != "" {
		f, err := os.OpenFile(cfg.Sink, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err == nil {
			ws = zapcore.AddSync(f)
		} else {
			sinkErr = err
		}
	}

	enc := zapcore.NewJSONEncoder(encCfg)
	if sinkErr != nil {
		// reported whatever the configured level
		zap.New(zapcore.NewCore(enc.Clone(), ws, zapcore.DebugLevel)).Named(name).
			Warn("log sink unavailable, writing to stderr", zap.String("sink", cfg.Sink), zap.Error(sinkErr))
	}

	core := zapcore.NewCore(enc, ws, zap.NewAtomicLevelAt(cfg.LogLevel))
	return zap.New(core, zap.AddCaller()).Named(name)
}
