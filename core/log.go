package core

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log is the launcher-wide logger. It discards everything until InitLogging is called.
var Log = zap.NewNop()

// InitLogging replaces Log with a console logger writing to stderr.
func InitLogging(verbose bool) error {
	var cfg zap.Config
	if verbose {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.DisableStacktrace = true
	}
	cfg.OutputPaths = []string{"stderr"}
	logger, err := cfg.Build()
	if err != nil {
		return err
	}
	Log = logger
	return nil
}

// Debugging reports whether debug output is enabled, used to decide whether to redact launch arguments.
func Debugging() bool {
	return Log.Core().Enabled(zapcore.DebugLevel)
}
