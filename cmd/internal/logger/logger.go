package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"os"
)

// BuildLogger sends everything printed by the logger to stderr, leaving
// stdout free for output a calling script may want to capture. Debug level
// messages, like management plane cache hits, are only enabled when verbose
// is set.
func BuildLogger(verbose bool) {
	enabledLevels := zap.LevelEnablerFunc(func(level zapcore.Level) bool {
		return verbose || level > zapcore.DebugLevel
	})

	stderrSyncer := zapcore.Lock(os.Stderr)

	core := zapcore.NewTee(
		zapcore.NewCore(
			zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
				TimeKey:        "ts",
				LevelKey:       "level",
				NameKey:        "logger",
				CallerKey:      "caller",
				FunctionKey:    zapcore.OmitKey,
				MessageKey:     "msg",
				StacktraceKey:  "stacktrace",
				LineEnding:     zapcore.DefaultLineEnding,
				EncodeLevel:    zapcore.LowercaseLevelEncoder,
				EncodeTime:     zapcore.ISO8601TimeEncoder,
				EncodeDuration: zapcore.SecondsDurationEncoder,
				EncodeCaller:   zapcore.ShortCallerEncoder,
			}),
			stderrSyncer,
			enabledLevels,
		),
	)

	logger := zap.New(core)

	zap.ReplaceGlobals(logger)
}
