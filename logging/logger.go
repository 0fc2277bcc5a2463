// Package logging builds the process-wide zap logger. Console output for
// operators, plus an optional rotating JSON file that captures the full
// trace stream at debug level for post-mortem desync analysis.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New returns the configured logger. In development mode the console gets
// colored output down to debug level; in production it gets JSON at info,
// so per-draw trace records only ever reach the rotating file.
func New(development bool, traceFile string) *zap.Logger {

	consoleLevel := zapcore.InfoLevel
	var consoleEnc zapcore.Encoder
	if development {
		consoleLevel = zapcore.DebugLevel
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		consoleEnc = zapcore.NewConsoleEncoder(cfg)
	} else {
		consoleEnc = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	}
	cores := []zapcore.Core{
		zapcore.NewCore(consoleEnc, zapcore.Lock(os.Stderr), consoleLevel),
	}

	// rotating file sink for the full trace stream
	if traceFile != "" {
		sink := zapcore.AddSync(&lumberjack.Logger{
			Filename:   traceFile,
			MaxSize:    100, // MB
			MaxBackups: 5,
			MaxAge:     30, // days
			Compress:   true,
		})
		cores = append(cores,
			zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), sink, zapcore.DebugLevel))
	}

	return zap.New(zapcore.NewTee(cores...))
}
