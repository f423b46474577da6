// Package logging wraps go.uber.org/zap the way the teacher's
// pkg/logger package does: a package-level Logging(name) constructor
// handing back a *zap.SugaredLogger, here additionally wired to
// lumberjack for the supervisor's own append-only, rotation-capable
// log file.
package logging

import (
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// timeFormat matches §6's normative line format exactly:
// "YYYY-MM-DD HH:MM:SS <message>".
const timeFormat = "2006-01-02 15:04:05"

func encodeTime(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.Format(timeFormat))
}

func baseEncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:          "T",
		MessageKey:       "M",
		LevelKey:         zapcore.OmitKey,
		NameKey:          zapcore.OmitKey,
		CallerKey:        zapcore.OmitKey,
		StacktraceKey:    zapcore.OmitKey,
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeTime:       encodeTime,
		ConsoleSeparator: " ",
	}
}

// New builds the supervisor's logger. logPath is metasys.log under
// log_dir; the file rotates at 10 MB and rotated files are kept for 7
// days. When console is true, a second core tees the same lines to
// stderr.
func New(logPath string, console bool, level zapcore.Level) *zap.SugaredLogger {
	fileCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(baseEncoderConfig()),
		zapcore.AddSync(&lumberjack.Logger{
			Filename: logPath,
			MaxSize:  10,
			MaxAge:   7,
			Compress: false,
		}),
		level,
	)

	core := fileCore
	if console {
		consoleCore := zapcore.NewCore(
			zapcore.NewConsoleEncoder(baseEncoderConfig()),
			zapcore.Lock(zapcore.AddSync(os.Stderr)),
			level,
		)
		core = zapcore.NewTee(fileCore, consoleCore)
	}

	return zap.New(core).Sugar()
}

// Logging mirrors the teacher's per-component logger constructor,
// returning a child logger namespaced to component.
func Logging(base *zap.SugaredLogger, component string) *zap.SugaredLogger {
	return base.Named(component)
}
