// Package log is the process-wide leveled logger.
//
// Calls take a message followed by alternating key/value pairs:
//
//	log.Info("product created", "id", p.ID, "name", p.Name)
//
// The output is produced by zap. Development mode uses the console encoder,
// production mode emits one JSON object per line. An optional log file is
// rotated with lumberjack.
package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	}
	return fmt.Sprintf("level(%d)", int(l))
}

func (l Level) zapLevel() zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	}
	return zapcore.InfoLevel
}

// ParseLevel maps a configuration string to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// Logger writes leveled, structured lines to writer and, when configured,
// to a rotated file.
type Logger struct {
	mu     sync.Mutex
	level  Level
	writer io.Writer
	json   bool
	file   io.Writer

	sugar *zap.SugaredLogger
}

// Options configures the global logger.
type Options struct {
	Level      string
	Production bool
	// File enables an additional JSON sink rotated by lumberjack.
	File string
}

var globalLogger = &Logger{
	level:  LevelInfo,
	writer: os.Stdout,
}

// Configure replaces the global logger settings.
func Configure(opts Options) error {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return err
	}

	globalLogger.mu.Lock()
	defer globalLogger.mu.Unlock()

	globalLogger.level = level
	globalLogger.json = opts.Production
	globalLogger.file = nil
	if opts.File != "" {
		globalLogger.file = &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    64,
			MaxBackups: 7,
			MaxAge:     7,
		}
	}
	globalLogger.reset()
	return nil
}

func Debug(msg string, args ...interface{}) {
	globalLogger.log(LevelDebug, msg, args...)
}

func Info(msg string, args ...interface{}) {
	globalLogger.log(LevelInfo, msg, args...)
}

func Warn(msg string, args ...interface{}) {
	globalLogger.log(LevelWarn, msg, args...)
}

func Error(msg string, args ...interface{}) {
	globalLogger.log(LevelError, msg, args...)
}

func SetLevel(level Level) {
	globalLogger.SetLevel(level)
}

func SetWriter(w io.Writer) {
	globalLogger.SetWriter(w)
}

// Sync flushes buffered entries.
func Sync() error {
	globalLogger.mu.Lock()
	defer globalLogger.mu.Unlock()
	if globalLogger.sugar == nil {
		return nil
	}
	return globalLogger.sugar.Sync()
}

func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
	l.reset()
}

func (l *Logger) SetWriter(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.writer = w
	l.reset()
}

// reset drops the built zap logger; the next log call rebuilds it.
// Callers hold l.mu.
func (l *Logger) reset() {
	if l.sugar != nil {
		_ = l.sugar.Sync()
	}
	l.sugar = nil
}

func (l *Logger) build() *zap.SugaredLogger {
	writer := l.writer
	if writer == nil {
		writer = os.Stdout
	}
	enabler := zap.NewAtomicLevelAt(l.level.zapLevel())

	var cores []zapcore.Core
	if l.json {
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(jsonEncoderConfig()), zapcore.AddSync(writer), enabler))
	} else {
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(consoleEncoderConfig()), zapcore.AddSync(writer), enabler))
	}
	if l.file != nil {
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(jsonEncoderConfig()), zapcore.AddSync(l.file), enabler))
	}

	return zap.New(zapcore.NewTee(cores...)).Sugar()
}

func (l *Logger) log(level Level, msg string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if level < l.level {
		return
	}
	if l.sugar == nil {
		l.sugar = l.build()
	}

	switch level {
	case LevelDebug:
		l.sugar.Debugw(msg, args...)
	case LevelInfo:
		l.sugar.Infow(msg, args...)
	case LevelWarn:
		l.sugar.Warnw(msg, args...)
	default:
		l.sugar.Errorw(msg, args...)
	}
}

func consoleEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeLevel = func(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString("[" + l.CapitalString() + "]")
	}
	cfg.CallerKey = zapcore.OmitKey
	return cfg
}

func jsonEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.CallerKey = zapcore.OmitKey
	return cfg
}
