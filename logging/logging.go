// Package logging contains the zap backed logger used throughout simviz.
package logging

import (
	"strings"
	"testing"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the logging interface handed to every simviz component.
type Logger interface {
	Debug(args ...interface{})
	Debugf(template string, args ...interface{})
	Debugw(msg string, keysAndValues ...interface{})
	Info(args ...interface{})
	Infof(template string, args ...interface{})
	Infow(msg string, keysAndValues ...interface{})
	Warn(args ...interface{})
	Warnf(template string, args ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
	Error(args ...interface{})
	Errorf(template string, args ...interface{})
	Errorw(msg string, keysAndValues ...interface{})

	// Sublogger returns a logger named "<name>.<subname>" writing to the same appenders.
	Sublogger(subname string) Logger
	// AddAppender makes the logger also write to appender. Subloggers created earlier are unaffected.
	AddAppender(appender zapcore.Core)
	SetLevel(level Level)
	GetLevel() Level
	AsZap() *zap.SugaredLogger
	Sync() error
}

// Level is a log level.
type Level int

// Supported levels, in increasing severity.
const (
	DEBUG Level = iota - 1
	INFO
	WARN
	ERROR
)

// AsZap converts the level to the zapcore equivalent.
func (level Level) AsZap() zapcore.Level {
	switch level {
	case DEBUG:
		return zapcore.DebugLevel
	case WARN:
		return zapcore.WarnLevel
	case ERROR:
		return zapcore.ErrorLevel
	case INFO:
		fallthrough
	default:
		return zapcore.InfoLevel
	}
}

func (level Level) String() string {
	switch level {
	case DEBUG:
		return "Debug"
	case INFO:
		return "Info"
	case WARN:
		return "Warn"
	case ERROR:
		return "Error"
	default:
		return "Unknown"
	}
}

// LevelFromString parses a case insensitive level name.
func LevelFromString(name string) (Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return DEBUG, nil
	case "info":
		return INFO, nil
	case "warn", "warning":
		return WARN, nil
	case "error":
		return ERROR, nil
	default:
		return INFO, errors.Errorf("unknown log level %q", name)
	}
}

// NewZapLoggerConfig returns the console encoder settings used for stdout logging.
func NewZapLoggerConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalColorLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

// NewStdoutAppender returns an appender writing console encoded logs to stdout.
func NewStdoutAppender() zapcore.Core {
	return zapcore.NewCore(
		zapcore.NewConsoleEncoder(NewZapLoggerConfig()),
		zapcore.Lock(zapcore.AddSync(stdout)),
		zapcore.DebugLevel,
	)
}

// NewFileAppender returns an appender writing JSON logs to a size rotated file.
func NewFileAppender(filename string) (zapcore.Core, *lumberjack.Logger) {
	rotator := &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    100,
		MaxBackups: 3,
		Compress:   true,
	}
	encoderCfg := NewZapLoggerConfig()
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(rotator), zapcore.DebugLevel), rotator
}

// NewLogger returns a new logger that outputs Info+ logs to stdout.
func NewLogger(name string) Logger {
	return NewLoggerWithAppenders(name, INFO, NewStdoutAppender())
}

// NewDebugLogger returns a new logger that outputs Debug+ logs to stdout.
func NewDebugLogger(name string) Logger {
	return NewLoggerWithAppenders(name, DEBUG, NewStdoutAppender())
}

// NewBlankLogger returns a Debug+ logger without any outputs.
func NewBlankLogger(name string) Logger {
	return NewLoggerWithAppenders(name, DEBUG)
}

// NewLoggerWithAppenders returns a logger at the given level writing to every appender.
func NewLoggerWithAppenders(name string, level Level, appenders ...zapcore.Core) Logger {
	return newImpl(name, zap.NewAtomicLevelAt(level.AsZap()), appenders)
}

// NewTestLogger returns a new Debug+ logger that writes through the test's Log method.
func NewTestLogger(tb testing.TB) Logger {
	logger, _ := NewObservedTestLogger(tb)
	return logger
}

// NewObservedTestLogger is like NewTestLogger but also saves logs to an in memory observer.
func NewObservedTestLogger(tb testing.TB) (Logger, *observer.ObservedLogs) {
	testCore := zaptest.NewLogger(tb, zaptest.Level(zapcore.DebugLevel)).Core()
	observerCore, observedLogs := observer.New(zap.LevelEnablerFunc(zapcore.DebugLevel.Enabled))
	return NewLoggerWithAppenders("", DEBUG, testCore, observerCore), observedLogs
}
