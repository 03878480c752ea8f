package logging

import (
	"fmt"
	"os"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var stdout zapcore.WriteSyncer = os.Stdout

type impl struct {
	name      string
	level     zap.AtomicLevel
	appenders []zapcore.Core

	sugar *zap.SugaredLogger
}

func newImpl(name string, level zap.AtomicLevel, appenders []zapcore.Core) *impl {
	opts := []zap.Option{zap.AddCaller(), zap.AddCallerSkip(1)}
	if len(appenders) > 0 {
		// a tee of nothing enables no level and zap would complain about increasing it
		opts = append(opts, zap.IncreaseLevel(level))
	}
	sugar := zap.New(zapcore.NewTee(appenders...), opts...).Sugar()
	if name != "" {
		sugar = sugar.Named(name)
	}
	return &impl{name: name, level: level, appenders: appenders, sugar: sugar}
}

func (imp *impl) Sublogger(subname string) Logger {
	newName := subname
	if imp.name != "" {
		newName = fmt.Sprintf("%s.%s", imp.name, subname)
	}
	return newImpl(newName, zap.NewAtomicLevelAt(imp.level.Level()), imp.appenders)
}

func (imp *impl) AddAppender(appender zapcore.Core) {
	appenders := append(append([]zapcore.Core(nil), imp.appenders...), appender)
	*imp = *newImpl(imp.name, imp.level, appenders)
}

func (imp *impl) SetLevel(level Level) {
	imp.level.SetLevel(level.AsZap())
}

func (imp *impl) GetLevel() Level {
	lvl := imp.level.Level()
	switch {
	case lvl <= zapcore.DebugLevel:
		return DEBUG
	case lvl == zapcore.InfoLevel:
		return INFO
	case lvl == zapcore.WarnLevel:
		return WARN
	default:
		return ERROR
	}
}

func (imp *impl) AsZap() *zap.SugaredLogger {
	return imp.sugar
}

func (imp *impl) Sync() error {
	var errs []error
	for _, appender := range imp.appenders {
		errs = append(errs, appender.Sync())
	}
	return multierr.Combine(errs...)
}

func (imp *impl) Debug(args ...interface{}) { imp.sugar.Debug(args...) }

func (imp *impl) Debugf(template string, args ...interface{}) { imp.sugar.Debugf(template, args...) }

func (imp *impl) Debugw(msg string, keysAndValues ...interface{}) {
	imp.sugar.Debugw(msg, keysAndValues...)
}

func (imp *impl) Info(args ...interface{}) { imp.sugar.Info(args...) }

func (imp *impl) Infof(template string, args ...interface{}) { imp.sugar.Infof(template, args...) }

func (imp *impl) Infow(msg string, keysAndValues ...interface{}) {
	imp.sugar.Infow(msg, keysAndValues...)
}

func (imp *impl) Warn(args ...interface{}) { imp.sugar.Warn(args...) }

func (imp *impl) Warnf(template string, args ...interface{}) { imp.sugar.Warnf(template, args...) }

func (imp *impl) Warnw(msg string, keysAndValues ...interface{}) {
	imp.sugar.Warnw(msg, keysAndValues...)
}

func (imp *impl) Error(args ...interface{}) { imp.sugar.Error(args...) }

func (imp *impl) Errorf(template string, args ...interface{}) { imp.sugar.Errorf(template, args...) }

func (imp *impl) Errorw(msg string, keysAndValues ...interface{}) {
	imp.sugar.Errorw(msg, keysAndValues...)
}
