package logging

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"go.viam.com/test"
)

func TestObservedLogger(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)
	logger.Debugw("projected", "points", 12)
	logger.Infof("tick %d", 3)

	test.That(t, logs.Len(), test.ShouldEqual, 2)
	entries := logs.All()
	test.That(t, entries[0].Message, test.ShouldEqual, "projected")
	test.That(t, entries[0].ContextMap()["points"], test.ShouldEqual, int64(12))
	test.That(t, entries[1].Message, test.ShouldEqual, "tick 3")
}

func TestLevels(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)
	logger.SetLevel(WARN)
	test.That(t, logger.GetLevel(), test.ShouldEqual, WARN)

	logger.Info("dropped")
	logger.Warn("kept")
	logger.Error("kept too")
	test.That(t, logs.Len(), test.ShouldEqual, 2)

	logger.SetLevel(DEBUG)
	logger.Debug("now visible")
	test.That(t, logs.FilterMessage("now visible").Len(), test.ShouldEqual, 1)

	for _, name := range []string{"debug", "INFO", "warning", "error"} {
		_, err := LevelFromString(name)
		test.That(t, err, test.ShouldBeNil)
	}
	_, err := LevelFromString("loud")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, ERROR.AsZap(), test.ShouldEqual, zapcore.ErrorLevel)
	test.That(t, DEBUG.String(), test.ShouldEqual, "Debug")
}

func TestSublogger(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)
	sub := logger.Sublogger("camera")
	sub.Info("hello")
	subsub := sub.Sublogger("viz")
	subsub.Info("again")

	entries := logs.All()
	test.That(t, entries, test.ShouldHaveLength, 2)
	test.That(t, entries[0].LoggerName, test.ShouldEqual, "camera")
	test.That(t, entries[1].LoggerName, test.ShouldEqual, "camera.viz")
}

func TestAddAppender(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)
	logger.SetLevel(INFO)
	logger.Info("before")

	observerCore, added := observer.New(zapcore.DebugLevel)
	logger.AddAppender(observerCore)
	logger.Debug("filtered")
	logger.Info("after")
	logger.Sublogger("camera").Warn("from sub")

	test.That(t, logs.Len(), test.ShouldEqual, 3)
	entries := added.All()
	test.That(t, entries, test.ShouldHaveLength, 2)
	test.That(t, entries[0].Message, test.ShouldEqual, "after")
	test.That(t, entries[1].LoggerName, test.ShouldEqual, "camera")
	test.That(t, logger.GetLevel(), test.ShouldEqual, INFO)
}

func TestFileAppender(t *testing.T) {
	path := filepath.Join(t.TempDir(), "simviz.log")
	appender, rotator := NewFileAppender(path)
	logger := NewLoggerWithAppenders("file", INFO, appender)
	logger.Infow("contact", "count", 2)
	test.That(t, logger.Sync(), test.ShouldBeNil)
	test.That(t, rotator.Close(), test.ShouldBeNil)

	contents, err := os.ReadFile(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(contents), test.ShouldContainSubstring, `"msg":"contact"`)
	test.That(t, string(contents), test.ShouldContainSubstring, `"count":2`)
}

func TestBlankLogger(t *testing.T) {
	logger := NewBlankLogger("blank")
	logger.Error("goes nowhere")
	test.That(t, logger.Sync(), test.ShouldBeNil)
}
