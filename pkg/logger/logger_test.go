package logger

import (
	"context"
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"go.uber.org/zap/zapcore"
)

func TestLoggerInit(t *testing.T) {
	Convey("Given the global logger", t, func() {
		Convey("Init builds a console logger", func() {
			So(Init(), ShouldBeNil)
			So(Get(), ShouldNotBeNil)
			So(Sync(), ShouldBeNil)
		})

		Convey("InitWith builds a json logger at debug level", func() {
			So(InitWith(Options{Level: "debug", Format: "json"}), ShouldBeNil)
			So(level.Level(), ShouldEqual, zapcore.DebugLevel)
			Get().Debug(context.Background(), "debug line", String("k", "v"), Error(errors.New("boom")))
			So(SetLevelString("info"), ShouldBeNil)
		})

		Convey("InitWith can write to stderr", func() {
			So(InitWith(Options{Level: "info", Output: "stderr"}), ShouldBeNil)
			So(Get(), ShouldNotBeNil)
		})

		Convey("InitWith rejects unknown levels", func() {
			So(InitWith(Options{Level: "loud"}), ShouldNotBeNil)
		})
	})
}

func TestLoggerLevels(t *testing.T) {
	Convey("SetLevelString maps names onto zap levels", t, func() {
		cases := map[string]zapcore.Level{
			"debug":   zapcore.DebugLevel,
			"":        zapcore.InfoLevel,
			"INFO":    zapcore.InfoLevel,
			"warning": zapcore.WarnLevel,
			"warn":    zapcore.WarnLevel,
			"error":   zapcore.ErrorLevel,
		}
		for name, want := range cases {
			So(SetLevelString(name), ShouldBeNil)
			So(level.Level(), ShouldEqual, want)
		}
		So(SetLevelString("info"), ShouldBeNil)
	})
}

func TestLoggerNamed(t *testing.T) {
	Convey("Named loggers share the global core", t, func() {
		So(Init(), ShouldBeNil)
		named := Named("test")
		So(named, ShouldNotBeNil)
		named.Info(context.Background(), "test message", Int("n", 1), Bool("ok", true))

		nop := NewNop().Named("quiet")
		nop.Warn(context.Background(), "dropped")
	})
}
