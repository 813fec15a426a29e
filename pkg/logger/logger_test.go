package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestInitWithFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"", false},
		{"text", false},
		{"JSON", false},
		{"xml", true},
	}
	for _, tt := range tests {
		err := InitWithFormat(tt.format)
		if (err != nil) != tt.wantErr {
			t.Fatalf("InitWithFormat(%q) error = %v, wantErr %v", tt.format, err, tt.wantErr)
		}
		if Get() == nil {
			t.Fatal("logger is nil after initialization")
		}
	}
}

func TestLoggerOutput(t *testing.T) {
	Convey("Given a json logger on a buffer", t, func() {
		SetLevel(slog.LevelInfo)
		var buf bytes.Buffer
		l, err := New(&buf, FormatJSON)
		So(err, ShouldBeNil)

		Convey("When logging with fields", func() {
			l.Named("form").Info(context.Background(), "analyzed", String("user", "u1"), Int("games", 7))

			Convey("Then the record carries the group and the source", func() {
				var rec map[string]any
				So(json.Unmarshal(buf.Bytes(), &rec), ShouldBeNil)
				So(rec["msg"], ShouldEqual, "analyzed")
				group, ok := rec["form"].(map[string]any)
				So(ok, ShouldBeTrue)
				So(group["user"], ShouldEqual, "u1")
				So(group["games"], ShouldEqual, float64(7))
				So(group["source"], ShouldContainSubstring, "logger_test.go")
			})
		})

		Convey("When the level is raised", func() {
			So(SetLevelString("error"), ShouldBeNil)
			l.Info(context.Background(), "hidden")
			l.Error(context.Background(), "shown")
			SetLevel(slog.LevelInfo)

			So(strings.Contains(buf.String(), "hidden"), ShouldBeFalse)
			So(buf.String(), ShouldContainSubstring, "shown")
		})
	})
}

func TestSetLevelString(t *testing.T) {
	Convey("Known levels parse and unknown ones fail", t, func() {
		for _, lvl := range []string{"debug", "info", "", "warn", "WARNING", "error"} {
			So(SetLevelString(lvl), ShouldBeNil)
		}
		So(SetLevelString("loud"), ShouldNotBeNil)
		SetLevel(slog.LevelInfo)
	})
}

func TestDiscardAndNamed(t *testing.T) {
	Convey("Discard and Named never panic", t, func() {
		So(func() { Discard().Warn(context.Background(), "dropped", Error(nil)) }, ShouldNotPanic)
		So(func() { Named("test").Debug(context.Background(), "dbg", Float64("x", 1), Any("y", []int{1})) }, ShouldNotPanic)
		So(Sync(), ShouldBeNil)
	})
}
