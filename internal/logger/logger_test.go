package logger

import (
	"testing"

	"github.com/samvad-hq/annif-client/internal/config"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"info":    zapcore.InfoLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"bogus":   zapcore.InfoLevel,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v want %v", in, got, want)
		}
	}
}

func TestHelpersAreSafeBeforeInit(t *testing.T) {
	S = nil
	InfoObj("msg", "k", 1)
	Global{}.ErrorObj("msg", "k", 1)
	if err := Close(); err != nil {
		t.Fatalf("Close before Init: %v", err)
	}
}

func TestInitSetsGlobal(t *testing.T) {
	log, err := Init(&config.Config{LogLevel: "debug"})
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if log == nil || S != log {
		t.Fatalf("Init should set the package logger")
	}
	if !S.Desugar().Core().Enabled(zapcore.DebugLevel) {
		t.Fatalf("debug level should be enabled")
	}
	S = nil
}
