package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_DefaultsToInfo(t *testing.T) {
	logger, err := New(Config{ServiceName: "test", Env: "development"})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	if logger.Core().Enabled(zapcore.DebugLevel) {
		t.Error("Expected debug to be disabled at default level")
	}
	if !logger.Core().Enabled(zapcore.InfoLevel) {
		t.Error("Expected info to be enabled at default level")
	}
}

func TestNew_InvalidLevel(t *testing.T) {
	if _, err := New(Config{ServiceName: "test", Env: "development", Level: "verbose"}); err == nil {
		t.Fatal("Expected error for invalid level, got nil")
	}
}

func TestNew_TeesExtraCores(t *testing.T) {
	recorded, logs := observer.New(zapcore.DebugLevel)

	logger, err := New(Config{ServiceName: "test", Env: "development", Level: "debug"}, recorded)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	logger.Info("hello")

	if logs.Len() != 1 {
		t.Fatalf("Expected 1 record on the extra core, got %d", logs.Len())
	}
	entry := logs.All()[0]
	if entry.Message != "hello" {
		t.Errorf("Expected message 'hello', got %q", entry.Message)
	}
	fields := entry.ContextMap()
	if fields["service"] != "test" {
		t.Errorf("Expected service field on teed record, got %v", fields["service"])
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zapcore.Level
		wantErr bool
	}{
		{"debug", zapcore.DebugLevel, false},
		{"INFO", zapcore.InfoLevel, false},
		{"warn", zapcore.WarnLevel, false},
		{"error", zapcore.ErrorLevel, false},
		{"trace", zapcore.InfoLevel, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if tt.wantErr != (err != nil) {
			t.Errorf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
