package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestSetOutput(t *testing.T) {
	buf := &bytes.Buffer{}
	SetOutput(buf)

	log := Logger("test")
	log.Info("test message", "key", "value")

	output := buf.String()
	if !strings.Contains(output, "test message") {
		t.Errorf("expected log message in buffer, got: %s", output)
	}
	if !strings.Contains(output, "key=value") {
		t.Errorf("expected key=value in buffer, got: %s", output)
	}
	if !strings.Contains(output, "subsystem=test") {
		t.Errorf("expected subsystem=test in buffer, got: %s", output)
	}
}

func TestSetOutput_ExistingLogger(t *testing.T) {
	// logger 在切换输出之前创建
	log := Logger("test2")

	buf := &bytes.Buffer{}
	SetOutput(buf)

	log.Info("after switch", "key", "value")

	// 即使 logger 是在切换之前创建的，输出也应重定向
	output := buf.String()
	if !strings.Contains(output, "after switch") {
		t.Errorf("expected log message in buffer, got: %s", output)
	}
}

func TestLevelForSubsystem(t *testing.T) {
	cfg := &Config{
		DefaultLevel: slog.LevelInfo,
		SubsystemLevels: map[string]slog.Level{
			"advertise": slog.LevelDebug,
		},
	}

	if got := cfg.LevelForSubsystem("advertise"); got != slog.LevelDebug {
		t.Errorf("LevelForSubsystem(advertise) = %v, want debug", got)
	}
	if got := cfg.LevelForSubsystem("other"); got != slog.LevelInfo {
		t.Errorf("LevelForSubsystem(other) = %v, want info", got)
	}
}

func TestParseLevelConfig(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantDefault slog.Level
		wantSubs    map[string]slog.Level
	}{
		{"default_only", "debug", slog.LevelDebug, nil},
		{"subsystem_only", "advertise=warn", slog.LevelInfo, map[string]slog.Level{"advertise": slog.LevelWarn}},
		{"mixed", "advertise=debug,error", slog.LevelError, map[string]slog.Level{"advertise": slog.LevelDebug}},
		{"garbage_ignored", "advertise=bogus,info", slog.LevelInfo, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				DefaultLevel:    slog.LevelInfo,
				SubsystemLevels: make(map[string]slog.Level),
			}
			parseLevelConfig(cfg, tt.input)

			if cfg.DefaultLevel != tt.wantDefault {
				t.Errorf("DefaultLevel = %v, want %v", cfg.DefaultLevel, tt.wantDefault)
			}
			for sub, want := range tt.wantSubs {
				if got := cfg.SubsystemLevels[sub]; got != want {
					t.Errorf("SubsystemLevels[%s] = %v, want %v", sub, got, want)
				}
			}
		})
	}
}
