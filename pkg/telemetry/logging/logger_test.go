package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"synesis-hq/synesis/pkg/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name:   "valid JSON config",
			config: Config{Level: "info", Format: "json"},
		},
		{
			name:   "valid text config",
			config: Config{Level: "debug", Format: "text"},
		},
		{
			name:   "valid console config",
			config: Config{Level: "warn", Format: "console"},
		},
		{
			name:   "defaults",
			config: Config{},
		},
		{
			name:    "invalid log level",
			config:  Config{Level: "invalid", Format: "json"},
			wantErr: true,
		},
		{
			name:    "invalid format",
			config:  Config{Level: "info", Format: "invalid"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.config.Writer = &bytes.Buffer{}
			logger, err := New(tt.config)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && logger.Slog() == nil {
				t.Error("expected an slog logger")
			}
		})
	}
}

func TestFromConfig(t *testing.T) {
	buf := &bytes.Buffer{}
	cfg := FromConfig(&config.LoggingConfig{Level: "debug", Format: "json", AddSource: true}, buf)

	if cfg.Level != "debug" || cfg.Format != "json" || !cfg.AddSource || cfg.Writer != buf {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := New(Config{Level: "warn", Format: "text", Writer: buf})
	if err != nil {
		t.Fatal(err)
	}

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	out := buf.String()
	if strings.Contains(out, "debug message") || strings.Contains(out, "info message") {
		t.Errorf("messages below warn must be filtered:\n%s", out)
	}
	if !strings.Contains(out, "warn message") || !strings.Contains(out, "error message") {
		t.Errorf("expected warn and error messages:\n%s", out)
	}
	if logger.Level() != slog.LevelWarn {
		t.Errorf("Level() = %v, want warn", logger.Level())
	}
}

func TestLogger_ConsoleOmitsTime(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := New(Config{Level: "info", Format: "console", Writer: buf})
	if err != nil {
		t.Fatal(err)
	}

	logger.Info("compiled", "documents", 3)

	out := buf.String()
	if strings.Contains(out, "time=") {
		t.Errorf("console output must not carry a timestamp: %s", out)
	}
	if !strings.Contains(out, "documents=3") {
		t.Errorf("expected attribute in output: %s", out)
	}
}

func TestLogger_ContextFields(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := New(Config{Level: "info", Format: "json", Writer: buf})
	if err != nil {
		t.Fatal(err)
	}

	ctx := WithCompilationID(context.Background(), "c-123")
	ctx = WithProject(ctx, "study")
	ctx = WithDocument(ctx, "data/a.syn")
	logger.With("component", "compiler").InfoContext(ctx, "parsed")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, buf.String())
	}

	want := map[string]string{
		"compilation_id": "c-123",
		"project":        "study",
		"document":       "data/a.syn",
		"component":      "compiler",
		"msg":            "parsed",
	}
	for key, value := range want {
		if record[key] != value {
			t.Errorf("%s = %v, want %q", key, record[key], value)
		}
	}
}

func TestContextKeys(t *testing.T) {
	ctx := context.Background()
	if GetCompilationID(ctx) != "" || GetProject(ctx) != "" || GetDocument(ctx) != "" {
		t.Error("expected empty fields on a bare context")
	}
	if fields := extractContextFields(ctx); len(fields) != 0 {
		t.Errorf("expected no fields, got %v", fields)
	}

	ctx = WithProject(ctx, "study")
	if got := GetProject(ctx); got != "study" {
		t.Errorf("GetProject() = %q, want %q", got, "study")
	}
	if fields := extractContextFields(ctx); len(fields) != 1 {
		t.Errorf("expected one field, got %v", fields)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{in: "debug", want: slog.LevelDebug},
		{in: "", want: slog.LevelInfo},
		{in: "WARNING", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "loud", want: slog.LevelInfo, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	if logger.Enabled(context.Background(), slog.LevelError) {
		t.Error("discard logger must not be enabled")
	}
}
