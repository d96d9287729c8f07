package cli

import (
	"errors"
	"fmt"
	"testing"
)

func TestConfigError(t *testing.T) {
	tests := []struct {
		err  *ConfigError
		want string
	}{
		{NewConfigError("export.sqlite.driver", "must be one of: sqlite, sqlite3"), "config error in export.sqlite.driver: must be one of: sqlite, sqlite3"},
		{NewConfigError("", "failed to load config"), "config error: failed to load config"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}

func TestCommandError(t *testing.T) {
	underlying := errors.New("underlying error")
	err := NewCommandError("compile", underlying)

	if err.Error() != "command compile failed: underlying error" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, underlying) {
		t.Error("errors.Is() should see through CommandError")
	}
}

func TestExitError(t *testing.T) {
	underlying := errors.New("no project file found")
	err := UsageError(underlying)

	if err.Code != ExitUsage {
		t.Errorf("Code = %d, want %d", err.Code, ExitUsage)
	}
	if err.Error() != underlying.Error() {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, underlying) {
		t.Error("errors.Is() should see through ExitError")
	}
	if got := NewExitError(ExitFailed, nil).Error(); got != "exit status 1" {
		t.Errorf("Error() without cause = %q", got)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"plain error", errors.New("boom"), ExitFailed},
		{"config error", NewConfigError("", "bad yaml"), ExitUsage},
		{"wrapped config error", fmt.Errorf("load: %w", NewConfigError("", "bad yaml")), ExitUsage},
		{"usage error", UsageError(errors.New("too many args")), ExitUsage},
		{"exit error", NewExitError(ExitFailed, nil), ExitFailed},
		{"command error wrapping exit error", NewCommandError("check", UsageError(errors.New("x"))), ExitUsage},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestReported(t *testing.T) {
	if !Reported(NewExitError(ExitFailed, nil)) {
		t.Error("ExitError without cause should count as reported")
	}
	if Reported(NewExitError(ExitFailed, errors.New("x"))) {
		t.Error("ExitError with cause should still be printed")
	}
	if Reported(errors.New("x")) {
		t.Error("plain errors should be printed")
	}
}
