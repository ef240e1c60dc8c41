package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/felixgeelhaar/retailctl/internal/errors"
)

func newBufferLogger(level Level, format Format) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := New(Config{
		Level:       level,
		Format:      format,
		Output:      NewOutput(&buf),
		ServiceName: "retailctl-test",
	})
	return logger, &buf
}

func decodeRecord(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("failed to decode log record %q: %v", buf.String(), err)
	}
	return record
}

func TestLogLevelFiltering(t *testing.T) {
	logger, buf := newBufferLogger(LevelWarn, FormatText)

	logger.Debug("debug message")
	logger.Info("info message")
	if buf.Len() != 0 {
		t.Errorf("expected debug and info to be filtered, got %q", buf.String())
	}

	logger.Warn("warn message")
	if !strings.Contains(buf.String(), "warn message") {
		t.Errorf("expected warn message in output, got %q", buf.String())
	}
}

func TestJSONFormatOutput(t *testing.T) {
	logger, buf := newBufferLogger(LevelDebug, FormatJSON)

	logger.Info("login succeeded", "username", "admin")

	record := decodeRecord(t, buf)
	if record["msg"] != "login succeeded" {
		t.Errorf("unexpected msg %v", record["msg"])
	}
	if record["username"] != "admin" {
		t.Errorf("unexpected username %v", record["username"])
	}
	if record["service"] != "retailctl-test" {
		t.Errorf("expected service attribute, got %v", record["service"])
	}
}

func TestWithError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
		wantMsg  string
	}{
		{
			name:     "console error",
			err:      errors.NewAPIError(401, "Bad credentials"),
			wantCode: "API-001",
			wantMsg:  "Bad credentials",
		},
		{
			name:    "plain error",
			err:     fmt.Errorf("plain failure"),
			wantMsg: "plain failure",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, buf := newBufferLogger(LevelDebug, FormatJSON)
			logger.WithError(tt.err).Error("operation failed")

			record := decodeRecord(t, buf)
			if record["error"] != tt.wantMsg {
				t.Errorf("expected error %q, got %v", tt.wantMsg, record["error"])
			}
			if tt.wantCode != "" && record["error_code"] != tt.wantCode {
				t.Errorf("expected error_code %q, got %v", tt.wantCode, record["error_code"])
			}
		})
	}
}

func TestWithErrorNil(t *testing.T) {
	logger, _ := newBufferLogger(LevelDebug, FormatJSON)
	if logger.WithError(nil) != logger {
		t.Error("WithError(nil) should return the same logger")
	}
}

func TestWithContextRequestID(t *testing.T) {
	logger, buf := newBufferLogger(LevelDebug, FormatJSON)

	ctx := ContextWithRequestID(context.Background(), "req-42")
	logger.WithContext(ctx).Info("handled")

	record := decodeRecord(t, buf)
	if record["request_id"] != "req-42" {
		t.Errorf("expected request_id req-42, got %v", record["request_id"])
	}

	if logger.WithContext(context.Background()) != logger {
		t.Error("WithContext without request id should return the same logger")
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug":   LevelDebug,
		"INFO":    LevelInfo,
		"warning": LevelWarn,
		" error ": LevelError,
		"bogus":   LevelInfo,
	}
	for input, want := range tests {
		if got := ParseLevel(input); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	if ParseFormat("JSON") != FormatJSON {
		t.Error("expected JSON format")
	}
	if ParseFormat("console") != FormatText {
		t.Error("unknown formats should fall back to text")
	}
}

func TestDevelopmentConfigAddsSource(t *testing.T) {
	var buf bytes.Buffer
	cfg := DevelopmentConfig()
	cfg.Output = NewOutput(&buf)

	New(cfg).Debug("restoring session")

	out := buf.String()
	if !strings.Contains(out, "restoring session") {
		t.Fatalf("debug record missing: %q", out)
	}
	if !strings.Contains(out, "source=") {
		t.Errorf("expected source location, got %q", out)
	}
}

func TestDefaultConfigWritesWarnings(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Level != LevelWarn || cfg.AddSource {
		t.Errorf("unexpected default config: %+v", cfg)
	}
}
