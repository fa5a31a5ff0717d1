package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestPreInitLoggerUsesConfiguredHandler(t *testing.T) {
	logger := L("download")

	var buf bytes.Buffer
	Init("text", "info", &buf)

	logger.Info("downloading", "url", "http://localhost:8080/depot")

	out := buf.String()
	if !strings.Contains(out, "msg=downloading") {
		t.Fatalf("expected plain downloading message, got: %s", out)
	}
	if !strings.Contains(out, "component=download") {
		t.Fatalf("expected component field, got: %s", out)
	}
	if !strings.Contains(out, "url=http://localhost:8080/depot") {
		t.Fatalf("expected url field, got: %s", out)
	}
}

func TestPreInitLoggerRespectsConfiguredLevel(t *testing.T) {
	logger := L("watch")

	var buf bytes.Buffer
	Init("text", "warn", &buf)

	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("info log should be filtered at warn level: %s", out)
	}
	if !strings.Contains(out, "shown") {
		t.Fatalf("warn log should be emitted: %s", out)
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	Init("json", "info", &buf)
	t.Cleanup(func() { Init("text", "info", nil) })

	L("download").Info("done", "bytes", 42)

	out := buf.String()
	if !strings.Contains(out, `"msg":"done"`) {
		t.Fatalf("expected JSON output, got: %s", out)
	}
	if !strings.Contains(out, `"component":"download"`) {
		t.Fatalf("expected component field, got: %s", out)
	}
}

func TestParseLevelDefaultsToInfo(t *testing.T) {
	if got := parseLevel("nonsense"); got.String() != "INFO" {
		t.Fatalf("unknown level should default to info, got %s", got)
	}
	if got := parseLevel("  WARNING "); got.String() != "WARN" {
		t.Fatalf("warning alias should parse, got %s", got)
	}
}
