package app

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestLogHandlerFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(&logHandler{w: &buf, opID: "20240115T103000Z"})

	logger.Info("project added", "id", 7, "name", "web-app")

	line := strings.TrimRight(buf.String(), "\n")
	fields := strings.Split(line, "\t")
	if len(fields) != 6 {
		t.Fatalf("got %d tab-separated fields, want 6: %q", len(fields), line)
	}
	if fields[1] != "INFO" {
		t.Errorf("level field = %q, want INFO", fields[1])
	}
	if fields[2] != "20240115T103000Z" {
		t.Errorf("op id field = %q", fields[2])
	}
	if fields[3] != "project added" {
		t.Errorf("message field = %q", fields[3])
	}
	if fields[4] != "id=7" || fields[5] != "name=web-app" {
		t.Errorf("attr fields = %q %q, want id=7 name=web-app", fields[4], fields[5])
	}
}

func TestLogHandlerWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(&logHandler{w: &buf, opID: "op"}).With("project", 3)

	logger.Warn("login failed", "username", "nobody")

	line := buf.String()
	if !strings.Contains(line, "project=3") {
		t.Errorf("pre-set attr missing from %q", line)
	}
	if !strings.Contains(line, "username=nobody") {
		t.Errorf("record attr missing from %q", line)
	}
	if !strings.Contains(line, "WARN") {
		t.Errorf("level missing from %q", line)
	}
}
