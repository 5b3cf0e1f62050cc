package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, ln := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if ln == "" {
			continue
		}
		m := map[string]any{}
		if err := json.Unmarshal([]byte(ln), &m); err != nil {
			t.Fatalf("bad json line %q: %v", ln, err)
		}
		out = append(out, m)
	}
	return out
}

func TestSlog_ContextFieldsAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	zl := Build(Config{Level: "debug", Service: "geometry-operators"}, &buf)
	l := NewSlog(&zl).With("node", 2)

	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithOperator(ctx, "Buffer")
	ctx = WithTransport(ctx, "grpc")
	l.InfoContext(ctx, "evaluated", "items", 3, "took", 1500*time.Microsecond, "err", errors.New("boom"))

	lines := decodeLines(t, &buf)
	if len(lines) != 1 {
		t.Fatalf("lines=%d want 1", len(lines))
	}
	got := lines[0]
	want := map[string]any{
		"msg":        "evaluated",
		"level":      "info",
		"service":    "geometry-operators",
		"request_id": "req-1",
		"operator":   "Buffer",
		"transport":  "grpc",
		"node":       float64(2),
		"items":      float64(3),
		"took":       1.5,
		"err":        "boom",
	}
	for k, v := range want {
		if got[k] != v {
			t.Fatalf("%s=%v want %v (line %v)", k, got[k], v, got)
		}
	}
}

func TestSlog_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	zl := Build(Config{Level: "warn"}, &buf)
	l := NewSlog(&zl)

	l.Info("dropped")
	l.Warn("kept")
	if l.Enabled(context.Background(), -4) {
		t.Fatalf("debug should be disabled at warn level")
	}

	lines := decodeLines(t, &buf)
	if len(lines) != 1 || lines[0]["msg"] != "kept" {
		t.Fatalf("unexpected lines: %v", lines)
	}
}

func TestSlog_GroupsFlatten(t *testing.T) {
	var buf bytes.Buffer
	zl := Build(Config{}, &buf)
	NewSlog(&zl).WithGroup("sr").Info("resolved", "wkid", 4326)

	lines := decodeLines(t, &buf)
	if len(lines) != 1 || lines[0]["sr.wkid"] != float64(4326) {
		t.Fatalf("unexpected lines: %v", lines)
	}
}

func TestWithRequestID_GeneratesWhenEmpty(t *testing.T) {
	ctx := WithRequestID(context.Background(), "")
	if id := RequestID(ctx); len(id) != 16 {
		t.Fatalf("generated id %q should be 16 hex chars", id)
	}
}
