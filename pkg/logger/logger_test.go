package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
)

func TestContextIDsAreLogged(t *testing.T) {
	var buf bytes.Buffer
	prev := globalLogger
	globalLogger = New(&buf, Config{Level: "debug", Format: "json"})
	defer func() { globalLogger = prev }()

	ctx := ContextWithIDs(context.Background(), "req-1", "trace-1", "")
	Info(ctx, "simulation completed", "command", "option")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("invalid json %q: %v", buf.String(), err)
	}
	if entry["request_id"] != "req-1" || entry["trace_id"] != "trace-1" || entry["command"] != "option" {
		t.Errorf("unexpected entry: %v", entry)
	}
	if _, ok := entry["span_id"]; ok {
		t.Error("empty span_id should be omitted")
	}
	if RequestID(ctx) != "req-1" {
		t.Errorf("RequestID = %q", RequestID(ctx))
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	prev := globalLogger
	globalLogger = New(&buf, Config{Level: "warn", Format: "text"})
	defer func() { globalLogger = prev }()

	Info(context.Background(), "hidden")
	if buf.Len() != 0 {
		t.Errorf("info logged at warn level: %q", buf.String())
	}
	Warn(context.Background(), "shown")
	if !bytes.Contains(buf.Bytes(), []byte("shown")) {
		t.Errorf("warn not logged: %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]string{"DEBUG": "DEBUG", "warn": "WARN", "error": "ERROR", "bogus": "INFO"} {
		if got := parseLevel(in).String(); got != want {
			t.Errorf("parseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}
