package logging

import (
	"strings"
	"testing"
)

func TestOrNopHandlesNil(t *testing.T) {
	if logger := OrNop(nil); logger == nil {
		t.Fatal("OrNop(nil) returned nil")
	}
	var typed *FileLogger
	if logger := OrNop(typed); logger == nil {
		t.Fatal("OrNop(nil pointer) returned nil")
	}
	// Must not panic.
	OrNop(nil).Debug("ignored %d", 1)
}

func TestMultiFlattensAndSkipsNil(t *testing.T) {
	var calls []string
	a := &recordingLogger{sink: &calls, tag: "a"}
	b := &recordingLogger{sink: &calls, tag: "b"}

	logger := Multi(nil, Multi(a), b)
	logger.Info("hello")

	if len(calls) != 2 || calls[0] != "a" || calls[1] != "b" {
		t.Fatalf("unexpected call order: %v", calls)
	}
}

func TestSanitizeLogLine(t *testing.T) {
	cases := []struct {
		name string
		in   string
		leak string
	}{
		{"bearer header", `Authorization: Bearer sk-abc123secret`, "sk-abc123secret"},
		{"api key field", `{"api_key": "supersecretvalue"}`, "supersecretvalue"},
		{"password field", `password=hunter2sequel`, "hunter2sequel"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := sanitizeLogLine(tc.in)
			if strings.Contains(out, tc.leak) {
				t.Fatalf("secret leaked through sanitizer: %q", out)
			}
			if !strings.Contains(out, Placeholder) {
				t.Fatalf("expected placeholder in %q", out)
			}
		})
	}
}

type recordingLogger struct {
	sink *[]string
	tag  string
}

func (r *recordingLogger) Debug(string, ...any) { *r.sink = append(*r.sink, r.tag) }
func (r *recordingLogger) Info(string, ...any)  { *r.sink = append(*r.sink, r.tag) }
func (r *recordingLogger) Warn(string, ...any)  { *r.sink = append(*r.sink, r.tag) }
func (r *recordingLogger) Error(string, ...any) { *r.sink = append(*r.sink, r.tag) }
