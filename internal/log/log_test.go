package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newBufferLogger(buf *bytes.Buffer) *Logger {
	return New(Config{Level: slog.LevelDebug, Component: ComponentApp, Output: buf})
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"loud":    slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLoggerTagsComponent(t *testing.T) {
	var buf bytes.Buffer
	l := newBufferLogger(&buf).WithComponent(ComponentLedger)
	l.Info("hello", "k", "v")

	out := buf.String()
	if !strings.Contains(out, "component=ledger") || !strings.Contains(out, "k=v") {
		t.Fatalf("unexpected output %q", out)
	}
	if strings.Count(out, "component=") != 1 {
		t.Fatalf("component should be logged once, got %q", out)
	}
}

func TestWithRecordSkipsEmpty(t *testing.T) {
	f := NewFields().WithRecord("business:x:1", "delivery", "d1", "", "")
	if _, ok := f[FieldFlat]; ok {
		t.Error("empty flat should be omitted")
	}
	if f[FieldRecordID] != "d1" || f[FieldBusiness] != "business:x:1" {
		t.Errorf("unexpected fields %v", f)
	}
}

func TestFromContextDefault(t *testing.T) {
	if l := FromContext(context.Background()); l == nil || l.Component() != "unknown" {
		t.Fatalf("expected fallback logger, got %+v", l)
	}
}

func TestMiddlewareChain(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf)

	var seen *Logger
	h := Middleware(logger)(RequestIDMiddleware(AccessLog(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))))

	req := httptest.NewRequest(http.MethodGet, "/api/dues?x=1", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if seen == nil {
		t.Fatal("handler did not receive a logger")
	}
	if rr.Header().Get(RequestIDHeader) != "req-123" {
		t.Errorf("request id not echoed")
	}
	out := buf.String()
	for _, want := range []string{"request_id=req-123", "status_code=418", "level=WARN", "path=/api/dues"} {
		if !strings.Contains(out, want) {
			t.Errorf("access log missing %q: %s", want, out)
		}
	}
}

func TestRequestIDGenerated(t *testing.T) {
	rr := httptest.NewRecorder()
	RequestIDMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})).
		ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if len(rr.Header().Get(RequestIDHeader)) != 36 {
		t.Errorf("expected generated uuid, got %q", rr.Header().Get(RequestIDHeader))
	}
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:5555"
	if got := ClientIP(r); got != "10.0.0.1" {
		t.Errorf("ClientIP() = %q", got)
	}
	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	if got := ClientIP(r); got != "203.0.113.9" {
		t.Errorf("ClientIP() = %q", got)
	}
}

func TestLogError(t *testing.T) {
	var buf bytes.Buffer
	NewStructuredLogger(newBufferLogger(&buf)).
		LogError(context.Background(), "save failed", errors.New("disk full"), ComponentStorage, OpCreate, nil)
	if !strings.Contains(buf.String(), `error="disk full"`) {
		t.Errorf("unexpected output %q", buf.String())
	}
}
