package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func bufferedLogger() (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return &Logger{Logger: slog.New(slog.NewTextHandler(&buf, nil))}, &buf
}

func TestWithContext_AddsCorrelationIDs(t *testing.T) {
	log, buf := bufferedLogger()

	ctx := context.WithValue(context.Background(), RequestIDKey, "req-123")
	ctx = context.WithValue(ctx, RunIDKey, "run-456")

	log.WithContext(ctx).Info("event")

	out := buf.String()
	if !strings.Contains(out, "request_id=req-123") {
		t.Fatalf("expected request_id in output, got %s", out)
	}
	if !strings.Contains(out, "run_id=run-456") {
		t.Fatalf("expected run_id in output, got %s", out)
	}
}

func TestWithContext_EmptyContextIsPassthrough(t *testing.T) {
	log, buf := bufferedLogger()

	log.WithContext(context.Background()).Info("event")

	out := buf.String()
	if strings.Contains(out, "request_id") || strings.Contains(out, "run_id") {
		t.Fatalf("expected no correlation fields, got %s", out)
	}
}

func TestWithHome_AddsHomeID(t *testing.T) {
	log, buf := bufferedLogger()

	log.WithHome("home-789").Info("event")

	if !strings.Contains(buf.String(), "home_id=home-789") {
		t.Fatalf("expected home_id in output, got %s", buf.String())
	}
}
