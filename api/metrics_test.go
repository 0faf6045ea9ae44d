package api

import (
	"context"
	"errors"
	"net/http"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/alexalex89/task-management/domain"
)

func setupTestTracer(t *testing.T) (*sdktrace.TracerProvider, *tracetest.InMemoryExporter) {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exporter)),
	)
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)

	t.Cleanup(func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			t.Logf("shutdown tracer provider: %v", err)
		}
		otel.SetTracerProvider(prev)
	})
	return tp, exporter
}

func attributesToMap(attrs []attribute.KeyValue) map[string]any {
	out := make(map[string]any, len(attrs))
	for _, kv := range attrs {
		out[string(kv.Key)] = kv.Value.AsInterface()
	}
	return out
}

func lastObservability(t *testing.T, hook *test.Hook) *log.Entry {
	t.Helper()
	entries := hook.AllEntries()
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].Message == observabilityMsg {
			return entries[i]
		}
	}
	t.Fatalf("no %s entry logged", observabilityMsg)
	return nil
}

func TestListRequestProducesSpanAndEvent(t *testing.T) {
	tp, exporter := setupTestTracer(t)
	repo := &mockRepo{rows: []domain.TaskRow{{ID: 1, Title: "a", Category: domain.Inbox}}}
	e, hook := newTestServer(t, repo, Options{})

	if rec := do(e, http.MethodGet, "/api/tasks", ""); rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if err := tp.ForceFlush(context.Background()); err != nil {
		t.Fatalf("force flush spans: %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	span := spans[0]
	if span.Name != requestSpanName {
		t.Fatalf("unexpected span name: %s", span.Name)
	}
	attrs := attributesToMap(span.Attributes)
	if attrs["http.route"] != "/api/tasks" {
		t.Fatalf("unexpected route attribute: %#v", attrs["http.route"])
	}
	if code, ok := attrs["http.status_code"].(int64); !ok || code != http.StatusOK {
		t.Fatalf("unexpected status attribute: %#v", attrs["http.status_code"])
	}
	if n, ok := attrs["gtd.request.tasks_returned"].(int64); !ok || n != 1 {
		t.Fatalf("unexpected tasks_returned: %#v", attrs["gtd.request.tasks_returned"])
	}
	if span.Status.Code != codes.Ok {
		t.Fatalf("expected span status Ok, got %v", span.Status.Code)
	}
	var found bool
	for _, ev := range span.Events {
		if ev.Name == observabilityMsg {
			found = true
			if got := attributesToMap(ev.Attributes)["severity_text"]; got != "INFO" {
				t.Fatalf("unexpected event severity: %#v", got)
			}
		}
	}
	if !found {
		t.Fatalf("expected %s span event, got %#v", observabilityMsg, span.Events)
	}

	entry := lastObservability(t, hook)
	if entry.Data["event.name"] != requestEventName {
		t.Fatalf("unexpected event name: %v", entry.Data["event.name"])
	}
	if entry.Data["severity_number"] != 9 {
		t.Fatalf("unexpected severity number: %v", entry.Data["severity_number"])
	}
	if traceID, ok := entry.Data["trace_id"].(string); !ok || traceID != span.SpanContext.TraceID().String() {
		t.Fatalf("trace id not recorded: %#v", entry.Data["trace_id"])
	}
}

func TestRepositoryErrorMarksSpan(t *testing.T) {
	tp, exporter := setupTestTracer(t)
	e, hook := newTestServer(t, &mockRepo{err: errors.New("db down")}, Options{})

	if rec := do(e, http.MethodGet, "/api/stats", ""); rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if err := tp.ForceFlush(context.Background()); err != nil {
		t.Fatalf("force flush spans: %v", err)
	}
	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected 1 span, got %d", len(spans))
	}
	if spans[0].Status.Code != codes.Error {
		t.Fatalf("expected error status, got %v", spans[0].Status.Code)
	}
	if stage := attributesToMap(spans[0].Attributes)["gtd.request.error_stage"]; stage != "repository" {
		t.Fatalf("unexpected error stage: %#v", stage)
	}
	if entry := lastObservability(t, hook); entry.Level != log.ErrorLevel {
		t.Fatalf("expected error level, got %v", entry.Level)
	}
}

func TestSeverityForStatus(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		err        error
		wantText   string
		wantNumber int
	}{
		{name: "ok", status: http.StatusOK, wantText: "INFO", wantNumber: 9},
		{name: "warn", status: http.StatusNotFound, wantText: "WARN", wantNumber: 13},
		{name: "error", status: http.StatusInternalServerError, wantText: "ERROR", wantNumber: 17},
		{name: "errorFromErr", status: 0, err: errors.New("boom"), wantText: "ERROR", wantNumber: 17},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotText, gotNumber := severityForStatus(tt.status, tt.err)
			if gotText != tt.wantText || gotNumber != tt.wantNumber {
				t.Fatalf("severityForStatus(%d, %v) = %s/%d, want %s/%d", tt.status, tt.err, gotText, gotNumber, tt.wantText, tt.wantNumber)
			}
		})
	}
}
