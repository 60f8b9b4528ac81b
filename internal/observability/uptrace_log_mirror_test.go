package observability

import (
	"errors"
	"testing"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	"go.uber.org/zap/zapcore"
)

func TestLogAttributes(t *testing.T) {
	attrs := logAttributes([]any{"fixture_set_id", "fs-2025-gw3", "attempt", 2, "payload"})
	if len(attrs) != 3 {
		t.Fatalf("expected 3 attributes, got %d", len(attrs))
	}
	if attrs[0].Key != "fixture_set_id" || attrs[0].Value.AsString() != "fs-2025-gw3" {
		t.Fatalf("unexpected fixture_set_id attribute: %+v", attrs[0])
	}
	if attrs[1].Key != "attempt" || attrs[1].Value.AsInt64() != 2 {
		t.Fatalf("unexpected attempt attribute: %+v", attrs[1])
	}
	if attrs[2].Key != "payload" || attrs[2].Value.Kind() != otellog.KindEmpty {
		t.Fatalf("unexpected payload attribute: %+v", attrs[2])
	}
}

func TestLogAttributes_NonStringKeyFallsBack(t *testing.T) {
	attrs := logAttributes([]any{42, "value", "later", true})
	if len(attrs) != 2 {
		t.Fatalf("expected 2 attributes, got %d", len(attrs))
	}
	if attrs[0].Key != "arg_0" {
		t.Fatalf("expected arg_0 fallback key, got %q", attrs[0].Key)
	}
	if attrs[1].Key != "later" {
		t.Fatalf("expected later key, got %q", attrs[1].Key)
	}
}

func TestLogValue_Map(t *testing.T) {
	v := logValue(map[string]any{
		"exact": 3,
		"won":   true,
	}, 0)
	if v.Kind() != otellog.KindMap {
		t.Fatalf("expected map value, got %s", v.Kind())
	}
	items := v.AsMap()
	if len(items) != 2 {
		t.Fatalf("expected 2 map items, got %d", len(items))
	}
	if items[0].Key != "exact" || items[1].Key != "won" {
		t.Fatalf("expected sorted keys, got %q then %q", items[0].Key, items[1].Key)
	}
}

func TestLogValue_CommonScalars(t *testing.T) {
	if got := logValue(errors.New("feed down"), 0); got.AsString() != "feed down" {
		t.Fatalf("error value = %q", got.AsString())
	}
	if got := logValue(90 * time.Minute, 0); got.AsString() != "1h30m0s" {
		t.Fatalf("duration value = %q", got.AsString())
	}
	if got := logValue(uint64(7), 0); got.AsInt64() != 7 {
		t.Fatalf("uint value = %d", got.AsInt64())
	}
}

func TestLogValue_DeepValueFlattens(t *testing.T) {
	deep := map[string]any{"a": map[string]any{"b": map[string]any{"c": map[string]any{"d": 1}}}}
	v := logValue(deep, 0)
	if v.Kind() != otellog.KindMap {
		t.Fatalf("expected map at top level, got %s", v.Kind())
	}
}

func TestOTelSeverity(t *testing.T) {
	cases := []struct {
		level zapcore.Level
		want  otellog.Severity
	}{
		{zapcore.DebugLevel, otellog.SeverityDebug},
		{zapcore.InfoLevel, otellog.SeverityInfo},
		{zapcore.WarnLevel, otellog.SeverityWarn},
		{zapcore.ErrorLevel, otellog.SeverityError},
		{zapcore.DPanicLevel, otellog.SeverityFatal},
		{zapcore.FatalLevel, otellog.SeverityFatal},
	}
	for _, tc := range cases {
		if got := otelSeverity(tc.level); got != tc.want {
			t.Errorf("otelSeverity(%s) = %v, want %v", tc.level, got, tc.want)
		}
	}
}
