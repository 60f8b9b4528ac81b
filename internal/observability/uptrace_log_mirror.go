package observability

import (
	"context"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/predictions-league/internal/platform/logging"
	otellog "go.opentelemetry.io/otel/log"
	otelglobal "go.opentelemetry.io/otel/log/global"
	"go.uber.org/zap/zapcore"
)

const (
	logMirrorScope = "predictions-league/internal/platform/logging"

	// Nested values are flattened to strings past this depth.
	maxLogValueDepth = 3
)

// newLogMirror builds the logging mirror that re-emits every record through
// the global OpenTelemetry log provider.
func newLogMirror(serviceVersion string) logging.MirrorFunc {
	emitter := otelglobal.Logger(
		logMirrorScope,
		otellog.WithInstrumentationVersion(serviceVersion),
	)

	return func(ctx context.Context, level logging.Level, msg string, args ...any) {
		if ctx == nil {
			ctx = context.Background()
		}

		severity := otelSeverity(level)
		if !emitter.Enabled(ctx, otellog.EnabledParameters{
			Severity:  severity,
			EventName: msg,
		}) {
			return
		}

		now := time.Now().UTC()
		record := otellog.Record{}
		record.SetTimestamp(now)
		record.SetObservedTimestamp(now)
		record.SetSeverity(severity)
		record.SetSeverityText(strings.ToUpper(level.String()))
		record.SetEventName(msg)
		record.SetBody(otellog.StringValue(msg))
		if attrs := logAttributes(args); len(attrs) > 0 {
			record.AddAttributes(attrs...)
		}

		emitter.Emit(ctx, record)
	}
}

// logAttributes converts alternating key/value arguments to log attributes.
// Missing or non-string keys become arg_<n>, a dangling key becomes an empty
// attribute.
func logAttributes(args []any) []otellog.KeyValue {
	if len(args) == 0 {
		return nil
	}

	attrs := make([]otellog.KeyValue, 0, (len(args)+1)/2)
	for n := 0; len(args) > 0; n++ {
		key, ok := args[0].(string)
		if !ok || strings.TrimSpace(key) == "" {
			key = fmt.Sprintf("arg_%d", n)
		}
		if len(args) == 1 {
			attrs = append(attrs, otellog.Empty(key))
			break
		}

		attrs = append(attrs, otellog.KeyValue{Key: key, Value: logValue(args[1], 0)})
		args = args[2:]
	}
	return attrs
}

func otelSeverity(level zapcore.Level) otellog.Severity {
	switch {
	case level >= zapcore.DPanicLevel:
		return otellog.SeverityFatal
	case level >= zapcore.ErrorLevel:
		return otellog.SeverityError
	case level >= zapcore.WarnLevel:
		return otellog.SeverityWarn
	case level >= zapcore.InfoLevel:
		return otellog.SeverityInfo
	default:
		return otellog.SeverityDebug
	}
}

func logValue(value any, depth int) otellog.Value {
	if depth >= maxLogValueDepth {
		return otellog.StringValue(fmt.Sprint(value))
	}

	switch v := value.(type) {
	case nil:
		return otellog.Value{}
	case string:
		return otellog.StringValue(v)
	case bool:
		return otellog.BoolValue(v)
	case int, int8, int16, int32, int64:
		return otellog.Int64Value(reflect.ValueOf(v).Int())
	case uint, uint8, uint16, uint32, uint64:
		u := reflect.ValueOf(v).Uint()
		if u > math.MaxInt64 {
			return otellog.StringValue(strconv.FormatUint(u, 10))
		}
		return otellog.Int64Value(int64(u))
	case float32:
		return otellog.Float64Value(float64(v))
	case float64:
		return otellog.Float64Value(v)
	case []byte:
		return otellog.BytesValue(append([]byte(nil), v...))
	case time.Time:
		return otellog.StringValue(v.UTC().Format(time.RFC3339Nano))
	case time.Duration:
		return otellog.StringValue(v.String())
	case error:
		return otellog.StringValue(v.Error())
	case fmt.Stringer:
		return otellog.StringValue(v.String())
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return otellog.Value{}
		}
		return logValue(rv.Elem().Interface(), depth+1)
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
			return otellog.BytesValue(append([]byte(nil), rv.Bytes()...))
		}
		items := make([]otellog.Value, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			items = append(items, logValue(rv.Index(i).Interface(), depth+1))
		}
		return otellog.SliceValue(items...)
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return otellog.StringValue(fmt.Sprint(value))
		}
		names := make([]string, 0, rv.Len())
		for _, k := range rv.MapKeys() {
			names = append(names, k.String())
		}
		sort.Strings(names)
		kvs := make([]otellog.KeyValue, 0, len(names))
		for _, name := range names {
			kvs = append(kvs, otellog.KeyValue{
				Key:   name,
				Value: logValue(rv.MapIndex(reflect.ValueOf(name)).Interface(), depth+1),
			})
		}
		return otellog.MapValue(kvs...)
	default:
		return otellog.StringValue(fmt.Sprint(value))
	}
}
