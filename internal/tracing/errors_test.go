package tracing

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

// recordSpan 执行fn并返回录制到的span
func recordSpan(t *testing.T, fn func(span trace.Span)) sdktrace.ReadOnlySpan {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	_, span := tp.Tracer("test").Start(context.Background(), "op")
	fn(span)
	span.End()

	ended := sr.Ended()
	require.Len(t, ended, 1)
	return ended[0]
}

func attrValue(attrs []attribute.KeyValue, key string) (string, bool) {
	for _, kv := range attrs {
		if string(kv.Key) == key {
			return kv.Value.Emit(), true
		}
	}
	return "", false
}

func TestRecordError(t *testing.T) {
	s := recordSpan(t, func(span trace.Span) {
		RecordError(span, fmt.Errorf("连接超时"), ErrorTypeRedis)
	})

	assert.Equal(t, codes.Error, s.Status().Code)
	typ, ok := attrValue(s.Attributes(), "error.type")
	require.True(t, ok)
	assert.Equal(t, string(ErrorTypeRedis), typ)
}

// nil参数不产生任何记录
func TestRecordErrorNilSafe(t *testing.T) {
	s := recordSpan(t, func(span trace.Span) {
		RecordError(span, nil, ErrorTypeDB)
		RecordError(nil, fmt.Errorf("x"), ErrorTypeDB)
	})
	assert.NotEqual(t, codes.Error, s.Status().Code)
}

func TestRecordErrorWithInfo(t *testing.T) {
	s := recordSpan(t, func(span trace.Span) {
		RecordErrorWithInfo(span, fmt.Errorf("对象不存在"), ErrorTypeMinIO,
			attribute.String("object.key", "resume/abc/original.pdf"))
	})

	assert.Equal(t, codes.Error, s.Status().Code)
	key, ok := attrValue(s.Attributes(), "object.key")
	require.True(t, ok)
	assert.Equal(t, "resume/abc/original.pdf", key)
}

// 按HTTP状态码分类错误
func TestRecordHTTPError(t *testing.T) {
	s := recordSpan(t, func(span trace.Span) {
		RecordHTTPError(span, fmt.Errorf("内部错误"), 500)
	})
	cat, ok := attrValue(s.Attributes(), "error.category")
	require.True(t, ok)
	assert.Equal(t, "server_error", cat)

	s = recordSpan(t, func(span trace.Span) {
		RecordHTTPError(span, fmt.Errorf("参数错误"), 400)
	})
	cat, _ = attrValue(s.Attributes(), "error.category")
	assert.Equal(t, "client_error", cat)
}

func TestRecordRabbitMQNack(t *testing.T) {
	s := recordSpan(t, func(span trace.Span) {
		RecordRabbitMQNack(span, "msg-1", "handler rejected")
	})

	assert.Equal(t, codes.Error, s.Status().Code)
	assert.Equal(t, "handler rejected", s.Status().Description)
	typ, _ := attrValue(s.Attributes(), "messaging.error_type")
	assert.Equal(t, "nack", typ)
}

func TestRecordRabbitMQTimeout(t *testing.T) {
	s := recordSpan(t, func(span trace.Span) {
		RecordRabbitMQTimeout(span, "msg-2", "5s")
	})

	assert.Equal(t, codes.Error, s.Status().Code)
	assert.Contains(t, s.Status().Description, "5s")
	typ, _ := attrValue(s.Attributes(), "messaging.error_type")
	assert.Equal(t, "timeout", typ)
}
