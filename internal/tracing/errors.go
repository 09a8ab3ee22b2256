package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ErrorType span 上 error.type 属性的取值
type ErrorType string

const (
	ErrorTypeHTTP       ErrorType = "http"
	ErrorTypeDB         ErrorType = "db"
	ErrorTypeRedis      ErrorType = "redis"
	ErrorTypeStorage    ErrorType = "object_storage"
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeInternal   ErrorType = "internal"
	ErrorTypeExternal   ErrorType = "external_system"
	ErrorTypeParse      ErrorType = "parse"
)

// RecordError 把 span 标记为失败，nil span 或 nil err 时不做任何事
func RecordError(span trace.Span, err error, errorType ErrorType, attrs ...attribute.KeyValue) {
	if span == nil || err == nil {
		return
	}
	msg := TruncateString(err.Error(), DefaultMaxLength)
	span.RecordError(err)
	span.SetAttributes(
		attribute.String("error.type", string(errorType)),
		attribute.String("error.message", msg),
	)
	span.SetAttributes(attrs...)
	span.SetStatus(codes.Error, msg)
}

// RecordHTTPError LLM 接口返回非 2xx 时使用，429 和 5xx 标记为可重试
func RecordHTTPError(span trace.Span, err error, statusCode int) {
	RecordError(span, err, ErrorTypeHTTP,
		attribute.Int("http.status_code", statusCode),
		attribute.Bool("error.retryable", statusCode == 429 || statusCode >= 500),
	)
}
