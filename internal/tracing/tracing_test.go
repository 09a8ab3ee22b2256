package tracing

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", TruncateString("short", 10))
	assert.Equal(t, "ab", TruncateString("abcdef", 2))
	assert.Equal(t, "abc...hij", TruncateString("abcdefghij", 9))
	assert.Equal(t, "简...容", TruncateString("简历文本内容", 5))
}

func TestMaskPII(t *testing.T) {
	assert.Equal(t, "", MaskPII(""))
	assert.Equal(t, "a", MaskPII("a"))
	assert.Equal(t, "J*** D**", MaskPII("Jane  Doe"))
	assert.Equal(t, "j***************", MaskPII("jane@example.com"))
	assert.Equal(t, "张*", MaskPII("张三"))
}

func TestCandidateAttribute(t *testing.T) {
	kv := Candidate("John Smith")
	assert.Equal(t, AttrCandidate, kv.Key)
	assert.Equal(t, "J*** S****", kv.Value.AsString())
}

func TestSafeRedisKey(t *testing.T) {
	key := "ats:jd:vector:" + strings.Repeat("a", 64) + ":text-embedding-3-small"
	assert.Len(t, []rune(SafeRedisKey(key)), 99)
	assert.Equal(t, "ats:jd:keywords:abc", SafeRedisKey("ats:jd:keywords:abc"))
}

func TestRecordHTTPError(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	_, span := tp.Tracer("test").Start(context.Background(), "call")

	RecordHTTPError(span, errors.New("rate limited"), 429)
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, codes.Error, ended[0].Status().Code)

	attrs := map[string]string{}
	for _, kv := range ended[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "http", attrs["error.type"])
	assert.Equal(t, "true", attrs["error.retryable"])
	assert.Equal(t, "429", attrs["http.status_code"])
}

func TestRecordErrorNilSafe(t *testing.T) {
	assert.NotPanics(t, func() {
		RecordError(nil, errors.New("x"), ErrorTypeInternal)
	})
}

func TestInitTracerDisabled(t *testing.T) {
	shutdown, err := InitTracer(context.Background(), ProviderConfig{})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInitTracerRequiresEndpoint(t *testing.T) {
	_, err := InitTracer(context.Background(), ProviderConfig{Enabled: true})
	assert.Error(t, err)
}
