package parser

import (
	"context"
	"fmt"
	"strings"

	"ats-evaluator/internal/tracing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"go.opentelemetry.io/otel/attribute"
)

// generate 发送 system + user 两条消息并返回助手回复内容
func generate(ctx context.Context, chat model.BaseChatModel, spanName, system, user string, temperature float32) (string, error) {
	ctx, span := tracing.StartSpan(ctx, spanName,
		attribute.Int("prompt.system_chars", len(system)),
		attribute.Int("prompt.user_chars", len(user)),
	)
	defer span.End()

	resp, err := chat.Generate(ctx, []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(user),
	}, model.WithTemperature(temperature))
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeExternal)
		return "", err
	}
	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		err := fmt.Errorf("empty completion")
		tracing.RecordError(span, err, tracing.ErrorTypeExternal)
		return "", err
	}
	span.SetAttributes(attribute.Int("completion.chars", len(resp.Content)))
	return resp.Content, nil
}
