package llm

import (
	"context"

	"ats-evaluator/pkg/ratelimit"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// RateLimitedChatModel 对LLM调用进行限流的代理，不做重试，重试由调用方的策略决定
type RateLimitedChatModel struct {
	original    model.ToolCallingChatModel
	rateLimiter *ratelimit.TokenBucket
}

// NewRateLimitedChatModel 创建限流代理，qpm<=0 时不限流直接返回原模型
func NewRateLimitedChatModel(original model.ToolCallingChatModel, qpm int) model.ToolCallingChatModel {
	if qpm <= 0 {
		return original
	}
	return &RateLimitedChatModel{
		original:    original,
		rateLimiter: ratelimit.NewTokenBucket(qpm, qpm/2), // 容量设为QPM的一半，允许一定的突发流量
	}
}

func (rl *RateLimitedChatModel) Generate(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.Message, error) {
	if err := rl.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}
	return rl.original.Generate(ctx, messages, options...)
}

func (rl *RateLimitedChatModel) Stream(ctx context.Context, messages []*schema.Message, options ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	if err := rl.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}
	return rl.original.Stream(ctx, messages, options...)
}

// WithTools 新代理与原代理共享同一个令牌桶
func (rl *RateLimitedChatModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	newModel, err := rl.original.WithTools(tools)
	if err != nil {
		return nil, err
	}
	return &RateLimitedChatModel{original: newModel, rateLimiter: rl.rateLimiter}, nil
}

// RateLimitedEmbedder 对向量化调用限流
type RateLimitedEmbedder struct {
	original    embedding.Embedder
	rateLimiter *ratelimit.TokenBucket
}

func NewRateLimitedEmbedder(original embedding.Embedder, qpm int) embedding.Embedder {
	if qpm <= 0 {
		return original
	}
	return &RateLimitedEmbedder{original: original, rateLimiter: ratelimit.NewTokenBucket(qpm, qpm/2)}
}

func (rl *RateLimitedEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	if err := rl.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}
	return rl.original.EmbedStrings(ctx, texts, opts...)
}

// ModelName 透传底层模型名称
func (rl *RateLimitedEmbedder) ModelName() string {
	if named, ok := rl.original.(interface{ ModelName() string }); ok {
		return named.ModelName()
	}
	return ""
}
