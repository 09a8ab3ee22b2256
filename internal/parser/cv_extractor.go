package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"ats-evaluator/internal/logger"
	"ats-evaluator/internal/types"
	"ats-evaluator/pkg/utils"

	"github.com/cloudwego/eino/components/model"
	"github.com/rs/zerolog"
)

// LLMCVExtractor 把简历文本转换为结构化CV JSON
type LLMCVExtractor struct {
	chat        model.BaseChatModel
	temperature float32
	logger      *zerolog.Logger
}

type CVOption func(*LLMCVExtractor)

func WithCVTemperature(t float32) CVOption {
	return func(c *LLMCVExtractor) { c.temperature = t }
}

func WithCVLogger(l *zerolog.Logger) CVOption {
	return func(c *LLMCVExtractor) {
		if l != nil {
			c.logger = l
		}
	}
}

func NewLLMCVExtractor(chat model.BaseChatModel, opts ...CVOption) *LLMCVExtractor {
	c := &LLMCVExtractor{chat: chat, temperature: 0.7, logger: &logger.Logger}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ExtractCV 返回模型输出的原始JSON文本，由调用方用 DecodeCV 解析
func (c *LLMCVExtractor) ExtractCV(ctx context.Context, text string) (string, error) {
	raw, err := generate(ctx, c.chat, "llm.extract_cv", cvSystemPrompt, text, c.temperature)
	if err != nil {
		return "", fmt.Errorf("cv extraction call: %w", err)
	}
	return raw, nil
}

// DecodeCV 解析CV JSON。直接解析失败时依次尝试：
// 作为JSON字符串字面量反转义，以及从文本中提取JSON对象。
func DecodeCV(raw string) (types.CV, error) {
	var cv types.CV
	trimmed := strings.TrimSpace(raw)

	err := json.Unmarshal([]byte(trimmed), &cv)
	if err == nil {
		cv.Normalize()
		return cv, nil
	}
	firstErr := err

	if unquoted, uqErr := strconv.Unquote(trimmed); uqErr == nil {
		cv = types.CV{}
		if err := json.Unmarshal([]byte(unquoted), &cv); err == nil {
			cv.Normalize()
			return cv, nil
		}
		trimmed = unquoted
	}

	if payload := utils.ExtractJSON(trimmed); payload != "" {
		cv = types.CV{}
		if err := json.Unmarshal([]byte(utils.SanitizeJSON(payload)), &cv); err == nil {
			cv.Normalize()
			return cv, nil
		}
	}

	return types.CV{}, fmt.Errorf("decode cv json: %w", firstErr)
}
