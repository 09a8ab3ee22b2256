package parser

import (
	"context"
	"fmt"
	"strings"

	"ats-evaluator/internal/logger"

	"github.com/cloudwego/eino/components/model"
	"github.com/rs/zerolog"
)

// OutputFormat 评估响应的协议
type OutputFormat string

const (
	// OutputText '><' 分隔的叙述加 FINAL RATING 评分行
	OutputText OutputFormat = "text"
	// OutputJSON [{"name","score","narrative"}] 数组
	OutputJSON OutputFormat = "json"
)

// LLMSectionEvaluator 对一个类别下的全部候选人做一次批量评估
type LLMSectionEvaluator struct {
	chat        model.BaseChatModel
	temperature float32
	format      OutputFormat
	logger      *zerolog.Logger
}

type EvaluatorOption func(*LLMSectionEvaluator)

func WithEvaluatorTemperature(t float32) EvaluatorOption {
	return func(e *LLMSectionEvaluator) { e.temperature = t }
}

// WithOutputFormat 未知值按 OutputText 处理
func WithOutputFormat(f OutputFormat) EvaluatorOption {
	return func(e *LLMSectionEvaluator) {
		if f == OutputJSON {
			e.format = OutputJSON
			return
		}
		e.format = OutputText
	}
}

func WithEvaluatorLogger(l *zerolog.Logger) EvaluatorOption {
	return func(e *LLMSectionEvaluator) {
		if l != nil {
			e.logger = l
		}
	}
}

func NewLLMSectionEvaluator(chat model.BaseChatModel, opts ...EvaluatorOption) *LLMSectionEvaluator {
	e := &LLMSectionEvaluator{chat: chat, temperature: 0.7, format: OutputText, logger: &logger.Logger}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Format 返回当前使用的输出协议
func (e *LLMSectionEvaluator) Format() OutputFormat {
	return e.format
}

// Evaluate 返回模型的原始评估文本
func (e *LLMSectionEvaluator) Evaluate(ctx context.Context, category, categoryPrompt, blob, jobDescription string) (string, error) {
	raw, err := generate(ctx, e.chat, "llm.evaluate_"+category,
		BuildEvaluationSystemPrompt(categoryPrompt, e.format),
		BuildEvaluationUserMessage(category, blob, jobDescription),
		e.temperature,
	)
	if err != nil {
		return "", fmt.Errorf("%s evaluation call: %w", category, err)
	}
	e.logger.Debug().Str("category", category).Int("chars", len(raw)).Msg("收到类别评估响应")
	return raw, nil
}

// BuildEvaluationSystemPrompt 共享说明 + 类别框架 + 输出协议
func BuildEvaluationSystemPrompt(categoryPrompt string, format OutputFormat) string {
	outro := evaluationOutroText
	if format == OutputJSON {
		outro = evaluationOutroJSON
	}
	return evaluationIntro + "\n" + strings.TrimSpace(categoryPrompt) + "\n\n" + outro
}

// BuildEvaluationUserMessage 拼装用户消息
func BuildEvaluationUserMessage(category, blob, jobDescription string) string {
	return fmt.Sprintf("Job Description:\n%s\n\n**%s**:\n\n%s", jobDescription, category, blob)
}
