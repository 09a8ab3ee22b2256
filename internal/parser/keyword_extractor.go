package parser

import (
	"context"
	"encoding/json"
	"fmt"

	"ats-evaluator/internal/logger"
	"ats-evaluator/internal/types"
	"ats-evaluator/pkg/utils"

	"github.com/cloudwego/eino/components/model"
	"github.com/rs/zerolog"
)

// LLMKeywordExtractor 一次LLM调用从JD中抽取关键词分组
type LLMKeywordExtractor struct {
	chat        model.BaseChatModel
	temperature float32
	logger      *zerolog.Logger
}

// KeywordOption LLMKeywordExtractor 的配置选项
type KeywordOption func(*LLMKeywordExtractor)

func WithKeywordTemperature(t float32) KeywordOption {
	return func(k *LLMKeywordExtractor) { k.temperature = t }
}

func WithKeywordLogger(l *zerolog.Logger) KeywordOption {
	return func(k *LLMKeywordExtractor) {
		if l != nil {
			k.logger = l
		}
	}
}

func NewLLMKeywordExtractor(chat model.BaseChatModel, opts ...KeywordOption) *LLMKeywordExtractor {
	k := &LLMKeywordExtractor{chat: chat, temperature: 0.7, logger: &logger.Logger}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// ExtractKeywords 返回去重后的关键词分组，响应无法解析为JSON时返回错误
func (k *LLMKeywordExtractor) ExtractKeywords(ctx context.Context, jobDescription string) (types.KeywordGroups, error) {
	raw, err := generate(ctx, k.chat, "llm.extract_keywords", keywordSystemPrompt, jobDescription, k.temperature)
	if err != nil {
		return types.KeywordGroups{}, fmt.Errorf("keyword extraction call: %w", err)
	}

	groups, err := ParseKeywordGroups(raw)
	if err != nil {
		k.logger.Warn().Err(err).Str("response", utils.Truncate(raw, 200)).Msg("关键词JSON解析失败")
		return types.KeywordGroups{}, err
	}

	k.logger.Debug().
		Int("core", len(groups.CoreRequirements)).
		Int("preferred", len(groups.PreferredQualifications)).
		Int("nice_to_have", len(groups.NiceToHave)).
		Msg("关键词抽取完成")
	return groups, nil
}

// ParseKeywordGroups 解析LLM返回的关键词JSON，允许前后有说明文字和尾随逗号
func ParseKeywordGroups(raw string) (types.KeywordGroups, error) {
	var groups types.KeywordGroups
	payload := utils.ExtractJSON(raw)
	if payload == "" {
		return groups, ErrNoJSON
	}
	if err := json.Unmarshal([]byte(utils.SanitizeJSON(payload)), &groups); err != nil {
		return types.KeywordGroups{}, fmt.Errorf("decode keyword groups: %w", err)
	}
	groups.Normalize()
	return groups, nil
}
