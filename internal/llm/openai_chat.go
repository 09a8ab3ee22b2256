package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"ats-evaluator/internal/logger"
	"ats-evaluator/internal/tracing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
)

const (
	defaultOpenAIBaseURL   = "https://api.openai.com/v1"
	defaultOpenAIChatModel = "gpt-4o-mini"
	defaultTemperature     = float32(0.7)
)

// OpenAIChatModel 基于 OpenAI 兼容 chat/completions 接口实现 model.ToolCallingChatModel
type OpenAIChatModel struct {
	apiKey      string
	modelName   string
	baseURL     string
	temperature float32
	httpClient  *http.Client
	tools       []*schema.ToolInfo
	logger      *zerolog.Logger
}

// ChatOption OpenAIChatModel 的配置选项
type ChatOption func(*OpenAIChatModel)

// WithChatModelName 设置模型名称
func WithChatModelName(name string) ChatOption {
	return func(m *OpenAIChatModel) {
		if strings.TrimSpace(name) != "" {
			m.modelName = name
		}
	}
}

// WithChatBaseURL 设置接口根地址，例如 https://api.openai.com/v1
func WithChatBaseURL(url string) ChatOption {
	return func(m *OpenAIChatModel) {
		if strings.TrimSpace(url) != "" {
			m.baseURL = strings.TrimRight(url, "/")
		}
	}
}

// WithDefaultTemperature 设置调用未指定温度时使用的默认温度
func WithDefaultTemperature(t float32) ChatOption {
	return func(m *OpenAIChatModel) {
		m.temperature = t
	}
}

// WithChatLogger 设置日志记录器
func WithChatLogger(l *zerolog.Logger) ChatOption {
	return func(m *OpenAIChatModel) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewOpenAIChatModel 创建聊天模型客户端，httpClient 由调用方注入并在多次调用间复用
func NewOpenAIChatModel(apiKey string, httpClient *http.Client, opts ...ChatOption) (*OpenAIChatModel, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("llm: api key is required")
	}
	if httpClient == nil {
		return nil, fmt.Errorf("llm: http client is required")
	}

	m := &OpenAIChatModel{
		apiKey:      apiKey,
		modelName:   defaultOpenAIChatModel,
		baseURL:     defaultOpenAIBaseURL,
		temperature: defaultTemperature,
		httpClient:  httpClient,
		logger:      &logger.Logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
	MaxTokens   *int          `json:"max_tokens,omitempty"`
}

type chatCompletionResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string  `json:"role"`
			Content *string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// Generate 实现 model.ChatModel 接口，支持 model.WithTemperature / WithModel / WithMaxTokens
func (m *OpenAIChatModel) Generate(ctx context.Context, messages []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	options := model.GetCommonOptions(&model.Options{
		Temperature: &m.temperature,
		Model:       &m.modelName,
	}, opts...)

	ctx, span := tracing.StartSpan(ctx, "llm.chat")
	defer span.End()

	reqPayload := chatCompletionRequest{
		Model:       *options.Model,
		Temperature: *options.Temperature,
		MaxTokens:   options.MaxTokens,
		Messages:    make([]chatMessage, 0, len(messages)),
	}
	for _, msg := range messages {
		if msg == nil {
			continue
		}
		reqPayload.Messages = append(reqPayload.Messages, chatMessage{Role: string(msg.Role), Content: msg.Content})
	}

	body, err := json.Marshal(reqPayload)
	if err != nil {
		return nil, fmt.Errorf("llm: marshal chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("llm: create chat request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+m.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	m.logger.Debug().
		Str("model", reqPayload.Model).
		Int("messages", len(reqPayload.Messages)).
		Float32("temperature", reqPayload.Temperature).
		Msg("发送聊天补全请求")

	resp, err := m.httpClient.Do(httpReq)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeExternal)
		return nil, fmt.Errorf("llm: send chat request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("llm: read chat response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Op: "chat", StatusCode: resp.StatusCode, Body: string(respBody)}
		tracing.RecordHTTPError(span, apiErr, resp.StatusCode)
		return nil, apiErr
	}

	var parsed chatCompletionResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("llm: decode chat response: %w", err)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == nil {
		return nil, ErrEmptyResponse
	}

	m.logger.Debug().
		Str("model", parsed.Model).
		Int("prompt_tokens", parsed.Usage.PromptTokens).
		Int("completion_tokens", parsed.Usage.CompletionTokens).
		Str("finish_reason", parsed.Choices[0].FinishReason).
		Msg("收到聊天补全响应")

	return schema.AssistantMessage(*parsed.Choices[0].Message.Content, nil), nil
}

// Stream 不支持流式输出
func (m *OpenAIChatModel) Stream(ctx context.Context, messages []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, fmt.Errorf("llm: streaming is not supported by OpenAIChatModel")
}

// WithTools 返回绑定了工具信息的新实例；评估流程不使用工具调用，仅保留接口兼容
func (m *OpenAIChatModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	clone := *m
	clone.tools = append([]*schema.ToolInfo(nil), tools...)
	return &clone, nil
}

var _ model.ToolCallingChatModel = (*OpenAIChatModel)(nil)
