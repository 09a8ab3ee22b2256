package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"ats-evaluator/internal/logger"
	"ats-evaluator/internal/tracing"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/rs/zerolog"
)

const defaultOpenAIEmbeddingModel = "text-embedding-3-small"

// OpenAIEmbedder 基于 OpenAI 兼容 /embeddings 接口实现 embedding.Embedder
type OpenAIEmbedder struct {
	apiKey     string
	model      string
	dimensions int
	baseURL    string
	httpClient *http.Client
	logger     *zerolog.Logger
}

// EmbedderOption OpenAIEmbedder 的配置选项
type EmbedderOption func(*OpenAIEmbedder)

func WithEmbeddingModel(name string) EmbedderOption {
	return func(e *OpenAIEmbedder) {
		if strings.TrimSpace(name) != "" {
			e.model = name
		}
	}
}

// WithEmbeddingDimensions 为支持降维的模型指定输出维度，0 表示使用模型默认值
func WithEmbeddingDimensions(dim int) EmbedderOption {
	return func(e *OpenAIEmbedder) {
		e.dimensions = dim
	}
}

func WithEmbeddingBaseURL(url string) EmbedderOption {
	return func(e *OpenAIEmbedder) {
		if strings.TrimSpace(url) != "" {
			e.baseURL = strings.TrimRight(url, "/")
		}
	}
}

func WithEmbedderLogger(l *zerolog.Logger) EmbedderOption {
	return func(e *OpenAIEmbedder) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewOpenAIEmbedder 创建向量化客户端
func NewOpenAIEmbedder(apiKey string, httpClient *http.Client, opts ...EmbedderOption) (*OpenAIEmbedder, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("llm: api key is required")
	}
	if httpClient == nil {
		return nil, fmt.Errorf("llm: http client is required")
	}
	e := &OpenAIEmbedder{
		apiKey:     apiKey,
		model:      defaultOpenAIEmbeddingModel,
		baseURL:    defaultOpenAIBaseURL,
		httpClient: httpClient,
		logger:     &logger.Logger,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// ModelName 返回向量模型名称，用作缓存键的一部分
func (e *OpenAIEmbedder) ModelName() string {
	return e.model
}

type embeddingRequest struct {
	Input          []string `json:"input"`
	Model          string   `json:"model"`
	Dimensions     int      `json:"dimensions,omitempty"`
	EncodingFormat string   `json:"encoding_format,omitempty"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Model string `json:"model"`
	Usage struct {
		PromptTokens int `json:"prompt_tokens"`
		TotalTokens  int `json:"total_tokens"`
	} `json:"usage"`
}

// EmbedStrings 将文本转换为向量，输出顺序与输入一致
func (e *OpenAIEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	if len(texts) == 0 {
		return [][]float64{}, nil
	}

	options := embedding.GetCommonOptions(&embedding.Options{Model: &e.model}, opts...)

	ctx, span := tracing.StartSpan(ctx, "llm.embeddings")
	defer span.End()

	body, err := json.Marshal(embeddingRequest{
		Input:          texts,
		Model:          *options.Model,
		Dimensions:     e.dimensions,
		EncodingFormat: "float",
	})
	if err != nil {
		return nil, fmt.Errorf("llm: marshal embedding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("llm: create embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeExternal)
		return nil, fmt.Errorf("llm: send embedding request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("llm: read embedding response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Op: "embeddings", StatusCode: resp.StatusCode, Body: string(respBody)}
		tracing.RecordHTTPError(span, apiErr, resp.StatusCode)
		return nil, apiErr
	}

	var parsed embeddingResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("llm: decode embedding response: %w", err)
	}
	if len(parsed.Data) != len(texts) {
		return nil, fmt.Errorf("llm: expected %d embeddings, got %d", len(texts), len(parsed.Data))
	}

	sort.Slice(parsed.Data, func(i, j int) bool { return parsed.Data[i].Index < parsed.Data[j].Index })
	out := make([][]float64, len(parsed.Data))
	for i, d := range parsed.Data {
		out[i] = d.Embedding
	}

	e.logger.Debug().
		Int("texts", len(texts)).
		Int("dimensions", len(out[0])).
		Int("total_tokens", parsed.Usage.TotalTokens).
		Msg("向量化完成")

	return out, nil
}

var _ embedding.Embedder = (*OpenAIEmbedder)(nil)
