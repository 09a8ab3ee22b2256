package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"ats-evaluator/internal/tracing"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"
)

const (
	defaultGeminiChatModel      = "gemini-2.5-flash"
	defaultGeminiEmbeddingModel = "text-embedding-004"
)

// NewGeminiClient 创建 genai 客户端，复用注入的 http.Client
func NewGeminiClient(ctx context.Context, apiKey string, httpClient *http.Client) (*genai.Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return client, nil
}

// GeminiChatModel 以 Gemini 实现 model.ToolCallingChatModel，system 消息映射为 SystemInstruction
type GeminiChatModel struct {
	client      *genai.Client
	modelName   string
	temperature float32
}

// NewGeminiChatModel 创建 Gemini 聊天模型
func NewGeminiChatModel(client *genai.Client, modelName string, temperature float32) (*GeminiChatModel, error) {
	if client == nil {
		return nil, errors.New("gemini client is required")
	}
	if modelName = strings.TrimSpace(modelName); modelName == "" {
		modelName = defaultGeminiChatModel
	}
	return &GeminiChatModel{client: client, modelName: modelName, temperature: temperature}, nil
}

func (g *GeminiChatModel) Generate(ctx context.Context, messages []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	options := model.GetCommonOptions(&model.Options{
		Temperature: &g.temperature,
		Model:       &g.modelName,
	}, opts...)

	ctx, span := tracing.StartSpan(ctx, "llm.gemini.generate")
	defer span.End()

	cfg := &genai.GenerateContentConfig{Temperature: options.Temperature}
	if options.MaxTokens != nil {
		cfg.MaxOutputTokens = int32(*options.MaxTokens)
	}

	var system []string
	contents := make([]*genai.Content, 0, len(messages))
	for _, msg := range messages {
		if msg == nil || strings.TrimSpace(msg.Content) == "" {
			continue
		}
		switch msg.Role {
		case schema.System:
			system = append(system, msg.Content)
		case schema.Assistant:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
		}
	}
	if len(system) > 0 {
		cfg.SystemInstruction = genai.NewContentFromText(strings.Join(system, "\n\n"), genai.RoleUser)
	}
	if len(contents) == 0 {
		return nil, errors.New("gemini: at least one user message is required")
	}

	resp, err := g.client.Models.GenerateContent(ctx, *options.Model, contents, cfg)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeExternal)
		if apiErr := asAPIError("chat", err); apiErr != nil {
			return nil, apiErr
		}
		return nil, fmt.Errorf("gemini generate content: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return nil, ErrEmptyResponse
	}
	return schema.AssistantMessage(text, nil), nil
}

func (g *GeminiChatModel) Stream(ctx context.Context, messages []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("gemini: streaming is not supported")
}

func (g *GeminiChatModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	clone := *g
	return &clone, nil
}

// GeminiEmbedder 以 Gemini EmbedContent 实现 embedding.Embedder
type GeminiEmbedder struct {
	client *genai.Client
	model  string
}

func NewGeminiEmbedder(client *genai.Client, modelName string) (*GeminiEmbedder, error) {
	if client == nil {
		return nil, errors.New("gemini client is required")
	}
	if modelName = strings.TrimSpace(modelName); modelName == "" {
		modelName = defaultGeminiEmbeddingModel
	}
	return &GeminiEmbedder{client: client, model: modelName}, nil
}

func (g *GeminiEmbedder) ModelName() string {
	return g.model
}

func (g *GeminiEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	if len(texts) == 0 {
		return [][]float64{}, nil
	}
	options := embedding.GetCommonOptions(&embedding.Options{Model: &g.model}, opts...)

	ctx, span := tracing.StartSpan(ctx, "llm.gemini.embed")
	defer span.End()

	contents := make([]*genai.Content, 0, len(texts))
	for _, t := range texts {
		contents = append(contents, genai.NewContentFromText(t, genai.RoleUser))
	}

	resp, err := g.client.Models.EmbedContent(ctx, *options.Model, contents, nil)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeExternal)
		if apiErr := asAPIError("embeddings", err); apiErr != nil {
			return nil, apiErr
		}
		return nil, fmt.Errorf("gemini embed content: %w", err)
	}
	if resp == nil || len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("gemini: expected %d embeddings", len(texts))
	}

	out := make([][]float64, len(resp.Embeddings))
	for i, emb := range resp.Embeddings {
		vec := make([]float64, len(emb.Values))
		for j, v := range emb.Values {
			vec[j] = float64(v)
		}
		out[i] = vec
	}
	return out, nil
}

// asAPIError 将 genai 的接口错误转换为统一的 APIError
func asAPIError(op string, err error) *APIError {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &APIError{Op: op, StatusCode: apiErr.Code, Body: apiErr.Message}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return &APIError{Op: op, StatusCode: apiErrPtr.Code, Body: apiErrPtr.Message}
	}
	return nil
}

var (
	_ model.ToolCallingChatModel = (*GeminiChatModel)(nil)
	_ embedding.Embedder         = (*GeminiEmbedder)(nil)
)
