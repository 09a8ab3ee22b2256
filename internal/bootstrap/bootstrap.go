// Package bootstrap 根据配置组装聊天模型、向量模型和评估流水线，供 server 和 CLI 共用。
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"ats-evaluator/internal/config"
	"ats-evaluator/internal/llm"
	"ats-evaluator/internal/logger"
	"ats-evaluator/internal/parser"
	"ats-evaluator/internal/processor"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/cloudwego/eino/components/model"
)

// Models 一组 LLM 客户端
type Models struct {
	Chat           model.ToolCallingChatModel
	Embedder       embedding.Embedder
	EmbeddingModel string
}

// Extras 可选依赖，均可为 nil
type Extras struct {
	Notifier processor.ProgressNotifier
	Cache    processor.JDCache
	Recorder processor.RunRecorder
}

// NewHTTPClient 所有 LLM 客户端共用同一个 http.Client
func NewHTTPClient(cfg *config.LLMConfig) *http.Client {
	return &http.Client{Timeout: config.GetDuration(cfg.Timeout, 120*time.Second)}
}

// NewModels 按 provider 创建聊天和向量模型，并按 QPM 限流
func NewModels(ctx context.Context, cfg *config.LLMConfig, httpClient *http.Client) (*Models, error) {
	var (
		chat     model.ToolCallingChatModel
		embedder embedding.Embedder
		embModel string
	)

	switch cfg.Provider {
	case config.ProviderGemini:
		client, err := llm.NewGeminiClient(ctx, cfg.Gemini.APIKey, httpClient)
		if err != nil {
			return nil, err
		}
		gChat, err := llm.NewGeminiChatModel(client, cfg.Gemini.ChatModel, cfg.EvaluationTemperature)
		if err != nil {
			return nil, err
		}
		gEmb, err := llm.NewGeminiEmbedder(client, cfg.Gemini.EmbeddingModel)
		if err != nil {
			return nil, err
		}
		chat, embedder, embModel = gChat, gEmb, gEmb.ModelName()

	case config.ProviderOpenAI, "":
		oChat, err := llm.NewOpenAIChatModel(cfg.APIKey, httpClient,
			llm.WithChatBaseURL(cfg.BaseURL),
			llm.WithChatModelName(cfg.ChatModel),
			llm.WithDefaultTemperature(cfg.EvaluationTemperature),
		)
		if err != nil {
			return nil, fmt.Errorf("create chat model: %w", err)
		}
		oEmb, err := llm.NewOpenAIEmbedder(cfg.APIKey, httpClient,
			llm.WithEmbeddingBaseURL(cfg.BaseURL),
			llm.WithEmbeddingModel(cfg.EmbeddingModel),
			llm.WithEmbeddingDimensions(cfg.EmbeddingDimensions),
		)
		if err != nil {
			return nil, fmt.Errorf("create embedder: %w", err)
		}
		chat, embedder, embModel = oChat, oEmb, oEmb.ModelName()

	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}

	if cfg.QPM > 0 {
		chat = llm.NewRateLimitedChatModel(chat, cfg.QPM)
		embedder = llm.NewRateLimitedEmbedder(embedder, cfg.QPM)
	}

	logger.Info().
		Str("provider", cfg.Provider).
		Str("embedding_model", embModel).
		Int("qpm", cfg.QPM).
		Msg("LLM客户端初始化成功")
	return &Models{Chat: chat, Embedder: embedder, EmbeddingModel: embModel}, nil
}

// NewDocumentExtractor PDF 优先使用 eino 解析器，失败时回退到 ledongthuc/pdf
func NewDocumentExtractor(ctx context.Context) (*parser.DocumentTextExtractor, error) {
	primary, err := parser.NewEinoPDFExtractor(ctx)
	if err != nil {
		return nil, fmt.Errorf("create pdf extractor: %w", err)
	}
	return parser.NewDocumentTextExtractor(primary, parser.WithPDFFallback(parser.PlainPDFExtractor{})), nil
}

// NewPipeline 组装评估流水线
func NewPipeline(ctx context.Context, cfg *config.Config, models *Models, extras Extras) (*processor.Pipeline, error) {
	docs, err := NewDocumentExtractor(ctx)
	if err != nil {
		return nil, err
	}

	format := parser.OutputText
	if cfg.Pipeline.OutputFormat == config.OutputFormatJSON {
		format = parser.OutputJSON
	}

	comp := processor.NewComponents(
		docs,
		models.Embedder,
		parser.NewLLMKeywordExtractor(models.Chat, parser.WithKeywordTemperature(cfg.LLM.KeywordTemperature)),
		parser.NewLLMCVExtractor(models.Chat, parser.WithCVTemperature(cfg.LLM.CVTemperature)),
		parser.NewLLMSectionEvaluator(models.Chat,
			parser.WithEvaluatorTemperature(cfg.LLM.EvaluationTemperature),
			parser.WithOutputFormat(format),
		),
		processor.WithcompCVDecoder(parser.DecodeCV),
		processor.WithcompNotifier(extras.Notifier),
		processor.WithcompCache(extras.Cache),
		processor.WithcompRecorder(extras.Recorder),
	)

	settings := processor.DefaultSettings()
	if cfg.Pipeline.SimilarityThreshold != nil {
		settings.SimilarityThreshold = *cfg.Pipeline.SimilarityThreshold
	}
	return processor.NewPipeline(comp, settings,
		processor.WithsetRetry(cfg.Pipeline.MaxAttempts, config.GetDuration(cfg.Pipeline.RetryDelay, 2*time.Second)),
		processor.WithsetParallelCategories(cfg.Pipeline.ParallelCategories),
		processor.WithsetStructuredOutput(format == parser.OutputJSON),
		processor.WithsetEmbeddingModel(models.EmbeddingModel),
		processor.WithsetCacheTTL(config.GetDuration(cfg.Pipeline.CacheTTL, processor.DefaultCacheTTL)),
	)
}

// LoggerConfig 转换为 logger 包的配置
func LoggerConfig(cfg config.LoggerConfig) logger.Config {
	return logger.Config{
		Level:        cfg.Level,
		Format:       cfg.Format,
		TimeFormat:   cfg.TimeFormat,
		ReportCaller: cfg.ReportCaller,
		File:         cfg.File,
	}
}
