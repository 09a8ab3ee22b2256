package processor

import (
	"time"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/rs/zerolog"
)

// Components 聚合流水线的所有外部依赖，便于集中管理和测试替换
type Components struct {
	// 核心组件接口
	DocumentExtractor DocumentExtractor
	Embedder          embedding.Embedder
	KeywordExtractor  KeywordExtractor
	CVExtractor       CVExtractor
	SectionEvaluator  SectionEvaluator
	CVDecoder         CVDecoder

	// 可选依赖
	Notifier ProgressNotifier
	Cache    JDCache
	Recorder RunRecorder
}

// Settings 纯配置项，不包含任何业务逻辑组件
type Settings struct {
	SimilarityThreshold float64
	MaxAttempts         int
	RetryDelay          time.Duration
	ParallelCategories  bool
	StructuredOutput    bool   // 评估响应为JSON数组而非 '><' 文本协议
	EmbeddingModel      string // 参与JD向量缓存键
	CacheTTL            time.Duration
	Logger              *zerolog.Logger
}

// ComponentOpt 组件选项类型，仅改变 Components 结构体内的字段
type ComponentOpt func(*Components)

// SettingOpt 设置选项类型，仅改变 Settings 结构体内的字段
type SettingOpt func(*Settings)

// ----- 组件选项 -----

func WithcompNotifier(n ProgressNotifier) ComponentOpt {
	return func(c *Components) { c.Notifier = n }
}

func WithcompCache(cache JDCache) ComponentOpt {
	return func(c *Components) { c.Cache = cache }
}

func WithcompRecorder(r RunRecorder) ComponentOpt {
	return func(c *Components) { c.Recorder = r }
}

func WithcompCVDecoder(d CVDecoder) ComponentOpt {
	return func(c *Components) { c.CVDecoder = d }
}

// ----- 设置选项 -----

func WithsetSimilarityThreshold(t float64) SettingOpt {
	return func(s *Settings) { s.SimilarityThreshold = t }
}

// WithsetRetry 设置类别评估的最大尝试次数和重试间隔
func WithsetRetry(maxAttempts int, delay time.Duration) SettingOpt {
	return func(s *Settings) {
		s.MaxAttempts = maxAttempts
		s.RetryDelay = delay
	}
}

func WithsetParallelCategories(parallel bool) SettingOpt {
	return func(s *Settings) { s.ParallelCategories = parallel }
}

func WithsetStructuredOutput(structured bool) SettingOpt {
	return func(s *Settings) { s.StructuredOutput = structured }
}

func WithsetEmbeddingModel(model string) SettingOpt {
	return func(s *Settings) { s.EmbeddingModel = model }
}

func WithsetCacheTTL(ttl time.Duration) SettingOpt {
	return func(s *Settings) { s.CacheTTL = ttl }
}

// WithsetLogger 设置日志记录器，nil 时保持默认全局 logger
func WithsetLogger(l *zerolog.Logger) SettingOpt {
	return func(s *Settings) {
		if l != nil {
			s.Logger = l
		}
	}
}

// NewComponents 以必需组件创建 Components，可选依赖通过 ComponentOpt 设置
func NewComponents(extractor DocumentExtractor, embedder embedding.Embedder, keywords KeywordExtractor, cv CVExtractor, evaluator SectionEvaluator, opts ...ComponentOpt) *Components {
	c := &Components{
		DocumentExtractor: extractor,
		Embedder:          embedder,
		KeywordExtractor:  keywords,
		CVExtractor:       cv,
		SectionEvaluator:  evaluator,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DefaultSettings 返回默认设置
func DefaultSettings() *Settings {
	return &Settings{
		SimilarityThreshold: DefaultSimilarityThreshold,
		MaxAttempts:         3,
		RetryDelay:          2 * time.Second,
		CacheTTL:            DefaultCacheTTL,
	}
}
