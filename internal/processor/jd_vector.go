package processor

import (
	"context"
	"fmt"
	"time"

	"ats-evaluator/internal/logger"
	"ats-evaluator/internal/types"
	"ats-evaluator/pkg/utils"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/rs/zerolog"
)

// DefaultCacheTTL JD向量和关键词缓存的默认有效期
const DefaultCacheTTL = 24 * time.Hour

// JDVectorProvider 负责JD的向量化，并在配置了缓存时复用结果
type JDVectorProvider struct {
	embedder  embedding.Embedder
	cache     JDCache
	modelName string
	ttl       time.Duration
	logger    *zerolog.Logger
}

// NewJDVectorProvider cache 可以为 nil
func NewJDVectorProvider(embedder embedding.Embedder, cache JDCache, modelName string, ttl time.Duration) *JDVectorProvider {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &JDVectorProvider{
		embedder:  embedder,
		cache:     cache,
		modelName: modelName,
		ttl:       ttl,
		logger:    &logger.Logger,
	}
}

// CacheKey JD文本和模型共同决定缓存键
func (p *JDVectorProvider) CacheKey(jobDescription string) string {
	return utils.SHA256Hex(jobDescription) + ":" + p.modelName
}

// Vector 返回JD向量，缓存读写失败只记录日志
func (p *JDVectorProvider) Vector(ctx context.Context, jobDescription string) ([]float64, error) {
	key := p.CacheKey(jobDescription)
	if p.cache != nil {
		vec, found, err := p.cache.GetJDVector(ctx, key)
		if err != nil {
			p.logger.Warn().Err(err).Msg("读取JD向量缓存失败，将重新生成")
		} else if found && len(vec) > 0 {
			p.logger.Debug().Int("dimensions", len(vec)).Msg("JD向量缓存命中")
			return vec, nil
		}
	}

	vectors, err := p.embedder.EmbedStrings(ctx, []string{jobDescription})
	if err != nil {
		return nil, fmt.Errorf("embed job description: %w", err)
	}
	if len(vectors) != 1 || len(vectors[0]) == 0 {
		return nil, fmt.Errorf("embed job description: empty vector")
	}

	if p.cache != nil {
		if err := p.cache.SetJDVector(ctx, key, vectors[0], p.ttl); err != nil {
			p.logger.Warn().Err(err).Msg("写入JD向量缓存失败")
		}
	}
	return vectors[0], nil
}

// cachedKeywordExtractor 以JD哈希缓存关键词分组
type cachedKeywordExtractor struct {
	inner  KeywordExtractor
	cache  JDCache
	ttl    time.Duration
	logger *zerolog.Logger
}

// NewCachedKeywordExtractor cache 为 nil 时直接返回 inner
func NewCachedKeywordExtractor(inner KeywordExtractor, cache JDCache, ttl time.Duration) KeywordExtractor {
	if cache == nil {
		return inner
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &cachedKeywordExtractor{inner: inner, cache: cache, ttl: ttl, logger: &logger.Logger}
}

func (c *cachedKeywordExtractor) ExtractKeywords(ctx context.Context, jobDescription string) (types.KeywordGroups, error) {
	key := utils.SHA256Hex(jobDescription)
	groups, found, err := c.cache.GetKeywordGroups(ctx, key)
	if err != nil {
		c.logger.Warn().Err(err).Msg("读取关键词缓存失败")
	} else if found {
		return groups, nil
	}

	groups, err = c.inner.ExtractKeywords(ctx, jobDescription)
	if err != nil {
		return types.KeywordGroups{}, err
	}
	if err := c.cache.SetKeywordGroups(ctx, key, groups, c.ttl); err != nil {
		c.logger.Warn().Err(err).Msg("写入关键词缓存失败")
	}
	return groups, nil
}
