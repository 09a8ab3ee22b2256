package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ats-evaluator/internal/logger"
	"ats-evaluator/internal/tracing"
	"ats-evaluator/internal/types"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/rs/zerolog"
)

// CVDecoder 把 CVExtractor 返回的文本解析为 CV
type CVDecoder func(raw string) (types.CV, error)

func defaultCVDecoder(raw string) (types.CV, error) {
	var cv types.CV
	if err := json.Unmarshal([]byte(raw), &cv); err != nil {
		return types.CV{}, err
	}
	cv.Normalize()
	return cv, nil
}

// SimilarityCuller 按与JD的余弦相似度筛选文档，并为保留的文档抽取CV
type SimilarityCuller struct {
	extractor   DocumentExtractor
	embedder    embedding.Embedder
	cvExtractor CVExtractor
	decodeCV    CVDecoder
	threshold   float64
	logger      *zerolog.Logger
}

// CullerOption SimilarityCuller 的配置选项
type CullerOption func(*SimilarityCuller)

func WithThreshold(threshold float64) CullerOption {
	return func(c *SimilarityCuller) { c.threshold = threshold }
}

func WithCVDecoder(decoder CVDecoder) CullerOption {
	return func(c *SimilarityCuller) {
		if decoder != nil {
			c.decodeCV = decoder
		}
	}
}

func WithCullerLogger(l *zerolog.Logger) CullerOption {
	return func(c *SimilarityCuller) {
		if l != nil {
			c.logger = l
		}
	}
}

func NewSimilarityCuller(extractor DocumentExtractor, embedder embedding.Embedder, cvExtractor CVExtractor, opts ...CullerOption) *SimilarityCuller {
	c := &SimilarityCuller{
		extractor:   extractor,
		embedder:    embedder,
		cvExtractor: cvExtractor,
		decodeCV:    defaultCVDecoder,
		threshold:   DefaultSimilarityThreshold,
		logger:      &logger.Logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Cull 按输入顺序处理文档。单个文档的提取、向量化或CV解析失败只跳过该文档，
// 上下文取消或超时会中止整个过程。
func (c *SimilarityCuller) Cull(ctx context.Context, jdVector []float64, docs []types.Document, progress *ProgressReporter) ([]*types.Applicant, error) {
	applicants := make([]*types.Applicant, 0, len(docs))
	total := len(docs)

	for i, doc := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		applicant, err := c.processDocument(ctx, jdVector, doc)
		if err != nil {
			// 运行本身的上下文结束才中止，单次调用超时仍按文档失败处理
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, fmt.Errorf("%w: %v", ctxErr, err)
			}
			c.logger.Warn().Err(err).Str("document", doc.Name).Msg("文档处理失败，已跳过")
		} else if applicant != nil {
			applicants = append(applicants, applicant)
		}

		progress.Report(ctx, fmt.Sprintf("Processed document %d/%d", i+1, total),
			Scaled(ProgressKeywordsExtracted, ProgressCullingEnd, i+1, total))
	}

	c.logger.Info().Int("documents", total).Int("kept", len(applicants)).Msg("相似度筛选完成")
	return applicants, nil
}

// processDocument 返回 nil, nil 表示文档低于阈值、CV无法解析或缺少姓名
func (c *SimilarityCuller) processDocument(ctx context.Context, jdVector []float64, doc types.Document) (*types.Applicant, error) {
	ctx, span := tracing.StartSpan(ctx, "culler.document", tracing.AttrDocument.String(doc.Name))
	defer span.End()
	start := time.Now()

	text, err := c.extractor.ExtractText(ctx, doc.Name, doc.Data)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeParse)
		return nil, fmt.Errorf("extract text: %w", err)
	}

	vectors, err := c.embedder.EmbedStrings(ctx, []string{text})
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeExternal)
		return nil, fmt.Errorf("embed document: %w", err)
	}
	if len(vectors) != 1 {
		return nil, fmt.Errorf("embed document: expected 1 vector, got %d", len(vectors))
	}

	similarity, err := CosineSimilarity(jdVector, vectors[0])
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeValidation)
		return nil, err
	}
	span.SetAttributes(tracing.AttrSimilarity.Float64(similarity))

	if similarity < c.threshold {
		c.logger.Debug().Str("document", doc.Name).Float64("similarity", similarity).Msg("相似度低于阈值，已丢弃")
		return nil, nil
	}

	raw, err := c.cvExtractor.ExtractCV(ctx, text)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeExternal)
		return nil, fmt.Errorf("extract cv: %w", err)
	}

	cv, err := c.decodeCV(raw)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeParse)
		c.logger.Warn().Err(err).Str("document", doc.Name).Msg("CV JSON解析失败，跳过该候选人")
		return nil, nil
	}

	if NormalizeName(cv.Name) == "" {
		tracing.RecordError(span, ErrMissingCandidateName, tracing.ErrorTypeParse)
		c.logger.Warn().Str("document", doc.Name).Msg("CV缺少候选人姓名，跳过该候选人")
		return nil, nil
	}

	span.SetAttributes(tracing.Candidate(cv.Name))
	c.logger.Debug().
		Str("document", doc.Name).
		Str("candidate", tracing.MaskPII(cv.Name)).
		Float64("similarity", similarity).
		Dur("duration", time.Since(start)).
		Msg("候选人通过相似度筛选")
	return types.NewApplicant(cv, doc.Name, text, similarity), nil
}
