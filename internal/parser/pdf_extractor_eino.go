package parser

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"ats-evaluator/internal/logger"

	"github.com/cloudwego/eino-ext/components/document/parser/pdf"
	einoParser "github.com/cloudwego/eino/components/document/parser"
	"github.com/rs/zerolog"
)

const defaultPDFTimeout = 30 * time.Second

// EinoPDFExtractor 使用 Eino PDF Parser 提取文本
type EinoPDFExtractor struct {
	parser  *pdf.PDFParser
	timeout time.Duration
	logger  *zerolog.Logger
}

// EinoPDFOption PDF提取器的配置选项
type EinoPDFOption func(*EinoPDFExtractor)

func WithEinoLogger(l *zerolog.Logger) EinoPDFOption {
	return func(e *EinoPDFExtractor) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithEinoTimeout 单个文档的解析超时
func WithEinoTimeout(d time.Duration) EinoPDFOption {
	return func(e *EinoPDFExtractor) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// NewEinoPDFExtractor 初始化 Eino PDF 文本提取器，不按页面分割
func NewEinoPDFExtractor(ctx context.Context, options ...EinoPDFOption) (*EinoPDFExtractor, error) {
	p, err := pdf.NewPDFParser(ctx, &pdf.Config{ToPages: false})
	if err != nil {
		return nil, fmt.Errorf("failed to create Eino PDF parser: %w", err)
	}

	extractor := &EinoPDFExtractor{
		parser:  p,
		timeout: defaultPDFTimeout,
		logger:  &logger.Logger,
	}
	for _, option := range options {
		option(extractor)
	}
	return extractor, nil
}

// ExtractPDF 从PDF字节中提取完整文本
func (e *EinoPDFExtractor) ExtractPDF(ctx context.Context, name string, data []byte) (string, error) {
	startTime := time.Now()

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	docs, err := e.parser.Parse(ctx, bytes.NewReader(data),
		einoParser.WithURI(name),
		einoParser.WithExtraMeta(map[string]any{
			"source":          name,
			"extraction_time": startTime.Format(time.RFC3339),
		}),
	)
	if err != nil {
		return "", fmt.Errorf("eino PDF parser failed for %s: %w", name, err)
	}
	if len(docs) == 0 {
		return "", fmt.Errorf("eino PDF parser returned no documents for %s", name)
	}

	parts := make([]string, 0, len(docs))
	for _, doc := range docs {
		parts = append(parts, doc.Content)
	}
	text := strings.Join(parts, "\n\n")

	e.logger.Debug().
		Str("source", name).
		Int("chars", len(text)).
		Dur("duration", time.Since(startTime)).
		Msg("[PDF解析器] 提取完成")
	return text, nil
}
