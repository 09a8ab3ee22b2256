package parser

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"ats-evaluator/internal/logger"

	"github.com/rs/zerolog"
)

// PDFTextExtractor 从 PDF 字节提取文本
type PDFTextExtractor interface {
	ExtractPDF(ctx context.Context, name string, data []byte) (string, error)
}

// DocumentTextExtractor 按扩展名路由到具体的提取器
type DocumentTextExtractor struct {
	primary  PDFTextExtractor
	fallback PDFTextExtractor
	logger   *zerolog.Logger
}

// DocumentOption DocumentTextExtractor 的配置选项
type DocumentOption func(*DocumentTextExtractor)

// WithPDFFallback 设置主提取器失败或结果为空时使用的后备提取器
func WithPDFFallback(fallback PDFTextExtractor) DocumentOption {
	return func(d *DocumentTextExtractor) {
		d.fallback = fallback
	}
}

func WithDocumentLogger(l *zerolog.Logger) DocumentOption {
	return func(d *DocumentTextExtractor) {
		if l != nil {
			d.logger = l
		}
	}
}

// NewDocumentTextExtractor primary 为 nil 时使用 PlainPDFExtractor
func NewDocumentTextExtractor(primary PDFTextExtractor, opts ...DocumentOption) *DocumentTextExtractor {
	if primary == nil {
		primary = PlainPDFExtractor{}
	}
	d := &DocumentTextExtractor{primary: primary, logger: &logger.Logger}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// ExtractText 支持 .pdf .docx .txt .md
func (d *DocumentTextExtractor) ExtractText(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var (
		text string
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".pdf":
		text, err = d.extractPDF(ctx, name, data)
	case ".docx":
		text, err = extractDOCX(data)
	case ".txt", ".md":
		if !utf8.Valid(data) {
			return "", fmt.Errorf("%s: invalid UTF-8 text", name)
		}
		text = string(data)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedDocument, ext)
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%s: %w", name, ErrEmptyDocument)
	}
	return text, nil
}

func (d *DocumentTextExtractor) extractPDF(ctx context.Context, name string, data []byte) (string, error) {
	text, err := d.primary.ExtractPDF(ctx, name, data)
	if err == nil && strings.TrimSpace(text) != "" {
		return text, nil
	}
	if d.fallback == nil || ctx.Err() != nil {
		if err == nil {
			err = ErrEmptyDocument
		}
		return "", err
	}

	d.logger.Warn().Err(err).Str("source", name).Msg("PDF主解析器失败，使用后备解析器")
	fallbackText, fbErr := d.fallback.ExtractPDF(ctx, name, data)
	if fbErr != nil {
		if err != nil {
			return "", fmt.Errorf("pdf extraction failed: primary: %v; fallback: %w", err, fbErr)
		}
		return "", fbErr
	}
	return fallbackText, nil
}
