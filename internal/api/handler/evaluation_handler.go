package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"
	"time"

	"ats-evaluator/internal/logger"
	"ats-evaluator/internal/processor"
	"ats-evaluator/internal/types"
	pkgutils "ats-evaluator/pkg/utils"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/gofrs/uuid/v5"
	"github.com/rs/zerolog"
)

// 表单字段
const (
	FormFieldCVs            = "cvs"
	FormFieldJobDescription = "jobDescription"
	FormFieldConnectionID   = "connectionId"
	FormFieldObjectKeys     = "objectKeys"
)

const (
	msgNoFiles            = "No files uploaded."
	msgEmptyJD            = "jobDescription must not be empty."
	DefaultRunTimeout     = 10 * time.Minute
	maxErrorMessageLength = 1000
)

// Evaluator processor.Pipeline 满足该接口
type Evaluator interface {
	Run(ctx context.Context, req processor.Request) ([]*types.Applicant, error)
}

// DocumentFetcher 按对象key拉取文档，storage.MinIO 满足该接口
type DocumentFetcher interface {
	FetchDocuments(ctx context.Context, objectKeys []string) ([]types.Document, error)
}

// EvaluationHandler 处理候选人评估上传请求
type EvaluationHandler struct {
	evaluator  Evaluator
	fetcher    DocumentFetcher
	runTimeout time.Duration
	logger     *zerolog.Logger
	newRunID   func() (string, error)
}

type Option func(*EvaluationHandler)

// WithDocumentFetcher 启用 objectKeys 字段
func WithDocumentFetcher(f DocumentFetcher) Option {
	return func(h *EvaluationHandler) { h.fetcher = f }
}

func WithRunTimeout(d time.Duration) Option {
	return func(h *EvaluationHandler) {
		if d > 0 {
			h.runTimeout = d
		}
	}
}

func WithLogger(l *zerolog.Logger) Option {
	return func(h *EvaluationHandler) {
		if l != nil {
			h.logger = l
		}
	}
}

func NewEvaluationHandler(evaluator Evaluator, opts ...Option) *EvaluationHandler {
	h := &EvaluationHandler{
		evaluator:  evaluator,
		runTimeout: DefaultRunTimeout,
		logger:     &logger.Logger,
		newRunID:   newRunID,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func newRunID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("生成UUIDv7失败: %w", err)
	}
	return id.String(), nil
}

// HandleUpload 读取表单，运行流水线并返回排序后的候选人
func (h *EvaluationHandler) HandleUpload(ctx context.Context, c *app.RequestContext) {
	runID, err := h.newRunID()
	if err != nil {
		c.JSON(consts.StatusInternalServerError, utils.H{"error": err.Error()})
		return
	}
	l := h.logger.With().Str("run_id", runID).Logger()

	docs, err := h.collectDocuments(ctx, c)
	if err != nil {
		l.Warn().Err(err).Msg("读取上传文档失败")
		c.JSON(consts.StatusBadRequest, utils.H{"error": err.Error()})
		return
	}
	if len(docs) == 0 {
		c.JSON(consts.StatusBadRequest, utils.H{"error": msgNoFiles})
		return
	}

	jd := string(c.FormValue(FormFieldJobDescription))
	if strings.TrimSpace(jd) == "" {
		c.JSON(consts.StatusBadRequest, utils.H{"error": msgEmptyJD})
		return
	}

	req := processor.Request{
		RunID:          runID,
		SessionID:      string(c.FormValue(FormFieldConnectionID)),
		JobDescription: jd,
		Documents:      docs,
	}

	runCtx, cancel := context.WithTimeout(ctx, h.runTimeout)
	defer cancel()

	l.Info().Int("documents", len(docs)).Str("session_id", req.SessionID).Msg("开始评估")
	start := time.Now()
	applicants, err := h.evaluator.Run(runCtx, req)
	if err != nil {
		status := statusForError(err)
		l.Error().Err(err).Int("status", status).Dur("elapsed", time.Since(start)).Msg("评估失败")
		c.JSON(status, utils.H{"error": pkgutils.Truncate(err.Error(), maxErrorMessageLength)})
		return
	}
	if applicants == nil {
		applicants = []*types.Applicant{}
	}

	l.Info().Int("applicants", len(applicants)).Dur("elapsed", time.Since(start)).Msg("评估完成")
	c.JSON(consts.StatusOK, applicants)
}

// statusForError 客户端输入类错误返回 400，超时返回 504，其余 500
func statusForError(err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return consts.StatusGatewayTimeout
	case errors.Is(err, context.Canceled),
		errors.Is(err, processor.ErrNoDocuments),
		errors.Is(err, processor.ErrEmptyJobDescription),
		errors.Is(err, processor.ErrKeywordExtraction):
		return consts.StatusBadRequest
	default:
		return consts.StatusInternalServerError
	}
}

// collectDocuments 合并上传文件和对象存储中的文档，非 multipart 请求视为没有文件
func (h *EvaluationHandler) collectDocuments(ctx context.Context, c *app.RequestContext) ([]types.Document, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, nil
	}

	var docs []types.Document
	for _, fh := range form.File[FormFieldCVs] {
		if fh.Size == 0 {
			continue
		}
		data, err := readFormFile(fh)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", fh.Filename, err)
		}
		docs = append(docs, types.Document{Name: fh.Filename, Data: data})
	}

	keys := nonEmpty(form.Value[FormFieldObjectKeys])
	if len(keys) == 0 {
		return docs, nil
	}
	if h.fetcher == nil {
		return nil, errors.New("object storage is not configured")
	}
	fetched, err := h.fetcher.FetchDocuments(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("fetch documents: %w", err)
	}
	return append(docs, fetched...), nil
}

func readFormFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
