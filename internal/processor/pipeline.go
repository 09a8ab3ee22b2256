package processor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"ats-evaluator/internal/logger"
	"ats-evaluator/internal/tracing"
	"ats-evaluator/internal/types"
	"ats-evaluator/pkg/ratelimit"
	"ats-evaluator/pkg/utils"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

// Request 一次评估请求
type Request struct {
	RunID          string
	SessionID      string // 进度通道ID，可为空
	JobDescription string
	Documents      []types.Document
}

// evaluationParser 把一个类别的批量响应解析为 姓名键 -> 评估
type evaluationParser func(raw string, expected int) (map[string]types.ApplicantEvaluation, error)

// Pipeline 候选人评估流水线，可被多个请求并发使用，请求之间不共享状态
type Pipeline struct {
	comp     *Components
	settings *Settings

	culler   *SimilarityCuller
	jdVector *JDVectorProvider
	keywords KeywordExtractor
	parse    evaluationParser
	logger   *zerolog.Logger
}

// NewPipeline 校验必需组件并组装流水线
func NewPipeline(comp *Components, set *Settings, opts ...SettingOpt) (*Pipeline, error) {
	if comp == nil {
		return nil, errors.New("components must not be nil")
	}
	if set == nil {
		set = DefaultSettings()
	}
	for _, opt := range opts {
		opt(set)
	}

	var missing []string
	if comp.DocumentExtractor == nil {
		missing = append(missing, "DocumentExtractor")
	}
	if comp.Embedder == nil {
		missing = append(missing, "Embedder")
	}
	if comp.KeywordExtractor == nil {
		missing = append(missing, "KeywordExtractor")
	}
	if comp.CVExtractor == nil {
		missing = append(missing, "CVExtractor")
	}
	if comp.SectionEvaluator == nil {
		missing = append(missing, "SectionEvaluator")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing pipeline components: %s", strings.Join(missing, ", "))
	}

	if set.Logger == nil {
		set.Logger = &logger.Logger
	}

	p := &Pipeline{
		comp:     comp,
		settings: set,
		culler: NewSimilarityCuller(comp.DocumentExtractor, comp.Embedder, comp.CVExtractor,
			WithThreshold(set.SimilarityThreshold),
			WithCVDecoder(comp.CVDecoder),
			WithCullerLogger(set.Logger)),
		jdVector: NewJDVectorProvider(comp.Embedder, comp.Cache, set.EmbeddingModel, set.CacheTTL),
		keywords: NewCachedKeywordExtractor(comp.KeywordExtractor, comp.Cache, set.CacheTTL),
		parse:    ParseCandidatesEvaluation,
		logger:   set.Logger,
	}
	if set.StructuredOutput {
		p.parse = ParseStructuredEvaluation
	}
	p.jdVector.logger = set.Logger
	return p, nil
}

// runState 单次运行的可变状态
type runState struct {
	req      Request
	progress *ProgressReporter
	log      zerolog.Logger
	stages   map[string]time.Duration
	applied  int
}

func (s *runState) timeStage(stage string, start time.Time) {
	s.stages[stage] = time.Since(start)
}

// Run 执行完整的评估流程，返回按最终得分降序排列的候选人。
// 任一阶段失败都会使整个运行失败，不返回部分结果。
func (p *Pipeline) Run(ctx context.Context, req Request) (result []*types.Applicant, err error) {
	ctx, span := tracing.StartSpan(ctx, "pipeline.run",
		tracing.AttrRunID.String(req.RunID),
		tracing.AttrDocuments.Int(len(req.Documents)))
	defer span.End()

	ctx = logger.WithRun(ctx, req.RunID)
	state := &runState{
		req:      req,
		progress: NewProgressReporter(p.comp.Notifier, req.SessionID),
		log:      p.logger.With().Str("run_id", req.RunID).Logger(),
		stages:   make(map[string]time.Duration),
	}
	started := time.Now()

	defer func() {
		if err != nil {
			tracing.RecordError(span, err, tracing.ErrorTypeInternal)
			state.log.Error().Err(err).Dur("duration", time.Since(started)).Msg("评估运行失败")
		}
		p.recordRun(ctx, state, started, err)
	}()

	if len(req.Documents) == 0 {
		return nil, &EvaluationError{RunID: req.RunID, Stage: "validation", Err: ErrNoDocuments}
	}
	if strings.TrimSpace(req.JobDescription) == "" {
		return nil, &EvaluationError{RunID: req.RunID, Stage: "validation", Err: ErrEmptyJobDescription}
	}

	state.progress.Report(ctx, "Evaluation started", ProgressStarted)

	// 1. 关键词抽取
	state.progress.Report(ctx, "Extracting job description keywords", ProgressExtractingKeyword)
	stageStart := time.Now()
	groups, err := p.keywords.ExtractKeywords(ctx, req.JobDescription)
	state.timeStage(StageKeywords, stageStart)
	if err != nil {
		return nil, &EvaluationError{RunID: req.RunID, Stage: StageKeywords, Err: fmt.Errorf("%w: %w", ErrKeywordExtraction, err)}
	}
	state.progress.Report(ctx, "Keywords extracted", ProgressKeywordsExtracted)

	// 2. 相似度筛选
	stageStart = time.Now()
	applicants, err := p.cull(ctx, state)
	state.timeStage(StageCulling, stageStart)
	if err != nil {
		return nil, &EvaluationError{RunID: req.RunID, Stage: StageCulling, Err: err}
	}
	state.applied = len(applicants)
	span.SetAttributes(tracing.AttrApplicants.Int(len(applicants)))

	// 3. 关键词匹配
	stageStart = time.Now()
	p.matchKeywords(ctx, state, groups, applicants)
	state.timeStage(StageMatching, stageStart)

	if len(applicants) == 0 {
		state.log.Info().Msg("没有候选人通过相似度筛选")
		state.progress.Report(ctx, "Evaluation finished", ProgressFinished)
		return []*types.Applicant{}, nil
	}

	// 4. 分类别评估
	state.progress.Report(ctx, "Section evaluation started", ProgressEvaluationStarted)
	stageStart = time.Now()
	evaluations, err := p.evaluateCategories(ctx, state, applicants)
	state.timeStage(StageEvaluation, stageStart)
	if err != nil {
		return nil, err
	}

	// 5. 聚合
	state.progress.Report(ctx, "Aggregating scores", ProgressAggregating)
	stageStart = time.Now()
	for _, a := range applicants {
		if err := Aggregate(a, evaluations); err != nil {
			return nil, &EvaluationError{RunID: req.RunID, Stage: StageAggregate, Err: err}
		}
		logApplicantScores(&state.log, a)
	}
	RankApplicants(applicants)
	state.timeStage(StageAggregate, stageStart)

	state.progress.Report(ctx, "Evaluation finished", ProgressFinished)
	state.log.Info().Int("applicants", len(applicants)).Dur("duration", time.Since(started)).Msg("评估运行完成")
	return applicants, nil
}

func (p *Pipeline) cull(ctx context.Context, state *runState) ([]*types.Applicant, error) {
	ctx, span := tracing.StartSpan(ctx, "pipeline.cull")
	defer span.End()

	jdVector, err := p.jdVector.Vector(ctx, state.req.JobDescription)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeExternal)
		return nil, err
	}
	return p.culler.Cull(ctx, jdVector, state.req.Documents, state.progress)
}

// matchKeywords 关键词分组为空时跳过，分数保持为0
func (p *Pipeline) matchKeywords(ctx context.Context, state *runState, groups types.KeywordGroups, applicants []*types.Applicant) {
	if groups.IsEmpty() {
		state.log.Warn().Msg("关键词分组为空，跳过关键词匹配")
		return
	}
	matcher := NewKeywordMatcher(groups)
	total := len(applicants)
	for i, a := range applicants {
		a.Scores.KeywordsScore = matcher.Score(a.NormalizedText)
		state.progress.Report(ctx, fmt.Sprintf("Keyword matching %d/%d", i+1, total),
			Scaled(ProgressCullingEnd, ProgressMatchingEnd, i+1, total))
	}
}

// evaluateCategories 返回 类别名 -> 姓名键 -> 评估
func (p *Pipeline) evaluateCategories(ctx context.Context, state *runState, applicants []*types.Applicant) (map[string]map[string]types.ApplicantEvaluation, error) {
	cats := Categories()
	results := make([]map[string]types.ApplicantEvaluation, len(cats))
	expected := distinctNames(applicants)

	if !p.settings.ParallelCategories {
		for i, c := range cats {
			res, err := p.evaluateCategory(ctx, state, c, applicants, expected)
			if err != nil {
				return nil, err
			}
			results[i] = res
		}
		return collect(cats, results), nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	for i, c := range cats {
		wg.Add(1)
		go func(i int, c Category) {
			defer wg.Done()
			res, err := p.evaluateCategory(ctx, state, c, applicants, expected)
			if err != nil {
				once.Do(func() {
					firstErr = err
					cancel()
				})
				return
			}
			results[i] = res
		}(i, c)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return collect(cats, results), nil
}

func (p *Pipeline) evaluateCategory(ctx context.Context, state *runState, c Category, applicants []*types.Applicant, expected int) (map[string]types.ApplicantEvaluation, error) {
	ctx, span := tracing.StartSpan(ctx, "pipeline.evaluate_category", tracing.AttrCategory.String(c.Name))
	defer span.End()

	blob := BuildSectionBlob(c, applicants)
	policy := ratelimit.NewRetryPolicy(p.settings.MaxAttempts, p.settings.RetryDelay)
	policy.OnRetry = func(attempt, maxAttempts int, err error) {
		state.log.Warn().Err(err).Str("category", c.Name).Int("attempt", attempt).Msg("类别评估失败，准备重试")
		state.progress.Report(ctx, fmt.Sprintf("Retrying %s evaluation (attempt %d/%d)…", c.Name, attempt, maxAttempts),
			state.progress.Current())
	}

	res, err := ratelimit.DoValue(ctx, policy, func(ctx context.Context) (map[string]types.ApplicantEvaluation, error) {
		raw, err := p.comp.SectionEvaluator.Evaluate(ctx, c.Name, c.Prompt, blob, state.req.JobDescription)
		if err != nil {
			return nil, err
		}
		res, err := p.parse(raw, expected)
		if err != nil {
			return nil, err
		}
		return res, requireSurvivors(res, applicants)
	})
	if err != nil {
		errType := tracing.ErrorTypeExternal
		if errors.Is(err, ErrNameMismatch) || errors.Is(err, ErrMalformedEvaluation) || errors.Is(err, ErrIncompleteRatings) {
			errType = tracing.ErrorTypeParse
		}
		tracing.RecordError(span, err, errType)
		return nil, &EvaluationError{
			RunID:    state.req.RunID,
			Stage:    StageEvaluation,
			Category: c.Name,
			Err:      fmt.Errorf("%w: %w", ErrSectionEvaluation, err),
		}
	}

	state.progress.Report(ctx, c.Header+" evaluated", c.Checkpoint)
	return res, nil
}

func collect(cats []Category, results []map[string]types.ApplicantEvaluation) map[string]map[string]types.ApplicantEvaluation {
	out := make(map[string]map[string]types.ApplicantEvaluation, len(cats))
	for i, c := range cats {
		out[c.Name] = results[i]
	}
	return out
}

// requireSurvivors 每位候选人都必须在解析结果中有评分，否则按解析失败交给重试
func requireSurvivors(res map[string]types.ApplicantEvaluation, applicants []*types.Applicant) error {
	for _, a := range applicants {
		key := NormalizeName(a.CV.Name)
		if _, ok := res[key]; !ok {
			return &NameMismatchError{Name: key, Known: sortedKeys(res)}
		}
	}
	return nil
}

// distinctNames 同名候选人在批量响应中只对应一条评分
func distinctNames(applicants []*types.Applicant) int {
	seen := make(map[string]struct{}, len(applicants))
	for _, a := range applicants {
		seen[NormalizeName(a.CV.Name)] = struct{}{}
	}
	return len(seen)
}

func (p *Pipeline) recordRun(ctx context.Context, state *runState, started time.Time, runErr error) {
	if p.comp.Recorder == nil {
		return
	}
	record := RunRecord{
		RunID:          state.req.RunID,
		JDHash:         utils.SHA256Hex(state.req.JobDescription),
		DocumentCount:  len(state.req.Documents),
		ApplicantCount: state.applied,
		Status:         RunStatusSucceeded,
		StartedAt:      started,
		Duration:       time.Since(started),
		StageDurations: state.stages,
	}
	if runErr != nil {
		record.Status = RunStatusFailed
		record.ErrorMessage = utils.Truncate(runErr.Error(), 500)
		var evalErr *EvaluationError
		if errors.As(runErr, &evalErr) {
			record.FailedStage = evalErr.Stage
		}
	}

	// 运行本身可能因取消而结束，审计写入不受其影响
	recordCtx, cancel := context.WithTimeout(trace.ContextWithSpan(context.Background(), trace.SpanFromContext(ctx)), 5*time.Second)
	defer cancel()
	if err := p.comp.Recorder.RecordRun(recordCtx, record); err != nil {
		state.log.Warn().Err(err).Msg("写入运行审计记录失败")
	}
}
