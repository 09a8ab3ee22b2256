package processor

import (
	"context"
	"time"

	"ats-evaluator/internal/types"
)

//
// 外部协作者接口
//

// DocumentExtractor 文档转文本
type DocumentExtractor interface {
	ExtractText(ctx context.Context, name string, data []byte) (string, error)
}

// KeywordExtractor 从JD中抽取关键词分组
type KeywordExtractor interface {
	ExtractKeywords(ctx context.Context, jobDescription string) (types.KeywordGroups, error)
}

// CVExtractor 把简历文本转换为 CV JSON 文本
type CVExtractor interface {
	ExtractCV(ctx context.Context, text string) (string, error)
}

// SectionEvaluator 对一个类别的全部候选人做一次批量评估，返回原始响应
type SectionEvaluator interface {
	Evaluate(ctx context.Context, category, categoryPrompt, blob, jobDescription string) (string, error)
}

// ProgressNotifier 进度推送，尽力而为，不向调用方返回错误
type ProgressNotifier interface {
	Notify(ctx context.Context, sessionID, message string, percent int)
}

//
// 存储相关接口
//

// JDCache 缓存JD向量和关键词分组，未命中时 found 为 false
type JDCache interface {
	GetJDVector(ctx context.Context, key string) (vector []float64, found bool, err error)
	SetJDVector(ctx context.Context, key string, vector []float64, ttl time.Duration) error
	GetKeywordGroups(ctx context.Context, key string) (groups types.KeywordGroups, found bool, err error)
	SetKeywordGroups(ctx context.Context, key string, groups types.KeywordGroups, ttl time.Duration) error
}

// RunRecord 一次评估运行的元数据，不包含任何候选人信息
type RunRecord struct {
	RunID          string
	JDHash         string
	DocumentCount  int
	ApplicantCount int
	Status         string // succeeded 或 failed
	FailedStage    string
	ErrorMessage   string
	StartedAt      time.Time
	Duration       time.Duration
	StageDurations map[string]time.Duration
}

// 运行状态
const (
	RunStatusSucceeded = "succeeded"
	RunStatusFailed    = "failed"
)

// RunRecorder 记录运行元数据
type RunRecorder interface {
	RecordRun(ctx context.Context, record RunRecord) error
}
