package processor

import (
	"errors"
	"fmt"
	"strings"
)

// 定义基础错误类型
var (
	ErrNoDocuments          = errors.New("no documents supplied")
	ErrEmptyJobDescription  = errors.New("job description is empty")
	ErrKeywordExtraction    = errors.New("keyword extraction failed")
	ErrSectionEvaluation    = errors.New("section evaluation failed")
	ErrNameMismatch         = errors.New("candidate name mismatch between narratives and ratings")
	ErrIncompleteRatings    = errors.New("fewer ratings than candidates")
	ErrMalformedEvaluation  = errors.New("malformed evaluation response")
	ErrVectorLengthMismatch = errors.New("vector lengths must match")
	ErrMissingCandidateName = errors.New("cv has no candidate name")
)

// 流水线阶段
const (
	StageKeywords   = "keywords"
	StageCulling    = "culling"
	StageMatching   = "keyword_matching"
	StageEvaluation = "evaluation"
	StageAggregate  = "aggregation"
)

// EvaluationError 包含运行ID、阶段和类别的错误
type EvaluationError struct {
	RunID    string
	Stage    string
	Category string
	Err      error
}

func (e *EvaluationError) Error() string {
	if e.Category != "" {
		return fmt.Sprintf("run %s: %s[%s]: %v", e.RunID, e.Stage, e.Category, e.Err)
	}
	return fmt.Sprintf("run %s: %s: %v", e.RunID, e.Stage, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	return e.Err
}

// Is 实现 errors.Is 接口以支持错误比较
func (e *EvaluationError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NameMismatchError 评分中的名字在叙述或候选人中找不到
type NameMismatchError struct {
	Name  string
	Known []string
}

func (e *NameMismatchError) Error() string {
	return fmt.Sprintf("%v: %q not found (known: %s)", ErrNameMismatch, e.Name, strings.Join(e.Known, ", "))
}

func (e *NameMismatchError) Unwrap() error {
	return ErrNameMismatch
}
