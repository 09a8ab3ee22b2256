package processor

import (
	"context"
	"sync"
)

// 各阶段的进度百分比
const (
	ProgressStarted           = 0
	ProgressExtractingKeyword = 5
	ProgressKeywordsExtracted = 10
	ProgressCullingEnd        = 35
	ProgressMatchingEnd       = 45
	ProgressEvaluationStarted = 45
	ProgressAggregating       = 95
	ProgressFinished          = 100
)

type noopNotifier struct{}

func (noopNotifier) Notify(context.Context, string, string, int) {}

// ProgressReporter 单个会话的进度上报器，百分比截断到 [0,100] 且单调不减。
// 可安全地被多个 goroutine 同时调用。
type ProgressReporter struct {
	notifier  ProgressNotifier
	sessionID string

	mu      sync.Mutex
	current int
}

// NewProgressReporter notifier 为 nil 时不推送任何消息
func NewProgressReporter(notifier ProgressNotifier, sessionID string) *ProgressReporter {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &ProgressReporter{notifier: notifier, sessionID: sessionID}
}

// Report 推送一条进度消息，低于当前值的百分比按当前值推送
func (r *ProgressReporter) Report(ctx context.Context, message string, percent int) {
	if r == nil {
		return
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if percent < r.current {
		percent = r.current
	}
	r.current = percent
	r.notifier.Notify(ctx, r.sessionID, message, percent)
}

// Current 返回最近一次推送的百分比
func (r *ProgressReporter) Current() int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// SessionID 返回会话ID
func (r *ProgressReporter) SessionID() string {
	if r == nil {
		return ""
	}
	return r.sessionID
}

// Scaled 把第 i 个(共 n 个)线性映射到 [lo,hi]
func Scaled(lo, hi, i, n int) int {
	if n <= 0 || i >= n {
		return hi
	}
	if i <= 0 {
		return lo
	}
	return lo + (hi-lo)*i/n
}
