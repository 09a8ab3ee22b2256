package storage

import "time"

// ProgressMessage 评估进度事件
type ProgressMessage struct {
	SessionID string    `json:"session_id"`
	Message   string    `json:"message"`
	Percent   int       `json:"percent"`
	Timestamp time.Time `json:"timestamp"`
}

// RunFinishedMessage 评估运行结束事件，只包含元数据
type RunFinishedMessage struct {
	RunID          string    `json:"run_id"`
	Status         string    `json:"status"`
	FailedStage    string    `json:"failed_stage,omitempty"`
	DocumentCount  int       `json:"document_count"`
	ApplicantCount int       `json:"applicant_count"`
	DurationMS     int64     `json:"duration_ms"`
	FinishedAt     time.Time `json:"finished_at"`
}

// 事件路由
const (
	ProgressRoutingKeyPrefix = "progress."
	RunFinishedEventType     = "evaluation.run.finished"
	RunRoutingKeyPrefix      = "run."
)
