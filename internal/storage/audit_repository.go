package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ats-evaluator/internal/processor"
	"ats-evaluator/internal/storage/models"
	"ats-evaluator/pkg/utils"

	"gorm.io/gorm"
)

// AuditRepository 记录评估运行元数据，实现 processor.RunRecorder。
// 配置了 exchange 时，运行结束事件与审计记录在同一事务中写入发件箱。
type AuditRepository struct {
	db       *gorm.DB
	exchange string
}

var _ processor.RunRecorder = (*AuditRepository)(nil)

// NewAuditRepository exchange 为空时不写发件箱
func NewAuditRepository(m *MySQL, exchange string) *AuditRepository {
	return &AuditRepository{db: m.DB(), exchange: exchange}
}

// RecordRun 写入一条运行记录
func (r *AuditRepository) RecordRun(ctx context.Context, record processor.RunRecord) error {
	stages := make(map[string]int64, len(record.StageDurations))
	for stage, d := range record.StageDurations {
		stages[stage] = d.Milliseconds()
	}

	run := &models.EvaluationRun{
		RunID:              record.RunID,
		JDHash:             record.JDHash,
		DocumentCount:      record.DocumentCount,
		ApplicantCount:     record.ApplicantCount,
		Status:             record.Status,
		FailedStage:        record.FailedStage,
		ErrorMessage:       record.ErrorMessage,
		StageDurationsJSON: utils.ConvertToJSON(stages),
		DurationMS:         record.Duration.Milliseconds(),
		StartedAt:          record.StartedAt,
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(run).Error; err != nil {
			return fmt.Errorf("写入运行记录失败: %w", err)
		}
		if r.exchange == "" {
			return nil
		}

		payload, err := json.Marshal(RunFinishedMessage{
			RunID:          record.RunID,
			Status:         record.Status,
			FailedStage:    record.FailedStage,
			DocumentCount:  record.DocumentCount,
			ApplicantCount: record.ApplicantCount,
			DurationMS:     record.Duration.Milliseconds(),
			FinishedAt:     record.StartedAt.Add(record.Duration).UTC().Truncate(time.Millisecond),
		})
		if err != nil {
			return fmt.Errorf("序列化运行事件失败: %w", err)
		}
		msg := &models.OutboxMessage{
			AggregateID:      record.RunID,
			EventType:        RunFinishedEventType,
			Payload:          string(payload),
			TargetExchange:   r.exchange,
			TargetRoutingKey: RunRoutingKeyPrefix + record.Status,
			Status:           models.OutboxStatusPending,
		}
		if err := tx.Create(msg).Error; err != nil {
			return fmt.Errorf("写入发件箱消息失败: %w", err)
		}
		return nil
	})
}
