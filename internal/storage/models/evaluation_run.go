package models

import (
	"time"

	"gorm.io/datatypes"
)

// EvaluationRun 评估运行审计表，只记录运行元数据，不包含候选人信息
type EvaluationRun struct {
	RunID              string         `gorm:"type:char(36);primaryKey"`
	JDHash             string         `gorm:"type:char(64);not null;index:idx_evaluation_runs_jd_hash"`
	DocumentCount      int            `gorm:"not null"`
	ApplicantCount     int            `gorm:"not null"`
	Status             string         `gorm:"type:varchar(20);not null;index:idx_evaluation_runs_status"`
	FailedStage        string         `gorm:"type:varchar(50)"`
	ErrorMessage       string         `gorm:"type:text"`
	StageDurationsJSON datatypes.JSON `gorm:"type:json"`
	DurationMS         int64          `gorm:"not null"`
	StartedAt          time.Time      `gorm:"type:datetime(6);not null"`
	CreatedAt          time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
}

func (EvaluationRun) TableName() string {
	return "evaluation_runs"
}
