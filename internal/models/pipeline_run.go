package models

import "time"

// PipelineRun 流水线执行记录
type PipelineRun struct {
	ID         uint       `gorm:"primarykey" json:"id"`                    // 主键
	Trigger    string     `gorm:"type:varchar(32);index" json:"trigger"`   // 触发来源（cli/cron/schedule）
	Status     string     `gorm:"type:varchar(32);index" json:"status"`    // 执行状态
	DryRun     bool       `gorm:"default:false" json:"dry_run"`            // 是否试运行
	Summary    JSON       `gorm:"type:json" json:"summary"`                // 执行摘要
	StartedAt  time.Time  `gorm:"index;not null" json:"started_at"`        // 开始时间
	FinishedAt *time.Time `json:"finished_at"`                             // 结束时间
}

// TableName 指定表名
func (PipelineRun) TableName() string {
	return "pipeline_runs"
}
