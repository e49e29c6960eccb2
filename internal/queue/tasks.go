package queue

import (
	"encoding/json"

	"github.com/autoprofit/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskPipelineRun 定时流水线任务
	TaskPipelineRun = constants.TaskPipelineRun
	// TaskAlertDispatch 告警投递任务
	TaskAlertDispatch = constants.TaskAlertDispatch
)

// PipelineRunPayload 流水线任务载荷
type PipelineRunPayload struct {
	Trigger string `json:"trigger"`
	Limit   int    `json:"limit,omitempty"`
	DryRun  bool   `json:"dry_run,omitempty"`
}

// AlertDispatchPayload 告警任务载荷
type AlertDispatchPayload struct {
	Source  string                 `json:"source"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// NewPipelineRunTask 创建流水线任务
func NewPipelineRunTask(payload PipelineRunPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskPipelineRun, body), nil
}

// NewAlertDispatchTask 创建告警任务
func NewAlertDispatchTask(payload AlertDispatchPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAlertDispatch, body), nil
}
