package queue

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/autoprofit/internal/config"
)

func TestDisabledClientSkipsEnqueue(t *testing.T) {
	client, err := NewClient(&config.QueueConfig{Enabled: false})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	if client.Enabled() {
		t.Fatalf("client should be disabled")
	}
	queued, err := client.EnqueuePipelineRun(PipelineRunPayload{Trigger: "schedule"}, time.Minute)
	if err != nil || queued {
		t.Fatalf("disabled enqueue should be noop, queued=%v err=%v", queued, err)
	}
	if err := client.EnqueueAlertDispatch(AlertDispatchPayload{Message: "x"}); err != nil {
		t.Fatalf("disabled alert enqueue should be noop: %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
}

func TestBuildServerConfigDefaults(t *testing.T) {
	opt, cfg := BuildServerConfig(&config.QueueConfig{Host: "redis", Port: 6380, DB: 2})
	if opt.Addr != "redis:6380" || opt.DB != 2 {
		t.Fatalf("unexpected redis opt: %+v", opt)
	}
	if cfg.Concurrency != 2 {
		t.Fatalf("unexpected concurrency: %d", cfg.Concurrency)
	}
	if cfg.Queues[CriticalQueue] == 0 || cfg.Queues[DefaultQueue] == 0 {
		t.Fatalf("default queues missing: %+v", cfg.Queues)
	}
}

func TestNewPipelineRunTaskPayload(t *testing.T) {
	task, err := NewPipelineRunTask(PipelineRunPayload{Trigger: "schedule", Limit: 2})
	if err != nil {
		t.Fatalf("new task failed: %v", err)
	}
	if task.Type() != TaskPipelineRun {
		t.Fatalf("unexpected task type: %s", task.Type())
	}
	var payload PipelineRunPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		t.Fatalf("decode payload failed: %v", err)
	}
	if payload.Trigger != "schedule" || payload.Limit != 2 {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}
