package public

import (
	"errors"
	"fmt"

	"github.com/autoprofit/internal/constants"
	"github.com/autoprofit/internal/http/response"
	"github.com/autoprofit/internal/service"

	"github.com/gin-gonic/gin"
)

// CronRunQuery cron 触发参数
type CronRunQuery struct {
	Limit  int  `form:"limit"`
	DryRun bool `form:"dry_run"`
}

// CronRun 同步执行一次流水线
func (h *Handler) CronRun(c *gin.Context) {
	var query CronRunQuery
	if err := c.ShouldBindQuery(&query); err != nil || query.Limit < 0 {
		response.BadRequest(c, "invalid query")
		return
	}
	if query.Limit > service.MaxRunLimit {
		response.BadRequest(c, fmt.Sprintf("limit must not exceed %d", service.MaxRunLimit))
		return
	}
	summary, err := h.PipelineService.Run(c.Request.Context(), service.PipelineRunInput{
		Limit:   query.Limit,
		DryRun:  query.DryRun,
		Trigger: constants.RunTriggerCron,
	})
	if err != nil {
		if errors.Is(err, service.ErrPipelineFailed) && summary != nil {
			requestLog(c).Errorw("cron_pipeline_run_failed", "run_id", summary.RunID, "error", err)
			response.ErrorWithData(c, response.CodeInternal, "pipeline run failed", summary)
			return
		}
		respondWithMappedError(c, err, pipelineErrorRules, response.CodeInternal, "pipeline run failed")
		return
	}
	response.Success(c, summary)
}

// Metrics 聚合统计，refresh=1 跳过缓存
func (h *Handler) Metrics(c *gin.Context) {
	summary, err := h.MetricsService.Summary(c.Request.Context(), c.Query("refresh") == "1")
	if err != nil {
		respondError(c, response.CodeInternal, "metrics unavailable", err)
		return
	}
	response.Success(c, summary)
}
