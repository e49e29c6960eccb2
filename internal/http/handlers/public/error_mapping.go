package public

import (
	"errors"

	"github.com/autoprofit/internal/http/response"
	"github.com/autoprofit/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	msg    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackMsg string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			if rule.code >= response.CodeInternal {
				respondError(c, rule.code, rule.msg, err)
				return
			}
			respondError(c, rule.code, rule.msg, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackMsg, err)
}

var redirectErrorRules = []mappedHandlerError{
	{target: service.ErrPageNotFound, code: response.CodeNotFound, msg: "unknown campaign slug"},
}

var pageErrorRules = []mappedHandlerError{
	{target: service.ErrPageNotFound, code: response.CodeNotFound, msg: "page not found"},
}

var pipelineErrorRules = []mappedHandlerError{
	{target: service.ErrPipelineBusy, code: response.CodeConflict, msg: "pipeline run already in progress"},
}

var checkoutErrorRules = []mappedHandlerError{
	{target: service.ErrStripeNotConfigured, code: response.CodeServiceUnavailable, msg: "stripe is not configured"},
	{target: service.ErrStripeUpstream, code: response.CodeBadGateway, msg: "stripe error"},
}

var webhookErrorRules = []mappedHandlerError{
	{target: service.ErrStripeWebhookNotConfigured, code: response.CodeServiceUnavailable, msg: "stripe webhook is not configured"},
	{target: service.ErrWebhookSignatureInvalid, code: response.CodeBadRequest, msg: "invalid stripe signature"},
	{target: service.ErrWebhookPayloadInvalid, code: response.CodeBadRequest, msg: "webhook parsing error"},
}

var subscriptionStatusErrorRules = []mappedHandlerError{
	{target: service.ErrEmailRequired, code: response.CodeBadRequest, msg: "email is required"},
}
