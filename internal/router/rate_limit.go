package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/autoprofit/internal/http/response"
	"github.com/autoprofit/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimitKeyFunc 生成限流 key 的函数
type RateLimitKeyFunc func(*gin.Context) string

// RateLimitRule 限流规则
type RateLimitRule struct {
	Prefix        string
	WindowSeconds int
	MaxRequests   int
	Message       string
	FailOpen      bool // Redis 异常时放行
}

// Enabled 规则是否生效
func (r RateLimitRule) Enabled() bool {
	return r.WindowSeconds > 0 && r.MaxRequests > 0
}

// rateLimitDecision 单次计数后的判定结果
type rateLimitDecision struct {
	Allowed    bool
	Remaining  int
	RetryAfter int
}

var errRateLimitResult = errors.New("unexpected rate limit result")

// 固定窗口计数：首次写入时设置过期
var rateLimitScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
	redis.call("EXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("TTL", KEYS[1])
return {current, ttl}
`)

// RateLimitMiddleware Redis 频率限制中间件，client 为空或规则未配置时不限流
func RateLimitMiddleware(client *redis.Client, rule RateLimitRule, keyFunc RateLimitKeyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if client == nil || !rule.Enabled() {
			c.Next()
			return
		}

		key := rateLimitKey(c, rule, keyFunc)
		decision, err := countRequest(c.Request.Context(), client, key, rule)
		if err != nil {
			if rule.FailOpen {
				logger.Warnw("rate_limit_unavailable", "key", key, "error", err)
				c.Next()
				return
			}
			response.Error(c, response.CodeInternal, "rate limit unavailable")
			c.Abort()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(rule.MaxRequests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		if !decision.Allowed {
			msg := strings.TrimSpace(rule.Message)
			if msg == "" {
				msg = "too many requests"
			}
			c.Header("Retry-After", strconv.Itoa(decision.RetryAfter))
			response.Error(c, response.CodeTooManyRequests, msg)
			c.Abort()
			return
		}

		c.Next()
	}
}

func rateLimitKey(c *gin.Context, rule RateLimitRule, keyFunc RateLimitKeyFunc) string {
	key := ""
	if keyFunc != nil {
		key = strings.TrimSpace(keyFunc(c))
	}
	if key == "" {
		key = c.ClientIP()
	}
	if rule.Prefix != "" {
		key = fmt.Sprintf("%s:%s", rule.Prefix, key)
	}
	return key
}

func countRequest(ctx context.Context, client *redis.Client, key string, rule RateLimitRule) (rateLimitDecision, error) {
	result, err := rateLimitScript.Run(ctx, client, []string{key}, rule.WindowSeconds).Result()
	if err != nil {
		return rateLimitDecision{}, err
	}
	values, ok := result.([]interface{})
	if !ok || len(values) < 2 {
		return rateLimitDecision{}, errRateLimitResult
	}
	count, ok := toInt64(values[0])
	if !ok {
		return rateLimitDecision{}, errRateLimitResult
	}
	ttlSeconds, _ := toInt64(values[1])
	return decideRateLimit(count, ttlSeconds, rule), nil
}

// decideRateLimit 根据窗口内计数与剩余 TTL 得出判定
func decideRateLimit(count, ttlSeconds int64, rule RateLimitRule) rateLimitDecision {
	remaining := int64(rule.MaxRequests) - count
	if remaining < 0 {
		remaining = 0
	}
	if count <= int64(rule.MaxRequests) {
		return rateLimitDecision{Allowed: true, Remaining: int(remaining)}
	}
	wait := int(ttlSeconds)
	if wait < 1 {
		wait = rule.WindowSeconds
	}
	if wait < 1 {
		wait = 1
	}
	return rateLimitDecision{Allowed: false, Remaining: 0, RetryAfter: wait}
}

// KeyByIP 使用 IP 作为限流 key
func KeyByIP(c *gin.Context) string {
	return c.ClientIP()
}

// KeyByIPAndJSONField 使用 IP + JSON 字段作为限流 key
func KeyByIPAndJSONField(field string) RateLimitKeyFunc {
	return func(c *gin.Context) string {
		value := strings.ToLower(strings.TrimSpace(readJSONField(c, field)))
		if value == "" {
			return c.ClientIP()
		}
		return fmt.Sprintf("%s|%s", value, c.ClientIP())
	}
}

// readJSONField 读取请求体中的字符串字段，读取后恢复请求体
func readJSONField(c *gin.Context, field string) string {
	if c == nil || c.Request == nil || c.Request.Body == nil {
		return ""
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return ""
	}
	c.Request.Body = io.NopCloser(bytes.NewBuffer(body))
	if len(body) == 0 {
		return ""
	}
	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if text, ok := payload[field].(string); ok {
		return strings.TrimSpace(text)
	}
	return ""
}

func toInt64(value interface{}) (int64, bool) {
	switch v := value.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case uint64:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint8:
		return int64(v), true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}
