package cache

import (
	"context"
	"testing"
	"time"

	"github.com/autoprofit/internal/config"
)

func TestDisabledCacheIsNoop(t *testing.T) {
	if err := InitRedis(&config.RedisConfig{Enabled: false}); err != nil {
		t.Fatalf("init disabled redis failed: %v", err)
	}
	if Enabled() || Client() != nil {
		t.Fatalf("cache should be disabled")
	}
	ctx := context.Background()
	var dest map[string]int
	hit, err := GetJSON(ctx, "metrics", &dest)
	if err != nil || hit {
		t.Fatalf("disabled cache should miss without error, hit=%v err=%v", hit, err)
	}
	if err := SetJSON(ctx, "metrics", map[string]int{"pages": 1}, time.Second); err != nil {
		t.Fatalf("disabled set should not fail: %v", err)
	}
	ok, err := SetNX(ctx, "lock", "1", time.Second)
	if err != nil || !ok {
		t.Fatalf("disabled setnx should succeed, ok=%v err=%v", ok, err)
	}
	if err := Ping(ctx); err != nil {
		t.Fatalf("disabled ping should not fail: %v", err)
	}
}

func TestKeyAddsPrefix(t *testing.T) {
	if got := Key(" metrics:summary "); got != redisPrefix+":metrics:summary" {
		t.Fatalf("unexpected key: %s", got)
	}
	if got := Key(""); got != redisPrefix {
		t.Fatalf("empty key should be prefix only, got %s", got)
	}
}

func TestRedisAddrDefaults(t *testing.T) {
	if got := redisAddr("", 0); got != "127.0.0.1:6379" {
		t.Fatalf("unexpected default addr: %s", got)
	}
	if got := redisAddr(" redis ", 6380); got != "redis:6380" {
		t.Fatalf("unexpected addr: %s", got)
	}
}
