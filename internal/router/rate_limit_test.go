package router

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestKeyByIPAndJSONFieldRestoresBody(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/stripe/checkout", strings.NewReader(`{"email":" Buyer@Example.com "}`))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Request.RemoteAddr = "1.2.3.4:5678"

	key := KeyByIPAndJSONField("email")(c)
	if key != "buyer@example.com|1.2.3.4" {
		t.Fatalf("key want buyer@example.com|1.2.3.4 got %s", key)
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		t.Fatalf("read body after key extraction failed: %v", err)
	}
	if !strings.Contains(string(body), "Buyer@Example.com") {
		t.Fatalf("request body should be restored after reading field")
	}
}

func TestKeyByIPAndJSONFieldFallsBackToIP(t *testing.T) {
	gin.SetMode(gin.TestMode)

	for _, body := range []string{``, `not json`, `{"email":42}`} {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/api/stripe/checkout", strings.NewReader(body))
		c.Request.RemoteAddr = "5.6.7.8:1000"
		if key := KeyByIPAndJSONField("email")(c); key != "5.6.7.8" {
			t.Fatalf("body %q: key want ip got %s", body, key)
		}
	}
}

func TestRateLimitKeyPrefix(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/go/x", nil)
	c.Request.RemoteAddr = "9.9.9.9:80"

	if key := rateLimitKey(c, RateLimitRule{Prefix: "ap:rate:redirect"}, KeyByIP); key != "ap:rate:redirect:9.9.9.9" {
		t.Fatalf("unexpected key: %s", key)
	}
	if key := rateLimitKey(c, RateLimitRule{}, func(*gin.Context) string { return " " }); key != "9.9.9.9" {
		t.Fatalf("empty key should fall back to ip, got %s", key)
	}
}

func TestDecideRateLimit(t *testing.T) {
	rule := RateLimitRule{WindowSeconds: 60, MaxRequests: 2}
	cases := []struct {
		name      string
		count     int64
		ttl       int64
		allowed   bool
		remaining int
		retry     int
	}{
		{name: "first", count: 1, ttl: 60, allowed: true, remaining: 1},
		{name: "at limit", count: 2, ttl: 30, allowed: true, remaining: 0},
		{name: "over limit", count: 3, ttl: 25, allowed: false, retry: 25},
		{name: "missing ttl", count: 5, ttl: -1, allowed: false, retry: 60},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := decideRateLimit(tc.count, tc.ttl, rule)
			if got.Allowed != tc.allowed || got.Remaining != tc.remaining || got.RetryAfter != tc.retry {
				t.Fatalf("unexpected decision: %+v", got)
			}
		})
	}
}

func TestRateLimitMiddlewareWithoutClient(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RateLimitMiddleware(nil, RateLimitRule{WindowSeconds: 60, MaxRequests: 1}, KeyByIP))
	r.GET("/go/:slug", func(c *gin.Context) {
		c.Redirect(http.StatusTemporaryRedirect, "https://example.com")
	})

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/go/x", nil))
		if w.Code != http.StatusTemporaryRedirect {
			t.Fatalf("request %d: status want 307 got %d", i, w.Code)
		}
	}
}

func TestToInt64(t *testing.T) {
	cases := []struct {
		name  string
		input interface{}
		want  int64
		ok    bool
	}{
		{name: "int64", input: int64(10), want: 10, ok: true},
		{name: "int", input: int(11), want: 11, ok: true},
		{name: "uint8", input: uint8(12), want: 12, ok: true},
		{name: "float64", input: float64(13.9), want: 13, ok: true},
		{name: "string", input: "bad", want: 0, ok: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := toInt64(tc.input)
			if ok != tc.ok {
				t.Fatalf("ok want %v got %v", tc.ok, ok)
			}
			if got != tc.want {
				t.Fatalf("value want %d got %d", tc.want, got)
			}
		})
	}
}
