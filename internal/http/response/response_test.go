package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestErrorUsesStatusCodeAndRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set("request_id", "req-1")

	NotFound(c, "page not found")

	if w.Code != http.StatusNotFound {
		t.Fatalf("status want 404 got %d", w.Code)
	}
	var resp struct {
		StatusCode int               `json:"status_code"`
		Msg        string            `json:"msg"`
		Data       map[string]string `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response failed: %v", err)
	}
	if resp.StatusCode != CodeNotFound || resp.Msg != "page not found" || resp.Data["request_id"] != "req-1" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestErrorFallsBackToInternalStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Error(c, 7, "odd")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status want 500 got %d", w.Code)
	}
}

func TestAppErrorUnwrap(t *testing.T) {
	base := errors.New("boom")
	appErr := WrapError(CodeInternal, "failed", base)
	if !errors.Is(appErr, base) {
		t.Fatalf("app error should unwrap to base")
	}
	if appErr.Error() != "failed: boom" {
		t.Fatalf("unexpected message: %s", appErr.Error())
	}

	outer := fmt.Errorf("checkout: %w", WrapError(CodeBadGateway, "stripe error", base))
	rewrapped := WrapError(CodeInternal, "failed", outer)
	if rewrapped.Code != CodeBadGateway || rewrapped.Message != "stripe error" {
		t.Fatalf("existing app error should be reused, got %+v", rewrapped)
	}
}

func TestBuildPaginationRoundsUp(t *testing.T) {
	cases := []struct {
		total    int64
		pageSize int
		want     int64
	}{
		{total: 0, pageSize: 20, want: 0},
		{total: 20, pageSize: 20, want: 1},
		{total: 21, pageSize: 20, want: 2},
		{total: 5, pageSize: 0, want: 0},
	}
	for _, tc := range cases {
		got := BuildPagination(1, tc.pageSize, tc.total)
		if got.TotalPage != tc.want {
			t.Fatalf("total=%d size=%d want %d pages got %d", tc.total, tc.pageSize, tc.want, got.TotalPage)
		}
	}
}
