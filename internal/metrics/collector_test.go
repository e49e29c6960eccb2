package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHandlerExposesBusinessMetrics(t *testing.T) {
	c := NewCollector()
	c.ObservePipelineRun("success", 2*time.Second)
	c.IncPublished()
	c.IncSkipped("no_offer")
	c.IncClick()
	c.IncWebhook("", "ignored")

	server := httptest.NewServer(Handler(NewRegistry(c)))
	defer server.Close()

	resp, err := server.Client().Get(server.URL)
	if err != nil {
		t.Fatalf("scrape failed: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	text := string(body)

	for _, want := range []string{
		`autoprofit_pipeline_runs_total{status="success"} 1`,
		`autoprofit_pages_published_total 1`,
		`autoprofit_keywords_skipped_total{reason="no_offer"} 1`,
		`autoprofit_redirect_clicks_total 1`,
		`autoprofit_stripe_webhook_events_total{event_type="unknown",result="ignored"} 1`,
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("metric %q missing from scrape", want)
		}
	}
}

func TestNilCollectorIsNoop(t *testing.T) {
	var c *Collector
	c.ObservePipelineRun("failed", time.Second)
	c.IncPublished()
	c.IncSkipped("word_count")
	c.IncClick()
	c.IncWebhook("checkout.session.completed", "applied")
}
