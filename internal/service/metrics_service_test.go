package service

import (
	"context"
	"testing"
	"time"

	"github.com/autoprofit/internal/models"
	"github.com/autoprofit/internal/repository"
)

func TestMetricsSummaryCountsRows(t *testing.T) {
	db := setupServiceTestDB(t)
	pages := repository.NewPageRepository(db)
	clicks := repository.NewClickRepository(db)
	subs := repository.NewSubscriptionRepository(db)
	runs := repository.NewPipelineRunRepository(db)

	now := time.Now()
	for _, slug := range []string{"best-running-shoes", "shopify-store-builder"} {
		if err := pages.Upsert(&models.Page{Slug: slug, Title: slug, Keyword: slug, OfferID: "trailpro", OfferURL: "https://shop.example.com/", UpdatedAt: now}); err != nil {
			t.Fatalf("seed page failed: %v", err)
		}
	}
	for _, at := range []time.Time{now, now.Add(-48 * time.Hour)} {
		if err := clicks.Create(&models.ClickEvent{Slug: "best-running-shoes", DestinationURL: "https://shop.example.com/", CreatedAt: at}); err != nil {
			t.Fatalf("seed click failed: %v", err)
		}
	}
	for id, status := range map[string]string{"sub_1": "active", "sub_2": "canceled", "sub_3": "trialing"} {
		if err := subs.Upsert(&models.Subscription{StripeSubscriptionID: id, Status: status, SourceEvent: "test", UpdatedAt: now}); err != nil {
			t.Fatalf("seed subscription failed: %v", err)
		}
	}
	if err := runs.Start(&models.PipelineRun{Trigger: "cli", Status: "running", StartedAt: now}); err != nil {
		t.Fatalf("seed run failed: %v", err)
	}

	svc := NewMetricsService(pages, clicks, subs, runs)
	summary, err := svc.Summary(context.Background(), true)
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	if summary.Pages != 2 || summary.Clicks != 2 || summary.Clicks24h != 1 || summary.Runs != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if summary.Subscriptions != 3 || summary.ActiveSubscriptions != 2 {
		t.Fatalf("unexpected subscription counts: %+v", summary)
	}
}
