package repository

import (
	"testing"
	"time"

	"github.com/autoprofit/internal/models"

	"gorm.io/gorm"
)

func TestSubscriptionUpsertKeepsEmailWhenMissing(t *testing.T) {
	repo := NewSubscriptionRepository(setupRepositoryTestDB(t))
	now := time.Now()

	if err := repo.Upsert(&models.Subscription{
		StripeSubscriptionID: "sub_1",
		CustomerEmail:        "buyer@example.com",
		Status:               "active",
		SourceEvent:          "checkout.session.completed",
		UpdatedAt:            now,
	}); err != nil {
		t.Fatalf("insert subscription failed: %v", err)
	}
	if err := repo.Upsert(&models.Subscription{
		StripeSubscriptionID: "sub_1",
		Status:               "canceled",
		SourceEvent:          "customer.subscription.deleted",
		UpdatedAt:            now.Add(time.Minute),
	}); err != nil {
		t.Fatalf("update subscription failed: %v", err)
	}

	got, err := repo.GetBySubscriptionID("sub_1")
	if err != nil || got == nil {
		t.Fatalf("get subscription failed: %v", err)
	}
	if got.CustomerEmail != "buyer@example.com" {
		t.Fatalf("email should be kept, got %q", got.CustomerEmail)
	}
	if got.Status != "canceled" || got.SourceEvent != "customer.subscription.deleted" {
		t.Fatalf("status not updated: %+v", got)
	}
	count, err := repo.Count()
	if err != nil || count != 1 {
		t.Fatalf("expected one row, got %d err=%v", count, err)
	}
}

func TestSubscriptionGetLatestByEmailAndCountActive(t *testing.T) {
	repo := NewSubscriptionRepository(setupRepositoryTestDB(t))
	now := time.Now()
	rows := []models.Subscription{
		{StripeSubscriptionID: "sub_old", CustomerEmail: "a@example.com", Status: "canceled", SourceEvent: "x", UpdatedAt: now.Add(-time.Hour)},
		{StripeSubscriptionID: "sub_new", CustomerEmail: "a@example.com", Status: "trialing", SourceEvent: "x", UpdatedAt: now},
		{StripeSubscriptionID: "sub_b", CustomerEmail: "b@example.com", Status: "active", SourceEvent: "x", UpdatedAt: now},
	}
	for i := range rows {
		if err := repo.Upsert(&rows[i]); err != nil {
			t.Fatalf("insert %s failed: %v", rows[i].StripeSubscriptionID, err)
		}
	}

	latest, err := repo.GetLatestByEmail(" A@Example.com ")
	if err != nil || latest == nil {
		t.Fatalf("get latest failed: %v", err)
	}
	if latest.StripeSubscriptionID != "sub_new" {
		t.Fatalf("unexpected latest: %s", latest.StripeSubscriptionID)
	}
	active, err := repo.CountActive()
	if err != nil || active != 2 {
		t.Fatalf("expected 2 active, got %d err=%v", active, err)
	}
	missing, err := repo.GetLatestByEmail("nobody@example.com")
	if err != nil || missing != nil {
		t.Fatalf("expected nil for unknown email, got %+v err=%v", missing, err)
	}
}

func TestSubscriptionUpsertSurvivesCompetingInsert(t *testing.T) {
	db := setupRepositoryTestDB(t)
	inserted := false
	err := db.Callback().Create().Before("gorm:create").Register("test:competing_insert", func(tx *gorm.DB) {
		if inserted {
			return
		}
		inserted = true
		tx.Session(&gorm.Session{NewDB: true}).Exec(
			"INSERT INTO subscriptions (stripe_subscription_id, stripe_customer_id, customer_email, status, source_event, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
			"sub_race", "cus_race", "first@example.com", "active", "checkout.session.completed", time.Now(),
		)
	})
	if err != nil {
		t.Fatalf("register callback failed: %v", err)
	}
	repo := NewSubscriptionRepository(db)

	if err := repo.Upsert(&models.Subscription{
		StripeSubscriptionID: "sub_race",
		Status:               "trialing",
		SourceEvent:          "customer.subscription.created",
		UpdatedAt:            time.Now(),
	}); err != nil {
		t.Fatalf("upsert after competing insert failed: %v", err)
	}

	got, err := repo.GetBySubscriptionID("sub_race")
	if err != nil || got == nil {
		t.Fatalf("get subscription failed: %v", err)
	}
	if got.Status != "trialing" || got.SourceEvent != "customer.subscription.created" {
		t.Fatalf("later event should win: %+v", got)
	}
	if got.CustomerEmail != "first@example.com" || got.StripeCustomerID != "cus_race" {
		t.Fatalf("known customer fields should be kept: %+v", got)
	}
	if count, _ := repo.Count(); count != 1 {
		t.Fatalf("expected one row, got %d", count)
	}
}
