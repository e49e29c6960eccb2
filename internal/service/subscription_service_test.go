package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/autoprofit/internal/config"
	"github.com/autoprofit/internal/payment/stripe"
	"github.com/autoprofit/internal/repository"
)

const testWebhookSecret = "whsec_test_123"

func newSubscriptionFixture(t *testing.T, cfg config.StripeConfig) (*SubscriptionService, *repository.GormSubscriptionRepository) {
	t.Helper()
	db := setupServiceTestDB(t)
	repo := repository.NewSubscriptionRepository(db)
	return NewSubscriptionService(cfg, repo, nil), repo
}

func signedWebhookHeaders(body []byte) map[string]string {
	return map[string]string{
		"Stripe-Signature": stripe.SignPayload(testWebhookSecret, time.Now().Unix(), body),
	}
}

func TestHandleWebhookRejectsInvalidSignature(t *testing.T) {
	svc, repo := newSubscriptionFixture(t, config.StripeConfig{WebhookSecret: testWebhookSecret})
	body := []byte(`{"id":"evt_1","type":"checkout.session.completed","data":{"object":{"subscription":"sub_1","customer_email":"a@example.com"}}}`)
	headers := map[string]string{"Stripe-Signature": stripe.SignPayload("whsec_other", time.Now().Unix(), body)}

	if _, err := svc.HandleWebhook(context.Background(), headers, body); !errors.Is(err, ErrWebhookSignatureInvalid) {
		t.Fatalf("expected signature error, got %v", err)
	}
	if count, _ := repo.Count(); count != 0 {
		t.Fatalf("invalid signature must not mutate subscriptions, got %d", count)
	}
}

func TestHandleWebhookRequiresSecret(t *testing.T) {
	svc, _ := newSubscriptionFixture(t, config.StripeConfig{})
	if _, err := svc.HandleWebhook(context.Background(), nil, []byte(`{}`)); !errors.Is(err, ErrStripeWebhookNotConfigured) {
		t.Fatalf("expected not configured, got %v", err)
	}
}

func TestCheckoutCompletedThenStatusActive(t *testing.T) {
	svc, _ := newSubscriptionFixture(t, config.StripeConfig{WebhookSecret: testWebhookSecret})
	body := []byte(`{"id":"evt_1","type":"checkout.session.completed","data":{"object":{"id":"cs_1","subscription":"sub_1","customer":"cus_1","customer_details":{"email":"Buyer@Example.com"}}}}`)

	outcome, err := svc.HandleWebhook(context.Background(), signedWebhookHeaders(body), body)
	if err != nil {
		t.Fatalf("handle webhook failed: %v", err)
	}
	if !outcome.Applied || outcome.SubscriptionID != "sub_1" {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}

	status, err := svc.Status(context.Background(), " BUYER@example.com ")
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if !status.Active || status.Status != "active" || status.Email != "buyer@example.com" {
		t.Fatalf("unexpected status: %+v", status)
	}
	if status.SubscriptionID == nil || *status.SubscriptionID != "sub_1" {
		t.Fatalf("unexpected subscription id: %v", status.SubscriptionID)
	}
}

func TestSubscriptionUpdateKeepsKnownEmail(t *testing.T) {
	svc, repo := newSubscriptionFixture(t, config.StripeConfig{WebhookSecret: testWebhookSecret})
	first := []byte(`{"id":"evt_1","type":"checkout.session.completed","data":{"object":{"subscription":"sub_1","customer":"cus_1","customer_email":"buyer@example.com"}}}`)
	if _, err := svc.HandleWebhook(context.Background(), signedWebhookHeaders(first), first); err != nil {
		t.Fatalf("checkout webhook failed: %v", err)
	}
	second := []byte(`{"id":"evt_2","type":"customer.subscription.deleted","data":{"object":{"id":"sub_1","customer":"cus_1","status":"canceled","current_period_end":1893456000}}}`)
	if _, err := svc.HandleWebhook(context.Background(), signedWebhookHeaders(second), second); err != nil {
		t.Fatalf("subscription webhook failed: %v", err)
	}

	sub, err := repo.GetBySubscriptionID("sub_1")
	if err != nil || sub == nil {
		t.Fatalf("subscription missing: %v", err)
	}
	if sub.CustomerEmail != "buyer@example.com" || sub.Status != "canceled" {
		t.Fatalf("unexpected subscription: %+v", sub)
	}
	if sub.CurrentPeriodEnd == nil || sub.CurrentPeriodEnd.Unix() != 1893456000 {
		t.Fatalf("unexpected period end: %v", sub.CurrentPeriodEnd)
	}
	if count, _ := repo.Count(); count != 1 {
		t.Fatalf("expected a single row, got %d", count)
	}

	status, err := svc.Status(context.Background(), "buyer@example.com")
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if status.Active || status.Status != "canceled" {
		t.Fatalf("canceled subscription reported active: %+v", status)
	}
}

func TestSubscriptionEventLooksUpCustomerEmail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/customers/cus_9" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cus_9","email":"Lookup@Example.com"}`))
	}))
	defer server.Close()

	svc, repo := newSubscriptionFixture(t, config.StripeConfig{
		SecretKey:     "sk_test_123",
		WebhookSecret: testWebhookSecret,
		APIBaseURL:    server.URL,
	})
	body := []byte(`{"id":"evt_3","type":"customer.subscription.created","data":{"object":{"id":"sub_9","customer":"cus_9","status":"trialing"}}}`)
	if _, err := svc.HandleWebhook(context.Background(), signedWebhookHeaders(body), body); err != nil {
		t.Fatalf("handle webhook failed: %v", err)
	}
	sub, _ := repo.GetBySubscriptionID("sub_9")
	if sub == nil || sub.CustomerEmail != "lookup@example.com" {
		t.Fatalf("customer email not resolved: %+v", sub)
	}

	status, err := svc.Status(context.Background(), "lookup@example.com")
	if err != nil || !status.Active || status.Status != "trialing" {
		t.Fatalf("trialing should be active: %+v (%v)", status, err)
	}
}

func TestHandleWebhookIgnoresIrrelevantEvent(t *testing.T) {
	svc, repo := newSubscriptionFixture(t, config.StripeConfig{WebhookSecret: testWebhookSecret})
	body := []byte(`{"id":"evt_4","type":"invoice.paid","data":{"object":{"id":"in_1"}}}`)
	outcome, err := svc.HandleWebhook(context.Background(), signedWebhookHeaders(body), body)
	if err != nil {
		t.Fatalf("handle webhook failed: %v", err)
	}
	if outcome.Applied {
		t.Fatalf("irrelevant event should not be applied")
	}
	if count, _ := repo.Count(); count != 0 {
		t.Fatalf("irrelevant event must not mutate, got %d", count)
	}
}

func TestStatusUnknownAndEmailRequired(t *testing.T) {
	svc, _ := newSubscriptionFixture(t, config.StripeConfig{})
	status, err := svc.Status(context.Background(), "nobody@example.com")
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if status.Active || status.Status != "unknown" || status.SubscriptionID != nil {
		t.Fatalf("unexpected status: %+v", status)
	}
	if _, err := svc.Status(context.Background(), "  "); !errors.Is(err, ErrEmailRequired) {
		t.Fatalf("expected email required, got %v", err)
	}
}

func TestCreateCheckout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form failed: %v", err)
		}
		if r.PostForm.Get("customer_email") != "buyer@example.com" {
			t.Errorf("unexpected email: %s", r.PostForm.Get("customer_email"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cs_test_1","url":"https://checkout.stripe.com/c/pay/cs_test_1"}`))
	}))
	defer server.Close()

	unconfigured, _ := newSubscriptionFixture(t, config.StripeConfig{})
	if _, err := unconfigured.CreateCheckout(context.Background(), "buyer@example.com"); !errors.Is(err, ErrStripeNotConfigured) {
		t.Fatalf("expected not configured, got %v", err)
	}

	svc := NewSubscriptionService(config.StripeConfig{
		SecretKey:  "sk_test_123",
		PriceID:    "price_123",
		SuccessURL: "https://guides.example.com/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  "https://guides.example.com/",
		APIBaseURL: server.URL,
	}, nil, nil)
	session, err := svc.CreateCheckout(context.Background(), "buyer@example.com")
	if err != nil {
		t.Fatalf("create checkout failed: %v", err)
	}
	if session.SessionID != "cs_test_1" || session.CheckoutURL != "https://checkout.stripe.com/c/pay/cs_test_1" {
		t.Fatalf("unexpected session: %+v", session)
	}
}
