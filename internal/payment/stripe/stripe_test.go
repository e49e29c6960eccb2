package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"
)

func signedHeaders(secret string, now time.Time, body []byte) map[string]string {
	return map[string]string{
		"stripe-signature": SignPayload(secret, now.Unix(), body),
	}
}

func TestNormalizeFillsDefaults(t *testing.T) {
	cfg := &Config{SecretKey: " sk_test_123 ", APIBaseURL: "  "}
	cfg.Normalize()
	if cfg.SecretKey != "sk_test_123" {
		t.Fatalf("unexpected secret key: %s", cfg.SecretKey)
	}
	if cfg.APIBaseURL != defaultAPIBaseURL {
		t.Fatalf("unexpected default api base url: %s", cfg.APIBaseURL)
	}
	if cfg.WebhookToleranceSeconds != defaultWebhookToleranceS {
		t.Fatalf("unexpected tolerance: %d", cfg.WebhookToleranceSeconds)
	}
}

func TestValidateCheckoutConfigRequiresPrice(t *testing.T) {
	cfg := &Config{
		SecretKey:  "sk_test_123",
		SuccessURL: "https://example.com/success?session={CHECKOUT_SESSION_ID}",
		CancelURL:  "https://example.com/cancel",
	}
	cfg.Normalize()
	if err := ValidateCheckoutConfig(cfg); !errors.Is(err, ErrConfigInvalid) {
		t.Fatalf("expected config invalid without price, got %v", err)
	}
	cfg.PriceID = "price_123"
	if err := ValidateCheckoutConfig(cfg); err != nil {
		t.Fatalf("validate config failed: %v", err)
	}
}

func TestCreateSubscriptionCheckout(t *testing.T) {
	var form url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/checkout/sessions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk_test_123" {
			t.Errorf("unexpected auth header: %s", r.Header.Get("Authorization"))
		}
		raw, _ := io.ReadAll(r.Body)
		form, _ = url.ParseQuery(string(raw))
		_, _ = w.Write([]byte(`{"id":"cs_test_1","url":"https://checkout.stripe.com/c/cs_test_1"}`))
	}))
	defer server.Close()

	cfg := &Config{
		SecretKey:  "sk_test_123",
		PriceID:    "price_123",
		SuccessURL: "https://example.com/success",
		CancelURL:  "https://example.com/cancel",
		APIBaseURL: server.URL,
	}
	cfg.Normalize()
	result, err := CreateSubscriptionCheckout(context.Background(), cfg, CheckoutInput{Email: " User@Example.com "})
	if err != nil {
		t.Fatalf("create checkout failed: %v", err)
	}
	if result.URL != "https://checkout.stripe.com/c/cs_test_1" {
		t.Fatalf("unexpected checkout url: %s", result.URL)
	}
	if form.Get("mode") != "subscription" {
		t.Fatalf("unexpected mode: %s", form.Get("mode"))
	}
	if form.Get("line_items[0][price]") != "price_123" {
		t.Fatalf("unexpected price: %s", form.Get("line_items[0][price]"))
	}
	if form.Get("customer_email") != "user@example.com" {
		t.Fatalf("unexpected customer email: %s", form.Get("customer_email"))
	}
	if form.Get("subscription_data[metadata][email]") != "user@example.com" {
		t.Fatalf("subscription metadata email missing")
	}
}

func TestCreateSubscriptionCheckoutUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"No such price"}}`))
	}))
	defer server.Close()

	cfg := &Config{
		SecretKey:  "sk_test_123",
		PriceID:    "price_missing",
		SuccessURL: "https://example.com/success",
		CancelURL:  "https://example.com/cancel",
		APIBaseURL: server.URL,
	}
	_, err := CreateSubscriptionCheckout(context.Background(), cfg, CheckoutInput{})
	if !errors.Is(err, ErrResponseInvalid) {
		t.Fatalf("expected response invalid, got %v", err)
	}
}

func TestGetCustomerEmail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/customers/cus_123" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"id":"cus_123","email":"Buyer@Example.com"}`))
	}))
	defer server.Close()

	email, err := GetCustomerEmail(context.Background(), &Config{SecretKey: "sk_test", APIBaseURL: server.URL}, "cus_123")
	if err != nil {
		t.Fatalf("get customer email failed: %v", err)
	}
	if email != "buyer@example.com" {
		t.Fatalf("unexpected email: %s", email)
	}
}

func TestVerifyAndParseWebhookCheckoutCompleted(t *testing.T) {
	now := time.Unix(1760000000, 0)
	cfg := &Config{WebhookSecret: "whsec_test_abc", WebhookToleranceSeconds: 300}
	body, _ := json.Marshal(map[string]interface{}{
		"id":   "evt_test_1",
		"type": "checkout.session.completed",
		"data": map[string]interface{}{
			"object": map[string]interface{}{
				"object":           "checkout.session",
				"id":               "cs_test_123",
				"subscription":     "sub_123",
				"customer":         "cus_123",
				"customer_details": map[string]interface{}{"email": "User@Example.com"},
			},
		},
	})

	event, err := VerifyAndParseWebhook(cfg, signedHeaders(cfg.WebhookSecret, now, body), body, now)
	if err != nil {
		t.Fatalf("verify and parse webhook failed: %v", err)
	}
	if !event.Relevant {
		t.Fatalf("checkout completion should be relevant")
	}
	if event.SubscriptionID != "sub_123" || event.CustomerID != "cus_123" {
		t.Fatalf("unexpected ids: %s %s", event.SubscriptionID, event.CustomerID)
	}
	if event.CustomerEmail != "user@example.com" {
		t.Fatalf("unexpected email: %s", event.CustomerEmail)
	}
	if event.Status != "active" {
		t.Fatalf("unexpected status: %s", event.Status)
	}
}

func TestVerifyAndParseWebhookSubscriptionUpdated(t *testing.T) {
	now := time.Unix(1760000000, 0)
	cfg := &Config{WebhookSecret: "whsec_test_abc", WebhookToleranceSeconds: 300}
	body, _ := json.Marshal(map[string]interface{}{
		"id":   "evt_test_2",
		"type": "customer.subscription.updated",
		"data": map[string]interface{}{
			"object": map[string]interface{}{
				"object":   "subscription",
				"id":       "sub_123",
				"customer": "cus_123",
				"status":   "past_due",
				"items": map[string]interface{}{
					"data": []interface{}{
						map[string]interface{}{"current_period_end": 1762592000},
					},
				},
			},
		},
	})

	event, err := VerifyAndParseWebhook(cfg, signedHeaders(cfg.WebhookSecret, now, body), body, now)
	if err != nil {
		t.Fatalf("verify and parse webhook failed: %v", err)
	}
	if event.Status != "past_due" {
		t.Fatalf("unexpected status: %s", event.Status)
	}
	if event.CustomerEmail != "" {
		t.Fatalf("email should be empty without metadata, got %s", event.CustomerEmail)
	}
	if event.CurrentPeriodEnd == nil || event.CurrentPeriodEnd.Unix() != 1762592000 {
		t.Fatalf("unexpected period end: %v", event.CurrentPeriodEnd)
	}
}

func TestVerifyAndParseWebhookIgnoresOtherEvents(t *testing.T) {
	now := time.Unix(1760000000, 0)
	cfg := &Config{WebhookSecret: "whsec_test_abc"}
	body := []byte(`{"id":"evt_3","type":"invoice.paid","data":{"object":{"id":"in_1"}}}`)
	event, err := VerifyAndParseWebhook(cfg, signedHeaders(cfg.WebhookSecret, now, body), body, now)
	if err != nil {
		t.Fatalf("verify and parse webhook failed: %v", err)
	}
	if event.Relevant {
		t.Fatalf("invoice event should be ignored")
	}
}

func TestVerifyAndParseWebhookInvalidSignature(t *testing.T) {
	now := time.Unix(1760000000, 0)
	cfg := &Config{WebhookSecret: "whsec_test_abc", WebhookToleranceSeconds: 300}
	body := []byte(`{"id":"evt_test_1","type":"checkout.session.completed","data":{"object":{"subscription":"sub_1"}}}`)
	headers := map[string]string{
		"Stripe-Signature": "t=1760000000,v1=invalid-signature",
	}
	if _, err := VerifyAndParseWebhook(cfg, headers, body, now); !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("expected signature error, got %v", err)
	}
}

func TestVerifyAndParseWebhookRejectsStaleTimestamp(t *testing.T) {
	signedAt := time.Unix(1760000000, 0)
	cfg := &Config{WebhookSecret: "whsec_test_abc", WebhookToleranceSeconds: 300}
	body := []byte(`{"type":"checkout.session.completed","data":{"object":{}}}`)
	_, err := VerifyAndParseWebhook(cfg, signedHeaders(cfg.WebhookSecret, signedAt, body), body, signedAt.Add(10*time.Minute))
	if !errors.Is(err, ErrSignatureInvalid) {
		t.Fatalf("expected tolerance error, got %v", err)
	}
}
