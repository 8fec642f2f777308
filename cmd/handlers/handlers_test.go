package handlers

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stripe/stripe-go/v79"
	stripewebhook "github.com/stripe/stripe-go/v79/webhook"

	"github.com/paymentops/payment-alerts/internal/logbuffer"
	"github.com/paymentops/payment-alerts/internal/models"
	healthchecker "github.com/paymentops/payment-alerts/internal/services/health-checker"
	"github.com/paymentops/payment-alerts/internal/services/webhook"
)

const testSecret = "whsec_test_secret"

type stubEnricher struct{}

func (stubEnricher) FromPaymentIntent(ctx context.Context, intent *stripe.PaymentIntent) models.FailureRecord {
	return models.FailureRecord{PaymentID: intent.ID}
}

func (stubEnricher) FromInvoice(ctx context.Context, invoice *stripe.Invoice) (models.FailureRecord, error) {
	return models.FailureRecord{PaymentID: "pi_from_invoice"}, nil
}

func (stubEnricher) FromCharge(charge *stripe.Charge) models.FailureRecord {
	return models.FailureRecord{PaymentID: charge.ID, AmountMinor: charge.Amount, Currency: string(charge.Currency)}
}

type stubNotifier struct {
	err   error
	calls int
}

func (s *stubNotifier) Send(ctx context.Context, record models.FailureRecord) error {
	s.calls++
	return s.err
}

type stubAppender struct {
	err   error
	calls int
}

func (s *stubAppender) Append(ctx context.Context, record models.FailureRecord) error {
	s.calls++
	return s.err
}

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(ctx context.Context) error {
	return s.err
}

func setup(t *testing.T) (*fiber.App, *stubNotifier, *stubAppender) {
	t.Helper()

	notify := &stubNotifier{}
	appender := &stubAppender{}
	Logs = logbuffer.NewWithOutput(io.Discard)
	Notifier = notify
	Records = appender
	Hook = webhook.New(testSecret, stubEnricher{}, notify, appender, Logs)
	Health = healthchecker.New(stubPinger{}, stubPinger{}, stubPinger{}, Logs)
	PublicURL = "https://alerts.example.com"
	StartedAt = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	app := fiber.New()
	app.Get("/", HandleStatus)
	app.Get("/health", HandleHealth)
	app.Get("/logs", HandleLogs)
	app.Post("/test", HandleTest)
	app.Get("/webhook/info", HandleWebhookInfo)
	app.Post("/webhook", HandleWebhook)
	return app, notify, appender
}

func decodeBody(t *testing.T, resp *http.Response, target any) {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if err := json.Unmarshal(body, target); err != nil {
		t.Fatalf("decode body %q: %v", body, err)
	}
}

func signedWebhookRequest(payload []byte) *http.Request {
	now := time.Now()
	signature := stripewebhook.ComputeSignature(now, payload, testSecret)
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", fmt.Sprintf("t=%d,v1=%s", now.Unix(), hex.EncodeToString(signature)))
	return req
}

func TestStatusRoute(t *testing.T) {
	app, _, _ := setup(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var body struct {
		Service     string            `json:"service"`
		Status      string            `json:"status"`
		Endpoints   map[string]string `json:"endpoints"`
		LastStarted string            `json:"lastStarted"`
	}
	decodeBody(t, resp, &body)
	if body.Service != "payment-alerts" || body.Status != "running" {
		t.Fatalf("unexpected status body: %+v", body)
	}
	if len(body.Endpoints) != 6 {
		t.Fatalf("expected 6 documented endpoints, got %d", len(body.Endpoints))
	}
	if body.LastStarted != "2026-01-02T03:04:05Z" {
		t.Fatalf("unexpected lastStarted: %q", body.LastStarted)
	}
}

func TestHealthRoute(t *testing.T) {
	app, _, _ := setup(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	var body struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	decodeBody(t, resp, &body)
	if body.Status != "healthy" {
		t.Fatalf("expected healthy, got %q", body.Status)
	}
	if len(body.Checks) != 3 {
		t.Fatalf("expected 3 checks, got %+v", body.Checks)
	}
}

func TestLogsRouteCapsAtFifty(t *testing.T) {
	app, _, _ := setup(t)
	for i := 0; i < 60; i++ {
		Logs.Infof("entry %d", i)
	}

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/logs", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	var body struct {
		Logs  []logbuffer.Entry `json:"logs"`
		Total int64             `json:"total"`
	}
	decodeBody(t, resp, &body)
	if len(body.Logs) != 50 {
		t.Fatalf("expected 50 entries, got %d", len(body.Logs))
	}
	if body.Total != 60 {
		t.Fatalf("expected true cumulative total 60, got %d", body.Total)
	}
	if body.Logs[49].Message != "entry 59" {
		t.Fatalf("expected newest entry last, got %q", body.Logs[49].Message)
	}
}

func TestWebhookRouteRejectsMissingSignature(t *testing.T) {
	app, notify, appender := setup(t)

	payload := []byte(`{"id":"evt_1","type":"charge.failed","data":{"object":{"id":"ch_1"}}}`)
	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(payload)))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "Webhook Error") {
		t.Fatalf("expected plain-text error body, got %q", body)
	}
	if notify.calls != 0 || appender.calls != 0 {
		t.Fatalf("rejected delivery must not fan out")
	}
}

func TestWebhookRouteAcknowledgesValidDelivery(t *testing.T) {
	app, notify, appender := setup(t)

	payload := []byte(`{"id":"evt_1","type":"charge.failed","data":{"object":{"id":"ch_1","amount":2500,"currency":"usd"}}}`)
	resp, err := app.Test(signedWebhookRequest(payload))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body struct {
		Received bool `json:"received"`
	}
	decodeBody(t, resp, &body)
	if !body.Received {
		t.Fatalf("expected received acknowledgement")
	}
	if notify.calls != 1 || appender.calls != 1 {
		t.Fatalf("expected one notify and one append, got %d and %d", notify.calls, appender.calls)
	}
}

func TestWebhookRouteAcknowledgesDespiteDownstreamFailure(t *testing.T) {
	app, notify, appender := setup(t)
	notify.err = errors.New("smtp down")
	appender.err = errors.New("store down")

	payload := []byte(`{"id":"evt_1","type":"charge.failed","data":{"object":{"id":"ch_1","amount":2500,"currency":"usd"}}}`)
	resp, err := app.Test(signedWebhookRequest(payload))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("the provider must not see downstream failures, status = %d", resp.StatusCode)
	}
}

func TestTestRouteSuccess(t *testing.T) {
	app, notify, appender := setup(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/test", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body struct {
		Success  bool                 `json:"success"`
		TestData models.FailureRecord `json:"testData"`
	}
	decodeBody(t, resp, &body)
	if !body.Success {
		t.Fatalf("expected success")
	}
	if body.TestData.AmountMinor != 2500 || body.TestData.Currency != "usd" {
		t.Fatalf("unexpected test data: %+v", body.TestData)
	}
	if body.TestData.FailureReason != TestFailureReason {
		t.Fatalf("unexpected test failure reason: %q", body.TestData.FailureReason)
	}
	if !strings.HasPrefix(body.TestData.PaymentID, "pi_test_") {
		t.Fatalf("unexpected test payment id: %q", body.TestData.PaymentID)
	}
	if notify.calls != 1 || appender.calls != 1 {
		t.Fatalf("expected one notify and one append, got %d and %d", notify.calls, appender.calls)
	}
}

func TestTestRouteSurfacesDownstreamFailure(t *testing.T) {
	app, notify, _ := setup(t)
	notify.err = errors.New("smtp down")

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/test", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", resp.StatusCode)
	}
	var body struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	decodeBody(t, resp, &body)
	if body.Success || body.Error == "" {
		t.Fatalf("expected failure body with error, got %+v", body)
	}
}

func TestWebhookInfoRoute(t *testing.T) {
	app, _, _ := setup(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/webhook/info", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	var body struct {
		WebhookURL        string   `json:"webhookUrl"`
		EventsToSubscribe []string `json:"eventsToSubscribe"`
		Instructions      string   `json:"instructions"`
	}
	decodeBody(t, resp, &body)
	if body.WebhookURL != "https://alerts.example.com/webhook" {
		t.Fatalf("unexpected webhook url: %q", body.WebhookURL)
	}
	if len(body.EventsToSubscribe) != 3 {
		t.Fatalf("expected 3 event types, got %v", body.EventsToSubscribe)
	}
	if body.Instructions == "" {
		t.Fatalf("expected setup instructions")
	}
}
