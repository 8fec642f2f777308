package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/paymentops/payment-alerts/internal/logbuffer"
	"github.com/paymentops/payment-alerts/internal/models"
	healthchecker "github.com/paymentops/payment-alerts/internal/services/health-checker"
	"github.com/paymentops/payment-alerts/internal/services/webhook"
)

// TestFailureReason is the fixed reason used by every synthetic /test event.
const TestFailureReason = "Test alert: your card was declined."

var (
	Logs      *logbuffer.Recorder
	Hook      *webhook.Handler
	Health    *healthchecker.HealthChecker
	Notifier  webhook.Notifier
	Records   webhook.RecordAppender
	PublicURL string
	StartedAt time.Time
)

func HandleStatus(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"service": "payment-alerts",
		"status":  "running",
		"endpoints": fiber.Map{
			"GET /":             "status page",
			"GET /health":       "dependency health check",
			"GET /logs":         "recent diagnostics",
			"POST /test":        "send a synthetic failure alert",
			"GET /webhook/info": "webhook setup instructions",
			"POST /webhook":     "provider event ingestion",
		},
		"lastStarted": StartedAt.Format(time.RFC3339),
	})
}

func HandleHealth(c *fiber.Ctx) error {
	report := Health.Check(c.Context())
	status := "healthy"
	if !report.Healthy {
		status = "unhealthy"
	}
	return c.JSON(fiber.Map{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    report.Checks,
	})
}

func HandleLogs(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"logs":  Logs.Recent(50),
		"total": Logs.Total(),
	})
}

func HandleTest(c *fiber.Ctx) error {
	record := models.NewFailureRecord("pi_test_"+uuid.NewString(), 2500, "usd", TestFailureReason)
	record.CustomerEmail = "test.customer@example.com"

	Logs.Infof("[test] Manual test alert triggered for %s", record.PaymentID)
	if err := Notifier.Send(c.Context(), record); err != nil {
		Logs.Errorf("[test] Notification failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}
	if err := Records.Append(c.Context(), record); err != nil {
		Logs.Errorf("[test] Record append failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"success":  true,
		"message":  "Test alert sent and recorded",
		"testData": record,
	})
}

func HandleWebhookInfo(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"webhookUrl":        PublicURL + "/webhook",
		"eventsToSubscribe": webhook.SubscribedEvents,
		"instructions":      "Add the webhook URL as an endpoint in the Stripe dashboard and subscribe it to the listed events.",
	})
}

func HandleWebhook(c *fiber.Ctx) error {
	// The raw body is required for signature verification; fiber hands it
	// over unparsed.
	if err := Hook.HandleEvent(c.Context(), c.Body(), c.Get("Stripe-Signature")); err != nil {
		return c.Status(fiber.StatusBadRequest).SendString("Webhook Error: signature verification failed")
	}
	return c.JSON(fiber.Map{"received": true})
}
