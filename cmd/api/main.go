package main

import (
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	json "github.com/json-iterator/go"

	"github.com/paymentops/payment-alerts/cmd/handlers"
	"github.com/paymentops/payment-alerts/internal/env"
	"github.com/paymentops/payment-alerts/internal/logbuffer"
	"github.com/paymentops/payment-alerts/internal/services/enricher"
	healthchecker "github.com/paymentops/payment-alerts/internal/services/health-checker"
	"github.com/paymentops/payment-alerts/internal/services/notifier"
	recordlogger "github.com/paymentops/payment-alerts/internal/services/record-logger"
	"github.com/paymentops/payment-alerts/internal/services/webhook"
)

func main() {
	env.Load()

	logs := logbuffer.New()

	stripeClient := enricher.NewStripeClient(env.Env.StripeSecretKey)
	enrich := enricher.New(stripeClient, logs)

	alerts, err := notifier.New(notifier.Config{
		Host:      env.Env.SMTPHost,
		Port:      env.Env.SMTPPort,
		Username:  env.Env.SMTPUser,
		Password:  env.Env.SMTPPassword,
		From:      env.Env.SMTPFrom,
		Recipient: env.Env.AlertRecipient,
	}, logs)
	if err != nil {
		log.Fatal("Failed to configure mail client:", err)
	}

	store := recordlogger.NewAirtableStore(env.Env.AirtableAPIKey, env.Env.AirtableBaseID, env.Env.AirtableTableName)
	records := recordlogger.New(store, env.Env.AirtableTableName, logs)

	handlers.Logs = logs
	handlers.Hook = webhook.New(env.Env.StripeWebhookSecret, enrich, alerts, records, logs)
	handlers.Health = healthchecker.New(stripeClient, alerts, store, logs)
	handlers.Notifier = alerts
	handlers.Records = records
	handlers.PublicURL = env.Env.PublicURL
	handlers.StartedAt = time.Now().UTC()

	app := fiber.New(fiber.Config{
		JSONEncoder: json.Marshal,
		JSONDecoder: json.Unmarshal,
	})
	app.Get("/", handlers.HandleStatus)
	app.Get("/health", handlers.HandleHealth)
	app.Get("/logs", handlers.HandleLogs)
	app.Post("/test", handlers.HandleTest)
	app.Get("/webhook/info", handlers.HandleWebhookInfo)
	app.Post("/webhook", handlers.HandleWebhook)

	logs.Infof("[api] Failed payment alert service listening on port %s", env.Env.BackendPort)
	log.Fatal(app.Listen(":" + env.Env.BackendPort))
}
