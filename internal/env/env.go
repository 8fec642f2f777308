package env

import (
	"log"

	"github.com/caarlos0/env/v11"
)

type EnvironmentVariables struct {
	StripeSecretKey     string `env:"STRIPE_SECRET_KEY,required"`
	StripeWebhookSecret string `env:"STRIPE_WEBHOOK_SECRET,required"`
	AirtableAPIKey      string `env:"AIRTABLE_API_KEY,required"`
	AirtableBaseID      string `env:"AIRTABLE_BASE_ID,required"`
	AirtableTableName   string `env:"AIRTABLE_TABLE_NAME" envDefault:"Failed Payments"`
	SMTPHost            string `env:"SMTP_HOST,required"`
	SMTPPort            int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser            string `env:"SMTP_USER,required"`
	SMTPPassword        string `env:"SMTP_PASSWORD,required"`
	SMTPFrom            string `env:"SMTP_FROM"`
	AlertRecipient      string `env:"ALERT_EMAIL,required"`
	PublicURL           string `env:"PUBLIC_URL" envDefault:"http://localhost:3000"`
	BackendPort         string `env:"BACKEND_PORT" envDefault:"3000"`
}

var (
	Env *EnvironmentVariables
)

func Load() {
	Env = &EnvironmentVariables{}
	if err := env.Parse(Env); err != nil {
		log.Fatalf("[env] Failed to load environment variables: %v", err)
	}
	if Env.SMTPFrom == "" {
		Env.SMTPFrom = Env.SMTPUser
	}

	log.Printf("[env] Environment variables loaded successfully:")
	log.Printf("  - Airtable Table: %s", Env.AirtableTableName)
	log.Printf("  - SMTP: %s:%d", Env.SMTPHost, Env.SMTPPort)
	log.Printf("  - Alert Recipient: %s", Env.AlertRecipient)
	log.Printf("  - Public URL: %s", Env.PublicURL)
	log.Printf("  - Backend Port: %s", Env.BackendPort)
}
