package enricher

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v79"

	"github.com/paymentops/payment-alerts/internal/logbuffer"
	"github.com/paymentops/payment-alerts/internal/models"
)

// ProviderClient is the subset of the payment provider API the enricher
// needs: resolving an invoice's payment intent and looking up a customer.
type ProviderClient interface {
	PaymentIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error)
	Customer(ctx context.Context, id string) (*stripe.Customer, error)
}

type Service struct {
	provider ProviderClient
	logs     *logbuffer.Recorder
}

func New(provider ProviderClient, logs *logbuffer.Recorder) *Service {
	return &Service{
		provider: provider,
		logs:     logs,
	}
}

// FromPaymentIntent normalizes a failed payment intent into a FailureRecord.
// The customer email lookup is best effort: a failed fetch is logged as a
// warning and the field stays absent.
func (s *Service) FromPaymentIntent(ctx context.Context, intent *stripe.PaymentIntent) models.FailureRecord {
	reason := ""
	if intent.LastPaymentError != nil {
		reason = intent.LastPaymentError.Msg
	}
	record := models.NewFailureRecord(intent.ID, intent.Amount, string(intent.Currency), reason)
	if intent.Customer != nil && intent.Customer.ID != "" {
		record.CustomerID = intent.Customer.ID
		s.resolveCustomerEmail(ctx, &record)
	}
	return record
}

// FromInvoice resolves the invoice's referenced payment intent before
// extraction. A failed fetch aborts processing of this event only.
func (s *Service) FromInvoice(ctx context.Context, invoice *stripe.Invoice) (models.FailureRecord, error) {
	if invoice.PaymentIntent == nil || invoice.PaymentIntent.ID == "" {
		return models.FailureRecord{}, fmt.Errorf("invoice %s has no payment intent reference", invoice.ID)
	}
	intent, err := s.provider.PaymentIntent(ctx, invoice.PaymentIntent.ID)
	if err != nil {
		return models.FailureRecord{}, fmt.Errorf("failed to fetch payment intent %s: %w", invoice.PaymentIntent.ID, err)
	}
	return s.FromPaymentIntent(ctx, intent), nil
}

// FromCharge builds the record directly from the charge payload. Charges
// already embed the billing email, so no provider call is made.
func (s *Service) FromCharge(charge *stripe.Charge) models.FailureRecord {
	record := models.NewFailureRecord(charge.ID, charge.Amount, string(charge.Currency), charge.FailureMessage)
	if charge.Customer != nil {
		record.CustomerID = charge.Customer.ID
	}
	if charge.BillingDetails != nil {
		record.CustomerEmail = charge.BillingDetails.Email
	}
	return record
}

func (s *Service) resolveCustomerEmail(ctx context.Context, record *models.FailureRecord) {
	customer, err := s.provider.Customer(ctx, record.CustomerID)
	if err != nil {
		s.logs.Warnf("[enricher] Could not fetch customer %s: %v", record.CustomerID, err)
		return
	}
	record.CustomerEmail = customer.Email
}
