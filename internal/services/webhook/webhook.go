package webhook

import (
	"context"
	"errors"
	"fmt"

	json "github.com/json-iterator/go"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/paymentops/payment-alerts/internal/logbuffer"
	"github.com/paymentops/payment-alerts/internal/models"
)

// ErrSignature marks a delivery whose signature did not verify. It is the
// only failure surfaced to the webhook caller; everything downstream is
// logged and acknowledged so the provider does not retry.
var ErrSignature = errors.New("webhook signature verification failed")

// SubscribedEvents are the provider event types this endpoint consumes.
var SubscribedEvents = []string{
	"payment_intent.payment_failed",
	"invoice.payment_failed",
	"charge.failed",
}

type Enricher interface {
	FromPaymentIntent(ctx context.Context, intent *stripe.PaymentIntent) models.FailureRecord
	FromInvoice(ctx context.Context, invoice *stripe.Invoice) (models.FailureRecord, error)
	FromCharge(charge *stripe.Charge) models.FailureRecord
}

type Notifier interface {
	Send(ctx context.Context, record models.FailureRecord) error
}

type RecordAppender interface {
	Append(ctx context.Context, record models.FailureRecord) error
}

type Handler struct {
	secret   string
	enricher Enricher
	notifier Notifier
	records  RecordAppender
	logs     *logbuffer.Recorder
}

func New(secret string, enricher Enricher, notifier Notifier, records RecordAppender, logs *logbuffer.Recorder) *Handler {
	return &Handler{
		secret:   secret,
		enricher: enricher,
		notifier: notifier,
		records:  records,
		logs:     logs,
	}
}

// HandleEvent verifies one delivery against the raw body, classifies it, and
// runs the enrich -> notify -> record chain. A non-nil return always wraps
// ErrSignature; any later failure only drops that single event.
func (h *Handler) HandleEvent(ctx context.Context, payload []byte, signature string) error {
	event, err := webhook.ConstructEventWithOptions(payload, signature, h.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		h.logs.Errorf("[webhook] Signature verification failed: %v", err)
		return fmt.Errorf("%w: %v", ErrSignature, err)
	}

	switch string(event.Type) {
	case "payment_intent.payment_failed":
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			h.logs.Errorf("[webhook] Failed to decode payment intent payload: %v", err)
			return nil
		}
		h.logs.Infof("[webhook] Payment intent failed: %s", intent.ID)
		h.dispatch(ctx, h.enricher.FromPaymentIntent(ctx, &intent))
	case "invoice.payment_failed":
		var invoice stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &invoice); err != nil {
			h.logs.Errorf("[webhook] Failed to decode invoice payload: %v", err)
			return nil
		}
		h.logs.Infof("[webhook] Invoice payment failed: %s", invoice.ID)
		record, err := h.enricher.FromInvoice(ctx, &invoice)
		if err != nil {
			h.logs.Errorf("[webhook] Could not process failed invoice %s: %v", invoice.ID, err)
			return nil
		}
		h.dispatch(ctx, record)
	case "charge.failed":
		var charge stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &charge); err != nil {
			h.logs.Errorf("[webhook] Failed to decode charge payload: %v", err)
			return nil
		}
		h.logs.Infof("[webhook] Charge failed: %s", charge.ID)
		h.dispatch(ctx, h.enricher.FromCharge(&charge))
	default:
		h.logs.Infof("[webhook] Ignoring event type %s", event.Type)
	}
	return nil
}

func (h *Handler) dispatch(ctx context.Context, record models.FailureRecord) {
	if err := h.notifier.Send(ctx, record); err != nil {
		h.logs.Errorf("[webhook] Notification failed for payment %s: %v", record.PaymentID, err)
	}
	if err := h.records.Append(ctx, record); err != nil {
		h.logs.Errorf("[webhook] Record append failed for payment %s: %v", record.PaymentID, err)
	}
}
