package models

import (
	"fmt"
	"strings"
	"time"
)

// UnknownFailureReason is substituted when the provider event carries no
// failure message.
const UnknownFailureReason = "Unknown error"

// FailureRecord is the canonical representation of one failed payment.
// CustomerID and CustomerEmail may be empty when the provider event carried
// no customer or the email lookup failed; the Display accessors apply the
// documented defaults at presentation time.
type FailureRecord struct {
	PaymentID     string    `json:"paymentId"`
	CustomerID    string    `json:"customerId,omitempty"`
	CustomerEmail string    `json:"customerEmail,omitempty"`
	AmountMinor   int64     `json:"amount"`
	Currency      string    `json:"currency"`
	FailureReason string    `json:"failureReason"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewFailureRecord(paymentID string, amountMinor int64, currency, failureReason string) FailureRecord {
	if failureReason == "" {
		failureReason = UnknownFailureReason
	}
	return FailureRecord{
		PaymentID:     paymentID,
		AmountMinor:   amountMinor,
		Currency:      currency,
		FailureReason: failureReason,
		Timestamp:     time.Now().UTC(),
	}
}

// AmountDisplay renders the minor-unit amount as a decimal with the
// upper-cased currency code, e.g. 2500/"usd" -> "$25.00 USD".
func (r FailureRecord) AmountDisplay() string {
	return fmt.Sprintf("$%.2f %s", float64(r.AmountMinor)/100, strings.ToUpper(r.Currency))
}

func (r FailureRecord) AmountDecimal() float64 {
	return float64(r.AmountMinor) / 100
}

func (r FailureRecord) CustomerEmailDisplay() string {
	if r.CustomerEmail == "" {
		return "Unknown"
	}
	return r.CustomerEmail
}

func (r FailureRecord) CustomerIDDisplay() string {
	if r.CustomerID == "" {
		return "N/A"
	}
	return r.CustomerID
}

func (r FailureRecord) TimestampDisplay() string {
	return r.Timestamp.Format(time.RFC3339)
}
