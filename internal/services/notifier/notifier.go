package notifier

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wneessen/go-mail"

	"github.com/paymentops/payment-alerts/internal/logbuffer"
	"github.com/paymentops/payment-alerts/internal/models"
)

// MailSender is implemented by *mail.Client.
type MailSender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

type Config struct {
	Host      string
	Port      int
	Username  string
	Password  string
	From      string
	Recipient string
}

// AlertNotifier sends one email per failed payment to the configured
// recipient.
type AlertNotifier struct {
	sender    MailSender
	client    *mail.Client
	from      string
	recipient string
	logs      *logbuffer.Recorder
}

func New(cfg Config, logs *logbuffer.Recorder) (*AlertNotifier, error) {
	client, err := mail.NewClient(cfg.Host,
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mail client: %w", err)
	}
	notifier := NewWithSender(client, cfg.From, cfg.Recipient, logs)
	notifier.client = client
	return notifier, nil
}

func NewWithSender(sender MailSender, from, recipient string, logs *logbuffer.Recorder) *AlertNotifier {
	return &AlertNotifier{
		sender:    sender,
		from:      from,
		recipient: recipient,
		logs:      logs,
	}
}

// Send dispatches one alert email. The transport error is returned for the
// caller to log; a failed notification never blocks the rest of the fan-out.
func (n *AlertNotifier) Send(ctx context.Context, record models.FailureRecord) error {
	message := mail.NewMsg()
	if err := message.From(n.from); err != nil {
		return fmt.Errorf("invalid sender address %q: %w", n.from, err)
	}
	if err := message.To(n.recipient); err != nil {
		return fmt.Errorf("invalid recipient address %q: %w", n.recipient, err)
	}
	message.Subject(Subject(record))
	message.SetBodyString(mail.TypeTextPlain, Body(record))

	if err := n.sender.DialAndSendWithContext(ctx, message); err != nil {
		return fmt.Errorf("failed to send alert email: %w", err)
	}
	n.logs.Infof("[notifier] Alert email sent for payment %s", record.PaymentID)
	return nil
}

// Ping dials the SMTP server and hangs up, verifying reachability and
// credentials without sending anything.
func (n *AlertNotifier) Ping(ctx context.Context) error {
	if n.client == nil {
		return errors.New("smtp client not configured")
	}
	if err := n.client.DialWithContext(ctx); err != nil {
		return err
	}
	return n.client.Close()
}

func Subject(record models.FailureRecord) string {
	return fmt.Sprintf("Payment Failed: %s", record.AmountDisplay())
}

func Body(record models.FailureRecord) string {
	var b strings.Builder
	b.WriteString("A payment has failed and may need attention.\n\n")
	fmt.Fprintf(&b, "Payment ID: %s\n", record.PaymentID)
	fmt.Fprintf(&b, "Customer: %s (%s)\n", record.CustomerEmailDisplay(), record.CustomerIDDisplay())
	fmt.Fprintf(&b, "Amount: %s\n", record.AmountDisplay())
	fmt.Fprintf(&b, "Reason: %s\n", record.FailureReason)
	fmt.Fprintf(&b, "Time: %s\n", record.TimestampDisplay())
	return b.String()
}
