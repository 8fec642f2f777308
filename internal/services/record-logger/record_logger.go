package recordlogger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mehanizm/airtable"

	"github.com/paymentops/payment-alerts/internal/logbuffer"
	"github.com/paymentops/payment-alerts/internal/models"
)

// ErrTableMissing marks store failures caused by the destination table not
// existing yet. The table has to be provisioned by hand; see schemaGuidance.
var ErrTableMissing = errors.New("record store table does not exist")

// RecordStore is the subset of the Airtable API the logger needs.
type RecordStore interface {
	AddRecords(records *airtable.Records) (*airtable.Records, error)
}

// RecordLogger appends one row per failed payment to the tabular store.
type RecordLogger struct {
	store     RecordStore
	tableName string
	logs      *logbuffer.Recorder
}

func New(store RecordStore, tableName string, logs *logbuffer.Recorder) *RecordLogger {
	return &RecordLogger{
		store:     store,
		tableName: tableName,
		logs:      logs,
	}
}

// Append writes one row with the fixed column mapping. A missing-table
// failure additionally emits the schema the table must be created with.
func (l *RecordLogger) Append(ctx context.Context, record models.FailureRecord) error {
	rows := &airtable.Records{
		Records: []*airtable.Record{
			{
				Fields: map[string]any{
					"Payment ID":     record.PaymentID,
					"Customer Email": record.CustomerEmailDisplay(),
					"Customer ID":    record.CustomerIDDisplay(),
					"Amount":         record.AmountDecimal(),
					"Currency":       strings.ToUpper(record.Currency),
					"Failure Reason": record.FailureReason,
					"Date":           record.TimestampDisplay(),
					"Status":         "Failed",
					"Alert Sent":     "Yes",
				},
			},
		},
	}

	if _, err := l.store.AddRecords(rows); err != nil {
		if isTableMissing(err) {
			l.schemaGuidance()
			return fmt.Errorf("%w: %v", ErrTableMissing, err)
		}
		return fmt.Errorf("failed to append failure record: %w", err)
	}
	l.logs.Infof("[record-logger] Failure record appended for payment %s", record.PaymentID)
	return nil
}

func (l *RecordLogger) schemaGuidance() {
	l.logs.Warnf("[record-logger] The table %q does not exist in the base.", l.tableName)
	l.logs.Warnf("[record-logger] Create it with exactly these fields:")
	l.logs.Warnf("[record-logger]   Payment ID (single line text)")
	l.logs.Warnf("[record-logger]   Customer Email (email)")
	l.logs.Warnf("[record-logger]   Customer ID (single line text)")
	l.logs.Warnf("[record-logger]   Amount (number, 2 decimal places)")
	l.logs.Warnf("[record-logger]   Currency (single line text)")
	l.logs.Warnf("[record-logger]   Failure Reason (long text)")
	l.logs.Warnf("[record-logger]   Date (date, include time)")
	l.logs.Warnf("[record-logger]   Status (single select with option: Failed)")
	l.logs.Warnf("[record-logger]   Alert Sent (single select with option: Yes)")
}

func isTableMissing(err error) bool {
	if err == nil {
		return false
	}
	message := err.Error()
	return strings.Contains(message, "TABLE_NOT_FOUND") ||
		strings.Contains(message, "NOT_FOUND") ||
		strings.Contains(message, "could not be found") ||
		strings.Contains(message, "status 404")
}
