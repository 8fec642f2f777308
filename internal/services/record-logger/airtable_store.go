package recordlogger

import (
	"context"

	"github.com/mehanizm/airtable"
)

// AirtableStore adapts one Airtable table to the RecordStore interface.
type AirtableStore struct {
	table *airtable.Table
}

func NewAirtableStore(apiKey, baseID, tableName string) *AirtableStore {
	client := airtable.NewClient(apiKey)
	return &AirtableStore{
		table: client.GetTable(baseID, tableName),
	}
}

func (s *AirtableStore) AddRecords(records *airtable.Records) (*airtable.Records, error) {
	return s.table.AddRecords(records)
}

// Ping lists zero records to verify the key, base, and table all resolve.
// Reports ErrTableMissing when the table has not been provisioned yet.
func (s *AirtableStore) Ping(ctx context.Context) error {
	_, err := s.table.GetRecords().WithFilterFormula("FALSE()").Do()
	if err == nil {
		return nil
	}
	if isTableMissing(err) {
		return ErrTableMissing
	}
	return err
}
