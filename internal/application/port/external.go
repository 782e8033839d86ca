package port

import (
	"context"

	"github.com/printdock/labelsync/internal/domain/entity"
)

// RecordSource defines read operations against the remote product database
type RecordSource interface {
	// ListRecords fetches every row, following pagination to exhaustion
	ListRecords(ctx context.Context) ([]entity.Record, error)

	// GetRecord fetches a single row by its page ID
	GetRecord(ctx context.Context, id string) (*entity.Record, error)
}

// CredentialSource supplies Google service account credentials. Returning
// nil bytes with a nil error means no credential is configured and the
// authenticated download strategy should step aside.
type CredentialSource interface {
	ServiceAccountJSON(ctx context.Context) ([]byte, error)
}
