package interfaces

import (
	"context"

	"github.com/secmon-lab/coachmem/pkg/domain/model"
)

// UploadLedgerRepository records which coaching sessions have already been
// written to the memory provider, so a session is uploaded at most once.
type UploadLedgerRepository interface {
	// IsUploaded reports whether sessionID has been recorded
	IsUploaded(ctx context.Context, sessionID string) (bool, error)

	// MarkUploaded records sessionID. Marking an already recorded session
	// keeps the first entry.
	MarkUploaded(ctx context.Context, entry *model.UploadedSession) error

	// ListUploaded returns the entries recorded for clientID, oldest first
	ListUploaded(ctx context.Context, clientID string) ([]*model.UploadedSession, error)
}
