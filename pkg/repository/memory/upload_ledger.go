package memory

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/coachmem/pkg/domain/model"
)

type uploadLedgerRepository struct {
	mu      sync.RWMutex
	entries map[string]*model.UploadedSession
}

func newUploadLedgerRepository() *uploadLedgerRepository {
	return &uploadLedgerRepository{
		entries: make(map[string]*model.UploadedSession),
	}
}

func (r *uploadLedgerRepository) IsUploaded(ctx context.Context, sessionID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.entries[sessionID]
	return ok, nil
}

func (r *uploadLedgerRepository) MarkUploaded(ctx context.Context, entry *model.UploadedSession) error {
	if err := entry.Validate(); err != nil {
		return goerr.Wrap(err, "invalid upload ledger entry")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[entry.SessionID]; ok {
		return nil
	}

	copied := *entry
	r.entries[entry.SessionID] = &copied
	return nil
}

func (r *uploadLedgerRepository) ListUploaded(ctx context.Context, clientID string) ([]*model.UploadedSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var entries []*model.UploadedSession
	for _, entry := range r.entries {
		if entry.ClientID != clientID {
			continue
		}
		copied := *entry
		entries = append(entries, &copied)
	}

	slices.SortFunc(entries, compareUploadedAt)
	return entries, nil
}

func compareUploadedAt(a, b *model.UploadedSession) int {
	if c := a.UploadedAt.Compare(b.UploadedAt); c != 0 {
		return c
	}
	return strings.Compare(a.SessionID, b.SessionID)
}
