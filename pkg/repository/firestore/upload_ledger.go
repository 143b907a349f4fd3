package firestore

import (
	"context"
	"net/url"
	"slices"
	"strings"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/coachmem/pkg/domain/model"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type uploadLedgerRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newUploadLedgerRepository(client *firestore.Client) *uploadLedgerRepository {
	return &uploadLedgerRepository{
		client: client,
	}
}

func (r *uploadLedgerRepository) collection() string {
	if r.collectionPrefix != "" {
		return r.collectionPrefix + "_uploaded_sessions"
	}
	return "uploaded_sessions"
}

// docRef escapes the session ID since Firestore document IDs cannot contain "/"
func (r *uploadLedgerRepository) docRef(sessionID string) *firestore.DocumentRef {
	return r.client.Collection(r.collection()).Doc(url.PathEscape(sessionID))
}

func (r *uploadLedgerRepository) IsUploaded(ctx context.Context, sessionID string) (bool, error) {
	if sessionID == "" {
		return false, nil
	}

	_, err := r.docRef(sessionID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return false, nil
		}
		return false, goerr.Wrap(err, "failed to get upload ledger entry", goerr.V("session_id", sessionID))
	}

	return true, nil
}

func (r *uploadLedgerRepository) MarkUploaded(ctx context.Context, entry *model.UploadedSession) error {
	if err := entry.Validate(); err != nil {
		return goerr.Wrap(err, "invalid upload ledger entry")
	}

	_, err := r.docRef(entry.SessionID).Create(ctx, entry)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return nil
		}
		return goerr.Wrap(err, "failed to create upload ledger entry", goerr.V("session_id", entry.SessionID))
	}

	return nil
}

// ListUploaded filters on client_id only and sorts in memory, so no composite
// index is required.
func (r *uploadLedgerRepository) ListUploaded(ctx context.Context, clientID string) ([]*model.UploadedSession, error) {
	iter := r.client.Collection(r.collection()).Where("client_id", "==", clientID).Documents(ctx)
	defer iter.Stop()

	var entries []*model.UploadedSession
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate upload ledger entries", goerr.V("client_id", clientID))
		}

		var entry model.UploadedSession
		if err := doc.DataTo(&entry); err != nil {
			return nil, goerr.Wrap(err, "failed to decode upload ledger entry",
				goerr.V("client_id", clientID),
				goerr.V("doc_id", doc.Ref.ID))
		}
		entries = append(entries, &entry)
	}

	slices.SortFunc(entries, func(a, b *model.UploadedSession) int {
		if c := a.UploadedAt.Compare(b.UploadedAt); c != 0 {
			return c
		}
		return strings.Compare(a.SessionID, b.SessionID)
	})
	return entries, nil
}
