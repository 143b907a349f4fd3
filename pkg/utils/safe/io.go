package safe

import (
	"context"
	"io"

	"github.com/secmon-lab/coachmem/pkg/utils/logging"
)

// maxDrainBytes bounds how much of an unread body is discarded before close
const maxDrainBytes = 64 << 10

// Close closes closer and logs a failure. Nil closers are ignored.
func Close(ctx context.Context, closer io.Closer) {
	if closer == nil {
		return
	}
	if err := closer.Close(); err != nil {
		logging.From(ctx).Warn("failed to close", "error", err)
	}
}

// DrainAndClose discards what is left of an HTTP response body, up to a
// bound, then closes it so the underlying connection can be reused.
func DrainAndClose(ctx context.Context, body io.ReadCloser) {
	if body == nil {
		return
	}
	if _, err := io.Copy(io.Discard, io.LimitReader(body, maxDrainBytes)); err != nil {
		logging.From(ctx).Debug("failed to drain response body", "error", err)
	}
	Close(ctx, body)
}
