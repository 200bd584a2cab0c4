package driven

import (
	"context"

	"github.com/custodia-labs/docshelf/internal/core/domain"
)

// RemotePersister forwards saved documents to an external relational store.
// Forwarding is best-effort; callers log and continue on error.
type RemotePersister interface {
	// PersistRemote sends the payload and returns the remote ID.
	PersistRemote(ctx context.Context, payload domain.RemotePayload) (string, error)
}
