package api

import (
	"context"

	"taskboard-api/domain"
)

// Store abstracts persistence for handlers: the four entity stores plus the
// advisory event queue.
type Store interface {
	domain.WorkspaceStore
	domain.MemberStore
	domain.ProjectStore
	domain.TaskStore
	EnqueueEvent(ctx context.Context, ev domain.Event) error
}

// Authenticator is implemented by types able to extract user IDs from headers.
type Authenticator interface {
	UserIDFromAuthHeader(string) (string, error)
}

// Deduper prevents reprocessing of replayed requests.
type Deduper interface {
	// Add records the idempotency key and returns true if it was newly added.
	Add(ctx context.Context, userID, key string) (bool, error)
	// Remove deletes a previously added key, used when processing fails so the
	// caller may retry.
	Remove(ctx context.Context, userID, key string) error
}
