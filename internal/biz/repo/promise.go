package repo

import (
	"context"

	"github.com/xunxiing/astrabot-plugin-promise-keeper/internal/biz/domain"
)

// PromiseRepo is the durable promise store interface.
//
// Add persists the whole store synchronously. Flag mutations only touch
// memory; the reminder sweep batches them into a single Flush.
type PromiseRepo interface {
	// Add appends a record unless the user already has one with identical
	// content. Returns false when the duplicate was rejected.
	Add(ctx context.Context, userID string, rec *domain.PromiseRecord) (bool, error)

	// ListFor returns the user's records in insertion order.
	ListFor(userID string) []*domain.PromiseRecord

	// AllRecords returns every record across users, order unspecified.
	AllRecords() []*domain.PromiseRecord

	// AllByUser returns a snapshot of the full store.
	AllByUser() map[string][]*domain.PromiseRecord

	// MarkReminded flips the due-reminder flag in place.
	MarkReminded(rec *domain.PromiseRecord)

	// MarkHalfwayReminded flips the half-way flag in place.
	MarkHalfwayReminded(rec *domain.PromiseRecord)

	// Flush rewrites the backing file with the current in-memory state.
	Flush(ctx context.Context) error
}
