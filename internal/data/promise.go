package data

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/xunxiing/astrabot-plugin-promise-keeper/internal/biz/domain"
	"github.com/xunxiing/astrabot-plugin-promise-keeper/internal/biz/repo"
)

// promiseRepo implements the promise store on a flat JSON file.
// The whole store is held in memory; every durable write rewrites the file.
type promiseRepo struct {
	mu     sync.Mutex
	path   string
	byUser map[string][]*domain.PromiseRecord
}

// NewPromiseRepo creates the store, loading promises.json from dataDir.
// A missing file is a normal first run; a corrupt file is logged and
// treated as empty rather than blocking startup.
func NewPromiseRepo(dataDir string) (repo.PromiseRepo, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	r := &promiseRepo{
		path:   filepath.Join(dataDir, "promises.json"),
		byUser: make(map[string][]*domain.PromiseRecord),
	}
	r.load()
	return r, nil
}

func (r *promiseRepo) load() {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if !os.IsNotExist(err) {
			fmt.Printf("[PromiseStore] Failed to read %s: %v, starting empty\n", r.path, err)
		}
		return
	}

	var byUser map[string][]*domain.PromiseRecord
	if err := json.Unmarshal(data, &byUser); err != nil {
		fmt.Printf("[PromiseStore] Corrupt store file %s: %v, starting empty\n", r.path, err)
		return
	}
	if byUser != nil {
		r.byUser = byUser
	}
}

// save rewrites the whole file. Caller holds the lock.
func (r *promiseRepo) save() error {
	data, err := json.MarshalIndent(r.byUser, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal store: %w", err)
	}
	if err := os.WriteFile(r.path, data, 0644); err != nil {
		return fmt.Errorf("write store: %w", err)
	}
	return nil
}

// Add appends the record and persists synchronously. Duplicate content for
// the same user is rejected. The in-memory record survives a failed save so
// reminders still work for the current process.
func (r *promiseRepo) Add(ctx context.Context, userID string, rec *domain.PromiseRecord) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.byUser[userID] {
		if existing.Content == rec.Content {
			return false, nil
		}
	}

	r.byUser[userID] = append(r.byUser[userID], rec)
	if err := r.save(); err != nil {
		return true, err
	}
	return true, nil
}

// ListFor returns the user's records in insertion order.
func (r *promiseRepo) ListFor(userID string) []*domain.PromiseRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	recs := r.byUser[userID]
	out := make([]*domain.PromiseRecord, len(recs))
	copy(out, recs)
	return out
}

// AllRecords returns every record across users.
func (r *promiseRepo) AllRecords() []*domain.PromiseRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*domain.PromiseRecord
	for _, recs := range r.byUser {
		out = append(out, recs...)
	}
	return out
}

// AllByUser returns a snapshot of the store. The slices are copies but the
// records are shared, matching the flag-mutation contract.
func (r *promiseRepo) AllByUser() map[string][]*domain.PromiseRecord {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string][]*domain.PromiseRecord, len(r.byUser))
	for id, recs := range r.byUser {
		cp := make([]*domain.PromiseRecord, len(recs))
		copy(cp, recs)
		out[id] = cp
	}
	return out
}

// MarkReminded flips the due-reminder flag. Memory only; Flush persists.
func (r *promiseRepo) MarkReminded(rec *domain.PromiseRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec.Reminded = true
}

// MarkHalfwayReminded flips the half-way flag. Memory only; Flush persists.
func (r *promiseRepo) MarkHalfwayReminded(rec *domain.PromiseRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec.HalfwayReminded = true
}

// Flush rewrites the backing file with the current in-memory state.
func (r *promiseRepo) Flush(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.save()
}
