package data

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/xunxiing/astrabot-plugin-promise-keeper/internal/biz/domain"
)

func newRecord(userID, content string, due int64) *domain.PromiseRecord {
	return &domain.PromiseRecord{
		Content:          content,
		DueTimestamp:     due,
		MadeTimestamp:    1000,
		UserName:         "Tester",
		UserID:           userID,
		UnifiedMsgOrigin: "chat-1",
	}
}

func TestPromiseStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewPromiseRepo(dir)
	if err != nil {
		t.Fatalf("create store: %v", err)
	}

	if _, err := store.Add(ctx, "u1", newRecord("u1", "write tests", 5000)); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := store.Add(ctx, "u1", newRecord("u1", "review code", 0)); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := store.Add(ctx, "u2", newRecord("u2", "ship release", 9000)); err != nil {
		t.Fatalf("add: %v", err)
	}

	// A fresh store instance must see the same records
	reloaded, err := NewPromiseRepo(dir)
	if err != nil {
		t.Fatalf("reload store: %v", err)
	}

	u1 := reloaded.ListFor("u1")
	if len(u1) != 2 {
		t.Fatalf("expected 2 records for u1, got %d", len(u1))
	}
	if u1[0].Content != "write tests" || u1[0].DueTimestamp != 5000 {
		t.Errorf("record 0 round-trip mismatch: %+v", u1[0])
	}
	if u1[1].Content != "review code" || u1[1].DueTimestamp != 0 {
		t.Errorf("record 1 round-trip mismatch: %+v", u1[1])
	}
	if got := len(reloaded.AllRecords()); got != 3 {
		t.Errorf("expected 3 records total, got %d", got)
	}
}

func TestPromiseStoreDedup(t *testing.T) {
	store, err := NewPromiseRepo(t.TempDir())
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	ctx := context.Background()

	added, err := store.Add(ctx, "u1", newRecord("u1", "same promise", 0))
	if err != nil || !added {
		t.Fatalf("first add failed: added=%v err=%v", added, err)
	}

	added, err = store.Add(ctx, "u1", newRecord("u1", "same promise", 7777))
	if err != nil {
		t.Fatalf("duplicate add errored: %v", err)
	}
	if added {
		t.Error("duplicate content for the same user must be rejected")
	}

	// Same content for another user is fine
	added, _ = store.Add(ctx, "u2", newRecord("u2", "same promise", 0))
	if !added {
		t.Error("dedup is per-user, not global")
	}

	if got := len(store.ListFor("u1")); got != 1 {
		t.Errorf("u1 should hold 1 record, got %d", got)
	}
}

func TestPromiseStoreMissingFile(t *testing.T) {
	store, err := NewPromiseRepo(t.TempDir())
	if err != nil {
		t.Fatalf("missing file must not be an error: %v", err)
	}
	if got := len(store.AllRecords()); got != 0 {
		t.Errorf("fresh store should be empty, got %d records", got)
	}
}

func TestPromiseStoreCorruptFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "promises.json"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	store, err := NewPromiseRepo(dir)
	if err != nil {
		t.Fatalf("corrupt file must degrade to empty, not error: %v", err)
	}
	if got := len(store.AllRecords()); got != 0 {
		t.Errorf("corrupt store should load empty, got %d records", got)
	}
}

func TestPromiseStoreFlushPersistsFlags(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewPromiseRepo(dir)
	if err != nil {
		t.Fatal(err)
	}
	rec := newRecord("u1", "flagged", 5000)
	if _, err := store.Add(ctx, "u1", rec); err != nil {
		t.Fatal(err)
	}

	store.MarkReminded(rec)
	store.MarkHalfwayReminded(rec)
	if err := store.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}

	reloaded, err := NewPromiseRepo(dir)
	if err != nil {
		t.Fatal(err)
	}
	got := reloaded.ListFor("u1")
	if len(got) != 1 || !got[0].Reminded || !got[0].HalfwayReminded {
		t.Errorf("flags not persisted: %+v", got)
	}
}

func TestPromiseStoreWireFormat(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromiseRepo(dir)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.Add(context.Background(), "u1", newRecord("u1", "check format", 5000)); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "promises.json"))
	if err != nil {
		t.Fatal(err)
	}

	var parsed map[string][]map[string]interface{}
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("store file is not the expected nested JSON: %v", err)
	}
	fields := parsed["u1"][0]
	for _, key := range []string{"content", "due_timestamp", "made_timestamp", "user_name", "user_id", "unified_msg_origin", "reminded", "halfway_reminded"} {
		if _, ok := fields[key]; !ok {
			t.Errorf("wire field %q missing from store file", key)
		}
	}
}
