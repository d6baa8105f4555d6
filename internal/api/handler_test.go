package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/xunxiing/astrabot-plugin-promise-keeper/internal/biz/domain"
	"github.com/xunxiing/astrabot-plugin-promise-keeper/internal/biz/usecase"
)

type mockPromiseRepo struct {
	byUser map[string][]*domain.PromiseRecord
}

func (m *mockPromiseRepo) Add(ctx context.Context, userID string, rec *domain.PromiseRecord) (bool, error) {
	m.byUser[userID] = append(m.byUser[userID], rec)
	return true, nil
}

func (m *mockPromiseRepo) ListFor(userID string) []*domain.PromiseRecord {
	return m.byUser[userID]
}

func (m *mockPromiseRepo) AllRecords() []*domain.PromiseRecord {
	var out []*domain.PromiseRecord
	for _, recs := range m.byUser {
		out = append(out, recs...)
	}
	return out
}

func (m *mockPromiseRepo) AllByUser() map[string][]*domain.PromiseRecord {
	return m.byUser
}

func (m *mockPromiseRepo) MarkReminded(rec *domain.PromiseRecord)        { rec.Reminded = true }
func (m *mockPromiseRepo) MarkHalfwayReminded(rec *domain.PromiseRecord) { rec.HalfwayReminded = true }
func (m *mockPromiseRepo) Flush(ctx context.Context) error               { return nil }

func testServer() *Server {
	repo := &mockPromiseRepo{byUser: map[string][]*domain.PromiseRecord{
		"u1": {
			{Content: "finish report", UserName: "Alice", MadeTimestamp: 100, DueTimestamp: 9999},
			{Content: "buy tea", UserName: "Alice", MadeTimestamp: 200},
		},
		"u2": {
			{Content: "ship release", UserName: "Bob", MadeTimestamp: 300},
		},
	}}
	return NewServer(usecase.NewQuery(repo), 0)
}

func TestHandleLeaderboard(t *testing.T) {
	s := testServer()

	req := httptest.NewRequest(http.MethodGet, "/api/leaderboard", nil)
	w := httptest.NewRecorder()
	s.handleLeaderboard(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var resp struct {
		Entries []usecase.LeaderboardEntry `json:"entries"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(resp.Entries))
	}
	if resp.Entries[0].Name != "Alice" || resp.Entries[0].Count != 2 {
		t.Errorf("entry 0 = %+v", resp.Entries[0])
	}
}

func TestHandleLeaderboardLimit(t *testing.T) {
	s := testServer()

	req := httptest.NewRequest(http.MethodGet, "/api/leaderboard?limit=1", nil)
	w := httptest.NewRecorder()
	s.handleLeaderboard(w, req)

	var resp struct {
		Entries []usecase.LeaderboardEntry `json:"entries"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Entries) != 1 {
		t.Errorf("limit ignored, got %d entries", len(resp.Entries))
	}
}

func TestHandleLeaderboardMethodNotAllowed(t *testing.T) {
	s := testServer()

	req := httptest.NewRequest(http.MethodPost, "/api/leaderboard", nil)
	w := httptest.NewRecorder()
	s.handleLeaderboard(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", w.Code)
	}
}

func TestHandlePromises(t *testing.T) {
	s := testServer()

	req := httptest.NewRequest(http.MethodGet, "/api/promises?user_id=u1", nil)
	w := httptest.NewRecorder()
	s.handlePromises(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var resp struct {
		UserID   string                `json:"user_id"`
		Name     string                `json:"name"`
		Promises []usecase.PromiseView `json:"promises"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Name != "Alice" || len(resp.Promises) != 2 {
		t.Errorf("resp = %+v", resp)
	}
	if resp.Promises[0].Status != "pending" || resp.Promises[1].Status != "logged" {
		t.Errorf("statuses = %s/%s", resp.Promises[0].Status, resp.Promises[1].Status)
	}
}

func TestHandlePromisesRequiresUserID(t *testing.T) {
	s := testServer()

	req := httptest.NewRequest(http.MethodGet, "/api/promises", nil)
	w := httptest.NewRecorder()
	s.handlePromises(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}
