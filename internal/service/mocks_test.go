package service

import (
	"context"
	"errors"
	"sync"

	"github.com/xunxiing/astrabot-plugin-promise-keeper/internal/biz/domain"
	"github.com/xunxiing/astrabot-plugin-promise-keeper/internal/biz/repo"
)

// Mock implementations shared by the service tests.

type mockPromiseRepo struct {
	mu         sync.Mutex
	byUser     map[string][]*domain.PromiseRecord
	addErr     error
	flushErr   error
	flushCount int
}

func newMockPromiseRepo() *mockPromiseRepo {
	return &mockPromiseRepo{byUser: make(map[string][]*domain.PromiseRecord)}
}

func (m *mockPromiseRepo) Add(ctx context.Context, userID string, rec *domain.PromiseRecord) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byUser[userID] {
		if existing.Content == rec.Content {
			return false, nil
		}
	}
	m.byUser[userID] = append(m.byUser[userID], rec)
	return true, m.addErr
}

func (m *mockPromiseRepo) ListFor(userID string) []*domain.PromiseRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byUser[userID]
}

func (m *mockPromiseRepo) AllRecords() []*domain.PromiseRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.PromiseRecord
	for _, recs := range m.byUser {
		out = append(out, recs...)
	}
	return out
}

func (m *mockPromiseRepo) AllByUser() map[string][]*domain.PromiseRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byUser
}

func (m *mockPromiseRepo) MarkReminded(rec *domain.PromiseRecord)        { rec.Reminded = true }
func (m *mockPromiseRepo) MarkHalfwayReminded(rec *domain.PromiseRecord) { rec.HalfwayReminded = true }

func (m *mockPromiseRepo) Flush(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.flushCount++
	return m.flushErr
}

type sentText struct {
	ChatID string
	Text   string
	Target *domain.Member
}

type mockMessageRepo struct {
	mu      sync.Mutex
	sent    []sentText
	images  [][]byte
	sendErr error
	members map[string][]domain.Member
}

func newMockMessageRepo() *mockMessageRepo {
	return &mockMessageRepo{members: make(map[string][]domain.Member)}
}

func (m *mockMessageRepo) SendText(ctx context.Context, chatID, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, sentText{ChatID: chatID, Text: text})
	return nil
}

func (m *mockMessageRepo) SendTextWithMention(ctx context.Context, chatID, text string, target *domain.Member) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, sentText{ChatID: chatID, Text: text, Target: target})
	return nil
}

func (m *mockMessageRepo) SendImage(ctx context.Context, chatID string, png []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.images = append(m.images, png)
	return nil
}

func (m *mockMessageRepo) GetChatMembers(ctx context.Context, chatID string) ([]domain.Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.members[chatID], nil
}

func (m *mockMessageRepo) sentTexts() []sentText {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]sentText, len(m.sent))
	copy(out, m.sent)
	return out
}

type mockDetectLog struct {
	mu      sync.Mutex
	rows    []*repo.Detection
	statsV  repo.DetectionStats
	statErr error
}

func (m *mockDetectLog) Record(ctx context.Context, d *repo.Detection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, d)
	return nil
}

func (m *mockDetectLog) Stats(ctx context.Context) (*repo.DetectionStats, error) {
	if m.statErr != nil {
		return nil, m.statErr
	}
	return &m.statsV, nil
}

func (m *mockDetectLog) Close() error { return nil }

type mockRenderer struct {
	png []byte
	err error
}

func (m *mockRenderer) RenderHTML(ctx context.Context, html string, width int) ([]byte, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.png, nil
}

type mockClassifier struct {
	prediction *repo.Prediction
	err        error
}

func (m *mockClassifier) Predict(ctx context.Context, text, recentContext string) (*repo.Prediction, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.prediction, nil
}

type mockCompletion struct {
	response string
	err      error
}

func (m *mockCompletion) Complete(ctx context.Context, prompt, systemPrompt string) (string, error) {
	return m.response, m.err
}

var errSendFailed = errors.New("send failed")
