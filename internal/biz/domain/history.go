package domain

import (
	"strings"
	"sync"
)

const (
	// HistoryCapacity is the number of recent messages kept per user.
	HistoryCapacity = 7
	// ContextWindowSize is the number of prior messages handed to the
	// local classifier as context.
	ContextWindowSize = 3
)

// HistoryBook keeps a bounded rolling window of raw message texts per user.
// It lives in process memory only and resets on restart.
type HistoryBook struct {
	mu       sync.Mutex
	capacity int
	byUser   map[string][]string
}

// NewHistoryBook creates an empty history book with the default capacity.
func NewHistoryBook() *HistoryBook {
	return &HistoryBook{
		capacity: HistoryCapacity,
		byUser:   make(map[string][]string),
	}
}

// Append pushes a message onto the user's window, silently evicting the
// oldest entry once the window is full.
func (h *HistoryBook) Append(userID, text string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	msgs := append(h.byUser[userID], text)
	if len(msgs) > h.capacity {
		msgs = msgs[len(msgs)-h.capacity:]
	}
	h.byUser[userID] = msgs
}

// ContextWindow returns up to ContextWindowSize messages preceding the
// newest one, joined by newlines. Empty when the user has no prior messages.
func (h *HistoryBook) ContextWindow(userID string) string {
	h.mu.Lock()
	defer h.mu.Unlock()

	msgs := h.byUser[userID]
	if len(msgs) <= 1 {
		return ""
	}
	prior := msgs[:len(msgs)-1]
	if len(prior) > ContextWindowSize {
		prior = prior[len(prior)-ContextWindowSize:]
	}
	return strings.Join(prior, "\n")
}

// FullHistory returns every stored message except the newest one, oldest
// first.
func (h *HistoryBook) FullHistory(userID string) []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	msgs := h.byUser[userID]
	if len(msgs) <= 1 {
		return nil
	}
	out := make([]string, len(msgs)-1)
	copy(out, msgs[:len(msgs)-1])
	return out
}
