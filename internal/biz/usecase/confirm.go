package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xunxiing/astrabot-plugin-promise-keeper/internal/biz/repo"
)

var (
	// ErrProviderUnavailable means no confirmation provider is configured.
	ErrProviderUnavailable = errors.New("confirmation provider unavailable")

	// ErrVerdictParse means the provider response was not valid verdict JSON.
	ErrVerdictParse = errors.New("verdict parse failed")
)

// Verdict is the structured confirmation result. The field names are the
// JSON contract demanded from the provider.
type Verdict struct {
	IsPromise      bool   `json:"is_promise"`
	PromiseContent string `json:"promise_content"`
	ReminderTime   string `json:"reminder_time"`
}

// DefaultConfirmSystemPrompt instructs the provider to answer with strict
// verdict JSON. reminder_time must be an English time phrase or "none" so
// the resolver can parse it.
const DefaultConfirmSystemPrompt = `You are a promise-detection assistant for a group chat bot.
Given recent conversation history and the current message, decide whether the
current message is a concrete promise made by its sender (a commitment to do
something, possibly by some deadline).

Respond with strict JSON only, no prose, exactly these three fields:
{"is_promise": <boolean>, "promise_content": "<short restatement of the promise, in the speaker's language>", "reminder_time": "<deadline as a simple English time phrase like 'tomorrow 6pm' or 'friday', or 'none'>"}`

// Confirmer is the expensive confirmation stage: it asks the generative
// provider to validate and structure a gate candidate.
type Confirmer struct {
	llm          repo.CompletionRepo
	systemPrompt string
}

// NewConfirmer creates a confirmer. A nil provider makes every Confirm fail
// with ErrProviderUnavailable; callers skip silently in that case.
func NewConfirmer(llm repo.CompletionRepo, systemPrompt string) *Confirmer {
	if systemPrompt == "" {
		systemPrompt = DefaultConfirmSystemPrompt
	}
	return &Confirmer{llm: llm, systemPrompt: systemPrompt}
}

// Enabled reports whether a provider is configured.
func (c *Confirmer) Enabled() bool {
	return c.llm != nil
}

// Confirm runs one confirmation call for the candidate message. No retry:
// transient provider failures drop the message for promise-tracking
// purposes. A negative verdict (not a promise, or empty content) is returned
// with IsPromise=false, not as an error.
func (c *Confirmer) Confirm(ctx context.Context, candidate string, history []string) (*Verdict, error) {
	if c.llm == nil {
		return nil, ErrProviderUnavailable
	}

	prompt := BuildConfirmPrompt(candidate, history)
	raw, err := c.llm.Complete(ctx, prompt, c.systemPrompt)
	if err != nil {
		return nil, fmt.Errorf("confirmation completion: %w", err)
	}

	payload := extractVerdictJSON(raw)
	var v Verdict
	if err := json.Unmarshal([]byte(payload), &v); err != nil {
		return nil, fmt.Errorf("%w: %v (raw response: %q)", ErrVerdictParse, err, raw)
	}

	if !v.IsPromise || strings.TrimSpace(v.PromiseContent) == "" {
		return &Verdict{}, nil
	}
	v.PromiseContent = strings.TrimSpace(v.PromiseContent)
	return &v, nil
}

// BuildConfirmPrompt formats the numbered history lines followed by the
// current message.
func BuildConfirmPrompt(candidate string, history []string) string {
	var sb strings.Builder
	sb.WriteString("对话历史：\n")
	if len(history) == 0 {
		sb.WriteString("(无)\n")
	}
	for i, line := range history {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, line)
	}
	sb.WriteString("\n当前消息：\n")
	sb.WriteString(candidate)
	return sb.String()
}

// extractVerdictJSON pulls the JSON payload out of a possibly prose-wrapped
// response. With a fence marker present it takes the substring from the
// first '{' to the last '}'. Best-effort heuristic: a response containing
// several JSON-like substrings can extract incorrectly.
func extractVerdictJSON(raw string) string {
	if strings.Contains(raw, "```") {
		i := strings.IndexByte(raw, '{')
		j := strings.LastIndexByte(raw, '}')
		if i >= 0 && j > i {
			return raw[i : j+1]
		}
	}
	return raw
}
