package data

import (
	"context"

	"github.com/xunxiing/astrabot-plugin-promise-keeper/internal/biz/repo"
	"github.com/xunxiing/astrabot-plugin-promise-keeper/internal/infra/llm"
)

// llmRepo implements the completion repository on the chat client
type llmRepo struct {
	client *llm.Client
}

// NewLLMRepo creates a new completion repository. A nil client yields a nil
// repository, which disables confirmation upstream.
func NewLLMRepo(client *llm.Client) repo.CompletionRepo {
	if client == nil {
		return nil
	}
	return &llmRepo{client: client}
}

// Complete sends one prompt and returns the raw completion text
func (r *llmRepo) Complete(ctx context.Context, prompt, systemPrompt string) (string, error) {
	return r.client.Chat(ctx, systemPrompt, prompt)
}
