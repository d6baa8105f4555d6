package repo

import "context"

// CompletionRepo is the generative confirmation provider interface.
type CompletionRepo interface {
	// Complete sends one prompt and returns the raw completion text.
	Complete(ctx context.Context, prompt, systemPrompt string) (string, error)
}
