package data

import (
	"context"

	"github.com/xunxiing/astrabot-plugin-promise-keeper/internal/biz/repo"
	"github.com/xunxiing/astrabot-plugin-promise-keeper/internal/infra/classifier"
)

// classifierRepo implements the classifier repository on the sidecar client
type classifierRepo struct {
	client *classifier.Client
}

// NewClassifierRepo creates a new classifier repository. A nil client yields
// a nil repository, which disables the detection gate upstream.
func NewClassifierRepo(client *classifier.Client) repo.ClassifierRepo {
	if client == nil {
		return nil
	}
	return &classifierRepo{client: client}
}

// Predict classifies one message with optional recent context
func (r *classifierRepo) Predict(ctx context.Context, text, recentContext string) (*repo.Prediction, error) {
	resp, err := r.client.Predict(ctx, text, recentContext)
	if err != nil {
		return nil, err
	}
	return &repo.Prediction{
		Label:      resp.Label,
		LabelName:  resp.LabelName,
		Confidence: resp.Confidence,
	}, nil
}
