package usecase

import (
	"context"
	"fmt"

	"github.com/xunxiing/astrabot-plugin-promise-keeper/internal/biz/repo"
)

// DefaultGateThreshold is the confidence a candidate must clear before the
// expensive confirmation stage is invoked.
const DefaultGateThreshold = 0.86

// Gate is the cheap local classifier pass that filters which messages reach
// the confirmation stage.
type Gate struct {
	classifier repo.ClassifierRepo
	threshold  float64
}

// NewGate creates a gate. A nil classifier disables the whole pipeline.
func NewGate(classifier repo.ClassifierRepo, threshold float64) *Gate {
	if threshold <= 0 || threshold >= 1 {
		threshold = DefaultGateThreshold
	}
	return &Gate{classifier: classifier, threshold: threshold}
}

// Enabled reports whether the classifier loaded at startup.
func (g *Gate) Enabled() bool {
	return g.classifier != nil
}

// GateResult is the gate verdict for one message.
type GateResult struct {
	IsPromise  bool    // classifier label
	Confidence float64 // classifier confidence in [0,1]
	Escalate   bool    // promise label above the threshold
}

// Check classifies one message with its recent context. With no classifier
// configured the result is always negative.
func (g *Gate) Check(ctx context.Context, text, recentContext string) (*GateResult, error) {
	if g.classifier == nil {
		return &GateResult{}, nil
	}

	pred, err := g.classifier.Predict(ctx, text, recentContext)
	if err != nil {
		return nil, fmt.Errorf("classifier predict: %w", err)
	}

	isPromise := pred.LabelName == repo.LabelPromise
	return &GateResult{
		IsPromise:  isPromise,
		Confidence: pred.Confidence,
		Escalate:   isPromise && pred.Confidence > g.threshold,
	}, nil
}
