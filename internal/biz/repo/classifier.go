package repo

import "context"

// LabelPromise is the positive label name emitted by the local classifier.
const LabelPromise = "Promise"

// Prediction is the local classifier verdict for one message.
type Prediction struct {
	Label      int
	LabelName  string // "Promise" or "Not Promise"
	Confidence float64
}

// ClassifierRepo is the local short-text classifier interface.
// The model itself is a black box served by a sidecar process.
type ClassifierRepo interface {
	// Predict classifies text, optionally with the user's recent
	// conversation context.
	Predict(ctx context.Context, text, recentContext string) (*Prediction, error)
}
