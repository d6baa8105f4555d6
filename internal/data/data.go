package data

import (
	"path/filepath"

	"github.com/xunxiing/astrabot-plugin-promise-keeper/internal/biz/repo"
	"github.com/xunxiing/astrabot-plugin-promise-keeper/internal/infra/classifier"
	"github.com/xunxiing/astrabot-plugin-promise-keeper/internal/infra/lark"
	"github.com/xunxiing/astrabot-plugin-promise-keeper/internal/infra/llm"
	"github.com/xunxiing/astrabot-plugin-promise-keeper/internal/infra/render"
)

// Repositories contains all repositories
type Repositories struct {
	Message      repo.MessageRepo
	Promise      repo.PromiseRepo
	Classifier   repo.ClassifierRepo
	Completion   repo.CompletionRepo
	DetectionLog repo.DetectionLogRepo
	Render       repo.RenderRepo
}

// NewRepositories creates all repositories. classifierCli, llmCli and
// renderer may be nil; the corresponding features degrade gracefully.
func NewRepositories(
	larkClient *lark.Client,
	classifierCli *classifier.Client,
	llmCli *llm.Client,
	renderer *render.Renderer,
	dataDir string,
) (*Repositories, error) {
	promiseRepo, err := NewPromiseRepo(dataDir)
	if err != nil {
		return nil, err
	}

	// Detection audit log shares the data directory with the promise store
	detectionLog, err := NewDetectionLogRepo(filepath.Join(dataDir, "detections.db"))
	if err != nil {
		return nil, err
	}

	return &Repositories{
		Message:      NewLarkRepo(larkClient),
		Promise:      promiseRepo,
		Classifier:   NewClassifierRepo(classifierCli),
		Completion:   NewLLMRepo(llmCli),
		DetectionLog: detectionLog,
		Render:       NewRenderRepo(renderer),
	}, nil
}
