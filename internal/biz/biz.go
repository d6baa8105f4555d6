package biz

import (
	"github.com/xunxiing/astrabot-plugin-promise-keeper/internal/biz/usecase"
)

// Usecases contains all usecases.
type Usecases struct {
	Gate      *usecase.Gate
	Confirmer *usecase.Confirmer
	Resolver  *usecase.TimeResolver
	Query     *usecase.Query
}
