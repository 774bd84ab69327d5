package repository

import (
	"context"
	"fmt"

	"github.com/ieltsgenai/prep-service/pkg/dynstore"
	"github.com/ieltsgenai/prep-service/pkg/model"
)

// ResultRepository — histórico de avaliações
// (hash key: email, sort key: result_id).
type ResultRepository struct {
	store dynstore.Store[model.AssessmentResult]
}

func NewResultRepository(client dynstore.Client, table string) *ResultRepository {
	return &ResultRepository{
		store: dynstore.New[model.AssessmentResult](client, dynstore.TableConfig{
			TableName: table,
			HashKey:   "email",
			SortKey:   "result_id",
		}),
	}
}

// Save persiste o resultado devolvido ao candidato.
func (r *ResultRepository) Save(ctx context.Context, result model.AssessmentResult) error {
	if err := r.store.Put(ctx, result, 0); err != nil {
		return fmt.Errorf("result save: %w", err)
	}
	return nil
}

// ListByEmail lista o histórico do usuário (dashboard).
func (r *ResultRepository) ListByEmail(ctx context.Context, email string, limit int32) ([]model.AssessmentResult, error) {
	results, err := r.store.QueryByHash(ctx, email, limit)
	if err != nil {
		return nil, fmt.Errorf("result list: %w", err)
	}
	return results, nil
}

// NewResultRepositoryWithStore permite injetar um Store mockado nos testes.
func NewResultRepositoryWithStore(store dynstore.Store[model.AssessmentResult]) *ResultRepository {
	return &ResultRepository{store: store}
}
