package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ieltsgenai/prep-service/pkg/dynstore"
	"github.com/ieltsgenai/prep-service/pkg/model"
)

// ErrNoAttemptsLeft – o saldo de tentativas do produto acabou
var ErrNoAttemptsLeft = errors.New("repository: no attempts left")

// AttemptRepository — saldo de tentativas por usuário e produto
// (hash key: email, sort key: assessment_type). O decremento é um
// UpdateItem condicional: duas submissões concorrentes nunca consomem
// a mesma tentativa.
type AttemptRepository struct {
	store dynstore.Store[model.AttemptAllowance]
}

func NewAttemptRepository(client dynstore.Client, table string) *AttemptRepository {
	return &AttemptRepository{
		store: dynstore.New[model.AttemptAllowance](client, dynstore.TableConfig{
			TableName: table,
			HashKey:   "email",
			SortKey:   "assessment_type",
		}),
	}
}

// Grant concede o saldo padrão de uma compra (upsert).
func (r *AttemptRepository) Grant(ctx context.Context, email string, t model.AssessmentType) error {
	allowance := model.AttemptAllowance{
		Email:          email,
		AssessmentType: string(t),
		Remaining:      model.DefaultAttemptsPerPurchase,
		PurchasedAt:    time.Now().Unix(),
	}
	if err := r.store.Put(ctx, allowance, 0); err != nil {
		return fmt.Errorf("attempt grant: %w", err)
	}
	return nil
}

// Get retorna o saldo atual (ErrNoAttemptsLeft se nunca houve compra).
func (r *AttemptRepository) Get(ctx context.Context, email string, t model.AssessmentType) (*model.AttemptAllowance, error) {
	allowance, err := r.store.Get(ctx, email, string(t))
	if err != nil {
		if errors.Is(err, dynstore.ErrNotFound) {
			return nil, ErrNoAttemptsLeft
		}
		return nil, fmt.Errorf("attempt get: %w", err)
	}
	return allowance, nil
}

// Consume debita uma tentativa e retorna o saldo restante.
func (r *AttemptRepository) Consume(ctx context.Context, email string, t model.AssessmentType) (int, error) {
	remaining, err := r.store.AddInt(ctx, email, string(t), "remaining", -1, 0)
	if err != nil {
		if errors.Is(err, dynstore.ErrConditionFailed) {
			return 0, ErrNoAttemptsLeft
		}
		return 0, fmt.Errorf("attempt consume: %w", err)
	}
	return remaining, nil
}

// List retorna os saldos de todos os produtos do usuário (dashboard).
func (r *AttemptRepository) List(ctx context.Context, email string) ([]model.AttemptAllowance, error) {
	allowances, err := r.store.QueryByHash(ctx, email, 0)
	if err != nil {
		return nil, fmt.Errorf("attempt list: %w", err)
	}
	return allowances, nil
}

// NewAttemptRepositoryWithStore permite injetar um Store mockado nos testes.
func NewAttemptRepositoryWithStore(store dynstore.Store[model.AttemptAllowance]) *AttemptRepository {
	return &AttemptRepository{store: store}
}
