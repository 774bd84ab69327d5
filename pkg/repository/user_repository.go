package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ieltsgenai/prep-service/pkg/dynstore"
	"github.com/ieltsgenai/prep-service/pkg/model"
)

var (
	// ErrUserNotFound – não existe usuário com esse email
	ErrUserNotFound = errors.New("repository: user not found")
	// ErrUserExists – registro duplicado no cadastro
	ErrUserExists = errors.New("repository: user already exists")
)

// UserRepository — acesso à tabela de usuários (hash key: email).
type UserRepository struct {
	store dynstore.Store[model.User]
}

func NewUserRepository(client dynstore.Client, table string) *UserRepository {
	return &UserRepository{
		store: dynstore.New[model.User](client, dynstore.TableConfig{
			TableName: table,
			HashKey:   "email",
		}),
	}
}

// Create cadastra um usuário novo; email duplicado retorna ErrUserExists.
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	if user.CreatedAt == 0 {
		user.CreatedAt = time.Now().Unix()
	}
	if user.Status == "" {
		user.Status = model.UserStatusActive
	}
	if err := r.store.PutIfAbsent(ctx, *user); err != nil {
		if errors.Is(err, dynstore.ErrConditionFailed) {
			return ErrUserExists
		}
		return fmt.Errorf("user create: %w", err)
	}
	return nil
}

// GetByEmail — busca por chave primária.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := r.store.Get(ctx, email, nil)
	if err != nil {
		if errors.Is(err, dynstore.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user get: %w", err)
	}
	return user, nil
}

// IncrementFailedAttempts soma 1 ao contador de falhas de login de forma
// atômica e retorna o novo total.
func (r *UserRepository) IncrementFailedAttempts(ctx context.Context, email string) (int, error) {
	return r.store.AddInt(ctx, email, nil, "failed_attempts", 1, 0)
}

// RecordLogin zera o contador de falhas e grava o último acesso.
func (r *UserRepository) RecordLogin(ctx context.Context, user *model.User) error {
	user.FailedAttempts = 0
	user.LastLoginAt = time.Now().Unix()
	return r.store.Put(ctx, *user, 0)
}

// Lock marca a conta como bloqueada após exceder o limite de falhas.
func (r *UserRepository) Lock(ctx context.Context, user *model.User) error {
	user.Status = model.UserStatusLocked
	return r.store.Put(ctx, *user, 0)
}

// NewUserRepositoryWithStore permite injetar um Store mockado nos testes.
func NewUserRepositoryWithStore(store dynstore.Store[model.User]) *UserRepository {
	return &UserRepository{store: store}
}
