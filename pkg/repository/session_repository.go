package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ieltsgenai/prep-service/pkg/dynstore"
	"github.com/ieltsgenai/prep-service/pkg/model"
)

// ErrSessionNotFound – token ausente, expirado ou desconhecido
var ErrSessionNotFound = errors.New("repository: session not found")

// SessionRepository — store de sessão EXTERNO ao processo. Duas
// implementações: Redis (TTL no SET) e DynamoDB (atributo TTL). Em
// qualquer uma, invocações Lambda concorrentes enxergam o mesmo estado.
type SessionRepository interface {
	Create(ctx context.Context, session model.Session) error
	Get(ctx context.Context, token string) (*model.Session, error)
	Delete(ctx context.Context, token string) error
}

// ---------------------------------------------------------------------
// DynamoDB
// ---------------------------------------------------------------------

type dynamoSessionRepository struct {
	store dynstore.Store[model.Session]
}

// NewDynamoSessionRepository usa a tabela de sessões com TTL server-side
// no atributo expires_at.
func NewDynamoSessionRepository(client dynstore.Client, table string) SessionRepository {
	return &dynamoSessionRepository{
		store: dynstore.New[model.Session](client, dynstore.TableConfig{
			TableName:    table,
			HashKey:      "session_id",
			TTLAttribute: "expires_at",
		}),
	}
}

func (r *dynamoSessionRepository) Create(ctx context.Context, session model.Session) error {
	if err := r.store.Put(ctx, session, session.ExpiresAt); err != nil {
		return fmt.Errorf("session create: %w", err)
	}
	return nil
}

func (r *dynamoSessionRepository) Get(ctx context.Context, token string) (*model.Session, error) {
	session, err := r.store.Get(ctx, token, nil)
	if err != nil {
		if errors.Is(err, dynstore.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("session get: %w", err)
	}
	return session, nil
}

func (r *dynamoSessionRepository) Delete(ctx context.Context, token string) error {
	if err := r.store.Delete(ctx, token, nil); err != nil {
		return fmt.Errorf("session delete: %w", err)
	}
	return nil
}

// ---------------------------------------------------------------------
// Redis
// ---------------------------------------------------------------------

// RedisClient abstrai os comandos usados (permite mocking com miniredis
// ou com um client real apontando para localhost).
type RedisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type redisSessionRepository struct {
	client RedisClient
}

const redisSessionPrefix = "web_session:"

// NewRedisSessionRepository cria o repositório sobre um client go-redis.
func NewRedisSessionRepository(client RedisClient) SessionRepository {
	return &redisSessionRepository{client: client}
}

// NewRedisClient conecta no endereço configurado (ElastiCache ou local).
func NewRedisClient(addr, password string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
}

func (r *redisSessionRepository) Create(ctx context.Context, session model.Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("session marshal: %w", err)
	}

	ttl := session.TTL(time.Now())
	if ttl <= 0 {
		return fmt.Errorf("session create: already expired")
	}

	if err := r.client.Set(ctx, redisSessionPrefix+session.Token, payload, ttl).Err(); err != nil {
		return fmt.Errorf("session create: %w", err)
	}
	return nil
}

func (r *redisSessionRepository) Get(ctx context.Context, token string) (*model.Session, error) {
	raw, err := r.client.Get(ctx, redisSessionPrefix+token).Result()
	if err == redis.Nil {
		return nil, ErrSessionNotFound
	} else if err != nil {
		return nil, fmt.Errorf("session get: %w", err)
	}

	var session model.Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return nil, fmt.Errorf("session unmarshal: %w", err)
	}
	return &session, nil
}

func (r *redisSessionRepository) Delete(ctx context.Context, token string) error {
	if err := r.client.Del(ctx, redisSessionPrefix+token).Err(); err != nil {
		return fmt.Errorf("session delete: %w", err)
	}
	return nil
}
