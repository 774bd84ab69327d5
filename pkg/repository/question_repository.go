package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/ieltsgenai/prep-service/pkg/dynstore"
	"github.com/ieltsgenai/prep-service/pkg/model"
)

// QuestionRepository — banco de questões no DynamoDB
// (hash key: assessment_type, sort key: question_id), com cache em
// processo e fallback para o banco embutido quando a tabela falha.
// O cache é invalidado pelo reloader SQS quando o banco muda.
type QuestionRepository struct {
	store dynstore.Store[model.Question]

	mu    sync.RWMutex
	cache map[model.AssessmentType][]model.Question
}

func NewQuestionRepository(client dynstore.Client, table string) *QuestionRepository {
	return &QuestionRepository{
		store: dynstore.New[model.Question](client, dynstore.TableConfig{
			TableName: table,
			HashKey:   "assessment_type",
			SortKey:   "question_id",
		}),
		cache: make(map[model.AssessmentType][]model.Question),
	}
}

// ListByType retorna as questões do tipo, preferindo o cache.
func (r *QuestionRepository) ListByType(ctx context.Context, t model.AssessmentType) ([]model.Question, error) {
	r.mu.RLock()
	cached, ok := r.cache[t]
	r.mu.RUnlock()
	if ok {
		return cached, nil
	}

	questions, err := r.store.QueryByHash(ctx, string(t), 0)
	if err != nil || len(questions) == 0 {
		// Tabela indisponível ou vazia: cai para o banco embutido.
		// Logado de propósito; a versão anterior engolia esse erro.
		if err != nil {
			log.Ctx(ctx).Warn().Err(err).
				Str("assessment_type", string(t)).
				Msg("question table unavailable, serving embedded bank")
		}
		// O fallback não entra no cache; a próxima requisição volta
		// à tabela em vez de ficar presa no banco embutido.
		fallback := defaultQuestions(t)
		if len(fallback) == 0 {
			return nil, fmt.Errorf("question list: no questions for type %q", t)
		}
		return fallback, nil
	}

	r.mu.Lock()
	r.cache[t] = questions
	r.mu.Unlock()

	return questions, nil
}

// ActiveQuestion retorna a primeira questão publicada do tipo.
func (r *QuestionRepository) ActiveQuestion(ctx context.Context, t model.AssessmentType) (*model.Question, error) {
	questions, err := r.ListByType(ctx, t)
	if err != nil {
		return nil, err
	}
	return &questions[0], nil
}

// Get busca uma questão específica; cai para o banco embutido se ausente.
func (r *QuestionRepository) Get(ctx context.Context, t model.AssessmentType, questionID string) (*model.Question, error) {
	questions, err := r.ListByType(ctx, t)
	if err != nil {
		return nil, err
	}
	for i := range questions {
		if questions[i].QuestionID == questionID {
			return &questions[i], nil
		}
	}
	return nil, fmt.Errorf("question get: %q not found for type %q", questionID, t)
}

// Invalidate descarta o cache (chamado pelo reloader SQS).
func (r *QuestionRepository) Invalidate() {
	r.mu.Lock()
	r.cache = make(map[model.AssessmentType][]model.Question)
	r.mu.Unlock()
}

// NewQuestionRepositoryWithStore permite injetar um Store mockado nos testes.
func NewQuestionRepositoryWithStore(store dynstore.Store[model.Question]) *QuestionRepository {
	return &QuestionRepository{
		store: store,
		cache: make(map[model.AssessmentType][]model.Question),
	}
}
