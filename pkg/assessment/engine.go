package assessment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ieltsgenai/prep-service/pkg/metrics"
	"github.com/ieltsgenai/prep-service/pkg/model"
)

// ErrEmptySubmission – submissão sem texto/transcrição
var ErrEmptySubmission = errors.New("assessment: empty submission")

// ModelClient abstrai o bedrockruntime (permite mocking).
type ModelClient interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// Submission é o payload avaliável: texto da redação (writing) ou
// transcrição da fala (speaking).
type Submission struct {
	Email      string
	Type       model.AssessmentType
	QuestionID string
	Text       string
}

// Engine — motores TrueScore (writing / Nova Micro) e ClearScore
// (speaking / Nova Sonic). A invocação do modelo gerenciado é best
// effort: qualquer falha cai para o avaliador local de rubrica, que
// sempre produz banda em [6.0, 8.5] e feedback não vazio.
type Engine struct {
	client       ModelClient
	microModelID string
	sonicModelID string
	timeout      time.Duration
	metrics      metrics.Provider
	scorer       *RubricScorer
}

func NewEngine(client ModelClient, microModelID, sonicModelID string, timeout time.Duration, provider metrics.Provider) *Engine {
	return &Engine{
		client:       client,
		microModelID: microModelID,
		sonicModelID: sonicModelID,
		timeout:      timeout,
		metrics:      provider,
		scorer:       NewRubricScorer(),
	}
}

// Evaluate avalia a submissão contra a questão e monta o resultado.
func (e *Engine) Evaluate(ctx context.Context, question model.Question, sub Submission) (*model.AssessmentResult, error) {
	if strings.TrimSpace(sub.Text) == "" {
		return nil, ErrEmptySubmission
	}

	_ = e.metrics.Count(metrics.MetricAssessmentSubmit, 1, []string{"type:" + string(sub.Type)})

	result := &model.AssessmentResult{
		ResultID:       uuid.NewString(),
		Email:          sub.Email,
		AssessmentType: string(sub.Type),
		QuestionID:     question.QuestionID,
		CreatedAt:      time.Now().Unix(),
	}

	scored, err := e.invokeModel(ctx, question, sub)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).
			Str("assessment_type", string(sub.Type)).
			Msg("model invocation failed, falling back to rubric scorer")
		_ = e.metrics.Count(metrics.MetricAssessmentFallbck, 1, []string{"type:" + string(sub.Type)})
		scored = e.scorer.Score(sub.Type, sub.Text)
		result.Source = model.ResultSourceRubric
	} else {
		result.Source = model.ResultSourceModel
	}

	result.BandScore = ClampBand(scored.BandScore)
	result.Feedback = scored.Feedback
	result.Criteria = scored.Criteria
	return result, nil
}

// scoredPayload é o contrato que o modelo deve devolver em JSON.
type scoredPayload struct {
	BandScore float64                `json:"band_score"`
	Feedback  string                 `json:"feedback"`
	Criteria  []model.CriterionScore `json:"criteria"`
}

func (e *Engine) invokeModel(ctx context.Context, question model.Question, sub Submission) (*scoredPayload, error) {
	modelID := e.microModelID
	if sub.Type.IsSpeaking() {
		modelID = e.sonicModelID
	}
	if e.client == nil || modelID == "" {
		return nil, fmt.Errorf("assessment: model not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	body, err := json.Marshal(map[string]interface{}{
		"messages": []map[string]interface{}{
			{
				"role": "user",
				"content": []map[string]string{
					{"text": buildExaminerPrompt(question, sub)},
				},
			},
		},
		"inferenceConfig": map[string]interface{}{
			"maxTokens":   1024,
			"temperature": 0.2,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("assessment: marshal request: %w", err)
	}

	contentType := "application/json"
	out, err := e.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     &modelID,
		Body:        body,
		ContentType: &contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("assessment: invoke %s: %w", modelID, err)
	}

	return parseModelResponse(out.Body)
}

func buildExaminerPrompt(question model.Question, sub Submission) string {
	skill := "writing response"
	if sub.Type.IsSpeaking() {
		skill = "speaking transcript"
	}
	return fmt.Sprintf(
		"You are a certified IELTS examiner. Assess the candidate's %s against "+
			"the official band descriptors.\n\nTask prompt: %s\n\nCandidate submission:\n%s\n\n"+
			"Reply with JSON only: {\"band_score\": <number>, \"feedback\": <string>, "+
			"\"criteria\": [{\"name\": <string>, \"score\": <number>, \"feedback\": <string>}]}",
		skill, question.Prompt, sub.Text,
	)
}

// parseModelResponse extrai o JSON de avaliação do envelope do modelo.
func parseModelResponse(raw []byte) (*scoredPayload, error) {
	var envelope struct {
		Output struct {
			Message struct {
				Content []struct {
					Text string `json:"text"`
				} `json:"content"`
			} `json:"message"`
		} `json:"output"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("assessment: parse envelope: %w", err)
	}
	if len(envelope.Output.Message.Content) == 0 {
		return nil, fmt.Errorf("assessment: empty model response")
	}

	text := envelope.Output.Message.Content[0].Text
	// Modelos às vezes cercam o JSON com texto; recorta do primeiro '{'
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("assessment: no JSON in model response")
	}

	var payload scoredPayload
	if err := json.Unmarshal([]byte(text[start:end+1]), &payload); err != nil {
		return nil, fmt.Errorf("assessment: parse score payload: %w", err)
	}
	if payload.BandScore <= 0 || payload.Feedback == "" {
		return nil, fmt.Errorf("assessment: incomplete score payload")
	}
	return &payload, nil
}
