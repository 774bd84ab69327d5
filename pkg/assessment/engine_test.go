package assessment

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ieltsgenai/prep-service/pkg/model"
)

type noopMetrics struct{}

func (noopMetrics) Count(name string, value float64, tags []string) error     { return nil }
func (noopMetrics) Gauge(name string, value float64, tags []string) error     { return nil }
func (noopMetrics) Histogram(name string, value float64, tags []string) error { return nil }

type mockModelClient struct {
	InvokeModelFn func(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

func (m *mockModelClient) InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	return m.InvokeModelFn(ctx, params, optFns...)
}

// modelEnvelope monta a resposta no formato messages do Nova.
func modelEnvelope(t *testing.T, text string) []byte {
	t.Helper()
	raw, err := json.Marshal(map[string]interface{}{
		"output": map[string]interface{}{
			"message": map[string]interface{}{
				"content": []map[string]string{{"text": text}},
			},
		},
	})
	require.NoError(t, err)
	return raw
}

func testQuestion() model.Question {
	return model.Question{
		AssessmentType: string(model.AcademicWriting),
		QuestionID:     "aw-001",
		Prompt:         "Discuss both views and give your own opinion.",
	}
}

func TestEngine_Evaluate_ModelPath(t *testing.T) {
	client := &mockModelClient{
		InvokeModelFn: func(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
			assert.Equal(t, "amazon.nova-micro-v1:0", *params.ModelId)
			return &bedrockruntime.InvokeModelOutput{
				Body: modelEnvelope(t, `{"band_score": 7.2, "feedback": "Well argued.", `+
					`"criteria": [{"name": "Task Achievement", "score": 7.0, "feedback": "Good."}]}`),
			}, nil
		},
	}
	engine := NewEngine(client, "amazon.nova-micro-v1:0", "amazon.nova-sonic-v1:0", time.Second, noopMetrics{})

	result, err := engine.Evaluate(context.Background(), testQuestion(), Submission{
		Email:      "u@e.com",
		Type:       model.AcademicWriting,
		QuestionID: "aw-001",
		Text:       "My essay text.",
	})
	require.NoError(t, err)

	assert.Equal(t, model.ResultSourceModel, result.Source)
	assert.Equal(t, 7.0, result.BandScore) // 7.2 arredondado para o passo 0.5
	assert.Equal(t, "Well argued.", result.Feedback)
	assert.NotEmpty(t, result.ResultID)
	assert.Equal(t, "u@e.com", result.Email)
}

func TestEngine_Evaluate_SpeakingUsesSonicModel(t *testing.T) {
	var gotModel string
	client := &mockModelClient{
		InvokeModelFn: func(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
			gotModel = *params.ModelId
			return &bedrockruntime.InvokeModelOutput{
				Body: modelEnvelope(t, `{"band_score": 6.5, "feedback": "Fluent."}`),
			}, nil
		},
	}
	engine := NewEngine(client, "amazon.nova-micro-v1:0", "amazon.nova-sonic-v1:0", time.Second, noopMetrics{})

	_, err := engine.Evaluate(context.Background(), testQuestion(), Submission{
		Type: model.GeneralSpeaking,
		Text: "My speaking transcript.",
	})
	require.NoError(t, err)
	assert.Equal(t, "amazon.nova-sonic-v1:0", gotModel)
}

func TestEngine_Evaluate_FallsBackToRubric(t *testing.T) {
	client := &mockModelClient{
		InvokeModelFn: func(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
			return nil, errors.New("throttled")
		},
	}
	engine := NewEngine(client, "amazon.nova-micro-v1:0", "amazon.nova-sonic-v1:0", time.Second, noopMetrics{})

	result, err := engine.Evaluate(context.Background(), testQuestion(), Submission{
		Type: model.AcademicWriting,
		Text: "My essay text with enough words to be scored by the rubric.",
	})
	require.NoError(t, err)

	assert.Equal(t, model.ResultSourceRubric, result.Source)
	assert.GreaterOrEqual(t, result.BandScore, MinBand)
	assert.LessOrEqual(t, result.BandScore, MaxBand)
	assert.NotEmpty(t, result.Feedback)
	assert.Len(t, result.Criteria, 4)
}

func TestEngine_Evaluate_NoClientStillScores(t *testing.T) {
	engine := NewEngine(nil, "", "", time.Second, noopMetrics{})

	result, err := engine.Evaluate(context.Background(), testQuestion(), Submission{
		Type: model.AcademicWriting,
		Text: "Essay.",
	})
	require.NoError(t, err)
	assert.Equal(t, model.ResultSourceRubric, result.Source)
}

func TestEngine_Evaluate_EmptySubmission(t *testing.T) {
	engine := NewEngine(nil, "", "", time.Second, noopMetrics{})

	_, err := engine.Evaluate(context.Background(), testQuestion(), Submission{
		Type: model.AcademicWriting,
		Text: "   \n\t ",
	})
	assert.ErrorIs(t, err, ErrEmptySubmission)
}

func TestParseModelResponse(t *testing.T) {
	raw := modelEnvelope(t, "Here is my assessment:\n"+
		`{"band_score": 8.0, "feedback": "Excellent.", "criteria": []}`+"\nHope that helps!")

	payload, err := parseModelResponse(raw)
	require.NoError(t, err)
	assert.Equal(t, 8.0, payload.BandScore)
	assert.Equal(t, "Excellent.", payload.Feedback)
}

func TestParseModelResponse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
	}{
		{name: "não é JSON", raw: []byte("garbage")},
		{name: "envelope vazio", raw: []byte(`{"output": {"message": {"content": []}}}`)},
		{name: "sem JSON no texto", raw: modelEnvelope(t, "I cannot assess this.")},
		{name: "payload incompleto", raw: modelEnvelope(t, `{"band_score": 0, "feedback": ""}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseModelResponse(tt.raw)
			assert.Error(t, err)
		})
	}
}

func TestIntroductionFor(t *testing.T) {
	academic := IntroductionFor(model.AcademicSpeaking)
	assert.Equal(t, "Maya", academic.Examiner)
	assert.Equal(t, "en-GB", academic.Voice)
	require.NotEmpty(t, academic.Lines)
	assert.Contains(t, academic.Lines[0], "Academic Speaking")

	general := IntroductionFor(model.GeneralSpeaking)
	assert.Contains(t, general.Lines[0], "General Training Speaking")
}
