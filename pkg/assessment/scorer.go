package assessment

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"sync"

	"github.com/ieltsgenai/prep-service/pkg/model"
)

// Faixa de banda do avaliador local, herdada do produto.
const (
	MinBand = 6.0
	MaxBand = 8.5
)

// ClampBand restringe a banda à faixa do produto, em passos de 0.5.
func ClampBand(band float64) float64 {
	rounded := math.Round(band*2) / 2
	if rounded < MinBand {
		return MinBand
	}
	if rounded > MaxBand {
		return MaxBand
	}
	return rounded
}

// RubricScorer é o fallback local: nota derivada de características
// superficiais do texto mais um jitter, sempre dentro de [6.0, 8.5].
// Não substitui o modelo; garante resposta síncrona quando ele falha.
type RubricScorer struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewRubricScorer() *RubricScorer {
	return &RubricScorer{rng: rand.New(rand.NewSource(rand.Int63()))}
}

var writingCriteria = []string{
	"Task Achievement",
	"Coherence and Cohesion",
	"Lexical Resource",
	"Grammatical Range and Accuracy",
}

var speakingCriteria = []string{
	"Fluency and Coherence",
	"Lexical Resource",
	"Grammatical Range and Accuracy",
	"Pronunciation",
}

// Score produz banda e feedback por critério.
func (s *RubricScorer) Score(t model.AssessmentType, text string) *scoredPayload {
	words := len(strings.Fields(text))

	// Base cresce com o tamanho da resposta até saturar
	base := MinBand + 1.5*math.Min(1, float64(words)/300.0)

	s.mu.Lock()
	jitter := (s.rng.Float64() - 0.5) // ±0.5 de variação
	s.mu.Unlock()

	overall := ClampBand(base + jitter)

	names := writingCriteria
	if t.IsSpeaking() {
		names = speakingCriteria
	}

	criteria := make([]model.CriterionScore, 0, len(names))
	for i, name := range names {
		// Alterna meio ponto para cima e para baixo ao redor da banda geral
		offset := 0.0
		if i%2 == 1 {
			offset = -0.5
		}
		criteria = append(criteria, model.CriterionScore{
			Name:     name,
			Score:    ClampBand(overall + offset),
			Feedback: criterionFeedback(name, overall),
		})
	}

	return &scoredPayload{
		BandScore: overall,
		Feedback:  overallFeedback(t, overall, words),
		Criteria:  criteria,
	}
}

func overallFeedback(t model.AssessmentType, band float64, words int) string {
	skill := "written response"
	if t.IsSpeaking() {
		skill = "spoken response"
	}
	switch {
	case band >= 8.0:
		return fmt.Sprintf("An excellent %s (%d words). Ideas are well developed and "+
			"language use is precise; keep refining less common vocabulary.", skill, words)
	case band >= 7.0:
		return fmt.Sprintf("A strong %s (%d words). Arguments are clear with occasional "+
			"lapses in cohesion; work on linking devices and paraphrasing.", skill, words)
	default:
		return fmt.Sprintf("A competent %s (%d words). The position is understandable but "+
			"development is uneven; extend your main points with specific examples.", skill, words)
	}
}

func criterionFeedback(name string, band float64) string {
	if band >= 7.5 {
		return name + ": consistently strong control with only rare slips."
	}
	return name + ": adequate control; aim for more range and accuracy under time pressure."
}
