package model

// AttemptAllowance — saldo de tentativas por usuário e produto
// (hash key: email, sort key: assessment_type). Cada compra concede 4.
type AttemptAllowance struct {
	Email          string `dynamodbav:"email" json:"email"`
	AssessmentType string `dynamodbav:"assessment_type" json:"assessment_type"`
	Remaining      int    `dynamodbav:"remaining" json:"remaining"`
	PurchasedAt    int64  `dynamodbav:"purchased_at" json:"purchased_at"`
}

// DefaultAttemptsPerPurchase é o saldo concedido por compra de produto.
const DefaultAttemptsPerPurchase = 4

// Question — item do banco de questões
// (hash key: assessment_type, sort key: question_id).
type Question struct {
	AssessmentType string `dynamodbav:"assessment_type" json:"assessment_type"`
	QuestionID     string `dynamodbav:"question_id" json:"question_id"`
	Prompt         string `dynamodbav:"prompt" json:"prompt"`
	TaskType       string `dynamodbav:"task_type" json:"task_type"`
	TimeLimitMin   int    `dynamodbav:"time_limit_min" json:"time_limit_min"`
	MinWords       int    `dynamodbav:"min_words,omitempty" json:"min_words,omitempty"`
}

// CriterionScore — nota e comentário de um critério da rubrica IELTS.
type CriterionScore struct {
	Name     string  `json:"name"`
	Score    float64 `json:"score"`
	Feedback string  `json:"feedback"`
}

// AssessmentResult — resultado devolvido de forma síncrona ao candidato.
type AssessmentResult struct {
	ResultID       string           `dynamodbav:"result_id" json:"result_id"`
	Email          string           `dynamodbav:"email" json:"email"`
	AssessmentType string           `dynamodbav:"assessment_type" json:"assessment_type"`
	QuestionID     string           `dynamodbav:"question_id" json:"question_id"`
	BandScore      float64          `dynamodbav:"band_score" json:"band_score"`
	Feedback       string           `dynamodbav:"feedback" json:"feedback"`
	Criteria       []CriterionScore `dynamodbav:"criteria" json:"criteria"`
	Source         string           `dynamodbav:"source" json:"source"`
	RemainingTries int              `dynamodbav:"-" json:"remaining_tries"`
	CreatedAt      int64            `dynamodbav:"created_at" json:"created_at"`
}

const (
	// ResultSourceModel indica avaliação feita pelo modelo gerenciado.
	ResultSourceModel = "model"
	// ResultSourceRubric indica fallback do avaliador local.
	ResultSourceRubric = "rubric"
)
