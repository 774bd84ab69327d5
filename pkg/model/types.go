package model

import (
	"errors"
	"strings"
)

// ErrUnknownAssessmentType – erro padrão para tipos de avaliação inválidos
var ErrUnknownAssessmentType = errors.New("model: unknown assessment type")

// AssessmentType identifica um dos quatro produtos de avaliação.
type AssessmentType string

const (
	AcademicWriting  AssessmentType = "academic-writing"
	AcademicSpeaking AssessmentType = "academic-speaking"
	GeneralWriting   AssessmentType = "general-writing"
	GeneralSpeaking  AssessmentType = "general-speaking"
)

// AllAssessmentTypes na ordem exibida no dashboard.
var AllAssessmentTypes = []AssessmentType{
	AcademicWriting, AcademicSpeaking, GeneralWriting, GeneralSpeaking,
}

// ParseAssessmentType normaliza e valida o tipo vindo da URL ou do payload.
func ParseAssessmentType(s string) (AssessmentType, error) {
	t := AssessmentType(strings.ToLower(strings.TrimSpace(s)))
	switch t {
	case AcademicWriting, AcademicSpeaking, GeneralWriting, GeneralSpeaking:
		return t, nil
	}
	return "", ErrUnknownAssessmentType
}

// IsWriting indica se o tipo usa o motor TrueScore (Nova Micro).
func (t AssessmentType) IsWriting() bool {
	return t == AcademicWriting || t == GeneralWriting
}

// IsSpeaking indica se o tipo usa o motor ClearScore (Nova Sonic).
func (t AssessmentType) IsSpeaking() bool {
	return t == AcademicSpeaking || t == GeneralSpeaking
}

// Label retorna o nome comercial do produto.
func (t AssessmentType) Label() string {
	switch t {
	case AcademicWriting:
		return "TrueScore® Academic Writing"
	case AcademicSpeaking:
		return "ClearScore® Academic Speaking"
	case GeneralWriting:
		return "TrueScore® General Writing"
	case GeneralSpeaking:
		return "ClearScore® General Speaking"
	}
	return string(t)
}
