package assessment

import "github.com/ieltsgenai/prep-service/pkg/model"

// MayaIntroduction é o roteiro de abertura da examinadora virtual.
// A síntese de voz acontece no navegador; o servidor só entrega o texto.
type MayaIntroduction struct {
	Examiner string   `json:"examiner"`
	Lines    []string `json:"lines"`
	Voice    string   `json:"voice"`
}

// IntroductionFor monta a introdução conforme o produto de speaking.
func IntroductionFor(t model.AssessmentType) MayaIntroduction {
	part := "the IELTS Academic Speaking assessment"
	if t == model.GeneralSpeaking {
		part = "the IELTS General Training Speaking assessment"
	}
	return MayaIntroduction{
		Examiner: "Maya",
		Voice:    "en-GB",
		Lines: []string{
			"Hello, my name is Maya and I will be your examiner today for " + part + ".",
			"This session has three parts: an interview, a short talk from a cue card, and a discussion.",
			"Speak naturally and take your time. When you are ready, press start and we will begin with part one.",
		},
	}
}
