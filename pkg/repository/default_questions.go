package repository

import "github.com/ieltsgenai/prep-service/pkg/model"

// Banco embutido, usado quando a tabela de questões está indisponível.
// Mantido pequeno de propósito: é rede de segurança, não catálogo.
var embeddedBank = map[model.AssessmentType][]model.Question{
	model.AcademicWriting: {
		{
			AssessmentType: string(model.AcademicWriting),
			QuestionID:     "aw-001",
			TaskType:       "task2-essay",
			Prompt: "Some people believe that universities should focus on providing " +
				"academic skills, while others think they should prepare students for " +
				"their future careers. Discuss both views and give your own opinion.",
			TimeLimitMin: 40,
			MinWords:     250,
		},
	},
	model.GeneralWriting: {
		{
			AssessmentType: string(model.GeneralWriting),
			QuestionID:     "gw-001",
			TaskType:       "task1-letter",
			Prompt: "You recently moved to a new city for work. Write a letter to a " +
				"friend describing your new home, your job, and inviting them to visit.",
			TimeLimitMin: 20,
			MinWords:     150,
		},
	},
	model.AcademicSpeaking: {
		{
			AssessmentType: string(model.AcademicSpeaking),
			QuestionID:     "as-001",
			TaskType:       "part2-cue-card",
			Prompt: "Describe a piece of research or a project you worked on. You should " +
				"say what it was about, why you chose it, and what you learned from it.",
			TimeLimitMin: 14,
		},
	},
	model.GeneralSpeaking: {
		{
			AssessmentType: string(model.GeneralSpeaking),
			QuestionID:     "gs-001",
			TaskType:       "part2-cue-card",
			Prompt: "Describe a place you enjoy visiting in your free time. You should " +
				"say where it is, how often you go there, and why you like it.",
			TimeLimitMin: 14,
		},
	},
}

func defaultQuestions(t model.AssessmentType) []model.Question {
	return embeddedBank[t]
}
