// Package prompts holds the interviewer prompt texts.
package prompts

import _ "embed"

//go:embed technical.md
var TechnicalSystemPrompt string

//go:embed opening.md.tmpl
var OpeningTemplate string

//go:embed next_question.md.tmpl
var NextQuestionTemplate string

//go:embed final_feedback.md.tmpl
var FinalFeedbackTemplate string
