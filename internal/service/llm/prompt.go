package llm

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/cloudwego/eino/schema"

	"mockinterview/internal/models"
	"mockinterview/internal/service/llm/prompts"
)

var (
	systemPrompts = map[string]string{
		models.InterviewTechnical: strings.TrimSpace(prompts.TechnicalSystemPrompt),
	}

	openingTmpl       = template.Must(template.New("opening").Parse(prompts.OpeningTemplate))
	nextQuestionTmpl  = template.Must(template.New("next_question").Parse(prompts.NextQuestionTemplate))
	finalFeedbackTmpl = template.Must(template.New("final_feedback").Parse(prompts.FinalFeedbackTemplate))
)

type promptData struct {
	InterviewType string
	History       string
	LatestAnswer  string
}

// formatHistory renders pairs as numbered "Qn:/An:" blocks.
func formatHistory(history []models.QAPair) string {
	var b strings.Builder
	for i, pair := range history {
		fmt.Fprintf(&b, "Q%d: %s\nA%d: %s\n\n", i+1, pair.Question, i+1, pair.Answer)
	}
	return b.String()
}

func buildMessages(tmpl *template.Template, interviewType string, data promptData) ([]*schema.Message, error) {
	system, ok := systemPrompts[interviewType]
	if !ok {
		return nil, fmt.Errorf("no system prompt for interview type %q", interviewType)
	}
	data.InterviewType = interviewType
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return nil, fmt.Errorf("render %s prompt: %w", tmpl.Name(), err)
	}
	return []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(strings.TrimSpace(b.String())),
	}, nil
}
