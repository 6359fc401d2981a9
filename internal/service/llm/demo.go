package llm

import (
	"context"

	"mockinterview/internal/models"
)

const (
	demoOpeningQuestion = "Tell me about a time you solved a difficult bug in production."
	demoFirstFollowUp   = "Can you walk me through your debugging process step-by-step?"
	demoLaterFollowUp   = "How would you prevent this class of bugs in the future?"
	demoAnalysis        = "Demo analysis: focus on structure and measurable examples."
)

type demoGateway struct{}

// NewDemo returns the deterministic backend used when no provider is reachable.
func NewDemo() Gateway {
	return demoGateway{}
}

func (demoGateway) Mode() Mode { return ModeDemo }

func (demoGateway) Initialize(_ context.Context, interviewType string) (*Question, error) {
	if err := checkInterviewType(interviewType); err != nil {
		return nil, err
	}
	return &Question{
		Question:        demoOpeningQuestion,
		Analysis:        "",
		DifficultyLevel: "medium",
	}, nil
}

func (demoGateway) NextQuestion(_ context.Context, history []models.QAPair, latestAnswer, interviewType string) (*Question, error) {
	if err := checkInterviewType(interviewType); err != nil {
		return nil, err
	}
	if len(priorPairs(history, latestAnswer)) == 0 {
		return &Question{Question: demoFirstFollowUp, Analysis: demoAnalysis, DifficultyLevel: "easy"}, nil
	}
	return &Question{Question: demoLaterFollowUp, Analysis: demoAnalysis, DifficultyLevel: "medium"}, nil
}

func (demoGateway) FinalFeedback(_ context.Context, _ []models.QAPair, interviewType string) (*Assessment, error) {
	if err := checkInterviewType(interviewType); err != nil {
		return nil, err
	}
	return &Assessment{
		OverallScore:         7.5,
		TechnicalAccuracy:    "Good, solid core knowledge with minor gaps",
		CommunicationQuality: "Clear and structured",
		Strengths:            "Problem-solving and debugging approach",
		AreasOfImprovement:   "Provide more examples and mention trade-offs",
	}, nil
}
