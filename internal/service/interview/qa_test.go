package interview

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"mockinterview/internal/models"
)

func questionMsg(content string) models.Message {
	return models.Message{MessageType: models.MessageQuestion, Content: content}
}

func answerMsg(content string) models.Message {
	return models.Message{MessageType: models.MessageAnswer, Content: content}
}

func TestBuildQAPairs(t *testing.T) {
	cases := []struct {
		name     string
		messages []models.Message
		want     []models.QAPair
	}{
		{"empty", nil, []models.QAPair{}},
		{"single unanswered question", []models.Message{questionMsg("Q1")}, []models.QAPair{}},
		{"one pair", []models.Message{questionMsg("Q1"), answerMsg("A1")}, []models.QAPair{{Question: "Q1", Answer: "A1"}}},
		{
			"trailing question dropped",
			[]models.Message{questionMsg("Q1"), answerMsg("A1"), questionMsg("Q2"), answerMsg("A2"), questionMsg("Q3")},
			[]models.QAPair{{Question: "Q1", Answer: "A1"}, {Question: "Q2", Answer: "A2"}},
		},
		{
			"consecutive questions keep the latest",
			[]models.Message{questionMsg("Q1"), questionMsg("Q2"), answerMsg("A2")},
			[]models.QAPair{{Question: "Q2", Answer: "A2"}},
		},
		{
			"orphan answer dropped",
			[]models.Message{answerMsg("A0"), questionMsg("Q1"), answerMsg("A1"), answerMsg("A1b")},
			[]models.QAPair{{Question: "Q1", Answer: "A1"}},
		},
		{
			"empty question content still pairs",
			[]models.Message{questionMsg(""), answerMsg("A1")},
			[]models.QAPair{{Question: "", Answer: "A1"}},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, BuildQAPairs(tc.messages))
		})
	}
}

func TestBuildQAPairsCountsAnswers(t *testing.T) {
	// under normal operation every answer pairs with the question before it
	msgs := []models.Message{questionMsg("Q1"), answerMsg("A1"), questionMsg("Q2"), answerMsg("A2"), questionMsg("Q3"), answerMsg("A3"), questionMsg("Q4")}
	assert.Len(t, BuildQAPairs(msgs), 3)
}
