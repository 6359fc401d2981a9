package interview

import "mockinterview/internal/models"

// BuildQAPairs folds an ordered message log into question/answer pairs.
//
// A question waits in a pending slot until an answer arrives. A second question
// replaces a pending one, an answer with nothing pending is dropped, and a trailing
// unanswered question yields no pair.
func BuildQAPairs(messages []models.Message) []models.QAPair {
	pairs := make([]models.QAPair, 0, len(messages)/2)
	var (
		pending    string
		hasPending bool
	)
	for _, msg := range messages {
		switch msg.MessageType {
		case models.MessageQuestion:
			pending = msg.Content
			hasPending = true
		case models.MessageAnswer:
			if !hasPending {
				continue
			}
			pairs = append(pairs, models.QAPair{Question: pending, Answer: msg.Content})
			pending, hasPending = "", false
		}
	}
	return pairs
}
