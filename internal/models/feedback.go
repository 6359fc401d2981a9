package models

import "time"

// Feedback is the final evaluation of a completed session.
type Feedback struct {
	SessionID            int64     `json:"session_id"`
	OverallScore         float64   `json:"overall_score"`
	TechnicalAccuracy    string    `json:"technical_accuracy"`
	CommunicationQuality string    `json:"communication_quality"`
	Strengths            string    `json:"strengths"`
	AreasOfImprovement   string    `json:"areas_of_improvement"`
	CreatedAt            time.Time `json:"created_at"`
}
