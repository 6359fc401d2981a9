package models

import "time"

// SessionStatus is the lifecycle state of an interview session.
type SessionStatus string

const (
	StatusInProgress SessionStatus = "in_progress"
	StatusCompleted  SessionStatus = "completed"
)

// InterviewTechnical is currently the only interview type the server runs.
const InterviewTechnical = "technical"

// SupportedInterviewTypes lists the interview types accepted by Start.
var SupportedInterviewTypes = []string{InterviewTechnical}

// IsSupportedInterviewType reports whether t can be started.
func IsSupportedInterviewType(t string) bool {
	for _, s := range SupportedInterviewTypes {
		if s == t {
			return true
		}
	}
	return false
}

// Session is one interview attempt by one user.
type Session struct {
	ID              int64         `json:"id"`
	UserID          int64         `json:"user_id"`
	InterviewType   string        `json:"interview_type"`
	Status          SessionStatus `json:"status"`
	StartedAt       time.Time     `json:"started_at"`
	EndedAt         *time.Time    `json:"ended_at"`
	DurationMinutes *int          `json:"duration_minutes"`
	TotalQuestions  int           `json:"total_questions"`
}

// Active reports whether the session still accepts turns.
func (s *Session) Active() bool {
	return s != nil && s.Status == StatusInProgress
}

// HistoryEntry is a session summary joined with its score, if any.
type HistoryEntry struct {
	Session
	OverallScore *float64 `json:"overall_score"`
}
