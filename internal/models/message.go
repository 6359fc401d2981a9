package models

import "time"

// MessageType distinguishes interviewer questions from candidate answers.
type MessageType string

const (
	MessageQuestion MessageType = "question"
	MessageAnswer   MessageType = "answer"
)

// Message is one persisted entry of a session's conversation log.
type Message struct {
	ID             int64       `json:"id"`
	SessionID      int64       `json:"session_id"`
	MessageType    MessageType `json:"message_type"`
	Content        string      `json:"content"`
	SequenceNumber int         `json:"sequence_number"`
	Timestamp      time.Time   `json:"timestamp"`
}

// QAPair is a question matched with the answer that followed it. It is derived from
// the message log and never stored.
type QAPair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}
