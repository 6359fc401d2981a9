package interview

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"mockinterview/internal/models"
	"mockinterview/internal/storage"
)

var (
	// ErrSessionNotFound means no session matches the id for that user.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionNotActive means the session left in_progress before the write landed.
	ErrSessionNotActive = errors.New("session not active")
	// ErrSequenceConflict means another writer already used the sequence number.
	ErrSequenceConflict = errors.New("sequence number already used")
)

// Store persists sessions, their conversation log and feedback.
type Store interface {
	CreateSession(ctx context.Context, userID int64, interviewType string, startedAt time.Time, firstQuestion string) (*models.Session, error)
	GetSession(ctx context.Context, userID, sessionID int64) (*models.Session, error)
	ListMessages(ctx context.Context, sessionID int64) ([]models.Message, error)
	AppendTurn(ctx context.Context, sessionID int64, answerSeq int, answer, question string, at time.Time) error
	Complete(ctx context.Context, sessionID int64, endedAt time.Time, durationMinutes int, fb models.Feedback) error
	GetFeedback(ctx context.Context, sessionID int64) (*models.Feedback, error)
	ListHistory(ctx context.Context, userID int64, limit, offset int) ([]models.HistoryEntry, error)
}

// SQLStore implements Store on top of storage.DB.
type SQLStore struct {
	db *storage.DB
}

// NewSQLStore returns a Store backed by db.
func NewSQLStore(db *storage.DB) *SQLStore {
	return &SQLStore{db: db}
}

const sessionColumns = `id, user_id, interview_type, status, started_at, ended_at, duration_minutes, total_questions`

// CreateSession inserts the session row and its opening question in one transaction.
func (s *SQLStore) CreateSession(ctx context.Context, userID int64, interviewType string, startedAt time.Time, firstQuestion string) (*models.Session, error) {
	var id int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		id, err = s.db.InsertID(ctx, tx,
			`INSERT INTO sessions (user_id, interview_type, status, started_at, total_questions) VALUES (?, ?, ?, ?, 0)`,
			userID, interviewType, string(models.StatusInProgress), startedAt,
		)
		if err != nil {
			return fmt.Errorf("create session: %w", err)
		}
		return s.insertMessage(ctx, tx, id, models.MessageQuestion, firstQuestion, 1, startedAt)
	})
	if err != nil {
		return nil, err
	}
	return &models.Session{
		ID:            id,
		UserID:        userID,
		InterviewType: interviewType,
		Status:        models.StatusInProgress,
		StartedAt:     startedAt,
	}, nil
}

// GetSession loads the session only when it belongs to userID.
func (s *SQLStore) GetSession(ctx context.Context, userID, sessionID int64) (*models.Session, error) {
	row := s.db.QueryRowContext(ctx,
		s.db.Rebind(`SELECT `+sessionColumns+` FROM sessions WHERE id = ? AND user_id = ?`),
		sessionID, userID,
	)
	session, err := scanSession(row, nil)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return &session.Session, nil
}

// ListMessages returns the conversation log ordered by sequence number.
func (s *SQLStore) ListMessages(ctx context.Context, sessionID int64) ([]models.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		s.db.Rebind(`SELECT id, session_id, message_type, content, sequence_number, timestamp
			FROM conversation_messages WHERE session_id = ? ORDER BY sequence_number ASC`),
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	messages := make([]models.Message, 0)
	for rows.Next() {
		var m models.Message
		var msgType string
		if err := rows.Scan(&m.ID, &m.SessionID, &msgType, &m.Content, &m.SequenceNumber, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.MessageType = models.MessageType(msgType)
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

// AppendTurn records an answer and the follow-up question and bumps the question
// counter, all or nothing. It fails with ErrSessionNotActive once the session is completed.
func (s *SQLStore) AppendTurn(ctx context.Context, sessionID int64, answerSeq int, answer, question string, at time.Time) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			s.db.Rebind(`UPDATE sessions SET total_questions = total_questions + 1 WHERE id = ? AND status = ?`),
			sessionID, string(models.StatusInProgress),
		)
		if err != nil {
			return fmt.Errorf("update session: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return fmt.Errorf("rows affected: %w", err)
		} else if n == 0 {
			return ErrSessionNotActive
		}
		if err := s.insertMessage(ctx, tx, sessionID, models.MessageAnswer, answer, answerSeq, at); err != nil {
			return err
		}
		return s.insertMessage(ctx, tx, sessionID, models.MessageQuestion, question, answerSeq+1, at)
	})
}

// Complete marks the session completed and stores its feedback in one transaction.
func (s *SQLStore) Complete(ctx context.Context, sessionID int64, endedAt time.Time, durationMinutes int, fb models.Feedback) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			s.db.Rebind(`UPDATE sessions SET status = ?, ended_at = ?, duration_minutes = ? WHERE id = ? AND status = ?`),
			string(models.StatusCompleted), endedAt, durationMinutes, sessionID, string(models.StatusInProgress),
		)
		if err != nil {
			return fmt.Errorf("complete session: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return fmt.Errorf("rows affected: %w", err)
		} else if n == 0 {
			return ErrSessionNotActive
		}
		_, err = tx.ExecContext(ctx,
			s.db.Rebind(`INSERT INTO feedback (session_id, overall_score, technical_accuracy, communication_quality, strengths, areas_of_improvement, created_at)
				VALUES (?, ?, ?, ?, ?, ?, ?)`),
			sessionID, fb.OverallScore, fb.TechnicalAccuracy, fb.CommunicationQuality, fb.Strengths, fb.AreasOfImprovement, fb.CreatedAt,
		)
		if err != nil {
			if storage.IsUniqueViolation(err) {
				return ErrSessionNotActive
			}
			return fmt.Errorf("insert feedback: %w", err)
		}
		return nil
	})
}

// GetFeedback returns the session's feedback, or nil when none exists.
func (s *SQLStore) GetFeedback(ctx context.Context, sessionID int64) (*models.Feedback, error) {
	var fb models.Feedback
	err := s.db.QueryRowContext(ctx,
		s.db.Rebind(`SELECT session_id, overall_score, technical_accuracy, communication_quality, strengths, areas_of_improvement, created_at
			FROM feedback WHERE session_id = ?`),
		sessionID,
	).Scan(&fb.SessionID, &fb.OverallScore, &fb.TechnicalAccuracy, &fb.CommunicationQuality, &fb.Strengths, &fb.AreasOfImprovement, &fb.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get feedback: %w", err)
	}
	return &fb, nil
}

// ListHistory pages through the user's sessions, newest first, with scores where present.
func (s *SQLStore) ListHistory(ctx context.Context, userID int64, limit, offset int) ([]models.HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		s.db.Rebind(`SELECT s.id, s.user_id, s.interview_type, s.status, s.started_at, s.ended_at, s.duration_minutes, s.total_questions, f.overall_score
			FROM sessions s LEFT JOIN feedback f ON f.session_id = s.id
			WHERE s.user_id = ?
			ORDER BY s.started_at DESC, s.id DESC
			LIMIT ? OFFSET ?`),
		userID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	entries := make([]models.HistoryEntry, 0)
	for rows.Next() {
		var score sql.NullFloat64
		entry, err := scanSession(rows, &score)
		if err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		if score.Valid {
			v := score.Float64
			entry.OverallScore = &v
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner, score *sql.NullFloat64) (models.HistoryEntry, error) {
	var (
		entry    models.HistoryEntry
		status   string
		endedAt  sql.NullTime
		duration sql.NullInt64
	)
	dest := []any{
		&entry.ID, &entry.UserID, &entry.InterviewType, &status,
		&entry.StartedAt, &endedAt, &duration, &entry.TotalQuestions,
	}
	if score != nil {
		dest = append(dest, score)
	}
	if err := row.Scan(dest...); err != nil {
		return entry, err
	}
	entry.Status = models.SessionStatus(status)
	if endedAt.Valid {
		t := endedAt.Time
		entry.EndedAt = &t
	}
	if duration.Valid {
		d := int(duration.Int64)
		entry.DurationMinutes = &d
	}
	return entry, nil
}

func (s *SQLStore) insertMessage(ctx context.Context, tx *sql.Tx, sessionID int64, msgType models.MessageType, content string, seq int, at time.Time) error {
	_, err := tx.ExecContext(ctx,
		s.db.Rebind(`INSERT INTO conversation_messages (session_id, message_type, content, sequence_number, timestamp) VALUES (?, ?, ?, ?, ?)`),
		sessionID, string(msgType), content, seq, at,
	)
	if err != nil {
		if storage.IsUniqueViolation(err) {
			return ErrSequenceConflict
		}
		return fmt.Errorf("insert %s message: %w", msgType, err)
	}
	return nil
}

func (s *SQLStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
