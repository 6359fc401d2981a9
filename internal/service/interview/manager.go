// Package interview runs the interview session lifecycle: start, per-turn responses,
// termination with feedback, and read access to past sessions.
package interview

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"mockinterview/internal/apperr"
	"mockinterview/internal/models"
	"mockinterview/internal/service/llm"
)

const (
	defaultHistoryLimit = 10
	maxHistoryLimit     = 100
)

// StartResult is returned by Start.
type StartResult struct {
	SessionID       int64
	Question        string
	Analysis        string
	DifficultyLevel string
}

// RespondResult is returned by Respond.
type RespondResult struct {
	NextQuestion    string
	Analysis        string
	DifficultyLevel string
}

// EndResult is returned by End.
type EndResult struct {
	Feedback        models.Feedback
	DurationMinutes int
}

// SessionDetail is a full read view of one session.
type SessionDetail struct {
	Session  models.Session
	Messages []models.Message
	Feedback *models.Feedback
}

// Manager owns the session state machine. It keeps no per-session state of its own;
// every call re-reads the store.
type Manager struct {
	store   Store
	gateway llm.Gateway
	locker  Locker
	logger  *zap.Logger
	now     func() time.Time
}

// Option customizes a Manager.
type Option func(*Manager)

// WithLocker replaces the default in-process session locker.
func WithLocker(l Locker) Option {
	return func(m *Manager) {
		if l != nil {
			m.locker = l
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager wires a Manager over the store and gateway.
func NewManager(store Store, gateway llm.Gateway, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		gateway: gateway,
		locker:  NewLocalLocker(),
		logger:  zap.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start opens a session and records the opening question. Nothing is written when
// the gateway fails.
func (m *Manager) Start(ctx context.Context, userID int64, interviewType string) (*StartResult, error) {
	if userID <= 0 {
		return nil, apperr.Unauthorized.New("Authentication required")
	}
	if !models.IsSupportedInterviewType(interviewType) {
		return nil, apperr.InvalidArgument.New("Unsupported interview type: " + interviewType)
	}

	q, err := m.gateway.Initialize(ctx, interviewType)
	if err != nil {
		return nil, gatewayError(err, "Failed to initialize interview. Please try again.")
	}

	session, err := m.store.CreateSession(ctx, userID, interviewType, m.now().UTC(), q.Question)
	if err != nil {
		m.logger.Error("create session", zap.Int64("user_id", userID), zap.Error(err))
		return nil, apperr.Internal.Wrap(err, "Failed to start interview")
	}
	m.logger.Info("interview started",
		zap.Int64("user_id", userID), zap.Int64("session_id", session.ID),
		zap.String("interview_type", interviewType), zap.String("gateway", string(m.gateway.Mode())))

	return &StartResult{
		SessionID:       session.ID,
		Question:        q.Question,
		Analysis:        q.Analysis,
		DifficultyLevel: q.DifficultyLevel,
	}, nil
}

// Respond records the candidate's answer together with the next question.
func (m *Manager) Respond(ctx context.Context, userID, sessionID int64, answer string) (*RespondResult, error) {
	answer = strings.TrimSpace(answer)
	if sessionID <= 0 || answer == "" {
		return nil, apperr.InvalidArgument.New("Missing sessionId or answer")
	}

	release, err := m.lock(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer release()

	session, err := m.activeSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	messages, err := m.store.ListMessages(ctx, sessionID)
	if err != nil {
		m.logger.Error("list messages", zap.Int64("session_id", sessionID), zap.Error(err))
		return nil, apperr.Internal.Wrap(err, "Failed to load conversation")
	}

	answerSeq := nextSequence(messages)
	pairs := BuildQAPairs(append(messages, models.Message{
		SessionID:      sessionID,
		MessageType:    models.MessageAnswer,
		Content:        answer,
		SequenceNumber: answerSeq,
	}))

	q, err := m.gateway.NextQuestion(ctx, pairs, answer, session.InterviewType)
	if err != nil {
		return nil, gatewayError(err, "Failed to generate next question. Please try again.")
	}

	if err := m.store.AppendTurn(ctx, sessionID, answerSeq, answer, q.Question, m.now().UTC()); err != nil {
		return nil, m.writeError(err, sessionID, "Failed to save response")
	}

	return &RespondResult{
		NextQuestion:    q.Question,
		Analysis:        q.Analysis,
		DifficultyLevel: q.DifficultyLevel,
	}, nil
}

// End completes the session and stores the final feedback. The session stays
// in_progress when the gateway or the write fails.
func (m *Manager) End(ctx context.Context, userID, sessionID int64) (*EndResult, error) {
	if sessionID <= 0 {
		return nil, apperr.InvalidArgument.New("Missing sessionId")
	}

	release, err := m.lock(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer release()

	session, err := m.activeSession(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	messages, err := m.store.ListMessages(ctx, sessionID)
	if err != nil {
		m.logger.Error("list messages", zap.Int64("session_id", sessionID), zap.Error(err))
		return nil, apperr.Internal.Wrap(err, "Failed to load conversation")
	}

	assessment, err := m.gateway.FinalFeedback(ctx, BuildQAPairs(messages), session.InterviewType)
	if err != nil {
		return nil, gatewayError(err, "Failed to generate feedback. Please try again.")
	}

	endedAt := m.now().UTC()
	duration := int(endedAt.Sub(session.StartedAt) / time.Minute)
	if duration < 0 {
		duration = 0
	}
	fb := models.Feedback{
		SessionID:            sessionID,
		OverallScore:         assessment.OverallScore,
		TechnicalAccuracy:    assessment.TechnicalAccuracy,
		CommunicationQuality: assessment.CommunicationQuality,
		Strengths:            assessment.Strengths,
		AreasOfImprovement:   assessment.AreasOfImprovement,
		CreatedAt:            endedAt,
	}
	if err := m.store.Complete(ctx, sessionID, endedAt, duration, fb); err != nil {
		return nil, m.writeError(err, sessionID, "Failed to save feedback")
	}
	m.logger.Info("interview completed",
		zap.Int64("user_id", userID), zap.Int64("session_id", sessionID),
		zap.Int("duration_minutes", duration), zap.Float64("overall_score", fb.OverallScore))

	return &EndResult{Feedback: fb, DurationMinutes: duration}, nil
}

// GetSession returns the session, its ordered messages and, once completed, its feedback.
func (m *Manager) GetSession(ctx context.Context, userID, sessionID int64) (*SessionDetail, error) {
	if sessionID <= 0 {
		return nil, apperr.InvalidArgument.New("Invalid session id")
	}
	session, err := m.store.GetSession(ctx, userID, sessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, apperr.NotFound.New("Session not found")
		}
		return nil, apperr.Internal.Wrap(err, "Failed to fetch session details")
	}
	messages, err := m.store.ListMessages(ctx, sessionID)
	if err != nil {
		return nil, apperr.Internal.Wrap(err, "Failed to fetch session details")
	}
	detail := &SessionDetail{Session: *session, Messages: messages}
	if session.Status == models.StatusCompleted {
		fb, err := m.store.GetFeedback(ctx, sessionID)
		if err != nil {
			return nil, apperr.Internal.Wrap(err, "Failed to fetch session details")
		}
		detail.Feedback = fb
	}
	return detail, nil
}

// ListHistory pages through the user's sessions newest first. limit defaults to 10
// and is capped at 100; a negative offset is treated as zero.
func (m *Manager) ListHistory(ctx context.Context, userID int64, limit, offset int) ([]models.HistoryEntry, error) {
	limit, offset = normalizePage(limit, offset)
	entries, err := m.store.ListHistory(ctx, userID, limit, offset)
	if err != nil {
		m.logger.Error("list history", zap.Int64("user_id", userID), zap.Error(err))
		return nil, apperr.Internal.Wrap(err, "Failed to fetch interview history")
	}
	return entries, nil
}

// GatewayMode reports whether questions come from a live model or the demo backend.
func (m *Manager) GatewayMode() llm.Mode {
	return m.gateway.Mode()
}

func (m *Manager) lock(ctx context.Context, sessionID int64) (func(), error) {
	release, err := m.locker.TryLock(ctx, sessionID)
	if err != nil {
		if errors.Is(err, ErrLocked) {
			return nil, apperr.Conflict.New("Session is busy, please retry")
		}
		m.logger.Error("acquire session lock", zap.Int64("session_id", sessionID), zap.Error(err))
		return nil, apperr.Internal.Wrap(err, "Failed to lock session")
	}
	return release, nil
}

// activeSession loads a session the user owns and that still accepts turns.
func (m *Manager) activeSession(ctx context.Context, userID, sessionID int64) (*models.Session, error) {
	session, err := m.store.GetSession(ctx, userID, sessionID)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, apperr.Forbidden.New("Session not found or access denied")
		}
		m.logger.Error("get session", zap.Int64("session_id", sessionID), zap.Error(err))
		return nil, apperr.Internal.Wrap(err, "Failed to load session")
	}
	if !session.Active() {
		return nil, apperr.NotActive.New("Session is not active")
	}
	return session, nil
}

func (m *Manager) writeError(err error, sessionID int64, msg string) error {
	switch {
	case errors.Is(err, ErrSessionNotActive):
		return apperr.NotActive.New("Session is not active")
	case errors.Is(err, ErrSequenceConflict):
		return apperr.Conflict.New("Session was updated concurrently, please retry")
	default:
		m.logger.Error(msg, zap.Int64("session_id", sessionID), zap.Error(err))
		return apperr.Internal.Wrap(err, msg)
	}
}

// gatewayError keeps classified gateway errors and marks anything else as upstream.
func gatewayError(err error, msg string) error {
	if errors.Is(err, apperr.InvalidArgument) || errors.Is(err, apperr.Upstream) {
		return err
	}
	return apperr.Upstream.Wrap(err, msg)
}

func nextSequence(messages []models.Message) int {
	if n := len(messages); n > 0 {
		return messages[n-1].SequenceNumber + 1
	}
	return 1
}

func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
