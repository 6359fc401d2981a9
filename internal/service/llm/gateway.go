// Package llm turns interview context into questions and final assessments.
//
// A Gateway is chosen once by New: a live backend when the configured provider has
// credentials and its client builds, otherwise the deterministic demo backend.
package llm

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"mockinterview/internal/apperr"
	"mockinterview/internal/config"
	"mockinterview/internal/models"
)

// Mode reports which backend a Gateway runs on.
type Mode string

const (
	ModeLive Mode = "live"
	ModeDemo Mode = "demo"
)

// Question is the gateway reply for an opening or follow-up turn.
type Question struct {
	Question        string `json:"question"`
	Analysis        string `json:"analysis"`
	DifficultyLevel string `json:"difficulty_level"`
}

// Assessment is the final evaluation of a whole interview.
type Assessment struct {
	OverallScore         float64 `json:"overall_score"`
	TechnicalAccuracy    string  `json:"technical_accuracy"`
	CommunicationQuality string  `json:"communication_quality"`
	Strengths            string  `json:"strengths"`
	AreasOfImprovement   string  `json:"areas_of_improvement"`
}

// Gateway is the contract the interview manager depends on.
type Gateway interface {
	Initialize(ctx context.Context, interviewType string) (*Question, error)
	NextQuestion(ctx context.Context, history []models.QAPair, latestAnswer, interviewType string) (*Question, error)
	FinalFeedback(ctx context.Context, history []models.QAPair, interviewType string) (*Assessment, error)
	Mode() Mode
}

// New probes the configured provider and returns the matching backend. Unknown provider
// names are rejected; a provider without an API key or whose client cannot be built
// degrades to demo mode with a warning.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (Gateway, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	name, provCfg := cfg.ActiveProvider()
	if !isKnownProvider(name) {
		return nil, errors.Errorf("unsupported llm provider %q", name)
	}
	if strings.TrimSpace(provCfg.APIKey) == "" {
		logger.Warn("llm provider has no api key, running in demo mode", zap.String("provider", name))
		return NewDemo(), nil
	}
	chat, err := newChatModel(ctx, name, provCfg)
	if err != nil {
		logger.Warn("llm provider unavailable, running in demo mode",
			zap.String("provider", name), zap.Error(err))
		return NewDemo(), nil
	}
	logger.Info("llm gateway ready",
		zap.String("provider", name), zap.String("model", provCfg.Model))
	return newLive(chat, name, liveOptions{
		timeout:     cfg.GatewayTimeout(),
		maxAttempts: uint(cfg.Gateway.MaxAttempts),
	}, logger), nil
}

func checkInterviewType(interviewType string) error {
	if !models.IsSupportedInterviewType(interviewType) {
		return apperr.InvalidArgument.New("Unsupported interview type: " + interviewType)
	}
	return nil
}

// priorPairs drops the trailing pair produced by latestAnswer so callers can tell
// how many turns were completed before it.
func priorPairs(history []models.QAPair, latestAnswer string) []models.QAPair {
	if n := len(history); n > 0 && history[n-1].Answer == latestAnswer {
		return history[:n-1]
	}
	return history
}
