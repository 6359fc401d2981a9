package llm

import (
	"context"
	"text/template"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"mockinterview/internal/apperr"
	"mockinterview/internal/models"
)

type liveOptions struct {
	timeout     time.Duration
	maxAttempts uint
	retryDelay  time.Duration
}

type liveGateway struct {
	chat     chatModel
	provider string
	opts     liveOptions
	logger   *zap.Logger
}

func newLive(chat chatModel, provider string, opts liveOptions, logger *zap.Logger) *liveGateway {
	if opts.timeout <= 0 {
		opts.timeout = 30 * time.Second
	}
	if opts.maxAttempts == 0 {
		opts.maxAttempts = 2
	}
	if opts.retryDelay <= 0 {
		opts.retryDelay = 500 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &liveGateway{chat: chat, provider: provider, opts: opts, logger: logger}
}

func (g *liveGateway) Mode() Mode { return ModeLive }

func (g *liveGateway) Initialize(ctx context.Context, interviewType string) (*Question, error) {
	if err := checkInterviewType(interviewType); err != nil {
		return nil, err
	}
	var out *Question
	err := g.call(ctx, "initialize", openingTmpl, interviewType, promptData{}, func(text string) error {
		q, err := parseQuestion(text)
		out = q
		return err
	})
	if err != nil {
		return nil, apperr.Upstream.Wrap(err, "Failed to initialize interview. Please try again.")
	}
	return out, nil
}

func (g *liveGateway) NextQuestion(ctx context.Context, history []models.QAPair, latestAnswer, interviewType string) (*Question, error) {
	if err := checkInterviewType(interviewType); err != nil {
		return nil, err
	}
	data := promptData{
		History:      formatHistory(history),
		LatestAnswer: latestAnswer,
	}
	var out *Question
	err := g.call(ctx, "next_question", nextQuestionTmpl, interviewType, data, func(text string) error {
		q, err := parseQuestion(text)
		out = q
		return err
	})
	if err != nil {
		return nil, apperr.Upstream.Wrap(err, "Failed to generate next question. Please try again.")
	}
	return out, nil
}

func (g *liveGateway) FinalFeedback(ctx context.Context, history []models.QAPair, interviewType string) (*Assessment, error) {
	if err := checkInterviewType(interviewType); err != nil {
		return nil, err
	}
	var out *Assessment
	err := g.call(ctx, "final_feedback", finalFeedbackTmpl, interviewType, promptData{History: formatHistory(history)}, func(text string) error {
		a, err := parseAssessment(text)
		out = a
		return err
	})
	if err != nil {
		return nil, apperr.Upstream.Wrap(err, "Failed to generate feedback. Please try again.")
	}
	return out, nil
}

// call renders the prompt and asks the model, retrying transport and parse failures.
// Each attempt runs under its own timeout.
func (g *liveGateway) call(ctx context.Context, op string, tmpl *template.Template, interviewType string, data promptData, parse func(string) error) error {
	messages, err := buildMessages(tmpl, interviewType, data)
	if err != nil {
		return err
	}
	attempt := 0
	return retry.Do(
		func() error {
			attempt++
			callCtx, cancel := context.WithTimeout(ctx, g.opts.timeout)
			defer cancel()
			start := time.Now()
			resp, err := g.chat.Generate(callCtx, messages)
			if err != nil {
				g.logger.Warn("llm call failed",
					zap.String("provider", g.provider), zap.String("op", op),
					zap.Int("attempt", attempt), zap.Error(err))
				if ctx.Err() != nil {
					return retry.Unrecoverable(ctx.Err())
				}
				return errors.Wrapf(err, "%s %s", g.provider, op)
			}
			if resp == nil {
				return errors.Errorf("%s %s: empty response", g.provider, op)
			}
			if err := parse(resp.Content); err != nil {
				g.logger.Warn("llm reply rejected",
					zap.String("provider", g.provider), zap.String("op", op),
					zap.Int("attempt", attempt), zap.Error(err))
				return errors.Wrapf(err, "%s %s", g.provider, op)
			}
			g.logger.Debug("llm call succeeded",
				zap.String("provider", g.provider), zap.String("op", op),
				zap.Duration("elapsed", time.Since(start)))
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(g.opts.maxAttempts),
		retry.Delay(g.opts.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
}
