package llm

import (
	"context"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/pkg/errors"
	"google.golang.org/genai"

	"mockinterview/internal/config"
)

const (
	providerGemini = "gemini"
	providerOpenAI = "openai"
	providerClaude = "claude"
)

// chatModel is the slice of eino's chat model the gateway needs.
type chatModel interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

func isKnownProvider(name string) bool {
	switch name {
	case providerGemini, providerOpenAI, providerClaude:
		return true
	}
	return false
}

func newChatModel(ctx context.Context, provider string, provCfg config.ProviderConfig) (chatModel, error) {
	switch provider {
	case providerOpenAI:
		cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL: provCfg.BaseURL,
			Model:   provCfg.Model,
			APIKey:  provCfg.APIKey,
		})
		if err != nil {
			return nil, errors.Wrap(err, "init openai chat model")
		}
		return cm, nil
	case providerGemini:
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  provCfg.APIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, errors.Wrap(err, "init gemini client")
		}
		cm, err := gemini.NewChatModel(ctx, &gemini.Config{
			Client: client,
			Model:  provCfg.Model,
		})
		if err != nil {
			return nil, errors.Wrap(err, "init gemini chat model")
		}
		return cm, nil
	case providerClaude:
		var baseURL *string
		if provCfg.BaseURL != "" {
			baseURL = &provCfg.BaseURL
		}
		cm, err := claude.NewChatModel(ctx, &claude.Config{
			APIKey:    provCfg.APIKey,
			Model:     provCfg.Model,
			BaseURL:   baseURL,
			MaxTokens: 2048,
		})
		if err != nil {
			return nil, errors.Wrap(err, "init claude chat model")
		}
		return cm, nil
	default:
		return nil, errors.Errorf("unsupported llm provider %q", provider)
	}
}
