package app

import (
	"fmt"

	"github.com/xpanvictor/hirect/internal/config"
	"github.com/xpanvictor/hirect/pkg/Logger"
	"github.com/xpanvictor/hirect/pkg/assistant"
	ollamaprovider "github.com/xpanvictor/hirect/pkg/assistant/providers/ollama"
)

// AssistantFactory creates the configured LLM backend.
type AssistantFactory struct {
	config *config.Settings
	logger *Logger.Logger
}

func NewAssistantFactory(cfg *config.Settings, logger *Logger.Logger) *AssistantFactory {
	return &AssistantFactory{
		config: cfg,
		logger: logger,
	}
}

// Create builds the provider selected in configuration.
func (f *AssistantFactory) Create() (assistant.Assistant, error) {
	budgets := assistant.Budgets{
		Invoke: f.config.Relay.InvokeTimeout,
		Stream: f.config.Relay.StreamTimeout,
	}

	switch f.config.Assistant.Provider {
	case "openai", "":
		if f.config.Assistant.OpenAiApiKey == "" {
			return nil, fmt.Errorf("openai provider selected but no api key configured")
		}
		f.logger.Infof("assistant provider: openai (model %s)", f.config.Assistant.OpenAiModel)
		return assistant.NewOpenAI(
			f.config.Assistant.OpenAiApiKey,
			f.config.Assistant.OpenAiModel,
			budgets,
		), nil

	case "ollama":
		if len(f.config.Assistant.Ollama.URLs) == 0 {
			return nil, fmt.Errorf("ollama provider selected but no server urls configured")
		}
		backend, err := ollamaprovider.New(f.config.Assistant.Ollama, budgets)
		if err != nil {
			return nil, fmt.Errorf("failed to create ollama assistant: %w", err)
		}
		f.logger.Infof("assistant provider: ollama (model %s, %d server(s))",
			f.config.Assistant.Ollama.Model, len(f.config.Assistant.Ollama.URLs))
		return backend, nil

	default:
		return nil, fmt.Errorf("unknown assistant provider %q", f.config.Assistant.Provider)
	}
}
