package ollama

import (
	"context"
	"fmt"
	"strings"

	"github.com/ollama/ollama/api"
	"github.com/presbrey/ollamafarm"
	"github.com/xpanvictor/hirect/internal/config"
	"github.com/xpanvictor/hirect/pkg/assistant"
)

// Supports several ollama servers behind one farm,
// picking the first one online per call.

type OllamaAssistant struct {
	farm    *ollamafarm.Farm
	model   string
	budgets assistant.Budgets
}

func New(cfg config.OllamaConfig, budgets assistant.Budgets) (*OllamaAssistant, error) {
	farm := ollamafarm.New()
	for _, rawURL := range cfg.URLs {
		if err := farm.RegisterURL(rawURL, nil); err != nil {
			return nil, fmt.Errorf("register ollama server %s: %w", rawURL, err)
		}
	}
	return &OllamaAssistant{
		farm:    farm,
		model:   cfg.Model,
		budgets: budgets,
	}, nil
}

func (o *OllamaAssistant) chat(ctx context.Context, req api.ChatRequest, fn api.ChatResponseFunc) error {
	ollama := o.farm.First(&ollamafarm.Where{Offline: false})
	if ollama == nil {
		return fmt.Errorf("no ollama server online for model %v", req.Model)
	}
	return ollama.Client().Chat(ctx, &req, fn)
}

// Invoke implements assistant.Assistant.
func (o *OllamaAssistant) Invoke(ctx context.Context, prompt string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, o.budgets.Invoke)
	defer cancel()

	stream := false
	var reply strings.Builder
	err := o.chat(callCtx, api.ChatRequest{
		Model:    o.model,
		Messages: []api.Message{{Role: "user", Content: prompt}},
		Stream:   &stream,
	}, func(cr api.ChatResponse) error {
		reply.WriteString(cr.Message.Content)
		return nil
	})
	if err != nil {
		if callCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			return "", assistant.ErrTimeout
		}
		return "", fmt.Errorf("ollama chat failed: %w", err)
	}
	return reply.String(), nil
}

// Stream implements assistant.Assistant.
func (o *OllamaAssistant) Stream(ctx context.Context, prompt string) (<-chan assistant.Fragment, error) {
	stream := true
	raw := make(chan assistant.Fragment)
	go func() {
		defer close(raw)
		err := o.chat(ctx, api.ChatRequest{
			Model:    o.model,
			Messages: []api.Message{{Role: "user", Content: prompt}},
			Stream:   &stream,
		}, func(cr api.ChatResponse) error {
			if cr.Message.Content == "" {
				return nil
			}
			select {
			case raw <- assistant.Fragment{Text: cr.Message.Content}:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		if err != nil && ctx.Err() == nil {
			select {
			case raw <- assistant.Fragment{Err: fmt.Errorf("ollama stream failed: %w", err)}:
			case <-ctx.Done():
			}
		}
	}()
	return assistant.GuardStream(ctx, raw, o.budgets.Stream), nil
}
