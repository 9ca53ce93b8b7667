package assistant

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type openAIAssistant struct {
	client  openai.Client
	model   openai.ChatModel
	budgets Budgets
}

// NewOpenAI builds an Assistant backed by the OpenAI chat completion API.
func NewOpenAI(apiKey, model string, budgets Budgets) Assistant {
	if model == "" {
		model = openai.ChatModelGPT4o
	}
	return openAIAssistant{
		client:  openai.NewClient(option.WithAPIKey(apiKey)),
		model:   openai.ChatModel(model),
		budgets: budgets,
	}
}

// Invoke implements Assistant.
func (o openAIAssistant) Invoke(ctx context.Context, prompt string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, o.budgets.Invoke)
	defer cancel()

	completion, err := o.client.Chat.Completions.New(
		callCtx,
		openai.ChatCompletionNewParams{
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.UserMessage(prompt),
			},
			Model: o.model,
		},
	)
	if err != nil {
		if callCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			return "", ErrTimeout
		}
		return "", fmt.Errorf("completion failed: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("completion returned no choices")
	}
	return completion.Choices[0].Message.Content, nil
}

// Stream implements Assistant.
func (o openAIAssistant) Stream(ctx context.Context, prompt string) (<-chan Fragment, error) {
	stream := o.client.Chat.Completions.NewStreaming(
		ctx,
		openai.ChatCompletionNewParams{
			Messages: []openai.ChatCompletionMessageParamUnion{
				openai.UserMessage(prompt),
			},
			Model: o.model,
		},
	)

	raw := make(chan Fragment)
	go func() {
		defer close(raw)
		defer stream.Close()
		for stream.Next() {
			chunk := stream.Current()
			if len(chunk.Choices) == 0 {
				continue
			}
			delta := chunk.Choices[0].Delta.Content
			if delta == "" {
				continue
			}
			select {
			case raw <- Fragment{Text: delta}:
			case <-ctx.Done():
				return
			}
		}
		if err := stream.Err(); err != nil && ctx.Err() == nil {
			select {
			case raw <- Fragment{Err: fmt.Errorf("stream failed: %w", err)}:
			case <-ctx.Done():
			}
		}
	}()
	return GuardStream(ctx, raw, o.budgets.Stream), nil
}
