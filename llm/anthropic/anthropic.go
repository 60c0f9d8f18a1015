// Package anthropic adapts the Anthropic Messages API to the core Answerer
// boundary.
package anthropic

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/campusmesh/campusmesh/core"
)

const answerSystemPrompt = `You are a helpful assistant for a school administration system.
Answer the user's question concisely. If you do not know, say so instead of inventing school data.`

// Options configures the Anthropic adapter (model id, max tokens, API key).
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string
	// HistoryTurns caps how many recent session turns are replayed as
	// conversation context.
	HistoryTurns int
}

// Model wraps the Anthropic Messages API behind the core Answerer interface.
type Model struct {
	client *anthropic.Client
	opts   Options
}

func defaultOptions() Options {
	return Options{
		Model:        anthropic.ModelClaude3_5Sonnet20241022,
		Temperature:  0.4,
		MaxTokens:    1024,
		HistoryTurns: 5,
	}
}

// NewModel creates a new Anthropic model using the official client
func NewModel(optFns ...func(o *Options)) *Model {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}

	client := anthropic.NewClient(clientOpts...)

	return &Model{client: &client, opts: opts}
}

// NewModelFromClient creates a new Anthropic model from an existing client
func NewModelFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Model {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Model{client: client, opts: opts}
}

// Answer implements core.Answerer.
func (m *Model) Answer(ctx context.Context, req core.AnswerRequest) (string, error) {
	var messages []anthropic.MessageParam
	if req.Session != nil && m.opts.HistoryTurns > 0 {
		for _, turn := range req.Session.RecentTurns(m.opts.HistoryTurns) {
			if turn.Query != "" {
				messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(turn.Query)))
			}
			if turn.AnswerText != "" {
				messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(turn.AnswerText)))
			}
		}
	}

	prompt := req.Query
	if req.Intent != "" {
		prompt = fmt.Sprintf("Detected intent: %s\n\n%s", req.Intent, req.Query)
	}
	messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)))

	resp, err := m.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       m.opts.Model,
		Messages:    messages,
		MaxTokens:   m.opts.MaxTokens,
		Temperature: anthropic.Float(m.opts.Temperature),
		System: []anthropic.TextBlockParam{
			{Text: answerSystemPrompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic api error: %w", err)
	}

	var b strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			b.WriteString(block.AsText().Text)
		}
	}

	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", fmt.Errorf("empty completion")
	}
	return text, nil
}
