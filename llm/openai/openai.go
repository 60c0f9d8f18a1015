// Package openai adapts the OpenAI Chat Completions API to the core
// Classifier and Answerer boundaries.
package openai

import (
	"context"
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/campusmesh/campusmesh/core"
)

var intentJSON = jsoniter.ConfigCompatibleWithStandardLibrary

const classifierSystemPrompt = `You classify one parent or staff message sent to a school administration assistant.
Respond with a single JSON object and nothing else:
{"intent":"...","action":"...","action_confidence":0.0,"urgency":"...","urgency_confidence":0.0,"tone_major":"...","tone_major_confidence":0.0,"tone_minor":"...","tone_minor_confidence":0.0}
Known intents: data_query, registration, question, smalltalk.
Known actions: show_students_list, show_teachers_list, show_materials_list, show_meetings_list, show_live_scores, show_payments_list, start_registration, none.`

const answerSystemPrompt = `You are a helpful assistant for a school administration system.
Answer the user's question concisely. If you do not know, say so instead of inventing school data.`

// Options configure the OpenAI adapter (model id, sampling, API key).
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
	APIKey              string
	// HistoryTurns caps how many recent session turns are replayed as
	// conversation context.
	HistoryTurns int
}

// Model wraps the OpenAI Chat Completions API behind the core Classifier and
// Answerer interfaces.
type Model struct {
	client *openai.Client
	opts   Options
}

func defaultOptions() Options {
	return Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.2,
		MaxCompletionTokens: 1024,
		HistoryTurns:        5,
	}
}

// NewModel creates a new OpenAI model using the official client
func NewModel(optFns ...func(o *Options)) *Model {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}

	client := openai.NewClient(clientOpts...)

	return &Model{client: &client, opts: opts}
}

// NewModelFromClient creates a new OpenAI model from an existing client
func NewModelFromClient(client *openai.Client, optFns ...func(o *Options)) *Model {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Model{client: client, opts: opts}
}

// Resolve implements core.Classifier. The raw completion text is always
// preserved in RawModelOutput; when it is not valid JSON the result degrades
// to intent "unknown" instead of failing the turn.
func (m *Model) Resolve(ctx context.Context, query string, sess *core.Session, tc *core.TurnContext) (*core.IntentResult, error) {
	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(classifierSystemPrompt),
	}
	messages = append(messages, historyMessages(sess, m.opts.HistoryTurns)...)
	messages = append(messages, openai.UserMessage(query))

	content, err := m.complete(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("openai classify: %w", err)
	}

	result := &core.IntentResult{RawModelOutput: content}
	if err := intentJSON.UnmarshalFromString(content, result); err != nil {
		result = &core.IntentResult{Intent: "unknown", RawModelOutput: content}
	}
	if result.Intent == "" {
		result.Intent = "unknown"
	}

	return result, nil
}

// Answer implements core.Answerer.
func (m *Model) Answer(ctx context.Context, req core.AnswerRequest) (string, error) {
	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(answerSystemPrompt),
	}
	messages = append(messages, historyMessages(req.Session, m.opts.HistoryTurns)...)

	prompt := req.Query
	if req.Intent != "" {
		prompt = fmt.Sprintf("Detected intent: %s\n\n%s", req.Intent, req.Query)
	}
	messages = append(messages, openai.UserMessage(prompt))

	content, err := m.complete(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("openai answer: %w", err)
	}
	return strings.TrimSpace(content), nil
}

func (m *Model) complete(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion) (string, error) {
	resp, err := m.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages:            messages,
		Model:               m.opts.Model,
		Temperature:         openai.Float(m.opts.Temperature),
		MaxCompletionTokens: openai.Int(m.opts.MaxCompletionTokens),
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion")
	}
	return resp.Choices[0].Message.Content, nil
}

// historyMessages replays up to n recent session turns as chat context.
func historyMessages(sess *core.Session, n int) []openai.ChatCompletionMessageParamUnion {
	if sess == nil || n <= 0 {
		return nil
	}
	var messages []openai.ChatCompletionMessageParamUnion
	for _, turn := range sess.RecentTurns(n) {
		if turn.Query != "" {
			messages = append(messages, openai.UserMessage(turn.Query))
		}
		if turn.AnswerText != "" {
			messages = append(messages, openai.AssistantMessage(turn.AnswerText))
		}
	}
	return messages
}
